// Package pipeline runs analysis logs through validation, policy, filtering,
// baseline matching and transcoding, and writes the results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/sariftool/internal/baseline"
	"github.com/scan-io-git/sariftool/internal/filter"
	"github.com/scan-io-git/sariftool/internal/sarif"
	"github.com/scan-io-git/sariftool/internal/transcode"
	"github.com/scan-io-git/sariftool/internal/validator"
	"github.com/scan-io-git/sariftool/pkg/shared"
)

// Pipeline processes targets. One Pipeline may serve several runs.
type Pipeline struct {
	logger hclog.Logger
	fs     FileSystem
	locks  pathLocks
}

// New returns a Pipeline. A nil logger discards output and a nil fs uses
// the local file system.
func New(logger hclog.Logger, fsys FileSystem) *Pipeline {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	return &Pipeline{logger: logger, fs: fsys}
}

// Run processes every target of opts. The returned error is non-nil only for
// a *ConfigurationError, in which case no target was touched. Target failures
// are reported in the summary.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Summary, error) {
	pl, err := p.plan(opts)
	if err != nil {
		p.logger.Error("refusing to run", "error", err)
		return &Summary{ConfigErr: err}, err
	}
	p.logger.Info("processing targets", "count", len(pl.jobs), "threads", opts.Threads, "output-version", pl.version)

	results := make([]TargetResult, len(pl.jobs))
	shared.ForEachWithBoundedGoroutines(ctx, opts.Threads, pl.jobs, func(i int, j job, err error) {
		if err == nil {
			results[i] = p.process(j, pl, opts)
		} else {
			results[i] = failed(j, err)
		}
		r := results[i]
		if r.Failed() {
			p.logger.Error("target failed", "target", r.Target, "category", r.Category, "error", r.Err)
		} else {
			p.logger.Info("target processed", "target", r.Target, "output", r.Output, "findings", r.Findings)
		}
	})
	return &Summary{Results: results}, nil
}

func failed(j job, err error) TargetResult {
	return TargetResult{
		Target:   j.Target,
		Output:   j.Output,
		Status:   StatusFailed,
		Category: Categorize(err),
		Err:      err,
	}
}

func (p *Pipeline) process(j job, pl *plan, opts Options) TargetResult {
	logger := p.logger.With("target", j.Target)
	res := TargetResult{Target: j.Target, Output: j.Output}
	fail := func(err error) TargetResult {
		out := failed(j, err)
		out.SchemaViolations = res.SchemaViolations
		out.Warnings = res.Warnings
		return out
	}

	raw, err := p.fs.ReadFile(j.Target)
	if err != nil {
		return fail(fmt.Errorf("error reading target: %w", err))
	}
	doc, err := sarif.Parse(raw)
	if err != nil {
		return fail(err)
	}

	violations, err := validator.ValidateSchema(raw, pl.schema)
	if err != nil {
		return fail(err)
	}
	res.SchemaViolations = len(violations)
	if len(violations) > 0 {
		logger.Warn("schema violations found", "count", len(violations))
	}
	doc = validator.ValidateDocument(doc, violations, pl.policy, j.Target)

	if opts.SourceFolder != "" {
		n := addSnippetFingerprints(doc, opts.SourceFolder)
		logger.Debug("snippet fingerprints added", "count", n)
	}

	doc = filter.Document(doc, pl.criteria)

	if pl.hasBaseline {
		if pl.baselineErr != nil {
			return fail(pl.baselineErr)
		}
		current, _ := transcode.Upgrade(doc)
		if doc, err = baseline.Match(current, pl.baseline, opts.Match); err != nil {
			return fail(err)
		}
		stats := baseline.Tally(doc)
		res.Stats = &stats
		logger.Debug("baseline matched", "findings", stats.Total(), "stats", stats.String())
	}

	out, warnings, err := transcode.To(doc, pl.version)
	if err != nil {
		return fail(err)
	}
	res.Warnings = warnings
	for _, w := range warnings {
		logger.Warn("value not representable", "warning", w.String())
	}
	res.Findings = out.FindingCount()

	if j.Output == "" {
		res.Status = StatusOK
		return res
	}
	data, err := sarif.Serialize(out, pl.version)
	if err != nil {
		return fail(err)
	}
	if pathKey(j.Output) == pathKey(j.Target) && !opts.Output.Force {
		return fail(configErrorf("output %q would replace its own target", j.Output))
	}
	if err := p.write(j.Output, data, opts.Output.Inline || opts.Output.Force); err != nil {
		return fail(err)
	}
	res.Status = StatusOK
	return res
}

// write stores data at path. Without replace an existing file is an
// *OutputConflictError and nothing is written.
func (p *Pipeline) write(path string, data []byte, replace bool) error {
	unlock := p.locks.lock(pathKey(path))
	defer unlock()

	if replace {
		if err := p.fs.WriteFileAtomic(path, data); err != nil {
			return fmt.Errorf("error writing %q: %w", path, err)
		}
		return nil
	}

	if _, err := p.fs.Stat(path); err == nil {
		return &OutputConflictError{Path: path}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error checking %q: %w", path, err)
	}
	if err := p.fs.WriteFileExclusive(path, data); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return &OutputConflictError{Path: path}
		}
		return fmt.Errorf("error writing %q: %w", path, err)
	}
	return nil
}
