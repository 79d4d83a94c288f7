package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/scan-io-git/sariftool/internal/filter"
	"github.com/scan-io-git/sariftool/internal/sarif"
	"github.com/scan-io-git/sariftool/internal/transcode"
	"github.com/scan-io-git/sariftool/internal/validator"
	"github.com/scan-io-git/sariftool/pkg/shared/files"
)

// job is one target and where its result goes.
type job struct {
	Target string
	// Output is empty when the result is not written.
	Output string
}

// plan is everything resolved from Options before any target is touched.
type plan struct {
	jobs     []job
	policy   validator.Policy
	schema   *validator.Schema
	version  sarif.Version
	criteria filter.Criteria

	hasBaseline bool
	// baseline is already at the current wire generation.
	baseline    *sarif.Document
	baselineErr error
}

func (p *Pipeline) plan(opts Options) (*plan, error) {
	if len(opts.Targets) == 0 {
		return nil, configErrorf("no targets given")
	}
	targets, err := files.ExpandPatterns(opts.Targets)
	if err != nil {
		return nil, &ConfigurationError{Reason: "resolving targets", Err: err}
	}

	out := opts.Output
	switch {
	case out.Inline && opts.BaselinePath == "":
		return nil, configErrorf("inline output requires a baseline")
	case out.Inline && len(targets) > 1:
		return nil, configErrorf("inline output accepts a single target, got %d", len(targets))
	case opts.BaselinePath != "" && !out.Inline && out.Path == "":
		return nil, configErrorf("a baseline requires an output path or inline output")
	}

	if out.Inline && out.Path != "" {
		p.logger.Warn("output path ignored, the result is written over the baseline", "output", out.Path, "baseline", opts.BaselinePath)
	}

	pl := &plan{
		version:     out.Version,
		criteria:    opts.Filter.criteria(),
		hasBaseline: opts.BaselinePath != "",
	}
	if pl.version == "" {
		pl.version = sarif.Version2
	}
	if pl.version.Generation() == 0 {
		return nil, configErrorf("unsupported output version %q", pl.version)
	}

	if pl.jobs, err = resolveJobs(targets, opts); err != nil {
		return nil, err
	}

	if opts.PolicyPath != "" {
		if pl.policy, err = validator.LoadPolicy(opts.PolicyPath); err != nil {
			return nil, &ConfigurationError{Reason: "loading policy", Err: err}
		}
	}
	if opts.SchemaPath != "" {
		if pl.schema, err = validator.LoadSchema(opts.SchemaPath); err != nil {
			return nil, &ConfigurationError{Reason: "loading schema", Err: err}
		}
	}
	if pl.hasBaseline {
		pl.baseline, pl.baselineErr = p.loadBaseline(opts.BaselinePath, opts.SourceFolder)
	}
	return pl, nil
}

// resolveJobs assigns output paths and rejects targets that would share one.
func resolveJobs(targets []string, opts Options) ([]job, error) {
	jobs := make([]job, 0, len(targets))
	owners := make(map[string]string, len(targets))
	for _, target := range targets {
		j := job{Target: target}
		switch {
		case opts.Output.Inline:
			j.Output = opts.BaselinePath
		case opts.Output.Path != "":
			output, _, err := files.DetermineFileFullPath(opts.Output.Path, outputName(target), len(targets) > 1)
			if err != nil {
				return nil, &ConfigurationError{Reason: "resolving output path", Err: err}
			}
			j.Output = output
		}

		if j.Output != "" {
			key := pathKey(j.Output)
			if owner, taken := owners[key]; taken {
				return nil, configErrorf("targets %q and %q resolve to the same output %q", owner, target, j.Output)
			}
			owners[key] = target
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// loadBaseline reads the baseline once for every target. Failures are
// reported per target. With a source root, baseline findings are
// fingerprinted like the targets' so identical findings keep equal keys.
func (p *Pipeline) loadBaseline(path, sourceFolder string) (*sarif.Document, error) {
	raw, err := p.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading baseline %q: %w", path, err)
	}
	doc, err := sarif.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("baseline %q: %w", path, err)
	}
	upgraded, _ := transcode.Upgrade(doc)
	if sourceFolder != "" {
		n := addSnippetFingerprints(upgraded, sourceFolder)
		p.logger.Debug("baseline snippet fingerprints added", "count", n)
	}
	p.logger.Debug("baseline loaded", "path", path, "version", doc.Version, "findings", doc.FindingCount())
	return upgraded, nil
}

func outputName(target string) string {
	base := filepath.Base(target)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".sarif"
}

func pathKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
