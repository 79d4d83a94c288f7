package validate

import (
	"fmt"

	"github.com/scan-io-git/sariftool/internal/baseline"
	cmdutil "github.com/scan-io-git/sariftool/internal/cmd"
	"github.com/scan-io-git/sariftool/internal/config"
	"github.com/scan-io-git/sariftool/internal/filter"
	"github.com/scan-io-git/sariftool/internal/pipeline"
	"github.com/scan-io-git/sariftool/internal/sarif"
)

// buildOptions merges flags over the pipeline section of cfg.
func buildOptions(o *RunOptions, args []string, cfg *config.Config) (pipeline.Options, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	pc := cfg.Pipeline
	out := pipeline.DefaultOptions()

	out.Targets = args
	out.PolicyPath = o.Policy
	out.SchemaPath = o.Schema
	out.BaselinePath = o.Baseline
	out.SourceFolder = o.SourceFolder
	out.Output.Path = o.Output
	out.Output.Inline = o.Inline
	out.Output.Force = o.Force
	out.Threads = config.SetThen(config.SetThen(o.Threads, pc.Threads), 1)
	out.RichReturnCode = o.RichReturnCode || config.GetBoolValue(cfg, "Pipeline.RichReturnCode", false)

	if version := config.SetThen(o.OutputVersion, pc.OutputVersion); version != "" {
		v, err := sarif.ParseVersion(version)
		if err != nil {
			return out, fmt.Errorf("--sarif-output-version: %w", err)
		}
		out.Output.Version = v
	}

	if spec := config.SetThen(o.Kinds, cmdutil.JoinList(pc.Kinds)); spec != "" {
		kinds, err := filter.ParseKinds(spec)
		if err != nil {
			return out, err
		}
		out.Filter.Kinds = kinds
	}
	if spec := config.SetThen(o.Levels, cmdutil.JoinList(pc.Levels)); spec != "" {
		levels, err := filter.ParseLevels(spec)
		if err != nil {
			return out, err
		}
		out.Filter.Levels = levels
	}

	out.Match.PartialKeys = config.SetThen(o.PartialFingerprints, pc.PartialFingerprints)
	if spec := config.SetThen(o.Compare, pc.Compare); spec != "" {
		set, err := baseline.ParseCompareSet(spec)
		if err != nil {
			return out, fmt.Errorf("--compare: %w", err)
		}
		out.Match.Compare = set
	}
	return out, nil
}
