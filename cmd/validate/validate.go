package validate

import (
	"fmt"

	"github.com/spf13/cobra"

	cmdutil "github.com/scan-io-git/sariftool/internal/cmd"
	"github.com/scan-io-git/sariftool/internal/config"
	"github.com/scan-io-git/sariftool/internal/logger"
	"github.com/scan-io-git/sariftool/internal/pipeline"
	"github.com/scan-io-git/sariftool/pkg/shared/errors"
)

// RunOptions holds flags for the validate command.
type RunOptions struct {
	Output              string   `json:"output,omitempty"`
	Inline              bool     `json:"inline,omitempty"`
	Force               bool     `json:"force,omitempty"`
	OutputVersion       string   `json:"sarif_output_version,omitempty"`
	Kinds               string   `json:"kind,omitempty"`
	Levels              string   `json:"level,omitempty"`
	Policy              string   `json:"policy,omitempty"`
	Schema              string   `json:"schema,omitempty"`
	Baseline            string   `json:"baseline,omitempty"`
	Threads             int      `json:"threads,omitempty"`
	SourceFolder        string   `json:"source_folder,omitempty"`
	PartialFingerprints []string `json:"partial_fingerprints,omitempty"`
	Compare             string   `json:"compare,omitempty"`
	RichReturnCode      bool     `json:"rich_return_code,omitempty"`
}

var (
	AppConfig *config.Config
	opts      RunOptions

	// Example usage for the validate command
	exampleValidateUsage = `  # Validate a log and print the summary
  sariftool validate results.sarif

  # Validate every log of a folder and write results next to each other
  sariftool validate --output out/ "reports/*.sarif"

  # Keep only errors of any kind and write a 1.0.0 log
  sariftool validate --kind "fail;review;open" --level error --sarif-output-version 1.0.0 --output legacy.sarif results.sarif

  # Compare against a baseline and update it in place
  sariftool validate --baseline baseline.sarif --inline results.sarif

  # Compare against a baseline, matching moved code by snippet hash
  sariftool validate --baseline baseline.sarif --source-folder ./src --partial-fingerprints snippetHash/v1 --output matched.sarif results.sarif

  # Apply a rule policy and report failure categories in the exit code
  sariftool validate --policy policy.yml --rich-return-code --output out.sarif results.sarif`

	// ValidateCmd represents the command to validate, filter, transcode and baseline analysis logs.
	ValidateCmd = &cobra.Command{
		Use:                   "validate [flags] TARGET [TARGET...]",
		Short:                 "Validate SARIF logs and compare them with a baseline",
		Example:               exampleValidateUsage,
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		RunE:                  runValidate,
	}
)

// Init wires config into this command.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runValidate is the main execution function for the validate command.
func runValidate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !cmdutil.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	lg := logger.NewLogger(AppConfig, "validate")

	if err := validate(&opts, args); err != nil {
		lg.Error("invalid arguments", "error", err)
		return errors.NewCommandError(fmt.Errorf("invalid arguments: %w", err), 1)
	}

	pipelineOpts, err := buildOptions(&opts, args, AppConfig)
	if err != nil {
		lg.Error("invalid arguments", "error", err)
		return errors.NewCommandError(fmt.Errorf("invalid arguments: %w", err), 1)
	}

	summary, err := pipeline.New(lg, nil).Run(cmd.Context(), pipelineOpts)
	if renderErr := summary.Render(cmd.OutOrStdout()); renderErr != nil {
		lg.Error("failed to print summary", "error", renderErr)
	}

	code := summary.ExitCode(pipelineOpts.RichReturnCode)
	if code == 0 {
		return nil
	}
	switch {
	case err != nil:
		return errors.NewCommandError(err, code)
	case summary.Failed() > 0:
		return errors.NewCommandErrorf(code, "%d of %d target(s) failed", summary.Failed(), len(summary.Results))
	default:
		return errors.NewCommandErrorf(code, "schema violations present")
	}
}

func init() {
	ValidateCmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file, or folder receiving <name>.sarif per target. Nothing is written when unset")
	ValidateCmd.Flags().BoolVar(&opts.Inline, "inline", false, "Write the result over the baseline file; takes precedence over --output")
	ValidateCmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite existing output files")
	ValidateCmd.Flags().StringVar(&opts.OutputVersion, "sarif-output-version", "", "SARIF version of written logs: 1.0.0 or 2.1.0 (default 2.1.0)")
	ValidateCmd.Flags().StringVar(&opts.Kinds, "kind", "", "Result kinds to keep, separated by ';' (default \"fail\")")
	ValidateCmd.Flags().StringVar(&opts.Levels, "level", "", "Result levels to keep, separated by ';' (default \"error;warning\")")
	ValidateCmd.Flags().StringVar(&opts.Policy, "policy", "", "YAML or JSON policy enabling, disabling and re-levelling rules")
	ValidateCmd.Flags().StringVar(&opts.Schema, "schema", "", "JSON schema to validate against instead of the built-in one")
	ValidateCmd.Flags().StringVar(&opts.Baseline, "baseline", "", "Baseline log to compare results with")
	ValidateCmd.Flags().IntVarP(&opts.Threads, "threads", "j", 0, "Number of targets processed at once (default 1)")
	ValidateCmd.Flags().StringVar(&opts.SourceFolder, "source-folder", "", "Source root used to fingerprint the code results point at")
	// --partial-fingerprints supports multiple usages or comma-separated values
	ValidateCmd.Flags().StringSliceVar(&opts.PartialFingerprints, "partial-fingerprints", nil, "Partial fingerprints that identify a result across code motion (default: all)")
	ValidateCmd.Flags().StringVar(&opts.Compare, "compare", "", "Attributes whose change marks a matched result updated, separated by ';' (default \"message;fingerprints\")")
	ValidateCmd.Flags().BoolVar(&opts.RichReturnCode, "rich-return-code", false, "Return a bitfield of failure categories instead of 0/1")
}
