package transform

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	cmdutil "github.com/scan-io-git/sariftool/internal/cmd"
	"github.com/scan-io-git/sariftool/internal/config"
	"github.com/scan-io-git/sariftool/internal/logger"
	"github.com/scan-io-git/sariftool/internal/sarif"
	"github.com/scan-io-git/sariftool/internal/transcode"
	"github.com/scan-io-git/sariftool/pkg/shared/errors"
	"github.com/scan-io-git/sariftool/pkg/shared/files"
)

// RunOptions holds flags for the transform command.
type RunOptions struct {
	Output        string `json:"output,omitempty"`
	OutputVersion string `json:"sarif_output_version,omitempty"`
	Force         bool   `json:"force,omitempty"`
}

var (
	AppConfig *config.Config
	opts      RunOptions

	// Example usage for the transform command
	exampleTransformUsage = `  # Convert a 1.0.0 log to 2.1.0 and print it
  sariftool transform legacy.sarif

  # Convert a current log to 1.0.0
  sariftool transform --sarif-output-version 1.0.0 --output legacy.sarif results.sarif`

	// TransformCmd converts a log between SARIF versions.
	TransformCmd = &cobra.Command{
		Use:                   "transform [--sarif-output-version VERSION] [--output PATH] [--force] TARGET",
		Short:                 "Convert a SARIF log between versions 1.0.0 and 2.1.0",
		Example:               exampleTransformUsage,
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		RunE:                  runTransform,
	}
)

// Init wires config into this command.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

func runTransform(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !cmdutil.HasFlags(cmd.Flags()) {
		return cmd.Help()
	}

	lg := logger.NewLogger(AppConfig, "transform")

	version, err := validate(&opts, args)
	if err != nil {
		lg.Error("invalid arguments", "error", err)
		return errors.NewCommandError(fmt.Errorf("invalid arguments: %w", err), 1)
	}

	data, err := transformFile(args[0], version, lg)
	if err != nil {
		lg.Error("failed to transform log", "target", args[0], "error", err)
		return errors.NewCommandError(err, 2)
	}

	if opts.Output == "" || opts.Output == "-" {
		_, err = cmd.OutOrStdout().Write(data)
	} else if opts.Force {
		err = files.WriteFileAtomic(opts.Output, data, 0o644)
	} else {
		err = files.WriteFileExclusive(opts.Output, data, 0o644)
	}
	if err != nil {
		lg.Error("failed to write log", "output", opts.Output, "error", err)
		return errors.NewCommandError(fmt.Errorf("failed to write %q: %w", opts.Output, err), 2)
	}
	return nil
}

// transformFile reads path and returns it serialized at version.
func transformFile(path string, version sarif.Version, lg hclog.Logger) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	doc, err := sarif.Parse(raw)
	if err != nil {
		return nil, err
	}
	out, warnings, err := transcode.To(doc, version)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		lg.Warn("value not representable", "warning", w.String())
	}
	return sarif.Serialize(out, version)
}

func validate(o *RunOptions, args []string) (sarif.Version, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("exactly one target is required")
	}
	if o.OutputVersion == "" {
		return sarif.Version2, nil
	}
	return sarif.ParseVersion(o.OutputVersion)
}

func init() {
	TransformCmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file; stdout when unset or \"-\"")
	TransformCmd.Flags().StringVar(&opts.OutputVersion, "sarif-output-version", "", "SARIF version to convert to: 1.0.0 or 2.1.0 (default 2.1.0)")
	TransformCmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing output file")
}
