package version

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/sariftool/internal/config"
	"github.com/scan-io-git/sariftool/internal/sarif"
)

var (
	AppConfig     *config.Config
	CoreVersion   = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"

	asJSON bool
)

// Versions holds version information for the application and the log formats it speaks.
type Versions struct {
	Version       string   `json:"version"`
	GolangVersion string   `json:"golang_version"`
	BuildTime     string   `json:"build_time"`
	SARIFVersions []string `json:"sarif_versions"`
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version number of the application",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersionInfo(cmd.OutOrStdout(), currentVersions(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print version information as JSON")
	return cmd
}

func currentVersions() Versions {
	golang := GolangVersion
	if golang == "unknown" {
		golang = runtime.Version()
	}
	return Versions{
		Version:       CoreVersion,
		GolangVersion: golang,
		BuildTime:     BuildTime,
		SARIFVersions: []string{string(sarif.Version1), string(sarif.Version2)},
	}
}

// printVersionInfo prints the version information for the application.
func printVersionInfo(w io.Writer, v Versions, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintf(w, "Core Version: v%s\nSARIF Versions: %s, %s\nGo Version: %s\nBuild Time: %s\n",
		v.Version, v.SARIFVersions[0], v.SARIFVersions[1], v.GolangVersion, v.BuildTime)
	return err
}
