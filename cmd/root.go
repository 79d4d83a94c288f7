package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/sariftool/cmd/transform"
	"github.com/scan-io-git/sariftool/cmd/validate"
	"github.com/scan-io-git/sariftool/cmd/version"
	"github.com/scan-io-git/sariftool/internal/config"
	"github.com/scan-io-git/sariftool/pkg/shared/errors"
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "sariftool [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "sariftool validates, filters, converts and baselines SARIF logs.",
		Long: `sariftool validates SARIF analysis logs against the schema of their version and a set of
	built-in rules, filters results by kind and level, converts between SARIF 1.0.0 and 2.1.0,
	and compares results with a baseline log.
	`,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file (default is config.yml, if present)")
	rootCmd.AddCommand(version.NewVersionCmd())
	rootCmd.AddCommand(validate.ValidateCmd)
	rootCmd.AddCommand(transform.TransformCmd)
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		var cmdErr *errors.CommandError
		if stderrors.As(err, &cmdErr) {
			return cmdErr.ExitCode
		}
		return 1
	}
	return 0
}

func initConfig() {
	var err error

	optional := cfgFile == ""
	AppConfig, err = config.LoadConfig(config.SetThen(cfgFile, config.DefaultConfigPath), optional)
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing config file function is crashed - %v \n", err)
		os.Exit(1)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	version.Init(AppConfig)
	validate.Init(AppConfig)
	transform.Init(AppConfig)
}
