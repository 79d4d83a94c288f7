package validate

import (
	"fmt"
	"strings"

	"github.com/scan-io-git/sariftool/pkg/shared/files"
)

// validate validates the RunOptions for the validate command.
func validate(o *RunOptions, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("at least one target is required")
	}
	for _, arg := range args {
		if strings.TrimSpace(arg) == "" {
			return fmt.Errorf("target cannot be empty")
		}
	}
	if o.Threads < 0 {
		return fmt.Errorf("'threads' cannot be negative")
	}
	if o.Inline && o.Baseline == "" {
		return fmt.Errorf("--inline requires --baseline")
	}
	for _, in := range []struct{ flag, path string }{{"--policy", o.Policy}, {"--schema", o.Schema}} {
		if in.path == "" {
			continue
		}
		if err := files.ValidatePath(in.path); err != nil {
			return fmt.Errorf("%s: %w", in.flag, err)
		}
	}
	return nil
}
