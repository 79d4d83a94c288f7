package pipeline

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/scan-io-git/sariftool/internal/baseline"
	"github.com/scan-io-git/sariftool/internal/transcode"
)

const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// TargetResult is the outcome of one target.
type TargetResult struct {
	Target   string
	Output   string
	Status   string
	Category Category
	Err      error
	// Warnings are the values that had no form in the output version.
	Warnings []transcode.Warning
	// Stats is set when a baseline was matched.
	Stats            *baseline.Stats
	SchemaViolations int
	Findings         int
}

func (r TargetResult) Failed() bool {
	return r.Status != StatusOK
}

// Rich exit code bits.
const (
	ExitSchemaViolationsPresent = 1 << iota
	ExitValidationError
	ExitConfigurationError
	ExitOutputConflict
	ExitVersionError
)

// Summary collects the results of a pipeline run in target order.
type Summary struct {
	Results []TargetResult
	// ConfigErr is set when the run was refused before any target was processed.
	ConfigErr error
}

// Failed counts failed targets.
func (s *Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Failed() {
			n++
		}
	}
	return n
}

// ExitCode is 0 when every target succeeded and 1 otherwise. In rich mode it
// is a bitfield of the failure categories seen, and schema violations set a
// bit even on targets that succeeded.
func (s *Summary) ExitCode(rich bool) int {
	if !rich {
		if s.ConfigErr != nil || s.Failed() > 0 {
			return 1
		}
		return 0
	}

	code := 0
	if s.ConfigErr != nil {
		code |= ExitConfigurationError
	}
	for _, r := range s.Results {
		if r.SchemaViolations > 0 {
			code |= ExitSchemaViolationsPresent
		}
		switch r.Category {
		case CategoryMalformed, CategoryIO:
			code |= ExitValidationError
		case CategoryConfiguration:
			code |= ExitConfigurationError
		case CategoryOutputConflict:
			code |= ExitOutputConflict
		case CategoryUnsupportedVersion, CategoryVersionMismatch:
			code |= ExitVersionError
		case CategoryNone:
		}
	}
	return code
}

// Render writes a human readable report, one line per target.
func (s *Summary) Render(w io.Writer) error {
	title := cases.Title(language.English)
	var b strings.Builder
	if s.ConfigErr != nil {
		fmt.Fprintf(&b, "%s: %v\n", title.String(CategoryConfiguration.String()), s.ConfigErr)
	}
	if len(s.Results) > 0 {
		fmt.Fprintf(&b, "Targets: %d, succeeded: %d, failed: %d\n", len(s.Results), len(s.Results)-s.Failed(), s.Failed())
	}
	for _, r := range s.Results {
		name := r.Target
		if r.Output != "" {
			name += " -> " + r.Output
		}
		if r.Failed() {
			category := title.String(strings.ReplaceAll(r.Category.String(), "-", " "))
			fmt.Fprintf(&b, "  %s: %s (%s): %v\n", name, r.Status, category, r.Err)
			continue
		}
		fmt.Fprintf(&b, "  %s: %s, findings=%d schema-violations=%d warnings=%d", name, r.Status, r.Findings, r.SchemaViolations, len(r.Warnings))
		if r.Stats != nil {
			fmt.Fprintf(&b, " %s", r.Stats)
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
