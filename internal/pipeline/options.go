package pipeline

import (
	"github.com/scan-io-git/sariftool/internal/baseline"
	"github.com/scan-io-git/sariftool/internal/filter"
	"github.com/scan-io-git/sariftool/internal/sarif"
)

// OutputOptions says where and in which version results are written.
type OutputOptions struct {
	// Path is a file for a single target or a folder receiving <name>.sarif
	// per target. Empty means results are not written.
	Path string
	// Inline writes the result over the baseline file.
	Inline bool
	// Force allows replacing an existing output file.
	Force bool
	// Version is the wire version of written logs; empty selects the current one.
	Version sarif.Version
}

// FilterOptions selects the findings kept in the output. A nil list selects
// the default for that list.
type FilterOptions struct {
	Kinds  []sarif.Kind
	Levels []sarif.Level
}

// Options configures one pipeline run.
type Options struct {
	// Targets are log paths or glob patterns.
	Targets      []string
	Output       OutputOptions
	Filter       FilterOptions
	PolicyPath   string
	SchemaPath   string
	BaselinePath string
	Match        baseline.Config
	// Threads bounds how many targets are processed at once.
	Threads int
	// SourceFolder, when set, is the root that result URIs are resolved
	// against to fingerprint the code they point at.
	SourceFolder   string
	RichReturnCode bool
}

// DefaultOptions returns options with the default filter, matching and
// output version.
func DefaultOptions() Options {
	criteria := filter.DefaultCriteria()
	return Options{
		Output:  OutputOptions{Version: sarif.Version2},
		Filter:  FilterOptions{Kinds: criteria.Kinds, Levels: criteria.Levels},
		Match:   baseline.DefaultConfig(),
		Threads: 1,
	}
}

func (o FilterOptions) criteria() filter.Criteria {
	c := filter.DefaultCriteria()
	if o.Kinds != nil {
		c.Kinds = o.Kinds
	}
	if o.Levels != nil {
		c.Levels = o.Levels
	}
	return c
}
