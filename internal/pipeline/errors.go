package pipeline

import (
	"errors"
	"fmt"

	"github.com/scan-io-git/sariftool/internal/sarif"
)

// ConfigurationError reports options that cannot be executed. It is raised
// before any target is processed.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configErrorf(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// OutputConflictError reports an existing destination that may not be replaced.
type OutputConflictError struct {
	Path string
}

func (e *OutputConflictError) Error() string {
	return fmt.Sprintf("output %q already exists; use force to overwrite", e.Path)
}

// Category classifies why a target failed.
type Category int

const (
	CategoryNone Category = iota
	CategoryMalformed
	CategoryUnsupportedVersion
	CategoryVersionMismatch
	CategoryOutputConflict
	CategoryConfiguration
	CategoryIO
)

var categoryNames = [...]string{
	CategoryNone:               "none",
	CategoryMalformed:          "malformed-document",
	CategoryUnsupportedVersion: "unsupported-version",
	CategoryVersionMismatch:    "version-mismatch",
	CategoryOutputConflict:     "output-conflict",
	CategoryConfiguration:      "configuration",
	CategoryIO:                 "io",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Categorize maps an error to its failure category.
func Categorize(err error) Category {
	var (
		malformed   *sarif.MalformedDocumentError
		unsupported *sarif.UnsupportedVersionError
		mismatch    *sarif.VersionMismatchError
		conflict    *OutputConflictError
		config      *ConfigurationError
	)
	switch {
	case err == nil:
		return CategoryNone
	case errors.As(err, &malformed):
		return CategoryMalformed
	case errors.As(err, &unsupported):
		return CategoryUnsupportedVersion
	case errors.As(err, &mismatch):
		return CategoryVersionMismatch
	case errors.As(err, &conflict):
		return CategoryOutputConflict
	case errors.As(err, &config):
		return CategoryConfiguration
	default:
		return CategoryIO
	}
}
