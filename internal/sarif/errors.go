package sarif

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MalformedDocumentError is returned when input bytes cannot be read as a log.
// Offset is set for syntax errors, Path (a JSON pointer) for structural ones.
type MalformedDocumentError struct {
	Offset int64
	Path   string
	Err    error
}

func (e *MalformedDocumentError) Error() string {
	switch {
	case e.Path != "":
		return fmt.Sprintf("malformed document at %s: %v", e.Path, e.Err)
	case e.Offset > 0:
		return fmt.Sprintf("malformed document at byte %d: %v", e.Offset, e.Err)
	default:
		return fmt.Sprintf("malformed document: %v", e.Err)
	}
}

func (e *MalformedDocumentError) Unwrap() error {
	return e.Err
}

// UnsupportedVersionError is returned for a version outside the 1.0.0 and 2.x generations.
type UnsupportedVersionError struct {
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported SARIF version %q", e.Version)
}

// VersionMismatchError is returned when two documents, or a document and a
// requested output version, belong to different wire generations.
type VersionMismatchError struct {
	Want Version
	Got  Version
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("version mismatch: expected a %s document, got %s", e.Want, e.Got)
}

func malformed(path string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) && path == "" {
		return &MalformedDocumentError{Offset: syntaxErr.Offset, Err: err}
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && path == "" {
		return &MalformedDocumentError{Offset: typeErr.Offset, Err: err}
	}
	return &MalformedDocumentError{Path: path, Err: err}
}
