package validator

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/scan-io-git/sariftool/internal/sarif"
)

//go:embed schemas/*.json
var builtinSchemas embed.FS

// SchemaViolation is one structural problem found in a raw log.
type SchemaViolation struct {
	// Path is a JSON pointer into the log.
	Path    string
	Message string
}

func (v SchemaViolation) String() string {
	path := v.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s: %s", path, v.Message)
}

// Schema is a compiled JSON schema for analysis logs.
type Schema struct {
	Name     string
	compiled *jsonschema.Schema
}

var (
	builtinOnce    sync.Once
	builtinByGen   map[int]*Schema
	builtinLoadErr error
	builtinFiles   = map[int]string{
		1: "schemas/sarif-1.0.0.json",
		2: "schemas/sarif-2.1.0.json",
	}
)

func compileSchema(name string, data []byte) (*Schema, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error adding schema %q: %w", name, err)
	}
	compiled, err := c.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("error compiling schema %q: %w", name, err)
	}
	return &Schema{Name: name, compiled: compiled}, nil
}

// BuiltinSchema returns the embedded schema for the wire generation of v.
// Unknown versions get the current-generation schema.
func BuiltinSchema(v sarif.Version) (*Schema, error) {
	builtinOnce.Do(func() {
		builtinByGen = make(map[int]*Schema, len(builtinFiles))
		for gen, file := range builtinFiles {
			data, err := builtinSchemas.ReadFile(file)
			if err != nil {
				builtinLoadErr = err
				return
			}
			s, err := compileSchema(file, data)
			if err != nil {
				builtinLoadErr = err
				return
			}
			builtinByGen[gen] = s
		}
	})
	if builtinLoadErr != nil {
		return nil, builtinLoadErr
	}
	if v.Generation() == 1 {
		return builtinByGen[1], nil
	}
	return builtinByGen[2], nil
}

// LoadSchema compiles a user supplied schema file.
func LoadSchema(path string) (*Schema, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("error resolving schema path %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("error reading schema %q: %w", path, err)
	}
	return compileSchema(filepath.ToSlash(abs), data)
}

// ValidateSchema checks raw against schema, or against the embedded schema of
// the log's declared version when schema is nil. Violations are sorted by path.
// An error is returned only when raw is not JSON or the schema is unusable.
func ValidateSchema(raw []byte, schema *Schema) ([]SchemaViolation, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var instance interface{}
	if err := dec.Decode(&instance); err != nil {
		return nil, fmt.Errorf("error decoding log: %w", err)
	}

	if schema == nil {
		var err error
		if schema, err = BuiltinSchema(declaredVersion(instance)); err != nil {
			return nil, err
		}
	}

	err := schema.compiled.Validate(instance)
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("error validating against %q: %w", schema.Name, err)
	}

	violations := collectLeaves(verr, nil)
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].Path < violations[j].Path
	})
	return dedupe(violations), nil
}

func declaredVersion(instance interface{}) sarif.Version {
	obj, ok := instance.(map[string]interface{})
	if !ok {
		return sarif.Version2
	}
	v, _ := obj["version"].(string)
	return sarif.Version(v)
}

func collectLeaves(e *jsonschema.ValidationError, out []SchemaViolation) []SchemaViolation {
	if len(e.Causes) == 0 {
		return append(out, SchemaViolation{Path: e.InstanceLocation, Message: e.Message})
	}
	for _, cause := range e.Causes {
		out = collectLeaves(cause, out)
	}
	return out
}

func dedupe(violations []SchemaViolation) []SchemaViolation {
	seen := make(map[SchemaViolation]struct{}, len(violations))
	out := violations[:0]
	for _, v := range violations {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
