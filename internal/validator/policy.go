package validator

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/scan-io-git/sariftool/internal/sarif"
)

// RulePolicy overrides how one rule's findings are treated.
type RulePolicy struct {
	Enabled *bool        `yaml:"enabled"`
	Level   *sarif.Level `yaml:"level"`
}

// Policy maps rule identifiers to overrides. The zero Policy changes nothing.
type Policy struct {
	Rules map[string]RulePolicy `yaml:"rules"`
}

// ParsePolicy reads a policy document. JSON documents are accepted as YAML.
func ParsePolicy(data []byte) (Policy, error) {
	var p Policy
	d := yaml.NewDecoder(bytes.NewReader(data))
	d.SetStrict(true)
	if err := d.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Policy{}, fmt.Errorf("error parsing policy: %w", err)
	}
	return p, nil
}

// LoadPolicy reads the policy file at path.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("error reading policy %q: %w", path, err)
	}
	p, err := ParsePolicy(data)
	if err != nil {
		return Policy{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Enabled reports whether findings of ruleID are kept.
func (p Policy) Enabled(ruleID string) bool {
	rp, ok := p.Rules[ruleID]
	return !ok || rp.Enabled == nil || *rp.Enabled
}

// Level returns the configured level for ruleID, or def.
func (p Policy) Level(ruleID string, def sarif.Level) sarif.Level {
	if rp, ok := p.Rules[ruleID]; ok && rp.Level != nil {
		return *rp.Level
	}
	return def
}

// ApplyPolicy returns a copy of doc with overridden levels applied and the
// findings of disabled rules removed. Levels are overridden on failures only;
// other kinds keep their non-blocking level.
func ApplyPolicy(doc *sarif.Document, p Policy) *sarif.Document {
	out := doc.Clone()
	for i, run := range out.Runs {
		out.Runs[i] = applyRunPolicy(run, p)
	}
	return out
}

// applyRunPolicy edits run in place and returns it.
func applyRunPolicy(run *sarif.Run, p Policy) *sarif.Run {
	if len(p.Rules) == 0 || run.Findings == nil {
		return run
	}
	kept := make([]*sarif.Finding, 0, len(run.Findings))
	for _, f := range run.Findings {
		if !p.Enabled(f.RuleID) {
			continue
		}
		if rp := p.Rules[f.RuleID]; rp.Level != nil && f.Kind == sarif.KindFail {
			f.SetLevel(*rp.Level)
		}
		kept = append(kept, f)
	}
	run.Findings = kept
	return run
}
