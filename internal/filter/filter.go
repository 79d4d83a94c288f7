// Package filter reduces runs to findings of requested kinds and levels.
package filter

import (
	"fmt"
	"strings"

	"github.com/scan-io-git/sariftool/internal/sarif"
)

// Criteria selects findings by kind and level. A finding is kept only when
// both its kind and its level are listed.
type Criteria struct {
	Kinds  []sarif.Kind
	Levels []sarif.Level
}

// DefaultCriteria keeps failures at warning or error level.
func DefaultCriteria() Criteria {
	return Criteria{
		Kinds:  []sarif.Kind{sarif.KindFail},
		Levels: []sarif.Level{sarif.LevelError, sarif.LevelWarning},
	}
}

// Matches reports whether f passes the criteria.
func (c Criteria) Matches(f *sarif.Finding) bool {
	return containsKind(c.Kinds, f.Kind) && containsLevel(c.Levels, f.Level)
}

// Filter returns a copy of run holding only the findings that match kinds and
// levels, in their original order.
func Filter(run *sarif.Run, kinds []sarif.Kind, levels []sarif.Level) *sarif.Run {
	c := Criteria{Kinds: kinds, Levels: levels}
	out := run.CloneEmpty()
	for _, f := range run.Findings {
		if c.Matches(f) {
			out.Findings = append(out.Findings, f.Clone())
		}
	}
	return out
}

// Document applies Filter to every run of doc.
func Document(doc *sarif.Document, c Criteria) *sarif.Document {
	out := &sarif.Document{Version: doc.Version, Schema: doc.Schema, Extra: doc.Extra.Clone()}
	out.Runs = make([]*sarif.Run, 0, len(doc.Runs))
	for _, run := range doc.Runs {
		out.Runs = append(out.Runs, Filter(run, c.Kinds, c.Levels))
	}
	return out
}

// ParseKinds parses a list of kind names separated by ';' or ','.
func ParseKinds(spec string) ([]sarif.Kind, error) {
	var kinds []sarif.Kind
	for _, name := range splitList(spec) {
		k, err := sarif.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("kind filter: %w", err)
		}
		if !containsKind(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

// ParseLevels parses a list of level names separated by ';' or ','.
func ParseLevels(spec string) ([]sarif.Level, error) {
	var levels []sarif.Level
	for _, name := range splitList(spec) {
		l, err := sarif.ParseLevel(name)
		if err != nil {
			return nil, fmt.Errorf("level filter: %w", err)
		}
		if !containsLevel(levels, l) {
			levels = append(levels, l)
		}
	}
	return levels, nil
}

func splitList(spec string) []string {
	fields := strings.FieldsFunc(spec, func(r rune) bool { return r == ';' || r == ',' })
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func containsKind(kinds []sarif.Kind, k sarif.Kind) bool {
	for _, candidate := range kinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func containsLevel(levels []sarif.Level, l sarif.Level) bool {
	for _, candidate := range levels {
		if candidate == l {
			return true
		}
	}
	return false
}
