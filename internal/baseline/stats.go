package baseline

import (
	"fmt"
	"strings"

	"github.com/scan-io-git/sariftool/internal/sarif"
)

// Stats counts findings per baseline state.
type Stats struct {
	New       int
	Unchanged int
	Updated   int
	Absent    int
}

// Tally counts the baseline states of every finding in doc.
func Tally(doc *sarif.Document) Stats {
	var s Stats
	for _, run := range doc.Runs {
		for _, f := range run.Findings {
			if c := s.counter(f.BaselineState); c != nil {
				*c++
			}
		}
	}
	return s
}

func (s *Stats) counter(state sarif.BaselineState) *int {
	switch state {
	case sarif.BaselineNew:
		return &s.New
	case sarif.BaselineUnchanged:
		return &s.Unchanged
	case sarif.BaselineUpdated:
		return &s.Updated
	case sarif.BaselineAbsent:
		return &s.Absent
	}
	return nil
}

// Count returns the number of findings in state. Findings without a state
// are not counted.
func (s Stats) Count(state sarif.BaselineState) int {
	if c := s.counter(state); c != nil {
		return *c
	}
	return 0
}

// Total is the number of counted findings.
func (s Stats) Total() int {
	n := 0
	for _, state := range sarif.AllBaselineStates {
		n += s.Count(state)
	}
	return n
}

func (s Stats) String() string {
	parts := make([]string, 0, len(sarif.AllBaselineStates))
	for _, state := range sarif.AllBaselineStates {
		if state == sarif.BaselineNone {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%d", state, s.Count(state)))
	}
	return strings.Join(parts, " ")
}
