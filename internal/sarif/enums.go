package sarif

import (
	"fmt"
	"strings"

	gosarif "github.com/owenrumney/go-sarif/v2/sarif"
)

// Version is the wire-format version string a document declares.
type Version string

const (
	// Version1 is the legacy 1.0.0 wire format.
	Version1 Version = "1.0.0"
	// Version2 is the current wire format; any "2.x" literal belongs to the same generation.
	Version2 Version = Version(gosarif.Version210)
)

// Generation returns 1 or 2 for supported versions and 0 otherwise.
func (v Version) Generation() int {
	switch {
	case v == Version1:
		return 1
	case strings.HasPrefix(string(v), "2."):
		return 2
	default:
		return 0
	}
}

// SameGeneration reports whether both versions share one wire format.
func (v Version) SameGeneration(other Version) bool {
	return v.Generation() != 0 && v.Generation() == other.Generation()
}

// ParseVersion validates a version literal.
func ParseVersion(s string) (Version, error) {
	v := Version(strings.TrimSpace(s))
	if v.Generation() == 0 {
		return "", &UnsupportedVersionError{Version: s}
	}
	return v, nil
}

// Level is the severity of a finding.
type Level int

const (
	LevelNone Level = iota
	LevelNote
	LevelWarning
	LevelError
)

var levelNames = [...]string{
	LevelNone:    "none",
	LevelNote:    "note",
	LevelWarning: "warning",
	LevelError:   "error",
}

// AllLevels lists every level in ascending severity.
var AllLevels = []Level{LevelNone, LevelNote, LevelWarning, LevelError}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("Level(%d)", int(l))
	}
	return levelNames[l]
}

// Blocking reports whether the level marks a failure.
func (l Level) Blocking() bool {
	return l == LevelWarning || l == LevelError
}

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Level(i), nil
		}
	}
	return LevelNone, fmt.Errorf("unknown level %q", s)
}

// UnmarshalYAML lets policies spell levels by name.
func (l *Level) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Kind classifies what a finding reports, independently of its level.
type Kind int

const (
	KindFail Kind = iota
	KindPass
	KindReview
	KindOpen
	KindNotApplicable
	KindInformational
)

var kindNames = [...]string{
	KindFail:          "fail",
	KindPass:          "pass",
	KindReview:        "review",
	KindOpen:          "open",
	KindNotApplicable: "notApplicable",
	KindInformational: "informational",
}

// AllKinds lists every kind.
var AllKinds = []Kind{KindFail, KindPass, KindReview, KindOpen, KindNotApplicable, KindInformational}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind parses a kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Kind(i), nil
		}
	}
	return KindFail, fmt.Errorf("unknown kind %q", s)
}

// BaselineState is the lifecycle of a finding relative to a baseline log.
type BaselineState int

const (
	BaselineNone BaselineState = iota
	BaselineNew
	BaselineUnchanged
	BaselineUpdated
	BaselineAbsent
)

var baselineNames = [...]string{
	BaselineNone:      "none",
	BaselineNew:       "new",
	BaselineUnchanged: "unchanged",
	BaselineUpdated:   "updated",
	BaselineAbsent:    "absent",
}

// AllBaselineStates lists every state, None first.
var AllBaselineStates = []BaselineState{BaselineNone, BaselineNew, BaselineUnchanged, BaselineUpdated, BaselineAbsent}

func (s BaselineState) String() string {
	if s < 0 || int(s) >= len(baselineNames) {
		return fmt.Sprintf("BaselineState(%d)", int(s))
	}
	return baselineNames[s]
}

// ParseBaselineState parses a 2.x baseline state name.
func ParseBaselineState(s string) (BaselineState, error) {
	for i, name := range baselineNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return BaselineState(i), nil
		}
	}
	return BaselineNone, fmt.Errorf("unknown baseline state %q", s)
}
