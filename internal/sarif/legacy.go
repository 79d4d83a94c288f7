package sarif

import "fmt"

// legacyLevels maps every 1.0.0 level term to a kind and level.
var legacyLevels = map[string]struct {
	kind  Kind
	level Level
}{
	"error":         {KindFail, LevelError},
	"warning":       {KindFail, LevelWarning},
	"note":          {KindFail, LevelNote},
	"default":       {KindFail, LevelWarning},
	"pass":          {KindPass, LevelNone},
	"notApplicable": {KindNotApplicable, LevelNone},
	"open":          {KindOpen, LevelNone},
}

// ParseLegacyLevel maps a 1.0.0 level term to its kind and level.
func ParseLegacyLevel(term string) (Kind, Level, error) {
	m, ok := legacyLevels[term]
	if !ok {
		return KindFail, LevelNone, fmt.Errorf("unknown 1.0.0 level %q", term)
	}
	return m.kind, m.level, nil
}

// LegacyLevel maps a kind and level to the closest 1.0.0 level term. exact is
// false when the pair has no 1.0.0 form and the term is a best effort.
func LegacyLevel(k Kind, l Level) (term string, exact bool) {
	switch k {
	case KindFail:
		switch l {
		case LevelError:
			return "error", true
		case LevelWarning:
			return "warning", true
		case LevelNote:
			return "note", true
		case LevelNone:
			return "note", false
		}
	case KindPass:
		return "pass", l == LevelNone
	case KindNotApplicable:
		return "notApplicable", l == LevelNone
	case KindOpen:
		return "open", l == LevelNone
	case KindReview:
		return "open", false
	case KindInformational:
		return "note", false
	}
	return "warning", false
}

// legacyBaselineStates maps the 1.0.0 baseline terms.
var legacyBaselineStates = map[string]BaselineState{
	"new":      BaselineNew,
	"existing": BaselineUnchanged,
	"absent":   BaselineAbsent,
}

// ParseLegacyBaselineState maps a 1.0.0 baseline term.
func ParseLegacyBaselineState(term string) (BaselineState, error) {
	s, ok := legacyBaselineStates[term]
	if !ok {
		return BaselineNone, fmt.Errorf("unknown 1.0.0 baseline state %q", term)
	}
	return s, nil
}

// LegacyBaselineState maps a baseline state to its 1.0.0 term; Updated has
// no 1.0.0 form and falls back to "existing".
func LegacyBaselineState(s BaselineState) (term string, exact bool) {
	switch s {
	case BaselineNone:
		return "", true
	case BaselineNew:
		return "new", true
	case BaselineUnchanged:
		return "existing", true
	case BaselineUpdated:
		return "existing", false
	case BaselineAbsent:
		return "absent", true
	}
	return "", false
}
