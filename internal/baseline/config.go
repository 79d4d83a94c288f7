package baseline

import (
	"fmt"
	"strings"
)

// CompareSet selects the attributes that turn a partial match into an
// Updated finding when they differ.
type CompareSet uint8

const (
	CompareMessage CompareSet = 1 << iota
	CompareFingerprints
	CompareLevel
	CompareKind
)

// DefaultCompare reports message and fingerprint changes.
const DefaultCompare = CompareMessage | CompareFingerprints

var compareNames = []struct {
	bit  CompareSet
	name string
}{
	{CompareMessage, "message"},
	{CompareFingerprints, "fingerprints"},
	{CompareLevel, "level"},
	{CompareKind, "kind"},
}

func (s CompareSet) String() string {
	var names []string
	for _, c := range compareNames {
		if s&c.bit != 0 {
			names = append(names, c.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ";")
}

// Has reports whether every attribute of other is compared.
func (s CompareSet) Has(other CompareSet) bool {
	return s&other == other
}

// ParseCompareSet reads a ';' or ',' separated list of attribute names.
// "none" selects nothing.
func ParseCompareSet(list string) (CompareSet, error) {
	var set CompareSet
	for _, field := range strings.FieldsFunc(list, func(r rune) bool { return r == ';' || r == ',' }) {
		field = strings.ToLower(strings.TrimSpace(field))
		if field == "" || field == "none" {
			continue
		}
		found := false
		for _, c := range compareNames {
			if c.name == field {
				set |= c.bit
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown comparison attribute %q", field)
		}
	}
	return set, nil
}

// Config tunes matching.
type Config struct {
	// PartialKeys names the partial fingerprints that identify a finding
	// across code motion. Empty selects every partial fingerprint a finding has.
	PartialKeys []string
	Compare     CompareSet
}

// DefaultConfig matches on every partial fingerprint and compares messages
// and fingerprints.
func DefaultConfig() Config {
	return Config{Compare: DefaultCompare}
}
