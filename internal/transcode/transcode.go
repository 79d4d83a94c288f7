// Package transcode converts analysis logs between the 1.0.0 and 2.x wire
// generations. Values without a form in the target generation are kept in
// property-bag side channels and restored by the opposite conversion.
package transcode

import (
	"fmt"

	gosarif "github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/sariftool/internal/sarif"
)

// LegacySchemaURI is written to downgraded documents.
const LegacySchemaURI = "http://json.schemastore.org/sarif-1.0.0"

// Side-channel property keys.
const (
	keyKind                = "sarifv2/kind"
	keyLevel               = "sarifv2/level"
	keyBaselineState       = "sarifv2/baselineState"
	keyMessage             = "sarifv2/message"
	keyFingerprints        = "sarifv2/fingerprints"
	keyPartialFingerprints = "sarifv2/partialFingerprints"
	keyGUID                = "sarifv2/guid"
	keyCorrelationGUID     = "sarifv2/correlationGuid"
	keyLocations           = "sarifv2/locations"
	keyTool                = "sarifv2/tool"
	keyInvocations         = "sarifv2/invocations"
	keyDescriptions        = "sarifv2/descriptions"
	keyConfiguration       = "sarifv2/defaultConfiguration"
	keyDefaultLevel        = "sarifv2/defaultLevel"
	keyExtra               = "sarifv2/extra"
	keyLegacyExtra         = "sarifv1/extra"
	keyLegacyLevel         = "sarifv1/level"
	keyLegacyLocations     = "sarifv1/locations"
)

// Warning reports an UnrepresentableValue: Value has no form in the target
// version and was written as Fallback. The original is kept in the side channel.
type Warning struct {
	Path     string
	Field    string
	Value    string
	Fallback string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s %q is not representable, written as %q", w.Path, w.Field, w.Value, w.Fallback)
}

// To converts doc to the generation of v. The input is never modified.
func To(doc *sarif.Document, v sarif.Version) (*sarif.Document, []Warning, error) {
	var (
		out      *sarif.Document
		warnings []Warning
	)
	switch v.Generation() {
	case 1:
		out, warnings = Downgrade(doc)
	case 2:
		out, warnings = Upgrade(doc)
	default:
		return nil, nil, &sarif.UnsupportedVersionError{Version: string(v)}
	}
	out.Version = v
	return out, warnings, nil
}

// currentSchemaURI is the schema go-sarif publishes for 2.1.0 reports.
func currentSchemaURI() string {
	report, err := gosarif.New(gosarif.Version210)
	if err != nil {
		return ""
	}
	return report.Schema
}

// stash stores v in props under key. Stashed values were decoded from JSON
// and always re-encode, so the marshal error is not reachable.
func stash(props *sarif.Members, key string, v interface{}) {
	_ = props.Set(key, v)
}

func stashMembers(props *sarif.Members, key string, m sarif.Members) {
	if len(m) > 0 {
		stash(props, key, m)
	}
}

// unstash decodes and removes key from props. Undecodable entries are left alone.
func unstash(props *sarif.Members, key string, v interface{}) bool {
	ok, err := props.Decode(key, v)
	if !ok || err != nil {
		return false
	}
	*props = props.Delete(key)
	return true
}

func unstashMembers(props *sarif.Members, key string) sarif.Members {
	var m sarif.Members
	if !unstash(props, key, &m) || len(m) == 0 {
		return nil
	}
	return m
}
