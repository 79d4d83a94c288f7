package sarif

import (
	"errors"
	"strings"
	"testing"

	gosarif "github.com/owenrumney/go-sarif/v2/sarif"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const currentLog = `{
  "version": "2.1.0",
  "$schema": "https://json.schemastore.org/sarif-2.1.0.json",
  "inlineExternalProperties": [],
  "runs": [{
    "tool": {
      "driver": {
        "name": "demo",
        "informationUri": "https://example.com",
        "rules": [{"id": "R1", "name": "FirstRule", "shortDescription": {"text": "first"}, "defaultConfiguration": {"level": "error", "rank": 5}}]
      },
      "extensions": [{"name": "ext"}]
    },
    "invocations": [{"executionSuccessful": true, "startTimeUtc": "2024-01-01T00:00:00Z"}],
    "originalUriBaseIds": {"SRC": {"uri": "file:///src/"}},
    "results": [
      {
        "ruleId": "R1",
        "ruleIndex": 0,
        "message": {"text": "bad <thing>"},
        "locations": [{"id": 1, "physicalLocation": {"artifactLocation": {"uri": "a/b.go", "uriBaseId": "SRC", "index": 0}, "region": {"startLine": 3, "endLine": 4}, "contextRegion": {"startLine": 1}}}],
        "partialFingerprints": {"primaryLocationLineHash": "abc:1"},
        "properties": {"tags": ["x"], "big": 12345678901234567890}
      },
      {"ruleId": "R2", "kind": "pass", "level": "none", "message": {"text": "ok"}, "baselineState": "unchanged", "codeFlows": []}
    ],
    "columnKind": "utf16CodeUnits"
  }]
}`

const legacyLog = `{
  "version": "1.0.0",
  "$schema": "http://json.schemastore.org/sarif-1.0.0",
  "runs": [{
    "tool": {"name": "legacy", "semanticVersion": "1.2.3", "language": "en-US"},
    "invocation": {"commandLine": "legacy --scan", "startTime": "2016-01-01T00:00:00Z"},
    "files": {"src/a.c": {"mimeType": "text/x-c"}},
    "rules": {
      "L2": {"id": "L2", "shortDescription": "second", "configuration": "disabled"},
      "L1": {"id": "L1", "name": "FirstLegacy", "defaultLevel": "error", "messageFormats": {"default": "{0}"}}
    },
    "results": [
      {
        "ruleId": "L1",
        "level": "default",
        "message": "legacy finding",
        "locations": [{"resultFile": {"uri": "src/a.c", "region": {"startLine": 7, "offset": 10, "length": 4}}, "fullyQualifiedLogicalName": "main"}],
        "toolFingerprintContribution": "fp-1",
        "baselineState": "existing",
        "codeFlows": [{"locations": []}]
      },
      {"ruleId": "L2", "level": "pass", "message": "all good"},
      {"ruleId": "L1", "message": "implicit level"}
    ]
  }]
}`

func TestParseCurrentVersion(t *testing.T) {
	doc, err := Parse([]byte(currentLog))
	require.NoError(t, err)

	assert.Equal(t, Version2, doc.Version)
	require.Len(t, doc.Runs, 1)
	run := doc.Runs[0]
	assert.Equal(t, "demo", run.Tool.Name)
	assert.True(t, run.Tool.Extra.Has("informationUri"))
	assert.True(t, run.Tool.Outer.Has("extensions"))
	assert.True(t, run.Extra.Has("columnKind"))
	require.Len(t, run.Invocations, 1)

	rule := run.Rule("R1")
	require.NotNil(t, rule)
	assert.True(t, rule.HasDefaultLevel)
	assert.Equal(t, LevelError, rule.DefaultLevel)
	assert.True(t, rule.ConfigExtra.Has("rank"))

	require.Len(t, run.Findings, 2)
	first := run.Findings[0]
	assert.Equal(t, LevelError, first.Level, "absent level falls back to the rule default")
	assert.True(t, first.LevelImplicit)
	assert.Equal(t, KindFail, first.Kind)
	assert.True(t, first.KindImplicit)
	assert.Equal(t, "bad <thing>", first.MessageText())
	require.Len(t, first.Locations, 1)
	assert.Equal(t, "a/b.go", first.Locations[0].URI)
	assert.Equal(t, "SRC", first.Locations[0].URIBaseID)
	assert.Equal(t, 3, *first.Locations[0].Region.StartLine)
	assert.True(t, first.Locations[0].ArtifactExtra.Has("index"))
	assert.True(t, first.Locations[0].PhysicalExtra.Has("contextRegion"))
	assert.True(t, first.Locations[0].Extra.Has("id"))
	assert.Equal(t, map[string]string{"primaryLocationLineHash": "abc:1"}, first.PartialFingerprints)
	assert.True(t, first.Extra.Has("ruleIndex"))

	second := run.Findings[1]
	assert.Equal(t, KindPass, second.Kind)
	assert.Equal(t, LevelNone, second.Level)
	assert.Equal(t, BaselineUnchanged, second.BaselineState)
}

func TestParseLegacyVersion(t *testing.T) {
	doc, err := Parse([]byte(legacyLog))
	require.NoError(t, err)

	assert.Equal(t, Version1, doc.Version)
	run := doc.Runs[0]
	assert.Equal(t, "legacy", run.Tool.Name)
	assert.True(t, run.Tool.Extra.Has("language"))
	require.Len(t, run.Invocations, 1)
	assert.True(t, run.Extra.Has("files"))

	require.Len(t, run.Rules, 2)
	assert.Equal(t, "L1", run.Rules[0].ID, "rules are ordered by key")
	assert.Equal(t, LevelError, run.Rules[0].DefaultLevel)
	require.NotNil(t, run.Rules[1].Enabled)
	assert.False(t, *run.Rules[1].Enabled)
	assert.Equal(t, "second", *run.Rules[1].ShortDescription.Text)

	first := run.Findings[0]
	assert.Equal(t, KindFail, first.Kind)
	assert.Equal(t, LevelWarning, first.Level)
	assert.Equal(t, "default", first.LegacyLevel)
	assert.Equal(t, BaselineUnchanged, first.BaselineState)
	assert.Equal(t, "fp-1", first.PartialFingerprints[ToolFingerprintKey])
	assert.Equal(t, 10, *first.Locations[0].Region.CharOffset)
	assert.Equal(t, 4, *first.Locations[0].Region.CharLength)
	assert.True(t, first.Locations[0].Extra.Has("fullyQualifiedLogicalName"))

	assert.Equal(t, KindPass, run.Findings[1].Kind)
	assert.True(t, run.Findings[2].LevelImplicit)
	assert.Equal(t, LevelWarning, run.Findings[2].Level)
}

const nestedCurrentLog = `{
  "version": "2.1.0",
  "runs": [{
    "tool": {"driver": {"name": "demo"}},
    "results": [{
      "ruleId": "R1",
      "message": {"text": "m", "x-msg": 1, "arguments": [], "properties": {"big": 12345678901234567890}},
      "locations": [{"physicalLocation": {
        "artifactLocation": {"uri": "a.go"},
        "region": {"startLine": 1, "byteOffset": 3, "x-region": "keep", "snippet": {"text": "x := 1"}, "properties": {"big": 12345678901234567890}}
      }}]
    }]
  }]
}`

const nestedLegacyLog = `{
  "version": "1.0.0",
  "runs": [{
    "tool": {"name": "legacy"},
    "results": [{
      "ruleId": "L1",
      "message": "m",
      "locations": [{"resultFile": {"uri": "a.c", "region": {"startLine": 1, "x-region": "keep", "x-big": 12345678901234567890}}}]
    }]
  }]
}`

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		version Version
	}{
		{name: "current", input: currentLog, version: Version2},
		{name: "legacy", input: legacyLog, version: Version1},
		{name: "current nested members", input: nestedCurrentLog, version: Version2},
		{name: "legacy nested members", input: nestedLegacyLog, version: Version1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.input))
			require.NoError(t, err)

			first, err := Serialize(doc, tt.version)
			require.NoError(t, err)
			assert.JSONEq(t, tt.input, string(first), "unknown members must survive a round trip")
			if strings.Contains(tt.input, "12345678901234567890") {
				assert.Contains(t, string(first), "12345678901234567890")
			}

			again, err := Parse(first)
			require.NoError(t, err)
			second, err := Serialize(again, tt.version)
			require.NoError(t, err)
			assert.Equal(t, string(first), string(second))
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantPath   string
		wantOffset bool
		wantErr    interface{}
	}{
		{
			name:       "syntax error",
			input:      `{"version": "2.1.0",, "runs": []}`,
			wantOffset: true,
			wantErr:    &MalformedDocumentError{},
		},
		{
			name:    "not an object",
			input:   `[1, 2]`,
			wantErr: &MalformedDocumentError{},
		},
		{
			name:     "missing version",
			input:    `{"runs": []}`,
			wantPath: "/version",
			wantErr:  &MalformedDocumentError{},
		},
		{
			name:    "unsupported version",
			input:   `{"version": "3.0.0", "runs": []}`,
			wantErr: &UnsupportedVersionError{},
		},
		{
			name:     "bad level",
			input:    `{"version": "2.1.0", "runs": [{"tool": {"driver": {"name": "t"}}, "results": [{"ruleId": "R", "level": "fatal"}]}]}`,
			wantPath: "/runs/0/results/0/level",
			wantErr:  &MalformedDocumentError{},
		},
		{
			name:     "wrong member type",
			input:    `{"version": "2.1.0", "runs": [{"results": [{"locations": [{"physicalLocation": {"region": {"startLine": "x"}}}]}]}]}`,
			wantPath: "/runs/0/results/0/locations/0/physicalLocation/region",
			wantErr:  &MalformedDocumentError{},
		},
		{
			name:     "bad legacy baseline state",
			input:    `{"version": "1.0.0", "runs": [{"results": [{"baselineState": "updated"}]}]}`,
			wantPath: "/runs/0/results/0/baselineState",
			wantErr:  &MalformedDocumentError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)

			switch tt.wantErr.(type) {
			case *MalformedDocumentError:
				var got *MalformedDocumentError
				require.True(t, errors.As(err, &got), "got %T: %v", err, err)
				assert.Equal(t, tt.wantPath, got.Path)
				if tt.wantOffset {
					assert.Greater(t, got.Offset, int64(0))
				}
			case *UnsupportedVersionError:
				var got *UnsupportedVersionError
				require.True(t, errors.As(err, &got), "got %T: %v", err, err)
				assert.Equal(t, "3.0.0", got.Version)
			}
		})
	}
}

func TestParseKeepsNestedMembers(t *testing.T) {
	doc, err := Parse([]byte(nestedCurrentLog))
	require.NoError(t, err)
	f := doc.Runs[0].Findings[0]

	assert.Equal(t, "m", f.MessageText())
	assert.NotNil(t, f.Message.Arguments)
	assert.Empty(t, f.Message.Arguments)
	assert.True(t, f.MessageExtra.Has("x-msg"))
	assert.True(t, f.MessageExtra.Has("properties"))
	assert.Nil(t, f.Message.Properties)

	loc := f.Locations[0]
	require.NotNil(t, loc.Region)
	assert.Equal(t, 1, *loc.Region.StartLine)
	assert.Equal(t, 3, *loc.Region.ByteOffset)
	assert.True(t, loc.RegionExtra.Has("x-region"))
	assert.True(t, loc.RegionExtra.Has("snippet"))
	assert.JSONEq(t, `{"big": 12345678901234567890}`, string(loc.RegionExtra["properties"]))

	clone := f.Clone()
	assert.NotNil(t, clone.Message.Arguments)
	clone.MessageExtra["x-msg"] = []byte("2")
	assert.Equal(t, "1", string(f.MessageExtra["x-msg"]))
}

func TestSerializeVersionChecks(t *testing.T) {
	doc := &Document{Version: Version2, Runs: []*Run{{Tool: Tool{Name: "t"}, Findings: []*Finding{}}}}

	_, err := Serialize(doc, Version("9.0"))
	var unsupported *UnsupportedVersionError
	assert.True(t, errors.As(err, &unsupported))

	_, err = Serialize(doc, Version1)
	var mismatch *VersionMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, Version1, mismatch.Want)
	assert.Equal(t, Version2, mismatch.Got)

	out, err := Serialize(doc, Version("2.1.0-rtm.5"))
	require.NoError(t, err)
	assert.Contains(t, string(out), `"version": "2.1.0-rtm.5"`)
}

func TestSerializeLegacyRejectsCurrentOnlyValues(t *testing.T) {
	tests := []struct {
		name    string
		finding *Finding
		field   string
	}{
		{name: "review kind", finding: &Finding{RuleID: "R", Kind: KindReview, Level: LevelNone}, field: "level"},
		{name: "updated state", finding: &Finding{RuleID: "R", Level: LevelError, BaselineState: BaselineUpdated}, field: "baselineState"},
		{name: "fingerprints", finding: &Finding{RuleID: "R", Level: LevelError, Fingerprints: map[string]string{"k": "v"}}, field: "fingerprints"},
		{name: "markdown message", finding: &Finding{RuleID: "R", Level: LevelError, Message: *gosarif.NewMarkdownMessage("*x*")}, field: "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &Document{Version: Version1, Runs: []*Run{{Findings: []*Finding{tt.finding}}}}
			_, err := Serialize(doc, Version1)
			var notRepresentable *NotRepresentableError
			require.True(t, errors.As(err, &notRepresentable), "got %v", err)
			assert.Equal(t, tt.field, notRepresentable.Field)
		})
	}
}

func TestLocationKey(t *testing.T) {
	line := 4
	a := &Location{URI: `src\pkg\.\main.go`, Region: &gosarif.Region{StartLine: &line}}
	b := &Location{URI: "src/pkg/main.go", Region: &gosarif.Region{StartLine: &line, EndLine: &line}}
	c := &Location{URI: "src/pkg/main.go", URIBaseID: "SRC", Region: &gosarif.Region{StartLine: &line}}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, "", (*Location)(nil).Key())
}

func TestCloneIsIndependent(t *testing.T) {
	doc, err := Parse([]byte(currentLog))
	require.NoError(t, err)

	clone := doc.Clone()
	clone.Runs[0].Findings[0].PartialFingerprints["primaryLocationLineHash"] = "changed"
	clone.Runs[0].Findings = clone.Runs[0].Findings[:1]
	clone.Runs[0].Rules[0].ID = "other"

	assert.Equal(t, "abc:1", doc.Runs[0].Findings[0].PartialFingerprints["primaryLocationLineHash"])
	assert.Len(t, doc.Runs[0].Findings, 2)
	assert.Equal(t, "R1", doc.Runs[0].Rules[0].ID)
}
