package validator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/sariftool/internal/sarif"
)

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		check   func(t *testing.T, p Policy)
		wantErr bool
	}{
		{
			name: "yaml",
			data: "rules:\n  R1:\n    enabled: false\n  R2:\n    level: Error\n",
			check: func(t *testing.T, p Policy) {
				assert.False(t, p.Enabled("R1"))
				assert.True(t, p.Enabled("R2"))
				assert.Equal(t, sarif.LevelError, p.Level("R2", sarif.LevelNote))
				assert.Equal(t, sarif.LevelNote, p.Level("R3", sarif.LevelNote))
			},
		},
		{
			name: "json",
			data: `{"rules": {"R1": {"level": "note"}}}`,
			check: func(t *testing.T, p Policy) {
				assert.Equal(t, sarif.LevelNote, p.Level("R1", sarif.LevelError))
			},
		},
		{
			name: "empty document",
			data: "",
			check: func(t *testing.T, p Policy) {
				assert.Empty(t, p.Rules)
				assert.True(t, p.Enabled("anything"))
			},
		},
		{
			name:    "unknown level",
			data:    "rules:\n  R1:\n    level: fatal\n",
			wantErr: true,
		},
		{
			name:    "unknown field",
			data:    "rules:\n  R1:\n    severity: high\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePolicy([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  R1:\n    enabled: false\n"), 0o644))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.False(t, p.Enabled("R1"))

	_, err = LoadPolicy(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}

func TestApplyPolicy(t *testing.T) {
	doc := &sarif.Document{
		Version: sarif.Version2,
		Runs: []*sarif.Run{{
			Tool: sarif.Tool{Name: "demo"},
			Findings: []*sarif.Finding{
				{RuleID: "R1", Level: sarif.LevelWarning},
				{RuleID: "R2", Level: sarif.LevelNote, LevelImplicit: true},
				{RuleID: "R3", Level: sarif.LevelError},
			},
		}},
	}
	enabled := false
	level := sarif.LevelError
	p := Policy{Rules: map[string]RulePolicy{
		"R1": {Enabled: &enabled},
		"R2": {Level: &level},
	}}

	got := ApplyPolicy(doc, p)
	require.Len(t, got.Runs[0].Findings, 2)
	assert.Equal(t, "R2", got.Runs[0].Findings[0].RuleID)
	assert.Equal(t, sarif.LevelError, got.Runs[0].Findings[0].Level)
	assert.False(t, got.Runs[0].Findings[0].LevelImplicit)
	assert.Equal(t, "R3", got.Runs[0].Findings[1].RuleID)

	assert.Len(t, doc.Runs[0].Findings, 3, "input must not change")
	assert.Equal(t, sarif.LevelNote, doc.Runs[0].Findings[1].Level)

	again := ApplyPolicy(doc, p)
	assert.Equal(t, got, again)
}

func TestApplyPolicyLeavesNonFailuresNonBlocking(t *testing.T) {
	doc := &sarif.Document{
		Version: sarif.Version2,
		Runs: []*sarif.Run{{
			Tool: sarif.Tool{Name: "demo"},
			Findings: []*sarif.Finding{
				{RuleID: "R1", Kind: sarif.KindPass, Level: sarif.LevelNone},
				{RuleID: "R1", Kind: sarif.KindOpen, Level: sarif.LevelNone},
				{RuleID: "R1", Kind: sarif.KindInformational, Level: sarif.LevelNote},
				{RuleID: "R1", Kind: sarif.KindFail, Level: sarif.LevelNote},
			},
		}},
	}
	level := sarif.LevelError
	got := ApplyPolicy(doc, Policy{Rules: map[string]RulePolicy{"R1": {Level: &level}}})

	findings := got.Runs[0].Findings
	require.Len(t, findings, 4)
	for _, f := range findings[:3] {
		assert.False(t, f.Level.Blocking(), "%s finding must not become blocking", f.Kind)
	}
	assert.Equal(t, sarif.LevelNone, findings[0].Level)
	assert.Equal(t, sarif.LevelNote, findings[2].Level)
	assert.Equal(t, sarif.LevelError, findings[3].Level)
}

func TestApplyEmptyPolicyKeepsEverything(t *testing.T) {
	doc := &sarif.Document{Version: sarif.Version2, Runs: []*sarif.Run{{
		Findings: []*sarif.Finding{{RuleID: "R1", Level: sarif.LevelNote}},
	}}}
	got := ApplyPolicy(doc, Policy{})
	assert.Equal(t, doc, got)
	assert.NotSame(t, doc.Runs[0], got.Runs[0])
}
