package transform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/sariftool/internal/sarif"
)

const legacyLog = `{
  "version": "1.0.0",
  "runs": [{
    "tool": {"name": "old"},
    "results": [{"ruleId": "R1", "level": "error", "message": "m",
      "locations": [{"resultFile": {"uri": "a.go", "region": {"startLine": 2}}}]}]
  }]
}`

func TestValidate(t *testing.T) {
	v, err := validate(&RunOptions{}, []string{"a.sarif"})
	require.NoError(t, err)
	assert.Equal(t, sarif.Version2, v)

	v, err = validate(&RunOptions{OutputVersion: "1.0.0"}, []string{"a.sarif"})
	require.NoError(t, err)
	assert.Equal(t, sarif.Version1, v)

	_, err = validate(&RunOptions{}, nil)
	assert.EqualError(t, err, "exactly one target is required")

	_, err = validate(&RunOptions{OutputVersion: "0.9"}, []string{"a.sarif"})
	assert.Error(t, err)
}

func TestTransformFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, "legacy.sarif")
	require.NoError(t, os.WriteFile(legacy, []byte(legacyLog), 0o644))

	current, err := transformFile(legacy, sarif.Version2, hclog.NewNullLogger())
	require.NoError(t, err)
	doc, err := sarif.Parse(current)
	require.NoError(t, err)
	assert.Equal(t, sarif.Version2, doc.Version)
	require.Equal(t, 1, doc.FindingCount())
	assert.Equal(t, sarif.LevelError, doc.Runs[0].Findings[0].Level)

	upgraded := filepath.Join(dir, "current.sarif")
	require.NoError(t, os.WriteFile(upgraded, current, 0o644))
	back, err := transformFile(upgraded, sarif.Version1, hclog.NewNullLogger())
	require.NoError(t, err)
	doc, err = sarif.Parse(back)
	require.NoError(t, err)
	assert.Equal(t, sarif.Version1, doc.Version)
	assert.Equal(t, "a.go", doc.Runs[0].Findings[0].PrimaryLocation().URI)
}

func TestTransformFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := transformFile(filepath.Join(dir, "missing.sarif"), sarif.Version2, hclog.NewNullLogger())
	assert.ErrorIs(t, err, os.ErrNotExist)

	broken := filepath.Join(dir, "broken.sarif")
	require.NoError(t, os.WriteFile(broken, []byte("{"), 0o644))
	_, err = transformFile(broken, sarif.Version2, hclog.NewNullLogger())
	var malformed *sarif.MalformedDocumentError
	assert.ErrorAs(t, err, &malformed)
}
