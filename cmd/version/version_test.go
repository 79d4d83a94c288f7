package version

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintVersionInfo(t *testing.T) {
	v := Versions{Version: "1.2.0", GolangVersion: "go1.21.0", BuildTime: "now", SARIFVersions: []string{"1.0.0", "2.1.0"}}

	var text bytes.Buffer
	require.NoError(t, printVersionInfo(&text, v, false))
	assert.Contains(t, text.String(), "Core Version: v1.2.0")
	assert.Contains(t, text.String(), "SARIF Versions: 1.0.0, 2.1.0")

	var out bytes.Buffer
	require.NoError(t, printVersionInfo(&out, v, true))
	var decoded Versions
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, v, decoded)
}

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Go Version: go")
}
