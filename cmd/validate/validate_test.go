package validate

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/sariftool/internal/baseline"
	"github.com/scan-io-git/sariftool/internal/config"
	"github.com/scan-io-git/sariftool/internal/filter"
	"github.com/scan-io-git/sariftool/internal/sarif"
	"github.com/scan-io-git/sariftool/pkg/shared/errors"
)

func TestValidateArgs(t *testing.T) {
	tests := []struct {
		name    string
		options RunOptions
		args    []string
		wantErr string
	}{
		{name: "valid", args: []string{"a.sarif"}},
		{name: "no targets", wantErr: "at least one target is required"},
		{name: "empty target", args: []string{" "}, wantErr: "target cannot be empty"},
		{name: "negative threads", options: RunOptions{Threads: -2}, args: []string{"a.sarif"}, wantErr: "'threads' cannot be negative"},
		{name: "inline without baseline", options: RunOptions{Inline: true}, args: []string{"a.sarif"}, wantErr: "--inline requires --baseline"},
		{name: "inline with output", options: RunOptions{Inline: true, Baseline: "b.sarif", Output: "out.sarif"}, args: []string{"a.sarif"}},
		{name: "inline with baseline", options: RunOptions{Inline: true, Baseline: "b.sarif"}, args: []string{"a.sarif"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(&tt.options, tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestValidateChecksInputFiles(t *testing.T) {
	dir := t.TempDir()
	policy := filepath.Join(dir, "policy.yml")
	require.NoError(t, os.WriteFile(policy, []byte("rules: {}\n"), 0o644))

	assert.NoError(t, validate(&RunOptions{Policy: policy}, []string{"a.sarif"}))

	err := validate(&RunOptions{Policy: filepath.Join(dir, "missing.yml")}, []string{"a.sarif"})
	assert.ErrorContains(t, err, "--policy")
	assert.ErrorIs(t, err, os.ErrNotExist)

	err = validate(&RunOptions{Schema: dir}, []string{"a.sarif"})
	assert.ErrorContains(t, err, "--schema")
	assert.ErrorContains(t, err, "is a directory")
}

func TestBuildOptionsDefaults(t *testing.T) {
	got, err := buildOptions(&RunOptions{}, []string{"a.sarif"}, nil)
	require.NoError(t, err)

	criteria := filter.DefaultCriteria()
	assert.Equal(t, []string{"a.sarif"}, got.Targets)
	assert.Equal(t, sarif.Version2, got.Output.Version)
	assert.Equal(t, criteria.Kinds, got.Filter.Kinds)
	assert.Equal(t, criteria.Levels, got.Filter.Levels)
	assert.Equal(t, baseline.DefaultConfig(), got.Match)
	assert.Equal(t, 1, got.Threads)
	assert.False(t, got.RichReturnCode)
}

func TestBuildOptionsFlagsOverrideConfig(t *testing.T) {
	yes := true
	cfg := &config.Config{Pipeline: config.Pipeline{
		Threads:             8,
		OutputVersion:       "1.0.0",
		Kinds:               []string{"fail", "review"},
		Levels:              []string{"note"},
		PartialFingerprints: []string{"fromConfig"},
		Compare:             "level",
		RichReturnCode:      &yes,
	}}

	fromConfig, err := buildOptions(&RunOptions{}, []string{"a.sarif"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 8, fromConfig.Threads)
	assert.Equal(t, sarif.Version1, fromConfig.Output.Version)
	assert.Equal(t, []sarif.Kind{sarif.KindFail, sarif.KindReview}, fromConfig.Filter.Kinds)
	assert.Equal(t, []sarif.Level{sarif.LevelNote}, fromConfig.Filter.Levels)
	assert.Equal(t, []string{"fromConfig"}, fromConfig.Match.PartialKeys)
	assert.Equal(t, baseline.CompareLevel, fromConfig.Match.Compare)
	assert.True(t, fromConfig.RichReturnCode)

	flags := &RunOptions{
		Threads:             2,
		OutputVersion:       "2.1.0",
		Kinds:               "open",
		Levels:              "error;warning",
		PartialFingerprints: []string{"fromFlag"},
		Compare:             "none",
	}
	fromFlags, err := buildOptions(flags, []string{"a.sarif"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, fromFlags.Threads)
	assert.Equal(t, sarif.Version2, fromFlags.Output.Version)
	assert.Equal(t, []sarif.Kind{sarif.KindOpen}, fromFlags.Filter.Kinds)
	assert.Equal(t, []sarif.Level{sarif.LevelError, sarif.LevelWarning}, fromFlags.Filter.Levels)
	assert.Equal(t, []string{"fromFlag"}, fromFlags.Match.PartialKeys)
	assert.Equal(t, baseline.CompareSet(0), fromFlags.Match.Compare)
}

func TestBuildOptionsErrors(t *testing.T) {
	tests := []struct {
		name    string
		options RunOptions
		wantErr string
	}{
		{name: "version", options: RunOptions{OutputVersion: "3.0.0"}, wantErr: "--sarif-output-version"},
		{name: "kind", options: RunOptions{Kinds: "fail;broken"}, wantErr: "kind filter"},
		{name: "level", options: RunOptions{Levels: "fatal"}, wantErr: "level filter"},
		{name: "compare", options: RunOptions{Compare: "color"}, wantErr: "--compare"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildOptions(&tt.options, []string{"a.sarif"}, nil)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

const targetLog = `{
  "version": "2.1.0",
  "runs": [{
    "tool": {"driver": {"name": "demo", "rules": [{"id": "R1"}]}},
    "results": [{"ruleId": "R1", "level": "error", "message": {"text": "m"},
      "locations": [{"physicalLocation": {"artifactLocation": {"uri": "a.go"}, "region": {"startLine": 1}}}]}]
  }]
}`

func TestValidateCommand(t *testing.T) {
	t.Setenv("SARIFTOOL_LOG_LEVEL", "error")
	dir := t.TempDir()
	target := filepath.Join(dir, "current.sarif")
	require.NoError(t, os.WriteFile(target, []byte(targetLog), 0o644))
	output := filepath.Join(dir, "out.sarif")

	var stdout bytes.Buffer
	ValidateCmd.SetOut(&stdout)
	ValidateCmd.SetArgs([]string{"--output", output, target})
	require.NoError(t, ValidateCmd.Execute())
	assert.Contains(t, stdout.String(), "succeeded: 1, failed: 0")
	assert.FileExists(t, output)

	stdout.Reset()
	err := ValidateCmd.Execute()
	var cmdErr *errors.CommandError
	require.True(t, stderrors.As(err, &cmdErr), "an existing output fails the target: %v", err)
	assert.Equal(t, 1, cmdErr.ExitCode)
	assert.Contains(t, stdout.String(), "Output Conflict")
}
