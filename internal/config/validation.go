package config

import (
	"fmt"
	"strings"

	"github.com/scan-io-git/sariftool/internal/baseline"
	"github.com/scan-io-git/sariftool/internal/sarif"
)

const maxThreads = 256

var logLevels = []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}

// ValidateConfig checks if the global configurations have valid values.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("YAML global config: configuration object is nil")
	}
	if err := ValidateLoggerConfig(&cfg.Logger); err != nil {
		return fmt.Errorf("YAML global config: logger directive is invalid: %w", err)
	}
	if err := ValidatePipelineConfig(&cfg.Pipeline); err != nil {
		return fmt.Errorf("YAML global config: pipeline directive is invalid: %w", err)
	}
	return nil
}

// ValidateLoggerConfig checks the logger section.
func ValidateLoggerConfig(loggerConfig *Logger) error {
	if loggerConfig == nil {
		return fmt.Errorf("logger configuration is nil")
	}
	if loggerConfig.Level == "" {
		return nil
	}
	level := strings.ToUpper(loggerConfig.Level)
	for _, l := range logLevels {
		if l == level {
			return nil
		}
	}
	return fmt.Errorf("level must be one of %s: %q", strings.Join(logLevels, ", "), loggerConfig.Level)
}

// ValidatePipelineConfig checks the pipeline section.
func ValidatePipelineConfig(pipelineConfig *Pipeline) error {
	if pipelineConfig == nil {
		return fmt.Errorf("pipeline configuration is nil")
	}
	if pipelineConfig.Threads < 0 || pipelineConfig.Threads > maxThreads {
		return fmt.Errorf("threads must be between 0 and %d: %d", maxThreads, pipelineConfig.Threads)
	}
	if pipelineConfig.OutputVersion != "" {
		if _, err := sarif.ParseVersion(pipelineConfig.OutputVersion); err != nil {
			return fmt.Errorf("output_version: %w", err)
		}
	}
	for _, k := range pipelineConfig.Kinds {
		if _, err := sarif.ParseKind(k); err != nil {
			return fmt.Errorf("kinds: %w", err)
		}
	}
	for _, l := range pipelineConfig.Levels {
		if _, err := sarif.ParseLevel(l); err != nil {
			return fmt.Errorf("levels: %w", err)
		}
	}
	for _, key := range pipelineConfig.PartialFingerprints {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("partial_fingerprints: empty key")
		}
	}
	if pipelineConfig.Compare != "" {
		if _, err := baseline.ParseCompareSet(pipelineConfig.Compare); err != nil {
			return fmt.Errorf("compare: %w", err)
		}
	}
	return nil
}
