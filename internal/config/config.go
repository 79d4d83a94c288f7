package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// DefaultConfigPath is read when no config file is given. It may be absent.
const DefaultConfigPath = "config.yml"

// Config is the application configuration file.
type Config struct {
	Logger   Logger   `yaml:"logger"`
	Pipeline Pipeline `yaml:"pipeline"`
}

type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
}

// Pipeline holds defaults for the validate command. Flags override them.
type Pipeline struct {
	Threads             int      `yaml:"threads"`
	OutputVersion       string   `yaml:"output_version"`
	Kinds               []string `yaml:"kinds"`
	Levels              []string `yaml:"levels"`
	PartialFingerprints []string `yaml:"partial_fingerprints"`
	Compare             string   `yaml:"compare"`
	RichReturnCode      *bool    `yaml:"rich_return_code"`
}

func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	d.SetStrict(true)
	if err := d.Decode(data); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

// LoadConfig reads the config file at configPath. A missing file is an empty
// config when optional is set.
func LoadConfig(configPath string, optional bool) (*Config, error) {
	config := &Config{}

	if err := LoadYAML(configPath, config); err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
	}

	return config, nil
}
