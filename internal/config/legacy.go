package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LegacyConfigPath is the repo-relative path of the pre-.filescope scoping config.
const LegacyConfigPath = "config/user_config.yml"

// legacyUserConfig is the shape of config/user_config.yml:
//
//	change detection:
//	  provider: [".py", ".ts"]
type legacyUserConfig struct {
	ChangeDetection struct {
		Provider []string `yaml:"provider"`
	} `yaml:"change detection"`
}

// LoadLegacyConfig reads the extension allow-list from a user_config.yml
// file and returns the default configuration with that allow-list applied.
func LoadLegacyConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Field: "file", Message: err.Error()}
	}

	var legacy legacyUserConfig
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return nil, &ConfigError{Field: "change detection", Message: err.Error()}
	}

	cfg := DefaultConfig()
	cfg.ChangeDetection.Extensions = legacy.ChangeDetection.Provider
	if cfg.ChangeDetection.Extensions == nil {
		cfg.ChangeDetection.Extensions = []string{}
	}
	return cfg, nil
}
