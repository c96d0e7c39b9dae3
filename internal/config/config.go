package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigDir is the per-repository directory holding filescope state.
const ConfigDir = ".filescope"

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// Median comparison modes for the structural-density term.
const (
	MedianGreater      = "gt"
	MedianGreaterEqual = "gte"
)

// Pool modes for grouping.
const (
	PoolChanged  = "changed"
	PoolSelected = "selected"
	PoolRepo     = "repo"
)

// Config represents the complete filescope configuration
type Config struct {
	Version  int    `json:"version" yaml:"version" toml:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" yaml:"repoRoot" toml:"repoRoot" mapstructure:"repoRoot"`

	ChangeDetection ChangeDetectionConfig `json:"changeDetection" yaml:"changeDetection" toml:"changeDetection" mapstructure:"changeDetection"`
	Scoring         ScoringConfig         `json:"scoring" yaml:"scoring" toml:"scoring" mapstructure:"scoring"`
	Grouping        GroupingConfig        `json:"grouping" yaml:"grouping" toml:"grouping" mapstructure:"grouping"`
	Backends        BackendsConfig        `json:"backends" yaml:"backends" toml:"backends" mapstructure:"backends"`
	History         HistoryConfig         `json:"history" yaml:"history" toml:"history" mapstructure:"history"`
	Logging         LoggingConfig         `json:"logging" yaml:"logging" toml:"logging" mapstructure:"logging"`

	// Defaulted is set by LoadConfig when no config file was found and the
	// extension allow-list was never chosen by the user.
	Defaulted bool `json:"-" yaml:"-" toml:"-" mapstructure:"-"`
}

// ChangeDetectionConfig controls which changed files are admitted
type ChangeDetectionConfig struct {
	Extensions       []string `json:"extensions" yaml:"extensions" toml:"extensions" mapstructure:"extensions"`
	ReservedDirs     []string `json:"reservedDirs" yaml:"reservedDirs" toml:"reservedDirs" mapstructure:"reservedDirs"`
	ExcludeGlobs     []string `json:"excludeGlobs" yaml:"excludeGlobs" toml:"excludeGlobs" mapstructure:"excludeGlobs"`
	IncludeUntracked bool     `json:"includeUntracked" yaml:"includeUntracked" toml:"includeUntracked" mapstructure:"includeUntracked"`
}

// ScoringConfig contains relevance scoring knobs
type ScoringConfig struct {
	Threshold        float64 `json:"threshold" yaml:"threshold" toml:"threshold" mapstructure:"threshold"`
	MedianComparison string  `json:"medianComparison" yaml:"medianComparison" toml:"medianComparison" mapstructure:"medianComparison"`
	BypassMax        int     `json:"bypassMax" yaml:"bypassMax" toml:"bypassMax" mapstructure:"bypassMax"`
	RecencyDays      int     `json:"recencyDays" yaml:"recencyDays" toml:"recencyDays" mapstructure:"recencyDays"`
}

// GroupingConfig contains fingerprinting and similarity settings
type GroupingConfig struct {
	Extensions        []string    `json:"extensions" yaml:"extensions" toml:"extensions" mapstructure:"extensions"`
	Pool              string      `json:"pool" yaml:"pool" toml:"pool" mapstructure:"pool"`
	TopK              int         `json:"topK" yaml:"topK" toml:"topK" mapstructure:"topK"`
	DistanceThreshold int         `json:"distanceThreshold" yaml:"distanceThreshold" toml:"distanceThreshold" mapstructure:"distanceThreshold"`
	Stopwords         []string    `json:"stopwords" yaml:"stopwords" toml:"stopwords" mapstructure:"stopwords"`
	Bonuses           BonusConfig `json:"bonuses" yaml:"bonuses" toml:"bonuses" mapstructure:"bonuses"`
	Workers           int         `json:"workers" yaml:"workers" toml:"workers" mapstructure:"workers"`
}

// BonusConfig holds the distance reductions applied per pair
type BonusConfig struct {
	ImportReference int `json:"importReference" yaml:"importReference" toml:"importReference" mapstructure:"importReference"`
	SameFolder      int `json:"sameFolder" yaml:"sameFolder" toml:"sameFolder" mapstructure:"sameFolder"`
	SameFilename    int `json:"sameFilename" yaml:"sameFilename" toml:"sameFilename" mapstructure:"sameFilename"`
}

// BackendsConfig contains backend-specific configuration
type BackendsConfig struct {
	Git GitConfig `json:"git" yaml:"git" toml:"git" mapstructure:"git"`
}

// GitConfig contains Git backend configuration
type GitConfig struct {
	TimeoutMs int `json:"timeoutMs" yaml:"timeoutMs" toml:"timeoutMs" mapstructure:"timeoutMs"`
}

// HistoryConfig controls the run history database
type HistoryConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled" mapstructure:"enabled"`
	Keep    int  `json:"keep" yaml:"keep" toml:"keep" mapstructure:"keep"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" yaml:"format" toml:"format" mapstructure:"format"`
	Level  string `json:"level" yaml:"level" toml:"level" mapstructure:"level"`
}

// DefaultStopwords are infrastructure imports that carry no structural signal.
var DefaultStopwords = []string{
	"os", "sys", "json", "yaml", "logging", "Path", "cfg", "dotenv", "load_dotenv",
	"getpass", "subprocess", "platform", "importlib", "inspect", "pathlib",
	"re", "time", "datetime", "typing",
}

// DefaultReservedDirs are build, cache and environment directories never scanned.
var DefaultReservedDirs = []string{
	"__pycache__", ".ipynb_checkpoints", ".mypy_cache", ".pytest_cache",
	"build", "dist", "venv", "node_modules",
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  CurrentVersion,
		RepoRoot: ".",
		ChangeDetection: ChangeDetectionConfig{
			Extensions:   []string{".py"},
			ReservedDirs: append([]string(nil), DefaultReservedDirs...),
			ExcludeGlobs: []string{},
		},
		Scoring: ScoringConfig{
			Threshold:        0.7,
			MedianComparison: MedianGreater,
			BypassMax:        3,
			RecencyDays:      5,
		},
		Grouping: GroupingConfig{
			Extensions:        []string{".py"},
			Pool:              PoolChanged,
			TopK:              3,
			DistanceThreshold: 40,
			Stopwords:         append([]string(nil), DefaultStopwords...),
			Bonuses: BonusConfig{
				ImportReference: 5,
				SameFolder:      8,
				SameFilename:    3,
			},
			Workers: 4,
		},
		Backends: BackendsConfig{
			Git: GitConfig{
				TimeoutMs: 5000,
			},
		},
		History: HistoryConfig{
			Enabled: false,
			Keep:    200,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "warn",
		},
	}
}

// setDefaults mirrors DefaultConfig into viper so partial files keep defaults.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("repoRoot", d.RepoRoot)
	v.SetDefault("changeDetection.extensions", d.ChangeDetection.Extensions)
	v.SetDefault("changeDetection.reservedDirs", d.ChangeDetection.ReservedDirs)
	v.SetDefault("changeDetection.excludeGlobs", d.ChangeDetection.ExcludeGlobs)
	v.SetDefault("changeDetection.includeUntracked", d.ChangeDetection.IncludeUntracked)
	v.SetDefault("scoring.threshold", d.Scoring.Threshold)
	v.SetDefault("scoring.medianComparison", d.Scoring.MedianComparison)
	v.SetDefault("scoring.bypassMax", d.Scoring.BypassMax)
	v.SetDefault("scoring.recencyDays", d.Scoring.RecencyDays)
	v.SetDefault("grouping.extensions", d.Grouping.Extensions)
	v.SetDefault("grouping.pool", d.Grouping.Pool)
	v.SetDefault("grouping.topK", d.Grouping.TopK)
	v.SetDefault("grouping.distanceThreshold", d.Grouping.DistanceThreshold)
	v.SetDefault("grouping.stopwords", d.Grouping.Stopwords)
	v.SetDefault("grouping.bonuses.importReference", d.Grouping.Bonuses.ImportReference)
	v.SetDefault("grouping.bonuses.sameFolder", d.Grouping.Bonuses.SameFolder)
	v.SetDefault("grouping.bonuses.sameFilename", d.Grouping.Bonuses.SameFilename)
	v.SetDefault("grouping.workers", d.Grouping.Workers)
	v.SetDefault("backends.git.timeoutMs", d.Backends.Git.TimeoutMs)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.keep", d.History.Keep)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
}

// LoadResult tells callers where the configuration came from.
type LoadResult struct {
	Config *Config
	Source string // file path, or "defaults"
}

// LoadConfig loads configuration from .filescope/config.{json,yaml,toml}.
// When no such file exists the legacy config/user_config.yml is consulted,
// then the defaults, in which case Config.Defaulted is set. FILESCOPE_*
// environment variables override file values.
func LoadConfig(repoRoot string) (*LoadResult, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(filepath.Join(repoRoot, ConfigDir))
	v.SetEnvPrefix("FILESCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	source := "defaults"
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, &ConfigError{Field: "file", Message: err.Error()}
		}
		legacyPath := filepath.Join(repoRoot, LegacyConfigPath)
		if _, statErr := os.Stat(legacyPath); statErr == nil {
			cfg, err := LoadLegacyConfig(legacyPath)
			if err != nil {
				return nil, err
			}
			cfg.RepoRoot = repoRoot
			return &LoadResult{Config: cfg, Source: legacyPath}, nil
		}
	} else {
		source = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Field: "file", Message: err.Error()}
	}
	cfg.RepoRoot = repoRoot
	if source == "defaults" {
		_, fromEnv := os.LookupEnv("FILESCOPE_CHANGEDETECTION_EXTENSIONS")
		cfg.Defaulted = !fromEnv
	}

	return &LoadResult{Config: &cfg, Source: source}, nil
}

// Save writes the configuration to .filescope/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", ConfigDir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Marshal renders the configuration as json, yaml or toml.
func (c *Config) Marshal(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return json.MarshalIndent(c, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(c)
	case "toml":
		return toml.Marshal(c)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", format)
	}
}

// Validate checks if the configuration is usable for a run
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if len(c.ChangeDetection.Extensions) == 0 {
		return &ConfigError{Field: "changeDetection.extensions", Message: "allow-list is empty; no file would be admitted"}
	}
	for _, ext := range c.ChangeDetection.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return &ConfigError{Field: "changeDetection.extensions", Message: fmt.Sprintf("extension %q must start with '.'", ext)}
		}
	}
	if len(c.Grouping.Extensions) == 0 {
		return &ConfigError{Field: "grouping.extensions", Message: "at least one fingerprinted extension is required"}
	}
	switch c.Scoring.MedianComparison {
	case MedianGreater, MedianGreaterEqual:
	default:
		return &ConfigError{Field: "scoring.medianComparison", Message: "must be \"gt\" or \"gte\""}
	}
	if c.Scoring.Threshold < 0 {
		return &ConfigError{Field: "scoring.threshold", Message: "must be non-negative"}
	}
	if c.Scoring.RecencyDays <= 0 {
		return &ConfigError{Field: "scoring.recencyDays", Message: "must be positive"}
	}
	switch c.Grouping.Pool {
	case PoolChanged, PoolSelected, PoolRepo:
	default:
		return &ConfigError{Field: "grouping.pool", Message: "must be changed, selected or repo"}
	}
	if c.Grouping.TopK <= 0 {
		return &ConfigError{Field: "grouping.topK", Message: "must be positive"}
	}
	if c.Backends.Git.TimeoutMs <= 0 {
		return &ConfigError{Field: "backends.git.timeoutMs", Message: "must be positive"}
	}
	return nil
}

// ExtensionSet returns the change-detection allow-list as a set.
func (c *Config) ExtensionSet() map[string]bool {
	return toSet(c.ChangeDetection.Extensions)
}

// GroupingExtensionSet returns the fingerprinted extensions as a set.
func (c *Config) GroupingExtensionSet() map[string]bool {
	return toSet(c.Grouping.Extensions)
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = true
	}
	return set
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
