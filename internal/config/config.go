package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"axe/internal/paths"
)

// Config is the complete axe configuration (v1 schema), read from
// .axe/config.json with AXE_* environment overrides.
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Extract ExtractConfig `json:"extract" mapstructure:"extract"`
	Ignore  IgnoreConfig  `json:"ignore" mapstructure:"ignore"`
	Cache   CacheConfig   `json:"cache" mapstructure:"cache"`
	Output  OutputConfig  `json:"output" mapstructure:"output"`
	Scip    ScipConfig    `json:"scip" mapstructure:"scip"`
	Rules   RulesConfig   `json:"rules" mapstructure:"rules"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ExtractConfig controls what the extraction pipeline detects.
type ExtractConfig struct {
	Hazards       bool     `json:"hazards" mapstructure:"hazards"`
	CallGraph     bool     `json:"callGraph" mapstructure:"callGraph"`
	Macros        bool     `json:"macros" mapstructure:"macros"`
	Jobs          int      `json:"jobs" mapstructure:"jobs"`
	Extensions    []string `json:"extensions" mapstructure:"extensions"`
	TestMode      bool     `json:"testMode" mapstructure:"testMode"`
	TestFramework string   `json:"testFramework" mapstructure:"testFramework"`
}

// IgnoreConfig controls .axignore handling.
type IgnoreConfig struct {
	File     string `json:"file" mapstructure:"file"`
	Disabled bool   `json:"disabled" mapstructure:"disabled"`
}

// CacheConfig controls the incremental extraction cache.
type CacheConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// OutputConfig controls report emission.
type OutputConfig struct {
	Format   string `json:"format" mapstructure:"format"`
	Pretty   bool   `json:"pretty" mapstructure:"pretty"`
	Compress bool   `json:"compress" mapstructure:"compress"`
	Flat     bool   `json:"flat" mapstructure:"flat"`
}

// ScipConfig points at an optional SCIP index.
type ScipConfig struct {
	IndexPath string `json:"indexPath" mapstructure:"indexPath"`
}

// RulesConfig points at an optional rules.toml.
type RulesConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultExtensions are the file extensions treated as C++ when a
// directory is scanned. Matching is case-sensitive: .C and .H are C++
// by convention where .c is not.
var DefaultExtensions = []string{".cpp", ".cc", ".cxx", ".hpp", ".h", ".hxx", ".C", ".H"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Extract: ExtractConfig{
			Hazards:       true,
			CallGraph:     true,
			Macros:        false,
			Jobs:          0, // 0 = one worker per CPU
			Extensions:    append([]string(nil), DefaultExtensions...),
			TestMode:      false,
			TestFramework: "auto",
		},
		Ignore: IgnoreConfig{
			File:     "",
			Disabled: false,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			Format:   "json",
			Pretty:   false,
			Compress: false,
			Flat:     false,
		},
		Scip: ScipConfig{
			IndexPath: "",
		},
		Rules: RulesConfig{
			Path: "",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .axe/config.json under projectRoot.
// A missing file is not an error: defaults plus any AXE_* environment
// overrides apply.
func LoadConfig(projectRoot string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(paths.AxeDir(projectRoot))

	v.SetEnvPrefix("AXE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults seeds every key so environment overrides bind even when no
// config file exists.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("extract.hazards", d.Extract.Hazards)
	v.SetDefault("extract.callGraph", d.Extract.CallGraph)
	v.SetDefault("extract.macros", d.Extract.Macros)
	v.SetDefault("extract.jobs", d.Extract.Jobs)
	v.SetDefault("extract.extensions", d.Extract.Extensions)
	v.SetDefault("extract.testMode", d.Extract.TestMode)
	v.SetDefault("extract.testFramework", d.Extract.TestFramework)
	v.SetDefault("ignore.file", d.Ignore.File)
	v.SetDefault("ignore.disabled", d.Ignore.Disabled)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.pretty", d.Output.Pretty)
	v.SetDefault("output.compress", d.Output.Compress)
	v.SetDefault("output.flat", d.Output.Flat)
	v.SetDefault("scip.indexPath", d.Scip.IndexPath)
	v.SetDefault("rules.path", d.Rules.Path)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
}

// Save writes the configuration to .axe/config.json under projectRoot,
// creating the .axe directory if needed.
func (c *Config) Save(projectRoot string) error {
	if err := os.MkdirAll(paths.AxeDir(projectRoot), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(paths.AxeDir(projectRoot), paths.ConfigFileName), data, 0o644)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Extract.Jobs < 0 {
		return &ConfigError{Field: "extract.jobs", Message: "must be zero or positive"}
	}
	if len(c.Extract.Extensions) == 0 {
		return &ConfigError{Field: "extract.extensions", Message: "must list at least one extension"}
	}
	switch c.Extract.TestFramework {
	case "auto", "catch2", "gtest", "boost":
	default:
		return &ConfigError{Field: "extract.testFramework", Message: "must be auto, catch2, gtest, or boost"}
	}
	switch c.Output.Format {
	case "json", "human":
	default:
		return &ConfigError{Field: "output.format", Message: "must be json or human"}
	}
	switch c.Logging.Format {
	case "json", "human":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be json or human"}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: "must be debug, info, warn, or error"}
	}
	return nil
}

// IsSourceFile reports whether path has one of the configured C++
// extensions. Matching is case-sensitive: .C and .H are C++ by
// convention where .c is not.
func (c *Config) IsSourceFile(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range c.Extract.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
