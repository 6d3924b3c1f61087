// Package config provides ambient CLI configuration for rqst itself —
// distinct from a quest's own rqst.toml, which internal/questcfg owns.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (RQST_*)
// 3. Project config (.rqst/config.yaml in cwd)
// 4. Home config (~/.rqst/config.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all rqst CLI configuration.
type Config struct {
	// Output controls the default output format (table, json, yaml).
	Output string `yaml:"output" json:"output"`

	// BaseDir is a base directory for quest clones. It is loaded and
	// resolved through the cascade, but no command reads it: `rqst new`
	// always places the clone under its DIR argument.
	BaseDir string `yaml:"base_dir" json:"base_dir"`

	// Verbose enables verbose logging.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Forge carries the code-hosting API connection settings.
	Forge ForgeConfig `yaml:"forge" json:"forge"`
}

// ForgeConfig holds Remote Service Adapter connection settings.
type ForgeConfig struct {
	// Host is the code-hosting product name this engine build targets.
	// Only "github" is implemented; the field exists so a future forge can
	// be selected without an engine rebuild.
	Host string `yaml:"host" json:"host"`

	// APIBaseURL names an alternative API endpoint, for GitHub Enterprise
	// or a test double. It is loaded and merged, but forge.NewClient does
	// not read it: requests always go to the code host's public API.
	APIBaseURL string `yaml:"api_base_url" json:"api_base_url"`

	// TimeoutSeconds is a per-request API timeout. It is loaded and merged,
	// but not applied to the API client.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput         = "table"
	defaultBaseDir        = "."
	defaultForgeHost      = "github"
	defaultTimeoutSeconds = 30
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output:  defaultOutput,
		BaseDir: defaultBaseDir,
		Verbose: false,
		Forge: ForgeConfig{
			Host:           defaultForgeHost,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	if homeConfig, _ := loadFromPath(homeConfigPath()); homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}
	if projectConfig, _ := loadFromPath(projectConfigPath()); projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rqst", "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("RQST_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".rqst", "config.yaml")
}

// loadFromPath loads config from a YAML file.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv applies RQST_* environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("RQST_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("RQST_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("RQST_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("RQST_FORGE_HOST"); v != "" {
		cfg.Forge.Host = v
	}
	if v := os.Getenv("RQST_FORGE_API_BASE_URL"); v != "" {
		cfg.Forge.APIBaseURL = v
	}
	return cfg
}

// merge merges src into dst, with non-zero src values taking precedence.
func merge(dst, src *Config) *Config {
	if src.Output != "" {
		dst.Output = src.Output
	}
	if src.BaseDir != "" {
		dst.BaseDir = src.BaseDir
	}
	if src.Verbose {
		dst.Verbose = true
	}
	if src.Forge.Host != "" {
		dst.Forge.Host = src.Forge.Host
	}
	if src.Forge.APIBaseURL != "" {
		dst.Forge.APIBaseURL = src.Forge.APIBaseURL
	}
	if src.Forge.TimeoutSeconds != 0 {
		dst.Forge.TimeoutSeconds = src.Forge.TimeoutSeconds
	}
	return dst
}

// Source names where a resolved config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.rqst/config.yaml"
	SourceProject Source = ".rqst/config.yaml"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

type resolved struct {
	Value  any    `json:"value"`
	Source Source `json:"source"`
}

// ResolvedConfig shows config values with their sources, for `rqst config`
// style introspection.
type ResolvedConfig struct {
	Output  resolved `json:"output"`
	BaseDir resolved `json:"base_dir"`
	Verbose resolved `json:"verbose"`
}

// resolveStringField resolves a string through the precedence chain,
// reporting which tier it came from.
func resolveStringField(home, project, env, flag, def string) resolved {
	result := resolved{Value: def, Source: SourceDefault}
	if home != "" {
		result = resolved{Value: home, Source: SourceHome}
	}
	if project != "" {
		result = resolved{Value: project, Source: SourceProject}
	}
	if env != "" {
		result = resolved{Value: env, Source: SourceEnv}
	}
	if flag != "" {
		result = resolved{Value: flag, Source: SourceFlag}
	}
	return result
}

func getEnvString(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "true" || v == "1" {
		return true, true
	}
	return false, false
}

// Resolve returns configuration with source tracking, for a diagnostic
// `rqst config` command. Uses the same precedence chain as Load.
func Resolve(flagOutput, flagBaseDir string, flagVerbose bool) *ResolvedConfig {
	homeConfig, _ := loadFromPath(homeConfigPath())
	projectConfig, _ := loadFromPath(projectConfigPath())

	var homeOutput, homeBaseDir string
	var homeVerbose bool
	if homeConfig != nil {
		homeOutput, homeBaseDir, homeVerbose = homeConfig.Output, homeConfig.BaseDir, homeConfig.Verbose
	}

	var projectOutput, projectBaseDir string
	var projectVerbose bool
	if projectConfig != nil {
		projectOutput, projectBaseDir, projectVerbose = projectConfig.Output, projectConfig.BaseDir, projectConfig.Verbose
	}

	envOutput, _ := getEnvString("RQST_OUTPUT")
	envBaseDir, _ := getEnvString("RQST_BASE_DIR")
	envVerbose, envVerboseSet := getEnvBool("RQST_VERBOSE")

	rc := &ResolvedConfig{
		Output:  resolveStringField(homeOutput, projectOutput, envOutput, flagOutput, defaultOutput),
		BaseDir: resolveStringField(homeBaseDir, projectBaseDir, envBaseDir, flagBaseDir, defaultBaseDir),
		Verbose: resolved{Value: false, Source: SourceDefault},
	}

	if homeVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceHome}
	}
	if projectVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceProject}
	}
	if envVerboseSet && envVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceEnv}
	}
	if flagVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceFlag}
	}

	return rc
}
