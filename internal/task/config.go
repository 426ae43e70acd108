package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tailscale/hujson"
)

// Config errors.
var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigInvalid      = errors.New("invalid config file")
	errTasksFileEmpty     = errors.New("tasks_file cannot be empty")
)

// ConfigFileName is the default project config file name.
const ConfigFileName = ".tq.json"

// Config holds all configuration options. Config files are JWCC (JSON
// with comments and trailing commas).
type Config struct {
	// From config files (serialized)
	TasksFile           string          `json:"tasks_file"`
	GlobalQuery         string          `json:"global_query,omitempty"`
	Scoring             ScoringSettings `json:"scoring"`
	ResultCacheSize     int             `json:"result_cache_size,omitempty"`
	ExplainCacheSize    int             `json:"explain_cache_size,omitempty"`
	ExplainCacheTTLText string          `json:"explain_cache_ttl,omitempty"` // Go duration, e.g. "5m"

	// Resolved paths (computed, not serialized)
	EffectiveCwd string `json:"-"` // absolute working directory
	TasksFileAbs string `json:"-"` // absolute path to the tasks file

	// Sources tracks which config files were loaded (for diagnostics)
	Sources ConfigSources `json:"-"`
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // path to global config if loaded, empty otherwise
	Project string // path to project config if loaded, empty otherwise
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		TasksFile: "tasks.json",
		Scoring:   DefaultScoringSettings(),
	}
}

// ExplainCacheTTL parses the configured explanation-cache TTL, or 0 when
// unset (callers fall back to their default).
func (c Config) ExplainCacheTTL() (time.Duration, error) {
	if c.ExplainCacheTTLText == "" {
		return 0, nil
	}

	ttl, err := time.ParseDuration(c.ExplainCacheTTLText)
	if err != nil {
		return 0, fmt.Errorf("%w: explain_cache_ttl: %w", errConfigInvalid, err)
	}

	return ttl, nil
}

// FormatConfig renders the effective configuration as indented JSON.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("formatting config: %w", err)
	}

	return string(data), nil
}

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride   string            // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath        string            // -c/--config flag value
	TasksFileOverride string            // --tasks flag value; empty means no override
	Env               map[string]string // environment variables
}

// LoadConfig loads configuration with the following precedence (highest
// wins):
// 1. Defaults
// 2. Global user config (~/.config/tq/config.json or $XDG_CONFIG_HOME/tq/config.json)
// 3. Project config file at the default location (.tq.json, if it exists)
// 4. Explicit config file via ConfigPath (if non-empty)
// 5. CLI overrides.
//
// All paths in the returned Config are resolved to absolute paths.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	globalPath := globalConfigPath(input.Env)
	if globalPath != "" {
		loaded, found, err := loadConfigFile(globalPath)
		if err != nil {
			return Config{}, err
		}

		if found {
			cfg = mergeConfig(cfg, loaded)
			cfg.Sources.Global = globalPath
		}
	}

	projectPath := filepath.Join(workDir, ConfigFileName)
	if input.ConfigPath != "" {
		projectPath = input.ConfigPath
		if !filepath.IsAbs(projectPath) {
			projectPath = filepath.Join(workDir, projectPath)
		}
	}

	loaded, found, err := loadConfigFile(projectPath)
	if err != nil {
		return Config{}, err
	}

	if !found && input.ConfigPath != "" {
		return Config{}, fmt.Errorf("%w: %s", errConfigFileNotFound, projectPath)
	}

	if found {
		cfg = mergeConfig(cfg, loaded)
		cfg.Sources.Project = projectPath
	}

	if input.TasksFileOverride != "" {
		cfg.TasksFile = input.TasksFileOverride
	}

	if cfg.TasksFile == "" {
		return Config{}, errTasksFileEmpty
	}

	cfg.EffectiveCwd = workDir

	cfg.TasksFileAbs = cfg.TasksFile
	if !filepath.IsAbs(cfg.TasksFileAbs) {
		cfg.TasksFileAbs = filepath.Join(workDir, cfg.TasksFile)
	}

	// Validate the TTL eagerly so a bad config fails at startup.
	if _, ttlErr := cfg.ExplainCacheTTL(); ttlErr != nil {
		return Config{}, ttlErr
	}

	return cfg, nil
}

// globalConfigPath returns the path to the global config file. Uses
// $XDG_CONFIG_HOME/tq/config.json if set, otherwise ~/.config/tq/config.json.
// Returns empty string if the home directory cannot be determined.
func globalConfigPath(env map[string]string) string {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "tq", "config.json")
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", "tq", "config.json")
	}

	return ""
}

func loadConfigFile(path string) (Config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is config-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w: %s: %w", errConfigInvalid, path, err)
	}

	var cfg Config

	if unmarshalErr := json.Unmarshal(standardized, &cfg); unmarshalErr != nil {
		return Config{}, false, fmt.Errorf("%w: %s: %w", errConfigInvalid, path, unmarshalErr)
	}

	return cfg, true, nil
}

// mergeConfig overlays non-zero fields of overlay onto base.
func mergeConfig(base, overlay Config) Config {
	if overlay.TasksFile != "" {
		base.TasksFile = overlay.TasksFile
	}

	if overlay.GlobalQuery != "" {
		base.GlobalQuery = overlay.GlobalQuery
	}

	if overlay.ResultCacheSize != 0 {
		base.ResultCacheSize = overlay.ResultCacheSize
	}

	if overlay.ExplainCacheSize != 0 {
		base.ExplainCacheSize = overlay.ExplainCacheSize
	}

	if overlay.ExplainCacheTTLText != "" {
		base.ExplainCacheTTLText = overlay.ExplainCacheTTLText
	}

	if overlay.Scoring.DueWeight != 0 || overlay.Scoring.PriorityWeight != 0 {
		base.Scoring = overlay.Scoring
	}

	if len(overlay.Scoring.Lanes) > 0 {
		base.Scoring.Lanes = overlay.Scoring.Lanes
	}

	return base
}
