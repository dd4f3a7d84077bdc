package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default config file search paths, in priority order.
var defaultSearchPaths = []string{
	"./askframe.yaml",
	"./config.yaml",
	"/etc/askframe/config.yaml",
}

// Load builds the service configuration. The explicit path argument wins
// over the ASKFRAME_CONFIG environment variable, which wins over the
// default search paths. A missing config file is not an error; defaults
// plus environment overrides then apply.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	file, explicit := resolveConfigPath(path)
	if file != "" {
		if err := loadYAMLFile(file, &cfg); err != nil {
			return nil, err
		}
	} else if explicit {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// resolveConfigPath returns the config file to load and whether the
// caller asked for a specific file.
func resolveConfigPath(path string) (string, bool) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", true
		}
		return path, true
	}
	if env := os.Getenv("ASKFRAME_CONFIG"); env != "" {
		if _, err := os.Stat(env); err == nil {
			return env, false
		}
		return "", false
	}
	for _, candidate := range defaultSearchPaths {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, false
		}
	}
	return "", false
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides maps ASKFRAME_* environment variables onto the
// config. Only the settings that commonly vary per deployment are
// exposed; everything else lives in the YAML file.
func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = strings.EqualFold(v, "true") || v == "1"
		}
	}

	setInt("ASKFRAME_PORT", &cfg.Server.Port)

	setString("ASKFRAME_BACKEND_URL", &cfg.Provider.BackendURL)
	setString("ASKFRAME_API_KEY", &cfg.Provider.APIKey)
	setString("ASKFRAME_API_KEY_FILE", &cfg.Provider.APIKeyFile)
	setString("ASKFRAME_MODEL", &cfg.Provider.Model)
	setFloat("ASKFRAME_GENERATION_TEMPERATURE", &cfg.Provider.GenerationTemperature)
	setDuration("ASKFRAME_PROVIDER_TIMEOUT", &cfg.Provider.Timeout)

	setDuration("ASKFRAME_EXECUTION_TIMEOUT", &cfg.Sandbox.ExecutionTimeout)
	setInt("ASKFRAME_MAX_SCRIPT_CHARS", &cfg.Sandbox.MaxScriptChars)

	setInt("ASKFRAME_MAX_SAMPLE_ROWS", &cfg.Limits.MaxSampleRows)
	setInt("ASKFRAME_MAX_OUTPUT_CHARS", &cfg.Limits.MaxOutputChars)

	setInt("ASKFRAME_HISTORY_CAPACITY", &cfg.History.Capacity)
	setInt("ASKFRAME_HISTORY_LOOKBACK", &cfg.History.Lookback)

	setInt("ASKFRAME_MAX_SESSIONS", &cfg.Storage.MaxSessions)

	setBool("ASKFRAME_METRICS_ENABLED", &cfg.Observability.Metrics.Enabled)
}

// resolveFileReferences reads secrets referenced through *_file fields.
// The file contents override any inline value.
func resolveFileReferences(cfg *Config) error {
	if cfg.Provider.APIKeyFile != "" {
		data, err := os.ReadFile(cfg.Provider.APIKeyFile)
		if err != nil {
			return fmt.Errorf("reading provider.api_key_file: %w", err)
		}
		cfg.Provider.APIKey = strings.TrimSpace(string(data))
	}
	return nil
}
