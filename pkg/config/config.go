// Package config provides unified configuration for the askframe service.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (ASKFRAME_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
//
// The resulting Config is fixed at startup and injected where needed;
// nothing mutates it at runtime.
package config

import "time"

// Config holds all configuration for the askframe service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Provider      ProviderConfig      `yaml:"provider"`
	Sandbox       SandboxConfig       `yaml:"sandbox"`
	Limits        LimitsConfig        `yaml:"limits"`
	History       HistoryConfig       `yaml:"history"`
	Security      SecurityConfig      `yaml:"security"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8080
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 120s
}

// ProviderConfig holds generation backend settings.
type ProviderConfig struct {
	BackendURL                string        `yaml:"backend_url"` // required
	APIKey                    string        `yaml:"api_key"`
	APIKeyFile                string        `yaml:"api_key_file"`
	Model                     string        `yaml:"model"`                      // default: "gpt-4o-mini"
	GenerationTemperature     float64       `yaml:"generation_temperature"`     // default: 0.1
	InterpretationTemperature float64       `yaml:"interpretation_temperature"` // default: 0.3
	Timeout                   time.Duration `yaml:"timeout"`                    // default: 60s
}

// SandboxConfig holds script execution settings.
type SandboxConfig struct {
	ExecutionTimeout time.Duration `yaml:"execution_timeout"` // default: 5s
	MaxScriptChars   int           `yaml:"max_script_chars"`  // default: 10000
	MaxSteps         uint64        `yaml:"max_steps"`         // default: 100000000, 0 = unbounded
	FrameName        string        `yaml:"frame_name"`        // default: "df"
}

// LimitsConfig bounds result and dataset sizes.
type LimitsConfig struct {
	MaxSampleRows  int `yaml:"max_sample_rows"`  // rows/entries kept before truncation, default: 10
	MaxOutputChars int `yaml:"max_output_chars"` // default: 10000
	MaxTableCells  int `yaml:"max_table_cells"`  // dataset ingest ceiling, default: 100000000
	PromptRows     int `yaml:"prompt_rows"`      // sample rows shown to the generator, default: 5
}

// HistoryConfig bounds per-session conversation context.
type HistoryConfig struct {
	Capacity int `yaml:"capacity"` // window size, default: 10
	Lookback int `yaml:"lookback"` // entries surfaced per request, default: 3
}

// SecurityConfig holds the validator deny-lists. Empty lists fall back
// to the built-in defaults.
type SecurityConfig struct {
	ForbiddenImports   []string `yaml:"forbidden_imports"`
	ForbiddenBuiltins  []string `yaml:"forbidden_builtins"`
	ForbiddenMethods   []string `yaml:"forbidden_methods"`
	AllowedDunderAttrs []string `yaml:"allowed_dunder_attrs"`
}

// StorageConfig holds session store settings.
type StorageConfig struct {
	MaxSessions int `yaml:"max_sessions"` // 0 = unlimited, default: 1000
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Provider: ProviderConfig{
			Model:                     "gpt-4o-mini",
			GenerationTemperature:     0.1,
			InterpretationTemperature: 0.3,
			Timeout:                   60 * time.Second,
		},
		Sandbox: SandboxConfig{
			ExecutionTimeout: 5 * time.Second,
			MaxScriptChars:   10000,
			MaxSteps:         100_000_000,
			FrameName:        "df",
		},
		Limits: LimitsConfig{
			MaxSampleRows:  10,
			MaxOutputChars: 10000,
			MaxTableCells:  100_000_000,
			PromptRows:     5,
		},
		History: HistoryConfig{
			Capacity: 10,
			Lookback: 3,
		},
		Storage: StorageConfig{
			MaxSessions: 1000,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
