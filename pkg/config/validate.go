package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for internal consistency. All
// problems are reported together rather than one at a time.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}

	if c.Provider.BackendURL == "" {
		errs = append(errs, errors.New("provider.backend_url is required"))
	}
	if c.Provider.Model == "" {
		errs = append(errs, errors.New("provider.model is required"))
	}
	if c.Provider.GenerationTemperature < 0 || c.Provider.GenerationTemperature > 2 {
		errs = append(errs, fmt.Errorf("provider.generation_temperature must be between 0 and 2, got %g", c.Provider.GenerationTemperature))
	}
	if c.Provider.InterpretationTemperature < 0 || c.Provider.InterpretationTemperature > 2 {
		errs = append(errs, fmt.Errorf("provider.interpretation_temperature must be between 0 and 2, got %g", c.Provider.InterpretationTemperature))
	}
	if c.Provider.Timeout <= 0 {
		errs = append(errs, errors.New("provider.timeout must be positive"))
	}

	if c.Sandbox.ExecutionTimeout <= 0 {
		errs = append(errs, errors.New("sandbox.execution_timeout must be positive"))
	}
	if c.Sandbox.MaxScriptChars <= 0 {
		errs = append(errs, errors.New("sandbox.max_script_chars must be positive"))
	}
	if c.Sandbox.FrameName == "" {
		errs = append(errs, errors.New("sandbox.frame_name is required"))
	}

	if c.Limits.MaxSampleRows <= 0 {
		errs = append(errs, errors.New("limits.max_sample_rows must be positive"))
	}
	if c.Limits.MaxOutputChars <= 0 {
		errs = append(errs, errors.New("limits.max_output_chars must be positive"))
	}
	if c.Limits.MaxTableCells <= 0 {
		errs = append(errs, errors.New("limits.max_table_cells must be positive"))
	}
	if c.Limits.PromptRows <= 0 {
		errs = append(errs, errors.New("limits.prompt_rows must be positive"))
	}

	if c.History.Capacity <= 0 {
		errs = append(errs, errors.New("history.capacity must be positive"))
	}
	if c.History.Lookback < 0 {
		errs = append(errs, errors.New("history.lookback must not be negative"))
	}
	if c.History.Lookback > c.History.Capacity {
		errs = append(errs, fmt.Errorf("history.lookback (%d) must not exceed history.capacity (%d)", c.History.Lookback, c.History.Capacity))
	}

	if c.Storage.MaxSessions < 0 {
		errs = append(errs, errors.New("storage.max_sessions must not be negative"))
	}

	if c.Observability.Metrics.Enabled && c.Observability.Metrics.Path == "" {
		errs = append(errs, errors.New("observability.metrics.path is required when metrics are enabled"))
	}

	return errors.Join(errs...)
}
