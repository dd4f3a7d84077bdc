package engine

import (
	"time"

	"github.com/askframe/askframe/pkg/result"
)

// Config holds pipeline settings.
type Config struct {
	// Lookback is how many prior interactions are surfaced to the
	// generator. Zero or negative means use the default of 3.
	Lookback int

	// PromptRows is how many sample rows the generator sees.
	// Zero or negative means use the default of 5.
	PromptRows int

	// ExecutionTimeout is the wall-clock budget per script execution.
	// Zero means the executor's own default applies.
	ExecutionTimeout time.Duration

	// ResultLimits bound the encoded result envelope. The zero value
	// means result.DefaultLimits().
	ResultLimits result.Limits
}

func (c Config) lookback() int {
	if c.Lookback <= 0 {
		return 3
	}
	return c.Lookback
}

func (c Config) promptRows() int {
	if c.PromptRows <= 0 {
		return 5
	}
	return c.PromptRows
}

func (c Config) limits() result.Limits {
	if c.ResultLimits == (result.Limits{}) {
		return result.DefaultLimits()
	}
	return c.ResultLimits
}
