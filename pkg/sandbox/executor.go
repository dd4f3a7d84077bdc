package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.starlark.net/starlark"

	"github.com/askframe/askframe/pkg/dataset"
	"github.com/askframe/askframe/pkg/script"
)

// Config holds executor settings.
type Config struct {
	// FrameName is the binding the dataset copy is exposed under.
	// Default: "df".
	FrameName string

	// Timeout is the default wall-clock budget per execution.
	// Default: 5s.
	Timeout time.Duration

	// MaxSteps bounds the Starlark computation steps per execution as a
	// second line of defense next to the wall clock. 0 disables the bound.
	MaxSteps uint64

	// BlockedBuiltins are universe builtin names shadowed with erroring
	// stubs. Defaults to the validator's forbidden builtins.
	BlockedBuiltins []string
}

// DefaultConfig returns the stock executor settings.
func DefaultConfig() Config {
	return Config{
		FrameName: "df",
		Timeout:   5 * time.Second,
		MaxSteps:  100_000_000,
	}
}

// Result is the outcome of one execution.
type Result struct {
	// Success reports whether the script ran to completion.
	Success bool

	// Raw is the final value of the output binding, converted to the
	// encoder's value domain. Only set on success.
	Raw any

	// Stdout is the script's captured print output.
	Stdout string

	// Err describes the failure. Only set when Success is false.
	Err *ExecError

	// Elapsed is the wall-clock execution duration.
	Elapsed time.Duration
}

// Executor runs scripts in the sandbox. Safe for concurrent use; every
// call builds a fresh environment around its own dataset copy.
type Executor struct {
	validator *script.Validator
	cfg       Config
	logger    *slog.Logger
}

// New creates an Executor. The validator must not be nil: scripts are
// re-validated on every call regardless of verdicts computed elsewhere.
func New(validator *script.Validator, cfg Config) (*Executor, error) {
	if validator == nil {
		return nil, fmt.Errorf("sandbox: validator must not be nil")
	}
	def := DefaultConfig()
	if cfg.FrameName == "" {
		cfg.FrameName = def.FrameName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.BlockedBuiltins == nil {
		cfg.BlockedBuiltins = script.DefaultConfig().ForbiddenBuiltins
	}
	return &Executor{
		validator: validator,
		cfg:       cfg,
		logger:    slog.Default().With("component", "sandbox"),
	}, nil
}

// Execute runs code against a copy of table within the wall-clock budget.
// A zero timeout uses the configured default. The returned Result always
// carries either a value or a classified error; Execute itself never
// fails and never panics on script misbehavior.
func (e *Executor) Execute(ctx context.Context, table *dataset.Table, code string, timeout time.Duration) *Result {
	if timeout <= 0 {
		timeout = e.cfg.Timeout
	}
	start := time.Now()

	// Revalidate here; a verdict computed in an earlier request does
	// not carry over.
	if verdict := e.validator.Validate(code); !verdict.OK {
		e.logger.Warn("script failed revalidation",
			"category", verdict.Category, "detail", verdict.Detail)
		return &Result{
			Err: &ExecError{
				Category: CategoryValidation,
				Message:  "script validation failed: " + verdict.Detail,
			},
		}
	}

	working := table.Copy()
	env := buildEnv(working, e.cfg.FrameName, script.ResultName, e.cfg.BlockedBuiltins)

	var stdout printBuffer
	thread := &starlark.Thread{
		Name:  "sandbox",
		Print: func(_ *starlark.Thread, msg string) { stdout.append(msg) },
	}
	if e.cfg.MaxSteps > 0 {
		thread.SetMaxExecutionSteps(e.cfg.MaxSteps)
	}

	type outcome struct {
		globals starlark.StringDict
		err     error
	}
	// Buffered so an abandoned worker can complete and be collected.
	done := make(chan outcome, 1)
	go func() {
		globals, err := starlark.ExecFileOptions(script.FileOptions, thread, "script.star", code, env)
		done <- outcome{globals: globals, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case o := <-done:
		elapsed := time.Since(start)
		if o.err != nil {
			execErr := classify(o.err)
			e.logger.Warn("script execution failed",
				"category", execErr.Category, "elapsed", elapsed)
			return &Result{Err: execErr, Elapsed: elapsed}
		}
		return e.successResult(o.globals, &stdout, elapsed)

	case <-timer.C:
		// Abandon the worker: cancel cooperatively and drop every
		// reference to its eventual output.
		thread.Cancel("wall-clock budget exceeded")
		e.logger.Warn("script execution timed out", "timeout", timeout)
		return &Result{
			Err: &ExecError{
				Category: CategoryTimeout,
				Message:  fmt.Sprintf("execution timed out after %s; the operation may be too complex", timeout),
			},
			Elapsed: time.Since(start),
		}

	case <-ctx.Done():
		thread.Cancel("request cancelled")
		return &Result{
			Err:     &ExecError{Category: CategoryOther, Message: "execution cancelled"},
			Elapsed: time.Since(start),
		}
	}
}

// successResult reads the output binding and falls back to captured print
// output if the binding was never set (the validator rejects that case,
// but the executor does not depend on it).
func (e *Executor) successResult(globals starlark.StringDict, stdout *printBuffer, elapsed time.Duration) *Result {
	out := stdout.String()
	value, ok := globals[script.ResultName]
	if !ok || value == starlark.None {
		if trimmed := strings.TrimSpace(out); trimmed != "" {
			return &Result{Success: true, Raw: trimmed, Stdout: out, Elapsed: elapsed}
		}
		return &Result{Success: true, Raw: nil, Stdout: out, Elapsed: elapsed}
	}
	return &Result{Success: true, Raw: starlarkToGo(value), Stdout: out, Elapsed: elapsed}
}

// printBuffer collects print output. The worker goroutine may outlive the
// call on timeout, so appends stay synchronized.
type printBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (p *printBuffer) append(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.b.WriteString(msg)
	p.b.WriteString("\n")
}

func (p *printBuffer) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.b.String()
}
