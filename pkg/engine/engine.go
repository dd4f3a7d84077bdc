package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/askframe/askframe/pkg/api"
	"github.com/askframe/askframe/pkg/history"
	"github.com/askframe/askframe/pkg/observability"
	"github.com/askframe/askframe/pkg/provider"
	"github.com/askframe/askframe/pkg/result"
	"github.com/askframe/askframe/pkg/sandbox"
	"github.com/askframe/askframe/pkg/script"
	"github.com/askframe/askframe/pkg/storage"
)

// Analysis error categories exposed to callers.
const (
	errCategoryValidation = "validation_failed"
	errCategoryExecution  = "execution_failed"
	errCategoryTimeout    = "timeout"
)

// Engine runs the analysis pipeline for one question at a time per
// session. It is safe for concurrent use across sessions; callers must
// serialize requests within a session to keep history order defined.
type Engine struct {
	generator   provider.Generator
	interpreter provider.Interpreter
	validator   *script.Validator
	executor    *sandbox.Executor
	cfg         Config
	logger      *slog.Logger
}

// New creates an Engine. The generator, validator, and executor must not
// be nil. A nil interpreter means every explanation is templated.
func New(gen provider.Generator, interp provider.Interpreter, v *script.Validator, exec *sandbox.Executor, cfg Config, logger *slog.Logger) (*Engine, error) {
	if gen == nil {
		return nil, fmt.Errorf("engine: generator must not be nil")
	}
	if v == nil {
		return nil, fmt.Errorf("engine: validator must not be nil")
	}
	if exec == nil {
		return nil, fmt.Errorf("engine: executor must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		generator:   gen,
		interpreter: interp,
		validator:   v,
		executor:    exec,
		cfg:         cfg,
		logger:      logger,
	}, nil
}

// Analyze answers a question about the session's dataset. Every run that
// produced a script is recorded in the session's history window; only a
// generator failure leaves the window untouched.
func (e *Engine) Analyze(ctx context.Context, sess *storage.Session, question string) (*api.AnalyzeResponse, error) {
	start := time.Now()
	log := e.logger.With("session_id", sess.ID)

	profile := e.buildProfile(sess)
	contextItems := e.recentContext(sess.Window)

	code, verdict, err := e.generateValidated(ctx, &profile, contextItems, question)
	if err != nil {
		observability.AnalysesTotal.WithLabelValues("generation_failed").Inc()
		return nil, err
	}

	resp := &api.AnalyzeResponse{
		InteractionID: api.NewInteractionID(),
		Question:      question,
		Script:        code,
	}

	if !verdict.OK {
		detail := fmt.Sprintf("%s: %s", verdict.Category, verdict.Detail)
		log.Info("script rejected", "category", verdict.Category, "detail", verdict.Detail)
		observability.AnalysesTotal.WithLabelValues(errCategoryValidation).Inc()
		resp.Error = &api.AnalysisError{Category: errCategoryValidation, Detail: detail}
		resp.ElapsedMillis = time.Since(start).Milliseconds()
		e.record(sess, resp, verdict, nil, time.Since(start))
		return resp, nil
	}

	execStart := time.Now()
	res := e.executor.Execute(ctx, sess.Dataset, code, e.cfg.ExecutionTimeout)
	observability.ExecutionDuration.Observe(time.Since(execStart).Seconds())

	if !res.Success {
		category := errCategoryExecution
		if res.Err.Category == sandbox.CategoryTimeout {
			category = errCategoryTimeout
		}
		log.Info("execution failed", "category", res.Err.Category, "elapsed", res.Elapsed)
		observability.ExecutionsTotal.WithLabelValues(string(res.Err.Category)).Inc()
		observability.AnalysesTotal.WithLabelValues(category).Inc()
		resp.Error = &api.AnalysisError{Category: category, Detail: res.Err.Message}
		resp.ElapsedMillis = time.Since(start).Milliseconds()
		e.record(sess, resp, verdict, nil, res.Elapsed)
		return resp, nil
	}
	observability.ExecutionsTotal.WithLabelValues("success").Inc()

	env := result.Encode(res.Raw, e.cfg.limits())
	resp.Envelope = &env
	resp.Explanation = e.explain(ctx, question, code, env)
	resp.ElapsedMillis = time.Since(start).Milliseconds()

	observability.AnalysesTotal.WithLabelValues("success").Inc()
	log.Info("analysis completed", "kind", env.Kind, "elapsed", res.Elapsed)
	e.record(sess, resp, verdict, &env, res.Elapsed)
	return resp, nil
}

// generateValidated runs the generate-validate stage with a single retry
// that carries back the latest violation. A returned error means the
// generator itself failed; a rejecting verdict means both attempts
// produced invalid scripts, and the second script is returned for the
// record.
func (e *Engine) generateValidated(ctx context.Context, profile *provider.DatasetProfile, contextItems []provider.ContextItem, question string) (string, script.Verdict, error) {
	req := &provider.GenerationRequest{
		Profile:  *profile,
		Context:  contextItems,
		Question: question,
	}

	var code string
	var verdict script.Verdict
	for attempt := 0; attempt < 2; attempt++ {
		raw, err := e.callGenerator(ctx, req)
		if err != nil {
			return "", script.Verdict{}, api.NewGenerationError(fmt.Sprintf("script generation failed: %v", err))
		}
		code = provider.StripCodeFences(raw)
		verdict = e.validator.Validate(code)
		if verdict.OK {
			return code, verdict, nil
		}
		observability.ValidationRejectionsTotal.WithLabelValues(string(verdict.Category)).Inc()
		req.Violation = fmt.Sprintf("%s: %s", verdict.Category, verdict.Detail)
	}
	return code, verdict, nil
}

func (e *Engine) callGenerator(ctx context.Context, req *provider.GenerationRequest) (string, error) {
	start := time.Now()
	raw, err := e.generator.GenerateScript(ctx, req)
	observability.ProviderLatency.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.ProviderRequestsTotal.WithLabelValues("generate", "error").Inc()
		return "", err
	}
	observability.ProviderRequestsTotal.WithLabelValues("generate", "success").Inc()
	return raw, nil
}

// explain asks the interpreter for an explanation of the result and
// falls back to a templated one when it is missing or fails.
func (e *Engine) explain(ctx context.Context, question, code string, env result.Envelope) string {
	if e.interpreter == nil {
		return result.FallbackExplanation(env)
	}
	req := &provider.InterpretationRequest{
		Question:          question,
		Script:            code,
		ResultDescription: result.Describe(env),
		Truncated:         envTruncated(env),
	}
	start := time.Now()
	text, err := e.interpreter.InterpretResult(ctx, req)
	observability.ProviderLatency.WithLabelValues("interpret").Observe(time.Since(start).Seconds())
	if err != nil || text == "" {
		observability.ProviderRequestsTotal.WithLabelValues("interpret", "error").Inc()
		e.logger.Warn("interpretation failed, using fallback", "error", err)
		return result.FallbackExplanation(env)
	}
	observability.ProviderRequestsTotal.WithLabelValues("interpret", "success").Inc()
	return text
}

// record appends the finished run to the session's history window.
func (e *Engine) record(sess *storage.Session, resp *api.AnalyzeResponse, verdict script.Verdict, env *result.Envelope, elapsed time.Duration) {
	it := history.Interaction{
		ID:             resp.InteractionID,
		Question:       resp.Question,
		Script:         resp.Script,
		Verdict:        verdict,
		Success:        resp.Error == nil,
		Envelope:       env,
		Interpretation: resp.Explanation,
		Elapsed:        elapsed,
		CreatedAt:      time.Now(),
	}
	if resp.Error != nil {
		it.Error = resp.Error.Detail
	}
	sess.Window.Append(it)
}

func (e *Engine) buildProfile(sess *storage.Session) provider.DatasetProfile {
	t := sess.Dataset
	return provider.DatasetProfile{
		Name:       sess.Name,
		Schema:     t.Schema(),
		RowCount:   t.NumRows(),
		Sample:     t.Sample(e.cfg.promptRows()),
		NullCounts: t.NullCounts(),
	}
}

func (e *Engine) recentContext(w *history.Window) []provider.ContextItem {
	summaries := w.Recent(e.cfg.lookback())
	if len(summaries) == 0 {
		return nil
	}
	items := make([]provider.ContextItem, len(summaries))
	for i, s := range summaries {
		items[i] = provider.ContextItem{
			Question:      s.Question,
			ScriptExcerpt: s.ScriptExcerpt,
			ResultSummary: s.ResultSummary,
		}
	}
	return items
}

// envTruncated reports whether any variant of the envelope was sampled
// or capped.
func envTruncated(env result.Envelope) bool {
	switch {
	case env.Table != nil:
		return env.Table.Truncated
	case env.Series != nil:
		return env.Series.Truncated
	case env.Array != nil:
		return env.Array.Truncated
	case env.Opaque != nil:
		return env.Opaque.Truncated
	}
	return false
}
