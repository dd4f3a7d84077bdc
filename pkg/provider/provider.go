// Package provider abstracts the external text-generation collaborators
// of the pipeline: the script generator and the result interpreter. Both
// are black boxes from the core's point of view: any returned script
// text is fully untrusted, and interpreter failure is never fatal.
package provider

import (
	"context"

	"github.com/askframe/askframe/pkg/dataset"
)

// DatasetProfile is the structural description of a dataset handed to the
// generator: schema, size, a small row sample, and null counts. It never
// contains the full dataset.
type DatasetProfile struct {
	Name       string
	Schema     []dataset.ColumnSpec
	RowCount   int
	Sample     []map[string]any
	NullCounts map[string]int
}

// ContextItem is one prior interaction surfaced to the generator:
// question, script excerpt, and a short result summary.
type ContextItem struct {
	Question      string
	ScriptExcerpt string
	ResultSummary string
}

// GenerationRequest carries everything the generator may condition on.
type GenerationRequest struct {
	Profile  DatasetProfile
	Context  []ContextItem
	Question string

	// Violation carries the category and detail of a prior validation
	// rejection on retry attempts. Empty on the first attempt.
	Violation string
}

// Generator produces a script for a question about a dataset.
// Implementations must be safe for concurrent use.
type Generator interface {
	// GenerateScript returns raw script text. The caller treats the
	// text as fully untrusted until validated.
	GenerateScript(ctx context.Context, req *GenerationRequest) (string, error)
}

// InterpretationRequest carries the material for a natural-language
// explanation of an execution result.
type InterpretationRequest struct {
	Question string
	Script   string

	// ResultDescription is the bounded textual rendering of the result
	// envelope, and Truncated whether the rendering was sampled.
	ResultDescription string
	Truncated         bool
}

// Interpreter turns a structured result into a user-facing explanation.
// Failure is non-fatal; callers fall back to templated explanations.
type Interpreter interface {
	InterpretResult(ctx context.Context, req *InterpretationRequest) (string, error)
}
