package provider

import (
	"strings"
	"testing"

	"github.com/askframe/askframe/pkg/dataset"
)

func sampleRequest() *GenerationRequest {
	return &GenerationRequest{
		Profile: DatasetProfile{
			Name: "sales",
			Schema: []dataset.ColumnSpec{
				{Name: "region", Type: dataset.TypeText},
				{Name: "amount", Type: dataset.TypeNumeric},
			},
			RowCount: 100,
			Sample: []map[string]any{
				{"region": "west", "amount": int64(10)},
				{"region": "east", "amount": nil},
			},
			NullCounts: map[string]int{"amount": 4},
		},
		Question: "what is the total amount?",
	}
}

func TestBuildGenerationPrompt(t *testing.T) {
	prompt := BuildGenerationPrompt(sampleRequest())

	wants := []string{
		"100 rows and 2 columns",
		"- region: text",
		"- amount: numeric",
		"First 2 rows of data:",
		"- amount: 4 null values",
		"Current question: what is the total amount?",
		"variable called 'result'",
		"Do not use any import or load statements",
	}
	for _, want := range wants {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "Previous conversation context") {
		t.Error("prompt should have no context block without prior interactions")
	}
	if strings.Contains(prompt, "previous attempt was rejected") {
		t.Error("prompt should have no violation block on first attempt")
	}
	// Nil sample cells render as None.
	if !strings.Contains(prompt, "None") {
		t.Error("nil sample value should render as None")
	}
}

func TestBuildGenerationPromptWithContext(t *testing.T) {
	req := sampleRequest()
	req.Context = []ContextItem{
		{Question: "how many rows?", ScriptExcerpt: "result = df.num_rows", ResultSummary: "Numeric value: 100"},
		{Question: "which regions?", ScriptExcerpt: `result = unique(df["region"])`, ResultSummary: "Array with 2 values"},
	}
	prompt := BuildGenerationPrompt(req)

	if !strings.Contains(prompt, "Previous conversation context:") {
		t.Fatal("context block missing")
	}
	if !strings.Contains(prompt, "1. Question: how many rows?") {
		t.Error("first context item missing or unnumbered")
	}
	if !strings.Contains(prompt, "2. Question: which regions?") {
		t.Error("second context item missing or unnumbered")
	}
	if strings.Index(prompt, "how many rows?") > strings.Index(prompt, "which regions?") {
		t.Error("context items out of chronological order")
	}
}

func TestBuildGenerationPromptWithViolation(t *testing.T) {
	req := sampleRequest()
	req.Violation = `forbidden_capability: use of built-in "eval" is not allowed`
	prompt := BuildGenerationPrompt(req)

	if !strings.Contains(prompt, "previous attempt was rejected") {
		t.Fatal("violation block missing")
	}
	if !strings.Contains(prompt, `"eval"`) {
		t.Error("violation detail not carried into prompt")
	}
}

func TestFormatContextEmpty(t *testing.T) {
	if got := FormatContext(nil); got != "" {
		t.Errorf("FormatContext(nil) = %q, want empty", got)
	}
}

func TestBuildInterpretationPrompt(t *testing.T) {
	req := &InterpretationRequest{
		Question:          "total sales?",
		Script:            `result = sum(df["amount"])`,
		ResultDescription: "4500",
	}
	prompt := BuildInterpretationPrompt(req)

	if !strings.Contains(prompt, "The user asked: total sales?") {
		t.Error("question missing")
	}
	if !strings.Contains(prompt, `sum(df["amount"])`) {
		t.Error("script missing")
	}
	if !strings.Contains(prompt, "4500") {
		t.Error("result description missing")
	}
	if strings.Contains(prompt, "truncated") {
		t.Error("truncation note present without truncation")
	}

	req.Truncated = true
	if !strings.Contains(BuildInterpretationPrompt(req), "only a sample is shown") {
		t.Error("truncation note missing")
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare code", "result = 1", "result = 1"},
		{"plain fence", "```\nresult = 1\n```", "result = 1"},
		{"python fence", "```python\nresult = 1\n```", "result = 1"},
		{"starlark fence", "```starlark\nresult = 1\n```", "result = 1"},
		{"surrounding whitespace", "  \n```\nresult = 1\n```\n  ", "result = 1"},
		{"no closing fence", "```python\nresult = 1", "result = 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFences(tt.in); got != tt.want {
				t.Errorf("StripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
