package provider

import (
	"fmt"
	"strings"

	"github.com/askframe/askframe/pkg/dataset"
)

// GenerationSystemPrompt primes the generator for script writing.
const GenerationSystemPrompt = "You are a data analyst writing Starlark " +
	"(a Python dialect) to analyze tabular data. Return only executable " +
	"code, no explanations or markdown."

// InterpretationSystemPrompt primes the interpreter for explanations.
const InterpretationSystemPrompt = "You are a data analyst explaining " +
	"results to a business user. Be concise and clear."

// BuildGenerationPrompt renders the user prompt for script generation:
// dataset structure, sample rows, prior conversation context, the
// question, and the contract the script must follow.
func BuildGenerationPrompt(req *GenerationRequest) string {
	var b strings.Builder
	p := req.Profile

	fmt.Fprintf(&b, "You have a data frame called 'df' with %d rows and %d columns.\n\n",
		p.RowCount, len(p.Schema))

	b.WriteString("Columns and types:\n")
	for _, col := range p.Schema {
		fmt.Fprintf(&b, "- %s: %s\n", col.Name, col.Type)
	}

	if len(p.Sample) > 0 {
		fmt.Fprintf(&b, "\nFirst %d rows of data:\n", len(p.Sample))
		writeSampleRows(&b, p.Schema, p.Sample)
	}

	if len(p.NullCounts) > 0 {
		b.WriteString("\nNull value counts per column:\n")
		for _, col := range p.Schema {
			if n := p.NullCounts[col.Name]; n > 0 {
				fmt.Fprintf(&b, "- %s: %d null values\n", col.Name, n)
			}
		}
	}

	if ctx := FormatContext(req.Context); ctx != "" {
		b.WriteString("\n")
		b.WriteString(ctx)
	}

	fmt.Fprintf(&b, "\nCurrent question: %s\n", req.Question)

	b.WriteString(`
Write Starlark code that:
1. Uses the existing 'df' frame (already loaded)
2. Answers the user's question
3. MUST store the final answer in a variable called 'result'
4. Handles edge cases like missing columns or None values

Available on df: df["column"] indexing, df.columns, df.shape, df.num_rows,
df.head(n), df.tail(n), df.select(...columns), df.filter(lambda row: ...),
df.sort_by(column, reverse=False), df.value_counts(column).
Also available: sum, mean, unique, min, max, len, sorted, and the
math/time/json modules.

Important:
- The code MUST assign the final answer to a variable named 'result'
- Do not use any import or load statements
- Return ONLY executable Starlark code, no explanations or markdown
`)

	if req.Violation != "" {
		fmt.Fprintf(&b, "\nYour previous attempt was rejected: %s\nGenerate corrected code that avoids this problem.\n",
			req.Violation)
	}

	return b.String()
}

// FormatContext renders prior interactions as a prompt block. Empty
// context renders as the empty string.
func FormatContext(items []ContextItem) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Previous conversation context:\n")
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. Question: %s\n", i+1, item.Question)
		fmt.Fprintf(&b, "   Generated code: %s\n", item.ScriptExcerpt)
		fmt.Fprintf(&b, "   Result: %s\n", item.ResultSummary)
	}
	b.WriteString("\nConsider this context when generating new code.\n")
	return b.String()
}

// BuildInterpretationPrompt renders the user prompt for result
// interpretation.
func BuildInterpretationPrompt(req *InterpretationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user asked: %s\n\n", req.Question)
	fmt.Fprintf(&b, "You generated and ran this code:\n```\n%s\n```\n\n", req.Script)
	fmt.Fprintf(&b, "The result was:\n%s\n\n", req.ResultDescription)
	b.WriteString("Provide a clear, concise interpretation of these results " +
		"in 2-3 sentences. Focus on answering the user's original question directly.")
	if req.Truncated {
		b.WriteString(" The result was truncated; mention that only a sample is shown.")
	}
	b.WriteString(" Use business-friendly language and avoid technical jargon.\n")
	return b.String()
}

// StripCodeFences removes markdown code fences a generator may wrap its
// output in.
func StripCodeFences(code string) string {
	code = strings.TrimSpace(code)
	for _, prefix := range []string{"```python", "```starlark", "```"} {
		if strings.HasPrefix(code, prefix) {
			code = code[len(prefix):]
			break
		}
	}
	code = strings.TrimSuffix(strings.TrimSpace(code), "```")
	return strings.TrimSpace(code)
}

// writeSampleRows renders sample rows as an aligned text table.
func writeSampleRows(b *strings.Builder, schema []dataset.ColumnSpec, rows []map[string]any) {
	widths := make([]int, len(schema))
	cells := make([][]string, len(rows))
	for i, col := range schema {
		widths[i] = len(col.Name)
	}
	for r, row := range rows {
		cells[r] = make([]string, len(schema))
		for i, col := range schema {
			s := fmt.Sprintf("%v", row[col.Name])
			if row[col.Name] == nil {
				s = "None"
			}
			cells[r][i] = s
			if len(s) > widths[i] {
				widths[i] = len(s)
			}
		}
	}
	for i, col := range schema {
		fmt.Fprintf(b, "%-*s  ", widths[i], col.Name)
	}
	b.WriteString("\n")
	for _, row := range cells {
		for i, cell := range row {
			fmt.Fprintf(b, "%-*s  ", widths[i], cell)
		}
		b.WriteString("\n")
	}
}
