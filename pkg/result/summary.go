package result

import (
	"fmt"
	"strings"
)

// Summarize reduces an envelope to a one-line description suitable for
// conversation context. Full results are never re-serialized into
// prompts; this summary is what the generator sees about prior answers.
func Summarize(env Envelope) string {
	switch env.Kind {
	case KindScalar:
		switch v := env.Scalar.Value.(type) {
		case string:
			return "String: " + excerpt(v, 100)
		case bool:
			return fmt.Sprintf("Boolean value: %v", v)
		default:
			return fmt.Sprintf("Numeric value: %v", v)
		}

	case KindTable:
		cols := env.Table.Columns
		shown := cols
		suffix := ""
		if len(shown) > 5 {
			shown = shown[:5]
			suffix = " ..."
		}
		return fmt.Sprintf("Table with %d rows and %d columns. Columns: %s%s",
			env.Table.Shape[0], env.Table.Shape[1], strings.Join(shown, ", "), suffix)

	case KindSeries:
		return fmt.Sprintf("Series with %d values", env.Series.Length)

	case KindArray:
		return fmt.Sprintf("Array with %d values", env.Array.Length)

	case KindOpaque:
		return "Value: " + excerpt(env.Opaque.Rendered, 100)

	default:
		return "No result"
	}
}

// Describe renders an envelope for the interpretation prompt: fuller than
// a summary, still bounded.
func Describe(env Envelope) string {
	switch env.Kind {
	case KindScalar:
		return fmt.Sprintf("%v", env.Scalar.Value)

	case KindTable:
		var b strings.Builder
		if env.Table.Truncated {
			fmt.Fprintf(&b, "Table with shape [%d x %d] (showing first %d rows):\n",
				env.Table.Shape[0], env.Table.Shape[1], len(env.Table.Rows))
		} else {
			fmt.Fprintf(&b, "Table with shape [%d x %d]:\n",
				env.Table.Shape[0], env.Table.Shape[1])
		}
		b.WriteString(strings.Join(env.Table.Columns, " | "))
		for _, row := range env.Table.Rows {
			b.WriteString("\n")
			cells := make([]string, len(env.Table.Columns))
			for i, col := range env.Table.Columns {
				cells[i] = fmt.Sprintf("%v", row[col])
			}
			b.WriteString(strings.Join(cells, " | "))
		}
		return b.String()

	case KindSeries:
		var b strings.Builder
		if env.Series.Truncated {
			fmt.Fprintf(&b, "Series with %d values (showing first %d):\n",
				env.Series.Length, len(env.Series.Entries))
		} else {
			fmt.Fprintf(&b, "Series with %d values:\n", env.Series.Length)
		}
		for _, e := range env.Series.Entries {
			fmt.Fprintf(&b, "%s: %v\n", e.Key, e.Value)
		}
		return strings.TrimRight(b.String(), "\n")

	case KindArray:
		if env.Array.Rendered != "" {
			return fmt.Sprintf("Array with %d values (truncated): %s", env.Array.Length, env.Array.Rendered)
		}
		return fmt.Sprintf("Array with %d values: %v", env.Array.Length, env.Array.Values)

	case KindOpaque:
		return env.Opaque.Rendered

	default:
		return "No result"
	}
}

// FallbackExplanation produces a deterministic templated explanation from
// the envelope type and shape, used when the interpreter is unavailable.
// Interpretation failure must never fail the whole pipeline.
func FallbackExplanation(env Envelope) string {
	switch env.Kind {
	case KindTable:
		return fmt.Sprintf("Analysis completed successfully. The result is a table with %d rows and %d columns.",
			env.Table.Shape[0], env.Table.Shape[1])
	case KindSeries:
		return fmt.Sprintf("Analysis completed successfully. The result is a series with %d values.",
			env.Series.Length)
	case KindArray:
		return fmt.Sprintf("Analysis completed successfully. The result is an array with %d values.",
			env.Array.Length)
	case KindScalar:
		return fmt.Sprintf("The calculated result is: %v", env.Scalar.Value)
	default:
		return "Analysis completed successfully. The results are shown above."
	}
}

// excerpt caps s at max characters with an ellipsis marker.
func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
