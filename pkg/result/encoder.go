package result

import (
	"fmt"

	"github.com/askframe/askframe/pkg/dataset"
)

// Limits bounds encoded envelope size.
type Limits struct {
	// MaxRows is the sample ceiling for table rows and series entries.
	MaxRows int

	// MaxChars is the output-size ceiling for string renderings.
	MaxChars int
}

// DefaultLimits returns the stock encoding limits.
func DefaultLimits() Limits {
	return Limits{MaxRows: 10, MaxChars: 10000}
}

// Encode converts an execution-time value into a bounded Envelope.
// Recognized inputs are nil, bool, int64, float64, string,
// *dataset.Table, Pairs, and []any; anything else is rendered opaquely.
func Encode(v any, limits Limits) Envelope {
	if limits.MaxRows <= 0 {
		limits.MaxRows = DefaultLimits().MaxRows
	}
	if limits.MaxChars <= 0 {
		limits.MaxChars = DefaultLimits().MaxChars
	}

	switch x := v.(type) {
	case nil:
		return Envelope{Kind: KindOpaque, Opaque: &OpaqueData{Rendered: "None"}}

	case bool, int64, float64:
		return Envelope{Kind: KindScalar, Scalar: &ScalarData{Value: x}}

	case string:
		s, _ := capString(x, limits.MaxChars)
		return Envelope{Kind: KindScalar, Scalar: &ScalarData{Value: s}}

	case *dataset.Table:
		return encodeTable(x, limits)

	case Pairs:
		return encodeSeries(x, limits)

	case []any:
		return encodeArray(x, limits)

	default:
		rendered, truncated := capString(fmt.Sprintf("%v", v), limits.MaxChars)
		return Envelope{Kind: KindOpaque, Opaque: &OpaqueData{Rendered: rendered, Truncated: truncated}}
	}
}

func encodeTable(t *dataset.Table, limits Limits) Envelope {
	total := t.NumRows()
	sample := total
	truncated := false
	if total > limits.MaxRows {
		sample = limits.MaxRows
		truncated = true
	}
	return Envelope{
		Kind: KindTable,
		Table: &TableData{
			Columns:   t.Columns(),
			Rows:      t.Sample(sample),
			Shape:     [2]int{total, t.NumCols()},
			Truncated: truncated,
			TotalRows: total,
		},
	}
}

func encodeSeries(pairs Pairs, limits Limits) Envelope {
	total := len(pairs)
	truncated := false
	entries := pairs
	if total > limits.MaxRows {
		entries = pairs[:limits.MaxRows]
		truncated = true
	}
	// Copy so the envelope does not alias the caller's slice.
	out := make([]Entry, len(entries))
	copy(out, entries)
	return Envelope{
		Kind: KindSeries,
		Series: &SeriesData{
			Entries:   out,
			Length:    total,
			Truncated: truncated,
		},
	}
}

func encodeArray(values []any, limits Limits) Envelope {
	rendered := fmt.Sprintf("%v", values)
	if len(rendered) > limits.MaxChars {
		capped, _ := capString(rendered, limits.MaxChars)
		return Envelope{
			Kind: KindArray,
			Array: &ArrayData{
				Rendered:  capped,
				Length:    len(values),
				Truncated: true,
			},
		}
	}
	out := make([]any, len(values))
	copy(out, values)
	return Envelope{
		Kind:  KindArray,
		Array: &ArrayData{Values: out, Length: len(values)},
	}
}

// capString truncates s to max characters with an ellipsis marker.
func capString(s string, max int) (string, bool) {
	if len(s) <= max {
		return s, false
	}
	return s[:max] + "...", true
}
