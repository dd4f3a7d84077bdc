package dataset

import (
	"fmt"
	"math"
)

// FromRows builds a Table from row-oriented data, preserving the given
// column order. Values are normalized (all integral numerics become int64,
// other numerics float64) and column types inferred. maxCells bounds the
// total table size (rows × columns); 0 means unlimited.
func FromRows(columns []string, rows []map[string]any, maxCells int) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("dataset: no columns given")
	}
	if maxCells > 0 && len(rows)*len(columns) > maxCells {
		return nil, fmt.Errorf("dataset: table too large: %d cells exceeds limit of %d",
			len(rows)*len(columns), maxCells)
	}

	cols := make([]Column, len(columns))
	for i, name := range columns {
		vals := make([]any, len(rows))
		for j, row := range rows {
			vals[j] = normalize(row[name])
		}
		cols[i] = Column{Name: name, Values: vals}
	}
	return New(cols)
}

// normalize maps ingested values onto the Table value domain.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case float32:
		return float64(x)
	case float64:
		// JSON numbers arrive as float64; keep whole values integral so
		// counts and ids round-trip cleanly.
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return int64(x)
		}
		return x
	default:
		return v
	}
}
