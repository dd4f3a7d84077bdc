// Package result converts arbitrary execution-time values into bounded,
// tagged, serializable envelopes, and derives the short summaries and
// fallback explanations built from them. Encoding is pure and total:
// it never fails, never performs I/O, and unrecognized types degrade to
// a string rendering.
package result

// Kind tags the envelope variant.
type Kind string

const (
	KindScalar Kind = "scalar"
	KindTable  Kind = "table"
	KindSeries Kind = "series"
	KindArray  Kind = "array"
	KindOpaque Kind = "opaque"
)

// Envelope is a tagged union over the result variants. Exactly one of the
// variant pointers is set, matching Kind. Envelope byte size is bounded by
// the Limits used to encode it; oversized payloads are truncated with the
// pre-truncation count preserved.
type Envelope struct {
	Kind   Kind        `json:"type"`
	Scalar *ScalarData `json:"scalar,omitempty"`
	Table  *TableData  `json:"table,omitempty"`
	Series *SeriesData `json:"series,omitempty"`
	Array  *ArrayData  `json:"array,omitempty"`
	Opaque *OpaqueData `json:"opaque,omitempty"`
}

// ScalarData holds a number, boolean, or (length-capped) string.
type ScalarData struct {
	Value any `json:"value"`
}

// TableData holds a row sample of a tabular result.
type TableData struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"data"`
	Shape     [2]int           `json:"shape"` // [total_rows, columns]
	Truncated bool             `json:"truncated"`
	TotalRows int              `json:"total_rows"`
}

// Entry is one key→value pair of a series.
type Entry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// SeriesData holds an ordered key→value result such as grouped counts.
type SeriesData struct {
	Entries   []Entry `json:"data"`
	Length    int     `json:"length"`
	Truncated bool    `json:"truncated"`
}

// ArrayData holds a flat sequence of values. When the value rendering
// would exceed the character ceiling, Values is dropped in favor of a
// truncated Rendered string.
type ArrayData struct {
	Values    []any  `json:"data,omitempty"`
	Rendered  string `json:"rendered,omitempty"`
	Length    int    `json:"length"`
	Truncated bool   `json:"truncated"`
}

// OpaqueData holds the string rendering of an unrecognized value.
type OpaqueData struct {
	Rendered  string `json:"rendered"`
	Truncated bool   `json:"truncated"`
}

// Pairs is the ordered key→value form the sandbox produces for dict-like
// values. Order is insertion order and is preserved through encoding.
type Pairs []Entry
