// Package dataset provides the immutable columnar table that analysis
// scripts operate on. A Table is built once when a session is created and
// never mutated afterwards; the sandbox always works on a deep copy so a
// failed or hostile script cannot corrupt session data.
package dataset

import (
	"fmt"
	"time"
)

// ColumnType classifies the values of a column.
type ColumnType string

const (
	TypeNumeric  ColumnType = "numeric"
	TypeText     ColumnType = "text"
	TypeBoolean  ColumnType = "boolean"
	TypeTemporal ColumnType = "temporal"
	TypeUnknown  ColumnType = "unknown"
)

// Column holds a single named column. Values are one of: nil, int64,
// float64, string, bool, or time.Time.
type Column struct {
	Name   string
	Type   ColumnType
	Values []any
}

// ColumnSpec describes one column of a table's schema.
type ColumnSpec struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Table is an immutable columnar table. All columns have the same length.
type Table struct {
	cols    []Column
	byName  map[string]int
	numRows int
}

// New creates a Table from columns. All columns must have the same number
// of values and distinct names.
func New(cols []Column) (*Table, error) {
	t := &Table{byName: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c.Name == "" {
			return nil, fmt.Errorf("dataset: column %d has no name", i)
		}
		if _, dup := t.byName[c.Name]; dup {
			return nil, fmt.Errorf("dataset: duplicate column %q", c.Name)
		}
		if i == 0 {
			t.numRows = len(c.Values)
		} else if len(c.Values) != t.numRows {
			return nil, fmt.Errorf("dataset: column %q has %d values, want %d",
				c.Name, len(c.Values), t.numRows)
		}
		if c.Type == "" {
			c.Type = InferType(c.Values)
		}
		t.byName[c.Name] = i
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.numRows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// Schema returns the ordered name→type schema.
func (t *Table) Schema() []ColumnSpec {
	specs := make([]ColumnSpec, len(t.cols))
	for i, c := range t.cols {
		specs[i] = ColumnSpec{Name: c.Name, Type: c.Type}
	}
	return specs
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i], true
}

// ColumnAt returns the column at position i.
func (t *Table) ColumnAt(i int) Column { return t.cols[i] }

// Row materializes row i as a name→value map.
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.cols))
	for _, c := range t.cols {
		row[c.Name] = c.Values[i]
	}
	return row
}

// Rows materializes all rows in order. Intended for small derived tables;
// callers working with session data should prefer Sample.
func (t *Table) Rows() []map[string]any {
	rows := make([]map[string]any, t.numRows)
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// Sample returns up to n rows from the top of the table.
func (t *Table) Sample(n int) []map[string]any {
	if n > t.numRows {
		n = t.numRows
	}
	rows := make([]map[string]any, n)
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// NullCounts returns the number of nil values per column, for columns that
// have at least one.
func (t *Table) NullCounts() map[string]int {
	counts := make(map[string]int)
	for _, c := range t.cols {
		n := 0
		for _, v := range c.Values {
			if v == nil {
				n++
			}
		}
		if n > 0 {
			counts[c.Name] = n
		}
	}
	return counts
}

// Copy returns a deep copy of the table. The copy shares no value slices
// with the original, so scripts operating on it cannot reach session data.
func (t *Table) Copy() *Table {
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		vals := make([]any, len(c.Values))
		copy(vals, c.Values)
		cols[i] = Column{Name: c.Name, Type: c.Type, Values: vals}
	}
	cp, err := New(cols)
	if err != nil {
		// New only fails on structural problems, which a valid Table
		// cannot have.
		panic("dataset: copy of valid table failed: " + err.Error())
	}
	return cp
}

// InferType determines the column type from its values. Nil values are
// ignored; a column whose non-nil values disagree is TypeUnknown.
func InferType(values []any) ColumnType {
	inferred := ColumnType("")
	for _, v := range values {
		var vt ColumnType
		switch v.(type) {
		case nil:
			continue
		case int, int64, float64:
			vt = TypeNumeric
		case string:
			vt = TypeText
		case bool:
			vt = TypeBoolean
		case time.Time:
			vt = TypeTemporal
		default:
			return TypeUnknown
		}
		if inferred == "" {
			inferred = vt
		} else if inferred != vt {
			return TypeUnknown
		}
	}
	if inferred == "" {
		return TypeUnknown
	}
	return inferred
}
