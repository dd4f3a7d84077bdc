package sandbox

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.starlark.net/starlark"

	"github.com/askframe/askframe/pkg/dataset"
)

// frameValue exposes a dataset.Table to scripts. All operations derive new
// frames; nothing mutates the underlying table.
type frameValue struct {
	table *dataset.Table
}

var (
	_ starlark.Value    = (*frameValue)(nil)
	_ starlark.HasAttrs = (*frameValue)(nil)
	_ starlark.Mapping  = (*frameValue)(nil)
)

func newFrame(t *dataset.Table) *frameValue { return &frameValue{table: t} }

func (f *frameValue) String() string {
	return fmt.Sprintf("<frame %dx%d>", f.table.NumRows(), f.table.NumCols())
}
func (f *frameValue) Type() string          { return "frame" }
func (f *frameValue) Freeze()               {}
func (f *frameValue) Truth() starlark.Bool  { return f.table.NumRows() > 0 }
func (f *frameValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: frame") }

// Get implements frame["column"] indexing.
func (f *frameValue) Get(k starlark.Value) (starlark.Value, bool, error) {
	name, ok := starlark.AsString(k)
	if !ok {
		return nil, false, fmt.Errorf("frame index must be a column name, got %s", k.Type())
	}
	col, ok := f.table.Column(name)
	if !ok {
		return nil, false, fmt.Errorf("column %q not found in frame", name)
	}
	return newColumn(col), true, nil
}

func (f *frameValue) AttrNames() []string {
	names := []string{"columns", "num_rows", "shape"}
	for m := range frameMethods {
		names = append(names, m)
	}
	sort.Strings(names)
	return names
}

func (f *frameValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "columns":
		cols := f.table.Columns()
		elems := make([]starlark.Value, len(cols))
		for i, c := range cols {
			elems[i] = starlark.String(c)
		}
		return starlark.NewList(elems), nil
	case "num_rows":
		return starlark.MakeInt(f.table.NumRows()), nil
	case "shape":
		return starlark.Tuple{
			starlark.MakeInt(f.table.NumRows()),
			starlark.MakeInt(f.table.NumCols()),
		}, nil
	}
	if impl, ok := frameMethods[name]; ok {
		return starlark.NewBuiltin(name, impl).BindReceiver(f), nil
	}
	return nil, nil // no such attribute
}

type frameMethod = func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)

var frameMethods = map[string]frameMethod{
	"head":         frameHead,
	"tail":         frameTail,
	"select":       frameSelect,
	"filter":       frameFilter,
	"sort_by":      frameSortBy,
	"value_counts": frameValueCounts,
}

func recvFrame(b *starlark.Builtin) *frameValue { return b.Receiver().(*frameValue) }

func frameHead(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 5
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}
	f := recvFrame(b)
	return newFrame(sliceTable(f.table, headIndices(f.table.NumRows(), n))), nil
}

func frameTail(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	n := 5
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}
	f := recvFrame(b)
	total := f.table.NumRows()
	if n < 0 {
		n = 0
	}
	if n > total {
		n = total
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = total - n + i
	}
	return newFrame(sliceTable(f.table, idx)), nil
}

func frameSelect(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	f := recvFrame(b)
	cols := make([]dataset.Column, 0, len(args))
	for _, a := range args {
		name, ok := starlark.AsString(a)
		if !ok {
			return nil, fmt.Errorf("%s: column names must be strings, got %s", b.Name(), a.Type())
		}
		col, ok := f.table.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found in frame", name)
		}
		cols = append(cols, col)
	}
	t, err := dataset.New(cols)
	if err != nil {
		return nil, err
	}
	return newFrame(t), nil
}

func frameFilter(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var pred starlark.Callable
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &pred); err != nil {
		return nil, err
	}
	f := recvFrame(b)
	var keep []int
	for i := 0; i < f.table.NumRows(); i++ {
		row := rowDict(f.table, i)
		v, err := starlark.Call(thread, pred, starlark.Tuple{row}, nil)
		if err != nil {
			return nil, err
		}
		if v.Truth() == starlark.True {
			keep = append(keep, i)
		}
	}
	return newFrame(sliceTable(f.table, keep)), nil
}

func frameSortBy(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var colName string
	reverse := false
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "column", &colName, "reverse?", &reverse); err != nil {
		return nil, err
	}
	f := recvFrame(b)
	col, ok := f.table.Column(colName)
	if !ok {
		return nil, fmt.Errorf("column %q not found in frame", colName)
	}
	idx := make([]int, f.table.NumRows())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		c := compareAny(col.Values[idx[i]], col.Values[idx[j]])
		if reverse {
			return c > 0
		}
		return c < 0
	})
	return newFrame(sliceTable(f.table, idx)), nil
}

func frameValueCounts(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var colName string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "column", &colName); err != nil {
		return nil, err
	}
	f := recvFrame(b)
	col, ok := f.table.Column(colName)
	if !ok {
		return nil, fmt.Errorf("column %q not found in frame", colName)
	}

	counts := make(map[string]int)
	var order []string
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		key := fmt.Sprintf("%v", v)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}
	// Most frequent first; ties keep first-occurrence order.
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })

	d := starlark.NewDict(len(order))
	for _, key := range order {
		if err := d.SetKey(starlark.String(key), starlark.MakeInt(counts[key])); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// columnValue exposes one column as an iterable, indexable sequence.
type columnValue struct {
	name   string
	ctype  dataset.ColumnType
	values []any
}

var (
	_ starlark.Value     = (*columnValue)(nil)
	_ starlark.Sequence  = (*columnValue)(nil)
	_ starlark.Indexable = (*columnValue)(nil)
	_ starlark.HasAttrs  = (*columnValue)(nil)
)

func newColumn(c dataset.Column) *columnValue {
	return &columnValue{name: c.Name, ctype: c.Type, values: c.Values}
}

func (c *columnValue) String() string {
	return fmt.Sprintf("<column %q (%s, %d values)>", c.name, c.ctype, len(c.values))
}
func (c *columnValue) Type() string          { return "column" }
func (c *columnValue) Freeze()               {}
func (c *columnValue) Truth() starlark.Bool  { return len(c.values) > 0 }
func (c *columnValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: column") }
func (c *columnValue) Len() int              { return len(c.values) }

func (c *columnValue) Index(i int) starlark.Value { return goToStarlark(c.values[i]) }

func (c *columnValue) Iterate() starlark.Iterator { return &columnIterator{col: c} }

func (c *columnValue) AttrNames() []string { return []string{"name", "type"} }

func (c *columnValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		return starlark.String(c.name), nil
	case "type":
		return starlark.String(string(c.ctype)), nil
	}
	return nil, nil
}

type columnIterator struct {
	col *columnValue
	i   int
}

func (it *columnIterator) Next(p *starlark.Value) bool {
	if it.i >= len(it.col.values) {
		return false
	}
	*p = goToStarlark(it.col.values[it.i])
	it.i++
	return true
}

func (it *columnIterator) Done() {}

// rowDict materializes one table row as a Starlark dict, for filter
// predicates.
func rowDict(t *dataset.Table, i int) *starlark.Dict {
	d := starlark.NewDict(t.NumCols())
	for _, name := range t.Columns() {
		col, _ := t.Column(name)
		// SetKey on string keys cannot fail.
		_ = d.SetKey(starlark.String(name), goToStarlark(col.Values[i]))
	}
	return d
}

// sliceTable builds a new table containing rows of t at idx, in order.
func sliceTable(t *dataset.Table, idx []int) *dataset.Table {
	cols := make([]dataset.Column, t.NumCols())
	for ci := 0; ci < t.NumCols(); ci++ {
		src := t.ColumnAt(ci)
		vals := make([]any, len(idx))
		for vi, ri := range idx {
			vals[vi] = src.Values[ri]
		}
		cols[ci] = dataset.Column{Name: src.Name, Type: src.Type, Values: vals}
	}
	out, err := dataset.New(cols)
	if err != nil {
		panic("sandbox: derived table invalid: " + err.Error())
	}
	return out
}

func headIndices(total, n int) []int {
	if n < 0 {
		n = 0
	}
	if n > total {
		n = total
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// compareAny orders table values: nil first, then numeric, text, boolean,
// temporal by their natural order; mixed or unknown types fall back to
// string comparison.
func compareAny(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if fa, aok := asFloat(a); aok {
		if fb, bok := asFloat(b); bok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	if sa, aok := a.(string); aok {
		if sb, bok := b.(string); bok {
			return strings.Compare(sa, sb)
		}
	}
	if ba, aok := a.(bool); aok {
		if bb, bok := b.(bool); bok {
			switch {
			case !ba && bb:
				return -1
			case ba && !bb:
				return 1
			default:
				return 0
			}
		}
	}
	if ta, aok := a.(time.Time); aok {
		if tb, bok := b.(time.Time); bok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}
