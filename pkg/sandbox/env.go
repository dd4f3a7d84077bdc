package sandbox

import (
	"fmt"
	"time"

	starjson "go.starlark.net/lib/json"
	starmath "go.starlark.net/lib/math"
	startime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"

	"github.com/askframe/askframe/pkg/dataset"
	"github.com/askframe/askframe/pkg/result"
)

// buildEnv constructs the predeclared environment for one execution. The
// environment is an allow-list: the dataset copy under frameName, the
// math/time/json modules, a handful of aggregation helpers, and the output
// binding pre-initialized to None. Names on blocked shadow any universe
// builtin of the same name with an erroring stub, so a deny-listed
// capability is unreachable even if static validation were skipped.
func buildEnv(working *dataset.Table, frameName, resultName string, blocked []string) starlark.StringDict {
	env := starlark.StringDict{
		frameName:  newFrame(working),
		resultName: starlark.None,
		"math":     starmath.Module,
		"time":     startime.Module,
		"json":     starjson.Module,
		"sum":      starlark.NewBuiltin("sum", builtinSum),
		"mean":     starlark.NewBuiltin("mean", builtinMean),
		"unique":   starlark.NewBuiltin("unique", builtinUnique),
	}
	for _, name := range blocked {
		if _, inUniverse := starlark.Universe[name]; inUniverse {
			env[name] = blockedBuiltin(name)
		}
	}
	return env
}

// blockedBuiltin returns a stub that fails with a sanitized message.
func blockedBuiltin(name string) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
		return nil, fmt.Errorf("%s is not available in the sandbox", b.Name())
	})
}

// builtinSum adds the numeric elements of an iterable. None elements are
// skipped. The result is an int unless any element is a float.
func builtinSum(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var iterable starlark.Iterable
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &iterable); err != nil {
		return nil, err
	}
	var intSum int64
	var floatSum float64
	sawFloat := false

	iter := iterable.Iterate()
	defer iter.Done()
	var v starlark.Value
	for iter.Next(&v) {
		switch x := v.(type) {
		case starlark.NoneType:
			continue
		case starlark.Int:
			i, ok := x.Int64()
			if !ok {
				return nil, fmt.Errorf("sum: integer too large")
			}
			intSum += i
			floatSum += float64(i)
		case starlark.Float:
			sawFloat = true
			floatSum += float64(x)
		default:
			return nil, fmt.Errorf("sum: unsupported element of type %s", v.Type())
		}
	}
	if sawFloat {
		return starlark.Float(floatSum), nil
	}
	return starlark.MakeInt64(intSum), nil
}

// builtinMean computes the arithmetic mean of the numeric elements of an
// iterable, skipping None.
func builtinMean(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var iterable starlark.Iterable
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &iterable); err != nil {
		return nil, err
	}
	var total float64
	count := 0

	iter := iterable.Iterate()
	defer iter.Done()
	var v starlark.Value
	for iter.Next(&v) {
		switch x := v.(type) {
		case starlark.NoneType:
			continue
		case starlark.Int:
			i, ok := x.Int64()
			if !ok {
				return nil, fmt.Errorf("mean: integer too large")
			}
			total += float64(i)
			count++
		case starlark.Float:
			total += float64(x)
			count++
		default:
			return nil, fmt.Errorf("mean: unsupported element of type %s", v.Type())
		}
	}
	if count == 0 {
		return nil, fmt.Errorf("mean: empty sequence")
	}
	return starlark.Float(total / float64(count)), nil
}

// builtinUnique returns the distinct elements of an iterable in first-seen
// order. Elements are compared by rendered value so unhashable elements
// still work.
func builtinUnique(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var iterable starlark.Iterable
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &iterable); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []starlark.Value

	iter := iterable.Iterate()
	defer iter.Done()
	var v starlark.Value
	for iter.Next(&v) {
		key := v.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, v)
		}
	}
	return starlark.NewList(out), nil
}

// goToStarlark converts a table value into its Starlark representation.
func goToStarlark(v any) starlark.Value {
	switch x := v.(type) {
	case nil:
		return starlark.None
	case bool:
		return starlark.Bool(x)
	case int64:
		return starlark.MakeInt64(x)
	case float64:
		return starlark.Float(x)
	case string:
		return starlark.String(x)
	case time.Time:
		return startime.Time(x)
	default:
		return starlark.String(fmt.Sprintf("%v", v))
	}
}

// starlarkToGo converts the script's output value into the domain the
// result encoder understands. Unrecognized Starlark values pass through
// unchanged and encode opaquely via their string rendering.
func starlarkToGo(v starlark.Value) any {
	switch x := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(x)
	case starlark.Int:
		if i, ok := x.Int64(); ok {
			return i
		}
		return x.String()
	case starlark.Float:
		return float64(x)
	case starlark.String:
		return string(x)
	case startime.Time:
		return time.Time(x)
	case *frameValue:
		return x.table
	case *columnValue:
		out := make([]any, len(x.values))
		copy(out, x.values)
		return out
	case starlark.Tuple:
		return sequenceToGo(x)
	case *starlark.List:
		return sequenceToGo(x)
	case *starlark.Set:
		return sequenceToGo(x)
	case *starlark.Dict:
		pairs := make(result.Pairs, 0, x.Len())
		for _, item := range x.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			pairs = append(pairs, result.Entry{Key: key, Value: starlarkToGo(item[1])})
		}
		return pairs
	default:
		return v
	}
}

func sequenceToGo(seq starlark.Iterable) []any {
	var out []any
	iter := seq.Iterate()
	defer iter.Done()
	var v starlark.Value
	for iter.Next(&v) {
		out = append(out, starlarkToGo(v))
	}
	if out == nil {
		out = []any{}
	}
	return out
}
