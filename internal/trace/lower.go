package trace

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/symtrace/internal/ir"
)

// Live containers accepted by CreateArg.
//
// Traced code builds operands out of these (and []any or map[string]any),
// freely mixing proxies and literals. Lowering keeps the container kind:
// a Tuple becomes an ir.Tuple, a List an ir.List.

// Tuple is an ordered, fixed sequence of live values.
type Tuple []any

// List is an ordered sequence of live values.
type List []any

// Item is one key/value pair of a Dict. The key may be of any type so that
// traced code can express what it likes; only string keys lower.
type Item struct {
	Key   any
	Value any
}

// KV is a shorthand for Item.
func KV(key, value any) Item {
	return Item{Key: key, Value: value}
}

// Dict is an ordered mapping of live values. Order is preserved through
// lowering.
type Dict []Item

// Slice is a start/stop/step triple of live values. A nil component lowers
// to ir.None.
type Slice struct {
	Start any
	Stop  any
	Step  any
}

// CreateArg lowers a live value into an ir.Argument.
//
// Sequences and slices are lowered component-wise, keeping their kind.
// Mappings must have string keys. A proxy lowers to a reference to its
// node, materializing an attribute proxy if needed. nil, booleans, every
// integer and float width, strings and values that are already an
// ir.Argument pass through. Anything else is an UnsupportedArgumentError.
//
// If t implements ArgLowerer it is consulted first at every level.
func CreateArg(t Tracer, v any) (ir.Argument, error) {
	if l, ok := t.(ArgLowerer); ok {
		arg, handled, err := l.LowerArg(v)
		if err != nil {
			return nil, err
		}
		if handled {
			return arg, nil
		}
	}

	switch x := v.(type) {
	// aggregates
	case Tuple:
		elems, err := lowerElems(t, x)
		if err != nil {
			return nil, err
		}
		return ir.Tuple(elems), nil
	case List:
		elems, err := lowerElems(t, x)
		if err != nil {
			return nil, err
		}
		return ir.List(elems), nil
	case []any:
		elems, err := lowerElems(t, x)
		if err != nil {
			return nil, err
		}
		return ir.List(elems), nil
	case Dict:
		out := make(ir.Dict, 0, len(x))
		for _, item := range x {
			key, ok := item.Key.(string)
			if !ok {
				return nil, &UnsupportedArgumentError{
					Value:  v,
					Reason: fmt.Sprintf("dictionaries with non-string keys: key %v (%T)", item.Key, item.Key),
				}
			}
			val, err := CreateArg(t, item.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, ir.Entry{Key: key, Value: val})
		}
		return out, nil
	case map[string]any:
		// Go maps are unordered; sorted keys keep lowering deterministic.
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		out := make(ir.Dict, 0, len(x))
		for _, k := range keys {
			val, err := CreateArg(t, x[k])
			if err != nil {
				return nil, err
			}
			out = append(out, ir.Entry{Key: k, Value: val})
		}
		return out, nil
	case Slice:
		parts, err := lowerElems(t, []any{x.Start, x.Stop, x.Step})
		if err != nil {
			return nil, err
		}
		return ir.Slice{Start: parts[0], Stop: parts[1], Step: parts[2]}, nil

	// base case: unwrap the proxy
	case *Proxy:
		if x == nil {
			return nil, &UnsupportedArgumentError{Value: v, Reason: "nil proxy"}
		}
		n, err := x.Node()
		if err != nil {
			return nil, err
		}
		return n, nil

	case nil:
		return ir.None{}, nil
	case ir.Argument:
		return x, nil
	case bool:
		return ir.Bool(x), nil
	case string:
		return ir.String(x), nil
	case int:
		return ir.Int(x), nil
	case int8:
		return ir.Int(x), nil
	case int16:
		return ir.Int(x), nil
	case int32:
		return ir.Int(x), nil
	case int64:
		return ir.Int(x), nil
	case uint:
		return lowerUint(v, uint64(x))
	case uint8:
		return ir.Int(x), nil
	case uint16:
		return ir.Int(x), nil
	case uint32:
		return ir.Int(x), nil
	case uint64:
		return lowerUint(v, x)
	case float32:
		return ir.Float(x), nil
	case float64:
		return ir.Float(x), nil
	}

	return nil, &UnsupportedArgumentError{Value: v, Reason: fmt.Sprintf("argument of type: %T", v)}
}

func lowerElems(t Tracer, elems []any) ([]ir.Argument, error) {
	out := make([]ir.Argument, len(elems))
	for i, elem := range elems {
		a, err := CreateArg(t, elem)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

func lowerUint(v any, u uint64) (ir.Argument, error) {
	if u > math.MaxInt64 {
		return nil, &UnsupportedArgumentError{Value: v, Reason: fmt.Sprintf("unsigned value %d overflows int64", u)}
	}
	return ir.Int(u), nil
}
