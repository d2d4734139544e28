package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// NodeResolver looks up a node by name while an argument is decoded.
type NodeResolver func(name string) (*Node, bool)

// UnmarshalArgument decodes canonical JSON produced by MarshalArgument.
// Node references are resolved through resolve; an unknown name is an error.
func UnmarshalArgument(data []byte, resolve NodeResolver) (Argument, error) {
	raw, err := decodeRaw(data)
	if err != nil {
		return nil, err
	}
	return convertArgument(raw, resolve)
}

// UnmarshalTarget decodes canonical JSON produced by MarshalTarget.
func UnmarshalTarget(data []byte) (Target, error) {
	var raw struct {
		Function *string `json:"function"`
		Module   string  `json:"module"`
		Name     *string `json:"name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal target: %w", err)
	}
	switch {
	case raw.Function != nil && raw.Name == nil:
		return Function{Module: raw.Module, Name: *raw.Function}, nil
	case raw.Name != nil && raw.Function == nil:
		return Name(*raw.Name), nil
	default:
		return nil, fmt.Errorf("unmarshal target: expected exactly one of function or name")
	}
}

// UnmarshalGraph rebuilds a graph from MarshalCanonical output.
// Nodes are recreated in order, so every reference must point at an earlier node.
func UnmarshalGraph(data []byte) (*Graph, error) {
	var raw struct {
		IRVersion string            `json:"ir_version"`
		Nodes     []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal graph: %w", err)
	}
	if raw.IRVersion != IRVersion {
		return nil, fmt.Errorf("unmarshal graph: unsupported ir_version %q", raw.IRVersion)
	}

	g := New()
	for i, nodeData := range raw.Nodes {
		var rn struct {
			Name     string          `json:"name"`
			Kind     Kind            `json:"kind"`
			Target   json.RawMessage `json:"target"`
			Args     json.RawMessage `json:"args"`
			Kwargs   json.RawMessage `json:"kwargs"`
			TypeHint string          `json:"type_hint"`
		}
		if err := json.Unmarshal(nodeData, &rn); err != nil {
			return nil, fmt.Errorf("unmarshal graph: node %d: %w", i, err)
		}
		if _, err := g.Restore(rn.Name, rn.Kind, rn.Target, rn.Args, rn.Kwargs, rn.TypeHint); err != nil {
			return nil, fmt.Errorf("unmarshal graph: node %d: %w", i, err)
		}
	}
	return g, nil
}

// Restore appends a node decoded from its canonical parts, keeping its
// recorded name. It fails if the name is already taken, which would mean
// the source was not a graph this package produced.
func (g *Graph) Restore(name string, kind Kind, target, args, kwargs []byte, typeHint string) (*Node, error) {
	if g.used[name] {
		return nil, fmt.Errorf("duplicate node name %q", name)
	}
	t, err := UnmarshalTarget(target)
	if err != nil {
		return nil, err
	}
	a, err := UnmarshalArgument(args, g.Lookup)
	if err != nil {
		return nil, fmt.Errorf("args: %w", err)
	}
	tuple, ok := a.(Tuple)
	if !ok {
		return nil, fmt.Errorf("args: expected tuple, got %T", a)
	}
	kw, err := UnmarshalArgument(kwargs, g.Lookup)
	if err != nil {
		return nil, fmt.Errorf("kwargs: %w", err)
	}
	dict, ok := kw.(Dict)
	if !ok {
		return nil, fmt.Errorf("kwargs: expected dict, got %T", kw)
	}
	n, err := g.CreateNode(kind, t, tuple, dict, name, typeHint)
	if err != nil {
		return nil, err
	}
	if n.name != name {
		return nil, fmt.Errorf("node name %q is not a canonical node name", name)
	}
	return n, nil
}

func decodeRaw(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func convertArgument(v any, resolve NodeResolver) (Argument, error) {
	switch val := v.(type) {
	case nil:
		return None{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("bare number %s is not an integer (floats are tagged)", val)
		}
		return Int(n), nil
	case []any:
		list, err := convertArray(val, resolve)
		if err != nil {
			return nil, err
		}
		return List(list), nil
	case map[string]any:
		return convertTagged(val, resolve)
	default:
		return nil, fmt.Errorf("unsupported JSON value: %T", v)
	}
}

func convertArray(elems []any, resolve NodeResolver) ([]Argument, error) {
	out := make([]Argument, len(elems))
	for i, elem := range elems {
		a, err := convertArgument(elem, resolve)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = a
	}
	return out, nil
}

func convertTagged(obj map[string]any, resolve NodeResolver) (Argument, error) {
	if len(obj) != 1 {
		return nil, fmt.Errorf("tagged argument must have exactly one key, got %d", len(obj))
	}
	for tag, payload := range obj {
		switch tag {
		case "node":
			name, ok := payload.(string)
			if !ok {
				return nil, fmt.Errorf("node reference must be a string")
			}
			if resolve == nil {
				return nil, fmt.Errorf("node reference %q without a resolver", name)
			}
			n, ok := resolve(name)
			if !ok {
				return nil, fmt.Errorf("unknown node %q", name)
			}
			return n, nil
		case "float":
			s, ok := payload.(string)
			if !ok {
				return nil, fmt.Errorf("float payload must be a string")
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("float payload: %w", err)
			}
			return Float(f), nil
		case "tuple":
			elems, ok := payload.([]any)
			if !ok {
				return nil, fmt.Errorf("tuple payload must be an array")
			}
			tuple, err := convertArray(elems, resolve)
			if err != nil {
				return nil, err
			}
			return Tuple(tuple), nil
		case "slice":
			elems, ok := payload.([]any)
			if !ok || len(elems) != 3 {
				return nil, fmt.Errorf("slice payload must be a 3-element array")
			}
			parts, err := convertArray(elems, resolve)
			if err != nil {
				return nil, err
			}
			return Slice{Start: parts[0], Stop: parts[1], Step: parts[2]}, nil
		case "dict":
			pairs, ok := payload.([]any)
			if !ok {
				return nil, fmt.Errorf("dict payload must be an array of pairs")
			}
			dict := make(Dict, 0, len(pairs))
			for i, p := range pairs {
				pair, ok := p.([]any)
				if !ok || len(pair) != 2 {
					return nil, fmt.Errorf("dict[%d]: expected [key, value] pair", i)
				}
				key, ok := pair[0].(string)
				if !ok {
					return nil, fmt.Errorf("dict[%d]: key must be a string", i)
				}
				val, err := convertArgument(pair[1], resolve)
				if err != nil {
					return nil, fmt.Errorf("dict[%q]: %w", key, err)
				}
				dict = append(dict, Entry{Key: key, Value: val})
			}
			return dict, nil
		default:
			return nil, fmt.Errorf("unknown argument tag %q", tag)
		}
	}
	return nil, fmt.Errorf("unreachable")
}
