package harness

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/symtrace/internal/trace"
)

// bindings resolves "$name" references.
type bindings interface {
	Lookup(name string) (any, bool)
}

// decodeValue converts a scenario value into the live value handed to the
// tracer: proxies for bindings, Go scalars for literals and the trace
// container types for sequences and tagged mappings.
func decodeValue(n *yaml.Node, env bindings) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return decodeValue(n.Alias, env)
	case yaml.ScalarNode:
		return decodeScalar(n, env)
	case yaml.SequenceNode:
		elems, err := decodeSequence(n, env)
		if err != nil {
			return nil, err
		}
		return trace.List(elems), nil
	case yaml.MappingNode:
		return decodeMapping(n, env)
	default:
		return nil, fmt.Errorf("line %d: unsupported value", n.Line)
	}
}

func decodeScalar(n *yaml.Node, env bindings) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return i, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return f, nil
	case "!!str":
		return resolveRef(n.Value, n.Line, env)
	default:
		return nil, fmt.Errorf("line %d: unsupported scalar tag %s", n.Line, n.ShortTag())
	}
}

// resolveRef looks up "$name" and unescapes "$$literal". Any other string
// is returned as is.
func resolveRef(s string, line int, env bindings) (any, error) {
	if !strings.HasPrefix(s, "$") {
		return s, nil
	}
	if strings.HasPrefix(s, "$$") {
		return s[1:], nil
	}
	name := s[1:]
	v, ok := env.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("line %d: unknown binding %q", line, name)
	}
	return v, nil
}

func decodeSequence(n *yaml.Node, env bindings) ([]any, error) {
	elems := make([]any, 0, len(n.Content))
	for _, c := range n.Content {
		v, err := decodeValue(c, env)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return elems, nil
}

// decodeMapping handles the tagged forms {tuple: [...]}, {slice: [...]} and
// {dict: {...}}. Any other mapping is a dict in document order.
func decodeMapping(n *yaml.Node, env bindings) (any, error) {
	if len(n.Content) == 2 {
		key, body := n.Content[0], n.Content[1]
		switch key.Value {
		case "tuple":
			if body.Kind != yaml.SequenceNode {
				return nil, fmt.Errorf("line %d: tuple must be a sequence", body.Line)
			}
			elems, err := decodeSequence(body, env)
			if err != nil {
				return nil, err
			}
			return trace.Tuple(elems), nil
		case "slice":
			if body.Kind != yaml.SequenceNode || len(body.Content) != 3 {
				return nil, fmt.Errorf("line %d: slice must be a sequence of start, stop, step", body.Line)
			}
			parts, err := decodeSequence(body, env)
			if err != nil {
				return nil, err
			}
			return trace.Slice{Start: parts[0], Stop: parts[1], Step: parts[2]}, nil
		case "dict":
			if body.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("line %d: dict must be a mapping", body.Line)
			}
			return decodeDict(body, env)
		}
	}
	return decodeDict(n, env)
}

// decodeDict keeps keys as decoded, so a non-string key reaches the tracer
// and is rejected there.
func decodeDict(n *yaml.Node, env bindings) (trace.Dict, error) {
	d := make(trace.Dict, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, err := decodeValue(n.Content[i], env)
		if err != nil {
			return nil, err
		}
		value, err := decodeValue(n.Content[i+1], env)
		if err != nil {
			return nil, err
		}
		d = append(d, trace.KV(key, value))
	}
	return d, nil
}

// decodeKwargs reads a kwargs mapping. Keys are always taken literally.
func decodeKwargs(n *yaml.Node, env bindings) (trace.Dict, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	d := make(trace.Dict, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		value, err := decodeValue(n.Content[i+1], env)
		if err != nil {
			return nil, err
		}
		d = append(d, trace.KV(n.Content[i].Value, value))
	}
	return d, nil
}

// decodeArgs reads a positional args sequence.
func decodeArgs(n *yaml.Node, env bindings) ([]any, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	return decodeSequence(n, env)
}
