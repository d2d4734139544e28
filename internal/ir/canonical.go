package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Canonical JSON encoding of arguments, targets and graphs.
//
// The encoding is RFC 8785 shaped: object keys sorted by UTF-16 code units,
// no HTML escaping, NFC-normalized strings, compact output. Argument kinds
// that JSON cannot express natively use single-key tagged objects:
//
//	*Node   {"node":"x"}
//	Tuple   {"tuple":[...]}
//	Dict    {"dict":[["key",value],...]}   (list of pairs keeps insertion order)
//	Slice   {"slice":[start,stop,step]}
//	Float   {"float":"0.5"}                (exact strconv 'g' form, NaN/±Inf allowed)
//
// None is null, Bool/Int/String are plain JSON values and List is an array.

// MarshalArgument produces canonical JSON for a single argument.
func MarshalArgument(a Argument) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeArgument(&buf, a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalTarget produces canonical JSON for a node target.
// Function targets encode as {"function":name,"module":module}; Name targets as {"name":name}.
func MarshalTarget(t Target) ([]byte, error) {
	switch v := t.(type) {
	case Function:
		return marshalObject(map[string][]byte{
			"function": mustString(v.Name),
			"module":   mustString(v.Module),
		})
	case Name:
		return marshalObject(map[string][]byte{"name": mustString(string(v))})
	default:
		return nil, fmt.Errorf("unsupported target type: %T", t)
	}
}

// MarshalCanonical produces canonical JSON for a whole graph, the form used
// for content hashing and persistence.
func MarshalCanonical(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"ir_version":`)
	buf.Write(mustString(IRVersion))
	buf.WriteString(`,"nodes":[`)
	for i, n := range g.nodes {
		if i > 0 {
			buf.WriteByte(',')
		}
		data, err := marshalNode(n)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", n.name, err)
		}
		buf.Write(data)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

func marshalNode(n *Node) ([]byte, error) {
	args, err := MarshalArgument(n.args)
	if err != nil {
		return nil, fmt.Errorf("args: %w", err)
	}
	kwargs, err := MarshalArgument(n.kwargs)
	if err != nil {
		return nil, fmt.Errorf("kwargs: %w", err)
	}
	target, err := MarshalTarget(n.target)
	if err != nil {
		return nil, err
	}
	fields := map[string][]byte{
		"args":   args,
		"kind":   mustString(string(n.kind)),
		"kwargs": kwargs,
		"name":   mustString(n.name),
		"target": target,
	}
	if n.typeHint != "" {
		fields["type_hint"] = mustString(n.typeHint)
	}
	return marshalObject(fields)
}

func writeArgument(buf *bytes.Buffer, a Argument) error {
	switch v := a.(type) {
	case nil, None:
		buf.WriteString("null")
	case Bool:
		if v {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Float:
		buf.WriteString(`{"float":`)
		buf.Write(mustString(formatFloat(float64(v))))
		buf.WriteByte('}')
	case String:
		s, err := marshalCanonicalString(string(v))
		if err != nil {
			return err
		}
		buf.Write(s)
	case *Node:
		if v == nil {
			return fmt.Errorf("nil node reference")
		}
		buf.WriteString(`{"node":`)
		buf.Write(mustString(v.name))
		buf.WriteByte('}')
	case List:
		return writeArray(buf, v)
	case Tuple:
		buf.WriteString(`{"tuple":`)
		if err := writeArray(buf, v); err != nil {
			return err
		}
		buf.WriteByte('}')
	case Dict:
		buf.WriteString(`{"dict":[`)
		for i, e := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := marshalCanonicalString(e.Key)
			if err != nil {
				return fmt.Errorf("key %q: %w", e.Key, err)
			}
			buf.WriteByte('[')
			buf.Write(key)
			buf.WriteByte(',')
			if err := writeArgument(buf, e.Value); err != nil {
				return fmt.Errorf("value for key %q: %w", e.Key, err)
			}
			buf.WriteByte(']')
		}
		buf.WriteString("]}")
	case Slice:
		buf.WriteString(`{"slice":`)
		if err := writeArray(buf, []Argument{v.Start, v.Stop, v.Step}); err != nil {
			return err
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unsupported argument type: %T", a)
	}
	return nil
}

func writeArray(buf *bytes.Buffer, elems []Argument) error {
	buf.WriteByte('[')
	for i, elem := range elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeArgument(buf, elem); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

// marshalObject writes pre-encoded field values with RFC 8785 key ordering.
func marshalObject(fields map[string][]byte) ([]byte, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		buf.Write(fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// mustString encodes s as a canonical JSON string. Encoding a Go string
// cannot fail, so the error is dropped.
func mustString(s string) []byte {
	b, _ := marshalCanonicalString(s)
	return b
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
// Go's default string comparison uses UTF-8 which produces a DIFFERENT order
// for characters outside the BMP.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// marshalCanonicalString produces a canonical JSON string with NFC normalization.
// RFC 8785 compliance:
//   - No HTML escaping (<, >, & are NOT escaped)
//   - U+2028 and U+2029 are NOT escaped
//   - Only control characters (U+0000-U+001F), backslash, and quote are escaped
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // <, >, & must NOT be escaped
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline
	result := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})

	// Go's encoder escapes U+2028/U+2029 for JavaScript; RFC 8785 does not.
	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators converts \u2028 and \u2029 escapes back to literal
// characters, leaving \\u2028 (an escaped backslash followed by text) alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if i+6 <= len(data) && bytes.HasPrefix(data[i:], []byte(`\u202`)) && (data[i+5] == '8' || data[i+5] == '9') {
			backslashes := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				backslashes++
			}
			// An even run of preceding backslashes means this backslash starts the escape.
			if backslashes%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, "\u2028"...)
				} else {
					out = append(out, "\u2029"...)
				}
				i += 5
				continue
			}
		}
		out = append(out, data[i])
	}
	return out
}
