package trace

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/symtrace/internal/ir"
)

// complexTracer lowers complex128 values to a [real, imag] list.
type complexTracer struct {
	*Base
}

func (c *complexTracer) LowerArg(v any) (ir.Argument, bool, error) {
	if z, ok := v.(complex128); ok {
		return ir.List{ir.Float(real(z)), ir.Float(imag(z))}, true, nil
	}
	return nil, false, nil
}

func TestCreateArgPreservesShape(t *testing.T) {
	tr, _ := newTestTracer(t)
	p1 := mustPlaceholder(t, tr, "p1")
	p2 := mustPlaceholder(t, tr, "p2")
	p3 := mustPlaceholder(t, tr, "p3")
	n1, n2, n3 := mustNode(t, p1), mustNode(t, p2), mustNode(t, p3)

	got, err := CreateArg(tr, Tuple{p1, List{p2, 3}, map[string]any{"a": p3}})
	require.NoError(t, err)

	assert.Equal(t, ir.Tuple{n1, ir.List{n2, ir.Int(3)}, ir.Dict{ir.E("a", n3)}}, got)
}

func TestCreateArgContainers(t *testing.T) {
	tr, _ := newTestTracer(t)
	x := mustPlaceholder(t, tr, "x")
	xn := mustNode(t, x)

	tests := []struct {
		name     string
		input    any
		expected ir.Argument
	}{
		{"empty tuple", Tuple{}, ir.Tuple{}},
		{"nil tuple", Tuple(nil), ir.Tuple{}},
		{"list", List{x, "a"}, ir.List{xn, ir.String("a")}},
		{"bare slice of any is a list", []any{1, x}, ir.List{ir.Int(1), xn}},
		{"nested tuple in list", List{Tuple{x}}, ir.List{ir.Tuple{xn}}},
		{"dict keeps order", Dict{KV("z", 1), KV("a", x)}, ir.Dict{ir.E("z", ir.Int(1)), ir.E("a", xn)}},
		{"map sorts keys", map[string]any{"b": 2, "a": 1}, ir.Dict{ir.E("a", ir.Int(1)), ir.E("b", ir.Int(2))}},
		{"slice", Slice{Start: 1, Stop: x}, ir.Slice{Start: ir.Int(1), Stop: xn, Step: ir.None{}}},
		{"slice in tuple", Tuple{Slice{Step: -1}}, ir.Tuple{ir.Slice{Start: ir.None{}, Stop: ir.None{}, Step: ir.Int(-1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateArg(tr, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCreateArgBaseTypes(t *testing.T) {
	tr, _ := newTestTracer(t)

	tests := []struct {
		name     string
		input    any
		expected ir.Argument
	}{
		{"nil", nil, ir.None{}},
		{"bool", true, ir.Bool(true)},
		{"string", "s", ir.String("s")},
		{"int", 7, ir.Int(7)},
		{"int8", int8(-3), ir.Int(-3)},
		{"int64", int64(math.MinInt64), ir.Int(math.MinInt64)},
		{"uint8", uint8(255), ir.Int(255)},
		{"uint32", uint32(7), ir.Int(7)},
		{"uint64 in range", uint64(math.MaxInt64), ir.Int(math.MaxInt64)},
		{"float32", float32(0.5), ir.Float(0.5)},
		{"float64", 2.5, ir.Float(2.5)},
		{"ir literal", ir.String("already lowered"), ir.String("already lowered")},
		{"ir container", ir.List{ir.Int(1)}, ir.List{ir.Int(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateArg(tr, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCreateArgUnsupported(t *testing.T) {
	tr, _ := newTestTracer(t)
	p1 := mustPlaceholder(t, tr, "p1")

	tests := []struct {
		name   string
		input  any
		reason string
	}{
		{"non-string key", Dict{KV(1, p1)}, "non-string keys"},
		{"nested non-string key", List{Dict{KV(true, 1)}}, "non-string keys"},
		{"map with int keys", map[int]any{1: p1}, "argument of type: map[int]interface {}"},
		{"struct", struct{ A int }{1}, "argument of type: struct { A int }"},
		{"complex", complex(1, 2), "argument of type: complex128"},
		{"uint64 overflow", uint64(math.MaxUint64), "overflows int64"},
		{"nil proxy", (*Proxy)(nil), "nil proxy"},
		{"inside a slice", Slice{Start: []int{1}}, "argument of type: []int"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateArg(tr, tt.input)
			require.Error(t, err)
			assert.True(t, IsUnsupportedArgument(err))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestCreateArgMaterializesAttributes(t *testing.T) {
	tr, g := newTestTracer(t)
	x := mustPlaceholder(t, tr, "x")
	shape := x.Field("shape")
	require.Equal(t, 1, g.Len())

	got, err := CreateArg(tr, List{shape, shape})
	require.NoError(t, err)

	assert.Equal(t, 2, g.Len())
	n := mustNode(t, shape)
	assert.Equal(t, ir.List{n, n}, got)
	assert.Equal(t, ir.GetAttr, n.Target())
}

func TestCreateArgConsultsLowerer(t *testing.T) {
	g := ir.New()
	tr := &complexTracer{Base: NewBase(g)}
	x := mustPlaceholder(t, tr, "x")

	sum, err := x.Add(complex(1, 2))
	require.NoError(t, err)

	assert.Equal(t, ir.Tuple{mustNode(t, x), ir.List{ir.Float(1), ir.Float(2)}}, mustNode(t, sum).Args())

	// Values the lowerer does not handle use the default lowering
	got, err := CreateArg(tr, List{complex(0, 1), 3})
	require.NoError(t, err)
	assert.Equal(t, ir.List{ir.List{ir.Float(0), ir.Float(1)}, ir.Int(3)}, got)
}
