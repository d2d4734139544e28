package trace

import (
	"fmt"

	"github.com/roach88/symtrace/internal/ir"
)

// Op identifies an operator in the dispatch table.
type Op int

// Operators. Binary arithmetic and bitwise operators are reflectable: they
// also have a right-hand form for expressions whose left operand is not a
// proxy.
const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpFloorDiv
	OpTrueDiv
	OpMod
	OpPow
	OpLShift
	OpRShift
	OpAnd
	OpOr
	OpXor
	OpMatMul
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpGetItem
	OpNeg
	OpPos
	OpInvert

	numOps
)

type opInfo struct {
	name        string
	symbol      string
	arity       int
	reflectable bool
}

// opTable is the static operator catalog, indexed by Op.
var opTable = [numOps]opInfo{
	OpAdd:      {"add", "+", 2, true},
	OpSub:      {"sub", "-", 2, true},
	OpMul:      {"mul", "*", 2, true},
	OpFloorDiv: {"floordiv", "//", 2, true},
	OpTrueDiv:  {"truediv", "/", 2, true},
	OpMod:      {"mod", "%", 2, true},
	OpPow:      {"pow", "**", 2, true},
	OpLShift:   {"lshift", "<<", 2, true},
	OpRShift:   {"rshift", ">>", 2, true},
	OpAnd:      {"and", "&", 2, true},
	OpOr:       {"or", "|", 2, true},
	OpXor:      {"xor", "^", 2, true},
	OpMatMul:   {"matmul", "@", 2, true},
	OpEq:       {"eq", "==", 2, false},
	OpNe:       {"ne", "!=", 2, false},
	OpLt:       {"lt", "<", 2, false},
	OpLe:       {"le", "<=", 2, false},
	OpGt:       {"gt", ">", 2, false},
	OpGe:       {"ge", ">=", 2, false},
	OpGetItem:  {"getitem", "[]", 2, false},
	OpNeg:      {"neg", "-", 1, false},
	OpPos:      {"pos", "+", 1, false},
	OpInvert:   {"invert", "~", 1, false},
}

// opsByName is derived from opTable once at package initialization.
var opsByName = func() map[string]Op {
	m := make(map[string]Op, numOps)
	for op := range numOps {
		m[opTable[op].name] = op
	}
	return m
}()

// Ops returns every operator in table order.
func Ops() []Op {
	out := make([]Op, 0, numOps)
	for op := range numOps {
		out = append(out, op)
	}
	return out
}

// ReflectableOps returns the operators that have a right-hand form.
func ReflectableOps() []Op {
	var out []Op
	for op := range numOps {
		if opTable[op].reflectable {
			out = append(out, op)
		}
	}
	return out
}

// ParseOp looks an operator up by its name ("add", "getitem", ...).
func ParseOp(name string) (Op, bool) {
	op, ok := opsByName[name]
	return op, ok
}

func (op Op) valid() bool {
	return op >= 0 && op < numOps
}

// String returns the operator name, e.g. "add".
func (op Op) String() string {
	if !op.valid() {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return opTable[op].name
}

// Symbol returns the surface syntax of the operator, e.g. "+".
func (op Op) Symbol() string {
	if !op.valid() {
		return ""
	}
	return opTable[op].symbol
}

// Arity returns the number of operands.
func (op Op) Arity() int {
	if !op.valid() {
		return 0
	}
	return opTable[op].arity
}

// Reflectable reports whether the operator has a right-hand form.
func (op Op) Reflectable() bool {
	return op.valid() && opTable[op].reflectable
}

// Target returns the recorded call_function target, e.g. operator.add.
func (op Op) Target() ir.Function {
	return ir.Function{Module: "operator", Name: op.String()}
}

// Apply records op with p as the first operand and others after it, in
// surface order. The operand count must match the operator's arity.
func (p *Proxy) Apply(op Op, others ...any) (*Proxy, error) {
	if !op.valid() {
		return nil, fmt.Errorf("apply: unknown operator %s", op)
	}
	operands := append([]any{p}, others...)
	if len(operands) != op.Arity() {
		return nil, fmt.Errorf("apply %s: expected %d operands, got %d", op, op.Arity(), len(operands))
	}
	return recordOp(p.tracer, op, operands)
}

// ApplyReflected records lhs <op> p, the right-hand form used when the left
// operand is not a proxy. The recorded args are (lhs, p), so the graph keeps
// the left-then-right order of the original expression.
func (p *Proxy) ApplyReflected(op Op, lhs any) (*Proxy, error) {
	if !op.Reflectable() {
		return nil, fmt.Errorf("apply: operator %s has no reflected form", op)
	}
	return recordOp(p.tracer, op, []any{lhs, p})
}

func recordOp(t Tracer, op Op, operands []any) (*Proxy, error) {
	assignFriendlyNames(t, Tuple(operands))
	return CreateProxy(t, ir.KindCallFunction, op.Target(), operands, nil, "", "")
}

// Binary operators.

func (p *Proxy) Add(rhs any) (*Proxy, error)      { return p.Apply(OpAdd, rhs) }
func (p *Proxy) Sub(rhs any) (*Proxy, error)      { return p.Apply(OpSub, rhs) }
func (p *Proxy) Mul(rhs any) (*Proxy, error)      { return p.Apply(OpMul, rhs) }
func (p *Proxy) FloorDiv(rhs any) (*Proxy, error) { return p.Apply(OpFloorDiv, rhs) }
func (p *Proxy) TrueDiv(rhs any) (*Proxy, error)  { return p.Apply(OpTrueDiv, rhs) }
func (p *Proxy) Mod(rhs any) (*Proxy, error)      { return p.Apply(OpMod, rhs) }
func (p *Proxy) Pow(rhs any) (*Proxy, error)      { return p.Apply(OpPow, rhs) }
func (p *Proxy) LShift(rhs any) (*Proxy, error)   { return p.Apply(OpLShift, rhs) }
func (p *Proxy) RShift(rhs any) (*Proxy, error)   { return p.Apply(OpRShift, rhs) }
func (p *Proxy) And(rhs any) (*Proxy, error)      { return p.Apply(OpAnd, rhs) }
func (p *Proxy) Or(rhs any) (*Proxy, error)       { return p.Apply(OpOr, rhs) }
func (p *Proxy) Xor(rhs any) (*Proxy, error)      { return p.Apply(OpXor, rhs) }
func (p *Proxy) MatMul(rhs any) (*Proxy, error)   { return p.Apply(OpMatMul, rhs) }
func (p *Proxy) Eq(rhs any) (*Proxy, error)       { return p.Apply(OpEq, rhs) }
func (p *Proxy) Ne(rhs any) (*Proxy, error)       { return p.Apply(OpNe, rhs) }
func (p *Proxy) Lt(rhs any) (*Proxy, error)       { return p.Apply(OpLt, rhs) }
func (p *Proxy) Le(rhs any) (*Proxy, error)       { return p.Apply(OpLe, rhs) }
func (p *Proxy) Gt(rhs any) (*Proxy, error)       { return p.Apply(OpGt, rhs) }
func (p *Proxy) Ge(rhs any) (*Proxy, error)       { return p.Apply(OpGe, rhs) }

// GetItem records p[index]. A Slice index records slicing.
func (p *Proxy) GetItem(index any) (*Proxy, error) { return p.Apply(OpGetItem, index) }

// Unary operators.

func (p *Proxy) Neg() (*Proxy, error)    { return p.Apply(OpNeg) }
func (p *Proxy) Pos() (*Proxy, error)    { return p.Apply(OpPos) }
func (p *Proxy) Invert() (*Proxy, error) { return p.Apply(OpInvert) }

// Reflected operators: p.RSub(lhs) records lhs - p.

func (p *Proxy) RAdd(lhs any) (*Proxy, error)      { return p.ApplyReflected(OpAdd, lhs) }
func (p *Proxy) RSub(lhs any) (*Proxy, error)      { return p.ApplyReflected(OpSub, lhs) }
func (p *Proxy) RMul(lhs any) (*Proxy, error)      { return p.ApplyReflected(OpMul, lhs) }
func (p *Proxy) RFloorDiv(lhs any) (*Proxy, error) { return p.ApplyReflected(OpFloorDiv, lhs) }
func (p *Proxy) RTrueDiv(lhs any) (*Proxy, error)  { return p.ApplyReflected(OpTrueDiv, lhs) }
func (p *Proxy) RMod(lhs any) (*Proxy, error)      { return p.ApplyReflected(OpMod, lhs) }
func (p *Proxy) RPow(lhs any) (*Proxy, error)      { return p.ApplyReflected(OpPow, lhs) }
func (p *Proxy) RLShift(lhs any) (*Proxy, error)   { return p.ApplyReflected(OpLShift, lhs) }
func (p *Proxy) RRShift(lhs any) (*Proxy, error)   { return p.ApplyReflected(OpRShift, lhs) }
func (p *Proxy) RAnd(lhs any) (*Proxy, error)      { return p.ApplyReflected(OpAnd, lhs) }
func (p *Proxy) ROr(lhs any) (*Proxy, error)       { return p.ApplyReflected(OpOr, lhs) }
func (p *Proxy) RXor(lhs any) (*Proxy, error)      { return p.ApplyReflected(OpXor, lhs) }
func (p *Proxy) RMatMul(lhs any) (*Proxy, error)   { return p.ApplyReflected(OpMatMul, lhs) }
