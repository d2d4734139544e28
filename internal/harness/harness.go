package harness

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/symtrace/internal/compiler"
	"github.com/roach88/symtrace/internal/ir"
	"github.com/roach88/symtrace/internal/trace"
)

// Harness is the scenario execution engine.
// It drives one tracer over a fresh graph with the scenario's frame pushed,
// so let bindings act as the traced function's locals.
type Harness struct {
	tracer *trace.Base
	frame  *trace.Frame
	logger *slog.Logger
}

// Option configures Run.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger passed to the tracer and used for step logs.
// A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario traces into a fresh graph for isolation.
//
// Execution flow:
// 1. Compile catalogs and select value_type, if given
// 2. Record one placeholder per input and bind it in the frame
// 3. Execute steps, binding results
// 4. Record the output
// 5. Hash the graph and evaluate assertions
//
// A step that fails without expect_error aborts the run with an error. A
// step whose expected error does not occur, or a failing assertion, only
// marks the result as failed.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs by default
	}
	for _, opt := range opts {
		opt(&o)
	}

	traceOpts := []trace.Option{trace.WithLogger(o.logger)}
	if len(scenario.Catalogs) > 0 {
		specs, err := compiler.LoadResolved(scenario.Catalogs...)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalogs: %w", err)
		}
		if scenario.ValueType != "" {
			spec, ok := compiler.Lookup(specs, scenario.ValueType)
			if !ok {
				return nil, fmt.Errorf("value_type %q is not declared in the catalogs", scenario.ValueType)
			}
			traceOpts = append(traceOpts, trace.WithTypeSpec(spec))
		}
	}

	g := ir.New()
	h := &Harness{
		tracer: trace.NewBase(g, traceOpts...),
		frame:  trace.NewFrame(scenario.Name),
		logger: o.logger,
	}
	h.tracer.EnterFrame(h.frame)
	defer h.tracer.ExitFrame()

	result := NewResult()
	result.Graph = g

	for _, input := range scenario.Inputs {
		p, err := trace.Placeholder(h.tracer, input)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", input, err)
		}
		h.frame.Bind(input, p)
	}

	for i := range scenario.Steps {
		if err := h.executeStep(i, &scenario.Steps[i], result); err != nil {
			return nil, err
		}
	}

	if scenario.Output.Kind != 0 {
		v, err := decodeValue(&scenario.Output, h.frame)
		if err != nil {
			return nil, fmt.Errorf("output: %w", err)
		}
		if _, err := trace.Output(h.tracer, v); err != nil {
			return nil, fmt.Errorf("output: %w", err)
		}
	}

	hash, err := ir.GraphHash(g)
	if err != nil {
		return nil, fmt.Errorf("failed to hash graph: %w", err)
	}
	result.Hash = hash

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario traced",
		"scenario", scenario.Name,
		"nodes", g.Len(),
		"hash", hash,
		"pass", result.Pass,
	)

	return result, nil
}

// executeStep runs one step and binds its result.
func (h *Harness) executeStep(i int, step *Step, result *Result) error {
	form := step.Form()
	value, err := h.apply(step)

	if step.ExpectError != "" {
		switch {
		case err == nil:
			result.AddError(fmt.Sprintf("steps[%d] (%s): expected %s, got success", i, form, step.ExpectError))
		case !matchesErrorKind(err, step.ExpectError):
			result.AddError(fmt.Sprintf("steps[%d] (%s): expected %s, got: %v", i, form, step.ExpectError, err))
		default:
			h.logger.Debug("step failed as expected", "step", i, "form", form, "error", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("steps[%d] (%s): %w", i, form, err)
	}

	if step.Let != "" {
		h.frame.Bind(step.Let, value)
	}
	h.logger.Debug("step executed", "step", i, "form", form, "let", step.Let)
	return nil
}

func matchesErrorKind(err error, kind string) bool {
	switch kind {
	case ErrorKindTrace:
		return trace.IsTraceError(err)
	case ErrorKindUnsupported:
		return trace.IsUnsupportedArgument(err)
	default:
		return false
	}
}

// apply performs the step's operation and returns its result value.
func (h *Harness) apply(step *Step) (any, error) {
	form := step.Form()
	if form == FormOp {
		return h.applyOp(step)
	}

	args, err := decodeArgs(&step.Args, h.frame)
	if err != nil {
		return nil, err
	}
	kwargs, err := decodeKwargs(&step.Kwargs, h.frame)
	if err != nil {
		return nil, err
	}

	switch form {
	case FormMethod:
		recv, err := h.proxy(step.On)
		if err != nil {
			return nil, err
		}
		return recv.Field(step.Method).CallKw(kwargs, args...)

	case FormAttr:
		p, err := h.proxy(step.On)
		if err != nil {
			return nil, err
		}
		for _, part := range strings.Split(step.Attr, ".") {
			p = p.Field(part)
		}
		return p, nil

	case FormCall:
		p, err := h.proxy(step.Call)
		if err != nil {
			return nil, err
		}
		return p.CallKw(kwargs, args...)

	case FormFunction:
		return trace.Dispatch(h.tracer, parseFunction(step.Function), args, kwargs)

	case FormUnpack:
		p, err := h.proxy(step.Unpack)
		if err != nil {
			return nil, err
		}
		items, err := p.Unpack(len(step.Into))
		if err != nil {
			return nil, err
		}
		for j, name := range step.Into {
			h.frame.Bind(name, items[j])
		}
		return nil, nil

	case FormKeys:
		p, err := h.proxy(step.Keys)
		if err != nil {
			return nil, err
		}
		return p.Keys()

	case FormBool:
		p, err := h.proxy(step.Bool)
		if err != nil {
			return nil, err
		}
		return p.Bool()

	case FormIter:
		p, err := h.proxy(step.Iter)
		if err != nil {
			return nil, err
		}
		seq, err := p.Iter()
		if err != nil {
			return nil, err
		}
		items := trace.List{}
		for item := range seq {
			items = append(items, item)
		}
		return items, nil

	default:
		return nil, fmt.Errorf("step has no single form")
	}
}

// applyOp records an operator step. The first proxy operand receives the
// operation; a literal left operand of a reflectable operator uses the
// reflected form so the recorded order stays left to right.
func (h *Harness) applyOp(step *Step) (any, error) {
	op, ok := trace.ParseOp(step.Op)
	if !ok {
		return nil, fmt.Errorf("unknown operator %q", step.Op)
	}
	operands, err := decodeArgs(&step.Args, h.frame)
	if err != nil {
		return nil, err
	}
	if len(operands) == 0 {
		return nil, fmt.Errorf("operator %s: no operands", op)
	}

	if first, ok := operands[0].(*trace.Proxy); ok {
		return first.Apply(op, operands[1:]...)
	}
	if len(operands) == 2 && op.Reflectable() {
		if second, ok := operands[1].(*trace.Proxy); ok {
			return second.ApplyReflected(op, operands[0])
		}
	}
	return nil, fmt.Errorf("operator %s: needs a proxy operand", op)
}

// proxy resolves a "$name" reference that must hold a proxy.
func (h *Harness) proxy(ref string) (*trace.Proxy, error) {
	if !strings.HasPrefix(ref, "$") {
		return nil, fmt.Errorf("%q is not a binding reference", ref)
	}
	v, ok := h.frame.Lookup(ref[1:])
	if !ok {
		return nil, fmt.Errorf("unknown binding %q", ref[1:])
	}
	p, ok := v.(*trace.Proxy)
	if !ok {
		return nil, fmt.Errorf("binding %q is not a proxy (%T)", ref[1:], v)
	}
	return p, nil
}

// parseFunction splits "module.name" at the last dot.
func parseFunction(s string) ir.Function {
	i := strings.LastIndex(s, ".")
	if i < 0 {
		return ir.Function{Name: s}
	}
	return ir.Function{Module: s[:i], Name: s[i+1:]}
}
