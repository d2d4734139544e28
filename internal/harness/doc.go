// Package harness runs scripted trace scenarios through the real tracer.
//
// A scenario stands in for a traced function: it declares the inputs, a
// list of steps that operate on proxies, and the value returned. Steps run
// inside a trace.Frame so that every let binding becomes a friendly name
// for the node it holds, exactly as a traced function's locals would.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: relu_add
//	description: "Adds a constant, then applies relu"
//	catalogs:
//	  - ../catalogs/tensor.cue
//	value_type: Tensor
//	inputs: [x, y]
//	steps:
//	  - let: h
//	    op: add
//	    args: [$x, 1]
//	  - let: out
//	    method: relu
//	    on: $h
//	    kwargs: { inplace: false }
//	  - bool: $out
//	    expect_error: trace_error
//	output: $out
//	assertions:
//	  - type: node_count
//	    count: 4
//	  - type: node_exists
//	    name: h
//	    kind: call_function
//	    target: operator.add
//
// # Step Forms
//
// Each step has exactly one of:
//
//   - op: operator table entry by name; reflected when a literal precedes a binding
//   - method + on: p.name(args...) recorded as one call_method
//   - attr + on: deferred attribute (dotted paths allowed); records nothing
//   - call: invokes a proxy
//   - function: generic overloaded operation ("module.name"), routed by value_type
//   - unpack + into: fixed-arity destructuring into named bindings
//   - keys: probes a proxy for mapping keys
//   - bool / iter: concrete conversions, which the default tracer rejects
//
// # Values
//
//	$name            a binding (inputs, let, into)
//	1, 2.5, "s"      scalars; null is nil
//	[a, b]           list
//	{tuple: [a, b]}  tuple
//	{slice: [a, b, c]}
//	{dict: {k: v}}   dict; any other mapping is also a dict, in document order
//
// # Assertion Types
//
//   - node_count: the graph has exactly count nodes
//   - node_exists: a node matches every given name, kind, target and args
//   - node_order: the named nodes appear in the given order
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/relu_add.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
