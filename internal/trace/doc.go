// Package trace records operations on proxy values into an ir.Graph.
//
// Traced code runs against *Proxy values instead of real data. Every
// operation on a proxy (an operator, a method call, a call of the proxy
// itself, a materialized attribute read) is handed to the owning Tracer,
// which lowers the operands into ir.Argument values and appends one node to
// the graph. Nothing is ever computed.
//
// ARCHITECTURE:
//
// Policy vs protocol:
// The Tracer interface holds only the overridable policy (CreateNode,
// ToBool, Iter, Keys). The recording protocol itself (CreateProxy,
// CreateArg, NewProxy) is a set of package functions that take the Tracer
// as a parameter. A specialized tracer embeds *Base and overrides what it
// needs; because proxies carry the outer tracer, the protocol always calls
// the override, never the embedded default.
//
// Attribute access:
// Go has no implicit attribute hook, so traced code reads attributes with
// Proxy.Field. The result is a deferred attribute proxy that records
// nothing until its node is needed. Calling it records a single call_method
// node on the root instead of a getattr followed by a call.
//
// Friendly names:
// The traced function's named locals are an explicit *Frame pushed on the
// tracer. After each recording operation the innermost frame is searched
// for bindings that hold an operand proxy (by identity) and the operand's
// node is renamed to the shortest such binding. The pass only ever touches
// node names. Without a frame it does nothing.
//
// CRITICAL PATTERNS:
//
// Recording is synchronous and single-threaded. A Graph must never be
// recorded into by two tracers concurrently.
//
// Failures propagate unchanged to the caller and are never retried. A
// half-recorded graph is left as it is; cleanup belongs to the driver.
package trace
