// Package ir provides the graph store and argument model produced by symbolic
// tracing.
//
// This package contains the IR data types only. The tracer in internal/trace
// records into an ir.Graph; ir imports nothing internal. This keeps the IR
// the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - A Graph is append-only; nodes are never removed or reordered
//   - Node names are unique within their graph at all times, including after a rename
//   - Node arguments hold Argument values only (sealed interface), never live proxies
//   - Dict preserves insertion order; canonical JSON keeps it as a list of pairs
//   - A Graph is not safe for concurrent mutation
package ir
