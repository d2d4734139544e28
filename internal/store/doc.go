// Package store provides SQLite-backed durable storage for traced graphs.
//
// The store is an append-only log of graphs:
//   - Graphs: one row per persisted trace (ID, display name, content hash)
//   - Nodes: the recorded nodes of each graph, in recording order
//
// # Critical Patterns
//
// Logical Ordering
//   - Graphs are ordered by seq INTEGER (assigned on write), NEVER timestamps
//   - All list queries use: ORDER BY seq ASC, id COLLATE BINARY ASC
//
// Content Identity
//   - graph_hash is ir.GraphHash over the canonical JSON of the graph
//   - ReadGraph recomputes the hash and rejects rows that no longer match
//   - Writing the same ID twice is a no-op when the hash agrees
//
// Canonical Columns
//   - target, args and kwargs are stored as canonical JSON from internal/ir
//   - Node references inside args are stored by name and resolved on read
//
// Node Search
//   - FindNodes compiles a NodeQuery into parameterized SQL over nodes
//     joined with graphs, ordered by seq then position
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
