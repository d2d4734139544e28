// Package testutil provides deterministic stand-ins for tests.
package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator generates predictable graph IDs: "<prefix>-0001",
// "<prefix>-0002", and so on.
//
// This enables golden comparison of output that includes stored graph IDs.
// Unlike store.UUIDv7Generator, FixedIDGenerator can be reset for test reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewFixedIDGenerator creates a generator. If prefix is empty, "graph" is used.
func NewFixedIDGenerator(prefix string) *FixedIDGenerator {
	if prefix == "" {
		prefix = "graph"
	}
	return &FixedIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
//
// Implements store.IDGenerator interface.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%04d", g.prefix, g.seq)
}

// Reset restarts the sequence. After Reset(), the next ID ends in 0001.
func (g *FixedIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
