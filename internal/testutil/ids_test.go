package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/symtrace/internal/store"
)

var _ store.IDGenerator = (*FixedIDGenerator)(nil)

func TestFixedIDGenerator_Sequence(t *testing.T) {
	gen := NewFixedIDGenerator("trace")

	assert.Equal(t, "trace-0001", gen.Generate())
	assert.Equal(t, "trace-0002", gen.Generate())
	assert.Equal(t, "trace-0003", gen.Generate())
}

func TestFixedIDGenerator_EmptyPrefixDefault(t *testing.T) {
	gen := NewFixedIDGenerator("")
	assert.Equal(t, "graph-0001", gen.Generate())
}

func TestFixedIDGenerator_Reset(t *testing.T) {
	gen := NewFixedIDGenerator("g")
	gen.Generate()
	gen.Generate()

	gen.Reset()
	assert.Equal(t, "g-0001", gen.Generate())
}

func TestFixedIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedIDGenerator("g")
	const numGoroutines = 10
	const callsPerGoroutine = 100

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < callsPerGoroutine; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Every ID is unique
	assert.Len(t, seen, numGoroutines*callsPerGoroutine)
}
