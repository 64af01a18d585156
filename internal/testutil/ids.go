package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator hands out IDs "run-000001", "run-000002", ...
//
// It stands in for the UUIDv7 run ID generator of the statement catalog so
// stored rows are byte-identical between test runs.
//
// Thread-safety: all methods are safe for concurrent use.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	seq    int64
}

// NewSequentialIDGenerator returns a generator whose first ID ends in 1.
// An empty prefix defaults to "run".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "run"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("%s-%06d", g.prefix, g.seq)
}

// Count returns how many IDs were handed out.
func (g *SequentialIDGenerator) Count() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence. The next Generate returns the first ID again.
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// FixedIDGenerator returns the same ID every time.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator returns a generator for id, or "run-fixed" when id is empty.
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "run-fixed"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
