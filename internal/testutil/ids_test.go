package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialIDGenerator_Sequence(t *testing.T) {
	gen := NewSequentialIDGenerator("")

	assert.Equal(t, int64(0), gen.Count())
	assert.Equal(t, "run-000001", gen.Generate())
	assert.Equal(t, "run-000002", gen.Generate())
	assert.Equal(t, int64(2), gen.Count())
}

func TestSequentialIDGenerator_Prefix(t *testing.T) {
	gen := NewSequentialIDGenerator("q")
	assert.Equal(t, "q-000001", gen.Generate())
}

func TestSequentialIDGenerator_Reset(t *testing.T) {
	gen := NewSequentialIDGenerator("")
	gen.Generate()
	gen.Generate()

	gen.Reset()
	assert.Equal(t, int64(0), gen.Count())
	assert.Equal(t, "run-000001", gen.Generate())
}

func TestSequentialIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequentialIDGenerator("")
	const workers = 50
	const perWorker = 40

	var wg sync.WaitGroup
	results := make([][]string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				results[idx] = append(results[idx], gen.Generate())
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, ids := range results {
		for _, id := range ids {
			require.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, int64(workers*perWorker), gen.Count())
}

func TestFixedIDGenerator(t *testing.T) {
	assert.Equal(t, "abc", NewFixedIDGenerator("abc").Generate())
	assert.Equal(t, "run-fixed", NewFixedIDGenerator("").Generate())
}
