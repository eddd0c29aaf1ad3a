package correlation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerial_StrictlyIncreasingWithinNamespace(t *testing.T) {
	ns := NamespaceFor("watchdog-reset")
	gen := NewSerial(ns)

	const n = 100
	prev := Nil
	for i := 0; i < n; i++ {
		id := gen.Next()
		assert.Equal(t, ns, id.Namespace(), "upper bits must be the namespace")
		assert.Equal(t, uint64(i+1), id.Sequence())
		assert.True(t, prev.Less(id), "id %s must sort after %s", id, prev)
		prev = id
	}
	assert.Equal(t, prev, gen.Last())
}

func TestSerial_LastBeforeFirstIsNil(t *testing.T) {
	gen := NewSerial(42)
	assert.Equal(t, Nil, gen.Last())
}

func TestSerial_ConcurrentCallsAreUnique(t *testing.T) {
	gen := NewSerial(NamespaceFor("temperature-poll"))

	const workers, perWorker = 8, 250
	ids := make(chan ID, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ids <- gen.Next()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[ID]struct{}, workers*perWorker)
	for id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, uint64(workers*perWorker), gen.Last().Sequence())
}

func TestNamespaceFor_StableAndDistinct(t *testing.T) {
	assert.Equal(t, NamespaceFor("watchdog-reset"), NamespaceFor("watchdog-reset"))
	assert.NotEqual(t, NamespaceFor("watchdog-reset"), NamespaceFor("temperature-poll"))
}

func TestRandom_Unique(t *testing.T) {
	gen := NewRandom()
	seen := make(map[ID]struct{})
	for i := 0; i < 1000; i++ {
		id := gen.Next()
		require.NotEqual(t, Nil, id)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestID_String(t *testing.T) {
	gen := NewSerial(1)
	id := gen.Next()
	assert.Equal(t, "00000000000000010000000000000001", id.String())

	text, err := id.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, id.String(), string(text))
}
