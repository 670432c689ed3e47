package keyword

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistryLifecycle(t *testing.T) {
	t.Parallel()

	r := NewSessionRegistry()
	assert.Equal(t, "0", r.Register("browser-a", "first"))
	assert.Equal(t, "1", r.Register("browser-b", ""))
	assert.Equal(t, "2", r.Register("browser-c", "third"))

	id, ok := r.Resolve("1")
	require.True(t, ok)
	assert.Equal(t, "browser-b", id)

	id, ok = r.Resolve("third")
	require.True(t, ok)
	assert.Equal(t, "browser-c", id)

	_, ok = r.Resolve("missing")
	assert.False(t, ok)

	index, ok := r.IndexOf("browser-c")
	require.True(t, ok)
	assert.Equal(t, "2", index)

	assert.Equal(t, map[string]string{"first": "0", "third": "2"}, r.Aliases())
	assert.Equal(t, []string{"0", "1", "2"}, r.Indexes())

	r.Remove("browser-a")
	_, ok = r.Resolve("first")
	assert.False(t, ok)
	_, ok = r.Resolve("0")
	assert.False(t, ok)
	assert.Equal(t, []string{"1", "2"}, r.Indexes())
	assert.Equal(t, map[string]string{"third": "2"}, r.Aliases())

	r.Reset()
	assert.Empty(t, r.Indexes())
	assert.Empty(t, r.Aliases())
	assert.Equal(t, "3", r.Register("browser-d", ""), "indexes are never reused")
}

func TestSessionRegistryAliasIndexPrecedence(t *testing.T) {
	t.Parallel()

	r := NewSessionRegistry()
	r.Register("browser-a", "")
	r.Register("browser-b", "0")

	id, ok := r.Resolve("0")
	require.True(t, ok)
	assert.Equal(t, "browser-a", id, "an index wins over an alias with the same text")
}

func TestSessionRegistryConcurrentRegister(t *testing.T) {
	t.Parallel()

	r := NewSessionRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Register("browser-"+strconv.Itoa(i), "")
		}(i)
	}
	wg.Wait()

	indexes := r.Indexes()
	require.Len(t, indexes, 50)
	seen := make(map[string]bool)
	for _, index := range indexes {
		assert.False(t, seen[index], "duplicate index %s", index)
		seen[index] = true
	}
}
