package cache

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_Basic(t *testing.T) {
	c := New(Options[string]{MaxSize: 3})

	c.Set("a", "value_a")
	c.Set("b", "value_b")
	c.Set("c", "value_c")

	assert.Equal(t, 3, c.Len())

	val, found := c.Get("a")
	require.True(t, found)
	assert.Equal(t, "value_a", val)

	val, found = c.Get("b")
	require.True(t, found)
	assert.Equal(t, "value_b", val)
}

func TestLRU_Eviction(t *testing.T) {
	var evicted []string
	c := New(Options[string]{
		MaxSize: 3,
		OnEvict: func(key string, _ string) { evicted = append(evicted, key) },
	})

	c.Set("a", "value_a")
	c.Set("b", "value_b")
	c.Set("c", "value_c")

	// Access 'a' to make it most recently used
	c.Get("a")

	// Add new item - should evict 'b' (least recently used)
	c.Set("d", "value_d")

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, []string{"d", "a", "c"}, c.Keys())

	_, found := c.Get("b")
	assert.False(t, found, "b should have been evicted")
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestLRU_Update(t *testing.T) {
	c := New(Options[int]{MaxSize: 2})
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("a", 10)

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"a", "b"}, c.Keys())
	v, _ := c.Get("a")
	assert.Equal(t, 10, v)
}

func TestLRU_DeleteAndClear(t *testing.T) {
	c := New(Options[string]{MaxSize: 10})

	c.Set("a", "value_a")
	c.Set("b", "value_b")
	c.Set("c", "value_c")

	c.Delete("b")
	c.Delete("missing")
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"c", "a"}, c.Keys())

	_, err := c.Lookup("b")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Empty(t, c.Keys())
}

func TestLRU_Stats(t *testing.T) {
	c := New(Options[string]{})
	c.Set("a", "x")
	c.Get("a")
	c.Get("a")
	c.Get("b")

	s := c.Stats()
	assert.Equal(t, int64(2), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
	assert.InDelta(t, 2.0/3.0, s.HitRate(), 1e-9)

	c.ResetStats()
	assert.Equal(t, Stats{}, c.Stats())
	assert.Zero(t, c.Stats().HitRate())
}

type record struct {
	Name   string
	Counts []int
}

func TestLRU_SaveLoad(t *testing.T) {
	c := New(Options[record]{MaxSize: 10})
	c.Set("key1", record{Name: "one", Counts: []int{1}})
	c.Set("key2", record{Name: "two", Counts: []int{2, 2}})
	c.Get("key1")

	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	c2 := New(Options[record]{MaxSize: 10})
	c2.Set("stale", record{Name: "stale"})
	require.NoError(t, c2.Load(&buf))

	assert.Equal(t, 2, c2.Len())
	assert.Equal(t, []string{"key1", "key2"}, c2.Keys())

	val, found := c2.Get("key2")
	require.True(t, found)
	assert.Equal(t, record{Name: "two", Counts: []int{2, 2}}, val)

	_, found = c2.Get("stale")
	assert.False(t, found)
}

func TestLRU_LoadTrimsToMaxSize(t *testing.T) {
	c := New(Options[int]{})
	for i, k := range []string{"a", "b", "c", "d"} {
		c.Set(k, i)
	}
	var buf bytes.Buffer
	require.NoError(t, c.Save(&buf))

	small := New(Options[int]{MaxSize: 2})
	require.NoError(t, small.Load(&buf))
	assert.Equal(t, []string{"d", "c"}, small.Keys())
}

func TestLRU_LoadCorrupt(t *testing.T) {
	c := New(Options[int]{})
	assert.Error(t, c.Load(bytes.NewReader([]byte{0xc1})))
}

func TestLRU_Concurrent(t *testing.T) {
	c := New(Options[int]{MaxSize: 50})
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := Key([]byte{byte(g), byte(i)})
				c.Set(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 50, c.Len())
}

func TestPersistedFileDoesNotExist(t *testing.T) {
	c := New(Options[string]{})
	err := LoadFromFile(c, filepath.Join(t.TempDir(), "missing.cache"))
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestPersistToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reports.cache")
	c := New(Options[string]{})
	c.Set("k", "v")
	require.NoError(t, PersistToFile(c, path))

	c2 := New(Options[string]{})
	require.NoError(t, LoadFromFile(c2, path))
	v, err := c2.Lookup("k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestKey(t *testing.T) {
	a := Key([]byte("name: a\n"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, Key([]byte("name: a\n")))
	assert.NotEqual(t, a, Key([]byte("name: b\n")))
	assert.NotEqual(t, a, Key(nil))
}

func TestStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.cache")

	s, err := Open[record](path, 10)
	require.NoError(t, err)
	assert.Equal(t, path, s.Path())
	assert.Equal(t, 0, s.Len())

	// Nothing changed, nothing written.
	require.NoError(t, s.Flush())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	s.Put("k", record{Name: "k"})
	require.NoError(t, s.Flush())

	reopened, err := Open[record](path, 10)
	require.NoError(t, err)
	v, ok := reopened.Get("k")
	require.True(t, ok)
	assert.Equal(t, "k", v.Name)
}

func TestStoreDiscardsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports.cache")
	require.NoError(t, os.WriteFile(path, []byte("not msgpack"), 0644))

	s, err := Open[record](path, 10)
	assert.Error(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 0, s.Len())

	// The next flush replaces the corrupt file.
	require.NoError(t, s.Flush())
	reopened, err := Open[record](path, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, reopened.Len())
}
