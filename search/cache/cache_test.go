package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/noelzubin/notes_search/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func results(paths ...string) []search.SearchResult {
	out := make([]search.SearchResult, 0, len(paths))
	for _, p := range paths {
		out = append(out, search.SearchResult{Path: p, Name: p, Score: 1})
	}
	return out
}

func TestCache_GetPut(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := New(time.Minute, 10, clock.Now)

	_, ok := c.Get(Key{Query: "q", Limit: 10})
	assert.False(t, ok)

	c.Put(Key{Query: "q", Limit: 10}, results("a.md"))
	entry, ok := c.Get(Key{Query: "q", Limit: 10})
	require.True(t, ok)
	assert.Equal(t, results("a.md"), entry.Results)
	assert.Equal(t, clock.Now(), entry.Timestamp)
}

func TestCache_LimitIsPartOfTheKey(t *testing.T) {
	c := New(time.Minute, 10, nil)
	c.Put(Key{Query: "q", Limit: 10}, results("a.md", "b.md"))

	_, ok := c.Get(Key{Query: "q", Limit: 1})
	assert.False(t, ok)
}

func TestCache_EmptyResultsAreCached(t *testing.T) {
	c := New(time.Minute, 10, nil)
	c.Put(Key{Query: "nothing", Limit: 10}, nil)

	entry, ok := c.Get(Key{Query: "nothing", Limit: 10})
	require.True(t, ok)
	assert.Empty(t, entry.Results)
}

func TestCache_TTL(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	c := New(30*time.Second, 10, clock.Now)
	key := Key{Query: "q", Limit: 10}
	c.Put(key, results("a.md"))

	clock.Advance(29 * time.Second)
	_, ok := c.Get(key)
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get(key)
	assert.False(t, ok, "an entry exactly TTL old is expired")

	// overwritten on the next store
	c.Put(key, results("b.md"))
	entry, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "b.md", entry.Results[0].Path)
}

func TestCache_EvictsOldestInserted(t *testing.T) {
	c := New(time.Minute, 3, nil)
	for i := 0; i < 3; i++ {
		c.Put(Key{Query: fmt.Sprint(i), Limit: 1}, results("x.md"))
	}

	// reading or overwriting doesn't refresh the position
	c.Get(Key{Query: "0", Limit: 1})
	c.Put(Key{Query: "0", Limit: 1}, results("y.md"))
	assert.Equal(t, 3, c.Len())

	c.Put(Key{Query: "3", Limit: 1}, results("z.md"))
	assert.Equal(t, 3, c.Len())

	_, ok := c.Get(Key{Query: "0", Limit: 1})
	assert.False(t, ok)
	for _, q := range []string{"1", "2", "3"} {
		_, ok := c.Get(Key{Query: q, Limit: 1})
		assert.True(t, ok, q)
	}
}

func TestCache_ReturnsCopies(t *testing.T) {
	c := New(time.Minute, 10, nil)
	key := Key{Query: "q", Limit: 10}
	in := results("a.md")
	c.Put(key, in)
	in[0].Path = "mutated.md"

	entry, _ := c.Get(key)
	entry.Results[0].Path = "mutated-again.md"

	again, _ := c.Get(key)
	assert.Equal(t, "a.md", again.Results[0].Path)
}

func TestCache_Clear(t *testing.T) {
	c := New(time.Minute, 10, nil)
	c.Put(Key{Query: "q", Limit: 10}, results("a.md"))

	c.Clear()

	assert.Zero(t, c.Len())
	_, ok := c.Get(Key{Query: "q", Limit: 10})
	assert.False(t, ok)
}
