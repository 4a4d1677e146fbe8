package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/noelzubin/notes_search/search"
	"github.com/noelzubin/notes_search/search/bleve_indexer"
	"github.com/noelzubin/notes_search/search/content"
	"github.com/noelzubin/notes_search/search/filename"
	"github.com/noelzubin/notes_search/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var epoch = time.Unix(1_700_000_000, 0)

func newEngine(store search.DocumentStore, clock *fakeClock) *Engine {
	return New(store, Options{Now: clock.Now})
}

func exampleVault() *vault.Memory {
	store := vault.NewMemory()
	store.Put("notes/Alpha.md", "Hello world", epoch)
	store.Put("notes/Beta.md", "# Heading\nnothing relevant", epoch.Add(-time.Hour))
	return store
}

func TestSearch_FilenameMatch(t *testing.T) {
	e := newEngine(exampleVault(), &fakeClock{t: epoch})

	results := e.Search(context.Background(), "alpha", 50)

	require.Len(t, results, 1)
	assert.Equal(t, "notes/Alpha.md", results[0].Path)
	assert.Equal(t, "Alpha.md", results[0].Name)
	assert.Equal(t, "", results[0].Snippet)
	assert.Greater(t, results[0].Score, 990.0)
}

func TestSearch_ContentMatch(t *testing.T) {
	e := newEngine(exampleVault(), &fakeClock{t: epoch})

	results := e.Search(context.Background(), "hello", 50)

	require.Len(t, results, 1)
	assert.Equal(t, "notes/Alpha.md", results[0].Path)
	assert.Contains(t, results[0].Snippet, "Hello world")
	assert.Equal(t, float64(content.DefaultMatchScore), results[0].Score)
}

func TestSearch_NameAndContentMatchAreMerged(t *testing.T) {
	store := vault.NewMemory()
	store.Put("notes/Golang.md", "Golang is fun", epoch)
	e := newEngine(store, &fakeClock{t: epoch})

	results := e.Search(context.Background(), "golang", 50)

	require.Len(t, results, 1)
	assert.Equal(t, "notes/Golang.md", results[0].Path)
	assert.Equal(t, "Golang is fun", results[0].Snippet)
	assert.GreaterOrEqual(t, results[0].Score, float64(content.DefaultMatchScore))
}

func TestSearch_ContentScoreRaisesWeakFilenameMatch(t *testing.T) {
	store := vault.NewMemory()
	store.Put("notes/Meeting.md", "the metng was long", epoch)
	e := newEngine(store, &fakeClock{t: epoch})

	results := e.Search(context.Background(), "metng", 50)

	require.Len(t, results, 1)
	assert.Equal(t, float64(content.DefaultMatchScore), results[0].Score)
	assert.Equal(t, "the metng was long", results[0].Snippet)
}

func TestSearch_EmptyQuery(t *testing.T) {
	store := exampleVault()
	e := newEngine(store, &fakeClock{t: epoch})

	assert.Equal(t, []search.SearchResult{}, e.Search(context.Background(), "", 10))
	assert.Equal(t, []search.SearchResult{}, e.Search(context.Background(), "   ", 10))
	assert.Zero(t, store.Reads())
}

func corpus() *vault.Memory {
	store := vault.NewMemory()
	for i := 0; i < 60; i++ {
		body := fmt.Sprintf("entry %d about plans", i)
		if i%3 == 0 {
			body += "\nproject plan review"
		}
		store.Put(fmt.Sprintf("notes/%02d-plan.md", i), body, epoch.Add(time.Duration(i%7)*time.Minute))
	}
	store.Put("plan.md", "the plan", epoch)
	store.Put("projects/Plan B.md", "backup", epoch)
	return store
}

func TestSearch_Invariants(t *testing.T) {
	e := newEngine(corpus(), &fakeClock{t: epoch})

	for _, q := range []string{"plan", "project", "entry 1", "pln", "zzz", "PLAN"} {
		for _, limit := range []int{1, 5, 50, 100} {
			results := e.Search(context.Background(), q, limit)

			assert.LessOrEqual(t, len(results), limit, q)
			seen := make(map[string]bool)
			for i, r := range results {
				assert.False(t, seen[r.Path], "duplicate %s for %q", r.Path, q)
				seen[r.Path] = true
				if i > 0 {
					assert.GreaterOrEqual(t, results[i-1].Score, r.Score, q)
				}
			}
		}
	}
}

func TestSearch_Deterministic(t *testing.T) {
	store := corpus()
	clock := &fakeClock{t: epoch}
	e := newEngine(store, clock)

	first := e.Search(context.Background(), "plan", 40)
	e.Invalidate()
	second := e.Search(context.Background(), "plan", 40)

	other := newEngine(store, clock).Search(context.Background(), "plan", 40)

	assert.Equal(t, first, second)
	assert.Equal(t, first, other)
}

func TestSearch_CacheTTL(t *testing.T) {
	store := exampleVault()
	clock := &fakeClock{t: epoch}
	e := newEngine(store, clock)

	first := e.Search(context.Background(), "hello", 50)
	require.Len(t, first, 1)

	store.Put("notes/Gamma.md", "hello again", epoch.Add(time.Hour))
	clock.Advance(29 * time.Second)
	assert.Equal(t, first, e.Search(context.Background(), "hello", 50))

	clock.Advance(time.Second)
	second := e.Search(context.Background(), "hello", 50)
	require.Len(t, second, 2)
	assert.Equal(t, "notes/Gamma.md", second[0].Path, "equal scores keep recency order")
}

func TestSearch_LimitIsPartOfCacheKey(t *testing.T) {
	e := newEngine(corpus(), &fakeClock{t: epoch})

	assert.Len(t, e.Search(context.Background(), "review", 1), 1)
	assert.Len(t, e.Search(context.Background(), "review", 10), 10)
}

func TestSearch_DefaultLimit(t *testing.T) {
	e := newEngine(corpus(), &fakeClock{t: epoch})

	assert.Len(t, e.Search(context.Background(), "plan", 0), 50)
}

func TestSearch_Invalidate(t *testing.T) {
	store := exampleVault()
	e := newEngine(store, &fakeClock{t: epoch})
	require.Len(t, e.Search(context.Background(), "hello", 50), 1)

	store.Put("notes/Gamma.md", "hello again", epoch)
	e.Invalidate()

	assert.Len(t, e.Search(context.Background(), "hello", 50), 2)
}

func TestSearch_ListFailureYieldsNoResults(t *testing.T) {
	store := exampleVault()
	store.FailList(errors.New("vault unavailable"))
	e := newEngine(store, &fakeClock{t: epoch})

	assert.Empty(t, e.Search(context.Background(), "alpha", 50))

	// degraded results aren't cached
	store.FailList(nil)
	assert.Len(t, e.Search(context.Background(), "alpha", 50), 1)
}

func TestSearch_ReadFailureSkipsDocument(t *testing.T) {
	store := exampleVault()
	store.Put("notes/Gamma.md", "hello again", epoch)
	store.FailRead("notes/Alpha.md", errors.New("permission denied"))
	e := newEngine(store, &fakeClock{t: epoch})

	results := e.Search(context.Background(), "hello", 50)

	require.Len(t, results, 1)
	assert.Equal(t, "notes/Gamma.md", results[0].Path)
}

type brokenBuilder struct{}

func (brokenBuilder) Build([]filename.IndexedDocument, filename.Scorer) (filename.Matcher, error) {
	return nil, errors.New("no fuzzy index")
}

func TestSearch_IndexBuildFailureFallsBackToContent(t *testing.T) {
	clock := &fakeClock{t: epoch}
	e := New(exampleVault(), Options{Now: clock.Now, Matcher: brokenBuilder{}})

	assert.Empty(t, e.Search(context.Background(), "alpha", 50))
	assert.Len(t, e.Search(context.Background(), "hello", 50), 1)
}

func TestSearch_CancelledSearchIsNotCached(t *testing.T) {
	store := exampleVault()
	e := newEngine(store, &fakeClock{t: epoch})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, e.Search(ctx, "hello", 50))

	assert.Len(t, e.Search(context.Background(), "hello", 50), 1)
}

func TestSearch_BleveBackend(t *testing.T) {
	clock := &fakeClock{t: epoch}
	e := New(exampleVault(), Options{Now: clock.Now, Matcher: bleve_indexer.Builder{}})

	results := e.Search(context.Background(), "alpha", 50)
	require.Len(t, results, 1)
	assert.Equal(t, "notes/Alpha.md", results[0].Path)
	assert.Greater(t, results[0].Score, 990.0)
}

func TestSearch_ConcurrentCallers(t *testing.T) {
	clock := &fakeClock{t: epoch}
	e := New(corpus(), Options{Now: clock.Now, IndexUpdateInterval: time.Nanosecond})
	want := newEngine(corpus(), clock).Search(context.Background(), "plan", 20)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				e.Invalidate()
			}
			assert.Equal(t, want, e.Search(context.Background(), "plan", 20))
		}(i)
	}
	wg.Wait()
}

func TestResultSet_Merge(t *testing.T) {
	s := newResultSet()
	s.merge(search.SearchResult{Path: "a.md", Score: 950})
	s.merge(search.SearchResult{Path: "b.md", Score: 800, Snippet: "b"})
	s.merge(search.SearchResult{Path: "a.md", Score: 800, Snippet: "from content"})
	s.merge(search.SearchResult{Path: "b.md", Score: 900, Snippet: "ignored"})

	assert.Equal(t, []search.SearchResult{
		{Path: "a.md", Score: 950, Snippet: "from content"},
		{Path: "b.md", Score: 900, Snippet: "b"},
	}, s.ranked(10))
	assert.Len(t, s.ranked(1), 1)
	assert.Equal(t, map[string]bool{"a.md": true, "b.md": true}, s.paths())
}
