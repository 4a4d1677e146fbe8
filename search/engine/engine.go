// Package engine ties the filename index, the content scanner and the
// result cache together into a single search call.
package engine

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/noelzubin/notes_search/logger"
	"github.com/noelzubin/notes_search/search"
	"github.com/noelzubin/notes_search/search/cache"
	"github.com/noelzubin/notes_search/search/content"
	"github.com/noelzubin/notes_search/search/filename"
)

// Ensure Engine implements the interface.
var _ search.NotesSearcher = (*Engine)(nil)

// MaxScore is the score of a perfect filename match.
const MaxScore = 1000

type Options struct {
	IndexUpdateInterval time.Duration
	MaxIndexSize        int
	CacheTTL            time.Duration
	MaxCacheSize        int
	BatchSize           int
	ContentScore        float64
	SnippetContext      int
	DefaultLimit        int
	FuzzyThreshold      float64
	Matcher             filename.Builder // defaults to filename.SubsequenceBuilder
	Now                 func() time.Time
}

func DefaultOptions() Options {
	return Options{
		IndexUpdateInterval: 5 * time.Second,
		MaxIndexSize:        5000,
		CacheTTL:            cache.DefaultTTL,
		MaxCacheSize:        cache.DefaultMaxSize,
		BatchSize:           content.DefaultBatchSize,
		ContentScore:        content.DefaultMatchScore,
		SnippetContext:      content.DefaultContextLength,
		DefaultLimit:        50,
		FuzzyThreshold:      filename.DefaultThreshold,
		Matcher:             filename.SubsequenceBuilder{},
		Now:                 time.Now,
	}
}

// withDefaults fills in every zero field.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.IndexUpdateInterval <= 0 {
		o.IndexUpdateInterval = d.IndexUpdateInterval
	}
	if o.MaxIndexSize <= 0 {
		o.MaxIndexSize = d.MaxIndexSize
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = d.CacheTTL
	}
	if o.MaxCacheSize <= 0 {
		o.MaxCacheSize = d.MaxCacheSize
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.ContentScore <= 0 {
		o.ContentScore = d.ContentScore
	}
	if o.SnippetContext <= 0 {
		o.SnippetContext = d.SnippetContext
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = d.DefaultLimit
	}
	if o.FuzzyThreshold <= 0 {
		o.FuzzyThreshold = d.FuzzyThreshold
	}
	if o.Matcher == nil {
		o.Matcher = d.Matcher
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}

// Engine owns its filename index and result cache. Engines don't share
// any state, so several can run side by side.
type Engine struct {
	store   search.DocumentStore
	opts    Options
	index   *filename.Index
	cache   *cache.Cache
	scanner *content.Scanner
}

func New(store search.DocumentStore, opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		store: store,
		opts:  opts,
		index: filename.NewIndex(filename.Options{
			Builder:        opts.Matcher,
			Threshold:      opts.FuzzyThreshold,
			MaxSize:        opts.MaxIndexSize,
			UpdateInterval: opts.IndexUpdateInterval,
			Now:            opts.Now,
		}),
		cache:   cache.New(opts.CacheTTL, opts.MaxCacheSize, opts.Now),
		scanner: content.NewScanner(store, opts.BatchSize, opts.ContentScore, opts.SnippetContext),
	}
}

// Search returns at most limit results for query, best first. It never
// fails: notes that can't be listed or read are left out. A limit below 1
// means the default limit.
func (e *Engine) Search(ctx context.Context, query string, limit int) (results []search.SearchResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("search %q: %v", query, r)
			results = []search.SearchResult{}
		}
	}()

	logger.Section("Search")

	query = strings.TrimSpace(query)
	if query == "" {
		return []search.SearchResult{}
	}
	if limit < 1 {
		limit = e.opts.DefaultLimit
	}

	key := cache.Key{Query: query, Limit: limit}
	if entry, ok := e.cache.Get(key); ok {
		logger.Debug("cache hit for %q (limit %d)", query, limit)
		return entry.Results
	}

	set := newResultSet()

	docs, err := e.store.List(ctx)
	listed := err == nil
	if !listed {
		// no index this round, and nothing to scan either
		logger.Warn("listing notes: %v", err)
		docs = nil
	} else {
		e.index.RebuildIfStale(docs)
		hits := e.index.Search(query)
		if len(hits) > limit {
			hits = hits[:limit]
		}
		for _, h := range hits {
			set.merge(search.SearchResult{
				Path:  h.Doc.Path,
				Name:  h.Doc.Name,
				Score: (1 - h.Distance) * MaxScore,
			})
		}
		logger.Debug("%d filename matches", len(hits))
	}

	scan := e.scanner.Scan(ctx, docs, query, set.paths(), limit)
	for _, r := range scan.Found {
		set.merge(r)
	}
	for _, r := range scan.Updates {
		set.merge(r)
	}
	logger.Debug("%d content matches, %d merged into filename matches", len(scan.Found), len(scan.Updates))

	results = set.ranked(limit)

	if !listed || ctx.Err() != nil {
		logger.Debug("search %q incomplete, not caching", query)
		return results
	}
	e.cache.Put(key, results)
	return results
}

// Invalidate drops cached results and forces an index rebuild on the
// next search.
func (e *Engine) Invalidate() {
	e.cache.Clear()
	e.index.MarkStale()
	logger.Debug("search state invalidated")
}

// resultSet is the working set of a search, one result per path in
// insertion order.
type resultSet struct {
	results []search.SearchResult
	byPath  map[string]int
}

func newResultSet() *resultSet {
	return &resultSet{byPath: make(map[string]int)}
}

// merge adds r, or folds it into the result already held for its path:
// the higher score wins and an empty snippet gets filled in.
func (s *resultSet) merge(r search.SearchResult) {
	i, ok := s.byPath[r.Path]
	if !ok {
		s.byPath[r.Path] = len(s.results)
		s.results = append(s.results, r)
		return
	}
	cur := &s.results[i]
	if r.Score > cur.Score {
		cur.Score = r.Score
	}
	if cur.Snippet == "" {
		cur.Snippet = r.Snippet
	}
}

func (s *resultSet) paths() map[string]bool {
	found := make(map[string]bool, len(s.byPath))
	for p := range s.byPath {
		found[p] = true
	}
	return found
}

// ranked sorts by score, keeping insertion order for ties, and truncates.
func (s *resultSet) ranked(limit int) []search.SearchResult {
	out := make([]search.SearchResult, len(s.results))
	copy(out, s.results)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
