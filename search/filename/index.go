// Package filename keeps a fuzzy searchable index over the names and
// paths of the most recently modified notes.
package filename

import (
	"io"
	"sort"
	"sync"
	"time"

	"github.com/noelzubin/notes_search/logger"
	"github.com/noelzubin/notes_search/search"
	"github.com/samber/lo"
)

// IndexedDocument is the part of a search.Document that gets indexed.
type IndexedDocument struct {
	Path     string
	Name     string
	BaseName string
}

// Match is an item position in the indexed slice and its distance.
type Match struct {
	Item     int
	Distance float64
}

// Matcher answers fuzzy queries over a fixed set of documents.
// Matchers holding resources may implement io.Closer.
type Matcher interface {
	Query(text string) []Match
}

// Builder creates a Matcher for a snapshot of documents.
type Builder interface {
	Build(docs []IndexedDocument, scorer Scorer) (Matcher, error)
}

// DefaultThreshold accepts roughly one typo in four characters.
const DefaultThreshold = 0.4

// Hit is a filename search result.
type Hit struct {
	Doc      IndexedDocument
	Distance float64
}

type Options struct {
	Builder        Builder
	Keys           []Key
	Threshold      float64
	MaxSize        int
	UpdateInterval time.Duration
	Now            func() time.Time
}

// Index is replaced wholesale on every rebuild, it is never patched.
type Index struct {
	opts Options

	rebuildMu sync.Mutex // one rebuild at a time

	mu      sync.RWMutex
	docs    []IndexedDocument
	matcher Matcher
	builtAt time.Time
	built   bool
}

func NewIndex(opts Options) *Index {
	if opts.Builder == nil {
		opts.Builder = SubsequenceBuilder{}
	}
	if opts.Keys == nil {
		opts.Keys = DefaultKeys
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Index{opts: opts}
}

// Stale reports whether the index needs a rebuild before use.
func (x *Index) Stale() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.staleLocked()
}

func (x *Index) staleLocked() bool {
	return !x.built || x.opts.Now().Sub(x.builtAt) >= x.opts.UpdateInterval
}

// MarkStale forces a rebuild on the next RebuildIfStale.
func (x *Index) MarkStale() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.built = false
}

// RebuildIfStale rebuilds the index from docs if it doesn't exist yet or
// is older than the update interval. Returns true if it rebuilt.
func (x *Index) RebuildIfStale(docs []search.Document) bool {
	x.rebuildMu.Lock()
	defer x.rebuildMu.Unlock()

	if !x.Stale() {
		return false
	}

	recent := make([]search.Document, len(docs))
	copy(recent, docs)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].ModTime.After(recent[j].ModTime)
	})
	if x.opts.MaxSize > 0 && len(recent) > x.opts.MaxSize {
		recent = recent[:x.opts.MaxSize]
	}

	indexed := lo.Map(recent, func(d search.Document, _ int) IndexedDocument {
		return IndexedDocument{Path: d.Path, Name: d.Name, BaseName: d.BaseName}
	})

	matcher, err := x.opts.Builder.Build(indexed, x.scorer())
	if err != nil {
		logger.Warn("building filename index: %v", err)
		indexed, matcher = nil, nil
	}

	x.mu.Lock()
	old := x.matcher
	x.docs, x.matcher = indexed, matcher
	x.builtAt, x.built = x.opts.Now(), true
	x.mu.Unlock()

	if c, ok := old.(io.Closer); ok {
		c.Close()
	}

	logger.Debug("filename index rebuilt with %d of %d notes", len(indexed), len(docs))
	return true
}

// Search returns the documents matching query, best first. Ties keep
// recency order.
func (x *Index) Search(query string) []Hit {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.matcher == nil {
		return nil
	}

	matches := x.matcher.Query(query)
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Item < matches[j].Item
	})

	hits := make([]Hit, 0, len(matches))
	for _, m := range matches {
		if m.Item < 0 || m.Item >= len(x.docs) {
			continue
		}
		hits = append(hits, Hit{Doc: x.docs[m.Item], Distance: m.Distance})
	}
	return hits
}

// Len is the number of indexed documents.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.docs)
}

func (x *Index) scorer() Scorer {
	return Scorer{Keys: x.opts.Keys, Threshold: x.opts.Threshold}
}
