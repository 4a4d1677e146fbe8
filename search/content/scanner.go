// Package content scans note bodies for a literal, case-insensitive
// substring match.
package content

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/noelzubin/notes_search/logger"
	"github.com/noelzubin/notes_search/search"
	"github.com/noelzubin/notes_search/search/markup"
	"github.com/noelzubin/notes_search/search/snippet"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize     = 20
	DefaultMatchScore    = 800
	DefaultContextLength = 50
)

type Scanner struct {
	store         search.DocumentStore
	batchSize     int
	matchScore    float64
	contextLength int
}

func NewScanner(store search.DocumentStore, batchSize int, matchScore float64, contextLength int) *Scanner {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Scanner{
		store:         store,
		batchSize:     batchSize,
		matchScore:    matchScore,
		contextLength: contextLength,
	}
}

// Result holds the notes found by a scan. Found are new results, Updates
// are content matches for paths that were already found elsewhere.
type Result struct {
	Found   []search.SearchResult
	Updates []search.SearchResult
}

// Scan looks for query in docs, most recently modified first. Batches are
// read concurrently but folded in order, so the result doesn't depend on
// which read finishes first. No new batch is started once limit notes
// matched or ctx is done.
func (s *Scanner) Scan(ctx context.Context, docs []search.Document, query string, alreadyFound map[string]bool, limit int) Result {
	var res Result

	query = lower(query)
	if query == "" {
		return res
	}

	ordered := make([]search.Document, len(docs))
	copy(ordered, docs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ModTime.After(ordered[j].ModTime)
	})

	accepted := 0
	for start := 0; start < len(ordered) && accepted < limit; start += s.batchSize {
		if ctx.Err() != nil {
			logger.Debug("content scan cancelled after %d notes", start)
			break
		}

		batch := ordered[start:min(start+s.batchSize, len(ordered))]
		matches := make([]*search.SearchResult, len(batch))

		var g errgroup.Group
		for i, doc := range batch {
			i, doc := i, doc
			g.Go(func() error {
				matches[i] = s.match(ctx, doc, query)
				return nil
			})
		}
		g.Wait()

		for _, m := range matches {
			if m == nil {
				continue
			}
			accepted++
			if alreadyFound[m.Path] {
				res.Updates = append(res.Updates, *m)
			} else {
				res.Found = append(res.Found, *m)
			}
		}
	}
	return res
}

// match reads, strips and searches one note. Read failures count as no
// match.
func (s *Scanner) match(ctx context.Context, doc search.Document, query string) (res *search.SearchResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("skipping %s: %v", doc.Path, r)
			res = nil
		}
	}()

	raw, err := s.store.Read(ctx, doc.Path)
	if err != nil {
		logger.Warn("skipping %s: %v", doc.Path, err)
		return nil
	}

	text := markup.Strip(raw)
	folded, offsets := lowerWithOffsets(text)
	idx := strings.Index(folded, query)
	if idx < 0 {
		return nil
	}
	start, end := offsets[idx], offsets[idx+len(query)]

	return &search.SearchResult{
		Path:    doc.Path,
		Name:    doc.Name,
		Score:   s.matchScore,
		Snippet: snippet.Extract(text, start, text[start:end], s.contextLength),
	}
}

// lowerWithOffsets lowercases s rune by rune. offsets[i] is the byte
// offset in s of the rune that produced byte i of the result, with one
// extra entry for the end. Lowercasing may change byte lengths (K, İ).
func lowerWithOffsets(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)
	for i, r := range s {
		n := b.Len()
		b.WriteRune(unicode.ToLower(r))
		for ; n < b.Len(); n++ {
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(s))
	return b.String(), offsets
}

func lower(s string) string {
	l, _ := lowerWithOffsets(s)
	return l
}
