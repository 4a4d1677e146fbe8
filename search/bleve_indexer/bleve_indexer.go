package bleve_indexer

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/noelzubin/notes_search/logger"
	"github.com/noelzubin/notes_search/search/filename"
	"github.com/samber/lo"

	_ "github.com/blevesearch/bleve/v2/config"
)

// Builder is a filename.Builder backed by an in-memory bleve index.
// bleve finds the candidates with fuzzy, prefix and infix term queries,
// the filename.Scorer then decides on the distance so results are on the
// same scale as the other backends.
type Builder struct{}

// bleveMatcher implements filename.Matcher. The index lives only as long
// as the filename index snapshot it was built for.
type bleveMatcher struct {
	index  bleve.Index
	docs   []filename.IndexedDocument
	scorer filename.Scorer
}

func (Builder) Build(docs []filename.IndexedDocument, scorer filename.Scorer) (filename.Matcher, error) {
	mapping := bleve.NewIndexMapping()
	index, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, err
	}

	batch := index.NewBatch()
	for i, d := range docs {
		fields := make(map[string]interface{}, len(scorer.Keys))
		for _, key := range scorer.Keys {
			fields[key.Name] = key.Get(d)
		}
		if err := batch.Index(strconv.Itoa(i), fields); err != nil {
			index.Close()
			return nil, err
		}
	}
	if err := index.Batch(batch); err != nil {
		index.Close()
		return nil, err
	}

	return &bleveMatcher{index: index, docs: docs, scorer: scorer}, nil
}

func (m *bleveMatcher) Query(text string) []filename.Match {
	q := m.candidateQuery(text)
	if q == nil || len(m.docs) == 0 {
		return nil
	}

	req := bleve.NewSearchRequest(q)
	req.Size = len(m.docs)
	res, err := m.index.Search(req)
	if err != nil {
		logger.Warn("bleve filename search %q: %v", text, err)
		return nil
	}

	var matches []filename.Match
	for _, hit := range res.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(m.docs) {
			continue
		}
		if d, ok := m.scorer.Distance(text, m.docs[i]); ok {
			matches = append(matches, filename.Match{Item: i, Distance: d})
		}
	}
	if len(res.Hits) == 0 {
		// typos spanning a token boundary never become bleve candidates
		return m.scoreAll(text)
	}
	return matches
}

func (m *bleveMatcher) scoreAll(text string) []filename.Match {
	var matches []filename.Match
	for i, d := range m.docs {
		if dist, ok := m.scorer.Distance(text, d); ok {
			matches = append(matches, filename.Match{Item: i, Distance: dist})
		}
	}
	return matches
}

func (m *bleveMatcher) Close() error {
	return m.index.Close()
}

// candidateQuery ORs fuzzy, prefix and subsequence queries for every
// term of text on every key, boosted by the key weight.
func (m *bleveMatcher) candidateQuery(text string) query.Query {
	terms := lo.Uniq(strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}))
	if len(terms) == 0 {
		return nil
	}

	var disjuncts []query.Query
	for _, key := range m.scorer.Keys {
		for _, term := range terms {
			fuzzy := bleve.NewFuzzyQuery(term)
			fuzzy.SetField(key.Name)
			fuzzy.SetFuzziness(fuzziness(term))
			fuzzy.SetBoost(key.Weight)

			prefix := bleve.NewPrefixQuery(term)
			prefix.SetField(key.Name)
			prefix.SetBoost(key.Weight)

			subseq := bleve.NewWildcardQuery(subsequencePattern(term))
			subseq.SetField(key.Name)
			subseq.SetBoost(key.Weight)

			disjuncts = append(disjuncts, fuzzy, prefix, subseq)
		}
	}
	return bleve.NewDisjunctionQuery(disjuncts...)
}

// subsequencePattern turns "mtg" into "*m*t*g*". Terms only hold letters
// and digits so nothing needs escaping.
func subsequencePattern(term string) string {
	var b strings.Builder
	b.WriteByte('*')
	for _, r := range term {
		b.WriteRune(r)
		b.WriteByte('*')
	}
	return b.String()
}

// bleve allows at most two edits. A transposition costs two.
func fuzziness(term string) int {
	if len([]rune(term)) < 4 {
		return 0
	}
	return 2
}
