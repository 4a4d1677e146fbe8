package filename

import (
	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
)

// SubsequenceBuilder builds matchers that run sahilm/fuzzy subsequence
// matching over every key, backed by an approximate substring search
// for typos.
type SubsequenceBuilder struct{}

func (SubsequenceBuilder) Build(docs []IndexedDocument, scorer Scorer) (Matcher, error) {
	fields := make([][]string, len(scorer.Keys))
	for k, key := range scorer.Keys {
		fields[k] = lo.Map(docs, func(d IndexedDocument, _ int) string {
			return normalize(key.Get(d))
		})
	}
	return &subsequenceMatcher{scorer: scorer, fields: fields, size: len(docs)}, nil
}

// fieldSource implements fuzzy.Source over one key of every document.
type fieldSource []string

func (s fieldSource) String(i int) string { return s[i] }
func (s fieldSource) Len() int            { return len(s) }

type subsequenceMatcher struct {
	scorer Scorer
	fields [][]string // fields[key][doc], normalized
	size   int
}

func (m *subsequenceMatcher) Query(text string) []Match {
	query := normalize(text)
	if query == "" {
		return nil
	}

	// subsequence distance per key, per document
	subseq := make([]map[int]float64, len(m.fields))
	for k, values := range m.fields {
		subseq[k] = make(map[int]float64)
		for _, fm := range fuzzy.FindFrom(query, fieldSource(values)) {
			subseq[k][fm.Index] = subsequenceDistance(query, fm)
		}
	}

	runes := []rune(query)
	var matches []Match
	for i := 0; i < m.size; i++ {
		d, ok := m.scorer.combine(runes, func(k int) (string, float64, bool) {
			dist, found := subseq[k][i]
			return m.fields[k][i], dist, found
		})
		if ok {
			matches = append(matches, Match{Item: i, Distance: d})
		}
	}
	return matches
}
