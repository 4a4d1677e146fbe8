package filename

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

const (
	// A zero distance would wipe out the other fields in the product.
	perfectDistance = 0.001
	// Upper bound of the penalty for the part of a field the query doesn't
	// cover, so "alpha" is closer to "Alpha" than to "meeting-alpha-notes".
	lengthPenalty = 0.1
)

// Key is a field of an IndexedDocument taking part in fuzzy matching.
type Key struct {
	Name   string
	Weight float64
	Get    func(IndexedDocument) string
}

// DefaultKeys weights the base name twice as heavily as the path.
var DefaultKeys = []Key{
	{Name: "baseName", Weight: 2, Get: func(d IndexedDocument) string { return d.BaseName }},
	{Name: "path", Weight: 1, Get: func(d IndexedDocument) string { return d.Path }},
}

// Scorer turns per field matches into a single distance in [0,1],
// 0 being a perfect match.
type Scorer struct {
	Keys      []Key
	Threshold float64 // Fields further away than this don't count.
}

// Distance scores doc against query. The second result is false when
// no field is within the threshold.
func (s Scorer) Distance(query string, doc IndexedDocument) (float64, bool) {
	query = normalize(query)
	if query == "" {
		return 1, false
	}
	return s.combine([]rune(query), func(k int) (string, float64, bool) {
		field := normalize(s.Keys[k].Get(doc))
		matches := fuzzy.Find(query, []string{field})
		if len(matches) == 0 {
			return field, 1, false
		}
		return field, subsequenceDistance(query, matches[0]), true
	})
}

// combine folds the field distances into Π d^(w/Σw) over matched fields.
// field returns the normalized field text and its subsequence distance.
func (s Scorer) combine(query []rune, field func(k int) (string, float64, bool)) (float64, bool) {
	var totalWeight float64
	for _, k := range s.Keys {
		totalWeight += k.Weight
	}
	if totalWeight <= 0 {
		return 1, false
	}

	total, matched := 1.0, false
	for k, key := range s.Keys {
		text, best, ok := field(k)
		if d, found := substringDistance(query, []rune(text)); found && (!ok || d < best) {
			best, ok = d, true
		}
		if !ok {
			continue
		}
		best = math.Max(best, uncovered(len(query), text))
		if best > s.Threshold {
			continue
		}
		matched = true
		total *= math.Pow(math.Max(best, perfectDistance), key.Weight/totalWeight)
	}
	if !matched {
		return 1, false
	}
	return total, true
}

func uncovered(queryLen int, field string) float64 {
	n := utf8.RuneCountInString(field)
	if n == 0 || queryLen >= n {
		return 0
	}
	return (1 - float64(queryLen)/float64(n)) * lengthPenalty
}

// subsequenceDistance is 1 - len(query)/span, where span is the number
// of runes between the first and last matched character.
func subsequenceDistance(query string, m fuzzy.Match) float64 {
	if len(m.MatchedIndexes) == 0 {
		return 1
	}
	first := m.MatchedIndexes[0]
	last := m.MatchedIndexes[len(m.MatchedIndexes)-1]
	_, size := utf8.DecodeRuneInString(m.Str[last:])
	span := utf8.RuneCountInString(m.Str[first : last+size])
	n := utf8.RuneCountInString(query)
	if span <= n {
		return 0
	}
	return 1 - float64(n)/float64(span)
}

// substringDistance is the edit distance from query to its closest
// substring of text, divided by the query length. Only len(query)/4
// edits are tolerated.
func substringDistance(query, text []rune) (float64, bool) {
	m := len(query)
	if m == 0 {
		return 1, false
	}
	maxErrors := m / 4

	// Sellers: Levenshtein where the match may start anywhere in text,
	// with adjacent transpositions counting as a single edit.
	prev2 := make([]int, m+1)
	prev := make([]int, m+1)
	cur := make([]int, m+1)
	for i := range prev {
		prev[i] = i
	}
	best := prev[m]
	for j, c := range text {
		cur[0] = 0
		for i := 1; i <= m; i++ {
			cost := 1
			if query[i-1] == c {
				cost = 0
			}
			cur[i] = min(prev[i-1]+cost, prev[i]+1, cur[i-1]+1)
			if i > 1 && j > 0 && query[i-1] == text[j-1] && query[i-2] == c {
				cur[i] = min(cur[i], prev2[i-2]+1)
			}
		}
		best = min(best, cur[m])
		prev2, prev, cur = prev, cur, prev2
	}

	if best > maxErrors {
		return 1, false
	}
	return float64(best) / float64(m), true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
