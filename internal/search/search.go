// Package search provides fuzzy lookup over the asset master. An index is
// built once per snapshot and queried for every keystroke-style request, so
// build cost is paid on load and queries stay allocation-light.
package search

import (
	"sort"
	"strings"

	"creditflow/internal/model"
)

// Match is one ranked search hit. Score is in (0, 1], higher is better, and
// Field names the asset field that produced the best score.
type Match struct {
	Asset model.Asset `json:"asset"`
	Score float64     `json:"score"`
	Field string      `json:"field"`
}

type indexEntry struct {
	asset  model.Asset
	fields []indexedField
}

type indexedField struct {
	name  string
	value string
}

// Index matches queries against ticker, ISIN and issuer name. Matching is
// case-insensitive and tolerates misspellings up to the distance threshold.
type Index struct {
	entries   []indexEntry
	threshold float64
	limit     int
}

// NewIndex builds an index over the asset master. threshold is the maximum
// normalized edit distance that still counts as a match (0.3 when
// non-positive); limit caps the result list (8 when non-positive).
func NewIndex(assets []model.Asset, threshold float64, limit int) *Index {
	if threshold <= 0 {
		threshold = 0.3
	}
	if limit <= 0 {
		limit = 8
	}

	entries := make([]indexEntry, 0, len(assets))
	for _, a := range assets {
		fields := make([]indexedField, 0, 3)
		for _, f := range []indexedField{
			{"ticker", a.Ticker},
			{"isin", a.ISIN},
			{"issuer", a.Issuer},
		} {
			if v := strings.ToLower(strings.TrimSpace(f.value)); v != "" {
				fields = append(fields, indexedField{f.name, v})
			}
		}
		if len(fields) == 0 {
			continue
		}
		entries = append(entries, indexEntry{asset: a, fields: fields})
	}

	return &Index{entries: entries, threshold: threshold, limit: limit}
}

// Query returns up to the index limit of matches ranked by descending score.
// An empty or whitespace query matches nothing.
func (idx *Index) Query(q string) []Match {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return nil
	}

	matches := make([]Match, 0, idx.limit)
	for _, entry := range idx.entries {
		var best float64
		var bestField string
		for _, f := range entry.fields {
			if score := idx.fieldScore(q, f.value); score > best {
				best = score
				bestField = f.name
			}
		}
		if best > 0 {
			matches = append(matches, Match{Asset: entry.asset, Score: best, Field: bestField})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > idx.limit {
		matches = matches[:idx.limit]
	}
	return matches
}

// fieldScore scores a query against one field value. Exact matches score 1,
// prefix and containment matches score high proportionally to coverage, and
// everything else falls back to normalized edit distance against the
// threshold.
func (idx *Index) fieldScore(q, value string) float64 {
	if q == value {
		return 1
	}
	if strings.HasPrefix(value, q) {
		return 0.9 * float64(len(q)) / float64(len(value))
	}
	if strings.Contains(value, q) {
		return 0.7 * float64(len(q)) / float64(len(value))
	}

	// Also try each whitespace-separated word of multi-word fields so a
	// query can hit one word of an issuer name.
	bestRatio := distanceRatio(q, value)
	if strings.ContainsRune(value, ' ') {
		for _, word := range strings.Fields(value) {
			if r := distanceRatio(q, word); r < bestRatio {
				bestRatio = r
			}
		}
	}
	if bestRatio > idx.threshold {
		return 0
	}
	return 0.6 * (1 - bestRatio)
}

// distanceRatio is the Levenshtein distance normalized by the longer string's
// length, in [0, 1].
func distanceRatio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	longer := la
	if lb > longer {
		longer = lb
	}
	if longer == 0 {
		return 0
	}
	return float64(levenshtein(a, b)) / float64(longer)
}

// levenshtein computes the edit distance between two strings using a
// two-row dynamic programming table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,
				curr[j-1]+1,
				prev[j-1]+cost,
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
