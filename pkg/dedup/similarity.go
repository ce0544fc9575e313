package dedup

import (
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"

	"github.com/DrSkyle/datasift/pkg/record"
)

// Pair is two record indices (IndexA < IndexB) whose similarity met the
// threshold.
type Pair struct {
	IndexA int     `json:"index_a"`
	IndexB int     `json:"index_b"`
	Score  float64 `json:"score"`
}

// StringSimilarity is 1 - distance/maxLen over runes. Two empty strings are
// identical.
func StringSimilarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 1.0
	}
	d := levenshtein.Distance(a, b, nil)
	return float64(longest-d) / float64(longest)
}

// Similarity compares the lowercased canonical forms of two records.
func Similarity(a, b record.Record) (float64, error) {
	sa, err := lowerForm(a)
	if err != nil {
		return 0, err
	}
	sb, err := lowerForm(b)
	if err != nil {
		return 0, err
	}
	return StringSimilarity(sa, sb), nil
}

// FindSimilarPairs scans every unordered pair. Cost is quadratic in the number
// of records times quadratic in record length, so keep it to offline batches;
// callers that need cancellation should chunk the input.
func FindSimilarPairs(records []record.Record, threshold float64) ([]Pair, error) {
	forms := make([]string, len(records))
	for i, r := range records {
		s, err := lowerForm(r)
		if err != nil {
			return nil, err
		}
		forms[i] = s
	}

	var pairs []Pair
	for i := 0; i < len(forms); i++ {
		for j := i + 1; j < len(forms); j++ {
			score := StringSimilarity(forms[i], forms[j])
			if score >= threshold {
				pairs = append(pairs, Pair{IndexA: i, IndexB: j, Score: score})
			}
		}
	}
	return pairs, nil
}

func lowerForm(r record.Record) (string, error) {
	s, err := record.CanonicalString(r)
	if err != nil {
		return "", err
	}
	return strings.ToLower(s), nil
}
