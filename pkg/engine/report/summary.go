// Package report builds the run summary and renders the run artifacts.
package report

import (
	"sort"
	"time"

	"github.com/DrSkyle/datasift/pkg/pii"
)

// SourceSummary describes what one source contributed to a run.
type SourceSummary struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	URL              string `json:"url"`
	RecordsCollected int    `json:"records_collected"`
	// Fallback is set when the records are built-in samples because the
	// live fetch failed.
	Fallback bool   `json:"fallback,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Summary is the statistics block of a run.
type Summary struct {
	RunID             string               `json:"run_id"`
	Sources           []SourceSummary      `json:"sources"`
	TotalRecords      int                  `json:"total_records"`
	UniqueRecords     int                  `json:"unique_records"`
	DuplicatesRemoved int                  `json:"duplicates_removed"`
	PIIDetected       int                  `json:"pii_detected"`
	PIITypes          map[pii.Category]int `json:"pii_types"`
	RuleMatches       map[string]int       `json:"rule_matches,omitempty"`
	DroppedByRules    int                  `json:"dropped_by_rules"`
	FinalRecords      int                  `json:"final_records"`
	SimilarPairs      int                  `json:"similar_pairs,omitempty"`
	Timestamp         time.Time            `json:"timestamp"`
}

// Partial reports whether any source failed.
func (s Summary) Partial() bool {
	for _, src := range s.Sources {
		if src.Error != "" {
			return true
		}
	}
	return false
}

// orderedCategories lists the built-in categories first, then any custom
// ones alphabetically.
func orderedCategories(types map[pii.Category]int) []pii.Category {
	out := pii.DefaultPatterns().Categories()
	known := make(map[pii.Category]bool, len(out))
	for _, c := range out {
		known[c] = true
	}
	var extra []pii.Category
	for c := range types {
		if !known[c] {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
