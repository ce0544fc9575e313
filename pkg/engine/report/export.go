package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/DrSkyle/datasift/pkg/record"
)

// Artifact names written for every run.
const (
	ProcessedDataFile    = "processed_data.json"
	RecordsCSVFile       = "records.csv"
	SummaryFile          = "summary.json"
	ExecutiveSummaryFile = "executive_summary.md"
	SimilarPairsFile     = "similar_pairs.json"
)

// leadingColumns come first in the CSV when any record has them.
var leadingColumns = []string{"id", "source", "type", "title", "name"}

// EncodeJSON renders v as two-space indented JSON without HTML escaping.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeRecordsJSON renders the masked records as a JSON array. A nil slice
// renders as [].
func EncodeRecordsJSON(records []record.Record) ([]byte, error) {
	if records == nil {
		records = []record.Record{}
	}
	return EncodeJSON(records)
}

// EncodeCSV writes one row per record. Columns are the union of record keys:
// id, source, type, title and name first, the rest sorted. Nested values are
// written as compact JSON.
func EncodeCSV(records []record.Record) ([]byte, error) {
	header := columns(records)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	row := make([]string, len(header))
	for i, r := range records {
		for j, col := range header {
			cell, err := record.Display(r[col])
			if err != nil {
				return nil, fmt.Errorf("record %d column %s: %w", i, col, err)
			}
			row[j] = cell
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func columns(records []record.Record) []string {
	present := make(map[string]bool)
	for _, r := range records {
		for k := range r {
			present[k] = true
		}
	}

	var cols []string
	for _, c := range leadingColumns {
		if present[c] {
			cols = append(cols, c)
			delete(present, c)
		}
	}
	rest := make([]string, 0, len(present))
	for k := range present {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(cols, rest...)
}
