package pii

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/DrSkyle/datasift/pkg/record"
)

// Result is the outcome of scanning one record.
type Result struct {
	Masked   record.Record
	PIIFound bool
	// Types holds the raw match count per category, including zeros.
	Types map[Category]int
}

// Scanner applies a PatternSet. It holds no mutable state and is safe for
// concurrent use.
type Scanner struct {
	patterns PatternSet
}

// NewScanner builds a scanner over the given rules. An empty set falls back
// to DefaultPatterns.
func NewScanner(patterns PatternSet) *Scanner {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}
	return &Scanner{patterns: patterns}
}

// Patterns returns the rule table in use.
func (s *Scanner) Patterns() PatternSet {
	return s.patterns
}

func (s *Scanner) newCounts() map[Category]int {
	counts := make(map[Category]int, len(s.patterns))
	for _, r := range s.patterns {
		counts[r.Category] = 0
	}
	return counts
}

// maskString runs every rule over text in order, adding match counts.
func (s *Scanner) maskString(text string, counts map[Category]int) string {
	for _, r := range s.patterns {
		n := 0
		text = r.Pattern.ReplaceAllStringFunc(text, func(m string) string {
			n++
			return r.Mask(m)
		})
		counts[r.Category] += n
	}
	return text
}

// ScanAndMask walks the record and masks string values in place of a copy.
// Keys, numbers, booleans and nulls are left alone. The input is not
// modified.
func (s *Scanner) ScanAndMask(r record.Record) (Result, error) {
	if _, err := record.Canonical(r); err != nil {
		return Result{}, err
	}

	counts := s.newCounts()
	var masked record.Record
	if r != nil {
		masked = record.Record(s.walkMap(r, counts))
	}
	return Result{Masked: masked, PIIFound: anyFound(counts), Types: counts}, nil
}

func (s *Scanner) walkMap(m map[string]any, counts map[Category]int) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = s.walk(v, counts)
	}
	return out
}

func (s *Scanner) walk(v any, counts map[Category]int) any {
	switch t := v.(type) {
	case string:
		return s.maskString(t, counts)
	case record.Record:
		return record.Record(s.walkMap(t, counts))
	case map[string]any:
		return s.walkMap(t, counts)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = s.walk(e, counts)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, e := range t {
			out[i] = s.maskString(e, counts)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, e := range t {
			out[k] = s.maskString(e, counts)
		}
		return out
	case json.Number:
		return v
	default:
		return s.walkOther(v, counts)
	}
}

// walkOther handles values outside the JSON-shaped types. Numeric and bool
// kinds pass through. Anything else (typed slices and maps, structs, named
// strings) is rebuilt from its JSON form and walked.
func (s *Scanner) walkOther(v any, counts map[Category]int) any {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Invalid, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return v
	}

	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return v
	}
	return s.walk(generic, counts)
}

// ScanAndMaskSerialized masks the record's canonical JSON text and decodes
// the result. Unlike ScanAndMask it also rewrites keys and numeric literals,
// and fails with record.ErrUnserializable if masking breaks the JSON.
func (s *Scanner) ScanAndMaskSerialized(r record.Record) (Result, error) {
	text, err := record.CanonicalString(r)
	if err != nil {
		return Result{}, err
	}

	counts := s.newCounts()
	text = s.maskString(text, counts)

	var masked record.Record
	if err := json.Unmarshal([]byte(text), &masked); err != nil {
		return Result{}, fmt.Errorf("%w: masked text no longer parses: %v", record.ErrUnserializable, err)
	}
	return Result{Masked: masked, PIIFound: anyFound(counts), Types: counts}, nil
}

// SanitizeText masks a plain string with fixed redactions (email keeps its
// partial reveal). Rules without a Redact func are skipped.
func (s *Scanner) SanitizeText(text string) string {
	if text == "" {
		return text
	}
	for _, r := range s.patterns {
		if r.Redact == nil {
			continue
		}
		text = r.Pattern.ReplaceAllStringFunc(text, r.Redact)
	}
	return text
}

func anyFound(counts map[Category]int) bool {
	for _, n := range counts {
		if n > 0 {
			return true
		}
	}
	return false
}

// Totals sums per-category counts across results and counts the records with
// any PII.
type Totals struct {
	Records int              `json:"records_with_pii"`
	Types   map[Category]int `json:"types"`
}

// Add folds one result into the totals.
func (t *Totals) Add(res Result) {
	if t.Types == nil {
		t.Types = make(map[Category]int)
	}
	if res.PIIFound {
		t.Records++
	}
	for c, n := range res.Types {
		t.Types[c] += n
	}
}
