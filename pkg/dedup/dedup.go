// Package dedup removes duplicate records and scores near-duplicates.
package dedup

import (
	"fmt"

	"github.com/DrSkyle/datasift/pkg/record"
)

// Options selects the hashing strategy. The zero value hashes whole records.
type Options struct {
	// Fields, when non-empty, keys dedup on these fields only.
	Fields []string `mapstructure:"fields" yaml:"fields"`
	// FallbackKey keys dedup on the first non-empty of title, name or id
	// (else the canonical form). Ignored when Fields is set.
	FallbackKey bool `mapstructure:"fallback_key" yaml:"fallback_key"`
}

// Result holds the deduplicated records and the counts that go into the run
// summary. FinalCount + RemovedCount == OriginalCount.
type Result struct {
	Records       []record.Record
	RemovedCount  int
	OriginalCount int
	FinalCount    int
}

var fallbackFields = []string{"title", "name", "id"}

// Deduplicate keeps the first record for each key, preserving input order.
// Records are returned by reference, not copied.
func Deduplicate(records []record.Record, opts Options) (Result, error) {
	if len(records) == 0 {
		return Result{Records: records}, nil
	}

	seen := make(map[string]struct{}, len(records))
	out := make([]record.Record, 0, len(records))
	removed := 0

	for i, r := range records {
		key, err := opts.key(r)
		if err != nil {
			return Result{}, fmt.Errorf("dedup record %d: %w", i, err)
		}
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}

	return Result{
		Records:       out,
		RemovedCount:  removed,
		OriginalCount: len(records),
		FinalCount:    len(out),
	}, nil
}

func (o Options) key(r record.Record) (string, error) {
	switch {
	case len(o.Fields) > 0:
		return record.FieldFingerprint(r, o.Fields)
	case o.FallbackKey:
		for _, f := range fallbackFields {
			if s := record.StringValue(r[f]); s != "" {
				return s, nil
			}
		}
		return record.CanonicalString(r)
	default:
		return record.Fingerprint(r)
	}
}
