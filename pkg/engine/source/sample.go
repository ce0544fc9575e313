package source

import (
	"context"
	"time"

	"github.com/DrSkyle/datasift/pkg/record"
)

// StaticSource serves a fixed record set. It never fails.
type StaticSource struct {
	info    Info
	records []record.Record
}

func NewStaticSource(info Info, records []record.Record) *StaticSource {
	return &StaticSource{info: info, records: records}
}

func (s *StaticSource) Info() Info { return s.info }

func (s *StaticSource) Fetch(context.Context) ([]record.Record, error) {
	out := make([]record.Record, len(s.records))
	for i, r := range s.records {
		out[i] = record.Clone(r)
	}
	return out, nil
}

func (s *StaticSource) Samples() []record.Record { return nil }

// DemoRecords is the PII-laden demo set. Record 3 repeats the title and
// content of record 1.
func DemoRecords() []record.Record {
	now := time.Now().UTC().Format(isoMillis)
	return []record.Record{
		{
			"id":        1.0,
			"title":     "Security vulnerability in authentication",
			"content":   "Contact me at john.doe@example.com or call 555-123-4567",
			"source":    "Reddit",
			"timestamp": now,
		},
		{
			"id":        2.0,
			"title":     "Data breach at TechCorp",
			"content":   "Leaked data includes emails like admin@techcorp.com and SSN 123-45-6789",
			"source":    "HaveIBeenPwned",
			"timestamp": now,
		},
		{
			"id":        3.0,
			"title":     "Security vulnerability in authentication",
			"content":   "Contact me at john.doe@example.com or call 555-123-4567",
			"source":    "Reddit",
			"timestamp": now,
		},
		{
			"id":        4.0,
			"title":     "Cloud security best practices",
			"content":   "Credit card 4532-1234-5678-9010 was exposed. IP: 192.168.1.100",
			"source":    "Forum",
			"timestamp": now,
		},
		{
			"id":        5.0,
			"title":     "New encryption standard released",
			"content":   "This is clean data without any PII",
			"source":    "Reddit",
			"timestamp": now,
		},
	}
}

// DemoSources splits the demo set the way the demo summary reports it.
func DemoSources() []Source {
	recs := DemoRecords()
	return []Source{
		NewStaticSource(Info{
			Name: "Reddit - r/security",
			Type: "Public Forum",
			URL:  "https://www.reddit.com/r/security/",
		}, recs[:3]),
		NewStaticSource(Info{
			Name: "HaveIBeenPwned",
			Type: "Public Breach Database",
			URL:  "https://haveibeenpwned.com/",
		}, recs[3:]),
	}
}
