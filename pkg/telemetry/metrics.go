package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Counters are the per-run instruments.
type Counters struct {
	collected  metric.Int64Counter
	duplicates metric.Int64Counter
	piiRecords metric.Int64Counter
}

// Instrument names.
const (
	CollectedMetric  = "datasift.records.collected"
	DuplicatesMetric = "datasift.duplicates.removed"
	PIIRecordsMetric = "datasift.pii.records"
)

// NewCounters registers the run counters on the named meter of mp.
func NewCounters(mp metric.MeterProvider, meterName string) (*Counters, error) {
	m := mp.Meter(meterName)

	collected, err := m.Int64Counter(CollectedMetric,
		metric.WithDescription("Records returned by sources"))
	if err != nil {
		return nil, err
	}
	duplicates, err := m.Int64Counter(DuplicatesMetric,
		metric.WithDescription("Records dropped as duplicates"))
	if err != nil {
		return nil, err
	}
	piiRecords, err := m.Int64Counter(PIIRecordsMetric,
		metric.WithDescription("Records with at least one PII match"))
	if err != nil {
		return nil, err
	}

	return &Counters{collected: collected, duplicates: duplicates, piiRecords: piiRecords}, nil
}

func (c *Counters) Collected(ctx context.Context, source string, n int) {
	if c == nil {
		return
	}
	c.collected.Add(ctx, int64(n), metric.WithAttributes(attribute.String("source", source)))
}

func (c *Counters) Duplicates(ctx context.Context, n int) {
	if c == nil {
		return
	}
	c.duplicates.Add(ctx, int64(n))
}

func (c *Counters) PIIRecords(ctx context.Context, n int) {
	if c == nil {
		return
	}
	c.piiRecords.Add(ctx, int64(n))
}
