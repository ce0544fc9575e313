package source

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/DrSkyle/datasift/pkg/record"
)

// Outcome is what one source produced in a run.
type Outcome struct {
	Info    Info
	Records []record.Record
	// Err is the live fetch error, kept even when samples were used.
	Err      error
	Fallback bool
}

// Registry manages a collection of sources.
type Registry struct {
	sources []Source
}

// NewRegistry creates a new source registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: []Source{},
	}
}

// Register adds a source to the registry.
func (r *Registry) Register(s Source) {
	r.sources = append(r.sources, s)
}

// Len reports the number of registered sources.
func (r *Registry) Len() int {
	return len(r.sources)
}

// FetchAll runs every source concurrently. Outcomes come back in
// registration order. When fallback is set, a failed source contributes its
// sample records instead of nothing.
func (r *Registry) FetchAll(ctx context.Context, fallback bool) []Outcome {
	outcomes := make([]Outcome, len(r.sources))

	// Failures are per-source outcomes and never cancel the other fetches.
	var g errgroup.Group
	for i, s := range r.sources {
		g.Go(func() error {
			outcomes[i] = fetchWithTelemetry(ctx, s, fallback)
			return nil
		})
	}
	g.Wait()

	return outcomes
}

func fetchWithTelemetry(ctx context.Context, s Source, fallback bool) Outcome {
	info := s.Info()
	tr := otel.Tracer("datasift/source")
	ctx, span := tr.Start(ctx, info.Name, trace.WithAttributes(
		attribute.String("source.type", info.Type),
		attribute.String("source.url", info.URL),
	))
	defer span.End()

	slog.Debug("Starting Source", "name", info.Name)
	recs, err := s.Fetch(ctx)
	out := Outcome{Info: info, Records: recs, Err: err}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("Source encountered error", "name", info.Name, "error", err)

		out.Records = nil
		if fallback {
			out.Records = s.Samples()
			out.Fallback = true
			slog.Warn("Using sample data", "name", info.Name, "count", len(out.Records))
		}
	} else {
		slog.Debug("Source completed", "name", info.Name, "count", len(recs))
	}

	span.SetAttributes(attribute.Int("records", len(out.Records)))
	return out
}
