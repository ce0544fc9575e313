package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/DrSkyle/datasift/pkg/config"
	"github.com/DrSkyle/datasift/pkg/dedup"
	"github.com/DrSkyle/datasift/pkg/engine/history"
	"github.com/DrSkyle/datasift/pkg/engine/policy"
	"github.com/DrSkyle/datasift/pkg/engine/report"
	"github.com/DrSkyle/datasift/pkg/pii"
	"github.com/DrSkyle/datasift/pkg/record"
)

// trendWindow is how many past runs feed the trend analysis.
const trendWindow = 10

// Result is everything one run produced.
type Result struct {
	Summary      report.Summary
	Records      []record.Record
	SimilarPairs []dedup.Pair
	Trend        history.Trend
	// Artifacts are the locations written, in write order.
	Artifacts []string
}

func (e *Engine) runPipeline(ctx context.Context) (*Result, error) {
	res := &Result{
		Summary: report.Summary{
			RunID:     uuid.NewString(),
			Timestamp: time.Now().UTC(),
		},
	}

	// Phase 1: collect.
	all := e.collect(ctx, &res.Summary)
	res.Summary.TotalRecords = len(all)
	e.Logger.Info("Records collected", "count", len(all))

	// Phase 2: dedup runs on raw content, before any masking.
	_, span := e.Tracer.Start(ctx, "Deduplicate")
	deduped, err := dedup.Deduplicate(all, e.config.Dedup)
	span.End()
	if err != nil {
		return nil, err
	}
	res.Summary.UniqueRecords = deduped.FinalCount
	res.Summary.DuplicatesRemoved = deduped.RemovedCount
	e.Metrics.Duplicates(ctx, deduped.RemovedCount)
	e.Logger.Info("Deduplication complete", "removed", deduped.RemovedCount, "unique", deduped.FinalCount)

	// Phase 3: mask.
	scans, err := e.maskAll(ctx, deduped.Records)
	if err != nil {
		return nil, err
	}
	totals := pii.Totals{Types: make(map[pii.Category]int)}
	for _, c := range e.Scanner.Patterns().Categories() {
		totals.Types[c] = 0
	}
	for _, s := range scans {
		totals.Add(s)
	}
	res.Summary.PIIDetected = totals.Records
	res.Summary.PIITypes = totals.Types
	e.Metrics.PIIRecords(ctx, totals.Records)
	e.Logger.Info("PII masking complete", "records_with_pii", totals.Records)

	// Phase 4: rules.
	final, err := e.applyRules(ctx, scans, &res.Summary)
	if err != nil {
		return nil, err
	}
	res.Records = final
	res.Summary.FinalRecords = len(final)

	// Phase 5: optional similarity pass.
	if e.config.Analysis.FindSimilar {
		threshold := e.config.Analysis.Threshold
		if threshold <= 0 {
			threshold = config.DefaultThreshold
		}
		_, span := e.Tracer.Start(ctx, "FindSimilarPairs")
		pairs, err := dedup.FindSimilarPairs(final, threshold)
		span.End()
		if err != nil {
			return nil, err
		}
		res.SimilarPairs = pairs
		res.Summary.SimilarPairs = len(pairs)
	}

	// Phase 6: persist.
	artifacts, err := e.persist(ctx, res)
	if err != nil {
		return nil, err
	}
	res.Artifacts = artifacts

	// Phase 7: history and notifications never fail the run.
	res.Trend = e.recordHistory(ctx, res.Summary)
	if e.Notifier != nil {
		if err := e.Notifier.SendRunReport(ctx, res.Summary); err != nil {
			e.Logger.Warn("Failed to send Slack report", "error", err)
		}
	}

	return res, nil
}

// collect fetches every source and stitches the records together in
// registration order.
func (e *Engine) collect(ctx context.Context, summary *report.Summary) []record.Record {
	ctx, span := e.Tracer.Start(ctx, "Collect")
	defer span.End()

	var all []record.Record
	for _, out := range e.Registry.FetchAll(ctx, e.config.SampleFallback) {
		src := report.SourceSummary{
			Name:             out.Info.Name,
			Type:             out.Info.Type,
			URL:              out.Info.URL,
			RecordsCollected: len(out.Records),
			Fallback:         out.Fallback,
		}
		if out.Err != nil {
			src.Error = out.Err.Error()
		}
		summary.Sources = append(summary.Sources, src)
		all = append(all, out.Records...)
		e.Metrics.Collected(ctx, out.Info.Name, len(out.Records))
	}
	span.SetAttributes(attribute.Int("records", len(all)))
	return all
}

// maskAll scans records concurrently. Results keep input order.
func (e *Engine) maskAll(ctx context.Context, records []record.Record) ([]pii.Result, error) {
	ctx, span := e.Tracer.Start(ctx, "MaskPII")
	defer span.End()

	out := make([]pii.Result, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i, r := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.Scanner.ScanAndMask(r)
			if err != nil {
				return fmt.Errorf("mask record %d: %w", i, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

// applyRules drops or flags masked records. Without rules every masked
// record is kept.
func (e *Engine) applyRules(ctx context.Context, scans []pii.Result, summary *report.Summary) ([]record.Record, error) {
	final := make([]record.Record, 0, len(scans))
	if e.Rules == nil || e.Rules.Len() == 0 {
		for _, s := range scans {
			final = append(final, s.Masked)
		}
		return final, nil
	}

	ctx, span := e.Tracer.Start(ctx, "ApplyRules")
	defer span.End()

	summary.RuleMatches = make(map[string]int)
	for _, s := range scans {
		matches, err := e.Rules.Evaluate(ctx, policy.EvaluationContext{
			Record:   s.Masked,
			PIIFound: s.PIIFound,
			PIITypes: s.Types,
		})
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			summary.RuleMatches[m.ID]++
		}
		if policy.Drops(matches) {
			summary.DroppedByRules++
			continue
		}
		final = append(final, s.Masked)
	}

	e.Logger.Info("Rule evaluation complete", "dropped", summary.DroppedByRules)
	return final, nil
}

// persist writes the run artifacts to the store.
func (e *Engine) persist(ctx context.Context, res *Result) ([]string, error) {
	ctx, span := e.Tracer.Start(ctx, "Persist")
	defer span.End()

	records, err := report.EncodeRecordsJSON(res.Records)
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	csvData, err := report.EncodeCSV(res.Records)
	if err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	summary, err := report.EncodeJSON(res.Summary)
	if err != nil {
		return nil, fmt.Errorf("encode summary: %w", err)
	}

	artifacts := []struct {
		key  string
		data []byte
	}{
		{report.ProcessedDataFile, records},
		{report.RecordsCSVFile, csvData},
		{report.SummaryFile, summary},
		{report.ExecutiveSummaryFile, report.ExecutiveSummary(res.Summary)},
	}
	if e.config.Analysis.FindSimilar {
		pairs := res.SimilarPairs
		if pairs == nil {
			pairs = []dedup.Pair{}
		}
		data, err := report.EncodeJSON(pairs)
		if err != nil {
			return nil, fmt.Errorf("encode similar pairs: %w", err)
		}
		artifacts = append(artifacts, struct {
			key  string
			data []byte
		}{report.SimilarPairsFile, data})
	}

	var locations []string
	for _, a := range artifacts {
		if err := e.Store.Put(ctx, a.key, a.data); err != nil {
			return nil, fmt.Errorf("write %s: %w", a.key, err)
		}
		loc := e.Store.Location(a.key)
		locations = append(locations, loc)
		e.Logger.Debug("Artifact written", "location", loc)
	}
	return locations, nil
}

// recordHistory appends the run to the ledger and raises trend alerts.
func (e *Engine) recordHistory(ctx context.Context, summary report.Summary) history.Trend {
	if e.History == nil {
		return history.Trend{}
	}

	if err := e.History.Append(ctx, history.FromSummary(summary)); err != nil {
		e.Logger.Warn("Failed to append run history", "error", err)
		return history.Trend{}
	}

	window, err := e.History.LoadWindow(ctx, trendWindow)
	if err != nil {
		e.Logger.Warn("Failed to load run history", "error", err)
		return history.Trend{}
	}

	trend := history.Analyze(window)
	for _, alert := range trend.Alerts {
		e.Logger.Warn("Trend alert", "alert", alert)
	}
	if e.Notifier != nil && len(trend.Alerts) > 0 {
		if err := e.Notifier.SendTrendAlert(ctx, trend.Alerts); err != nil {
			e.Logger.Warn("Failed to send trend alert", "error", err)
		}
	}
	return trend
}
