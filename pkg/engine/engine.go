package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/DrSkyle/datasift/pkg/config"
	"github.com/DrSkyle/datasift/pkg/dedup"
	"github.com/DrSkyle/datasift/pkg/engine/history"
	"github.com/DrSkyle/datasift/pkg/engine/notifier"
	"github.com/DrSkyle/datasift/pkg/engine/policy"
	"github.com/DrSkyle/datasift/pkg/engine/source"
	"github.com/DrSkyle/datasift/pkg/pii"
	"github.com/DrSkyle/datasift/pkg/storage"
	"github.com/DrSkyle/datasift/pkg/telemetry"
	"github.com/DrSkyle/datasift/pkg/version"
)

// ErrPartialResult indicates the run completed but at least one source failed.
var ErrPartialResult = errors.New("run completed with partial results")

// Config holds engine settings.
type Config struct {
	Sources        []config.SourceConfig `mapstructure:"sources"`
	Dedup          dedup.Options         `mapstructure:"dedup"`
	Analysis       config.AnalysisConfig `mapstructure:"analysis"`
	MaxConcurrency int                   `mapstructure:"max_concurrency"`
	OutputDir      string                `mapstructure:"output_dir"`  // Directory or "s3://bucket/prefix"
	HistoryURL     string                `mapstructure:"history_url"` // "s3://bucket/key", a file path, or empty for ~/.datasift
	DisableHistory bool                  `mapstructure:"disable_history"`
	S3             storage.S3Options     `mapstructure:"s3"`
	SlackWebhook   string                `mapstructure:"slack_webhook"`
	SlackChannel   string                `mapstructure:"slack_channel"`
	RulesFile      string                `mapstructure:"rules_file"`

	// SampleFallback substitutes a failed source's sample records.
	SampleFallback bool `mapstructure:"sample_fallback"`

	// StrictMode makes Run return ErrPartialResult when a source failed.
	StrictMode bool `mapstructure:"strict"`

	JsonLogs bool `mapstructure:"json_logs"`
	Verbose  bool `mapstructure:"verbose"`

	// Telemetry config.
	OtelEndpoint  string `mapstructure:"otel_endpoint"`  // "http://localhost:4318" or via env
	SkipTelemetry bool   `mapstructure:"skip_telemetry"` // Set true if embedding in an app that already has OTEL

	// Dependencies.
	Logger *slog.Logger `mapstructure:"-"`
}

// Engine is the runtime core.
type Engine struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry *source.Registry
	Scanner  *pii.Scanner
	Rules    *policy.CELEngine
	Store    storage.BlobStore
	History  *history.Client
	Notifier *notifier.SlackClient
	Metrics  *telemetry.Counters

	config      Config
	concurrency int
	sources     []source.Source
	patterns    pii.PatternSet
	meters      metric.MeterProvider
	shutdown    func(context.Context) error
}

// Option defines a functional configuration override.
type Option func(*Engine)

// New initializes the Engine.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{
		Tracer:      otel.Tracer("datasift/engine"),
		concurrency: config.DefaultMaxConcurrency,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.Logger == nil {
		e.Logger = NewLogger(e.config.JsonLogs, e.config.Verbose)
	}
	slog.SetDefault(e.Logger)

	if !e.config.SkipTelemetry {
		shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, e.config.OtelEndpoint)
		if err != nil {
			e.Logger.Warn("Telemetry failed", "error", err)
		} else {
			e.shutdown = shutdown
		}
	}

	if e.meters == nil {
		e.meters = otel.GetMeterProvider()
	}
	metrics, err := telemetry.NewCounters(e.meters, "datasift/engine")
	if err != nil {
		e.Logger.Warn("Metrics unavailable", "error", err)
	}
	e.Metrics = metrics

	e.Scanner = pii.NewScanner(e.patterns)

	e.Registry = source.NewRegistry()
	if len(e.sources) == 0 {
		cfgs := e.config.Sources
		if len(cfgs) == 0 {
			cfgs = config.DefaultSources()
		}
		for _, c := range cfgs {
			s, err := source.NewFromConfig(c)
			if err != nil {
				return nil, err
			}
			e.sources = append(e.sources, s)
		}
	}
	for _, s := range e.sources {
		e.Registry.Register(s)
	}

	if e.config.RulesFile != "" {
		rules, err := policy.LoadRules(e.config.RulesFile)
		if err != nil {
			return nil, err
		}
		celEngine, err := policy.NewCELEngine()
		if err != nil {
			return nil, err
		}
		e.Logger.Info("Compiling Rules", "count", len(rules))
		if err := celEngine.Compile(rules); err != nil {
			return nil, err
		}
		e.Rules = celEngine
	}

	if e.Store == nil {
		target := e.config.OutputDir
		if target == "" {
			target = config.DefaultOutputDir
		}
		store, err := storage.Open(ctx, target, e.config.S3)
		if err != nil {
			return nil, fmt.Errorf("open output store: %w", err)
		}
		e.Store = store
	}

	if e.History == nil && !e.config.DisableHistory {
		backend, err := history.NewBackend(ctx, e.config.HistoryURL, e.config.S3)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		e.History = history.NewClient(backend)
	}

	if e.config.SlackWebhook != "" {
		e.Notifier = notifier.NewSlackClient(e.config.SlackWebhook, e.config.SlackChannel)
	}

	return e, nil
}

// NewLogger builds the default handler: JSON or text on stdout, sensitive
// keys redacted.
func NewLogger(jsonLogs, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       slog.LevelInfo,
		ReplaceAttr: redactSensitiveData,
	}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.Logger = l
	}
}

// WithConcurrency caps the masking workers.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithSources replaces the configured sources.
func WithSources(sources ...source.Source) Option {
	return func(e *Engine) {
		e.sources = sources
	}
}

// WithPatterns replaces the PII rule table.
func WithPatterns(p pii.PatternSet) Option {
	return func(e *Engine) {
		e.patterns = p
	}
}

// WithStore sets the artifact store.
func WithStore(s storage.BlobStore) Option {
	return func(e *Engine) {
		e.Store = s
	}
}

// WithHistory sets the run ledger.
func WithHistory(c *history.Client) Option {
	return func(e *Engine) {
		e.History = c
	}
}

// WithMeterProvider records the run counters on mp instead of the global
// provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) {
		e.meters = mp
	}
}

// WithConfig sets raw config.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.config = cfg
		if cfg.Logger != nil {
			e.Logger = cfg.Logger
		}
		if cfg.MaxConcurrency > 0 {
			e.concurrency = cfg.MaxConcurrency
		}
	}
}

// Config returns the engine settings.
func (e *Engine) Config() Config {
	return e.config
}

// Close flushes telemetry.
func (e *Engine) Close(ctx context.Context) error {
	if e.shutdown == nil {
		return nil
	}
	return e.shutdown(ctx)
}

// Run collects, cleans and reports one batch of records.
func (e *Engine) Run(ctx context.Context) (res *Result, err error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.Run")
	defer span.End()

	// Crash safety.
	defer e.recoverPanic(ctx, &err)

	e.Logger.Info("Starting datasift run", "sources", e.Registry.Len(), "concurrency", e.concurrency)

	res, err = e.runPipeline(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("run.id", res.Summary.RunID),
		attribute.Int("run.records", res.Summary.FinalRecords),
	)

	if res.Summary.Partial() {
		span.SetAttributes(attribute.Bool("run.partial", true))

		if e.config.StrictMode {
			e.Logger.Error("Strict Mode: Failing due to source errors")
			return res, ErrPartialResult
		}
		e.Logger.Warn("Run finished with source errors (StrictMode=false)")
	}

	return res, nil
}

// recoverPanic turns a panic into an error on the span, the log and err.
func (e *Engine) recoverPanic(ctx context.Context, err *error) {
	if r := recover(); r != nil {
		tr := otel.Tracer("datasift/engine")
		_, span := tr.Start(ctx, "CriticalPanic")

		stack := debug.Stack()

		span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "CRITICAL FAILURE")
		span.SetAttributes(
			attribute.String("crash.stack", string(stack)),
			attribute.String("crash.reason", fmt.Sprintf("%v", r)),
		)
		span.End()

		e.Logger.Error("CRITICAL FAILURE", "error", r, "stack", string(stack))
		*err = fmt.Errorf("engine panic: %v", r)
	}
}

// redactSensitiveData scrubs sensitive keys from logs.
func redactSensitiveData(groups []string, a slog.Attr) slog.Attr {
	sensitiveKeys := map[string]bool{
		"password": true, "access_key": true, "secret_key": true, "token": true,
		"secret": true, "api_key": true, "private_key": true, "auth_token": true,
		"refresh_token": true, "webhook": true, "slack_webhook": true,
		"credential": true, "connection_string": true,
	}

	if sensitiveKeys[a.Key] {
		return slog.Attr{
			Key:   a.Key,
			Value: slog.StringValue("[REDACTED]"),
		}
	}
	return a
}
