// Package core implements the transactional progress service: task and
// hideout updates with invalidation cascades, team membership and
// aggregation, and the visibility filter over team progress.
package core

import (
	"context"
	"log/slog"
	"time"

	memory "questcore/internal/infra/persistence/memory"
	"questcore/internal/taskgraph"
	"questcore/pkg/domain"
)

// defaultRetryAttempts bounds optimistic-concurrency retries per operation.
const defaultRetryAttempts = 3

// Clock abstracts the service time source.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts an ordinary function to the Clock interface. A nil
// function falls back to UTC wall time.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f()
}

// Logger is the minimal structured logging contract consumed by the service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NewSlogLogger adapts a slog.Logger to the service Logger contract. A nil
// logger uses slog.Default.
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return slogLogger{l: l}
}

type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// MetricsRecorder receives one observation per completed service operation.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// TraceSpan terminates a single traced operation.
type TraceSpan interface {
	End(err error)
}

// Tracer opens spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

type noopTracer struct{}

type noopSpan struct{}

func (noopSpan) End(error) {}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type serviceOptions struct {
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	clock   Clock
	retries int
}

// Option customizes service construction.
type Option func(*serviceOptions)

// WithLogger overrides the service logger.
func WithLogger(l Logger) Option {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsRecorder installs a metrics sink for operation outcomes.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(o *serviceOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracer installs a tracer wrapping every service operation.
func WithTracer(t Tracer) Option {
	return func(o *serviceOptions) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithClock overrides the service time source.
func WithClock(c Clock) Option {
	return func(o *serviceOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithRetryAttempts overrides the optimistic-concurrency retry budget.
func WithRetryAttempts(n int) Option {
	return func(o *serviceOptions) {
		if n >= 0 {
			o.retries = n
		}
	}
}

// Service exposes the transactional progress, team, and account operations
// over a persistent store and an immutable task graph.
type Service struct {
	store   domain.PersistentStore
	graph   *taskgraph.Graph
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	clock   Clock
	retries int
}

// NewService constructs a service backed by the supplied store and graph.
func NewService(store domain.PersistentStore, graph *taskgraph.Graph, opts ...Option) *Service {
	options := serviceOptions{
		logger:  noopLogger{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		clock:   ClockFunc(nil),
		retries: defaultRetryAttempts,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		store:   store,
		graph:   graph,
		logger:  options.logger,
		metrics: options.metrics,
		tracer:  options.tracer,
		clock:   options.clock,
		retries: options.retries,
	}
}

// NewInMemoryService creates a service over a fresh in-memory store with the
// given rules engine.
func NewInMemoryService(engine *domain.RulesEngine, graph *taskgraph.Graph, opts ...Option) *Service {
	return NewService(memory.NewStore(engine), graph, opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore { return s.store }

// Graph returns the reference task graph the service operates over.
func (s *Service) Graph() *taskgraph.Graph { return s.graph }

// followUp is a named post-commit action executed outside the transaction.
// Failures are logged and dropped; the committed write is authoritative.
type followUp struct {
	name string
	run  func(ctx context.Context) error
}

// outbox collects follow-ups queued by a transaction body. It is discarded
// and rebuilt on every retry so only the committed attempt's entries run.
type outbox struct {
	entries []followUp
}

func (o *outbox) add(name string, run func(ctx context.Context) error) {
	o.entries = append(o.entries, followUp{name: name, run: run})
}

// transact runs fn inside a store transaction, retrying on version conflicts
// up to the configured budget, then drains the outbox of the committed
// attempt. Non-conflict errors abort immediately.
func (s *Service) transact(ctx context.Context, operation string, fn func(tx domain.Transaction, out *outbox) error) error {
	ctx, span := s.tracer.Start(ctx, operation)
	started := s.clock.Now()

	var out *outbox
	var err error
	for attempt := 0; ; attempt++ {
		out = &outbox{}
		_, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			return fn(tx, out)
		})
		if err == nil || !domain.IsConflict(err) || attempt >= s.retries {
			break
		}
		s.logger.Debug("retrying after conflict", "operation", operation, "attempt", attempt+1)
	}

	duration := s.clock.Now().Sub(started)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	span.End(err)
	if err != nil {
		s.logger.Warn("operation failed", "operation", operation, "error", err)
		return err
	}
	s.drainOutbox(ctx, operation, out)
	return nil
}

// drainOutbox executes queued follow-ups best-effort. A failed follow-up
// never affects the already-committed transaction.
func (s *Service) drainOutbox(ctx context.Context, operation string, out *outbox) {
	if out == nil {
		return
	}
	for _, entry := range out.entries {
		if err := entry.run(ctx); err != nil {
			s.logger.Warn("follow-up dropped", "operation", operation, "follow_up", entry.name, "error", err)
		}
	}
}
