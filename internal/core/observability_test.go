package core

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"questcore/pkg/domain"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if rec.Name() == "" {
		t.Fatal("expected generated expvar name")
	}
	ctx := context.Background()
	rec.Observe(ctx, "update_single_task", true, 20*time.Millisecond)
	rec.Observe(ctx, "update_single_task", true, 30*time.Millisecond)
	rec.Observe(ctx, "update_single_task", false, 5*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second) // ignored

	snap := rec.Snapshot()
	if got := snap.Results["update_single_task"]["success"]; got != 2 {
		t.Fatalf("expected 2 successes, got %d", got)
	}
	if got := snap.Results["update_single_task"]["error"]; got != 1 {
		t.Fatalf("expected 1 error, got %d", got)
	}
	if got := snap.DurationsMS["update_single_task"]; got != 55 {
		t.Fatalf("expected 55ms total, got %v", got)
	}
}

func TestJSONTracerEmitsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	_, span := tracer.Start(context.Background(), "join_team")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "join_team")
	span.End(domain.ValidationError{Field: "password", Reason: "does not match"})

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(entries))
	}
	if entries[0].Status != "success" || entries[1].Status != "error" {
		t.Fatalf("unexpected statuses: %+v", entries)
	}
	if entries[1].Error == "" {
		t.Fatal("error span must carry the message")
	}
	if !strings.Contains(buf.String(), `"operation":"join_team"`) {
		t.Fatalf("span not encoded to writer: %s", buf.String())
	}
}

func TestServiceEmitsMetricsAndTraces(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	tracer := NewJSONTracer(nil)
	svc := NewInMemoryService(NewDefaultRulesEngine(), testGraph(t),
		WithMetricsRecorder(rec),
		WithTracer(tracer),
	)
	ctx := context.Background()

	if err := svc.UpdateSingleTask(ctx, "user-1", "task-a", "completed", domain.ModePvP); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := svc.UpdateSingleTask(ctx, "user-1", "missing", "completed", domain.ModePvP); err == nil {
		t.Fatal("expected unknown task error")
	}

	snap := rec.Snapshot()
	if snap.Results["update_single_task"]["success"] != 1 {
		t.Fatalf("expected 1 success observation, got %+v", snap.Results)
	}
	entries := tracer.Entries()
	if len(entries) != 1 {
		// Validation failures reject before the transaction starts.
		t.Fatalf("expected 1 span, got %d", len(entries))
	}
	if entries[0].Operation != "update_single_task" {
		t.Fatalf("unexpected operation: %s", entries[0].Operation)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	registry := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(registry)
	if err != nil {
		t.Fatalf("construct recorder: %v", err)
	}
	ctx := context.Background()
	rec.Observe(ctx, "update_single_task", true, 12*time.Millisecond)
	rec.Observe(ctx, "update_single_task", false, 3*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second) // ignored

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, family := range families {
		found[family.GetName()] = true
	}
	if !found["questcore_service_operation_duration_seconds"] {
		t.Fatalf("duration histogram missing: %v", found)
	}
	if !found["questcore_service_operation_results_total"] {
		t.Fatalf("result counter missing: %v", found)
	}

	// Registering the same collectors twice must fail loudly.
	if _, err := NewPrometheusMetricsRecorder(registry); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestSlogLoggerAdapter(t *testing.T) {
	logger := NewSlogLogger(nil)
	logger.Debug("noop")
	logger.Info("noop")
	logger.Warn("noop")
	logger.Error("noop")
}

func TestClockFuncFallback(t *testing.T) {
	if ClockFunc(nil).Now().IsZero() {
		t.Fatal("expected non-zero time from nil ClockFunc")
	}
	expected := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if got := ClockFunc(func() time.Time { return expected }).Now(); !got.Equal(expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}
