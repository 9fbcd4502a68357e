package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"questcore/internal/blob"
	"questcore/internal/taskgraph"
	"questcore/pkg/domain"
)

func feedSnapshot() taskgraph.Snapshot {
	return taskgraph.Snapshot{
		Tasks: []domain.Task{{ID: "task-a"}},
		HideoutStations: []domain.HideoutStation{
			{ID: "station-stash", Levels: []domain.HideoutLevel{{ID: "stash-1", Level: 1}}},
		},
	}
}

func TestPublishAndLoadSnapshot(t *testing.T) {
	store := blob.NewMemory()
	ctx := context.Background()

	key, err := PublishSnapshot(ctx, store, feedSnapshot(), time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if key != "feed/20250501T100000.json" {
		t.Fatalf("unexpected key %s", key)
	}

	g, err := LoadGraphFromBlob(ctx, store, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if g.TaskCount() != 1 {
		t.Fatalf("expected 1 task, got %d", g.TaskCount())
	}
}

func TestLoadLatestSnapshot(t *testing.T) {
	store := blob.NewMemory()
	ctx := context.Background()

	older := feedSnapshot()
	if _, err := PublishSnapshot(ctx, store, older, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("publish older: %v", err)
	}
	newer := feedSnapshot()
	newer.Tasks = append(newer.Tasks, domain.Task{ID: "task-b"})
	if _, err := PublishSnapshot(ctx, store, newer, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("publish newer: %v", err)
	}

	g, err := LoadGraphFromBlob(ctx, store, "")
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if g.TaskCount() != 2 {
		t.Fatalf("expected newest snapshot with 2 tasks, got %d", g.TaskCount())
	}
}

func TestLoadSnapshotMissing(t *testing.T) {
	store := blob.NewMemory()
	_, err := LoadGraphFromBlob(context.Background(), store, "")
	var unavailable domain.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected DataUnavailableError, got %v", err)
	}
}

func TestLoadSnapshotRejectsEmptyFeed(t *testing.T) {
	store := blob.NewMemory()
	ctx := context.Background()
	empty := taskgraph.Snapshot{}
	key, err := PublishSnapshot(ctx, store, empty, time.Now())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := LoadGraphFromBlob(ctx, store, key); err == nil {
		t.Fatal("empty feed must not build a graph")
	}
}
