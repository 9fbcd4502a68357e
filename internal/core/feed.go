package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"questcore/internal/blob"
	"questcore/internal/taskgraph"
	"questcore/pkg/domain"
)

// FeedPrefix is the blob key prefix snapshot publications live under. Keys
// embed the publication timestamp, so ascending key order is publication
// order.
const FeedPrefix = "feed/"

// PublishSnapshot writes a feed snapshot to blob storage under a
// timestamp-derived key and returns that key.
func PublishSnapshot(ctx context.Context, store blob.Store, snap taskgraph.Snapshot, now time.Time) (string, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode feed snapshot: %w", err)
	}
	key := fmt.Sprintf("%s%s.json", FeedPrefix, now.UTC().Format("20060102T150405"))
	if _, err := store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{ContentType: "application/json"}); err != nil {
		return "", fmt.Errorf("store feed snapshot: %w", err)
	}
	return key, nil
}

// LoadGraphFromBlob reads a feed snapshot from blob storage and builds the
// task graph. An empty key loads the latest publication under FeedPrefix.
func LoadGraphFromBlob(ctx context.Context, store blob.Store, key string) (*taskgraph.Graph, error) {
	if key == "" {
		infos, err := store.List(ctx, FeedPrefix)
		if err != nil {
			return nil, fmt.Errorf("list feed snapshots: %w", err)
		}
		if len(infos) == 0 {
			return nil, domain.DataUnavailableError{Reason: "no feed snapshot published"}
		}
		key = infos[len(infos)-1].Key
	}

	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read feed snapshot %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read feed snapshot %s: %w", key, err)
	}

	snap, err := taskgraph.ParseSnapshot(payload)
	if err != nil {
		return nil, err
	}
	return taskgraph.Build(snap)
}
