package memory

import (
	"context"
	"io"
	"strings"
	"testing"

	"questcore/internal/blob/core"
)

func TestCreateOnlySemantics(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.Put(ctx, "k", strings.NewReader("one"), core.PutOptions{ContentType: "text/plain"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("two"), core.PutOptions{}); err == nil {
		t.Fatal("expected create-only semantics")
	}

	info, rc, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "one" || info.ContentType != "text/plain" {
		t.Fatalf("unexpected blob: %q %+v", data, info)
	}
}

func TestListOrdering(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, key := range []string{"b", "a", "nested/c"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 3 || infos[0].Key != "a" || infos[1].Key != "b" {
		t.Fatalf("unexpected order: %+v", infos)
	}
}
