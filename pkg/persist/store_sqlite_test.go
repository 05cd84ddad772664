package persist

import (
	"context"
	"testing"
)

func TestSQLiteStorePutGetRoundTrip(t *testing.T) {
	store, err := OpenSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Put(ctx, "hero", "42", []byte("blob-data")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.Get(ctx, "hero", "42")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "blob-data" {
		t.Errorf("round trip mismatch: got %q", got)
	}
}

func TestSQLiteStorePutUpserts(t *testing.T) {
	store, err := OpenSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	store.Put(ctx, "tile", "1", []byte("v1"))
	store.Put(ctx, "tile", "1", []byte("v2"))

	got, err := store.Get(ctx, "tile", "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("expected upsert to overwrite, got %q", got)
	}
}
