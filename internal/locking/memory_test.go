package locking

import (
	"context"
	"testing"
)

func TestMemoryManager_TryAcquireHeld(t *testing.T) {
	mgr := NewMemoryManager()
	ctx := context.Background()
	key := Key("tenant-a", "ocpi-endpoint", "ep-1")

	first, err := mgr.TryAcquire(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == nil {
		t.Fatal("expected lock on free key")
	}

	second, err := mgr.TryAcquire(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != nil {
		t.Fatal("expected held key to yield nil lock")
	}

	if err := mgr.Release(ctx, first); err != nil {
		t.Fatalf("release: %v", err)
	}
	third, err := mgr.TryAcquire(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third == nil {
		t.Fatal("expected lock after release")
	}
}

func TestMemoryManager_ReleaseByStaleHolderIsNoop(t *testing.T) {
	mgr := NewMemoryManager()
	ctx := context.Background()
	key := Key("tenant-a", "ocpi-endpoint", "ep-1")

	first, err := mgr.TryAcquire(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mgr.Release(ctx, first); err != nil {
		t.Fatalf("release: %v", err)
	}

	current, err := mgr.TryAcquire(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Releasing the stale handle again must not free the new holder's lock.
	if err := mgr.Release(ctx, first); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	taken, err := mgr.TryAcquire(ctx, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taken != nil {
		t.Fatal("stale release must not free the current holder's lock")
	}
	if err := mgr.Release(ctx, current); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestMemoryManager_ReleaseNil(t *testing.T) {
	mgr := NewMemoryManager()
	if err := mgr.Release(context.Background(), nil); err != ErrNilLock {
		t.Fatalf("expected ErrNilLock, got %v", err)
	}
}
