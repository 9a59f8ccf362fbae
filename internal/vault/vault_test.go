package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

// Unit tests use MemoryStore — no platform keystore interaction needed.

func testStore() *MemoryStore {
	return NewMemoryStore()
}

func TestSetAndGet(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	if err := s.Set(ctx, "test/set-get", "hello-world"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, err := s.Get(ctx, "test/set-get")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "hello-world" {
		t.Errorf("expected 'hello-world', got %q", val)
	}
}

func TestGetNotFound(t *testing.T) {
	s := testStore()

	_, err := s.Get(context.Background(), "test/nonexistent")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestSetOverwrites(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	s.Set(ctx, "test/overwrite", "first")
	s.Set(ctx, "test/overwrite", "second")

	val, err := s.Get(ctx, "test/overwrite")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "second" {
		t.Errorf("expected 'second', got %q", val)
	}
}

func TestDelete(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	s.Set(ctx, "test/delete", "to-delete")

	if err := s.Delete(ctx, "test/delete"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err := s.Get(ctx, "test/delete")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	if err := s.Delete(ctx, "test/never-existed"); err != nil {
		t.Errorf("Delete of absent key: %v", err)
	}

	s.Set(ctx, "test/twice", "v")
	s.Delete(ctx, "test/twice")
	if err := s.Delete(ctx, "test/twice"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestClear(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	keys := []string{"test/clear-a", "test/clear-b", "test/clear-c"}
	for _, k := range keys {
		s.Set(ctx, k, "val")
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	for _, k := range keys {
		if _, err := s.Get(ctx, k); !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("expected ErrKeyNotFound for %q after Clear, got %v", k, err)
		}
	}
}

func TestEmptyKeyRejected(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	if err := s.Set(ctx, "", "value"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Set with empty key: expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.Get(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Get with empty key: expected ErrInvalidInput, got %v", err)
	}
	if err := s.Delete(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Delete with empty key: expected ErrInvalidInput, got %v", err)
	}
}

func TestMemoryStoreIsNonPersistent(t *testing.T) {
	if got := testStore().Persistence(); got != NonPersistent {
		t.Errorf("expected NonPersistent, got %v", got)
	}
}

func TestPersistenceString(t *testing.T) {
	if Persistent.String() != "persistent" {
		t.Errorf("Persistent.String() = %q", Persistent.String())
	}
	if NonPersistent.String() != "non-persistent" {
		t.Errorf("NonPersistent.String() = %q", NonPersistent.String())
	}
}

func TestCancelledContext(t *testing.T) {
	s := testStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Set(ctx, "test/ctx", "v"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// Concurrent set/get pairs on distinct keys must each observe their own
// value, unaffected by interleaving.
func TestConcurrentAccess(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	errCh := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("test/concurrent-%d", i)
			want := fmt.Sprintf("value-%d", i)
			if err := s.Set(ctx, key, want); err != nil {
				errCh <- fmt.Errorf("Set %s: %w", key, err)
				return
			}
			got, err := s.Get(ctx, key)
			if err != nil {
				errCh <- fmt.Errorf("Get %s: %w", key, err)
				return
			}
			if got != want {
				errCh <- fmt.Errorf("key %s: got %q, want %q", key, got, want)
			}
		}(i)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Error(err)
	}
}

func TestCloseWipesSecrets(t *testing.T) {
	s := testStore()
	ctx := context.Background()

	s.Set(ctx, "test/wipe", "sensitive")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := s.Get(ctx, "test/wipe"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after Close, got %v", err)
	}
}
