//go:build integration && darwin

package vault

import (
	"context"
	"errors"
	"testing"
)

// Integration tests use the real macOS Keychain.
// Run with: go test -tags integration ./internal/vault/
//
// Requires an unlocked login Keychain and an interactive session
// (first run may prompt for Keychain access approval).

func integrationStore(t *testing.T) *KeychainStore {
	t.Helper()
	s, err := NewKeychainStore("com.halcyon.test")
	if err != nil {
		t.Fatalf("NewKeychainStore: %v", err)
	}
	return s
}

func cleanupIntegration(t *testing.T, s *KeychainStore, keys ...string) {
	t.Helper()
	for _, k := range keys {
		s.Delete(context.Background(), k)
	}
}

func TestKeychainSetAndGet(t *testing.T) {
	s := integrationStore(t)
	ctx := context.Background()
	key := "test/integration-set-get"
	defer cleanupIntegration(t, s, key)

	if err := s.Set(ctx, key, "hello-keychain"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "hello-keychain" {
		t.Errorf("expected 'hello-keychain', got %q", val)
	}
}

func TestKeychainOverwrite(t *testing.T) {
	s := integrationStore(t)
	ctx := context.Background()
	key := "test/integration-overwrite"
	defer cleanupIntegration(t, s, key)

	s.Set(ctx, key, "first")
	s.Set(ctx, key, "second")

	val, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != "second" {
		t.Errorf("expected 'second', got %q", val)
	}
}

func TestKeychainDelete(t *testing.T) {
	s := integrationStore(t)
	ctx := context.Background()
	key := "test/integration-delete"

	s.Set(ctx, key, "to-delete")
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := s.Get(ctx, key); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestKeychainDeleteAbsent(t *testing.T) {
	s := integrationStore(t)

	if err := s.Delete(context.Background(), "test/integration-never"); err != nil {
		t.Errorf("Delete of absent key: %v", err)
	}
}

func TestKeychainClearUnsupported(t *testing.T) {
	s := integrationStore(t)

	if err := s.Clear(context.Background()); !errors.Is(err, ErrInternal) {
		t.Errorf("expected ErrInternal, got %v", err)
	}
}
