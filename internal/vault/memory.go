package vault

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore keeps secrets in process memory. It is the automatic fallback
// when no native keystore is usable and the store of choice for tests.
// It always reports NonPersistent.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]string)}
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[key] = value
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.secrets[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return val, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.secrets, key)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipeLocked()
	return nil
}

func (s *MemoryStore) Persistence() Persistence {
	return NonPersistent
}

// Close makes a best effort to render the stored secret bytes unreachable.
// Go strings are immutable so true erasure cannot be guaranteed; overwriting
// the map at least drops every reference eagerly.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wipeLocked()
	return nil
}

func (s *MemoryStore) wipeLocked() {
	for k, v := range s.secrets {
		s.secrets[k] = strings.Repeat("\x00", len(v))
		delete(s.secrets, k)
	}
}
