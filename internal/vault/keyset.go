package vault

import (
	"sort"
	"sync"
)

// keySet tracks the keys a backend instance has written. Backends whose
// native API offers neither enumeration nor bulk delete (Credential
// Manager, Secret Service) use it to synthesize Clear via iterated delete.
// Over-tracking is fine — a tracked key that was never written deletes as
// a no-op — but under-tracking leaks entries across Clear calls, so keys
// are tracked before the platform write is issued.
type keySet struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

func newKeySet() *keySet {
	return &keySet{keys: make(map[string]struct{})}
}

func (s *keySet) add(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = struct{}{}
}

func (s *keySet) remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}

// snapshot returns the tracked keys in sorted order. Sorting keeps Clear's
// delete order (and any aggregated error message) deterministic.
func (s *keySet) snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.keys))
	for k := range s.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *keySet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}
