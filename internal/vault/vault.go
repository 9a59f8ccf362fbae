// Package vault provides secure credential storage over OS-native secret
// stores.
//
// Every backend implements the same Store contract:
//   - macOS: Keychain generic passwords (keybase/go-keychain)
//   - Windows: Credential Manager (zalando/go-keyring)
//   - Linux: freedesktop Secret Service (zalando/go-keyring)
//   - everywhere: an in-memory fallback that never persists
//
// Platform error codes are mapped into a closed taxonomy at the backend
// boundary; callers only ever see the sentinel errors defined here.
package vault

import (
	"context"
	"errors"
	"fmt"
)

// DefaultService is the service name (namespace) under which halcyon stores
// its entries in a shared platform keystore. Stored keys are scoped to this
// name so they cannot collide with unrelated secrets.
const DefaultService = "com.halcyon.client"

// Sentinel errors forming the closed taxonomy for storage operations.
// Backends wrap these with context via fmt.Errorf("%w: ..."); match with
// errors.Is.
var (
	// ErrKeyNotFound is returned by Get when the key has never been
	// written or has been deleted. Deleting an absent key is NOT an error.
	ErrKeyNotFound = errors.New("key not found")

	// ErrAccessDenied is returned when the platform refuses access, e.g.
	// the user declined a keychain or biometric prompt.
	ErrAccessDenied = errors.New("access denied")

	// ErrBackendUnavailable is returned when the platform secret service
	// is unreachable. It triggers fallback only at selection time.
	ErrBackendUnavailable = errors.New("storage backend not available")

	// ErrInvalidInput marks caller programming errors such as an empty key.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal is the catch-all for platform anomalies. The wrapped
	// message is human-readable and treated as opaque by callers.
	ErrInternal = errors.New("internal storage error")
)

// Persistence reports whether a backend's data survives process restarts.
// It is fixed when the backend is constructed and applies to every key
// written through that instance.
type Persistence int

const (
	// NonPersistent data lives in process memory only.
	NonPersistent Persistence = iota
	// Persistent data survives application restarts.
	Persistent
)

func (p Persistence) String() string {
	if p == Persistent {
		return "persistent"
	}
	return "non-persistent"
}

// Store is the capability contract every backend satisfies.
//
// Implementations must be safe for concurrent use: a single Store handle is
// typically constructed once per process and shared by every consumer.
// Native secret APIs block, so operations take a context; cancellation
// abandons the wait but the underlying platform call still runs to
// completion in the background.
type Store interface {
	// Set upserts a credential record. Overwrites are not an error.
	Set(ctx context.Context, key, value string) error

	// Get returns the stored value for key, or an error wrapping
	// ErrKeyNotFound if it is absent.
	Get(ctx context.Context, key string) (string, error)

	// Delete removes key. Deleting an absent key succeeds.
	Delete(ctx context.Context, key string) error

	// Clear removes every record this instance is aware of. Partial
	// failures are aggregated into a single error wrapping ErrInternal
	// that names each key that could not be removed.
	Clear(ctx context.Context) error

	// Persistence reports the durability class of this backend.
	Persistence() Persistence
}

// validateKey rejects empty keys before any platform API is touched.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key must not be empty", ErrInvalidInput)
	}
	return nil
}

// callBlocking runs a synchronous platform call on its own goroutine and
// waits for the result or ctx cancellation, whichever comes first. On
// cancellation the platform call is not interrupted — it finishes in the
// background and its result is discarded.
func callBlocking[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type outcome struct {
		val T
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		v, err := fn()
		ch <- outcome{val: v, err: err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case out := <-ch:
		return out.val, out.err
	}
}
