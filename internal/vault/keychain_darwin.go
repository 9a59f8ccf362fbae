//go:build darwin

package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gokeychain "github.com/keybase/go-keychain"
)

// KeychainStore stores secrets as generic passwords in the macOS Keychain:
//   - Service: the configured service name (DefaultService by default)
//   - Account: the credential key
//   - Label: "halcyon: <key>" for Keychain Access.app visibility
//
// Entries use kSecAttrAccessibleWhenUnlockedThisDeviceOnly: never synced to
// iCloud, never readable while the machine is locked.
type KeychainStore struct {
	service string
	logger  *slog.Logger
}

// NewKeychainStore creates a Keychain-backed store. A construction failure
// here propagates to the caller — a broken Keychain is surfaced, never
// papered over with a fallback.
func NewKeychainStore(service string) (*KeychainStore, error) {
	if service == "" {
		service = DefaultService
	}
	return &KeychainStore{
		service: service,
		logger:  slog.With("component", "vault", "backend", "keychain"),
	}, nil
}

// Set stores a secret, overwriting any existing item (update = delete + add).
func (s *KeychainStore) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := callBlocking(ctx, func() (struct{}, error) {
		if err := gokeychain.DeleteGenericPasswordItem(s.service, key); err != nil &&
			!errors.Is(err, gokeychain.ErrorItemNotFound) {
			return struct{}{}, err
		}
		item := gokeychain.NewGenericPassword(
			s.service,
			key,
			fmt.Sprintf("halcyon: %s", key),
			[]byte(value),
			"",
		)
		item.SetSynchronizable(gokeychain.SynchronizableNo)
		item.SetAccessible(gokeychain.AccessibleWhenUnlockedThisDeviceOnly)
		return struct{}{}, gokeychain.AddItem(item)
	})
	if err != nil {
		return mapKeychainError(err, key)
	}
	s.logger.Debug("stored secret", "key", key)
	return nil
}

func (s *KeychainStore) Get(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	data, err := callBlocking(ctx, func() ([]byte, error) {
		return gokeychain.GetGenericPassword(s.service, key, "", "")
	})
	if err != nil {
		return "", mapKeychainError(err, key)
	}
	// GetGenericPassword reports a missing item as empty data, no error.
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return string(data), nil
}

func (s *KeychainStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := callBlocking(ctx, func() (struct{}, error) {
		return struct{}{}, gokeychain.DeleteGenericPasswordItem(s.service, key)
	})
	if err != nil && !errors.Is(err, gokeychain.ErrorItemNotFound) {
		return mapKeychainError(err, key)
	}
	return nil
}

// Clear is a capability gap on this backend: the Keychain API offers no way
// to enumerate or bulk-delete a service's items without entitlements, so
// Clear reports the gap explicitly rather than silently succeeding. Callers
// needing bulk removal delete known keys individually.
func (s *KeychainStore) Clear(ctx context.Context) error {
	s.logger.Warn("clear not supported by keychain backend")
	return fmt.Errorf("%w: clear is not supported by the keychain backend", ErrInternal)
}

func (s *KeychainStore) Persistence() Persistence {
	return Persistent
}

// mapKeychainError folds Security.framework status codes into the vault
// taxonomy.
func mapKeychainError(err error, key string) error {
	switch {
	case errors.Is(err, gokeychain.ErrorItemNotFound):
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	case errors.Is(err, gokeychain.ErrorAuthFailed),
		errors.Is(err, gokeychain.ErrorInteractionNotAllowed):
		return fmt.Errorf("%w: %s", ErrAccessDenied, key)
	case errors.Is(err, gokeychain.ErrorNoSuchKeychain),
		errors.Is(err, gokeychain.ErrorNotAvailable):
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: keychain error for key %q: %v", ErrInternal, key, err)
	}
}
