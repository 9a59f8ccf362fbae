package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zalando/go-keyring"
)

// probeKey is the sentinel looked up when probing Secret Service
// availability. It is never written.
const probeKey = "__halcyon_probe__"

// KeyringStore adapts an OS keyring — the Windows Credential Manager or the
// freedesktop Secret Service — through zalando/go-keyring.
//
// The keyring API stores one secret per (service, key) pair and offers no
// enumeration or bulk delete, so KeyringStore tracks every key it writes and
// emulates Clear with an iterated, best-effort delete.
type KeyringStore struct {
	service string
	tracked *keySet
	logger  *slog.Logger
}

// NewCredManagerStore creates a store backed by the Windows Credential
// Manager. Construction does not touch the platform; a broken Credential
// Manager surfaces on first use.
func NewCredManagerStore(service string) *KeyringStore {
	if service == "" {
		service = DefaultService
	}
	return &KeyringStore{
		service: service,
		tracked: newKeySet(),
		logger:  slog.With("component", "vault", "backend", "credential-manager"),
	}
}

// NewSecretServiceStore creates a store backed by the desktop Secret
// Service daemon (GNOME Keyring, KWallet). Construction probes the daemon
// with a harmless lookup so that backend selection fails fast — with an
// error wrapping ErrBackendUnavailable — when no daemon is reachable,
// instead of failing lazily on first real use.
func NewSecretServiceStore(service string) (*KeyringStore, error) {
	if service == "" {
		service = DefaultService
	}
	s := &KeyringStore{
		service: service,
		tracked: newKeySet(),
		logger:  slog.With("component", "vault", "backend", "secret-service"),
	}
	if err := s.probe(); err != nil {
		return nil, err
	}
	return s, nil
}

// probe verifies the secret daemon answers. A missing probe entry is the
// expected healthy result.
func (s *KeyringStore) probe() error {
	_, err := keyring.Get(s.service, probeKey)
	switch {
	case err == nil:
		// A stale probe entry from a previous run; remove it.
		_ = keyring.Delete(s.service, probeKey)
		return nil
	case errors.Is(err, keyring.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("%w: secret service probe failed: %v", ErrBackendUnavailable, err)
	}
}

func (s *KeyringStore) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	// Track before the platform call: a write abandoned on cancellation can
	// still land in the background, and Clear must cover it. Over-tracking
	// is harmless since deleting an absent key succeeds.
	s.tracked.add(key)
	_, err := callBlocking(ctx, func() (struct{}, error) {
		return struct{}{}, keyring.Set(s.service, key, value)
	})
	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.tracked.remove(key)
		}
		return mapKeyringError(err, key)
	}
	s.logger.Debug("stored secret", "key", key)
	return nil
}

func (s *KeyringStore) Get(ctx context.Context, key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	val, err := callBlocking(ctx, func() (string, error) {
		return keyring.Get(s.service, key)
	})
	if err != nil {
		return "", mapKeyringError(err, key)
	}
	return val, nil
}

func (s *KeyringStore) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := callBlocking(ctx, func() (struct{}, error) {
		return struct{}{}, keyring.Delete(s.service, key)
	})
	switch {
	case err == nil, errors.Is(err, keyring.ErrNotFound):
		// Absent keys delete successfully; reconcile tracking either way.
		s.tracked.remove(key)
		return nil
	default:
		return mapKeyringError(err, key)
	}
}

func (s *KeyringStore) Clear(ctx context.Context) error {
	var failures []string
	for _, key := range s.tracked.snapshot() {
		if err := s.Delete(ctx, key); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%w: failed to clear keys: %s", ErrInternal, strings.Join(failures, "; "))
	}
	return nil
}

func (s *KeyringStore) Persistence() Persistence {
	return Persistent
}

// mapKeyringError folds keyring errors into the vault taxonomy. The keyring
// library reports platform failures as opaque error strings, so anything
// beyond the not-found sentinel is classified by message.
func mapKeyringError(err error, key string) error {
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "denied"),
		strings.Contains(msg, "dismissed"),
		strings.Contains(msg, "cancel"),
		strings.Contains(msg, "locked"):
		return fmt.Errorf("%w: %s", ErrAccessDenied, key)
	case strings.Contains(msg, "dbus"),
		strings.Contains(msg, "secret service"),
		strings.Contains(msg, "org.freedesktop"),
		strings.Contains(msg, "unsupported platform"):
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	default:
		return fmt.Errorf("%w: keyring error for key %q: %v", ErrInternal, key, err)
	}
}
