//go:build linux

package vault

import (
	"errors"
	"log/slog"
)

func openPlatform(service string) (Store, error) {
	store, err := NewSecretServiceStore(service)
	if err != nil {
		// An unreachable daemon degrades gracefully to memory-only
		// storage. Every other failure is surfaced.
		if errors.Is(err, ErrBackendUnavailable) {
			slog.Warn("secret service unavailable, using in-memory storage", "error", err)
			return NewMemoryStore(), nil
		}
		return nil, err
	}
	return store, nil
}
