//go:build !darwin && !windows && !linux

package vault

import "log/slog"

func openPlatform(service string) (Store, error) {
	slog.Warn("no native keystore on this platform, using in-memory storage")
	return NewMemoryStore(), nil
}
