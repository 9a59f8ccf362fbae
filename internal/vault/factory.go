package vault

import "log/slog"

// Open selects and constructs the secure storage backend for the runtime
// platform, evaluated once per process:
//
//   - macOS: the Keychain backend; construction failure propagates.
//   - Windows: the Credential Manager backend; same non-fallback policy.
//   - Linux: the Secret Service backend; if — and only if — the daemon is
//     unreachable, Open falls back transparently to in-memory storage.
//     Any other construction failure propagates.
//   - anything else: in-memory storage directly.
//
// The returned handle is intended to be constructed once and threaded
// explicitly through every consumer; there is no ambient global store.
func Open(service string) (Store, error) {
	store, err := openPlatform(service)
	if err != nil {
		return nil, err
	}
	slog.Info("secure storage ready", "persistence", store.Persistence().String())
	return store, nil
}
