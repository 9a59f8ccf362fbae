// Package session orchestrates login, session restore, and logout over the
// secure credential vault and a homeserver authenticator.
//
// A Manager is a two-state machine, LoggedOut and LoggedIn. It owns the
// canonical credential key namespace and the policy for writing and
// deleting the four session keys as a logical unit even though the
// underlying store has no multi-key transaction primitive.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/benaskins/halcyon/internal/vault"
)

// Credentials is what a successful protocol login yields.
type Credentials struct {
	AccessToken  string
	RefreshToken string // empty when the homeserver issues none
	UserID       string
	DeviceID     string
}

// Authenticator is the remote auth-protocol collaborator. Any
// implementation satisfying this shape is acceptable; tests use fakes and
// production wiring uses the homeserver client.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (Credentials, error)
	Logout(ctx context.Context, accessToken string) error
}

// Session is the in-memory authenticated state, reconstructed on restore
// from the stored credential records.
type Session struct {
	UserID   UserID
	DeviceID DeviceID
	// Restored is true when this session came from stored credentials
	// rather than a fresh login.
	Restored bool

	accessToken  string
	refreshToken string
}

// AccessToken returns the bearer token backing this session.
func (s *Session) AccessToken() string { return s.accessToken }

// Manager drives the session lifecycle against a shared vault handle.
// It is safe for concurrent use: lifecycle operations serialize on an
// internal mutex, so one Manager can back both the CLI and the agent's
// concurrent request handlers.
type Manager struct {
	store  vault.Store
	auth   Authenticator
	logger *slog.Logger

	mu      sync.Mutex
	current *Session // nil while logged out
}

// NewManager creates a logged-out session manager. The store handle is
// constructed once at process start and threaded in explicitly.
func NewManager(store vault.Store, auth Authenticator) *Manager {
	return &Manager{
		store:  store,
		auth:   auth,
		logger: slog.With("component", "session"),
	}
}

// Login authenticates against the homeserver and persists the resulting
// credentials. On protocol failure nothing is written and the manager stays
// logged out. On a storage write failure the error propagates without
// rolling back keys already written; the manager does not report a live
// session in that case.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	creds, err := m.auth.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	userID, err := ParseUserID(creds.UserID)
	if err != nil {
		return nil, fmt.Errorf("login: homeserver returned invalid user ID: %w", err)
	}
	deviceID, err := ParseDeviceID(creds.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("login: homeserver returned invalid device ID: %w", err)
	}

	if err := m.store.Set(ctx, KeyAccessToken, creds.AccessToken); err != nil {
		return nil, fmt.Errorf("storing access token: %w", err)
	}
	if err := m.store.Set(ctx, KeyUserID, creds.UserID); err != nil {
		return nil, fmt.Errorf("storing user ID: %w", err)
	}
	if err := m.store.Set(ctx, KeyDeviceID, creds.DeviceID); err != nil {
		return nil, fmt.Errorf("storing device ID: %w", err)
	}
	if creds.RefreshToken != "" {
		if err := m.store.Set(ctx, KeyRefreshToken, creds.RefreshToken); err != nil {
			return nil, fmt.Errorf("storing refresh token: %w", err)
		}
	}

	m.current = &Session{
		UserID:       userID,
		DeviceID:     deviceID,
		accessToken:  creds.AccessToken,
		refreshToken: creds.RefreshToken,
	}
	m.logger.Info("logged in", "user", userID, "device", deviceID)
	return m.current, nil
}

// Restore reconstructs a session from stored credentials. A missing access
// token is not an error: it returns (nil, nil), "no session". Anything
// stored but unusable — a missing or malformed user or device ID — is a
// hard error. The refresh token is read optimistically.
func (m *Manager) Restore(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restoreLocked(ctx)
}

func (m *Manager) restoreLocked(ctx context.Context) (*Session, error) {
	accessToken, err := m.store.Get(ctx, KeyAccessToken)
	if err != nil {
		if errors.Is(err, vault.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("restore: reading access token: %w", err)
	}

	userIDStr, err := m.store.Get(ctx, KeyUserID)
	if err != nil {
		return nil, fmt.Errorf("restore: reading user ID: %w", err)
	}
	userID, err := ParseUserID(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("restore: stored user ID is invalid: %w", err)
	}

	deviceIDStr, err := m.store.Get(ctx, KeyDeviceID)
	if err != nil {
		return nil, fmt.Errorf("restore: reading device ID: %w", err)
	}
	deviceID, err := ParseDeviceID(deviceIDStr)
	if err != nil {
		return nil, fmt.Errorf("restore: stored device ID is invalid: %w", err)
	}

	refreshToken, err := m.store.Get(ctx, KeyRefreshToken)
	if err != nil {
		refreshToken = ""
		m.logger.Debug("no refresh token in stored session")
	}

	m.current = &Session{
		UserID:       userID,
		DeviceID:     deviceID,
		Restored:     true,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
	m.logger.Info("session restored", "user", userID, "device", deviceID)
	return m.current, nil
}

// Logout invalidates the session remotely when possible and always cleans
// up locally. A failing remote logout is logged and ignored; each credential
// key is deleted independently, a failure on one never aborts the others.
// The manager is LoggedOut when Logout returns, regardless of sub-step
// failures.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		// Pick up a stored session so the remote side can be told too.
		if _, err := m.restoreLocked(ctx); err != nil {
			m.logger.Debug("no restorable session before logout", "error", err)
		}
	}

	if m.current != nil && m.current.accessToken != "" {
		if err := m.auth.Logout(ctx, m.current.accessToken); err != nil {
			m.logger.Warn("remote logout failed, continuing local cleanup", "error", err)
		}
	}

	for _, key := range CredentialKeys() {
		if err := m.store.Delete(ctx, key); err != nil {
			m.logger.Warn("failed to delete stored credential", "key", key, "error", err)
		}
	}

	m.current = nil
	m.logger.Info("logged out")
	return nil
}

// HasStoredSession probes for a stored access token only. Absence maps to
// false; any other storage error propagates.
func (m *Manager) HasStoredSession(ctx context.Context) (bool, error) {
	_, err := m.store.Get(ctx, KeyAccessToken)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, vault.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// LoggedIn reports whether the manager currently holds a live session.
func (m *Manager) LoggedIn() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil
}

// Current returns the live session, or nil while logged out.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}
