// Package api serves the halcyon agent's local REST API over a Unix socket.
//
// It is the binding layer between external callers (CLI, UI shells) and the
// core: session lifecycle operations plus raw secret-storage pass-through,
// with the vault error taxonomy projected onto HTTP statuses.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/benaskins/halcyon/internal/homeserver"
	"github.com/benaskins/halcyon/internal/session"
	"github.com/benaskins/halcyon/internal/vault"
)

// Server exposes the session manager and storage handle to local callers.
type Server struct {
	store  vault.Store
	server *http.Server
	logger *slog.Logger

	mu       sync.RWMutex
	sessions *session.Manager
}

// NewServer creates an API server over the given storage handle and session
// manager.
func NewServer(store vault.Store, sessions *session.Manager) *Server {
	s := &Server{
		store:    store,
		sessions: sessions,
		logger:   slog.With("component", "api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/login", s.login)
	mux.HandleFunc("POST /v1/logout", s.logout)
	mux.HandleFunc("GET /v1/session", s.getSession)
	mux.HandleFunc("GET /v1/session/stored", s.storedSession)
	mux.HandleFunc("PUT /v1/secrets/{key}", s.setSecret)
	mux.HandleFunc("GET /v1/secrets/{key}", s.getSecret)
	mux.HandleFunc("DELETE /v1/secrets/{key}", s.deleteSecret)
	mux.HandleFunc("DELETE /v1/secrets", s.clearSecrets)
	mux.HandleFunc("GET /v1/storage", s.storageStatus)
	mux.HandleFunc("GET /v1/health", s.health)

	s.server = &http.Server{Handler: mux}
	return s
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ReplaceManager swaps the session manager, used when the agent reloads its
// configuration with a new homeserver.
func (s *Server) ReplaceManager(m *session.Manager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = m
}

func (s *Server) manager() *session.Manager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions
}

// ListenUnix starts the server on a Unix socket.
func (s *Server) ListenUnix(path string) error {
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	s.logger.Info("API listening", "socket", path)
	return s.server.Serve(ln)
}

// ListenTCP starts the server on a TCP address.
func (s *Server) ListenTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Info("API listening", "addr", addr)
	return s.server.Serve(ln)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type sessionResponse struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
	Restored bool   `json:"restored"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "malformed request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_input", "username and password are required")
		return
	}

	sess, err := s.manager().Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeStorageOrAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:   sess.UserID.String(),
		DeviceID: sess.DeviceID.String(),
		Restored: false,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.manager().Logout(r.Context()); err != nil {
		s.writeStorageOrAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// getSession is three-way: 204 when nothing is stored, 200 with the
// restored session, or an error when something stored is unusable.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager().Restore(r.Context())
	if err != nil {
		s.writeStorageOrAuthError(w, err)
		return
	}
	if sess == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		UserID:   sess.UserID.String(),
		DeviceID: sess.DeviceID.String(),
		Restored: sess.Restored,
	})
}

func (s *Server) storedSession(w http.ResponseWriter, r *http.Request) {
	stored, err := s.manager().HasStoredSession(r.Context())
	if err != nil {
		s.writeStorageOrAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"stored": stored})
}

func (s *Server) setSecret(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", "malformed request body")
		return
	}
	if err := s.store.Set(r.Context(), key, req.Value); err != nil {
		s.writeStorageOrAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

func (s *Server) getSecret(w http.ResponseWriter, r *http.Request) {
	val, err := s.store.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeStorageOrAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"value": val})
}

func (s *Server) deleteSecret(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("key")); err != nil {
		s.writeStorageOrAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) clearSecrets(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		s.writeStorageOrAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) storageStatus(w http.ResponseWriter, r *http.Request) {
	// The store handle is constructed before the server starts, so a
	// reachable agent always reports initialized.
	writeJSON(w, http.StatusOK, map[string]any{
		"persistence": s.store.Persistence().String(),
		"initialized": true,
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeStorageOrAuthError projects the closed error taxonomy onto HTTP.
func (s *Server) writeStorageOrAuthError(w http.ResponseWriter, err error) {
	var apiErr *homeserver.APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsForbidden() {
			writeError(w, http.StatusUnauthorized, "forbidden", apiErr.Message)
			return
		}
		writeError(w, http.StatusBadGateway, "homeserver", apiErr.Message)
		return
	}

	var netErr *homeserver.NetworkError
	if errors.As(err, &netErr) {
		writeError(w, http.StatusBadGateway, "network_"+string(netErr.Kind), err.Error())
		return
	}

	switch {
	case errors.Is(err, vault.ErrKeyNotFound):
		writeError(w, http.StatusNotFound, "key_not_found", err.Error())
	case errors.Is(err, vault.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, vault.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access_denied", err.Error())
	case errors.Is(err, vault.ErrBackendUnavailable):
		writeError(w, http.StatusServiceUnavailable, "backend_unavailable", err.Error())
	default:
		s.logger.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal", err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "kind": kind})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
