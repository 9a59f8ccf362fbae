package vault

import (
	"context"
	"fmt"

	"github.com/benaskins/halcyon/internal/audit"
)

// AuditedStore wraps a Store and records every credential operation to an
// audit log. Audit failures never block the underlying operation.
type AuditedStore struct {
	inner Store
	audit *audit.Logger
	actor string // "cli" or "agent"
}

// NewAuditedStore wraps an existing store with audit logging.
func NewAuditedStore(inner Store, auditLog *audit.Logger, actor string) *AuditedStore {
	return &AuditedStore{
		inner: inner,
		audit: auditLog,
		actor: actor,
	}
}

func (s *AuditedStore) Set(ctx context.Context, key, value string) error {
	if err := s.inner.Set(ctx, key, value); err != nil {
		return fmt.Errorf("audited store set: %w", err)
	}
	s.log(audit.Entry{Action: audit.ActionSecretWrite, Key: key})
	return nil
}

func (s *AuditedStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.inner.Get(ctx, key)
	if err != nil {
		// The wrap keeps the taxonomy sentinel reachable via errors.Is;
		// callers still tell "no session" from failure.
		return "", fmt.Errorf("audited store get: %w", err)
	}
	s.log(audit.Entry{Action: audit.ActionSecretRead, Key: key})
	return val, nil
}

func (s *AuditedStore) Delete(ctx context.Context, key string) error {
	if err := s.inner.Delete(ctx, key); err != nil {
		return fmt.Errorf("audited store delete: %w", err)
	}
	s.log(audit.Entry{Action: audit.ActionSecretDelete, Key: key})
	return nil
}

func (s *AuditedStore) Clear(ctx context.Context) error {
	err := s.inner.Clear(ctx)
	entry := audit.Entry{Action: audit.ActionSecretClear}
	if err != nil {
		entry.Error = err.Error()
	}
	s.log(entry)
	if err != nil {
		return fmt.Errorf("audited store clear: %w", err)
	}
	return nil
}

func (s *AuditedStore) Persistence() Persistence {
	return s.inner.Persistence()
}

// log writes an audit entry, best-effort.
func (s *AuditedStore) log(entry audit.Entry) {
	if s.audit == nil {
		return
	}
	entry.Actor = s.actor
	s.audit.Log(entry)
}
