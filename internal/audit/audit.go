// Package audit records append-only audit rows for mutating operations.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MumuCarrot/vote-BE/internal/repository"
)

// Store persists audit log rows
type Store interface {
	Create(ctx context.Context, entry *repository.AuditLog, exists repository.Condition) (*repository.AuditLog, error)
	ReadPaginated(ctx context.Context, cond repository.Condition, page, pageSize int) ([]repository.AuditLog, error)
}

// Recorder writes audit entries. Failures are logged and swallowed so
// that a broken audit trail never fails the operation being audited.
type Recorder struct {
	store Store
	log   *slog.Logger
}

// NewRecorder creates an audit recorder
func NewRecorder(store Store, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{store: store, log: log}
}

// Record persists one audit entry. userID may be empty for anonymous
// actions, entityType and entityID may be empty for system-wide ones.
func (r *Recorder) Record(ctx context.Context, userID, action, entityType, entityID string) {
	now := time.Now().UTC()
	entry := &repository.AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		Timestamp: &now,
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if entityType != "" {
		entry.EntityType = &entityType
	}
	if entityID != "" {
		entry.EntityID = &entityID
	}

	if _, err := r.store.Create(ctx, entry, repository.Condition{}); err != nil {
		r.log.Error("failed to write audit entry", "action", action, "error", err)
	}
}

// List returns a page of audit entries, newest first ordering is left to
// the caller's condition.
func (r *Recorder) List(ctx context.Context, page, pageSize int) ([]repository.AuditLog, error) {
	return r.store.ReadPaginated(ctx, repository.All(), page, pageSize)
}
