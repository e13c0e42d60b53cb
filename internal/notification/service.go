// Package notification stores per-user notifications and lets users
// page through and acknowledge them.
package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MumuCarrot/vote-BE/internal/metrics"
	"github.com/MumuCarrot/vote-BE/internal/repository"
)

// Store persists notification rows
type Store interface {
	Create(ctx context.Context, n *repository.Notification, exists repository.Condition) (*repository.Notification, error)
	ReadOne(ctx context.Context, cond repository.Condition) (*repository.Notification, error)
	ReadPaginated(ctx context.Context, cond repository.Condition, page, pageSize int) ([]repository.Notification, error)
	UpdateFields(ctx context.Context, patch map[string]any, cond repository.Condition) (*repository.Notification, error)
}

// Service provides notification operations
type Service struct {
	store Store
	log   *slog.Logger
}

// NewService creates a notification service
func NewService(store Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log}
}

// Notify creates an unread notification for a user
func (s *Service) Notify(ctx context.Context, userID, message string) (*repository.Notification, error) {
	now := time.Now().UTC()
	n := &repository.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		IsRead:    false,
		CreatedAt: &now,
	}

	created, err := s.store.Create(ctx, n, repository.Condition{})
	if err != nil {
		return nil, err
	}

	metrics.NotificationsSent.Inc()
	s.log.Info("notification created", "notification_id", created.ID, "user_id", userID)
	return created, nil
}

// ListForUser returns a page of a user's notifications
func (s *Service) ListForUser(ctx context.Context, userID string, page, pageSize int) ([]repository.Notification, error) {
	notifications, err := s.store.ReadPaginated(ctx, repository.Eq("user_id", userID), page, pageSize)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		return []repository.Notification{}, nil
	}
	return notifications, nil
}

// MarkRead flags one of the user's notifications as read. A notification
// belonging to another user surfaces as repository.ErrNotFound.
func (s *Service) MarkRead(ctx context.Context, id, userID string) (*repository.Notification, error) {
	n, err := s.store.ReadOne(ctx, repository.And(
		repository.Eq("id", id),
		repository.Eq("user_id", userID),
	))
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, repository.ErrNotFound
	}

	return s.store.UpdateFields(ctx, map[string]any{"is_read": true}, repository.Eq("id", id))
}
