// Package user implements user account management on top of the generic
// repository.
package user

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MumuCarrot/vote-BE/internal/password"
	"github.com/MumuCarrot/vote-BE/internal/repository"
)

// Store is the persistence contract the user service needs
type Store interface {
	Create(ctx context.Context, user *repository.User, exists repository.Condition) (*repository.User, error)
	UpdateFields(ctx context.Context, patch map[string]any, cond repository.Condition) (*repository.User, error)
	Delete(ctx context.Context, cond repository.Condition) (bool, error)
	ReadOne(ctx context.Context, cond repository.Condition) (*repository.User, error)
	ReadPaginated(ctx context.Context, cond repository.Condition, page, pageSize int) ([]repository.User, error)
}

// ProfileStore persists the profile record created alongside each user
type ProfileStore interface {
	Create(ctx context.Context, profile *repository.UserProfile, exists repository.Condition) (*repository.UserProfile, error)
}

// CreateInput holds the fields needed to create a user
type CreateInput struct {
	Email     string
	Password  string
	Phone     *string
	FirstName *string
	LastName  *string
}

// UpdateInput is a merge-patch over a user's mutable fields. Nil fields
// are left untouched.
type UpdateInput struct {
	Email     *string
	Password  *string
	Phone     *string
	FirstName *string
	LastName  *string
}

// Service provides user CRUD operations
type Service struct {
	users    Store
	profiles ProfileStore
	hasher   *password.Hasher
	log      *slog.Logger
}

// NewService creates a user service
func NewService(users Store, profiles ProfileStore, hasher *password.Hasher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{users: users, profiles: profiles, hasher: hasher, log: log}
}

// Create registers a new user and its empty profile. Fails with
// repository.ErrAlreadyExists when the email is taken.
func (s *Service) Create(ctx context.Context, in CreateInput) (*repository.User, error) {
	s.log.Info("creating user", "email", in.Email)

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newUser := &repository.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    &now,
	}

	created, err := s.users.Create(ctx, newUser, repository.Eq("email", in.Email))
	if err != nil {
		return nil, err
	}

	profile := &repository.UserProfile{
		ID:        uuid.NewString(),
		UserID:    created.ID,
		CreatedAt: &now,
	}
	if _, err := s.profiles.Create(ctx, profile, repository.Condition{}); err != nil {
		return nil, err
	}

	s.log.Info("user created", "user_id", created.ID)
	return created, nil
}

// GetByID returns a user by id, or nil when absent
func (s *Service) GetByID(ctx context.Context, id string) (*repository.User, error) {
	return s.users.ReadOne(ctx, repository.Eq("id", id))
}

// GetByEmail returns a user by email, or nil when absent
func (s *Service) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return s.users.ReadOne(ctx, repository.Eq("email", email))
}

// Update merge-patches a user's fields. A changed email is re-checked for
// uniqueness; a new password is hashed before storage.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*repository.User, error) {
	s.log.Info("updating user", "user_id", id)

	existing, err := s.users.ReadOne(ctx, repository.Eq("id", id))
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, repository.ErrNotFound
	}

	if in.Email != nil && *in.Email != existing.Email {
		taken, err := s.users.ReadOne(ctx, repository.Eq("email", *in.Email))
		if err != nil {
			return nil, err
		}
		if taken != nil {
			s.log.Warn("email already taken", "email", *in.Email)
			return nil, repository.ErrAlreadyExists
		}
	}

	patch := map[string]any{}
	if in.Email != nil {
		patch["email"] = *in.Email
	}
	if in.Phone != nil {
		patch["phone"] = *in.Phone
	}
	if in.FirstName != nil {
		patch["first_name"] = *in.FirstName
	}
	if in.LastName != nil {
		patch["last_name"] = *in.LastName
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		patch["password_hash"] = hash
	}

	return s.users.UpdateFields(ctx, patch, repository.Eq("id", id))
}

// Delete removes a user. Fails with repository.ErrNotFound when absent.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.log.Info("deleting user", "user_id", id)

	deleted, err := s.users.Delete(ctx, repository.Eq("id", id))
	if err != nil {
		return err
	}
	if !deleted {
		return repository.ErrNotFound
	}
	return nil
}

// List returns one page of users; an empty page comes back as an empty
// slice, never nil.
func (s *Service) List(ctx context.Context, page, pageSize int) ([]repository.User, error) {
	users, err := s.users.ReadPaginated(ctx, repository.All(), page, pageSize)
	if err != nil {
		return nil, err
	}
	if users == nil {
		return []repository.User{}, nil
	}
	return users, nil
}
