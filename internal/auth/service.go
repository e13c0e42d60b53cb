// Package auth orchestrates the credential lifecycle: registration,
// login with attempt auditing, refresh-token rotation, and logout. There
// is no persisted session object; state lives in the issued tokens, the
// blacklist, and the login-attempt rows.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MumuCarrot/vote-BE/internal/metrics"
	"github.com/MumuCarrot/vote-BE/internal/repository"
	"github.com/MumuCarrot/vote-BE/internal/token"
	"github.com/MumuCarrot/vote-BE/internal/user"
)

// Auth service errors
var (
	// ErrInvalidCredentials is deliberately shared between unknown-email
	// and wrong-password failures so callers cannot tell which check failed
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrTokenBlacklisted means the presented token was previously revoked
	ErrTokenBlacklisted = errors.New("token is blacklisted")
	// ErrTokenNotFound means no token was presented where one is required
	ErrTokenNotFound = errors.New("token not found")
	// ErrInvalidTokenType means the token's type claim does not match the
	// operation requesting it
	ErrInvalidTokenType = errors.New("invalid token type")
)

// UserDirectory is the slice of the user service the auth flow needs
type UserDirectory interface {
	Create(ctx context.Context, in user.CreateInput) (*repository.User, error)
	GetByEmail(ctx context.Context, email string) (*repository.User, error)
	GetByID(ctx context.Context, id string) (*repository.User, error)
}

// AttemptStore persists login-attempt audit rows
type AttemptStore interface {
	Create(ctx context.Context, attempt *repository.LoginAttempt, exists repository.Condition) (*repository.LoginAttempt, error)
}

// Revoker tracks revoked tokens
type Revoker interface {
	Revoke(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Verifier checks a password against its stored hash
type Verifier interface {
	Verify(plain, hash string) error
}

// Service implements the authentication flows
type Service struct {
	users     UserDirectory
	attempts  AttemptStore
	codec     *token.Codec
	blacklist Revoker
	passwords Verifier
	secure    bool // Secure flag on token cookies
	log       *slog.Logger
}

// NewService creates an auth service
func NewService(
	users UserDirectory,
	attempts AttemptStore,
	codec *token.Codec,
	blacklist Revoker,
	passwords Verifier,
	secureCookies bool,
	log *slog.Logger,
) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		users:     users,
		attempts:  attempts,
		codec:     codec,
		blacklist: blacklist,
		passwords: passwords,
		secure:    secureCookies,
		log:       log,
	}
}

// Codec exposes the token codec for boundary gating
func (s *Service) Codec() *token.Codec {
	return s.codec
}

// Blacklist exposes the revocation store for boundary gating
func (s *Service) Blacklist() Revoker {
	return s.blacklist
}

// Register creates a new user and issues its first token pair. Fails with
// repository.ErrAlreadyExists when the email is taken, and with
// repository.ErrNotFound if the created user cannot be re-fetched.
func (s *Service) Register(ctx context.Context, in user.CreateInput) (*repository.User, token.TokenPair, error) {
	s.log.Info("registering new user", "email", in.Email)

	created, err := s.users.Create(ctx, in)
	if err != nil {
		return nil, token.TokenPair{}, err
	}

	// Re-fetch by email; an empty result here means the row vanished
	// between create and read.
	fetched, err := s.users.GetByEmail(ctx, created.Email)
	if err != nil {
		return nil, token.TokenPair{}, err
	}
	if fetched == nil {
		return nil, token.TokenPair{}, repository.ErrNotFound
	}

	pair, err := s.issuePair(fetched.ID)
	if err != nil {
		return nil, token.TokenPair{}, err
	}

	s.log.Info("user registered", "user_id", fetched.ID)
	return fetched, pair, nil
}

// Login authenticates a user. Exactly one LoginAttempt row is persisted
// per call, before any failure is surfaced: failed attempts are recorded
// even when the email is unknown.
func (s *Service) Login(ctx context.Context, email, plainPassword, clientIP string) (*repository.User, token.TokenPair, error) {
	s.log.Info("login attempt", "email", email)

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, token.TokenPair{}, err
	}

	now := time.Now().UTC()
	attempt := &repository.LoginAttempt{
		ID:        uuid.NewString(),
		Email:     &email,
		IPAddress: &clientIP,
		Success:   false,
		Timestamp: &now,
	}
	if u != nil {
		attempt.UserID = &u.ID
	}

	if u == nil {
		s.log.Warn("login failed, unknown email", "email", email)
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		if _, err := s.attempts.Create(ctx, attempt, repository.Condition{}); err != nil {
			return nil, token.TokenPair{}, err
		}
		return nil, token.TokenPair{}, ErrInvalidCredentials
	}

	if err := s.passwords.Verify(plainPassword, u.PasswordHash); err != nil {
		s.log.Warn("login failed, bad password", "user_id", u.ID)
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		if _, err := s.attempts.Create(ctx, attempt, repository.Condition{}); err != nil {
			return nil, token.TokenPair{}, err
		}
		return nil, token.TokenPair{}, ErrInvalidCredentials
	}

	attempt.Success = true
	if _, err := s.attempts.Create(ctx, attempt, repository.Condition{}); err != nil {
		return nil, token.TokenPair{}, err
	}

	pair, err := s.issuePair(u.ID)
	if err != nil {
		return nil, token.TokenPair{}, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info("login succeeded", "user_id", u.ID)
	return u, pair, nil
}

// Refresh rotates a refresh token: the old token is revoked and a fresh
// pair issued, making refresh tokens single-use. Fails with
// ErrTokenBlacklisted, token.ErrInvalidToken, or repository.ErrNotFound
// in that order of checks.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (token.TokenPair, error) {
	revoked, err := s.blacklist.IsRevoked(ctx, refreshToken)
	if err != nil {
		return token.TokenPair{}, err
	}
	if revoked {
		s.log.Warn("refresh rejected, token blacklisted")
		return token.TokenPair{}, ErrTokenBlacklisted
	}

	subject, err := s.codec.Subject(refreshToken)
	if err != nil {
		s.log.Warn("refresh rejected, invalid token")
		return token.TokenPair{}, err
	}

	u, err := s.users.GetByID(ctx, subject)
	if err != nil {
		return token.TokenPair{}, err
	}
	if u == nil {
		s.log.Warn("refresh rejected, user gone", "user_id", subject)
		return token.TokenPair{}, repository.ErrNotFound
	}

	if err := s.blacklist.Revoke(ctx, refreshToken); err != nil {
		return token.TokenPair{}, err
	}

	pair, err := s.issuePair(subject)
	if err != nil {
		return token.TokenPair{}, err
	}

	s.log.Info("token refreshed", "user_id", subject)
	return pair, nil
}

// issuePair issues a token pair and counts the issued tokens
func (s *Service) issuePair(subject string) (token.TokenPair, error) {
	pair, err := s.codec.IssuePair(subject, nil)
	if err != nil {
		return token.TokenPair{}, err
	}
	metrics.TokensIssued.WithLabelValues(token.TypeAccess).Inc()
	metrics.TokensIssued.WithLabelValues(token.TypeRefresh).Inc()
	return pair, nil
}

// Logout revokes the access token unconditionally, and the refresh token
// when the caller presented one. A logout without the refresh token
// leaves any still-valid refresh token usable.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if err := s.blacklist.Revoke(ctx, accessToken); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := s.blacklist.Revoke(ctx, refreshToken); err != nil {
			return err
		}
	}
	s.log.Info("user logged out")
	return nil
}
