package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MumuCarrot/vote-BE/internal/repository"
	"github.com/MumuCarrot/vote-BE/internal/token"
	"github.com/MumuCarrot/vote-BE/internal/user"
)

// fakeUsers keeps users in memory, keyed by id and email
type fakeUsers struct {
	byID    map[string]*repository.User
	byEmail map[string]*repository.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		byID:    make(map[string]*repository.User),
		byEmail: make(map[string]*repository.User),
	}
}

func (f *fakeUsers) add(email, passwordHash string) *repository.User {
	u := &repository.User{ID: uuid.NewString(), Email: email, PasswordHash: passwordHash}
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return u
}

func (f *fakeUsers) Create(ctx context.Context, in user.CreateInput) (*repository.User, error) {
	if _, ok := f.byEmail[in.Email]; ok {
		return nil, repository.ErrAlreadyExists
	}
	return f.add(in.Email, "hash:"+in.Password), nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*repository.User, error) {
	return f.byID[id], nil
}

// fakeAttempts records every persisted login attempt
type fakeAttempts struct {
	rows []repository.LoginAttempt
}

func (f *fakeAttempts) Create(ctx context.Context, attempt *repository.LoginAttempt, exists repository.Condition) (*repository.LoginAttempt, error) {
	f.rows = append(f.rows, *attempt)
	return attempt, nil
}

// fakeRevoker is an in-memory revocation set
type fakeRevoker struct {
	revoked map[string]bool
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: make(map[string]bool)}
}

func (f *fakeRevoker) Revoke(ctx context.Context, t string) error {
	f.revoked[t] = true
	return nil
}

func (f *fakeRevoker) IsRevoked(ctx context.Context, t string) (bool, error) {
	return f.revoked[t], nil
}

// fakeVerifier accepts a password when its fake hash matches
type fakeVerifier struct{}

func (fakeVerifier) Verify(plain, hash string) error {
	if hash != "hash:"+plain {
		return errors.New("password mismatch")
	}
	return nil
}

func testCodec(t testing.TB) *token.Codec {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate RSA key: %v", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("failed to marshal public key: %v", err)
	}
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	c, err := token.NewCodec(token.Config{
		PrivateKeyPEM: string(privPEM),
		PublicKeyPEM:  string(pubPEM),
		Algorithm:     "RS256",
		Host:          "vote.example.com",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	return c
}

type testEnv struct {
	svc      *Service
	users    *fakeUsers
	attempts *fakeAttempts
	revoker  *fakeRevoker
	codec    *token.Codec
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()

	users := newFakeUsers()
	attempts := &fakeAttempts{}
	revoker := newFakeRevoker()
	codec := testCodec(t)

	svc := NewService(users, attempts, codec, revoker, fakeVerifier{}, false, nil)
	return &testEnv{svc: svc, users: users, attempts: attempts, revoker: revoker, codec: codec}
}

func TestRegisterIssuesTokensForNewUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, pair, err := env.svc.Register(ctx, user.CreateInput{Email: "a@b.com", Password: "pw123456"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if u == nil || u.Email != "a@b.com" {
		t.Fatalf("unexpected user: %+v", u)
	}

	sub, err := env.codec.Subject(pair.AccessToken)
	if err != nil {
		t.Fatalf("failed to read access subject: %v", err)
	}
	if sub != u.ID {
		t.Errorf("access subject = %q, want %q", sub, u.ID)
	}
	if !env.codec.IsType(pair.RefreshToken, token.TypeRefresh) {
		t.Error("refresh token has the wrong type claim")
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.users.add("a@b.com", "hash:pw123456")

	_, _, err := env.svc.Register(ctx, user.CreateInput{Email: "a@b.com", Password: "other"})
	if !errors.Is(err, repository.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestLoginSuccessRecordsOneAttempt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.users.add("a@b.com", "hash:pw123456")

	u, pair, err := env.svc.Login(ctx, "a@b.com", "pw123456", "203.0.113.1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if u.ID != created.ID {
		t.Errorf("user id = %q, want %q", u.ID, created.ID)
	}

	sub, err := env.codec.Subject(pair.AccessToken)
	if err != nil || sub != created.ID {
		t.Errorf("access subject = %q (err %v), want %q", sub, err, created.ID)
	}

	if len(env.attempts.rows) != 1 {
		t.Fatalf("attempt rows = %d, want exactly 1", len(env.attempts.rows))
	}
	row := env.attempts.rows[0]
	if !row.Success {
		t.Error("successful login recorded as failure")
	}
	if row.UserID == nil || *row.UserID != created.ID {
		t.Error("attempt row missing the user id")
	}
	if row.Email == nil || *row.Email != "a@b.com" {
		t.Error("attempt row missing the email")
	}
	if row.IPAddress == nil || *row.IPAddress != "203.0.113.1" {
		t.Error("attempt row missing the client ip")
	}
}

func TestLoginUnknownEmailStillRecordsAttempt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, _, err := env.svc.Login(ctx, "nobody@b.com", "pw123456", "203.0.113.1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}

	if len(env.attempts.rows) != 1 {
		t.Fatalf("attempt rows = %d, want exactly 1", len(env.attempts.rows))
	}
	row := env.attempts.rows[0]
	if row.Success {
		t.Error("failed login recorded as success")
	}
	if row.UserID != nil {
		t.Error("unknown email must leave the user id unset")
	}
	if row.Email == nil || *row.Email != "nobody@b.com" {
		t.Error("attempt row missing the attempted email")
	}
}

func TestLoginWrongPasswordRecordsAttemptWithUserID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.users.add("a@b.com", "hash:pw123456")

	_, _, err := env.svc.Login(ctx, "a@b.com", "wrong", "203.0.113.1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}

	if len(env.attempts.rows) != 1 {
		t.Fatalf("attempt rows = %d, want exactly 1", len(env.attempts.rows))
	}
	row := env.attempts.rows[0]
	if row.Success {
		t.Error("failed login recorded as success")
	}
	if row.UserID == nil || *row.UserID != created.ID {
		t.Error("known email must carry the user id even on a bad password")
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u := env.users.add("a@b.com", "hash:pw123456")
	_, pair, err := env.svc.Login(ctx, "a@b.com", "pw123456", "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	fresh, err := env.svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if fresh.RefreshToken == pair.RefreshToken {
		t.Error("refresh returned the same refresh token")
	}
	sub, err := env.codec.Subject(fresh.AccessToken)
	if err != nil || sub != u.ID {
		t.Errorf("rotated access subject = %q (err %v), want %q", sub, err, u.ID)
	}

	// The old token is revoked by the rotation and cannot be used again
	_, err = env.svc.Refresh(ctx, pair.RefreshToken)
	if !errors.Is(err, ErrTokenBlacklisted) {
		t.Errorf("second refresh err = %v, want ErrTokenBlacklisted", err)
	}
}

func TestRefreshChecksBlacklistBeforeSignature(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A revoked garbage string fails as blacklisted, not as invalid
	if err := env.revoker.Revoke(ctx, "garbage"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	_, err := env.svc.Refresh(ctx, "garbage")
	if !errors.Is(err, ErrTokenBlacklisted) {
		t.Errorf("err = %v, want ErrTokenBlacklisted", err)
	}

	// An unrevoked garbage string fails signature verification
	_, err = env.svc.Refresh(ctx, "other-garbage")
	if !errors.Is(err, token.ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshFailsWhenUserGone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u := env.users.add("a@b.com", "hash:pw123456")
	_, pair, err := env.svc.Login(ctx, "a@b.com", "pw123456", "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	delete(env.users.byID, u.ID)
	delete(env.users.byEmail, u.Email)

	_, err = env.svc.Refresh(ctx, pair.RefreshToken)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLogoutRevokesTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.users.add("a@b.com", "hash:pw123456")
	_, pair, err := env.svc.Login(ctx, "a@b.com", "pw123456", "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := env.svc.Logout(ctx, pair.AccessToken, pair.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	for _, tt := range []string{pair.AccessToken, pair.RefreshToken} {
		revoked, err := env.revoker.IsRevoked(ctx, tt)
		if err != nil {
			t.Fatalf("IsRevoked failed: %v", err)
		}
		if !revoked {
			t.Error("token still valid after logout")
		}
	}
}

func TestLogoutWithoutRefreshLeavesItUsable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.users.add("a@b.com", "hash:pw123456")
	_, pair, err := env.svc.Login(ctx, "a@b.com", "pw123456", "")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := env.svc.Logout(ctx, pair.AccessToken, ""); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	revoked, err := env.revoker.IsRevoked(ctx, pair.AccessToken)
	if err != nil || !revoked {
		t.Error("access token not revoked by logout")
	}

	// The refresh cookie was not presented, so the token stays live
	if _, err := env.svc.Refresh(ctx, pair.RefreshToken); err != nil {
		t.Errorf("refresh after partial logout failed: %v", err)
	}
}
