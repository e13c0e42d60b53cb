package token

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func testKeyPair(t testing.TB) (string, string) {
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
	pubPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubDER,
	})

	return string(privPEM), string(pubPEM)
}

func newTestCodec(t testing.TB, accessTTL, refreshTTL time.Duration) *Codec {
	t.Helper()

	priv, pub := testKeyPair(t)
	c, err := NewCodec(Config{
		PrivateKeyPEM: priv,
		PublicKeyPEM:  pub,
		Algorithm:     "RS256",
		Host:          "vote.example.com",
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	})
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	return c
}

func TestIssueAndDecodeRoundtrip(t *testing.T) {
	c := newTestCodec(t, 15*time.Minute, 7*24*time.Hour)

	rapid.Check(t, func(t *rapid.T) {
		subject := rapid.StringMatching(`[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}`).Draw(t, "subject")

		pair, err := c.IssuePair(subject, nil)
		if err != nil {
			t.Fatalf("failed to issue pair: %v", err)
		}

		gotAccess, err := c.Subject(pair.AccessToken)
		if err != nil {
			t.Fatalf("failed to read access subject: %v", err)
		}
		if gotAccess != subject {
			t.Errorf("access subject = %q, want %q", gotAccess, subject)
		}

		gotRefresh, err := c.Subject(pair.RefreshToken)
		if err != nil {
			t.Fatalf("failed to read refresh subject: %v", err)
		}
		if gotRefresh != subject {
			t.Errorf("refresh subject = %q, want %q", gotRefresh, subject)
		}
	})
}

func TestTokenTypeClaims(t *testing.T) {
	c := newTestCodec(t, 15*time.Minute, 7*24*time.Hour)

	pair, err := c.IssuePair("user-1", nil)
	if err != nil {
		t.Fatalf("failed to issue pair: %v", err)
	}

	if !c.IsType(pair.AccessToken, TypeAccess) {
		t.Error("access token does not report type access")
	}
	if c.IsType(pair.AccessToken, TypeRefresh) {
		t.Error("access token reports type refresh")
	}
	if !c.IsType(pair.RefreshToken, TypeRefresh) {
		t.Error("refresh token does not report type refresh")
	}
	if c.IsType(pair.RefreshToken, TypeAccess) {
		t.Error("refresh token reports type access")
	}
}

func TestRefreshTokenCarriesJTI(t *testing.T) {
	c := newTestCodec(t, 15*time.Minute, 7*24*time.Hour)

	pair, err := c.IssuePair("user-1", nil)
	if err != nil {
		t.Fatalf("failed to issue pair: %v", err)
	}

	refreshClaims, err := c.Decode(pair.RefreshToken, true)
	if err != nil {
		t.Fatalf("failed to decode refresh token: %v", err)
	}
	jti, _ := refreshClaims["jti"].(string)
	if jti == "" {
		t.Error("refresh token missing jti claim")
	}

	accessClaims, err := c.Decode(pair.AccessToken, true)
	if err != nil {
		t.Fatalf("failed to decode access token: %v", err)
	}
	if _, ok := accessClaims["jti"]; ok {
		t.Error("access token unexpectedly carries a jti claim")
	}
}

func TestRefreshTokensAreUnique(t *testing.T) {
	c := newTestCodec(t, 15*time.Minute, 7*24*time.Hour)

	first, err := c.IssueRefreshToken("user-1", nil)
	if err != nil {
		t.Fatalf("failed to issue first refresh token: %v", err)
	}
	second, err := c.IssueRefreshToken("user-1", nil)
	if err != nil {
		t.Fatalf("failed to issue second refresh token: %v", err)
	}
	if first == second {
		t.Error("two refresh tokens for the same subject are identical")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	c := newTestCodec(t, -1*time.Minute, 7*24*time.Hour)

	expired, err := c.IssueAccessToken("user-1", nil)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	if _, err := c.Decode(expired, true); err == nil {
		t.Error("expected decode of expired token to fail")
	}
	if _, err := c.Subject(expired); err == nil {
		t.Error("expected subject of expired token to fail")
	}
	if c.IsType(expired, TypeAccess) {
		t.Error("IsType reports true for an expired token")
	}

	// Skipping expiry verification still yields the claims
	claims, err := c.Decode(expired, false)
	if err != nil {
		t.Fatalf("decode without expiry check failed: %v", err)
	}
	if sub, _ := claims["sub"].(string); sub != "user-1" {
		t.Errorf("sub claim = %q, want user-1", sub)
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	c := newTestCodec(t, 15*time.Minute, 7*24*time.Hour)

	for _, tokenString := range []string{"", "garbage", "a.b.c"} {
		if _, err := c.Decode(tokenString, true); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", tokenString)
		}
		if c.IsType(tokenString, TypeAccess) {
			t.Errorf("IsType(%q) = true, want false", tokenString)
		}
	}
}

func TestForeignKeySignatureRejected(t *testing.T) {
	issuing := newTestCodec(t, 15*time.Minute, 7*24*time.Hour)
	verifying := newTestCodec(t, 15*time.Minute, 7*24*time.Hour)

	tokenString, err := issuing.IssueAccessToken("user-1", nil)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	if _, err := verifying.Decode(tokenString, true); err == nil {
		t.Error("token signed with a different key was accepted")
	}
}

func TestExtraClaimsMerged(t *testing.T) {
	c := newTestCodec(t, 15*time.Minute, 7*24*time.Hour)

	tokenString, err := c.IssueAccessToken("user-1", map[string]any{"email": "a@b.com"})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	claims, err := c.Decode(tokenString, true)
	if err != nil {
		t.Fatalf("failed to decode token: %v", err)
	}
	if email, _ := claims["email"].(string); email != "a@b.com" {
		t.Errorf("email claim = %q, want a@b.com", email)
	}
}
