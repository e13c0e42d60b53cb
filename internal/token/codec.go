// Package token issues and verifies the signed tokens used for
// authentication. It is the single source of truth for claim shape and
// expiry handling.
package token

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token type claim values
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrInvalidToken is returned for malformed, unsigned, expired, or
// otherwise unverifiable tokens.
var ErrInvalidToken = errors.New("invalid token")

// Config holds everything the codec needs to sign and verify tokens
type Config struct {
	PrivateKeyPEM string
	PublicKeyPEM  string
	Algorithm     string // RSA signing method identifier, e.g. RS256
	Host          string // issuer host, claims use https://<host>
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Codec signs tokens with the private key and verifies them with the
// public key.
type Codec struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	method     jwt.SigningMethod
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// TokenPair bundles an access token with its refresh token
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// NewCodec parses the configured key pair and returns a ready codec
func NewCodec(cfg Config) (*Codec, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = "RS256"
	}
	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", alg)
	}
	if _, ok := method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not an RSA method", alg)
	}

	return &Codec{
		privateKey: privateKey,
		publicKey:  publicKey,
		method:     method,
		issuer:     "https://" + cfg.Host,
		audience:   "https://" + cfg.Host + "/api",
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// AccessTTL returns the configured access token lifetime
func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

// RefreshTTL returns the configured refresh token lifetime
func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *Codec) issue(subject, tokenType string, ttl time.Duration, extra map[string]any) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"type": tokenType,
		"exp":  time.Now().Add(ttl).Unix(),
		"iss":  c.issuer,
		"aud":  c.audience,
	}
	for k, v := range extra {
		claims[k] = v
	}

	return jwt.NewWithClaims(c.method, claims).SignedString(c.privateKey)
}

// IssueAccessToken returns a signed access token for the given subject.
// Extra claims are merged into the payload.
func (c *Codec) IssueAccessToken(subject string, extra map[string]any) (string, error) {
	return c.issue(subject, TypeAccess, c.accessTTL, extra)
}

// IssueRefreshToken returns a signed refresh token for the given subject.
// A fresh jti is injected when the caller did not supply one, so each
// refresh token is individually identifiable.
func (c *Codec) IssueRefreshToken(subject string, extra map[string]any) (string, error) {
	merged := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		merged[k] = v
	}
	if _, ok := merged["jti"]; !ok {
		merged["jti"] = uuid.NewString()
	}
	return c.issue(subject, TypeRefresh, c.refreshTTL, merged)
}

// IssuePair returns an access/refresh token pair for the given subject
func (c *Codec) IssuePair(subject string, extra map[string]any) (TokenPair, error) {
	accessToken, err := c.IssueAccessToken(subject, extra)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, err := c.IssueRefreshToken(subject, extra)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Decode verifies the token signature and returns its claims. When
// verifyExpiry is set, a token whose expiry has passed (now >= exp) fails
// with ErrInvalidToken. The audience claim is not checked.
func (c *Codec) Decode(tokenString string, verifyExpiry bool) (jwt.MapClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	parsed, err := parser.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return c.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if verifyExpiry {
		exp, err := claims.GetExpirationTime()
		if err != nil || exp == nil {
			return nil, fmt.Errorf("%w: missing exp claim", ErrInvalidToken)
		}
		if !time.Now().Before(exp.Time) {
			return nil, fmt.Errorf("%w: token expired", ErrInvalidToken)
		}
	}

	return claims, nil
}

// Subject returns the sub claim of a verified token. Fails with
// ErrInvalidToken when the claim is absent.
func (c *Codec) Subject(tokenString string) (string, error) {
	claims, err := c.Decode(tokenString, true)
	if err != nil {
		return "", err
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return sub, nil
}

// IsType reports whether the token's type claim equals expected. This is a
// deliberately lossy soft check: any decode failure yields false and the
// reason is discarded. Call sites rely on the boolean contract.
func (c *Codec) IsType(tokenString, expected string) bool {
	claims, err := c.Decode(tokenString, true)
	if err != nil {
		return false
	}
	typ, _ := claims["type"].(string)
	return typ == expected
}
