// Package blacklist tracks revoked tokens so a stolen-but-unexpired token
// can still be rejected. Entries are keyed on the raw token string and
// self-expire, so the store never grows unbounded.
package blacklist

import (
	"context"
	"time"

	"github.com/MumuCarrot/vote-BE/internal/metrics"
)

// KeyPrefix namespaces blacklist entries in the shared cache
const KeyPrefix = "blacklist:"

const revokedMarker = "1"

// KV is the minimal key-value contract the blacklist needs from the cache
type KV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

// Store records revoked tokens in an external KV cache with TTL
type Store struct {
	kv  KV
	ttl time.Duration
}

// New returns a blacklist over the given cache. Every entry is written
// with the maximum refresh-token lifetime, access tokens included, so a
// revoked access token stays listed well past its own expiry.
func New(kv KV, refreshTTL time.Duration) *Store {
	return &Store{kv: kv, ttl: refreshTTL}
}

// Revoke marks the raw token string as revoked
func (s *Store) Revoke(ctx context.Context, token string) error {
	if err := s.kv.Set(ctx, KeyPrefix+token, revokedMarker, s.ttl); err != nil {
		return err
	}
	metrics.TokensRevoked.Inc()
	return nil
}

// IsRevoked reports whether the token has been revoked and not yet aged out
func (s *Store) IsRevoked(ctx context.Context, token string) (bool, error) {
	val, err := s.kv.Get(ctx, KeyPrefix+token)
	if err != nil {
		return false, err
	}
	return val == revokedMarker, nil
}
