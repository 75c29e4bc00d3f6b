package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/homematch/credential-platform/internal/utils"
)

// Key prefixes are fixed per namespace so revocation markers and refresh
// tokens can never collide.
const (
	revokedKeyPrefix = "revoked:"
	refreshKeyPrefix = "refresh:"
)

// CredentialStore is the shared cache contract the issuer, the gateway and
// every backend service coordinate through. Writes followed by reads from a
// different caller observe the write (linearizable per key).
type CredentialStore interface {
	// MarkRevoked writes a revocation marker for the token identifier. The
	// TTL must cover the token's remaining validity window. Re-writing an
	// existing marker succeeds.
	MarkRevoked(ctx context.Context, tokenID string, ttl time.Duration) error

	// IsRevoked reports whether a revocation marker exists for the token
	// identifier. A store failure is returned wrapped in
	// utils.ErrStoreUnavailable so callers can apply their fail policy.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// PutRefreshToken stores the hash of a refresh token keyed by subject,
	// overwriting any prior value. Last writer wins: a new login invalidates
	// the previous session's refresh chain.
	PutRefreshToken(ctx context.Context, subjectID uuid.UUID, rawToken string, ttl time.Duration) error

	// GetRefreshTokenHash returns the stored hash for the subject, or ""
	// when no live refresh token exists.
	GetRefreshTokenHash(ctx context.Context, subjectID uuid.UUID) (string, error)

	// DeleteRefreshToken removes the subject's refresh token. Deleting an
	// absent entry is a no-op.
	DeleteRefreshToken(ctx context.Context, subjectID uuid.UUID) error

	Ping(ctx context.Context) error
}

type credentialStore struct {
	client  *redis.Client
	timeout time.Duration
}

// NewCredentialStore wraps an injected Redis client. The timeout bounds
// every call; the client's lifecycle belongs to the process bootstrap.
func NewCredentialStore(client *redis.Client, timeout time.Duration) CredentialStore {
	return &credentialStore{client: client, timeout: timeout}
}

func (s *credentialStore) MarkRevoked(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		// The token is already past its expiry; signature validation alone
		// rejects it, so there is nothing left to revoke.
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: marking token revoked: %v", utils.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *credentialStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.Get(ctx, revokedKeyPrefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: revocation lookup: %v", utils.ErrStoreUnavailable, err)
	}
	return true, nil
}

func (s *credentialStore) PutRefreshToken(ctx context.Context, subjectID uuid.UUID, rawToken string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Only the hash ever enters the cache; a cache dump must not leak
	// usable credential material.
	hashed := utils.HashToken(rawToken)
	if err := s.client.Set(ctx, refreshKeyPrefix+subjectID.String(), hashed, ttl).Err(); err != nil {
		return fmt.Errorf("%w: storing refresh token: %v", utils.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *credentialStore) GetRefreshTokenHash(ctx context.Context, subjectID uuid.UUID) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	val, err := s.client.Get(ctx, refreshKeyPrefix+subjectID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: refresh token lookup: %v", utils.ErrStoreUnavailable, err)
	}
	return val, nil
}

func (s *credentialStore) DeleteRefreshToken(ctx context.Context, subjectID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, refreshKeyPrefix+subjectID.String()).Err(); err != nil {
		return fmt.Errorf("%w: deleting refresh token: %v", utils.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *credentialStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}
