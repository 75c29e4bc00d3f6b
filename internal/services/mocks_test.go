package services_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/homematch/credential-platform/internal/models"
	"github.com/homematch/credential-platform/internal/repositories"
)

type MockCredentialStore struct{ mock.Mock }

func (m *MockCredentialStore) MarkRevoked(ctx context.Context, tokenID string, ttl time.Duration) error {
	return m.Called(ctx, tokenID, ttl).Error(0)
}

func (m *MockCredentialStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) PutRefreshToken(ctx context.Context, subjectID uuid.UUID, rawToken string, ttl time.Duration) error {
	return m.Called(ctx, subjectID, rawToken, ttl).Error(0)
}

func (m *MockCredentialStore) GetRefreshTokenHash(ctx context.Context, subjectID uuid.UUID) (string, error) {
	args := m.Called(ctx, subjectID)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialStore) DeleteRefreshToken(ctx context.Context, subjectID uuid.UUID) error {
	return m.Called(ctx, subjectID).Error(0)
}

func (m *MockCredentialStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, newStamp string) error {
	return m.Called(ctx, id, passwordHash, newStamp).Error(0)
}

func (m *MockUserRepository) UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName, newStamp string) error {
	return m.Called(ctx, id, displayName, newStamp).Error(0)
}

type MockLoginAttemptsRepository struct{ mock.Mock }

func (m *MockLoginAttemptsRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*repositories.LoginAttempts, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.LoginAttempts), args.Error(1)
}

func (m *MockLoginAttemptsRepository) Increment(ctx context.Context, userID uuid.UUID, lockDuration, window time.Duration, maxAttempts int) error {
	return m.Called(ctx, userID, lockDuration, window, maxAttempts).Error(0)
}

func (m *MockLoginAttemptsRepository) Reset(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockLoginAttemptsRepository) IsLocked(ctx context.Context, userID uuid.UUID) (bool, time.Time, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockLoginAttemptsRepository) CleanupStale(ctx context.Context, olderThan time.Duration) error {
	return m.Called(ctx, olderThan).Error(0)
}
