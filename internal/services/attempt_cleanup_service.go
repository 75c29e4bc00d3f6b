package services

import (
	"context"
	"time"

	"github.com/homematch/credential-platform/internal/repositories"
	"github.com/homematch/credential-platform/internal/utils"
)

// Keep rows for long enough that an active lockout can never be wiped.
const staleAttemptAge = 24 * time.Hour

// AttemptCleanupService prunes stale login attempt rows so the table does
// not grow without bound.
type AttemptCleanupService struct {
	attemptsRepo repositories.LoginAttemptsRepository
}

func NewAttemptCleanupService(attemptsRepo repositories.LoginAttemptsRepository) *AttemptCleanupService {
	return &AttemptCleanupService{attemptsRepo: attemptsRepo}
}

func (s *AttemptCleanupService) CleanupDaily(ctx context.Context) error {
	if err := s.attemptsRepo.CleanupStale(ctx, staleAttemptAge); err != nil {
		return err
	}
	utils.Logger.Info("Cleaned up stale login attempts")
	return nil
}
