package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/homematch/credential-platform/internal/config"
	"github.com/homematch/credential-platform/internal/middleware"
	"github.com/homematch/credential-platform/internal/models"
	"github.com/homematch/credential-platform/internal/repositories"
	"github.com/homematch/credential-platform/internal/utils"
)

// ---------------------------------------------------------------------
// AuthService interface
// ---------------------------------------------------------------------

type AuthService interface {
	// Authenticate verifies the credentials and, on success, issues a
	// fresh access/refresh token pair. Unknown usernames and wrong
	// passwords are indistinguishable to the caller.
	Authenticate(ctx context.Context, username, password string) (*TokenPair, error)

	// Refresh exchanges a valid access token plus the subject's current
	// refresh token for a new pair. The old refresh token stops working.
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)

	// Logout revokes the access token for its remaining lifetime and
	// discards the subject's refresh token.
	Logout(ctx context.Context, accessToken string) error

	// ChangePassword verifies the current password, stores the new hash
	// and rotates the security stamp so outstanding tokens can be cut off.
	ChangePassword(ctx context.Context, subjectID uuid.UUID, currentPassword, newPassword string) error

	// UpdateProfile changes the display name and rotates the security
	// stamp.
	UpdateProfile(ctx context.Context, subjectID uuid.UUID, displayName string) error

	// VerifyStamp reports whether the stamp carried by a token still
	// matches the directory record. Satisfies middleware.StampChecker.
	VerifyStamp(ctx context.Context, subjectID, stamp string) (bool, error)
}

// TokenPair is the result of a successful issuance.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type authService struct {
	cfg          *config.Config
	userRepo     repositories.UserRepository
	attemptsRepo repositories.LoginAttemptsRepository
	jwtService   JWTService
	store        repositories.CredentialStore
}

func NewAuthService(
	cfg *config.Config,
	userRepo repositories.UserRepository,
	attemptsRepo repositories.LoginAttemptsRepository,
	jwtService JWTService,
	store repositories.CredentialStore,
) AuthService {
	return &authService{
		cfg:          cfg,
		userRepo:     userRepo,
		attemptsRepo: attemptsRepo,
		jwtService:   jwtService,
		store:        store,
	}
}

// ---------------------------------------------------------------------
// Authenticate
// ---------------------------------------------------------------------

func (s *authService) Authenticate(ctx context.Context, username, password string) (*TokenPair, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		utils.Logger.WithField("username", username).Info("Login attempt for unknown username")
		return nil, utils.ErrInvalidCredentials
	}

	if _, err := s.attemptsRepo.GetOrCreate(ctx, user.ID); err != nil {
		return nil, err
	}
	locked, lockedUntil, err := s.attemptsRepo.IsLocked(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if locked {
		utils.Logger.WithFields(logrus.Fields{
			"subject_id":   user.ID,
			"locked_until": lockedUntil,
		}).Warn("Login attempt against locked account")
		return nil, utils.ErrAccountLocked
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		if err := s.attemptsRepo.Increment(ctx, user.ID, s.cfg.LockDuration, s.cfg.AttemptWindow, s.cfg.MaxLoginAttempts); err != nil {
			utils.Logger.WithError(err).Error("Failed to record failed login attempt")
		}
		utils.Logger.WithField("subject_id", user.ID).Info("Login attempt with wrong password")
		return nil, utils.ErrInvalidCredentials
	}

	if err := s.attemptsRepo.Reset(ctx, user.ID); err != nil {
		utils.Logger.WithError(err).Error("Failed to reset login attempts")
	}

	return s.issuePair(ctx, user)
}

// ---------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------

func (s *authService) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: access token expired", utils.ErrRefreshMismatch)
		}
		return nil, utils.ErrRefreshMismatch
	}

	tokenID := middleware.TokenIDFromClaims(claims)
	revoked, err := s.store.IsRevoked(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		utils.Logger.WithField("jti", tokenID).Info("Refresh attempt with revoked access token")
		return nil, utils.ErrRefreshMismatch
	}

	sub, _ := claims[middleware.ClaimSubject].(string)
	subjectID, err := uuid.Parse(sub)
	if err != nil {
		return nil, utils.ErrRefreshMismatch
	}

	storedHash, err := s.store.GetRefreshTokenHash(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	presentedHash := utils.HashToken(refreshToken)
	if storedHash == "" || subtle.ConstantTimeCompare([]byte(storedHash), []byte(presentedHash)) != 1 {
		utils.Logger.WithField("subject_id", subjectID).Info("Refresh attempt with stale or unknown refresh token")
		return nil, utils.ErrRefreshMismatch
	}

	user, err := s.userRepo.GetByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, utils.ErrRefreshMismatch
	}

	return s.issuePair(ctx, user)
}

// ---------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------

func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtService.ValidateAccessToken(accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// Nothing left to revoke, but an authentic expired token can
			// still clear its subject's refresh entry.
			s.clearExpiredSession(ctx, accessToken)
			return nil
		}
		return utils.ErrInvalidCredentials
	}
	return s.jwtService.RevokeAccessToken(ctx, claims)
}

// clearExpiredSession deletes the refresh token named by an expired access
// token. The signature is still verified; only the expiry is tolerated.
func (s *authService) clearExpiredSession(ctx context.Context, accessToken string) {
	tok, err := middleware.ValidateTokenAllowExpired(accessToken, s.cfg.JWTSecret, s.cfg.TokenIssuer, s.cfg.TokenAudience)
	if err != nil {
		return
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return
	}
	sub, _ := claims[middleware.ClaimSubject].(string)
	subjectID, err := uuid.Parse(sub)
	if err != nil {
		return
	}
	if err := s.store.DeleteRefreshToken(ctx, subjectID); err != nil {
		utils.Logger.WithError(err).Error("Failed to delete refresh token during expired-token logout")
	}
}

// ---------------------------------------------------------------------
// ChangePassword / UpdateProfile
// ---------------------------------------------------------------------

func (s *authService) ChangePassword(ctx context.Context, subjectID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, subjectID)
	if err != nil {
		return err
	}
	if user == nil {
		return utils.ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(currentPassword, user.PasswordHash) {
		utils.Logger.WithField("subject_id", subjectID).Info("Password change attempt with wrong current password")
		return utils.ErrInvalidCredentials
	}

	newHash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, subjectID, newHash, uuid.NewString()); err != nil {
		return err
	}

	utils.Logger.WithField("subject_id", subjectID).Info("Password changed, security stamp rotated")
	return nil
}

func (s *authService) UpdateProfile(ctx context.Context, subjectID uuid.UUID, displayName string) error {
	if err := s.userRepo.UpdateDisplayName(ctx, subjectID, displayName, uuid.NewString()); err != nil {
		return err
	}
	utils.Logger.WithField("subject_id", subjectID).Info("Profile updated, security stamp rotated")
	return nil
}

// ---------------------------------------------------------------------
// VerifyStamp
// ---------------------------------------------------------------------

func (s *authService) VerifyStamp(ctx context.Context, subjectID, stamp string) (bool, error) {
	id, err := uuid.Parse(subjectID)
	if err != nil {
		return false, nil
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}
	return user.SecurityStamp == stamp, nil
}

// ---------------------------------------------------------------------
// issuance
// ---------------------------------------------------------------------

func (s *authService) issuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, tokenID, expiresAt, err := s.jwtService.GenerateAccessToken(ctx, user)
	if err != nil {
		return nil, err
	}

	refresh, err := s.jwtService.GenerateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	utils.Logger.WithFields(logrus.Fields{
		"subject_id": user.ID,
		"jti":        tokenID,
	}).Info("Issued token pair")

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		ExpiresAt:    expiresAt,
	}, nil
}
