package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/homematch/credential-platform/internal/config"
	"github.com/homematch/credential-platform/internal/middleware"
	"github.com/homematch/credential-platform/internal/models"
	"github.com/homematch/credential-platform/internal/repositories"
	"github.com/homematch/credential-platform/internal/utils"
)

// ---------------------------------------------------------------------
// JWTService interface
// ---------------------------------------------------------------------

type JWTService interface {
	// GenerateAccessToken mints a signed access token for the user with a
	// fresh unique token identifier. The token is never stored.
	GenerateAccessToken(ctx context.Context, user *models.User) (token string, tokenID string, expiresAt time.Time, err error)

	// GenerateRefreshToken mints an opaque refresh token and stores its
	// hash in the credential store, replacing any prior token for the
	// subject.
	GenerateRefreshToken(ctx context.Context, subjectID uuid.UUID) (*models.RefreshToken, error)

	// ValidateAccessToken runs the full cryptographic check and returns
	// the claims. Expired tokens fail here; refresh requires a still-valid
	// access token.
	ValidateAccessToken(tokenString string) (jwt.MapClaims, error)

	// RevokeAccessToken writes the revocation marker for the token's
	// identifier, covering exactly the token's remaining validity window,
	// and deletes the subject's refresh token. Both writes are attempted;
	// a failed revocation write fails the call.
	RevokeAccessToken(ctx context.Context, claims jwt.MapClaims) error
}

type jwtService struct {
	cfg   *config.Config
	store repositories.CredentialStore
}

func NewJWTService(cfg *config.Config, store repositories.CredentialStore) JWTService {
	return &jwtService{cfg: cfg, store: store}
}

// ---------------------------------------------------------------------
// GenerateAccessToken
// ---------------------------------------------------------------------

func (j *jwtService) GenerateAccessToken(ctx context.Context, user *models.User) (string, string, time.Time, error) {
	tokenID := uuid.NewString()
	expiresAt := time.Now().Add(j.cfg.AccessTokenExpiry)

	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}

	claims := jwt.MapClaims{
		"iss":                         j.cfg.TokenIssuer,
		"aud":                         j.cfg.TokenAudience,
		middleware.ClaimSubject:       user.ID.String(),
		middleware.ClaimDisplayName:   user.DisplayName,
		middleware.ClaimRoles:         roles,
		middleware.ClaimTokenID:       tokenID,
		middleware.ClaimSecurityStamp: user.SecurityStamp,
		"exp":                         expiresAt.Unix(),
		"iat":                         time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.cfg.JWTSecret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return signed, tokenID, expiresAt, nil
}

// ---------------------------------------------------------------------
// GenerateRefreshToken
// ---------------------------------------------------------------------

func (j *jwtService) GenerateRefreshToken(ctx context.Context, subjectID uuid.UUID) (*models.RefreshToken, error) {
	rawToken := utils.SecureToken(config.RefreshTokenLength)
	now := time.Now()

	rt := &models.RefreshToken{
		SubjectID: subjectID,
		Token:     rawToken,
		CreatedAt: now,
		ExpiresAt: now.Add(j.cfg.RefreshTokenExpiry),
	}

	if err := j.store.PutRefreshToken(ctx, subjectID, rawToken, j.cfg.RefreshTokenExpiry); err != nil {
		return nil, err
	}
	return rt, nil
}

// ---------------------------------------------------------------------
// ValidateAccessToken
// ---------------------------------------------------------------------

func (j *jwtService) ValidateAccessToken(tokenString string) (jwt.MapClaims, error) {
	tok, err := middleware.ValidateToken(tokenString, j.cfg.JWTSecret, j.cfg.TokenIssuer, j.cfg.TokenAudience)
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ---------------------------------------------------------------------
// RevokeAccessToken
// ---------------------------------------------------------------------

func (j *jwtService) RevokeAccessToken(ctx context.Context, claims jwt.MapClaims) error {
	tokenID := middleware.TokenIDFromClaims(claims)
	if tokenID == "" {
		return errors.New("token has no identifier claim")
	}

	sub, _ := claims[middleware.ClaimSubject].(string)
	subjectID, err := uuid.Parse(sub)
	if err != nil {
		return errors.New("token has no usable subject claim")
	}

	// TTL covers exactly the remaining validity window.
	var remaining time.Duration
	if exp, ok := claims["exp"].(float64); ok {
		remaining = time.Until(time.Unix(int64(exp), 0))
	}
	if remaining < 0 {
		remaining = 0
	}

	revokeErr := j.store.MarkRevoked(ctx, tokenID, remaining)

	// Best-effort cleanup: the refresh delete runs even when the
	// revocation write failed.
	if delErr := j.store.DeleteRefreshToken(ctx, subjectID); delErr != nil {
		utils.Logger.WithError(delErr).Error("Failed to delete refresh token during logout")
	}

	if revokeErr != nil {
		utils.Logger.WithError(revokeErr).WithField("jti", tokenID).Error("Failed to write revocation entry")
		return revokeErr
	}
	return nil
}
