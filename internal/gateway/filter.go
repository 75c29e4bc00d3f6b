package gateway

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/homematch/credential-platform/internal/config"
	"github.com/homematch/credential-platform/internal/middleware"
	"github.com/homematch/credential-platform/internal/repositories"
	"github.com/homematch/credential-platform/internal/utils"
)

// Filter is the edge token filter. Rejection is cheap and structural: it
// decodes the token just enough to find the token identifier and checks
// the revocation list, so revoked tokens die at the edge instead of
// fanning out into the fleet. The authoritative cryptographic check stays
// with each service behind it.
type Filter struct {
	cfg   *config.Config
	store repositories.CredentialStore
}

func NewFilter(cfg *config.Config, store repositories.CredentialStore) *Filter {
	return &Filter{cfg: cfg, store: store}
}

// Handler wraps next with the edge filter. Inbound identity headers are
// always stripped so clients cannot forge the gateway's annotations.
func (f *Filter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.StripIdentityHeaders(r)

		tokenString, err := middleware.ExtractBearerToken(r)
		if err != nil {
			// Anonymous requests pass through untouched. Endpoints that
			// need identity reject them downstream.
			next.ServeHTTP(w, r)
			return
		}

		claims, err := middleware.DecodeUnverified(tokenString)
		if err != nil {
			utils.Logger.WithError(err).Info("Rejected malformed token at edge")
			utils.RespondErrorWithCode(
				w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid token", nil,
			)
			return
		}

		tokenID := middleware.TokenIDFromClaims(claims)
		if tokenID != "" {
			revoked, err := f.store.IsRevoked(r.Context(), tokenID)
			if err != nil {
				if !f.cfg.RevocationFailOpen {
					utils.RespondErrorWithCode(
						w, http.StatusServiceUnavailable, utils.ErrCodeExternalServiceFailure,
						"Service temporarily unavailable", nil, err,
					)
					return
				}
				utils.Logger.WithError(err).Warn("Revocation list unreachable, passing token through")
			} else if revoked {
				utils.Logger.WithField("jti", tokenID).Info("Rejected revoked token at edge")
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Token expired", nil,
				)
				return
			}
		}

		// Identity headers are only attached for tokens that pass the full
		// cryptographic check. Anything else is forwarded bare and faces
		// the in-service validator.
		if verified, err := middleware.ValidateToken(tokenString, f.cfg.JWTSecret, f.cfg.TokenIssuer, f.cfg.TokenAudience); err == nil {
			if identity, err := middleware.IdentityFromClaims(verified.Claims.(jwt.MapClaims)); err == nil {
				middleware.AttachIdentity(r, identity, f.cfg.JWTSecret)
			}
		}

		next.ServeHTTP(w, r)
	})
}
