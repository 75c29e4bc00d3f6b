package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/homematch/credential-platform/internal/config"
	"github.com/homematch/credential-platform/internal/models"
	"github.com/homematch/credential-platform/internal/repositories"
	"github.com/homematch/credential-platform/internal/utils"
)

type contextKey string

const (
	ContextKeyIdentity = contextKey("identity")
	ContextKeySource   = contextKey("identitySource")
)

const (
	IdentitySourceGateway = "gateway"
	IdentitySourceLocal   = "local"
)

// StampChecker verifies that a token's security stamp still matches the
// directory. Services without directory access pass nil and skip the check.
type StampChecker func(ctx context.Context, subjectID, stamp string) (bool, error)

// AuthMiddleware is the service-local validator. A verified gateway envelope
// is accepted as-is; otherwise the bearer token gets full cryptographic
// validation plus an independent revocation lookup keyed by token identifier.
func AuthMiddleware(cfg *config.Config, store repositories.CredentialStore, checkStamp StampChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity := IdentityFromHeaders(r, cfg.JWTSecret); identity != nil {
				serveWithIdentity(w, r, next, identity, IdentitySourceGateway)
				return
			}

			tokenStr, err := ExtractBearerToken(r)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), nil,
				)
				return
			}

			tok, vErr := ValidateToken(tokenStr, cfg.JWTSecret, cfg.TokenIssuer, cfg.TokenAudience)
			if vErr != nil {
				if errors.Is(vErr, jwt.ErrTokenExpired) {
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Token expired", vErr,
					)
					return
				}
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid token", vErr,
				)
				return
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid claims", nil,
				)
				return
			}

			if jti := TokenIDFromClaims(claims); jti != "" {
				revoked, rErr := store.IsRevoked(r.Context(), jti)
				if rErr != nil {
					if !cfg.RevocationFailOpen {
						utils.RespondErrorWithCode(
							w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid token", rErr,
						)
						return
					}
					utils.Logger.WithError(rErr).Warn("Credential store unreachable; failing open on revocation check")
				}
				if revoked {
					// Same wire response as an expired token so callers get
					// no signal about logout timing; the log line differs.
					utils.Logger.WithField("jti", jti).Info("Rejected revoked token")
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Token expired", nil,
					)
					return
				}
			}

			if checkStamp != nil && cfg.EnforceSecurityStamp {
				okStamp, sErr := checkStamp(r.Context(), claimString(claims, ClaimSubject), SecurityStampFromClaims(claims))
				if sErr != nil {
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid token", sErr,
					)
					return
				}
				if !okStamp {
					utils.Logger.Info("Rejected token with stale security stamp")
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Token expired", nil,
					)
					return
				}
			}

			identity, iErr := IdentityFromClaims(claims)
			if iErr != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Missing subject", iErr,
				)
				return
			}

			serveWithIdentity(w, r, next, identity, IdentitySourceLocal)
		})
	}
}

// ExtractBearerToken reads the Authorization header's bearer value.
func ExtractBearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", errors.New("missing Authorization header")
	}
	return strings.TrimPrefix(h, "Bearer "), nil
}

// IdentityFromContext returns the identity the middleware stored, or nil on
// unauthenticated requests.
func IdentityFromContext(ctx context.Context) *models.DerivedIdentity {
	identity, _ := ctx.Value(ContextKeyIdentity).(*models.DerivedIdentity)
	return identity
}

// IdentitySourceFromContext reports whether the identity came from the
// gateway envelope or from local validation.
func IdentitySourceFromContext(ctx context.Context) string {
	source, _ := ctx.Value(ContextKeySource).(string)
	return source
}

func serveWithIdentity(w http.ResponseWriter, r *http.Request, next http.Handler, identity *models.DerivedIdentity, source string) {
	ctx := context.WithValue(r.Context(), ContextKeyIdentity, identity)
	ctx = context.WithValue(ctx, ContextKeySource, source)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func claimString(claims jwt.MapClaims, name string) string {
	v, _ := claims[name].(string)
	return v
}
