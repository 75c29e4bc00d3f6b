package middleware

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/homematch/credential-platform/internal/models"
)

// Claim names used by every token this platform issues. The roles claim is
// a JSON array with one entry per role.
const (
	ClaimSubject       = "sub"
	ClaimDisplayName   = "name"
	ClaimRoles         = "roles"
	ClaimTokenID       = "jti"
	ClaimSecurityStamp = "stamp"
)

// ValidateToken checks the token's signature, signing method, issuer,
// audience and expiry against the shared symmetric secret. This is the
// authoritative cryptographic check; the gateway's unverified decode is only
// a fast path in front of it.
func ValidateToken(tokenString string, secret []byte, issuer, audience string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, errors.New("missing expiration claim")
	}
	if time.Unix(int64(exp), 0).Before(time.Now()) {
		return nil, jwt.ErrTokenExpired
	}

	if err := checkIssuerAudience(claims, issuer, audience); err != nil {
		return nil, err
	}

	return token, nil
}

// ValidateTokenAllowExpired runs the same signature, issuer and audience
// checks as ValidateToken but tolerates an elapsed expiry. Logout uses it
// so an authentic but expired token can still clear its subject's
// server-side state.
func ValidateTokenAllowExpired(tokenString string, secret []byte, issuer, audience string) (*jwt.Token, error) {
	token, err := jwt.NewParser(jwt.WithoutClaimsValidation()).Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	if err := checkIssuerAudience(claims, issuer, audience); err != nil {
		return nil, err
	}

	return token, nil
}

func checkIssuerAudience(claims jwt.MapClaims, issuer, audience string) error {
	iss, ok := claims["iss"].(string)
	if !ok {
		return errors.New("missing issuer claim")
	}
	if iss != issuer {
		return errors.New("invalid token issuer")
	}

	aud, ok := claims["aud"].(string)
	if !ok {
		return errors.New("missing audience claim")
	}
	if aud != audience {
		return errors.New("invalid token audience")
	}

	return nil
}

// DecodeUnverified parses the token's claims without checking the signature.
// The gateway uses it for cheap short-circuit rejection of known-revoked
// tokens; it must never substitute for ValidateToken.
func DecodeUnverified(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// IdentityFromClaims builds the request identity from validated claims.
func IdentityFromClaims(claims jwt.MapClaims) (*models.DerivedIdentity, error) {
	sub, ok := claims[ClaimSubject].(string)
	if !ok || sub == "" {
		return nil, errors.New("missing subject claim")
	}

	name, _ := claims[ClaimDisplayName].(string)

	var roles []string
	if raw, ok := claims[ClaimRoles].([]any); ok {
		for _, r := range raw {
			if s, ok := r.(string); ok {
				roles = append(roles, s)
			}
		}
	}

	return &models.DerivedIdentity{
		SubjectID:   sub,
		DisplayName: name,
		Roles:       roles,
	}, nil
}

// TokenIDFromClaims returns the jti claim, or "" when absent.
func TokenIDFromClaims(claims jwt.MapClaims) string {
	jti, _ := claims[ClaimTokenID].(string)
	return jti
}

// SecurityStampFromClaims returns the stamp claim, or "" when absent.
func SecurityStampFromClaims(claims jwt.MapClaims) string {
	stamp, _ := claims[ClaimSecurityStamp].(string)
	return stamp
}
