package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/homematch/credential-platform/internal/dtos"
	"github.com/homematch/credential-platform/internal/middleware"
	"github.com/homematch/credential-platform/internal/services"
	"github.com/homematch/credential-platform/internal/utils"
)

type AuthController struct {
	authService services.AuthService
}

func NewAuthController(authService services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

var validate = validator.New()

// Helper to parse the subject ID placed in context by the auth middleware.
func subjectIDFromContext(r *http.Request) *uuid.UUID {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		return nil
	}
	parsed, err := uuid.Parse(identity.SubjectID)
	if err != nil {
		return nil
	}
	return &parsed
}

// -------------------
// Login
// -------------------

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req dtos.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid login payload", err,
		)
		return
	}

	pair, err := c.authService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.TokenResponse{
		Success:      true,
		Message:      "Authenticated",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

// -------------------
// Refresh
// -------------------

func (c *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dtos.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid refresh payload", err,
		)
		return
	}

	pair, err := c.authService.Refresh(r.Context(), req.AccessToken, req.RefreshToken)
	if err != nil {
		respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.TokenResponse{
		Success:      true,
		Message:      "Token refreshed",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

// -------------------
// Logout
// -------------------

func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	var req dtos.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid logout payload", err,
		)
		return
	}

	if err := c.authService.Logout(r.Context(), req.AccessToken); err != nil {
		respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.LogoutResponse{
		Success: true,
		Message: "Logged out",
	})
}

// -------------------
// Change Password
// -------------------

func (c *AuthController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	subjectID := subjectIDFromContext(r)
	if subjectID == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Unauthorized", nil,
		)
		return
	}

	var req dtos.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid password payload", err,
		)
		return
	}

	if err := c.authService.ChangePassword(r.Context(), *subjectID, req.CurrentPassword, req.NewPassword); err != nil {
		respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{
		Success: true,
		Message: "Password changed",
	})
}

// -------------------
// Update Profile
// -------------------

func (c *AuthController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	subjectID := subjectIDFromContext(r)
	if subjectID == nil {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Unauthorized", nil,
		)
		return
	}

	var req dtos.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", err,
		)
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid profile payload", err,
		)
		return
	}

	if err := c.authService.UpdateProfile(r.Context(), *subjectID, req.DisplayName); err != nil {
		respondAuthError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.MessageResponse{
		Success: true,
		Message: "Profile updated",
	})
}

// ---------------------------------------------------------------------
// error mapping
// ---------------------------------------------------------------------

func respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, utils.ErrAccountLocked):
		utils.RespondErrorWithCode(
			w, http.StatusForbidden, utils.ErrCodeLockedAccount,
			"Account temporarily locked due to repeated failed logins", nil,
		)
	case errors.Is(err, utils.ErrInvalidCredentials):
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeInvalidCredentials,
			"Invalid credentials", nil,
		)
	case errors.Is(err, utils.ErrRefreshMismatch):
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized,
			"Refresh rejected", nil, err,
		)
	case errors.Is(err, utils.ErrNoRowsUpdated):
		utils.RespondErrorWithCode(
			w, http.StatusNotFound, utils.ErrCodeNotFound,
			"Account not found", nil, err,
		)
	case errors.Is(err, utils.ErrStoreUnavailable), errors.Is(err, utils.ErrDirectoryUnavailable):
		utils.RespondErrorWithCode(
			w, http.StatusServiceUnavailable, utils.ErrCodeExternalServiceFailure,
			"Service temporarily unavailable", nil, err,
		)
	default:
		utils.HandleAppError(w, err)
	}
}
