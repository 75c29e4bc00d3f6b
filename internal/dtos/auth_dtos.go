package dtos

import "time"

// ----------------------
// Login
// ----------------------

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=1,max=256"`
}

// TokenResponse is the uniform envelope for login and refresh. Business
// failures come back with success=false and a message; structural auth
// failures use the 401 error envelope instead.
type TokenResponse struct {
	Success      bool      `json:"success"`
	Message      string    `json:"message,omitempty"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// ----------------------
// Refresh
// ----------------------

type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required,len=64"`
}

// ----------------------
// Logout
// ----------------------

type LogoutRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ----------------------
// Password / Profile
// ----------------------

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,min=1,max=256"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=256"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,min=1,max=100"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
