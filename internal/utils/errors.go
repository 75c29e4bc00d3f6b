package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	// ErrInvalidCredentials covers both unknown-subject and bad-password so
	// the caller cannot enumerate accounts. The two cases are logged
	// distinctly on the server side.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	ErrAccountLocked = errors.New("account_locked")

	// ErrRefreshMismatch means the presented refresh token did not match the
	// stored value for the subject. Nothing is rotated.
	ErrRefreshMismatch = errors.New("refresh_token_mismatch")

	// ErrStoreUnavailable means the credential store could not answer within
	// the configured timeout. Callers apply their fail-open/fail-closed policy.
	ErrStoreUnavailable = errors.New("credential_store_unavailable")

	// ErrDirectoryUnavailable means the user directory could not be reached.
	// Controllers surface this as a retryable service error, never as
	// invalid credentials.
	ErrDirectoryUnavailable = errors.New("user_directory_unavailable")

	ErrNoRowsUpdated = errors.New("no_rows_updated")
)

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
