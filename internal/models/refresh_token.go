package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken represents the single live refresh token for a subject.
// The credential store keeps only the hash of Token, keyed by SubjectID;
// a new login or refresh overwrites the prior value outright.
type RefreshToken struct {
	SubjectID uuid.UUID `json:"subject_id"`
	Token     string    `json:"token"` // stored as hash in the credential store
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}
