package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the read model exposed by the external user directory. Only the
// fields the credential lifecycle needs are mapped; account CRUD lives with
// the directory, not here.
type User struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	DisplayName   string    `json:"display_name"`
	PasswordHash  string    `json:"-"`
	Roles         []string  `json:"roles"`
	SecurityStamp string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}
