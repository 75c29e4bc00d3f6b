package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/homematch/credential-platform/internal/models"
	"github.com/homematch/credential-platform/internal/utils"
)

// UserRepository is the narrow contract against the external user directory:
// look up an account, verify its password hash, read its roles and security
// stamp, and apply the two profile mutations the auth endpoints expose.
// Account CRUD and role administration live with the directory itself.
type UserRepository interface {
	// GetByUsername returns nil, nil when the account does not exist.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// UpdatePassword stores a new password hash and rotates the security
	// stamp in the same statement.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, newStamp string) error

	// UpdateDisplayName changes the display name and rotates the security
	// stamp.
	UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName, newStamp string) error
}

type userRepository struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
        SELECT id, username, display_name, password_hash, roles, security_stamp, created_at
        FROM users
        WHERE username = $1
    `
	return r.scanOne(r.db.QueryRow(ctx, query, username))
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `
        SELECT id, username, display_name, password_hash, roles, security_stamp, created_at
        FROM users
        WHERE id = $1
    `
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *userRepository) scanOne(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.DisplayName,
		&u.PasswordHash,
		&u.Roles,
		&u.SecurityStamp,
		&u.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", utils.ErrDirectoryUnavailable, err)
	}
	return &u, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, newStamp string) error {
	query := `
        UPDATE users
        SET password_hash = $2, security_stamp = $3, updated_at = NOW()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, id, passwordHash, newStamp)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDirectoryUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNoRowsUpdated
	}
	return nil
}

func (r *userRepository) UpdateDisplayName(ctx context.Context, id uuid.UUID, displayName, newStamp string) error {
	query := `
        UPDATE users
        SET display_name = $2, security_stamp = $3, updated_at = NOW()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, id, displayName, newStamp)
	if err != nil {
		return fmt.Errorf("%w: %v", utils.ErrDirectoryUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNoRowsUpdated
	}
	return nil
}
