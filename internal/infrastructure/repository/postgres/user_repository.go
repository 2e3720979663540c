package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmattila/document-intelligence/internal/core/domain"
	"github.com/jmattila/document-intelligence/internal/core/ports"
)

type UserRepository struct {
	db *sql.DB
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreateByEmail upserts the user row, refreshing last_login on every
// call. An empty name never overwrites a previously stored one.
func (r *UserRepository) GetOrCreateByEmail(ctx context.Context, email, name string) (*domain.User, error) {
	now := time.Now().UTC()
	row := r.db.QueryRowContext(ctx, `
INSERT INTO users (id, email, name, created_at, last_login)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (email) DO UPDATE SET
	last_login = EXCLUDED.last_login,
	name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE users.name END
RETURNING id, email, name, created_at, last_login
`, uuid.NewString(), email, name, now)

	var user domain.User
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.LastLogin); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &user, nil
}
