package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/FoodLoverForYouAndYourFood/interview-helper/internal/infra/postgres"
)

// UserRepository provides access to user data in the database.
type UserRepository struct {
	db postgres.DBTX
}

// NewUserRepository creates a new UserRepository with the provided database pool.
func NewUserRepository(db postgres.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// EnsureUser inserts the user row if it does not exist yet.
func (r *UserRepository) EnsureUser(ctx context.Context, userID int64) error {
	query := `
		INSERT INTO users (id, subscribed, created_at)
		VALUES ($1, FALSE, $2)
		ON CONFLICT (id) DO NOTHING
	`

	if _, err := r.db.Exec(ctx, query, userID, time.Now()); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}

	return nil
}

// SetSubscribed records a passed subscription check.
func (r *UserRepository) SetSubscribed(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, "UPDATE users SET subscribed = TRUE WHERE id = $1", userID); err != nil {
		return fmt.Errorf("set subscribed: %w", err)
	}
	return nil
}
