package db

import (
	"context"
	"time"
)

// User is an account row.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Roles        []string
	CreatedAt    time.Time
}

const userColumns = `id::text, email, password_hash, name, roles, created_at`

// CreateUser inserts an account; ErrDuplicate on an existing email.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, name string, roles []string) (User, error) {
	row := s.db.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, name, roles) VALUES ($1, $2, $3, $4) RETURNING `+userColumns,
		email, passwordHash, name, roles,
	)
	return scanUser(row)
}

// GetUserByEmail fetches an account by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetUserByID fetches an account by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id::text = $1`, id)
	return scanUser(row)
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Roles, &u.CreatedAt)
	return u, mapErr(err)
}
