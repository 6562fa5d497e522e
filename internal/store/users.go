package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/leaseiq/leaseiq/internal/model"
)

const pgUniqueViolation = "23505"

// CreateUser inserts a new user and returns it with the assigned id.
func (s *Store) CreateUser(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	user := &model.User{Name: name, Email: email}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id`,
		name, email, passwordHash,
	).Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// UserByEmail fetches a user and their password hash by email.
func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, string, error) {
	user := &model.User{}
	var hash string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Name, &user.Email, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch user: %w", err)
	}

	return user, hash, nil
}
