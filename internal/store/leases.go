package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leaseiq/leaseiq/internal/model"
)

// SaveLease upserts a lease by its client-generated id.
func (s *Store) SaveLease(ctx context.Context, userID int, lease *model.Lease) error {
	summary, err := json.Marshal(lease.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if lease.Summary == nil {
		summary = []byte("{}")
	}

	history, err := json.Marshal(lease.ChatHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal chat history: %w", err)
	}
	if lease.ChatHistory == nil {
		history = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leases (id, user_id, car_name, summary, chat_history)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			car_name = EXCLUDED.car_name,
			summary = EXCLUDED.summary,
			chat_history = EXCLUDED.chat_history`,
		lease.ID, userID, lease.CarName, summary, history,
	)
	if err != nil {
		return fmt.Errorf("failed to save lease: %w", err)
	}
	return nil
}

// LeasesByUser returns a user's leases, newest first.
func (s *Store) LeasesByUser(ctx context.Context, userID int) ([]model.Lease, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, car_name, summary, chat_history
		FROM leases WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list leases: %w", err)
	}
	defer rows.Close()

	leases := []model.Lease{}
	for rows.Next() {
		lease, err := scanLease(rows)
		if err != nil {
			return nil, err
		}
		leases = append(leases, *lease)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leases: %w", err)
	}

	return leases, nil
}

// LeaseByID fetches a single lease.
func (s *Store) LeaseByID(ctx context.Context, id int64) (*model.Lease, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, car_name, summary, chat_history
		FROM leases WHERE id = $1`,
		id,
	)
	lease, err := scanLease(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return lease, nil
}

// DeleteLease removes a lease, reporting ErrNotFound when no row matched.
func (s *Store) DeleteLease(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete lease: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLease(row rowScanner) (*model.Lease, error) {
	lease := &model.Lease{}
	var summary, history []byte

	if err := row.Scan(&lease.ID, &lease.CarName, &summary, &history); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan lease: %w", err)
	}

	if err := json.Unmarshal(summary, &lease.Summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	if err := json.Unmarshal(history, &lease.ChatHistory); err != nil {
		return nil, fmt.Errorf("failed to decode chat history: %w", err)
	}

	return lease, nil
}
