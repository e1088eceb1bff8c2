package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"leadbot/internal/domain"
)

// AddManager grants a user manager access. It reports false when the user
// already holds access.
func (s *Store) AddManager(ctx context.Context, userID int64, username string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO managers (user_id, username, active) VALUES (?, ?, 1)
		 ON CONFLICT(user_id) DO NOTHING`,
		userID, username,
	)
	if err != nil {
		return false, fmt.Errorf("add manager %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add manager %d: %w", userID, err)
	}
	return n == 1, nil
}

// RemoveManager revokes manager access by deleting the row, so a later add
// starts from a clean slate. It reports false when the user held no access.
func (s *Store) RemoveManager(ctx context.Context, userID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM managers WHERE user_id = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("remove manager %d: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove manager %d: %w", userID, err)
	}
	return n == 1, nil
}

// IsActiveManager reports whether the user currently holds manager access.
func (s *Store) IsActiveManager(ctx context.Context, userID int64) (bool, error) {
	var active bool
	err := s.db.GetContext(ctx, &active,
		`SELECT active FROM managers WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check manager %d: %w", userID, err)
	}
	return active, nil
}

// ListActiveManagers returns the current roster ordered by addition time.
func (s *Store) ListActiveManagers(ctx context.Context) ([]domain.Manager, error) {
	var managers []domain.Manager
	err := s.db.SelectContext(ctx, &managers,
		`SELECT * FROM managers WHERE active = 1 ORDER BY added_at, user_id`)
	if err != nil {
		return nil, fmt.Errorf("list managers: %w", err)
	}
	return managers, nil
}
