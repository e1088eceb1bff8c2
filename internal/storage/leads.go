package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"leadbot/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// CreateLead inserts a completed lead and returns its identifier.
func (s *Store) CreateLead(ctx context.Context, lead domain.Lead) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (user_id, username, business_type, bot_tasks, contact, status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		lead.UserID, lead.Username, lead.BusinessType, lead.BotTasks, lead.Contact, domain.LeadStatusNew,
	)
	if err != nil {
		return 0, fmt.Errorf("insert lead: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("lead id: %w", err)
	}
	return id, nil
}

// LeadByID fetches a single lead or ErrNotFound.
func (s *Store) LeadByID(ctx context.Context, id int64) (domain.Lead, error) {
	var lead domain.Lead
	err := s.db.GetContext(ctx, &lead, `SELECT * FROM leads WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Lead{}, ErrNotFound
	}
	if err != nil {
		return domain.Lead{}, fmt.Errorf("get lead %d: %w", id, err)
	}
	return lead, nil
}

// ListLeadsByStatus returns the newest leads in the given state.
func (s *Store) ListLeadsByStatus(ctx context.Context, status domain.LeadStatus, limit int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = 20
	}
	var leads []domain.Lead
	err := s.db.SelectContext(ctx, &leads,
		`SELECT * FROM leads WHERE status = ? ORDER BY id DESC LIMIT ?`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list leads %s: %w", status, err)
	}
	return leads, nil
}

// ResolveLead transitions a lead from new to the given terminal status.
// It reports false when the lead was missing or already resolved; a resolved
// lead is never moved again.
func (s *Store) ResolveLead(ctx context.Context, id int64, status domain.LeadStatus) (bool, error) {
	if status != domain.LeadStatusAccepted && status != domain.LeadStatusRejected {
		return false, fmt.Errorf("resolve lead %d: invalid target status %q", id, status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ? WHERE id = ? AND status = ?`,
		status, id, domain.LeadStatusNew,
	)
	if err != nil {
		return false, fmt.Errorf("resolve lead %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("resolve lead %d: %w", id, err)
	}
	return n == 1, nil
}

// StaleNewLeads returns leads still in the new state created before cutoff.
// The cutoff is compared in SQLite's datetime text format to match the
// CURRENT_TIMESTAMP default.
func (s *Store) StaleNewLeads(ctx context.Context, cutoff time.Time) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := s.db.SelectContext(ctx, &leads,
		`SELECT * FROM leads WHERE status = ? AND created_at < datetime(?, 'unixepoch') ORDER BY id`,
		domain.LeadStatusNew, cutoff.UTC().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("stale leads: %w", err)
	}
	return leads, nil
}
