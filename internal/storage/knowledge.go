package storage

import (
	"context"
	"fmt"

	"leadbot/internal/domain"
)

// ListKnowledge returns every knowledge base entry in insertion order.
func (s *Store) ListKnowledge(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	var entries []domain.KnowledgeEntry
	err := s.db.SelectContext(ctx, &entries, `SELECT * FROM knowledge_base ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list knowledge: %w", err)
	}
	return entries, nil
}

// AddKnowledge inserts a curated Q&A pair and returns its identifier.
func (s *Store) AddKnowledge(ctx context.Context, entry domain.KnowledgeEntry) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO knowledge_base (question, answer, category) VALUES (?, ?, ?)`,
		entry.Question, entry.Answer, entry.Category,
	)
	if err != nil {
		return 0, fmt.Errorf("insert knowledge: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("knowledge id: %w", err)
	}
	return id, nil
}

// CountKnowledge reports the number of stored entries.
func (s *Store) CountKnowledge(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM knowledge_base`); err != nil {
		return 0, fmt.Errorf("count knowledge: %w", err)
	}
	return n, nil
}
