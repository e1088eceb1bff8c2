package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"leadbot/internal/domain"
)

// CreateQuestion stores a free-form user question and returns its identifier.
func (s *Store) CreateQuestion(ctx context.Context, q domain.Question) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (user_id, username, text) VALUES (?, ?, ?)`,
		q.UserID, q.Username, q.Text,
	)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("question id: %w", err)
	}
	return id, nil
}

// QuestionByID fetches a single question or ErrNotFound.
func (s *Store) QuestionByID(ctx context.Context, id int64) (domain.Question, error) {
	var q domain.Question
	err := s.db.GetContext(ctx, &q, `SELECT * FROM questions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Question{}, ErrNotFound
	}
	if err != nil {
		return domain.Question{}, fmt.Errorf("get question %d: %w", id, err)
	}
	return q, nil
}

// ListUnansweredQuestions returns open questions oldest-first so operators
// work the backlog in arrival order.
func (s *Store) ListUnansweredQuestions(ctx context.Context, limit int) ([]domain.Question, error) {
	if limit <= 0 {
		limit = 20
	}
	var qs []domain.Question
	err := s.db.SelectContext(ctx, &qs,
		`SELECT * FROM questions WHERE answer IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unanswered: %w", err)
	}
	return qs, nil
}

// AnswerQuestion records the operator answer. A later answer overwrites an
// earlier one; the question is shown as open only while answer is NULL.
func (s *Store) AnswerQuestion(ctx context.Context, id int64, answer string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE questions SET answer = ? WHERE id = ?`, answer, id)
	if err != nil {
		return fmt.Errorf("answer question %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("answer question %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
