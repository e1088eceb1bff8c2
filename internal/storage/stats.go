package storage

import (
	"context"
	"fmt"

	"leadbot/internal/domain"
)

// Snapshot aggregates the counters shown in /stats and the ops endpoint.
func (s *Store) Snapshot(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.GetContext(ctx, &stats, `
		SELECT
			(SELECT COUNT(*) FROM leads)                            AS leads_total,
			(SELECT COUNT(*) FROM leads WHERE status = 'new')       AS leads_new,
			(SELECT COUNT(*) FROM leads WHERE status = 'accepted')  AS leads_accepted,
			(SELECT COUNT(*) FROM leads WHERE status = 'rejected')  AS leads_rejected,
			(SELECT COUNT(*) FROM questions)                        AS questions_total,
			(SELECT COUNT(*) FROM questions WHERE answer IS NULL)   AS questions_unanswered,
			(SELECT COUNT(*) FROM managers WHERE active = 1)        AS managers_active`)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("stats snapshot: %w", err)
	}
	return stats, nil
}
