// Package remind nudges users whose leads nobody resolved in time.
package remind

import (
	"context"
	"fmt"
	"time"

	"leadbot/core/logger"
	"leadbot/internal/domain"
	"log/slog"
)

// LeadStore provides the stale-lead scan.
type LeadStore interface {
	StaleNewLeads(ctx context.Context, cutoff time.Time) ([]domain.Lead, error)
}

// Sender delivers one reminder to one chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Reminder sweeps for leads stuck in "new" longer than age every interval and
// sends each submitter a best-effort nudge. One undeliverable reminder never
// aborts the rest of the sweep.
type Reminder struct {
	leads    LeadStore
	sender   Sender
	interval time.Duration
	age      time.Duration
	now      func() time.Time
	nudge    func(domain.Lead) string
}

// New builds a reminder task. interval and age must be positive.
func New(leads LeadStore, sender Sender, interval, age time.Duration, nudge func(domain.Lead) string) *Reminder {
	return &Reminder{
		leads:    leads,
		sender:   sender,
		interval: interval,
		age:      age,
		now:      time.Now,
		nudge:    nudge,
	}
}

// Run sweeps until ctx is cancelled. A failed sweep is logged and the loop
// keeps going; the next tick gets a fresh chance.
func (r *Reminder) Run(ctx context.Context) {
	logger.SVCRemind.Info("reminder started",
		slog.String("event", "remind.start"),
		slog.Duration("interval", r.interval),
		slog.Duration("age", r.age),
	)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.SVCRemind.Info("reminder stopped",
				slog.String("event", "remind.stop"),
			)
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				logger.SVCRemind.Error("sweep failed",
					slog.String("event", "remind.sweep"),
					slog.String("status", "fail"),
					slog.String("err", err.Error()),
				)
			}
		}
	}
}

// Sweep runs one scan and reports how many reminders were delivered.
func (r *Reminder) Sweep(ctx context.Context) (int, error) {
	cutoff := r.now().Add(-r.age)
	stale, err := r.leads.StaleNewLeads(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("stale lead scan: %w", err)
	}
	if len(stale) == 0 {
		logger.SVCRemind.Debug("backlog empty",
			slog.String("event", "remind.sweep"),
			slog.String("status", "noop"),
		)
		return 0, nil
	}

	sent := 0
	for _, lead := range stale {
		if err := r.sender.Send(ctx, lead.UserID, r.nudge(lead)); err != nil {
			logger.SVCRemind.Warn("reminder undeliverable",
				slog.String("event", "remind.send"),
				slog.Int64("lead_id", lead.ID),
				slog.Int64("user_id", lead.UserID),
				slog.String("err", err.Error()),
			)
			continue
		}
		sent++
	}
	logger.SVCRemind.Info("sweep done",
		slog.String("event", "remind.sweep"),
		slog.String("status", "ok"),
		slog.Int("stale", len(stale)),
		slog.Int("sent", sent),
	)
	return sent, nil
}
