// Package notify fans operator alerts out to the admin and all managers.
package notify

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"leadbot/core/logger"
	"leadbot/internal/domain"
	"log/slog"
)

// Sender delivers one message to one chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// MarkupSender additionally delivers messages with an inline keyboard.
// Notifications degrade to plain text when the sender cannot attach one.
type MarkupSender interface {
	SendMarkup(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error
}

// RosterStore lists the managers added at runtime.
type RosterStore interface {
	ListActiveManagers(ctx context.Context) ([]domain.Manager, error)
}

// Notifier delivers best-effort alerts: each recipient gets at most one send
// attempt and one recipient's failure never blocks the others.
type Notifier struct {
	sender  Sender
	roster  RosterStore
	adminID int64
}

// New builds a notifier over the admin ID and the runtime roster. Managers
// seeded from config live in the roster too, so the recipient set tracks
// every grant and revocation.
func New(sender Sender, roster RosterStore, adminID int64) *Notifier {
	return &Notifier{sender: sender, roster: roster, adminID: adminID}
}

// Recipients resolves the current distinct recipient set: admin first, then
// the runtime roster. A roster read failure degrades to the admin alone.
func (n *Notifier) Recipients(ctx context.Context) []int64 {
	seen := make(map[int64]struct{})
	out := make([]int64, 0, 4)
	add := func(id int64) {
		if id == 0 {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}

	add(n.adminID)
	if n.roster != nil {
		managers, err := n.roster.ListActiveManagers(ctx)
		if err != nil {
			logger.Warn(ctx, "notify", "notify.roster.failed",
				slog.String("err", err.Error()),
			)
		} else {
			for _, m := range managers {
				add(m.UserID)
			}
		}
	}
	return out
}

// Notify sends text to every recipient and reports delivery counts.
func (n *Notifier) Notify(ctx context.Context, event, text string) (delivered, failed int) {
	return n.fanout(ctx, event, func(chatID int64) error {
		return n.sender.Send(ctx, chatID, text)
	})
}

// NotifyActions sends text with an attached action keyboard, so operators can
// act straight from the notification. Falls back to plain text for senders
// without keyboard support.
func (n *Notifier) NotifyActions(ctx context.Context, event, text string, markup *tele.ReplyMarkup) (delivered, failed int) {
	ms, ok := n.sender.(MarkupSender)
	if !ok || markup == nil {
		return n.Notify(ctx, event, text)
	}
	return n.fanout(ctx, event, func(chatID int64) error {
		return ms.SendMarkup(ctx, chatID, text, markup)
	})
}

func (n *Notifier) fanout(ctx context.Context, event string, send func(chatID int64) error) (delivered, failed int) {
	recipients := n.Recipients(ctx)
	for _, chatID := range recipients {
		if err := send(chatID); err != nil {
			failed++
			logger.Warn(ctx, "notify", "notify.send.failed",
				slog.String("cause", event),
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()),
			)
			continue
		}
		delivered++
	}
	logger.Info(ctx, "notify", "notify.fanout",
		slog.String("cause", event),
		slog.Int("recipients", len(recipients)),
		slog.Int("delivered", delivered),
		slog.Int("failed", failed),
	)
	return delivered, failed
}
