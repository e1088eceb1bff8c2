// Package bot wires the customer-facing dialogs and the operator console
// on top of the shared telegram core.
package bot

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/jmoiron/sqlx"
	tele "gopkg.in/telebot.v4"

	coreconfig "leadbot/core/config"
	"leadbot/core/logger"
	coretelegram "leadbot/core/telegram"
	"leadbot/core/telegram/commands"
	tghelpers "leadbot/core/telegram/helpers"
	"leadbot/core/telegram/router"
	tgsender "leadbot/core/telegram/sender"
	"leadbot/internal/ops"
	"leadbot/internal/service/auth"
	"leadbot/internal/service/notify"
	"leadbot/internal/service/remind"
	"leadbot/internal/service/respond"
	"leadbot/internal/session"
	"leadbot/internal/storage"
	"log/slog"
)

// telegramSender adapts the live bot to the notifier's Sender interface.
// The bot instance only exists once the runtime starts, hence the pointer swap.
type telegramSender struct {
	bot atomic.Pointer[tele.Bot]
}

func (s *telegramSender) SetBot(b *tele.Bot) {
	s.bot.Store(b)
}

func (s *telegramSender) Send(_ context.Context, chatID int64, text string) error {
	b := s.bot.Load()
	if b == nil {
		return errors.New("bot not started")
	}
	_, err := b.Send(tele.ChatID(chatID), text)
	return err
}

func (s *telegramSender) SendMarkup(_ context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error {
	b := s.bot.Load()
	if b == nil {
		return errors.New("bot not started")
	}
	_, err := b.Send(tele.ChatID(chatID), text, markup)
	return err
}

// App assembles the lead capture bot.
type App struct {
	cfg       *coreconfig.Config
	store     *storage.Store
	sessions  *session.Manager
	authz     *auth.Authorizer
	responder *respond.Responder
	notifier  *notify.Notifier
	reminder  *remind.Reminder
	ops       *ops.Server
	tgSender  *telegramSender

	// send delivers direct messages to a chat outside of an update context
	// (answer delivery, lead verdicts).
	send notify.Sender
}

// New builds the application over an open database.
func New(cfg *coreconfig.Config, db *sqlx.DB) *App {
	store := storage.New(db)
	sender := &telegramSender{}
	notifier := notify.New(sender, store, cfg.Telegram.AdminID)

	return &App{
		cfg:       cfg,
		store:     store,
		sessions:  session.NewManager(),
		authz:     auth.New(cfg.Telegram.AdminID, store),
		responder: respond.New(store, defaultRules, textEscalateHint, textReplyFallback),
		notifier:  notifier,
		reminder:  remind.New(store, sender, cfg.Reminder.Interval, cfg.Reminder.Age, formatReminderNudge),
		ops:       ops.New(cfg.Ops.Listen, store),
		tgSender:  sender,
		send:      sender,
	}
}

// Seed materializes MANAGER_IDS into the roster and populates the knowledge
// base on first start. Managers already present (or re-added) are untouched;
// a manager the admin removed is re-granted only on the next restart with the
// ID still configured. Existing knowledge entries are left alone so operator
// edits survive restarts.
func Seed(cfg *coreconfig.Config, db *sqlx.DB) error {
	store := storage.New(db)
	ctx := context.Background()

	for _, id := range cfg.Telegram.ManagerIDs {
		added, err := store.AddManager(ctx, id, "")
		if err != nil {
			return err
		}
		if added {
			logger.SEED.Info("manager access granted",
				slog.String("event", "seed.manager"),
				slog.Int64("manager_id", id),
			)
		}
	}

	n, err := store.CountKnowledge(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.SEED.Debug("knowledge base present",
			slog.String("event", "seed.kb"),
			slog.String("status", "noop"),
			slog.Int64("entries", n),
		)
		return nil
	}
	for _, entry := range defaultKnowledge {
		if _, err := store.AddKnowledge(ctx, entry); err != nil {
			return err
		}
	}
	logger.SEED.Info("knowledge base seeded",
		slog.String("event", "seed.kb"),
		slog.String("status", "ok"),
		slog.Int("entries", len(defaultKnowledge)),
	)
	return nil
}

func (a *App) buildRegistry() *coretelegram.Registry {
	reg := coretelegram.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Открыть меню",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "Отменить текущее действие",
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:      a.handleAdmin,
		Description:  "Панель менеджера",
		OperatorOnly: true,
	})

	// Customer menu
	_ = reg.RegisterCallback(cbMenuRequest, a.cbMenuRequest)
	_ = reg.RegisterCallback(cbMenuInfo, a.cbMenuInfo)
	_ = reg.RegisterCallback(cbMenuQuestion, a.cbMenuQuestion)
	_ = reg.RegisterCallback(cbMenuContact, a.cbMenuContact)

	// Operator console
	_ = reg.RegisterCallback(cbLeadsList, a.requireOperator(a.cbLeadsList))
	_ = reg.RegisterCallback(cbLeadAccept, a.requireOperator(a.cbLeadResolve))
	_ = reg.RegisterCallback(cbLeadReject, a.requireOperator(a.cbLeadResolve))
	_ = reg.RegisterCallback(cbQuestionsList, a.requireOperator(a.cbQuestionsList))
	_ = reg.RegisterCallback(cbQuestionAnswer, a.requireOperator(a.cbQuestionAnswer))
	_ = reg.RegisterCallback(cbStats, a.requireOperator(a.cbStats))
	_ = reg.RegisterCallback(cbKnowledgeList, a.requireOperator(a.cbKnowledgeList))

	// Roster management is admin-only
	_ = reg.RegisterCallback(cbManagerList, a.requireAdmin(a.cbManagerList))
	_ = reg.RegisterCallback(cbManagerAdd, a.requireAdmin(a.cbManagerAdd))
	_ = reg.RegisterCallback(cbManagerRemove, a.requireAdmin(a.cbManagerRemove))

	reg.SetTextFallback(a.handleFreeText)

	return reg
}

// TelegramRunOptions assembles the bot runtime wiring.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := a.buildRegistry()

	rejectHandler := func(c tele.Context) error {
		return tghelpers.SendText(c, textAccessDenied)
	}
	limitedHandler := func(c tele.Context) error {
		return tghelpers.SendText(c, textRateLimited)
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		IsAdmin: func(_ context.Context, userID int64) bool {
			return a.authz.IsAdmin(userID)
		},
		IsOperator: a.authz.IsOperator,
		OnReject:   rejectHandler,
	})
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(a, reg, router.TextOptions{})...)

	return coretelegram.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(a.cfg, limitedHandler),
		Routes:      routes,
		DispatcherOptions: tgsender.Options{
			MaxRetries: 2,
		},
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.tgSender.SetBot(rt.Bot)
			go a.reminder.Run(ctx)
			go func() {
				if err := a.ops.Run(ctx); err != nil {
					logger.OPS.Error("ops server failed",
						slog.String("event", "ops.fail"),
						slog.String("err", err.Error()),
					)
				}
			}()
			return nil
		},
	}, nil
}
