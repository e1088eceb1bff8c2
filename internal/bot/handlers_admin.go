package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v4"

	"leadbot/core/logger"
	"leadbot/core/telegram/callbacks"
	tghelpers "leadbot/core/telegram/helpers"
	"leadbot/internal/domain"
	"leadbot/internal/session"
	"log/slog"
)

// requireOperator guards a console callback; access is checked on every press.
func (a *App) requireOperator(h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !a.authz.IsOperator(tghelpers.BuildContext(c), c.Sender().ID) {
			return tghelpers.SendText(c, textAccessDenied)
		}
		return h(c)
	}
}

func (a *App) requireAdmin(h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if !a.authz.IsAdmin(c.Sender().ID) {
			return tghelpers.SendText(c, textAccessDenied)
		}
		return h(c)
	}
}

func (a *App) handleAdmin(c tele.Context) error {
	return tghelpers.SendKeyboard(c, textConsoleTitle, consoleMenu(a.authz.IsAdmin(c.Sender().ID)))
}

const consoleListLimit = 10

func (a *App) cbLeadsList(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	leads, err := a.store.ListLeadsByStatus(ctx, domain.LeadStatusNew, consoleListLimit)
	if err != nil {
		logger.Error(ctx, "service.leads", "lead.list.failed",
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, textInternalError)
	}
	if len(leads) == 0 {
		return tghelpers.SendText(c, "📋 Новых заявок нет.")
	}
	for _, lead := range leads {
		if err := tghelpers.SendKeyboard(c, formatLeadCard(lead), leadActions(lead.ID)); err != nil {
			return err
		}
	}
	return nil
}

// cbLeadResolve serves both the accept and reject buttons; the pressed key
// determines the target status.
func (a *App) cbLeadResolve(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	leadID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.SendText(c, "Не удалось разобрать номер заявки.")
	}

	status := domain.LeadStatusAccepted
	if callbacks.CallbackKey(c) == cbLeadReject {
		status = domain.LeadStatusRejected
	}

	changed, err := a.store.ResolveLead(ctx, leadID, status)
	if err != nil {
		logger.Error(ctx, "service.leads", "lead.resolve.failed",
			slog.Int64("lead_id", leadID),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, textInternalError)
	}
	if !changed {
		// Another operator got there first, or the ID is stale.
		return tghelpers.SendText(c, fmt.Sprintf("Заявка #%d уже обработана или не найдена.", leadID))
	}

	logger.Info(ctx, "service.leads", "lead.resolved",
		slog.Int64("lead_id", leadID),
		slog.String("outcome", string(status)),
	)

	// Tell the customer; a delivery failure must not undo the resolution.
	lead, lookupErr := a.store.LeadByID(ctx, leadID)
	if lookupErr == nil {
		userText := textLeadAccepted
		if status == domain.LeadStatusRejected {
			userText = textLeadRejected
		}
		if sendErr := a.send.Send(ctx, lead.UserID, userText); sendErr != nil {
			logger.Warn(ctx, "service.leads", "lead.notify_user.failed",
				slog.Int64("lead_id", leadID),
				slog.Int64("user_id", lead.UserID),
				slog.String("err", sendErr.Error()),
			)
		}
	}

	verb := "принята"
	if status == domain.LeadStatusRejected {
		verb = "отклонена"
	}
	return tghelpers.EditOrSendKeyboard(c, fmt.Sprintf("Заявка #%d %s.", leadID, verb), nil)
}

func (a *App) cbQuestionsList(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	questions, err := a.store.ListUnansweredQuestions(ctx, consoleListLimit)
	if err != nil {
		logger.Error(ctx, "service.questions", "question.list.failed",
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, textInternalError)
	}
	if len(questions) == 0 {
		return tghelpers.SendText(c, "💬 Вопросов без ответа нет.")
	}
	for _, q := range questions {
		if err := tghelpers.SendKeyboard(c, formatQuestionCard(q), questionActions(q.ID)); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) cbQuestionAnswer(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)

	questionID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.SendText(c, "Не удалось разобрать номер вопроса.")
	}
	q, err := a.store.QuestionByID(ctx, questionID)
	if err != nil {
		return tghelpers.SendText(c, fmt.Sprintf("Вопрос #%d не найден.", questionID))
	}

	a.sessions.StartAnswer(c.Sender().ID, q.ID)
	return tghelpers.SendText(c, fmt.Sprintf("✍️ Введите ответ на вопрос #%d:\n«%s»", q.ID, q.Text))
}

func (a *App) cbStats(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	stats, err := a.store.Snapshot(ctx)
	if err != nil {
		logger.Error(ctx, "service.leads", "stats.failed",
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, textInternalError)
	}
	return tghelpers.SendText(c, formatStats(stats))
}

func (a *App) cbKnowledgeList(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	entries, err := a.store.ListKnowledge(ctx)
	if err != nil {
		logger.Error(ctx, "service.knowledge", "kb.list.failed",
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, textInternalError)
	}
	return tghelpers.SendText(c, formatKnowledgeList(entries))
}

func (a *App) cbManagerList(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	managers, err := a.store.ListActiveManagers(ctx)
	if err != nil {
		logger.Error(ctx, "service.managers", "manager.list.failed",
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, textInternalError)
	}
	return tghelpers.SendKeyboard(c, formatManagerList(managers), managerActions())
}

func (a *App) cbManagerAdd(c tele.Context) error {
	a.sessions.Start(c.Sender().ID, session.ModeManagerAdd)
	return tghelpers.SendText(c, textAskManagerID)
}

func (a *App) cbManagerRemove(c tele.Context) error {
	a.sessions.Start(c.Sender().ID, session.ModeManagerRemove)
	return tghelpers.SendText(c, textAskManagerIDRemove)
}
