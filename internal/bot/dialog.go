package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"leadbot/core/logger"
	tghelpers "leadbot/core/telegram/helpers"
	"leadbot/internal/domain"
	"leadbot/internal/session"
	"leadbot/internal/storage"
	"log/slog"
)

// InDialog reports whether the user's next text message belongs to a flow.
func (a *App) InDialog(userID int64) bool {
	return a.sessions.Get(userID).InDialog()
}

// HandleDialog consumes one text message for the user's active flow.
func (a *App) HandleDialog(c tele.Context) error {
	userID := c.Sender().ID
	s := a.sessions.Get(userID)

	switch s.Mode {
	case session.ModeLead:
		return a.handleLeadStep(c, s)
	case session.ModeQuestion:
		return a.handleQuestionText(c)
	case session.ModeContact:
		return a.handleContactText(c)
	case session.ModeAnswer:
		return a.handleAnswerText(c, s)
	case session.ModeManagerAdd, session.ModeManagerRemove:
		return a.handleManagerIDText(c, s)
	default:
		// Stale session; treat as idle.
		a.sessions.Reset(userID)
		return a.handleFreeText(c)
	}
}

func (a *App) handleLeadStep(c tele.Context, s session.Session) error {
	userID := c.Sender().ID
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return tghelpers.SendText(c, textAskBusinessType)
	}

	switch s.Step {
	case session.StepBusinessType:
		a.sessions.Update(userID, func(s *session.Session) {
			s.Draft.BusinessType = text
			s.Step = session.StepBotTasks
		})
		return tghelpers.SendText(c, textAskBotTasks)

	case session.StepBotTasks:
		a.sessions.Update(userID, func(s *session.Session) {
			s.Draft.BotTasks = text
			s.Step = session.StepContact
		})
		return tghelpers.SendText(c, textAskContact)

	case session.StepContact:
		return a.finishLead(c, s, text)

	default:
		a.sessions.Reset(userID)
		return tghelpers.SendText(c, textDialogCancelled)
	}
}

func (a *App) finishLead(c tele.Context, s session.Session, contact string) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()

	id, err := a.store.CreateLead(ctx, domain.Lead{
		UserID:       user.ID,
		Username:     user.Username,
		BusinessType: s.Draft.BusinessType,
		BotTasks:     s.Draft.BotTasks,
		Contact:      contact,
	})
	if err != nil {
		logger.Error(ctx, "service.leads", "lead.create.failed",
			slog.String("err", err.Error()),
		)
		// Keep the session so the user can resend the contact.
		return tghelpers.SendText(c, textInternalError)
	}
	a.sessions.Reset(user.ID)

	logger.Info(ctx, "service.leads", "lead.created",
		slog.Int64("lead_id", id),
	)

	lead, err := a.store.LeadByID(ctx, id)
	if err != nil {
		// Notification degrades to the draft data we already hold.
		lead = domain.Lead{
			ID: id, UserID: user.ID, Username: user.Username,
			BusinessType: s.Draft.BusinessType, BotTasks: s.Draft.BotTasks, Contact: contact,
		}
	}
	a.notifier.Notify(ctx, "lead.created", formatLeadNotification(lead))

	return tghelpers.SendText(c, textLeadSaved)
}

// recordQuestion stores the question and fans it out to operators. The
// attached keyboard lets an operator jump straight into answering.
func (a *App) recordQuestion(ctx context.Context, user *tele.User, text string) (domain.Question, error) {
	q := domain.Question{
		UserID:   user.ID,
		Username: user.Username,
		Text:     text,
	}
	id, err := a.store.CreateQuestion(ctx, q)
	if err != nil {
		return domain.Question{}, err
	}
	q.ID = id

	logger.Info(ctx, "service.questions", "question.created",
		slog.Int64("question_id", id),
	)
	a.notifier.NotifyActions(ctx, "question.created", formatQuestionNotification(q), questionActions(id))
	return q, nil
}

func (a *App) handleQuestionText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return tghelpers.SendText(c, textAskQuestion)
	}

	if _, err := a.recordQuestion(ctx, user, text); err != nil {
		logger.Error(ctx, "service.questions", "question.create.failed",
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, textInternalError)
	}
	a.sessions.Reset(user.ID)

	// The knowledge base may already cover the question, so the asker gets an
	// immediate best-effort answer on top of the confirmation.
	reply, source := a.responder.Reply(ctx, text)
	logger.Info(ctx, "service.knowledge", "respond.auto",
		slog.String("source", source),
	)
	return tghelpers.SendText(c, textQuestionSaved+"\n\n"+reply)
}

func (a *App) handleContactText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	user := c.Sender()
	text := strings.TrimSpace(c.Text())
	if text == "" {
		return tghelpers.SendText(c, textAskContactMessage)
	}
	a.sessions.Reset(user.ID)

	a.notifier.Notify(ctx, "contact.request", formatContactRequest(user.ID, user.Username, text))
	return tghelpers.SendText(c, textContactManager)
}

func (a *App) handleAnswerText(c tele.Context, s session.Session) error {
	ctx := tghelpers.BuildContext(c)
	operatorID := c.Sender().ID
	answer := strings.TrimSpace(c.Text())
	if answer == "" {
		return tghelpers.SendText(c, fmt.Sprintf("Введите текст ответа на вопрос #%d.", s.PendingQuestionID))
	}

	q, err := a.store.QuestionByID(ctx, s.PendingQuestionID)
	if err != nil {
		a.sessions.Reset(operatorID)
		if errors.Is(err, storage.ErrNotFound) {
			return tghelpers.SendText(c, fmt.Sprintf("Вопрос #%d не найден.", s.PendingQuestionID))
		}
		logger.Error(ctx, "service.questions", "question.answer.failed",
			slog.Int64("question_id", s.PendingQuestionID),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, textInternalError)
	}

	if err := a.store.AnswerQuestion(ctx, q.ID, answer); err != nil {
		logger.Error(ctx, "service.questions", "question.answer.failed",
			slog.Int64("question_id", q.ID),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, textInternalError)
	}
	a.sessions.Reset(operatorID)

	logger.Info(ctx, "service.questions", "question.answered",
		slog.Int64("question_id", q.ID),
	)

	// Every answered question feeds the knowledge base, so the next similar
	// question is auto-answered. Append failure must not block delivery.
	if _, err := a.store.AddKnowledge(ctx, domain.KnowledgeEntry{Question: q.Text, Answer: answer}); err != nil {
		logger.Warn(ctx, "service.knowledge", "kb.append.failed",
			slog.Int64("question_id", q.ID),
			slog.String("err", err.Error()),
		)
	}

	delivery := fmt.Sprintf("💬 Ответ на ваш вопрос:\n«%s»\n\n%s", q.Text, answer)
	if err := a.send.Send(ctx, q.UserID, delivery); err != nil {
		logger.Warn(ctx, "service.questions", "question.answer.delivery_failed",
			slog.Int64("question_id", q.ID),
			slog.Int64("user_id", q.UserID),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, fmt.Sprintf("Ответ сохранён, но доставить его пользователю не удалось (вопрос #%d).", q.ID))
	}

	return tghelpers.SendText(c, fmt.Sprintf("✅ Ответ на вопрос #%d отправлен пользователю.", q.ID))
}

func (a *App) handleManagerIDText(c tele.Context, s session.Session) error {
	ctx := tghelpers.BuildContext(c)
	adminID := c.Sender().ID

	targetID, err := strconv.ParseInt(strings.TrimSpace(c.Text()), 10, 64)
	if err != nil || targetID <= 0 {
		// Stay in the flow: the admin likely mistyped.
		return tghelpers.SendText(c, textBadManagerID)
	}
	a.sessions.Reset(adminID)

	if s.Mode == session.ModeManagerAdd {
		added, err := a.store.AddManager(ctx, targetID, "")
		if err != nil {
			logger.Error(ctx, "service.managers", "manager.add.failed",
				slog.Int64("manager_id", targetID),
				slog.String("err", err.Error()),
			)
			return tghelpers.SendText(c, textInternalError)
		}
		if !added {
			return tghelpers.SendText(c, fmt.Sprintf("Пользователь %d уже является менеджером.", targetID))
		}
		logger.Info(ctx, "service.managers", "manager.added",
			slog.Int64("manager_id", targetID),
		)
		return tghelpers.SendText(c, fmt.Sprintf("✅ Доступ менеджера выдан пользователю %d.", targetID))
	}

	removed, err := a.store.RemoveManager(ctx, targetID)
	if err != nil {
		logger.Error(ctx, "service.managers", "manager.remove.failed",
			slog.Int64("manager_id", targetID),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, textInternalError)
	}
	if !removed {
		return tghelpers.SendText(c, fmt.Sprintf("Пользователь %d не является активным менеджером.", targetID))
	}
	logger.Info(ctx, "service.managers", "manager.removed",
		slog.Int64("manager_id", targetID),
	)
	return tghelpers.SendText(c, fmt.Sprintf("✅ Доступ менеджера у пользователя %d отозван.", targetID))
}
