package bot

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"leadbot/core/logger"
	tghelpers "leadbot/core/telegram/helpers"
	"leadbot/internal/session"
	"log/slog"
)

func (a *App) handleStart(c tele.Context) error {
	// /start always aborts whatever dialog was in flight.
	a.sessions.Reset(c.Sender().ID)
	return tghelpers.SendKeyboard(c, textWelcome, mainMenu())
}

func (a *App) handleCancel(c tele.Context) error {
	userID := c.Sender().ID
	if !a.sessions.Get(userID).InDialog() {
		return tghelpers.SendText(c, textNothingToCancel)
	}
	a.sessions.Reset(userID)
	return tghelpers.SendText(c, textDialogCancelled)
}

func (a *App) cbMenuRequest(c tele.Context) error {
	a.sessions.Start(c.Sender().ID, session.ModeLead)
	return tghelpers.SendText(c, textAskBusinessType)
}

func (a *App) cbMenuInfo(c tele.Context) error {
	return tghelpers.SendKeyboard(c, textInfo, mainMenu())
}

func (a *App) cbMenuQuestion(c tele.Context) error {
	a.sessions.Start(c.Sender().ID, session.ModeQuestion)
	return tghelpers.SendText(c, textAskQuestion)
}

func (a *App) cbMenuContact(c tele.Context) error {
	a.sessions.Start(c.Sender().ID, session.ModeContact)
	return tghelpers.SendText(c, textAskContactMessage)
}

// handleFreeText handles idle free text: the message is recorded as a
// question so operators see it in the backlog, and the auto-responder answers
// it inline. Messages inside a dialog never reach this handler.
func (a *App) handleFreeText(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	text := strings.TrimSpace(c.Text())

	if text != "" {
		// Store failure degrades to the auto-reply alone.
		if _, err := a.recordQuestion(ctx, c.Sender(), text); err != nil {
			logger.Error(ctx, "service.questions", "question.create.failed",
				slog.String("err", err.Error()),
			)
		}
	}

	reply, source := a.responder.Reply(ctx, text)
	logger.Info(ctx, "service.knowledge", "respond.auto",
		slog.String("source", source),
	)
	return tghelpers.SendText(c, reply)
}
