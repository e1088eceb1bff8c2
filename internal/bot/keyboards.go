package bot

import (
	"strconv"

	tele "gopkg.in/telebot.v4"

	"leadbot/core/telegram/keyboard"
)

// Callback keys. Payloads, where present, carry the record ID.
const (
	cbMenuRequest  = "menu_request"
	cbMenuInfo     = "menu_info"
	cbMenuQuestion = "menu_question"
	cbMenuContact  = "menu_contact"

	cbLeadsList  = "leads_list"
	cbLeadAccept = "lead_accept"
	cbLeadReject = "lead_reject"

	cbQuestionsList  = "q_list"
	cbQuestionAnswer = "q_answer"

	cbStats         = "stats"
	cbKnowledgeList = "kb_list"

	cbManagerList   = "mgr_list"
	cbManagerAdd    = "mgr_add"
	cbManagerRemove = "mgr_remove"
)

func mainMenu() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "🤖 Оставить заявку", Unique: cbMenuRequest},
		{Text: "ℹ️ Подробнее о боте", Unique: cbMenuInfo},
		{Text: "❓ Задать вопрос", Unique: cbMenuQuestion},
		{Text: "📞 Связаться с менеджером", Unique: cbMenuContact},
	})
}

func consoleMenu(isAdmin bool) *tele.ReplyMarkup {
	rows := [][]keyboard.InlineBtn{
		{
			{Text: "📋 Заявки", Unique: cbLeadsList},
			{Text: "💬 Вопросы", Unique: cbQuestionsList},
		},
		{
			{Text: "📊 Статистика", Unique: cbStats},
			{Text: "📚 База знаний", Unique: cbKnowledgeList},
		},
	}
	if isAdmin {
		rows = append(rows, []keyboard.InlineBtn{
			{Text: "👥 Менеджеры", Unique: cbManagerList},
		})
	}
	return keyboard.InlineButtonsRows(rows...)
}

func leadActions(leadID int64) *tele.ReplyMarkup {
	id := strconv.FormatInt(leadID, 10)
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "✅ Принять", Unique: cbLeadAccept, Data: id},
		{Text: "❌ Отклонить", Unique: cbLeadReject, Data: id},
	})
}

func questionActions(questionID int64) *tele.ReplyMarkup {
	id := strconv.FormatInt(questionID, 10)
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: "✍️ Ответить", Unique: cbQuestionAnswer, Data: id},
	})
}

func managerActions() *tele.ReplyMarkup {
	return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
		{Text: "➕ Добавить", Unique: cbManagerAdd},
		{Text: "➖ Удалить", Unique: cbManagerRemove},
	})
}
