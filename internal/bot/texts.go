package bot

import (
	"fmt"
	"strings"

	"leadbot/internal/domain"
	"leadbot/internal/service/respond"
)

// User-facing texts. The bot speaks Russian to match its audience.
const (
	textWelcome = "👋 Здравствуйте! Я помогу вам заказать разработку Telegram-бота для вашего бизнеса.\n\nВыберите, что вас интересует:"

	textInfo = "🤖 Мы разрабатываем Telegram-ботов под ключ:\n\n" +
		"• приём заказов и заявок\n" +
		"• ответы на частые вопросы клиентов\n" +
		"• рассылки и уведомления\n" +
		"• интеграция с CRM и оплатой\n\n" +
		"Срок разработки — от 5 рабочих дней, стоимость — от 15 000 руб.\n" +
		"Нажмите «Оставить заявку», и мы подготовим предложение под вашу задачу."

	textAskBusinessType = "📝 Шаг 1 из 3.\nРасскажите, какой у вас бизнес? Например: пекарня, салон красоты, интернет-магазин."
	textAskBotTasks     = "⚙️ Шаг 2 из 3.\nКакие задачи должен решать бот? Например: принимать заказы, отвечать на вопросы, собирать отзывы."
	textAskContact      = "📱 Шаг 3 из 3.\nОставьте контакт для связи: телефон или @username."
	textLeadSaved       = "✅ Спасибо! Ваша заявка принята. Менеджер свяжется с вами в ближайшее время."

	textAskQuestion   = "❓ Напишите ваш вопрос одним сообщением, и мы передадим его менеджеру."
	textQuestionSaved = "✅ Вопрос передан менеджеру. Ответ придёт сюда, в этот чат."

	textAskContactMessage = "📞 Напишите одним сообщением, как с вами связаться и по какому вопросу. Менеджер получит это сразу."
	textContactManager    = "📞 Передал менеджеру, что вы хотите связаться. Вам напишут в ближайшее время.\n\nЕсли удобнее, оставьте заявку — так мы быстрее поймём вашу задачу."

	textDialogCancelled = "Действие отменено. Наберите /start, чтобы открыть меню."
	textNothingToCancel = "Сейчас нечего отменять. Наберите /start, чтобы открыть меню."

	textLeadAccepted = "🎉 Ваша заявка принята в работу! Менеджер свяжется с вами для обсуждения деталей."
	textLeadRejected = "К сожалению, мы не сможем взять вашу заявку в работу. Вы можете задать вопрос менеджеру через меню /start."

	textEscalateHint  = "Если нужна помощь, нажмите «Связаться с менеджером» в меню /start."
	textReplyFallback = "Я не совсем понял вопрос 🤔\nВыберите пункт в меню /start или нажмите «Задать вопрос», чтобы написать менеджеру."

	textAccessDenied = "Эта команда доступна только менеджерам."

	textConsoleTitle = "🛠 Панель менеджера. Выберите раздел:"

	textAskManagerID       = "Отправьте числовой Telegram ID пользователя, которому нужно выдать доступ менеджера."
	textAskManagerIDRemove = "Отправьте числовой Telegram ID менеджера, у которого нужно забрать доступ."
	textBadManagerID       = "Не похоже на Telegram ID. Отправьте целое число, например: 123456789."

	textRateLimited   = "Слишком много сообщений, подождите секунду."
	textInternalError = "⚠️ Что-то пошло не так. Попробуйте ещё раз чуть позже."
)

// defaultRules is the keyword rule table consulted after the knowledge base.
// Order matters: earlier rules win.
var defaultRules = []respond.Rule{
	{
		Name:     "price",
		Keywords: []string{"цена", "цену", "стоимость", "сколько стоит", "прайс", "тариф", "дорого"},
		Reply:    "💰 Стоимость разработки бота — от 15 000 руб. Точная цена зависит от задач. Оставьте заявку через /start, и мы посчитаем ваш вариант.",
	},
	{
		Name:     "timing",
		Keywords: []string{"срок", "как долго", "когда будет", "сколько времени", "как быстро"},
		Reply:    "⏱ Обычно разработка занимает от 5 до 14 рабочих дней в зависимости от сложности.",
	},
	{
		Name:     "features",
		Keywords: []string{"умеет", "функци", "возможност", "что может", "что делает"},
		Reply:    "⚙️ Бот может принимать заказы, отвечать на вопросы, делать рассылки и интегрироваться с CRM. Расскажите о своей задаче через «Оставить заявку» в /start.",
	},
	{
		Name:     "payment",
		Keywords: []string{"оплат", "плати", "платё", "рассрочк", "предоплат"},
		Reply:    "💳 Работаем по предоплате 50%, остаток — после сдачи. Возможна рассрочка для крупных проектов.",
	},
	{
		Name:     "bot",
		Keywords: []string{"бот", "телеграм", "telegram"},
		Reply:    "🤖 Мы делаем Telegram-ботов под ключ. Нажмите «Подробнее о боте» в меню /start, чтобы узнать больше.",
	},
	{
		Name:     "contact",
		Keywords: []string{"менеджер", "связаться", "контакт", "позвонить", "написать вам"},
		Reply:    "📞 Нажмите «Связаться с менеджером» в меню /start, и вам напишут в ближайшее время.",
	},
	{
		Name:     "greeting",
		Keywords: []string{"привет", "здравств", "добрый день", "добрый вечер", "доброе утро"},
		Reply:    "👋 Здравствуйте! Наберите /start, чтобы открыть меню.",
	},
	{
		Name:     "thanks",
		Keywords: []string{"спасибо", "благодар"},
		Reply:    "Пожалуйста! Обращайтесь 🙌",
	},
}

// defaultKnowledge seeds the knowledge base on first start.
var defaultKnowledge = []domain.KnowledgeEntry{
	{
		Question: "Сколько стоит разработка бота",
		Answer:   "Стоимость разработки — от 15 000 руб. Итоговая цена зависит от набора функций.",
		Category: "price",
	},
	{
		Question: "Какие сроки разработки",
		Answer:   "Обычно от 5 до 14 рабочих дней. Простые боты делаем быстрее.",
		Category: "timing",
	},
	{
		Question: "Как оплатить заказ",
		Answer:   "Принимаем оплату картой или по счёту. Предоплата 50%, остаток после сдачи проекта.",
		Category: "payment",
	},
	{
		Question: "Нужна ли поддержка бота после запуска",
		Answer:   "Первый месяц поддержки бесплатно, дальше — по договорённости.",
		Category: "support",
	},
}

func formatLeadCard(lead domain.Lead) string {
	user := lead.Username
	if user == "" {
		user = fmt.Sprintf("id%d", lead.UserID)
	} else {
		user = "@" + user
	}
	return fmt.Sprintf(
		"📋 Заявка #%d от %s\n\n🏢 Бизнес: %s\n⚙️ Задачи: %s\n📱 Контакт: %s\n🕐 Создана: %s",
		lead.ID, user, lead.BusinessType, lead.BotTasks, lead.Contact,
		lead.CreatedAt.Format("02.01.2006 15:04"),
	)
}

func formatLeadNotification(lead domain.Lead) string {
	return "🔥 Новая заявка!\n\n" + formatLeadCard(lead) + "\n\nОткройте /admin → «Заявки», чтобы обработать."
}

func formatReminderNudge(lead domain.Lead) string {
	return fmt.Sprintf(
		"⏰ Напоминаем: ваша заявка #%d ещё в работе. Менеджер свяжется с вами в ближайшее время.\n\nЕсли вопрос срочный, нажмите «Связаться с менеджером» в меню /start.",
		lead.ID,
	)
}

func formatContactRequest(userID int64, username, message string) string {
	who := fmt.Sprintf("id%d", userID)
	if username != "" {
		who = "@" + username
	}
	return fmt.Sprintf("📞 Пользователь %s (%d) просит связаться с ним:\n\n%s", who, userID, message)
}

func formatQuestionCard(q domain.Question) string {
	user := q.Username
	if user == "" {
		user = fmt.Sprintf("id%d", q.UserID)
	} else {
		user = "@" + user
	}
	return fmt.Sprintf("❓ Вопрос #%d от %s\n\n%s", q.ID, user, q.Text)
}

func formatQuestionNotification(q domain.Question) string {
	return "💬 Новый вопрос!\n\n" + formatQuestionCard(q) + "\n\nОткройте /admin → «Вопросы», чтобы ответить."
}

func formatStats(s domain.Stats) string {
	return fmt.Sprintf(
		"📊 Статистика\n\n"+
			"Заявки: %d всего\n• новых: %d\n• принятых: %d\n• отклонённых: %d\n\n"+
			"Вопросы: %d всего\n• без ответа: %d\n\n"+
			"Менеджеров активно: %d",
		s.LeadsTotal, s.LeadsNew, s.LeadsAccepted, s.LeadsRejected,
		s.QuestionsTotal, s.QuestionsUnanswered,
		s.ManagersActive,
	)
}

func formatKnowledgeList(entries []domain.KnowledgeEntry) string {
	if len(entries) == 0 {
		return "📚 База знаний пуста."
	}
	b := strings.Builder{}
	b.WriteString("📚 База знаний:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n#%d [%s]\nВ: %s\nО: %s\n", e.ID, e.Category, e.Question, e.Answer)
	}
	return b.String()
}

func formatManagerList(managers []domain.Manager) string {
	if len(managers) == 0 {
		return "👥 Менеджеры пока не добавлены."
	}
	b := strings.Builder{}
	b.WriteString("👥 Активные менеджеры:\n")
	for _, m := range managers {
		name := m.Username
		if name == "" {
			name = "—"
		}
		fmt.Fprintf(&b, "\n• %d (%s), добавлен %s", m.UserID, name, m.AddedAt.Format("02.01.2006"))
	}
	return b.String()
}
