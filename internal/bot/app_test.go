package bot

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
	_ "modernc.org/sqlite"

	coreconfig "leadbot/core/config"
	"leadbot/internal/domain"
	"leadbot/internal/service/notify"
	"leadbot/internal/session"
	"leadbot/internal/storage"
)

const (
	testAdminID   = int64(100)
	testManagerID = int64(200)
)

// recorderSender captures direct sends instead of hitting the Bot API.
type recorderSender struct {
	sent map[int64][]string
}

func newRecorderSender() *recorderSender {
	return &recorderSender{sent: make(map[int64][]string)}
}

func (r *recorderSender) Send(_ context.Context, chatID int64, text string) error {
	r.sent[chatID] = append(r.sent[chatID], text)
	return nil
}

func (r *recorderSender) lastTo(chatID int64) string {
	msgs := r.sent[chatID]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := os.ReadFile("../../migrations/0001_init.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	return db
}

func newTestApp(t *testing.T) (*App, *recorderSender) {
	t.Helper()
	db := newTestDB(t)

	cfg := &coreconfig.Config{}
	cfg.Telegram.AdminID = testAdminID
	cfg.Telegram.ManagerIDs = []int64{testManagerID}

	app := New(cfg, db)

	// The bootstrap manager lives in the roster, as Seed would put it there.
	_, err := app.store.AddManager(context.Background(), testManagerID, "")
	require.NoError(t, err)

	rec := newRecorderSender()
	app.send = rec
	app.notifier = notify.New(rec, app.store, testAdminID)
	return app, rec
}

// fakeContext implements the handful of tele.Context methods the handlers
// touch; everything else panics via the embedded nil interface.
type fakeContext struct {
	tele.Context
	user     *tele.User
	text     string
	callback *tele.Callback
	values   map[string]any
	sent     []string
	markups  []*tele.ReplyMarkup
}

func newFakeContext(userID int64, username, text string) *fakeContext {
	return &fakeContext{
		user:   &tele.User{ID: userID, Username: username},
		text:   text,
		values: map[string]any{},
	}
}

func newFakeCallback(userID int64, unique, payload string) *fakeContext {
	fc := newFakeContext(userID, "", "")
	data := "\\f" + unique
	if payload != "" {
		data += "|" + payload
	}
	fc.callback = &tele.Callback{Unique: unique, Data: data}
	return fc
}

func (f *fakeContext) Sender() *tele.User        { return f.user }
func (f *fakeContext) Chat() *tele.Chat          { return &tele.Chat{ID: f.user.ID} }
func (f *fakeContext) Text() string              { return f.text }
func (f *fakeContext) Update() tele.Update       { return tele.Update{ID: 1, Callback: f.callback} }
func (f *fakeContext) Callback() *tele.Callback  { return f.callback }
func (f *fakeContext) Get(key string) any        { return f.values[key] }
func (f *fakeContext) Set(key string, val any)   { f.values[key] = val }
func (f *fakeContext) Respond(...*tele.CallbackResponse) error { return nil }

func (f *fakeContext) record(what any, opts []any) {
	if s, ok := what.(string); ok {
		f.sent = append(f.sent, s)
	}
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok && so != nil {
			f.markups = append(f.markups, so.ReplyMarkup)
		}
	}
}

func (f *fakeContext) Send(what any, opts ...any) error {
	f.record(what, opts)
	return nil
}

func (f *fakeContext) EditOrSend(what any, opts ...any) error {
	f.record(what, opts)
	return nil
}

func (f *fakeContext) lastSent() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

func TestStartShowsMenuAndResetsDialog(t *testing.T) {
	app, _ := newTestApp(t)
	userID := int64(1000)

	app.sessions.Start(userID, session.ModeLead)
	c := newFakeContext(userID, "ivan", "/start")
	require.NoError(t, app.handleStart(c))

	require.Contains(t, c.lastSent(), "Здравствуйте")
	require.NotEmpty(t, c.markups, "menu keyboard expected")
	require.False(t, app.InDialog(userID))
}

func TestLeadFlowEndToEnd(t *testing.T) {
	app, rec := newTestApp(t)
	userID := int64(1000)

	// Entry point: the menu button.
	c := newFakeCallback(userID, cbMenuRequest, "")
	require.NoError(t, app.cbMenuRequest(c))
	require.True(t, app.InDialog(userID))

	steps := []string{"пекарня", "приём заказов и ответы на вопросы", "@ivan"}
	var last *fakeContext
	for _, answer := range steps {
		last = newFakeContext(userID, "ivan", answer)
		require.NoError(t, app.HandleDialog(last))
	}

	require.Equal(t, textLeadSaved, last.lastSent())
	require.False(t, app.InDialog(userID), "session returns to idle after the final step")

	leads, err := app.store.ListLeadsByStatus(context.Background(), domain.LeadStatusNew, 10)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	require.Equal(t, "пекарня", leads[0].BusinessType)
	require.Equal(t, "приём заказов и ответы на вопросы", leads[0].BotTasks)
	require.Equal(t, "@ivan", leads[0].Contact)
	require.Equal(t, domain.LeadStatusNew, leads[0].Status)

	// Both the admin and the roster manager hear about the lead.
	require.Contains(t, rec.lastTo(testAdminID), "пекарня")
	require.Contains(t, rec.lastTo(testManagerID), "пекарня")
}

func TestLeadResolveIsExactlyOnce(t *testing.T) {
	app, rec := newTestApp(t)
	userID := int64(1000)

	leadID, err := app.store.CreateLead(context.Background(), domain.Lead{
		UserID: userID, Username: "ivan", BusinessType: "пекарня", BotTasks: "заказы", Contact: "@ivan",
	})
	require.NoError(t, err)

	c := newFakeCallback(testManagerID, cbLeadAccept, fmt.Sprint(leadID))
	require.NoError(t, app.requireOperator(app.cbLeadResolve)(c))

	lead, err := app.store.LeadByID(context.Background(), leadID)
	require.NoError(t, err)
	require.Equal(t, domain.LeadStatusAccepted, lead.Status)
	require.Equal(t, textLeadAccepted, rec.lastTo(userID))

	// A second verdict, even the opposite one, is a no-op.
	c2 := newFakeCallback(testAdminID, cbLeadReject, fmt.Sprint(leadID))
	require.NoError(t, app.cbLeadResolve(c2))
	require.Contains(t, c2.lastSent(), "уже обработана")

	lead, err = app.store.LeadByID(context.Background(), leadID)
	require.NoError(t, err)
	require.Equal(t, domain.LeadStatusAccepted, lead.Status)
	// The customer was told exactly once.
	require.Len(t, rec.sent[userID], 1)
}

func TestQuestionAnswerFlow(t *testing.T) {
	app, rec := newTestApp(t)
	userID := int64(1000)

	// The customer asks.
	c := newFakeCallback(userID, cbMenuQuestion, "")
	require.NoError(t, app.cbMenuQuestion(c))
	ask := newFakeContext(userID, "anna", "Сколько стоит поддержка?")
	require.NoError(t, app.HandleDialog(ask))
	// Confirmation plus an immediate best-effort auto answer.
	require.Contains(t, ask.lastSent(), textQuestionSaved)
	require.Contains(t, ask.lastSent(), "от 15 000 руб")

	open, err := app.store.ListUnansweredQuestions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	qid := open[0].ID

	// Operators are notified about the new question.
	require.Contains(t, rec.lastTo(testAdminID), "Сколько стоит поддержка?")

	// The operator answers through the console.
	pick := newFakeCallback(testManagerID, cbQuestionAnswer, fmt.Sprint(qid))
	require.NoError(t, app.cbQuestionAnswer(pick))
	require.True(t, app.InDialog(testManagerID))

	reply := newFakeContext(testManagerID, "petrov", "Первый месяц бесплатно.")
	require.NoError(t, app.HandleDialog(reply))
	require.Contains(t, reply.lastSent(), "отправлен пользователю")
	require.False(t, app.InDialog(testManagerID))

	// Stored and delivered.
	q, err := app.store.QuestionByID(context.Background(), qid)
	require.NoError(t, err)
	require.True(t, q.Answered())
	require.Equal(t, "Первый месяц бесплатно.", *q.Answer)
	require.Contains(t, rec.lastTo(userID), "Первый месяц бесплатно.")

	// The answer also lands in the knowledge base, exactly once.
	entries, err := app.store.ListKnowledge(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Сколько стоит поддержка?", entries[0].Question)
	require.Equal(t, "Первый месяц бесплатно.", entries[0].Answer)

	open, err = app.store.ListUnansweredQuestions(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, open)
}

func TestContactRequestFlow(t *testing.T) {
	app, rec := newTestApp(t)
	userID := int64(1000)

	c := newFakeCallback(userID, cbMenuContact, "")
	require.NoError(t, app.cbMenuContact(c))
	require.True(t, app.InDialog(userID))

	msg := newFakeContext(userID, "ivan", "Позвоните после 18:00, +79990001122")
	require.NoError(t, app.HandleDialog(msg))
	require.Equal(t, textContactManager, msg.lastSent())
	require.False(t, app.InDialog(userID))

	for _, operator := range []int64{testAdminID, testManagerID} {
		require.Contains(t, rec.lastTo(operator), "@ivan")
		require.Contains(t, rec.lastTo(operator), "+79990001122")
	}
}

func TestIdleFreeTextGetsAutoReply(t *testing.T) {
	app, rec := newTestApp(t)

	c := newFakeContext(1000, "ivan", "Какая цена у бота?")
	require.NoError(t, app.handleFreeText(c))
	require.Contains(t, c.lastSent(), "15 000")

	c2 := newFakeContext(1000, "ivan", "ааа ыыы")
	require.NoError(t, app.handleFreeText(c2))
	require.Equal(t, textReplyFallback, c2.lastSent())

	// Idle messages still land in the question backlog, so an operator can
	// follow up on anything the auto-responder answered poorly.
	open, err := app.store.ListUnansweredQuestions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, open, 2)
	require.Equal(t, "Какая цена у бота?", open[0].Text)
	require.Contains(t, rec.lastTo(testAdminID), "ааа ыыы")
	require.Contains(t, rec.lastTo(testManagerID), "ааа ыыы")
}

func TestIdleWhitespaceIsNotRecorded(t *testing.T) {
	app, _ := newTestApp(t)

	c := newFakeContext(1000, "ivan", "   ")
	require.NoError(t, app.handleFreeText(c))
	require.Equal(t, textReplyFallback, c.lastSent())

	open, err := app.store.ListUnansweredQuestions(context.Background(), 10)
	require.NoError(t, err)
	require.Empty(t, open)
}

func TestKnowledgeBaseAnswersPaymentQuestion(t *testing.T) {
	app, _ := newTestApp(t)
	require.NoError(t, seedStore(app))

	c := newFakeContext(1000, "ivan", "как мне оплатить?")
	require.NoError(t, app.handleFreeText(c))
	require.Contains(t, c.lastSent(), "Предоплата 50%")
	require.Contains(t, c.lastSent(), "Связаться с менеджером")
}

func TestConsoleDeniedForStrangers(t *testing.T) {
	app, _ := newTestApp(t)

	c := newFakeCallback(999, cbLeadsList, "")
	require.NoError(t, app.requireOperator(app.cbLeadsList)(c))
	require.Equal(t, textAccessDenied, c.lastSent())

	// Managers may use the console but not the roster controls.
	c2 := newFakeCallback(testManagerID, cbManagerAdd, "")
	require.NoError(t, app.requireAdmin(app.cbManagerAdd)(c2))
	require.Equal(t, textAccessDenied, c2.lastSent())
}

func TestManagerRosterFlow(t *testing.T) {
	app, _ := newTestApp(t)

	c := newFakeCallback(testAdminID, cbManagerAdd, "")
	require.NoError(t, app.cbManagerAdd(c))
	require.True(t, app.InDialog(testAdminID))

	// Garbage input keeps the prompt alive.
	bad := newFakeContext(testAdminID, "", "@petrov")
	require.NoError(t, app.HandleDialog(bad))
	require.Equal(t, textBadManagerID, bad.lastSent())
	require.True(t, app.InDialog(testAdminID))

	ok := newFakeContext(testAdminID, "", "555")
	require.NoError(t, app.HandleDialog(ok))
	require.Contains(t, ok.lastSent(), "выдан")
	require.False(t, app.InDialog(testAdminID))

	// The new manager passes the console gate immediately.
	require.True(t, app.authz.IsOperator(context.Background(), 555))

	// A duplicate add reports the existing grant.
	require.NoError(t, app.cbManagerAdd(newFakeCallback(testAdminID, cbManagerAdd, "")))
	dup := newFakeContext(testAdminID, "", "555")
	require.NoError(t, app.HandleDialog(dup))
	require.Contains(t, dup.lastSent(), "уже является менеджером")
}

// Managers configured via MANAGER_IDS are ordinary roster rows after seeding,
// so the admin can revoke them like anyone else.
func TestBootstrapManagerCanBeRevoked(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	require.True(t, app.authz.IsOperator(ctx, testManagerID))

	require.NoError(t, app.cbManagerRemove(newFakeCallback(testAdminID, cbManagerRemove, "")))
	rm := newFakeContext(testAdminID, "", fmt.Sprint(testManagerID))
	require.NoError(t, app.HandleDialog(rm))
	require.Contains(t, rm.lastSent(), "отозван")

	require.False(t, app.authz.IsOperator(ctx, testManagerID))
	require.NotContains(t, app.notifier.Recipients(ctx), testManagerID)
}

// Seed puts the configured IDs into the roster and is safe to run on every
// start: present rows are left alone.
func TestSeedMaterializesConfiguredManagers(t *testing.T) {
	db := newTestDB(t)
	store := storage.New(db)
	ctx := context.Background()

	cfg := &coreconfig.Config{}
	cfg.Telegram.AdminID = testAdminID
	cfg.Telegram.ManagerIDs = []int64{testManagerID, 201}
	require.NoError(t, Seed(cfg, db))

	managers, err := store.ListActiveManagers(ctx)
	require.NoError(t, err)
	require.Len(t, managers, 2)

	// A second run changes nothing.
	require.NoError(t, Seed(cfg, db))
	managers, err = store.ListActiveManagers(ctx)
	require.NoError(t, err)
	require.Len(t, managers, 2)
}

func TestModeSwitchAbandonsLeadDraft(t *testing.T) {
	app, _ := newTestApp(t)
	userID := int64(1000)

	require.NoError(t, app.cbMenuRequest(newFakeCallback(userID, cbMenuRequest, "")))
	require.NoError(t, app.HandleDialog(newFakeContext(userID, "ivan", "пекарня")))

	// Switching to the question flow drops the half-finished lead.
	require.NoError(t, app.cbMenuQuestion(newFakeCallback(userID, cbMenuQuestion, "")))
	ask := newFakeContext(userID, "ivan", "Сколько стоит?")
	require.NoError(t, app.HandleDialog(ask))
	require.Contains(t, ask.lastSent(), textQuestionSaved)

	leads, err := app.store.ListLeadsByStatus(context.Background(), domain.LeadStatusNew, 10)
	require.NoError(t, err)
	require.Empty(t, leads, "no lead must be created from an abandoned draft")
}

func seedStore(app *App) error {
	ctx := context.Background()
	for _, entry := range defaultKnowledge {
		if _, err := app.store.AddKnowledge(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}
