package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"leadbot/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlx.Connect("sqlite", "file::memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	schema, err := os.ReadFile("../../migrations/0001_init.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	return New(db)
}

func TestLeadStatusIsMonotone(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateLead(ctx, domain.Lead{
		UserID:       100,
		Username:     "ivan",
		BusinessType: "пекарня",
		BotTasks:     "приём заказов",
		Contact:      "@ivan",
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	lead, err := store.LeadByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.LeadStatusNew, lead.Status)

	changed, err := store.ResolveLead(ctx, id, domain.LeadStatusAccepted)
	require.NoError(t, err)
	require.True(t, changed)

	// A second resolution of either kind must be a no-op.
	changed, err = store.ResolveLead(ctx, id, domain.LeadStatusRejected)
	require.NoError(t, err)
	require.False(t, changed)

	lead, err = store.LeadByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, domain.LeadStatusAccepted, lead.Status)
}

func TestResolveLeadMissing(t *testing.T) {
	store := newTestStore(t)

	changed, err := store.ResolveLead(context.Background(), 9999, domain.LeadStatusAccepted)
	require.NoError(t, err)
	require.False(t, changed)

	_, err = store.ResolveLead(context.Background(), 1, domain.LeadStatusNew)
	require.Error(t, err)
}

func TestStaleNewLeads(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	oldID, err := store.CreateLead(ctx, domain.Lead{UserID: 1, BusinessType: "a", BotTasks: "b", Contact: "c"})
	require.NoError(t, err)
	freshID, err := store.CreateLead(ctx, domain.Lead{UserID: 2, BusinessType: "a", BotTasks: "b", Contact: "c"})
	require.NoError(t, err)
	resolvedID, err := store.CreateLead(ctx, domain.Lead{UserID: 3, BusinessType: "a", BotTasks: "b", Contact: "c"})
	require.NoError(t, err)

	past := time.Now().UTC().Add(-72 * time.Hour).Unix()
	_, err = store.db.ExecContext(ctx, `UPDATE leads SET created_at = datetime(?, 'unixepoch') WHERE id IN (?, ?)`, past, oldID, resolvedID)
	require.NoError(t, err)
	_, err = store.ResolveLead(ctx, resolvedID, domain.LeadStatusRejected)
	require.NoError(t, err)

	stale, err := store.StaleNewLeads(ctx, time.Now().UTC().Add(-48*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	require.Equal(t, oldID, stale[0].ID)
	_ = freshID
}

func TestQuestionBacklog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.CreateQuestion(ctx, domain.Question{UserID: 10, Username: "anna", Text: "Сколько стоит?"})
	require.NoError(t, err)
	second, err := store.CreateQuestion(ctx, domain.Question{UserID: 11, Text: "Какие сроки?"})
	require.NoError(t, err)

	open, err := store.ListUnansweredQuestions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, open, 2)
	require.Equal(t, first, open[0].ID, "backlog must be oldest-first")

	require.NoError(t, store.AnswerQuestion(ctx, first, "От 15000 руб."))

	open, err = store.ListUnansweredQuestions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, second, open[0].ID)

	q, err := store.QuestionByID(ctx, first)
	require.NoError(t, err)
	require.True(t, q.Answered())
	require.Equal(t, "От 15000 руб.", *q.Answer)

	// A repeated answer overwrites the stored text.
	require.NoError(t, store.AnswerQuestion(ctx, first, "От 20000 руб."))
	q, err = store.QuestionByID(ctx, first)
	require.NoError(t, err)
	require.Equal(t, "От 20000 руб.", *q.Answer)

	require.ErrorIs(t, store.AnswerQuestion(ctx, 777, "нет такого"), ErrNotFound)
}

func TestManagerRoster(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	added, err := store.AddManager(ctx, 555, "petrov")
	require.NoError(t, err)
	require.True(t, added)

	added, err = store.AddManager(ctx, 555, "petrov")
	require.NoError(t, err)
	require.False(t, added, "duplicate add must report already present")

	active, err := store.IsActiveManager(ctx, 555)
	require.NoError(t, err)
	require.True(t, active)

	removed, err := store.RemoveManager(ctx, 555)
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = store.RemoveManager(ctx, 555)
	require.NoError(t, err)
	require.False(t, removed)

	active, err = store.IsActiveManager(ctx, 555)
	require.NoError(t, err)
	require.False(t, active)

	// Removal is a hard delete, so the same ID can be granted access again.
	added, err = store.AddManager(ctx, 555, "petrov2")
	require.NoError(t, err)
	require.True(t, added)

	managers, err := store.ListActiveManagers(ctx)
	require.NoError(t, err)
	require.Len(t, managers, 1)
	require.Equal(t, "petrov2", managers[0].Username)
}

func TestKnowledgeEntryCarriesCreationTime(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddKnowledge(ctx, domain.KnowledgeEntry{
		Question: "Какие сроки разработки", Answer: "От 5 дней.", Category: "timing",
	})
	require.NoError(t, err)

	entries, err := store.ListKnowledge(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.False(t, entries[0].CreatedAt.IsZero(), "created_at must be stamped by the insert")
}

func TestSnapshotCounters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateLead(ctx, domain.Lead{UserID: 1, BusinessType: "a", BotTasks: "b", Contact: "c"})
	require.NoError(t, err)
	_, err = store.CreateLead(ctx, domain.Lead{UserID: 2, BusinessType: "a", BotTasks: "b", Contact: "c"})
	require.NoError(t, err)
	_, err = store.ResolveLead(ctx, id, domain.LeadStatusAccepted)
	require.NoError(t, err)

	qid, err := store.CreateQuestion(ctx, domain.Question{UserID: 3, Text: "?"})
	require.NoError(t, err)
	_, err = store.CreateQuestion(ctx, domain.Question{UserID: 4, Text: "??"})
	require.NoError(t, err)
	require.NoError(t, store.AnswerQuestion(ctx, qid, "!"))

	_, err = store.AddManager(ctx, 5, "m")
	require.NoError(t, err)

	stats, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.LeadsTotal)
	require.Equal(t, int64(1), stats.LeadsNew)
	require.Equal(t, int64(1), stats.LeadsAccepted)
	require.Equal(t, int64(0), stats.LeadsRejected)
	require.Equal(t, int64(2), stats.QuestionsTotal)
	require.Equal(t, int64(1), stats.QuestionsUnanswered)
	require.Equal(t, int64(1), stats.ManagersActive)
}
