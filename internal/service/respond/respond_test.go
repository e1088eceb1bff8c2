package respond

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"leadbot/internal/domain"
)

type kbStub struct {
	entries []domain.KnowledgeEntry
	err     error
}

func (k kbStub) ListKnowledge(context.Context) ([]domain.KnowledgeEntry, error) {
	return k.entries, k.err
}

var testRules = []Rule{
	{Name: "price", Keywords: []string{"цена", "стоимость", "сколько стоит"}, Reply: "Стоимость от 15000 руб."},
	{Name: "greeting", Keywords: []string{"привет", "здравств"}, Reply: "Здравствуйте!"},
}

func newTestResponder(kb KnowledgeStore) *Responder {
	return New(kb, testRules, "Если нужна помощь, нажмите «Связаться с менеджером».", "Я не совсем понял вопрос.")
}

func TestKnowledgeBaseBeatsRules(t *testing.T) {
	kb := kbStub{entries: []domain.KnowledgeEntry{
		{Question: "Как оплатить заказ", Answer: "Оплата картой или по счёту."},
	}}
	r := newTestResponder(kb)

	reply, source := r.Reply(context.Background(), "как мне оплатить?")
	require.Equal(t, "kb", source)
	require.Contains(t, reply, "Оплата картой или по счёту.")
	require.Contains(t, reply, "Связаться с менеджером", "kb answers carry the escalation hint")
}

func TestShortWordsDoNotMatchKnowledge(t *testing.T) {
	kb := kbStub{entries: []domain.KnowledgeEntry{
		{Question: "Как оплатить заказ", Answer: "Оплата картой."},
	}}
	r := newTestResponder(kb)

	// Every word is three runes or shorter, so the lookup is skipped entirely.
	reply, source := r.Reply(context.Background(), "как же так")
	require.Equal(t, "fallback", source)
	require.Equal(t, "Я не совсем понял вопрос.", reply)
}

func TestRuleOrderIsStable(t *testing.T) {
	r := newTestResponder(kbStub{})

	reply, source := r.Reply(context.Background(), "Привет! Сколько стоит бот? Какая цена?")
	require.Equal(t, "rule:price", source, "earlier rules take precedence")
	require.Equal(t, "Стоимость от 15000 руб.", reply)
}

func TestFallbackWhenNothingMatches(t *testing.T) {
	r := newTestResponder(kbStub{})

	reply, source := r.Reply(context.Background(), "расскажите про погоду")
	require.Equal(t, "fallback", source)
	require.Equal(t, "Я не совсем понял вопрос.", reply)

	reply, source = r.Reply(context.Background(), "   ")
	require.Equal(t, "fallback", source)
	require.Equal(t, "Я не совсем понял вопрос.", reply)
}

func TestKnowledgeErrorDegradesToRules(t *testing.T) {
	kb := kbStub{err: errors.New("db locked")}
	r := newTestResponder(kb)

	reply, source := r.Reply(context.Background(), "какая стоимость разработки?")
	require.Equal(t, "rule:price", source)
	require.Equal(t, "Стоимость от 15000 руб.", reply)
}

func TestFirstMatchingEntryWins(t *testing.T) {
	kb := kbStub{entries: []domain.KnowledgeEntry{
		{Question: "Какая стоимость разработки бота", Answer: "Первый ответ."},
		{Question: "Стоимость поддержки бота", Answer: "Второй ответ."},
	}}
	r := newTestResponder(kb)

	reply, source := r.Reply(context.Background(), "интересует стоимость")
	require.Equal(t, "kb", source)
	require.Contains(t, reply, "Первый ответ.")
}
