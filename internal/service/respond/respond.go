// Package respond generates automatic replies to free-form user messages.
//
// Resolution order: knowledge base lookup first, then the keyword rule table,
// then a generic redirect. The first hit wins.
package respond

import (
	"context"
	"strings"
	"unicode"

	"leadbot/core/logger"
	"leadbot/internal/domain"
	"log/slog"
)

// KnowledgeStore is the knowledge base read access the responder needs.
type KnowledgeStore interface {
	ListKnowledge(ctx context.Context) ([]domain.KnowledgeEntry, error)
}

// Rule maps substring keywords to a canned reply. Rules are evaluated in
// declaration order; the first matching rule wins.
type Rule struct {
	Name     string
	Keywords []string
	Reply    string
}

// Responder picks an automatic reply for an incoming message.
type Responder struct {
	knowledge KnowledgeStore
	rules     []Rule
	escalate  string
	fallback  string
}

// New builds a responder over the knowledge base and the given rule table.
// escalate is appended to knowledge base answers; fallback is returned when
// nothing matches.
func New(knowledge KnowledgeStore, rules []Rule, escalate, fallback string) *Responder {
	return &Responder{
		knowledge: knowledge,
		rules:     rules,
		escalate:  escalate,
		fallback:  fallback,
	}
}

// minTokenRunes filters out prepositions and other short noise words before
// the knowledge base lookup.
const minTokenRunes = 4

// Reply resolves text to an automatic answer. source identifies what matched
// ("kb", "rule:<name>" or "fallback") for logging.
func (r *Responder) Reply(ctx context.Context, text string) (reply, source string) {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return r.fallback, "fallback"
	}

	if answer, ok := r.knowledgeAnswer(ctx, normalized); ok {
		return answer, "kb"
	}

	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(normalized, kw) {
				return rule.Reply, "rule:" + rule.Name
			}
		}
	}

	return r.fallback, "fallback"
}

func (r *Responder) knowledgeAnswer(ctx context.Context, normalized string) (string, bool) {
	tokens := meaningfulTokens(normalized)
	if len(tokens) == 0 {
		return "", false
	}
	entries, err := r.knowledge.ListKnowledge(ctx)
	if err != nil {
		// Degrade to the rule table rather than failing the reply.
		logger.Warn(ctx, "service.knowledge", "kb.lookup.failed",
			slog.String("err", err.Error()),
		)
		return "", false
	}
	for _, entry := range entries {
		entryQ := strings.ToLower(entry.Question)
		for _, token := range tokens {
			if strings.Contains(entryQ, token) {
				answer := entry.Answer
				if r.escalate != "" {
					answer += "\n\n" + r.escalate
				}
				return answer, true
			}
		}
	}
	return "", false
}

// meaningfulTokens splits the message into lowercase words, strips punctuation
// and drops words shorter than minTokenRunes.
func meaningfulTokens(normalized string) []string {
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= minTokenRunes {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
