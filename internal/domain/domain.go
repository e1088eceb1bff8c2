// Package domain holds the persistent entities shared by storage and services.
package domain

import "time"

// LeadStatus is the review state of a captured lead.
type LeadStatus string

const (
	LeadStatusNew      LeadStatus = "new"
	LeadStatusAccepted LeadStatus = "accepted"
	LeadStatusRejected LeadStatus = "rejected"
)

// Lead is a completed bot-development request captured from a user.
type Lead struct {
	ID           int64      `db:"id"`
	UserID       int64      `db:"user_id"`
	Username     string     `db:"username"`
	BusinessType string     `db:"business_type"`
	BotTasks     string     `db:"bot_tasks"`
	Contact      string     `db:"contact"`
	Status       LeadStatus `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
}

// Question is a free-form user question awaiting an operator answer.
// Answer is nil until an operator responds.
type Question struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	Text      string    `db:"text"`
	Answer    *string   `db:"answer"`
	CreatedAt time.Time `db:"created_at"`
}

// Answered reports whether the question already has an operator answer.
func (q Question) Answered() bool {
	return q.Answer != nil && *q.Answer != ""
}

// KnowledgeEntry is a curated Q&A pair used by the auto-responder.
type KnowledgeEntry struct {
	ID        int64     `db:"id"`
	Question  string    `db:"question"`
	Answer    string    `db:"answer"`
	Category  string    `db:"category"`
	CreatedAt time.Time `db:"created_at"`
}

// Manager is an operator granted admin-console access at runtime.
type Manager struct {
	UserID   int64     `db:"user_id"`
	Username string    `db:"username"`
	Active   bool      `db:"active"`
	AddedAt  time.Time `db:"added_at"`
}

// Stats is an aggregate snapshot for the /stats view and ops endpoint.
type Stats struct {
	LeadsTotal          int64 `db:"leads_total"`
	LeadsNew            int64 `db:"leads_new"`
	LeadsAccepted       int64 `db:"leads_accepted"`
	LeadsRejected       int64 `db:"leads_rejected"`
	QuestionsTotal      int64 `db:"questions_total"`
	QuestionsUnanswered int64 `db:"questions_unanswered"`
	ManagersActive      int64 `db:"managers_active"`
}
