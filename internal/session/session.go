// Package session tracks per-user conversation state in memory.
//
// State is intentionally volatile: a restart drops unfinished dialogs and the
// user simply starts over from /start. Persistent data lives in storage.
package session

import "sync"

// Mode discriminates which dialog a user is currently in. At most one mode is
// active per user; switching modes discards the previous dialog's progress.
type Mode string

const (
	// ModeIdle means no dialog is active; free text goes to the auto-responder.
	ModeIdle Mode = "idle"
	// ModeLead is the three-step lead capture flow.
	ModeLead Mode = "lead"
	// ModeQuestion means the next message is recorded as a question.
	ModeQuestion Mode = "question"
	// ModeContact means the next message is relayed to the operators as a
	// callback request.
	ModeContact Mode = "contact"
	// ModeAnswer means an operator is typing an answer to PendingQuestionID.
	ModeAnswer Mode = "answer"
	// ModeManagerAdd means the admin is typing a user ID to grant access to.
	ModeManagerAdd Mode = "manager_add"
	// ModeManagerRemove means the admin is typing a user ID to revoke.
	ModeManagerRemove Mode = "manager_remove"
)

// Lead capture steps within ModeLead.
const (
	StepBusinessType = 1
	StepBotTasks     = 2
	StepContact      = 3
)

// Draft accumulates lead flow answers before the final insert.
type Draft struct {
	BusinessType string
	BotTasks     string
}

// Session is the dialog state for one user.
type Session struct {
	Mode              Mode
	Step              int
	Draft             Draft
	PendingQuestionID int64
}

// InDialog reports whether the user is inside any multi-step flow.
func (s Session) InDialog() bool {
	return s.Mode != ModeIdle && s.Mode != ""
}

// Manager stores sessions keyed by Telegram user ID.
type Manager struct {
	mu       sync.RWMutex
	sessions map[int64]Session
}

// NewManager returns an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]Session)}
}

// Get returns the user's session; an unknown user gets an idle session.
func (m *Manager) Get(userID int64) Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	if !ok {
		return Session{Mode: ModeIdle}
	}
	return s
}

// Set replaces the user's session.
func (m *Manager) Set(userID int64, s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = s
}

// Reset returns the user to idle, discarding any dialog progress.
func (m *Manager) Reset(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Start switches the user into mode, discarding previous dialog state.
func (m *Manager) Start(userID int64, mode Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Session{Mode: mode}
	if mode == ModeLead {
		s.Step = StepBusinessType
	}
	m.sessions[userID] = s
}

// StartAnswer switches an operator into ModeAnswer for the given question.
func (m *Manager) StartAnswer(userID, questionID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = Session{Mode: ModeAnswer, PendingQuestionID: questionID}
}

// Update applies fn to the user's session under the lock.
func (m *Manager) Update(userID int64, fn func(*Session)) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		s = Session{Mode: ModeIdle}
	}
	fn(&s)
	m.sessions[userID] = s
	return s
}
