package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnknownUserIsIdle(t *testing.T) {
	m := NewManager()
	s := m.Get(42)
	require.Equal(t, ModeIdle, s.Mode)
	require.False(t, s.InDialog())
}

func TestStartLeadSetsFirstStep(t *testing.T) {
	m := NewManager()
	m.Start(1, ModeLead)
	s := m.Get(1)
	require.Equal(t, ModeLead, s.Mode)
	require.Equal(t, StepBusinessType, s.Step)
	require.True(t, s.InDialog())
}

func TestModeSwitchDiscardsDraft(t *testing.T) {
	m := NewManager()
	m.Start(1, ModeLead)
	m.Update(1, func(s *Session) {
		s.Draft.BusinessType = "пекарня"
		s.Step = StepBotTasks
	})

	// Entering another dialog must not leak lead progress.
	m.Start(1, ModeQuestion)
	s := m.Get(1)
	require.Equal(t, ModeQuestion, s.Mode)
	require.Zero(t, s.Step)
	require.Empty(t, s.Draft.BusinessType)
}

func TestStartAnswerTracksQuestion(t *testing.T) {
	m := NewManager()
	m.StartAnswer(99, 7)
	s := m.Get(99)
	require.Equal(t, ModeAnswer, s.Mode)
	require.Equal(t, int64(7), s.PendingQuestionID)
}

func TestResetReturnsToIdle(t *testing.T) {
	m := NewManager()
	m.Start(1, ModeLead)
	m.Reset(1)
	require.Equal(t, ModeIdle, m.Get(1).Mode)
}

func TestSessionsAreIndependentPerUser(t *testing.T) {
	m := NewManager()
	m.Start(1, ModeLead)
	m.Start(2, ModeQuestion)
	require.Equal(t, ModeLead, m.Get(1).Mode)
	require.Equal(t, ModeQuestion, m.Get(2).Mode)
}

func TestConcurrentUpdates(t *testing.T) {
	m := NewManager()
	var wg sync.WaitGroup
	for i := int64(0); i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.Start(id, ModeLead)
			m.Update(id, func(s *Session) { s.Step = StepContact })
		}(i)
	}
	wg.Wait()
	for i := int64(0); i < 50; i++ {
		require.Equal(t, StepContact, m.Get(i).Step)
	}
}
