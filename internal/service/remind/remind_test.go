package remind

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"leadbot/internal/domain"
)

type leadsStub struct {
	gotCutoff time.Time
	stale     []domain.Lead
	err       error
}

func (l *leadsStub) StaleNewLeads(_ context.Context, cutoff time.Time) ([]domain.Lead, error) {
	l.gotCutoff = cutoff
	return l.stale, l.err
}

type senderStub struct {
	sent   map[int64][]string
	failTo map[int64]bool
}

func newSenderStub() *senderStub {
	return &senderStub{sent: make(map[int64][]string), failTo: make(map[int64]bool)}
}

func (s *senderStub) Send(_ context.Context, chatID int64, text string) error {
	if s.failTo[chatID] {
		return errors.New("blocked by user")
	}
	s.sent[chatID] = append(s.sent[chatID], text)
	return nil
}

func testNudge(lead domain.Lead) string {
	return fmt.Sprintf("напоминание по заявке #%d", lead.ID)
}

func TestSweepNudgesEachSubmitter(t *testing.T) {
	leads := &leadsStub{stale: []domain.Lead{
		{ID: 3, UserID: 31, BusinessType: "пекарня", Contact: "@ivan"},
		{ID: 5, UserID: 52, BusinessType: "салон", Contact: "+79990001122"},
	}}
	sender := newSenderStub()
	r := New(leads, sender, time.Hour, 48*time.Hour, testNudge)

	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"напоминание по заявке #3"}, sender.sent[31])
	require.Equal(t, []string{"напоминание по заявке #5"}, sender.sent[52])
}

func TestUndeliverableNudgeDoesNotAbortSweep(t *testing.T) {
	leads := &leadsStub{stale: []domain.Lead{
		{ID: 1, UserID: 11},
		{ID: 2, UserID: 22},
		{ID: 3, UserID: 33},
	}}
	sender := newSenderStub()
	sender.failTo[22] = true
	r := New(leads, sender, time.Hour, 48*time.Hour, testNudge)

	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, sender.sent[11], 1)
	require.Empty(t, sender.sent[22])
	require.Len(t, sender.sent[33], 1)
}

func TestSweepCutoffUsesAge(t *testing.T) {
	leads := &leadsStub{}
	r := New(leads, newSenderStub(), time.Hour, 48*time.Hour, testNudge)
	fixed := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	_, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, fixed.Add(-48*time.Hour), leads.gotCutoff)
}

func TestEmptyBacklogStaysQuiet(t *testing.T) {
	sender := newSenderStub()
	r := New(&leadsStub{}, sender, time.Hour, 48*time.Hour, testNudge)

	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, sender.sent)
}

func TestScanErrorIsReported(t *testing.T) {
	leads := &leadsStub{err: errors.New("db locked")}
	sender := newSenderStub()
	r := New(leads, sender, time.Hour, 48*time.Hour, testNudge)

	_, err := r.Sweep(context.Background())
	require.Error(t, err)
	require.Empty(t, sender.sent)
}

func TestRunStopsOnCancel(t *testing.T) {
	r := New(&leadsStub{}, newSenderStub(), 10*time.Millisecond, time.Hour, testNudge)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
