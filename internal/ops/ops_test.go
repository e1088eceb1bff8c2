package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"leadbot/internal/domain"
)

type statsStub struct {
	stats domain.Stats
	err   error
}

func (s statsStub) Snapshot(context.Context) (domain.Stats, error) {
	return s.stats, s.err
}

func TestHealthz(t *testing.T) {
	srv := New(":0", statsStub{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
}

func TestStats(t *testing.T) {
	srv := New(":0", statsStub{stats: domain.Stats{
		LeadsTotal:          5,
		LeadsNew:            2,
		LeadsAccepted:       2,
		LeadsRejected:       1,
		QuestionsTotal:      3,
		QuestionsUnanswered: 1,
		ManagersActive:      2,
	}})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Leads struct {
			Total int64 `json:"total"`
			New   int64 `json:"new"`
		} `json:"leads"`
		Questions struct {
			Unanswered int64 `json:"unanswered"`
		} `json:"questions"`
		Managers struct {
			Active int64 `json:"active"`
		} `json:"managers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, int64(5), body.Leads.Total)
	require.Equal(t, int64(2), body.Leads.New)
	require.Equal(t, int64(1), body.Questions.Unanswered)
	require.Equal(t, int64(2), body.Managers.Active)
}

func TestStatsStoreFailure(t *testing.T) {
	srv := New(":0", statsStub{err: errors.New("db locked")})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
