package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ciphercircuit/cipher-circuit-backend/internal/auth"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/presence"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/queue"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/session"
	"github.com/ciphercircuit/cipher-circuit-backend/internal/store"
)

type testAPI struct {
	handler  http.Handler
	store    *store.Memory
	verifier *auth.Verifier
}

func newAPI(t *testing.T) *testAPI {
	t.Helper()
	st := store.NewMemory()
	logger := zap.NewNop()
	assigner := queue.NewAssigner(st, logger)
	verifier := auth.NewVerifier("test-secret", time.Hour)
	reg := presence.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := session.NewHub(ctx, st, assigner, session.Options{}, logger)

	return &testAPI{
		handler:  SetupRoutes(hub, st, assigner, verifier, reg, logger),
		store:    st,
		verifier: verifier,
	}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(t *testing.T, teamID, teamName string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"teamId": teamID, "teamName": teamName,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLogin_CreatesTeamAndIssuesToken(t *testing.T) {
	api := newAPI(t)
	token := api.login(t, "alpha", "Team Alpha")

	claims, err := api.verifier.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "alpha", claims.TeamID)

	team, err := api.store.GetTeam(context.Background(), "alpha")
	require.NoError(t, err)
	require.Equal(t, "Team Alpha", team.TeamName)
}

func TestLogin_MissingFields(t *testing.T) {
	api := newAPI(t)
	rec := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"teamId": "alpha"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeamState_RequiresCredential(t *testing.T) {
	api := newAPI(t)
	rec := api.do(t, http.MethodGet, "/api/team/alpha", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTeamState_RejectsOtherTeamsCredential(t *testing.T) {
	api := newAPI(t)
	api.login(t, "alpha", "Team Alpha")
	token := api.login(t, "bravo", "Team Bravo")

	rec := api.do(t, http.MethodGet, "/api/team/alpha", token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTeamState_LazilyAssignsPuzzle(t *testing.T) {
	api := newAPI(t)
	token := api.login(t, "alpha", "Team Alpha")

	team, err := api.store.GetTeam(context.Background(), "alpha")
	require.NoError(t, err)
	require.False(t, team.Assigned(), "login alone must not assign")

	rec := api.do(t, http.MethodGet, "/api/team/alpha", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TeamID       string `json:"teamId"`
		SwitchValues *struct {
			S0, S1, S2, S3 int
		} `json:"switchValues"`
		Key4Bit string `json:"key4bit"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "alpha", resp.TeamID)
	require.NotNil(t, resp.SwitchValues)
	require.Equal(t, "0000", resp.Key4Bit)
}

func TestTeams_PublicListing(t *testing.T) {
	api := newAPI(t)
	api.login(t, "alpha", "Team Alpha")
	api.login(t, "bravo", "Team Bravo")

	rec := api.do(t, http.MethodGet, "/api/teams", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var teams []store.TeamSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &teams))
	require.Len(t, teams, 2)
}

func TestLeaderboard_SortedProjection(t *testing.T) {
	api := newAPI(t)
	ctx := context.Background()
	require.NoError(t, api.store.UpsertLeaderboard(ctx, store.LeaderboardEntry{
		TeamID: "slow", TeamName: "Slow", TimeElapsed: 5 * time.Minute, CompletionDate: time.Now(),
	}))
	require.NoError(t, api.store.UpsertLeaderboard(ctx, store.LeaderboardEntry{
		TeamID: "fast", TeamName: "Fast", TimeElapsed: time.Minute, CompletionDate: time.Now(),
	}))

	rec := api.do(t, http.MethodGet, "/api/leaderboard", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []struct {
		TeamID      string `json:"teamId"`
		TimeElapsed int64  `json:"timeElapsed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	require.Equal(t, "fast", rows[0].TeamID)
	require.Equal(t, time.Minute.Milliseconds(), rows[0].TimeElapsed)
}

func TestLookupTable_Public(t *testing.T) {
	api := newAPI(t)
	rec := api.do(t, http.MethodGet, "/api/lookup-table", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var table []struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	require.Len(t, table, 16)
}

func TestQueueAdmin_AssignStatusReset(t *testing.T) {
	api := newAPI(t)
	token := api.login(t, "alpha", "Team Alpha")

	rec := api.do(t, http.MethodPost, "/api/queue/assign/alpha", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/queue/assign/alpha", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code, "re-assignment must be rejected")

	rec = api.do(t, http.MethodPost, "/api/queue/assign/ghost", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/queue/status", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		TotalTeams      int `json:"totalTeams"`
		AssignedTeams   int `json:"assignedTeams"`
		LookupTableSize int `json:"lookupTableSize"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, 1, status.TotalTeams)
	require.Equal(t, 1, status.AssignedTeams)
	require.Equal(t, 16, status.LookupTableSize)

	rec = api.do(t, http.MethodGet, "/api/queue/assignments", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []struct {
		Position int    `json:"position"`
		TeamID   string `json:"teamId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	require.Equal(t, 0, rows[0].Position)

	rec = api.do(t, http.MethodPost, "/api/queue/reset", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	team, err := api.store.GetTeam(context.Background(), "alpha")
	require.NoError(t, err)
	require.False(t, team.Assigned())
	require.Equal(t, 0, team.Round)
}

func TestLogs_OwnTeamOnly(t *testing.T) {
	api := newAPI(t)
	token := api.login(t, "alpha", "Team Alpha")
	ctx := context.Background()
	require.NoError(t, api.store.AppendLog(ctx, store.NewLogEntry("alpha", "c1", "join", nil)))
	require.NoError(t, api.store.AppendLog(ctx, store.NewLogEntry("alpha", "c1", "disconnect", nil)))

	rec := api.do(t, http.MethodGet, "/api/team/alpha/logs", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []store.SessionLogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 2)
	require.Equal(t, "disconnect", logs[0].EventType, "newest first")

	rec = api.do(t, http.MethodGet, "/api/team/bravo/logs", token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealth_ReportsStoreAndConnections(t *testing.T) {
	api := newAPI(t)
	rec := api.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health struct {
		Status            string `json:"status"`
		StoreConnected    bool   `json:"storeConnected"`
		ActiveConnections int    `json:"activeConnections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
	require.True(t, health.StoreConnected)
	require.Zero(t, health.ActiveConnections)
}
