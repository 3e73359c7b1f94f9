package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AdamBeresnev/league-stages/internal/config"
	"github.com/AdamBeresnev/league-stages/internal/db"
	"github.com/AdamBeresnev/league-stages/internal/service"
	"github.com/AdamBeresnev/league-stages/internal/tournament"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()

	database, err := db.InitDB(config.DriverSQLite, "file::memory:", 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	// Each connection would get its own empty in-memory database
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database.DB, config.DriverSQLite, "file://../../migrations/sqlite3"))

	return newRouter(database, []string{"http://localhost:5173"})
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createTeam(t *testing.T, h http.Handler, name, league string) tournament.Team {
	t.Helper()

	rec := doRequest(t, h, http.MethodPost, "/api/teams", fmt.Sprintf(`{"name":%q,"league":%q}`, name, league))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[tournament.Team](t, rec)
}

func TestTeamRoutes(t *testing.T) {
	h := setupRouter(t)

	red := createTeam(t, h, "Red", "A")
	createTeam(t, h, "Blue", "B")

	rec := doRequest(t, h, http.MethodGet, "/api/teams?league=A", "")
	require.Equal(t, http.StatusOK, rec.Code)
	teams := decode[[]tournament.Team](t, rec)
	require.Len(t, teams, 1)
	assert.Equal(t, red.ID, teams[0].ID)

	rec = doRequest(t, h, http.MethodPatch, "/api/teams/"+red.ID.String(), `{"name":"Crimson"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Crimson", decode[tournament.Team](t, rec).Name)

	testCases := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{name: "Missing league", method: http.MethodPost, path: "/api/teams", body: `{"name":"Green"}`, expectedStatus: http.StatusBadRequest},
		{name: "Empty name", method: http.MethodPost, path: "/api/teams", body: `{"name":"","league":"A"}`, expectedStatus: http.StatusBadRequest},
		{name: "Unknown field", method: http.MethodPost, path: "/api/teams", body: `{"name":"Green","league":"A","x":1}`, expectedStatus: http.StatusBadRequest},
		{name: "Invalid id", method: http.MethodGet, path: "/api/teams/42", expectedStatus: http.StatusBadRequest},
		{name: "Unknown team", method: http.MethodGet, path: "/api/teams/" + uuid.NewString(), expectedStatus: http.StatusNotFound},
		{name: "Delete", method: http.MethodDelete, path: "/api/teams/" + red.ID.String(), expectedStatus: http.StatusNoContent},
		{name: "Delete again", method: http.MethodDelete, path: "/api/teams/" + red.ID.String(), expectedStatus: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, h, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.expectedStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestPouleRoutes(t *testing.T) {
	h := setupRouter(t)

	red := createTeam(t, h, "Red", "A")
	blue := createTeam(t, h, "Blue", "A")
	green := createTeam(t, h, "Green", "A")

	body := fmt.Sprintf(`{"name":"Poule 1","league":"A","teams":[%q,%q,%q]}`, red.ID, blue.ID, green.ID)
	rec := doRequest(t, h, http.MethodPost, "/api/poules", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	poule := decode[service.PouleDetails](t, rec)
	require.Len(t, poule.Matches, 3)

	// A team can only play in one poule
	body = fmt.Sprintf(`{"name":"Poule 2","league":"A","teams":[%q,%q]}`, red.ID, blue.ID)
	rec = doRequest(t, h, http.MethodPost, "/api/poules", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	match := poule.Matches[0]
	matchPath := fmt.Sprintf("/api/poules/%s/matches/%s", poule.ID, match.ID)

	rec = doRequest(t, h, http.MethodPatch, matchPath, `{"scores":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "a date is required")

	body = fmt.Sprintf(`{"date":"2026-04-01T19:00:00Z","scores":{%q:2,%q:1}}`, red.ID, blue.ID)
	rec = doRequest(t, h, http.MethodPatch, matchPath, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, h, http.MethodPatch, matchPath+"/teams/"+blue.ID.String(), `{"score":3}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[service.PouleMatchView](t, rec)
	assert.Equal(t, 3, *updated.Teams[1].Score)

	rec = doRequest(t, h, http.MethodGet, "/api/poules/matches?league=A&count=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	recent := decode[[]service.PouleMatchView](t, rec)
	require.Len(t, recent, 1)
	assert.Equal(t, match.ID, recent[0].ID)

	rec = doRequest(t, h, http.MethodGet, "/api/poules/matches", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "league is required")

	rec = doRequest(t, h, http.MethodGet, "/api/poules?league=A", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summaries := decode[[]service.PouleSummary](t, rec)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Blue", summaries[0].Teams[0].Name)

	rec = doRequest(t, h, http.MethodGet, fmt.Sprintf("/api/poules/%s/matches", poule.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]service.PouleMatchView](t, rec), 3)

	// Played poules can no longer be deleted or regenerated
	rec = doRequest(t, h, http.MethodDelete, "/api/poules/"+poule.ID.String(), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = doRequest(t, h, http.MethodPatch, "/api/poules/"+poule.ID.String(), fmt.Sprintf(`{"teams":[%q,%q]}`, red.ID, blue.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/api/poules/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBracketRoutes(t *testing.T) {
	h := setupRouter(t)

	red := createTeam(t, h, "Red", "A")
	blue := createTeam(t, h, "Blue", "A")

	rec := doRequest(t, h, http.MethodGet, "/api/bracket/leagues/A/matches", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/bracket", `{"league":"A","amount":6}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, h, http.MethodPost, "/api/bracket", `{"league":"A","amount":4}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, h, http.MethodPost, "/api/bracket", `{"league":"A","amount":4}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "one bracket per league")

	rec = doRequest(t, h, http.MethodGet, "/api/bracket/leagues/A/matches", "")
	require.Equal(t, http.StatusOK, rec.Code)
	roots := decode[[]*tournament.MatchNode](t, rec)
	require.Len(t, roots, 1)
	assert.Equal(t, 3, roots[0].Count())

	leaf := roots[0].Children[0]
	leafPath := "/api/bracket/matches/" + leaf.ID.String()

	rec = doRequest(t, h, http.MethodPost, leafPath+"/teams", fmt.Sprintf(`{"id":%q}`, red.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = doRequest(t, h, http.MethodPost, leafPath+"/teams", fmt.Sprintf(`{"id":%q,"slot":2}`, blue.ID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = doRequest(t, h, http.MethodPost, leafPath+"/teams", fmt.Sprintf(`{"id":%q}`, blue.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "match is full")

	body := fmt.Sprintf(`{"date":"2026-06-01T20:00:00Z","scores":{%q:1,%q:0}}`, red.ID, blue.ID)
	rec = doRequest(t, h, http.MethodPatch, leafPath, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	node := decode[tournament.MatchNode](t, rec)
	require.NotNil(t, node.Date)
	assert.Equal(t, 1, *node.Teams[0].Score)

	rec = doRequest(t, h, http.MethodPatch, leafPath+"/teams/"+blue.ID.String(), `{"score":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, leafPath, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, *decode[tournament.MatchNode](t, rec).Teams[1].Score)

	rec = doRequest(t, h, http.MethodPatch, "/api/bracket/matches/"+uuid.NewString(), body)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, h, http.MethodDelete, "/api/bracket/leagues/A", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doRequest(t, h, http.MethodDelete, "/api/bracket/leagues/A", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBracketRoutesLeagueNamedMatches(t *testing.T) {
	h := setupRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/api/bracket", `{"league":"matches","amount":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/api/bracket/leagues/matches/matches", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]*tournament.MatchNode](t, rec), 1)

	rec = doRequest(t, h, http.MethodDelete, "/api/bracket/leagues/matches", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doRequest(t, h, http.MethodGet, "/api/bracket/leagues/matches/matches", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBracketRouteRejectsHugeAmount(t *testing.T) {
	h := setupRouter(t)

	rec := doRequest(t, h, http.MethodPost, "/api/bracket", `{"league":"A","amount":4611686018427387904}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at most 8192")
}

func TestLeaguePageRoute(t *testing.T) {
	h := setupRouter(t)

	rec := doRequest(t, h, http.MethodGet, "/leagues/A", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "No bracket yet.")

	rec = doRequest(t, h, http.MethodPost, "/api/bracket", `{"league":"A","amount":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/leagues/A", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h3>Final</h3>")
}

func TestCORSPreflight(t *testing.T) {
	h := setupRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/teams", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
