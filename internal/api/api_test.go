package api_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/scorekeeper/internal/api"
	"github.com/mcoot/scorekeeper/internal/api/apierr"
	"github.com/mcoot/scorekeeper/internal/api/response"
	"github.com/mcoot/scorekeeper/internal/factory"
)

// testServer wraps the router over a TestApp
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T, opts ...factory.TestOption) *testServer {
	t.Helper()
	ts := newUnstartedServer(t, opts...)
	require.NoError(t, ts.app.Start(t.Context(), nil))
	return ts
}

func newUnstartedServer(t *testing.T, opts ...factory.TestOption) *testServer {
	t.Helper()

	app := factory.NewTestApp(opts...)
	t.Cleanup(func() { _ = app.Close(t.Context()) })

	router := api.NewRouter(api.RouterConfig{
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tracker:       app.Tracker,
		Hub:           app.Hub,
		Clock:         app.MockClock,
		RemoteEnabled: app.Remote != nil,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) raw(method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func createPlayer(t *testing.T, ts *testServer, name string) response.Player {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/players", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.Player](t, rr)
}

func createGame(t *testing.T, ts *testServer, gameType string, players ...response.Player) response.Game {
	t.Helper()
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	rr := ts.request(http.MethodPost, "/api/v1/games", map[string]any{"player_ids": ids, "game_type": gameType})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.Game](t, rr)
}

func addRound(t *testing.T, ts *testServer, gameID string, body map[string]any) response.Round {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/games/"+gameID+"/rounds", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.Round](t, rr)
}

func scores(entries ...map[string]any) map[string]any {
	return map[string]any{"scores": entries}
}

func entry(playerID string, score, phase int, completed bool) map[string]any {
	return map[string]any{"player_id": playerID, "score": score, "phase": phase, "completed": completed}
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	health := decode[response.Health](t, rr)
	assert.Equal(t, "ok", health.Status)
	assert.True(t, health.Ready)
	assert.True(t, health.RemoteEnabled)
}

func TestNotReadyBeforeStart(t *testing.T) {
	ts := newUnstartedServer(t, factory.WithoutRemote())

	rr := ts.request(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	health := decode[response.Health](t, rr)
	assert.Equal(t, "loading", health.Status)
	assert.False(t, health.RemoteEnabled)

	rr = ts.request(http.MethodPost, "/api/v1/players", map[string]string{"name": "Alice"})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, apierr.CodeNotReady, errorCode(t, rr))
}

func TestRequestIDHeader(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody)
	req.Header.Set("X-Request-ID", "abc-123")
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestPlayerFlow(t *testing.T) {
	ts := newTestServer(t)

	alice := createPlayer(t, ts, "  Alice  ")
	assert.Equal(t, "Alice", alice.Name)
	assert.NotEmpty(t, alice.Color)
	assert.Equal(t, "emoji", alice.Avatar.Type)
	assert.Nil(t, alice.ManualTotal)

	// Duplicate name
	rr := ts.request(http.MethodPost, "/api/v1/players", map[string]string{"name": "Alice"})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodePlayerExists, errorCode(t, rr))

	// Blank name
	rr = ts.request(http.MethodPost, "/api/v1/players", map[string]string{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidName, errorCode(t, rr))

	// Malformed body
	rr = ts.raw(http.MethodPost, "/api/v1/players", "application/json", []byte("{"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/players", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	players := decode[[]response.Player](t, rr)
	require.Len(t, players, 1)
	assert.Equal(t, alice.ID, players[0].ID)

	rr = ts.request(http.MethodGet, "/api/v1/players/"+alice.ID, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/players/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodePlayerNotFound, errorCode(t, rr))
}

func TestPlayerUpdates(t *testing.T) {
	ts := newTestServer(t)
	alice := createPlayer(t, ts, "Alice")
	base := "/api/v1/players/" + alice.ID

	rr := ts.request(http.MethodPut, base+"/avatar", map[string]string{"type": "image", "value": "https://example.com/a.png"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, response.Avatar{Type: "image", Value: "https://example.com/a.png"}, decode[response.Player](t, rr).Avatar)

	rr = ts.request(http.MethodPut, base+"/avatar", map[string]string{"type": "sticker", "value": "x"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidAvatar, errorCode(t, rr))

	rr = ts.request(http.MethodPut, base+"/avatar", map[string]string{})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "letter", decode[response.Player](t, rr).Avatar.Type)

	rr = ts.request(http.MethodPut, base+"/manual-total", map[string]any{"total": 42})
	require.Equal(t, http.StatusOK, rr.Code)
	player := decode[response.Player](t, rr)
	require.NotNil(t, player.ManualTotal)
	assert.Equal(t, 42, *player.ManualTotal)

	rr = ts.request(http.MethodPut, base+"/manual-total", map[string]any{"total": nil})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, decode[response.Player](t, rr).ManualTotal)

	rr = ts.request(http.MethodPut, base+"/money", map[string]any{"money": 12.5})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.InDelta(t, 12.5, decode[response.Player](t, rr).Money, 0.001)

	rr = ts.request(http.MethodPut, "/api/v1/players/nobody/money", map[string]any{"money": 1})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGameLifecycle(t *testing.T) {
	ts := newTestServer(t)
	alice := createPlayer(t, ts, "Alice")
	bob := createPlayer(t, ts, "Bob")

	game := createGame(t, ts, "", alice, bob)
	assert.Equal(t, "Phase 10", game.GameType)
	assert.Equal(t, []string{alice.ID, bob.ID}, game.Players)
	assert.NotEmpty(t, game.UniqueCode)
	assert.Empty(t, game.Rounds)
	assert.True(t, ts.app.MockClock.Now().Equal(game.Date))

	rr := ts.request(http.MethodGet, "/api/v1/games/"+game.ID, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/games/by-code/"+game.UniqueCode, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, game.ID, decode[response.Game](t, rr).ID)

	rr = ts.request(http.MethodGet, "/api/v1/games/by-code/nope", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCode, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/games/by-code/zebra-zebra-zebra", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeGameNotFound, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/games/missing", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.request(http.MethodDelete, "/api/v1/games/"+game.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/games", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]response.Game](t, rr))
}

func TestCreateGameValidation(t *testing.T) {
	ts := newTestServer(t)
	alice := createPlayer(t, ts, "Alice")

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"no players", map[string]any{"player_ids": []string{}}, http.StatusBadRequest, apierr.CodeNoPlayers},
		{"only unknown players", map[string]any{"player_ids": []string{"ghost"}}, http.StatusBadRequest, apierr.CodeNoPlayers},
		{"bad game type", map[string]any{"player_ids": []string{alice.ID}, "game_type": "chess"}, http.StatusBadRequest, apierr.CodeInvalidGameType},
		{"bad date", map[string]any{"player_ids": []string{alice.ID}, "date": "someday"}, http.StatusBadRequest, apierr.CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/games", tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, errorCode(t, rr))
		})
	}

	rr := ts.request(http.MethodPost, "/api/v1/games", map[string]any{"player_ids": []string{alice.ID}, "date": "2023-06-01"})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 2023, decode[response.Game](t, rr).Date.Year())
}

func TestRoundsAndSummary(t *testing.T) {
	ts := newTestServer(t)
	alice := createPlayer(t, ts, "Alice")
	bob := createPlayer(t, ts, "Bob")
	game := createGame(t, ts, "Phase 10", alice, bob)
	base := "/api/v1/games/" + game.ID + "/rounds"

	first := addRound(t, ts, game.ID, scores(entry(alice.ID, 5, 1, true), entry(bob.ID, 40, 1, false)))
	assert.Equal(t, 1, first.Number)
	require.Len(t, first.PlayerScores, 2)
	assert.NotEmpty(t, first.PlayerScores[0].ID)

	second := addRound(t, ts, game.ID, scores(entry(alice.ID, 10, 2, false), entry(bob.ID, 0, 1, true)))
	assert.Equal(t, 2, second.Number)

	// Phase out of range
	rr := ts.request(http.MethodPost, base, scores(entry(alice.ID, 5, 11, false)))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidPhase, errorCode(t, rr))

	// Same player twice
	rr = ts.request(http.MethodPost, base, scores(entry(alice.ID, 5, 1, false), entry(alice.ID, 5, 1, false)))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeDuplicateScore, errorCode(t, rr))

	// Replace a single score, keeping its id
	scoreID := second.PlayerScores[0].ID
	rr = ts.request(http.MethodPut, base+"/"+second.ID+"/scores/"+alice.ID, map[string]any{"score": 15, "phase": 2, "completed": true})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[response.Round](t, rr)
	assert.Equal(t, 2, updated.Number)
	assert.Equal(t, scoreID, updated.PlayerScores[0].ID)
	assert.Equal(t, 15, updated.PlayerScores[0].Score)

	// Replace the whole first round
	rr = ts.request(http.MethodPut, base+"/"+first.ID, scores(entry(alice.ID, 0, 1, true), entry(bob.ID, 50, 1, false)))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 1, decode[response.Round](t, rr).Number)

	rr = ts.request(http.MethodGet, "/api/v1/games/"+game.ID+"/summary", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	summary := decode[response.GameSummary](t, rr)
	require.Len(t, summary.Standings, 2)
	assert.Equal(t, 15, summary.Standings[0].Total)
	assert.Equal(t, 3, summary.Standings[0].CurrentPhase)
	assert.Equal(t, 50, summary.Standings[1].Total)
	assert.Equal(t, 2, summary.Standings[1].CurrentPhase)
	assert.Equal(t, []string{alice.ID, alice.ID}, summary.RoundWinners)

	rr = ts.request(http.MethodGet, "/api/v1/rankings", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rankings := decode[[]response.Ranking](t, rr)
	require.Len(t, rankings, 2)
	assert.Equal(t, alice.ID, rankings[0].Player.ID)
	assert.Equal(t, 1, rankings[0].Rank)

	rr = ts.request(http.MethodDelete, base+"/"+first.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodDelete, base+"/"+first.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeRoundNotFound, errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/games/"+game.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	rounds := decode[response.Game](t, rr).Rounds
	require.Len(t, rounds, 1)
	assert.Equal(t, second.ID, rounds[0].ID)
	assert.Equal(t, 1, rounds[0].Number)
}

func TestPokerRound(t *testing.T) {
	ts := newTestServer(t)
	alice := createPlayer(t, ts, "Alice")
	bob := createPlayer(t, ts, "Bob")
	game := createGame(t, ts, "Poker", alice, bob)

	body := scores(entry(alice.ID, 0, 1, false), entry(bob.ID, 0, 1, false))
	body["winner_id"] = bob.ID
	body["pot_amount"] = 20.0
	body["winning_hand"] = "Flush"
	round := addRound(t, ts, game.ID, body)

	require.NotNil(t, round.WinnerID)
	assert.Equal(t, bob.ID, *round.WinnerID)
	assert.Equal(t, "Flush", round.WinningHand)
	assert.False(t, round.PlayerScores[0].IsWinner)
	assert.True(t, round.PlayerScores[1].IsWinner)

	body["winning_hand"] = "Five Aces"
	rr := ts.request(http.MethodPost, "/api/v1/games/"+game.ID+"/rounds", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidHand, errorCode(t, rr))
}

func TestDeleteManyGames(t *testing.T) {
	ts := newTestServer(t)
	alice := createPlayer(t, ts, "Alice")
	g1 := createGame(t, ts, "", alice)
	g2 := createGame(t, ts, "", alice)
	g3 := createGame(t, ts, "", alice)

	rr := ts.request(http.MethodPost, "/api/v1/games/delete", map[string]any{"ids": []string{g1.ID, g3.ID, "missing"}})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.ElementsMatch(t, []string{g1.ID, g3.ID}, decode[response.DeletedGames](t, rr).Deleted)

	rr = ts.request(http.MethodGet, "/api/v1/games", nil)
	games := decode[[]response.Game](t, rr)
	require.Len(t, games, 1)
	assert.Equal(t, g2.ID, games[0].ID)

	rr = ts.request(http.MethodPost, "/api/v1/games/delete", map[string]any{"ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestExportAndImportJSON(t *testing.T) {
	ts := newTestServer(t)
	alice := createPlayer(t, ts, "Alice")
	game := createGame(t, ts, "", alice)
	addRound(t, ts, game.ID, scores(entry(alice.ID, 5, 1, true)))

	rr := ts.request(http.MethodGet, "/api/v1/export/json", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="phase10_data_2024-01-01.json"`, rr.Header().Get("Content-Disposition"))
	exported := rr.Body.Bytes()

	rr = ts.request(http.MethodDelete, "/api/v1/games/"+game.ID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.raw(http.MethodPost, "/api/v1/import/json", "application/json", exported)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	result := decode[response.ImportResult](t, rr)
	assert.Equal(t, "json", result.Format)
	assert.Equal(t, 1, result.GameCount)
	assert.Equal(t, 1, result.PlayerCount)
	assert.Empty(t, result.Warnings)

	rr = ts.request(http.MethodGet, "/api/v1/games/"+game.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[response.Game](t, rr).Rounds, 1)
}

func TestImportJSONRejectsBadDocuments(t *testing.T) {
	ts := newTestServer(t)
	createPlayer(t, ts, "Alice")

	rr := ts.raw(http.MethodPost, "/api/v1/import/json", "application/json", []byte(`{"games": 3}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, apierr.CodeInvalidImport, errorCode(t, rr))

	rr = ts.raw(http.MethodPost, "/api/v1/import/json", "application/json", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Nothing changed
	rr = ts.request(http.MethodGet, "/api/v1/players", nil)
	assert.Len(t, decode[[]response.Player](t, rr), 1)
}

func TestImportJSONReportsAppliedCounts(t *testing.T) {
	ts := newTestServer(t)
	createPlayer(t, ts, "Old")

	doc := `{"players":[{"id":"p1","name":"Ann","color":"red"}],"games":[
		{"id":"ok","uniqueCode":"a-b-c","date":"2024-01-01","players":["p1"],"rounds":[]},
		{"id":"bad","uniqueCode":"d-e-f","date":"2024-01-01","players":["p1"],
		 "rounds":[{"id":"r1","playerScores":[{"playerId":"p1","score":1,"phase":0}]}]}]}`

	rr := ts.raw(http.MethodPost, "/api/v1/import/json", "application/json", []byte(doc))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	result := decode[response.ImportResult](t, rr)
	assert.Equal(t, 1, result.GameCount)
	assert.Equal(t, 1, result.PlayerCount)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, response.ImportReject{GameID: "bad", RoundID: "r1", Reason: result.Rejected[0].Reason}, result.Rejected[0])
	assert.Contains(t, result.Rejected[0].Reason, "phase")
}

func TestImportAndExportCSV(t *testing.T) {
	ts := newTestServer(t)
	alice := createPlayer(t, ts, "Alice")

	csv := strings.Join([]string{
		"date,Alice_score,Alice_phase,Alice_completed,Bob_score,Bob_phase,Bob_completed",
		"2024-02-01,5,1,Yes,30,1,No",
		"2024-02-01,10,2,No,0,1,Yes",
		"2024-02-02,0,1,Yes,,,",
	}, "\n")

	rr := ts.raw(http.MethodPost, "/api/v1/import/csv", "text/csv", []byte(csv))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	result := decode[response.ImportResult](t, rr)
	assert.Equal(t, "csv", result.Format)
	assert.Equal(t, 2, result.GameCount)
	require.Len(t, result.NewPlayers, 1)
	assert.Equal(t, "Bob", result.NewPlayers[0].Name)

	rr = ts.request(http.MethodGet, "/api/v1/players", nil)
	players := decode[[]response.Player](t, rr)
	require.Len(t, players, 2)
	assert.Equal(t, alice.ID, players[0].ID)

	rr = ts.request(http.MethodGet, "/api/v1/export/csv", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="phase10_data_2024-01-01.csv"`, rr.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rr.Body.String(), "date,Alice_score,Alice_phase,Alice_completed,Bob_score"))

	rr = ts.raw(http.MethodPost, "/api/v1/import/csv", "text/csv", []byte("when,who\n1,2\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestIdentityEndpoints(t *testing.T) {
	ts := newTestServer(t)
	createPlayer(t, ts, "Alice")

	rr := ts.request(http.MethodGet, "/api/v1/identity", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[response.Identity](t, rr).Anonymous)

	rr = ts.request(http.MethodPut, "/api/v1/identity", map[string]string{"user_id": " "})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPut, "/api/v1/identity", map[string]string{"user_id": "user-1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	identity := decode[response.Identity](t, rr)
	require.NotNil(t, identity.UserID)
	assert.Equal(t, "user-1", *identity.UserID)
	assert.False(t, identity.Anonymous)
	assert.NotEmpty(t, identity.Source)

	rr = ts.request(http.MethodGet, "/api/v1/identity", nil)
	identity = decode[response.Identity](t, rr)
	require.NotNil(t, identity.UserID)
	assert.Equal(t, "user-1", *identity.UserID)

	rr = ts.request(http.MethodDelete, "/api/v1/identity", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[response.Identity](t, rr).Anonymous)

	// Local data stays after sign-out
	rr = ts.request(http.MethodGet, "/api/v1/players", nil)
	assert.Len(t, decode[[]response.Player](t, rr), 1)
}

func TestEventsStream(t *testing.T) {
	ts := newTestServer(t)
	server := httptest.NewServer(ts.handler)
	t.Cleanup(server.Close)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, server.URL+"/api/v1/events", http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)
}

func TestServerListensOnFreePort(t *testing.T) {
	config := api.DefaultServerConfig()
	config.Host = "127.0.0.1"
	config.Port = 0
	config.ShutdownTimeout = time.Second

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	server := api.NewServer(handler, config, slog.New(slog.DiscardHandler))
	require.NoError(t, server.Listen())
	assert.NotEqual(t, "127.0.0.1:0", server.Addr())

	done := make(chan error, 1)
	go func() { done <- server.Start() }()

	resp, err := http.Get(server.URL())
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	require.NoError(t, server.Shutdown(t.Context()))
	assert.NoError(t, <-done)
}
