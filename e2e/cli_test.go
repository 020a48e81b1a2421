package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/scorekeeper/internal/api"
	"github.com/mcoot/scorekeeper/internal/factory"
	sqlitestorage "github.com/mcoot/scorekeeper/internal/storage/sqlite"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "scorekeeper-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/scorekeeper")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runText(args ...string) (string, error) {
	fullArgs := append([]string{"--server", r.serverURL}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func runJSON[T any](t *testing.T, r *cliRunner, args ...string) T {
	t.Helper()

	out, err := r.run(args...)
	require.NoError(t, err, "cli %v failed: %s", args, out)

	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), "unexpected output: %s", out)
	return v
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	url      string
	shutdown func()
}

// startTestServer serves an app backed by sqlite at dbPath with an
// in-memory remote store
func startTestServer(t *testing.T, dbPath string) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app, err := factory.New(factory.Config{
		Logger:       logger,
		StorageType:  factory.StorageTypeSQLite,
		SQLiteConfig: &sqlitestorage.Config{Path: dbPath},
		RemoteDriver: factory.RemoteDriverMemory,
	})
	require.NoError(t, err)
	require.NoError(t, app.Start(context.Background(), nil))

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = "127.0.0.1"
	serverConfig.Port = 0
	serverConfig.ShutdownTimeout = 5 * time.Second
	server := api.NewServer(api.NewRouter(api.RouterConfig{
		Logger:        logger,
		Tracker:       app.Tracker,
		Hub:           app.Hub,
		Clock:         app.Clock,
		RemoteEnabled: true,
	}), serverConfig, logger)
	require.NoError(t, server.Listen())

	go func() {
		if err := server.Start(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := server.URL()
	waitForServer(t, serverURL+"/api/v1/health")

	ts := &testServer{url: serverURL}
	stopped := false
	ts.shutdown = func() {
		if stopped {
			return
		}
		stopped = true
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.Hub.Close()
		_ = server.Shutdown(ctx)
		_ = app.Close(ctx)
	}
	t.Cleanup(ts.shutdown)
	return ts
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type playerResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Avatar struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"avatar"`
	ManualTotal *int    `json:"manual_total"`
	Money       float64 `json:"money"`
}

type scoreResponse struct {
	ID        string `json:"id"`
	PlayerID  string `json:"player_id"`
	Score     int    `json:"score"`
	Phase     int    `json:"phase"`
	Completed bool   `json:"completed"`
	IsWinner  bool   `json:"is_winner"`
}

type roundResponse struct {
	ID           string          `json:"id"`
	Number       int             `json:"number"`
	PlayerScores []scoreResponse `json:"player_scores"`
	WinnerID     *string         `json:"winner_id"`
	WinningHand  string          `json:"winning_hand"`
	PotAmount    *float64        `json:"pot_amount"`
}

type gameResponse struct {
	ID         string          `json:"id"`
	UniqueCode string          `json:"unique_code"`
	GameType   string          `json:"game_type"`
	Players    []string        `json:"players"`
	Rounds     []roundResponse `json:"rounds"`
}

type summaryResponse struct {
	Standings []struct {
		PlayerID     string `json:"player_id"`
		Total        int    `json:"total"`
		CurrentPhase int    `json:"current_phase"`
	} `json:"standings"`
	RoundWinners []string `json:"round_winners"`
}

type rankingResponse struct {
	Rank   int            `json:"rank"`
	Player playerResponse `json:"player"`
	Total  int            `json:"total"`
	Manual bool           `json:"manual"`
}

type importResponse struct {
	Format      string           `json:"format"`
	GameCount   int              `json:"game_count"`
	PlayerCount int              `json:"player_count"`
	NewPlayers  []playerResponse `json:"new_players"`
}

type identityResponse struct {
	UserID    *string `json:"user_id"`
	Source    string  `json:"source"`
	Anonymous bool    `json:"anonymous"`
}

type healthResponse struct {
	Status        string `json:"status"`
	Ready         bool   `json:"ready"`
	RemoteEnabled bool   `json:"remote_enabled"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t, filepath.Join(t.TempDir(), "local.db"))
	cli := newCLIRunner(t, ts.url)

	health := runJSON[healthResponse](t, cli, "health")
	assert.Equal(t, "ok", health.Status)
	assert.True(t, health.Ready)
	assert.True(t, health.RemoteEnabled)

	out, err := cli.runText("health")
	require.NoError(t, err)
	assert.Contains(t, out, "Status: ok")
}

func TestCLI_Phase10Game(t *testing.T) {
	ts := startTestServer(t, filepath.Join(t.TempDir(), "local.db"))
	cli := newCLIRunner(t, ts.url)

	alice := runJSON[playerResponse](t, cli, "player", "add", "Alice")
	bob := runJSON[playerResponse](t, cli, "player", "add", "Bob")
	assert.NotEmpty(t, alice.Color)
	assert.NotEqual(t, alice.ID, bob.ID)

	game := runJSON[gameResponse](t, cli, "game", "create", "--players", alice.ID+","+bob.ID)
	assert.Equal(t, "Phase 10", game.GameType)
	assert.Len(t, strings.Split(game.UniqueCode, "-"), 3)

	r1 := runJSON[roundResponse](t, cli, "round", "add", game.ID,
		"--score", alice.ID+":5:1:done", "--score", bob.ID+":45:1")
	assert.Equal(t, 1, r1.Number)

	r2 := runJSON[roundResponse](t, cli, "round", "add", game.ID,
		"--score", alice.ID+":20:2", "--score", bob.ID+":0:1:done")
	assert.Equal(t, 2, r2.Number)

	summary := runJSON[summaryResponse](t, cli, "game", "summary", game.ID)
	require.Len(t, summary.Standings, 2)
	assert.Equal(t, 25, summary.Standings[0].Total)
	assert.Equal(t, 2, summary.Standings[0].CurrentPhase)
	assert.Equal(t, 45, summary.Standings[1].Total)
	assert.Equal(t, 2, summary.Standings[1].CurrentPhase)
	assert.Equal(t, []string{alice.ID, alice.ID}, summary.RoundWinners)

	rankings := runJSON[[]rankingResponse](t, cli, "rankings")
	require.Len(t, rankings, 2)
	assert.Equal(t, "Alice", rankings[0].Player.Name)
	assert.Equal(t, 25, rankings[0].Total)

	found := runJSON[gameResponse](t, cli, "game", "find", strings.ToUpper(game.UniqueCode))
	assert.Equal(t, game.ID, found.ID)

	msg := runJSON[messageResponse](t, cli, "round", "delete", game.ID, r1.ID)
	assert.Equal(t, "Round deleted", msg.Message)

	game = runJSON[gameResponse](t, cli, "game", "get", game.ID)
	require.Len(t, game.Rounds, 1)
	assert.Equal(t, r2.ID, game.Rounds[0].ID)
	assert.Equal(t, 1, game.Rounds[0].Number)
}

func TestCLI_PokerRound(t *testing.T) {
	ts := startTestServer(t, filepath.Join(t.TempDir(), "local.db"))
	cli := newCLIRunner(t, ts.url)

	alice := runJSON[playerResponse](t, cli, "player", "add", "Alice")
	bob := runJSON[playerResponse](t, cli, "player", "add", "Bob")
	game := runJSON[gameResponse](t, cli, "game", "create", "--players", alice.ID+","+bob.ID, "--type", "Poker")
	assert.Equal(t, "Poker", game.GameType)

	round := runJSON[roundResponse](t, cli, "round", "add", game.ID,
		"--score", alice.ID+":0:1", "--score", bob.ID+":0:1",
		"--winner", bob.ID, "--pot", "12.5", "--hand", "Straight")
	require.NotNil(t, round.WinnerID)
	assert.Equal(t, bob.ID, *round.WinnerID)
	require.NotNil(t, round.PotAmount)
	assert.InDelta(t, 12.5, *round.PotAmount, 0.001)
	assert.Equal(t, "Straight", round.WinningHand)

	out, err := cli.run("round", "add", game.ID, "--score", alice.ID+":0:1", "--winner", alice.ID, "--hand", "Six of a Kind")
	assert.Error(t, err)
	assert.Contains(t, out, "INVALID_HAND")

	updated := runJSON[playerResponse](t, cli, "player", "money", bob.ID, "12.5")
	assert.InDelta(t, 12.5, updated.Money, 0.001)
}

func TestCLI_Errors(t *testing.T) {
	ts := startTestServer(t, filepath.Join(t.TempDir(), "local.db"))
	cli := newCLIRunner(t, ts.url)

	runJSON[playerResponse](t, cli, "player", "add", "Alice")

	out, err := cli.run("player", "add", "alice")
	assert.Error(t, err)
	assert.Contains(t, out, "PLAYER_EXISTS")

	out, err = cli.run("game", "get", "missing")
	assert.Error(t, err)
	assert.Contains(t, out, "GAME_NOT_FOUND")

	out, err = cli.run("game", "create", "--players", "ghost")
	assert.Error(t, err)
	assert.Contains(t, out, "NO_PLAYERS")

	out, err = cli.run("--output", "yaml", "health")
	assert.Error(t, err)
	assert.Contains(t, out, "--output")
}

func TestCLI_ExportImport(t *testing.T) {
	ts := startTestServer(t, filepath.Join(t.TempDir(), "local.db"))
	cli := newCLIRunner(t, ts.url)

	alice := runJSON[playerResponse](t, cli, "player", "add", "Alice")
	game := runJSON[gameResponse](t, cli, "game", "create", "--players", alice.ID)
	runJSON[roundResponse](t, cli, "round", "add", game.ID, "--score", alice.ID+":5:1:done")

	dir := t.TempDir()
	exportPath := filepath.Join(dir, "backup.json")
	msg := runJSON[messageResponse](t, cli, "export", "json", "--file", exportPath)
	assert.Contains(t, msg.Message, exportPath)

	deleted := runJSON[struct {
		Deleted []string `json:"deleted"`
	}](t, cli, "game", "delete", game.ID)
	assert.Equal(t, []string{game.ID}, deleted.Deleted)

	result := runJSON[importResponse](t, cli, "import", "json", exportPath)
	assert.Equal(t, "json", result.Format)
	assert.Equal(t, 1, result.GameCount)

	restored := runJSON[gameResponse](t, cli, "game", "get", game.ID)
	assert.Len(t, restored.Rounds, 1)

	csvPath := filepath.Join(dir, "scores.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"date,Alice_score,Alice_phase,Alice_completed,Cara_score,Cara_phase,Cara_completed\n"+
			"2024-05-01,10,1,No,0,1,Yes\n"), 0o644))

	result = runJSON[importResponse](t, cli, "import", "csv", csvPath)
	assert.Equal(t, 1, result.GameCount)
	require.Len(t, result.NewPlayers, 1)
	assert.Equal(t, "Cara", result.NewPlayers[0].Name)

	players := runJSON[[]playerResponse](t, cli, "player", "list")
	assert.Len(t, players, 2)

	games := runJSON[[]gameResponse](t, cli, "game", "list")
	assert.Len(t, games, 2)
}

func TestCLI_IdentityAndPersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "local.db")
	ts := startTestServer(t, dbPath)
	cli := newCLIRunner(t, ts.url)

	alice := runJSON[playerResponse](t, cli, "player", "add", "Alice")
	runJSON[gameResponse](t, cli, "game", "create", "--players", alice.ID)

	identity := runJSON[identityResponse](t, cli, "identity", "set", "user-1")
	require.NotNil(t, identity.UserID)
	assert.Equal(t, "user-1", *identity.UserID)

	identity = runJSON[identityResponse](t, cli, "identity", "clear")
	assert.True(t, identity.Anonymous)

	// Restart on the same local database
	ts.shutdown()
	ts = startTestServer(t, dbPath)
	cli = &cliRunner{binaryPath: cli.binaryPath, serverURL: ts.url}

	players := runJSON[[]playerResponse](t, cli, "player", "list")
	require.Len(t, players, 1)
	assert.Equal(t, alice.ID, players[0].ID)

	games := runJSON[[]gameResponse](t, cli, "game", "list")
	assert.Len(t, games, 1)
}
