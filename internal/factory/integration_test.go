package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/services/joincode"
	"github.com/mcoot/scorekeeper/internal/services/reconcile"
	"github.com/mcoot/scorekeeper/internal/services/tracker"
	redisstorage "github.com/mcoot/scorekeeper/internal/storage/redis"
	sqlitestorage "github.com/mcoot/scorekeeper/internal/storage/sqlite"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.Require().NoError(s.app.Start(s.ctx, nil))
}

func (s *IntegrationSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	s.NoError(s.app.Close(ctx))
}

func (s *IntegrationSuite) flush() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	s.Require().NoError(s.app.Tracker.Flush(ctx))
}

// restart wires a fresh app over the same local storage
func (s *IntegrationSuite) restart(identity *model.Identity) *App {
	app := newWithDependencies(dependencies{
		kv:        s.app.Memory,
		repo:      s.app.Remote,
		clock:     s.app.MockClock,
		random:    s.app.MockRandom,
		ids:       s.app.MockIDs,
		remoteCfg: testRemoteConfig(),
		syncCfg:   reconcile.DefaultConfig(),
		logger:    s.app.Logger,
	})
	s.Require().NoError(app.Tracker.Start(s.ctx, identity))
	return app
}

// Test: complete Phase 10 session from players to rankings
func (s *IntegrationSuite) TestCompletePhase10Flow() {
	t := s.app.Tracker

	alice, err := t.AddPlayer(s.ctx, "Alice")
	s.Require().NoError(err)
	bob, err := t.AddPlayer(s.ctx, "Bob")
	s.Require().NoError(err)

	game, err := t.CreateGame(s.ctx, time.Time{}, []model.PlayerID{alice.ID, bob.ID}, model.GameTypePhase10)
	s.Require().NoError(err)
	s.True(joincode.IsValidCode(game.UniqueCode))

	for _, scores := range [][2]int{{5, 40}, {0, 25}} {
		_, err := t.AddRound(s.ctx, game.ID, tracker.RoundInput{Scores: []model.PlayerScore{
			{PlayerID: alice.ID, Score: scores[0], Phase: 1, Completed: true},
			{PlayerID: bob.ID, Score: scores[1], Phase: 1, Completed: false},
		}})
		s.Require().NoError(err)
	}

	summary, err := t.GameSummary(game.ID)
	s.Require().NoError(err)
	s.Equal(5, summary.Standings[0].Total)
	s.Equal(2, summary.Standings[0].CurrentPhase)
	s.Equal(65, summary.Standings[1].Total)
	s.Equal(1, summary.Standings[1].CurrentPhase)
	s.Equal([]model.PlayerID{alice.ID, alice.ID}, summary.RoundWinners)

	rankings := t.Rankings()
	s.Equal(alice.ID, rankings[0].Player.ID)
	s.Equal(bob.ID, rankings[1].Player.ID)

	// nothing leaves the device while anonymous
	s.Empty(s.app.Remote.Calls())
}

// Test: local state survives a restart
func (s *IntegrationSuite) TestRestartReloadsLocalState() {
	alice, err := s.app.Tracker.AddPlayer(s.ctx, "Alice")
	s.Require().NoError(err)
	game, err := s.app.Tracker.CreateGame(s.ctx, time.Time{}, []model.PlayerID{alice.ID}, model.GameTypePoker)
	s.Require().NoError(err)

	restarted := s.restart(nil)
	defer func() { s.NoError(restarted.Tracker.Close(s.ctx)) }()

	s.Equal(s.app.Tracker.Snapshot(), restarted.Tracker.Snapshot())
	got, err := restarted.Tracker.GetGameByCode(game.UniqueCode)
	s.Require().NoError(err)
	s.Equal(model.GameTypePoker, got.GameType)
}

// Test: guest data is uploaded on first sign in and restored on another device
func (s *IntegrationSuite) TestSignInSyncsAcrossDevices() {
	alice, err := s.app.Tracker.AddPlayer(s.ctx, "Alice")
	s.Require().NoError(err)
	_, err = s.app.Tracker.CreateGame(s.ctx, time.Time{}, []model.PlayerID{alice.ID}, model.GameTypePhase10)
	s.Require().NoError(err)

	source, err := s.app.Tracker.SetIdentity(s.ctx, &model.Identity{UserID: "alice"})
	s.Require().NoError(err)
	s.Equal(reconcile.SourceLocal, source)
	s.flush()

	// a second device with empty local storage pulls from the remote
	other := NewTestApp(WithoutRemote())
	device := newWithDependencies(dependencies{
		kv:        other.Memory,
		repo:      s.app.Remote,
		clock:     other.MockClock,
		random:    other.MockRandom,
		ids:       other.MockIDs,
		remoteCfg: testRemoteConfig(),
		syncCfg:   reconcile.DefaultConfig(),
		logger:    other.Logger,
	})
	s.Require().NoError(device.Tracker.Start(s.ctx, &model.Identity{UserID: "alice"}))
	defer func() { s.NoError(device.Tracker.Close(s.ctx)) }()

	s.Equal(s.app.Tracker.Players(), device.Tracker.Players())
	s.Equal(s.app.Tracker.Games(), device.Tracker.Games())
	s.NotEmpty(s.app.Recorder.OfKind(model.NotificationRemoteSync))
}

// Test: import replaces state and deletes the missing games remotely
func (s *IntegrationSuite) TestImportJSONWhileSignedIn() {
	_, err := s.app.Tracker.SetIdentity(s.ctx, &model.Identity{UserID: "alice"})
	s.Require().NoError(err)
	alice, err := s.app.Tracker.AddPlayer(s.ctx, "Alice")
	s.Require().NoError(err)
	_, err = s.app.Tracker.CreateGame(s.ctx, time.Time{}, []model.PlayerID{alice.ID}, model.GameTypePhase10)
	s.Require().NoError(err)
	s.flush()
	s.Equal(1, s.app.Remote.Counts()["games"])

	doc := `{"games":[],"players":[{"id":"p9","name":"Zed","color":"red"}]}`
	_, _, err = s.app.Tracker.ImportJSON(s.ctx, []byte(doc))
	s.Require().NoError(err)
	s.flush()

	s.Equal(0, s.app.Remote.Counts()["games"])
	cloud, err := s.app.RemoteService.LoadAll(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(cloud.Games)
}

// Test: a second account on the same device does not take over the first one's data
func (s *IntegrationSuite) TestSecondAccountOnDeviceKeepsFirstAccountData() {
	t := s.app.Tracker
	alice := &model.Identity{UserID: "alice"}

	_, err := t.SetIdentity(s.ctx, alice)
	s.Require().NoError(err)
	player, err := t.AddPlayer(s.ctx, "Alice")
	s.Require().NoError(err)
	_, err = t.CreateGame(s.ctx, time.Time{}, []model.PlayerID{player.ID}, model.GameTypePhase10)
	s.Require().NoError(err)
	_, err = t.CreateGame(s.ctx, time.Time{}, []model.PlayerID{player.ID}, model.GameTypePoker)
	s.Require().NoError(err)
	s.flush()
	want := t.Snapshot()

	_, err = t.SetIdentity(s.ctx, nil)
	s.Require().NoError(err)

	// bob inherits the cached copy, which uploads under his account
	source, err := t.SetIdentity(s.ctx, &model.Identity{UserID: "bob"})
	s.Require().NoError(err)
	s.Equal(reconcile.SourceLocal, source)
	s.flush()
	bob, err := s.app.RemoteService.LoadAll(s.ctx, "bob")
	s.Require().NoError(err)
	s.Len(bob.Games, 2)

	_, err = t.SetIdentity(s.ctx, nil)
	s.Require().NoError(err)

	source, err = t.SetIdentity(s.ctx, alice)
	s.Require().NoError(err)
	s.Equal(reconcile.SourceRemote, source)
	s.Equal(want, t.Snapshot())

	cloud, err := s.app.RemoteService.LoadAll(s.ctx, "alice")
	s.Require().NoError(err)
	s.Len(cloud.Games, 2)
}

// signInAgain signs out and back in so state comes from the remote store
func (s *IntegrationSuite) signInAgain(identity *model.Identity) {
	s.flush()
	_, err := s.app.Tracker.SetIdentity(s.ctx, nil)
	s.Require().NoError(err)
	source, err := s.app.Tracker.SetIdentity(s.ctx, identity)
	s.Require().NoError(err)
	s.Require().Equal(reconcile.SourceRemote, source)
}

// Test: a score dropped from a round stays dropped after reloading from remote
func (s *IntegrationSuite) TestDroppedScoreStaysDroppedAfterSignIn() {
	t := s.app.Tracker
	alice := &model.Identity{UserID: "alice"}
	_, err := t.SetIdentity(s.ctx, alice)
	s.Require().NoError(err)

	a, err := t.AddPlayer(s.ctx, "Alice")
	s.Require().NoError(err)
	b, err := t.AddPlayer(s.ctx, "Bob")
	s.Require().NoError(err)
	game, err := t.CreateGame(s.ctx, time.Time{}, []model.PlayerID{a.ID, b.ID}, model.GameTypePhase10)
	s.Require().NoError(err)
	round, err := t.AddRound(s.ctx, game.ID, tracker.RoundInput{Scores: []model.PlayerScore{
		{PlayerID: a.ID, Score: 5, Phase: 1},
		{PlayerID: b.ID, Score: 10, Phase: 1},
	}})
	s.Require().NoError(err)
	s.flush()

	_, err = t.UpdateAllPlayerScores(s.ctx, game.ID, round.ID, tracker.RoundInput{Scores: []model.PlayerScore{
		{PlayerID: a.ID, Score: 7, Phase: 1},
	}})
	s.Require().NoError(err)

	s.signInAgain(alice)
	got, err := t.GetGame(game.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Rounds, 1)
	s.Require().Len(got.Rounds[0].PlayerScores, 1)
	s.Equal(7, got.Rounds[0].PlayerScores[0].Score)
}

// Test: players and rounds replaced by an import do not come back
func (s *IntegrationSuite) TestImportReplaceStaysAfterSignIn() {
	t := s.app.Tracker
	alice := &model.Identity{UserID: "alice"}
	_, err := t.SetIdentity(s.ctx, alice)
	s.Require().NoError(err)

	a, err := t.AddPlayer(s.ctx, "Alice")
	s.Require().NoError(err)
	_, err = t.AddPlayer(s.ctx, "Bob")
	s.Require().NoError(err)
	game, err := t.CreateGame(s.ctx, time.Time{}, []model.PlayerID{a.ID}, model.GameTypePhase10)
	s.Require().NoError(err)
	for range 2 {
		_, err = t.AddRound(s.ctx, game.ID, tracker.RoundInput{Scores: []model.PlayerScore{{PlayerID: a.ID, Score: 5, Phase: 1}}})
		s.Require().NoError(err)
	}
	s.flush()

	doc := `{"players":[{"id":"` + string(a.ID) + `","name":"Alice","color":"red"}],"games":[{"id":"` + string(game.ID) +
		`","uniqueCode":"` + game.UniqueCode + `","date":"2024-01-01T00:00:00Z","gameType":"Phase 10","players":["` + string(a.ID) +
		`"],"rounds":[{"id":"only","playerScores":[{"id":"s1","playerId":"` + string(a.ID) + `","score":3,"phase":1}]}]}]}`
	_, _, err = t.ImportJSON(s.ctx, []byte(doc))
	s.Require().NoError(err)

	s.signInAgain(alice)
	s.Len(t.Players(), 1)
	got, err := t.GetGame(game.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Rounds, 1)
	s.Equal(model.RoundID("only"), got.Rounds[0].ID)
}

// Test: disabled remote keeps everything local
func (s *IntegrationSuite) TestWithoutRemote() {
	app := NewTestApp(WithoutRemote())
	s.Require().NoError(app.Start(s.ctx, &model.Identity{UserID: "alice"}))
	defer func() { s.NoError(app.Close(s.ctx)) }()

	s.Nil(app.RemoteService)
	s.False(app.Engine.RemoteEnabled())

	_, err := app.Tracker.AddPlayer(s.ctx, "Alice")
	s.Require().NoError(err)
	s.Require().NoError(app.Tracker.Flush(s.ctx))
	s.Empty(app.Recorder.OfKind(model.NotificationRemoteSync))
}

func TestNewWithBackends(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"memory", Config{}},
		{"sqlite", Config{
			StorageType:  StorageTypeSQLite,
			SQLiteConfig: &sqlitestorage.Config{Path: filepath.Join(t.TempDir(), "scorekeeper.db")},
		}},
		{"redis", Config{
			StorageType: StorageTypeRedis,
			RedisConfig: &redisstorage.Config{URL: "redis://" + mr.Addr(), PoolSize: 2},
		}},
		{"memory remote", Config{RemoteDriver: RemoteDriverMemory}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, err := New(tt.cfg)
			require.NoError(t, err)
			ctx := context.Background()
			require.NoError(t, app.Start(ctx, nil))

			player, err := app.Tracker.AddPlayer(ctx, "Alice")
			require.NoError(t, err)

			snapshot, _, err := app.LocalStore.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, []model.Player{player}, snapshot.Players)
			assert.Equal(t, tt.cfg.RemoteDriver != "", app.Engine.RemoteEnabled())

			require.NoError(t, app.Close(ctx))
		})
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown storage", Config{StorageType: "floppy"}},
		{"sqlite without config", Config{StorageType: StorageTypeSQLite}},
		{"redis without config", Config{StorageType: StorageTypeRedis}},
		{"postgres without config", Config{RemoteDriver: RemoteDriverPostgres}},
		{"unknown remote", Config{RemoteDriver: "mongo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}
