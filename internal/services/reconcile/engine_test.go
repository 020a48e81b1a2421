package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/scorekeeper/internal/dependencies/mocks"
	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/notify"
	"github.com/mcoot/scorekeeper/internal/remote"
	remotememory "github.com/mcoot/scorekeeper/internal/remote/memory"
	"github.com/mcoot/scorekeeper/internal/services/joincode"
	"github.com/mcoot/scorekeeper/internal/storage/local"
	"github.com/mcoot/scorekeeper/internal/storage/memory"
	"github.com/mcoot/scorekeeper/internal/testutil"
)

var errOffline = errors.New("network unreachable")

type EngineSuite struct {
	suite.Suite
	kv       *memory.Storage
	local    *local.Store
	repo     *remotememory.Repository
	remote   *remote.Service
	recorder *notify.Recorder
	clock    *mocks.MockClock
	engine   *Engine
	ctx      context.Context
	alice    *model.Identity
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	ids := mocks.NewMockIDs()

	s.kv = memory.New()
	s.local = local.New(s.kv, s.clock, ids, testutil.NopLogger())

	s.repo = remotememory.New()
	s.remote = remote.NewService(
		s.repo,
		joincode.New(mocks.NewMockRandom()),
		ids,
		nil,
		testutil.NopLogger(),
		remote.Config{MaxRetries: 2, Timeout: time.Second, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond},
	)
	s.recorder = notify.NewRecorder()
	s.engine = New(s.local, s.remote, s.recorder, s.clock, testutil.NopLogger(), DefaultConfig())
	s.alice = &model.Identity{UserID: "alice"}
}

func (s *EngineSuite) TearDownTest() {
	s.Require().NoError(s.engine.Close(s.ctx))
}

func (s *EngineSuite) flush() {
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	s.Require().NoError(s.engine.Flush(ctx))
}

func snapshotWith(gameID model.GameID, playerName string) model.Snapshot {
	p1 := model.PlayerID(string(gameID) + "-" + playerName)
	p2 := model.PlayerID(string(gameID) + "-bob")
	return model.Snapshot{
		Players: []model.Player{
			{ID: p1, Name: playerName, Color: "hsl(10, 70%, 50%)", Avatar: model.EmojiAvatar{Value: "🦊"}},
			{ID: p2, Name: "Bob", Color: "hsl(20, 70%, 50%)", Avatar: model.LetterAvatar{}},
		},
		Games: []model.Game{{
			ID:         gameID,
			UniqueCode: "apple-banana-cherry",
			Date:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			GameType:   model.GameTypePhase10,
			Players:    []model.PlayerID{p1, p2},
			Rounds: []model.Round{{
				ID: model.RoundID(string(gameID) + "-r1"),
				PlayerScores: []model.PlayerScore{
					{ID: model.ScoreID(string(gameID) + "-s1"), PlayerID: p1, Score: 5, Phase: 1, Completed: true},
					{ID: model.ScoreID(string(gameID) + "-s2"), PlayerID: p2, Score: 25, Phase: 1},
				},
			}},
		}},
	}
}

func (s *EngineSuite) loadLocal() model.Snapshot {
	snapshot, _, err := s.local.Load(s.ctx)
	s.Require().NoError(err)
	return snapshot
}

func (s *EngineSuite) loadRemote(userID model.UserID) model.Snapshot {
	snapshot, err := s.remote.LoadAll(s.ctx, userID)
	s.Require().NoError(err)
	return snapshot
}

func (s *EngineSuite) TestHydrateAnonymousUsesLocal() {
	stored := snapshotWith("g1", "Alice")
	s.Require().NoError(s.local.Save(s.ctx, stored))

	result, err := s.engine.Hydrate(s.ctx, nil)
	s.Require().NoError(err)

	s.Equal(SourceLocal, result.Source)
	s.Equal(stored, result.Snapshot)
	s.Empty(s.repo.Calls())
}

func (s *EngineSuite) TestHydrateFirstRunIsEmpty() {
	result, err := s.engine.Hydrate(s.ctx, nil)
	s.Require().NoError(err)
	s.True(result.Snapshot.IsEmpty())
}

func (s *EngineSuite) TestHydrateRemoteWinsWhenNonEmpty() {
	cloud := snapshotWith("g-cloud", "Carol")
	_, err := s.remote.SaveAll(s.ctx, "alice", cloud)
	s.Require().NoError(err)
	s.Require().NoError(s.local.Save(s.ctx, snapshotWith("g-device", "Dave")))

	result, err := s.engine.Hydrate(s.ctx, s.alice)
	s.Require().NoError(err)

	s.Equal(SourceRemote, result.Source)
	s.Equal(cloud, result.Snapshot)
	s.Equal(cloud, s.loadLocal(), "remote state is cached on the device")
}

func (s *EngineSuite) TestHydrateEmptyRemoteUploadsLocal() {
	device := snapshotWith("g-device", "Dave")
	s.Require().NoError(s.local.Save(s.ctx, device))

	result, err := s.engine.Hydrate(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Equal(SourceLocal, result.Source)
	s.Equal(device, result.Snapshot)

	s.flush()
	s.Equal(device, s.loadRemote("alice"))
}

func (s *EngineSuite) TestHydrateEmptyEverywhereUploadsNothing() {
	result, err := s.engine.Hydrate(s.ctx, s.alice)
	s.Require().NoError(err)
	s.True(result.Snapshot.IsEmpty())

	s.flush()
	s.Equal(0, s.repo.Counts()["players"])
	s.NotContains(s.repo.Calls(), "UpsertPlayers")
}

func (s *EngineSuite) TestHydrateRemoteFailureFallsBackToLocal() {
	device := snapshotWith("g-device", "Dave")
	s.Require().NoError(s.local.Save(s.ctx, device))
	s.repo.FailNext("ListPlayers", errOffline, errOffline)

	result, err := s.engine.Hydrate(s.ctx, s.alice)
	s.Require().NoError(err)

	s.Equal(SourceLocal, result.Source)
	s.Equal(device, result.Snapshot)
	failures := s.recorder.OfKind(model.NotificationRemoteSyncFailed)
	s.Require().Len(failures, 1)
	s.Equal(model.UserID("alice"), failures[0].UserID)
}

func (s *EngineSuite) TestHydrateWithoutRemoteUsesLocal() {
	engine := New(s.local, nil, s.recorder, s.clock, testutil.NopLogger(), DefaultConfig())
	s.False(engine.RemoteEnabled())

	device := snapshotWith("g-device", "Dave")
	s.Require().NoError(s.local.Save(s.ctx, device))

	result, err := engine.Hydrate(s.ctx, s.alice)
	s.Require().NoError(err)
	s.Equal(SourceLocal, result.Source)
	s.Equal(device, result.Snapshot)

	s.Require().NoError(engine.Persist(s.ctx, s.alice, device, Change{}))
	s.Require().NoError(engine.Flush(s.ctx))
	s.Empty(s.repo.Calls())
}

func (s *EngineSuite) TestPersistAnonymousIsLocalOnly() {
	snapshot := snapshotWith("g1", "Alice")
	s.Require().NoError(s.engine.Persist(s.ctx, nil, snapshot, Change{}))
	s.flush()

	s.Equal(snapshot, s.loadLocal())
	s.Empty(s.repo.Calls())
}

func (s *EngineSuite) TestPersistMirrorsToRemote() {
	snapshot := snapshotWith("g1", "Alice")
	s.Require().NoError(s.engine.Persist(s.ctx, s.alice, snapshot, Change{}))
	s.flush()

	s.Equal(snapshot, s.loadLocal())
	s.Equal(snapshot, s.loadRemote("alice"))
	s.Len(s.recorder.OfKind(model.NotificationRemoteSync), 1)
}

func (s *EngineSuite) TestPersistDoesNotShareStateWithQueue() {
	snapshot := snapshotWith("g1", "Alice")
	want := snapshot.Clone()
	s.Require().NoError(s.engine.Persist(s.ctx, s.alice, snapshot, Change{}))

	snapshot.Games[0].Rounds[0].PlayerScores[0].Score = 999
	s.flush()

	s.Equal(want, s.loadRemote("alice"))
}

func (s *EngineSuite) TestRemoteFailureKeepsLocalState() {
	snapshot := snapshotWith("g1", "Alice")
	s.repo.FailNext("UpsertPlayers", errOffline, errOffline)

	s.Require().NoError(s.engine.Persist(s.ctx, s.alice, snapshot, Change{}))
	s.flush()

	s.Equal(snapshot, s.loadLocal())
	s.Equal(0, s.repo.Counts()["players"])
	failures := s.recorder.OfKind(model.NotificationRemoteSyncFailed)
	s.Require().Len(failures, 1)
	s.Equal(model.LevelError, failures[0].Level)
	s.Contains(failures[0].Message, "network unreachable")
}

func (s *EngineSuite) TestDeletesRunBeforeSave() {
	snapshot := snapshotWith("g1", "Alice")
	s.Require().NoError(s.engine.Persist(s.ctx, s.alice, snapshot, Change{}))
	s.flush()
	s.repo.ResetCalls()

	snapshot.Games = []model.Game{}
	s.Require().NoError(s.engine.Persist(s.ctx, s.alice, snapshot, Change{DeletedGames: []model.GameID{"g1"}}))
	s.flush()

	s.Equal(0, s.repo.Counts()["games"])
	s.Equal(0, s.repo.Counts()["player_scores"])
	s.Equal(2, s.repo.Counts()["players"])

	calls := s.repo.Calls()
	s.Require().NotEmpty(calls)
	s.Equal("DeleteScoresForGames", calls[0])
	s.Equal("UpsertPlayers", calls[len(calls)-1])
}

func (s *EngineSuite) TestDeleteRoundMirrorsToRemote() {
	snapshot := snapshotWith("g1", "Alice")
	s.Require().NoError(s.engine.Persist(s.ctx, s.alice, snapshot, Change{}))
	s.flush()

	snapshot.Games[0].Rounds = []model.Round{}
	s.Require().NoError(s.engine.Persist(s.ctx, s.alice, snapshot, Change{DeletedRounds: []model.RoundID{"g1-r1"}}))
	s.flush()

	s.Equal(0, s.repo.Counts()["rounds"])
	s.Equal(snapshot, s.loadRemote("alice"))
}

type brokenLocal struct{ local.Store }

func (brokenLocal) Save(context.Context, model.Snapshot) error { return errors.New("disk full") }

func (s *EngineSuite) TestLocalFailureIsReportedAndStillMirrors() {
	engine := New(&brokenLocal{}, s.remote, s.recorder, s.clock, testutil.NopLogger(), DefaultConfig())
	defer func() { s.NoError(engine.Close(s.ctx)) }()

	snapshot := snapshotWith("g1", "Alice")
	err := engine.Persist(s.ctx, s.alice, snapshot, Change{})
	s.Require().Error(err)
	s.Contains(err.Error(), "disk full")
	s.ErrorIs(err, model.ErrLocalSave)
	s.Len(s.recorder.OfKind(model.NotificationLocalSaveFailed), 1)

	s.Require().NoError(engine.Flush(s.ctx))
	s.Equal(snapshot, s.loadRemote("alice"))
}

func (s *EngineSuite) TestAssignedCodesAreReported() {
	snapshot := snapshotWith("g1", "Alice")
	snapshot.Games[0].UniqueCode = ""

	results := make(chan remote.SaveResult, 1)
	s.engine.OnRemoteSaved(func(userID model.UserID, result remote.SaveResult) {
		s.Equal(model.UserID("alice"), userID)
		results <- result
	})

	s.Require().NoError(s.engine.Persist(s.ctx, s.alice, snapshot, Change{}))
	s.flush()

	select {
	case result := <-results:
		code := result.AssignedCodes["g1"]
		s.True(joincode.IsValidCode(code), "got %q", code)
		s.Equal(code, s.loadRemote("alice").Games[0].UniqueCode)
	default:
		s.Fail("no save result reported")
	}
}

func (s *EngineSuite) TestSaveWithoutAssignmentsSkipsCallback() {
	called := false
	s.engine.OnRemoteSaved(func(model.UserID, remote.SaveResult) { called = true })

	s.Require().NoError(s.engine.Persist(s.ctx, s.alice, snapshotWith("g1", "Alice"), Change{}))
	s.flush()
	s.False(called)
}

func (s *EngineSuite) TestUsersAreIsolated() {
	bob := &model.Identity{UserID: "bob"}
	s.Require().NoError(s.engine.Persist(s.ctx, s.alice, snapshotWith("g-a", "Alice"), Change{}))
	s.Require().NoError(s.engine.Persist(s.ctx, bob, snapshotWith("g-b", "Bea"), Change{}))
	s.flush()

	s.Equal(model.GameID("g-a"), s.loadRemote("alice").Games[0].ID)
	s.Equal(model.GameID("g-b"), s.loadRemote("bob").Games[0].ID)
}

func (s *EngineSuite) TestReleaseDrainsQueue() {
	snapshot := snapshotWith("g1", "Alice")
	s.Require().NoError(s.engine.Persist(s.ctx, s.alice, snapshot, Change{}))
	s.engine.Release(s.alice)
	s.flush()

	s.Equal(snapshot, s.loadRemote("alice"))
}
