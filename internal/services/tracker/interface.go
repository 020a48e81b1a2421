package tracker

import (
	"context"
	"time"

	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/services/reconcile"
	"github.com/mcoot/scorekeeper/internal/services/scoring"
	"github.com/mcoot/scorekeeper/internal/services/transfer"
)

// Interface for dependency injection
type ControllerInterface interface {
	Start(ctx context.Context, identity *model.Identity) error
	Ready() bool
	Identity() *model.Identity
	SetIdentity(ctx context.Context, identity *model.Identity) (reconcile.Source, error)

	AddPlayer(ctx context.Context, name string) (model.Player, error)
	UpdatePlayerAvatar(ctx context.Context, id model.PlayerID, avatar model.Avatar) (model.Player, error)
	UpdatePlayerManualTotal(ctx context.Context, id model.PlayerID, total *int) (model.Player, error)
	UpdatePlayerMoney(ctx context.Context, id model.PlayerID, money float64) (model.Player, error)

	CreateGame(ctx context.Context, date time.Time, playerIDs []model.PlayerID, gameType model.GameType) (model.Game, error)
	AddRound(ctx context.Context, gameID model.GameID, input RoundInput) (model.Round, error)
	UpdateAllPlayerScores(ctx context.Context, gameID model.GameID, roundID model.RoundID, input RoundInput) (model.Round, error)
	UpdatePlayerScore(ctx context.Context, gameID model.GameID, roundID model.RoundID, score model.PlayerScore) (model.Round, error)
	DeleteGame(ctx context.Context, gameID model.GameID) error
	DeleteGames(ctx context.Context, gameIDs []model.GameID) ([]model.GameID, error)
	DeleteRound(ctx context.Context, gameID model.GameID, roundID model.RoundID) error

	ImportJSON(ctx context.Context, data []byte) (model.Snapshot, transfer.ImportReport, error)
	ImportCSV(ctx context.Context, data []byte) (transfer.CSVResult, transfer.ImportReport, error)
	ExportJSON() ([]byte, error)
	ExportCSV() ([]byte, error)

	Snapshot() model.Snapshot
	Games() []model.Game
	GamesByDate() []model.Game
	Players() []model.Player
	GetGame(id model.GameID) (model.Game, error)
	GetGameByCode(code string) (model.Game, error)
	GetPlayer(id model.PlayerID) (model.Player, error)
	Rankings() []scoring.Ranking
	GameSummary(id model.GameID) (scoring.GameSummary, error)

	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

var _ ControllerInterface = (*Controller)(nil)
