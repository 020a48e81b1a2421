package response

import (
	"time"

	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/services/reconcile"
	"github.com/mcoot/scorekeeper/internal/services/scoring"
	"github.com/mcoot/scorekeeper/internal/services/transfer"
)

// Avatar represents a player's avatar in API responses
type Avatar struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// AvatarFromModel converts a model.Avatar; nil becomes the letter avatar
func AvatarFromModel(a model.Avatar) Avatar {
	if a == nil {
		a = model.LetterAvatar{}
	}
	return Avatar{Type: string(a.Kind()), Value: model.AvatarValue(a)}
}

// Player represents a player in API responses
type Player struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Color       string  `json:"color"`
	Avatar      Avatar  `json:"avatar"`
	ManualTotal *int    `json:"manual_total"`
	Money       float64 `json:"money"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p model.Player) Player {
	return Player{
		ID:          string(p.ID),
		Name:        p.Name,
		Color:       p.Color,
		Avatar:      AvatarFromModel(p.Avatar),
		ManualTotal: p.ManualTotal,
		Money:       p.Money,
	}
}

// PlayersFromModel converts a slice of players
func PlayersFromModel(players []model.Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = PlayerFromModel(p)
	}
	return out
}

// PlayerScore represents one player's entry in a round
type PlayerScore struct {
	ID        string `json:"id"`
	PlayerID  string `json:"player_id"`
	Score     int    `json:"score"`
	Phase     int    `json:"phase"`
	Completed bool   `json:"completed"`
	IsWinner  bool   `json:"is_winner,omitempty"`
}

// Round represents a round in API responses
type Round struct {
	ID           string        `json:"id"`
	Number       int           `json:"number"`
	PlayerScores []PlayerScore `json:"player_scores"`
	PotAmount    *float64      `json:"pot_amount,omitempty"`
	WinnerID     *string       `json:"winner_id,omitempty"`
	WinningHand  string        `json:"winning_hand,omitempty"`
}

// RoundFromModel converts a model.Round. number is 1-based.
func RoundFromModel(r model.Round, number int) Round {
	scores := make([]PlayerScore, len(r.PlayerScores))
	for i, ps := range r.PlayerScores {
		scores[i] = PlayerScore{
			ID:        string(ps.ID),
			PlayerID:  string(ps.PlayerID),
			Score:     ps.Score,
			Phase:     ps.Phase,
			Completed: ps.Completed,
			IsWinner:  ps.IsWinner,
		}
	}

	var winner *string
	if r.WinnerID != nil {
		w := string(*r.WinnerID)
		winner = &w
	}
	return Round{
		ID:           string(r.ID),
		Number:       number,
		PlayerScores: scores,
		PotAmount:    r.PotAmount,
		WinnerID:     winner,
		WinningHand:  r.WinningHand,
	}
}

// Game represents a game in API responses
type Game struct {
	ID         string    `json:"id"`
	UniqueCode string    `json:"unique_code"`
	Date       time.Time `json:"date"`
	GameType   string    `json:"game_type"`
	Players    []string  `json:"players"`
	Rounds     []Round   `json:"rounds"`
}

// GameFromModel converts a model.Game
func GameFromModel(g model.Game) Game {
	players := make([]string, len(g.Players))
	for i, id := range g.Players {
		players[i] = string(id)
	}
	rounds := make([]Round, len(g.Rounds))
	for i, r := range g.Rounds {
		rounds[i] = RoundFromModel(r, i+1)
	}
	return Game{
		ID:         string(g.ID),
		UniqueCode: g.UniqueCode,
		Date:       g.Date,
		GameType:   string(g.GameType),
		Players:    players,
		Rounds:     rounds,
	}
}

// GamesFromModel converts a slice of games
func GamesFromModel(games []model.Game) []Game {
	out := make([]Game, len(games))
	for i, g := range games {
		out[i] = GameFromModel(g)
	}
	return out
}

// DeletedGames lists the ids removed by a bulk delete
type DeletedGames struct {
	Deleted []string `json:"deleted"`
}

// DeletedGamesFromModel converts deleted game ids
func DeletedGamesFromModel(ids []model.GameID) DeletedGames {
	out := DeletedGames{Deleted: make([]string, len(ids))}
	for i, id := range ids {
		out.Deleted[i] = string(id)
	}
	return out
}

// Ranking is one row of the overall standings
type Ranking struct {
	Rank   int    `json:"rank"`
	Player Player `json:"player"`
	Total  int    `json:"total"`
	Manual bool   `json:"manual"`
}

// RankingsFromModel converts scoring rankings
func RankingsFromModel(rankings []scoring.Ranking) []Ranking {
	out := make([]Ranking, len(rankings))
	for i, r := range rankings {
		out[i] = Ranking{
			Rank:   r.Rank,
			Player: PlayerFromModel(r.Player),
			Total:  r.Total,
			Manual: r.Manual,
		}
	}
	return out
}

// Standing is one player's position within a game
type Standing struct {
	PlayerID     string               `json:"player_id"`
	Name         string               `json:"name"`
	Total        int                  `json:"total"`
	CurrentPhase int                  `json:"current_phase"`
	LastPlayed   *scoring.PhaseResult `json:"last_played,omitempty"`
}

// GameSummary is a game together with its derived standings
type GameSummary struct {
	Game         Game       `json:"game"`
	Standings    []Standing `json:"standings"`
	RoundWinners []string   `json:"round_winners"`
}

// GameSummaryFromModel converts a scoring.GameSummary
func GameSummaryFromModel(s scoring.GameSummary) GameSummary {
	standings := make([]Standing, len(s.Standings))
	for i, st := range s.Standings {
		standings[i] = Standing{
			PlayerID:     string(st.PlayerID),
			Name:         st.Name,
			Total:        st.Total,
			CurrentPhase: st.CurrentPhase,
			LastPlayed:   st.LastPlayed,
		}
	}
	winners := make([]string, len(s.RoundWinners))
	for i, w := range s.RoundWinners {
		winners[i] = string(w)
	}
	return GameSummary{
		Game:         GameFromModel(s.Game),
		Standings:    standings,
		RoundWinners: winners,
	}
}

// Identity reports who the tracker is acting for
type Identity struct {
	UserID    *string `json:"user_id"`
	Source    string  `json:"source,omitempty"`
	Anonymous bool    `json:"anonymous"`
}

// IdentityFromModel converts an identity; nil means anonymous
func IdentityFromModel(identity *model.Identity, source reconcile.Source) Identity {
	if identity == nil {
		return Identity{Source: string(source), Anonymous: true}
	}
	id := string(identity.UserID)
	return Identity{UserID: &id, Source: string(source)}
}

// ImportWarning describes a game dropped during import
type ImportWarning struct {
	GameID           string   `json:"game_id"`
	MissingPlayerIDs []string `json:"missing_player_ids"`
}

// ImportResult summarises an import
type ImportResult struct {
	Format           string          `json:"format"`
	GameCount        int             `json:"game_count"`
	PlayerCount      int             `json:"player_count"`
	NewPlayers       []Player        `json:"new_players,omitempty"`
	DateRepairs      int             `json:"date_repairs"`
	AssignedColors   int             `json:"assigned_colors"`
	AssignedCodes    int             `json:"assigned_codes"`
	AssignedScoreIDs int             `json:"assigned_score_ids"`
	Warnings         []ImportWarning `json:"warnings"`
	Rejected         []ImportReject  `json:"rejected,omitempty"`
}

// ImportReject names a game dropped because one of its rounds is invalid
type ImportReject struct {
	GameID  string `json:"game_id"`
	RoundID string `json:"round_id"`
	Reason  string `json:"reason"`
}

// ImportResultFromReport builds an ImportResult from a transfer report
func ImportResultFromReport(format transfer.Format, games, players int, report transfer.ImportReport) ImportResult {
	warnings := make([]ImportWarning, len(report.Warnings))
	for i, w := range report.Warnings {
		warnings[i] = ImportWarning{GameID: w.GameID, MissingPlayerIDs: w.MissingPlayerIDs}
	}
	var rejected []ImportReject
	for _, r := range report.Rejected {
		rejected = append(rejected, ImportReject{GameID: r.GameID, RoundID: r.RoundID, Reason: r.Reason})
	}
	return ImportResult{
		Format:           string(format),
		GameCount:        games,
		PlayerCount:      players,
		DateRepairs:      len(report.DateRepairs),
		AssignedColors:   report.AssignedColors,
		AssignedCodes:    report.AssignedCodes,
		AssignedScoreIDs: report.AssignedScoreIDs,
		Warnings:         warnings,
		Rejected:         rejected,
	}
}

// Health is the response for the health endpoint
type Health struct {
	Status        string `json:"status"`
	Ready         bool   `json:"ready"`
	RemoteEnabled bool   `json:"remote_enabled"`
}
