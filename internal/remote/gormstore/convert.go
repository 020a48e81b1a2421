package gormstore

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/mcoot/scorekeeper/internal/remote"
)

func fromPlayerRow(r remote.PlayerRow) Player {
	p := Player{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Name,
		Color:       r.Color,
		ManualTotal: r.ManualTotal,
		Money:       r.Money,
	}
	if len(r.Avatar) > 0 {
		p.Avatar = datatypes.JSON(r.Avatar)
	}
	return p
}

func (p Player) toRow() remote.PlayerRow {
	row := remote.PlayerRow{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		Color:       p.Color,
		ManualTotal: p.ManualTotal,
		Money:       p.Money,
	}
	if len(p.Avatar) > 0 {
		row.Avatar = json.RawMessage(p.Avatar)
	}
	return row
}

func fromGameRow(r remote.GameRow) Game {
	return Game{
		ID:         r.ID,
		UserID:     r.UserID,
		UniqueCode: r.UniqueCode,
		Date:       r.Date,
		GameType:   r.GameType,
	}
}

func (g Game) toRow() remote.GameRow {
	return remote.GameRow{
		ID:         g.ID,
		UserID:     g.UserID,
		UniqueCode: g.UniqueCode,
		Date:       g.Date.UTC(),
		GameType:   g.GameType,
	}
}

func fromRoundRow(r remote.RoundRow) Round {
	return Round{
		UserID:      r.UserID,
		ID:          r.ID,
		GameID:      r.GameID,
		RoundNumber: r.RoundNumber,
		PotAmount:   r.PotAmount,
		WinnerID:    r.WinnerID,
		WinningHand: r.WinningHand,
	}
}

func (r Round) toRow() remote.RoundRow {
	return remote.RoundRow{
		ID:          r.ID,
		UserID:      r.UserID,
		GameID:      r.GameID,
		RoundNumber: r.RoundNumber,
		PotAmount:   r.PotAmount,
		WinnerID:    r.WinnerID,
		WinningHand: r.WinningHand,
	}
}

func fromScoreRow(r remote.ScoreRow) PlayerScore {
	return PlayerScore{
		UserID:    r.UserID,
		ID:        r.ID,
		RoundID:   r.RoundID,
		PlayerID:  r.PlayerID,
		Score:     r.Score,
		Phase:     r.Phase,
		Completed: r.Completed,
		IsWinner:  r.IsWinner,
	}
}

func (s PlayerScore) toRow() remote.ScoreRow {
	return remote.ScoreRow{
		ID:        s.ID,
		UserID:    s.UserID,
		RoundID:   s.RoundID,
		PlayerID:  s.PlayerID,
		Score:     s.Score,
		Phase:     s.Phase,
		Completed: s.Completed,
		IsWinner:  s.IsWinner,
	}
}

func fromLinkRow(r remote.GamePlayerRow) GamePlayer {
	return GamePlayer{UserID: r.UserID, GameID: r.GameID, PlayerID: r.PlayerID, Position: r.Position}
}

func (l GamePlayer) toRow() remote.GamePlayerRow {
	return remote.GamePlayerRow{UserID: l.UserID, GameID: l.GameID, PlayerID: l.PlayerID, Position: l.Position}
}

func mapSlice[S, T any](in []S, f func(S) T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}
