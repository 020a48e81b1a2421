package remote

import (
	"encoding/json"

	"github.com/mcoot/scorekeeper/internal/model"
	"github.com/mcoot/scorekeeper/internal/record"
)

func playerRow(userID string, p model.Player) PlayerRow {
	row := PlayerRow{
		ID:     string(p.ID),
		UserID: userID,
		Name:   p.Name,
		Color:  p.Color,
	}
	if a := record.FromAvatar(p.Avatar); a != nil {
		// a two-string struct always marshals
		row.Avatar, _ = json.Marshal(a)
	}
	if p.ManualTotal != nil {
		v := *p.ManualTotal
		row.ManualTotal = &v
	}
	money := p.Money
	row.Money = &money
	return row
}

func (r PlayerRow) toModel() model.Player {
	p := model.Player{
		ID:    model.PlayerID(r.ID),
		Name:  r.Name,
		Color: r.Color,
	}
	if len(r.Avatar) > 0 {
		var a record.Avatar
		if err := json.Unmarshal(r.Avatar, &a); err == nil {
			p.Avatar = a.ToModel()
		}
	}
	if p.Avatar == nil {
		p.Avatar = model.LetterAvatar{}
	}
	if r.ManualTotal != nil {
		v := *r.ManualTotal
		p.ManualTotal = &v
	}
	if r.Money != nil {
		p.Money = *r.Money
	}
	return p
}

func gameRow(userID string, g model.Game) GameRow {
	return GameRow{
		ID:         string(g.ID),
		UserID:     userID,
		UniqueCode: g.UniqueCode,
		Date:       g.Date.UTC(),
		GameType:   string(g.GameType),
	}
}

func roundRow(userID string, gameID model.GameID, number int, r model.Round) RoundRow {
	row := RoundRow{
		ID:          string(r.ID),
		UserID:      userID,
		GameID:      string(gameID),
		RoundNumber: number,
	}
	if r.PotAmount != nil {
		v := *r.PotAmount
		row.PotAmount = &v
	}
	if r.WinnerID != nil {
		v := string(*r.WinnerID)
		row.WinnerID = &v
	}
	if r.WinningHand != "" {
		v := r.WinningHand
		row.WinningHand = &v
	}
	return row
}

func (r RoundRow) toModel() model.Round {
	round := model.Round{
		ID:           model.RoundID(r.ID),
		PlayerScores: []model.PlayerScore{},
	}
	if r.PotAmount != nil {
		v := *r.PotAmount
		round.PotAmount = &v
	}
	if r.WinnerID != nil && *r.WinnerID != "" {
		v := model.PlayerID(*r.WinnerID)
		round.WinnerID = &v
	}
	if r.WinningHand != nil {
		round.WinningHand = *r.WinningHand
	}
	return round
}

func scoreRow(userID string, roundID model.RoundID, ps model.PlayerScore) ScoreRow {
	return ScoreRow{
		ID:        string(ps.ID),
		UserID:    userID,
		RoundID:   string(roundID),
		PlayerID:  string(ps.PlayerID),
		Score:     ps.Score,
		Phase:     ps.Phase,
		Completed: ps.Completed,
		IsWinner:  ps.IsWinner,
	}
}

func (r ScoreRow) toModel() model.PlayerScore {
	return model.PlayerScore{
		ID:        model.ScoreID(r.ID),
		PlayerID:  model.PlayerID(r.PlayerID),
		Score:     r.Score,
		Phase:     r.Phase,
		Completed: r.Completed,
		IsWinner:  r.IsWinner,
	}
}
