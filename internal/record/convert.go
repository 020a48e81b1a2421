package record

import (
	"time"

	"github.com/mcoot/scorekeeper/internal/model"
)

// FromAvatar converts a domain avatar. A nil avatar is omitted.
func FromAvatar(a model.Avatar) *Avatar {
	switch v := a.(type) {
	case nil:
		return nil
	case model.LetterAvatar:
		return &Avatar{Type: string(model.AvatarKindLetter)}
	case model.EmojiAvatar:
		return &Avatar{Type: string(model.AvatarKindEmoji), Value: v.Value}
	case model.ImageAvatar:
		return &Avatar{Type: string(model.AvatarKindImage), Value: v.URL}
	default:
		return nil
	}
}

// ToModel converts to a domain avatar. Unknown or incomplete avatars fall
// back to the letter avatar.
func (a *Avatar) ToModel() model.Avatar {
	if a == nil {
		return nil
	}
	avatar, err := model.NewAvatar(model.AvatarKind(a.Type), a.Value)
	if err != nil {
		return model.LetterAvatar{}
	}
	return avatar
}

// FromPlayer converts a domain player
func FromPlayer(p model.Player) Player {
	rec := Player{
		ID:     string(p.ID),
		Name:   p.Name,
		Color:  p.Color,
		Avatar: FromAvatar(p.Avatar),
	}
	if p.ManualTotal != nil {
		v := *p.ManualTotal
		rec.ManualTotal = &v
	}
	if p.Money != 0 {
		v := p.Money
		rec.Money = &v
	}
	return rec
}

// ToModel converts to a domain player
func (p Player) ToModel() model.Player {
	player := model.Player{
		ID:     model.PlayerID(p.ID),
		Name:   p.Name,
		Color:  p.Color,
		Avatar: p.Avatar.ToModel(),
	}
	if p.ManualTotal != nil {
		v := *p.ManualTotal
		player.ManualTotal = &v
	}
	if p.Money != nil {
		player.Money = *p.Money
	}
	return player
}

// FromGame converts a domain game. Player references are expanded from
// players where known.
func FromGame(g model.Game, players map[model.PlayerID]model.Player) Game {
	rec := Game{
		ID:         string(g.ID),
		UniqueCode: g.UniqueCode,
		Date:       EncodeDate(g.Date),
		GameType:   string(g.GameType),
		Players:    make([]PlayerRef, len(g.Players)),
		Rounds:     make([]Round, len(g.Rounds)),
	}
	for i, id := range g.Players {
		ref := PlayerRef{ID: string(id)}
		if p, ok := players[id]; ok {
			pr := FromPlayer(p)
			ref.Player = &pr
		}
		rec.Players[i] = ref
	}
	for i, r := range g.Rounds {
		rec.Rounds[i] = fromRound(r)
	}
	return rec
}

func fromRound(r model.Round) Round {
	rec := Round{
		ID:           string(r.ID),
		PlayerScores: make([]PlayerScore, len(r.PlayerScores)),
		WinningHand:  r.WinningHand,
	}
	if r.PotAmount != nil {
		v := *r.PotAmount
		rec.PotAmount = &v
	}
	if r.WinnerID != nil {
		v := string(*r.WinnerID)
		rec.WinnerID = &v
	}
	for i, ps := range r.PlayerScores {
		rec.PlayerScores[i] = PlayerScore{
			ID:        string(ps.ID),
			PlayerID:  string(ps.PlayerID),
			Score:     ps.Score,
			Phase:     ps.Phase,
			Completed: ps.Completed,
			IsWinner:  ps.IsWinner,
		}
	}
	return rec
}

// ToModel converts to a domain game. The boolean is false when the stored
// date could not be read; Date is then zero and the caller picks a fallback.
func (g Game) ToModel() (model.Game, bool) {
	date, dateOK := DecodeDate(g.Date)
	gameType, err := model.ParseGameType(g.GameType)
	if err != nil {
		gameType = model.GameTypePhase10
	}

	game := model.Game{
		ID:         model.GameID(g.ID),
		UniqueCode: g.UniqueCode,
		Date:       date,
		GameType:   gameType,
		Players:    make([]model.PlayerID, len(g.Players)),
		Rounds:     make([]model.Round, len(g.Rounds)),
	}
	for i, ref := range g.Players {
		game.Players[i] = model.PlayerID(ref.ID)
	}
	for i, r := range g.Rounds {
		game.Rounds[i] = r.toModel()
	}
	return game, dateOK
}

func (r Round) toModel() model.Round {
	round := model.Round{
		ID:           model.RoundID(r.ID),
		PlayerScores: make([]model.PlayerScore, len(r.PlayerScores)),
		WinningHand:  r.WinningHand,
	}
	if r.PotAmount != nil {
		v := *r.PotAmount
		round.PotAmount = &v
	}
	if r.WinnerID != nil && *r.WinnerID != "" {
		v := model.PlayerID(*r.WinnerID)
		round.WinnerID = &v
	}
	for i, ps := range r.PlayerScores {
		round.PlayerScores[i] = model.PlayerScore{
			ID:        model.ScoreID(ps.ID),
			PlayerID:  model.PlayerID(ps.PlayerID),
			Score:     ps.Score,
			Phase:     ps.Phase,
			Completed: ps.Completed,
			IsWinner:  ps.IsWinner,
		}
	}
	return round
}

// EncodeSnapshot converts a snapshot to its records
func EncodeSnapshot(s model.Snapshot) ([]Game, []Player) {
	byID := make(map[model.PlayerID]model.Player, len(s.Players))
	players := make([]Player, len(s.Players))
	for i, p := range s.Players {
		byID[p.ID] = p
		players[i] = FromPlayer(p)
	}
	games := make([]Game, len(s.Games))
	for i, g := range s.Games {
		games[i] = FromGame(g, byID)
	}
	return games, players
}

// DecodeGames converts game records, substituting now for unreadable dates
func DecodeGames(recs []Game, now time.Time) ([]model.Game, []DateRepair) {
	games := make([]model.Game, 0, len(recs))
	var repairs []DateRepair
	for _, rec := range recs {
		game, ok := rec.ToModel()
		if !ok {
			game.Date = now
			repairs = append(repairs, DateRepair{GameID: rec.ID, Raw: string(rec.Date)})
		}
		games = append(games, game)
	}
	return games, repairs
}

// DecodePlayers converts player records
func DecodePlayers(recs []Player) []model.Player {
	players := make([]model.Player, len(recs))
	for i, rec := range recs {
		players[i] = rec.ToModel()
	}
	return players
}
