package model

import "slices"

// Snapshot is the complete tracked state: every game and every player
type Snapshot struct {
	Games   []Game
	Players []Player
}

// IsEmpty reports whether the snapshot holds no games and no players
func (s Snapshot) IsEmpty() bool {
	return len(s.Games) == 0 && len(s.Players) == 0
}

// Clone returns a deep copy that shares nothing with the receiver
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Games:   make([]Game, len(s.Games)),
		Players: make([]Player, len(s.Players)),
	}
	for i, g := range s.Games {
		out.Games[i] = g.Clone()
	}
	for i, p := range s.Players {
		out.Players[i] = p.Clone()
	}
	return out
}

// FindGame returns the index of a game, or -1
func (s Snapshot) FindGame(id GameID) int {
	return slices.IndexFunc(s.Games, func(g Game) bool { return g.ID == id })
}

// FindPlayer returns the index of a player, or -1
func (s Snapshot) FindPlayer(id PlayerID) int {
	return slices.IndexFunc(s.Players, func(p Player) bool { return p.ID == id })
}

// PlayerIDs returns the set of known player ids
func (s Snapshot) PlayerIDs() map[PlayerID]bool {
	ids := make(map[PlayerID]bool, len(s.Players))
	for _, p := range s.Players {
		ids[p.ID] = true
	}
	return ids
}
