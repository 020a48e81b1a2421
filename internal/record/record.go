// Package record defines the serialized shape of players and games shared by
// local persistence and JSON import/export, plus conversion to and from the
// domain model. Field names match the documents written by earlier releases.
package record

import (
	"bytes"
	"encoding/json"
)

// CurrentVersion is the schema version written by this release.
// Version 0 is the unversioned bare-array layout without gameType.
const CurrentVersion = 1

// Envelope wraps a namespace's records with their schema version
type Envelope[T any] struct {
	Version int `json:"version"`
	Data    []T `json:"data"`
}

// Avatar is the tagged-union form of model.Avatar
type Avatar struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Player is a serialized player
type Player struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Color       string   `json:"color,omitempty"`
	Avatar      *Avatar  `json:"avatar,omitempty"`
	ManualTotal *int     `json:"manualTotal,omitempty"`
	Money       *float64 `json:"money,omitempty"`
}

// PlayerScore is a serialized score entry
type PlayerScore struct {
	ID        string `json:"id,omitempty"`
	PlayerID  string `json:"playerId"`
	Score     int    `json:"score"`
	Phase     int    `json:"phase"`
	Completed bool   `json:"completed"`
	IsWinner  bool   `json:"isWinner,omitempty"`
}

// Round is a serialized round
type Round struct {
	ID           string        `json:"id"`
	PlayerScores []PlayerScore `json:"playerScores"`
	PotAmount    *float64      `json:"potAmount,omitempty"`
	WinnerID     *string       `json:"winnerId,omitempty"`
	WinningHand  string        `json:"winningHand,omitempty"`
}

// Game is a serialized game. Players are written as full player objects;
// on read only their ids are used, and bare id strings are also accepted.
type Game struct {
	ID         string          `json:"id"`
	UniqueCode string          `json:"uniqueCode,omitempty"`
	Date       json.RawMessage `json:"date"`
	GameType   string          `json:"gameType,omitempty"`
	Players    []PlayerRef     `json:"players"`
	Rounds     []Round         `json:"rounds"`
}

// PlayerRef is a game's reference to a player. It decodes from either a
// player object or a plain id string and encodes as the full player.
type PlayerRef struct {
	ID     string
	Player *Player
}

// MarshalJSON writes the full player when known, else an object with the id only
func (r PlayerRef) MarshalJSON() ([]byte, error) {
	if r.Player != nil {
		return json.Marshal(r.Player)
	}
	return json.Marshal(struct {
		ID string `json:"id"`
	}{ID: r.ID})
}

// UnmarshalJSON accepts "id" or {"id": ...}
func (r *PlayerRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var p Player
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	r.ID = p.ID
	r.Player = &p
	return nil
}
