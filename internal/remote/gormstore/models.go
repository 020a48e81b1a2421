package gormstore

import (
	"time"

	"gorm.io/datatypes"
)

// Every table is keyed by owner first so ids never collide across users.

type Player struct {
	UserID      string         `gorm:"primaryKey;type:text"`
	ID          string         `gorm:"primaryKey;type:text"`
	Name        string         `gorm:"type:text;not null"`
	Color       string         `gorm:"type:text"`
	Avatar      datatypes.JSON `gorm:"type:jsonb"`
	ManualTotal *int
	Money       *float64
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (Player) TableName() string { return "players" }

type Game struct {
	UserID     string    `gorm:"primaryKey;type:text"`
	ID         string    `gorm:"primaryKey;type:text"`
	UniqueCode string    `gorm:"type:text;index"`
	Date       time.Time `gorm:"not null"`
	GameType   string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (Game) TableName() string { return "games" }

type GamePlayer struct {
	ID       uint   `gorm:"primaryKey"`
	UserID   string `gorm:"type:text;not null;uniqueIndex:idx_game_players_user_game_player"`
	GameID   string `gorm:"type:text;not null;uniqueIndex:idx_game_players_user_game_player"`
	PlayerID string `gorm:"type:text;not null;uniqueIndex:idx_game_players_user_game_player"`
	Position int    `gorm:"not null"`
}

func (GamePlayer) TableName() string { return "game_players" }

type Round struct {
	UserID      string `gorm:"primaryKey;type:text"`
	ID          string `gorm:"primaryKey;type:text"`
	GameID      string `gorm:"type:text;index;not null"`
	RoundNumber int    `gorm:"not null"`
	PotAmount   *float64
	WinnerID    *string   `gorm:"type:text"`
	WinningHand *string   `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (Round) TableName() string { return "rounds" }

type PlayerScore struct {
	UserID    string    `gorm:"primaryKey;type:text"`
	ID        string    `gorm:"primaryKey;type:text"`
	RoundID   string    `gorm:"type:text;index;not null"`
	PlayerID  string    `gorm:"type:text;not null"`
	Score     int       `gorm:"not null"`
	Phase     int       `gorm:"not null"`
	Completed bool      `gorm:"not null"`
	IsWinner  bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (PlayerScore) TableName() string { return "player_scores" }
