package request

// AddPlayerRequest is the request body for adding a player
type AddPlayerRequest struct {
	Name string `json:"name"`
}

// AvatarRequest is the request body for setting a player's avatar.
// An empty type resets to the letter avatar.
type AvatarRequest struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ManualTotalRequest sets or clears (null) a player's manual total
type ManualTotalRequest struct {
	Total *int `json:"total"`
}

// MoneyRequest sets a player's money balance
type MoneyRequest struct {
	Money float64 `json:"money"`
}

// CreateGameRequest is the request body for creating a game
type CreateGameRequest struct {
	Date      string   `json:"date,omitempty"`
	PlayerIDs []string `json:"player_ids"`
	GameType  string   `json:"game_type,omitempty"`
}

// DeleteGamesRequest is the request body for bulk deleting games
type DeleteGamesRequest struct {
	IDs []string `json:"ids"`
}

// ScoreRequest is one player's entry in a round
type ScoreRequest struct {
	PlayerID  string `json:"player_id"`
	Score     int    `json:"score"`
	Phase     int    `json:"phase"`
	Completed bool   `json:"completed"`
	IsWinner  bool   `json:"is_winner,omitempty"`
}

// RoundRequest is the request body for adding or replacing a round
type RoundRequest struct {
	Scores      []ScoreRequest `json:"scores"`
	PotAmount   *float64       `json:"pot_amount,omitempty"`
	WinnerID    *string        `json:"winner_id,omitempty"`
	WinningHand string         `json:"winning_hand,omitempty"`
}

// IdentityRequest is the request body for signing in
type IdentityRequest struct {
	UserID string `json:"user_id"`
}
