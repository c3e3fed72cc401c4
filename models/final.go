package models

import "time"

type FinalStatus string

const (
	FinalStatusOpen     FinalStatus = "open"
	FinalStatusFinished FinalStatus = "finished"
)

// Final is the super-final points race among the top standings finishers.
// At most one open final exists per tournament.
type Final struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	TargetPoints int         `json:"target_points" db:"target_points"`
	Status       FinalStatus `json:"status" db:"status"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`

	Players []FinalPlayer `json:"players,omitempty" db:"-"`
	Games   []FinalGame   `json:"games,omitempty" db:"-"`
}

type FinalPlayer struct {
	ID          int  `json:"id" db:"id"`
	FinalID     int  `json:"final_id" db:"final_id"`
	PlayerID    int  `json:"player_id" db:"player_id"`
	Seed        int  `json:"seed" db:"seed"`
	StartPoints int  `json:"start_points" db:"start_points"`
	Points      int  `json:"points" db:"points"`
	Rank        *int `json:"rank,omitempty" db:"rank"`

	Player *Player `json:"player,omitempty" db:"-"`
}

// FinalGame is an append-only log entry: who won game N.
type FinalGame struct {
	ID             int       `json:"id" db:"id"`
	FinalID        int       `json:"final_id" db:"final_id"`
	GameNumber     int       `json:"game_number" db:"game_number"`
	WinnerPlayerID int       `json:"winner_player_id" db:"winner_player_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
