package models

type MatchStatus string

const (
	MatchStatusOpen     MatchStatus = "open"
	MatchStatusFinished MatchStatus = "finished"
)

type Match struct {
	ID         int         `json:"id" db:"id"`
	RoundID    int         `json:"round_id" db:"round_id"`
	MachineID  *int        `json:"machine_id,omitempty" db:"machine_id"`
	Status     MatchStatus `json:"status" db:"status"`
	GameNumber int         `json:"game_number" db:"game_number"`

	Machine *Machine      `json:"machine,omitempty" db:"-"`
	Players []MatchPlayer `json:"players,omitempty" db:"-"`
}

// MatchPlayer joins a match with one of its players. Position is 1..N with
// lower = better; ties may share a value. A nil Position means "no result yet".
type MatchPlayer struct {
	ID            int    `json:"id" db:"id"`
	MatchID       int    `json:"match_id" db:"match_id"`
	PlayerID      int    `json:"player_id" db:"player_id"`
	Position      *int   `json:"position,omitempty" db:"position"`
	Score         *int64 `json:"score,omitempty" db:"score"`
	StartPosition *int   `json:"start_position,omitempty" db:"start_position"`
	TimeMS        *int   `json:"time_ms,omitempty" db:"time_ms"`

	Player *Player `json:"player,omitempty" db:"-"`
}

// HasResult reports whether any result data exists, which locks start order.
func (mp MatchPlayer) HasResult() bool {
	return mp.Position != nil || mp.Score != nil
}
