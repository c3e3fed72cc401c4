package models

type RoundStatus string

const (
	RoundStatusOpen     RoundStatus = "open"
	RoundStatusFinished RoundStatus = "finished"
)

type Round struct {
	ID           int              `json:"id" db:"id"`
	TournamentID int              `json:"tournament_id" db:"tournament_id"`
	Number       int              `json:"number" db:"number"`
	Format       TournamentFormat `json:"format" db:"format"`
	Status       RoundStatus      `json:"status" db:"status"`
	EloEnabled   bool             `json:"elo_enabled" db:"elo_enabled"`

	Matches []Match `json:"matches,omitempty" db:"-"`
}
