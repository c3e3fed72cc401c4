package models

// Player is a tournament-scoped identity, optionally linked to a persistent
// cross-tournament Profile.
type Player struct {
	ID           int    `json:"id" db:"id"`
	TournamentID int    `json:"tournament_id" db:"tournament_id"`
	Name         string `json:"name" db:"name"`
	ProfileID    *int   `json:"profile_id,omitempty" db:"profile_id"`
	Active       bool   `json:"active" db:"active"`

	Profile *Profile `json:"profile,omitempty" db:"-"`
}
