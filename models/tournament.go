package models

import "time"

// TournamentFormat mirrors the format ENUM in the database.
type TournamentFormat string

const (
	FormatMatchplay     TournamentFormat = "matchplay"
	FormatRoundRobin    TournamentFormat = "round_robin"
	FormatSwiss         TournamentFormat = "swiss"
	FormatElimination   TournamentFormat = "elimination"
	FormatRotation      TournamentFormat = "rotation"
	FormatTimeplay      TournamentFormat = "timeplay"
	FormatDYPRoundRobin TournamentFormat = "dyp_round_robin"
)

// IsValid reports whether f is one of the known formats.
func (f TournamentFormat) IsValid() bool {
	switch f {
	case FormatMatchplay, FormatRoundRobin, FormatSwiss, FormatElimination,
		FormatRotation, FormatTimeplay, FormatDYPRoundRobin:
		return true
	}
	return false
}

type TournamentStatus string

const (
	TournamentStatusOpen     TournamentStatus = "open"
	TournamentStatusFinished TournamentStatus = "finished"
)

// TournamentCategory decides whether results feed the rating engine.
type TournamentCategory string

const (
	CategoryLeague TournamentCategory = "league"
	CategoryFun    TournamentCategory = "fun"
)

// RatingApplies reports whether matches in this category move profile ratings.
func (c TournamentCategory) RatingApplies() bool {
	return c == CategoryLeague
}

type Tournament struct {
	ID         int                `json:"id" db:"id"`
	Code       string             `json:"code" db:"code"`
	Name       string             `json:"name" db:"name"`
	Format     TournamentFormat   `json:"format" db:"format"`
	MatchSize  int                `json:"match_size" db:"match_size"`
	Status     TournamentStatus   `json:"status" db:"status"`
	Category   TournamentCategory `json:"category" db:"category"`
	SeasonYear int                `json:"season_year" db:"season_year"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`

	// Optional linked data, populated by services, not mapped directly.
	Rounds  []Round  `json:"rounds,omitempty" db:"-"`
	Players []Player `json:"players,omitempty" db:"-"`
}
