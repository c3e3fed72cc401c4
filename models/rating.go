package models

import "time"

// TournamentRating snapshots a profile's rating state the first time the
// profile is touched by a rated match of the tournament. The snapshot is what
// makes rating changes replayable (recalc) and reversible (delete).
type TournamentRating struct {
	ID                int       `json:"id" db:"id"`
	TournamentID      int       `json:"tournament_id" db:"tournament_id"`
	ProfileID         int       `json:"profile_id" db:"profile_id"`
	RatingBefore      float64   `json:"rating_before" db:"rating_before"`
	MatchesBefore     int       `json:"matches_before" db:"matches_before"`
	ProvisionalBefore int       `json:"provisional_before" db:"provisional_before"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
