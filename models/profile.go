package models

// Profile carries the persistent skill rating across tournaments.
// ProvisionalMatches is the remaining number of matches rated with the
// provisional K-factor; it never goes below zero.
type Profile struct {
	ID                 int     `json:"id" db:"id"`
	Name               string  `json:"name" db:"name"`
	Rating             float64 `json:"rating" db:"rating"`
	MatchesPlayed      int     `json:"matches_played" db:"matches_played"`
	ProvisionalMatches int     `json:"provisional_matches" db:"provisional_matches"`
}

// Provisional reports whether the profile is still in its calibration window.
func (p Profile) Provisional() bool {
	return p.ProvisionalMatches > 0
}
