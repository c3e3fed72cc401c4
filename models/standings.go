package models

// StandingRow is one line of the live tournament standings, computed at read
// time from match points. Never persisted.
type StandingRow struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
	Wins     int    `json:"wins"`
	Played   int    `json:"played"`
}

// SeasonMode selects how a tournament contributes to the season total.
type SeasonMode string

const (
	SeasonModeMatch           SeasonMode = "match"
	SeasonModePlacementFixed  SeasonMode = "placement_fixed"
	SeasonModePlacementLinear SeasonMode = "placement_linear"
)

func (m SeasonMode) IsValid() bool {
	switch m {
	case SeasonModeMatch, SeasonModePlacementFixed, SeasonModePlacementLinear:
		return true
	}
	return false
}

// SeasonTournamentScore is the per-tournament breakdown behind a season row.
// Dropped tournaments (best-of-N) stay in the breakdown with Counted=false.
type SeasonTournamentScore struct {
	TournamentID   int     `json:"tournament_id"`
	TournamentCode string  `json:"tournament_code"`
	Value          float64 `json:"value"`
	Counted        bool    `json:"counted"`
}

type SeasonStandingRow struct {
	Name        string                  `json:"name"`
	Total       float64                 `json:"total"`
	Dropped     int                     `json:"dropped"`
	Tournaments []SeasonTournamentScore `json:"tournaments"`
}
