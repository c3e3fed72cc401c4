package models

// TournamentResult is written once per (tournament, player) at finalization.
// Finalize is idempotent: rows are upserted, never duplicated.
type TournamentResult struct {
	ID                int     `json:"id" db:"id"`
	TournamentID      int     `json:"tournament_id" db:"tournament_id"`
	PlayerID          int     `json:"player_id" db:"player_id"`
	Points            int     `json:"points" db:"points"`
	Wins              int     `json:"wins" db:"wins"`
	Podiums           int     `json:"podiums" db:"podiums"`
	MatchesPlayed     int     `json:"matches_played" db:"matches_played"`
	Winrate           float64 `json:"winrate" db:"winrate"`
	AvgPosition       float64 `json:"avg_position" db:"avg_position"`
	FavoriteMachineID *int    `json:"favorite_machine_id,omitempty" db:"favorite_machine_id"`
	BestMachineID     *int    `json:"best_machine_id,omitempty" db:"best_machine_id"`
	FinalRank         int     `json:"final_rank" db:"final_rank"`
	SuperFinalRank    *int    `json:"super_final_rank,omitempty" db:"super_final_rank"`
	TournamentPoints  float64 `json:"tournament_points" db:"tournament_points"`

	Player *Player `json:"player,omitempty" db:"-"`
}
