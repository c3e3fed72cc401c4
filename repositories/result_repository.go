package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flipperliga/league-system/models"
)

var ErrTournamentResultNotFound = errors.New("tournament result not found")

type TournamentResultRepository interface {
	// Upsert writes the result row keyed by (tournament, player); rerunning
	// finalize overwrites rather than duplicates.
	Upsert(ctx context.Context, exec SQLExecutor, result *models.TournamentResult) error
	ListByTournament(ctx context.Context, tournamentID int) ([]models.TournamentResult, error)
}

type postgresTournamentResultRepository struct {
	db *sql.DB
}

func NewPostgresTournamentResultRepository(db *sql.DB) TournamentResultRepository {
	return &postgresTournamentResultRepository{db: db}
}

func (r *postgresTournamentResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentResultRepository) Upsert(ctx context.Context, exec SQLExecutor, result *models.TournamentResult) error {
	query := `
		INSERT INTO tournament_results
			(tournament_id, player_id, points, wins, podiums, matches_played, winrate, avg_position,
			 favorite_machine_id, best_machine_id, final_rank, super_final_rank, tournament_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (tournament_id, player_id) DO UPDATE SET
			points = EXCLUDED.points,
			wins = EXCLUDED.wins,
			podiums = EXCLUDED.podiums,
			matches_played = EXCLUDED.matches_played,
			winrate = EXCLUDED.winrate,
			avg_position = EXCLUDED.avg_position,
			favorite_machine_id = EXCLUDED.favorite_machine_id,
			best_machine_id = EXCLUDED.best_machine_id,
			final_rank = EXCLUDED.final_rank,
			super_final_rank = EXCLUDED.super_final_rank,
			tournament_points = EXCLUDED.tournament_points
		RETURNING id`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		result.TournamentID,
		result.PlayerID,
		result.Points,
		result.Wins,
		result.Podiums,
		result.MatchesPlayed,
		result.Winrate,
		result.AvgPosition,
		result.FavoriteMachineID,
		result.BestMachineID,
		result.FinalRank,
		result.SuperFinalRank,
		result.TournamentPoints,
	).Scan(&result.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert result for tournament %d player %d: %w",
			result.TournamentID, result.PlayerID, err)
	}
	return nil
}

func (r *postgresTournamentResultRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.TournamentResult, error) {
	query := `
		SELECT id, tournament_id, player_id, points, wins, podiums, matches_played, winrate, avg_position,
		       favorite_machine_id, best_machine_id, final_rank, super_final_rank, tournament_points
		FROM tournament_results
		WHERE tournament_id = $1
		ORDER BY final_rank ASC, player_id ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	results := make([]models.TournamentResult, 0)
	for rows.Next() {
		var res models.TournamentResult
		if scanErr := rows.Scan(
			&res.ID, &res.TournamentID, &res.PlayerID, &res.Points, &res.Wins, &res.Podiums,
			&res.MatchesPlayed, &res.Winrate, &res.AvgPosition, &res.FavoriteMachineID,
			&res.BestMachineID, &res.FinalRank, &res.SuperFinalRank, &res.TournamentPoints,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", scanErr)
		}
		results = append(results, res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during result rows iteration: %w", err)
	}
	return results, nil
}
