package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flipperliga/league-system/models"
)

var ErrTournamentRatingNotFound = errors.New("tournament rating snapshot not found")

// TournamentRatingRepository stores the per-(tournament, profile) rating
// snapshots that make rating changes replayable and reversible.
type TournamentRatingRepository interface {
	// EnsureSnapshot inserts the snapshot unless one already exists for the
	// (tournament, profile) pair; the first write wins.
	EnsureSnapshot(ctx context.Context, exec SQLExecutor, snapshot *models.TournamentRating) error
	ListByTournament(ctx context.Context, tournamentID int) ([]models.TournamentRating, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresTournamentRatingRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRatingRepository(db *sql.DB) TournamentRatingRepository {
	return &postgresTournamentRatingRepository{db: db}
}

func (r *postgresTournamentRatingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRatingRepository) EnsureSnapshot(ctx context.Context, exec SQLExecutor, snapshot *models.TournamentRating) error {
	query := `
		INSERT INTO tournament_ratings (tournament_id, profile_id, rating_before, matches_before, provisional_before)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (tournament_id, profile_id) DO NOTHING`
	_, err := r.getExecutor(exec).ExecContext(ctx, query,
		snapshot.TournamentID,
		snapshot.ProfileID,
		snapshot.RatingBefore,
		snapshot.MatchesBefore,
		snapshot.ProvisionalBefore,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure rating snapshot for tournament %d profile %d: %w",
			snapshot.TournamentID, snapshot.ProfileID, err)
	}
	return nil
}

func (r *postgresTournamentRatingRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.TournamentRating, error) {
	query := `
		SELECT id, tournament_id, profile_id, rating_before, matches_before, provisional_before, created_at
		FROM tournament_ratings
		WHERE tournament_id = $1
		ORDER BY profile_id ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating snapshots for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	snapshots := make([]models.TournamentRating, 0)
	for rows.Next() {
		var s models.TournamentRating
		if scanErr := rows.Scan(&s.ID, &s.TournamentID, &s.ProfileID, &s.RatingBefore, &s.MatchesBefore, &s.ProvisionalBefore, &s.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan rating snapshot row: %w", scanErr)
		}
		snapshots = append(snapshots, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rating snapshot rows iteration: %w", err)
	}
	return snapshots, nil
}

func (r *postgresTournamentRatingRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	query := `DELETE FROM tournament_ratings WHERE tournament_id = $1`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID); err != nil {
		return fmt.Errorf("failed to delete rating snapshots for tournament %d: %w", tournamentID, err)
	}
	return nil
}
