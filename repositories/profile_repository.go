package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flipperliga/league-system/models"
	"github.com/lib/pq"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepository interface {
	Create(ctx context.Context, exec SQLExecutor, profile *models.Profile) error
	GetByID(ctx context.Context, id int) (*models.Profile, error)
	ListByIDs(ctx context.Context, ids []int) ([]models.Profile, error)
	// UpdateRating writes the full rating state of the profile: rating,
	// matches_played and provisional_matches move together.
	UpdateRating(ctx context.Context, exec SQLExecutor, profile *models.Profile) error
}

type postgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

func (r *postgresProfileRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const profileColumns = `id, name, rating, matches_played, provisional_matches`

func (r *postgresProfileRepository) Create(ctx context.Context, exec SQLExecutor, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (name, rating, matches_played, provisional_matches)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	return r.getExecutor(exec).QueryRowContext(ctx, query,
		profile.Name,
		profile.Rating,
		profile.MatchesPlayed,
		profile.ProvisionalMatches,
	).Scan(&profile.ID)
}

func (r *postgresProfileRepository) GetByID(ctx context.Context, id int) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	var p models.Profile
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Rating, &p.MatchesPlayed, &p.ProvisionalMatches)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile by id %d: %w", id, err)
	}
	return &p, nil
}

func (r *postgresProfileRepository) ListByIDs(ctx context.Context, ids []int) ([]models.Profile, error) {
	if len(ids) == 0 {
		return []models.Profile{}, nil
	}
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ANY($1) ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0, len(ids))
	for rows.Next() {
		var p models.Profile
		if scanErr := rows.Scan(&p.ID, &p.Name, &p.Rating, &p.MatchesPlayed, &p.ProvisionalMatches); scanErr != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", scanErr)
		}
		profiles = append(profiles, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during profile rows iteration: %w", err)
	}
	return profiles, nil
}

func (r *postgresProfileRepository) UpdateRating(ctx context.Context, exec SQLExecutor, profile *models.Profile) error {
	query := `UPDATE profiles SET rating = $1, matches_played = $2, provisional_matches = $3 WHERE id = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		profile.Rating,
		profile.MatchesPlayed,
		profile.ProvisionalMatches,
		profile.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rating for profile %d: %w", profile.ID, err)
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}
