package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flipperliga/league-system/models"
	"github.com/lib/pq"
)

var (
	ErrPlayerNotFound          = errors.New("player not found")
	ErrPlayerTournamentInvalid = errors.New("player tournament conflict or invalid")
	ErrPlayerProfileInvalid    = errors.New("player profile conflict or invalid")
)

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	ListByTournament(ctx context.Context, tournamentID int, activeOnly bool) ([]models.Player, error)
	UpdateActive(ctx context.Context, exec SQLExecutor, id int, active bool) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playerColumns = `id, tournament_id, name, profile_id, active`

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		INSERT INTO players (tournament_id, name, profile_id, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		player.TournamentID,
		player.Name,
		player.ProfileID,
		player.Active,
	).Scan(&player.ID)

	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "players_tournament_id_fkey":
			return ErrPlayerTournamentInvalid
		case "players_profile_id_fkey":
			return ErrPlayerProfileInvalid
		}
	}
	return err
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`
	var p models.Player
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.TournamentID, &p.Name, &p.ProfileID, &p.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player by id %d: %w", id, err)
	}
	return &p, nil
}

func (r *postgresPlayerRepository) ListByTournament(ctx context.Context, tournamentID int, activeOnly bool) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE tournament_id = $1`
	if activeOnly {
		query += ` AND active = TRUE`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if scanErr := rows.Scan(&p.ID, &p.TournamentID, &p.Name, &p.ProfileID, &p.Active); scanErr != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", scanErr)
		}
		players = append(players, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) UpdateActive(ctx context.Context, exec SQLExecutor, id int, active bool) error {
	query := `UPDATE players SET active = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("failed to update player %d active flag: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
