package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flipperliga/league-system/models"
)

var ErrMachineNotFound = errors.New("machine not found")

type MachineRepository interface {
	Create(ctx context.Context, exec SQLExecutor, machine *models.Machine) error
	GetByID(ctx context.Context, id int) (*models.Machine, error)
	ListByTournament(ctx context.Context, tournamentID int, activeOnly bool) ([]models.Machine, error)
}

type postgresMachineRepository struct {
	db *sql.DB
}

func NewPostgresMachineRepository(db *sql.DB) MachineRepository {
	return &postgresMachineRepository{db: db}
}

func (r *postgresMachineRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMachineRepository) Create(ctx context.Context, exec SQLExecutor, machine *models.Machine) error {
	query := `
		INSERT INTO machines (tournament_id, name, active)
		VALUES ($1, $2, $3)
		RETURNING id`
	return r.getExecutor(exec).QueryRowContext(ctx, query,
		machine.TournamentID,
		machine.Name,
		machine.Active,
	).Scan(&machine.ID)
}

func (r *postgresMachineRepository) GetByID(ctx context.Context, id int) (*models.Machine, error) {
	query := `SELECT id, tournament_id, name, active FROM machines WHERE id = $1`
	var m models.Machine
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.TournamentID, &m.Name, &m.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMachineNotFound
		}
		return nil, fmt.Errorf("failed to scan machine by id %d: %w", id, err)
	}
	return &m, nil
}

func (r *postgresMachineRepository) ListByTournament(ctx context.Context, tournamentID int, activeOnly bool) ([]models.Machine, error) {
	query := `SELECT id, tournament_id, name, active FROM machines WHERE tournament_id = $1`
	if activeOnly {
		query += ` AND active = TRUE`
	}
	query += ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query machines for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	machines := make([]models.Machine, 0)
	for rows.Next() {
		var m models.Machine
		if scanErr := rows.Scan(&m.ID, &m.TournamentID, &m.Name, &m.Active); scanErr != nil {
			return nil, fmt.Errorf("failed to scan machine row: %w", scanErr)
		}
		machines = append(machines, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during machine rows iteration: %w", err)
	}
	return machines, nil
}
