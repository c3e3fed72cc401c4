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
	ErrFinalNotFound       = errors.New("final not found")
	ErrFinalPlayerNotFound = errors.New("final player not found")
	ErrFinalGameConflict   = errors.New("final game number already recorded")
)

type FinalRepository interface {
	Create(ctx context.Context, exec SQLExecutor, final *models.Final) error
	GetOpenByTournament(ctx context.Context, tournamentID int) (*models.Final, error)
	GetLatestByTournament(ctx context.Context, tournamentID int) (*models.Final, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.FinalStatus) error

	CreatePlayer(ctx context.Context, exec SQLExecutor, player *models.FinalPlayer) error
	ListPlayers(ctx context.Context, finalID int) ([]models.FinalPlayer, error)
	UpdatePlayerPoints(ctx context.Context, exec SQLExecutor, finalID, playerID, points int) error
	UpdatePlayerRank(ctx context.Context, exec SQLExecutor, finalID, playerID, rank int) error

	AppendGame(ctx context.Context, exec SQLExecutor, game *models.FinalGame) error
	ListGames(ctx context.Context, finalID int) ([]models.FinalGame, error)
}

type postgresFinalRepository struct {
	db *sql.DB
}

func NewPostgresFinalRepository(db *sql.DB) FinalRepository {
	return &postgresFinalRepository{db: db}
}

func (r *postgresFinalRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const finalColumns = `id, tournament_id, target_points, status, created_at`

func (r *postgresFinalRepository) scanFinal(row interface{ Scan(...interface{}) error }) (*models.Final, error) {
	var f models.Final
	err := row.Scan(&f.ID, &f.TournamentID, &f.TargetPoints, &f.Status, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *postgresFinalRepository) Create(ctx context.Context, exec SQLExecutor, final *models.Final) error {
	query := `
		INSERT INTO finals (tournament_id, target_points, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	return r.getExecutor(exec).QueryRowContext(ctx, query,
		final.TournamentID,
		final.TargetPoints,
		final.Status,
	).Scan(&final.ID, &final.CreatedAt)
}

func (r *postgresFinalRepository) GetOpenByTournament(ctx context.Context, tournamentID int) (*models.Final, error) {
	query := `SELECT ` + finalColumns + ` FROM finals WHERE tournament_id = $1 AND status = 'open' ORDER BY id DESC LIMIT 1`
	f, err := r.scanFinal(r.db.QueryRowContext(ctx, query, tournamentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFinalNotFound
		}
		return nil, fmt.Errorf("failed to scan open final for tournament %d: %w", tournamentID, err)
	}
	return f, nil
}

func (r *postgresFinalRepository) GetLatestByTournament(ctx context.Context, tournamentID int) (*models.Final, error) {
	query := `SELECT ` + finalColumns + ` FROM finals WHERE tournament_id = $1 ORDER BY id DESC LIMIT 1`
	f, err := r.scanFinal(r.db.QueryRowContext(ctx, query, tournamentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFinalNotFound
		}
		return nil, fmt.Errorf("failed to scan latest final for tournament %d: %w", tournamentID, err)
	}
	return f, nil
}

func (r *postgresFinalRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.FinalStatus) error {
	query := `UPDATE finals SET status = $1 WHERE id = $2`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update final %d status: %w", id, err)
	}
	return checkAffectedRows(result, ErrFinalNotFound)
}

func (r *postgresFinalRepository) CreatePlayer(ctx context.Context, exec SQLExecutor, player *models.FinalPlayer) error {
	query := `
		INSERT INTO final_players (final_id, player_id, seed, start_points, points)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	return r.getExecutor(exec).QueryRowContext(ctx, query,
		player.FinalID,
		player.PlayerID,
		player.Seed,
		player.StartPoints,
		player.Points,
	).Scan(&player.ID)
}

func (r *postgresFinalRepository) ListPlayers(ctx context.Context, finalID int) ([]models.FinalPlayer, error) {
	query := `
		SELECT id, final_id, player_id, seed, start_points, points, rank
		FROM final_players
		WHERE final_id = $1
		ORDER BY seed ASC`
	rows, err := r.db.QueryContext(ctx, query, finalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query final players for final %d: %w", finalID, err)
	}
	defer rows.Close()

	players := make([]models.FinalPlayer, 0, 4)
	for rows.Next() {
		var fp models.FinalPlayer
		if scanErr := rows.Scan(&fp.ID, &fp.FinalID, &fp.PlayerID, &fp.Seed, &fp.StartPoints, &fp.Points, &fp.Rank); scanErr != nil {
			return nil, fmt.Errorf("failed to scan final player row: %w", scanErr)
		}
		players = append(players, fp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during final player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresFinalRepository) UpdatePlayerPoints(ctx context.Context, exec SQLExecutor, finalID, playerID, points int) error {
	query := `UPDATE final_players SET points = $1 WHERE final_id = $2 AND player_id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, points, finalID, playerID)
	if err != nil {
		return fmt.Errorf("failed to update points for final %d player %d: %w", finalID, playerID, err)
	}
	return checkAffectedRows(result, ErrFinalPlayerNotFound)
}

func (r *postgresFinalRepository) UpdatePlayerRank(ctx context.Context, exec SQLExecutor, finalID, playerID, rank int) error {
	query := `UPDATE final_players SET rank = $1 WHERE final_id = $2 AND player_id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, rank, finalID, playerID)
	if err != nil {
		return fmt.Errorf("failed to update rank for final %d player %d: %w", finalID, playerID, err)
	}
	return checkAffectedRows(result, ErrFinalPlayerNotFound)
}

func (r *postgresFinalRepository) AppendGame(ctx context.Context, exec SQLExecutor, game *models.FinalGame) error {
	query := `
		INSERT INTO final_games (final_id, game_number, winner_player_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		game.FinalID,
		game.GameNumber,
		game.WinnerPlayerID,
	).Scan(&game.ID, &game.CreatedAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "final_games_final_id_game_number_key" {
		return ErrFinalGameConflict
	}
	return err
}

func (r *postgresFinalRepository) ListGames(ctx context.Context, finalID int) ([]models.FinalGame, error) {
	query := `
		SELECT id, final_id, game_number, winner_player_id, created_at
		FROM final_games
		WHERE final_id = $1
		ORDER BY game_number ASC`
	rows, err := r.db.QueryContext(ctx, query, finalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query final games for final %d: %w", finalID, err)
	}
	defer rows.Close()

	games := make([]models.FinalGame, 0)
	for rows.Next() {
		var g models.FinalGame
		if scanErr := rows.Scan(&g.ID, &g.FinalID, &g.GameNumber, &g.WinnerPlayerID, &g.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("failed to scan final game row: %w", scanErr)
		}
		games = append(games, g)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during final game rows iteration: %w", err)
	}
	return games, nil
}
