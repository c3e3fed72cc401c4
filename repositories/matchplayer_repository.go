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
	ErrMatchPlayerNotFound      = errors.New("match player not found")
	ErrMatchPlayerMatchInvalid  = errors.New("match player match conflict or invalid")
	ErrMatchPlayerPlayerInvalid = errors.New("match player player conflict or invalid")
)

type MatchPlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, mp *models.MatchPlayer) error
	ListByMatch(ctx context.Context, matchID int) ([]models.MatchPlayer, error)
	ListByRound(ctx context.Context, roundID int) ([]models.MatchPlayer, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.MatchPlayer, error)
	UpdatePosition(ctx context.Context, exec SQLExecutor, matchID, playerID int, position *int) error
	UpdateScore(ctx context.Context, exec SQLExecutor, matchID, playerID int, score *int64) error
	UpdateTime(ctx context.Context, exec SQLExecutor, matchID, playerID int, timeMS *int) error
	UpdateStartPosition(ctx context.Context, exec SQLExecutor, matchID, playerID, startPosition int) error
}

type postgresMatchPlayerRepository struct {
	db *sql.DB
}

func NewPostgresMatchPlayerRepository(db *sql.DB) MatchPlayerRepository {
	return &postgresMatchPlayerRepository{db: db}
}

func (r *postgresMatchPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchPlayerColumns = `id, match_id, player_id, position, score, start_position, time_ms`

func (r *postgresMatchPlayerRepository) Create(ctx context.Context, exec SQLExecutor, mp *models.MatchPlayer) error {
	query := `
		INSERT INTO match_players (match_id, player_id, position, score, start_position, time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		mp.MatchID,
		mp.PlayerID,
		mp.Position,
		mp.Score,
		mp.StartPosition,
		mp.TimeMS,
	).Scan(&mp.ID)

	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "match_players_match_id_fkey":
			return ErrMatchPlayerMatchInvalid
		case "match_players_player_id_fkey":
			return ErrMatchPlayerPlayerInvalid
		}
	}
	return err
}

func (r *postgresMatchPlayerRepository) list(ctx context.Context, query string, arg interface{}) ([]models.MatchPlayer, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query match players: %w", err)
	}
	defer rows.Close()

	players := make([]models.MatchPlayer, 0)
	for rows.Next() {
		var mp models.MatchPlayer
		if scanErr := rows.Scan(&mp.ID, &mp.MatchID, &mp.PlayerID, &mp.Position, &mp.Score, &mp.StartPosition, &mp.TimeMS); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match player row: %w", scanErr)
		}
		players = append(players, mp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresMatchPlayerRepository) ListByMatch(ctx context.Context, matchID int) ([]models.MatchPlayer, error) {
	query := `SELECT ` + matchPlayerColumns + ` FROM match_players WHERE match_id = $1 ORDER BY id ASC`
	return r.list(ctx, query, matchID)
}

func (r *postgresMatchPlayerRepository) ListByRound(ctx context.Context, roundID int) ([]models.MatchPlayer, error) {
	query := `
		SELECT mp.id, mp.match_id, mp.player_id, mp.position, mp.score, mp.start_position, mp.time_ms
		FROM match_players mp
		JOIN matches m ON m.id = mp.match_id
		WHERE m.round_id = $1
		ORDER BY m.game_number ASC, mp.id ASC`
	return r.list(ctx, query, roundID)
}

func (r *postgresMatchPlayerRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.MatchPlayer, error) {
	query := `
		SELECT mp.id, mp.match_id, mp.player_id, mp.position, mp.score, mp.start_position, mp.time_ms
		FROM match_players mp
		JOIN matches m ON m.id = mp.match_id
		JOIN rounds r ON r.id = m.round_id
		WHERE r.tournament_id = $1
		ORDER BY r.number ASC, m.game_number ASC, mp.id ASC`
	return r.list(ctx, query, tournamentID)
}

func (r *postgresMatchPlayerRepository) UpdatePosition(ctx context.Context, exec SQLExecutor, matchID, playerID int, position *int) error {
	query := `UPDATE match_players SET position = $1 WHERE match_id = $2 AND player_id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, position, matchID, playerID)
	if err != nil {
		return fmt.Errorf("failed to update position for match %d player %d: %w", matchID, playerID, err)
	}
	return checkAffectedRows(result, ErrMatchPlayerNotFound)
}

func (r *postgresMatchPlayerRepository) UpdateScore(ctx context.Context, exec SQLExecutor, matchID, playerID int, score *int64) error {
	query := `UPDATE match_players SET score = $1 WHERE match_id = $2 AND player_id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, score, matchID, playerID)
	if err != nil {
		return fmt.Errorf("failed to update score for match %d player %d: %w", matchID, playerID, err)
	}
	return checkAffectedRows(result, ErrMatchPlayerNotFound)
}

func (r *postgresMatchPlayerRepository) UpdateTime(ctx context.Context, exec SQLExecutor, matchID, playerID int, timeMS *int) error {
	query := `UPDATE match_players SET time_ms = $1 WHERE match_id = $2 AND player_id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, timeMS, matchID, playerID)
	if err != nil {
		return fmt.Errorf("failed to update time for match %d player %d: %w", matchID, playerID, err)
	}
	return checkAffectedRows(result, ErrMatchPlayerNotFound)
}

func (r *postgresMatchPlayerRepository) UpdateStartPosition(ctx context.Context, exec SQLExecutor, matchID, playerID, startPosition int) error {
	query := `UPDATE match_players SET start_position = $1 WHERE match_id = $2 AND player_id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, startPosition, matchID, playerID)
	if err != nil {
		return fmt.Errorf("failed to update start position for match %d player %d: %w", matchID, playerID, err)
	}
	return checkAffectedRows(result, ErrMatchPlayerNotFound)
}
