package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/flipperliga/league-system/models"
)

// runInTx wraps fn in a transaction with the usual rollback-on-error and
// rollback-on-panic handling. Every multi-step cascade (position write ->
// match status -> round status, finalize, rating replay) goes through here so
// concurrent writers never observe a half-applied cascade.
func runInTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
			}
			return
		}
		if cErr := tx.Commit(); cErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()
	return fn(tx)
}

// attachMatchPlayers distributes player rows onto their matches, preserving
// the input order of both slices.
func attachMatchPlayers(matches []*models.Match, players []models.MatchPlayer) {
	byMatch := make(map[int][]models.MatchPlayer, len(matches))
	for _, mp := range players {
		byMatch[mp.MatchID] = append(byMatch[mp.MatchID], mp)
	}
	for _, m := range matches {
		m.Players = byMatch[m.ID]
	}
}

// dereferenceMatches flattens the pointer slices the repositories return.
func dereferenceMatches(matches []*models.Match) []models.Match {
	result := make([]models.Match, len(matches))
	for i, m := range matches {
		if m != nil {
			result[i] = *m
		}
	}
	return result
}
