// Package completion holds the match/round completion rules as pure functions
// over in-memory snapshots, so the cascade is testable without a database.
package completion

import "github.com/flipperliga/league-system/models"

// DeriveMatchStatus returns finished exactly when every player row of the
// match has a position. Clearing a position flips the match back to open.
func DeriveMatchStatus(players []models.MatchPlayer) models.MatchStatus {
	if len(players) == 0 {
		return models.MatchStatusOpen
	}
	for _, mp := range players {
		if mp.Position == nil {
			return models.MatchStatusOpen
		}
	}
	return models.MatchStatusFinished
}

// RoundSnapshot is everything the round rule needs: the round's matches with
// their player rows, plus bracket context for elimination rounds.
type RoundSnapshot struct {
	Format  models.TournamentFormat
	Matches []models.Match

	// Elimination only: distinct players in the bracket's first round, and
	// this round's 1-indexed position within the bracket.
	BracketStartPlayers int
	BracketRoundIndex   int
}

// ExpectedEliminationPlayers is the distinct-player head count a bracket round
// must have before it can close: one player drops per round, floored at two.
func ExpectedEliminationPlayers(startPlayers, roundIndex int) int {
	expected := startPlayers - (roundIndex - 1)
	if expected < 2 {
		return 2
	}
	return expected
}

// DeriveRoundStatus applies the format-dependent round finishing rule.
// Default: finished iff every match is finished. Elimination additionally
// requires the round's distinct player count to match the bracket's expected
// survivor count and every player row to carry a position.
func DeriveRoundStatus(snap RoundSnapshot) models.RoundStatus {
	if len(snap.Matches) == 0 {
		return models.RoundStatusOpen
	}
	for _, m := range snap.Matches {
		if DeriveMatchStatus(m.Players) != models.MatchStatusFinished {
			return models.RoundStatusOpen
		}
	}

	if snap.Format == models.FormatElimination {
		distinct := make(map[int]struct{})
		for _, m := range snap.Matches {
			for _, mp := range m.Players {
				if mp.Position == nil {
					return models.RoundStatusOpen
				}
				distinct[mp.PlayerID] = struct{}{}
			}
		}
		if len(distinct) != ExpectedEliminationPlayers(snap.BracketStartPlayers, snap.BracketRoundIndex) {
			return models.RoundStatusOpen
		}
	}
	return models.RoundStatusFinished
}

// GateRequiresPreviousRound reports whether a round-close cascade for the
// given round number must wait for the preceding round to finish. Elimination
// and rotation carry their own structural constraints and are exempt.
func GateRequiresPreviousRound(format models.TournamentFormat, roundNumber int) bool {
	if roundNumber <= 1 {
		return false
	}
	switch format {
	case models.FormatElimination, models.FormatRotation:
		return false
	}
	return true
}

// StartOrderLocked reports whether the match already holds any result, which
// forbids reordering start positions.
func StartOrderLocked(players []models.MatchPlayer) bool {
	for _, mp := range players {
		if mp.HasResult() {
			return true
		}
	}
	return false
}

// CurrentRound picks the round results should be entered into: the latest
// round that is still open, or the latest round overall if all are finished.
// Returns nil when the tournament has no rounds yet.
func CurrentRound(rounds []models.Round) *models.Round {
	var latest, latestOpen *models.Round
	for i := range rounds {
		r := &rounds[i]
		if latest == nil || r.Number > latest.Number {
			latest = r
		}
		if r.Status != models.RoundStatusFinished && (latestOpen == nil || r.Number > latestOpen.Number) {
			latestOpen = r
		}
	}
	if latestOpen != nil {
		return latestOpen
	}
	return latest
}
