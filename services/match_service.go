package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flipperliga/league-system/completion"
	"github.com/flipperliga/league-system/live"
	"github.com/flipperliga/league-system/models"
	"github.com/flipperliga/league-system/repositories"
)

// MatchUpdate is the outcome of a result write: the match after the cascade,
// the derived round status, and whether the round close was held back by an
// unfinished earlier round. Gated is informational, not an error.
type MatchUpdate struct {
	Match         *models.Match      `json:"match"`
	RoundStatus   models.RoundStatus `json:"round_status"`
	Gated         bool               `json:"gated"`
	RatingApplied bool               `json:"rating_applied"`
}

type MatchService interface {
	GetMatch(ctx context.Context, id int) (*models.Match, error)
	// SetPosition writes or clears (nil) one player's placement and runs the
	// completion cascade in both directions.
	SetPosition(ctx context.Context, matchID, playerID int, position *int) (*MatchUpdate, error)
	SetScore(ctx context.Context, matchID, playerID int, score *int64) (*models.Match, error)
	SetTime(ctx context.Context, matchID, playerID int, timeMS *int) (*models.Match, error)
	// SetStartOrder reseats the match in the given player order. Rejected once
	// any result exists.
	SetStartOrder(ctx context.Context, matchID int, playerIDs []int) (*models.Match, error)
	// SubmitMatchResult writes the full placement map in one cascade.
	SubmitMatchResult(ctx context.Context, matchID int, positions map[int]int) (*MatchUpdate, error)
}

type matchService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	roundRepo       repositories.RoundRepository
	matchRepo       repositories.MatchRepository
	matchPlayerRepo repositories.MatchPlayerRepository
	ratingService   RatingService
	hub             *live.Hub
	logger          *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	matchPlayerRepo repositories.MatchPlayerRepository,
	ratingService RatingService,
	hub *live.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		roundRepo:       roundRepo,
		matchRepo:       matchRepo,
		matchPlayerRepo: matchPlayerRepo,
		ratingService:   ratingService,
		hub:             hub,
		logger:          logger,
	}
}

// matchContext is everything a write needs: the match with its player rows and
// the round and tournament it belongs to.
type matchContext struct {
	tournament *models.Tournament
	round      *models.Round
	match      *models.Match
}

func (s *matchService) loadContext(ctx context.Context, matchID int) (*matchContext, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	players, err := s.matchPlayerRepo.ListByMatch(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load players for match %d: %w", matchID, err)
	}
	match.Players = players

	round, err := s.roundRepo.GetByID(ctx, match.RoundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load round %d: %w", match.RoundID, err)
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, round.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament %d: %w", round.TournamentID, err)
	}
	return &matchContext{tournament: tournament, round: round, match: match}, nil
}

func (mc *matchContext) playerIndex(playerID int) int {
	for i, mp := range mc.match.Players {
		if mp.PlayerID == playerID {
			return i
		}
	}
	return -1
}

func (s *matchService) GetMatch(ctx context.Context, id int) (*models.Match, error) {
	mc, err := s.loadContext(ctx, id)
	if err != nil {
		return nil, err
	}
	return mc.match, nil
}

func (s *matchService) SetPosition(ctx context.Context, matchID, playerID int, position *int) (*MatchUpdate, error) {
	mc, err := s.loadContext(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if mc.tournament.Status == models.TournamentStatusFinished {
		return nil, ErrTournamentFinished
	}
	if mc.playerIndex(playerID) < 0 {
		return nil, ErrPlayerNotInMatch
	}
	if position != nil && (*position < 1 || *position > len(mc.match.Players)) {
		return nil, ErrInvalidPosition
	}
	return s.applyPositions(ctx, mc, map[int]*int{playerID: position})
}

func (s *matchService) SubmitMatchResult(ctx context.Context, matchID int, positions map[int]int) (*MatchUpdate, error) {
	mc, err := s.loadContext(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if mc.tournament.Status == models.TournamentStatusFinished {
		return nil, ErrTournamentFinished
	}
	for playerID := range positions {
		if mc.playerIndex(playerID) < 0 {
			return nil, ErrPlayerNotInMatch
		}
	}
	if len(positions) != len(mc.match.Players) {
		return nil, fmt.Errorf("%w: a full result must place every player of the match", ErrValidationFailed)
	}
	updates := make(map[int]*int, len(positions))
	for playerID, position := range positions {
		if position < 1 || position > len(mc.match.Players) {
			return nil, ErrInvalidPosition
		}
		p := position
		updates[playerID] = &p
	}
	return s.applyPositions(ctx, mc, updates)
}

// applyPositions writes the position updates and runs the completion cascade:
// derive the match status, derive the round status (with the elimination
// head-count rule and the previous-round gate), persist what changed, and
// apply ratings on the open -> finished transition. One transaction.
func (s *matchService) applyPositions(ctx context.Context, mc *matchContext, updates map[int]*int) (*MatchUpdate, error) {
	previousMatchStatus := mc.match.Status
	for playerID, position := range updates {
		mc.match.Players[mc.playerIndex(playerID)].Position = position
	}
	newMatchStatus := completion.DeriveMatchStatus(mc.match.Players)

	snapshot, err := s.roundSnapshot(ctx, mc)
	if err != nil {
		return nil, err
	}
	newRoundStatus := completion.DeriveRoundStatus(*snapshot)

	gated := false
	if newRoundStatus == models.RoundStatusFinished &&
		completion.GateRequiresPreviousRound(mc.round.Format, mc.round.Number) {
		finished, err := s.previousRoundFinished(ctx, mc)
		if err != nil {
			return nil, err
		}
		if !finished {
			gated = true
			newRoundStatus = models.RoundStatusOpen
		}
	}

	ratingApplied := false
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		for playerID, position := range updates {
			if err := s.matchPlayerRepo.UpdatePosition(ctx, tx, mc.match.ID, playerID, position); err != nil {
				if errors.Is(err, repositories.ErrMatchPlayerNotFound) {
					return ErrPlayerNotInMatch
				}
				return fmt.Errorf("failed to update position for player %d: %w", playerID, err)
			}
		}
		if newMatchStatus != previousMatchStatus {
			if err := s.matchRepo.UpdateStatus(ctx, tx, mc.match.ID, newMatchStatus); err != nil {
				return fmt.Errorf("failed to update match status: %w", err)
			}
		}
		if newRoundStatus != mc.round.Status {
			if err := s.roundRepo.UpdateStatus(ctx, tx, mc.round.ID, newRoundStatus); err != nil {
				return fmt.Errorf("failed to update round status: %w", err)
			}
		}
		if newMatchStatus == models.MatchStatusFinished && previousMatchStatus != models.MatchStatusFinished &&
			mc.round.EloEnabled && mc.tournament.Category.RatingApplies() {
			if err := s.ratingService.ApplyMatch(ctx, tx, mc.tournament.ID, mc.match.Players); err != nil {
				return fmt.Errorf("failed to apply match ratings: %w", err)
			}
			ratingApplied = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	mc.match.Status = newMatchStatus
	mc.round.Status = newRoundStatus

	s.hub.BroadcastToRoom(mc.tournament.Code, live.EventMatchUpdated, mc.match)
	s.hub.BroadcastToRoom(mc.tournament.Code, live.EventStandingsChanged, map[string]int{"tournament_id": mc.tournament.ID})

	return &MatchUpdate{
		Match:         mc.match,
		RoundStatus:   newRoundStatus,
		Gated:         gated,
		RatingApplied: ratingApplied,
	}, nil
}

// roundSnapshot assembles the round's matches (with this match's in-memory
// player rows patched in) plus the bracket context elimination rounds need.
func (s *matchService) roundSnapshot(ctx context.Context, mc *matchContext) (*completion.RoundSnapshot, error) {
	matches, err := s.matchRepo.ListByRound(ctx, mc.round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches for round %d: %w", mc.round.ID, err)
	}
	matchPlayers, err := s.matchPlayerRepo.ListByRound(ctx, mc.round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match players for round %d: %w", mc.round.ID, err)
	}
	attachMatchPlayers(matches, matchPlayers)
	for _, m := range matches {
		if m.ID == mc.match.ID {
			m.Players = mc.match.Players
		}
	}

	snapshot := &completion.RoundSnapshot{
		Format:  mc.round.Format,
		Matches: dereferenceMatches(matches),
	}
	if mc.round.Format == models.FormatElimination {
		startPlayers, err := s.bracketStartPlayers(ctx, mc, snapshot.Matches)
		if err != nil {
			return nil, err
		}
		snapshot.BracketStartPlayers = startPlayers
		snapshot.BracketRoundIndex = mc.round.Number
	}
	return snapshot, nil
}

// bracketStartPlayers counts the distinct players of the bracket's first
// round. For round one that is the current (patched) snapshot itself.
func (s *matchService) bracketStartPlayers(ctx context.Context, mc *matchContext, currentMatches []models.Match) (int, error) {
	var players []models.MatchPlayer
	if mc.round.Number == 1 {
		for _, m := range currentMatches {
			players = append(players, m.Players...)
		}
	} else {
		first, err := s.roundRepo.GetByTournamentAndNumber(ctx, mc.tournament.ID, 1)
		if err != nil {
			return 0, fmt.Errorf("failed to load first bracket round: %w", err)
		}
		players, err = s.matchPlayerRepo.ListByRound(ctx, first.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to load first bracket round players: %w", err)
		}
	}
	distinct := make(map[int]struct{}, len(players))
	for _, mp := range players {
		distinct[mp.PlayerID] = struct{}{}
	}
	return len(distinct), nil
}

func (s *matchService) previousRoundFinished(ctx context.Context, mc *matchContext) (bool, error) {
	previous, err := s.roundRepo.GetByTournamentAndNumber(ctx, mc.tournament.ID, mc.round.Number-1)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return true, nil
		}
		return false, fmt.Errorf("failed to load previous round: %w", err)
	}
	return previous.Status == models.RoundStatusFinished, nil
}

func (s *matchService) SetScore(ctx context.Context, matchID, playerID int, score *int64) (*models.Match, error) {
	mc, err := s.loadContext(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if mc.tournament.Status == models.TournamentStatusFinished {
		return nil, ErrTournamentFinished
	}
	idx := mc.playerIndex(playerID)
	if idx < 0 {
		return nil, ErrPlayerNotInMatch
	}
	if score != nil && *score < 0 {
		return nil, ErrInvalidScore
	}
	if err := s.matchPlayerRepo.UpdateScore(ctx, nil, matchID, playerID, score); err != nil {
		if errors.Is(err, repositories.ErrMatchPlayerNotFound) {
			return nil, ErrPlayerNotInMatch
		}
		return nil, fmt.Errorf("failed to update score: %w", err)
	}
	mc.match.Players[idx].Score = score
	s.hub.BroadcastToRoom(mc.tournament.Code, live.EventMatchUpdated, mc.match)
	return mc.match, nil
}

func (s *matchService) SetTime(ctx context.Context, matchID, playerID int, timeMS *int) (*models.Match, error) {
	mc, err := s.loadContext(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if mc.tournament.Status == models.TournamentStatusFinished {
		return nil, ErrTournamentFinished
	}
	idx := mc.playerIndex(playerID)
	if idx < 0 {
		return nil, ErrPlayerNotInMatch
	}
	if timeMS != nil && *timeMS < 0 {
		return nil, ErrInvalidTime
	}
	if err := s.matchPlayerRepo.UpdateTime(ctx, nil, matchID, playerID, timeMS); err != nil {
		if errors.Is(err, repositories.ErrMatchPlayerNotFound) {
			return nil, ErrPlayerNotInMatch
		}
		return nil, fmt.Errorf("failed to update time: %w", err)
	}
	mc.match.Players[idx].TimeMS = timeMS
	s.hub.BroadcastToRoom(mc.tournament.Code, live.EventMatchUpdated, mc.match)
	return mc.match, nil
}

func (s *matchService) SetStartOrder(ctx context.Context, matchID int, playerIDs []int) (*models.Match, error) {
	mc, err := s.loadContext(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if mc.tournament.Status == models.TournamentStatusFinished {
		return nil, ErrTournamentFinished
	}
	if completion.StartOrderLocked(mc.match.Players) {
		return nil, ErrStartOrderLocked
	}
	if len(playerIDs) != len(mc.match.Players) {
		return nil, fmt.Errorf("%w: start order must list every player of the match exactly once", ErrValidationFailed)
	}
	seen := make(map[int]bool, len(playerIDs))
	for _, playerID := range playerIDs {
		if mc.playerIndex(playerID) < 0 {
			return nil, ErrPlayerNotInMatch
		}
		if seen[playerID] {
			return nil, fmt.Errorf("%w: start order must list every player of the match exactly once", ErrValidationFailed)
		}
		seen[playerID] = true
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		for i, playerID := range playerIDs {
			if err := s.matchPlayerRepo.UpdateStartPosition(ctx, tx, matchID, playerID, i+1); err != nil {
				return fmt.Errorf("failed to reseat player %d: %w", playerID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, playerID := range playerIDs {
		start := i + 1
		mc.match.Players[mc.playerIndex(playerID)].StartPosition = &start
	}
	s.hub.BroadcastToRoom(mc.tournament.Code, live.EventMatchUpdated, mc.match)
	return mc.match, nil
}
