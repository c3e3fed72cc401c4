package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flipperliga/league-system/live"
	"github.com/flipperliga/league-system/models"
	"github.com/flipperliga/league-system/pairing"
	"github.com/flipperliga/league-system/repositories"
)

type RoundService interface {
	// CreateRound generates the next round's matches from the tournament's
	// active players and machines. Returned warnings are non-fatal (a group
	// left without a machine).
	CreateRound(ctx context.Context, code string) (*models.Round, []string, error)
	GetRound(ctx context.Context, id int) (*models.Round, error)
	ListRounds(ctx context.Context, code string) ([]*models.Round, error)
}

type roundService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	roundRepo       repositories.RoundRepository
	matchRepo       repositories.MatchRepository
	matchPlayerRepo repositories.MatchPlayerRepository
	playerRepo      repositories.PlayerRepository
	machineRepo     repositories.MachineRepository
	generator       *pairing.Generator
	hub             *live.Hub
	logger          *slog.Logger
}

func NewRoundService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	matchPlayerRepo repositories.MatchPlayerRepository,
	playerRepo repositories.PlayerRepository,
	machineRepo repositories.MachineRepository,
	generator *pairing.Generator,
	hub *live.Hub,
	logger *slog.Logger,
) RoundService {
	return &roundService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		roundRepo:       roundRepo,
		matchRepo:       matchRepo,
		matchPlayerRepo: matchPlayerRepo,
		playerRepo:      playerRepo,
		machineRepo:     machineRepo,
		generator:       generator,
		hub:             hub,
		logger:          logger,
	}
}

func (s *roundService) CreateRound(ctx context.Context, code string) (*models.Round, []string, error) {
	tournament, err := s.tournamentRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, nil, ErrTournamentNotFound
		}
		return nil, nil, fmt.Errorf("failed to load tournament %s: %w", code, err)
	}
	if tournament.Status == models.TournamentStatusFinished {
		return nil, nil, ErrTournamentFinished
	}

	players, err := s.playerRepo.ListByTournament(ctx, tournament.ID, true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load active players: %w", err)
	}
	if len(players) < 2 {
		return nil, nil, ErrNotEnoughActivePlayers
	}

	machines, err := s.machineRepo.ListByTournament(ctx, tournament.ID, true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load active machines: %w", err)
	}
	if len(machines) == 0 {
		return nil, nil, ErrNoActiveMachines
	}

	history := s.buildHistory(ctx, tournament)

	result, err := s.generator.Generate(pairing.Input{
		Format:     tournament.Format,
		TargetSize: tournament.MatchSize,
		Players:    players,
		Machines:   machines,
		History:    history,
	})
	if err != nil {
		if errors.Is(err, pairing.ErrNotEnoughPlayers) {
			return nil, nil, ErrNotEnoughActivePlayers
		}
		return nil, nil, fmt.Errorf("failed to generate pairings: %w", err)
	}

	existing, err := s.roundRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load rounds: %w", err)
	}

	round := &models.Round{
		TournamentID: tournament.ID,
		Number:       len(existing) + 1,
		Format:       tournament.Format,
		Status:       models.RoundStatusOpen,
		EloEnabled:   tournament.Category.RatingApplies(),
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.roundRepo.Create(ctx, tx, round); err != nil {
			return fmt.Errorf("failed to create round: %w", err)
		}
		for i, group := range result.Groups {
			match := &models.Match{
				RoundID:    round.ID,
				MachineID:  group.MachineID,
				Status:     models.MatchStatusOpen,
				GameNumber: i + 1,
			}
			if err := s.matchRepo.Create(ctx, tx, match); err != nil {
				return fmt.Errorf("failed to create match %d: %w", i+1, err)
			}
			// Порядок старта не назначается при жеребьёвке, его задают позже
			// отдельной операцией.
			for _, player := range group.Players {
				mp := &models.MatchPlayer{
					MatchID:  match.ID,
					PlayerID: player.ID,
				}
				if err := s.matchPlayerRepo.Create(ctx, tx, mp); err != nil {
					return fmt.Errorf("failed to seat player %d: %w", player.ID, err)
				}
				match.Players = append(match.Players, *mp)
			}
			round.Matches = append(round.Matches, *match)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.hub.BroadcastToRoom(tournament.Code, live.EventRoundCreated, round)
	return round, result.Warnings, nil
}

// buildHistory collects the swiss seeding points and the machine play history.
// A failed load is not fatal: seeding degrades to a shuffle and machine
// balancing starts from scratch, both logged.
func (s *roundService) buildHistory(ctx context.Context, tournament *models.Tournament) pairing.History {
	history := pairing.History{
		SeedPoints:   make(map[int]int),
		MachinePlays: make(map[int]map[int]bool),
	}

	matches, err := s.matchRepo.ListByTournament(ctx, tournament.ID)
	if err == nil {
		var matchPlayers []models.MatchPlayer
		matchPlayers, err = s.matchPlayerRepo.ListByTournament(ctx, tournament.ID)
		if err == nil {
			machineByMatch := make(map[int]*int, len(matches))
			for _, m := range matches {
				machineByMatch[m.ID] = m.MachineID
			}
			for _, mp := range matchPlayers {
				if mp.Position != nil {
					history.SeedPoints[mp.PlayerID] += pairing.SeedPointsFor(*mp.Position)
				}
				if machineID := machineByMatch[mp.MatchID]; machineID != nil {
					if history.MachinePlays[mp.PlayerID] == nil {
						history.MachinePlays[mp.PlayerID] = make(map[int]bool)
					}
					history.MachinePlays[mp.PlayerID][*machineID] = true
				}
			}
		}
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to load pairing history, falling back to shuffle",
			slog.String("tournament", tournament.Code), slog.Any("error", err))
		history.SeedPointsFailed = true
		history.MachinePlays = make(map[int]map[int]bool)
	}
	return history
}

func (s *roundService) GetRound(ctx context.Context, id int) (*models.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to load round %d: %w", id, err)
	}
	matches, err := s.matchRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches for round %d: %w", id, err)
	}
	matchPlayers, err := s.matchPlayerRepo.ListByRound(ctx, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match players for round %d: %w", id, err)
	}
	attachMatchPlayers(matches, matchPlayers)
	round.Matches = dereferenceMatches(matches)
	return round, nil
}

func (s *roundService) ListRounds(ctx context.Context, code string) ([]*models.Round, error) {
	tournament, err := s.tournamentRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", code, err)
	}
	rounds, err := s.roundRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rounds: %w", err)
	}
	return rounds, nil
}
