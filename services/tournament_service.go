package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flipperliga/league-system/live"
	"github.com/flipperliga/league-system/models"
	"github.com/flipperliga/league-system/repositories"
	"github.com/flipperliga/league-system/scoring"
)

type CreateTournamentInput struct {
	Code       string                    `json:"code"`
	Name       string                    `json:"name"`
	Format     models.TournamentFormat   `json:"format"`
	MatchSize  int                       `json:"match_size"`
	Category   models.TournamentCategory `json:"category"`
	SeasonYear int                       `json:"season_year"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	// GetByCode returns the tournament with its rounds (matches and player
	// rows attached) and players.
	GetByCode(ctx context.Context, code string) (*models.Tournament, error)
	AddPlayer(ctx context.Context, code, name string, profileID *int) (*models.Player, error)
	AddMachine(ctx context.Context, code, name string) (*models.Machine, error)
	// Finish computes and persists the tournament results and marks the
	// tournament finished. Rerunnable: result rows are upserted.
	Finish(ctx context.Context, code string) ([]models.TournamentResult, error)
	Results(ctx context.Context, code string) ([]models.TournamentResult, error)
	// Delete removes the tournament and rolls profile ratings back to their
	// snapshots.
	Delete(ctx context.Context, code string) error
}

type tournamentService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	roundRepo       repositories.RoundRepository
	matchRepo       repositories.MatchRepository
	matchPlayerRepo repositories.MatchPlayerRepository
	playerRepo      repositories.PlayerRepository
	machineRepo     repositories.MachineRepository
	resultRepo      repositories.TournamentResultRepository
	finalRepo       repositories.FinalRepository
	ratingService   RatingService
	hub             *live.Hub
	logger          *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	matchPlayerRepo repositories.MatchPlayerRepository,
	playerRepo repositories.PlayerRepository,
	machineRepo repositories.MachineRepository,
	resultRepo repositories.TournamentResultRepository,
	finalRepo repositories.FinalRepository,
	ratingService RatingService,
	hub *live.Hub,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		roundRepo:       roundRepo,
		matchRepo:       matchRepo,
		matchPlayerRepo: matchPlayerRepo,
		playerRepo:      playerRepo,
		machineRepo:     machineRepo,
		resultRepo:      resultRepo,
		finalRepo:       finalRepo,
		ratingService:   ratingService,
		hub:             hub,
		logger:          logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	input.Code = strings.TrimSpace(input.Code)
	if input.Code == "" {
		return nil, ErrTournamentCodeRequired
	}
	if !input.Format.IsValid() {
		return nil, ErrInvalidFormat
	}
	if input.Format == models.FormatRotation {
		if input.MatchSize < 2 {
			return nil, ErrInvalidMatchSize
		}
	} else if input.MatchSize < 2 || input.MatchSize > 4 {
		return nil, ErrInvalidMatchSize
	}
	if input.Category == "" {
		input.Category = models.CategoryLeague
	}
	if input.SeasonYear == 0 {
		input.SeasonYear = time.Now().Year()
	}

	tournament := &models.Tournament{
		Code:       input.Code,
		Name:       input.Name,
		Format:     input.Format,
		MatchSize:  input.MatchSize,
		Status:     models.TournamentStatusOpen,
		Category:   input.Category,
		SeasonYear: input.SeasonYear,
	}
	if err := s.tournamentRepo.Create(ctx, nil, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentCodeConflict) {
			return nil, ErrTournamentCodeConflict
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	s.logger.InfoContext(ctx, "tournament created",
		slog.String("code", tournament.Code), slog.String("format", string(tournament.Format)))
	return tournament, nil
}

func (s *tournamentService) GetByCode(ctx context.Context, code string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", code, err)
	}

	var (
		rounds       []*models.Round
		players      []models.Player
		matches      []*models.Match
		matchPlayers []models.MatchPlayer
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rounds, err = s.roundRepo.ListByTournament(gCtx, tournament.ID)
		return err
	})
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.ListByTournament(gCtx, tournament.ID, false)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, tournament.ID)
		return err
	})
	g.Go(func() error {
		var err error
		matchPlayers, err = s.matchPlayerRepo.ListByTournament(gCtx, tournament.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load tournament %s details: %w", code, err)
	}

	attachMatchPlayers(matches, matchPlayers)
	byRound := make(map[int][]models.Match, len(rounds))
	for _, m := range matches {
		byRound[m.RoundID] = append(byRound[m.RoundID], *m)
	}
	tournament.Rounds = make([]models.Round, len(rounds))
	for i, r := range rounds {
		r.Matches = byRound[r.ID]
		tournament.Rounds[i] = *r
	}
	tournament.Players = players
	return tournament, nil
}

func (s *tournamentService) AddPlayer(ctx context.Context, code, name string, profileID *int) (*models.Player, error) {
	tournament, err := s.openTournament(ctx, code)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrValidationFailed)
	}
	player := &models.Player{
		TournamentID: tournament.ID,
		Name:         name,
		ProfileID:    profileID,
		Active:       true,
	}
	if err := s.playerRepo.Create(ctx, nil, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerProfileInvalid) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to add player: %w", err)
	}
	return player, nil
}

func (s *tournamentService) AddMachine(ctx context.Context, code, name string) (*models.Machine, error) {
	tournament, err := s.openTournament(ctx, code)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: machine name is required", ErrValidationFailed)
	}
	machine := &models.Machine{
		TournamentID: tournament.ID,
		Name:         name,
		Active:       true,
	}
	if err := s.machineRepo.Create(ctx, nil, machine); err != nil {
		return nil, fmt.Errorf("failed to add machine: %w", err)
	}
	return machine, nil
}

func (s *tournamentService) Finish(ctx context.Context, code string) ([]models.TournamentResult, error) {
	tournament, err := s.tournamentRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", code, err)
	}

	players, err := s.playerRepo.ListByTournament(ctx, tournament.ID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	matches, err := s.matchRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}
	matchPlayers, err := s.matchPlayerRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match players: %w", err)
	}
	attachMatchPlayers(matches, matchPlayers)

	superFinal, err := s.loadFinishedFinal(ctx, tournament.ID)
	if err != nil {
		return nil, err
	}

	results := scoring.ComputeResults(players, dereferenceMatches(matches), superFinal)

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		for i := range results {
			if err := s.resultRepo.Upsert(ctx, tx, &results[i]); err != nil {
				return fmt.Errorf("failed to upsert result for player %d: %w", results[i].PlayerID, err)
			}
		}
		if tournament.Status != models.TournamentStatusFinished {
			if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournament.ID, models.TournamentStatusFinished); err != nil {
				return fmt.Errorf("failed to mark tournament finished: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament finished",
		slog.String("code", tournament.Code), slog.Int("players", len(results)))
	s.hub.BroadcastToRoom(tournament.Code, live.EventTournamentDone, results)
	return results, nil
}

func (s *tournamentService) Results(ctx context.Context, code string) ([]models.TournamentResult, error) {
	tournament, err := s.tournamentRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", code, err)
	}
	results, err := s.resultRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	return results, nil
}

func (s *tournamentService) Delete(ctx context.Context, code string) error {
	tournament, err := s.tournamentRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to load tournament %s: %w", code, err)
	}

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.ratingService.Rollback(ctx, tx, tournament.ID); err != nil {
			return err
		}
		if err := s.tournamentRepo.Delete(ctx, tx, tournament.ID); err != nil {
			return fmt.Errorf("failed to delete tournament: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "tournament deleted", slog.String("code", tournament.Code))
	return nil
}

func (s *tournamentService) openTournament(ctx context.Context, code string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", code, err)
	}
	if tournament.Status == models.TournamentStatusFinished {
		return nil, ErrTournamentFinished
	}
	return tournament, nil
}

// loadFinishedFinal returns the latest final with ranked players attached, or
// nil when the tournament never reached a finished super-final.
func (s *tournamentService) loadFinishedFinal(ctx context.Context, tournamentID int) (*models.Final, error) {
	final, err := s.finalRepo.GetLatestByTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrFinalNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load final: %w", err)
	}
	if final.Status != models.FinalStatusFinished {
		return nil, nil
	}
	final.Players, err = s.finalRepo.ListPlayers(ctx, final.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load final players: %w", err)
	}
	return final, nil
}
