package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/flipperliga/league-system/live"
	"github.com/flipperliga/league-system/models"
	"github.com/flipperliga/league-system/repositories"
)

// finalSeats is how many standings leaders enter the super-final, and the base
// of the seed handicap: seed k starts with max(0, finalSeats-k) points.
const finalSeats = 4

type FinalService interface {
	// Start opens the super-final, seeding the top of the live standings.
	Start(ctx context.Context, code string) (*models.Final, error)
	// AddGame records one game's winner. Reaching the target crowns the
	// champion, ranks the field, finishes the final and the tournament.
	AddGame(ctx context.Context, code string, winnerPlayerID int) (*models.Final, error)
	// State returns the latest final with its players and game log.
	State(ctx context.Context, code string) (*models.Final, error)
}

type finalService struct {
	db                *sql.DB
	tournamentRepo    repositories.TournamentRepository
	playerRepo        repositories.PlayerRepository
	finalRepo         repositories.FinalRepository
	standingsService  StandingsService
	tournamentService TournamentService
	ratingService     RatingService
	hub               *live.Hub
	targetPoints      int
	logger            *slog.Logger
}

func NewFinalService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	finalRepo repositories.FinalRepository,
	standingsService StandingsService,
	tournamentService TournamentService,
	ratingService RatingService,
	hub *live.Hub,
	targetPoints int,
	logger *slog.Logger,
) FinalService {
	return &finalService{
		db:                db,
		tournamentRepo:    tournamentRepo,
		playerRepo:        playerRepo,
		finalRepo:         finalRepo,
		standingsService:  standingsService,
		tournamentService: tournamentService,
		ratingService:     ratingService,
		hub:               hub,
		targetPoints:      targetPoints,
		logger:            logger,
	}
}

func (s *finalService) Start(ctx context.Context, code string) (*models.Final, error) {
	tournament, err := s.openTournament(ctx, code)
	if err != nil {
		return nil, err
	}

	_, err = s.finalRepo.GetOpenByTournament(ctx, tournament.ID)
	if err == nil {
		return nil, ErrFinalAlreadyOpen
	}
	if !errors.Is(err, repositories.ErrFinalNotFound) {
		return nil, fmt.Errorf("failed to check for open final: %w", err)
	}

	standings, err := s.standingsService.Live(ctx, code)
	if err != nil {
		return nil, err
	}

	// Только активные игроки проходят в суперфинал; таблица их не фильтрует.
	activePlayers, err := s.playerRepo.ListByTournament(ctx, tournament.ID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load active players: %w", err)
	}
	activeIDs := make(map[int]bool, len(activePlayers))
	for _, p := range activePlayers {
		activeIDs[p.ID] = true
	}
	eligible := make([]models.StandingRow, 0, finalSeats)
	for _, row := range standings {
		if !activeIDs[row.PlayerID] {
			continue
		}
		eligible = append(eligible, row)
		if len(eligible) == finalSeats {
			break
		}
	}
	if len(eligible) < 2 {
		return nil, ErrFinalNotEnoughPlayers
	}

	final := &models.Final{
		TournamentID: tournament.ID,
		TargetPoints: s.targetPoints,
		Status:       models.FinalStatusOpen,
	}
	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.finalRepo.Create(ctx, tx, final); err != nil {
			return fmt.Errorf("failed to create final: %w", err)
		}
		for i, row := range eligible {
			seed := i + 1
			start := finalSeats - seed
			if start < 0 {
				start = 0
			}
			fp := &models.FinalPlayer{
				FinalID:     final.ID,
				PlayerID:    row.PlayerID,
				Seed:        seed,
				StartPoints: start,
				Points:      start,
			}
			if err := s.finalRepo.CreatePlayer(ctx, tx, fp); err != nil {
				return fmt.Errorf("failed to seat final seed %d: %w", seed, err)
			}
			final.Players = append(final.Players, *fp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "super-final started",
		slog.String("tournament", tournament.Code), slog.Int("players", len(final.Players)))
	s.hub.BroadcastToRoom(tournament.Code, live.EventFinalUpdated, final)
	return final, nil
}

func (s *finalService) AddGame(ctx context.Context, code string, winnerPlayerID int) (*models.Final, error) {
	tournament, err := s.openTournament(ctx, code)
	if err != nil {
		return nil, err
	}

	final, err := s.finalRepo.GetOpenByTournament(ctx, tournament.ID)
	if err != nil {
		if !errors.Is(err, repositories.ErrFinalNotFound) {
			return nil, fmt.Errorf("failed to load open final: %w", err)
		}
		if latest, latestErr := s.finalRepo.GetLatestByTournament(ctx, tournament.ID); latestErr == nil && latest.Status == models.FinalStatusFinished {
			return nil, ErrFinalAlreadyFinished
		}
		return nil, ErrFinalNotFound
	}

	final.Players, err = s.finalRepo.ListPlayers(ctx, final.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load final players: %w", err)
	}
	final.Games, err = s.finalRepo.ListGames(ctx, final.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load final games: %w", err)
	}

	winnerIdx := -1
	for i, fp := range final.Players {
		if fp.PlayerID == winnerPlayerID {
			winnerIdx = i
			break
		}
	}
	if winnerIdx < 0 {
		return nil, ErrPlayerNotInFinal
	}

	game := &models.FinalGame{
		FinalID:        final.ID,
		GameNumber:     len(final.Games) + 1,
		WinnerPlayerID: winnerPlayerID,
	}
	final.Players[winnerIdx].Points++
	champion := final.Players[winnerIdx].Points >= final.TargetPoints

	err = runInTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.finalRepo.AppendGame(ctx, tx, game); err != nil {
			return fmt.Errorf("failed to record final game %d: %w", game.GameNumber, err)
		}
		if err := s.finalRepo.UpdatePlayerPoints(ctx, tx, final.ID, winnerPlayerID, final.Players[winnerIdx].Points); err != nil {
			return fmt.Errorf("failed to update final points: %w", err)
		}
		if !champion {
			return nil
		}

		rankFinalPlayers(final.Players, winnerPlayerID)
		for _, fp := range final.Players {
			if err := s.finalRepo.UpdatePlayerRank(ctx, tx, final.ID, fp.PlayerID, *fp.Rank); err != nil {
				return fmt.Errorf("failed to persist final rank for player %d: %w", fp.PlayerID, err)
			}
		}
		if err := s.finalRepo.UpdateStatus(ctx, tx, final.ID, models.FinalStatusFinished); err != nil {
			return fmt.Errorf("failed to finish final: %w", err)
		}
		if tournament.Category.RatingApplies() {
			if err := s.ratingService.ApplyChampionBonus(ctx, tx, tournament.ID, winnerPlayerID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	final.Games = append(final.Games, *game)

	if champion {
		final.Status = models.FinalStatusFinished
		s.logger.InfoContext(ctx, "super-final decided",
			slog.String("tournament", tournament.Code), slog.Int("champion_player_id", winnerPlayerID))
		if _, err := s.tournamentService.Finish(ctx, code); err != nil {
			return nil, fmt.Errorf("final finished but tournament finalization failed: %w", err)
		}
	}

	s.hub.BroadcastToRoom(tournament.Code, live.EventFinalUpdated, final)
	return final, nil
}

// rankFinalPlayers assigns the champion rank 1 and the rest sequential ranks
// by points descending, seed ascending.
func rankFinalPlayers(players []models.FinalPlayer, championPlayerID int) {
	rest := make([]*models.FinalPlayer, 0, len(players))
	for i := range players {
		if players[i].PlayerID == championPlayerID {
			one := 1
			players[i].Rank = &one
			continue
		}
		rest = append(rest, &players[i])
	}
	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].Points != rest[j].Points {
			return rest[i].Points > rest[j].Points
		}
		return rest[i].Seed < rest[j].Seed
	})
	for i, fp := range rest {
		rank := i + 2
		fp.Rank = &rank
	}
}

func (s *finalService) State(ctx context.Context, code string) (*models.Final, error) {
	tournament, err := s.tournamentRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", code, err)
	}
	final, err := s.finalRepo.GetLatestByTournament(ctx, tournament.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrFinalNotFound) {
			return nil, ErrFinalNotFound
		}
		return nil, fmt.Errorf("failed to load final: %w", err)
	}
	final.Players, err = s.finalRepo.ListPlayers(ctx, final.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load final players: %w", err)
	}
	final.Games, err = s.finalRepo.ListGames(ctx, final.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load final games: %w", err)
	}
	return final, nil
}

func (s *finalService) openTournament(ctx context.Context, code string) (*models.Tournament, error) {
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
