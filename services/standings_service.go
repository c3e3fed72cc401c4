package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/flipperliga/league-system/models"
	"github.com/flipperliga/league-system/repositories"
	"github.com/flipperliga/league-system/scoring"
)

// SeasonQuery selects and shapes a season standings request.
type SeasonQuery struct {
	Category      models.TournamentCategory
	Year          int
	Mode          models.SeasonMode
	BestN         int
	Participation float64
}

type StandingsService interface {
	// Live computes the tournament's current table from its match points.
	Live(ctx context.Context, code string) ([]models.StandingRow, error)
	// Season aggregates the finished tournaments of one (category, year).
	Season(ctx context.Context, query SeasonQuery) ([]models.SeasonStandingRow, error)
}

type standingsService struct {
	tournamentRepo  repositories.TournamentRepository
	playerRepo      repositories.PlayerRepository
	matchRepo       repositories.MatchRepository
	matchPlayerRepo repositories.MatchPlayerRepository
	resultRepo      repositories.TournamentResultRepository
}

func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	matchPlayerRepo repositories.MatchPlayerRepository,
	resultRepo repositories.TournamentResultRepository,
) StandingsService {
	return &standingsService{
		tournamentRepo:  tournamentRepo,
		playerRepo:      playerRepo,
		matchRepo:       matchRepo,
		matchPlayerRepo: matchPlayerRepo,
		resultRepo:      resultRepo,
	}
}

func (s *standingsService) Live(ctx context.Context, code string) ([]models.StandingRow, error) {
	tournament, err := s.tournamentRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", code, err)
	}

	players, matches, err := s.loadTournamentData(ctx, tournament.ID)
	if err != nil {
		return nil, err
	}
	return scoring.LiveStandings(players, matches), nil
}

// loadTournamentData fetches the players and the matches with their player
// rows concurrently.
func (s *standingsService) loadTournamentData(ctx context.Context, tournamentID int) ([]models.Player, []models.Match, error) {
	var (
		players      []models.Player
		matches      []*models.Match
		matchPlayers []models.MatchPlayer
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.ListByTournament(gCtx, tournamentID, false)
		if err != nil {
			return fmt.Errorf("failed to load players: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		matchPlayers, err = s.matchPlayerRepo.ListByTournament(gCtx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to load match players: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	attachMatchPlayers(matches, matchPlayers)
	return players, dereferenceMatches(matches), nil
}

func (s *standingsService) Season(ctx context.Context, query SeasonQuery) ([]models.SeasonStandingRow, error) {
	if !query.Mode.IsValid() {
		return nil, ErrInvalidSeasonMode
	}

	tournaments, err := s.tournamentRepo.ListByCategoryYear(ctx, query.Category, query.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to load season tournaments: %w", err)
	}

	contributions := make([]scoring.SeasonTournament, 0, len(tournaments))
	for _, t := range tournaments {
		// Only finished tournaments carry persisted results.
		if t.Status != models.TournamentStatusFinished {
			continue
		}
		contribution, err := s.tournamentContribution(ctx, t)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, contribution)
	}

	return scoring.SeasonStandings(contributions, scoring.SeasonOptions{
		Mode:          query.Mode,
		BestN:         query.BestN,
		Participation: query.Participation,
	}), nil
}

func (s *standingsService) tournamentContribution(ctx context.Context, t *models.Tournament) (scoring.SeasonTournament, error) {
	var (
		results []models.TournamentResult
		players []models.Player
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		results, err = s.resultRepo.ListByTournament(gCtx, t.ID)
		if err != nil {
			return fmt.Errorf("failed to load results for tournament %s: %w", t.Code, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.ListByTournament(gCtx, t.ID, false)
		if err != nil {
			return fmt.Errorf("failed to load players for tournament %s: %w", t.Code, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return scoring.SeasonTournament{}, err
	}

	names := make(map[int]string, len(players))
	for _, p := range players {
		names[p.ID] = p.Name
	}

	contribution := scoring.SeasonTournament{TournamentID: t.ID, Code: t.Code}
	for _, r := range results {
		contribution.Entries = append(contribution.Entries, scoring.SeasonEntry{
			Name:   names[r.PlayerID],
			Points: r.Points,
			Wins:   r.Wins,
		})
	}
	return contribution, nil
}
