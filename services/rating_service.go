package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/singleflight"

	"github.com/flipperliga/league-system/completion"
	"github.com/flipperliga/league-system/elo"
	"github.com/flipperliga/league-system/models"
	"github.com/flipperliga/league-system/repositories"
)

// ChampionRatingBonus прибавляется к рейтингу победителя суперфинала.
const ChampionRatingBonus = 8.0

type RatingService interface {
	// ApplyMatch moves profile ratings for one freshly finished match. Must be
	// called inside the same transaction that finished the match. Players
	// without a linked profile are skipped.
	ApplyMatch(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, matchPlayers []models.MatchPlayer) error

	// ApplyChampionBonus grants the super-final winner's profile its flat
	// rating bonus, inside the caller's transaction.
	ApplyChampionBonus(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID int) error

	// Recalc resets every profile touched by the tournament back to its
	// snapshot and replays all finished elo-enabled matches in round order.
	// Concurrent calls for the same tournament collapse into one run.
	Recalc(ctx context.Context, code string) error

	// Rollback restores snapshotted profiles and drops the snapshots, inside
	// the caller's transaction. Used when a tournament is deleted.
	Rollback(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error
}

type ratingService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	roundRepo       repositories.RoundRepository
	matchRepo       repositories.MatchRepository
	matchPlayerRepo repositories.MatchPlayerRepository
	playerRepo      repositories.PlayerRepository
	profileRepo     repositories.ProfileRepository
	ratingRepo      repositories.TournamentRatingRepository
	finalRepo       repositories.FinalRepository
	schedule        elo.Schedule
	recalcGroup     singleflight.Group
	logger          *slog.Logger
}

func NewRatingService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	matchPlayerRepo repositories.MatchPlayerRepository,
	playerRepo repositories.PlayerRepository,
	profileRepo repositories.ProfileRepository,
	ratingRepo repositories.TournamentRatingRepository,
	finalRepo repositories.FinalRepository,
	schedule elo.Schedule,
	logger *slog.Logger,
) RatingService {
	return &ratingService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		roundRepo:       roundRepo,
		matchRepo:       matchRepo,
		matchPlayerRepo: matchPlayerRepo,
		playerRepo:      playerRepo,
		profileRepo:     profileRepo,
		ratingRepo:      ratingRepo,
		finalRepo:       finalRepo,
		schedule:        schedule,
		logger:          logger,
	}
}

func (s *ratingService) ApplyMatch(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, matchPlayers []models.MatchPlayer) error {
	profiles, participants, err := s.loadParticipants(ctx, matchPlayers)
	if err != nil {
		return err
	}
	if len(participants) < 2 {
		// Ничего пересчитывать: меньше двух игроков с профилем.
		return nil
	}

	for _, p := range profiles {
		if err := s.ensureSnapshot(ctx, exec, tournamentID, p); err != nil {
			return err
		}
	}

	deltas := elo.MatchDeltas(participants, s.schedule)
	for _, d := range deltas {
		profile := profiles[d.ProfileID]
		profile.Rating += d.Change
		profile.MatchesPlayed++
		if profile.ProvisionalMatches > 0 {
			profile.ProvisionalMatches--
		}
		if err := s.profileRepo.UpdateRating(ctx, exec, profile); err != nil {
			return fmt.Errorf("failed to update rating for profile %d: %w", d.ProfileID, err)
		}
	}
	return nil
}

func (s *ratingService) ApplyChampionBonus(ctx context.Context, exec repositories.SQLExecutor, tournamentID, playerID int) error {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to load champion player %d: %w", playerID, err)
	}
	if player.ProfileID == nil {
		return nil
	}
	profile, err := s.profileRepo.GetByID(ctx, *player.ProfileID)
	if err != nil {
		return fmt.Errorf("failed to load champion profile %d: %w", *player.ProfileID, err)
	}
	if err := s.ensureSnapshot(ctx, exec, tournamentID, profile); err != nil {
		return err
	}
	profile.Rating += ChampionRatingBonus
	if err := s.profileRepo.UpdateRating(ctx, exec, profile); err != nil {
		return fmt.Errorf("failed to apply champion bonus to profile %d: %w", profile.ID, err)
	}
	return nil
}

func (s *ratingService) Recalc(ctx context.Context, code string) error {
	_, err, _ := s.recalcGroup.Do(code, func() (interface{}, error) {
		return nil, s.recalc(ctx, code)
	})
	return err
}

// recalc rebuilds every touched profile from its snapshot. The replay works on
// an in-memory copy of the profiles, so half-applied states are never visible:
// the transaction writes only the end result.
func (s *ratingService) recalc(ctx context.Context, code string) error {
	tournament, err := s.tournamentRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to load tournament %s: %w", code, err)
	}

	snapshots, err := s.ratingRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return fmt.Errorf("failed to load rating snapshots: %w", err)
	}

	states := make(map[int]*models.Profile, len(snapshots))
	for _, snap := range snapshots {
		profile, err := s.profileRepo.GetByID(ctx, snap.ProfileID)
		if err != nil {
			return fmt.Errorf("failed to load profile %d: %w", snap.ProfileID, err)
		}
		profile.Rating = snap.RatingBefore
		profile.MatchesPlayed = snap.MatchesBefore
		profile.ProvisionalMatches = snap.ProvisionalBefore
		states[profile.ID] = profile
	}

	if tournament.Category.RatingApplies() {
		if err := s.replayMatches(ctx, tournament.ID, states); err != nil {
			return err
		}
		if err := s.replayChampionBonus(ctx, tournament.ID, states); err != nil {
			return err
		}
	}

	return runInTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, profile := range states {
			if err := s.profileRepo.UpdateRating(ctx, tx, profile); err != nil {
				return fmt.Errorf("failed to write recalculated profile %d: %w", profile.ID, err)
			}
		}
		return nil
	})
}

// replayMatches applies every finished match of every finished elo-enabled
// round, in round number order and match id order within a round, against the
// in-memory profile states. Matches in rounds still open (including gated
// ones) are excluded until the round closes; the replay is the repair path and
// must be derivable from settled state alone.
func (s *ratingService) replayMatches(ctx context.Context, tournamentID int, states map[int]*models.Profile) error {
	rounds, err := s.roundRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to load rounds: %w", err)
	}

	playerProfiles, err := s.playerProfileIndex(ctx, tournamentID)
	if err != nil {
		return err
	}

	for _, round := range rounds {
		if !round.EloEnabled || round.Status != models.RoundStatusFinished {
			continue
		}
		matches, err := s.matchRepo.ListByRound(ctx, round.ID)
		if err != nil {
			return fmt.Errorf("failed to load matches for round %d: %w", round.ID, err)
		}
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

		matchPlayers, err := s.matchPlayerRepo.ListByRound(ctx, round.ID)
		if err != nil {
			return fmt.Errorf("failed to load match players for round %d: %w", round.ID, err)
		}
		attachMatchPlayers(matches, matchPlayers)

		for _, match := range matches {
			if completion.DeriveMatchStatus(match.Players) != models.MatchStatusFinished {
				continue
			}
			s.replayOne(match.Players, playerProfiles, states)
		}
	}
	return nil
}

func (s *ratingService) replayOne(matchPlayers []models.MatchPlayer, playerProfiles map[int]int, states map[int]*models.Profile) {
	participants := make([]elo.Participant, 0, len(matchPlayers))
	for _, mp := range matchPlayers {
		profileID, ok := playerProfiles[mp.PlayerID]
		if !ok || mp.Position == nil {
			continue
		}
		state, ok := states[profileID]
		if !ok {
			// Профиль без снапшота в реплее не участвует.
			continue
		}
		participants = append(participants, elo.Participant{
			ProfileID:          profileID,
			Rating:             state.Rating,
			MatchesPlayed:      state.MatchesPlayed,
			ProvisionalMatches: state.ProvisionalMatches,
			Position:           *mp.Position,
		})
	}
	if len(participants) < 2 {
		return
	}
	for _, d := range elo.MatchDeltas(participants, s.schedule) {
		state := states[d.ProfileID]
		state.Rating += d.Change
		state.MatchesPlayed++
		if state.ProvisionalMatches > 0 {
			state.ProvisionalMatches--
		}
	}
}

// replayChampionBonus re-applies the super-final bonus so a recalculated
// tournament ends at the same ratings as the live path.
func (s *ratingService) replayChampionBonus(ctx context.Context, tournamentID int, states map[int]*models.Profile) error {
	final, err := s.finalRepo.GetLatestByTournament(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrFinalNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load final: %w", err)
	}
	if final.Status != models.FinalStatusFinished {
		return nil
	}
	finalPlayers, err := s.finalRepo.ListPlayers(ctx, final.ID)
	if err != nil {
		return fmt.Errorf("failed to load final players: %w", err)
	}
	playerProfiles, err := s.playerProfileIndex(ctx, tournamentID)
	if err != nil {
		return err
	}
	for _, fp := range finalPlayers {
		if fp.Rank == nil || *fp.Rank != 1 {
			continue
		}
		if profileID, ok := playerProfiles[fp.PlayerID]; ok {
			if state, ok := states[profileID]; ok {
				state.Rating += ChampionRatingBonus
			}
		}
	}
	return nil
}

func (s *ratingService) Rollback(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	snapshots, err := s.ratingRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to load rating snapshots: %w", err)
	}
	for _, snap := range snapshots {
		profile, err := s.profileRepo.GetByID(ctx, snap.ProfileID)
		if err != nil {
			if errors.Is(err, repositories.ErrProfileNotFound) {
				s.logger.WarnContext(ctx, "snapshot points at missing profile, skipping",
					slog.Int("profile_id", snap.ProfileID), slog.Int("tournament_id", tournamentID))
				continue
			}
			return fmt.Errorf("failed to load profile %d: %w", snap.ProfileID, err)
		}
		profile.Rating = snap.RatingBefore
		profile.MatchesPlayed = snap.MatchesBefore
		profile.ProvisionalMatches = snap.ProvisionalBefore
		if err := s.profileRepo.UpdateRating(ctx, exec, profile); err != nil {
			return fmt.Errorf("failed to restore profile %d: %w", profile.ID, err)
		}
	}
	if err := s.ratingRepo.DeleteByTournament(ctx, exec, tournamentID); err != nil {
		return fmt.Errorf("failed to delete rating snapshots: %w", err)
	}
	return nil
}

// loadParticipants resolves match players to their profiles and builds the
// rating inputs. Players without a profile or without a position are left out.
func (s *ratingService) loadParticipants(ctx context.Context, matchPlayers []models.MatchPlayer) (map[int]*models.Profile, []elo.Participant, error) {
	profiles := make(map[int]*models.Profile)
	participants := make([]elo.Participant, 0, len(matchPlayers))
	for _, mp := range matchPlayers {
		if mp.Position == nil {
			continue
		}
		player, err := s.playerRepo.GetByID(ctx, mp.PlayerID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load player %d: %w", mp.PlayerID, err)
		}
		if player.ProfileID == nil {
			continue
		}
		profile, err := s.profileRepo.GetByID(ctx, *player.ProfileID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load profile %d: %w", *player.ProfileID, err)
		}
		profiles[profile.ID] = profile
		participants = append(participants, elo.Participant{
			ProfileID:          profile.ID,
			Rating:             profile.Rating,
			MatchesPlayed:      profile.MatchesPlayed,
			ProvisionalMatches: profile.ProvisionalMatches,
			Position:           *mp.Position,
		})
	}
	return profiles, participants, nil
}

func (s *ratingService) ensureSnapshot(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, profile *models.Profile) error {
	snapshot := &models.TournamentRating{
		TournamentID:      tournamentID,
		ProfileID:         profile.ID,
		RatingBefore:      profile.Rating,
		MatchesBefore:     profile.MatchesPlayed,
		ProvisionalBefore: profile.ProvisionalMatches,
	}
	if err := s.ratingRepo.EnsureSnapshot(ctx, exec, snapshot); err != nil {
		return fmt.Errorf("failed to ensure rating snapshot for profile %d: %w", profile.ID, err)
	}
	return nil
}

// playerProfileIndex maps the tournament's player ids to their profile ids.
func (s *ratingService) playerProfileIndex(ctx context.Context, tournamentID int) (map[int]int, error) {
	players, err := s.playerRepo.ListByTournament(ctx, tournamentID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}
	index := make(map[int]int, len(players))
	for _, p := range players {
		if p.ProfileID != nil {
			index[p.ID] = *p.ProfileID
		}
	}
	return index, nil
}
