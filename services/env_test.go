package services_test

import (
	"context"
	"io"
	"log/slog"
	"math/rand"

	"github.com/flipperliga/league-system/elo"
	"github.com/flipperliga/league-system/live"
	"github.com/flipperliga/league-system/models"
	"github.com/flipperliga/league-system/pairing"
	"github.com/flipperliga/league-system/services"
)

// testEnv wires the real services over in-memory repositories, so the
// cascades run end to end without a database.
type testEnv struct {
	tournaments  *fakeTournamentRepo
	rounds       *fakeRoundRepo
	matches      *fakeMatchRepo
	matchPlayers *fakeMatchPlayerRepo
	players      *fakePlayerRepo
	machines     *fakeMachineRepo
	profiles     *fakeProfileRepo
	ratings      *fakeRatingRepo
	results      *fakeResultRepo
	finals       *fakeFinalRepo

	ratingSvc     services.RatingService
	roundSvc      services.RoundService
	matchSvc      services.MatchService
	standingsSvc  services.StandingsService
	tournamentSvc services.TournamentService
	finalSvc      services.FinalService
}

func newTestEnv() *testEnv {
	env := &testEnv{
		tournaments: newFakeTournamentRepo(),
		rounds:      newFakeRoundRepo(),
		players:     newFakePlayerRepo(),
		machines:    newFakeMachineRepo(),
		profiles:    newFakeProfileRepo(),
		ratings:     newFakeRatingRepo(),
		results:     newFakeResultRepo(),
		finals:      newFakeFinalRepo(),
	}
	env.matches = newFakeMatchRepo(env.rounds)
	env.matchPlayers = newFakeMatchPlayerRepo(env.matches)

	db := openStubDB()
	hub := live.NewHub()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env.ratingSvc = services.NewRatingService(
		db, env.tournaments, env.rounds, env.matches, env.matchPlayers,
		env.players, env.profiles, env.ratings, env.finals,
		elo.ReplaySchedule{}, logger,
	)
	env.roundSvc = services.NewRoundService(
		db, env.tournaments, env.rounds, env.matches, env.matchPlayers,
		env.players, env.machines,
		pairing.New(rand.New(rand.NewSource(1))), hub, logger,
	)
	env.matchSvc = services.NewMatchService(
		db, env.tournaments, env.rounds, env.matches, env.matchPlayers,
		env.ratingSvc, hub, logger,
	)
	env.standingsSvc = services.NewStandingsService(
		env.tournaments, env.players, env.matches, env.matchPlayers, env.results,
	)
	env.tournamentSvc = services.NewTournamentService(
		db, env.tournaments, env.rounds, env.matches, env.matchPlayers,
		env.players, env.machines, env.results, env.finals,
		env.ratingSvc, hub, logger,
	)
	env.finalSvc = services.NewFinalService(
		db, env.tournaments, env.players, env.finals,
		env.standingsSvc, env.tournamentSvc, env.ratingSvc,
		hub, 4, logger,
	)
	return env
}

func (env *testEnv) seedTournament(code string, format models.TournamentFormat, matchSize int, category models.TournamentCategory) *models.Tournament {
	t := &models.Tournament{
		Code:       code,
		Name:       code,
		Format:     format,
		MatchSize:  matchSize,
		Status:     models.TournamentStatusOpen,
		Category:   category,
		SeasonYear: 2026,
	}
	if err := env.tournaments.Create(context.Background(), nil, t); err != nil {
		panic(err)
	}
	return t
}

func (env *testEnv) seedPlayer(tournamentID int, name string, profileID *int) *models.Player {
	p := &models.Player{TournamentID: tournamentID, Name: name, ProfileID: profileID, Active: true}
	if err := env.players.Create(context.Background(), nil, p); err != nil {
		panic(err)
	}
	return p
}

func (env *testEnv) seedProfile(name string, provisional int) *models.Profile {
	p := &models.Profile{Name: name, Rating: 1500, ProvisionalMatches: provisional}
	if err := env.profiles.Create(context.Background(), nil, p); err != nil {
		panic(err)
	}
	return p
}

func (env *testEnv) seedMachine(tournamentID int, name string) *models.Machine {
	m := &models.Machine{TournamentID: tournamentID, Name: name, Active: true}
	if err := env.machines.Create(context.Background(), nil, m); err != nil {
		panic(err)
	}
	return m
}

func (env *testEnv) seedRound(tournamentID, number int, format models.TournamentFormat, eloEnabled bool) *models.Round {
	r := &models.Round{
		TournamentID: tournamentID,
		Number:       number,
		Format:       format,
		Status:       models.RoundStatusOpen,
		EloEnabled:   eloEnabled,
	}
	if err := env.rounds.Create(context.Background(), nil, r); err != nil {
		panic(err)
	}
	return r
}

func (env *testEnv) seedMatch(roundID int, machineID *int, playerIDs ...int) *models.Match {
	m := &models.Match{RoundID: roundID, MachineID: machineID, Status: models.MatchStatusOpen, GameNumber: 1}
	if err := env.matches.Create(context.Background(), nil, m); err != nil {
		panic(err)
	}
	for _, playerID := range playerIDs {
		mp := &models.MatchPlayer{MatchID: m.ID, PlayerID: playerID}
		if err := env.matchPlayers.Create(context.Background(), nil, mp); err != nil {
			panic(err)
		}
	}
	return m
}
