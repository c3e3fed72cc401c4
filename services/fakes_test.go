package services_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"sort"
	"sync"

	"github.com/flipperliga/league-system/models"
	"github.com/flipperliga/league-system/repositories"
)

// The services only need Begin/Commit/Rollback from *sql.DB; all reads and
// writes go through the fake repositories below. This stub driver provides
// exactly that.
type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(string) (driver.Stmt, error) { return nil, driver.ErrSkip }
func (stubConn) Close() error                        { return nil }
func (stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

var registerOnce sync.Once

func openStubDB() *sql.DB {
	registerOnce.Do(func() { sql.Register("stub", stubDriver{}) })
	db, err := sql.Open("stub", "")
	if err != nil {
		panic(err)
	}
	return db
}

type fakeTournamentRepo struct {
	nextID      int
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
}

func (r *fakeTournamentRepo) Create(_ context.Context, _ repositories.SQLExecutor, t *models.Tournament) error {
	for _, existing := range r.tournaments {
		if existing.Code == t.Code {
			return repositories.ErrTournamentCodeConflict
		}
	}
	r.nextID++
	t.ID = r.nextID
	copied := *t
	r.tournaments[t.ID] = &copied
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeTournamentRepo) GetByCode(_ context.Context, code string) (*models.Tournament, error) {
	for _, t := range r.tournaments {
		if t.Code == code {
			copied := *t
			return &copied, nil
		}
	}
	return nil, repositories.ErrTournamentNotFound
}

func (r *fakeTournamentRepo) ListByCategoryYear(_ context.Context, category models.TournamentCategory, year int) ([]*models.Tournament, error) {
	var out []*models.Tournament
	for _, t := range r.tournaments {
		if t.Category == category && t.SeasonYear == year {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

type fakeRoundRepo struct {
	nextID int
	rounds map[int]*models.Round
}

func newFakeRoundRepo() *fakeRoundRepo {
	return &fakeRoundRepo{rounds: make(map[int]*models.Round)}
}

func (r *fakeRoundRepo) Create(_ context.Context, _ repositories.SQLExecutor, round *models.Round) error {
	r.nextID++
	round.ID = r.nextID
	copied := *round
	copied.Matches = nil
	r.rounds[round.ID] = &copied
	return nil
}

func (r *fakeRoundRepo) GetByID(_ context.Context, id int) (*models.Round, error) {
	round, ok := r.rounds[id]
	if !ok {
		return nil, repositories.ErrRoundNotFound
	}
	copied := *round
	return &copied, nil
}

func (r *fakeRoundRepo) GetByTournamentAndNumber(_ context.Context, tournamentID, number int) (*models.Round, error) {
	for _, round := range r.rounds {
		if round.TournamentID == tournamentID && round.Number == number {
			copied := *round
			return &copied, nil
		}
	}
	return nil, repositories.ErrRoundNotFound
}

func (r *fakeRoundRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Round, error) {
	var out []*models.Round
	for _, round := range r.rounds {
		if round.TournamentID == tournamentID {
			copied := *round
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *fakeRoundRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.RoundStatus) error {
	round, ok := r.rounds[id]
	if !ok {
		return repositories.ErrRoundNotFound
	}
	round.Status = status
	return nil
}

type fakeMatchRepo struct {
	nextID  int
	matches map[int]*models.Match
	rounds  *fakeRoundRepo
}

func newFakeMatchRepo(rounds *fakeRoundRepo) *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match), rounds: rounds}
}

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Match) error {
	r.nextID++
	m.ID = r.nextID
	copied := *m
	copied.Players = nil
	r.matches[m.ID] = &copied
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMatchRepo) ListByRound(_ context.Context, roundID int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		if m.RoundID == roundID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.matches {
		round, err := r.rounds.GetByID(ctx, m.RoundID)
		if err == nil && round.TournamentID == tournamentID {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMatchRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.MatchStatus) error {
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = status
	return nil
}

type fakeMatchPlayerRepo struct {
	nextID  int
	rows    []*models.MatchPlayer
	matches *fakeMatchRepo
}

func newFakeMatchPlayerRepo(matches *fakeMatchRepo) *fakeMatchPlayerRepo {
	return &fakeMatchPlayerRepo{matches: matches}
}

func (r *fakeMatchPlayerRepo) Create(_ context.Context, _ repositories.SQLExecutor, mp *models.MatchPlayer) error {
	r.nextID++
	mp.ID = r.nextID
	copied := *mp
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *fakeMatchPlayerRepo) ListByMatch(_ context.Context, matchID int) ([]models.MatchPlayer, error) {
	var out []models.MatchPlayer
	for _, mp := range r.rows {
		if mp.MatchID == matchID {
			out = append(out, *mp)
		}
	}
	return out, nil
}

func (r *fakeMatchPlayerRepo) ListByRound(ctx context.Context, roundID int) ([]models.MatchPlayer, error) {
	matches, _ := r.matches.ListByRound(ctx, roundID)
	ids := make(map[int]bool, len(matches))
	for _, m := range matches {
		ids[m.ID] = true
	}
	var out []models.MatchPlayer
	for _, mp := range r.rows {
		if ids[mp.MatchID] {
			out = append(out, *mp)
		}
	}
	return out, nil
}

func (r *fakeMatchPlayerRepo) ListByTournament(ctx context.Context, tournamentID int) ([]models.MatchPlayer, error) {
	matches, _ := r.matches.ListByTournament(ctx, tournamentID)
	ids := make(map[int]bool, len(matches))
	for _, m := range matches {
		ids[m.ID] = true
	}
	var out []models.MatchPlayer
	for _, mp := range r.rows {
		if ids[mp.MatchID] {
			out = append(out, *mp)
		}
	}
	return out, nil
}

func (r *fakeMatchPlayerRepo) find(matchID, playerID int) *models.MatchPlayer {
	for _, mp := range r.rows {
		if mp.MatchID == matchID && mp.PlayerID == playerID {
			return mp
		}
	}
	return nil
}

func (r *fakeMatchPlayerRepo) UpdatePosition(_ context.Context, _ repositories.SQLExecutor, matchID, playerID int, position *int) error {
	mp := r.find(matchID, playerID)
	if mp == nil {
		return repositories.ErrMatchPlayerNotFound
	}
	mp.Position = position
	return nil
}

func (r *fakeMatchPlayerRepo) UpdateScore(_ context.Context, _ repositories.SQLExecutor, matchID, playerID int, score *int64) error {
	mp := r.find(matchID, playerID)
	if mp == nil {
		return repositories.ErrMatchPlayerNotFound
	}
	mp.Score = score
	return nil
}

func (r *fakeMatchPlayerRepo) UpdateTime(_ context.Context, _ repositories.SQLExecutor, matchID, playerID int, timeMS *int) error {
	mp := r.find(matchID, playerID)
	if mp == nil {
		return repositories.ErrMatchPlayerNotFound
	}
	mp.TimeMS = timeMS
	return nil
}

func (r *fakeMatchPlayerRepo) UpdateStartPosition(_ context.Context, _ repositories.SQLExecutor, matchID, playerID, startPosition int) error {
	mp := r.find(matchID, playerID)
	if mp == nil {
		return repositories.ErrMatchPlayerNotFound
	}
	mp.StartPosition = &startPosition
	return nil
}

type fakePlayerRepo struct {
	nextID  int
	players map[int]*models.Player
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{players: make(map[int]*models.Player)}
}

func (r *fakePlayerRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Player) error {
	r.nextID++
	p.ID = r.nextID
	copied := *p
	r.players[p.ID] = &copied
	return nil
}

func (r *fakePlayerRepo) GetByID(_ context.Context, id int) (*models.Player, error) {
	p, ok := r.players[id]
	if !ok {
		return nil, repositories.ErrPlayerNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePlayerRepo) ListByTournament(_ context.Context, tournamentID int, activeOnly bool) ([]models.Player, error) {
	var out []models.Player
	for _, p := range r.players {
		if p.TournamentID == tournamentID && (!activeOnly || p.Active) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePlayerRepo) UpdateActive(_ context.Context, _ repositories.SQLExecutor, id int, active bool) error {
	p, ok := r.players[id]
	if !ok {
		return repositories.ErrPlayerNotFound
	}
	p.Active = active
	return nil
}

type fakeMachineRepo struct {
	nextID   int
	machines map[int]*models.Machine
}

func newFakeMachineRepo() *fakeMachineRepo {
	return &fakeMachineRepo{machines: make(map[int]*models.Machine)}
}

func (r *fakeMachineRepo) Create(_ context.Context, _ repositories.SQLExecutor, m *models.Machine) error {
	r.nextID++
	m.ID = r.nextID
	copied := *m
	r.machines[m.ID] = &copied
	return nil
}

func (r *fakeMachineRepo) GetByID(_ context.Context, id int) (*models.Machine, error) {
	m, ok := r.machines[id]
	if !ok {
		return nil, repositories.ErrMachineNotFound
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMachineRepo) ListByTournament(_ context.Context, tournamentID int, activeOnly bool) ([]models.Machine, error) {
	var out []models.Machine
	for _, m := range r.machines {
		if m.TournamentID == tournamentID && (!activeOnly || m.Active) {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeProfileRepo struct {
	nextID   int
	profiles map[int]*models.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[int]*models.Profile)}
}

func (r *fakeProfileRepo) Create(_ context.Context, _ repositories.SQLExecutor, p *models.Profile) error {
	r.nextID++
	p.ID = r.nextID
	copied := *p
	r.profiles[p.ID] = &copied
	return nil
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id int) (*models.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeProfileRepo) ListByIDs(_ context.Context, ids []int) ([]models.Profile, error) {
	var out []models.Profile
	for _, id := range ids {
		if p, ok := r.profiles[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProfileRepo) UpdateRating(_ context.Context, _ repositories.SQLExecutor, profile *models.Profile) error {
	p, ok := r.profiles[profile.ID]
	if !ok {
		return repositories.ErrProfileNotFound
	}
	p.Rating = profile.Rating
	p.MatchesPlayed = profile.MatchesPlayed
	p.ProvisionalMatches = profile.ProvisionalMatches
	return nil
}

type fakeRatingRepo struct {
	nextID    int
	snapshots []*models.TournamentRating
}

func newFakeRatingRepo() *fakeRatingRepo { return &fakeRatingRepo{} }

func (r *fakeRatingRepo) EnsureSnapshot(_ context.Context, _ repositories.SQLExecutor, snapshot *models.TournamentRating) error {
	for _, s := range r.snapshots {
		if s.TournamentID == snapshot.TournamentID && s.ProfileID == snapshot.ProfileID {
			return nil
		}
	}
	r.nextID++
	snapshot.ID = r.nextID
	copied := *snapshot
	r.snapshots = append(r.snapshots, &copied)
	return nil
}

func (r *fakeRatingRepo) ListByTournament(_ context.Context, tournamentID int) ([]models.TournamentRating, error) {
	var out []models.TournamentRating
	for _, s := range r.snapshots {
		if s.TournamentID == tournamentID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeRatingRepo) DeleteByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) error {
	kept := r.snapshots[:0]
	for _, s := range r.snapshots {
		if s.TournamentID != tournamentID {
			kept = append(kept, s)
		}
	}
	r.snapshots = kept
	return nil
}

type fakeResultRepo struct {
	nextID  int
	results []*models.TournamentResult
}

func newFakeResultRepo() *fakeResultRepo { return &fakeResultRepo{} }

func (r *fakeResultRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, result *models.TournamentResult) error {
	for _, existing := range r.results {
		if existing.TournamentID == result.TournamentID && existing.PlayerID == result.PlayerID {
			id := existing.ID
			*existing = *result
			existing.ID = id
			result.ID = id
			return nil
		}
	}
	r.nextID++
	result.ID = r.nextID
	copied := *result
	r.results = append(r.results, &copied)
	return nil
}

func (r *fakeResultRepo) ListByTournament(_ context.Context, tournamentID int) ([]models.TournamentResult, error) {
	var out []models.TournamentResult
	for _, res := range r.results {
		if res.TournamentID == tournamentID {
			out = append(out, *res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FinalRank < out[j].FinalRank })
	return out, nil
}

type fakeFinalRepo struct {
	nextID       int
	nextPlayerID int
	nextGameID   int
	finals       map[int]*models.Final
	players      []*models.FinalPlayer
	games        []*models.FinalGame
}

func newFakeFinalRepo() *fakeFinalRepo {
	return &fakeFinalRepo{finals: make(map[int]*models.Final)}
}

func (r *fakeFinalRepo) Create(_ context.Context, _ repositories.SQLExecutor, final *models.Final) error {
	r.nextID++
	final.ID = r.nextID
	copied := *final
	copied.Players = nil
	copied.Games = nil
	r.finals[final.ID] = &copied
	return nil
}

func (r *fakeFinalRepo) GetOpenByTournament(_ context.Context, tournamentID int) (*models.Final, error) {
	for _, f := range r.finals {
		if f.TournamentID == tournamentID && f.Status == models.FinalStatusOpen {
			copied := *f
			return &copied, nil
		}
	}
	return nil, repositories.ErrFinalNotFound
}

func (r *fakeFinalRepo) GetLatestByTournament(_ context.Context, tournamentID int) (*models.Final, error) {
	var latest *models.Final
	for _, f := range r.finals {
		if f.TournamentID == tournamentID && (latest == nil || f.ID > latest.ID) {
			latest = f
		}
	}
	if latest == nil {
		return nil, repositories.ErrFinalNotFound
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeFinalRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.FinalStatus) error {
	f, ok := r.finals[id]
	if !ok {
		return repositories.ErrFinalNotFound
	}
	f.Status = status
	return nil
}

func (r *fakeFinalRepo) CreatePlayer(_ context.Context, _ repositories.SQLExecutor, player *models.FinalPlayer) error {
	r.nextPlayerID++
	player.ID = r.nextPlayerID
	copied := *player
	r.players = append(r.players, &copied)
	return nil
}

func (r *fakeFinalRepo) ListPlayers(_ context.Context, finalID int) ([]models.FinalPlayer, error) {
	var out []models.FinalPlayer
	for _, fp := range r.players {
		if fp.FinalID == finalID {
			out = append(out, *fp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seed < out[j].Seed })
	return out, nil
}

func (r *fakeFinalRepo) findPlayer(finalID, playerID int) *models.FinalPlayer {
	for _, fp := range r.players {
		if fp.FinalID == finalID && fp.PlayerID == playerID {
			return fp
		}
	}
	return nil
}

func (r *fakeFinalRepo) UpdatePlayerPoints(_ context.Context, _ repositories.SQLExecutor, finalID, playerID, points int) error {
	fp := r.findPlayer(finalID, playerID)
	if fp == nil {
		return repositories.ErrFinalPlayerNotFound
	}
	fp.Points = points
	return nil
}

func (r *fakeFinalRepo) UpdatePlayerRank(_ context.Context, _ repositories.SQLExecutor, finalID, playerID, rank int) error {
	fp := r.findPlayer(finalID, playerID)
	if fp == nil {
		return repositories.ErrFinalPlayerNotFound
	}
	fp.Rank = &rank
	return nil
}

func (r *fakeFinalRepo) AppendGame(_ context.Context, _ repositories.SQLExecutor, game *models.FinalGame) error {
	for _, g := range r.games {
		if g.FinalID == game.FinalID && g.GameNumber == game.GameNumber {
			return repositories.ErrFinalGameConflict
		}
	}
	r.nextGameID++
	game.ID = r.nextGameID
	copied := *game
	r.games = append(r.games, &copied)
	return nil
}

func (r *fakeFinalRepo) ListGames(_ context.Context, finalID int) ([]models.FinalGame, error) {
	var out []models.FinalGame
	for _, g := range r.games {
		if g.FinalID == finalID {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameNumber < out[j].GameNumber })
	return out, nil
}
