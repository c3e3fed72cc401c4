package scoring

import (
	"sort"

	"github.com/flipperliga/league-system/models"
)

// ComputeResults derives the final TournamentResult rows for a tournament from
// its players and all their match rows. It is pure: the caller loads state and
// persists the returned rows. superFinal may be nil; a finished super-final
// contributes per-player ranks and the champion's +2 tournament-point bonus.
//
// Ranking is competition ranking on points alone: tied totals share a rank and
// later ranks skip. Tournament points for a tie group spanning several ranks
// are averaged across the occupied span.
func ComputeResults(players []models.Player, matches []models.Match, superFinal *models.Final) []models.TournamentResult {
	type machineAgg struct {
		plays  int
		points int
	}
	type playerAgg struct {
		player   models.Player
		points   int
		wins     int
		podiums  int
		played   int
		posSum   int
		machines map[int]*machineAgg
	}

	aggs := make(map[int]*playerAgg, len(players))
	order := make([]*playerAgg, 0, len(players))
	for _, p := range players {
		a := &playerAgg{player: p, machines: make(map[int]*machineAgg)}
		aggs[p.ID] = a
		order = append(order, a)
	}

	for _, m := range matches {
		size := len(m.Players)
		for _, mp := range m.Players {
			a, ok := aggs[mp.PlayerID]
			if !ok || mp.Position == nil {
				continue
			}
			pts := MatchPoints(*mp.Position, size)
			a.points += pts
			a.played++
			a.posSum += *mp.Position
			if *mp.Position == 1 {
				a.wins++
			}
			if *mp.Position <= 3 {
				a.podiums++
			}
			if m.MachineID != nil {
				ma := a.machines[*m.MachineID]
				if ma == nil {
					ma = &machineAgg{}
					a.machines[*m.MachineID] = ma
				}
				ma.plays++
				ma.points += pts
			}
		}
	}

	// Points-only sort for ranking; name keeps the output deterministic.
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].points != order[j].points {
			return order[i].points > order[j].points
		}
		return order[i].player.Name < order[j].player.Name
	})

	n := len(order)
	results := make([]models.TournamentResult, n)
	for i, a := range order {
		r := models.TournamentResult{
			TournamentID:  a.player.TournamentID,
			PlayerID:      a.player.ID,
			Points:        a.points,
			Wins:          a.wins,
			Podiums:       a.podiums,
			MatchesPlayed: a.played,
		}
		if a.played > 0 {
			r.Winrate = float64(a.wins) / float64(a.played)
			r.AvgPosition = float64(a.posSum) / float64(a.played)
		}
		r.FavoriteMachineID = pickMachine(a.machines, func(m *machineAgg) int { return m.plays })
		r.BestMachineID = pickMachine(a.machines, func(m *machineAgg) int { return m.points })
		results[i] = r
	}

	points := make([]float64, n)
	for i, a := range order {
		points[i] = float64(a.points)
	}
	ranks := CompetitionRanks(points)
	for i := range results {
		results[i].FinalRank = ranks[i]
	}

	groups := tieGroups(n, func(i, j int) bool { return order[i].points == order[j].points })
	for _, g := range groups {
		value := averageOverSpan(g, func(rank int) float64 {
			return float64(TournamentPointsForRank(rank, n))
		})
		for i := g.start; i < g.end; i++ {
			results[i].TournamentPoints = value
		}
	}

	if superFinal != nil && superFinal.Status == models.FinalStatusFinished {
		applySuperFinal(results, superFinal)
	}
	return results
}

// applySuperFinal copies final ranks onto the result rows and grants the
// champion the flat +2 bonus, added after tie-span averaging.
func applySuperFinal(results []models.TournamentResult, final *models.Final) {
	for _, fp := range final.Players {
		if fp.Rank == nil {
			continue
		}
		for i := range results {
			if results[i].PlayerID != fp.PlayerID {
				continue
			}
			rank := *fp.Rank
			results[i].SuperFinalRank = &rank
			if rank == 1 {
				results[i].TournamentPoints += 2
			}
			break
		}
	}
}

// pickMachine returns the machine id with the highest metric, breaking ties in
// favor of the lower machine id so reruns are stable.
func pickMachine[T any](machines map[int]*T, metric func(*T) int) *int {
	var best *int
	bestVal := 0
	for id, m := range machines {
		v := metric(m)
		if best == nil || v > bestVal || (v == bestVal && id < *best) {
			id := id
			best = &id
			bestVal = v
		}
	}
	return best
}
