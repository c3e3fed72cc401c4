package scoring

import (
	"sort"

	"github.com/flipperliga/league-system/models"
)

// SeasonEntry is one player's line in a single tournament's final table,
// already sorted or sortable by raw match points and wins.
type SeasonEntry struct {
	Name   string
	Points int
	Wins   int
}

// SeasonTournament is one tournament's contribution to a season.
type SeasonTournament struct {
	TournamentID int
	Code         string
	Entries      []SeasonEntry
}

// SeasonOptions control season aggregation.
type SeasonOptions struct {
	Mode models.SeasonMode
	// BestN keeps only each player's N highest-valued tournaments; 0 keeps all.
	BestN int
	// Participation is a flat bonus per tournament entered, folded into the
	// tournament's value before best-of-N dropping.
	Participation float64
}

// SeasonStandings aggregates tournaments of one (category, year) into season
// totals. Per tournament a player's value depends on the mode: raw match
// points, a fixed placement table, or a linear table. Placement modes rank by
// points then wins; a tie group (identical points and wins) earns the average
// table value over its occupied rank span. Dropped tournaments stay in the
// breakdown with Counted=false.
func SeasonStandings(tournaments []SeasonTournament, opts SeasonOptions) []models.SeasonStandingRow {
	perPlayer := make(map[string][]models.SeasonTournamentScore)

	for _, t := range tournaments {
		values := tournamentValues(t, opts.Mode)
		for name, v := range values {
			perPlayer[name] = append(perPlayer[name], models.SeasonTournamentScore{
				TournamentID:   t.TournamentID,
				TournamentCode: t.Code,
				Value:          v + opts.Participation,
				Counted:        true,
			})
		}
	}

	rows := make([]models.SeasonStandingRow, 0, len(perPlayer))
	for name, scores := range perPlayer {
		// Highest values first so best-of-N keeps a prefix.
		sort.SliceStable(scores, func(i, j int) bool { return scores[i].Value > scores[j].Value })

		dropped := 0
		if opts.BestN > 0 {
			for i := opts.BestN; i < len(scores); i++ {
				scores[i].Counted = false
				dropped++
			}
		}

		total := 0.0
		for _, s := range scores {
			if s.Counted {
				total += s.Value
			}
		}
		rows = append(rows, models.SeasonStandingRow{
			Name:        name,
			Total:       total,
			Dropped:     dropped,
			Tournaments: scores,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// tournamentValues computes each player's value for one tournament under the
// given mode, keyed by player name.
func tournamentValues(t SeasonTournament, mode models.SeasonMode) map[string]float64 {
	values := make(map[string]float64, len(t.Entries))

	if mode == models.SeasonModeMatch {
		for _, e := range t.Entries {
			values[e.Name] = float64(e.Points)
		}
		return values
	}

	entries := make([]SeasonEntry, len(t.Entries))
	copy(entries, t.Entries)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		if entries[i].Wins != entries[j].Wins {
			return entries[i].Wins > entries[j].Wins
		}
		return entries[i].Name < entries[j].Name
	})

	n := len(entries)
	table := func(rank int) float64 {
		if mode == models.SeasonModePlacementLinear {
			return PlacementLinearPoints(rank, n)
		}
		return PlacementFixedPoints(rank)
	}

	groups := tieGroups(n, func(i, j int) bool {
		return entries[i].Points == entries[j].Points && entries[i].Wins == entries[j].Wins
	})
	for _, g := range groups {
		v := averageOverSpan(g, table)
		for i := g.start; i < g.end; i++ {
			values[entries[i].Name] = v
		}
	}
	return values
}
