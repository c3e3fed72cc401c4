package scoring

import (
	"sort"

	"github.com/flipperliga/league-system/models"
)

// LiveStandings computes the current tournament table from raw match data.
// Every match must carry its MatchPlayer rows. Only positions that are set
// count; matches still in progress contribute the positions entered so far.
// Order: points descending, then name ascending.
func LiveStandings(players []models.Player, matches []models.Match) []models.StandingRow {
	byID := make(map[int]*models.StandingRow, len(players))
	rows := make([]models.StandingRow, 0, len(players))
	for _, p := range players {
		rows = append(rows, models.StandingRow{PlayerID: p.ID, Name: p.Name})
	}
	for i := range rows {
		byID[rows[i].PlayerID] = &rows[i]
	}

	for _, m := range matches {
		size := len(m.Players)
		for _, mp := range m.Players {
			row, ok := byID[mp.PlayerID]
			if !ok || mp.Position == nil {
				continue
			}
			row.Points += MatchPoints(*mp.Position, size)
			row.Played++
			if *mp.Position == 1 {
				row.Wins++
			}
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}
