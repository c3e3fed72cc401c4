package scoring

// CompetitionRanks assigns competition ranking to a descending-sorted slice of
// point totals: tied totals share a rank, and the next distinct total gets
// rank = its index+1, so ranks can skip (10,10,7,5 -> 1,1,3,4).
func CompetitionRanks(points []float64) []int {
	ranks := make([]int, len(points))
	for i := range points {
		if i > 0 && points[i] == points[i-1] {
			ranks[i] = ranks[i-1]
			continue
		}
		ranks[i] = i + 1
	}
	return ranks
}

// tieGroup is a maximal run of entries sharing identical sort keys within a
// sorted slice. Spans are [start, end) index ranges.
type tieGroup struct {
	start, end int
}

// tieGroups splits indices 0..n-1 into runs where sameKey(i, j) holds for all
// members. The input is assumed already sorted by the key.
func tieGroups(n int, sameKey func(i, j int) bool) []tieGroup {
	var groups []tieGroup
	for start := 0; start < n; {
		end := start + 1
		for end < n && sameKey(start, end) {
			end++
		}
		groups = append(groups, tieGroup{start: start, end: end})
		start = end
	}
	return groups
}

// averageOverSpan averages table(rank) across the rank span a tie group
// occupies, so every member of the group earns the same value.
func averageOverSpan(g tieGroup, table func(rank int) float64) float64 {
	sum := 0.0
	for rank := g.start + 1; rank <= g.end; rank++ {
		sum += table(rank)
	}
	return sum / float64(g.end-g.start)
}
