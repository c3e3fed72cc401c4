package scoring

// MatchPoints returns the points a placement earns in a match of the given
// size. Lower position = better. The table is fixed:
//
//	2 players: 2/0
//	3 players: 3/1/0
//	4+ players: 4/2/1/0
func MatchPoints(position, playerCount int) int {
	if position < 1 {
		return 0
	}
	switch {
	case playerCount <= 2:
		if position == 1 {
			return 2
		}
		return 0
	case playerCount == 3:
		switch position {
		case 1:
			return 3
		case 2:
			return 1
		}
		return 0
	default:
		switch position {
		case 1:
			return 4
		case 2:
			return 2
		case 3:
			return 1
		}
		return 0
	}
}

// TournamentPointsForRank returns the end-of-tournament points for a final
// rank among n players: rank 1 earns n+2, rank 2 earns n, every later rank k
// earns max(0, n-(k-1)).
func TournamentPointsForRank(rank, n int) int {
	switch {
	case rank <= 0:
		return 0
	case rank == 1:
		return n + 2
	case rank == 2:
		return n
	default:
		if v := n - (rank - 1); v > 0 {
			return v
		}
		return 0
	}
}

// placementFixedTable holds the season points for placement_fixed mode,
// rank 1 first. Ranks past the table earn 0.
var placementFixedTable = []float64{20, 17, 15, 13, 11, 9, 7, 5, 3, 1}

// PlacementFixedPoints returns the fixed-table season points for a rank.
func PlacementFixedPoints(rank int) float64 {
	if rank < 1 || rank > len(placementFixedTable) {
		return 0
	}
	return placementFixedTable[rank-1]
}

// PlacementLinearPoints returns n-rank+1, floored at 0.
func PlacementLinearPoints(rank, n int) float64 {
	if v := n - rank + 1; v > 0 {
		return float64(v)
	}
	return 0
}
