package scoring_test

import (
	"testing"

	"github.com/flipperliga/league-system/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMatchPoints(t *testing.T) {
	Convey("Given the fixed per-match points table", t, func() {
		Convey("Two-player matches pay 2/0", func() {
			So(scoring.MatchPoints(1, 2), ShouldEqual, 2)
			So(scoring.MatchPoints(2, 2), ShouldEqual, 0)
		})

		Convey("Three-player matches pay 3/1/0", func() {
			So(scoring.MatchPoints(1, 3), ShouldEqual, 3)
			So(scoring.MatchPoints(2, 3), ShouldEqual, 1)
			So(scoring.MatchPoints(3, 3), ShouldEqual, 0)
		})

		Convey("Four-player matches pay 4/2/1/0", func() {
			So(scoring.MatchPoints(1, 4), ShouldEqual, 4)
			So(scoring.MatchPoints(2, 4), ShouldEqual, 2)
			So(scoring.MatchPoints(3, 4), ShouldEqual, 1)
			So(scoring.MatchPoints(4, 4), ShouldEqual, 0)
		})

		Convey("Larger rotation matches use the 4+ column", func() {
			So(scoring.MatchPoints(1, 6), ShouldEqual, 4)
			So(scoring.MatchPoints(5, 6), ShouldEqual, 0)
		})

		Convey("An unset or invalid position pays nothing", func() {
			So(scoring.MatchPoints(0, 4), ShouldEqual, 0)
			So(scoring.MatchPoints(-1, 2), ShouldEqual, 0)
		})
	})
}

func TestTournamentPointsForRank(t *testing.T) {
	Convey("Given the tournament points table for N players", t, func() {
		n := 8

		Convey("The winner earns N+2 and the runner-up N", func() {
			So(scoring.TournamentPointsForRank(1, n), ShouldEqual, 10)
			So(scoring.TournamentPointsForRank(2, n), ShouldEqual, 8)
		})

		Convey("Rank k beyond second earns N-(k-1), floored at zero", func() {
			So(scoring.TournamentPointsForRank(3, n), ShouldEqual, 6)
			So(scoring.TournamentPointsForRank(8, n), ShouldEqual, 1)
			So(scoring.TournamentPointsForRank(9, n), ShouldEqual, 0)
			So(scoring.TournamentPointsForRank(20, n), ShouldEqual, 0)
		})

		Convey("N=4 reproduces the 6/4/2/1 fixture", func() {
			So(scoring.TournamentPointsForRank(1, 4), ShouldEqual, 6)
			So(scoring.TournamentPointsForRank(2, 4), ShouldEqual, 4)
			So(scoring.TournamentPointsForRank(3, 4), ShouldEqual, 2)
			So(scoring.TournamentPointsForRank(4, 4), ShouldEqual, 1)
		})
	})
}

func TestPlacementTables(t *testing.T) {
	Convey("Given the season placement tables", t, func() {
		Convey("The fixed table starts 20/17/15 and runs out after ten ranks", func() {
			So(scoring.PlacementFixedPoints(1), ShouldEqual, 20)
			So(scoring.PlacementFixedPoints(2), ShouldEqual, 17)
			So(scoring.PlacementFixedPoints(3), ShouldEqual, 15)
			So(scoring.PlacementFixedPoints(10), ShouldEqual, 1)
			So(scoring.PlacementFixedPoints(11), ShouldEqual, 0)
		})

		Convey("The linear table pays N-rank+1 down to zero", func() {
			So(scoring.PlacementLinearPoints(1, 5), ShouldEqual, 5)
			So(scoring.PlacementLinearPoints(5, 5), ShouldEqual, 1)
			So(scoring.PlacementLinearPoints(6, 5), ShouldEqual, 0)
		})
	})
}
