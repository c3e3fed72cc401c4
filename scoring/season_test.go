package scoring_test

import (
	"testing"

	"github.com/flipperliga/league-system/models"
	"github.com/flipperliga/league-system/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSeasonStandings(t *testing.T) {
	Convey("Given three tournaments with one player scoring 30/20/10", t, func() {
		tournaments := []scoring.SeasonTournament{
			{TournamentID: 1, Code: "T1", Entries: []scoring.SeasonEntry{{Name: "Anna", Points: 30}}},
			{TournamentID: 2, Code: "T2", Entries: []scoring.SeasonEntry{{Name: "Anna", Points: 20}}},
			{TournamentID: 3, Code: "T3", Entries: []scoring.SeasonEntry{{Name: "Anna", Points: 10}}},
		}

		Convey("Best-of-2 keeps the two highest and reports one drop", func() {
			rows := scoring.SeasonStandings(tournaments, scoring.SeasonOptions{
				Mode:  models.SeasonModeMatch,
				BestN: 2,
			})
			So(rows, ShouldHaveLength, 1)
			So(rows[0].Total, ShouldEqual, 50)
			So(rows[0].Dropped, ShouldEqual, 1)
			So(rows[0].Tournaments, ShouldHaveLength, 3)
			So(rows[0].Tournaments[2].Counted, ShouldBeFalse)
			So(rows[0].Tournaments[2].Value, ShouldEqual, 10)
		})

		Convey("BestN of zero keeps everything", func() {
			rows := scoring.SeasonStandings(tournaments, scoring.SeasonOptions{Mode: models.SeasonModeMatch})
			So(rows[0].Total, ShouldEqual, 60)
			So(rows[0].Dropped, ShouldEqual, 0)
		})

		Convey("The participation bonus is folded in before dropping", func() {
			rows := scoring.SeasonStandings(tournaments, scoring.SeasonOptions{
				Mode:          models.SeasonModeMatch,
				BestN:         2,
				Participation: 5,
			})
			// 35 + 25 counted; the dropped 15 loses its bonus too.
			So(rows[0].Total, ShouldEqual, 60)
		})
	})

	Convey("Given a tournament table with a tie group", t, func() {
		tournaments := []scoring.SeasonTournament{{
			TournamentID: 1,
			Code:         "T1",
			Entries: []scoring.SeasonEntry{
				{Name: "Anna", Points: 12, Wins: 3},
				{Name: "Ben", Points: 12, Wins: 3},
				{Name: "Carl", Points: 8, Wins: 1},
			},
		}}

		Convey("placement_fixed averages the table over the occupied span", func() {
			rows := scoring.SeasonStandings(tournaments, scoring.SeasonOptions{Mode: models.SeasonModePlacementFixed})
			// Ranks 1 and 2 pay 20 and 17; both tied players get 18.5.
			So(rows[0].Name, ShouldEqual, "Anna")
			So(rows[0].Total, ShouldEqual, 18.5)
			So(rows[1].Name, ShouldEqual, "Ben")
			So(rows[1].Total, ShouldEqual, 18.5)
			So(rows[2].Total, ShouldEqual, 15)
		})

		Convey("placement_linear pays N-rank+1 with the same averaging", func() {
			rows := scoring.SeasonStandings(tournaments, scoring.SeasonOptions{Mode: models.SeasonModePlacementLinear})
			// N=3: ranks pay 3/2/1, the tie group averages to 2.5.
			So(rows[0].Total, ShouldEqual, 2.5)
			So(rows[1].Total, ShouldEqual, 2.5)
			So(rows[2].Total, ShouldEqual, 1)
		})

		Convey("Equal points with different wins form separate groups", func() {
			tournaments[0].Entries[1].Wins = 2
			rows := scoring.SeasonStandings(tournaments, scoring.SeasonOptions{Mode: models.SeasonModePlacementFixed})
			So(rows[0].Total, ShouldEqual, 20)
			So(rows[1].Total, ShouldEqual, 17)
		})
	})
}
