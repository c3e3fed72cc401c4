package services_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/flipperliga/league-system/models"
	"github.com/flipperliga/league-system/services"
)

func TestCreateRound(t *testing.T) {
	ctx := context.Background()

	Convey("Given an open tournament with nine players and three machines", t, func() {
		env := newTestEnv()
		tournament := env.seedTournament("winter", models.FormatMatchplay, 4, models.CategoryLeague)
		for _, name := range []string{"Anna", "Ben", "Clara", "Dan", "Eva", "Finn", "Greta", "Hugo", "Ida"} {
			env.seedPlayer(tournament.ID, name, nil)
		}
		for _, name := range []string{"Medieval Madness", "Attack From Mars", "Twilight Zone"} {
			env.seedMachine(tournament.ID, name)
		}

		Convey("CreateRound splits them into groups of 4, 3 and 2", func() {
			round, warnings, err := env.roundSvc.CreateRound(ctx, "winter")
			So(err, ShouldBeNil)
			So(warnings, ShouldBeEmpty)
			So(round.Number, ShouldEqual, 1)
			So(round.EloEnabled, ShouldBeTrue)

			var sizes []int
			seated := make(map[int]bool)
			for _, m := range round.Matches {
				sizes = append(sizes, len(m.Players))
				So(m.MachineID, ShouldNotBeNil)
				for _, mp := range m.Players {
					So(seated[mp.PlayerID], ShouldBeFalse)
					seated[mp.PlayerID] = true
					// Both result and start order begin unset.
					So(mp.Position, ShouldBeNil)
					So(mp.StartPosition, ShouldBeNil)
				}
			}
			So(sizes, ShouldResemble, []int{4, 3, 2})
			So(len(seated), ShouldEqual, 9)

			Convey("And a second round numbers itself 2", func() {
				second, _, err := env.roundSvc.CreateRound(ctx, "winter")
				So(err, ShouldBeNil)
				So(second.Number, ShouldEqual, 2)
			})
		})

		Convey("A finished tournament rejects new rounds", func() {
			So(env.tournaments.UpdateStatus(ctx, nil, tournament.ID, models.TournamentStatusFinished), ShouldBeNil)
			_, _, err := env.roundSvc.CreateRound(ctx, "winter")
			So(err, ShouldEqual, services.ErrTournamentFinished)
		})
	})

	Convey("A tournament below two active players cannot start a round", t, func() {
		env := newTestEnv()
		tournament := env.seedTournament("tiny", models.FormatMatchplay, 4, models.CategoryFun)
		env.seedPlayer(tournament.ID, "Anna", nil)
		env.seedMachine(tournament.ID, "Funhouse")

		_, _, err := env.roundSvc.CreateRound(ctx, "tiny")
		So(err, ShouldEqual, services.ErrNotEnoughActivePlayers)
	})

	Convey("A tournament without active machines cannot start a round", t, func() {
		env := newTestEnv()
		tournament := env.seedTournament("dry", models.FormatMatchplay, 4, models.CategoryFun)
		env.seedPlayer(tournament.ID, "Anna", nil)
		env.seedPlayer(tournament.ID, "Ben", nil)

		_, _, err := env.roundSvc.CreateRound(ctx, "dry")
		So(err, ShouldEqual, services.ErrNoActiveMachines)
	})

	Convey("Swiss rounds seat the standings leaders together", t, func() {
		env := newTestEnv()
		tournament := env.seedTournament("swiss", models.FormatSwiss, 2, models.CategoryFun)
		a := env.seedPlayer(tournament.ID, "Anna", nil)
		b := env.seedPlayer(tournament.ID, "Ben", nil)
		c := env.seedPlayer(tournament.ID, "Clara", nil)
		d := env.seedPlayer(tournament.ID, "Dan", nil)
		env.seedMachine(tournament.ID, "Tron")
		env.seedMachine(tournament.ID, "Godzilla")

		// Round one: Anna and Clara win their matches.
		round1 := env.seedRound(tournament.ID, 1, tournament.Format, false)
		m1 := env.seedMatch(round1.ID, nil, a.ID, b.ID)
		m2 := env.seedMatch(round1.ID, nil, c.ID, d.ID)
		_, err := env.matchSvc.SubmitMatchResult(ctx, m1.ID, map[int]int{a.ID: 1, b.ID: 2})
		So(err, ShouldBeNil)
		_, err = env.matchSvc.SubmitMatchResult(ctx, m2.ID, map[int]int{c.ID: 1, d.ID: 2})
		So(err, ShouldBeNil)

		round2, _, err := env.roundSvc.CreateRound(ctx, "swiss")
		So(err, ShouldBeNil)
		So(len(round2.Matches), ShouldEqual, 2)

		// The two winners (3 seed points each) pair up, alphabetically ordered.
		top := round2.Matches[0]
		So(len(top.Players), ShouldEqual, 2)
		So(top.Players[0].PlayerID, ShouldEqual, a.ID)
		So(top.Players[1].PlayerID, ShouldEqual, c.ID)
	})
}
