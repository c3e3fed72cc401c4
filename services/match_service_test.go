package services_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/flipperliga/league-system/models"
	"github.com/flipperliga/league-system/services"
)

func intp(v int) *int { return &v }

func TestMatchResultCascade(t *testing.T) {
	ctx := context.Background()

	Convey("Given a matchplay tournament with one four-player match", t, func() {
		env := newTestEnv()
		tournament := env.seedTournament("spring", models.FormatMatchplay, 4, models.CategoryFun)
		var playerIDs []int
		for _, name := range []string{"Anna", "Ben", "Clara", "Dan"} {
			playerIDs = append(playerIDs, env.seedPlayer(tournament.ID, name, nil).ID)
		}
		round := env.seedRound(tournament.ID, 1, tournament.Format, false)
		match := env.seedMatch(round.ID, nil, playerIDs...)

		Convey("The match stays open until every position is set", func() {
			for i, playerID := range playerIDs[:3] {
				update, err := env.matchSvc.SetPosition(ctx, match.ID, playerID, intp(i+1))
				So(err, ShouldBeNil)
				So(update.Match.Status, ShouldEqual, models.MatchStatusOpen)
				So(update.RoundStatus, ShouldEqual, models.RoundStatusOpen)
			}

			Convey("And the last position finishes the match and the round", func() {
				update, err := env.matchSvc.SetPosition(ctx, match.ID, playerIDs[3], intp(4))
				So(err, ShouldBeNil)
				So(update.Match.Status, ShouldEqual, models.MatchStatusFinished)
				So(update.RoundStatus, ShouldEqual, models.RoundStatusFinished)
				So(update.Gated, ShouldBeFalse)

				Convey("And clearing a position reopens both", func() {
					update, err := env.matchSvc.SetPosition(ctx, match.ID, playerIDs[0], nil)
					So(err, ShouldBeNil)
					So(update.Match.Status, ShouldEqual, models.MatchStatusOpen)
					So(update.RoundStatus, ShouldEqual, models.RoundStatusOpen)

					stored, err := env.rounds.GetByID(ctx, round.ID)
					So(err, ShouldBeNil)
					So(stored.Status, ShouldEqual, models.RoundStatusOpen)
				})
			})
		})

		Convey("SubmitMatchResult finishes the match in one call", func() {
			update, err := env.matchSvc.SubmitMatchResult(ctx, match.ID, map[int]int{
				playerIDs[0]: 1, playerIDs[1]: 2, playerIDs[2]: 3, playerIDs[3]: 4,
			})
			So(err, ShouldBeNil)
			So(update.Match.Status, ShouldEqual, models.MatchStatusFinished)
			So(update.RoundStatus, ShouldEqual, models.RoundStatusFinished)
		})

		Convey("SubmitMatchResult rejects a partial placement map", func() {
			_, err := env.matchSvc.SubmitMatchResult(ctx, match.ID, map[int]int{playerIDs[0]: 1})
			So(err, ShouldWrap, services.ErrValidationFailed)
		})

		Convey("SubmitMatchResult rejects a player from another match", func() {
			_, err := env.matchSvc.SubmitMatchResult(ctx, match.ID, map[int]int{
				playerIDs[0]: 1, playerIDs[1]: 2, playerIDs[2]: 3, 999: 4,
			})
			So(err, ShouldEqual, services.ErrPlayerNotInMatch)
		})

		Convey("Positions outside 1..N are rejected", func() {
			_, err := env.matchSvc.SetPosition(ctx, match.ID, playerIDs[0], intp(5))
			So(err, ShouldEqual, services.ErrInvalidPosition)

			_, err = env.matchSvc.SetPosition(ctx, match.ID, playerIDs[0], intp(0))
			So(err, ShouldEqual, services.ErrInvalidPosition)
		})

		Convey("Negative scores and times are rejected", func() {
			score := int64(-10)
			_, err := env.matchSvc.SetScore(ctx, match.ID, playerIDs[0], &score)
			So(err, ShouldEqual, services.ErrInvalidScore)

			_, err = env.matchSvc.SetTime(ctx, match.ID, playerIDs[0], intp(-1))
			So(err, ShouldEqual, services.ErrInvalidTime)
		})

		Convey("Start order can be changed until a result exists", func() {
			reordered, err := env.matchSvc.SetStartOrder(ctx, match.ID, []int{playerIDs[3], playerIDs[2], playerIDs[1], playerIDs[0]})
			So(err, ShouldBeNil)
			for _, mp := range reordered.Players {
				if mp.PlayerID == playerIDs[3] {
					So(*mp.StartPosition, ShouldEqual, 1)
				}
			}

			_, err = env.matchSvc.SetPosition(ctx, match.ID, playerIDs[0], intp(1))
			So(err, ShouldBeNil)

			_, err = env.matchSvc.SetStartOrder(ctx, match.ID, []int{playerIDs[0], playerIDs[1], playerIDs[2], playerIDs[3]})
			So(err, ShouldEqual, services.ErrStartOrderLocked)
		})

		Convey("Writes into a finished tournament are rejected", func() {
			So(env.tournaments.UpdateStatus(ctx, nil, tournament.ID, models.TournamentStatusFinished), ShouldBeNil)
			_, err := env.matchSvc.SetPosition(ctx, match.ID, playerIDs[0], intp(1))
			So(err, ShouldEqual, services.ErrTournamentFinished)
		})
	})
}

func TestRoundGate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a swiss tournament with an unfinished first round", t, func() {
		env := newTestEnv()
		tournament := env.seedTournament("autumn", models.FormatSwiss, 2, models.CategoryFun)
		a := env.seedPlayer(tournament.ID, "Anna", nil)
		b := env.seedPlayer(tournament.ID, "Ben", nil)

		round1 := env.seedRound(tournament.ID, 1, tournament.Format, false)
		env.seedMatch(round1.ID, nil, a.ID, b.ID)
		round2 := env.seedRound(tournament.ID, 2, tournament.Format, false)
		match2 := env.seedMatch(round2.ID, nil, a.ID, b.ID)

		Convey("Completing the second round is gated, not an error", func() {
			update, err := env.matchSvc.SubmitMatchResult(ctx, match2.ID, map[int]int{a.ID: 1, b.ID: 2})
			So(err, ShouldBeNil)
			So(update.Match.Status, ShouldEqual, models.MatchStatusFinished)
			So(update.Gated, ShouldBeTrue)
			So(update.RoundStatus, ShouldEqual, models.RoundStatusOpen)

			stored, err := env.rounds.GetByID(ctx, round2.ID)
			So(err, ShouldBeNil)
			So(stored.Status, ShouldEqual, models.RoundStatusOpen)
		})
	})

	Convey("Given a rotation tournament, later rounds close independently", t, func() {
		env := newTestEnv()
		tournament := env.seedTournament("rotation", models.FormatRotation, 2, models.CategoryFun)
		a := env.seedPlayer(tournament.ID, "Anna", nil)
		b := env.seedPlayer(tournament.ID, "Ben", nil)

		round1 := env.seedRound(tournament.ID, 1, tournament.Format, false)
		env.seedMatch(round1.ID, nil, a.ID, b.ID)
		round2 := env.seedRound(tournament.ID, 2, tournament.Format, false)
		match2 := env.seedMatch(round2.ID, nil, a.ID, b.ID)

		update, err := env.matchSvc.SubmitMatchResult(ctx, match2.ID, map[int]int{a.ID: 1, b.ID: 2})
		So(err, ShouldBeNil)
		So(update.Gated, ShouldBeFalse)
		So(update.RoundStatus, ShouldEqual, models.RoundStatusFinished)
	})
}

func TestEliminationRoundHeadCount(t *testing.T) {
	ctx := context.Background()

	Convey("Given an elimination bracket that started with four players", t, func() {
		env := newTestEnv()
		tournament := env.seedTournament("ko", models.FormatElimination, 4, models.CategoryFun)
		var playerIDs []int
		for _, name := range []string{"Anna", "Ben", "Clara", "Dan"} {
			playerIDs = append(playerIDs, env.seedPlayer(tournament.ID, name, nil).ID)
		}
		round1 := env.seedRound(tournament.ID, 1, tournament.Format, false)
		match1 := env.seedMatch(round1.ID, nil, playerIDs...)
		_, err := env.matchSvc.SubmitMatchResult(ctx, match1.ID, map[int]int{
			playerIDs[0]: 1, playerIDs[1]: 2, playerIDs[2]: 3, playerIDs[3]: 4,
		})
		So(err, ShouldBeNil)

		Convey("Round two needs three distinct players to close", func() {
			round2 := env.seedRound(tournament.ID, 2, tournament.Format, false)
			short := env.seedMatch(round2.ID, nil, playerIDs[0], playerIDs[1])

			update, err := env.matchSvc.SubmitMatchResult(ctx, short.ID, map[int]int{
				playerIDs[0]: 1, playerIDs[1]: 2,
			})
			So(err, ShouldBeNil)
			So(update.Match.Status, ShouldEqual, models.MatchStatusFinished)
			So(update.RoundStatus, ShouldEqual, models.RoundStatusOpen)
		})

		Convey("With the full head count the round closes", func() {
			round2 := env.seedRound(tournament.ID, 2, tournament.Format, false)
			full := env.seedMatch(round2.ID, nil, playerIDs[0], playerIDs[1], playerIDs[2])

			update, err := env.matchSvc.SubmitMatchResult(ctx, full.ID, map[int]int{
				playerIDs[0]: 1, playerIDs[1]: 2, playerIDs[2]: 3,
			})
			So(err, ShouldBeNil)
			So(update.RoundStatus, ShouldEqual, models.RoundStatusFinished)
		})
	})
}

func TestMatchRatingSideEffect(t *testing.T) {
	ctx := context.Background()

	Convey("Given a league match between two established 1500 profiles", t, func() {
		env := newTestEnv()
		tournament := env.seedTournament("league", models.FormatMatchplay, 2, models.CategoryLeague)
		pa := env.seedProfile("Anna", 0)
		pb := env.seedProfile("Ben", 0)
		a := env.seedPlayer(tournament.ID, "Anna", &pa.ID)
		b := env.seedPlayer(tournament.ID, "Ben", &pb.ID)
		round := env.seedRound(tournament.ID, 1, tournament.Format, true)
		match := env.seedMatch(round.ID, nil, a.ID, b.ID)

		Convey("Finishing the match moves the ratings symmetrically", func() {
			update, err := env.matchSvc.SubmitMatchResult(ctx, match.ID, map[int]int{a.ID: 1, b.ID: 2})
			So(err, ShouldBeNil)
			So(update.RatingApplied, ShouldBeTrue)

			winner, _ := env.profiles.GetByID(ctx, pa.ID)
			loser, _ := env.profiles.GetByID(ctx, pb.ID)
			So(winner.Rating, ShouldAlmostEqual, 1512, 0.0001)
			So(loser.Rating, ShouldAlmostEqual, 1488, 0.0001)
			So(winner.MatchesPlayed, ShouldEqual, 1)
			So(loser.MatchesPlayed, ShouldEqual, 1)

			Convey("And both profiles got a pre-match snapshot", func() {
				snapshots, err := env.ratings.ListByTournament(ctx, tournament.ID)
				So(err, ShouldBeNil)
				So(len(snapshots), ShouldEqual, 2)
				for _, s := range snapshots {
					So(s.RatingBefore, ShouldAlmostEqual, 1500, 0.0001)
					So(s.MatchesBefore, ShouldEqual, 0)
				}
			})
		})

		Convey("A fun-category tournament leaves ratings untouched", func() {
			fun := env.seedTournament("fun", models.FormatMatchplay, 2, models.CategoryFun)
			fa := env.seedPlayer(fun.ID, "Anna", &pa.ID)
			fb := env.seedPlayer(fun.ID, "Ben", &pb.ID)
			funRound := env.seedRound(fun.ID, 1, fun.Format, false)
			funMatch := env.seedMatch(funRound.ID, nil, fa.ID, fb.ID)

			update, err := env.matchSvc.SubmitMatchResult(ctx, funMatch.ID, map[int]int{fa.ID: 1, fb.ID: 2})
			So(err, ShouldBeNil)
			So(update.RatingApplied, ShouldBeFalse)

			profile, _ := env.profiles.GetByID(ctx, pa.ID)
			So(profile.Rating, ShouldAlmostEqual, 1500, 0.0001)
		})
	})
}
