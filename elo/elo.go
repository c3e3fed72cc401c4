// Package elo implements the pairwise multiplayer rating update. A match of N
// players is treated as N*(N-1)/2 head-to-head games; each player's delta is
// the sum of K*(actual-expected) over all their pairs.
package elo

import "math"

// Participant is one player's rating state going into a match.
type Participant struct {
	ProfileID int
	Rating    float64
	// MatchesPlayed and ProvisionalMatches drive the K-factor.
	MatchesPlayed      int
	ProvisionalMatches int
	// Position in the match, 1 = best. Equal positions score 0.5 each.
	Position int
}

// Delta is the rating movement for one profile from one match.
type Delta struct {
	ProfileID int
	Change    float64
}

// Schedule maps a participant to their K-factor.
type Schedule interface {
	K(matchesPlayed, provisionalMatches int) float64
}

// SubmissionSchedule is the steeper live-entry curve: 48 while provisional,
// 24 after.
type SubmissionSchedule struct{}

func (SubmissionSchedule) K(_, provisional int) float64 {
	if provisional > 0 {
		return 48
	}
	return 24
}

// ReplaySchedule is the graduated curve: 32 while provisional, 24 under 30
// career matches, 16 after.
type ReplaySchedule struct{}

func (ReplaySchedule) K(matches, provisional int) float64 {
	switch {
	case provisional > 0:
		return 32
	case matches < 30:
		return 24
	default:
		return 16
	}
}

// Expected is the classic Elo expectation of a beating b.
func Expected(ratingA, ratingB float64) float64 {
	return 1 / (1 + math.Pow(10, (ratingB-ratingA)/400))
}

// MatchDeltas computes every participant's rating change for one finished
// match. Input order does not affect the result.
func MatchDeltas(participants []Participant, schedule Schedule) []Delta {
	deltas := make([]Delta, len(participants))
	for i, p := range participants {
		deltas[i] = Delta{ProfileID: p.ProfileID}
		k := schedule.K(p.MatchesPlayed, p.ProvisionalMatches)
		for j, q := range participants {
			if i == j {
				continue
			}
			expected := Expected(p.Rating, q.Rating)
			actual := score(p.Position, q.Position)
			deltas[i].Change += k * (actual - expected)
		}
	}
	return deltas
}

// score is the actual result of the (a, b) pairing: win 1, loss 0, tie 0.5.
func score(posA, posB int) float64 {
	switch {
	case posA < posB:
		return 1
	case posA > posB:
		return 0
	default:
		return 0.5
	}
}
