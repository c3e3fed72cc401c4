// Package pairing builds a new round's matches from the tournament's active
// players and machines. Randomness is injected so pairings are reproducible in
// tests.
package pairing

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/flipperliga/league-system/models"
)

var ErrNotEnoughPlayers = errors.New("at least two active players required for pairing")

// History is the play history the generator consults. SeedPoints are each
// player's cumulative swiss seeding points (3/2/1/0 per placement) across the
// tournament so far; SeedPointsFailed marks an unrecoverable history load, in
// which case swiss ordering falls back to a plain shuffle. MachinePlays maps
// playerID -> machineID -> true for every machine the player has already
// played, any round.
type History struct {
	SeedPoints       map[int]int
	SeedPointsFailed bool
	MachinePlays     map[int]map[int]bool
}

// Input describes the round to generate.
type Input struct {
	Format     models.TournamentFormat
	TargetSize int
	Players    []models.Player
	Machines   []models.Machine
	History    History
}

// Group is one generated match: its players in seating order and the machine
// assigned to it, if any.
type Group struct {
	Players   []models.Player
	MachineID *int
}

// Result carries the generated groups plus non-fatal warnings (a group left
// without a machine).
type Result struct {
	Groups   []Group
	Warnings []string
}

type Generator struct {
	rng *rand.Rand
}

func New(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate partitions the players into groups of the target size and assigns
// each group a machine. Group sizes degrade target -> target-1 rather than
// ever producing a group of one.
func (g *Generator) Generate(in Input) (*Result, error) {
	if len(in.Players) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	ordered := g.orderPlayers(in)
	sizes := groupSizes(len(ordered), in.TargetSize)

	res := &Result{}
	used := make(map[int]bool, len(in.Machines))
	offset := 0
	for i, size := range sizes {
		members := ordered[offset : offset+size]
		offset += size
		if len(members) < 2 {
			// Should not happen given the grouping rule; drop silently.
			continue
		}
		group := Group{Players: append([]models.Player(nil), members...)}
		if machineID := pickMachine(in.Machines, members, used, in.History.MachinePlays); machineID != nil {
			group.MachineID = machineID
			used[*machineID] = true
		} else {
			res.Warnings = append(res.Warnings, fmt.Sprintf("no machine available for group %d", i+1))
		}
		res.Groups = append(res.Groups, group)
	}
	return res, nil
}

// orderPlayers sorts swiss rounds by seeding points (descending, names break
// ties); every other format gets an unweighted shuffle.
func (g *Generator) orderPlayers(in Input) []models.Player {
	ordered := append([]models.Player(nil), in.Players...)

	if in.Format == models.FormatSwiss && !in.History.SeedPointsFailed {
		sort.SliceStable(ordered, func(i, j int) bool {
			pi := in.History.SeedPoints[ordered[i].ID]
			pj := in.History.SeedPoints[ordered[j].ID]
			if pi != pj {
				return pi > pj
			}
			return ordered[i].Name < ordered[j].Name
		})
		return ordered
	}

	g.rng.Shuffle(len(ordered), func(i, j int) {
		ordered[i], ordered[j] = ordered[j], ordered[i]
	})
	return ordered
}

// groupSizes splits n players into groups of the target size. A remainder of
// one is repaired by taking a member from the last full group, so the tail
// becomes (target-1, 2) instead of (target, 1). At target 2 a pair cannot
// donate; the odd player joins the last pair to make a three instead.
func groupSizes(n, target int) []int {
	if target < 2 {
		target = 2
	}
	sizes := make([]int, 0, n/target+1)
	for i := 0; i < n/target; i++ {
		sizes = append(sizes, target)
	}
	rem := n % target
	if rem == 1 && len(sizes) > 0 {
		if target == 2 {
			sizes[len(sizes)-1]++
			rem = 0
		} else {
			sizes[len(sizes)-1]--
			rem = 2
		}
	}
	if rem > 0 {
		sizes = append(sizes, rem)
	}
	return sizes
}

// pickMachine scores every machine for the group and returns the id of the
// cheapest one: +5 for each group member who has played it before, +2 if it
// was already handed out in this round. Ties keep the earliest machine in
// input order.
func pickMachine(machines []models.Machine, group []models.Player, usedThisRound map[int]bool, plays map[int]map[int]bool) *int {
	var best *int
	bestScore := 0
	for _, m := range machines {
		score := 0
		for _, p := range group {
			if plays[p.ID][m.ID] {
				score += 5
			}
		}
		if usedThisRound[m.ID] {
			score += 2
		}
		if best == nil || score < bestScore {
			id := m.ID
			best = &id
			bestScore = score
		}
	}
	return best
}

// SeedPointsFor maps a match placement to swiss seeding points.
func SeedPointsFor(position int) int {
	switch position {
	case 1:
		return 3
	case 2:
		return 2
	case 3:
		return 1
	default:
		return 0
	}
}
