package draft

import (
	"fmt"
	"sort"
)

// TeamForPick resolves the team on the clock for a 1-based pick number.
// Odd rounds follow draftOrder, even rounds run it in reverse.
func TeamForPick(pickNumber int, draftOrder []int) (int, error) {
	n := len(draftOrder)
	if n == 0 {
		return 0, fmt.Errorf("%w: draft order is empty", ErrInvariantViolation)
	}
	if pickNumber < 1 {
		return 0, fmt.Errorf("%w: pick number must be >= 1, got %d", ErrInvariantViolation, pickNumber)
	}

	round := (pickNumber-1)/n + 1
	index := (pickNumber - 1) % n
	if round%2 == 0 {
		return draftOrder[n-1-index], nil
	}
	return draftOrder[index], nil
}

// Roster returns every player assigned to teamID regardless of role.
func Roster(players []Player, teamID int) []Player {
	out := make([]Player, 0)
	for _, p := range players {
		if p.OnTeam(teamID) {
			out = append(out, p)
		}
	}
	return out
}

// BucketsUsed returns the distinct buckets already held by teamID.
func BucketsUsed(players []Player, teamID int) map[int]struct{} {
	used := make(map[int]struct{})
	for _, p := range players {
		if p.OnTeam(teamID) {
			used[p.BucketIndex] = struct{}{}
		}
	}
	return used
}

// SortedBuckets lists a bucket set in ascending order.
func SortedBuckets(used map[int]struct{}) []int {
	out := make([]int, 0, len(used))
	for bucket := range used {
		out = append(out, bucket)
	}
	sort.Ints(out)
	return out
}

// CanDraft reports whether teamID may take p under the one-per-bucket rule.
func CanDraft(players []Player, teamID int, p Player) bool {
	_, taken := BucketsUsed(players, teamID)[p.BucketIndex]
	return !taken
}

// EligiblePlayers lists available players whose bucket teamID does not hold yet.
func EligiblePlayers(players []Player, teamID int) []Player {
	used := BucketsUsed(players, teamID)
	out := make([]Player, 0)
	for _, p := range players {
		if !p.Available() {
			continue
		}
		if _, taken := used[p.BucketIndex]; taken {
			continue
		}
		out = append(out, p)
	}
	return out
}

func CountAvailable(players []Player) int {
	count := 0
	for _, p := range players {
		if p.Available() {
			count++
		}
	}
	return count
}

// DistinctTeams counts the distinct team ids in draftOrder.
func DistinctTeams(draftOrder []int) int {
	seen := make(map[int]struct{}, len(draftOrder))
	for _, id := range draftOrder {
		seen[id] = struct{}{}
	}
	return len(seen)
}

// OrderFromPositions rebuilds the round-one pick order from team draft positions.
func OrderFromPositions(teams []Team) []int {
	sorted := append([]Team(nil), teams...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DraftPosition < sorted[j].DraftPosition
	})

	order := make([]int, 0, len(sorted))
	for _, t := range sorted {
		order = append(order, t.ID)
	}
	return order
}

// AssignBuckets splits players ordered by ranking into MaxBucket equal tiers.
func AssignBuckets(players []Player) {
	n := len(players)
	if n == 0 {
		return
	}

	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Ranking < players[j].Ranking
	})
	for i := range players {
		players[i].BucketIndex = i*MaxBucket/n + MinBucket
	}
}
