package draft

import (
	"errors"
	"testing"
)

func TestTeamForPick_SnakeOrder(t *testing.T) {
	order := []int{1, 2, 3, 4}
	want := []int{1, 2, 3, 4, 4, 3, 2, 1, 1, 2, 3, 4}

	for i, expected := range want {
		pick := i + 1
		got, err := TeamForPick(pick, order)
		if err != nil {
			t.Fatalf("team for pick %d: %v", pick, err)
		}
		if got != expected {
			t.Fatalf("pick %d: got team %d want %d", pick, got, expected)
		}
	}
}

func TestTeamForPick_RoundsMirrorForAnyOrder(t *testing.T) {
	orders := [][]int{
		{7},
		{2, 1},
		{3, 1, 2},
		{5, 3, 1, 4, 2},
	}

	for _, order := range orders {
		n := len(order)
		for i := 0; i < n; i++ {
			first, err := TeamForPick(i+1, order)
			if err != nil {
				t.Fatalf("round one pick %d: %v", i+1, err)
			}
			if first != order[i] {
				t.Fatalf("order=%v round one pick %d: got %d want %d", order, i+1, first, order[i])
			}

			second, err := TeamForPick(n+i+1, order)
			if err != nil {
				t.Fatalf("round two pick %d: %v", n+i+1, err)
			}
			if second != order[n-1-i] {
				t.Fatalf("order=%v round two pick %d: got %d want %d", order, n+i+1, second, order[n-1-i])
			}
		}
	}
}

func TestTeamForPick_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		pick  int
		order []int
	}{
		{name: "empty order", pick: 1, order: nil},
		{name: "zero pick", pick: 0, order: []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := TeamForPick(tt.pick, tt.order)
			if !errors.Is(err, ErrInvariantViolation) {
				t.Fatalf("expected ErrInvariantViolation, got %v", err)
			}
		})
	}
}

func TestEligiblePlayers_ExcludesHeldBucketsAndDrafted(t *testing.T) {
	players := []Player{
		{ID: 1, BucketIndex: 1, Status: PlayerDrafted, TeamID: IntPtr(1)},
		{ID: 2, BucketIndex: 1, Status: PlayerAvailable},
		{ID: 3, BucketIndex: 2, Status: PlayerAvailable},
		{ID: 4, BucketIndex: 3, Status: PlayerDrafted, TeamID: IntPtr(2)},
		{ID: 5, BucketIndex: 3, Status: PlayerAvailable},
	}

	got := EligiblePlayers(players, 1)
	if len(got) != 2 || got[0].ID != 3 || got[1].ID != 5 {
		t.Fatalf("unexpected eligible players for team 1: %+v", got)
	}

	got = EligiblePlayers(players, 2)
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Fatalf("unexpected eligible players for team 2: %+v", got)
	}

	if CanDraft(players, 1, players[1]) {
		t.Fatalf("expected bucket 1 to be blocked for team 1")
	}
	if !CanDraft(players, 2, players[1]) {
		t.Fatalf("expected bucket 1 to be open for team 2")
	}
}

func TestBucketsUsed_Sorted(t *testing.T) {
	players := []Player{
		{ID: 1, BucketIndex: 9, Status: PlayerDrafted, TeamID: IntPtr(3)},
		{ID: 2, BucketIndex: 2, Status: PlayerDrafted, TeamID: IntPtr(3)},
		{ID: 3, BucketIndex: 5, Status: PlayerDrafted, TeamID: IntPtr(4)},
	}

	got := SortedBuckets(BucketsUsed(players, 3))
	if len(got) != 2 || got[0] != 2 || got[1] != 9 {
		t.Fatalf("unexpected buckets: %v", got)
	}
	if roster := Roster(players, 4); len(roster) != 1 || roster[0].ID != 3 {
		t.Fatalf("unexpected roster: %+v", roster)
	}
}

func TestAssignBuckets_EqualTiers(t *testing.T) {
	players := make([]Player, 0, 24)
	for rank := 24; rank >= 1; rank-- {
		players = append(players, Player{ID: rank, Ranking: rank})
	}

	AssignBuckets(players)

	for i, p := range players {
		if p.Ranking != i+1 {
			t.Fatalf("expected players sorted by ranking, index %d has ranking %d", i, p.Ranking)
		}
		want := i/2 + 1
		if p.BucketIndex != want {
			t.Fatalf("ranking %d: got bucket %d want %d", p.Ranking, p.BucketIndex, want)
		}
	}
}

func TestOrderFromPositions(t *testing.T) {
	teams := []Team{
		{ID: 1, DraftPosition: 3},
		{ID: 2, DraftPosition: 1},
		{ID: 3, DraftPosition: 2},
	}

	got := OrderFromPositions(teams)
	want := []int{2, 3, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: got %v want %v", got, want)
		}
	}
}

func TestSessionValidate_Invariants(t *testing.T) {
	deadline := fixedTime()
	tests := []struct {
		name    string
		session Session
		wantErr bool
	}{
		{name: "setup", session: Session{Status: StatusSetup, SecondsPerPick: 60}},
		{name: "live", session: Session{Status: StatusLive, SecondsPerPick: 60, CurrentTeamID: IntPtr(1), PickDeadlineAt: &deadline}},
		{name: "paused", session: Session{Status: StatusPaused, SecondsPerPick: 60, CurrentTeamID: IntPtr(1)}},
		{name: "live without deadline", session: Session{Status: StatusLive, SecondsPerPick: 60, CurrentTeamID: IntPtr(1)}, wantErr: true},
		{name: "paused with deadline", session: Session{Status: StatusPaused, SecondsPerPick: 60, CurrentTeamID: IntPtr(1), PickDeadlineAt: &deadline}, wantErr: true},
		{name: "completed with team", session: Session{Status: StatusCompleted, SecondsPerPick: 60, CurrentTeamID: IntPtr(2)}, wantErr: true},
		{name: "zero timer", session: Session{Status: StatusSetup}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err=%v wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestRuleError_MatchesRuleViolation(t *testing.T) {
	if !errors.Is(ErrBucketRuleViolation, ErrRuleViolation) {
		t.Fatalf("expected rule errors to match ErrRuleViolation")
	}
	if errors.Is(ErrInvariantViolation, ErrRuleViolation) {
		t.Fatalf("did not expect invariant violation to be a rule violation")
	}
	ruleErr, ok := AsRuleError(ErrTimeExpired)
	if !ok || ruleErr.Message != "Time expired" {
		t.Fatalf("unexpected rule error: %v", ruleErr)
	}
}

func TestOnTeam_IgnoresAvailablePlayerWithStaleTeam(t *testing.T) {
	players := []Player{
		{ID: 1, BucketIndex: 4, Status: PlayerAvailable, TeamID: IntPtr(2)},
	}

	if len(Roster(players, 2)) != 0 {
		t.Fatalf("available player must not be on roster")
	}
	if !CanDraft(players, 2, Player{ID: 2, BucketIndex: 4}) {
		t.Fatalf("bucket of an undone pick must be open again")
	}
}
