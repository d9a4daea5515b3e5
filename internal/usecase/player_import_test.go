package usecase

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
)

func TestParsePlayersCSV_AssignsBucketsByRanking(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	b.WriteString("Rank,Name,Race,Notes\n")
	// Rows out of order; ids and buckets follow ranking.
	for rank := 24; rank >= 1; rank-- {
		b.WriteString(strings.Join([]string{strconv.Itoa(rank), "Player " + strconv.Itoa(rank), "zerg", ""}, ","))
		b.WriteString("\n")
	}
	b.WriteString(",,,\n")

	players, err := ParsePlayersCSV(strings.NewReader(b.String()))
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(players) != 24 {
		t.Fatalf("unexpected player count: %d", len(players))
	}
	for i, p := range players {
		if p.ID != i+1 || p.Ranking != i+1 {
			t.Fatalf("unexpected order at %d: %+v", i, p)
		}
		if want := i/2 + 1; p.BucketIndex != want {
			t.Fatalf("ranking %d: got bucket %d want %d", p.Ranking, p.BucketIndex, want)
		}
		if p.Race != draft.RaceZerg || p.Status != draft.PlayerAvailable {
			t.Fatalf("unexpected player: %+v", p)
		}
	}
}

func TestParsePlayersCSV_ExplicitBucketsAndNotes(t *testing.T) {
	t.Parallel()

	players, err := ParsePlayersCSV(strings.NewReader(`2,Jaedong,Z,"Captain - Team 1",1
1,Flash,Terran,,3
3,Bisu,p,protected - Team 2,12
`))
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}

	if players[0].DisplayName != "Flash" || players[0].BucketIndex != 3 || players[0].ID != 1 {
		t.Fatalf("unexpected first player: %+v", players[0])
	}
	if players[1].Notes != "Captain - Team 1" || players[1].Race != draft.RaceZerg {
		t.Fatalf("unexpected second player: %+v", players[1])
	}
	if players[2].BucketIndex != 12 || players[2].Race != draft.RaceProtoss {
		t.Fatalf("unexpected third player: %+v", players[2])
	}
}

func TestParsePlayersCSV_Rejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		csv  string
	}{
		{name: "empty", csv: ""},
		{name: "header only", csv: "rank,name,race,notes\n"},
		{name: "missing race", csv: "1,Flash\n"},
		{name: "bad rank", csv: "1,Flash,T\nx,Bisu,P\n"},
		{name: "zero rank", csv: "0,Flash,T\n"},
		{name: "unknown race", csv: "1,Flash,Q\n"},
		{name: "blank name", csv: "1, ,T\n"},
		{name: "duplicate rank", csv: "1,Flash,T\n1,Bisu,P\n"},
		{name: "bucket out of range", csv: "1,Flash,T,,13\n"},
		{name: "partial bucket column", csv: "1,Flash,T,,1\n2,Bisu,P,,\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParsePlayersCSV(strings.NewReader(tc.csv)); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}
