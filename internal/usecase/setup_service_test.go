package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
	"github.com/riskibarqy/starleague-draft/internal/infrastructure/repository/document"
	"github.com/riskibarqy/starleague-draft/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
)

func TestSetupService_Bootstrap_CreatesDefaultsOnce(t *testing.T) {
	t.Parallel()

	uow := document.NewUnitOfWork(memory.NewStore())
	svc := NewSetupService(uow, &sequenceTokens{}, nil, nil, SetupConfig{TeamCount: 4}, logging.NewNop())

	result, err := svc.Bootstrap(t.Context())
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if !result.Created || result.GeneratedAdminToken != "token-01" {
		t.Fatalf("unexpected bootstrap result: %+v", result)
	}

	teams, err := svc.ListTeams(t.Context())
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(teams) != 4 {
		t.Fatalf("unexpected team count: %d", len(teams))
	}
	for i, team := range teams {
		if team.ID != i+1 || team.DraftPosition != i+1 || team.Token == "" {
			t.Fatalf("unexpected default team: %+v", team)
		}
	}

	again, err := svc.Bootstrap(t.Context())
	if err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if again.Created || again.GeneratedAdminToken != "" {
		t.Fatalf("bootstrap must not recreate an existing draft: %+v", again)
	}

	entries, err := svc.Audit(t.Context())
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != draft.ActionDraftInitialized {
		t.Fatalf("unexpected audit trail: %+v", entries)
	}
}

func TestSetupService_Reset_KeepsNameTokenAndTimer(t *testing.T) {
	t.Parallel()

	h := newDraftHarness(t, 2, sixPlayersCSV, nil)
	if err := h.setup.UpdateDraftName(t.Context(), "ASL Season 9"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	h.start(t)
	h.pick(t, 1, 1)

	if err := h.setup.Reset(t.Context()); err != nil {
		t.Fatalf("reset: %v", err)
	}

	state := h.state(t)
	if state.Status != draft.StatusSetup || state.Name != "ASL Season 9" {
		t.Fatalf("unexpected state after reset: %+v", state)
	}
	if len(state.Players) != 0 || len(state.Events) != 0 {
		t.Fatalf("reset must clear players and events")
	}
	if state.SecondsPerPick != int(testPickWindow.Seconds()) {
		t.Fatalf("unexpected seconds per pick: %d", state.SecondsPerPick)
	}
	if err := NewAuthService(h.uow).AuthenticateAdmin(t.Context(), testAdminToken); err != nil {
		t.Fatalf("admin token must survive reset: %v", err)
	}

	entries := h.audit(t)
	if len(entries) != 1 || entries[0].Action != draft.ActionDraftReset {
		t.Fatalf("unexpected audit trail after reset: %+v", entries)
	}
}

func TestSetupService_UpdateDraftName_Validation(t *testing.T) {
	t.Parallel()

	h := newDraftHarness(t, 2, "", nil)

	if err := h.setup.UpdateDraftName(t.Context(), "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank name, got %v", err)
	}
	if err := h.setup.UpdateDraftName(t.Context(), strings.Repeat("x", 121)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for long name, got %v", err)
	}
	if err := h.setup.UpdateDraftName(t.Context(), "  KSL Finals  "); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got := h.state(t).Name; got != "KSL Finals" {
		t.Fatalf("unexpected name: %q", got)
	}
}

func TestSetupService_UpdateSettings_OnlyInSetupOrPaused(t *testing.T) {
	t.Parallel()

	h := newDraftHarness(t, 2, sixPlayersCSV, nil)

	if err := h.setup.UpdateSettings(t.Context(), 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := h.setup.UpdateSettings(t.Context(), 90); err != nil {
		t.Fatalf("update settings in setup: %v", err)
	}

	h.start(t)
	if err := h.setup.UpdateSettings(t.Context(), 30); !errors.Is(err, draft.ErrSettingsLocked) {
		t.Fatalf("expected settings locked while live, got %v", err)
	}

	if err := h.draft.Pause(t.Context()); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := h.setup.UpdateSettings(t.Context(), 30); err != nil {
		t.Fatalf("update settings while paused: %v", err)
	}
	if err := h.draft.Resume(t.Context()); err != nil {
		t.Fatalf("resume: %v", err)
	}

	state := h.state(t)
	want := h.clock.Now().Add(30 * time.Second)
	if state.SecondsPerPick != 30 || !state.PickDeadlineAt.Equal(want) {
		t.Fatalf("resume must use the new timer: seconds=%d deadline=%v", state.SecondsPerPick, state.PickDeadlineAt)
	}
}

func TestSetupService_ImportPlayers_RejectedOutsideSetup(t *testing.T) {
	t.Parallel()

	h := newDraftHarness(t, 2, sixPlayersCSV, nil)
	if state := h.state(t); len(state.Players) != 6 {
		t.Fatalf("unexpected player count: %d", len(state.Players))
	}

	// Re-import while still in setup replaces the pool.
	n, err := h.setup.ImportPlayers(t.Context(), strings.NewReader(pairedBucketsCSV))
	if err != nil || n != 4 {
		t.Fatalf("re-import: n=%d err=%v", n, err)
	}

	h.start(t)
	if _, err := h.setup.ImportPlayers(t.Context(), strings.NewReader(sixPlayersCSV)); !errors.Is(err, draft.ErrDraftNotSetup) {
		t.Fatalf("expected draft not in setup, got %v", err)
	}
}

func TestSetupService_UpdateTeams(t *testing.T) {
	t.Parallel()

	h := newDraftHarness(t, 3, "", nil)

	teams, err := h.setup.UpdateTeams(t.Context(), []TeamUpdate{
		{ID: 1, Name: "Zerglings", DraftPosition: draft.IntPtr(3)},
		{ID: 3, Name: "Carriers", Logo: "https://example.com/c.png", DraftPosition: draft.IntPtr(1)},
	})
	if err != nil {
		t.Fatalf("update teams: %v", err)
	}
	if teams[0].Name != "Zerglings" || teams[2].Logo != "https://example.com/c.png" {
		t.Fatalf("unexpected teams: %+v", teams)
	}

	state := h.state(t)
	want := []int{3, 2, 1}
	for i, id := range want {
		if state.DraftOrder[i] != id {
			t.Fatalf("unexpected draft order: %v", state.DraftOrder)
		}
	}

	cases := []struct {
		name    string
		updates []TeamUpdate
	}{
		{name: "unknown team", updates: []TeamUpdate{{ID: 9, Name: "Ghost"}}},
		{name: "duplicate id", updates: []TeamUpdate{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}}},
		{name: "blank name", updates: []TeamUpdate{{ID: 1, Name: " "}}},
		{name: "duplicate name", updates: []TeamUpdate{{ID: 1, Name: "carriers"}}},
		{name: "position out of range", updates: []TeamUpdate{{ID: 1, Name: "A", DraftPosition: draft.IntPtr(4)}}},
		{name: "position collision", updates: []TeamUpdate{{ID: 2, Name: "B", DraftPosition: draft.IntPtr(1)}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := h.setup.UpdateTeams(t.Context(), tc.updates); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}

	h2 := newDraftHarness(t, 2, sixPlayersCSV, nil)
	h2.start(t)
	if _, err := h2.setup.UpdateTeams(t.Context(), []TeamUpdate{{ID: 1, Name: "Late"}}); !errors.Is(err, draft.ErrDraftNotSetup) {
		t.Fatalf("expected draft not in setup, got %v", err)
	}
}

func TestSetupService_AdminPathsApplyExpiredTimer(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		run  func(t *testing.T, h *draftHarness) error
	}{
		{name: "rename", run: func(t *testing.T, h *draftHarness) error {
			return h.setup.UpdateDraftName(t.Context(), "ASL Season 10")
		}},
		{name: "settings", run: func(t *testing.T, h *draftHarness) error {
			return h.setup.UpdateSettings(t.Context(), 30)
		}},
		{name: "list teams", run: func(t *testing.T, h *draftHarness) error {
			_, err := h.setup.ListTeams(t.Context())
			return err
		}},
		{name: "update teams", run: func(t *testing.T, h *draftHarness) error {
			_, err := h.setup.UpdateTeams(t.Context(), []TeamUpdate{{ID: 1, Name: "Late"}})
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newDraftHarness(t, 2, sixPlayersCSV, nil)
			h.start(t)
			h.clock.Advance(testPickWindow)

			// Settings and team edits are refused while live; the timeout must land anyway.
			_ = tc.run(t, h)

			entries, err := h.setup.Audit(t.Context())
			if err != nil {
				t.Fatalf("audit: %v", err)
			}
			skips := 0
			for _, e := range entries {
				if e.Action == draft.ActionTeamSkipped {
					skips++
				}
			}
			if skips != 1 {
				t.Fatalf("expected one timeout skip, got %d in %+v", skips, entries)
			}

			var events []draft.Event
			err = h.uow.View(t.Context(), func(ctx context.Context, repo draft.Repository) error {
				events, err = repo.GetEvents(ctx)
				return err
			})
			if err != nil {
				t.Fatalf("load events: %v", err)
			}
			if len(events) != 1 || events[0].SkipReason == nil || *events[0].SkipReason != draft.SkipTimeout {
				t.Fatalf("unexpected events: %+v", events)
			}
		})
	}
}

func TestSetupService_AuditAppliesExpiredTimer(t *testing.T) {
	t.Parallel()

	h := newDraftHarness(t, 2, sixPlayersCSV, nil)
	h.start(t)
	h.clock.Advance(testPickWindow)

	entries := h.audit(t)
	last := entries[len(entries)-1]
	if last.Action != draft.ActionTeamSkipped {
		t.Fatalf("expected the timeout skip as the last audit entry, got %+v", last)
	}
}
