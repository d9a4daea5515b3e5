package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
)

// engine applies draft transitions to the state loaded in one unit of work.
// It is not safe for concurrent use and must not outlive the unit of work.
type engine struct {
	repo    draft.Repository
	session draft.Session
	now     time.Time
	logger  *logging.Logger

	sessionDirty bool
	timedOut     bool
	events       []draft.Event
}

func newEngine(ctx context.Context, repo draft.Repository, now time.Time, logger *logging.Logger) (*engine, error) {
	session, err := loadSession(ctx, repo)
	if err != nil {
		return nil, err
	}
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", draft.ErrInvariantViolation, err)
	}

	return &engine{
		repo:    repo,
		session: session,
		now:     now.UTC(),
		logger:  logger,
	}, nil
}

// commit stages the session if it changed. Other documents are staged by the
// repository calls themselves.
func (e *engine) commit(ctx context.Context) error {
	if !e.sessionDirty {
		return nil
	}
	if err := e.session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", draft.ErrInvariantViolation, err)
	}
	if err := e.repo.SaveSession(ctx, e.session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (e *engine) changed() bool {
	return e.sessionDirty || len(e.events) > 0
}

func (e *engine) teamForPick(pickNumber int) (int, error) {
	return draft.TeamForPick(pickNumber, e.session.DraftOrder)
}

func (e *engine) freshDeadline() *time.Time {
	deadline := e.now.Add(time.Duration(e.session.SecondsPerPick) * time.Second)
	return &deadline
}

func (e *engine) onClock() (int, error) {
	teamID, ok := e.session.OnClock()
	if !ok {
		return 0, fmt.Errorf("%w: no team on the clock while %s", draft.ErrInvariantViolation, e.session.Status)
	}
	return teamID, nil
}

func (e *engine) setSession(mutate func(s *draft.Session)) {
	mutate(&e.session)
	e.sessionDirty = true
}

// checkTimerExpiry skips the team on the clock once its deadline has passed.
func (e *engine) checkTimerExpiry(ctx context.Context) error {
	if e.session.Status != draft.StatusLive || e.session.PickDeadlineAt == nil {
		return nil
	}
	if e.now.Before(*e.session.PickDeadlineAt) {
		return nil
	}

	e.timedOut = true
	return e.skipTeam(ctx, draft.SkipTimeout, draft.MadeBySystem, draft.ActorSystem)
}

func (e *engine) teamPick(ctx context.Context, teamID, playerID int) error {
	if e.timedOut {
		return draft.ErrTimeExpired
	}
	if e.session.Status != draft.StatusLive {
		return draft.ErrDraftNotLive
	}
	current, err := e.onClock()
	if err != nil {
		return err
	}
	if current != teamID {
		return draft.ErrNotYourTurn
	}

	return e.makePick(ctx, teamID, playerID, draft.MadeByTeam, draft.TeamActor(teamID))
}

func (e *engine) adminAssign(ctx context.Context, teamID, playerID int) error {
	if e.session.Status == draft.StatusCompleted {
		return draft.ErrDraftCompleted
	}
	if _, ok, err := e.repo.GetTeamByID(ctx, teamID); err != nil {
		return fmt.Errorf("load team: %w", err)
	} else if !ok {
		return draft.ErrTeamNotFound
	}

	return e.makePick(ctx, teamID, playerID, draft.MadeByAdmin, draft.ActorAdmin)
}

func (e *engine) makePick(ctx context.Context, teamID, playerID int, madeBy draft.MadeBy, actor string) error {
	player, ok, err := e.repo.GetPlayerByID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("load player: %w", err)
	}
	if !ok || !player.Available() {
		return draft.ErrPlayerNotAvailable
	}

	if madeBy == draft.MadeByTeam {
		used, err := e.repo.GetTeamBucketsUsed(ctx, teamID)
		if err != nil {
			return fmt.Errorf("load team buckets: %w", err)
		}
		for _, bucket := range used {
			if bucket == player.BucketIndex {
				return draft.ErrBucketRuleViolation
			}
		}
	}

	live := e.session.Status == draft.StatusLive
	var pickNumber *int
	if live {
		pickNumber = draft.IntPtr(e.session.CurrentPickNumber)
	}

	result, action := draft.ResultPick, draft.ActionPickMade
	if madeBy != draft.MadeByTeam {
		result, action = draft.ResultAdminAssign, draft.ActionPlayerAssigned
	}

	if err := e.appendEvent(ctx, draft.Event{
		PickNumber: pickNumber,
		TeamID:     teamID,
		PlayerID:   draft.IntPtr(playerID),
		Result:     result,
		MadeBy:     madeBy,
	}); err != nil {
		return err
	}

	if err := e.updatePlayer(ctx, playerID, func(p *draft.Player) {
		p.Status = draft.PlayerDrafted
		p.TeamID = draft.IntPtr(teamID)
	}); err != nil {
		return err
	}

	if err := e.audit(ctx, actor, action, map[string]any{
		"pick_number": pickNumber,
		"team_id":     teamID,
		"player_id":   playerID,
		"player_name": player.DisplayName,
		"bucket":      player.BucketIndex,
	}); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "draft pick recorded",
		"action", action,
		"pick_number", pickNumber,
		"team_id", teamID,
		"player_id", playerID,
	)

	if !live {
		return nil
	}
	return e.advance(ctx)
}

func (e *engine) skipTeam(ctx context.Context, reason draft.SkipReason, madeBy draft.MadeBy, actor string) error {
	if err := e.recordSkip(ctx, reason, madeBy, actor); err != nil {
		return err
	}
	return e.advance(ctx)
}

func (e *engine) recordSkip(ctx context.Context, reason draft.SkipReason, madeBy draft.MadeBy, actor string) error {
	teamID, err := e.onClock()
	if err != nil {
		return err
	}

	pickNumber := e.session.CurrentPickNumber
	skipReason := reason
	if err := e.appendEvent(ctx, draft.Event{
		PickNumber: draft.IntPtr(pickNumber),
		TeamID:     teamID,
		Result:     draft.ResultSkip,
		SkipReason: &skipReason,
		MadeBy:     madeBy,
	}); err != nil {
		return err
	}

	if err := e.audit(ctx, actor, draft.ActionTeamSkipped, map[string]any{
		"pick_number": pickNumber,
		"team_id":     teamID,
		"reason":      string(reason),
	}); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "draft team skipped",
		"action", draft.ActionTeamSkipped,
		"pick_number", pickNumber,
		"team_id", teamID,
		"reason", reason,
	)
	return nil
}

// advance moves to the next pick, then keeps skipping teams that cannot pick.
func (e *engine) advance(ctx context.Context) error {
	if err := e.step(ctx); err != nil {
		return err
	}
	return e.skipIneligible(ctx)
}

func (e *engine) step(ctx context.Context) error {
	available, err := e.repo.CountAvailable(ctx)
	if err != nil {
		return fmt.Errorf("count available players: %w", err)
	}
	if available == 0 {
		return e.complete(ctx, nil)
	}

	next := e.session.CurrentPickNumber + 1
	teamID, err := e.teamForPick(next)
	if err != nil {
		return err
	}

	e.setSession(func(s *draft.Session) {
		s.CurrentPickNumber = next
		s.CurrentTeamID = draft.IntPtr(teamID)
		s.PickDeadlineAt = e.freshDeadline()
	})
	return nil
}

// skipIneligible runs until a team with an eligible player is on the clock or
// the draft completes. Once every team has been skipped in one run, no further
// pick is possible and the draft completes.
func (e *engine) skipIneligible(ctx context.Context) error {
	distinct := draft.DistinctTeams(e.session.DraftOrder)
	skipped := make(map[int]struct{}, distinct)

	for e.session.Status == draft.StatusLive {
		teamID, err := e.onClock()
		if err != nil {
			return err
		}

		eligible, err := e.repo.GetEligiblePlayersForTeam(ctx, teamID)
		if err != nil {
			return fmt.Errorf("load eligible players: %w", err)
		}
		if len(eligible) > 0 {
			return nil
		}

		if err := e.recordSkip(ctx, draft.SkipNoEligiblePlayers, draft.MadeBySystem, draft.ActorSystem); err != nil {
			return err
		}
		skipped[teamID] = struct{}{}

		if len(skipped) >= distinct {
			available, err := e.repo.CountAvailable(ctx)
			if err != nil {
				return fmt.Errorf("count available players: %w", err)
			}
			if available > 0 {
				return e.complete(ctx, map[string]any{
					"reason":          "no_eligible_teams",
					"available_count": available,
				})
			}
		}

		if err := e.step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) complete(ctx context.Context, metadata map[string]any) error {
	if e.session.Status == draft.StatusCompleted {
		return nil
	}

	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["pick_number"] = e.session.CurrentPickNumber

	e.setSession(func(s *draft.Session) {
		s.Status = draft.StatusCompleted
		s.CurrentTeamID = nil
		s.PickDeadlineAt = nil
	})
	if err := e.audit(ctx, draft.ActorSystem, draft.ActionDraftCompleted, metadata); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "draft completed", "action", draft.ActionDraftCompleted, "pick_number", e.session.CurrentPickNumber)
	return nil
}

func (e *engine) start(ctx context.Context) error {
	if e.session.Status != draft.StatusSetup {
		return draft.ErrDraftNotSetup
	}
	if len(e.session.DraftOrder) == 0 {
		return draft.ErrDraftOrderEmpty
	}

	teams, err := e.repo.GetTeams(ctx)
	if err != nil {
		return fmt.Errorf("load teams: %w", err)
	}
	known := make(map[int]struct{}, len(teams))
	for _, t := range teams {
		known[t.ID] = struct{}{}
	}
	for _, id := range e.session.DraftOrder {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: draft order references unknown team %d", draft.ErrInvariantViolation, id)
		}
	}

	if err := e.applyCaptainProtectedAssignments(ctx, teams); err != nil {
		return err
	}

	first, err := e.teamForPick(1)
	if err != nil {
		return err
	}
	e.setSession(func(s *draft.Session) {
		s.Status = draft.StatusLive
		s.CurrentPickNumber = 1
		s.CurrentTeamID = draft.IntPtr(first)
		s.PickDeadlineAt = e.freshDeadline()
	})

	if err := e.audit(ctx, draft.ActorAdmin, draft.ActionDraftStarted, map[string]any{
		"team_id":     first,
		"draft_order": e.session.DraftOrder,
	}); err != nil {
		return err
	}
	e.logger.InfoContext(ctx, "draft started", "action", draft.ActionDraftStarted, "pick_number", 1, "team_id", first)

	return e.skipIneligible(ctx)
}

func (e *engine) applyCaptainProtectedAssignments(ctx context.Context, teams []draft.Team) error {
	players, err := e.repo.GetPlayers(ctx)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}

	assignments := draft.ResolvePreAssignments(players, teams)
	if len(assignments) == 0 {
		return nil
	}

	byPlayer := make(map[int]draft.PreAssignment, len(assignments))
	for _, a := range assignments {
		byPlayer[a.PlayerID] = a
	}
	for i := range players {
		a, ok := byPlayer[players[i].ID]
		if !ok {
			continue
		}
		role := a.Role
		players[i].Role = &role
		players[i].Status = draft.PlayerDrafted
		players[i].TeamID = draft.IntPtr(a.TeamID)
	}
	if err := e.repo.SavePlayers(ctx, players); err != nil {
		return fmt.Errorf("save players: %w", err)
	}

	return e.audit(ctx, draft.ActorSystem, draft.ActionPreAssignmentsApplied, map[string]any{
		"count": len(assignments),
	})
}

func (e *engine) pause(ctx context.Context) error {
	if e.session.Status != draft.StatusLive {
		return draft.ErrDraftNotLive
	}
	e.setSession(func(s *draft.Session) {
		s.Status = draft.StatusPaused
		s.PickDeadlineAt = nil
	})
	return e.audit(ctx, draft.ActorAdmin, draft.ActionDraftPaused, map[string]any{
		"pick_number": e.session.CurrentPickNumber,
	})
}

func (e *engine) resume(ctx context.Context) error {
	if e.session.Status != draft.StatusPaused {
		return draft.ErrDraftNotPaused
	}
	e.setSession(func(s *draft.Session) {
		s.Status = draft.StatusLive
		s.PickDeadlineAt = e.freshDeadline()
	})
	return e.audit(ctx, draft.ActorAdmin, draft.ActionDraftResumed, map[string]any{
		"pick_number":      e.session.CurrentPickNumber,
		"pick_deadline_at": e.session.PickDeadlineAt,
	})
}

func (e *engine) end(ctx context.Context) error {
	if e.session.Status == draft.StatusCompleted {
		return draft.ErrDraftCompleted
	}
	previous := e.session.Status
	e.setSession(func(s *draft.Session) {
		s.Status = draft.StatusCompleted
		s.CurrentTeamID = nil
		s.PickDeadlineAt = nil
	})
	return e.audit(ctx, draft.ActorAdmin, draft.ActionDraftEnded, map[string]any{
		"previous_status": string(previous),
		"pick_number":     e.session.CurrentPickNumber,
	})
}

func (e *engine) restartTimer(ctx context.Context) error {
	if e.session.Status != draft.StatusLive {
		return draft.ErrDraftNotLive
	}
	e.setSession(func(s *draft.Session) {
		s.PickDeadlineAt = e.freshDeadline()
	})
	return e.audit(ctx, draft.ActorAdmin, draft.ActionTimerRestarted, map[string]any{
		"pick_number":      e.session.CurrentPickNumber,
		"pick_deadline_at": e.session.PickDeadlineAt,
	})
}

func (e *engine) manualSkip(ctx context.Context) error {
	if e.session.Status != draft.StatusLive {
		return draft.ErrDraftNotLive
	}
	return e.skipTeam(ctx, draft.SkipManual, draft.MadeByAdmin, draft.ActorAdmin)
}

// undo reverts the newest event. A drafted player goes back to available with
// team and role left as recorded.
func (e *engine) undo(ctx context.Context) error {
	last, ok, err := e.repo.RemoveLastEvent(ctx)
	if err != nil {
		return fmt.Errorf("remove last event: %w", err)
	}
	if !ok {
		return draft.ErrNoEventsToUndo
	}

	if last.PlayerID != nil {
		if err := e.updatePlayer(ctx, *last.PlayerID, func(p *draft.Player) {
			p.Status = draft.PlayerAvailable
		}); err != nil {
			return err
		}
	}

	if last.PickNumber != nil {
		teamID, err := e.teamForPick(*last.PickNumber)
		if err != nil {
			return err
		}
		e.setSession(func(s *draft.Session) {
			s.CurrentPickNumber = *last.PickNumber
			if s.Status == draft.StatusLive || s.Status == draft.StatusPaused {
				s.CurrentTeamID = draft.IntPtr(teamID)
			}
		})
	}

	switch e.session.Status {
	case draft.StatusLive:
		e.setSession(func(s *draft.Session) {
			s.PickDeadlineAt = e.freshDeadline()
		})
	case draft.StatusCompleted:
		if last.PickNumber == nil {
			break
		}
		if err := e.reopen(ctx); err != nil {
			return err
		}
	}

	if err := e.audit(ctx, draft.ActorAdmin, draft.ActionPickUndone, map[string]any{
		"event_id":    last.ID,
		"result":      string(last.Result),
		"pick_number": last.PickNumber,
		"team_id":     last.TeamID,
		"player_id":   last.PlayerID,
	}); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "draft event undone",
		"action", draft.ActionPickUndone,
		"event_id", last.ID,
		"pick_number", last.PickNumber,
		"team_id", last.TeamID,
		"player_id", last.PlayerID,
	)
	return nil
}

// reopen brings a completed draft back to live at the current pick. Only
// undo of a pick-numbered event reopens; a draft that never reached pick one
// stays completed.
func (e *engine) reopen(ctx context.Context) error {
	pick := e.session.CurrentPickNumber
	if pick < 1 {
		return nil
	}
	teamID, err := e.teamForPick(pick)
	if err != nil {
		return err
	}

	e.setSession(func(s *draft.Session) {
		s.Status = draft.StatusLive
		s.CurrentTeamID = draft.IntPtr(teamID)
		s.PickDeadlineAt = e.freshDeadline()
	})
	return e.audit(ctx, draft.ActorAdmin, draft.ActionDraftReopened, map[string]any{
		"pick_number": pick,
		"team_id":     teamID,
	})
}

func (e *engine) appendEvent(ctx context.Context, event draft.Event) error {
	event.CreatedAt = e.now
	stored, err := e.repo.AppendEvent(ctx, event)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	e.events = append(e.events, stored)
	return nil
}

func (e *engine) updatePlayer(ctx context.Context, playerID int, mutate func(p *draft.Player)) error {
	players, err := e.repo.GetPlayers(ctx)
	if err != nil {
		return fmt.Errorf("load players: %w", err)
	}
	for i := range players {
		if players[i].ID != playerID {
			continue
		}
		mutate(&players[i])
		if err := e.repo.SavePlayers(ctx, players); err != nil {
			return fmt.Errorf("save players: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: player %d not found", draft.ErrInvariantViolation, playerID)
}

func (e *engine) audit(ctx context.Context, actor, action string, metadata map[string]any) error {
	return appendAudit(ctx, e.repo, e.now, actor, action, metadata)
}

func appendAudit(ctx context.Context, repo draft.Repository, now time.Time, actor, action string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	if err := repo.AppendAudit(ctx, draft.AuditEntry{
		ID:        uuid.NewString(),
		Actor:     actor,
		Action:    action,
		Metadata:  metadata,
		Timestamp: now,
	}); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
