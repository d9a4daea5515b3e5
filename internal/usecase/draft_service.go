package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
	"github.com/riskibarqy/starleague-draft/internal/platform/cache"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

const stateCachePrefix = "state:"

// PublicTeam is a team as shown to every viewer. Tokens are never included.
type PublicTeam struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	DraftPosition int    `json:"draft_position"`
	Logo          string `json:"logo"`
}

// DraftState is the full snapshot served to polling clients.
type DraftState struct {
	Name              string                    `json:"name"`
	Status            draft.Status              `json:"status"`
	SecondsPerPick    int                       `json:"seconds_per_pick"`
	CurrentPickNumber int                       `json:"current_pick_number"`
	CurrentTeamID     *int                      `json:"current_team_id"`
	CurrentTeamName   *string                   `json:"current_team_name"`
	PickDeadlineAt    *time.Time                `json:"pick_deadline_at"`
	DraftOrder        []int                     `json:"draft_order"`
	Teams             []PublicTeam              `json:"teams"`
	Players           []draft.Player            `json:"players"`
	Events            []draft.Event             `json:"events"`
	Rosters           map[string][]draft.Player `json:"rosters"`
	AvailableCount    int                       `json:"available_count"`
	Version           string                    `json:"version"`
	ViewerTeamID      *int                      `json:"viewer_team_id,omitempty"`
}

// DraftVersion is the cheap poll answer; clients refetch state when Version changes.
type DraftVersion struct {
	Version           string       `json:"version"`
	Status            draft.Status `json:"status"`
	CurrentPickNumber int          `json:"current_pick_number"`
}

type DraftService struct {
	uow      draft.UnitOfWork
	clock    clockwork.Clock
	cache    *cache.Store
	notifier draft.Notifier
	logger   *logging.Logger
}

// NewDraftService builds the engine service. stateCache and notifier are optional.
func NewDraftService(
	uow draft.UnitOfWork,
	clock clockwork.Clock,
	stateCache *cache.Store,
	notifier draft.Notifier,
	logger *logging.Logger,
) *DraftService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &DraftService{
		uow:      uow,
		clock:    clock,
		cache:    stateCache,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *DraftService) MakePick(ctx context.Context, teamID, playerID int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.MakePick",
		attribute.Int("draft.team_id", teamID),
		attribute.Int("draft.player_id", playerID),
	)
	defer span.End()

	return s.run(ctx, draft.ActionPickMade, func(ctx context.Context, e *engine) error {
		return e.teamPick(ctx, teamID, playerID)
	})
}

func (s *DraftService) AssignPlayer(ctx context.Context, teamID, playerID int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.AssignPlayer",
		attribute.Int("draft.team_id", teamID),
		attribute.Int("draft.player_id", playerID),
	)
	defer span.End()

	return s.run(ctx, draft.ActionPlayerAssigned, func(ctx context.Context, e *engine) error {
		return e.adminAssign(ctx, teamID, playerID)
	})
}

func (s *DraftService) Skip(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.Skip")
	defer span.End()

	return s.run(ctx, draft.ActionTeamSkipped, func(ctx context.Context, e *engine) error {
		return e.manualSkip(ctx)
	})
}

func (s *DraftService) Start(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.Start")
	defer span.End()

	return s.run(ctx, draft.ActionDraftStarted, func(ctx context.Context, e *engine) error {
		return e.start(ctx)
	})
}

func (s *DraftService) Pause(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.Pause")
	defer span.End()

	return s.run(ctx, draft.ActionDraftPaused, func(ctx context.Context, e *engine) error {
		return e.pause(ctx)
	})
}

func (s *DraftService) Resume(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.Resume")
	defer span.End()

	return s.run(ctx, draft.ActionDraftResumed, func(ctx context.Context, e *engine) error {
		return e.resume(ctx)
	})
}

func (s *DraftService) End(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.End")
	defer span.End()

	return s.run(ctx, draft.ActionDraftEnded, func(ctx context.Context, e *engine) error {
		return e.end(ctx)
	})
}

func (s *DraftService) RestartTimer(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.RestartTimer")
	defer span.End()

	return s.run(ctx, draft.ActionTimerRestarted, func(ctx context.Context, e *engine) error {
		return e.restartTimer(ctx)
	})
}

func (s *DraftService) Undo(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.Undo")
	defer span.End()

	return s.run(ctx, draft.ActionPickUndone, func(ctx context.Context, e *engine) error {
		return e.undo(ctx)
	})
}

// CheckTimer applies an expired pick timer. Reads call it before answering so
// a timeout is visible without any background worker.
func (s *DraftService) CheckTimer(ctx context.Context) error {
	return s.timer().expire(ctx)
}

func (s *DraftService) timer() pickTimer {
	return pickTimer{uow: s.uow, clock: s.clock, notifier: s.notifier, logger: s.logger}
}

func (s *DraftService) Version(ctx context.Context) (DraftVersion, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.Version")
	defer span.End()

	if err := s.CheckTimer(ctx); err != nil {
		return DraftVersion{}, err
	}

	version, err := s.uow.Fingerprint(ctx)
	if err != nil {
		return DraftVersion{}, fmt.Errorf("fingerprint draft: %w", err)
	}

	var out DraftVersion
	err = s.uow.View(ctx, func(ctx context.Context, repo draft.Repository) error {
		session, exists, err := repo.GetSession(ctx)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: draft session is not initialized", ErrNotFound)
		}
		out = DraftVersion{
			Version:           version,
			Status:            session.Status,
			CurrentPickNumber: session.CurrentPickNumber,
		}
		return nil
	})
	if err != nil {
		return DraftVersion{}, err
	}
	return out, nil
}

// State returns the draft snapshot. viewerTeamID is echoed back for clients
// that authenticated as a team.
func (s *DraftService) State(ctx context.Context, viewerTeamID *int) (DraftState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DraftService.State")
	defer span.End()

	if err := s.CheckTimer(ctx); err != nil {
		return DraftState{}, err
	}

	version, err := s.uow.Fingerprint(ctx)
	if err != nil {
		return DraftState{}, fmt.Errorf("fingerprint draft: %w", err)
	}

	key := stateCachePrefix + version
	load := func(ctx context.Context) (any, error) {
		state, err := s.loadState(ctx, version)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.DeletePrefix(ctx, stateCachePrefix, key)
		}
		return state, nil
	}

	var value any
	if s.cache != nil {
		value, err = s.cache.GetOrLoad(ctx, key, load)
	} else {
		value, err = load(ctx)
	}
	if err != nil {
		return DraftState{}, err
	}

	state, ok := value.(DraftState)
	if !ok {
		return DraftState{}, fmt.Errorf("unexpected cached state type %T", value)
	}
	if viewerTeamID != nil {
		state.ViewerTeamID = draft.IntPtr(*viewerTeamID)
	}
	return state, nil
}

func (s *DraftService) loadState(ctx context.Context, version string) (DraftState, error) {
	var out DraftState
	err := s.uow.View(ctx, func(ctx context.Context, repo draft.Repository) error {
		session, exists, err := repo.GetSession(ctx)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: draft session is not initialized", ErrNotFound)
		}
		teams, err := repo.GetTeams(ctx)
		if err != nil {
			return fmt.Errorf("load teams: %w", err)
		}
		players, err := repo.GetPlayers(ctx)
		if err != nil {
			return fmt.Errorf("load players: %w", err)
		}
		events, err := repo.GetEvents(ctx)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}

		out = buildState(session, teams, players, events, version)
		return nil
	})
	if err != nil {
		return DraftState{}, err
	}
	return out, nil
}

func buildState(session draft.Session, teams []draft.Team, players []draft.Player, events []draft.Event, version string) DraftState {
	publicTeams := make([]PublicTeam, 0, len(teams))
	rosters := make(map[string][]draft.Player, len(teams))
	var currentTeamName *string
	for _, t := range teams {
		publicTeams = append(publicTeams, PublicTeam{
			ID:            t.ID,
			Name:          t.Name,
			DraftPosition: t.DraftPosition,
			Logo:          t.Logo,
		})
		rosters[strconv.Itoa(t.ID)] = draft.Roster(players, t.ID)
		if session.CurrentTeamID != nil && *session.CurrentTeamID == t.ID {
			name := t.Name
			currentTeamName = &name
		}
	}

	if players == nil {
		players = []draft.Player{}
	}
	if events == nil {
		events = []draft.Event{}
	}

	return DraftState{
		Name:              session.Name,
		Status:            session.Status,
		SecondsPerPick:    session.SecondsPerPick,
		CurrentPickNumber: session.CurrentPickNumber,
		CurrentTeamID:     session.CurrentTeamID,
		CurrentTeamName:   currentTeamName,
		PickDeadlineAt:    session.PickDeadlineAt,
		DraftOrder:        session.DraftOrder,
		Teams:             publicTeams,
		Players:           players,
		Events:            events,
		Rosters:           rosters,
		AvailableCount:    draft.CountAvailable(players),
		Version:           version,
	}
}

// run executes one engine operation in an exclusive unit of work. A rule
// violation still commits whatever the timer check wrote before it.
func (s *DraftService) run(ctx context.Context, action string, op func(ctx context.Context, e *engine) error) error {
	var (
		ruleErr      error
		notification *draft.Notification
	)

	err := s.uow.Update(ctx, func(ctx context.Context, repo draft.Repository) error {
		e, err := newEngine(ctx, repo, s.clock.Now(), s.logger)
		if err != nil {
			return err
		}
		if err := e.checkTimerExpiry(ctx); err != nil {
			return err
		}

		if err := op(ctx, e); err != nil {
			if !errors.Is(err, draft.ErrRuleViolation) {
				return err
			}
			ruleErr = err
		}

		if err := e.commit(ctx); err != nil {
			return err
		}
		if e.changed() {
			n := e.notification(action)
			if ruleErr != nil {
				n.Action = draft.ActionTeamSkipped
			}
			notification = &n
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, draft.ErrInvariantViolation) {
			s.logger.ErrorContext(ctx, "draft invariant violated", "action", action, "error", err)
		}
		return err
	}

	if notification != nil {
		s.publish(ctx, *notification)
	}
	return ruleErr
}

func (e *engine) notification(action string) draft.Notification {
	return draft.Notification{
		Action:            action,
		Status:            e.session.Status,
		CurrentPickNumber: e.session.CurrentPickNumber,
		CurrentTeamID:     e.session.CurrentTeamID,
		PickDeadlineAt:    e.session.PickDeadlineAt,
		Events:            e.events,
		OccurredAt:        e.now,
	}
}

func (s *DraftService) publish(ctx context.Context, n draft.Notification) {
	publishNotification(ctx, s.notifier, s.logger, n)
}

func publishNotification(ctx context.Context, notifier draft.Notifier, logger *logging.Logger, n draft.Notification) {
	if notifier == nil {
		return
	}
	if err := notifier.Notify(ctx, n); err != nil {
		logger.WarnContext(ctx, "publish draft notification failed", "action", n.Action, "error", err)
	}
}
