package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
	idgen "github.com/riskibarqy/starleague-draft/internal/platform/id"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
)

const (
	maxDraftNameLength    = 120
	maxTeamNameLength     = 60
	maxSecondsPerPick     = 24 * 60 * 60
	defaultTeamCount      = 8
	defaultSecondsPerPick = 120
)

// SetupConfig holds the defaults used on first boot and on reset.
type SetupConfig struct {
	DraftName      string
	TeamCount      int
	SecondsPerPick int
	AdminToken     string
}

type BootstrapResult struct {
	Created bool
	// GeneratedAdminToken is set only when no admin token was configured.
	GeneratedAdminToken string
}

// TeamUpdate changes one team. A nil DraftPosition keeps the current position.
type TeamUpdate struct {
	ID            int
	Name          string
	Logo          string
	DraftPosition *int
}

type SetupService struct {
	uow      draft.UnitOfWork
	tokens   idgen.Generator
	clock    clockwork.Clock
	notifier draft.Notifier
	cfg      SetupConfig
	logger   *logging.Logger
}

func NewSetupService(
	uow draft.UnitOfWork,
	tokens idgen.Generator,
	clock clockwork.Clock,
	notifier draft.Notifier,
	cfg SetupConfig,
	logger *logging.Logger,
) *SetupService {
	if tokens == nil {
		tokens = idgen.NewRandomGenerator()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.DraftName) == "" {
		cfg.DraftName = "StarCraft League Draft"
	}
	if cfg.TeamCount <= 0 {
		cfg.TeamCount = defaultTeamCount
	}
	if cfg.SecondsPerPick <= 0 {
		cfg.SecondsPerPick = defaultSecondsPerPick
	}

	return &SetupService{
		uow:      uow,
		tokens:   tokens,
		clock:    clock,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Bootstrap creates the session and default teams when no session exists yet.
func (s *SetupService) Bootstrap(ctx context.Context) (BootstrapResult, error) {
	var result BootstrapResult
	err := s.uow.Update(ctx, func(ctx context.Context, repo draft.Repository) error {
		_, exists, err := repo.GetSession(ctx)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		if exists {
			return nil
		}

		adminToken := strings.TrimSpace(s.cfg.AdminToken)
		if adminToken == "" {
			adminToken, err = s.tokens.NewToken()
			if err != nil {
				return fmt.Errorf("generate admin token: %w", err)
			}
			result.GeneratedAdminToken = adminToken
		}

		teams, err := s.defaultTeams()
		if err != nil {
			return err
		}

		session := draft.Session{
			Name:           s.cfg.DraftName,
			Status:         draft.StatusSetup,
			AdminToken:     adminToken,
			SecondsPerPick: s.cfg.SecondsPerPick,
			DraftOrder:     draft.OrderFromPositions(teams),
		}
		if err := s.writeFreshState(ctx, repo, draft.ActionDraftInitialized, session, teams); err != nil {
			return err
		}

		result.Created = true
		return nil
	})
	if err != nil {
		return BootstrapResult{}, err
	}

	if result.Created {
		s.logger.InfoContext(ctx, "draft session initialized", "team_count", s.cfg.TeamCount, "seconds_per_pick", s.cfg.SecondsPerPick)
	}
	return result, nil
}

// Reset returns the draft to setup with fresh teams. Name, admin token and
// timer length survive.
func (s *SetupService) Reset(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.SetupService.Reset")
	defer span.End()

	var session draft.Session
	err := s.uow.Update(ctx, func(ctx context.Context, repo draft.Repository) error {
		current, err := loadSession(ctx, repo)
		if err != nil {
			return err
		}

		teams, err := s.defaultTeams()
		if err != nil {
			return err
		}

		session = draft.Session{
			Name:           current.Name,
			Status:         draft.StatusSetup,
			AdminToken:     current.AdminToken,
			SecondsPerPick: current.SecondsPerPick,
			DraftOrder:     draft.OrderFromPositions(teams),
		}
		return s.writeFreshState(ctx, repo, draft.ActionDraftReset, session, teams)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "draft reset", "action", draft.ActionDraftReset)
	s.publish(ctx, draft.ActionDraftReset, session)
	return nil
}

func (s *SetupService) UpdateDraftName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: draft name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > maxDraftNameLength {
		return fmt.Errorf("%w: draft name must be at most %d characters", ErrInvalidInput, maxDraftNameLength)
	}

	return s.updateSession(ctx, draft.ActionDraftRenamed, func(session *draft.Session) (map[string]any, error) {
		previous := session.Name
		session.Name = name
		return map[string]any{"from": previous, "to": name}, nil
	})
}

func (s *SetupService) UpdateSettings(ctx context.Context, secondsPerPick int) error {
	if secondsPerPick <= 0 || secondsPerPick > maxSecondsPerPick {
		return fmt.Errorf("%w: seconds per pick must be within 1..%d", ErrInvalidInput, maxSecondsPerPick)
	}

	return s.updateSession(ctx, draft.ActionSettingsUpdated, func(session *draft.Session) (map[string]any, error) {
		if session.Status != draft.StatusSetup && session.Status != draft.StatusPaused {
			return nil, draft.ErrSettingsLocked
		}
		previous := session.SecondsPerPick
		session.SecondsPerPick = secondsPerPick
		return map[string]any{"from": previous, "to": secondsPerPick}, nil
	})
}

// ImportPlayers replaces the player pool from CSV. Only allowed in setup
// before any event was recorded.
func (s *SetupService) ImportPlayers(ctx context.Context, r io.Reader) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SetupService.ImportPlayers")
	defer span.End()

	players, err := ParsePlayersCSV(r)
	if err != nil {
		return 0, err
	}
	if err := s.timer().expire(ctx); err != nil {
		return 0, err
	}

	err = s.uow.Update(ctx, func(ctx context.Context, repo draft.Repository) error {
		session, err := loadSession(ctx, repo)
		if err != nil {
			return err
		}
		if session.Status != draft.StatusSetup {
			return draft.ErrDraftNotSetup
		}

		events, err := repo.GetEvents(ctx)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		if len(events) > 0 {
			return fmt.Errorf("%w: players cannot be replaced after picks were recorded", ErrInvalidInput)
		}

		if err := repo.SavePlayers(ctx, players); err != nil {
			return fmt.Errorf("save players: %w", err)
		}
		return appendAudit(ctx, repo, s.clock.Now().UTC(), draft.ActorAdmin, draft.ActionPlayersImported, map[string]any{
			"count": len(players),
		})
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "players imported", "action", draft.ActionPlayersImported, "count", len(players))
	return len(players), nil
}

// ListTeams returns teams including their tokens. Admin only.
func (s *SetupService) ListTeams(ctx context.Context) ([]draft.Team, error) {
	if err := s.timer().expire(ctx); err != nil {
		return nil, err
	}

	var teams []draft.Team
	err := s.uow.View(ctx, func(ctx context.Context, repo draft.Repository) error {
		var err error
		teams, err = repo.GetTeams(ctx)
		if err != nil {
			return fmt.Errorf("load teams: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return teams, nil
}

// UpdateTeams renames teams and optionally reorders them. Any position change
// must leave positions as a permutation of 1..N, and the draft order follows.
func (s *SetupService) UpdateTeams(ctx context.Context, updates []TeamUpdate) ([]draft.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SetupService.UpdateTeams")
	defer span.End()

	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no team updates given", ErrInvalidInput)
	}
	if err := s.timer().expire(ctx); err != nil {
		return nil, err
	}

	var out []draft.Team
	err := s.uow.Update(ctx, func(ctx context.Context, repo draft.Repository) error {
		session, err := loadSession(ctx, repo)
		if err != nil {
			return err
		}
		if session.Status != draft.StatusSetup {
			return draft.ErrDraftNotSetup
		}

		teams, err := repo.GetTeams(ctx)
		if err != nil {
			return fmt.Errorf("load teams: %w", err)
		}

		reordered, err := applyTeamUpdates(teams, updates)
		if err != nil {
			return err
		}

		if err := repo.SaveTeams(ctx, teams); err != nil {
			return fmt.Errorf("save teams: %w", err)
		}
		if reordered {
			session.DraftOrder = draft.OrderFromPositions(teams)
			if err := repo.SaveSession(ctx, session); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
		}

		out = teams
		return appendAudit(ctx, repo, s.clock.Now().UTC(), draft.ActorAdmin, draft.ActionTeamsUpdated, map[string]any{
			"count":       len(updates),
			"reordered":   reordered,
			"draft_order": session.DraftOrder,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SetupService) Audit(ctx context.Context) ([]draft.AuditEntry, error) {
	if err := s.timer().expire(ctx); err != nil {
		return nil, err
	}

	var entries []draft.AuditEntry
	err := s.uow.View(ctx, func(ctx context.Context, repo draft.Repository) error {
		var err error
		entries, err = repo.GetAudit(ctx)
		if err != nil {
			return fmt.Errorf("load audit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func applyTeamUpdates(teams []draft.Team, updates []TeamUpdate) (bool, error) {
	index := make(map[int]int, len(teams))
	for i, t := range teams {
		index[t.ID] = i
	}

	reordered := false
	seen := make(map[int]struct{}, len(updates))
	for _, u := range updates {
		i, ok := index[u.ID]
		if !ok {
			return false, fmt.Errorf("%w: team %d does not exist", ErrInvalidInput, u.ID)
		}
		if _, dup := seen[u.ID]; dup {
			return false, fmt.Errorf("%w: team %d listed twice", ErrInvalidInput, u.ID)
		}
		seen[u.ID] = struct{}{}

		name := strings.TrimSpace(u.Name)
		if name == "" {
			return false, fmt.Errorf("%w: team %d name is required", ErrInvalidInput, u.ID)
		}
		if utf8.RuneCountInString(name) > maxTeamNameLength {
			return false, fmt.Errorf("%w: team %d name must be at most %d characters", ErrInvalidInput, u.ID, maxTeamNameLength)
		}
		teams[i].Name = name
		teams[i].Logo = strings.TrimSpace(u.Logo)
		if u.DraftPosition != nil && *u.DraftPosition != teams[i].DraftPosition {
			teams[i].DraftPosition = *u.DraftPosition
			reordered = true
		}
	}

	names := make(map[string]int, len(teams))
	for _, t := range teams {
		key := strings.ToLower(t.Name)
		if other, dup := names[key]; dup {
			return false, fmt.Errorf("%w: teams %d and %d share the name %q", ErrInvalidInput, other, t.ID, t.Name)
		}
		names[key] = t.ID
	}

	if reordered {
		positions := make(map[int]struct{}, len(teams))
		for _, t := range teams {
			if t.DraftPosition < 1 || t.DraftPosition > len(teams) {
				return false, fmt.Errorf("%w: draft positions must be within 1..%d", ErrInvalidInput, len(teams))
			}
			if _, dup := positions[t.DraftPosition]; dup {
				return false, fmt.Errorf("%w: draft position %d is used twice", ErrInvalidInput, t.DraftPosition)
			}
			positions[t.DraftPosition] = struct{}{}
		}
	}

	return reordered, nil
}

func (s *SetupService) updateSession(ctx context.Context, action string, mutate func(session *draft.Session) (map[string]any, error)) error {
	if err := s.timer().expire(ctx); err != nil {
		return err
	}

	var session draft.Session
	err := s.uow.Update(ctx, func(ctx context.Context, repo draft.Repository) error {
		var err error
		session, err = loadSession(ctx, repo)
		if err != nil {
			return err
		}

		metadata, err := mutate(&session)
		if err != nil {
			return err
		}
		if err := session.Validate(); err != nil {
			return fmt.Errorf("%w: %v", draft.ErrInvariantViolation, err)
		}
		if err := repo.SaveSession(ctx, session); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		return appendAudit(ctx, repo, s.clock.Now().UTC(), draft.ActorAdmin, action, metadata)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, action, session)
	return nil
}

func (s *SetupService) defaultTeams() ([]draft.Team, error) {
	teams := make([]draft.Team, 0, s.cfg.TeamCount)
	for i := 1; i <= s.cfg.TeamCount; i++ {
		token, err := s.tokens.NewToken()
		if err != nil {
			return nil, fmt.Errorf("generate team token: %w", err)
		}
		teams = append(teams, draft.Team{
			ID:            i,
			Name:          fmt.Sprintf("Team %d", i),
			DraftPosition: i,
			Token:         token,
		})
	}
	return teams, nil
}

func (s *SetupService) writeFreshState(ctx context.Context, repo draft.Repository, action string, session draft.Session, teams []draft.Team) error {
	now := s.clock.Now().UTC()

	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", draft.ErrInvariantViolation, err)
	}
	if err := repo.SaveTeams(ctx, teams); err != nil {
		return fmt.Errorf("save teams: %w", err)
	}
	if err := repo.SavePlayers(ctx, []draft.Player{}); err != nil {
		return fmt.Errorf("save players: %w", err)
	}
	if err := repo.SaveEvents(ctx, []draft.Event{}); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if err := repo.SaveAudit(ctx, []draft.AuditEntry{}); err != nil {
		return fmt.Errorf("save audit: %w", err)
	}
	if err := appendAudit(ctx, repo, now, draft.ActorAdmin, action, map[string]any{
		"team_count": len(teams),
	}); err != nil {
		return err
	}
	if err := repo.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SetupService) timer() pickTimer {
	return pickTimer{uow: s.uow, clock: s.clock, notifier: s.notifier, logger: s.logger}
}

func (s *SetupService) publish(ctx context.Context, action string, session draft.Session) {
	publishNotification(ctx, s.notifier, s.logger, draft.Notification{
		Action:            action,
		Status:            session.Status,
		CurrentPickNumber: session.CurrentPickNumber,
		CurrentTeamID:     session.CurrentTeamID,
		PickDeadlineAt:    session.PickDeadlineAt,
		OccurredAt:        s.clock.Now().UTC(),
	})
}

func loadSession(ctx context.Context, repo draft.Repository) (draft.Session, error) {
	session, exists, err := repo.GetSession(ctx)
	if err != nil {
		return draft.Session{}, fmt.Errorf("load session: %w", err)
	}
	if !exists {
		return draft.Session{}, fmt.Errorf("%w: draft session is not initialized", ErrNotFound)
	}
	return session, nil
}
