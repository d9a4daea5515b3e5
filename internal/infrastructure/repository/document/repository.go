package document

import (
	"context"
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
)

// Repository implements draft.Repository over one backend transaction. Documents
// are decoded on first use and encoded back only when they were changed.
type Repository struct {
	tx Tx

	session       draft.Session
	sessionExists bool
	teams         []draft.Team
	players       []draft.Player
	events        []draft.Event
	audit         []draft.AuditEntry
	removedMaxID  int

	loaded map[string]bool
	dirty  map[string]bool
}

func newRepository(tx Tx) *Repository {
	return &Repository{
		tx:     tx,
		loaded: make(map[string]bool, len(Names)),
		dirty:  make(map[string]bool, len(Names)),
	}
}

func (r *Repository) GetSession(ctx context.Context) (draft.Session, bool, error) {
	if err := r.load(ctx, NameSession); err != nil {
		return draft.Session{}, false, err
	}
	if !r.sessionExists {
		return draft.Session{}, false, nil
	}
	return cloneSession(r.session), true, nil
}

func (r *Repository) SaveSession(_ context.Context, session draft.Session) error {
	r.session = cloneSession(session)
	r.sessionExists = true
	r.markDirty(NameSession)
	return nil
}

func (r *Repository) GetTeams(ctx context.Context) ([]draft.Team, error) {
	if err := r.load(ctx, NameTeams); err != nil {
		return nil, err
	}
	return append([]draft.Team(nil), r.teams...), nil
}

func (r *Repository) SaveTeams(_ context.Context, teams []draft.Team) error {
	r.teams = append([]draft.Team(nil), teams...)
	r.markDirty(NameTeams)
	return nil
}

func (r *Repository) GetTeamByID(ctx context.Context, teamID int) (draft.Team, bool, error) {
	teams, err := r.GetTeams(ctx)
	if err != nil {
		return draft.Team{}, false, err
	}
	for _, t := range teams {
		if t.ID == teamID {
			return t, true, nil
		}
	}
	return draft.Team{}, false, nil
}

// GetTeamByToken does a plain lookup; constant-time comparison is the auth layer's job.
func (r *Repository) GetTeamByToken(ctx context.Context, token string) (draft.Team, bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return draft.Team{}, false, nil
	}

	teams, err := r.GetTeams(ctx)
	if err != nil {
		return draft.Team{}, false, err
	}
	for _, t := range teams {
		if t.Token == token {
			return t, true, nil
		}
	}
	return draft.Team{}, false, nil
}

func (r *Repository) GetPlayers(ctx context.Context) ([]draft.Player, error) {
	if err := r.load(ctx, NamePlayers); err != nil {
		return nil, err
	}
	return clonePlayers(r.players), nil
}

func (r *Repository) SavePlayers(_ context.Context, players []draft.Player) error {
	r.players = clonePlayers(players)
	r.markDirty(NamePlayers)
	return nil
}

func (r *Repository) GetPlayerByID(ctx context.Context, playerID int) (draft.Player, bool, error) {
	players, err := r.GetPlayers(ctx)
	if err != nil {
		return draft.Player{}, false, err
	}
	for _, p := range players {
		if p.ID == playerID {
			return p, true, nil
		}
	}
	return draft.Player{}, false, nil
}

func (r *Repository) GetTeamRoster(ctx context.Context, teamID int) ([]draft.Player, error) {
	players, err := r.GetPlayers(ctx)
	if err != nil {
		return nil, err
	}
	return draft.Roster(players, teamID), nil
}

func (r *Repository) GetTeamBucketsUsed(ctx context.Context, teamID int) ([]int, error) {
	players, err := r.GetPlayers(ctx)
	if err != nil {
		return nil, err
	}
	return draft.SortedBuckets(draft.BucketsUsed(players, teamID)), nil
}

func (r *Repository) GetEligiblePlayersForTeam(ctx context.Context, teamID int) ([]draft.Player, error) {
	players, err := r.GetPlayers(ctx)
	if err != nil {
		return nil, err
	}
	return draft.EligiblePlayers(players, teamID), nil
}

func (r *Repository) CountAvailable(ctx context.Context) (int, error) {
	if err := r.load(ctx, NamePlayers); err != nil {
		return 0, err
	}
	return draft.CountAvailable(r.players), nil
}

func (r *Repository) GetEvents(ctx context.Context) ([]draft.Event, error) {
	if err := r.load(ctx, NameEvents); err != nil {
		return nil, err
	}
	return append([]draft.Event(nil), r.events...), nil
}

// AppendEvent assigns the next sequential id before appending. Ids of undone
// events are never handed out again: the high-water mark also covers events
// removed in this transaction and the event ids recorded by PICK_UNDONE audit.
func (r *Repository) AppendEvent(ctx context.Context, event draft.Event) (draft.Event, error) {
	if err := r.load(ctx, NameEvents); err != nil {
		return draft.Event{}, err
	}
	if err := r.load(ctx, NameAudit); err != nil {
		return draft.Event{}, err
	}

	maxID := r.removedMaxID
	for _, e := range r.events {
		maxID = max(maxID, e.ID)
	}
	for _, a := range r.audit {
		if a.Action != draft.ActionPickUndone {
			continue
		}
		if id, ok := metadataInt(a.Metadata["event_id"]); ok {
			maxID = max(maxID, id)
		}
	}
	event.ID = maxID + 1
	r.events = append(r.events, event)
	r.markDirty(NameEvents)
	return event, nil
}

func (r *Repository) RemoveLastEvent(ctx context.Context) (draft.Event, bool, error) {
	if err := r.load(ctx, NameEvents); err != nil {
		return draft.Event{}, false, err
	}
	if len(r.events) == 0 {
		return draft.Event{}, false, nil
	}

	last := r.events[len(r.events)-1]
	r.events = r.events[:len(r.events)-1]
	r.removedMaxID = max(r.removedMaxID, last.ID)
	r.markDirty(NameEvents)
	return last, true, nil
}

func (r *Repository) GetLastEvent(ctx context.Context) (draft.Event, bool, error) {
	if err := r.load(ctx, NameEvents); err != nil {
		return draft.Event{}, false, err
	}
	if len(r.events) == 0 {
		return draft.Event{}, false, nil
	}
	return r.events[len(r.events)-1], true, nil
}

func (r *Repository) SaveEvents(_ context.Context, events []draft.Event) error {
	r.events = append([]draft.Event(nil), events...)
	r.removedMaxID = 0
	r.markDirty(NameEvents)
	return nil
}

func (r *Repository) GetAudit(ctx context.Context) ([]draft.AuditEntry, error) {
	if err := r.load(ctx, NameAudit); err != nil {
		return nil, err
	}
	return append([]draft.AuditEntry(nil), r.audit...), nil
}

func (r *Repository) AppendAudit(ctx context.Context, entry draft.AuditEntry) error {
	if err := r.load(ctx, NameAudit); err != nil {
		return err
	}
	r.audit = append(r.audit, entry)
	r.markDirty(NameAudit)
	return nil
}

func (r *Repository) SaveAudit(_ context.Context, entries []draft.AuditEntry) error {
	r.audit = append([]draft.AuditEntry(nil), entries...)
	r.markDirty(NameAudit)
	return nil
}

func (r *Repository) markDirty(name string) {
	r.loaded[name] = true
	r.dirty[name] = true
}

func (r *Repository) load(ctx context.Context, name string) error {
	if r.loaded[name] {
		return nil
	}

	body, exists, err := r.tx.Read(ctx, name)
	if err != nil {
		return fmt.Errorf("read %s document: %w", name, err)
	}
	r.loaded[name] = true
	if !exists || len(body) == 0 {
		return nil
	}

	var target any
	switch name {
	case NameSession:
		r.sessionExists = true
		target = &r.session
	case NameTeams:
		target = &r.teams
	case NamePlayers:
		target = &r.players
	case NameEvents:
		target = &r.events
	case NameAudit:
		target = &r.audit
	default:
		return fmt.Errorf("unknown document %q", name)
	}

	if err := sonic.ConfigStd.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode %s document: %w", name, err)
	}
	return nil
}

// flush stages every changed document on the transaction in commit order.
func (r *Repository) flush(ctx context.Context) error {
	for _, name := range Names {
		if !r.dirty[name] {
			continue
		}

		body, err := Encode(r.value(name))
		if err != nil {
			return fmt.Errorf("encode %s document: %w", name, err)
		}
		if err := r.tx.Write(ctx, name, body); err != nil {
			return fmt.Errorf("write %s document: %w", name, err)
		}
	}
	return nil
}

func (r *Repository) value(name string) any {
	switch name {
	case NameSession:
		return r.session
	case NameTeams:
		return nonNil(r.teams)
	case NamePlayers:
		return nonNil(r.players)
	case NameEvents:
		return nonNil(r.events)
	default:
		return nonNil(r.audit)
	}
}

// Encode renders a document the way it is persisted and exported.
func Encode(v any) ([]byte, error) {
	return sonic.ConfigStd.MarshalIndent(v, "", "  ")
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func cloneSession(s draft.Session) draft.Session {
	copied := s
	copied.DraftOrder = append([]int(nil), s.DraftOrder...)
	if s.CurrentTeamID != nil {
		copied.CurrentTeamID = draft.IntPtr(*s.CurrentTeamID)
	}
	if s.PickDeadlineAt != nil {
		deadline := *s.PickDeadlineAt
		copied.PickDeadlineAt = &deadline
	}
	return copied
}

func clonePlayers(players []draft.Player) []draft.Player {
	out := make([]draft.Player, len(players))
	for i, p := range players {
		copied := p
		if p.TeamID != nil {
			copied.TeamID = draft.IntPtr(*p.TeamID)
		}
		if p.Role != nil {
			role := *p.Role
			copied.Role = &role
		}
		out[i] = copied
	}
	return out
}

// metadataInt reads an integer audit value, which decodes as float64 once the
// audit document has been round-tripped through JSON.
func metadataInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
