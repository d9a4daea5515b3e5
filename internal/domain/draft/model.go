package draft

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a draft session.
type Status string

const (
	StatusSetup     Status = "setup"
	StatusLive      Status = "live"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

var AllStatuses = map[Status]struct{}{
	StatusSetup:     {},
	StatusLive:      {},
	StatusPaused:    {},
	StatusCompleted: {},
}

// Race is the StarCraft race a player registered with.
type Race string

const (
	RaceTerran  Race = "T"
	RaceProtoss Race = "P"
	RaceZerg    Race = "Z"
	RaceRandom  Race = "R"
)

var AllRaces = map[Race]struct{}{
	RaceTerran:  {},
	RaceProtoss: {},
	RaceZerg:    {},
	RaceRandom:  {},
}

// ParseRace accepts the single-letter code or the full race name.
func ParseRace(raw string) (Race, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "t", "terran":
		return RaceTerran, nil
	case "p", "protoss":
		return RaceProtoss, nil
	case "z", "zerg":
		return RaceZerg, nil
	case "r", "random":
		return RaceRandom, nil
	default:
		return "", fmt.Errorf("invalid race: %q", raw)
	}
}

type PlayerStatus string

const (
	PlayerAvailable PlayerStatus = "available"
	PlayerDrafted   PlayerStatus = "drafted"
)

type Role string

const (
	RoleCaptain   Role = "captain"
	RoleProtected Role = "protected"
)

type Result string

const (
	ResultPick        Result = "PICK"
	ResultAdminAssign Result = "ADMIN_ASSIGN"
	ResultSkip        Result = "SKIP"
)

type SkipReason string

const (
	SkipNoEligiblePlayers SkipReason = "NO_ELIGIBLE_PLAYERS"
	SkipTimeout           SkipReason = "TIMEOUT"
	SkipManual            SkipReason = "MANUAL"
)

type MadeBy string

const (
	MadeByTeam   MadeBy = "TEAM"
	MadeByAdmin  MadeBy = "ADMIN"
	MadeBySystem MadeBy = "SYSTEM"
)

const (
	MinBucket = 1
	MaxBucket = 12
)

// Session is the singleton state of one draft event.
type Session struct {
	Name              string     `json:"name"`
	Status            Status     `json:"status"`
	AdminToken        string     `json:"admin_token"`
	SecondsPerPick    int        `json:"seconds_per_pick"`
	CurrentPickNumber int        `json:"current_pick_number"`
	CurrentTeamID     *int       `json:"current_team_id"`
	DraftOrder        []int      `json:"draft_order"`
	PickDeadlineAt    *time.Time `json:"pick_deadline_at"`
}

func (s Session) Validate() error {
	if _, ok := AllStatuses[s.Status]; !ok {
		return fmt.Errorf("invalid session status: %s", s.Status)
	}
	if s.SecondsPerPick <= 0 {
		return fmt.Errorf("seconds per pick must be greater than zero")
	}
	if (s.PickDeadlineAt != nil) != (s.Status == StatusLive) {
		return fmt.Errorf("pick deadline must be set only while live, status=%s", s.Status)
	}
	onClock := s.Status == StatusLive || s.Status == StatusPaused
	if (s.CurrentTeamID != nil) != onClock {
		return fmt.Errorf("current team must be set only while live or paused, status=%s", s.Status)
	}

	return nil
}

// OnClock reports the team currently entitled to pick.
func (s Session) OnClock() (int, bool) {
	if s.CurrentTeamID == nil {
		return 0, false
	}
	return *s.CurrentTeamID, true
}

type Team struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	DraftPosition int    `json:"draft_position"`
	Token         string `json:"token"`
	Logo          string `json:"logo"`
}

type Player struct {
	ID          int          `json:"id"`
	Ranking     int          `json:"ranking"`
	DisplayName string       `json:"display_name"`
	Race        Race         `json:"race"`
	BucketIndex int          `json:"bucket_index"`
	Status      PlayerStatus `json:"status"`
	TeamID      *int         `json:"team_id"`
	Role        *Role        `json:"role"`
	Notes       string       `json:"notes"`
}

func (p Player) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id must be greater than zero")
	}
	if p.Ranking <= 0 {
		return fmt.Errorf("player ranking must be greater than zero")
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return fmt.Errorf("player display name is required")
	}
	if _, ok := AllRaces[p.Race]; !ok {
		return fmt.Errorf("invalid player race: %s", p.Race)
	}
	if p.BucketIndex < MinBucket || p.BucketIndex > MaxBucket {
		return fmt.Errorf("player bucket must be within %d..%d, got %d", MinBucket, MaxBucket, p.BucketIndex)
	}

	return nil
}

func (p Player) Available() bool {
	return p.Status == PlayerAvailable
}

// OnTeam reports whether the player is rostered on teamID. An undone pick
// keeps its team_id but is available again, so it is not on the roster.
func (p Player) OnTeam(teamID int) bool {
	return p.Status == PlayerDrafted && p.TeamID != nil && *p.TeamID == teamID
}

// Event is one entry of the append-only pick log.
type Event struct {
	ID         int         `json:"id"`
	PickNumber *int        `json:"pick_number"`
	TeamID     int         `json:"team_id"`
	PlayerID   *int        `json:"player_id"`
	Result     Result      `json:"result"`
	SkipReason *SkipReason `json:"skip_reason"`
	MadeBy     MadeBy      `json:"made_by"`
	CreatedAt  time.Time   `json:"created_at"`
}

// AuditEntry is a diagnostic trail record, kept apart from the pick log.
type AuditEntry struct {
	ID        string         `json:"id"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp time.Time      `json:"timestamp"`
}

// Audit actions written by the engine and the setup operations.
const (
	ActionDraftStarted          = "DRAFT_STARTED"
	ActionPreAssignmentsApplied = "PRE_ASSIGNMENTS_APPLIED"
	ActionPickMade              = "PICK_MADE"
	ActionPlayerAssigned        = "PLAYER_ASSIGNED"
	ActionTeamSkipped           = "TEAM_SKIPPED"
	ActionDraftCompleted        = "DRAFT_COMPLETED"
	ActionDraftPaused           = "DRAFT_PAUSED"
	ActionDraftResumed          = "DRAFT_RESUMED"
	ActionDraftEnded            = "DRAFT_ENDED"
	ActionDraftReopened         = "DRAFT_REOPENED"
	ActionTimerRestarted        = "TIMER_RESTARTED"
	ActionPickUndone            = "PICK_UNDONE"
	ActionDraftReset            = "DRAFT_RESET"
	ActionDraftInitialized      = "DRAFT_INITIALIZED"
	ActionDraftRenamed          = "DRAFT_RENAMED"
	ActionSettingsUpdated       = "SETTINGS_UPDATED"
	ActionPlayersImported       = "PLAYERS_IMPORTED"
	ActionTeamsUpdated          = "TEAMS_UPDATED"
)

// Actor names recorded on audit entries.
const (
	ActorAdmin  = "admin"
	ActorSystem = "system"
)

func TeamActor(teamID int) string {
	return fmt.Sprintf("team:%d", teamID)
}

// IntPtr returns a pointer to a copy of v.
func IntPtr(v int) *int {
	return &v
}
