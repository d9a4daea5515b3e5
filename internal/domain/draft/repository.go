package draft

import (
	"context"
	"time"
)

// Repository describes draft persistence needs from use cases.
// A Repository is only valid inside the unit of work that handed it out.
type Repository interface {
	GetSession(ctx context.Context) (Session, bool, error)
	SaveSession(ctx context.Context, session Session) error

	GetTeams(ctx context.Context) ([]Team, error)
	SaveTeams(ctx context.Context, teams []Team) error
	GetTeamByID(ctx context.Context, teamID int) (Team, bool, error)
	GetTeamByToken(ctx context.Context, token string) (Team, bool, error)

	GetPlayers(ctx context.Context) ([]Player, error)
	SavePlayers(ctx context.Context, players []Player) error
	GetPlayerByID(ctx context.Context, playerID int) (Player, bool, error)
	GetTeamRoster(ctx context.Context, teamID int) ([]Player, error)
	GetTeamBucketsUsed(ctx context.Context, teamID int) ([]int, error)
	GetEligiblePlayersForTeam(ctx context.Context, teamID int) ([]Player, error)
	CountAvailable(ctx context.Context) (int, error)

	GetEvents(ctx context.Context) ([]Event, error)
	AppendEvent(ctx context.Context, event Event) (Event, error)
	RemoveLastEvent(ctx context.Context) (Event, bool, error)
	GetLastEvent(ctx context.Context) (Event, bool, error)
	SaveEvents(ctx context.Context, events []Event) error

	GetAudit(ctx context.Context) ([]AuditEntry, error)
	AppendAudit(ctx context.Context, entry AuditEntry) error
	SaveAudit(ctx context.Context, entries []AuditEntry) error
}

// UnitOfWork scopes repository access to the whole-draft lock.
// Update holds the exclusive lock for the duration of fn and commits only when fn returns nil.
type UnitOfWork interface {
	View(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
	Update(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
	Fingerprint(ctx context.Context) (string, error)
}

// Notification describes a committed draft change for outside listeners.
type Notification struct {
	Action            string     `json:"action"`
	Status            Status     `json:"status"`
	CurrentPickNumber int        `json:"current_pick_number"`
	CurrentTeamID     *int       `json:"current_team_id"`
	PickDeadlineAt    *time.Time `json:"pick_deadline_at"`
	Events            []Event    `json:"events,omitempty"`
	OccurredAt        time.Time  `json:"occurred_at"`
}

// Notifier publishes committed draft changes. Failures never roll back the draft.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}
