package document

import "context"

// Document names shared by every backend and by the backup export.
const (
	NameSession = "session"
	NamePlayers = "players"
	NameTeams   = "teams"
	NameEvents  = "events"
	NameAudit   = "audit"
)

// Names lists every draft document in commit order. The session goes last so a
// reader never sees a session pointing at events that are not written yet.
var Names = []string{NameEvents, NamePlayers, NameTeams, NameAudit, NameSession}

// Tx reads committed documents and stages writes for the surrounding unit of work.
type Tx interface {
	Read(ctx context.Context, name string) ([]byte, bool, error)
	Write(ctx context.Context, name string, body []byte) error
}

// Backend stores raw draft documents under a lock that covers the whole set.
type Backend interface {
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Update(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Fingerprint(ctx context.Context) (string, error)
}

// FileName is the on-disk and in-archive name of a document.
func FileName(name string) string {
	return name + ".json"
}
