package querybuilder

import (
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("name", "body").
		From("draft_documents").
		Where(Eq("draft_id", "asl-9")).
		OrderBy("name").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT name, body FROM draft_documents WHERE draft_id = $1 ORDER BY name"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "asl-9" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilder_RequiresTable(t *testing.T) {
	if _, _, err := Select("name").ToSQL(); err == nil {
		t.Fatalf("expected error without table")
	}
}

func TestInsertModel(t *testing.T) {
	type row struct {
		DraftID   string    `db:"draft_id"`
		Name      string    `db:"name"`
		Skipped   string    `db:"-"`
		UpdatedAt time.Time `db:"updated_at,omitempty"`
		hidden    string
	}

	now := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	query, args, err := InsertModel("draft_documents", &row{DraftID: "d1", Name: "session", UpdatedAt: now, hidden: "x"},
		"ON CONFLICT (draft_id, name) DO NOTHING")
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO draft_documents (draft_id, name, updated_at) VALUES ($1, $2, $3) ON CONFLICT (draft_id, name) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "d1" || args[1] != "session" || args[2] != now {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModel_Rejects(t *testing.T) {
	var nilRow *struct{}
	if _, _, err := InsertModel("t", nilRow, ""); err == nil {
		t.Fatalf("expected error for nil model")
	}
	if _, _, err := InsertModel("t", 42, ""); err == nil {
		t.Fatalf("expected error for non-struct model")
	}
	if _, _, err := InsertModel("t", struct{ A string }{}, ""); err == nil {
		t.Fatalf("expected error for model without db tags")
	}
}
