package postgres

import "time"

const draftDocumentsTable = "draft_documents"

type draftDocumentTableModel struct {
	DraftID   string    `db:"draft_id"`
	Name      string    `db:"name"`
	Body      []byte    `db:"body"`
	Revision  int64     `db:"revision"`
	UpdatedAt time.Time `db:"updated_at"`
}

type draftDocumentUpsertModel struct {
	DraftID   string    `db:"draft_id"`
	Name      string    `db:"name"`
	Body      string    `db:"body"`
	Revision  int64     `db:"revision"`
	UpdatedAt time.Time `db:"updated_at"`
}
