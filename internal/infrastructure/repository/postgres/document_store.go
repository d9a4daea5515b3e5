package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/starleague-draft/internal/infrastructure/repository/document"
	qb "github.com/riskibarqy/starleague-draft/internal/platform/querybuilder"
	"github.com/riskibarqy/starleague-draft/internal/platform/resilience"
	"github.com/riskibarqy/starleague-draft/internal/usecase"
)

const upsertDocumentSuffix = `ON CONFLICT (draft_id, name)
DO UPDATE SET
    body = EXCLUDED.body,
    revision = draft_documents.revision + 1,
    updated_at = EXCLUDED.updated_at`

// DocumentStore keeps the draft documents of one draft as jsonb rows. Update
// serializes writers with a transaction-scoped advisory lock keyed by draft id.
type DocumentStore struct {
	db      *sqlx.DB
	draftID string
	breaker *resilience.CircuitBreaker
	now     func() time.Time
}

func NewDocumentStore(db *sqlx.DB, draftID string, breaker *resilience.CircuitBreaker) *DocumentStore {
	return &DocumentStore{
		db:      db,
		draftID: draftID,
		breaker: breaker,
		now:     time.Now,
	}
}

func (s *DocumentStore) View(ctx context.Context, fn func(ctx context.Context, tx document.Tx) error) error {
	var fnErr error
	err := s.guard(func() error {
		tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
		if err != nil {
			return fmt.Errorf("%w: begin view tx: %w", usecase.ErrDependencyUnavailable, err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		docs, err := s.loadDocuments(ctx, tx)
		if err != nil {
			return err
		}

		fnErr = fn(ctx, &readTx{docs: docs})
		return nil
	})
	if err != nil {
		return err
	}
	return fnErr
}

func (s *DocumentStore) Update(ctx context.Context, fn func(ctx context.Context, tx document.Tx) error) error {
	var fnErr error
	err := s.guard(func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: begin update tx: %w", usecase.ErrDependencyUnavailable, err)
		}
		defer func() {
			_ = tx.Rollback()
		}()

		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", s.draftID); err != nil {
			return fmt.Errorf("acquire draft lock: %w", err)
		}

		docs, err := s.loadDocuments(ctx, tx)
		if err != nil {
			return err
		}

		staged := &writeTx{readTx: readTx{docs: docs}, staged: make(map[string][]byte)}
		if fnErr = fn(ctx, staged); fnErr != nil {
			return nil
		}

		updatedAt := s.now().UTC()
		for _, name := range document.Names {
			body, ok := staged.staged[name]
			if !ok {
				continue
			}
			query, args, err := qb.InsertModel(draftDocumentsTable, draftDocumentUpsertModel{
				DraftID:   s.draftID,
				Name:      name,
				Body:      string(body),
				Revision:  1,
				UpdatedAt: updatedAt,
			}, upsertDocumentSuffix)
			if err != nil {
				return fmt.Errorf("build upsert %s document query: %w", name, err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("upsert %s document: %w", name, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit update tx: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return fnErr
}

func (s *DocumentStore) Fingerprint(ctx context.Context) (string, error) {
	docs := make(map[string][]byte, len(document.Names))
	err := s.View(ctx, func(ctx context.Context, tx document.Tx) error {
		for _, name := range document.Names {
			body, ok, err := tx.Read(ctx, name)
			if err != nil {
				return err
			}
			if ok {
				docs[name] = body
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return document.Fingerprint(docs), nil
}

// guard runs one database round trip through the circuit breaker. Errors
// returned by callbacks are not database failures and are reported separately.
func (s *DocumentStore) guard(run func() error) error {
	err := s.breaker.Execute(run, isDatabaseFailure)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("%w: draft store: %w", usecase.ErrDependencyUnavailable, err)
	}
	return err
}

func isDatabaseFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}

func (s *DocumentStore) loadDocuments(ctx context.Context, tx *sqlx.Tx) (map[string][]byte, error) {
	query, args, err := qb.Select("draft_id", "name", "body", "revision", "updated_at").
		From(draftDocumentsTable).
		Where(qb.Eq("draft_id", s.draftID)).
		OrderBy("name").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select draft documents query: %w", err)
	}

	var rows []draftDocumentTableModel
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select draft documents: %w", err)
	}

	docs := make(map[string][]byte, len(rows))
	for _, row := range rows {
		docs[row.Name] = row.Body
	}
	return docs, nil
}

type readTx struct {
	docs map[string][]byte
}

func (t *readTx) Read(_ context.Context, name string) ([]byte, bool, error) {
	body, ok := t.docs[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), body...), true, nil
}

func (t *readTx) Write(_ context.Context, name string, _ []byte) error {
	return fmt.Errorf("write %s document: view transaction is read-only", name)
}

type writeTx struct {
	readTx
	staged map[string][]byte
}

func (t *writeTx) Read(ctx context.Context, name string) ([]byte, bool, error) {
	if body, ok := t.staged[name]; ok {
		return append([]byte(nil), body...), true, nil
	}
	return t.readTx.Read(ctx, name)
}

func (t *writeTx) Write(_ context.Context, name string, body []byte) error {
	t.staged[name] = append([]byte(nil), body...)
	return nil
}
