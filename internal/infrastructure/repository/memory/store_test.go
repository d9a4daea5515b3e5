package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/starleague-draft/internal/infrastructure/repository/document"
)

func TestStore_UpdateAppliesStagedWritesOnSuccess(t *testing.T) {
	t.Parallel()

	store := NewStore()
	err := store.Update(t.Context(), func(ctx context.Context, tx document.Tx) error {
		return tx.Write(ctx, document.NameSession, []byte(`{}`))
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	body, ok := store.Document(document.NameSession)
	if !ok || string(body) != `{}` {
		t.Fatalf("unexpected session document: %q %v", body, ok)
	}
}

func TestStore_UpdateDiscardsWritesOnError(t *testing.T) {
	t.Parallel()

	store := NewStoreWithDocuments(map[string][]byte{document.NameEvents: []byte(`[]`)})
	errBoom := errors.New("boom")

	err := store.Update(t.Context(), func(ctx context.Context, tx document.Tx) error {
		_ = tx.Write(ctx, document.NameEvents, []byte(`[{"id":1}]`))
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}

	body, _ := store.Document(document.NameEvents)
	if string(body) != `[]` {
		t.Fatalf("events changed after failed update: %s", body)
	}
}

func TestStore_ViewRejectsWrites(t *testing.T) {
	t.Parallel()

	store := NewStore()
	err := store.View(t.Context(), func(ctx context.Context, tx document.Tx) error {
		return tx.Write(ctx, document.NameAudit, []byte(`[]`))
	})
	if err == nil {
		t.Fatalf("expected write inside view to fail")
	}
}

func TestStore_FingerprintDistinguishesMissingFromEmpty(t *testing.T) {
	t.Parallel()

	missing, _ := NewStore().Fingerprint(t.Context())
	empty, _ := NewStoreWithDocuments(map[string][]byte{document.NameAudit: {}}).Fingerprint(t.Context())
	if missing == empty {
		t.Fatalf("missing and empty documents share a fingerprint")
	}
}
