package filestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/riskibarqy/starleague-draft/internal/infrastructure/repository/document"
)

func TestStore_UpdateCommitsDocumentsAsFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	err = store.Update(t.Context(), func(ctx context.Context, tx document.Tx) error {
		if err := tx.Write(ctx, document.NameSession, []byte(`{"name":"x"}`)); err != nil {
			return err
		}
		body, ok, err := tx.Read(ctx, document.NameSession)
		if err != nil || !ok || string(body) != `{"name":"x"}` {
			t.Fatalf("staged read = %q %v %v", body, ok, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "session.json"))
	if err != nil {
		t.Fatalf("read session.json: %v", err)
	}
	if string(raw) != `{"name":"x"}` {
		t.Fatalf("unexpected file content: %s", raw)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestStore_UpdateErrorLeavesFilesUntouched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := t.Context()
	if err := store.Update(ctx, func(ctx context.Context, tx document.Tx) error {
		return tx.Write(ctx, document.NamePlayers, []byte(`[]`))
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	before, _ := store.Fingerprint(ctx)

	errBoom := errors.New("boom")
	err = store.Update(ctx, func(ctx context.Context, tx document.Tx) error {
		if err := tx.Write(ctx, document.NamePlayers, []byte(`[{"id":1}]`)); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}

	raw, _ := os.ReadFile(filepath.Join(dir, "players.json"))
	if string(raw) != `[]` {
		t.Fatalf("players.json changed after failed update: %s", raw)
	}
	after, _ := store.Fingerprint(ctx)
	if before != after {
		t.Fatalf("fingerprint changed after failed update")
	}
}

func TestStore_ViewIsReadOnlyAndSeesMissingDocuments(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	err = store.View(t.Context(), func(ctx context.Context, tx document.Tx) error {
		_, ok, err := tx.Read(ctx, document.NameAudit)
		if err != nil {
			return err
		}
		if ok {
			t.Fatalf("expected audit document to be missing")
		}
		if err := tx.Write(ctx, document.NameAudit, []byte(`[]`)); err == nil {
			t.Fatalf("expected write inside view to fail")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestStore_FingerprintTracksChanges(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := t.Context()
	first, err := store.Fingerprint(ctx)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if err := store.Update(ctx, func(ctx context.Context, tx document.Tx) error {
		return tx.Write(ctx, document.NameEvents, []byte(`[]`))
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	second, _ := store.Fingerprint(ctx)
	if first == second {
		t.Fatalf("fingerprint did not change after write")
	}
	third, _ := store.Fingerprint(ctx)
	if second != third {
		t.Fatalf("fingerprint changed without a write")
	}
}

func TestStore_ConcurrentReadersAndWriters(t *testing.T) {
	t.Parallel()

	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := t.Context()
	var wg sync.WaitGroup
	errCh := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			errCh <- store.Update(ctx, func(ctx context.Context, tx document.Tx) error {
				return tx.Write(ctx, document.NameTeams, []byte(`[]`))
			})
		}()
		go func() {
			defer wg.Done()
			errCh <- store.View(ctx, func(ctx context.Context, tx document.Tx) error {
				_, _, err := tx.Read(ctx, document.NameTeams)
				return err
			})
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}
