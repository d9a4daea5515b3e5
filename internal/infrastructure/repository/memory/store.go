package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/starleague-draft/internal/infrastructure/repository/document"
)

// Store keeps draft documents in process memory. Used by tests and STORE_DRIVER=memory.
type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewStore() *Store {
	return &Store{docs: make(map[string][]byte)}
}

// NewStoreWithDocuments seeds the store, e.g. from an exported backup.
func NewStoreWithDocuments(docs map[string][]byte) *Store {
	s := NewStore()
	for name, body := range docs {
		s.docs[name] = append([]byte(nil), body...)
	}
	return s
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx document.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(ctx, &readTx{store: s})
}

func (s *Store) Update(ctx context.Context, fn func(ctx context.Context, tx document.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &writeTx{readTx: readTx{store: s}, staged: make(map[string][]byte)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for name, body := range tx.staged {
		s.docs[name] = body
	}
	return nil
}

func (s *Store) Fingerprint(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return document.Fingerprint(s.docs), nil
}

// Document returns a copy of one committed document.
func (s *Store) Document(name string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	body, ok := s.docs[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), body...), true
}

type readTx struct {
	store *Store
}

func (t *readTx) Read(_ context.Context, name string) ([]byte, bool, error) {
	body, ok := t.store.docs[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), body...), true, nil
}

func (t *readTx) Write(_ context.Context, name string, _ []byte) error {
	return errReadOnly(name)
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

func errReadOnly(name string) error {
	return fmt.Errorf("write %s document: view transaction is read-only", name)
}
