package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/riskibarqy/starleague-draft/internal/infrastructure/repository/document"
)

const lockFileName = ".draft.lock"

// Store keeps each draft document as <name>.json in one directory. Writes go to a
// temp file that is fsynced and renamed over the old document, so a failed write
// leaves the previous version intact. A flock on the directory's lock file
// extends the whole-set lock to other processes sharing the directory.
type Store struct {
	dir  string
	mu   sync.RWMutex
	lock *sharedLock
}

func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("data dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	flock, err := openFileLock(filepath.Join(dir, lockFileName))
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	return &Store{dir: dir, lock: &sharedLock{file: flock}}, nil
}

func (s *Store) Close() error {
	return s.lock.file.close()
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx document.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.lock.acquireShared(); err != nil {
		return fmt.Errorf("acquire shared lock: %w", err)
	}
	defer s.lock.releaseShared()

	return fn(ctx, &readTx{dir: s.dir})
}

func (s *Store) Update(ctx context.Context, fn func(ctx context.Context, tx document.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lock.file.lock(true); err != nil {
		return fmt.Errorf("acquire exclusive lock: %w", err)
	}
	defer func() {
		_ = s.lock.file.unlock()
	}()

	tx := &writeTx{readTx: readTx{dir: s.dir}, staged: make(map[string][]byte)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	for _, name := range document.Names {
		body, ok := tx.staged[name]
		if !ok {
			continue
		}
		if err := writeFileAtomic(s.dir, document.FileName(name), body); err != nil {
			return fmt.Errorf("commit %s document: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Fingerprint(ctx context.Context) (string, error) {
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

type readTx struct {
	dir string
}

func (t *readTx) Read(_ context.Context, name string) ([]byte, bool, error) {
	body, err := os.ReadFile(filepath.Join(t.dir, document.FileName(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return body, true, nil
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

func writeFileAtomic(dir, fileName string, body []byte) (err error) {
	tmp, err := os.CreateTemp(dir, "."+fileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(body); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, filepath.Join(dir, fileName)); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	syncDir(dir)
	return nil
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// sharedLock counts in-process readers so the flock, which belongs to the one
// open file description, is taken by the first reader and dropped by the last.
type sharedLock struct {
	mu      sync.Mutex
	readers int
	file    *fileLock
}

func (l *sharedLock) acquireShared() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.readers == 0 {
		if err := l.file.lock(false); err != nil {
			return err
		}
	}
	l.readers++
	return nil
}

func (l *sharedLock) releaseShared() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.readers--
	if l.readers == 0 {
		_ = l.file.unlock()
	}
}
