package document

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
)

// UnitOfWork adapts a raw document Backend to draft.UnitOfWork.
type UnitOfWork struct {
	backend Backend
}

func NewUnitOfWork(backend Backend) *UnitOfWork {
	return &UnitOfWork{backend: backend}
}

func (u *UnitOfWork) View(ctx context.Context, fn func(ctx context.Context, repo draft.Repository) error) error {
	return u.backend.View(ctx, func(ctx context.Context, tx Tx) error {
		return fn(ctx, newRepository(tx))
	})
}

func (u *UnitOfWork) Update(ctx context.Context, fn func(ctx context.Context, repo draft.Repository) error) error {
	return u.backend.Update(ctx, func(ctx context.Context, tx Tx) error {
		repo := newRepository(tx)
		if err := fn(ctx, repo); err != nil {
			return err
		}
		return repo.flush(ctx)
	})
}

func (u *UnitOfWork) Fingerprint(ctx context.Context) (string, error) {
	return u.backend.Fingerprint(ctx)
}

// Fingerprint hashes the raw bytes of every document in a stable order. Missing
// documents hash differently from empty ones.
func Fingerprint(docs map[string][]byte) string {
	h := xxhash.New()
	for _, name := range Names {
		_, _ = h.WriteString(name)
		body, ok := docs[name]
		if !ok {
			_, _ = h.Write([]byte{0})
			continue
		}
		_, _ = h.Write([]byte{1})
		_, _ = h.Write(body)
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
