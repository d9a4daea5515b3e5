package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
)

type recordingSink struct {
	name string
	err  error

	mu          sync.Mutex
	seen        []draft.Notification
	ctxErrs     []error
	hadDeadline []bool
}

func (s *recordingSink) Name() string {
	return s.name
}

func (s *recordingSink) Notify(ctx context.Context, n draft.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, n)
	_, hasDeadline := ctx.Deadline()
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	s.hadDeadline = append(s.hadDeadline, hasDeadline)
	return s.err
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func TestDispatcher_FansOutToEverySink(t *testing.T) {
	t.Parallel()

	ok := &recordingSink{name: "ok"}
	failing := &recordingSink{name: "failing", err: errors.New("downstream refused")}
	d, err := NewDispatcher(8, logging.NewNop(), ok, failing)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	for i := 0; i < 3; i++ {
		if err := d.Notify(ctx, testNotification()); err != nil {
			t.Fatalf("notify %d: %v", i, err)
		}
	}
	// Cancelling the request must not abort delivery.
	cancel()

	closeCtx, closeCancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer closeCancel()
	if err := d.Close(closeCtx); err != nil {
		t.Fatalf("close dispatcher: %v", err)
	}

	if ok.count() != 3 || failing.count() != 3 {
		t.Fatalf("unexpected deliveries: ok=%d failing=%d", ok.count(), failing.count())
	}
	for i, ctxErr := range ok.ctxErrs {
		if ctxErr != nil {
			t.Fatalf("delivery context was cancelled: %v", ctxErr)
		}
		if !ok.hadDeadline[i] {
			t.Fatalf("delivery context needs a timeout")
		}
	}
}

func TestDispatcher_NoSinksIsNoop(t *testing.T) {
	t.Parallel()

	d, err := NewDispatcher(0, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	if err := d.Notify(t.Context(), testNotification()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if err := d.Close(t.Context()); err != nil {
		t.Fatalf("close: %v", err)
	}
}
