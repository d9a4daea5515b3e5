package notify

import (
	"context"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
)

// Sink is one delivery target behind the dispatcher.
type Sink interface {
	Name() string
	Notify(ctx context.Context, n draft.Notification) error
}

const defaultDeliveryTimeout = 10 * time.Second

// Dispatcher delivers notifications to every sink on a bounded worker pool so
// draft requests never wait on a slow listener. When the pool is saturated the
// notification is dropped and logged.
type Dispatcher struct {
	pool    *ants.Pool
	sinks   []Sink
	logger  *logging.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(workers int, logger *logging.Logger, sinks ...Sink) (*Dispatcher, error) {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, crerr.Wrap(err, "create notification worker pool")
	}

	return &Dispatcher{
		pool:    pool,
		sinks:   sinks,
		logger:  logger,
		timeout: defaultDeliveryTimeout,
	}, nil
}

// Notify schedules delivery and returns at once. Only a full pool is reported.
func (d *Dispatcher) Notify(ctx context.Context, n draft.Notification) error {
	if len(d.sinks) == 0 {
		return nil
	}
	// Delivery outlives the request that committed the change.
	ctx = context.WithoutCancel(ctx)

	for _, sink := range d.sinks {
		d.wg.Add(1)
		if err := d.pool.Submit(func() {
			defer d.wg.Done()
			d.deliver(ctx, sink, n)
		}); err != nil {
			d.wg.Done()
			return crerr.Wrapf(err, "schedule %s notification", sink.Name())
		}
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, sink Sink, n draft.Notification) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	if err := sink.Notify(ctx, n); err != nil {
		d.logger.WarnContext(ctx, "draft notification failed",
			"sink", sink.Name(),
			"action", n.Action,
			"pick_number", n.CurrentPickNumber,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
	}
}

// Close waits for in-flight deliveries, then releases the pool.
func (d *Dispatcher) Close(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.pool.Release()
		return nil
	case <-ctx.Done():
		d.pool.Release()
		return crerr.Wrap(ctx.Err(), "wait for notification delivery")
	}
}
