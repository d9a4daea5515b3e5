package usecase

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
)

// pickTimer applies an expired pick deadline. Every service calls expire
// before reading or changing the draft, so a timeout shows up without a
// background worker.
type pickTimer struct {
	uow      draft.UnitOfWork
	clock    clockwork.Clock
	notifier draft.Notifier
	logger   *logging.Logger
}

func (t pickTimer) due(ctx context.Context) (bool, error) {
	due := false
	err := t.uow.View(ctx, func(ctx context.Context, repo draft.Repository) error {
		session, exists, err := repo.GetSession(ctx)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		due = exists &&
			session.Status == draft.StatusLive &&
			session.PickDeadlineAt != nil &&
			!t.clock.Now().Before(*session.PickDeadlineAt)
		return nil
	})
	return due, err
}

// expire records the TIMEOUT skip, and any follow-up cascade, when the team
// on the clock ran out of time. It is a no-op otherwise.
func (t pickTimer) expire(ctx context.Context) error {
	due, err := t.due(ctx)
	if err != nil || !due {
		return err
	}

	var notification *draft.Notification
	err = t.uow.Update(ctx, func(ctx context.Context, repo draft.Repository) error {
		e, err := newEngine(ctx, repo, t.clock.Now(), t.logger)
		if err != nil {
			return err
		}
		if err := e.checkTimerExpiry(ctx); err != nil {
			return err
		}
		if err := e.commit(ctx); err != nil {
			return err
		}
		if e.changed() {
			n := e.notification(draft.ActionTeamSkipped)
			notification = &n
		}
		return nil
	})
	if err != nil {
		return err
	}

	if notification != nil {
		publishNotification(ctx, t.notifier, t.logger, *notification)
	}
	return nil
}
