package app

import (
	"context"

	"github.com/riskibarqy/starleague-draft/internal/config"
	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
	"github.com/riskibarqy/starleague-draft/internal/infrastructure/notify"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
	"github.com/riskibarqy/starleague-draft/internal/platform/resilience"
)

// buildNotifier wires the configured sinks behind one dispatcher. With no sink
// configured it returns a nil notifier and the services skip publishing.
func buildNotifier(cfg config.Config, logger *logging.Logger) (draft.Notifier, func(context.Context) error, error) {
	var (
		sinks   []notify.Sink
		closers []func() error
	)

	if cfg.NotifyWebhookURL != "" {
		webhook, err := notify.NewWebhookNotifier(notify.WebhookConfig{
			URL:            cfg.NotifyWebhookURL,
			Token:          cfg.NotifyWebhookToken,
			Timeout:        cfg.NotifyWebhookTimeout,
			CircuitBreaker: resilience.DefaultCircuitBreakerConfig(),
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, webhook)
	}

	if cfg.NotifyNATSURL != "" {
		publisher, err := notify.NewNATSNotifier(notify.NATSConfig{
			URL:        cfg.NotifyNATSURL,
			Subject:    cfg.NotifyNATSSubject,
			ClientName: cfg.ServiceName,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, publisher)
		closers = append(closers, publisher.Close)
	}

	if len(sinks) == 0 {
		logger.Info("draft notifications disabled")
		return nil, noopClose, nil
	}

	dispatcher, err := notify.NewDispatcher(cfg.NotifyWorkers, logger, sinks...)
	if err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, nil, err
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	logger.Info("draft notifications enabled", "sinks", names, "workers", cfg.NotifyWorkers)

	return dispatcher, func(ctx context.Context) error {
		// Drain queued deliveries before the connections go away.
		err := dispatcher.Close(ctx)
		for _, c := range closers {
			if closeErr := c(); closeErr != nil && err == nil {
				err = closeErr
			}
		}
		return err
	}, nil
}
