package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/riskibarqy/starleague-draft/internal/config"
	"github.com/riskibarqy/starleague-draft/internal/infrastructure/repository/document"
	"github.com/riskibarqy/starleague-draft/internal/interfaces/httpapi"
	"github.com/riskibarqy/starleague-draft/internal/platform/cache"
	idgen "github.com/riskibarqy/starleague-draft/internal/platform/id"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
	"github.com/riskibarqy/starleague-draft/internal/usecase"
)

// App owns the HTTP server and every resource it depends on.
type App struct {
	Server *http.Server

	logger  *logging.Logger
	closers []func(context.Context) error
}

// New opens the store, bootstraps the draft on first boot and builds the
// HTTP server. On error everything opened so far is already released.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	a := &App{logger: logger}

	backend, closeStore, err := openBackend(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.closers = append(a.closers, closeStore)

	notifier, closeNotifier, err := buildNotifier(cfg, logger)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("build notifier: %w", err)
	}
	a.closers = append(a.closers, closeNotifier)

	var stateCache *cache.Store
	if cfg.CacheEnabled {
		stateCache = cache.NewStore(cfg.CacheTTL)
	}

	uow := document.NewUnitOfWork(backend)
	setupSvc := usecase.NewSetupService(uow, idgen.NewRandomGenerator(), nil, notifier, usecase.SetupConfig{
		DraftName:      cfg.DraftName,
		TeamCount:      cfg.DraftTeamCount,
		SecondsPerPick: cfg.DraftSecondsPerPick,
		AdminToken:     cfg.DraftAdminToken,
	}, logger)
	draftSvc := usecase.NewDraftService(uow, nil, stateCache, notifier, logger)
	exportSvc := usecase.NewExportService(uow, nil, notifier, logger)
	authSvc := usecase.NewAuthService(uow)

	result, err := setupSvc.Bootstrap(ctx)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("bootstrap draft: %w", err)
	}
	if result.GeneratedAdminToken != "" {
		// Printed once; it is only ever stored in the session document afterwards.
		logger.Warn("generated admin token, set DRAFT_ADMIN_TOKEN to choose your own",
			"admin_token", result.GeneratedAdminToken,
		)
	}
	logger.Info("draft store ready", "driver", cfg.StoreDriver, "created", result.Created)

	handler := httpapi.NewHandler(draftSvc, setupSvc, exportSvc, logger)
	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpapi.NewRouter(handler, authSvc, logger, cfg.CORSAllowedOrigins),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("release resource failed", "error", err)
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
