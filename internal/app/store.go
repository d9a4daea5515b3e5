package app

import (
	"context"
	"fmt"

	"github.com/riskibarqy/starleague-draft/internal/config"
	"github.com/riskibarqy/starleague-draft/internal/infrastructure/repository/document"
	"github.com/riskibarqy/starleague-draft/internal/infrastructure/repository/filestore"
	"github.com/riskibarqy/starleague-draft/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/starleague-draft/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
	"github.com/riskibarqy/starleague-draft/internal/platform/resilience"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	_ "github.com/lib/pq"
)

func noopClose(context.Context) error { return nil }

func openBackend(cfg config.Config, logger *logging.Logger) (document.Backend, func(context.Context) error, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("memory store selected, draft state is lost on restart")
		return memory.NewStore(), noopClose, nil
	case config.StorePostgres:
		return openPostgres(cfg, logger)
	default:
		store, err := filestore.NewStore(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("file store opened", "data_dir", cfg.DataDir)
		return store, func(context.Context) error { return store.Close() }, nil
	}
}

func openPostgres(cfg config.Config, logger *logging.Logger) (document.Backend, func(context.Context) error, error) {
	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	dbName := dbNameFromURL(dbURL)

	db, err := otelsqlx.Open("postgres", dbURL,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbName),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	otelsql.ReportDBStatsMetrics(db.DB)

	breaker := resilience.NewCircuitBreakerFromConfig(resilience.CircuitBreakerConfig{
		Enabled:          cfg.DBCircuitEnabled,
		FailureThreshold: cfg.DBCircuitFailureCount,
		OpenTimeout:      cfg.DBCircuitOpenTimeout,
		HalfOpenMaxReq:   cfg.DBCircuitHalfOpenMaxReq,
	})

	logger.Info("postgres store opened",
		"db_name", dbName,
		"draft_id", cfg.DraftID,
		"circuit_enabled", breaker != nil,
	)
	return postgres.NewDocumentStore(db, cfg.DraftID, breaker), func(context.Context) error { return db.Close() }, nil
}
