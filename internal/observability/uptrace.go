package observability

import (
	"context"
	"strings"

	"github.com/riskibarqy/starleague-draft/internal/config"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
	"github.com/uptrace/uptrace-go/uptrace"
)

// InitUptrace installs the global otel providers and, when UPTRACE_LOGS_ENABLED
// is set, mirrors context-aware application logs to Uptrace. The returned
// shutdown flushes exporters and removes the mirror.
func InitUptrace(cfg config.Config, logger *logging.Logger) (func(context.Context) error, error) {
	logging.SetMirror(nil)
	if !cfg.UptraceEnabled || strings.TrimSpace(cfg.UptraceDSN) == "" {
		logger.Info("uptrace disabled", "enabled", cfg.UptraceEnabled)
		return func(context.Context) error { return nil }, nil
	}

	uptrace.ConfigureOpentelemetry(
		uptrace.WithDSN(cfg.UptraceDSN),
		uptrace.WithServiceName(cfg.ServiceName),
		uptrace.WithServiceVersion(cfg.ServiceVersion),
		uptrace.WithDeploymentEnvironment(cfg.AppEnv),
		uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
	)
	if cfg.UptraceLogsEnabled {
		logging.SetMirror(newLogMirror(cfg.ServiceVersion))
	}
	logger.Info("uptrace enabled", "service_name", cfg.ServiceName, "environment", cfg.AppEnv, "logs_enabled", cfg.UptraceLogsEnabled)

	return func(ctx context.Context) error {
		logging.SetMirror(nil)
		return uptrace.Shutdown(ctx)
	}, nil
}
