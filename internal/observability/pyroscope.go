package observability

import (
	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/starleague-draft/internal/config"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
)

var pyroscopeProfiles = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
	pyroscope.ProfileMutexDuration,
	pyroscope.ProfileBlockDuration,
}

// InitPyroscope starts continuous profiling when enabled. The returned stop
// function is never nil.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	noop := func() error { return nil }
	if !cfg.PyroscopeEnabled {
		logger.Info("pyroscope disabled")
		return noop, nil
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.PyroscopeAppName,
		ServerAddress:   cfg.PyroscopeServerAddress,
		AuthToken:       cfg.PyroscopeAuthToken,
		UploadRate:      cfg.PyroscopeUploadRate,
		Tags:            map[string]string{"env": cfg.AppEnv, "service": cfg.ServiceName, "draft_id": cfg.DraftID},
		ProfileTypes:    pyroscopeProfiles,
	})
	if err != nil {
		return noop, err
	}

	logger.Info("pyroscope enabled", "server_address", cfg.PyroscopeServerAddress, "application", cfg.PyroscopeAppName)
	return profiler.Stop, nil
}
