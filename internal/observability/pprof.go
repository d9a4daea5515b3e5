package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/riskibarqy/starleague-draft/internal/config"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
)

var pprofRoutes = map[string]http.HandlerFunc{
	"/debug/pprof/":        pprof.Index,
	"/debug/pprof/cmdline": pprof.Cmdline,
	"/debug/pprof/profile": pprof.Profile,
	"/debug/pprof/symbol":  pprof.Symbol,
	"/debug/pprof/trace":   pprof.Trace,
}

// StartPprofServer serves the runtime profiles on PPROF_ADDR in the
// background. It returns a nil server when PPROF_ENABLED is off.
func StartPprofServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if !cfg.PprofEnabled {
		logger.Info("pprof disabled")
		return nil, nil
	}

	mux := http.NewServeMux()
	for pattern, h := range pprofRoutes {
		mux.HandleFunc(pattern, h)
	}
	srv := &http.Server{Addr: cfg.PprofAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logger.Info("pprof server starting", "addr", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pprof server failed", "addr", srv.Addr, "error", err)
		}
	}()
	return srv, nil
}

func StopPprofServer(srv *http.Server, logger *logging.Logger, timeout time.Duration) error {
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	if err == nil {
		logger.Info("pprof server stopped")
	}
	return err
}
