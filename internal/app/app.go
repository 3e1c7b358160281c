package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/credits/internal/health"
	"github.com/vladislavdragonenkov/credits/internal/service/rest"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
)

// Run собирает зависимости, поднимает HTTP-сервер и блокируется
// до отмены контекста или фатальной ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           buildMux(deps),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP сервер слушает %s", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("graceful shutdown завершился с ошибкой")
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// buildMux собирает все маршруты: API, health probes и метрики.
func buildMux(deps *Dependencies) *http.ServeMux {
	handler := rest.NewHandler(deps.Credits, deps.Promos, deps.Saga, deps.Store, deps.Logger.WithField("layer", "rest"))

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.Handle("GET /health", deps.Health)
	mux.HandleFunc("GET /livez", health.LivenessHandler)
	mux.HandleFunc("GET /readyz", deps.Health.ReadinessHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}
