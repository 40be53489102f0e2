package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/riskibarqy/plus-predictor/internal/app"
	"github.com/riskibarqy/plus-predictor/internal/config"
	"github.com/riskibarqy/plus-predictor/internal/observability"
	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, flushLogs, err := observability.NewLogger(cfg, os.Stdout)
	if err != nil {
		panic(err)
	}
	logging.SetDefault(logger)

	os.Exit(run(cfg, logger, flushLogs))
}

func run(cfg config.Config, logger *logging.Logger, flushLogs func(context.Context) error) int {
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = flushLogs(ctx)
	}()

	shutdownTelemetry, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		logger.Error("init uptrace", "error", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		logger.Error("init pyroscope", "error", err)
		return 1
	}
	defer func() {
		if err := stopProfiler(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		logger.Error("start pprof server", "error", err)
		return 1
	}
	defer func() {
		if err := observability.StopPprofServer(pprofSrv, logger, shutdownTimeout); err != nil {
			logger.Warn("pprof shutdown failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, closeDB, err := app.NewHTTPServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		return 1
	}
	defer func() {
		if err := closeDB(); err != nil {
			logger.Warn("close database failed", "error", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			logger.Error("http server failed", "error", err)
			return 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return 1
	}

	logger.Info("http server stopped")
	return 0
}
