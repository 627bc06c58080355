// Command etl loads the configured Argo floats from a local GDAC snapshot,
// normalizes and reshapes them, and writes the results as netCDF files.
// Health, readiness and metrics are served while the batch runs.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocean23/argopy/internal/adapter/httpadapter"
	"github.com/pocean23/argopy/internal/adapter/netcdf"
	"github.com/pocean23/argopy/internal/config"
	"github.com/pocean23/argopy/internal/observability"
	"github.com/pocean23/argopy/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if cfg.DataSrc != "localftp" {
		logger.Error("only the localftp data source is available to the batch service", "data_src", cfg.DataSrc)
		os.Exit(1)
	}
	if len(cfg.Floats) == 0 {
		logger.Warn("no floats configured, set ARGO_FLOATS")
	}

	loader := netcdf.NewCachedLoader(netcdf.NewLocalLoader(cfg.LocalFTP), cfg.CacheSize)
	sink := netcdf.NewDirectorySink(cfg.OutputDir)
	transformer := pipeline.NewTransformer(cfg.OutputForm, cfg.FilterDataMode, cfg.KeepError, logger, metrics)

	p := pipeline.New(loader, transformer, sink, logger, metrics, cfg.Workers)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, nil, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	logger.Info("batch starting",
		"local_ftp", cfg.LocalFTP,
		"output_dir", cfg.OutputDir,
		"form", cfg.OutputForm.String(),
		"filter_data_mode", cfg.FilterDataMode,
	)
	summary, runErr := p.Run(ctx, cfg.Floats)
	if runErr != nil {
		logger.Error("pipeline error", "error", runErr)
	} else {
		logger.Info("batch complete", "written", summary.Written, "missing", summary.Missing, "failed", summary.Failed)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	if runErr != nil {
		os.Exit(1)
	}
}
