package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/ploidy/internal/config"
	"github.com/JonMunkholm/ploidy/internal/core"
	"github.com/JonMunkholm/ploidy/internal/logging"
	"github.com/JonMunkholm/ploidy/internal/metrics"
	"github.com/JonMunkholm/ploidy/internal/predict"
	"github.com/JonMunkholm/ploidy/internal/schema"
	"github.com/JonMunkholm/ploidy/internal/web"
	"github.com/JonMunkholm/ploidy/internal/xlsx"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// A missing .env is normal in containers.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(cfg *config.Config) error {
	validator := core.NewValidator(
		schema.Morphokinetic().WithBlankCells(cfg.Validation.BlankCellPolicy()),
		core.WithMessages(core.MessagesFor(cfg.Validation.Locale)),
	)
	predictor := predict.NewClient(cfg.Predict.URL, cfg.Predict.Timeout)
	recorder := metrics.NewPrometheusRecorder()

	service := core.NewService(validator, xlsx.NewDecoder(), predictor,
		core.ServiceConfig{
			MaxFileSize:    cfg.Upload.MaxFileSize,
			MaxConcurrent:  cfg.Predict.MaxConcurrent,
			MaxWait:        cfg.Predict.MaxWaitTime,
			PredictTimeout: cfg.Predict.Timeout,
		},
		core.WithRecorder(recorder),
	)
	service.Limiter().OnActiveChange(recorder.SetActiveSubmissions)

	slog.Info("validator ready",
		"columns", len(validator.Schema().Required),
		"blank_cells", validator.Schema().BlankCells.String(),
		"locale", cfg.Validation.Locale,
		"predict_url", predictor.BaseURL(),
	)

	server := web.NewServer(service, cfg,
		web.WithMetrics(recorder),
		web.WithHealthCheck(predictor),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// In-flight predictions keep their HTTP requests open, so wait for
		// them before closing connections.
		if st := service.Limiter().Status(); st.Active > 0 {
			slog.Info("waiting for predictions to complete", "active", st.Active)
			if err := service.WaitForSubmissions(shutdownCtx); err != nil {
				slog.Warn("predictions did not complete in time", "error", err)
			}
		}
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
