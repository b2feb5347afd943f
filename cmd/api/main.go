package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"photofilter/internal/adapter/repo"
	"photofilter/internal/domain"
	"photofilter/internal/http/handlers"
	"photofilter/internal/http/httpapi"
	"photofilter/internal/infra"
	"photofilter/internal/infra/geoip"
	"photofilter/internal/ingress"
	"photofilter/internal/orchestrator"
	"photofilter/internal/providers/replicate"
	"photofilter/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs, closeStore, err := repo.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open job store")
	}
	defer closeStore()

	// Orchestrations from a previous process cannot resume.
	if cfg.StoreDriver != infra.StoreMemory {
		n, err := jobs.FailProcessing(ctx, domain.ReasonInterrupted)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to recover stale jobs")
		}
		if n > 0 {
			logger.Warn().Int64("jobs", n).Msg("marked stale processing jobs as interrupted")
		}
	}

	files, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init file storage")
	}
	logger.Info().Str("path", files.BasePath()).Msg("file storage ready")
	uploads, err := files.Dir("uploads")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init uploads dir")
	}

	if cfg.ReplicateToken == "" {
		logger.Warn().Msg("REPLICATE_API_TOKEN not set, every job will fail with provider_unavailable")
	}
	replicateLogger := infra.Component(logger, "replicate")
	client := replicate.NewClient(replicate.Options{
		Token:       cfg.ReplicateToken,
		BaseURL:     cfg.ReplicateBaseURL,
		Version:     cfg.ReplicateVersion,
		CallTimeout: cfg.ReplicateCallTimeout,
		PreferWait:  cfg.ReplicatePreferWait,
		Logger:      &replicateLogger,
	})

	orch := orchestrator.New(jobs, client, orchestrator.RealClock{}, orchestrator.Config{
		Interval:    cfg.PollInterval,
		MaxAttempts: cfg.PollMaxAttempts,
	}, infra.Component(logger, "orchestrator"))
	supervisor := orchestrator.NewSupervisor(orch, jobs, infra.Component(logger, "supervisor"))
	svc := ingress.NewService(jobs, files, supervisor, cfg.MaxUploadSize, infra.Component(logger, "ingress"))

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer geo.Close()

	app := handlers.NewApp(cfg, infra.Component(logger, "http"), svc, supervisor)
	router := httpapi.NewRouter(app, httpapi.Options{Uploads: uploads, CountryLookup: geo.Lookup()})
	server := infra.NewHTTPServer(cfg, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr()).Str("store", cfg.StoreDriver).Msg("API listening")
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server")
		}
		if err := supervisor.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("orchestrations interrupted")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("http server failed")
	}
	logger.Info().Msg("server stopped")
}
