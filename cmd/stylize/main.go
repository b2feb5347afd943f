package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"photofilter/internal/adapter/repo"
	"photofilter/internal/domain"
	"photofilter/internal/infra"
	"photofilter/internal/orchestrator"
	"photofilter/internal/providers/replicate"
	"photofilter/internal/storage"
)

// stylize runs one image through the provider without the HTTP surface and
// prints the resulting URL.
func main() {
	_ = godotenv.Load()

	var (
		imageFlag string
		styleFlag string
	)
	flag.StringVar(&imageFlag, "image", "", "path to the source image")
	flag.StringVar(&styleFlag, "style", string(domain.StyleCartoon), "one of cartoon, anime, cyberpunk, watercolor, old-photo")
	flag.Parse()

	style, err := domain.ParseStyle(styleFlag)
	if err != nil {
		exitWithError(err)
	}
	path := strings.TrimSpace(imageFlag)
	if path == "" {
		exitWithError(fmt.Errorf("-image is required"))
	}
	src, err := storage.NewFileStore(filepath.Dir(path))
	if err != nil {
		exitWithError(err)
	}
	data, err := src.Read(context.Background(), filepath.Base(path))
	if err != nil {
		exitWithError(fmt.Errorf("read image: %w", err))
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := repo.NewMemoryJobRepository()
	job, err := jobs.Create(ctx, path, style)
	if err != nil {
		exitWithError(err)
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

	status, err := orch.Run(ctx, orchestrator.Task{
		JobID: job.ID,
		Image: data,
		MIME:  http.DetectContentType(data),
		Style: style,
	})
	if err != nil {
		exitWithError(err)
	}

	final, err := jobs.Get(context.Background(), job.ID)
	if err != nil {
		exitWithError(err)
	}
	if status != domain.JobStatusCompleted || final.FilteredRef == nil {
		reason := "unknown"
		if final.FailureReason != nil {
			reason = string(*final.FailureReason)
		}
		exitWithError(fmt.Errorf("job %s: %s", status, reason))
	}
	fmt.Println(*final.FilteredRef)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
