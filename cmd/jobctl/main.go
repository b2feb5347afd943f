package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"photofilter/internal/adapter/repo"
	"photofilter/internal/domain"
	"photofilter/internal/infra"
)

func main() {
	_ = godotenv.Load()

	var (
		idFlag     int64
		failFlag   bool
		reasonFlag string
	)
	flag.Int64Var(&idFlag, "id", 0, "job ID to show")
	flag.BoolVar(&failFlag, "fail-processing", false, "mark every processing job as failed")
	flag.StringVar(&reasonFlag, "reason", string(domain.ReasonInterrupted), "failure reason used with -fail-processing")
	flag.Parse()

	if idFlag <= 0 && !failFlag {
		exitWithError(errors.New("either -id or -fail-processing must be provided"))
	}
	reason := domain.FailureReason(reasonFlag)
	switch reason {
	case domain.ReasonInterrupted, domain.ReasonTimeout, domain.ReasonProviderFailed, domain.ReasonProviderUnavailable:
	default:
		exitWithError(fmt.Errorf("unsupported reason %q", reasonFlag))
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		exitWithError(err)
	}
	if cfg.StoreDriver == infra.StoreMemory {
		exitWithError(errors.New("STORE_DRIVER must be postgres or sqlite"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	jobs, closeStore, err := repo.Open(ctx, cfg, zerolog.Nop())
	if err != nil {
		exitWithError(fmt.Errorf("failed to open job store: %w", err))
	}
	defer closeStore()

	if failFlag {
		n, err := jobs.FailProcessing(ctx, reason)
		if err != nil {
			closeStore()
			exitWithError(fmt.Errorf("failed to update jobs: %w", err))
		}
		fmt.Printf("%d processing jobs marked failed (%s)\n", n, reason)
	}

	if idFlag > 0 {
		job, err := jobs.Get(ctx, idFlag)
		if err != nil {
			closeStore()
			exitWithError(fmt.Errorf("failed to load job %d: %w", idFlag, err))
		}
		out, _ := json.MarshalIndent(job, "", "  ")
		fmt.Println(string(out))
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
