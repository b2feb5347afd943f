package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"photofilter/internal/domain"
)

const (
	DefaultInterval    = 5 * time.Second
	DefaultMaxAttempts = 60
	finalizeTimeout    = 5 * time.Second
)

// Config bounds the polling phase of one job. Per-call deadlines belong to
// the Transformer.
type Config struct {
	Interval    time.Duration
	MaxAttempts int
}

// Task carries everything an orchestration needs after the job row exists.
type Task struct {
	JobID int64
	Image []byte
	MIME  string
	Style domain.Style
}

// Orchestrator drives a single job from submission to a terminal status.
type Orchestrator struct {
	store       domain.JobRepository
	transformer domain.Transformer
	clock       Clock
	cfg         Config
	logger      zerolog.Logger
}

func New(store domain.JobRepository, transformer domain.Transformer, clock Clock, cfg Config, logger zerolog.Logger) *Orchestrator {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Orchestrator{
		store:       store,
		transformer: transformer,
		clock:       clock,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run submits the task, polls until the provider settles or the attempt
// budget runs out, and persists the outcome. The returned status is the one
// written to the store. Cancelling ctx records the job as interrupted.
func (o *Orchestrator) Run(ctx context.Context, task Task) (domain.JobStatus, error) {
	log := o.logger.With().Int64("job_id", task.JobID).Str("style", string(task.Style)).Logger()
	log.Info().Msg("orchestration started")

	handle, err := o.transformer.Submit(ctx, task.Image, task.MIME, task.Style)
	if err != nil {
		if ctx.Err() != nil {
			return o.fail(ctx, log, task.JobID, domain.ReasonInterrupted, err)
		}
		return o.fail(ctx, log, task.JobID, domain.ReasonProviderUnavailable, err)
	}
	log = log.With().Str("handle", handle).Logger()
	log.Info().Msg("prediction submitted")

	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		res, err := o.transformer.Poll(ctx, handle)
		if err != nil {
			if ctx.Err() != nil {
				return o.fail(ctx, log, task.JobID, domain.ReasonInterrupted, err)
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("poll failed")
			return o.fail(ctx, log, task.JobID, domain.ReasonProviderUnavailable, err)
		}

		switch res.State {
		case domain.TransformSucceeded:
			log.Info().Int("attempt", attempt).Str("result", res.ResultRef).Msg("prediction succeeded")
			return o.finish(ctx, log, task.JobID, domain.CompletedPatch(res.ResultRef))
		case domain.TransformFailed:
			log.Warn().Int("attempt", attempt).Str("detail", res.Detail).Msg("prediction failed")
			return o.fail(ctx, log, task.JobID, domain.ReasonProviderFailed, nil)
		}
		log.Debug().Int("attempt", attempt).Msg("prediction running")

		if attempt == o.cfg.MaxAttempts {
			break
		}
		if err := o.clock.Wait(ctx, o.cfg.Interval); err != nil {
			return o.fail(ctx, log, task.JobID, domain.ReasonInterrupted, err)
		}
	}

	return o.fail(ctx, log, task.JobID, domain.ReasonTimeout,
		fmt.Errorf("%w: %d attempts", domain.ErrTimeout, o.cfg.MaxAttempts))
}

func (o *Orchestrator) fail(ctx context.Context, log zerolog.Logger, id int64, reason domain.FailureReason, cause error) (domain.JobStatus, error) {
	ev := log.Warn().Str("reason", string(reason))
	if cause != nil {
		ev = ev.Err(cause)
	}
	ev.Msg("job failed")
	return o.finish(ctx, log, id, domain.FailedPatch(reason))
}

// finish writes the terminal patch on a context detached from ctx so that
// shutdown still records the outcome.
func (o *Orchestrator) finish(ctx context.Context, log zerolog.Logger, id int64, patch domain.JobPatch) (domain.JobStatus, error) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	job, err := o.store.Update(writeCtx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrJobFinalized) {
			log.Warn().Err(err).Msg("job already terminal")
			if current, getErr := o.store.Get(writeCtx, id); getErr == nil {
				return current.Status, nil
			}
		}
		log.Error().Err(err).Msg("persist job outcome")
		return "", fmt.Errorf("orchestrator: persist job %d: %w", id, err)
	}
	log.Info().Str("status", string(job.Status)).Msg("job finished")
	return job.Status, nil
}
