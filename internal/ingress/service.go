package ingress

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"photofilter/internal/domain"
	"photofilter/internal/orchestrator"
)

var (
	// ErrTooLarge is returned when the upload exceeds the configured limit.
	ErrTooLarge = errors.New("ingress: upload too large")
	// ErrUnavailable is returned when the service no longer accepts jobs.
	ErrUnavailable = errors.New("ingress: service unavailable")
)

// DefaultMaxBytes caps uploads when no limit is configured.
const DefaultMaxBytes = 10 << 20

const uploadPrefix = "uploads"

// Launcher hands an accepted job to background orchestration.
type Launcher interface {
	Launch(task orchestrator.Task) error
}

// BlobWriter stores upload bytes under a relative key.
type BlobWriter interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	Remove(ctx context.Context, key string) error
}

// Upload is one submitted file.
type Upload struct {
	Data     []byte
	Filename string
}

// Service validates submissions, creates jobs and starts their orchestration.
type Service struct {
	jobs     domain.JobRepository
	files    BlobWriter
	launcher Launcher
	maxBytes int64
	logger   zerolog.Logger
}

func NewService(jobs domain.JobRepository, files BlobWriter, launcher Launcher, maxBytes int64, logger zerolog.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{jobs: jobs, files: files, launcher: launcher, maxBytes: maxBytes, logger: logger}
}

// MaxBytes reports the upload size limit.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// Submit accepts an upload and returns the created job without waiting for
// the transformation.
func (s *Service) Submit(ctx context.Context, upload Upload, declaredStyle string) (*domain.Job, error) {
	if len(upload.Data) == 0 {
		return nil, fmt.Errorf("%w: no image uploaded", domain.ErrInvalidInput)
	}
	if int64(len(upload.Data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(upload.Data), s.maxBytes)
	}
	style, err := domain.ParseStyle(declaredStyle)
	if err != nil {
		return nil, err
	}
	mime := http.DetectContentType(upload.Data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%w: only image files are allowed, got %s", domain.ErrInvalidInput, mime)
	}

	key := uploadPrefix + "/" + uuid.NewString() + extension(upload.Filename, mime)
	stored, err := s.files.Write(ctx, key, upload.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: store upload: %v", domain.ErrStorage, err)
	}

	job, err := s.jobs.Create(ctx, "/"+stored, style)
	if err != nil {
		if rmErr := s.files.Remove(context.WithoutCancel(ctx), stored); rmErr != nil {
			s.logger.Warn().Err(rmErr).Str("key", stored).Msg("remove orphaned upload")
		}
		return nil, err
	}
	log := s.logger.With().Int64("job_id", job.ID).Str("style", string(style)).Logger()

	err = s.launcher.Launch(orchestrator.Task{JobID: job.ID, Image: upload.Data, MIME: mime, Style: style})
	if err != nil {
		log.Warn().Err(err).Msg("launch refused")
		failed, updErr := s.jobs.Update(context.WithoutCancel(ctx), job.ID, domain.FailedPatch(domain.ReasonInterrupted))
		if updErr != nil {
			log.Error().Err(updErr).Msg("mark refused job failed")
		} else {
			job = failed
		}
		return job, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	log.Info().Str("original", job.OriginalRef).Int("bytes", len(upload.Data)).Msg("job accepted")
	return job, nil
}

// Status returns the current snapshot of job id.
func (s *Service) Status(ctx context.Context, id int64) (*domain.Job, error) {
	return s.jobs.Get(ctx, id)
}

var knownExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

func extension(filename, mime string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".heic", ".avif":
		return ext
	}
	if ext, ok := knownExt[mime]; ok {
		return ext
	}
	return ".img"
}
