package repo

import (
	"context"
	"fmt"
	"time"

	"photofilter/internal/domain"
	"photofilter/internal/infra"
	"photofilter/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository on PostgreSQL through the
// audited SQL runner.
type JobRepositoryPG struct {
	db infra.SQLExecutor
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(db infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{db: db}
}

// Create inserts a new processing job and returns the stored record.
func (r *JobRepositoryPG) Create(ctx context.Context, originalRef string, style domain.Style) (*domain.Job, error) {
	row := r.db.QueryRow(ctx, sqlinline.QInsertImage, originalRef, string(style))
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("%w: insert image: %v", domain.ErrStorage, err)
	}
	return job, nil
}

// Get fetches a job by its identifier.
func (r *JobRepositoryPG) Get(ctx context.Context, id int64) (*domain.Job, error) {
	row := r.db.QueryRow(ctx, sqlinline.QSelectImage, id)
	job, err := scanJob(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: select image: %v", domain.ErrStorage, err)
	}
	return job, nil
}

// Update applies patch in a single statement guarded on status='processing'.
func (r *JobRepositoryPG) Update(ctx context.Context, id int64, patch domain.JobPatch) (*domain.Job, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, sqlinline.QUpdateImage,
		id,
		nullableStatus(patch.Status),
		patch.FilteredRef,
		nullableReason(patch.FailureReason),
	)
	job, err := scanJob(row)
	if err == nil {
		return job, nil
	}
	if !infra.IsNoRows(err) {
		return nil, fmt.Errorf("%w: update image: %v", domain.ErrStorage, err)
	}
	// No row matched: either the id is unknown or the job is already final.
	current, getErr := r.Get(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: job %d is %s", domain.ErrJobFinalized, id, current.Status)
}

// FailProcessing marks every job still processing as failed with reason.
func (r *JobRepositoryPG) FailProcessing(ctx context.Context, reason domain.FailureReason) (int64, error) {
	tag, err := r.db.Exec(ctx, sqlinline.QFailProcessingImages, string(reason))
	if err != nil {
		return 0, fmt.Errorf("%w: fail processing images: %v", domain.ErrStorage, err)
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job         domain.Job
		style       string
		status      string
		filteredRef *string
		reason      *string
		createdAt   time.Time
	)
	if err := row.Scan(&job.ID, &job.OriginalRef, &filteredRef, &style, &status, &reason, &createdAt); err != nil {
		return nil, err
	}
	job.Style = domain.Style(style)
	job.Status = domain.JobStatus(status)
	job.FilteredRef = filteredRef
	if reason != nil {
		fr := domain.FailureReason(*reason)
		job.FailureReason = &fr
	}
	job.CreatedAt = createdAt.UTC()
	return &job, nil
}

func nullableStatus(s *domain.JobStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}

func nullableReason(r *domain.FailureReason) *string {
	if r == nil {
		return nil
	}
	v := string(*r)
	return &v
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
