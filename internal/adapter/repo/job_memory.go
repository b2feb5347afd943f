package repo

import (
	"context"
	"sync"
	"time"

	"photofilter/internal/domain"
)

// JobRepositoryMemory is an in-process job store. Every returned job is a
// copy, so callers can never mutate the authoritative record.
type JobRepositoryMemory struct {
	mu     sync.RWMutex
	jobs   map[int64]*domain.Job
	nextID int64
	now    func() time.Time
}

// NewMemoryJobRepository returns an empty store whose ids start at 1.
func NewMemoryJobRepository() *JobRepositoryMemory {
	return &JobRepositoryMemory{
		jobs:   make(map[int64]*domain.Job),
		nextID: 1,
		now:    time.Now,
	}
}

func (r *JobRepositoryMemory) Create(ctx context.Context, originalRef string, style domain.Style) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job := &domain.Job{
		ID:          r.nextID,
		OriginalRef: originalRef,
		Style:       style,
		Status:      domain.JobStatusProcessing,
		CreatedAt:   r.now().UTC(),
	}
	r.nextID++
	r.jobs[job.ID] = job
	return job.Clone(), nil
}

func (r *JobRepositoryMemory) Get(ctx context.Context, id int64) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job.Clone(), nil
}

func (r *JobRepositoryMemory) Update(ctx context.Context, id int64, patch domain.JobPatch) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	next := job.Clone()
	if err := patch.Apply(next); err != nil {
		return nil, err
	}
	r.jobs[id] = next
	return next.Clone(), nil
}

func (r *JobRepositoryMemory) FailProcessing(ctx context.Context, reason domain.FailureReason) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, job := range r.jobs {
		if job.Status.Terminal() {
			continue
		}
		next := job.Clone()
		if err := domain.FailedPatch(reason).Apply(next); err != nil {
			return n, err
		}
		r.jobs[id] = next
		n++
	}
	return n, nil
}

var _ domain.JobRepository = (*JobRepositoryMemory)(nil)
