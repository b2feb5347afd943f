package domain

import (
	"fmt"
	"time"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// FailureReason explains why a job ended in JobStatusFailed.
type FailureReason string

const (
	ReasonProviderUnavailable FailureReason = "provider_unavailable"
	ReasonProviderFailed      FailureReason = "provider_failed"
	ReasonTimeout             FailureReason = "timeout"
	ReasonInterrupted         FailureReason = "interrupted"
)

// Job is one submitted image + style request and its lifecycle state.
type Job struct {
	ID            int64
	OriginalRef   string
	FilteredRef   *string
	Style         Style
	Status        JobStatus
	FailureReason *FailureReason
	CreatedAt     time.Time
}

// Clone returns a deep copy so callers never share pointers with a store.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.FilteredRef != nil {
		ref := *j.FilteredRef
		out.FilteredRef = &ref
	}
	if j.FailureReason != nil {
		reason := *j.FailureReason
		out.FailureReason = &reason
	}
	return &out
}

// JobPatch is used for partial updates. Nil fields are left untouched.
type JobPatch struct {
	Status        *JobStatus
	FilteredRef   *string
	FailureReason *FailureReason
}

// CompletedPatch builds the update written when the provider returns a result.
func CompletedPatch(filteredRef string) JobPatch {
	status := JobStatusCompleted
	return JobPatch{Status: &status, FilteredRef: &filteredRef}
}

// FailedPatch builds the update written for any terminal failure.
func FailedPatch(reason FailureReason) JobPatch {
	status := JobStatusFailed
	return JobPatch{Status: &status, FailureReason: &reason}
}

// Validate rejects patches that would break the result/status coupling.
func (p JobPatch) Validate() error {
	if p.Status == nil {
		if p.FilteredRef != nil || p.FailureReason != nil {
			return fmt.Errorf("%w: result fields require a status", ErrInvalidPatch)
		}
		return nil
	}
	switch *p.Status {
	case JobStatusProcessing:
		if p.FilteredRef != nil || p.FailureReason != nil {
			return fmt.Errorf("%w: processing jobs carry no result", ErrInvalidPatch)
		}
	case JobStatusCompleted:
		if p.FilteredRef == nil || *p.FilteredRef == "" {
			return fmt.Errorf("%w: completed requires filtered ref", ErrInvalidPatch)
		}
		if p.FailureReason != nil {
			return fmt.Errorf("%w: completed jobs carry no failure reason", ErrInvalidPatch)
		}
	case JobStatusFailed:
		if p.FilteredRef != nil {
			return fmt.Errorf("%w: failed jobs carry no filtered ref", ErrInvalidPatch)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPatch, *p.Status)
	}
	return nil
}

// Apply merges the patch into job following the monotonic status rules.
// Stores call it while holding whatever guard makes the update atomic.
func (p JobPatch) Apply(job *Job) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Status == nil {
		return nil
	}
	if job.Status.Terminal() {
		return fmt.Errorf("%w: job %d is %s", ErrJobFinalized, job.ID, job.Status)
	}
	job.Status = *p.Status
	if p.FilteredRef != nil {
		ref := *p.FilteredRef
		job.FilteredRef = &ref
	}
	if p.FailureReason != nil {
		reason := *p.FailureReason
		job.FailureReason = &reason
	}
	return nil
}
