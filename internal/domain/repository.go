package domain

import "context"

// JobRepository defines persistence for job entities.
type JobRepository interface {
	Create(ctx context.Context, originalRef string, style Style) (*Job, error)
	Get(ctx context.Context, id int64) (*Job, error)
	Update(ctx context.Context, id int64, patch JobPatch) (*Job, error)
	// FailProcessing finalizes jobs left behind by a previous process.
	FailProcessing(ctx context.Context, reason FailureReason) (int64, error)
}

// TransformState is the provider-agnostic view of an external prediction.
type TransformState int

const (
	TransformRunning TransformState = iota
	TransformSucceeded
	TransformFailed
)

func (s TransformState) String() string {
	switch s {
	case TransformSucceeded:
		return "succeeded"
	case TransformFailed:
		return "failed"
	default:
		return "running"
	}
}

// TransformResult is returned by a status check against the provider.
type TransformResult struct {
	State     TransformState
	ResultRef string
	Detail    string
}

// Transformer submits image transformations to an external provider.
type Transformer interface {
	Submit(ctx context.Context, image []byte, mime string, style Style) (string, error)
	Poll(ctx context.Context, handle string) (TransformResult, error)
}
