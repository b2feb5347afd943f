package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrTimeout             = errors.New("attempt budget exhausted")
	ErrStorage             = errors.New("storage failure")
	ErrJobFinalized        = errors.New("job already finalized")
	ErrInvalidPatch        = errors.New("invalid job patch")
)
