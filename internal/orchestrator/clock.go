package orchestrator

import (
	"context"
	"time"
)

// Clock paces poll attempts. Wait returns ctx.Err() when ctx ends first.
type Clock interface {
	Wait(ctx context.Context, d time.Duration) error
}

// RealClock waits on wall-clock timers.
type RealClock struct{}

func (RealClock) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
