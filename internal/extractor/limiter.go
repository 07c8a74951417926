package extractor

import (
	"context"
)

// Limiter caps how many extractor processes run at once.
type Limiter struct {
	sem chan struct{}
}

func NewLimiter(limit int) *Limiter {
	if limit < 1 {
		limit = 1
	}
	return &Limiter{
		sem: make(chan struct{}, limit),
	}
}

func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Limiter) Release() {
	select {
	case <-l.sem:
	default:
	}
}

func (l *Limiter) TryAcquire() bool {
	select {
	case l.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

func (l *Limiter) Active() int {
	return len(l.sem)
}

func (l *Limiter) Capacity() int {
	return cap(l.sem)
}
