// Package resilience provides retry with exponential backoff and a transient
// error taxonomy for the pipeline's network calls.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls retry pacing. The zero value gets sane defaults: 3
// attempts, 500ms base delay doubling per attempt, 30s ceiling, 25% jitter.
type Policy struct {
	Attempts int           // total tries including the first; 1 disables retries
	Base     time.Duration // delay before the first retry
	Cap      time.Duration // backoff ceiling
	Factor   float64       // backoff growth per attempt
	Jitter   float64       // random spread as a fraction of the delay
}

func (p Policy) normalized() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.Base <= 0 {
		p.Base = 500 * time.Millisecond
	}
	if p.Cap <= 0 {
		p.Cap = 30 * time.Second
	}
	if p.Factor <= 0 {
		p.Factor = 2.0
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	return p
}

// Retry runs fn until it succeeds, returns a non-transient error, exhausts
// the policy's attempts, or the context is canceled. Only transient errors
// are retried.
func Retry[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !Transient(err) || attempt == p.Attempts-1 {
			break
		}

		zap.L().Warn("retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.Base) * math.Pow(p.Factor, float64(attempt))
	if d > float64(p.Cap) {
		d = float64(p.Cap)
	}
	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.Jitter
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
