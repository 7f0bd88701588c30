// Package throttle implements the reactive backpressure used against
// the commerce GraphQL API. Every response reports the remaining query
// cost budget; callers feed it into a CostGuard and pause between
// sequential calls once the budget runs low. The guard never throttles
// pre-emptively and assumes a single goroutine drives it.
package throttle

import (
	"context"
	"fmt"
	"time"
)

const DefaultCostThreshold = 400
const ResolvePause = 1000 * time.Millisecond
const RefundPause = 600 * time.Millisecond

type CostGuard struct {
	threshold int
	pause     time.Duration
	low       bool
}

func NewCostGuard(threshold int, pause time.Duration) *CostGuard {
	return &CostGuard{
		threshold: threshold,
		pause:     pause,
	}
}

// Observe records the remaining budget reported by the last call.
func (g *CostGuard) Observe(available int) {
	g.low = available < g.threshold
}

// Wait pauses for the configured duration iff the last observed budget
// was below the threshold, then resets. Returns early on context
// cancellation.
func (g *CostGuard) Wait(ctx context.Context) error {
	if !g.low {
		return nil
	}
	g.low = false

	timer := time.NewTimer(g.pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy is the fixed-count, fixed-delay retry the order and
// variant lookups use. No backoff growth between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

func (p RetryPolicy) Do(ctx context.Context, f func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		timer := time.NewTimer(p.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", attempts, err)
}
