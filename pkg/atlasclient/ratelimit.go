package atlasclient

import (
	"context"
	"sync"
	"time"

	"github.com/atlasfleet/autoscaler/pkg/metrics"
)

const (
	rateMax    = 100
	rateWindow = 60 * time.Second
)

// rateLimiter is a process-global, mutex-protected timestamp deque: at most
// rateMax requests are admitted per rolling rateWindow. Sleeps are
// cooperative and honor ctx cancellation so shutdown is never blocked on a
// pending admission.
type rateLimiter struct {
	mu         sync.Mutex
	timestamps []time.Time
	now        func() time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{now: time.Now}
}

// Wait blocks until a request may be admitted under the rolling window,
// then records the admission. Returns ctx.Err() if ctx is cancelled while
// waiting.
func (r *rateLimiter) Wait(ctx context.Context) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.RateLimiterWaitSeconds)

	for {
		r.mu.Lock()
		now := r.now()
		cutoff := now.Add(-rateWindow)

		i := 0
		for i < len(r.timestamps) && r.timestamps[i].Before(cutoff) {
			i++
		}
		r.timestamps = r.timestamps[i:]

		if len(r.timestamps) < rateMax {
			r.timestamps = append(r.timestamps, now)
			queueDepth := len(r.timestamps)
			r.mu.Unlock()
			observeQueueDepth(queueDepth)
			return nil
		}

		sleepUntil := r.timestamps[0].Add(rateWindow)
		r.mu.Unlock()

		wait := sleepUntil.Sub(now)
		if wait <= 0 {
			continue
		}

		sleepTimer := time.NewTimer(wait)
		select {
		case <-sleepTimer.C:
			// loop and re-check; another waiter may have raced in first
		case <-ctx.Done():
			sleepTimer.Stop()
			return ctx.Err()
		}
	}
}

func observeQueueDepth(depth int) {
	metrics.RateLimiterQueueDepth.Set(float64(depth))
}
