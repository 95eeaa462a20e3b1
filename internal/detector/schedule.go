package detector

import (
	"context"
	"time"
)

// schedule runs fn repeatedly until ctx is cancelled, waiting interval
// after each completion before the next run. The wait starts when fn
// returns, so runs never overlap regardless of how long fn takes.
func schedule(ctx context.Context, interval time.Duration, fn func()) {
	timer := time.NewTimer(0) // first run immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		fn()

		if ctx.Err() != nil {
			return
		}
		timer.Reset(interval)
	}
}
