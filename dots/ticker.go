package dots

import (
	"context"
	"time"
)

// Start launches the dot's ticker goroutine. It runs until ctx is cancelled
// or the dot fails. Start returns false if the ticker was already started.
func (d *Dot) Start(ctx context.Context) bool {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return false
	}
	d.started = true
	// First firing lands somewhere inside one period so freshly seeded
	// neighbours do not fire in lockstep.
	first := time.Duration(d.rng.Int63n(int64(d.interval()) + 1))
	d.mu.Unlock()

	d.env.tickers.Add(1)
	go func() {
		defer d.env.tickers.Done()
		d.run(ctx, first)
	}()
	return true
}

func (d *Dot) run(ctx context.Context, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if err := d.Step(); err != nil {
			if ctx.Err() == nil {
				d.logger().Error("ticker stopped", "error", err)
			}
			return
		}

		d.mu.Lock()
		next := d.interval()
		d.mu.Unlock()
		timer.Reset(next)
	}
}
