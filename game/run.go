package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/dots/effects"
	"github.com/pthm-cable/dots/telemetry"
)

// Run drives the simulation until ctx ends. The propagator, the telemetry
// loop, the optional metrics server and (in headless external mode) the
// tick feed share one errgroup. In self mode every dot runs its own ticker.
// Run waits for all dot tickers before returning.
func (g *Game) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return g.prop.Run(ctx)
	})

	if g.cfg.Derived.ExternalTicks {
		if g.headless {
			eg.Go(func() error {
				return g.tickFeed(ctx)
			})
		}
	} else {
		g.grid.StartTickers(ctx)
	}

	eg.Go(func() error {
		return g.telemetryLoop(ctx)
	})

	if g.metricsAddr != "" {
		eg.Go(func() error {
			g.log.Info("serving metrics", "addr", g.metricsAddr)
			if err := telemetry.ServeMetrics(ctx, g.metricsAddr); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	err := eg.Wait()
	g.factory.Wait()
	return err
}

// tickFeed broadcasts a Tick at the configured update rate.
func (g *Game) tickFeed(ctx context.Context) error {
	t := time.NewTicker(g.cfg.Derived.UpdateInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := g.sendTick(); err != nil {
				return err
			}
		}
	}
}

func (g *Game) sendTick() error {
	err := g.queue.Send(effects.Broadcast(effects.Tick{}))
	if errors.Is(err, effects.ErrClosed) {
		return nil
	}
	return err
}

// telemetryLoop flushes a window every stats period, and once more on the
// way out so short runs still report.
func (g *Game) telemetryLoop(ctx context.Context) error {
	t := time.NewTicker(g.collector.Window())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			g.flushTelemetry(time.Now())
			return nil
		case now := <-t.C:
			g.flushTelemetry(now)
		}
	}
}
