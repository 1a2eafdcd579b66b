package scene

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/pthm-cable/dots/dots"
	"github.com/pthm-cable/dots/effects"
)

// Propagator is the single consumer of the effect queue. It resolves each
// envelope to a dot, creating it if needed, and applies the effect.
// Delivery is at most once; a failed delivery is logged and dropped.
type Propagator struct {
	grid  *Grid
	queue *effects.Queue
	log   *slog.Logger

	// Drops are routine at the grid edge, so they are only sampled.
	dropLog *rate.Limiter
}

// NewPropagator creates a propagator that drains queue into grid.
func NewPropagator(grid *Grid, queue *effects.Queue, log *slog.Logger) *Propagator {
	if log == nil {
		log = slog.Default()
	}
	return &Propagator{
		grid:    grid,
		queue:   queue,
		log:     log,
		dropLog: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Run delivers envelopes until ctx ends or the queue is closed and drained.
func (p *Propagator) Run(ctx context.Context) error {
	for {
		env, err := p.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, effects.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		p.Deliver(env)
	}
}

// Drain delivers everything currently queued, including effects emitted
// while draining, and returns the number delivered. It is for callers that
// drive the grid without Run.
func (p *Propagator) Drain() int {
	n := 0
	for {
		env, ok := p.queue.TryReceive()
		if !ok {
			return n
		}
		p.Deliver(env)
		n++
	}
}

// Deliver routes one envelope.
func (p *Propagator) Deliver(env effects.Envelope) {
	if env.Broadcast {
		n := 0
		p.grid.Each(func(d *dots.Dot) {
			p.apply(d, env.Effect)
			n++
		})
		p.grid.rec.RecordBroadcast(n)
		return
	}

	d, _, err := p.grid.GetOrCreate(env.To)
	if err != nil {
		p.grid.rec.RecordDropped()
		if p.dropLog.Allow() {
			p.log.Debug("effect dropped", "to", env.To.String(), "effect", env.Effect.String(), "error", err)
		}
		return
	}
	p.apply(d, env.Effect)
}

func (p *Propagator) apply(d *dots.Dot, e effects.Effect) {
	if err := d.Apply(e); err != nil {
		p.grid.rec.RecordFailed()
		if errors.Is(err, effects.ErrClosed) {
			return
		}
		p.log.Error("delivery failed", "to", d.Pos().String(), "effect", e.String(), "error", err)
		return
	}
	p.grid.rec.RecordDelivered()
}
