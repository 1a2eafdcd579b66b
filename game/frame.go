package game

import (
	"time"

	"github.com/pthm-cable/dots/dots"
)

// Status is the population summary shown by the front end.
type Status struct {
	Cells      int
	Alive      int
	Dormant    int
	Latent     int // Cells holding remains, from the last telemetry window
	QueueDepth int
	External   bool
}

// The methods below are for the render loop and must be called from one
// goroutine.

// BeginFrame starts timing a frame.
func (g *Game) BeginFrame() {
	g.perf.StartFrame()
}

// Phase starts timing one named part of the frame.
func (g *Game) Phase(name string) {
	g.perf.StartPhase(name)
}

// EndFrame closes the frame. Once per perf window it writes the averaged
// timings, and logs them when stats logging is on.
func (g *Game) EndFrame() {
	g.perf.EndFrame()
	g.perf.RecordPresent()
	g.frames++

	window := g.cfg.Telemetry.PerfCollectorWindow
	if window <= 0 || g.frames%window != 0 {
		return
	}
	stats := g.perf.Stats()
	if g.logStats {
		g.log.Info("perf", "stats", stats)
	}
	if err := g.outputManager.WritePerf(stats, g.perfIndex); err != nil {
		g.log.Error("failed to write perf", "error", err)
	}
	g.perfIndex++
}

// FeedTick broadcasts a Tick when the schedule is external and an update
// interval has passed since the last one. It reports whether it sent.
func (g *Game) FeedTick(now time.Time) bool {
	if !g.cfg.Derived.ExternalTicks {
		return false
	}
	if !g.lastTick.IsZero() && now.Sub(g.lastTick) < g.cfg.Derived.UpdateInterval {
		return false
	}
	g.lastTick = now
	if err := g.sendTick(); err != nil {
		g.log.Error("tick feed failed", "error", err)
		return false
	}
	return true
}

// Snapshot returns a sprite for every dot and the matching status.
func (g *Game) Snapshot() ([]dots.Sprite, Status) {
	sprites := g.grid.DescribeAll()
	st := Status{
		Cells:      len(sprites),
		Latent:     g.LastStats().Latent,
		QueueDepth: g.queue.Len(),
		External:   g.cfg.Derived.ExternalTicks,
	}
	for _, sp := range sprites {
		if sp.Alive {
			st.Alive++
		}
	}
	st.Dormant = st.Cells - st.Alive
	return sprites, st
}
