package game

import (
	"time"

	"github.com/pthm-cable/dots/dots"
	"github.com/pthm-cable/dots/telemetry"
)

// census surveys every dot. Poisoned dots are skipped.
func (g *Game) census() telemetry.Census {
	var c telemetry.Census
	g.grid.Each(func(d *dots.Dot) {
		s, err := d.State()
		if err != nil {
			return
		}
		c.Add(s)
	})
	c.QueueDepth = g.queue.Len()
	return c
}

// flushTelemetry closes the current stats window, writes it out and
// reacts to bookmarks.
func (g *Game) flushTelemetry(now time.Time) {
	stats := g.collector.Flush(now, g.census())

	g.statsMu.Lock()
	g.lastStats = stats
	g.statsMu.Unlock()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}
	if g.logStats {
		stats.LogStats()
	}
	if err := g.outputManager.WriteTelemetry(stats); err != nil {
		g.log.Error("failed to write telemetry", "error", err)
	}

	for _, bm := range g.bookmarks.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			g.log.Error("failed to write bookmark", "error", err)
		}
		if bm.Type == telemetry.BookmarkExtinction && g.cfg.Seeding.ReseedOnExtinction {
			n := g.Reseed(g.cfg.Seeding.ReseedCount)
			g.log.Info("reseeded after extinction",
				"window", stats.Window,
				"seeds", n,
				"hall_of_fame", g.hof.Size(),
			)
		}
	}
}
