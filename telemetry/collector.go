package telemetry

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/dots/genome"
)

// Collector accumulates events within wall-clock windows and produces
// WindowStats. Dots and the propagator report concurrently, so counters
// are atomic. It satisfies both dots.Observer and scene.Recorder.
type Collector struct {
	runID  string
	window time.Duration

	started     time.Time
	windowStart time.Time
	windowIndex int

	// Event counters for current window
	created        atomic.Int64
	germinations   atomic.Int64
	deaths         atomic.Int64
	seedsRejected  atomic.Int64
	recombinations atomic.Int64
	delivered      atomic.Int64
	dropped        atomic.Int64
	failed         atomic.Int64
	broadcast      atomic.Int64

	mu        sync.Mutex
	deathAges []float64
	hof       *HallOfFame
}

// NewCollector creates a collector whose first window opens at now.
func NewCollector(runID string, window time.Duration, now time.Time) *Collector {
	if window <= 0 {
		window = 5 * time.Second
	}
	return &Collector{
		runID:       runID,
		window:      window,
		started:     now,
		windowStart: now,
	}
}

// SetHallOfFame makes the collector offer every dead organism to h.
func (c *Collector) SetHallOfFame(h *HallOfFame) {
	c.mu.Lock()
	c.hof = h
	c.mu.Unlock()
}

// RunID returns the identifier stamped on every window.
func (c *Collector) RunID() string { return c.runID }

// RecordCreated records a new dot on the grid.
func (c *Collector) RecordCreated() {
	c.created.Add(1)
	dotsCreated.Inc()
}

// RecordDelivered records an effect applied to a dot.
func (c *Collector) RecordDelivered() {
	c.delivered.Add(1)
	effectsTotal.WithLabelValues("delivered").Inc()
}

// RecordDropped records an effect addressed off the grid.
func (c *Collector) RecordDropped() {
	c.dropped.Add(1)
	effectsTotal.WithLabelValues("dropped").Inc()
}

// RecordFailed records an effect that could not be applied.
func (c *Collector) RecordFailed() {
	c.failed.Add(1)
	effectsTotal.WithLabelValues("failed").Inc()
}

// RecordBroadcast records one broadcast reaching n dots.
func (c *Collector) RecordBroadcast(n int) {
	c.broadcast.Add(int64(n))
	broadcastRecipients.Add(float64(n))
}

// RecordGermination records a seed sprouting.
func (c *Collector) RecordGermination() {
	c.germinations.Add(1)
	lifecycleTotal.WithLabelValues("germinated").Inc()
}

// RecordDeath records an organism running out of vitality.
func (c *Collector) RecordDeath(g genome.Genome, age float32) {
	c.deaths.Add(1)
	lifecycleTotal.WithLabelValues("died").Inc()
	ageAtDeath.Observe(float64(age))

	c.mu.Lock()
	c.deathAges = append(c.deathAges, float64(age))
	hof := c.hof
	c.mu.Unlock()

	if hof != nil {
		hof.Consider(g, age)
	}
}

// RecordSeedRejected records a seed that landed on a living dot.
func (c *Collector) RecordSeedRejected() {
	c.seedsRejected.Add(1)
	lifecycleTotal.WithLabelValues("seed_rejected").Inc()
}

// RecordRecombination records a seed merged with the remains in its cell.
func (c *Collector) RecordRecombination() {
	c.recombinations.Add(1)
	lifecycleTotal.WithLabelValues("recombined").Inc()
}

// Flush produces a WindowStats from the window's events and the census
// taken at its end, then opens the next window.
func (c *Collector) Flush(now time.Time, census Census) WindowStats {
	c.mu.Lock()
	ages := c.deathAges
	c.deathAges = nil
	index := c.windowIndex
	c.windowIndex++
	windowStart := c.windowStart
	c.windowStart = now
	hof := c.hof
	c.mu.Unlock()

	var topAge float64
	if hof != nil {
		topAge = float64(hof.TopAge())
	}

	vit := ComputeVitalityStats(census.AliveVitality)
	dormantMean, _ := meanStd(census.DormantVitality)
	ageMean, _ := meanStd(ages)
	reactionMean, _ := meanStd(census.ReactionMs)
	red, _ := meanStd(census.Colors[0])
	green, _ := meanStd(census.Colors[1])
	blue, _ := meanStd(census.Colors[2])

	population.WithLabelValues("alive").Set(float64(census.Alive))
	population.WithLabelValues("dormant").Set(float64(census.Dormant))
	queueDepth.Set(float64(census.QueueDepth))

	return WindowStats{
		RunID:       c.runID,
		Window:      index,
		WindowStart: windowStart,
		ElapsedSec:  now.Sub(c.started).Seconds(),

		Cells:      census.Alive + census.Dormant,
		Alive:      census.Alive,
		Dormant:    census.Dormant,
		Latent:     census.Latent,
		QueueDepth: census.QueueDepth,

		Created:        int(c.created.Swap(0)),
		Germinations:   int(c.germinations.Swap(0)),
		Deaths:         int(c.deaths.Swap(0)),
		SeedsRejected:  int(c.seedsRejected.Swap(0)),
		Recombinations: int(c.recombinations.Swap(0)),
		Delivered:      int(c.delivered.Swap(0)),
		Dropped:        int(c.dropped.Swap(0)),
		Failed:         int(c.failed.Swap(0)),
		Broadcast:      int(c.broadcast.Swap(0)),

		VitalityMean: vit.Mean,
		VitalityStd:  vit.Std,
		VitalityP10:  vit.P10,
		VitalityP50:  vit.P50,
		VitalityP90:  vit.P90,

		DormantVitalityMean: dormantMean,
		MeanAgeAtDeath:      ageMean,
		HallOfFameTopAge:    topAge,
		ReactionMeanMs:      reactionMean,
		ColorRed:            red,
		ColorGreen:          green,
		ColorBlue:           blue,
		Diversity:           meanHamming(census.Genomes),
	}
}

// Window returns the window length.
func (c *Collector) Window() time.Duration {
	return c.window
}
