package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for one frame of the front end. The dots and the
// propagator run on their own goroutines and are not timed here.
const (
	PhaseTickFeed  = "tick_feed"
	PhaseSnapshot  = "snapshot"
	PhaseDraw      = "draw"
	PhaseTelemetry = "telemetry"
)

var phases = []string{PhaseTickFeed, PhaseSnapshot, PhaseDraw, PhaseTelemetry}

// FrameSample holds timing data for a single frame.
type FrameSample struct {
	Work   time.Duration
	Phases map[string]time.Duration
}

// PerfCollector tracks frame timing over a rolling window. It is owned by
// the render loop and is not safe for concurrent use.
type PerfCollector struct {
	windowSize  int
	samples     []FrameSample
	writeIndex  int
	sampleCount int

	currentPhases map[string]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string

	// Wall time between presented frames
	lastPresent time.Time
	interval    time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]FrameSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase ends the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndFrame finishes the frame and records the sample.
func (p *PerfCollector) EndFrame() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = FrameSample{
		Work:   now.Sub(p.frameStart),
		Phases: p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordPresent marks a frame reaching the screen.
func (p *PerfCollector) RecordPresent() {
	now := time.Now()
	if !p.lastPresent.IsZero() {
		p.interval = now.Sub(p.lastPresent)
	}
	p.lastPresent = now
}

// PerfStats holds aggregated frame timing.
type PerfStats struct {
	AvgWork time.Duration
	MinWork time.Duration
	MaxWork time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64 // Share of average frame work

	Interval time.Duration // Time between the last two presented frames
	FPS      float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
		Interval: p.interval,
	}
	if p.interval > 0 {
		s.FPS = float64(time.Second) / float64(p.interval)
	}
	if p.sampleCount == 0 {
		return s
	}

	var total time.Duration
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		sample := p.samples[i]
		total += sample.Work
		if i == 0 || sample.Work < s.MinWork {
			s.MinWork = sample.Work
		}
		if sample.Work > s.MaxWork {
			s.MaxWork = sample.Work
		}
		for phase, d := range sample.Phases {
			phaseSum[phase] += d
		}
	}

	s.AvgWork = total / time.Duration(p.sampleCount)
	for phase, sum := range phaseSum {
		s.PhaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if s.AvgWork > 0 {
			s.PhasePct[phase] = float64(s.PhaseAvg[phase]) / float64(s.AvgWork) * 100
		}
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_work_us", s.AvgWork.Microseconds()),
		slog.Int64("max_work_us", s.MaxWork.Microseconds()),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(phase+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Window       int     `csv:"window"`
	AvgWorkUS    int64   `csv:"avg_work_us"`
	MinWorkUS    int64   `csv:"min_work_us"`
	MaxWorkUS    int64   `csv:"max_work_us"`
	FPS          float64 `csv:"fps"`
	TickFeedPct  float64 `csv:"tick_feed_pct"`
	SnapshotPct  float64 `csv:"snapshot_pct"`
	DrawPct      float64 `csv:"draw_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(window int) PerfStatsCSV {
	return PerfStatsCSV{
		Window:       window,
		AvgWorkUS:    s.AvgWork.Microseconds(),
		MinWorkUS:    s.MinWork.Microseconds(),
		MaxWorkUS:    s.MaxWork.Microseconds(),
		FPS:          s.FPS,
		TickFeedPct:  s.PhasePct[PhaseTickFeed],
		SnapshotPct:  s.PhasePct[PhaseSnapshot],
		DrawPct:      s.PhasePct[PhaseDraw],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
