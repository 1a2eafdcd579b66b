// Package game wires the grid, the effect queue and telemetry into a
// runnable simulation.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/pthm-cable/dots/config"
	"github.com/pthm-cable/dots/dots"
	"github.com/pthm-cable/dots/effects"
	"github.com/pthm-cable/dots/scene"
	"github.com/pthm-cable/dots/telemetry"
)

// Options configures a Game beyond what the YAML config holds.
type Options struct {
	Seed           int64  // 0 falls back to seeding.seed, then to the clock
	LogStats       bool   // Log every telemetry window and bookmark
	OutputDir      string // Empty disables CSV output
	MetricsAddr    string // Empty disables /metrics
	HallOfFamePath string // Optional hall_of_fame.json from an earlier run
	Headless       bool   // Run drives external ticks itself instead of the frame loop
	Logger         *slog.Logger

	// StatsCallback, when set, receives every flushed window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg  *config.Config
	seed int64
	log  *slog.Logger

	queue   *effects.Queue
	factory *dots.Factory
	grid    *scene.Grid
	prop    *scene.Propagator

	rngMu sync.Mutex
	rng   *rand.Rand

	// Telemetry
	collector     *telemetry.Collector
	hof           *telemetry.HallOfFame
	bookmarks     *telemetry.BookmarkDetector
	outputManager *telemetry.OutputManager
	logStats      bool
	statsCallback func(telemetry.WindowStats)
	metricsAddr   string

	statsMu   sync.Mutex
	lastStats telemetry.WindowStats

	// Frame loop state, owned by the render goroutine
	headless  bool
	perf      *telemetry.PerfCollector
	frames    int
	lastTick  time.Time
	perfIndex int
}

// New builds a game from cfg and seeds the initial population. The seeds
// wait in the effect queue until Run starts the propagator.
func New(cfg *config.Config, opts Options) (*Game, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Seeding.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	runID := telemetry.NewRunID()
	collector := telemetry.NewCollector(runID, cfg.Telemetry.StatsWindow, time.Now())

	hofRng := rand.New(rand.NewSource(seed + 1))
	hof := telemetry.NewHallOfFame(cfg.Telemetry.HallOfFameSize, float32(cfg.Telemetry.HallOfFameMinAge), hofRng)
	if opts.HallOfFamePath != "" {
		loaded, err := telemetry.LoadHallOfFameFromFile(opts.HallOfFamePath, cfg.Telemetry.HallOfFameSize, float32(cfg.Telemetry.HallOfFameMinAge), hofRng)
		if err != nil {
			return nil, fmt.Errorf("loading hall of fame: %w", err)
		}
		hof = loaded
		log.Info("hall of fame loaded", "path", opts.HallOfFamePath, "entries", hof.Size())
	}
	collector.SetHallOfFame(hof)

	om, err := telemetry.NewOutputManager(opts.OutputDir, runID)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	queue := effects.NewQueue()
	factory := dots.NewFactory(cfg.DotParams(), queue, seed,
		dots.WithBrain(cfg.Brain()),
		dots.WithObserver(collector),
		dots.WithLogger(log.With("component", "dots")),
	)
	grid := scene.New(factory, scene.Config{
		Width:     cfg.Grid.Width,
		Height:    cfg.Grid.Height,
		Scale:     cfg.Derived.Scale32,
		Fertility: scene.NewFertility(cfg.Grid.Width, cfg.Grid.Height, cfg.FertilityParams(seed)),
		Recorder:  collector,
	})

	g := &Game{
		cfg:           cfg,
		seed:          seed,
		log:           log,
		queue:         queue,
		factory:       factory,
		grid:          grid,
		prop:          scene.NewPropagator(grid, queue, log.With("component", "propagator")),
		rng:           rand.New(rand.NewSource(seed)),
		collector:     collector,
		hof:           hof,
		bookmarks:     telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize),
		outputManager: om,
		logStats:      opts.LogStats,
		statsCallback: opts.StatsCallback,
		metricsAddr:   opts.MetricsAddr,
		headless:      opts.Headless,
		perf:          telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
	}

	seeds, err := g.populate()
	if err != nil {
		g.Unload()
		return nil, err
	}
	log.Info("population seeded",
		"run_id", runID,
		"seed", seed,
		"cells", grid.Len(),
		"seeds", seeds,
		"fertility_mean", grid.Fertility().Mean(),
		"output_dir", om.Dir(),
	)
	return g, nil
}

// Seed returns the seed the run was built from.
func (g *Game) Seed() int64 { return g.seed }

// RunID returns the identifier stamped on telemetry.
func (g *Game) RunID() string { return g.collector.RunID() }

// Grid returns the dot grid.
func (g *Game) Grid() *scene.Grid { return g.grid }

// Config returns the configuration the game was built from.
func (g *Game) Config() *config.Config { return g.cfg }

// LastStats returns the most recently flushed telemetry window.
func (g *Game) LastStats() telemetry.WindowStats {
	g.statsMu.Lock()
	defer g.statsMu.Unlock()
	return g.lastStats
}

// Unload stops accepting effects and writes the final outputs. Call it
// after Run has returned.
func (g *Game) Unload() error {
	g.queue.Close()
	if err := g.outputManager.WriteHallOfFame(g.hof); err != nil {
		g.log.Error("failed to write hall of fame", "error", err)
	}
	return g.outputManager.Close()
}
