package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pthm-cable/dots/config"
	"github.com/pthm-cable/dots/game"
)

type options struct {
	configPath  string
	headless    bool
	seed        int64
	duration    time.Duration
	outputDir   string
	logLevel    string
	logFormat   string
	metricsAddr string
	logStats    bool
	hallOfFame  string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "dots",
		Short: "Concurrent cellular life on a grid",
		Long: `dots runs a grid of cell-bound agents. Each living dot acts on its own
schedule, digesting its neighbours and spreading seeds, while a single loop
routes the effects they send to one another.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Path to config.yaml (empty = use defaults)")
	f.BoolVar(&opts.headless, "headless", false, "Run without graphics")
	f.Int64Var(&opts.seed, "seed", 0, "RNG seed (0 = seeding.seed, then time-based)")
	f.DurationVar(&opts.duration, "duration", 0, "Stop after this long (0 = until interrupted)")
	f.StringVar(&opts.outputDir, "output-dir", "", "Output directory for CSV logs and config snapshot")
	f.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	f.StringVar(&opts.logFormat, "log-format", "json", "Log format: json or text")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus /metrics on this address (overrides metrics.addr)")
	f.BoolVar(&opts.logStats, "log-stats", false, "Output stats via slog")
	f.StringVar(&opts.hallOfFame, "hall-of-fame", "", "Seed reseeding from a hall_of_fame.json written by an earlier run")
	return cmd
}

func run(ctx context.Context, opts options) error {
	logger, err := game.NewLogger(opts.logLevel, opts.logFormat, os.Stdout)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if err := config.Init(opts.configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Cfg()

	metricsAddr := cfg.Metrics.Addr
	if opts.metricsAddr != "" {
		metricsAddr = opts.metricsAddr
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.duration)
		defer cancel()
	}

	g, err := game.New(cfg, game.Options{
		Seed:           opts.seed,
		LogStats:       opts.logStats,
		OutputDir:      opts.outputDir,
		MetricsAddr:    metricsAddr,
		HallOfFamePath: opts.hallOfFame,
		Headless:       opts.headless,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	slog.Info("starting simulation",
		"run_id", g.RunID(),
		"seed", g.Seed(),
		"headless", opts.headless,
		"grid", fmt.Sprintf("%dx%d", cfg.Grid.Width, cfg.Grid.Height),
		"mode", cfg.Schedule.Mode,
		"duration", opts.duration,
	)

	if opts.headless {
		err = g.Run(ctx)
	} else {
		err = runWindow(ctx, g)
	}
	if uerr := g.Unload(); uerr != nil && err == nil {
		err = uerr
	}
	slog.Info("simulation stopped", "run_id", g.RunID(), "last_window", g.LastStats())
	return err
}
