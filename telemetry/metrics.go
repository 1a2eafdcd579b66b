package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// effectsTotal counts routed envelopes by outcome.
	// Labels: outcome (delivered, dropped, failed)
	effectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dots",
		Subsystem: "effects",
		Name:      "routed_total",
		Help:      "Envelopes taken off the effect queue, by outcome",
	}, []string{"outcome"})

	// broadcastRecipients counts per-dot deliveries made by broadcasts.
	broadcastRecipients = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dots",
		Subsystem: "effects",
		Name:      "broadcast_recipients_total",
		Help:      "Dots reached by broadcast effects",
	})

	// dotsCreated counts cells that gained a dot.
	dotsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dots",
		Subsystem: "grid",
		Name:      "created_total",
		Help:      "Dots created on the grid",
	})

	// lifecycleTotal counts lifecycle transitions.
	// Labels: event (germinated, died, seed_rejected, recombined)
	lifecycleTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dots",
		Subsystem: "lifecycle",
		Name:      "events_total",
		Help:      "Dot lifecycle events",
	}, []string{"event"})

	// ageAtDeath records how long organisms lived, in age units.
	ageAtDeath = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dots",
		Subsystem: "lifecycle",
		Name:      "age_at_death",
		Help:      "Organism age when vitality ran out",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	})

	// population is the latest census.
	// Labels: state (alive, dormant)
	population = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "dots",
		Subsystem: "grid",
		Name:      "population",
		Help:      "Dots by lifecycle state at the last census",
	}, []string{"state"})

	// queueDepth is the effect queue backlog at the last census.
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dots",
		Subsystem: "effects",
		Name:      "queue_depth",
		Help:      "Envelopes waiting in the effect queue",
	})
)

// ServeMetrics exposes /metrics on addr until ctx ends.
func ServeMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
