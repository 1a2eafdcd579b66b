package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/dots/genome"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	RunID       string    `csv:"run_id"`
	Window      int       `csv:"window"`
	WindowStart time.Time `csv:"-"`
	ElapsedSec  float64   `csv:"elapsed_sec"`

	// Census at window end
	Cells      int `csv:"cells"`
	Alive      int `csv:"alive"`
	Dormant    int `csv:"dormant"`
	Latent     int `csv:"latent"`
	QueueDepth int `csv:"queue_depth"`

	// Events during window
	Created        int `csv:"created"`
	Germinations   int `csv:"germinations"`
	Deaths         int `csv:"deaths"`
	SeedsRejected  int `csv:"seeds_rejected"`
	Recombinations int `csv:"recombinations"`

	// Routing
	Delivered int `csv:"delivered"`
	Dropped   int `csv:"dropped"`
	Failed    int `csv:"failed"`
	Broadcast int `csv:"broadcast"`

	// Living vitality distribution
	VitalityMean float64 `csv:"vitality_mean"`
	VitalityStd  float64 `csv:"vitality_std"`
	VitalityP10  float64 `csv:"vitality_p10"`
	VitalityP50  float64 `csv:"vitality_p50"`
	VitalityP90  float64 `csv:"vitality_p90"`

	DormantVitalityMean float64 `csv:"dormant_vitality_mean"`
	MeanAgeAtDeath      float64 `csv:"mean_age_at_death"`
	HallOfFameTopAge    float64 `csv:"hall_of_fame_top_age"`
	ReactionMeanMs      float64 `csv:"reaction_mean_ms"`

	// Mean phenotype colour of the living
	ColorRed   float64 `csv:"color_r"`
	ColorGreen float64 `csv:"color_g"`
	ColorBlue  float64 `csv:"color_b"`

	// Mean pairwise Hamming distance between living genomes
	Diversity float64 `csv:"diversity"`
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// ComputeVitalityStats returns mean, population standard deviation and
// percentiles of values. An empty sample gives all zeros.
func ComputeVitalityStats(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	mean, std := meanStd(values)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean: mean,
		Std:  std,
		P10:  stat.Quantile(0.10, stat.LinInterp, sorted, nil),
		P50:  stat.Quantile(0.50, stat.LinInterp, sorted, nil),
		P90:  stat.Quantile(0.90, stat.LinInterp, sorted, nil),
	}
}

func meanStd(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.PopMeanStdDev(values, nil)
}

// diversitySample caps the genomes compared by meanHamming.
const diversitySample = 64

// meanHamming is the mean bit distance over all pairs among the first
// diversitySample genomes. Fewer than two genomes give 0.
func meanHamming(gs []genome.Genome) float64 {
	if len(gs) > diversitySample {
		gs = gs[:diversitySample]
	}
	if len(gs) < 2 {
		return 0
	}
	var sum, pairs int
	for i := range gs {
		for j := i + 1; j < len(gs); j++ {
			sum += genome.Hamming(gs[i], gs[j])
			pairs++
		}
	}
	return float64(sum) / float64(pairs)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.Int("window", s.Window),
		slog.Float64("elapsed_sec", s.ElapsedSec),
		slog.Int("cells", s.Cells),
		slog.Int("alive", s.Alive),
		slog.Int("dormant", s.Dormant),
		slog.Int("latent", s.Latent),
		slog.Int("queue_depth", s.QueueDepth),
		slog.Int("created", s.Created),
		slog.Int("germinations", s.Germinations),
		slog.Int("deaths", s.Deaths),
		slog.Int("seeds_rejected", s.SeedsRejected),
		slog.Int("recombinations", s.Recombinations),
		slog.Int("delivered", s.Delivered),
		slog.Int("dropped", s.Dropped),
		slog.Int("failed", s.Failed),
		slog.Int("broadcast", s.Broadcast),
		slog.Float64("vitality_mean", s.VitalityMean),
		slog.Float64("vitality_std", s.VitalityStd),
		slog.Float64("vitality_p50", s.VitalityP50),
		slog.Float64("mean_age_at_death", s.MeanAgeAtDeath),
		slog.Float64("hall_of_fame_top_age", s.HallOfFameTopAge),
		slog.Float64("reaction_mean_ms", s.ReactionMeanMs),
		slog.Float64("diversity", s.Diversity),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
