package dots

import (
	"time"

	"github.com/pthm-cable/dots/genome"
)

// Params holds the tunable rates of the dot lifecycle. None of the exact
// values are load-bearing; they only shape the dynamics.
type Params struct {
	Genome genome.Params

	DormantInterval time.Duration // Ticker period while dormant
	ReactionJitter  time.Duration // Random extra reaction time given to each offspring

	AgeIncrement float32 // Age added per living tick
	AgeDecay     float32 // Vitality lost per unit of accumulated age per tick
	RegrowthRate float32 // Vitality regained per dormant tick, up to the cell ceiling

	SeedVitality float32 // Minimum vitality of a freshly germinated organism
	SeedCost     float32 // Vitality a parent spends per seed sent
	DigestMax    float32 // Upper bound of one digest withdrawal

	KeepRemains bool // A dead organism's genome stays in its cell for the next seed to recombine with
	Compass8    bool // Act in eight directions instead of four
}

// MinReaction is the shortest interval at which a living dot fires.
const MinReaction = 10 * time.Millisecond

// DefaultParams returns the lifecycle defaults.
func DefaultParams() Params {
	return Params{
		Genome:          genome.DefaultParams(),
		DormantInterval: time.Second,
		ReactionJitter:  255 * time.Millisecond,
		AgeIncrement:    0.005,
		AgeDecay:        1,
		RegrowthRate:    0.1,
		SeedVitality:    0.5,
		SeedCost:        0.02,
		DigestMax:       0.2,
		KeepRemains:     true,
		Compass8:        true,
	}
}

// normalize fills in values that would stall or break the lifecycle.
func (p Params) normalize() Params {
	if p.DormantInterval <= 0 {
		p.DormantInterval = time.Second
	}
	if p.Genome.ReactionBase <= 0 && p.Genome.ReactionStep <= 0 {
		p.Genome = genome.DefaultParams()
	}
	// A zero timing gene must still leave the ticker a real period.
	if p.Genome.ReactionBase < MinReaction {
		p.Genome.ReactionBase = MinReaction
	}
	if p.Genome.ReactionStep < 0 {
		p.Genome.ReactionStep = 0
	}
	if p.ReactionJitter < 0 {
		p.ReactionJitter = 0
	}
	// An organism must never sprout with zero vitality.
	if p.SeedVitality <= 0 {
		p.SeedVitality = 0.01
	}
	p.SeedVitality = clamp01(p.SeedVitality)
	return p
}
