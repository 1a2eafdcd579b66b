package dots

import (
	"time"

	"github.com/pthm-cable/dots/genome"
)

// State is the lifecycle state of a dot: either Dormant or Alive.
// Only Alive carries a genome, so a dormant dot has no colour or
// reaction time to read.
type State interface {
	isState()
}

// Dormant is an empty cell. Its vitality regrows toward the cell's ceiling.
// Latent is the genome left behind by the last organism to die here. It
// never sprouts by itself; the next seed to land recombines with it.
type Dormant struct {
	Vitality float32
	Latent   *genome.Genome
}

// Alive is a cell occupied by an organism.
type Alive struct {
	Genome    genome.Genome
	Phenotype genome.Phenotype
	Vitality  float32
	Age       float32
	Reaction  time.Duration
}

func (Dormant) isState() {}
func (Alive) isState()   {}

// VitalityOf returns the vitality of either state.
func VitalityOf(s State) float32 {
	switch s := s.(type) {
	case Dormant:
		return s.Vitality
	case Alive:
		return s.Vitality
	}
	return 0
}

// IsAlive reports whether s is Alive.
func IsAlive(s State) bool {
	_, ok := s.(Alive)
	return ok
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
