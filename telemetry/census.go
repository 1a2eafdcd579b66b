package telemetry

import (
	"github.com/pthm-cable/dots/dots"
	"github.com/pthm-cable/dots/genome"
)

// Census is a point-in-time survey of the grid. Latent counts dormant
// cells still holding the remains of a dead organism.
type Census struct {
	Alive, Dormant, Latent int
	QueueDepth             int

	Genomes []genome.Genome // Living genomes, for diversity
	AliveVitality   []float64
	DormantVitality []float64
	ReactionMs      []float64
	Colors          [3][]float64
}

// Add counts one dot state.
func (c *Census) Add(s dots.State) {
	switch s := s.(type) {
	case dots.Alive:
		c.Alive++
		c.Genomes = append(c.Genomes, s.Genome)
		c.AliveVitality = append(c.AliveVitality, float64(s.Vitality))
		c.ReactionMs = append(c.ReactionMs, float64(s.Reaction.Microseconds())/1000)
		for i, v := range s.Phenotype.Color {
			c.Colors[i] = append(c.Colors[i], float64(v))
		}
	case dots.Dormant:
		c.Dormant++
		c.DormantVitality = append(c.DormantVitality, float64(s.Vitality))
		if s.Latent != nil {
			c.Latent++
		}
	}
}
