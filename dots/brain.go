package dots

import (
	"math/rand"

	"github.com/pthm-cable/dots/components"
)

// Neighbour is what a dot senses about one adjacent cell.
type Neighbour struct {
	Present  bool // A dot stands there; false for empty and off-grid cells
	Alive    bool
	Vitality float32
}

// Sensor answers a dot's queries about the cells around it. It is called
// without the asking dot's lock held.
type Sensor interface {
	Sense(pos components.Coord) Neighbour
}

// Inputs is what a dot knows when deciding.
type Inputs struct {
	Vitality  float32
	Age       float32
	Fertility float32 // Genome-derived drive to reproduce, in [0,1]

	// Neighbours is indexed by Direction. Directions outside the dot's
	// compass, and every direction when no sensor is set, are zero.
	Neighbours [components.NumDirections]Neighbour
}

// Decision is an action and where to aim it. Direction is ignored for Idle.
type Decision struct {
	Action    components.Action
	Direction components.Direction
}

// Brain chooses what a living dot does on each firing.
// Implementations must be safe for concurrent use; rng belongs to the caller.
type Brain interface {
	Decide(in Inputs, rng *rand.Rand) Decision
}

// RandomBrain draws the action and direction uniformly.
type RandomBrain struct {
	Compass8 bool
}

// Decide implements Brain.
func (b RandomBrain) Decide(_ Inputs, rng *rand.Rand) Decision {
	return Decision{
		Action:    components.RandomAction(rng),
		Direction: components.RandomDirection(rng, b.Compass8),
	}
}

// ForagingBrain acts on what the dot senses. It seeds with probability
// Fertility*Vitality into the richest cell that holds no organism, and
// otherwise digests its richest neighbour with a probability that grows
// as its own vitality falls.
type ForagingBrain struct {
	Compass8 bool
}

// Decide implements Brain.
func (b ForagingBrain) Decide(in Inputs, rng *rand.Rand) Decision {
	dirs := components.Compass(b.Compass8)
	start := rng.Intn(len(dirs))

	prey, nest := -1, -1
	var preyScore, nestScore float32
	for i := range dirs {
		dir := dirs[(start+i)%len(dirs)]
		n := in.Neighbours[dir]

		if n.Present && (prey < 0 || n.Vitality > preyScore) {
			prey, preyScore = int(dir), n.Vitality
		}
		if n.Alive {
			continue
		}
		// Known dormant cells beat unsensed ones, which may lie off the grid.
		score := float32(0)
		if n.Present {
			score = 1 + n.Vitality
		}
		if nest < 0 || score > nestScore {
			nest, nestScore = int(dir), score
		}
	}

	seedP := in.Fertility * in.Vitality
	digestP := 1 - in.Vitality
	r := rng.Float32()
	switch {
	case nest >= 0 && r < seedP:
		return Decision{Action: components.ActionSeed, Direction: components.Direction(nest)}
	case prey >= 0 && r < seedP+digestP:
		return Decision{Action: components.ActionDigest, Direction: components.Direction(prey)}
	}
	return Decision{Action: components.ActionIdle}
}

// FixedBrain always returns the same decision.
type FixedBrain struct {
	Decision Decision
}

// Decide implements Brain.
func (b FixedBrain) Decide(Inputs, *rand.Rand) Decision {
	return b.Decision
}
