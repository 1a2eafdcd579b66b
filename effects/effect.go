// Package effects defines the messages dots exchange and the queue that
// carries them to the propagation loop.
package effects

import (
	"fmt"

	"github.com/pthm-cable/dots/components"
	"github.com/pthm-cable/dots/genome"
)

// Effect is an immutable state change addressed to a cell.
// The set of variants is closed: Energy, Seed, Opacity and Tick.
type Effect interface {
	effect()
	String() string
}

// Energy transfers vitality between cells. Delta is withdrawn from the
// destination (a negative Delta feeds it). Mask, when set, scales the
// withdrawal by how digestible the destination's colour is. When Origin is
// set, the destination answers with an Energy carrying the negated amount it
// actually gave up, so the pair conserves energy up to clamping.
type Energy struct {
	Delta  float32
	Mask   *[3]float32
	Origin *components.Coord
}

// Seed carries genetic material to a cell.
type Seed struct {
	Genome genome.Genome
}

// Opacity adds Delta to the destination's vitality.
type Opacity struct {
	Delta float32
}

// Tick asks the destination to run one scheduling step.
type Tick struct{}

func (Energy) effect()  {}
func (Seed) effect()    {}
func (Opacity) effect() {}
func (Tick) effect()    {}

func (e Energy) String() string {
	s := fmt.Sprintf("energy(%.4f", e.Delta)
	if e.Mask != nil {
		s += fmt.Sprintf(" mask=%.2f,%.2f,%.2f", e.Mask[0], e.Mask[1], e.Mask[2])
	}
	if e.Origin != nil {
		s += " origin=" + e.Origin.String()
	}
	return s + ")"
}

func (e Seed) String() string    { return "seed(" + e.Genome.String() + ")" }
func (e Opacity) String() string { return fmt.Sprintf("opacity(%.4f)", e.Delta) }
func (Tick) String() string      { return "tick" }

// Envelope addresses an effect. A broadcast envelope ignores To and is
// delivered to every dot on the grid.
type Envelope struct {
	To        components.Coord
	Broadcast bool
	Effect    Effect
}

// To addresses e to pos.
func To(pos components.Coord, e Effect) Envelope {
	return Envelope{To: pos, Effect: e}
}

// Broadcast addresses e to every dot.
func Broadcast(e Effect) Envelope {
	return Envelope{Broadcast: true, Effect: e}
}

// Reply builds the reciprocal energy for an effect that named an origin.
// The second result is false when there is nobody to answer.
func Reply(e Energy, applied float32) (Envelope, bool) {
	if e.Origin == nil {
		return Envelope{}, false
	}
	return To(*e.Origin, Energy{Delta: -applied}), true
}
