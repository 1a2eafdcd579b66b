package dots

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/pthm-cable/dots/components"
	"github.com/pthm-cable/dots/effects"
	"github.com/pthm-cable/dots/genome"
)

// ErrPoisoned is returned by every operation on a dot whose state was left
// inconsistent by a panic.
var ErrPoisoned = errors.New("dots: dot poisoned")

var white = [3]float32{1, 1, 1}

// Sprite is the render description of one dot.
type Sprite struct {
	X, Y      float32 // Centre in screen units
	Radius    float32
	Color     [3]float32
	Intensity float32
	Alive     bool
}

// Dot is a single cell-bound agent. Its position never changes. All state is
// guarded by mu; the grid lock must not be held while mu is.
type Dot struct {
	pos     components.Coord
	ceiling float32
	env     *env

	mu       sync.Mutex
	state    State
	rng      *rand.Rand
	poisoned error
	started  bool
}

// Pos returns the dot's position.
func (d *Dot) Pos() components.Coord { return d.pos }

// State returns a copy of the current lifecycle state.
func (d *Dot) State() (State, error) {
	var s State
	err := d.locked(func() {
		s = d.state
		if dm, ok := s.(Dormant); ok && dm.Latent != nil {
			latent := *dm.Latent
			dm.Latent = &latent
			s = dm
		}
	})
	return s, err
}

// Describe returns the sprite for this dot on a grid drawn at scale screen
// units per cell. Dormant cells are white; living cells use their genome colour.
func (d *Dot) Describe(scale float32) (Sprite, error) {
	sp := Sprite{
		X:      float32(d.pos.Cell().X)*scale + scale/2,
		Y:      float32(d.pos.Cell().Y)*scale + scale/2,
		Radius: scale / 2,
	}
	err := d.locked(func() {
		switch s := d.state.(type) {
		case Dormant:
			sp.Color = white
			sp.Intensity = s.Vitality
		case Alive:
			sp.Color = s.Phenotype.Color
			sp.Intensity = s.Vitality
			sp.Alive = true
		}
	})
	return sp, err
}

// Apply delivers one effect to the dot. Any effects the dot emits in
// response (energy replies, or the outcome of a Tick) are sent on the
// dot's output before Apply returns.
func (d *Dot) Apply(e effects.Effect) error {
	out, err := d.apply(e)
	if err != nil {
		return err
	}
	return d.send(out)
}

// Step runs one scheduling firing: ageing and an action while alive,
// regrowth while dormant.
func (d *Dot) Step() error {
	near := d.sense()
	var out []effects.Envelope
	err := d.locked(func() {
		out = d.step(near)
	})
	if err != nil {
		return err
	}
	return d.send(out)
}

func (d *Dot) apply(e effects.Effect) ([]effects.Envelope, error) {
	var near [components.NumDirections]Neighbour
	if _, ok := e.(effects.Tick); ok {
		near = d.sense()
	}
	var out []effects.Envelope
	err := d.locked(func() {
		switch e := e.(type) {
		case effects.Energy:
			out = d.applyEnergy(e)
		case effects.Seed:
			d.applySeed(e.Genome)
		case effects.Opacity:
			d.setVitality(clamp01(VitalityOf(d.state) + e.Delta))
		case effects.Tick:
			out = d.step(near)
		}
	})
	return out, err
}

// locked runs fn under the dot lock. A panic inside fn poisons the dot.
func (d *Dot) locked(fn func()) (err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.poisoned != nil {
		return d.poisoned
	}
	defer func() {
		if r := recover(); r != nil {
			d.poisoned = fmt.Errorf("%w at %s: %v", ErrPoisoned, d.pos, r)
			err = d.poisoned
		}
	}()
	fn()
	return nil
}

// sense reads the cells around a living dot. It runs before the dot lock is
// taken so that no dot lock is ever held while another one is acquired.
// The result may be slightly stale by the time the dot acts on it.
func (d *Dot) sense() [components.NumDirections]Neighbour {
	var near [components.NumDirections]Neighbour
	sensor := d.env.sensor
	if sensor == nil {
		return near
	}
	var alive bool
	if err := d.locked(func() { alive = IsAlive(d.state) }); err != nil || !alive {
		return near
	}
	for _, dir := range components.Compass(d.env.params.Compass8) {
		near[dir] = sensor.Sense(d.pos.Offset(dir, 1))
	}
	return near
}

func (d *Dot) send(out []effects.Envelope) error {
	for _, env := range out {
		if err := d.env.out.Send(env); err != nil {
			return fmt.Errorf("dot %s send %s: %w", d.pos, env.Effect, err)
		}
	}
	return nil
}

// applyEnergy withdraws Delta, scaled by how well the mask digests this
// cell's colour, and replies to the origin with what was actually taken.
func (d *Dot) applyEnergy(e effects.Energy) []effects.Envelope {
	color := white
	if s, ok := d.state.(Alive); ok {
		color = s.Phenotype.Color
	}
	digest := float32(1)
	if e.Mask != nil {
		digest = clamp01(genome.Digestibility(*e.Mask, color))
	}

	before := VitalityOf(d.state)
	after := clamp01(before - e.Delta*digest)
	d.setVitality(after)

	if reply, ok := effects.Reply(e, before-after); ok {
		return []effects.Envelope{reply}
	}
	return nil
}

// applySeed colonizes a dormant cell. An empty cell adopts g outright; a
// cell holding remains sprouts a fresh recombination of the two.
func (d *Dot) applySeed(g genome.Genome) {
	s, ok := d.state.(Dormant)
	if !ok {
		d.env.observer.RecordSeedRejected()
		return
	}
	if s.Latent != nil {
		g = genome.Recombine(*s.Latent, g)
		d.env.observer.RecordRecombination()
	}
	d.germinate(g, s.Vitality)
}

func (d *Dot) germinate(g genome.Genome, vitality float32) {
	p := &d.env.params
	ph := genome.Derive(g, p.Genome)
	reaction := max(ph.Reaction, MinReaction)
	if p.ReactionJitter > 0 {
		reaction += time.Duration(d.rng.Int63n(int64(p.ReactionJitter)))
	}
	d.state = Alive{
		Genome:    g,
		Phenotype: ph,
		Vitality:  max(vitality, p.SeedVitality),
		Reaction:  reaction,
	}
	d.env.observer.RecordGermination()
}

// setVitality stores v and handles the death transition in the same
// critical section as the change that caused it.
func (d *Dot) setVitality(v float32) {
	switch s := d.state.(type) {
	case Dormant:
		s.Vitality = v
		d.state = s
	case Alive:
		if v <= 0 {
			d.die(s)
			return
		}
		s.Vitality = v
		d.state = s
	}
}

func (d *Dot) die(s Alive) {
	var remains Dormant
	if d.env.params.KeepRemains {
		g := s.Genome
		remains.Latent = &g
	}
	d.state = remains
	d.env.observer.RecordDeath(s.Genome, s.Age)
}

func (d *Dot) step(near [components.NumDirections]Neighbour) []effects.Envelope {
	p := &d.env.params
	switch s := d.state.(type) {
	case Dormant:
		if s.Vitality < d.ceiling {
			s.Vitality = min(d.ceiling, s.Vitality+p.RegrowthRate)
		}
		d.state = s
		return nil

	case Alive:
		s.Age += p.AgeIncrement
		s.Vitality = clamp01(s.Vitality - s.Age*p.AgeDecay)
		if s.Vitality == 0 {
			d.die(s)
			return nil
		}
		d.state = s

		dec := d.env.brain.Decide(Inputs{
			Vitality:   s.Vitality,
			Age:        s.Age,
			Fertility:  s.Phenotype.Fertility,
			Neighbours: near,
		}, d.rng)
		target := d.pos.Offset(dec.Direction, 1)
		switch dec.Action {
		case components.ActionDigest:
			mask := s.Phenotype.Digestion
			origin := d.pos
			amount := d.rng.Float32() * p.DigestMax
			return []effects.Envelope{effects.To(target, effects.Energy{Delta: amount, Mask: &mask, Origin: &origin})}
		case components.ActionSeed:
			d.setVitality(clamp01(s.Vitality - p.SeedCost))
			return []effects.Envelope{effects.To(target, effects.Seed{Genome: s.Genome})}
		}
	}
	return nil
}

// interval is the delay until the next firing.
func (d *Dot) interval() time.Duration {
	if s, ok := d.state.(Alive); ok {
		return s.Reaction
	}
	return d.env.params.DormantInterval
}

func (d *Dot) logger() *slog.Logger {
	return d.env.log.With("x", d.pos.X, "y", d.pos.Y)
}
