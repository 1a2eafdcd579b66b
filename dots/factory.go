package dots

import (
	"log/slog"
	"math/rand"
	"sync"

	"github.com/pthm-cable/dots/components"
	"github.com/pthm-cable/dots/effects"
	"github.com/pthm-cable/dots/genome"
)

// env is shared by every dot made by one Factory.
type env struct {
	params   Params
	out      effects.Sender
	brain    Brain
	observer Observer
	sensor   Sensor
	log      *slog.Logger
	tickers  sync.WaitGroup
}

// Option configures a Factory.
type Option func(*env)

// WithBrain sets the decision strategy used by living dots.
func WithBrain(b Brain) Option { return func(e *env) { e.brain = b } }

// WithObserver sets the receiver of lifecycle events.
func WithObserver(o Observer) Option { return func(e *env) { e.observer = o } }

// WithLogger sets the logger used for ticker failures.
func WithLogger(l *slog.Logger) Option { return func(e *env) { e.log = l } }

// Factory creates dots sharing one set of parameters and one output.
type Factory struct {
	env *env

	mu   sync.Mutex
	seed *rand.Rand
}

// NewFactory returns a factory whose dots send effects to out. Per-dot
// random sources are derived from seed.
func NewFactory(p Params, out effects.Sender, seed int64, opts ...Option) *Factory {
	p = p.normalize()
	e := &env{
		params:   p,
		out:      out,
		brain:    RandomBrain{Compass8: p.Compass8},
		observer: nopObserver{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return &Factory{env: e, seed: rand.New(rand.NewSource(seed))}
}

// SetSensor gives every dot made by f a view of its neighbours. It must be
// called before any of those dots is started or stepped.
func (f *Factory) SetSensor(s Sensor) {
	f.env.sensor = s
}

// Params returns the normalized parameters.
func (f *Factory) Params() Params { return f.env.params }

// NewDormant creates an empty dot with the given vitality and regrowth ceiling.
func (f *Factory) NewDormant(pos components.Coord, vitality, ceiling float32) *Dot {
	d := f.newDot(pos, ceiling)
	d.state = Dormant{Vitality: clamp01(vitality)}
	return d
}

// NewAlive creates a living dot from g. Vitality is raised to the seed
// minimum like any other germination.
func (f *Factory) NewAlive(pos components.Coord, g genome.Genome, vitality, ceiling float32) *Dot {
	d := f.newDot(pos, ceiling)
	d.germinate(g, clamp01(vitality))
	return d
}

func (f *Factory) newDot(pos components.Coord, ceiling float32) *Dot {
	f.mu.Lock()
	src := rand.NewSource(f.seed.Int63())
	f.mu.Unlock()
	return &Dot{
		pos:     pos,
		ceiling: clamp01(ceiling),
		env:     f.env,
		rng:     rand.New(src),
		state:   Dormant{},
	}
}

// Wait blocks until every ticker started by this factory's dots has exited.
func (f *Factory) Wait() {
	f.env.tickers.Wait()
}
