package scene

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/dots/components"
	"github.com/pthm-cable/dots/dots"
	"github.com/pthm-cable/dots/effects"
	"github.com/pthm-cable/dots/genome"
)

type counts struct {
	created, delivered, dropped, failed, broadcast atomic.Int64
}

func (c *counts) RecordCreated()        { c.created.Add(1) }
func (c *counts) RecordDelivered()      { c.delivered.Add(1) }
func (c *counts) RecordDropped()        { c.dropped.Add(1) }
func (c *counts) RecordFailed()         { c.failed.Add(1) }
func (c *counts) RecordBroadcast(n int) { c.broadcast.Add(int64(n)) }

func testParams() dots.Params {
	p := dots.DefaultParams()
	p.ReactionJitter = 0
	p.AgeIncrement = 0
	p.AgeDecay = 0
	p.RegrowthRate = 0.1
	return p
}

func newGrid(w, h int, p dots.Params) (*Grid, *effects.Queue, *counts) {
	q := effects.NewQueue()
	rec := &counts{}
	f := dots.NewFactory(p, q, 1, dots.WithBrain(dots.FixedBrain{}))
	g := New(f, Config{Width: w, Height: h, Scale: 10, Recorder: rec})
	return g, q, rec
}

func vitalityAt(t *testing.T, g *Grid, pos components.Coord) float32 {
	t.Helper()
	d, ok := g.At(pos)
	require.True(t, ok, "no dot at %s", pos)
	s, err := d.State()
	require.NoError(t, err)
	return dots.VitalityOf(s)
}

func TestOutOfBoundsIsDropped(t *testing.T) {
	tests := []struct {
		name string
		pos  components.Coord
		ok   bool
	}{
		{"right edge", components.Coord{X: 10, Y: 0}, false},
		{"bottom edge", components.Coord{X: 0, Y: 10}, false},
		{"negative fraction", components.Coord{X: -0.5, Y: 0}, false},
		{"origin", components.Coord{X: 0, Y: 0}, true},
		{"last cell", components.Coord{X: 9.99, Y: 9.99}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, q, rec := newGrid(10, 10, testParams())
			p := NewPropagator(g, q, nil)

			p.Deliver(effects.To(tt.pos, effects.Opacity{Delta: 0.1}))

			if tt.ok {
				assert.Equal(t, 1, g.Len())
				assert.Equal(t, int64(0), rec.dropped.Load())
			} else {
				assert.Equal(t, 0, g.Len())
				assert.Equal(t, int64(1), rec.dropped.Load())
			}
		})
	}
}

func TestConcurrentCreateYieldsOneDot(t *testing.T) {
	g, _, rec := newGrid(10, 10, testParams())
	pos := components.Coord{X: 4, Y: 4}

	var (
		wg      sync.WaitGroup
		created atomic.Int64
		seen    sync.Map
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, fresh, err := g.GetOrCreate(pos)
			if err != nil {
				return
			}
			if fresh {
				created.Add(1)
			}
			seen.Store(d, true)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, g.Len())
	assert.Equal(t, int64(1), created.Load())
	assert.Equal(t, int64(1), rec.created.Load())
	n := 0
	seen.Range(func(any, any) bool { n++; return true })
	assert.Equal(t, 1, n)
}

func TestConcurrentDeliveriesToEmptyCell(t *testing.T) {
	g, q, _ := newGrid(10, 10, testParams())
	p := NewPropagator(g, q, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Send(effects.To(components.Coord{X: 2, Y: 7}, effects.Energy{Delta: 0}))
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return q.Len() == 0 }, 2*time.Second, time.Millisecond)
	q.Close()
	require.NoError(t, <-done)
	assert.Equal(t, 1, g.Len())
}

func TestEnergyRoundTripConserves(t *testing.T) {
	g, q, rec := newGrid(10, 10, testParams())
	p := NewPropagator(g, q, nil)

	src := components.Coord{X: 2, Y: 2}
	dst := components.Coord{X: 3, Y: 2}
	_, err := g.Insert(src, nil, 0.5)
	require.NoError(t, err)
	_, err = g.Insert(dst, nil, 0.5)
	require.NoError(t, err)

	p.Deliver(effects.To(dst, effects.Energy{Delta: -0.1, Origin: &src}))
	assert.InDelta(t, 0.6, vitalityAt(t, g, dst), 1e-6)

	env, ok := q.TryReceive()
	require.True(t, ok)
	assert.Equal(t, src, env.To)
	assert.InDelta(t, 0.1, env.Effect.(effects.Energy).Delta, 1e-6)

	p.Deliver(env)
	assert.InDelta(t, 0.4, vitalityAt(t, g, src), 1e-6)
	assert.InDelta(t, 1.0, vitalityAt(t, g, src)+vitalityAt(t, g, dst), 1e-6)
	assert.Equal(t, int64(2), rec.delivered.Load())
	assert.Equal(t, 0, q.Len())
}

func TestBroadcastTickReachesEveryDot(t *testing.T) {
	g, q, rec := newGrid(10, 10, testParams())
	p := NewPropagator(g, q, nil)
	cells := []components.Coord{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 9, Y: 1}}
	for _, c := range cells {
		_, err := g.Insert(c, nil, 0)
		require.NoError(t, err)
	}

	p.Deliver(effects.Broadcast(effects.Tick{}))

	assert.Equal(t, int64(3), rec.broadcast.Load())
	for _, c := range cells {
		assert.InDelta(t, 0.1, vitalityAt(t, g, c), 1e-6)
	}
}

func TestSeedThroughQueueGerminates(t *testing.T) {
	g, q, _ := newGrid(10, 10, testParams())
	p := NewPropagator(g, q, nil)
	gen := genome.FromWords(0xabcdef, 0x42)

	require.NoError(t, q.Send(effects.To(components.Coord{X: 6.5, Y: 3.2}, effects.Seed{Genome: gen})))
	assert.Equal(t, 1, p.Drain())

	d, ok := g.At(components.Coord{X: 6, Y: 3})
	require.True(t, ok)
	s, err := d.State()
	require.NoError(t, err)
	require.True(t, dots.IsAlive(s))
	assert.Equal(t, gen, s.(dots.Alive).Genome)
	assert.Equal(t, components.Coord{X: 6, Y: 3}, d.Pos())
}

func TestInsertRejectsOccupiedCell(t *testing.T) {
	g, _, _ := newGrid(4, 4, testParams())
	_, err := g.Insert(components.Coord{X: 1, Y: 1}, nil, 0.5)
	require.NoError(t, err)

	_, err = g.Insert(components.Coord{X: 1.9, Y: 1.1}, nil, 0.5)
	assert.ErrorIs(t, err, ErrOccupied)
	_, err = g.Insert(components.Coord{X: 4, Y: 0}, nil, 0.5)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

// births counts germinations reported by dots.
type births struct{ n atomic.Int64 }

func (b *births) RecordGermination()                 { b.n.Add(1) }
func (b *births) RecordDeath(genome.Genome, float32) {}
func (b *births) RecordSeedRejected()                {}
func (b *births) RecordRecombination()               {}

func TestInsertOccupiedRecordsNoBirth(t *testing.T) {
	obs := &births{}
	f := dots.NewFactory(testParams(), effects.NewQueue(), 1, dots.WithObserver(obs))
	g := New(f, Config{Width: 4, Height: 4})
	gen := genome.FromWords(1, 2)

	_, err := g.Insert(components.Coord{X: 1, Y: 1}, &gen, 0.5)
	require.NoError(t, err)
	_, err = g.Insert(components.Coord{X: 1, Y: 1}, &gen, 0.5)
	require.ErrorIs(t, err, ErrOccupied)
	assert.Equal(t, int64(1), obs.n.Load())
}

// inputsBrain records the inputs of every decision and then idles.
type inputsBrain struct {
	mu  sync.Mutex
	got []dots.Inputs
}

func (b *inputsBrain) Decide(in dots.Inputs, _ *rand.Rand) dots.Decision {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, in)
	return dots.Decision{Action: components.ActionIdle}
}

func TestSenseReportsNeighbours(t *testing.T) {
	p := testParams()
	p.Compass8 = false
	brain := &inputsBrain{}
	f := dots.NewFactory(p, effects.NewQueue(), 1, dots.WithBrain(brain))
	g := New(f, Config{Width: 5, Height: 5})

	gen := genome.FromWords(3, 4)
	centre := components.Coord{X: 2, Y: 2}
	d, err := g.Insert(centre, &gen, 0.5)
	require.NoError(t, err)
	_, err = g.Insert(components.Coord{X: 2, Y: 1}, &gen, 0.8)
	require.NoError(t, err)
	_, err = g.Insert(components.Coord{X: 3, Y: 2}, nil, 0.3)
	require.NoError(t, err)

	require.NoError(t, d.Step())

	require.Len(t, brain.got, 1)
	near := brain.got[0].Neighbours
	assert.Equal(t, dots.Neighbour{Present: true, Alive: true, Vitality: 0.8}, near[components.North])
	assert.Equal(t, dots.Neighbour{Present: true, Vitality: 0.3}, near[components.East])
	assert.Equal(t, dots.Neighbour{}, near[components.South])
	assert.Equal(t, dots.Neighbour{}, near[components.West])

	assert.Equal(t, dots.Neighbour{}, g.Sense(components.Coord{X: -1, Y: 2}))
}

func TestConcurrentSensingDoesNotDeadlock(t *testing.T) {
	p := testParams()
	q := effects.NewQueue()
	f := dots.NewFactory(p, q, 1, dots.WithBrain(dots.ForagingBrain{Compass8: true}))
	g := New(f, Config{Width: 6, Height: 6})
	rng := rand.New(rand.NewSource(5))
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			gen := genome.Random(rng)
			_, err := g.Insert(components.Coord{X: float64(x), Y: float64(y)}, &gen, 0.6)
			require.NoError(t, err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		g.Each(func(d *dots.Dot) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					_ = d.Step()
				}
			}()
		})
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("neighbouring dots deadlocked while sensing")
	}
	q.Close()
}

func TestDescribeAllGeometry(t *testing.T) {
	g, _, _ := newGrid(10, 10, testParams())
	red := genome.FromWords(0xff, 0)
	_, err := g.Insert(components.Coord{X: 2, Y: 3}, &red, 0.8)
	require.NoError(t, err)

	sprites := g.DescribeAll()
	require.Len(t, sprites, 1)
	sp := sprites[0]
	assert.Equal(t, float32(25), sp.X)
	assert.Equal(t, float32(35), sp.Y)
	assert.Equal(t, float32(5), sp.Radius)
	assert.Equal(t, [3]float32{1, 0, 0}, sp.Color)
	assert.True(t, sp.Alive)
}

func TestTickersRunInSelfScheduledMode(t *testing.T) {
	p := testParams()
	p.DormantInterval = 2 * time.Millisecond
	q := effects.NewQueue()
	f := dots.NewFactory(p, q, 1, dots.WithBrain(dots.FixedBrain{}))
	g := New(f, Config{Width: 4, Height: 4})
	pos := components.Coord{X: 1, Y: 1}
	_, err := g.Insert(pos, nil, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	g.StartTickers(ctx)
	require.Eventually(t, func() bool {
		d, _ := g.At(pos)
		s, err := d.State()
		return err == nil && dots.VitalityOf(s) >= 0.5
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	f.Wait()
}

func TestFertilityRange(t *testing.T) {
	params := FertilityParams{Min: 0.2, Max: 0.9, Scale: 3, Octaves: 3, Lacunarity: 2, Gain: 0.5, Contrast: 1.5, Seed: 7}
	a := NewFertility(16, 12, params)
	b := NewFertility(16, 12, params)

	distinct := make(map[float32]bool)
	for y := 0; y < 12; y++ {
		for x := 0; x < 16; x++ {
			c := components.Cell{X: x, Y: y}
			v := a.Ceiling(c)
			assert.GreaterOrEqual(t, v, float32(0.2))
			assert.LessOrEqual(t, v, float32(0.9)+1e-6)
			assert.Equal(t, v, b.Ceiling(c))
			distinct[v] = true
		}
	}
	assert.Greater(t, len(distinct), 1)
	assert.Equal(t, float32(0), a.Ceiling(components.Cell{X: 16, Y: 0}))

	u := UniformFertility(3, 3, 0.6)
	assert.Equal(t, float32(0.6), u.Ceiling(components.Cell{X: 2, Y: 2}))
	assert.InDelta(t, 0.6, u.Mean(), 1e-6)
}
