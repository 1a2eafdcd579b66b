// Package scene holds the grid of dots and the loop that routes effects
// between them.
package scene

import (
	"context"
	"errors"
	"sync"

	"github.com/pthm-cable/dots/components"
	"github.com/pthm-cable/dots/dots"
	"github.com/pthm-cable/dots/genome"
)

var (
	// ErrOutOfBounds is returned for positions outside the grid.
	ErrOutOfBounds = errors.New("scene: position out of bounds")
	// ErrOccupied is returned by Insert when the cell already has a dot.
	ErrOccupied = errors.New("scene: cell already occupied")
)

// Recorder receives routing events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	RecordCreated()
	RecordDelivered()
	RecordDropped()
	RecordFailed()
	RecordBroadcast(recipients int)
}

type nopRecorder struct{}

func (nopRecorder) RecordCreated()      {}
func (nopRecorder) RecordDelivered()    {}
func (nopRecorder) RecordDropped()      {}
func (nopRecorder) RecordFailed()       {}
func (nopRecorder) RecordBroadcast(int) {}

// Config describes a grid.
type Config struct {
	Width, Height int
	Scale         float32    // Screen units per cell
	Fertility     *Fertility // Nil means every cell regrows to 1
	Recorder      Recorder
}

// Grid maps cells to dots. Dots are created lazily on first contact and
// are never removed, so each cell has at most one dot for the life of the
// grid.
//
// Lock order: mu is never held while a dot's own lock is taken. Every
// method that touches dot state copies the handles out first.
type Grid struct {
	width, height int
	scale         float32
	factory       *dots.Factory
	fertility     *Fertility
	rec           Recorder

	mu      sync.RWMutex
	cells   map[components.Cell]*dots.Dot
	tickCtx context.Context
}

// New creates an empty grid whose dots are built by factory.
func New(factory *dots.Factory, cfg Config) *Grid {
	if cfg.Fertility == nil {
		cfg.Fertility = UniformFertility(cfg.Width, cfg.Height, 1)
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 1
	}
	g := &Grid{
		width:     cfg.Width,
		height:    cfg.Height,
		scale:     cfg.Scale,
		factory:   factory,
		fertility: cfg.Fertility,
		rec:       cfg.Recorder,
		cells:     make(map[components.Cell]*dots.Dot),
	}
	factory.SetSensor(g)
	return g
}

// Width returns the grid width in cells.
func (g *Grid) Width() int { return g.width }

// Height returns the grid height in cells.
func (g *Grid) Height() int { return g.height }

// Scale returns the screen units per cell.
func (g *Grid) Scale() float32 { return g.scale }

// Fertility returns the regrowth ceiling field.
func (g *Grid) Fertility() *Fertility { return g.fertility }

// InBounds reports whether pos lies on the grid. The test is on the raw
// coordinates, so (-0.5, 0) is outside even though it truncates to cell 0.
func (g *Grid) InBounds(pos components.Coord) bool {
	return pos.X >= 0 && pos.Y >= 0 && pos.X < float64(g.width) && pos.Y < float64(g.height)
}

// At returns the dot at pos, if one exists.
func (g *Grid) At(pos components.Coord) (*dots.Dot, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.cells[pos.Cell()]
	return d, ok
}

// Sense reports on the dot at pos for a neighbouring dot's brain. Empty and
// off-grid cells, and poisoned dots, read as not present. The grid lock is
// released before the dot is read.
func (g *Grid) Sense(pos components.Coord) dots.Neighbour {
	if !g.InBounds(pos) {
		return dots.Neighbour{}
	}
	d, ok := g.At(pos)
	if !ok {
		return dots.Neighbour{}
	}
	s, err := d.State()
	if err != nil {
		return dots.Neighbour{}
	}
	return dots.Neighbour{Present: true, Alive: dots.IsAlive(s), Vitality: dots.VitalityOf(s)}
}

// GetOrCreate returns the dot at pos, creating a dormant one if the cell is
// empty. The second result reports whether this call created it. Concurrent
// callers for the same cell all receive the same dot.
func (g *Grid) GetOrCreate(pos components.Coord) (*dots.Dot, bool, error) {
	if !g.InBounds(pos) {
		return nil, false, ErrOutOfBounds
	}
	cell := pos.Cell()

	g.mu.RLock()
	d, ok := g.cells[cell]
	g.mu.RUnlock()
	if ok {
		return d, false, nil
	}

	g.mu.Lock()
	if d, ok = g.cells[cell]; ok {
		g.mu.Unlock()
		return d, false, nil
	}
	ceiling := g.fertility.Ceiling(cell)
	d = g.factory.NewDormant(cell.Coord(), ceiling, ceiling)
	g.cells[cell] = d
	ctx := g.tickCtx
	g.mu.Unlock()

	g.rec.RecordCreated()
	if ctx != nil {
		d.Start(ctx)
	}
	return d, true, nil
}

// Insert places a new dot at pos: alive with gen if gen is non-nil,
// dormant otherwise. It fails if the cell already holds a dot.
func (g *Grid) Insert(pos components.Coord, gen *genome.Genome, vitality float32) (*dots.Dot, error) {
	if !g.InBounds(pos) {
		return nil, ErrOutOfBounds
	}
	cell := pos.Cell()
	ceiling := g.fertility.Ceiling(cell)

	g.mu.Lock()
	if _, ok := g.cells[cell]; ok {
		g.mu.Unlock()
		return nil, ErrOccupied
	}
	var d *dots.Dot
	if gen != nil {
		d = g.factory.NewAlive(cell.Coord(), *gen, vitality, ceiling)
	} else {
		d = g.factory.NewDormant(cell.Coord(), vitality, ceiling)
	}
	g.cells[cell] = d
	ctx := g.tickCtx
	g.mu.Unlock()

	g.rec.RecordCreated()
	if ctx != nil {
		d.Start(ctx)
	}
	return d, nil
}

// StartTickers switches the grid to self-scheduled mode: every existing dot
// and every dot created afterwards runs its own ticker until ctx ends.
func (g *Grid) StartTickers(ctx context.Context) {
	g.mu.Lock()
	g.tickCtx = ctx
	g.mu.Unlock()

	g.Each(func(d *dots.Dot) {
		d.Start(ctx)
	})
}

// Len returns the number of cells that have a dot.
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cells)
}

// Each calls fn for every dot. fn runs without the grid lock held and may
// lock the dot; dots created during the walk may or may not be visited.
func (g *Grid) Each(fn func(*dots.Dot)) {
	for _, d := range g.handles() {
		fn(d)
	}
}

// DescribeAll returns a sprite for every dot. Dots that have been poisoned
// are left out.
func (g *Grid) DescribeAll() []dots.Sprite {
	handles := g.handles()
	sprites := make([]dots.Sprite, 0, len(handles))
	for _, d := range handles {
		sp, err := d.Describe(g.scale)
		if err != nil {
			continue
		}
		sprites = append(sprites, sp)
	}
	return sprites
}

func (g *Grid) handles() []*dots.Dot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*dots.Dot, 0, len(g.cells))
	for _, d := range g.cells {
		out = append(out, d)
	}
	return out
}
