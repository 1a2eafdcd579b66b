package game

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/dots/components"
	"github.com/pthm-cable/dots/effects"
	"github.com/pthm-cable/dots/genome"
	"github.com/pthm-cable/dots/scene"
)

// populate fills the grid with dormant cells when configured, then queues
// random seeds on the seeding lattice. It returns the number of seeds sent.
func (g *Game) populate() (int, error) {
	sc := g.cfg.Seeding
	w, h := g.grid.Width(), g.grid.Height()

	if sc.Prepopulate {
		initial := float32(g.cfg.Vitality.Initial)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				pos := components.Coord{X: float64(x), Y: float64(y)}
				if _, err := g.grid.Insert(pos, nil, initial); err != nil && !errors.Is(err, scene.ErrOccupied) {
					return 0, fmt.Errorf("prepopulating %s: %w", pos, err)
				}
			}
		}
	}

	sent := 0
	for _, cell := range seedCells(w, h, sc.Spacing, sc.Offset) {
		for i := 0; i < sc.PerCell; i++ {
			g.rngMu.Lock()
			gen := genome.Random(g.rng)
			g.rngMu.Unlock()
			if err := g.queue.Send(effects.To(cell.Coord(), effects.Seed{Genome: gen})); err != nil {
				return sent, fmt.Errorf("seeding %s: %w", cell.Coord(), err)
			}
			sent++
		}
	}
	return sent, nil
}

// seedCells lists the cells whose coordinates are both offset modulo spacing.
func seedCells(w, h, spacing, offset int) []components.Cell {
	if spacing <= 0 {
		return nil
	}
	var cells []components.Cell
	for y := 0; y < h; y++ {
		if y%spacing != offset {
			continue
		}
		for x := 0; x < w; x++ {
			if x%spacing == offset {
				cells = append(cells, components.Cell{X: x, Y: y})
			}
		}
	}
	return cells
}

// Reseed sends n seeds to random cells. Genomes come from the hall of fame
// when it has entries, otherwise they are random. It returns the number of
// seeds queued.
func (g *Game) Reseed(n int) int {
	sent := 0
	for i := 0; i < n; i++ {
		pos, gen := g.pickSeed()
		if err := g.queue.Send(effects.To(pos, effects.Seed{Genome: gen})); err != nil {
			g.log.Warn("reseed stopped", "sent", sent, "error", err)
			break
		}
		sent++
	}
	return sent
}

func (g *Game) pickSeed() (components.Coord, genome.Genome) {
	gen, ok := g.hof.Sample()

	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	if !ok {
		gen = genome.Random(g.rng)
	}
	pos := components.Coord{
		X: float64(g.rng.Intn(g.grid.Width())),
		Y: float64(g.rng.Intn(g.grid.Height())),
	}
	return pos, gen
}
