// Package components defines the value types shared by the simulation packages.
package components

import (
	"fmt"
	"math"
)

// Cell is the integer identity of a grid cell. It is the key of every
// position-indexed map in the simulation.
type Cell struct {
	X, Y int
}

// Coord is a continuous position on the grid.
// Two coords refer to the same cell when their truncated axes match.
type Coord struct {
	X, Y float64
}

// Cell truncates both axes toward zero.
func (c Coord) Cell() Cell {
	return Cell{X: int(c.X), Y: int(c.Y)}
}

// Equal reports whether both coords quantize to the same cell.
func (c Coord) Equal(o Coord) bool {
	return c.Cell() == o.Cell()
}

// Offset returns the coord reached by moving distance in dir.
// Diagonal steps move distance*sqrt(2) along both axes.
func (c Coord) Offset(dir Direction, distance float64) Coord {
	dx, dy := dir.Delta()
	if dx != 0 && dy != 0 {
		distance *= math.Sqrt2
	}
	return Coord{X: c.X + float64(dx)*distance, Y: c.Y + float64(dy)*distance}
}

// String formats the coord for logs.
func (c Coord) String() string {
	return fmt.Sprintf("(%g,%g)", c.X, c.Y)
}

// Coord returns the origin corner of the cell.
func (c Cell) Coord() Coord {
	return Coord{X: float64(c.X), Y: float64(c.Y)}
}
