package components

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordCellTruncates(t *testing.T) {
	tests := []struct {
		name string
		c    Coord
		want Cell
	}{
		{"integer", Coord{3, 4}, Cell{3, 4}},
		{"fraction", Coord{3.9, 4.1}, Cell{3, 4}},
		{"diagonal reach", Coord{2 + 1.41421356, 2 - 1.41421356}, Cell{3, 0}},
		{"toward zero", Coord{-0.5, 0.5}, Cell{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Cell())
		})
	}
}

func TestCoordEqualSameCell(t *testing.T) {
	a := Coord{5.1, 7.9}
	b := Coord{5.8, 7.0}
	assert.True(t, a.Equal(b))

	// Equal coords must land on the same map entry.
	m := map[Cell]int{a.Cell(): 1}
	m[b.Cell()]++
	assert.Len(t, m, 1)
	assert.Equal(t, 2, m[a.Cell()])

	assert.False(t, a.Equal(Coord{6, 7}))
}

func TestCoordOffset(t *testing.T) {
	origin := Coord{5, 5}
	tests := []struct {
		dir  Direction
		want Cell
	}{
		{North, Cell{5, 4}},
		{NorthEast, Cell{6, 3}},
		{East, Cell{6, 5}},
		{SouthEast, Cell{6, 6}},
		{South, Cell{5, 6}},
		{SouthWest, Cell{3, 6}},
		{West, Cell{4, 5}},
		{NorthWest, Cell{3, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.dir.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, origin.Offset(tt.dir, 1).Cell())
		})
	}
}

func TestCompass(t *testing.T) {
	full := Compass(true)
	assert.Len(t, full, NumDirections)
	for i, d := range full {
		assert.Equal(t, Direction(i), d)
	}

	cardinal := Compass(false)
	assert.Equal(t, []Direction{North, East, South, West}, cardinal)
	for _, d := range cardinal {
		assert.True(t, d.IsCardinal(), "dir %s", d)
	}
}

func TestRandomDirectionCardinalOnly(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		assert.True(t, RandomDirection(rng, false).IsCardinal())
	}
}

func TestRandomActionCoversSet(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	seen := make(map[Action]bool)
	for i := 0; i < 300; i++ {
		a := RandomAction(rng)
		assert.Less(t, int(a), NumActions)
		seen[a] = true
	}
	assert.Len(t, seen, NumActions)
}
