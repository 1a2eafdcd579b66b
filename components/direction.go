package components

import "math/rand"

// Direction is one of the eight compass points. Y grows southward.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// NumDirections is the size of the full compass.
const NumDirections = 8

var directionDeltas = [NumDirections][2]int{
	North:     {0, -1},
	NorthEast: {1, -1},
	East:      {1, 0},
	SouthEast: {1, 1},
	South:     {0, 1},
	SouthWest: {-1, 1},
	West:      {-1, 0},
	NorthWest: {-1, -1},
}

var directionNames = [NumDirections]string{
	"N", "NE", "E", "SE", "S", "SW", "W", "NW",
}

// Cardinals are the four directions used by the simpler compass.
var Cardinals = [4]Direction{North, East, South, West}

var allDirections = [NumDirections]Direction{
	North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest,
}

// Compass lists the directions a dot can act in: all eight, or the four
// cardinals when compass8 is false. The slice must not be modified.
func Compass(compass8 bool) []Direction {
	if compass8 {
		return allDirections[:]
	}
	return Cardinals[:]
}

// Delta returns the unit step along each axis.
func (d Direction) Delta() (dx, dy int) {
	v := directionDeltas[d%NumDirections]
	return v[0], v[1]
}

// IsCardinal reports whether d is N, E, S or W.
func (d Direction) IsCardinal() bool {
	return d%2 == 0
}

func (d Direction) String() string {
	if d >= NumDirections {
		return "?"
	}
	return directionNames[d]
}

// RandomDirection draws uniformly over the eight compass points, or over the
// four cardinals when compass8 is false.
func RandomDirection(rng *rand.Rand, compass8 bool) Direction {
	dirs := Compass(compass8)
	return dirs[rng.Intn(len(dirs))]
}
