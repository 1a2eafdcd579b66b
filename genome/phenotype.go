package genome

import "time"

// Bit layout of the phenotype windows, in bytes from bit 0.
const (
	colorByte     = 0 // bytes 0-2: red, green, blue
	reactionByte  = 3 // byte 3: reaction interval
	digestionByte = 4 // bytes 4-6: per-channel digestion mask
	fertilityByte = 7 // byte 7: fertility
)

// Phenotype holds the attributes derived from a genome.
type Phenotype struct {
	Color     [3]float32
	Digestion [3]float32
	Reaction  time.Duration
	Fertility float32
}

// Derive computes the phenotype of g. It is a pure function of g and p.
func Derive(g Genome, p Params) Phenotype {
	var ph Phenotype
	for i := 0; i < 3; i++ {
		ph.Color[i] = unit(g.byteAt(colorByte + i))
		ph.Digestion[i] = unit(g.byteAt(digestionByte + i))
	}
	ph.Reaction = p.ReactionBase + time.Duration(g.byteAt(reactionByte))*p.ReactionStep
	ph.Fertility = unit(g.byteAt(fertilityByte))
	return ph
}

// Digestibility is the mean of mask weighted by color, in [0,1].
func Digestibility(mask, color [3]float32) float32 {
	var sum float32
	for i := range mask {
		sum += mask[i] * color[i]
	}
	return sum / 3
}

func unit(b uint8) float32 {
	return float32(b) / 255
}
