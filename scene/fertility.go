package scene

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/dots/components"
)

// FertilityParams shapes the per-cell regrowth ceiling.
type FertilityParams struct {
	Min, Max   float32 // Ceiling range
	Scale      float32 // Noise frequency across the whole grid
	Octaves    int
	Lacunarity float32
	Gain       float32
	Contrast   float32 // Exponent applied to the noise; higher gives sparser fertile patches
	Seed       int64
}

// Fertility is a precomputed ceiling for every cell on the grid.
type Fertility struct {
	w, h int
	ceil []float32
}

// NewFertility builds the field from fractal OpenSimplex noise.
// With Octaves <= 0 or Max <= Min every cell gets Max.
func NewFertility(w, h int, p FertilityParams) *Fertility {
	f := &Fertility{w: w, h: h, ceil: make([]float32, w*h)}
	if p.Octaves <= 0 || p.Max <= p.Min {
		for i := range f.ceil {
			f.ceil[i] = clamp01(p.Max)
		}
		return f
	}

	noise := opensimplex.NewNormalized32(p.Seed)
	for y := 0; y < h; y++ {
		v := (float32(y) + 0.5) / float32(h)
		for x := 0; x < w; x++ {
			u := (float32(x) + 0.5) / float32(w)
			n := fbm(noise, u, v, p)
			f.ceil[y*w+x] = clamp01(p.Min + n*(p.Max-p.Min))
		}
	}
	return f
}

// UniformFertility gives every cell the same ceiling.
func UniformFertility(w, h int, ceiling float32) *Fertility {
	return NewFertility(w, h, FertilityParams{Max: ceiling})
}

// Ceiling returns the regrowth ceiling of c, or 0 off the grid.
func (f *Fertility) Ceiling(c components.Cell) float32 {
	if c.X < 0 || c.Y < 0 || c.X >= f.w || c.Y >= f.h {
		return 0
	}
	return f.ceil[c.Y*f.w+c.X]
}

// Mean is the average ceiling over the grid.
func (f *Fertility) Mean() float32 {
	if len(f.ceil) == 0 {
		return 0
	}
	var sum float32
	for _, c := range f.ceil {
		sum += c
	}
	return sum / float32(len(f.ceil))
}

// fbm sums octaves of normalized noise and rescales to [0,1].
func fbm(noise opensimplex.Noise32, u, v float32, p FertilityParams) float32 {
	var sum, norm float32
	amp := float32(0.5)
	freq := p.Scale
	for o := 0; o < p.Octaves; o++ {
		sum += amp * noise.Eval2(u*freq, v*freq)
		norm += amp
		freq *= p.Lacunarity
		amp *= p.Gain
	}
	if norm > 0 {
		sum /= norm
	}
	if p.Contrast > 0 && p.Contrast != 1 {
		sum = float32(math.Pow(float64(sum), float64(p.Contrast)))
	}
	return clamp01(sum)
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
