// Package genome implements the fixed-width bit genome carried by living dots.
//
// A genome is 128 raw bits. Everything else about a dot's appearance and
// timing is a phenotype derived by slicing consecutive byte windows out of
// those bits, so recombining two genomes always yields a phenotype inside
// the same bounded ranges.
package genome

import (
	"fmt"
	"math/bits"
	"math/rand"
	"strconv"
	"time"
)

// Words is the number of 64-bit words in a genome.
const Words = 2

// Bits is the genome width.
const Bits = Words * 64

// Genome is an immutable 128-bit sequence. Equality is over the raw bits.
type Genome struct {
	w [Words]uint64
}

// FromWords builds a genome from its two words (bit 0 is the LSB of lo).
func FromWords(lo, hi uint64) Genome {
	return Genome{w: [Words]uint64{lo, hi}}
}

// Random draws a genome from rng.
func Random(rng *rand.Rand) Genome {
	return FromWords(rng.Uint64(), rng.Uint64())
}

// Bit returns bit i (0 <= i < Bits).
func (g Genome) Bit(i int) bool {
	return g.w[i/64]>>(uint(i)%64)&1 == 1
}

// byteAt returns the 8-bit window starting at bit 8*i.
func (g Genome) byteAt(i int) uint8 {
	return uint8(g.w[i/8] >> (uint(i%8) * 8))
}

// Hamming returns the number of differing bits between a and b.
func Hamming(a, b Genome) int {
	n := 0
	for i := range a.w {
		n += bits.OnesCount64(a.w[i] ^ b.w[i])
	}
	return n
}

// String formats the genome as 32 hex digits, high word first.
func (g Genome) String() string {
	return fmt.Sprintf("%016x%016x", g.w[1], g.w[0])
}

// Parse reads the 32-digit hex form produced by String.
func Parse(s string) (Genome, error) {
	if len(s) != 32 {
		return Genome{}, fmt.Errorf("genome %q: want 32 hex digits, got %d", s, len(s))
	}
	hi, err := strconv.ParseUint(s[:16], 16, 64)
	if err != nil {
		return Genome{}, fmt.Errorf("genome %q: %w", s, err)
	}
	lo, err := strconv.ParseUint(s[16:], 16, 64)
	if err != nil {
		return Genome{}, fmt.Errorf("genome %q: %w", s, err)
	}
	return FromWords(lo, hi), nil
}

// MarshalText implements encoding.TextMarshaler.
func (g Genome) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Genome) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Recombine crosses a and b with a fresh uniform mask drawn from the
// auto-seeded global source, so repeated calls give different children.
func Recombine(a, b Genome) Genome {
	return RecombineWithMask(a, b, FromWords(rand.Uint64(), rand.Uint64()))
}

// RecombineWithMask takes bit i from a where mask bit i is set, otherwise from b.
func RecombineWithMask(a, b, mask Genome) Genome {
	var child Genome
	for i := range child.w {
		child.w[i] = (a.w[i] & mask.w[i]) | (b.w[i] &^ mask.w[i])
	}
	return child
}

// Params scales the timing genes.
type Params struct {
	ReactionBase time.Duration // Reaction interval for an all-zero timing gene
	ReactionStep time.Duration // Added per unit of the timing gene (0..255)
}

// DefaultParams mirrors the defaults shipped in the config package.
func DefaultParams() Params {
	return Params{
		ReactionBase: 250 * time.Millisecond,
		ReactionStep: 4 * time.Millisecond,
	}
}
