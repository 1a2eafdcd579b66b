package genome

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveIsPure(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := DefaultParams()
	for i := 0; i < 100; i++ {
		g := Random(rng)
		a := Derive(g, p)
		b := Derive(g, p)
		require.Equal(t, a, b, "genome %s", g)
	}
}

func TestDeriveLayout(t *testing.T) {
	// red=0xff, green=0x00, blue=0x80, reaction=10, digestion=0xff,0,0, fertility=0x33
	g := FromWords(0x33_00_00_ff_0a_80_00_ff, 0)
	p := Params{ReactionBase: time.Second, ReactionStep: time.Millisecond}
	ph := Derive(g, p)

	assert.InDelta(t, 1.0, ph.Color[0], 1e-6)
	assert.InDelta(t, 0.0, ph.Color[1], 1e-6)
	assert.InDelta(t, 128.0/255, ph.Color[2], 1e-6)
	assert.Equal(t, time.Second+10*time.Millisecond, ph.Reaction)
	assert.Equal(t, [3]float32{1, 0, 0}, ph.Digestion)
	assert.InDelta(t, 0x33/255.0, ph.Fertility, 1e-6)
}

func TestDerivedRangesBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	p := DefaultParams()
	maxReaction := p.ReactionBase + 255*p.ReactionStep
	for i := 0; i < 500; i++ {
		ph := Derive(Random(rng), p)
		for c := 0; c < 3; c++ {
			assert.GreaterOrEqual(t, ph.Color[c], float32(0))
			assert.LessOrEqual(t, ph.Color[c], float32(1))
			assert.GreaterOrEqual(t, ph.Digestion[c], float32(0))
			assert.LessOrEqual(t, ph.Digestion[c], float32(1))
		}
		assert.GreaterOrEqual(t, ph.Reaction, p.ReactionBase)
		assert.LessOrEqual(t, ph.Reaction, maxReaction)
	}
}

func TestRecombineWithMaskBitwise(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	p := DefaultParams()
	for trial := 0; trial < 50; trial++ {
		a, b, mask := Random(rng), Random(rng), Random(rng)
		child := RecombineWithMask(a, b, mask)
		for i := 0; i < Bits; i++ {
			want := b.Bit(i)
			if mask.Bit(i) {
				want = a.Bit(i)
			}
			require.Equal(t, want, child.Bit(i), "bit %d", i)
		}
		ph := Derive(child, p)
		for c := 0; c < 3; c++ {
			assert.GreaterOrEqual(t, ph.Color[c], float32(0))
			assert.LessOrEqual(t, ph.Color[c], float32(1))
		}
	}
}

func TestRecombineExtremes(t *testing.T) {
	a := FromWords(0xdeadbeef, 0xfeedface)
	b := FromWords(0x12345678, 0x9abcdef0)
	all := FromWords(^uint64(0), ^uint64(0))
	none := FromWords(0, 0)

	assert.Equal(t, a, RecombineWithMask(a, b, all))
	assert.Equal(t, b, RecombineWithMask(a, b, none))
	assert.Equal(t, a, RecombineWithMask(a, a, FromWords(0x0f0f, 0xf0f0)))
}

func TestRecombineDrawsFreshMask(t *testing.T) {
	a := FromWords(0, 0)
	b := FromWords(^uint64(0), ^uint64(0))
	// Parents differ in every bit, so fresh masks give distinct children.
	seen := make(map[Genome]bool)
	for i := 0; i < 8; i++ {
		seen[Recombine(a, b)] = true
	}
	assert.Greater(t, len(seen), 1)

	c := FromWords(0xffff0000, 0)
	d := FromWords(0xffff0000, 0)
	assert.Equal(t, c, Recombine(c, d))
}

func TestHammingAndString(t *testing.T) {
	a := FromWords(0b1011, 1)
	b := FromWords(0b0001, 0)
	assert.Equal(t, 3, Hamming(a, b))
	assert.Equal(t, 0, Hamming(a, a))
	assert.Equal(t, "0000000000000001000000000000000b", a.String())
}

func TestParse(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	g := Random(rng)
	parsed, err := Parse(g.String())
	require.NoError(t, err)
	assert.Equal(t, g, parsed)

	text, err := g.MarshalText()
	require.NoError(t, err)
	var back Genome
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, g, back)

	_, err = Parse("abc")
	assert.Error(t, err)
	_, err = Parse("zz000000000000000000000000000000")
	assert.Error(t, err)
}

func TestDigestibility(t *testing.T) {
	assert.InDelta(t, 1.0, Digestibility([3]float32{1, 1, 1}, [3]float32{1, 1, 1}), 1e-6)
	assert.InDelta(t, 0.0, Digestibility([3]float32{1, 0, 0}, [3]float32{0, 1, 1}), 1e-6)
	assert.InDelta(t, 1.0/3, Digestibility([3]float32{1, 0, 0}, [3]float32{1, 1, 1}), 1e-6)
}
