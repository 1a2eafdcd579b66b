package telemetry

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/dots/genome"
)

func TestHallOfFameKeepsLongestLived(t *testing.T) {
	hof := NewHallOfFame(3, 0.1, rand.New(rand.NewSource(1)))

	tests := []struct {
		age  float32
		want bool
	}{
		{0.05, false}, // below minimum
		{0.3, true},
		{0.2, true},
		{0.6, true},
		{0.1, false}, // hall full, shorter than all
		{0.4, true},
	}
	for i, tt := range tests {
		got := hof.Consider(genome.FromWords(uint64(i), 0), tt.age)
		assert.Equal(t, tt.want, got, "age %v", tt.age)
	}

	assert.Equal(t, 3, hof.Size())
	assert.Equal(t, float32(0.6), hof.TopAge())
	for i := 0; i < 20; i++ {
		g, ok := hof.Sample()
		require.True(t, ok)
		assert.NotEqual(t, genome.FromWords(2, 0), g, "evicted genome sampled")
	}
}

func TestHallOfFameEmpty(t *testing.T) {
	hof := NewHallOfFame(3, 0, rand.New(rand.NewSource(1)))
	_, ok := hof.Sample()
	assert.False(t, ok)
	assert.Zero(t, hof.TopAge())
}

func TestHallOfFameFileRoundTrip(t *testing.T) {
	hof := NewHallOfFame(4, 0, rand.New(rand.NewSource(1)))
	hof.Consider(genome.FromWords(0xaa, 0xbb), 0.7)
	hof.Consider(genome.FromWords(0xcc, 0xdd), 0.2)

	data, err := hof.MarshalJSON()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "hall_of_fame.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := LoadHallOfFameFromFile(path, 4, 0, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Size())
	assert.Equal(t, float32(0.7), loaded.TopAge())
	assert.Contains(t, string(data), genome.FromWords(0xaa, 0xbb).String())
}
