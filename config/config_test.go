package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/dots/dots"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dots.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 54, cfg.Grid.Width)
	assert.Equal(t, 45, cfg.Grid.Height)
	assert.Equal(t, int32(540), cfg.Derived.ScreenW)
	assert.Equal(t, int32(450), cfg.Derived.ScreenH)
	assert.Equal(t, ModeSelf, cfg.Schedule.Mode)
	assert.False(t, cfg.Derived.ExternalTicks)
	assert.Equal(t, time.Second, cfg.Schedule.DormantInterval)
	assert.Equal(t, 9, cfg.Seeding.Spacing)
	assert.Equal(t, 4, cfg.Seeding.Offset)
	assert.Equal(t, 2, cfg.Seeding.PerCell)

	p := cfg.DotParams()
	assert.Equal(t, 250*time.Millisecond, p.Genome.ReactionBase)
	assert.Equal(t, 255*time.Millisecond, p.ReactionJitter)
	assert.InDelta(t, 0.1, p.RegrowthRate, 1e-6)
	assert.True(t, p.Compass8)
	assert.True(t, p.KeepRemains)
	assert.Equal(t, dots.RandomBrain{Compass8: true}, cfg.Brain())
}

func TestLoadOverlay(t *testing.T) {
	path := writeFile(t, `
grid:
  width: 10
schedule:
  mode: external
  updates_per_second: 20
actions:
  compass8: false
  brain: foraging
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Grid.Width)
	assert.Equal(t, 45, cfg.Grid.Height, "untouched keys keep defaults")
	assert.True(t, cfg.Derived.ExternalTicks)
	assert.Equal(t, 50*time.Millisecond, cfg.Derived.UpdateInterval)
	assert.False(t, cfg.DotParams().Compass8)
	assert.Equal(t, dots.ForagingBrain{Compass8: false}, cfg.Brain())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "grid: [1, 2"},
		{"empty grid", "grid:\n  width: 0\n"},
		{"bad scale", "grid:\n  scale: -1\n"},
		{"bad mode", "schedule:\n  mode: sometimes\n"},
		{"bad spacing", "seeding:\n  spacing: 0\n"},
		{"bad brain", "actions:\n  brain: clever\n"},
		{"negative reaction", "genome:\n  reaction_base: -1s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteYAMLReloads(t *testing.T) {
	cfg, err := Load(writeFile(t, "grid:\n  width: 12\nfertility:\n  octaves: 2\n"))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.WriteYAML(out))

	again, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, cfg.Grid, again.Grid)
	assert.Equal(t, cfg.Fertility, again.Fertility)
	assert.Equal(t, cfg.Schedule, again.Schedule)
}

func TestCfgRequiresInit(t *testing.T) {
	global = nil
	assert.Panics(t, func() { Cfg() })

	MustInit("")
	assert.Equal(t, 54, Cfg().Grid.Width)
}
