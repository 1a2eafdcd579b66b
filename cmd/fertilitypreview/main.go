// Fertility field preview tool - interactive view of the regrowth ceiling
// with sliders for every noise parameter.
//
// Usage: go run ./cmd/fertilitypreview [config.yaml]
package main

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	gui "github.com/gen2brain/raylib-go/raygui"

	"github.com/pthm-cable/dots/components"
	"github.com/pthm-cable/dots/config"
	"github.com/pthm-cable/dots/scene"
)

const (
	windowWidth  = 1000
	windowHeight = 640
	previewSize  = 540
	panelWidth   = windowWidth - previewSize - 30
)

// slider draws one labelled slider and reports whether the value changed.
type slider struct {
	x, y  float32
	label string
}

func (s *slider) float(value *float32, lo, hi float32, format string) bool {
	rl.DrawText(s.label, int32(s.x), int32(s.y), 14, rl.Gray)
	s.y += 18
	next := gui.SliderBar(
		rl.Rectangle{X: s.x, Y: s.y, Width: float32(panelWidth - 80), Height: 20},
		fmt.Sprintf(format, lo), fmt.Sprintf(format, hi),
		*value, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, *value), int32(s.x+float32(panelWidth-70)), int32(s.y+2), 16, rl.DarkGray)
	s.y += 35
	if next == *value {
		return false
	}
	*value = next
	return true
}

func main() {
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	defaults := cfg.FertilityParams(1)
	params := defaults
	w, h := cfg.Grid.Width, cfg.Grid.Height

	rl.InitWindow(windowWidth, windowHeight, "Fertility Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	img := rl.GenImageColor(w, h, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	field := scene.NewFertility(w, h, params)
	updateTexture(texture, field, w, h)
	needsRegen := false

	for !rl.WindowShouldClose() {
		if needsRegen {
			field = scene.NewFertility(w, h, params)
			updateTexture(texture, field, w, h)
			needsRegen = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: float32(w), Height: float32(h)},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize * float32(h) / float32(w)},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)

		rl.DrawText(fmt.Sprintf("Grid: %dx%d  Mean ceiling: %.3f", w, h, field.Mean()), 15, windowHeight-30, 16, rl.DarkGray)

		panelX := float32(previewSize + 20)
		rl.DrawText("Fertility Parameters", int32(panelX), 10, 20, rl.DarkGray)

		s := &slider{x: panelX, y: 45}
		for _, row := range []struct {
			label  string
			value  *float32
			lo, hi float32
			format string
		}{
			{"Min (poorest ceiling)", &params.Min, 0, 1, "%.2f"},
			{"Max (richest ceiling)", &params.Max, 0, 1, "%.2f"},
			{"Scale (noise frequency)", &params.Scale, 0.5, 12, "%.1f"},
			{"Lacunarity (frequency multiplier)", &params.Lacunarity, 1.5, 4, "%.2f"},
			{"Gain (amplitude multiplier)", &params.Gain, 0.2, 0.9, "%.2f"},
			{"Contrast (higher = sparser)", &params.Contrast, 0.5, 5, "%.2f"},
		} {
			s.label = row.label
			if s.float(row.value, row.lo, row.hi, row.format) {
				needsRegen = true
			}
		}

		octaves := float32(params.Octaves)
		s.label = "Octaves (detail level)"
		if s.float(&octaves, 0, 6, "%.0f") && int(octaves) != params.Octaves {
			params.Octaves = int(octaves)
			needsRegen = true
		}

		if gui.Button(rl.Rectangle{X: panelX, Y: s.y, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(0, 99999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: s.y, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			needsRegen = true
		}
		rl.DrawText(fmt.Sprintf("Seed: %d", params.Seed), int32(panelX+260), int32(s.y+8), 14, rl.Gray)
		s.y += 50

		rl.DrawText("YAML Config:", int32(panelX), int32(s.y), 16, rl.DarkGray)
		s.y += 25
		for _, line := range yamlLines(params) {
			rl.DrawText(line, int32(panelX), int32(s.y), 14, rl.Gray)
			s.y += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), windowHeight-30, 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			text := ""
			for _, line := range yamlLines(params) {
				text += line + "\n"
			}
			rl.SetClipboardText(text)
		}

		rl.EndDrawing()
	}
}

func yamlLines(p scene.FertilityParams) []string {
	return []string{
		"fertility:",
		fmt.Sprintf("  min: %.2f", p.Min),
		fmt.Sprintf("  max: %.2f", p.Max),
		fmt.Sprintf("  scale: %.1f", p.Scale),
		fmt.Sprintf("  octaves: %d", p.Octaves),
		fmt.Sprintf("  lacunarity: %.2f", p.Lacunarity),
		fmt.Sprintf("  gain: %.2f", p.Gain),
		fmt.Sprintf("  contrast: %.2f", p.Contrast),
	}
}

// updateTexture paints the field from bare soil (low) to lush green (high).
func updateTexture(texture rl.Texture2D, field *scene.Fertility, w, h int) {
	pixels := make([]color.RGBA, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := field.Ceiling(components.Cell{X: x, Y: y})
			pixels[y*w+x] = color.RGBA{
				R: uint8(90 - v*70),
				G: uint8(60 + v*170),
				B: uint8(30 + v*40),
				A: 255,
			}
		}
	}
	rl.UpdateTexture(texture, pixels)
}
