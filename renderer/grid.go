// Package renderer draws grid snapshots with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dots/dots"
)

// GridRenderer draws one square per dot. It holds no simulation state;
// each frame is drawn from a snapshot taken by the caller.
type GridRenderer struct {
	background rl.Color
	dormant    rl.Color
	gap        float32 // Screen units left empty between neighbouring cells
}

// NewGridRenderer creates a renderer with a dark background.
func NewGridRenderer() *GridRenderer {
	return &GridRenderer{
		background: rl.Color{R: 12, G: 14, B: 18, A: 255},
		dormant:    rl.Color{R: 236, G: 232, B: 220, A: 255},
		gap:        1,
	}
}

// Draw clears the screen and draws every sprite. Must be called between
// rl.BeginDrawing and rl.EndDrawing.
func (r *GridRenderer) Draw(sprites []dots.Sprite) {
	rl.ClearBackground(r.background)
	for _, sp := range sprites {
		rl.DrawRectangleRec(spriteRect(sp, r.gap), r.spriteColor(sp))
	}
}

// spriteRect is the square covering the sprite's cell, inset by gap.
func spriteRect(sp dots.Sprite, gap float32) rl.Rectangle {
	size := 2*sp.Radius - gap
	if size < 1 {
		size = 2 * sp.Radius
	}
	return rl.Rectangle{
		X:      sp.X - size/2,
		Y:      sp.Y - size/2,
		Width:  size,
		Height: size,
	}
}

// spriteColor maps colour channels to bytes and intensity to alpha.
// Dormant cells all share the renderer's dormant tint.
func (r *GridRenderer) spriteColor(sp dots.Sprite) rl.Color {
	if !sp.Alive {
		c := r.dormant
		c.A = unitByte(sp.Intensity)
		return c
	}
	return rl.Color{
		R: unitByte(sp.Color[0]),
		G: unitByte(sp.Color[1]),
		B: unitByte(sp.Color[2]),
		A: unitByte(sp.Intensity),
	}
}

func unitByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
