package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	gui "github.com/gen2brain/raylib-go/raygui"
)

// HUDData holds everything the heads-up display shows.
type HUDData struct {
	Title      string
	Cells      int
	Alive      int
	Dormant    int
	Latent     int
	QueueDepth int
	External   bool // Ticks come from the frame loop rather than per-dot timers
}

// HUDActions reports what the user clicked this frame.
type HUDActions struct {
	Reseed bool
}

// HUD draws the status panel and the reseed button.
type HUD struct {
	x, y  float32
	width float32
}

// NewHUD creates a HUD anchored at (x, y).
func NewHUD(x, y, width float32) *HUD {
	return &HUD{x: x, y: y, width: width}
}

// Draw renders the HUD and returns the clicked actions.
func (h *HUD) Draw(data HUDData) HUDActions {
	rl.DrawRectangleRec(rl.Rectangle{X: h.x - 4, Y: h.y - 4, Width: h.width + 8, Height: 92}, rl.Color{R: 0, G: 0, B: 0, A: 153})

	gui.Label(rl.Rectangle{X: h.x, Y: h.y, Width: h.width, Height: 18}, data.Title)
	gui.Label(rl.Rectangle{X: h.x, Y: h.y + 18, Width: h.width, Height: 18}, populationLine(data))
	gui.Label(rl.Rectangle{X: h.x, Y: h.y + 36, Width: h.width, Height: 18}, scheduleLine(data))

	var actions HUDActions
	if gui.Button(rl.Rectangle{X: h.x, Y: h.y + 58, Width: 100, Height: 26}, "Reseed") {
		actions.Reseed = true
	}
	rl.DrawFPS(int32(h.x+h.width-80), int32(h.y+62))
	return actions
}

func populationLine(data HUDData) string {
	return fmt.Sprintf("Alive: %d | Dormant: %d | Remains: %d | Cells: %d",
		data.Alive, data.Dormant, data.Latent, data.Cells)
}

func scheduleLine(data HUDData) string {
	mode := "self"
	if data.External {
		mode = "external"
	}
	return fmt.Sprintf("Ticks: %s | Queue: %d", mode, data.QueueDepth)
}
