package main

import (
	"context"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dots/game"
	"github.com/pthm-cable/dots/renderer"
	"github.com/pthm-cable/dots/telemetry"
)

// runWindow runs the simulation in the background and draws it on the
// calling goroutine until the window closes or ctx ends.
func runWindow(ctx context.Context, g *game.Game) error {
	cfg := g.Config()

	rl.InitWindow(cfg.Derived.ScreenW, cfg.Derived.ScreenH, cfg.Screen.Title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		errc <- g.Run(ctx)
	}()

	grid := renderer.NewGridRenderer()
	hud := renderer.NewHUD(8, 8, 320)

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		g.BeginFrame()

		g.Phase(telemetry.PhaseTickFeed)
		g.FeedTick(time.Now())

		g.Phase(telemetry.PhaseSnapshot)
		sprites, st := g.Snapshot()

		g.Phase(telemetry.PhaseDraw)
		rl.BeginDrawing()
		grid.Draw(sprites)
		actions := hud.Draw(renderer.HUDData{
			Title:      cfg.Screen.Title,
			Cells:      st.Cells,
			Alive:      st.Alive,
			Dormant:    st.Dormant,
			Latent:     st.Latent,
			QueueDepth: st.QueueDepth,
			External:   st.External,
		})
		rl.EndDrawing()

		g.Phase(telemetry.PhaseTelemetry)
		if actions.Reseed {
			g.Reseed(1)
		}
		g.EndFrame()
	}

	cancel()
	return <-errc
}
