//go:build !js

// Package glhost runs the app in an SDL2 window rendered with OpenGL.
package glhost

import (
	"context"
	"fmt"

	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/veggieview/internal/engine/app"
	"github.com/Faultbox/veggieview/internal/engine/debug"
	"github.com/Faultbox/veggieview/internal/engine/input"
	"github.com/Faultbox/veggieview/internal/engine/renderer"
	"github.com/Faultbox/veggieview/internal/engine/window"
	"github.com/Faultbox/veggieview/internal/logger"
)

// Runner owns the window for the lifetime of Run.
type Runner struct {
	Window window.Config

	// ScreenshotDir receives F12 captures. Empty disables them.
	ScreenshotDir string
}

// Run implements app.Runner. The loop polls input, steps the app,
// renders and swaps until the window closes, Escape is pressed or ctx is
// cancelled.
func (r *Runner) Run(ctx context.Context, a *app.App) (err error) {
	log := logger.Named("glhost")

	win, err := window.New(r.Window)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer func() { err = multierr.Append(err, win.Close()) }()

	dw, dh := win.DrawableSize()
	rend, err := renderer.New(renderer.Config{Width: dw, Height: dh})
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer func() { err = multierr.Append(err, rend.Close()) }()

	w, h := win.Size()
	a.Surface.Set(float64(w), float64(h))

	in := input.New()
	var shots *debug.Screenshots
	if r.ScreenshotDir != "" {
		shots = debug.NewScreenshots(r.ScreenshotDir, "veggieview")
	}
	log.Info("starting frame loop")

	for ctx.Err() == nil {
		if in.Update() {
			log.Info("quit requested")
			break
		}
		if w, h, ok := in.LastResize(); ok {
			a.Surface.Set(float64(w), float64(h))
			rend.Resize(win.DrawableSize())
		}

		a.Step()

		if err := rend.Render(a); err != nil {
			return fmt.Errorf("render error: %w", err)
		}
		if shots != nil && in.Pressed(sdl.SCANCODE_F12) {
			pixels, pw, ph := rend.ReadPixels()
			if name, err := shots.CaptureFromPixels(pixels, pw, ph); err != nil {
				log.Warn("screenshot failed", zap.Error(err))
			} else {
				log.Info("screenshot saved", zap.String("file", name))
			}
		}
		win.SwapBuffers()
	}

	if ctx.Err() != nil {
		log.Info("frame loop cancelled", zap.Error(context.Cause(ctx)))
	}
	return nil
}
