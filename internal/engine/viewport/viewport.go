// Package viewport keeps the render surface the same size as the page
// viewport when the viewer is embedded in a browser canvas.
package viewport

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/veggieview/internal/engine/app"
	"github.com/Faultbox/veggieview/internal/logger"
)

// ErrNoWindow is returned when the embedding page's window handle is unavailable.
var ErrNoWindow = errors.New("viewport: embedding page window unavailable")

// Host is the capability the adapter needs from the platform.
type Host interface {
	// ViewportSize returns the embedding page's inner size.
	ViewportSize() (width, height float64, err error)
	// SurfaceSize returns the current render surface resolution.
	SurfaceSize() (width, height float64)
	// SetSurfaceSize changes the render surface resolution.
	SetSurfaceSize(width, height float64)
}

// Noop is the Host for standalone windows, where the windowing layer
// already owns the surface size.
type Noop struct{}

func (Noop) ViewportSize() (float64, float64, error) { return 0, 0, nil }
func (Noop) SurfaceSize() (float64, float64)         { return 0, 0 }
func (Noop) SetSurfaceSize(float64, float64)         {}

// Adapter reconciles the surface with the page once per frame.
type Adapter struct {
	host    Host
	log     *zap.Logger
	missing bool // page handle was unavailable on the previous frame
	resizes int
}

// NewAdapter creates an adapter over host.
func NewAdapter(host Host) *Adapter {
	return &Adapter{host: host, log: logger.Named("viewport")}
}

// Sync copies the page size onto the surface if they differ.
// A missing page handle skips the frame; it is logged once per outage.
func (a *Adapter) Sync() {
	width, height, err := a.host.ViewportSize()
	if err != nil {
		if !a.missing {
			a.log.Warn("skipping resize", zap.Error(err))
		}
		a.missing = true
		return
	}
	if a.missing {
		a.log.Info("page viewport available again")
		a.missing = false
	}

	curW, curH := a.host.SurfaceSize()
	if curW == width && curH == height {
		return
	}

	a.host.SetSurfaceSize(width, height)
	a.resizes++
	a.log.Debug("surface resized",
		zap.Float64("width", width),
		zap.Float64("height", height),
	)
}

// Resizes returns how many times Sync changed the surface.
func (a *Adapter) Resizes() int {
	return a.resizes
}

// Name implements the app's system naming hook.
func (a *Adapter) Name() string { return "viewport.sync" }

// Run implements app.System.
func (a *Adapter) Run(*app.Frame) {
	a.Sync()
}

// Plugin registers the adapter for hosts that need it. A nil or Noop
// host registers nothing.
type Plugin struct {
	Host Host
}

// Build implements app.Plugin.
func (p Plugin) Build(a *app.App) {
	switch p.Host.(type) {
	case nil, Noop, *Noop:
		return
	}
	a.AddSystem(app.StageUpdate, NewAdapter(p.Host))
}

// surfaceHost adapts an app.Surface plus a page size source into a Host.
type surfaceHost struct {
	surface *app.Surface
	page    func() (float64, float64, error)
}

func (h surfaceHost) ViewportSize() (float64, float64, error) { return h.page() }
func (h surfaceHost) SurfaceSize() (float64, float64)         { return h.surface.Size() }
func (h surfaceHost) SetSurfaceSize(w, hh float64)            { h.surface.Set(w, hh) }
