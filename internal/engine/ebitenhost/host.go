// Package ebitenhost runs the app inside an ebiten game loop. It draws the
// world with DrawTriangles after CPU projection, which works on every
// platform ebiten supports, browsers included.
package ebitenhost

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/Faultbox/veggieview/internal/engine/app"
	"github.com/Faultbox/veggieview/internal/engine/camera"
	"github.com/Faultbox/veggieview/internal/engine/lighting"
	"github.com/Faultbox/veggieview/internal/engine/raster"
	"github.com/Faultbox/veggieview/internal/logger"
)

// trianglesPerBatch keeps every DrawTriangles call within uint16 indices.
const trianglesPerBatch = math.MaxUint16 / 3

// Runner configures the ebiten window.
type Runner struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	VSync      bool

	// OwnsSurface makes the window's layout size authoritative for the
	// app's Surface. Leave it false when a viewport adapter manages it.
	OwnsSurface bool
}

// Run implements app.Runner. It returns when the window closes, Escape is
// pressed or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, a *app.App) error {
	ebiten.SetWindowTitle(r.Title)
	ebiten.SetWindowSize(r.Width, r.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(r.Fullscreen)
	ebiten.SetVsyncEnabled(r.VSync)

	if w, h := a.Surface.Size(); w == 0 || h == 0 {
		a.Surface.Set(float64(r.Width), float64(r.Height))
	}

	g := newGame(ctx, a, r.OwnsSurface)
	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type game struct {
	ctx         context.Context
	app         *app.App
	ownsSurface bool
	log         *zap.Logger

	white    *ebiten.Image
	vertices []ebiten.Vertex
	indices  []uint16
	noCamera bool
}

func newGame(ctx context.Context, a *app.App, ownsSurface bool) *game {
	return &game{
		ctx:         ctx,
		app:         a,
		ownsSurface: ownsSurface,
		log:         logger.Named("ebiten"),
	}
}

func (g *game) Update() error {
	if g.ctx.Err() != nil || ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.app.Step()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(toColor(g.app.Clear))

	view, err := camera.Active(g.app.World, g.app.Surface.Aspect())
	if err != nil {
		if !g.noCamera {
			g.log.Warn("nothing to draw", zap.Error(err))
			g.noCamera = true
		}
		return
	}
	g.noCamera = false

	b := screen.Bounds()
	tris, _ := raster.Project(g.app.World, view,
		float32(b.Dx()), float32(b.Dy()),
		lighting.Default(g.app.Ambient))

	if g.white == nil {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		g.white = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	}

	for start := 0; start < len(tris); start += trianglesPerBatch {
		end := min(start+trianglesPerBatch, len(tris))
		g.vertices, g.indices = appendBatch(g.vertices[:0], g.indices[:0], tris[start:end])
		screen.DrawTriangles(g.vertices, g.indices, g.white, &ebiten.DrawTrianglesOptions{
			AntiAlias: true,
		})
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.ownsSurface {
		g.app.Surface.Set(float64(outsideWidth), float64(outsideHeight))
		return outsideWidth, outsideHeight
	}
	w, h := g.app.Surface.Size()
	if w <= 0 || h <= 0 {
		return outsideWidth, outsideHeight
	}
	return int(w), int(h)
}

// appendBatch converts up to trianglesPerBatch triangles into solid
// colored vertices sampling the 1x1 white sub-image at (1, 1).
func appendBatch(vs []ebiten.Vertex, is []uint16, tris []raster.Triangle) ([]ebiten.Vertex, []uint16) {
	for _, t := range tris {
		base := uint16(len(vs))
		for _, p := range t.Points {
			vs = append(vs, ebiten.Vertex{
				DstX:   p.X(),
				DstY:   p.Y(),
				SrcX:   1,
				SrcY:   1,
				ColorR: t.Color[0],
				ColorG: t.Color[1],
				ColorB: t.Color[2],
				ColorA: t.Color[3],
			})
		}
		is = append(is, base, base+1, base+2)
	}
	return vs, is
}

func toColor(c app.ClearColor) color.NRGBA {
	conv := func(f float32) uint8 {
		return uint8(math.Round(float64(min(1, max(0, f))) * 255))
	}
	return color.NRGBA{R: conv(c[0]), G: conv(c[1]), B: conv(c[2]), A: conv(c[3])}
}
