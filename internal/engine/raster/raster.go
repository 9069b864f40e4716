// Package raster turns the world's meshes into screen-space, flat shaded,
// back-to-front sorted triangles for renderers without a depth buffer.
package raster

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/veggieview/internal/engine/camera"
	"github.com/Faultbox/veggieview/internal/engine/lighting"
	"github.com/Faultbox/veggieview/internal/engine/scene"
)

// minW rejects vertices on or behind the eye plane.
const minW = 1e-4

// Triangle is one projected triangle in pixel coordinates (origin top-left).
type Triangle struct {
	Points [3]mgl32.Vec2
	Depth  float32 // mean distance along the view axis
	Color  mgl32.Vec4
}

// Stats counts what Project did with the world's triangles.
type Stats struct {
	Submitted int
	Culled    int // back faces
	Clipped   int // behind the camera or off screen
}

// Project returns every visible triangle of every mesh in w, sorted far
// to near. Globals must be current.
func Project(w *scene.World, v camera.View, width, height float32, l lighting.Model) ([]Triangle, Stats) {
	var (
		out   []Triangle
		stats Stats
	)
	vp := v.ViewProjection()

	for e, mesh := range w.Meshes() {
		model := w.Global(e)
		mvp := vp.Mul4(model)
		albedo := mesh.Albedo()

		for i := 0; i+2 < len(mesh.Indices); i += 3 {
			stats.Submitted++

			var (
				clip  [3]mgl32.Vec4
				world [3]mgl32.Vec3
				ok    = true
			)
			for k := range 3 {
				idx := mesh.Indices[i+k]
				if int(idx) >= len(mesh.Positions) {
					ok = false
					break
				}
				p := mesh.Positions[idx].Vec4(1)
				clip[k] = mvp.Mul4x1(p)
				world[k] = model.Mul4x1(p).Vec3()
				if clip[k].W() <= minW {
					ok = false
				}
			}
			if !ok || offscreen(clip) {
				stats.Clipped++
				continue
			}

			var ndc [3]mgl32.Vec2
			for k := range 3 {
				ndc[k] = mgl32.Vec2{clip[k].X() / clip[k].W(), clip[k].Y() / clip[k].W()}
			}
			if signedArea(ndc) <= 0 {
				stats.Culled++
				continue
			}

			normal := world[1].Sub(world[0]).Cross(world[2].Sub(world[0]))
			if normal.Len() > 0 {
				normal = normal.Normalize()
			}

			tri := Triangle{
				Depth: (clip[0].W() + clip[1].W() + clip[2].W()) / 3,
				Color: l.Shade(albedo, normal),
			}
			for k := range 3 {
				tri.Points[k] = toScreen(ndc[k], width, height)
			}
			out = append(out, tri)
		}
	}

	slices.SortStableFunc(out, func(a, b Triangle) int {
		return cmp.Compare(b.Depth, a.Depth)
	})
	return out, stats
}

// offscreen reports whether all three vertices lie outside the same
// clip plane.
func offscreen(c [3]mgl32.Vec4) bool {
	for axis := range 3 {
		below, above := 0, 0
		for _, v := range c {
			if v[axis] < -v.W() {
				below++
			}
			if v[axis] > v.W() {
				above++
			}
		}
		if below == 3 || above == 3 {
			return true
		}
	}
	return false
}

// signedArea is positive for counter-clockwise triangles in NDC.
func signedArea(p [3]mgl32.Vec2) float32 {
	a, b, c := p[0], p[1], p[2]
	return (b.X()-a.X())*(c.Y()-a.Y()) - (c.X()-a.X())*(b.Y()-a.Y())
}

func toScreen(ndc mgl32.Vec2, width, height float32) mgl32.Vec2 {
	return mgl32.Vec2{
		(ndc.X() + 1) * 0.5 * width,
		(1 - ndc.Y()) * 0.5 * height,
	}
}
