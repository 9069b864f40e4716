package raster

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/veggieview/internal/engine/app"
	"github.com/Faultbox/veggieview/internal/engine/camera"
	"github.com/Faultbox/veggieview/internal/engine/lighting"
	"github.com/Faultbox/veggieview/internal/engine/scene"
)

// quad is a unit square in the XY plane facing +Z.
func quad(color mgl32.Vec4) *scene.Mesh {
	return &scene.Mesh{
		Positions: []mgl32.Vec3{{-0.5, -0.5, 0}, {0.5, -0.5, 0}, {0.5, 0.5, 0}, {-0.5, 0.5, 0}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
		BaseColor: color,
	}
}

func newScene(t *testing.T) (*scene.World, camera.View) {
	t.Helper()

	w := scene.NewWorld()
	cam := w.Spawn(scene.FromXYZ(0, 0, 3).LookingAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}))
	w.SetCamera(cam, camera.Perspective(45, 0.1, 100))
	return w, mustView(t, w)
}

func mustView(t *testing.T, w *scene.World) camera.View {
	t.Helper()
	w.PropagateTransforms()
	v, err := camera.Active(w, 1)
	require.NoError(t, err)
	return v
}

func flatLight() lighting.Model {
	return lighting.Default(app.AmbientLight{Color: [3]float32{1, 1, 1}, Brightness: 1})
}

func TestProjectCentersQuad(t *testing.T) {
	w, _ := newScene(t)
	e := w.Spawn(scene.Identity())
	w.AddMesh(e, quad(mgl32.Vec4{1, 1, 1, 1}))
	v := mustView(t, w)

	tris, stats := Project(w, v, 200, 100, flatLight())
	require.Len(t, tris, 2)
	assert.Equal(t, 2, stats.Submitted)
	assert.Zero(t, stats.Culled)

	var sum mgl32.Vec2
	for _, tri := range tris {
		assert.InDelta(t, 3, tri.Depth, 1e-4)
		for _, p := range tri.Points {
			sum = sum.Add(p)
		}
	}
	center := sum.Mul(1.0 / 6)
	assert.InDelta(t, 100, center.X(), 20)
	assert.InDelta(t, 50, center.Y(), 20)

	// Top vertex of the quad is above the screen center.
	assert.Less(t, tris[0].Points[2].Y(), float32(50))
}

func TestProjectCullsBackFaces(t *testing.T) {
	w, _ := newScene(t)
	e := w.Spawn(scene.Identity().WithRotation(mgl32.QuatRotate(mgl32.Pi, mgl32.Vec3{0, 1, 0})))
	w.AddMesh(e, quad(mgl32.Vec4{1, 1, 1, 1}))
	v := mustView(t, w)

	tris, stats := Project(w, v, 100, 100, flatLight())
	assert.Empty(t, tris)
	assert.Equal(t, 2, stats.Culled)
}

func TestProjectClipsBehindCamera(t *testing.T) {
	w, _ := newScene(t)
	e := w.Spawn(scene.FromXYZ(0, 0, 5))
	w.AddMesh(e, quad(mgl32.Vec4{1, 1, 1, 1}))
	off := w.Spawn(scene.FromXYZ(50, 0, 0))
	w.AddMesh(off, quad(mgl32.Vec4{1, 1, 1, 1}))
	v := mustView(t, w)

	tris, stats := Project(w, v, 100, 100, flatLight())
	assert.Empty(t, tris)
	assert.Equal(t, 4, stats.Clipped)
}

func TestProjectSortsFarToNear(t *testing.T) {
	w, _ := newScene(t)
	near := w.Spawn(scene.FromXYZ(0, 0, 1))
	w.AddMesh(near, quad(mgl32.Vec4{1, 0, 0, 1}))
	far := w.Spawn(scene.FromXYZ(0, 0, -2))
	w.AddMesh(far, quad(mgl32.Vec4{0, 0, 1, 1}))
	v := mustView(t, w)

	tris, _ := Project(w, v, 100, 100, flatLight())
	require.Len(t, tris, 4)
	for i := 1; i < len(tris); i++ {
		assert.GreaterOrEqual(t, tris[i-1].Depth, tris[i].Depth)
	}
	// Far quad is blue and drawn first; near is red and drawn last.
	assert.Zero(t, tris[0].Color[0])
	assert.Zero(t, tris[3].Color[2])
}

func TestProjectSkipsBadIndices(t *testing.T) {
	w, _ := newScene(t)
	e := w.Spawn(scene.Identity())
	w.AddMesh(e, &scene.Mesh{
		Positions: []mgl32.Vec3{{0, 0, 0}},
		Indices:   []uint32{0, 1, 2},
		BaseColor: mgl32.Vec4{1, 1, 1, 1},
	})
	v := mustView(t, w)

	tris, stats := Project(w, v, 100, 100, flatLight())
	assert.Empty(t, tris)
	assert.Equal(t, 1, stats.Clipped)
}
