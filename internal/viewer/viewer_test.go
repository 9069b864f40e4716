package viewer

import (
	"math"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/veggieview/internal/anim"
	"github.com/Faultbox/veggieview/internal/config"
	"github.com/Faultbox/veggieview/internal/engine/app"
	"github.com/Faultbox/veggieview/internal/engine/assets"
	"github.com/Faultbox/veggieview/internal/engine/scene"
)

// A node-only glTF: Stem with one Leaf child, no geometry.
const stemGLTF = `{
  "asset": {"version": "2.0"},
  "scenes": [{"nodes": [0]}],
  "nodes": [
    {"name": "Stem", "children": [1]},
    {"name": "Leaf", "translation": [0, 0.2, 0]}
  ]
}`

func veggieFS() fstest.MapFS {
	return fstest.MapFS{
		"models/broccoli/scene.gltf": {Data: []byte(stemGLTF)},
		"models/tomato/scene.gltf":   {Data: []byte(stemGLTF)},
	}
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type fakeHost struct {
	surface *app.Surface
}

func (h fakeHost) ViewportSize() (float64, float64, error) { return 640, 360, nil }
func (h fakeHost) SurfaceSize() (float64, float64)         { return h.surface.Size() }
func (h fakeHost) SetSurfaceSize(w, hh float64)            { h.surface.Set(w, hh) }

func newViewer(t *testing.T, scope anim.Scope) (*app.App, *assets.Server, *fakeClock) {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	a := app.New()
	a.Clock = clock.Now

	srv := assets.NewServer(veggieFS())
	a.AddPlugin(&Plugin{
		Scene:    config.Default().Scene,
		Scope:    scope,
		Assets:   srv,
		Viewport: fakeHost{surface: &a.Surface},
	})
	t.Cleanup(func() { require.NoError(t, a.Close()) })
	return a, srv, clock
}

func entityNamed(w *scene.World, name string) []scene.Entity {
	var out []scene.Entity
	for e := range w.Transforms() {
		if w.Name(e) == name {
			out = append(out, e)
		}
	}
	return out
}

func TestPluginResources(t *testing.T) {
	a, _, _ := newViewer(t, anim.ScopeModels)

	assert.Equal(t, app.ClearColor{1, 1, 1, 1}, a.Clear)
	assert.Equal(t, float32(1), a.Ambient.Brightness)
}

func TestPluginSystemOrder(t *testing.T) {
	a, _, _ := newViewer(t, anim.ScopeModels)

	var names []string
	for _, s := range a.Stats() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"viewer.setup",
		"assets.spawn",
		"viewport.sync",
		"anim.idle",
		"transform.propagate",
	}, names)
}

func TestSetupSpawnsCameraAndModels(t *testing.T) {
	w := scene.NewWorld()
	srv := assets.NewServer(veggieFS())
	defer srv.Close()

	require.NoError(t, Setup(w, config.Default().Scene, srv))

	cams := 0
	for e, cam := range w.Cameras() {
		cams++
		assert.Equal(t, mgl32.Vec3{0, 0, 3}, w.Transform(e).Translation)
		assert.InDelta(t, mgl32.DegToRad(45), cam.FovY, 1e-6)
		assert.Equal(t, float32(0.1), cam.Near)
		assert.Equal(t, float32(100), cam.Far)
		// Looking at the origin from +Z needs no rotation.
		assert.InDelta(t, 1, math.Abs(float64(w.Transform(e).Rotation.W)), 1e-6)
	}
	assert.Equal(t, 1, cams)

	var roots []scene.Entity
	for e, sr := range w.SceneRoots() {
		roots = append(roots, e)
		assert.False(t, sr.Loaded)
	}
	require.Len(t, roots, 2)

	broccoli := w.Transform(roots[0])
	assert.Equal(t, mgl32.Vec3{-0.5, -0.7, 1.2}, broccoli.Translation)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, broccoli.Scale)

	tomato := w.Transform(roots[1])
	assert.Equal(t, mgl32.Vec3{0.5, -0.7, 1.2}, tomato.Translation)
	assert.Equal(t, mgl32.Vec3{0.6, 0.6, 0.6}, tomato.Scale)
	assert.InDelta(t, math.Cos(1), tomato.Rotation.W, 1e-6)
	assert.InDelta(t, math.Sin(1), tomato.Rotation.V[0], 1e-6)
}

func TestSetupSkipsBadHandles(t *testing.T) {
	w := scene.NewWorld()
	srv := assets.NewServer(veggieFS())
	defer srv.Close()

	cfg := config.Default().Scene
	cfg.Models = append(cfg.Models, config.ModelConfig{Asset: "models/tomato/scene.gltf#Bad"})

	err := Setup(w, cfg, srv)
	assert.ErrorIs(t, err, assets.ErrBadHandle)

	roots := 0
	for range w.SceneRoots() {
		roots++
	}
	assert.Equal(t, 2, roots)
}

func TestFrameAnimatesLoadedModels(t *testing.T) {
	a, srv, clock := newViewer(t, anim.ScopeModels)

	a.Startup()
	srv.Wait()

	clock.now = clock.now.Add(2050 * time.Millisecond)
	a.Step()

	stems := entityNamed(a.World, "Stem")
	require.Len(t, stems, 2)
	half := math.Sin(50 * 0.0157)
	for _, e := range stems {
		rot := a.World.Transform(e).Rotation
		assert.InDelta(t, half*0.02, rot.V[1], 1e-5)
		assert.InDelta(t, -0.16+half*0.02, rot.V[0], 1e-5)
	}

	// The camera and the placed roots are left alone.
	for e := range a.World.Cameras() {
		assert.Zero(t, a.World.Transform(e).Rotation.V[0])
	}
	for e := range a.World.SceneRoots() {
		assert.Zero(t, a.World.Transform(e).Rotation.V[1])
	}

	// Viewport followed the page and globals are current.
	assert.Equal(t, app.Surface{Width: 640, Height: 360}, a.Surface)
	leaf := entityNamed(a.World, "Leaf")[0]
	assert.NotEqual(t, mgl32.Ident4(), a.World.Global(leaf))
}

func TestFrameScopeAllMovesCamera(t *testing.T) {
	a, srv, clock := newViewer(t, anim.ScopeAll)

	a.Startup()
	srv.Wait()
	clock.now = clock.now.Add(2050 * time.Millisecond)
	a.Step()

	for e := range a.World.Cameras() {
		assert.NotZero(t, a.World.Transform(e).Rotation.V[0])
	}
}

func TestNewApp(t *testing.T) {
	cfg := config.Default()
	a, err := NewApp(cfg, veggieFS())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, app.Surface{Width: 1280, Height: 720}, a.Surface)
	assert.Equal(t, []string{"Plugin"}, a.Plugins()[:1])

	cfg.Animation.Scope = "sideways"
	_, err = NewApp(cfg, veggieFS())
	assert.Error(t, err)
}

func TestModelTransformDefaults(t *testing.T) {
	tr := ModelTransform(config.ModelConfig{Position: [3]float32{1, 2, 3}})
	assert.Equal(t, scene.FromXYZ(1, 2, 3), tr)
}
