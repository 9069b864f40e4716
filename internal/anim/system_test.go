package anim

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/veggieview/internal/engine/app"
	"github.com/Faultbox/veggieview/internal/engine/scene"
)

type fixture struct {
	world    *scene.World
	camera   scene.Entity
	root     scene.Entity
	armature scene.Entity
	skin     scene.Entity
	stray    scene.Entity
}

// newFixture builds camera + model root + loaded armature with a skinned child,
// plus an unrelated entity outside any model.
func newFixture(t *testing.T) fixture {
	t.Helper()
	w := scene.NewWorld()
	f := fixture{world: w}

	f.camera = w.Spawn(scene.FromXYZ(0, 0, 3).LookingAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}))
	w.SetCamera(f.camera, scene.Camera{FovY: 0.8, Near: 0.1, Far: 100})

	f.root = w.Spawn(scene.FromXYZ(0.5, -0.7, 1.2).
		WithRotation(mgl32.QuatRotate(2.0, mgl32.Vec3{1, 0, 0})))
	w.SetSceneRoot(f.root, "models/tomato/scene.gltf#Scene0")

	var err error
	f.armature, err = w.SpawnChild(f.root, scene.Identity())
	require.NoError(t, err)
	f.skin, err = w.SpawnChild(f.armature, scene.Identity())
	require.NoError(t, err)
	w.SetSkinned(f.skin)

	f.stray = w.Spawn(scene.Identity())
	return f
}

func run(s *System, w *scene.World, elapsed time.Duration) {
	s.Run(&app.Frame{World: w, Time: app.Time{Elapsed: elapsed}})
}

func TestParseScope(t *testing.T) {
	for _, scope := range []Scope{ScopeModels, ScopeSkinned, ScopeAll} {
		got, err := ParseScope(scope.String())
		require.NoError(t, err)
		assert.Equal(t, scope, got)
	}

	_, err := ParseScope("cameras")
	assert.Error(t, err)
	assert.Equal(t, "scope(9)", Scope(9).String())
}

func TestScopeModelsLeavesCameraAlone(t *testing.T) {
	f := newFixture(t)
	camBefore := *f.world.Transform(f.camera)
	rootBefore := *f.world.Transform(f.root)

	run(&System{Scope: ScopeModels}, f.world, 0)

	assert.Equal(t, camBefore, *f.world.Transform(f.camera), "camera must not wobble")
	assert.Equal(t, rootBefore, *f.world.Transform(f.root), "placement must survive")
	assert.InDelta(t, -0.16, f.world.Transform(f.armature).Rotation.V[0], 1e-6)
	assert.InDelta(t, -0.16, f.world.Transform(f.skin).Rotation.V[0], 1e-6)
	assert.Equal(t, mgl32.QuatIdent(), f.world.Transform(f.stray).Rotation)
}

func TestScopeSkinnedTargetsSkinParent(t *testing.T) {
	f := newFixture(t)

	run(&System{Scope: ScopeSkinned}, f.world, 0)

	assert.InDelta(t, -0.16, f.world.Transform(f.armature).Rotation.V[0], 1e-6)
	assert.Equal(t, mgl32.QuatIdent(), f.world.Transform(f.skin).Rotation)
	assert.Equal(t, float32(0), f.world.Transform(f.camera).Rotation.V[0])
}

func TestScopeAllIncludesCamera(t *testing.T) {
	f := newFixture(t)

	run(&System{Scope: ScopeAll}, f.world, 0)

	for _, e := range []scene.Entity{f.camera, f.root, f.armature, f.skin, f.stray} {
		assert.InDelta(t, -0.16, f.world.Transform(e).Rotation.V[0], 1e-6, "entity %d", e)
	}
}

func TestSystemOutsideWindowsIsNoop(t *testing.T) {
	f := newFixture(t)
	var before []scene.Transform
	for _, tr := range f.world.Transforms() {
		before = append(before, *tr)
	}

	run(&System{Scope: ScopeAll}, f.world, 300*time.Millisecond)

	var after []scene.Transform
	for _, tr := range f.world.Transforms() {
		after = append(after, *tr)
	}
	assert.Equal(t, before, after)
}

func TestSystemBreathing(t *testing.T) {
	f := newFixture(t)

	run(&System{Scope: ScopeModels, Breathing: true}, f.world, 1500*time.Millisecond)

	assert.NotEqual(t, float32(1), f.world.Transform(f.armature).Scale.Z())
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, f.world.Transform(f.root).Scale)
}

func TestSystemBreathingKeepsNodeScale(t *testing.T) {
	f := newFixture(t)
	f.world.Transform(f.armature).Scale = mgl32.Vec3{2, 2, 2}
	s := &System{Scope: ScopeModels, Breathing: true}

	quarter := time.Duration(math.Pi / 2 * float64(time.Second))
	for range 5 {
		run(s, f.world, quarter)
	}

	scale := f.world.Transform(f.armature).Scale
	assert.Equal(t, float32(2), scale.X())
	assert.Equal(t, float32(2), scale.Y())
	assert.InDelta(t, 2*(1+math.Pi/8*0.1), scale.Z(), 1e-5)

	run(s, f.world, 0)
	assert.Equal(t, mgl32.Vec3{2, 2, 2}, f.world.Transform(f.armature).Scale)
}

func TestSystemName(t *testing.T) {
	assert.Equal(t, "anim.idle", (&System{}).Name())
}
