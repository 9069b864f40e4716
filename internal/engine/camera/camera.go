// Package camera derives view and projection matrices from camera
// entities in the world.
package camera

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/veggieview/internal/engine/scene"
)

// ErrNoCamera is returned when the world has no camera entity.
var ErrNoCamera = errors.New("camera: no camera in world")

// View is everything a renderer needs from the active camera.
type View struct {
	Entity     scene.Entity
	Position   mgl32.Vec3
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

// ViewProjection returns Projection * View.
func (v View) ViewProjection() mgl32.Mat4 {
	return v.Projection.Mul4(v.View)
}

// Active returns the first camera in the world, with matrices computed
// from its global transform. Globals must be current.
func Active(w *scene.World, aspect float32) (View, error) {
	for e, cam := range w.Cameras() {
		global := w.Global(e)
		return View{
			Entity:     e,
			Position:   global.Col(3).Vec3(),
			View:       ViewMatrix(global),
			Projection: Projection(cam, aspect),
		}, nil
	}
	return View{}, ErrNoCamera
}

// ViewMatrix inverts a camera's global transform. A singular transform
// (zero scale) yields the identity.
func ViewMatrix(global mgl32.Mat4) mgl32.Mat4 {
	if global.Det() == 0 {
		return mgl32.Ident4()
	}
	return global.Inv()
}

// Projection returns the OpenGL-convention perspective matrix for cam.
func Projection(cam scene.Camera, aspect float32) mgl32.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	return mgl32.Perspective(cam.FovY, aspect, cam.Near, cam.Far)
}

// Perspective returns a camera with the given vertical field of view in degrees.
func Perspective(fovDegrees, near, far float32) scene.Camera {
	return scene.Camera{
		FovY: mgl32.DegToRad(fovDegrees),
		Near: near,
		Far:  far,
	}
}
