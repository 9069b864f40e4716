// Package anim drives the idle wobble applied to the loaded models.
//
// The motion is a pure function of elapsed time: two short sine pulses per
// second on the Y rotation, a slow sweep once every eight seconds, and a
// pulse every two seconds on a tilted X rotation baseline.
package anim

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/veggieview/internal/engine/scene"
)

const (
	// pulseRate maps a 100ms window onto half a sine lobe (~pi/200).
	pulseRate = 0.0157
	// pulseAmplitude is the peak quaternion component offset of a pulse.
	pulseAmplitude = 0.02
	// sweepRate is the Y component change per millisecond during the sweep.
	sweepRate = 0.001
	// tiltBaseline is the constant X component the pulses ride on.
	tiltBaseline = -0.16
)

// Idle writes the idle pose for elapsed into t. Only the x and y
// components of t.Rotation are ever written, and each only inside its
// time windows; outside them the previous value is kept.
func Idle(elapsed time.Duration, t *scene.Transform) {
	ms := elapsed.Milliseconds()
	if ms < 0 {
		ms = 0
	}

	my := ms % 1000
	mf := ms % 8000
	switch {
	case mf > 7500:
		t.Rotation.V[1] = float32(mf-7750) * sweepRate
	case my < 100:
		t.Rotation.V[1] = pulse(my) * pulseAmplitude
	case my >= 500 && my <= 600:
		t.Rotation.V[1] = pulse(my-500) * -pulseAmplitude
	}

	mx := ms % 4000
	switch {
	case mx > 2000 && mx < 2100:
		t.Rotation.V[0] = tiltBaseline + pulse(mx-2000)*pulseAmplitude
	case mx < 100:
		t.Rotation.V[0] = tiltBaseline + pulse(mx)*-pulseAmplitude
	}
}

func pulse(ms int64) float32 {
	return float32(math.Sin(float64(float32(ms) * pulseRate)))
}

// Breathing scales rest along Z by a slow sine, 1 +- pi/8 * 0.1, and
// writes the result into t. X and Y keep their rest values.
// It is not part of the default pipeline; enable it with animation.breathing.
func Breathing(elapsed time.Duration, rest mgl32.Vec3, t *scene.Transform) {
	k := 1 + math.Pi/8*float32(math.Sin(elapsed.Seconds()))*0.1
	t.Scale = mgl32.Vec3{rest.X(), rest.Y(), rest.Z() * k}
}
