// Package lighting provides the light model shared by every renderer: an
// ambient term plus one directional sun.
package lighting

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/veggieview/internal/engine/app"
)

// Default sun placement, in degrees.
const (
	SunAzimuth   = -30
	SunElevation = 60
)

// AmbientScale maps an ambient brightness of 1 to this fraction of albedo.
const AmbientScale = 0.45

// SunDirection converts azimuth (rotation about Y, 0 along +Z) and
// elevation above the horizon, both in degrees, to a unit vector pointing
// towards the sun.
func SunDirection(azimuth, elevation float32) mgl32.Vec3 {
	az := float64(mgl32.DegToRad(azimuth))
	el := float64(mgl32.DegToRad(elevation))

	return mgl32.Vec3{
		float32(math.Cos(el) * math.Sin(az)),
		float32(math.Sin(el)),
		float32(math.Cos(el) * math.Cos(az)),
	}
}

// Model is an ambient term plus one directional light.
type Model struct {
	Ambient      mgl32.Vec3 // ambient color already scaled by brightness
	Direction    mgl32.Vec3 // direction the light travels, normalized
	Directional  mgl32.Vec3
	AmbientScale float32
}

// Default lights the scene with ambient plus the sun at the default
// azimuth and elevation.
func Default(ambient app.AmbientLight) Model {
	return Model{
		Ambient:      mgl32.Vec3(ambient.Color).Mul(ambient.Brightness),
		Direction:    SunDirection(SunAzimuth, SunElevation).Mul(-1),
		Directional:  mgl32.Vec3{0.7, 0.7, 0.7},
		AmbientScale: AmbientScale,
	}
}

// Shade returns albedo lit by m for a surface with world normal n.
func (m Model) Shade(albedo mgl32.Vec4, n mgl32.Vec3) mgl32.Vec4 {
	diffuse := max(0, n.Dot(m.Direction.Mul(-1)))
	var out mgl32.Vec4
	for i := range 3 {
		light := m.Ambient[i]*m.AmbientScale + m.Directional[i]*diffuse
		out[i] = min(1, albedo[i]*light)
	}
	out[3] = albedo[3]
	return out
}
