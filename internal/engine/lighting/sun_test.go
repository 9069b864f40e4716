package lighting

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/veggieview/internal/engine/app"
)

func TestSunDirection(t *testing.T) {
	tests := []struct {
		name               string
		azimuth, elevation float32
		want               mgl32.Vec3
	}{
		{"horizon front", 0, 0, mgl32.Vec3{0, 0, 1}},
		{"horizon right", 90, 0, mgl32.Vec3{1, 0, 0}},
		{"zenith", 0, 90, mgl32.Vec3{0, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SunDirection(tt.azimuth, tt.elevation)
			for i := range 3 {
				assert.InDelta(t, tt.want[i], got[i], 1e-6)
			}
			assert.InDelta(t, 1, got.Len(), 1e-6)
		})
	}
}

func TestDefaultPointsDown(t *testing.T) {
	m := Default(app.AmbientLight{Color: [3]float32{1, 1, 1}, Brightness: 0.5})
	assert.Less(t, m.Direction.Y(), float32(0))
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, m.Ambient)
}

func TestShade(t *testing.T) {
	m := Default(app.AmbientLight{Color: [3]float32{1, 1, 1}, Brightness: 1})
	white := mgl32.Vec4{1, 1, 1, 0.5}

	lit := m.Shade(white, m.Direction.Mul(-1))
	unlit := m.Shade(white, m.Direction)

	assert.InDelta(t, AmbientScale, unlit[0], 1e-6)
	assert.InDelta(t, 1, lit[0], 1e-6) // clamped
	assert.Equal(t, float32(0.5), lit[3])

	dark := Default(app.AmbientLight{Color: [3]float32{1, 1, 1}, Brightness: 0})
	assert.Zero(t, dark.Shade(white, m.Direction)[1])
}
