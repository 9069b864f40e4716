//go:build !js

package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/veggieview/internal/engine/scene"
)

func TestInterleave(t *testing.T) {
	mesh := &scene.Mesh{
		Positions: []mgl32.Vec3{{1, 2, 3}, {4, 5, 6}},
		Normals:   []mgl32.Vec3{{0, 0, 1}, {0, 1, 0}},
		UVs:       []mgl32.Vec2{{0.25, 0.75}},
	}

	got := interleave(mesh)
	assert.Equal(t, []float32{
		1, 2, 3, 0, 0, 1, 0.25, 0.75,
		4, 5, 6, 0, 1, 0, 0, 0,
	}, got)
}

func TestNormalMatrix(t *testing.T) {
	// Non-uniform scale: normals scale by the inverse.
	m := normalMatrix(mgl32.Scale3D(2, 1, 1))
	n := m.Mul3x1(mgl32.Vec3{1, 0, 0})
	assert.InDelta(t, 0.5, n.X(), 1e-6)

	// Translation does not affect normals.
	assert.Equal(t, mgl32.Ident3(), normalMatrix(mgl32.Translate3D(4, 5, 6)))

	// Degenerate scale falls back to identity.
	assert.Equal(t, mgl32.Ident3(), normalMatrix(mgl32.Scale3D(0, 1, 1)))
}
