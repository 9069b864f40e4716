package scene

import (
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d of %v", i, got)
	}
}

func TestIdentity(t *testing.T) {
	tr := Identity()
	assert.Equal(t, mgl32.Ident4(), tr.Matrix())
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, tr.Scale)
}

func TestMatrixOrder(t *testing.T) {
	// Scale, then rotate 90 degrees about Y, then translate
	tr := FromXYZ(10, 0, 0).
		WithScale(mgl32.Vec3{2, 2, 2}).
		WithRotation(mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}))

	p := tr.Matrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	assertVec3(t, mgl32.Vec3{10, 0, -2}, p)
}

func TestMatrixNormalizesRotation(t *testing.T) {
	tr := Identity()
	// Raw component writes leave the quaternion off unit length
	tr.Rotation.V[0] = -0.16

	m := tr.Matrix()
	x := m.Mul4x1(mgl32.Vec4{1, 0, 0, 0}).Vec3()
	assert.InDelta(t, 1.0, x.Len(), 1e-5)
}

func TestLookingAt(t *testing.T) {
	cam := FromXYZ(0, 0, 3).LookingAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	assertVec3(t, mgl32.Vec3{0, 0, -1}, cam.Forward())

	side := FromXYZ(3, 0, 0).LookingAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	assertVec3(t, mgl32.Vec3{-1, 0, 0}, side.Forward())

	// Degenerate inputs leave the rotation alone
	same := FromXYZ(1, 1, 1).LookingAt(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{0, 1, 0})
	assert.Equal(t, mgl32.QuatIdent(), same.Rotation)
	down := FromXYZ(0, 5, 0).LookingAt(mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	assert.Equal(t, mgl32.QuatIdent(), down.Rotation)
}

func TestMeshAlbedo(t *testing.T) {
	m := &Mesh{BaseColor: mgl32.Vec4{1, 0.5, 1, 1}}
	assert.Equal(t, mgl32.Vec4{1, 0.5, 1, 1}, m.Albedo())

	m.Texture = image.NewRGBA(image.Rect(0, 0, 1, 1))
	m.TextureMean = mgl32.Vec4{0.5, 0.5, 0, 1}
	assert.Equal(t, mgl32.Vec4{0.5, 0.25, 0, 1}, m.Albedo())
}
