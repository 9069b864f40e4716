package scene

import "github.com/go-gl/mathgl/mgl32"

// Transform positions an entity relative to its parent.
//
// Rotation is stored as a raw quaternion. Systems may write its components
// directly, so it is not guaranteed to be unit length; Matrix normalizes it.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3
}

// Identity returns a transform that leaves its entity at the parent origin.
func Identity() Transform {
	return Transform{
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// FromXYZ returns an identity transform translated to (x, y, z).
func FromXYZ(x, y, z float32) Transform {
	t := Identity()
	t.Translation = mgl32.Vec3{x, y, z}
	return t
}

// WithScale returns a copy of t with the given scale.
func (t Transform) WithScale(s mgl32.Vec3) Transform {
	t.Scale = s
	return t
}

// WithRotation returns a copy of t with the given rotation.
func (t Transform) WithRotation(q mgl32.Quat) Transform {
	t.Rotation = q
	return t
}

// LookingAt returns a copy of t rotated so that its forward axis (-Z)
// points at target. If target coincides with the translation, or up is
// parallel to the view direction, the rotation is left unchanged.
func (t Transform) LookingAt(target, up mgl32.Vec3) Transform {
	forward := target.Sub(t.Translation)
	if forward.Len() < 1e-6 {
		return t
	}
	forward = forward.Normalize()

	right := forward.Cross(up)
	if right.Len() < 1e-6 {
		return t
	}
	right = right.Normalize()
	trueUp := right.Cross(forward)

	basis := mgl32.Mat3FromCols(right, trueUp, forward.Mul(-1))
	t.Rotation = mgl32.Mat4ToQuat(basis.Mat4()).Normalize()
	return t
}

// Matrix returns translation * rotation * scale.
func (t Transform) Matrix() mgl32.Mat4 {
	tr := mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z())
	rot := t.Rotation.Normalize().Mat4()
	sc := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return tr.Mul4(rot).Mul4(sc)
}

// Forward returns the direction the transform faces (-Z rotated).
func (t Transform) Forward() mgl32.Vec3 {
	return t.Rotation.Normalize().Rotate(mgl32.Vec3{0, 0, -1})
}
