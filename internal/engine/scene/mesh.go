package scene

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is one triangle-list primitive attached to an entity.
// Meshes are shared between every instance of the asset they came from
// and must be treated as read-only once attached.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32

	// BaseColor is the linear RGBA base color factor.
	BaseColor mgl32.Vec4

	// Texture is the decoded base color texture, if any.
	Texture *image.RGBA
	// TextureMean is the average texel of Texture, used where sampling is not available.
	TextureMean mgl32.Vec4
}

// TriangleCount returns the number of indexed triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Albedo returns the flat color of the mesh: the base color factor,
// modulated by the mean texel when a texture is present.
func (m *Mesh) Albedo() mgl32.Vec4 {
	if m.Texture == nil {
		return m.BaseColor
	}
	return mgl32.Vec4{
		m.BaseColor[0] * m.TextureMean[0],
		m.BaseColor[1] * m.TextureMean[1],
		m.BaseColor[2] * m.TextureMean[2],
		m.BaseColor[3] * m.TextureMean[3],
	}
}

// Camera marks an entity as a perspective viewpoint.
type Camera struct {
	FovY float32 // vertical field of view, radians
	Near float32
	Far  float32
}

// SceneRoot marks an entity as the parent of an asset scene instance.
type SceneRoot struct {
	Handle string // e.g. models/tomato/scene.gltf#Scene0
	Loaded bool
	Err    error
}
