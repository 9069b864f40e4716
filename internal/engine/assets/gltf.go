package assets

import (
	"fmt"
	"io/fs"
	"net/url"
	"path"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/veggieview/internal/engine/scene"
)

const (
	attrPosition = "POSITION"
	attrNormal   = "NORMAL"
	attrTexCoord = "TEXCOORD_0"
)

// DecodeModel reads the glTF (or GLB) file at name from fsys. External
// buffers and images resolve relative to the file's directory.
func DecodeModel(fsys fs.FS, name string, log *zap.Logger) (_ *Model, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decoding %s: malformed document: %v", name, r)
		}
	}()

	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()

	dir, err := fs.Sub(fsys, path.Dir(name))
	if err != nil {
		return nil, fmt.Errorf("resolving directory of %s: %w", name, err)
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoderFS(f, dir).Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	b := &modelBuilder{
		doc:       doc,
		dir:       dir,
		log:       log.With(zap.String("model", name)),
		materials: make(map[int]material),
	}
	return b.build(name)
}

type material struct {
	baseColor mgl32.Vec4
	texture   *textureData
}

type modelBuilder struct {
	doc       *gltf.Document
	dir       fs.FS
	log       *zap.Logger
	materials map[int]material
	meshes    [][]*scene.Mesh
}

func (b *modelBuilder) build(name string) (*Model, error) {
	m := &Model{Path: name}

	b.meshes = make([][]*scene.Mesh, len(b.doc.Meshes))
	for i, gm := range b.doc.Meshes {
		meshes, err := b.mesh(gm)
		if err != nil {
			return nil, fmt.Errorf("%s: mesh %d (%s): %w", name, i, gm.Name, err)
		}
		b.meshes[i] = meshes
	}

	m.Nodes = make([]Node, len(b.doc.Nodes))
	for i, gn := range b.doc.Nodes {
		n := Node{
			Name:      gn.Name,
			Transform: nodeTransform(gn),
			Children:  gn.Children,
			Skinned:   gn.Skin != nil,
		}
		if gn.Mesh != nil {
			if *gn.Mesh < 0 || *gn.Mesh >= len(b.meshes) {
				return nil, fmt.Errorf("%s: node %d references missing mesh %d", name, i, *gn.Mesh)
			}
			n.Meshes = b.meshes[*gn.Mesh]
		}
		m.Nodes[i] = n
	}

	for _, gs := range b.doc.Scenes {
		m.Scenes = append(m.Scenes, SceneDef{Name: gs.Name, Roots: gs.Nodes})
	}

	b.log.Debug("model decoded",
		zap.Int("nodes", len(m.Nodes)),
		zap.Int("scenes", len(m.Scenes)),
		zap.Int("triangles", m.TriangleCount()),
	)
	return m, nil
}

func (b *modelBuilder) mesh(gm *gltf.Mesh) ([]*scene.Mesh, error) {
	var out []*scene.Mesh
	for pi, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			b.log.Debug("skipping non-triangle primitive",
				zap.String("mesh", gm.Name), zap.Int("primitive", pi))
			continue
		}

		posIdx, ok := prim.Attributes[attrPosition]
		if !ok {
			b.log.Debug("skipping primitive without positions",
				zap.String("mesh", gm.Name), zap.Int("primitive", pi))
			continue
		}
		acr, err := b.accessor(posIdx)
		if err != nil {
			return nil, fmt.Errorf("primitive %d positions: %w", pi, err)
		}
		positions, err := modeler.ReadPosition(b.doc, acr, nil)
		if err != nil {
			return nil, fmt.Errorf("primitive %d positions: %w", pi, err)
		}

		mesh := &scene.Mesh{
			Name:      gm.Name,
			Positions: toVec3(positions),
			BaseColor: mgl32.Vec4{1, 1, 1, 1},
		}

		if prim.Indices != nil {
			acr, err := b.accessor(*prim.Indices)
			if err != nil {
				return nil, fmt.Errorf("primitive %d indices: %w", pi, err)
			}
			mesh.Indices, err = modeler.ReadIndices(b.doc, acr, nil)
			if err != nil {
				return nil, fmt.Errorf("primitive %d indices: %w", pi, err)
			}
		} else {
			mesh.Indices = make([]uint32, len(positions))
			for i := range mesh.Indices {
				mesh.Indices[i] = uint32(i)
			}
		}
		mesh.Indices = mesh.Indices[:len(mesh.Indices)/3*3]
		for _, i := range mesh.Indices {
			if int(i) >= len(positions) {
				return nil, fmt.Errorf("primitive %d: index %d exceeds %d vertices", pi, i, len(positions))
			}
		}

		if idx, ok := prim.Attributes[attrNormal]; ok {
			acr, err := b.accessor(idx)
			if err != nil {
				return nil, fmt.Errorf("primitive %d normals: %w", pi, err)
			}
			normals, err := modeler.ReadNormal(b.doc, acr, nil)
			if err != nil {
				return nil, fmt.Errorf("primitive %d normals: %w", pi, err)
			}
			if len(normals) != len(positions) {
				return nil, fmt.Errorf("primitive %d: %d normals for %d vertices", pi, len(normals), len(positions))
			}
			mesh.Normals = toVec3(normals)
		} else {
			mesh.Normals = ComputeNormals(mesh.Positions, mesh.Indices)
		}

		if idx, ok := prim.Attributes[attrTexCoord]; ok {
			acr, err := b.accessor(idx)
			if err != nil {
				return nil, fmt.Errorf("primitive %d uvs: %w", pi, err)
			}
			uvs, err := modeler.ReadTextureCoord(b.doc, acr, nil)
			if err != nil {
				return nil, fmt.Errorf("primitive %d uvs: %w", pi, err)
			}
			if len(uvs) != len(positions) {
				return nil, fmt.Errorf("primitive %d: %d uvs for %d vertices", pi, len(uvs), len(positions))
			}
			mesh.UVs = make([]mgl32.Vec2, len(uvs))
			for i, uv := range uvs {
				mesh.UVs[i] = mgl32.Vec2{uv[0], uv[1]}
			}
		}

		if prim.Material != nil {
			mat := b.material(*prim.Material)
			mesh.BaseColor = mat.baseColor
			if mat.texture != nil && mesh.UVs != nil {
				mesh.Texture = mat.texture.rgba
				mesh.TextureMean = mat.texture.mean
			}
		}

		out = append(out, mesh)
	}
	return out, nil
}

// accessor returns accessor idx after checking that it and the buffer
// view and buffer behind it exist.
func (b *modelBuilder) accessor(idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(b.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	acr := b.doc.Accessors[idx]
	if acr.BufferView != nil {
		if _, err := b.bufferView(*acr.BufferView); err != nil {
			return nil, fmt.Errorf("accessor %d: %w", idx, err)
		}
	}
	return acr, nil
}

func (b *modelBuilder) bufferView(idx int) (*gltf.BufferView, error) {
	if idx < 0 || idx >= len(b.doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", idx)
	}
	bv := b.doc.BufferViews[idx]
	if bv.Buffer < 0 || bv.Buffer >= len(b.doc.Buffers) {
		return nil, fmt.Errorf("buffer view %d: buffer %d out of range", idx, bv.Buffer)
	}
	return bv, nil
}

// material resolves a glTF material once per document. Texture failures
// leave the material untextured rather than failing the model.
func (b *modelBuilder) material(idx int) material {
	if mat, ok := b.materials[idx]; ok {
		return mat
	}

	mat := material{baseColor: mgl32.Vec4{1, 1, 1, 1}}
	defer func() { b.materials[idx] = mat }()

	if idx < 0 || idx >= len(b.doc.Materials) {
		b.log.Warn("primitive references missing material", zap.Int("material", idx))
		return mat
	}
	pbr := b.doc.Materials[idx].PBRMetallicRoughness
	if pbr == nil {
		return mat
	}

	f := pbr.BaseColorFactorOrDefault()
	mat.baseColor = mgl32.Vec4{float32(f[0]), float32(f[1]), float32(f[2]), float32(f[3])}

	if pbr.BaseColorTexture == nil {
		return mat
	}
	tex, err := b.texture(pbr.BaseColorTexture.Index)
	if err != nil {
		b.log.Warn("base color texture unavailable",
			zap.Int("material", idx), zap.Error(err))
		return mat
	}
	mat.texture = tex
	return mat
}

func (b *modelBuilder) texture(idx int) (*textureData, error) {
	if idx < 0 || idx >= len(b.doc.Textures) {
		return nil, fmt.Errorf("texture %d out of range", idx)
	}
	src := b.doc.Textures[idx].Source
	if src == nil || *src < 0 || *src >= len(b.doc.Images) {
		return nil, fmt.Errorf("texture %d has no image", idx)
	}

	data, err := b.imageData(b.doc.Images[*src])
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", *src, err)
	}
	return decodeTexture(data)
}

func (b *modelBuilder) imageData(img *gltf.Image) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		bv, err := b.bufferView(*img.BufferView)
		if err != nil {
			return nil, err
		}
		buf := b.doc.Buffers[bv.Buffer].Data
		end := bv.ByteOffset + bv.ByteLength
		if bv.ByteOffset < 0 || end > len(buf) {
			return nil, fmt.Errorf("buffer view %d exceeds buffer", *img.BufferView)
		}
		return buf[bv.ByteOffset:end], nil

	case img.IsEmbeddedResource():
		return img.MarshalData()

	case img.URI != "":
		name, err := url.PathUnescape(img.URI)
		if err != nil {
			return nil, fmt.Errorf("image uri %q: %w", img.URI, err)
		}
		return fs.ReadFile(b.dir, path.Clean(name))

	default:
		return nil, fmt.Errorf("image has no data")
	}
}

// nodeTransform converts a node's TRS or matrix into a Transform.
func nodeTransform(n *gltf.Node) scene.Transform {
	if n.Matrix != [16]float64{} && n.MatrixOrDefault() != identityMatrix {
		var m mgl32.Mat4
		for i, v := range n.MatrixOrDefault() {
			m[i] = float32(v)
		}
		return decompose(m)
	}

	t := scene.Identity()
	t.Translation = mgl32.Vec3{float32(n.Translation[0]), float32(n.Translation[1]), float32(n.Translation[2])}
	r := n.RotationOrDefault()
	t.Rotation = mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}
	s := n.ScaleOrDefault()
	t.Scale = mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}
	return t
}

var identityMatrix = [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// decompose splits a column-major affine matrix into TRS. Shear is lost.
func decompose(m mgl32.Mat4) scene.Transform {
	t := scene.Identity()
	t.Translation = m.Col(3).Vec3()

	c0, c1, c2 := m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()
	sx, sy, sz := c0.Len(), c1.Len(), c2.Len()
	if m.Mat3().Det() < 0 {
		sx = -sx
	}
	t.Scale = mgl32.Vec3{sx, sy, sz}
	if sx == 0 || sy == 0 || sz == 0 {
		return t
	}

	rot := mgl32.Mat3FromCols(c0.Mul(1/sx), c1.Mul(1/sy), c2.Mul(1/sz))
	t.Rotation = mgl32.Mat4ToQuat(rot.Mat4()).Normalize()
	return t
}

func toVec3(in [][3]float32) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(in))
	for i, v := range in {
		out[i] = mgl32.Vec3(v)
	}
	return out
}
