package assets

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"maps"
	"testing"
	"testing/fstest"
)

const triangleGLTF = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [
    {"name": "Scene", "nodes": [0]},
    {"name": "Alt", "nodes": [2]}
  ],
  "nodes": [
    {"name": "Armature", "children": [1], "rotation": [0, 0, 0.7071068, 0.7071068]},
    {"name": "Leaf", "mesh": 0, "skin": 0, "translation": [0, 1, 0]},
    {"name": "Matrix", "matrix": [2,0,0,0, 0,2,0,0, 0,0,2,0, 1,2,3,1]}
  ],
  "skins": [{"joints": [0]}],
  "meshes": [
    {"name": "tri", "primitives": [
      {"attributes": {"POSITION": 0, "TEXCOORD_0": 2}, "indices": 1, "material": 0}
    ]}
  ],
  "materials": [
    {"pbrMetallicRoughness": {"baseColorFactor": [1, 0.5, 0.5, 1], "baseColorTexture": {"index": 0}}}
  ],
  "textures": [{"source": 0}],
  "images": [{"uri": "tex.png"}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"},
    {"bufferView": 2, "componentType": 5126, "count": 3, "type": "VEC2"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6},
    {"buffer": 0, "byteOffset": 44, "byteLength": 24}
  ],
  "buffers": [{"byteLength": 68, "uri": "tri.bin"}]
}`

const trianglePath = "models/tri/scene.gltf"

// triangleBuffer lays out positions, uint16 indices, two padding bytes
// and UVs for a unit right triangle in the XY plane.
func triangleBuffer(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	write := func(v any) {
		if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
			t.Fatalf("writing buffer: %v", err)
		}
	}
	write([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0})
	write([]uint16{0, 1, 2})
	write([]byte{0, 0})
	write([]float32{0, 0, 1, 0, 0, 1})
	return buf.Bytes()
}

func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func testFS(t *testing.T) fstest.MapFS {
	t.Helper()
	return fstest.MapFS{
		trianglePath:          {Data: []byte(triangleGLTF)},
		"models/tri/tri.bin":  {Data: triangleBuffer(t)},
		"models/tri/tex.png":  {Data: solidPNG(t, 2, 2, color.RGBA{0, 255, 0, 255})},
		"models/other/a.gltf": {Data: []byte(`{"asset": {"version": "2.0"}, "scenes": [{"nodes": []}]}`)},
	}
}

func without(fsys fstest.MapFS, name string) fstest.MapFS {
	out := maps.Clone(fsys)
	delete(out, name)
	return out
}
