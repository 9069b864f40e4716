//go:build !js

// Package renderer draws the world's meshes with OpenGL in one forward pass.
package renderer

import (
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/veggieview/internal/engine/app"
	"github.com/Faultbox/veggieview/internal/engine/camera"
	"github.com/Faultbox/veggieview/internal/engine/lighting"
	"github.com/Faultbox/veggieview/internal/engine/scene"
	"github.com/Faultbox/veggieview/internal/engine/shader"
	"github.com/Faultbox/veggieview/internal/logger"
)

// floatsPerVertex is position(3) + normal(3) + uv(2).
const floatsPerVertex = 8

const vertexShader = `
#version 410 core

layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aUV;

uniform mat4 uViewProj;
uniform mat4 uModel;
uniform mat3 uNormalMatrix;

out vec3 vNormal;
out vec2 vUV;

void main() {
	vNormal = uNormalMatrix * aNormal;
	vUV = aUV;
	gl_Position = uViewProj * uModel * vec4(aPos, 1.0);
}
`

const fragmentShader = `
#version 410 core

in vec3 vNormal;
in vec2 vUV;

uniform vec4 uBaseColor;
uniform sampler2D uTexture;
uniform int uHasTexture;

uniform vec3 uAmbient;
uniform float uAmbientScale;
uniform vec3 uLightDir;
uniform vec3 uLightColor;

out vec4 FragColor;

void main() {
	vec4 albedo = uBaseColor;
	if (uHasTexture == 1) {
		albedo *= texture(uTexture, vUV);
	}
	float diffuse = max(dot(normalize(vNormal), -uLightDir), 0.0);
	vec3 light = uAmbient * uAmbientScale + uLightColor * diffuse;
	FragColor = vec4(min(albedo.rgb * light, vec3(1.0)), albedo.a);
}
`

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
}

type gpuMesh struct {
	vao, vbo, ebo uint32
	count         int32
	texture       uint32
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config   Config
	program  *shader.Program
	meshes   map[*scene.Mesh]*gpuMesh
	textures map[*image.RGBA]uint32
	log      *zap.Logger

	warnedNoCamera bool
}

// New creates a renderer. The GL context must already be current.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:   cfg,
		meshes:   make(map[*scene.Mesh]*gpuMesh),
		textures: make(map[*image.RGBA]uint32),
		log:      logger.Named("renderer"),
	}

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	gl.Enable(gl.MULTISAMPLE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	var err error
	r.program, err = shader.New(vertexShader, fragmentShader)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader program: %w", err)
	}

	r.Resize(cfg.Width, cfg.Height)
	return r, nil
}

// Resize sets the GL viewport to the drawable size.
func (r *Renderer) Resize(width, height int) {
	r.config.Width = width
	r.config.Height = height
	gl.Viewport(0, 0, int32(width), int32(height))
	r.log.Debug("renderer resized",
		zap.Int("width", width),
		zap.Int("height", height),
	)
}

// Render clears to the app's clear color and draws every mesh from the
// active camera.
func (r *Renderer) Render(a *app.App) error {
	c := a.Clear
	gl.ClearColor(c[0], c[1], c[2], c[3])
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	view, err := camera.Active(a.World, a.Surface.Aspect())
	if errors.Is(err, camera.ErrNoCamera) {
		if !r.warnedNoCamera {
			r.log.Warn("nothing to draw", zap.Error(err))
			r.warnedNoCamera = true
		}
		return nil
	}
	if err != nil {
		return err
	}
	r.warnedNoCamera = false

	light := lighting.Default(a.Ambient)

	r.program.Use()
	r.program.SetMat4("uViewProj", view.ViewProjection())
	r.program.SetVec3("uAmbient", light.Ambient)
	r.program.SetFloat("uAmbientScale", light.AmbientScale)
	r.program.SetVec3("uLightDir", light.Direction)
	r.program.SetVec3("uLightColor", light.Directional)
	r.program.SetInt("uTexture", 0)

	for e, mesh := range a.World.Meshes() {
		gm, err := r.upload(mesh)
		if err != nil {
			return fmt.Errorf("uploading mesh %q: %w", mesh.Name, err)
		}
		if gm.count == 0 {
			continue
		}

		model := a.World.Global(e)
		r.program.SetMat4("uModel", model)
		r.program.SetMat3("uNormalMatrix", normalMatrix(model))
		r.program.SetVec4("uBaseColor", mesh.BaseColor)

		if gm.texture != 0 {
			gl.ActiveTexture(gl.TEXTURE0)
			gl.BindTexture(gl.TEXTURE_2D, gm.texture)
			r.program.SetInt("uHasTexture", 1)
		} else {
			r.program.SetInt("uHasTexture", 0)
		}

		gl.BindVertexArray(gm.vao)
		gl.DrawElements(gl.TRIANGLES, gm.count, gl.UNSIGNED_INT, nil)
	}
	gl.BindVertexArray(0)
	return nil
}

// upload creates GPU buffers for mesh on first use.
func (r *Renderer) upload(mesh *scene.Mesh) (*gpuMesh, error) {
	if gm, ok := r.meshes[mesh]; ok {
		return gm, nil
	}

	gm := &gpuMesh{count: int32(len(mesh.Indices))}
	r.meshes[mesh] = gm
	if gm.count == 0 || len(mesh.Positions) == 0 {
		gm.count = 0
		return gm, nil
	}

	vertices := interleave(mesh)

	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)

	gl.GenBuffers(1, &gm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &gm.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)

	stride := int32(floatsPerVertex * 4)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, nil)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(3*4)))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(2, 2, gl.FLOAT, false, stride, unsafe.Pointer(uintptr(6*4)))
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if mesh.Texture != nil {
		gm.texture = r.texture(mesh.Texture)
	}

	r.log.Debug("mesh uploaded",
		zap.String("mesh", mesh.Name),
		zap.Int("vertices", len(mesh.Positions)),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Bool("textured", gm.texture != 0),
	)
	return gm, nil
}

func (r *Renderer) texture(img *image.RGBA) uint32 {
	if id, ok := r.textures[img]; ok {
		return id
	}

	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)

	b := img.Bounds()
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	r.textures[img] = id
	return id
}

// ReadPixels returns the back buffer as bottom-up RGBA rows.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	w, h := r.config.Width, r.config.Height
	pixels := make([]byte, w*h*4)
	if len(pixels) == 0 {
		return pixels, w, h
	}
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, w, h
}

// Close frees every GPU resource.
func (r *Renderer) Close() error {
	r.log.Info("closing renderer", zap.Int("meshes", len(r.meshes)), zap.Int("textures", len(r.textures)))

	for _, gm := range r.meshes {
		if gm.vao != 0 {
			gl.DeleteVertexArrays(1, &gm.vao)
		}
		if gm.vbo != 0 {
			gl.DeleteBuffers(1, &gm.vbo)
		}
		if gm.ebo != 0 {
			gl.DeleteBuffers(1, &gm.ebo)
		}
	}
	for _, id := range r.textures {
		gl.DeleteTextures(1, &id)
	}
	r.meshes = map[*scene.Mesh]*gpuMesh{}
	r.textures = map[*image.RGBA]uint32{}

	if r.program != nil {
		r.program.Delete()
	}
	return glError()
}

func glError() error {
	if code := gl.GetError(); code != gl.NO_ERROR {
		return fmt.Errorf("gl error 0x%x", code)
	}
	return nil
}

// interleave packs position, normal and uv per vertex. Missing normals
// or uvs are zero filled.
func interleave(mesh *scene.Mesh) []float32 {
	out := make([]float32, 0, len(mesh.Positions)*floatsPerVertex)
	for i, p := range mesh.Positions {
		var n mgl32.Vec3
		if i < len(mesh.Normals) {
			n = mesh.Normals[i]
		}
		var uv mgl32.Vec2
		if i < len(mesh.UVs) {
			uv = mesh.UVs[i]
		}
		out = append(out, p[0], p[1], p[2], n[0], n[1], n[2], uv[0], uv[1])
	}
	return out
}

// normalMatrix is the inverse transpose of the model's upper 3x3.
func normalMatrix(model mgl32.Mat4) mgl32.Mat3 {
	m := model.Mat3()
	if m.Det() == 0 {
		return mgl32.Ident3()
	}
	return m.Inv().Transpose()
}
