package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHandle(t *testing.T) {
	tests := []struct {
		in   string
		want Handle
	}{
		{"models/tomato/scene.gltf#Scene0", Handle{Path: "models/tomato/scene.gltf"}},
		{"models/broccoli/scene.gltf#Scene3", Handle{Path: "models/broccoli/scene.gltf", Scene: 3}},
		{"models/tomato/scene.gltf", Handle{Path: "models/tomato/scene.gltf"}},
		{"./models//tomato/scene.glb", Handle{Path: "models/tomato/scene.glb"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHandle(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHandleRejects(t *testing.T) {
	for _, in := range []string{
		"",
		"#Scene0",
		"/abs/scene.gltf",
		"../escape/scene.gltf",
		"scene.gltf#Mesh0",
		"scene.gltf#Scene",
		"scene.gltf#Scene-1",
		"scene.gltf#SceneX",
		"scene.gltf#Scene+1",
		"scene.gltf#Scene 1",
		"scene.gltf#Scene1x",
		"scene.gltf#Scene99999999999999999999",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseHandle(in)
			assert.ErrorIs(t, err, ErrBadHandle)
		})
	}
}

func TestHandleString(t *testing.T) {
	h, err := ParseHandle("models/tomato/scene.gltf")
	require.NoError(t, err)
	assert.Equal(t, "models/tomato/scene.gltf#Scene0", h.String())
}

func TestCache(t *testing.T) {
	c := NewCache[int]()

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("a", 7)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, c.Len())

	hits, misses := c.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	c.Clear()
	hits, misses = c.Stats()
	assert.Zero(t, c.Len())
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}
