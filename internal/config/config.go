// Package config handles viewer configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/veggieview/internal/anim"
)

// Rendering backends selectable with graphics.backend.
const (
	BackendGL     = "gl"
	BackendEbiten = "ebiten"
)

// Config holds all viewer settings.
type Config struct {
	Graphics  GraphicsConfig  `yaml:"graphics"`
	Scene     SceneConfig     `yaml:"scene"`
	Animation AnimationConfig `yaml:"animation"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
	Backend    string `yaml:"backend"` // "gl" or "ebiten"

	// ScreenshotDir receives F12 captures from the gl backend.
	ScreenshotDir string `yaml:"screenshot_dir"`
}

// SceneConfig describes what the startup stage puts into the world.
type SceneConfig struct {
	AssetRoot         string        `yaml:"asset_root"`
	ClearColor        [4]float32    `yaml:"clear_color"`
	AmbientBrightness float32       `yaml:"ambient_brightness"`
	Camera            CameraConfig  `yaml:"camera"`
	Models            []ModelConfig `yaml:"models"`
}

// CameraConfig places the scene camera.
type CameraConfig struct {
	Position   [3]float32 `yaml:"position"`
	Target     [3]float32 `yaml:"target"`
	FovDegrees float32    `yaml:"fov_degrees"`
	Near       float32    `yaml:"near"`
	Far        float32    `yaml:"far"`
}

// ModelConfig is one scene asset instance.
type ModelConfig struct {
	Asset     string     `yaml:"asset"` // e.g. models/tomato/scene.gltf#Scene0
	Position  [3]float32 `yaml:"position"`
	Scale     float32    `yaml:"scale"`      // uniform; 0 means 1
	RotationX float32    `yaml:"rotation_x"` // radians
}

// AnimationConfig controls the idle animation system.
type AnimationConfig struct {
	Scope     string `yaml:"scope"` // models, skinned or all
	Breathing bool   `yaml:"breathing"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the stock broccoli and tomato scene.
func Default() *Config {
	return &Config{
		Graphics: GraphicsConfig{
			Title:      "Veggie View",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			Backend:    BackendGL,

			ScreenshotDir: "screenshots",
		},
		Scene: SceneConfig{
			AssetRoot:         "assets",
			ClearColor:        [4]float32{1, 1, 1, 1},
			AmbientBrightness: 1.0,
			Camera: CameraConfig{
				Position:   [3]float32{0, 0, 3},
				Target:     [3]float32{0, 0, 0},
				FovDegrees: 45,
				Near:       0.1,
				Far:        100,
			},
			Models: []ModelConfig{
				{
					Asset:    "models/broccoli/scene.gltf#Scene0",
					Position: [3]float32{-0.5, -0.7, 1.2},
				},
				{
					Asset:     "models/tomato/scene.gltf#Scene0",
					Position:  [3]float32{0.5, -0.7, 1.2},
					Scale:     0.6,
					RotationX: 2.0,
				},
			},
		},
		Animation: AnimationConfig{
			Scope:     anim.ScopeModels.String(),
			Breathing: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports the first setting the viewer cannot run with.
func (c *Config) Validate() error {
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		return fmt.Errorf("graphics size %dx%d must be positive", c.Graphics.Width, c.Graphics.Height)
	}
	switch c.Graphics.Backend {
	case BackendGL, BackendEbiten:
	default:
		return fmt.Errorf("unknown graphics backend %q", c.Graphics.Backend)
	}
	if _, err := anim.ParseScope(c.Animation.Scope); err != nil {
		return err
	}
	if c.Scene.Camera.Near <= 0 || c.Scene.Camera.Far <= c.Scene.Camera.Near {
		return fmt.Errorf("camera clip range [%v, %v] is invalid", c.Scene.Camera.Near, c.Scene.Camera.Far)
	}
	for i, m := range c.Scene.Models {
		if m.Asset == "" {
			return fmt.Errorf("scene model %d has no asset", i)
		}
	}
	return nil
}
