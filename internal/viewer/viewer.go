// Package viewer assembles the veggie scene: it turns configuration into
// app resources, spawns the camera and models at startup, and orders the
// per-frame systems.
package viewer

import (
	"fmt"
	"io/fs"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/veggieview/internal/anim"
	"github.com/Faultbox/veggieview/internal/config"
	"github.com/Faultbox/veggieview/internal/engine/app"
	"github.com/Faultbox/veggieview/internal/engine/assets"
	"github.com/Faultbox/veggieview/internal/engine/camera"
	"github.com/Faultbox/veggieview/internal/engine/scene"
	"github.com/Faultbox/veggieview/internal/engine/viewport"
	"github.com/Faultbox/veggieview/internal/logger"
)

// Plugin sets the scene resources and registers, in order:
// asset spawning, viewport sync, idle animation and transform propagation.
type Plugin struct {
	Scene     config.SceneConfig
	Scope     anim.Scope
	Breathing bool
	Assets    *assets.Server
	Viewport  viewport.Host
}

// Build implements app.Plugin.
func (p *Plugin) Build(a *app.App) {
	a.Clear = app.ClearColor(p.Scene.ClearColor)
	a.Ambient.Brightness = p.Scene.AmbientBrightness

	log := logger.Named("viewer")
	a.AddSystem(app.StageStartup, app.Func("viewer.setup", func(f *app.Frame) {
		if err := Setup(f.World, p.Scene, p.Assets); err != nil {
			log.Error("scene setup incomplete", zap.Error(err))
		}
	}))

	a.AddSystem(app.StageUpdate, p.Assets)
	a.AddPlugin(viewport.Plugin{Host: p.Viewport})
	a.AddSystem(app.StageUpdate, &anim.System{Scope: p.Scope, Breathing: p.Breathing})
	a.AddSystem(app.StageUpdate, app.Func("transform.propagate", func(f *app.Frame) {
		f.World.PropagateTransforms()
	}))

	a.OnClose(p.Assets.Close)
}

// Setup spawns the camera and requests every configured model. A model
// whose handle cannot be parsed is skipped; the others still load.
func Setup(w *scene.World, cfg config.SceneConfig, srv *assets.Server) error {
	cam := cfg.Camera
	e := w.Spawn(scene.FromXYZ(cam.Position[0], cam.Position[1], cam.Position[2]).
		LookingAt(mgl32.Vec3(cam.Target), mgl32.Vec3{0, 1, 0}))
	w.SetCamera(e, camera.Perspective(cam.FovDegrees, cam.Near, cam.Far))
	w.SetName(e, "camera")

	var err error
	for _, m := range cfg.Models {
		if _, loadErr := srv.SpawnScene(w, m.Asset, ModelTransform(m)); loadErr != nil {
			err = multierr.Append(err, fmt.Errorf("model %q: %w", m.Asset, loadErr))
		}
	}

	w.PropagateTransforms()
	return err
}

// ModelTransform places a model root: translation, then a rotation about
// X, then a uniform scale.
func ModelTransform(m config.ModelConfig) scene.Transform {
	t := scene.FromXYZ(m.Position[0], m.Position[1], m.Position[2])
	if m.Scale != 0 {
		t = t.WithScale(mgl32.Vec3{m.Scale, m.Scale, m.Scale})
	}
	if m.RotationX != 0 {
		t = t.WithRotation(mgl32.QuatRotate(m.RotationX, mgl32.Vec3{1, 0, 0}))
	}
	return t
}

// NewApp builds the viewer app over the asset source fsys. The viewport
// adapter is only active where the platform needs one.
func NewApp(cfg *config.Config, fsys fs.FS) (*app.App, error) {
	scope, err := anim.ParseScope(cfg.Animation.Scope)
	if err != nil {
		return nil, err
	}

	a := app.New()
	a.Surface.Set(float64(cfg.Graphics.Width), float64(cfg.Graphics.Height))
	a.AddPlugin(&Plugin{
		Scene:     cfg.Scene,
		Scope:     scope,
		Breathing: cfg.Animation.Breathing,
		Assets:    assets.NewServer(fsys),
		Viewport:  viewport.ForPlatform(&a.Surface),
	})
	return a, nil
}
