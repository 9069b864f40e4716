// Package app implements the application shell: plugin registration,
// startup and per-frame system stages, frame timing and shared resources.
// Hosts (SDL2/OpenGL or ebiten) own the loop and call Step once per frame.
package app

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/veggieview/internal/engine/scene"
	"github.com/Faultbox/veggieview/internal/logger"
)

// Stage selects when a system runs.
type Stage int

const (
	// StageStartup systems run once, before the first frame.
	StageStartup Stage = iota
	// StageUpdate systems run every frame in registration order.
	StageUpdate
)

func (s Stage) String() string {
	switch s {
	case StageStartup:
		return "startup"
	case StageUpdate:
		return "update"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Frame is what a system sees while it runs.
type Frame struct {
	Time  Time
	World *scene.World
	App   *App
}

// System is a unit of per-stage behavior.
type System interface {
	Run(f *Frame)
}

type funcSystem struct {
	name string
	fn   func(f *Frame)
}

func (s funcSystem) Run(f *Frame) { s.fn(f) }
func (s funcSystem) Name() string { return s.name }

// Func wraps a plain function as a named System.
func Func(name string, fn func(f *Frame)) System {
	return funcSystem{name: name, fn: fn}
}

// Plugin bundles resources and systems.
type Plugin interface {
	Build(a *App)
}

// Runner owns a frame loop. Run blocks until the window closes or ctx is done.
type Runner interface {
	Run(ctx context.Context, a *App) error
}

// Clock returns the current instant. Swapped out in tests.
type Clock func() time.Time

// Time is the frame timing resource.
type Time struct {
	Startup time.Time
	Elapsed time.Duration // since Startup
	Delta   time.Duration // since previous frame
	Frame   uint64
}

// ClearColor is the background color in linear RGBA.
type ClearColor [4]float32

// AmbientLight is the global ambient term.
type AmbientLight struct {
	Color      [3]float32
	Brightness float32
}

// Surface is the render surface resolution in logical pixels.
type Surface struct {
	Width  float64
	Height float64
}

// Size returns the current resolution.
func (s *Surface) Size() (float64, float64) {
	return s.Width, s.Height
}

// Set replaces the resolution.
func (s *Surface) Set(width, height float64) {
	s.Width = width
	s.Height = height
}

// Aspect returns width/height, or 1 for a degenerate surface.
func (s *Surface) Aspect() float32 {
	if s.Width <= 0 || s.Height <= 0 {
		return 1
	}
	return float32(s.Width / s.Height)
}

type registered struct {
	name   string
	system System
	stats  *systemStats
}

// App is the application: world, resources and registered systems.
type App struct {
	World   *scene.World
	Time    Time
	Clear   ClearColor
	Ambient AmbientLight
	Surface Surface
	Clock   Clock

	stages  map[Stage][]registered
	plugins []string
	closers []func() error
	started bool
	log     *zap.Logger

	fpsFrames int
	fpsSince  time.Time
}

// New creates an app with an empty world, white background and full ambient light.
func New() *App {
	return &App{
		World:   scene.NewWorld(),
		Clear:   ClearColor{1, 1, 1, 1},
		Ambient: AmbientLight{Color: [3]float32{1, 1, 1}, Brightness: 1},
		Clock:   time.Now,
		stages:  make(map[Stage][]registered),
		log:     logger.Named("app"),
	}
}

// AddPlugin builds p into the app.
func (a *App) AddPlugin(p Plugin) *App {
	name := typeName(p)
	a.plugins = append(a.plugins, name)
	a.log.Debug("adding plugin", zap.String("plugin", name))
	p.Build(a)
	return a
}

// AddSystem registers s to run in stage.
func (a *App) AddSystem(stage Stage, s System) *App {
	name := typeName(s)
	if n, ok := s.(interface{ Name() string }); ok {
		name = n.Name()
	}
	a.stages[stage] = append(a.stages[stage], registered{
		name:   name,
		system: s,
		stats:  newSystemStats(name),
	})
	return a
}

// OnClose registers cleanup to run when the app shuts down, in reverse order.
func (a *App) OnClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Plugins returns the names of built plugins in build order.
func (a *App) Plugins() []string {
	return a.plugins
}

// Startup runs the startup stage. Only the first call has any effect.
func (a *App) Startup() {
	if a.started {
		return
	}
	a.started = true

	now := a.Clock()
	a.Time = Time{Startup: now}
	a.fpsSince = now

	a.runStage(StageStartup)
	a.log.Info("startup complete",
		zap.Int("entities", a.World.Len()),
		zap.Strings("plugins", a.plugins),
	)
}

// Step advances the frame clock and runs the update stage once.
func (a *App) Step() {
	if !a.started {
		a.Startup()
	}

	now := a.Clock()
	elapsed := now.Sub(a.Time.Startup)
	if elapsed < 0 {
		elapsed = 0
	}
	a.Time.Delta = max(elapsed-a.Time.Elapsed, 0)
	a.Time.Elapsed = elapsed
	a.Time.Frame++

	a.runStage(StageUpdate)

	a.fpsFrames++
	if since := now.Sub(a.fpsSince); since >= time.Second {
		a.log.Debug("fps",
			zap.Int("count", a.fpsFrames),
			zap.Duration("elapsed", elapsed),
			zap.Int("entities", a.World.Len()),
		)
		a.fpsFrames = 0
		a.fpsSince = now
	}
}

func (a *App) runStage(stage Stage) {
	f := &Frame{Time: a.Time, World: a.World, App: a}
	for _, r := range a.stages[stage] {
		start := time.Now()
		r.system.Run(f)
		r.stats.record(time.Since(start))
	}
}

// Run starts up the app and hands the loop to r. Cleanup runs when r returns.
func (a *App) Run(ctx context.Context, r Runner) (err error) {
	defer func() {
		err = multierr.Append(err, a.Close())
	}()

	a.Startup()
	if err := r.Run(ctx, a); err != nil {
		return fmt.Errorf("run loop: %w", err)
	}
	return nil
}

// Close runs registered cleanup functions, combining their errors.
func (a *App) Close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
