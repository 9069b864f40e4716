package anim

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/veggieview/internal/engine/app"
	"github.com/Faultbox/veggieview/internal/engine/scene"
)

// Scope selects which transforms the idle system touches.
type Scope int

const (
	// ScopeModels animates every node loaded under a scene root, but not
	// the root itself (which carries the placement) nor the camera.
	ScopeModels Scope = iota
	// ScopeSkinned animates the parent of each skinned mesh.
	ScopeSkinned
	// ScopeAll animates every transform in the world, camera included.
	ScopeAll
)

var scopeNames = map[Scope]string{
	ScopeModels:  "models",
	ScopeSkinned: "skinned",
	ScopeAll:     "all",
}

func (s Scope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("scope(%d)", int(s))
}

// ParseScope parses "models", "skinned" or "all".
func ParseScope(s string) (Scope, error) {
	for scope, name := range scopeNames {
		if name == s {
			return scope, nil
		}
	}
	return 0, fmt.Errorf("unknown animation scope %q", s)
}

// System applies Idle once per in-scope transform every frame.
type System struct {
	Scope     Scope
	Breathing bool

	// rest holds the scale each entity had the first time breathing saw it.
	rest map[scene.Entity]mgl32.Vec3
}

type target struct {
	e scene.Entity
	t *scene.Transform
}

// Name implements the app's system naming hook.
func (s *System) Name() string { return "anim.idle" }

// Run implements app.System.
func (s *System) Run(f *app.Frame) {
	for _, tg := range s.targets(f.World) {
		Idle(f.Time.Elapsed, tg.t)
		if s.Breathing {
			Breathing(f.Time.Elapsed, s.restScale(tg), tg.t)
		}
	}
}

func (s *System) restScale(tg target) mgl32.Vec3 {
	if s.rest == nil {
		s.rest = make(map[scene.Entity]mgl32.Vec3)
	}
	r, ok := s.rest[tg.e]
	if !ok {
		r = tg.t.Scale
		s.rest[tg.e] = r
	}
	return r
}

func (s *System) targets(w *scene.World) []target {
	var out []target

	switch s.Scope {
	case ScopeAll:
		for e, t := range w.Transforms() {
			out = append(out, target{e, t})
		}

	case ScopeSkinned:
		seen := make(map[scene.Entity]bool)
		for e := range w.SkinnedEntities() {
			p, ok := w.Parent(e)
			if !ok || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, target{p, w.Transform(p)})
		}

	default:
		for root := range w.SceneRoots() {
			for e, t := range w.Descendants(root) {
				out = append(out, target{e, t})
			}
		}
	}
	return out
}
