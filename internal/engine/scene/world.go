// Package scene holds the entity set the viewer animates and renders:
// transforms, the parent/child hierarchy and the few components the
// renderers and systems care about.
package scene

import (
	"errors"
	"fmt"
	"iter"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/kamstrup/intmap"
)

// Entity identifies a scene entity. The zero value is never issued.
type Entity uint32

// None is the absent entity.
const None Entity = 0

var (
	// ErrNoEntity is returned when an entity id is unknown to the world.
	ErrNoEntity = errors.New("scene: no such entity")
	// ErrCycle is returned when a parent assignment would create a loop.
	ErrCycle = errors.New("scene: hierarchy cycle")
)

type node struct {
	id        Entity
	name      string
	transform Transform
	global    mgl32.Mat4
	parent    Entity
	children  []Entity
	camera    *Camera
	root      *SceneRoot
	meshes    []*Mesh
	skinned   bool
}

// World owns every entity and its components.
//
// It is not safe for concurrent use; all access happens on the frame thread.
// Pointers yielded by iterators are valid until the next Spawn.
type World struct {
	nodes []node
	index *intmap.Map[Entity, int]
	next  Entity
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		index: intmap.New[Entity, int](64),
		next:  1,
	}
}

// Spawn adds a parentless entity with the given transform.
func (w *World) Spawn(t Transform) Entity {
	e := w.next
	w.next++
	w.index.Put(e, len(w.nodes))
	w.nodes = append(w.nodes, node{
		id:        e,
		transform: t,
		global:    t.Matrix(),
	})
	return e
}

// SpawnChild adds an entity under parent.
func (w *World) SpawnChild(parent Entity, t Transform) (Entity, error) {
	if !w.Contains(parent) {
		return None, fmt.Errorf("spawn child of %d: %w", parent, ErrNoEntity)
	}
	e := w.Spawn(t)
	if err := w.SetParent(e, parent); err != nil {
		return None, err
	}
	return e, nil
}

// Len returns the number of entities.
func (w *World) Len() int {
	return len(w.nodes)
}

// Contains reports whether e exists.
func (w *World) Contains(e Entity) bool {
	_, ok := w.index.Get(e)
	return ok
}

func (w *World) node(e Entity) *node {
	slot, ok := w.index.Get(e)
	if !ok {
		return nil
	}
	return &w.nodes[slot]
}

// Transform returns the mutable local transform of e, or nil.
func (w *World) Transform(e Entity) *Transform {
	n := w.node(e)
	if n == nil {
		return nil
	}
	return &n.transform
}

// SetParent attaches child under parent. Passing None detaches it.
func (w *World) SetParent(child, parent Entity) error {
	c := w.node(child)
	if c == nil {
		return fmt.Errorf("set parent of %d: %w", child, ErrNoEntity)
	}
	if parent != None {
		if !w.Contains(parent) {
			return fmt.Errorf("set parent of %d to %d: %w", child, parent, ErrNoEntity)
		}
		for a := parent; a != None; a = w.node(a).parent {
			if a == child {
				return fmt.Errorf("set parent of %d to %d: %w", child, parent, ErrCycle)
			}
		}
	}

	if c.parent != None {
		old := w.node(c.parent)
		for i, e := range old.children {
			if e == child {
				old.children = append(old.children[:i], old.children[i+1:]...)
				break
			}
		}
	}

	c.parent = parent
	if parent != None {
		p := w.node(parent)
		p.children = append(p.children, child)
	}
	return nil
}

// Parent returns the parent of e.
func (w *World) Parent(e Entity) (Entity, bool) {
	n := w.node(e)
	if n == nil || n.parent == None {
		return None, false
	}
	return n.parent, true
}

// Children returns the direct children of e. The slice must not be modified.
func (w *World) Children(e Entity) []Entity {
	n := w.node(e)
	if n == nil {
		return nil
	}
	return n.children
}

// SetName labels e, usually with the glTF node name.
func (w *World) SetName(e Entity, name string) {
	if n := w.node(e); n != nil {
		n.name = name
	}
}

// Name returns the label of e.
func (w *World) Name(e Entity) string {
	if n := w.node(e); n != nil {
		return n.name
	}
	return ""
}

// SetCamera attaches a camera component.
func (w *World) SetCamera(e Entity, c Camera) {
	if n := w.node(e); n != nil {
		n.camera = &c
	}
}

// Camera returns the camera component of e.
func (w *World) Camera(e Entity) (Camera, bool) {
	n := w.node(e)
	if n == nil || n.camera == nil {
		return Camera{}, false
	}
	return *n.camera, true
}

// Cameras iterates entities with a camera component.
func (w *World) Cameras() iter.Seq2[Entity, Camera] {
	return func(yield func(Entity, Camera) bool) {
		for i := range w.nodes {
			n := &w.nodes[i]
			if n.camera == nil {
				continue
			}
			if !yield(n.id, *n.camera) {
				return
			}
		}
	}
}

// SetSceneRoot marks e as the root of an asset scene instance.
func (w *World) SetSceneRoot(e Entity, handle string) {
	if n := w.node(e); n != nil {
		n.root = &SceneRoot{Handle: handle}
	}
}

// SceneRoot returns the scene root component of e.
func (w *World) SceneRoot(e Entity) (*SceneRoot, bool) {
	n := w.node(e)
	if n == nil || n.root == nil {
		return nil, false
	}
	return n.root, true
}

// SceneRoots iterates entities that carry a scene root component.
func (w *World) SceneRoots() iter.Seq2[Entity, *SceneRoot] {
	return func(yield func(Entity, *SceneRoot) bool) {
		for i := range w.nodes {
			n := &w.nodes[i]
			if n.root == nil {
				continue
			}
			if !yield(n.id, n.root) {
				return
			}
		}
	}
}

// AddMesh attaches a mesh primitive to e.
func (w *World) AddMesh(e Entity, m *Mesh) {
	if n := w.node(e); n != nil {
		n.meshes = append(n.meshes, m)
	}
}

// Meshes iterates every (entity, mesh) pair.
func (w *World) Meshes() iter.Seq2[Entity, *Mesh] {
	return func(yield func(Entity, *Mesh) bool) {
		for i := range w.nodes {
			n := &w.nodes[i]
			for _, m := range n.meshes {
				if !yield(n.id, m) {
					return
				}
			}
		}
	}
}

// SetSkinned marks e as a skinned mesh.
func (w *World) SetSkinned(e Entity) {
	if n := w.node(e); n != nil {
		n.skinned = true
	}
}

// Skinned reports whether e is a skinned mesh.
func (w *World) Skinned(e Entity) bool {
	n := w.node(e)
	return n != nil && n.skinned
}

// SkinnedEntities iterates entities marked as skinned meshes.
func (w *World) SkinnedEntities() iter.Seq[Entity] {
	return func(yield func(Entity) bool) {
		for i := range w.nodes {
			if w.nodes[i].skinned && !yield(w.nodes[i].id) {
				return
			}
		}
	}
}

// Transforms iterates every entity with its mutable local transform.
func (w *World) Transforms() iter.Seq2[Entity, *Transform] {
	return func(yield func(Entity, *Transform) bool) {
		for i := range w.nodes {
			if !yield(w.nodes[i].id, &w.nodes[i].transform) {
				return
			}
		}
	}
}

// Walk iterates root and all of its descendants, depth first, parents
// before children.
func (w *World) Walk(root Entity) iter.Seq2[Entity, *Transform] {
	return func(yield func(Entity, *Transform) bool) {
		if !w.Contains(root) {
			return
		}
		stack := []Entity{root}
		for len(stack) > 0 {
			e := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			n := w.node(e)
			if !yield(e, &n.transform) {
				return
			}
			for i := len(n.children) - 1; i >= 0; i-- {
				stack = append(stack, n.children[i])
			}
		}
	}
}

// Descendants is Walk without the root itself.
func (w *World) Descendants(root Entity) iter.Seq2[Entity, *Transform] {
	return func(yield func(Entity, *Transform) bool) {
		for e, t := range w.Walk(root) {
			if e == root {
				continue
			}
			if !yield(e, t) {
				return
			}
		}
	}
}

// PropagateTransforms recomputes every global matrix from the local
// transforms, parents before children.
func (w *World) PropagateTransforms() {
	type item struct {
		e      Entity
		parent mgl32.Mat4
	}

	var stack []item
	for i := range w.nodes {
		if w.nodes[i].parent == None {
			stack = append(stack, item{w.nodes[i].id, mgl32.Ident4()})
		}
	}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := w.node(it.e)
		n.global = it.parent.Mul4(n.transform.Matrix())
		for _, c := range n.children {
			stack = append(stack, item{c, n.global})
		}
	}
}

// Global returns the world matrix of e as of the last PropagateTransforms.
func (w *World) Global(e Entity) mgl32.Mat4 {
	n := w.node(e)
	if n == nil {
		return mgl32.Ident4()
	}
	return n.global
}
