package assets

import (
	"fmt"

	"github.com/Faultbox/veggieview/internal/engine/scene"
)

// Model is a decoded glTF file: its node table and the scenes that
// reference it. Models are shared by every instance and never mutated
// after decoding.
type Model struct {
	Path   string
	Nodes  []Node
	Scenes []SceneDef
}

// SceneDef lists the root nodes of one glTF scene.
type SceneDef struct {
	Name  string
	Roots []int
}

// Node is one glTF node.
type Node struct {
	Name      string
	Transform scene.Transform
	Children  []int
	Meshes    []*scene.Mesh
	Skinned   bool
}

// Scene returns the scene at index i.
func (m *Model) Scene(i int) (SceneDef, error) {
	if i < 0 || i >= len(m.Scenes) {
		return SceneDef{}, fmt.Errorf("%s has %d scenes, no scene %d", m.Path, len(m.Scenes), i)
	}
	return m.Scenes[i], nil
}

// TriangleCount sums the triangles of every mesh in the model.
func (m *Model) TriangleCount() int {
	n := 0
	for i := range m.Nodes {
		for _, mesh := range m.Nodes[i].Meshes {
			n += mesh.TriangleCount()
		}
	}
	return n
}

// Instantiate spawns the nodes of scene def under parent, keeping the
// glTF hierarchy. It returns the number of entities created. The node
// graph is checked before anything is spawned, so a failed call leaves
// the world untouched.
func (m *Model) Instantiate(w *scene.World, parent scene.Entity, def SceneDef) (int, error) {
	if !w.Contains(parent) {
		return 0, fmt.Errorf("%s: instantiate under %d: %w", m.Path, parent, scene.ErrNoEntity)
	}
	if err := m.check(def); err != nil {
		return 0, err
	}

	count := 0
	var spawn func(idx int, under scene.Entity) error
	spawn = func(idx int, under scene.Entity) error {
		n := &m.Nodes[idx]
		e, err := w.SpawnChild(under, n.Transform)
		if err != nil {
			return err
		}
		count++

		w.SetName(e, n.Name)
		for _, mesh := range n.Meshes {
			w.AddMesh(e, mesh)
		}
		if n.Skinned {
			w.SetSkinned(e)
		}

		for _, c := range n.Children {
			if err := spawn(c, e); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range def.Roots {
		if err := spawn(r, parent); err != nil {
			return count, err
		}
	}
	return count, nil
}

// check rejects node indices out of range and child loops reachable from
// the roots of def.
func (m *Model) check(def SceneDef) error {
	visiting := make([]bool, len(m.Nodes))

	var walk func(idx int) error
	walk = func(idx int) error {
		if idx < 0 || idx >= len(m.Nodes) {
			return fmt.Errorf("%s: node %d out of range", m.Path, idx)
		}
		if visiting[idx] {
			return fmt.Errorf("%s: node %d: %w", m.Path, idx, scene.ErrCycle)
		}
		visiting[idx] = true
		defer func() { visiting[idx] = false }()

		for _, c := range m.Nodes[idx].Children {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}

	for _, r := range def.Roots {
		if err := walk(r); err != nil {
			return err
		}
	}
	return nil
}
