// Package assets loads glTF scenes in the background and instantiates them
// into the world on the frame thread.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/veggieview/internal/engine/app"
	"github.com/Faultbox/veggieview/internal/engine/scene"
	"github.com/Faultbox/veggieview/internal/logger"
)

// ErrClosed is returned by Load after Close.
var ErrClosed = errors.New("assets: server closed")

type loaded struct {
	root   scene.Entity
	handle Handle
	model  *Model
	err    error
}

// Server decodes models off the frame thread. Identical paths share one
// decode and are cached for the life of the server.
type Server struct {
	fsys  fs.FS
	cache *Cache[*Model]
	group singleflight.Group
	log   *zap.Logger

	wg       sync.WaitGroup
	inflight atomic.Int64
	decodes  atomic.Int64

	mu     sync.Mutex
	done   []loaded
	closed bool
}

// NewServer creates a server reading from fsys.
func NewServer(fsys fs.FS) *Server {
	return &Server{
		fsys:  fsys,
		cache: NewCache[*Model](),
		log:   logger.Named("assets"),
	}
}

// SpawnScene creates a root entity at t tagged with ref and starts loading
// the referenced scene into it. The root exists immediately; its children
// appear on the first Spawn after the load completes.
func (s *Server) SpawnScene(w *scene.World, ref string, t scene.Transform) (scene.Entity, error) {
	h, err := ParseHandle(ref)
	if err != nil {
		return scene.None, err
	}
	root := w.Spawn(t)
	w.SetSceneRoot(root, h.String())
	w.SetName(root, h.Path)

	if err := s.Load(root, h); err != nil {
		if sr, ok := w.SceneRoot(root); ok {
			sr.Err = err
		}
		return root, err
	}
	return root, nil
}

// Load starts decoding h in the background. The result is attached under
// root by a later Spawn.
func (s *Server) Load(root scene.Entity, h Handle) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.wg.Add(1)
	s.inflight.Add(1)
	s.mu.Unlock()

	s.log.Debug("load requested", zap.Stringer("handle", h), zap.Uint32("root", uint32(root)))

	go func() {
		defer s.wg.Done()
		model, err := s.model(h.Path)

		s.mu.Lock()
		s.done = append(s.done, loaded{root: root, handle: h, model: model, err: err})
		s.inflight.Add(-1)
		s.mu.Unlock()
	}()
	return nil
}

func (s *Server) model(p string) (*Model, error) {
	if m, ok := s.cache.Get(p); ok {
		return m, nil
	}

	v, err, shared := s.group.Do(p, func() (any, error) {
		if m, ok := s.cache.Get(p); ok {
			return m, nil
		}
		s.decodes.Add(1)
		m, err := DecodeModel(s.fsys, p, s.log)
		if err != nil {
			return nil, err
		}
		s.cache.Set(p, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("shared in-flight decode", zap.String("path", p))
	}
	return v.(*Model), nil
}

// Spawn attaches every completed load to its root. It must run on the
// frame thread. Failed loads are logged and leave the root empty.
func (s *Server) Spawn(w *scene.World) int {
	s.mu.Lock()
	batch := s.done
	s.done = nil
	s.mu.Unlock()

	spawned := 0
	for _, r := range batch {
		root, ok := w.SceneRoot(r.root)
		if !ok {
			s.log.Warn("scene root vanished before load finished", zap.Stringer("handle", r.handle))
			continue
		}

		err := r.err
		if err == nil {
			err = s.instantiate(w, r)
		}
		if err != nil {
			root.Err = err
			s.log.Error("failed to load scene",
				zap.Stringer("handle", r.handle),
				zap.Error(err),
			)
			continue
		}

		root.Loaded = true
		spawned++
	}
	return spawned
}

func (s *Server) instantiate(w *scene.World, r loaded) error {
	def, err := r.model.Scene(r.handle.Scene)
	if err != nil {
		return err
	}
	n, err := r.model.Instantiate(w, r.root, def)
	if err != nil {
		return fmt.Errorf("instantiating %s: %w", r.handle, err)
	}
	s.log.Info("scene loaded",
		zap.Stringer("handle", r.handle),
		zap.Int("entities", n),
		zap.Int("triangles", r.model.TriangleCount()),
	)
	return nil
}

// Pending returns the number of loads not yet attached by Spawn.
func (s *Server) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.inflight.Load()) + len(s.done)
}

// Wait blocks until every started load has finished decoding.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Stats reports decode count and cache hits/misses.
func (s *Server) Stats() (decodes int64, hits, misses int) {
	hits, misses = s.cache.Stats()
	return s.decodes.Load(), hits, misses
}

// Close refuses further loads, waits for in-flight ones and drops the cache.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
	s.cache.Clear()
	return nil
}

// Name implements the app's system naming hook.
func (s *Server) Name() string { return "assets.spawn" }

// Run implements app.System.
func (s *Server) Run(f *app.Frame) {
	s.Spawn(f.World)
}
