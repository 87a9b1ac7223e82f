package models

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownObject is returned when a library has no object by a name.
var ErrUnknownObject = errors.New("unknown library object")

// Handle identifies a mesh in a Library. Names are resolved to handles once,
// when a scene is assembled; rendering only deals in handles.
type Handle int

// Entry describes one library object on disk.
type Entry struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Flipped bool   `yaml:"flipped"` // OBJ only: model axis is the file's Y
}

// Library is an indexed set of locked meshes.
type Library struct {
	meshes []*Mesh
	names  []string
	byName map[string]Handle
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{byName: make(map[string]Handle)}
}

// Add registers a locked mesh under name.
func (l *Library) Add(name string, m *Mesh) (Handle, error) {
	if !m.Locked() {
		return -1, fmt.Errorf("library add %q: %w", name, ErrNotLocked)
	}
	if _, ok := l.byName[name]; ok {
		return -1, fmt.Errorf("library add %q: duplicate name", name)
	}
	h := Handle(len(l.meshes))
	l.meshes = append(l.meshes, m)
	l.names = append(l.names, name)
	l.byName[name] = h
	return h, nil
}

// Lookup resolves a name to a handle.
func (l *Library) Lookup(name string) (Handle, error) {
	h, ok := l.byName[name]
	if !ok {
		return -1, fmt.Errorf("%q: %w", name, ErrUnknownObject)
	}
	return h, nil
}

// Mesh returns the mesh for h.
func (l *Library) Mesh(h Handle) (*Mesh, bool) {
	if h < 0 || int(h) >= len(l.meshes) {
		return nil, false
	}
	return l.meshes[h], true
}

// Name returns the name h was registered under.
func (l *Library) Name(h Handle) string {
	if h < 0 || int(h) >= len(l.names) {
		return ""
	}
	return l.names[h]
}

// Names returns the object names in registration order.
func (l *Library) Names() []string {
	return append([]string(nil), l.names...)
}

// Len returns the number of objects.
func (l *Library) Len() int {
	return len(l.meshes)
}

// LoadFile loads a mesh by file extension: .obj through ParseOBJ, .glb and
// .gltf through the glTF loader.
func LoadFile(path string, flipped bool) (*Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return LoadOBJ(path, flipped)
	case ".glb", ".gltf":
		return LoadGLB(path)
	default:
		return nil, fmt.Errorf("load %s: unsupported model format", path)
	}
}

// LoadLibrary reads every entry concurrently and registers the meshes in
// entry order.
func LoadLibrary(ctx context.Context, entries []Entry, log *zap.Logger) (*Library, error) {
	if log == nil {
		log = zap.NewNop()
	}

	meshes := make([]*Mesh, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	for i, e := range entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := LoadFile(e.Path, e.Flipped)
			if err != nil {
				return fmt.Errorf("object %q: %w", e.Name, err)
			}
			m.Name = e.Name
			meshes[i] = m
			log.Debug("loaded object",
				zap.String("name", e.Name),
				zap.String("path", e.Path),
				zap.Int("vertices", m.VertexCount()),
				zap.Int("faces", m.TriangleCount()),
				zap.Int("edges", m.EdgeCount()))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lib := NewLibrary()
	for i, e := range entries {
		if _, err := lib.Add(e.Name, meshes[i]); err != nil {
			return nil, err
		}
	}
	log.Info("library ready", zap.Int("objects", lib.Len()))
	return lib, nil
}
