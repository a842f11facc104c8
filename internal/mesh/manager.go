package mesh

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrInvalidFilename   = errors.New("invalid mesh filename")
	ErrUnsupportedFormat = errors.New("unsupported mesh format")
	ErrEmptyMesh         = errors.New("mesh has no triangles")
)

// Manager loads meshes on first use and caches them by cleaned path.
// Safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	meshes map[string]*Mesh
	log    *zap.Logger
}

func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		meshes: make(map[string]*Mesh),
		log:    log,
	}
}

// IsValidFilename reports whether path names an existing regular file with
// a supported extension.
func (m *Manager) IsValidFilename(path string) bool {
	if path == "" || !supported(path) {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// Load returns the mesh at path, reading it on first request.
func (m *Manager) Load(path string) (*Mesh, error) {
	key := filepath.Clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	if mesh, ok := m.meshes[key]; ok {
		return mesh, nil
	}
	if !m.IsValidFilename(key) {
		return nil, fmt.Errorf("load %s: %w", path, ErrInvalidFilename)
	}
	mesh, err := readFile(key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	mesh.Path = key
	m.meshes[key] = mesh
	m.log.Debug("mesh loaded",
		zap.String("file", key),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("triangles", len(mesh.Triangles)),
	)
	return mesh, nil
}

// Volume loads path and returns its enclosed volume.
func (m *Manager) Volume(path string) (float64, error) {
	mesh, err := m.Load(path)
	if err != nil {
		return 0, err
	}
	return mesh.Volume(), nil
}

// Cached returns the number of meshes held in the cache.
func (m *Manager) Cached() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.meshes)
}

func supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj", ".stl":
		return true
	}
	return false
}

func readFile(path string) (*Mesh, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ParseOBJ(f)
	case ".stl":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ParseSTL(data)
	}
	return nil, ErrUnsupportedFormat
}
