// Package assets handles asset loading and caching.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/a3d"
	"github.com/MapMakersAndProgrammers/io-scene-a3d/pkg/battlemap"
)

// Manager resolves prop library files against a set of search directories
// and memoizes decoded assets. Decoded values are shared between callers
// and must be treated as read-only.
type Manager struct {
	searchPaths []string

	mu     sync.RWMutex
	models map[string]*a3d.Model
	maps   map[string]*battlemap.BattleMap

	hits   int
	misses int
}

// NewManager creates a manager searching the given directories, in order.
func NewManager(searchPaths ...string) *Manager {
	return &Manager{
		searchPaths: searchPaths,
		models:      make(map[string]*a3d.Model),
		maps:        make(map[string]*battlemap.BattleMap),
	}
}

// Resolve finds the named file under the search paths. Absolute paths and
// paths to existing files are returned as-is.
func (m *Manager) Resolve(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	for _, dir := range m.searchPaths {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("file not found: %s", name)
}

// LoadModel decodes the named A3D model, reusing a previously decoded one
// when available.
func (m *Manager) LoadModel(name string) (*a3d.Model, error) {
	path, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	model, ok := m.models[path]
	m.mu.RUnlock()
	if ok {
		m.markHit()
		return model, nil
	}
	m.markMiss()

	model, err = a3d.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", path, err)
	}

	m.mu.Lock()
	m.models[path] = model
	m.mu.Unlock()
	return model, nil
}

// LoadMap decodes the named BattleMap, reusing a previously decoded one
// when available.
func (m *Manager) LoadMap(name string) (*battlemap.BattleMap, error) {
	path, err := m.Resolve(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	bm, ok := m.maps[path]
	m.mu.RUnlock()
	if ok {
		m.markHit()
		return bm, nil
	}
	m.markMiss()

	bm, err = battlemap.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading map %s: %w", path, err)
	}

	m.mu.Lock()
	m.maps[path] = bm
	m.mu.Unlock()
	return bm, nil
}

// Clear drops all cached assets.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.models = make(map[string]*a3d.Model)
	m.maps = make(map[string]*battlemap.BattleMap)
	m.hits = 0
	m.misses = 0
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits, m.misses
}

func (m *Manager) markHit() {
	m.mu.Lock()
	m.hits++
	m.mu.Unlock()
}

func (m *Manager) markMiss() {
	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
}
