package layer

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dshills/chartkit/internal/options"
)

// Manager stacks option layers and serves a merged view.
type Manager struct {
	mu     sync.RWMutex
	layers []*Layer       // Sorted by priority (ascending)
	merged map[string]any // Cached merged result
	dirty  bool
}

// NewManager creates an empty layer manager.
func NewManager() *Manager {
	return &Manager{
		layers: make([]*Layer, 0),
		dirty:  true,
	}
}

// AddLayer adds a layer, replacing any existing layer with the same name.
// Layers are kept sorted by priority; equal priorities keep insertion order.
func (m *Manager) AddLayer(l *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.layers = slices.DeleteFunc(m.layers, func(x *Layer) bool { return x.Name == l.Name })
	m.layers = append(m.layers, l)
	m.sortLayers()
	m.dirty = true
}

// RemoveLayer removes a layer by name.
// Returns true if the layer was found and removed.
func (m *Manager) RemoveLayer(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.layers)
	m.layers = slices.DeleteFunc(m.layers, func(x *Layer) bool { return x.Name == name })
	if len(m.layers) == n {
		return false
	}
	m.dirty = true
	return true
}

// GetLayer returns a layer by name, or nil.
func (m *Manager) GetLayer(name string) *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findLayer(name)
}

// Layers returns a copy of the layer list sorted by priority.
func (m *Manager) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.layers)
}

// LayerCount returns the number of layers.
func (m *Manager) LayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.layers)
}

// Merge combines all layers, lowest priority first, into a new option tree.
// The result is cached until a layer changes; callers get their own copy.
func (m *Manager) Merge() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return options.Clone(m.mergedData())
}

// mergedData refreshes the cache if needed and returns the internal map.
// Must be called with the write lock held.
func (m *Manager) mergedData() map[string]any {
	if m.dirty || m.merged == nil {
		result := make(map[string]any)
		for _, l := range m.layers {
			options.MergeInto(result, l.Data)
		}
		m.merged = result
		m.dirty = false
	}
	return m.merged
}

// Get returns the value for path from the highest priority layer that
// defines it, together with that layer.
func (m *Manager) Get(path string) (any, *Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.layers) - 1; i >= 0; i-- {
		l := m.layers[i]
		if val, ok := options.GetByPath(l.Data, path); ok {
			return val, l, true
		}
	}
	return nil, nil, false
}

// GetEffectiveValue returns the value for path in the merged view.
func (m *Manager) GetEffectiveValue(path string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return options.GetByPath(m.mergedData(), path)
}

// WhichLayer returns the name of the layer that provides path.
func (m *Manager) WhichLayer(path string) string {
	_, l, found := m.Get(path)
	if !found {
		return ""
	}
	return l.Name
}

// Set writes value at path in the named layer.
func (m *Manager) Set(layerName, path string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.writable(layerName)
	if err != nil {
		return err
	}
	if !options.SetByPath(l.Data, path, value) {
		return fmt.Errorf("set %q in layer %s: invalid path", path, layerName)
	}
	m.touch(l)
	return nil
}

// Delete removes path from the named layer.
func (m *Manager) Delete(layerName, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.writable(layerName)
	if err != nil {
		return err
	}
	if options.DeleteByPath(l.Data, path) {
		m.touch(l)
	}
	return nil
}

// MergeLayer deep-merges data into the named layer in place.
func (m *Manager) MergeLayer(layerName string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.writable(layerName)
	if err != nil {
		return err
	}
	options.MergeInto(l.Data, data)
	m.touch(l)
	return nil
}

// UpdateLayer replaces a layer's data with a copy of data.
func (m *Manager) UpdateLayer(name string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.writable(name)
	if err != nil {
		return err
	}
	l.Data = options.Merge(data)
	m.touch(l)
	return nil
}

// Session returns the session layer, creating it if needed.
func (m *Manager) Session() *Layer {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.layers {
		if l.Source == SourceSession {
			return l
		}
	}
	s := NewLayer(StandardLayerName(SourceSession), SourceSession, PrioritySession)
	m.layers = append(m.layers, s)
	m.sortLayers()
	m.dirty = true
	return s
}

// GetLayerValue returns a value from a specific layer.
func (m *Manager) GetLayerValue(layerName, path string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l := m.findLayer(layerName)
	if l == nil {
		return nil, false
	}
	return options.GetByPath(l.Data, path)
}

// Invalidate marks the merged cache as dirty.
// Call this after modifying layer data directly.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirty = true
}

// Clear removes all layers.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.layers = nil
	m.merged = nil
	m.dirty = true
}

func (m *Manager) writable(name string) (*Layer, error) {
	l := m.findLayer(name)
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, name)
	}
	if l.ReadOnly {
		return nil, fmt.Errorf("%w: %s", ErrReadOnly, name)
	}
	if l.Data == nil {
		l.Data = make(map[string]any)
	}
	return l, nil
}

func (m *Manager) touch(l *Layer) {
	l.ModTime = time.Now()
	m.dirty = true
}

// sortLayers sorts layers by priority (ascending, stable).
func (m *Manager) sortLayers() {
	slices.SortStableFunc(m.layers, func(a, b *Layer) int {
		return a.Priority - b.Priority
	})
}

// findLayer finds a layer by name (must be called with lock held).
func (m *Manager) findLayer(name string) *Layer {
	for _, l := range m.layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}
