// Package layer stacks option trees by priority.
//
// Higher priority layers override lower ones when the stack is merged. A
// typical stack is built-in defaults, a theme, option files, environment
// overrides, script-provided options and the session layer written by
// SetOptions.
package layer

import (
	"time"

	"github.com/dshills/chartkit/internal/options"
)

// Layer represents a single option layer.
type Layer struct {
	// Name identifies the layer (e.g., "defaults", "theme", "session").
	Name string

	// Priority determines merge order (higher overrides lower).
	Priority int

	// Source indicates where this layer was loaded from.
	Source Source

	// Path is the file path (if loaded from file).
	Path string

	// Data holds the option tree.
	Data map[string]any

	// ModTime is when the layer last changed.
	ModTime time.Time

	// ReadOnly prevents modifications through the Manager.
	ReadOnly bool
}

// NewLayer creates an empty layer.
func NewLayer(name string, source Source, priority int) *Layer {
	return &Layer{
		Name:     name,
		Source:   source,
		Priority: priority,
		Data:     make(map[string]any),
		ModTime:  time.Now(),
	}
}

// NewLayerWithData creates a layer holding data.
func NewLayerWithData(name string, source Source, priority int, data map[string]any) *Layer {
	if data == nil {
		data = make(map[string]any)
	}
	return &Layer{
		Name:     name,
		Source:   source,
		Priority: priority,
		Data:     data,
		ModTime:  time.Now(),
	}
}

// Clone creates a copy of the layer with independent plain maps.
func (l *Layer) Clone() *Layer {
	return &Layer{
		Name:     l.Name,
		Priority: l.Priority,
		Source:   l.Source,
		Path:     l.Path,
		Data:     options.Clone(l.Data),
		ModTime:  l.ModTime,
		ReadOnly: l.ReadOnly,
	}
}

// Source indicates where an option layer came from.
type Source uint8

const (
	// SourceDefaults represents the built-in default options.
	SourceDefaults Source = iota
	// SourceTheme represents a theme applied over the defaults.
	SourceTheme
	// SourceFile represents an option file (TOML, YAML or JSON).
	SourceFile
	// SourceEnv represents environment variables.
	SourceEnv
	// SourceScript represents options set by a Lua script.
	SourceScript
	// SourceSession represents in-memory SetOptions calls.
	SourceSession
)

// String returns a human-readable name for the source.
func (s Source) String() string {
	switch s {
	case SourceDefaults:
		return "defaults"
	case SourceTheme:
		return "theme"
	case SourceFile:
		return "file"
	case SourceEnv:
		return "environment"
	case SourceScript:
		return "script"
	case SourceSession:
		return "session"
	default:
		return "unknown"
	}
}
