// Package optstore holds the effective chart options of one owner.
//
// A Store stacks built-in defaults, an optional theme, option files,
// environment overrides and the session layer written by SetOptions. It is
// an event owner: listeners registered on it (or on its prototype) observe
// and may veto option changes.
package optstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dshills/chartkit/internal/event"
	"github.com/dshills/chartkit/internal/options"
	"github.com/dshills/chartkit/internal/options/layer"
	"github.com/dshills/chartkit/internal/options/loader"
	"github.com/dshills/chartkit/internal/options/watcher"
	"go.uber.org/zap"
)

// Event types dispatched by a Store.
const (
	// EventSetOptions is dispatched before options are applied. Its "options"
	// field holds the map to merge; handlers may replace it or return false
	// to discard the change.
	EventSetOptions = "setOptions"

	// EventAfterSetOptions is dispatched after a change was applied. Its
	// "changed" field lists the affected option paths and "source" names the
	// layer that changed.
	EventAfterSetOptions = "afterSetOptions"
)

// ErrUnknownFile is returned by Reload for files that were never loaded.
var ErrUnknownFile = errors.New("option file not loaded")

// Store is the option store of one chart-like owner.
type Store struct {
	*event.Object

	bus    *event.Bus
	layers *layer.Manager
	fs     loader.FileSystem
	logger *zap.Logger

	mu    sync.Mutex // serializes layer writes with their diff
	files []string
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	logger *zap.Logger
	fs     loader.FileSystem
	proto  *event.Object
}

// WithLogger sets the store logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *storeConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFileSystem sets the file system used by LoadFile and Reload.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(c *storeConfig) {
		if fsys != nil {
			c.fs = fsys
		}
	}
}

// WithPrototype makes the store's event object delegate to proto, so
// listeners registered on proto (for example a class prototype) see the
// store's events.
func WithPrototype(proto *event.Object) Option {
	return func(c *storeConfig) {
		c.proto = proto
	}
}

// New creates a store dispatching on bus with a read-only defaults layer.
func New(bus *event.Bus, defaults map[string]any, opts ...Option) *Store {
	cfg := storeConfig{
		logger: zap.NewNop(),
		fs:     loader.DefaultFS(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	m := layer.NewManager()
	d := layer.NewLayerWithData(
		layer.StandardLayerName(layer.SourceDefaults),
		layer.SourceDefaults,
		layer.PriorityDefaults,
		options.Merge(defaults),
	)
	d.ReadOnly = true
	m.AddLayer(d)
	m.Session()

	return &Store{
		Object: event.NewObject(cfg.proto),
		bus:    bus,
		layers: m,
		fs:     cfg.fs,
		logger: cfg.logger,
	}
}

// Layers returns the underlying layer manager.
func (s *Store) Layers() *layer.Manager {
	return s.layers
}

// Options returns a copy of the merged options.
func (s *Store) Options() map[string]any {
	return s.layers.Merge()
}

// Get returns the merged value at path, or fallback when it is unset.
func (s *Store) Get(path string, fallback any) any {
	v, ok := s.layers.GetEffectiveValue(path)
	if !ok {
		return fallback
	}
	return options.Pick(v, fallback)
}

// SetOptions merges opts into the session layer.
//
// The change goes through EventSetOptions; its default action performs the
// merge, so a listener returning false discards it. The returned event tells
// whether the change was prevented.
func (s *Store) SetOptions(opts map[string]any) *event.Event {
	e := event.NewEvent(map[string]any{"options": opts})
	return s.bus.Dispatch(s, EventSetOptions, e, func(_ event.Owner, e *event.Event) {
		v, _ := e.Get("options")
		next, _ := v.(map[string]any)
		s.apply(layer.SourceSession, func() error {
			return s.layers.MergeLayer(s.layers.Session().Name, next)
		})
	})
}

// ApplyTheme replaces the theme layer with theme.
func (s *Store) ApplyTheme(theme map[string]any) {
	s.apply(layer.SourceTheme, func() error {
		name := layer.StandardLayerName(layer.SourceTheme)
		s.layers.AddLayer(layer.NewLayerWithData(name, layer.SourceTheme, layer.PriorityTheme, options.Merge(theme)))
		return nil
	})
}

// LoadFile loads an option file as a new layer above the files loaded
// before it. A missing file adds an empty layer that Reload fills later.
// Loading the same file again reloads it.
func (s *Store) LoadFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if s.layers.GetLayer(abs) != nil {
		return s.Reload(abs)
	}
	data, err := loader.NewFileLoaderWithFS(s.fs, abs).Load()
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	s.mu.Lock()
	priority := layer.PriorityFile + len(s.files)
	s.files = append(s.files, abs)
	s.mu.Unlock()

	l := layer.NewLayerWithData(abs, layer.SourceFile, priority, data)
	l.Path = abs
	s.apply(layer.SourceFile, func() error {
		s.layers.AddLayer(l)
		return nil
	})
	s.logger.Info("option file loaded", zap.String("path", abs), zap.Bool("exists", data != nil))
	return nil
}

// LoadEnv adds the options read by env as the environment layer.
func (s *Store) LoadEnv(env *loader.EnvLoader) error {
	data, err := env.Load()
	if err != nil {
		return fmt.Errorf("loading environment: %w", err)
	}
	s.apply(layer.SourceEnv, func() error {
		name := layer.StandardLayerName(layer.SourceEnv)
		s.layers.AddLayer(layer.NewLayerWithData(name, layer.SourceEnv, layer.PriorityEnv, data))
		return nil
	})
	return nil
}

// Reload re-reads a file previously passed to LoadFile.
func (s *Store) Reload(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if s.layers.GetLayer(abs) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownFile, path)
	}

	data, err := loader.NewFileLoaderWithFS(s.fs, abs).Load()
	if err != nil {
		return fmt.Errorf("reloading %s: %w", path, err)
	}

	var applyErr error
	changed := s.apply(layer.SourceFile, func() error {
		applyErr = s.layers.UpdateLayer(abs, data)
		return applyErr
	})
	if applyErr != nil {
		return applyErr
	}
	s.logger.Info("option file reloaded", zap.String("path", abs), zap.Strings("changed", changed))
	return nil
}

// Files returns the loaded option files in load order.
func (s *Store) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.files...)
}

// Watch starts a watcher that reloads every loaded file when it changes.
// The watcher stops when ctx is done; callers must still Close it.
func (s *Store) Watch(ctx context.Context, opts ...watcher.Option) (*watcher.Watcher, error) {
	opts = append([]watcher.Option{watcher.WithLogger(s.logger)}, opts...)
	w, err := watcher.New(func(path string, op watcher.Op) {
		if err := s.Reload(path); err != nil {
			s.logger.Error("option reload failed",
				zap.String("path", path), zap.Stringer("op", op), zap.Error(err))
		}
	}, opts...)
	if err != nil {
		return nil, err
	}

	for _, f := range s.Files() {
		if err := w.Add(f); err != nil {
			w.Close()
			return nil, err
		}
	}
	if err := w.Start(ctx); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// apply runs write and fires EventAfterSetOptions with the paths it
// changed. The event is not fired when write fails.
func (s *Store) apply(source layer.Source, write func() error) []string {
	s.mu.Lock()
	before := s.layers.Merge()
	if err := write(); err != nil {
		s.mu.Unlock()
		return nil
	}
	changed := options.Changed(before, s.layers.Merge())
	s.mu.Unlock()

	s.logger.Debug("options applied",
		zap.String("source", source.String()),
		zap.Int("changed", len(changed)))

	s.bus.Fire(s, EventAfterSetOptions, map[string]any{
		"changed": changed,
		"source":  source.String(),
	})
	return changed
}
