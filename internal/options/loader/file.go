package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/dshills/chartkit/internal/options"
)

// IncludeKey lists files merged beneath the file that names them.
const IncludeKey = "@include"

// DefaultIncludeDepth bounds nested @include directives.
const DefaultIncludeDepth = 8

// FileLoader loads an option file, choosing the decoder by extension.
type FileLoader struct {
	fs   FileSystem
	path string
}

// NewFileLoader creates a loader for path on the OS file system.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{
		fs:   DefaultFS(),
		path: path,
	}
}

// NewFileLoaderWithFS creates a loader with a custom file system.
func NewFileLoaderWithFS(fsys FileSystem, path string) *FileLoader {
	return &FileLoader{
		fs:   fsys,
		path: path,
	}
}

// Path returns the configured path.
func (l *FileLoader) Path() string {
	return l.path
}

// Load reads the configured file, resolving @include directives.
func (l *FileLoader) Load() (map[string]any, error) {
	return l.LoadWithIncludes(l.path, DefaultIncludeDepth)
}

// LoadFrom reads a single file without resolving includes.
func (l *FileLoader) LoadFrom(path string) (map[string]any, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil // File doesn't exist, not an error
		}
		return nil, fmt.Errorf("reading option file %s: %w", path, err)
	}

	return Decode(format, path, data)
}

// LoadFromReader decodes options in the given format from r.
func LoadFromReader(format Format, r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading options: %w", err)
	}
	return Decode(format, "<reader>", data)
}

// LoadWithIncludes loads path and merges the files named by its @include
// key underneath it. Include paths are relative to the including file. The
// maxDepth parameter limits nesting.
func (l *FileLoader) LoadWithIncludes(path string, maxDepth int) (map[string]any, error) {
	if maxDepth <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncludeDepth, path)
	}

	data, err := l.LoadFrom(path)
	if err != nil || data == nil {
		return data, err
	}

	includes, ok := data[IncludeKey]
	if !ok {
		return data, nil
	}
	delete(data, IncludeKey)

	list, err := includeList(includes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	baseDir := filepath.Dir(path)
	merged := make(map[string]any)
	for _, inc := range list {
		incPath := inc
		if !filepath.IsAbs(inc) {
			incPath = filepath.Join(baseDir, inc)
		}

		incData, err := l.LoadWithIncludes(incPath, maxDepth-1)
		if err != nil {
			return nil, fmt.Errorf("loading include %s: %w", incPath, err)
		}
		options.MergeInto(merged, incData)
	}

	// The including file wins over everything it includes.
	return options.MergeInto(merged, data), nil
}

func includeList(v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s must be string or array of strings", IncludeKey)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be string or array of strings, got %T", IncludeKey, v)
	}
}
