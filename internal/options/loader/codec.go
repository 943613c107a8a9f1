package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format names a supported option file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// Decode parses data in the given format. source names the input in errors.
// An empty document decodes to an empty map.
func Decode(format Format, source string, data []byte) (map[string]any, error) {
	var (
		out map[string]any
		err error
	)
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &out)
	case FormatYAML:
		err = yaml.Unmarshal(data, &out)
	case FormatJSON:
		if len(bytes.TrimSpace(data)) > 0 {
			err = json.Unmarshal(data, &out)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, newParseError(format, source, data, err)
	}
	if out == nil {
		out = make(map[string]any)
	}
	return out, nil
}

func newParseError(format Format, source string, data []byte, err error) *ParseError {
	pe := &ParseError{
		Path:    source,
		Format:  string(format),
		Message: err.Error(),
		Err:     err,
	}

	var tomlErr *toml.DecodeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &tomlErr):
		pe.Line, pe.Column = tomlErr.Position()
	case errors.As(err, &syntaxErr):
		pe.Line, pe.Column = position(data, syntaxErr.Offset)
	}
	return pe
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	prefix := data[:offset]
	line = bytes.Count(prefix, []byte("\n")) + 1
	col = int(offset) - bytes.LastIndexByte(prefix, '\n')
	return line, col
}
