package loader

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/dshills/chartkit/internal/options"
)

// DefaultEnvPrefix is the prefix read by NewEnvLoader("").
const DefaultEnvPrefix = "CHARTKIT_"

// EnvLoader loads options from environment variables.
//
// A double underscore separates path segments and single underscores inside
// a segment become camelCase: CHARTKIT_CHART__ZOOM_TYPE=x sets chart.zoomType.
type EnvLoader struct {
	prefix  string
	mapping map[string]string // Env var -> option path
	environ func() []string
}

// NewEnvLoader creates an environment loader. An empty prefix selects
// DefaultEnvPrefix.
func NewEnvLoader(prefix string) *EnvLoader {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return &EnvLoader{
		prefix:  prefix,
		mapping: make(map[string]string),
		environ: os.Environ,
	}
}

// NewEnvLoaderWithMapping creates a loader with explicit variable mappings.
func NewEnvLoaderWithMapping(prefix string, mapping map[string]string) *EnvLoader {
	l := NewEnvLoader(prefix)
	for k, v := range mapping {
		l.mapping[k] = v
	}
	return l
}

// Load reads the environment and returns an option map.
// Empty string values are kept as values, not treated as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	data := make(map[string]any)

	for _, kv := range l.environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}

		path, mapped := l.mapping[name]
		if !mapped {
			if !strings.HasPrefix(name, l.prefix) {
				continue
			}
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}
		options.SetByPath(data, path, parseValue(value))
	}

	return data, nil
}

// AddMapping maps an environment variable to an option path.
func (l *EnvLoader) AddMapping(envVar, path string) {
	l.mapping[envVar] = path
}

// RemoveMapping removes an environment variable mapping.
func (l *EnvLoader) RemoveMapping(envVar string) {
	delete(l.mapping, envVar)
}

// envToPath converts CHARTKIT_X_AXIS__TICK_INTERVAL to xAxis.tickInterval.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.TrimPrefix(env, l.prefix)
	if name == "" {
		return ""
	}

	segments := strings.Split(name, "__")
	for i, seg := range segments {
		segments[i] = camelCase(seg)
	}
	return strings.Join(segments, ".")
}

func camelCase(s string) string {
	parts := strings.Split(strings.ToLower(s), "_")
	var b strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i > 0 && b.Len() > 0 {
			b.WriteString(strings.ToUpper(part[:1]))
			b.WriteString(part[1:])
			continue
		}
		b.WriteString(part)
	}
	return b.String()
}

// parseValue converts the string value into the most specific option type.
func parseValue(s string) any {
	if s == "" {
		return s
	}

	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	case "null":
		return nil
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	// Only with a decimal point, so integers stay integers.
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, "{") {
		var v any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	return s
}
