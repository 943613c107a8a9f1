package options

import (
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// GetByPath returns the value at a dot-separated path such as
// "plotOptions.series.marker.radius". Numeric segments index into []any.
//
// The lookup stops and reports false on forbidden segments, missing or nil
// children, funcs and Nodes.
func GetByPath(data any, path string) (any, bool) {
	if data == nil {
		return nil, false
	}

	current := data
	for _, part := range strings.Split(path, ".") {
		if ForbiddenKeys.Contains(part) {
			return nil, false
		}

		var child any
		switch v := current.(type) {
		case map[string]any:
			val, exists := v[part]
			if !exists {
				return nil, false
			}
			child = val
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			child = v[i]
		default:
			return nil, false
		}

		if child == nil || IsNode(child) || reflect.TypeOf(child).Kind() == reflect.Func {
			return nil, false
		}
		current = child
	}

	return current, true
}

// SetByPath sets a value in a nested map using a dot-separated path,
// creating intermediate maps as needed. Paths with forbidden segments are
// refused and report false.
func SetByPath(data map[string]any, path string, value any) bool {
	if data == nil {
		return false
	}

	parts := strings.Split(path, ".")
	if slices.ContainsFunc(parts, func(p string) bool { return ForbiddenKeys.Contains(p) }) {
		return false
	}

	current := data
	for _, part := range parts[:len(parts)-1] {
		if next, ok := current[part].(map[string]any); ok && next != nil {
			current = next
			continue
		}
		next := make(map[string]any)
		current[part] = next
		current = next
	}

	current[parts[len(parts)-1]] = value
	return true
}

// DeleteByPath removes a value from a nested map using a dot-separated path.
// Returns true if the value was found and deleted.
func DeleteByPath(data map[string]any, path string) bool {
	if data == nil {
		return false
	}

	parts := strings.Split(path, ".")
	current := data

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return false
		}
		current = next
	}

	key := parts[len(parts)-1]
	if _, exists := current[key]; exists {
		delete(current, key)
		return true
	}
	return false
}

// Flatten flattens a nested map into a single-level map with dot-separated
// keys. Only plain maps are descended into.
func Flatten(data map[string]any) map[string]any {
	result := make(map[string]any)
	flattenInto(data, "", result)
	return result
}

func flattenInto(data map[string]any, prefix string, result map[string]any) {
	for key, val := range data {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := val.(map[string]any); ok && len(nested) > 0 {
			flattenInto(nested, fullKey, result)
		} else {
			result[fullKey] = val
		}
	}
}

// Unflatten converts a map with dot-separated keys back to a nested map.
func Unflatten(data map[string]any) map[string]any {
	result := make(map[string]any)
	for path, val := range data {
		SetByPath(result, path, val)
	}
	return result
}

// Diff returns the sorted paths that differ between two option trees.
func Diff(old, new map[string]any) (added, modified, removed []string) {
	oldFlat := Flatten(old)
	newFlat := Flatten(new)

	for path, newVal := range newFlat {
		if oldVal, exists := oldFlat[path]; exists {
			if !reflect.DeepEqual(oldVal, newVal) {
				modified = append(modified, path)
			}
		} else {
			added = append(added, path)
		}
	}

	for path := range oldFlat {
		if _, exists := newFlat[path]; !exists {
			removed = append(removed, path)
		}
	}

	slices.Sort(added)
	slices.Sort(modified)
	slices.Sort(removed)
	return added, modified, removed
}

// Changed returns every path reported by Diff as one sorted list.
func Changed(old, new map[string]any) []string {
	added, modified, removed := Diff(old, new)
	all := slices.Concat(added, modified, removed)
	slices.Sort(all)
	return all
}
