package options

import "bitbucket.org/creachadair/stringset"

// ForbiddenKeys are skipped by every merge and path operation.
var ForbiddenKeys = stringset.New("__proto__", "constructor")

// Node is implemented by values that stand for rendered elements. Nodes are
// atomic for merging and opaque for path lookups.
type Node interface {
	NodeType() int
}

// IsNode reports whether v is a Node.
func IsNode(v any) bool {
	_, ok := v.(Node)
	return ok
}

// IsPlain reports whether v is a mergeable option map.
func IsPlain(v any) bool {
	m, ok := v.(map[string]any)
	return ok && m != nil
}

// Merge deep-merges sources, left to right, into a new map. Nil sources are
// skipped. With a single source the result is a deep copy of its plain
// levels; atomic values are shared.
func Merge(sources ...map[string]any) map[string]any {
	return MergeInto(nil, sources...)
}

// MergeInto deep-merges sources into target and returns target. When target
// is nil a new map is returned.
func MergeInto(target map[string]any, sources ...map[string]any) map[string]any {
	if target == nil {
		target = make(map[string]any)
	}
	for _, src := range sources {
		target = mergeMap(target, src)
	}
	return target
}

// mergeMap copies src into dst. Plain values are merged into the matching
// slot of dst, which is replaced by a new map when it is absent or not plain.
func mergeMap(dst, src map[string]any) map[string]any {
	for key, value := range src {
		if ForbiddenKeys.Contains(key) {
			continue
		}

		if sub, ok := value.(map[string]any); ok && sub != nil {
			slot, ok := dst[key].(map[string]any)
			if !ok || slot == nil {
				slot = make(map[string]any, len(sub))
			}
			dst[key] = mergeMap(slot, sub)
			continue
		}

		// Primitives, slices, foreign values and explicit nils.
		dst[key] = value
	}
	return dst
}

// Clone returns a deep copy of the plain levels of m.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return Merge(m)
}

// Pick returns the first value that is not nil.
func Pick(values ...any) any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
