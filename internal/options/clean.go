package options

// Clean returns the settings of newer that differ from older.
//
// Plain maps present on both sides are compared recursively and kept only
// when something below them changed. Non-primitive values are always kept.
// A key explicitly set to nil in newer is kept when older lacks it.
func Clean(newer, older map[string]any) map[string]any {
	result := make(map[string]any)

	for key, nv := range newer {
		if ForbiddenKeys.Contains(key) {
			continue
		}

		if sub, ok := nv.(map[string]any); ok && sub != nil {
			if prev, ok := older[key].(map[string]any); ok && prev != nil {
				if cleaned := Clean(sub, prev); len(cleaned) > 0 {
					result[key] = cleaned
				}
				continue
			}
			result[key] = nv
			continue
		}

		ov, exists := older[key]
		if !isPrimitive(nv) || !exists || nv != ov {
			result[key] = nv
		}
	}

	return result
}

// isPrimitive reports whether v is nil, a bool, a string or a number.
func isPrimitive(v any) bool {
	switch v.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return true
	default:
		return false
	}
}
