package options

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeNode struct{ name string }

func (fakeNode) NodeType() int { return 1 }

type seriesType struct{ Name string }

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		sources []map[string]any
		want    map[string]any
	}{
		{
			name:    "no sources",
			sources: nil,
			want:    map[string]any{},
		},
		{
			name: "recursive merge keeps siblings",
			sources: []map[string]any{
				{"a": 1, "b": map[string]any{"c": 2}},
				{"b": map[string]any{"d": 3}},
			},
			want: map[string]any{"a": 1, "b": map[string]any{"c": 2, "d": 3}},
		},
		{
			name: "arrays replaced wholesale",
			sources: []map[string]any{
				{"a": []any{1, 2}},
				{"a": []any{3}},
			},
			want: map[string]any{"a": []any{3}},
		},
		{
			name: "later source wins",
			sources: []map[string]any{
				{"chart": map[string]any{"type": "line", "width": 400}},
				{"chart": map[string]any{"type": "column"}},
				{"chart": map[string]any{"width": 600}},
			},
			want: map[string]any{"chart": map[string]any{"type": "column", "width": 600}},
		},
		{
			name: "nil sources skipped",
			sources: []map[string]any{
				nil,
				{"a": 1},
				nil,
			},
			want: map[string]any{"a": 1},
		},
		{
			name: "object replaces primitive",
			sources: []map[string]any{
				{"title": "Sales"},
				{"title": map[string]any{"text": "Revenue"}},
			},
			want: map[string]any{"title": map[string]any{"text": "Revenue"}},
		},
		{
			name: "primitive replaces object",
			sources: []map[string]any{
				{"legend": map[string]any{"enabled": true}},
				{"legend": false},
			},
			want: map[string]any{"legend": false},
		},
		{
			name: "object merged over array starts fresh",
			sources: []map[string]any{
				{"xAxis": []any{1}},
				{"xAxis": map[string]any{"min": 0}},
			},
			want: map[string]any{"xAxis": map[string]any{"min": 0}},
		},
		{
			name: "explicit nil recorded",
			sources: []map[string]any{
				{"a": 1},
				{"b": nil, "a": nil},
			},
			want: map[string]any{"a": nil, "b": nil},
		},
		{
			name: "forbidden keys skipped at every level",
			sources: []map[string]any{
				{"__proto__": map[string]any{"polluted": true}},
				{"nested": map[string]any{"constructor": "x", "ok": 1}},
			},
			want: map[string]any{"nested": map[string]any{"ok": 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.sources...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMerge_DoesNotMutateSources(t *testing.T) {
	a := map[string]any{"b": map[string]any{"c": 2}}
	b := map[string]any{"b": map[string]any{"d": 3}}

	Merge(a, b)

	if diff := cmp.Diff(map[string]any{"b": map[string]any{"c": 2}}, a); diff != "" {
		t.Errorf("first source mutated (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"b": map[string]any{"d": 3}}, b); diff != "" {
		t.Errorf("second source mutated (-want +got):\n%s", diff)
	}
}

func TestMerge_SingleSourceDeepCopy(t *testing.T) {
	arr := []any{1, 2}
	inst := &seriesType{Name: "line"}
	node := fakeNode{name: "svg"}
	src := map[string]any{
		"a": map[string]any{
			"b":    map[string]any{"c": 1},
			"list": arr,
		},
		"series": inst,
		"node":   node,
	}

	got := Merge(src)

	if diff := cmp.Diff(src, got, cmp.AllowUnexported(fakeNode{})); diff != "" {
		t.Fatalf("copy differs (-want +got):\n%s", diff)
	}

	srcA := src["a"].(map[string]any)
	gotA := got["a"].(map[string]any)
	gotA["x"] = true
	if _, ok := srcA["x"]; ok {
		t.Error("nested map shared with source")
	}
	gotA["b"].(map[string]any)["c"] = 99
	if srcA["b"].(map[string]any)["c"] != 1 {
		t.Error("second-level map shared with source")
	}

	// Atomic values are shared, not cloned.
	gotList := gotA["list"].([]any)
	if &gotList[0] != &arr[0] {
		t.Error("slice was cloned")
	}
	if got["series"] != any(inst) {
		t.Error("struct pointer was cloned")
	}
}

func TestMerge_ForeignValuesAreAtomic(t *testing.T) {
	type named map[string]any
	inst := &seriesType{Name: "a"}

	got := Merge(
		map[string]any{"s": map[string]any{"keep": 1}, "n": map[string]any{"keep": 1}, "el": map[string]any{"keep": 1}},
		map[string]any{"s": inst, "n": named{"x": 1}, "el": fakeNode{}},
	)

	if got["s"] != any(inst) {
		t.Errorf("struct pointer not copied by reference: %v", got["s"])
	}
	if _, ok := got["n"].(named); !ok {
		t.Errorf("named map type merged instead of replaced: %T", got["n"])
	}
	if _, ok := got["el"].(fakeNode); !ok {
		t.Errorf("node merged instead of replaced: %T", got["el"])
	}
}

func TestMergeInto_InPlace(t *testing.T) {
	nested := map[string]any{"c": 2}
	target := map[string]any{"a": 1, "b": nested}

	got := MergeInto(target, map[string]any{"x": 1}, nil, map[string]any{"b": map[string]any{"d": 3}})

	got["marker"] = true
	if _, ok := target["marker"]; !ok {
		t.Fatal("MergeInto did not return target itself")
	}
	if nested["d"] != 3 {
		t.Error("nested plain map not merged in place")
	}
	if target["x"] != 1 {
		t.Error("source not applied to target")
	}
}

func TestMergeInto_NilTarget(t *testing.T) {
	got := MergeInto(nil, map[string]any{"a": 1})
	if diff := cmp.Diff(map[string]any{"a": 1}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge_ProtoPollution(t *testing.T) {
	got := Merge(map[string]any{
		"__proto__":   map[string]any{"polluted": true},
		"constructor": map[string]any{"prototype": map[string]any{"polluted": true}},
	})
	if len(got) != 0 {
		t.Errorf("forbidden keys copied: %v", got)
	}

	fresh := Merge()
	if _, ok := fresh["polluted"]; ok {
		t.Error("pollution leaked into later merges")
	}
}

func TestClone(t *testing.T) {
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
	src := map[string]any{"a": map[string]any{"b": 1}}
	c := Clone(src)
	c["a"].(map[string]any)["b"] = 2
	if src["a"].(map[string]any)["b"] != 1 {
		t.Error("Clone shares nested maps")
	}
}

func TestIsPlain(t *testing.T) {
	type named map[string]any
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"map", map[string]any{}, true},
		{"nil map", map[string]any(nil), false},
		{"named map", named{}, false},
		{"slice", []any{}, false},
		{"struct", seriesType{}, false},
		{"pointer", &seriesType{}, false},
		{"node", fakeNode{}, false},
		{"nil", nil, false},
		{"string", "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPlain(tt.v); got != tt.want {
				t.Errorf("IsPlain(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestPick(t *testing.T) {
	if got := Pick(nil, nil, 0, 5); got != 0 {
		t.Errorf("Pick = %v, want 0", got)
	}
	if got := Pick(nil, "x"); got != "x" {
		t.Errorf("Pick = %v, want x", got)
	}
	if got := Pick(); got != nil {
		t.Errorf("Pick() = %v, want nil", got)
	}
}
