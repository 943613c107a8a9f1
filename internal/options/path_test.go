package options

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGetByPath(t *testing.T) {
	data := map[string]any{
		"chart": map[string]any{
			"type":   "line",
			"zoom":   nil,
			"render": func() {},
			"el":     fakeNode{},
		},
		"series": []any{
			map[string]any{"name": "a"},
			map[string]any{"name": "b"},
		},
		"count": 3,
	}

	tests := []struct {
		path   string
		want   any
		wantOK bool
	}{
		{"chart.type", "line", true},
		{"count", 3, true},
		{"series.1.name", "b", true},
		{"series.2.name", nil, false},
		{"series.x", nil, false},
		{"chart.missing", nil, false},
		{"chart.zoom", nil, false},
		{"chart.render", nil, false},
		{"chart.el", nil, false},
		{"count.x", nil, false},
		{"__proto__", nil, false},
		{"chart.constructor", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := GetByPath(data, tt.path)
			if ok != tt.wantOK {
				t.Fatalf("GetByPath(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("GetByPath(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	if _, ok := GetByPath(nil, "a"); ok {
		t.Error("GetByPath(nil) should fail")
	}
}

func TestSetByPath(t *testing.T) {
	data := map[string]any{"chart": "flat"}

	if !SetByPath(data, "chart.type", "bar") {
		t.Fatal("SetByPath failed")
	}
	SetByPath(data, "title.text", "Hello")

	want := map[string]any{
		"chart": map[string]any{"type": "bar"},
		"title": map[string]any{"text": "Hello"},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	if SetByPath(data, "a.__proto__.b", 1) {
		t.Error("forbidden path accepted")
	}
	if _, ok := data["a"]; ok {
		t.Error("forbidden path left intermediate maps behind")
	}
	if SetByPath(data, "title.constructor", 1) {
		t.Error("forbidden leaf accepted")
	}
	if SetByPath(nil, "a", 1) {
		t.Error("SetByPath(nil) should fail")
	}
}

func TestDeleteByPath(t *testing.T) {
	data := map[string]any{"chart": map[string]any{"type": "bar", "width": 3}}

	if !DeleteByPath(data, "chart.type") {
		t.Error("existing path not deleted")
	}
	if DeleteByPath(data, "chart.type") {
		t.Error("second delete reported success")
	}
	if DeleteByPath(data, "nope.x") {
		t.Error("missing parent reported success")
	}
	if diff := cmp.Diff(map[string]any{"chart": map[string]any{"width": 3}}, data); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenUnflatten(t *testing.T) {
	nested := map[string]any{
		"chart":  map[string]any{"type": "bar", "margin": map[string]any{"top": 1}},
		"data":   []any{1},
		"legend": map[string]any{},
	}

	flat := Flatten(nested)
	want := map[string]any{
		"chart.type":       "bar",
		"chart.margin.top": 1,
		"data":             []any{1},
		"legend":           map[string]any{},
	}
	if diff := cmp.Diff(want, flat); diff != "" {
		t.Fatalf("Flatten mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(nested, Unflatten(flat)); diff != "" {
		t.Errorf("Unflatten mismatch (-want +got):\n%s", diff)
	}
}

func TestDiff(t *testing.T) {
	old := map[string]any{
		"chart": map[string]any{"type": "line", "width": 100},
		"data":  []any{1, 2},
		"gone":  true,
	}
	updated := map[string]any{
		"chart": map[string]any{"type": "bar", "width": 100},
		"data":  []any{1, 2},
		"new":   map[string]any{"x": 1},
	}

	added, modified, removed := Diff(old, updated)

	if diff := cmp.Diff([]string{"new.x"}, added); diff != "" {
		t.Errorf("added (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"chart.type"}, modified); diff != "" {
		t.Errorf("modified (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"gone"}, removed); diff != "" {
		t.Errorf("removed (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"chart.type", "gone", "new.x"}, Changed(old, updated)); diff != "" {
		t.Errorf("Changed (-want +got):\n%s", diff)
	}
}
