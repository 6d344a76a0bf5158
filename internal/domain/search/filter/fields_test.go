package filter

import (
	"reflect"
	"testing"
)

func TestCollectFieldPaths_Nested(t *testing.T) {
	points := []map[string]any{
		{
			"id": "1",
			"payload": map[string]any{
				"city": "Berlin",
				"meta": map[string]any{
					"lang":  "de",
					"flags": map[string]any{"draft": true},
				},
			},
		},
		{
			"id":      "2",
			"score":   0.9,
			"payload": map[string]any{"city": "Paris", "price": 10},
		},
	}

	got := CollectFieldPaths(points)
	want := []string{"city", "meta", "meta.flags", "meta.flags.draft", "meta.lang", "price"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("paths = %v, want %v", got, want)
	}
}

func TestCollectFieldPaths_ExtraAttributeKept(t *testing.T) {
	points := []map[string]any{
		{"id": "1", "vector": []float32{1}, "shard_key": "s", "order_value": 1, "score": 0.5, "custom": "x"},
	}
	got := CollectFieldPaths(points)
	want := []string{"custom"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("paths = %v, want %v", got, want)
	}
}

func TestCollectFieldPaths_Empty(t *testing.T) {
	if got := CollectFieldPaths(nil); len(got) != 0 {
		t.Errorf("paths = %v, want empty", got)
	}
}
