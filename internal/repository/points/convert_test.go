package points

import (
	"testing"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/searchpad/internal/domain/search/filter"
)

func mustBuild(t *testing.T, conds []filter.Condition, combine filter.CombineMode) *filter.Payload {
	t.Helper()
	p, err := filter.Build(conds, combine)
	if err != nil {
		t.Fatalf("filter.Build: %v", err)
	}
	return &p
}

func TestToQdrantFilter_Nil(t *testing.T) {
	if got := toQdrantFilter(nil); got != nil {
		t.Errorf("expected nil filter, got %+v", got)
	}
}

func TestToQdrantFilter_MustAndMustNot(t *testing.T) {
	p := mustBuild(t, []filter.Condition{
		{Field: "status", Operator: filter.OpEq, Value: "done"},
		{Field: "state", Operator: filter.OpNeq, Value: "archived"},
	}, filter.CombineAnd)

	f := toQdrantFilter(p)
	if len(f.Must) != 1 || len(f.MustNot) != 1 || f.MinShould != nil {
		t.Fatalf("unexpected filter: %+v", f)
	}

	fc := f.Must[0].GetField()
	if fc.Key != "status" {
		t.Errorf("Key = %q", fc.Key)
	}
	if fc.Match.GetKeyword() != "done" {
		t.Errorf("Keyword = %q", fc.Match.GetKeyword())
	}
}

func TestToQdrantFilter_OrUsesMinShould(t *testing.T) {
	p := mustBuild(t, []filter.Condition{
		{Field: "a", Operator: filter.OpEq, Value: "1"},
		{Field: "b", Operator: filter.OpEq, Value: "2"},
	}, filter.CombineOr)

	f := toQdrantFilter(p)
	if f.MinShould == nil {
		t.Fatal("MinShould is nil")
	}
	if f.MinShould.MinCount != 1 || len(f.MinShould.Conditions) != 2 {
		t.Errorf("MinShould = %+v", f.MinShould)
	}
}

func TestToQdrantCondition_MatchKinds(t *testing.T) {
	tests := []struct {
		name  string
		value string
		check func(t *testing.T, m *qdrant.Match)
	}{
		{"integer", "42", func(t *testing.T, m *qdrant.Match) {
			if m.GetInteger() != 42 {
				t.Errorf("Integer = %d", m.GetInteger())
			}
		}},
		{"boolean", "true", func(t *testing.T, m *qdrant.Match) {
			if !m.GetBoolean() {
				t.Error("Boolean = false")
			}
		}},
		{"keyword", "draft", func(t *testing.T, m *qdrant.Match) {
			if m.GetKeyword() != "draft" {
				t.Errorf("Keyword = %q", m.GetKeyword())
			}
		}},
		{"fractional falls back to keyword", "1.5", func(t *testing.T, m *qdrant.Match) {
			if m.GetKeyword() != "1.5" {
				t.Errorf("Keyword = %q", m.GetKeyword())
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustBuild(t, []filter.Condition{
				{Field: "f", Operator: filter.OpEq, Value: tt.value},
			}, filter.CombineAnd)
			f := toQdrantFilter(p)
			tt.check(t, f.Must[0].GetField().Match)
		})
	}
}

func TestToQdrantCondition_Text(t *testing.T) {
	p := mustBuild(t, []filter.Condition{
		{Field: "title", Operator: filter.OpContains, Value: "intro"},
	}, filter.CombineAnd)
	f := toQdrantFilter(p)
	if f.Must[0].GetField().Match.GetText() != "intro" {
		t.Errorf("Text = %q", f.Must[0].GetField().Match.GetText())
	}
}

func TestToQdrantCondition_Range(t *testing.T) {
	p := mustBuild(t, []filter.Condition{
		{Field: "price", Operator: filter.OpGte, Value: "10"},
	}, filter.CombineAnd)
	f := toQdrantFilter(p)
	r := f.Must[0].GetField().Range
	if r == nil || r.Gte == nil || *r.Gte != 10 {
		t.Errorf("Range = %+v", r)
	}
	if r.Gt != nil || r.Lt != nil || r.Lte != nil {
		t.Errorf("unexpected extra bounds: %+v", r)
	}
}

func TestFromQdrantValue_Nested(t *testing.T) {
	v := &qdrant.Value{Kind: &qdrant.Value_StructValue{StructValue: &qdrant.Struct{
		Fields: map[string]*qdrant.Value{
			"name":  {Kind: &qdrant.Value_StringValue{StringValue: "x"}},
			"count": {Kind: &qdrant.Value_IntegerValue{IntegerValue: 3}},
			"tags": {Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{
				Values: []*qdrant.Value{
					{Kind: &qdrant.Value_StringValue{StringValue: "a"}},
					{Kind: &qdrant.Value_BoolValue{BoolValue: true}},
				},
			}}},
		},
	}}}

	got, ok := fromQdrantValue(v).(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", fromQdrantValue(v))
	}
	if got["name"] != "x" || got["count"] != int64(3) {
		t.Errorf("got = %#v", got)
	}
	tags, ok := got["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "a" || tags[1] != true {
		t.Errorf("tags = %#v", got["tags"])
	}
}

func TestPointID(t *testing.T) {
	if got := pointID(nil); got != "" {
		t.Errorf("pointID(nil) = %q", got)
	}
	uuidID := &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: "abc-123"}}
	if got := pointID(uuidID); got != "abc-123" {
		t.Errorf("uuid id = %q", got)
	}
	numID := &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: 7}}
	if got := pointID(numID); got != "7" {
		t.Errorf("num id = %q", got)
	}
}
