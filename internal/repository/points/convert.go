package points

import (
	"math"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/searchpad/internal/domain/search/filter"
)

// toQdrantFilter converts the domain filter tree into a Qdrant filter.
func toQdrantFilter(p *filter.Payload) *qdrant.Filter {
	if p == nil || p.IsEmpty() {
		return nil
	}

	f := &qdrant.Filter{
		Must:    toQdrantConditions(p.Must),
		MustNot: toQdrantConditions(p.MustNot),
	}
	if len(p.Should) > 0 {
		should := toQdrantConditions(p.Should)
		if p.MinShouldMatch > 0 {
			f.MinShould = &qdrant.MinShould{
				Conditions: should,
				MinCount:   uint64(p.MinShouldMatch),
			}
		} else {
			f.Should = should
		}
	}
	return f
}

func toQdrantConditions(clauses []filter.Clause) []*qdrant.Condition {
	if len(clauses) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(clauses))
	for _, c := range clauses {
		conditions = append(conditions, toQdrantCondition(c))
	}
	return conditions
}

func toQdrantCondition(c filter.Clause) *qdrant.Condition {
	fc := &qdrant.FieldCondition{Key: c.Key}

	switch {
	case c.Match != nil && c.Match.Text != "":
		fc.Match = &qdrant.Match{MatchValue: &qdrant.Match_Text{Text: c.Match.Text}}
	case c.Match != nil:
		fc.Match = toQdrantMatch(c.Match.Value)
	case c.Range != nil:
		fc.Range = &qdrant.Range{
			Gt:  c.Range.GT,
			Gte: c.Range.GTE,
			Lt:  c.Range.LT,
			Lte: c.Range.LTE,
		}
	}

	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{Field: fc},
	}
}

// toQdrantMatch maps a parsed primitive onto the closest Qdrant match
// kind. Non-integral numbers have no exact-match kind and fall back to
// their keyword form.
func toQdrantMatch(value any) *qdrant.Match {
	switch v := value.(type) {
	case bool:
		return &qdrant.Match{MatchValue: &qdrant.Match_Boolean{Boolean: v}}
	case float64:
		if v == math.Trunc(v) {
			return &qdrant.Match{MatchValue: &qdrant.Match_Integer{Integer: int64(v)}}
		}
		return &qdrant.Match{MatchValue: &qdrant.Match_Keyword{
			Keyword: strconv.FormatFloat(v, 'f', -1, 64),
		}}
	case string:
		return &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: v}}
	default:
		return &qdrant.Match{MatchValue: &qdrant.Match_Keyword{Keyword: ""}}
	}
}

// fromQdrantValue converts a Qdrant payload value into plain Go data.
func fromQdrantValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_StructValue:
		if val.StructValue == nil {
			return nil
		}
		nested := make(map[string]any, len(val.StructValue.Fields))
		for k, f := range val.StructValue.Fields {
			nested[k] = fromQdrantValue(f)
		}
		return nested
	case *qdrant.Value_ListValue:
		if val.ListValue == nil {
			return nil
		}
		items := make([]any, 0, len(val.ListValue.Values))
		for _, item := range val.ListValue.Values {
			items = append(items, fromQdrantValue(item))
		}
		return items
	default:
		return nil
	}
}
