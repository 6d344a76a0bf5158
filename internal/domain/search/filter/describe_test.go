package filter

import "testing"

func TestDescribe(t *testing.T) {
	tests := []struct {
		name    string
		conds   []Condition
		combine CombineMode
		want    string
	}{
		{
			"two eq or",
			[]Condition{
				{Field: "a", Operator: OpEq, Value: "1"},
				{Field: "b", Operator: OpEq, Value: "2"},
			},
			CombineOr,
			"a = 1 ∨ b = 2",
		},
		{
			"and junction",
			[]Condition{
				{Field: "status", Operator: OpNeq, Value: "done"},
				{Field: "price", Operator: OpLte, Value: "10"},
			},
			CombineAnd,
			"status ≠ done ∧ price ≤ 10",
		},
		{
			"contains and ranges",
			[]Condition{
				{Field: "title", Operator: OpContains, Value: "intro"},
				{Field: "n", Operator: OpGt, Value: "0"},
				{Field: "n", Operator: OpGte, Value: "1"},
				{Field: "n", Operator: OpLt, Value: "5"},
			},
			CombineAnd,
			"title ∋ intro ∧ n > 0 ∧ n ≥ 1 ∧ n < 5",
		},
		{
			"empty value renders as empty-set",
			[]Condition{{Field: "tag", Operator: OpEq, Value: ""}},
			CombineAnd,
			"tag = ∅",
		},
		{
			"fieldless conditions skipped",
			[]Condition{
				{Field: "", Operator: OpEq, Value: "x"},
				{Field: "a", Operator: OpEq, Value: "1"},
			},
			CombineOr,
			"a = 1",
		},
		{"no fields at all", []Condition{{Field: " ", Operator: OpEq, Value: "x"}}, CombineAnd, NoFilterText},
		{"nil conditions", nil, CombineOr, NoFilterText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.conds, tt.combine); got != tt.want {
				t.Errorf("Describe = %q, want %q", got, tt.want)
			}
		})
	}
}
