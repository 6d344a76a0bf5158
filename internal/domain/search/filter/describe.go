package filter

import "strings"

// NoFilterText is returned when no condition carries a field.
const NoFilterText = "no filter"

var operatorSymbols = map[Operator]string{
	OpEq:       "=",
	OpNeq:      "≠",
	OpContains: "∋",
	OpGt:       ">",
	OpGte:      "≥",
	OpLt:       "<",
	OpLte:      "≤",
}

// Describe renders conditions as a human-readable expression, e.g.
// "status = done ∧ price ≤ 10". Conditions without a field are skipped;
// empty values render as ∅.
func Describe(conditions []Condition, combine CombineMode) string {
	junction := " ∧ "
	if combine == CombineOr {
		junction = " ∨ "
	}

	var fragments []string
	for _, c := range conditions {
		field := strings.TrimSpace(c.Field)
		if field == "" {
			continue
		}
		sym, ok := operatorSymbols[c.Operator]
		if !ok {
			sym = string(c.Operator)
		}
		value := strings.TrimSpace(c.Value)
		if value == "" {
			value = "∅"
		}
		fragments = append(fragments, field+" "+sym+" "+value)
	}

	if len(fragments) == 0 {
		return NoFilterText
	}
	return strings.Join(fragments, junction)
}
