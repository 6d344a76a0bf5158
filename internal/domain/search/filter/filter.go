// Package filter turns structured filter conditions into a provider
// filter tree with must/should/must_not boolean semantics.
package filter

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/searchpad/internal/domain"
)

// Operator is a filter condition operator.
type Operator string

// Condition operators.
const (
	OpEq       Operator = "eq"
	OpNeq      Operator = "neq"
	OpContains Operator = "contains"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
)

// IsValid checks if the operator is one of the supported values.
func (o Operator) IsValid() bool {
	switch o {
	case OpEq, OpNeq, OpContains, OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// IsRange reports whether the operator compares against a numeric bound.
func (o Operator) IsRange() bool {
	switch o {
	case OpGt, OpGte, OpLt, OpLte:
		return true
	}
	return false
}

// CombineMode controls how positive conditions are combined.
type CombineMode string

// Combine modes. Negative (neq) conditions go to must_not regardless.
const (
	CombineAnd CombineMode = "and"
	CombineOr  CombineMode = "or"
)

// Condition is a single user-entered filter condition. Conditions are
// created and edited by the caller and validated here at build time.
type Condition struct {
	ID       string
	Field    string
	Operator Operator
	Value    string
}

// NewCondition creates a condition with a fresh unique id.
func NewCondition(field string, op Operator, value string) Condition {
	return Condition{ID: uuid.NewString(), Field: field, Operator: op, Value: value}
}

// Match is an exact-value or full-text match clause.
type Match struct {
	// Value is set for eq/neq clauses; bool, float64 or string.
	Value any
	// Text is set for contains clauses.
	Text string
}

// Range holds numeric bounds; exactly one bound is set per clause.
type Range struct {
	GT  *float64
	GTE *float64
	LT  *float64
	LTE *float64
}

// Clause is a single node of the provider filter tree.
type Clause struct {
	Key   string
	Match *Match
	Range *Range
}

// Payload is the provider-facing filter tree.
type Payload struct {
	Must    []Clause
	Should  []Clause
	MustNot []Clause
	// MinShouldMatch is 1 when Should is populated (or-combine hint).
	MinShouldMatch int
}

// IsEmpty reports whether the payload has no clauses.
func (p Payload) IsEmpty() bool {
	return len(p.Must) == 0 && len(p.Should) == 0 && len(p.MustNot) == 0
}

// ParsePrimitive coerces a raw condition value to its natural type:
// case-insensitive "true"/"false" become bool, numeric strings become
// float64, everything else stays a trimmed string.
func ParsePrimitive(raw string) any {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return trimmed
}

// Build validates conditions and assembles the provider filter tree.
// Conditions without a field are dropped; at least one condition must
// survive. eq produces a positive value match, neq a negative one
// (always must_not, regardless of combine mode), contains a positive
// text match with a required non-empty value, and the range operators
// positive numeric bounds. combine=and places positives under must,
// combine=or under should with a min-match count of 1.
func Build(conditions []Condition, combine CombineMode) (Payload, error) {
	var positive, negative []Clause

	seen := false
	for _, c := range conditions {
		field := strings.TrimSpace(c.Field)
		if field == "" {
			continue
		}
		seen = true

		switch c.Operator {
		case OpEq:
			positive = append(positive, Clause{
				Key:   field,
				Match: &Match{Value: ParsePrimitive(c.Value)},
			})
		case OpNeq:
			negative = append(negative, Clause{
				Key:   field,
				Match: &Match{Value: ParsePrimitive(c.Value)},
			})
		case OpContains:
			if strings.TrimSpace(c.Value) == "" {
				return Payload{}, domain.NewValidation(field, "contains requires a value")
			}
			positive = append(positive, Clause{
				Key:   field,
				Match: &Match{Text: c.Value},
			})
		case OpGt, OpGte, OpLt, OpLte:
			f, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
			if err != nil {
				return Payload{}, domain.NewValidation(field,
					"%s requires a numeric value, got %q", c.Operator, c.Value)
			}
			positive = append(positive, Clause{Key: field, Range: newRange(c.Operator, f)})
		default:
			return Payload{}, domain.NewValidation(field, "unknown operator %q", c.Operator)
		}
	}

	if !seen {
		return Payload{}, domain.NewValidation("filter", "at least one condition with a field is required")
	}

	var payload Payload
	switch {
	case combine == CombineOr && len(positive) > 0:
		payload.Should = positive
		payload.MinShouldMatch = 1
	case len(positive) > 0:
		payload.Must = positive
	}
	payload.MustNot = negative

	if payload.IsEmpty() {
		return Payload{}, domain.NewValidation("filter", "filter produced no clauses")
	}
	return payload, nil
}

func newRange(op Operator, f float64) *Range {
	r := &Range{}
	switch op {
	case OpGt:
		r.GT = &f
	case OpGte:
		r.GTE = &f
	case OpLt:
		r.LT = &f
	case OpLte:
		r.LTE = &f
	}
	return r
}
