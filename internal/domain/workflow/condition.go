package workflow

import (
	"fmt"
	"strconv"
	"strings"
)

// Condition is a single comparison gating whether a step applies to a request
type Condition struct {
	Field string
	Op    string
	Value float64
}

var conditionOps = []string{">=", "<=", "==", ">", "<"}

var conditionFields = map[string]func(SubjectFacts) float64{
	"days": func(f SubjectFacts) float64 { return float64(f.Days) },
}

// ParseCondition parses "<field> <op> <number>", e.g. "days > 2" or "days>=5"
func ParseCondition(expr string) (Condition, error) {
	s := strings.TrimSpace(expr)
	for _, op := range conditionOps {
		idx := strings.Index(s, op)
		if idx < 0 {
			continue
		}
		field := strings.ToLower(strings.TrimSpace(s[:idx]))
		if _, ok := conditionFields[field]; !ok {
			return Condition{}, fmt.Errorf("%w: unknown field %q", ErrInvalidCondition, field)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(s[idx+len(op):]), 64)
		if err != nil {
			return Condition{}, fmt.Errorf("%w: %q", ErrInvalidCondition, expr)
		}
		return Condition{Field: field, Op: op, Value: value}, nil
	}
	return Condition{}, fmt.Errorf("%w: %q", ErrInvalidCondition, expr)
}

func (c Condition) Eval(facts SubjectFacts) bool {
	v := conditionFields[c.Field](facts)
	switch c.Op {
	case ">":
		return v > c.Value
	case ">=":
		return v >= c.Value
	case "<":
		return v < c.Value
	case "<=":
		return v <= c.Value
	case "==":
		return v == c.Value
	}
	return false
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Field, c.Op, strconv.FormatFloat(c.Value, 'f', -1, 64))
}

// ApplicableStepOrders returns the ascending step orders whose condition holds for facts
func ApplicableStepOrders(def Definition, facts SubjectFacts) ([]int, error) {
	var orders []int
	for _, step := range def.SortedSteps() {
		if step.Condition != nil && strings.TrimSpace(*step.Condition) != "" {
			cond, err := ParseCondition(*step.Condition)
			if err != nil {
				return nil, err
			}
			if !cond.Eval(facts) {
				continue
			}
		}
		orders = append(orders, step.StepOrder)
	}
	return orders, nil
}
