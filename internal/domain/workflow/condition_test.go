package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		expr  string
		facts SubjectFacts
		want  bool
	}{
		{"days > 2", SubjectFacts{Days: 3}, true},
		{"days > 2", SubjectFacts{Days: 2}, false},
		{"days>=2", SubjectFacts{Days: 2}, true},
		{"DAYS < 1", SubjectFacts{Days: 0}, true},
		{"days <= 0.5", SubjectFacts{Days: 1}, false},
		{"days == 1", SubjectFacts{Days: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			cond, err := ParseCondition(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cond.Eval(tt.facts))
		})
	}
}

func TestParseCondition_Invalid(t *testing.T) {
	for _, expr := range []string{"", "days", "amount > 5", "days > many", "days ~ 3"} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseCondition(expr)
			assert.ErrorIs(t, err, ErrInvalidCondition)
		})
	}
}

func TestApplicableStepOrders(t *testing.T) {
	longLeave := "days > 2"
	def := Definition{Steps: []Step{
		{StepOrder: 3, Name: "HR", Condition: &longLeave},
		{StepOrder: 1, Name: "Manager"},
		{StepOrder: 2, Name: "Head"},
	}}

	orders, err := ApplicableStepOrders(def, SubjectFacts{Days: 1})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, orders)

	orders, err = ApplicableStepOrders(def, SubjectFacts{Days: 5})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, orders)
}
