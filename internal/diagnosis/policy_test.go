package diagnosis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_RanksByConfidence(t *testing.T) {
	r := &Result{Conditions: []Condition{
		{Name: "A", Confidence: 0.3},
		{Name: "B", Confidence: 0.8},
		{Name: "C", Confidence: 0.5},
	}}

	a := Evaluate(r)
	require.NotNil(t, a.Top)
	assert.False(t, a.Insufficient)
	assert.Equal(t, "B", a.Top.Name)
	require.Len(t, a.Others, 2)
	assert.Equal(t, "C", a.Others[0].Name)
	assert.Equal(t, "A", a.Others[1].Name)

	// input is not reordered
	assert.Equal(t, "A", r.Conditions[0].Name)
}

func TestEvaluate_TiesKeepProviderOrder(t *testing.T) {
	r := &Result{Conditions: []Condition{
		{Name: "first", Confidence: 0.6},
		{Name: "second", Confidence: 0.6},
		{Name: "third", Confidence: 0.6},
	}}

	a := Evaluate(r)
	assert.Equal(t, "first", a.Top.Name)
	assert.Equal(t, "second", a.Others[0].Name)
	assert.Equal(t, "third", a.Others[1].Name)
}

func TestEvaluate_CapsOthers(t *testing.T) {
	r := &Result{}
	for i := 0; i < 9; i++ {
		r.Conditions = append(r.Conditions, Condition{Name: fmt.Sprintf("c%d", i), Confidence: 0.9 - float64(i)*0.05})
	}

	a := Evaluate(r)
	assert.Equal(t, "c0", a.Top.Name)
	assert.Len(t, a.Others, MaxOtherConditions)
	assert.Equal(t, "c5", a.Others[4].Name)
}

func TestEvaluate_Insufficient(t *testing.T) {
	tests := []struct {
		name string
		r    *Result
	}{
		{"nil result", nil},
		{"flagged", &Result{Insufficient: true, Conditions: []Condition{{Name: "A", Confidence: 0.9}}}},
		{"no conditions", &Result{}},
		{"below threshold with flag unset", &Result{Insufficient: false, Conditions: []Condition{
			{Name: "A", Confidence: 0.2}, {Name: "B", Confidence: 0.1},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Evaluate(tt.r)
			assert.True(t, a.Insufficient)
			assert.NotNil(t, a.Others)
		})
	}
}

func TestAssessment_Steps(t *testing.T) {
	t.Run("pads from fallback", func(t *testing.T) {
		a := Evaluate(&Result{Conditions: []Condition{{Name: "A", Confidence: 0.9, Steps: []string{"rest"}}}})
		steps := a.Steps(DefaultSteps)
		require.Len(t, steps, StepCount)
		assert.Equal(t, "rest", steps[0])
		assert.Equal(t, DefaultSteps[0], steps[1])
		assert.Equal(t, DefaultSteps[3], steps[4])
	})

	t.Run("truncates long lists", func(t *testing.T) {
		a := Evaluate(&Result{Conditions: []Condition{{Name: "A", Confidence: 0.9,
			Steps: []string{"1", "2", "3", "4", "5", "6", "7"}}}})
		assert.Equal(t, []string{"1", "2", "3", "4", "5"}, a.Steps(DefaultSteps))
	})

	t.Run("no steps uses fallback", func(t *testing.T) {
		a := Evaluate(&Result{Conditions: []Condition{{Name: "A", Confidence: 0.9}}})
		assert.Equal(t, DefaultSteps, a.Steps(DefaultSteps))
	})

	t.Run("no top condition", func(t *testing.T) {
		assert.Nil(t, Evaluate(&Result{}).Steps(DefaultSteps))
	})
}
