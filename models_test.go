package wldstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepCategory_IsValid(t *testing.T) {
	for _, c := range []StepCategory{"", CategoryInput, CategoryNavigation, CategoryVerification, CategoryOutput, CategoryOther} {
		assert.True(t, c.IsValid(), "category %q", c)
	}
	assert.False(t, StepCategory("bogus").IsValid())
	assert.Equal(t, "input", CategoryInput.String())
}

func TestWorkflow_Step(t *testing.T) {
	w := Workflow{Steps: []WorkflowStep{{ID: "a"}, {ID: "b"}}}

	step, ok := w.Step("b")
	require.True(t, ok)
	step.Title = "changed in place"
	assert.Equal(t, "changed in place", w.Steps[1].Title)

	_, ok = w.Step("missing")
	assert.False(t, ok)
}

func TestWorkflow_Clone(t *testing.T) {
	w := Workflow{ID: "wf", Steps: []WorkflowStep{{ID: "a", PrerequisiteSteps: []string{"x"}}}}
	c := w.Clone()

	c.Steps[0].Title = "changed"
	c.Steps[0].PrerequisiteSteps[0] = "y"
	assert.Empty(t, w.Steps[0].Title)
	assert.Equal(t, "x", w.Steps[0].PrerequisiteSteps[0])

	assert.Nil(t, Workflow{}.Clone().Steps)
}

func TestWorkflowStep_HasRelationships(t *testing.T) {
	assert.False(t, WorkflowStep{}.HasRelationships())
	assert.True(t, WorkflowStep{PrerequisiteSteps: []string{"a"}}.HasRelationships())
	assert.True(t, WorkflowStep{DependentSteps: []string{"a"}}.HasRelationships())
}

func TestWorkflowStep_JSONShape(t *testing.T) {
	data, err := json.Marshal(WorkflowStep{ID: "a", Title: "A"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","title":"A","prerequisiteSteps":null,"dependentSteps":null}`, string(data))

	var step WorkflowStep
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","title":"A","category":"output","expectedOutcome":"done"}`), &step))
	assert.Equal(t, CategoryOutput, step.Category)
	assert.Equal(t, "done", step.ExpectedOutcome)
}

func TestStepAnnotation_FlattensStep(t *testing.T) {
	a := StepAnnotation{WorkflowStep: WorkflowStep{ID: "a", Purpose: "p"}, UpdatedAt: 5}
	data, err := json.Marshal(a)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "a", fields["id"])
	assert.Equal(t, "p", fields["purpose"])
	assert.Equal(t, float64(5), fields["updatedAt"])
}
