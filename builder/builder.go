// Package builder constructs annotated workflows with reciprocal step
// relationships, ready to be saved through stores.WorkflowStore.
package builder

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sicko7947/wldstore"
)

// WorkflowBuilder provides a fluent API for building workflows
type WorkflowBuilder struct {
	workflow    wldstore.Workflow
	lastStepIDs []string
	err         error
}

// NewWorkflow creates a new workflow builder. An empty id gets a UUIDv7.
func NewWorkflow(id, title string, opts ...WorkflowOption) *WorkflowBuilder {
	if id == "" {
		id = newID()
	}
	if title == "" {
		title = wldstore.DefaultWorkflowTitle
	}
	b := &WorkflowBuilder{
		workflow: wldstore.Workflow{
			ID:    id,
			Title: title,
			Steps: []wldstore.WorkflowStep{},
		},
		lastStepIDs: []string{},
	}
	ApplyOptions(&b.workflow, opts...)
	return b
}

// WithTitle sets the workflow title
func (b *WorkflowBuilder) WithTitle(title string) *WorkflowBuilder {
	b.workflow.Title = title
	return b
}

// WithTimestamps sets createdAt and updatedAt, e.g. when rebuilding an import
func (b *WorkflowBuilder) WithTimestamps(createdAt, updatedAt int64) *WorkflowBuilder {
	b.workflow.CreatedAt = createdAt
	b.workflow.UpdatedAt = updatedAt
	return b
}

// ThenStep adds step as a dependent of the last added step(s)
func (b *WorkflowBuilder) ThenStep(step wldstore.WorkflowStep) *WorkflowBuilder {
	stepID := b.register(step)
	for _, lastID := range b.lastStepIDs {
		b.link(lastID, stepID)
	}
	b.lastStepIDs = []string{stepID}
	return b
}

// Parallel adds steps that all depend on the last added step(s) but not on
// each other
func (b *WorkflowBuilder) Parallel(steps ...wldstore.WorkflowStep) *WorkflowBuilder {
	var newLastIDs []string
	for _, step := range steps {
		stepID := b.register(step)
		for _, lastID := range b.lastStepIDs {
			b.link(lastID, stepID)
		}
		newLastIDs = append(newLastIDs, stepID)
	}
	b.lastStepIDs = newLastIDs
	return b
}

// Sequence adds steps and chains them together in order
func (b *WorkflowBuilder) Sequence(steps ...wldstore.WorkflowStep) *WorkflowBuilder {
	for _, step := range steps {
		b.ThenStep(step)
	}
	return b
}

// Independent adds a step without linking it to anything, and starts a new chain
func (b *WorkflowBuilder) Independent(step wldstore.WorkflowStep) *WorkflowBuilder {
	stepID := b.register(step)
	b.lastStepIDs = []string{stepID}
	return b
}

// Link records an explicit relationship between two added steps
func (b *WorkflowBuilder) Link(prerequisiteID, dependentID string) *WorkflowBuilder {
	b.link(prerequisiteID, dependentID)
	return b
}

// Build finalizes and validates the workflow
func (b *WorkflowBuilder) Build() (wldstore.Workflow, error) {
	if b.err != nil {
		return wldstore.Workflow{}, b.err
	}
	w := b.workflow.Clone()
	if err := ValidateWorkflow(&w); err != nil {
		return wldstore.Workflow{}, err
	}
	return w, nil
}

// MustBuild finalizes and validates the workflow, panics on error
func (b *WorkflowBuilder) MustBuild() wldstore.Workflow {
	w, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build workflow: %v", err))
	}
	return w
}

func (b *WorkflowBuilder) register(step wldstore.WorkflowStep) string {
	if step.ID == "" {
		step.ID = newID()
	}
	if _, exists := b.workflow.Step(step.ID); exists {
		b.fail(fmt.Errorf("duplicate step id %s", step.ID))
		return step.ID
	}
	step = step.Clone()
	b.workflow.Steps = append(b.workflow.Steps, step)
	return step.ID
}

func (b *WorkflowBuilder) link(prerequisiteID, dependentID string) {
	if err := wldstore.LinkSteps(b.workflow.Steps, prerequisiteID, dependentID); err != nil {
		b.fail(fmt.Errorf("failed to link steps: %w", err))
	}
}

// fail keeps the first error; Build reports it
func (b *WorkflowBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
