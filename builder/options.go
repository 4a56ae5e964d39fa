package builder

import "github.com/sicko7947/wldstore"

// WorkflowOption is a functional option for configuring workflows
type WorkflowOption func(*wldstore.Workflow)

// WithCreatedAt sets the creation timestamp in epoch ms
func WithCreatedAt(ms int64) WorkflowOption {
	return func(w *wldstore.Workflow) {
		w.CreatedAt = ms
	}
}

// WithUpdatedAt sets the update timestamp in epoch ms
func WithUpdatedAt(ms int64) WorkflowOption {
	return func(w *wldstore.Workflow) {
		w.UpdatedAt = ms
	}
}

// ApplyOptions applies a list of options to a workflow
func ApplyOptions(w *wldstore.Workflow, opts ...WorkflowOption) {
	for _, opt := range opts {
		opt(w)
	}
}

// StepOption is a functional option for configuring steps
type StepOption func(*wldstore.WorkflowStep)

// NewStep creates a step. An empty id is filled in when the step is added
// to a builder.
func NewStep(id, title string, opts ...StepOption) wldstore.WorkflowStep {
	step := wldstore.WorkflowStep{
		ID:                id,
		Title:             title,
		PrerequisiteSteps: []string{},
		DependentSteps:    []string{},
	}
	for _, opt := range opts {
		opt(&step)
	}
	return step
}

// WithDescription sets the step description
func WithDescription(description string) StepOption {
	return func(s *wldstore.WorkflowStep) {
		s.Description = description
	}
}

// WithPurpose sets why the step is performed
func WithPurpose(purpose string) StepOption {
	return func(s *wldstore.WorkflowStep) {
		s.Purpose = purpose
	}
}

// WithExpectedOutcome sets what the step should produce
func WithExpectedOutcome(outcome string) StepOption {
	return func(s *wldstore.WorkflowStep) {
		s.ExpectedOutcome = outcome
	}
}

// WithCategory sets the step category
func WithCategory(category wldstore.StepCategory) StepOption {
	return func(s *wldstore.WorkflowStep) {
		s.Category = category
	}
}

// WithImage attaches a screenshot as a data URI
func WithImage(dataURI string) StepOption {
	return func(s *wldstore.WorkflowStep) {
		s.ImageData = dataURI
	}
}
