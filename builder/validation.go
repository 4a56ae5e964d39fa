package builder

import (
	"fmt"

	"github.com/sicko7947/wldstore"
)

// ValidateWorkflow performs comprehensive validation on a workflow
func ValidateWorkflow(w *wldstore.Workflow) error {
	if w.ID == "" {
		return fmt.Errorf("workflow has no id")
	}
	if len(w.Steps) == 0 {
		return fmt.Errorf("workflow %s has no steps", w.ID)
	}
	if err := ValidateSteps(w.Steps); err != nil {
		return err
	}

	// Validate graph
	if err := wldstore.NewStepGraph(w.Steps).Validate(); err != nil {
		return fmt.Errorf("invalid step relationships: %w", err)
	}

	return ValidateSymmetry(w.Steps)
}

// ValidateSteps checks step ids and categories
func ValidateSteps(steps []wldstore.WorkflowStep) error {
	seen := make(map[string]bool, len(steps))
	for i, step := range steps {
		if step.ID == "" {
			return fmt.Errorf("step at index %d has no id", i)
		}
		if seen[step.ID] {
			return fmt.Errorf("duplicate step id %s", step.ID)
		}
		seen[step.ID] = true
		if !step.Category.IsValid() {
			return fmt.Errorf("step %s has unknown category %q", step.ID, step.Category)
		}
	}
	return nil
}

// ValidateNoCycles checks for cycles in the step relationships
func ValidateNoCycles(steps []wldstore.WorkflowStep) error {
	if _, err := wldstore.NewStepGraph(steps).TopologicalOrder(); err != nil {
		return err
	}
	return nil
}

// ValidateSymmetry ensures every relationship is recorded on both steps
func ValidateSymmetry(steps []wldstore.WorkflowStep) error {
	if asym := wldstore.FindAsymmetries(steps); len(asym) > 0 {
		a := asym[0]
		return fmt.Errorf("step %s is a prerequisite of %s but %s does not record it (%d asymmetric links)",
			a.PrerequisiteID, a.DependentID, a.MissingOn, len(asym))
	}
	return nil
}
