package wldstore

// StepCategory classifies what a workflow step does
type StepCategory string

const (
	CategoryInput        StepCategory = "input"
	CategoryNavigation   StepCategory = "navigation"
	CategoryVerification StepCategory = "verification"
	CategoryOutput       StepCategory = "output"
	CategoryOther        StepCategory = "other"
)

// IsValid reports whether c is one of the known categories.
// The empty category is valid and means "not set".
func (c StepCategory) IsValid() bool {
	switch c {
	case "", CategoryInput, CategoryNavigation, CategoryVerification, CategoryOutput, CategoryOther:
		return true
	}
	return false
}

// String returns the string representation
func (c StepCategory) String() string {
	return string(c)
}

// Workflow is a recorded UI/UX interaction workflow
type Workflow struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Steps     []WorkflowStep `json:"steps"`
	CreatedAt int64          `json:"createdAt"` // epoch ms
	UpdatedAt int64          `json:"updatedAt"` // epoch ms
}

// Step returns the step with the given id
func (w *Workflow) Step(stepID string) (*WorkflowStep, bool) {
	for i := range w.Steps {
		if w.Steps[i].ID == stepID {
			return &w.Steps[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the workflow
func (w Workflow) Clone() Workflow {
	out := w
	if w.Steps != nil {
		out.Steps = make([]WorkflowStep, len(w.Steps))
		for i, s := range w.Steps {
			out.Steps[i] = s.Clone()
		}
	}
	return out
}

// WorkflowStep is one annotated step of a workflow.
// PrerequisiteSteps and DependentSteps reference sibling step ids. By convention
// a prerequisite link A->B is mirrored by B listing A as dependent; see StepGraph.
type WorkflowStep struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description,omitempty"`
	ImageData         string       `json:"imageData,omitempty"` // data URI, possibly compressed at rest
	Purpose           string       `json:"purpose,omitempty"`
	ExpectedOutcome   string       `json:"expectedOutcome,omitempty"`
	Category          StepCategory `json:"category,omitempty"`
	PrerequisiteSteps []string     `json:"prerequisiteSteps"`
	DependentSteps    []string     `json:"dependentSteps"`
}

// Clone returns a deep copy of the step
func (s WorkflowStep) Clone() WorkflowStep {
	out := s
	out.PrerequisiteSteps = append([]string{}, s.PrerequisiteSteps...)
	out.DependentSteps = append([]string{}, s.DependentSteps...)
	return out
}

// HasRelationships returns true if the step references any sibling
func (s WorkflowStep) HasRelationships() bool {
	return len(s.PrerequisiteSteps) > 0 || len(s.DependentSteps) > 0
}

// StepAnnotation is the annotation record kept per step in the annotation store.
// It mirrors WorkflowStep and adds the time it was last written.
type StepAnnotation struct {
	WorkflowStep
	UpdatedAt int64 `json:"updatedAt"`
}

// AnnotationMap maps workflow id -> step id -> annotation
type AnnotationMap map[string]map[string]StepAnnotation

// AnnotationStats summarizes how completely a workflow's steps are annotated
type AnnotationStats struct {
	Total             int     `json:"total"`
	WithPurpose       int     `json:"withPurpose"`
	WithOutcome       int     `json:"withOutcome"`
	WithCategory      int     `json:"withCategory"`
	WithRelationships int     `json:"withRelationships"`
	Completeness      float64 `json:"completeness"` // 0..100
}

// ThemeSettings holds UI theme preferences
type ThemeSettings struct {
	DarkMode    bool   `json:"darkMode"`
	ColorScheme string `json:"colorScheme"`
	FontSize    string `json:"fontSize"`
}

// EditorSettings holds workflow editor preferences
type EditorSettings struct {
	AutoSave            bool         `json:"autoSave"`
	AutoSaveIntervalSec int          `json:"autoSaveIntervalSec"`
	ShowStepNumbers     bool         `json:"showStepNumbers"`
	DefaultCategory     StepCategory `json:"defaultCategory"`
}

// ExportSettings holds export preferences
type ExportSettings struct {
	Format          string `json:"format"`
	IncludeImages   bool   `json:"includeImages"`
	IncludeMetadata bool   `json:"includeMetadata"`
}

// Preferences is the singleton user preferences record
type Preferences struct {
	Theme           ThemeSettings  `json:"theme"`
	Editor          EditorSettings `json:"editor"`
	Export          ExportSettings `json:"export"`
	LastUsedModel   string         `json:"lastUsedModel"`
	RecentWorkflows []string       `json:"recentWorkflows"`
	LastUpdated     int64          `json:"lastUpdated"`
}

// ThemePatch is a partial update of ThemeSettings; nil fields are left unchanged
type ThemePatch struct {
	DarkMode    *bool   `json:"darkMode,omitempty"`
	ColorScheme *string `json:"colorScheme,omitempty"`
	FontSize    *string `json:"fontSize,omitempty"`
}

// EditorPatch is a partial update of EditorSettings
type EditorPatch struct {
	AutoSave            *bool         `json:"autoSave,omitempty"`
	AutoSaveIntervalSec *int          `json:"autoSaveIntervalSec,omitempty"`
	ShowStepNumbers     *bool         `json:"showStepNumbers,omitempty"`
	DefaultCategory     *StepCategory `json:"defaultCategory,omitempty"`
}

// ExportPatch is a partial update of ExportSettings
type ExportPatch struct {
	Format          *string `json:"format,omitempty"`
	IncludeImages   *bool   `json:"includeImages,omitempty"`
	IncludeMetadata *bool   `json:"includeMetadata,omitempty"`
}
