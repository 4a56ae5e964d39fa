package stores

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sicko7947/wldstore"
	"github.com/sicko7947/wldstore/record"
)

// Annotation fields that UpdateField may change, by JSON name
var annotationFields = map[string]bool{
	"title":             true,
	"description":       true,
	"imageData":         true,
	"purpose":           true,
	"expectedOutcome":   true,
	"category":          true,
	"prerequisiteSteps": true,
	"dependentSteps":    true,
}

// AnnotationStore keeps step annotations of all workflows in one record,
// keyed by workflow id then step id. Relationship lists are stored as given;
// keeping them reciprocal is up to the caller (see wldstore.LinkSteps).
type AnnotationStore struct {
	mu      sync.Mutex
	records *record.Store[wldstore.AnnotationMap]
	cfg     config
	logger  zerolog.Logger
}

// NewAnnotationStore creates the annotation store
func NewAnnotationStore(backend wldstore.Backend, opts ...Option) *AnnotationStore {
	cfg := newConfig(opts)
	s := &AnnotationStore{
		records: record.New[wldstore.AnnotationMap](backend, wldstore.KeyAnnotations, cfg.recordOptions()...),
		cfg:     cfg,
		logger:  cfg.logger.With().Str("store", wldstore.KeyAnnotations).Logger(),
	}
	s.records.WithValidator(validateAnnotations)
	return s
}

// Record exposes the underlying record store
func (s *AnnotationStore) Record() *record.Store[wldstore.AnnotationMap] {
	return s.records
}

// GetWorkflowAnnotations returns the annotations of one workflow by step id
func (s *AnnotationStore) GetWorkflowAnnotations(ctx context.Context, workflowID string) (map[string]wldstore.StepAnnotation, bool) {
	steps, ok := s.all(ctx)[workflowID]
	return steps, ok
}

// GetStepAnnotation returns one step's annotation
func (s *AnnotationStore) GetStepAnnotation(ctx context.Context, workflowID, stepID string) (wldstore.StepAnnotation, bool) {
	a, ok := s.all(ctx)[workflowID][stepID]
	return a, ok
}

// SaveStepAnnotation inserts or replaces a step's annotation and stamps updatedAt
func (s *AnnotationStore) SaveStepAnnotation(ctx context.Context, workflowID, stepID string, annotation wldstore.StepAnnotation) error {
	if workflowID == "" || stepID == "" {
		return wldstore.NewStoreError(wldstore.KindValidationFailed, s.records.Key(), "workflow id and step id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.allForUpdate(ctx)
	if err != nil {
		return err
	}
	return s.put(ctx, all, workflowID, stepID, annotation)
}

// UpdateField sets one field, named by its JSON name, of an existing annotation
func (s *AnnotationStore) UpdateField(ctx context.Context, workflowID, stepID, field string, value any) error {
	if !annotationFields[field] {
		return wldstore.NewStoreError(wldstore.KindValidationFailed, s.records.Key(),
			fmt.Sprintf("unknown annotation field %q", field))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.allForUpdate(ctx)
	if err != nil {
		return err
	}
	current, ok := all[workflowID][stepID]
	if !ok {
		wldstore.LogAnnotationMissing(s.logger, workflowID, stepID)
		return s.notFound(workflowID, stepID)
	}

	encoded, err := json.Marshal(map[string]any{field: value})
	if err != nil {
		return wldstore.WrapStoreError(wldstore.KindValidationFailed, s.records.Key(),
			fmt.Sprintf("invalid value for %s", field), err)
	}
	updated := current
	updated.WorkflowStep = current.WorkflowStep.Clone()
	if err := json.Unmarshal(encoded, &updated); err != nil {
		return wldstore.WrapStoreError(wldstore.KindValidationFailed, s.records.Key(),
			fmt.Sprintf("invalid value for %s", field), err)
	}

	return s.put(ctx, all, workflowID, stepID, updated)
}

// UpdateRelationships replaces both relationship lists of an existing annotation.
// The referenced steps are not updated.
func (s *AnnotationStore) UpdateRelationships(ctx context.Context, workflowID, stepID string, prerequisites, dependents []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.allForUpdate(ctx)
	if err != nil {
		return err
	}
	current, ok := all[workflowID][stepID]
	if !ok {
		wldstore.LogAnnotationMissing(s.logger, workflowID, stepID)
		return s.notFound(workflowID, stepID)
	}

	current.PrerequisiteSteps = append([]string{}, prerequisites...)
	current.DependentSteps = append([]string{}, dependents...)
	return s.put(ctx, all, workflowID, stepID, current)
}

// Stats summarizes how completely a workflow's steps are annotated.
// Completeness is the share of purpose, outcome, category and relationship
// indicators that are set, in percent.
func (s *AnnotationStore) Stats(ctx context.Context, workflowID string) wldstore.AnnotationStats {
	steps, _ := s.GetWorkflowAnnotations(ctx, workflowID)

	var stats wldstore.AnnotationStats
	for _, a := range steps {
		stats.Total++
		if a.Purpose != "" {
			stats.WithPurpose++
		}
		if a.ExpectedOutcome != "" {
			stats.WithOutcome++
		}
		if a.Category != "" {
			stats.WithCategory++
		}
		if a.HasRelationships() {
			stats.WithRelationships++
		}
	}
	if stats.Total > 0 {
		filled := stats.WithPurpose + stats.WithOutcome + stats.WithCategory + stats.WithRelationships
		stats.Completeness = 100 * float64(filled) / float64(4*stats.Total)
	}
	return stats
}

// DeleteWorkflowAnnotations removes all annotations of a workflow
func (s *AnnotationStore) DeleteWorkflowAnnotations(ctx context.Context, workflowID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.allForUpdate(ctx)
	if err != nil {
		return false, err
	}
	if _, ok := all[workflowID]; !ok {
		return false, nil
	}
	delete(all, workflowID)
	if err := s.records.Set(ctx, all); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteStepAnnotation removes one step's annotation. A workflow left
// without annotations is removed as well.
func (s *AnnotationStore) DeleteStepAnnotation(ctx context.Context, workflowID, stepID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.allForUpdate(ctx)
	if err != nil {
		return false, err
	}
	steps, ok := all[workflowID]
	if !ok {
		return false, nil
	}
	if _, ok := steps[stepID]; !ok {
		return false, nil
	}
	delete(steps, stepID)
	if len(steps) == 0 {
		delete(all, workflowID)
	}
	if err := s.records.Set(ctx, all); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AnnotationStore) all(ctx context.Context) wldstore.AnnotationMap {
	all, found := s.records.Get(ctx)
	if !found || all == nil {
		return wldstore.AnnotationMap{}
	}
	return all
}

// allForUpdate is all for read-modify-write cycles; it fails when the
// backend cannot be read
func (s *AnnotationStore) allForUpdate(ctx context.Context) (wldstore.AnnotationMap, error) {
	all, found, err := loadForUpdate(ctx, s.records, s.logger)
	if err != nil {
		return nil, err
	}
	if !found || all == nil {
		return wldstore.AnnotationMap{}, nil
	}
	return all, nil
}

func (s *AnnotationStore) put(ctx context.Context, all wldstore.AnnotationMap, workflowID, stepID string, annotation wldstore.StepAnnotation) error {
	if annotation.ID == "" {
		annotation.ID = stepID
	}
	if annotation.PrerequisiteSteps == nil {
		annotation.PrerequisiteSteps = []string{}
	}
	if annotation.DependentSteps == nil {
		annotation.DependentSteps = []string{}
	}
	annotation.UpdatedAt = s.cfg.nowMillis()

	steps, ok := all[workflowID]
	if !ok {
		steps = make(map[string]wldstore.StepAnnotation)
		all[workflowID] = steps
	}
	steps[stepID] = annotation
	return s.records.Set(ctx, all)
}

func (s *AnnotationStore) notFound(workflowID, stepID string) error {
	return wldstore.NewStoreError(wldstore.KindNotFound, s.records.Key(),
		fmt.Sprintf("no annotation for step %s of workflow %s", stepID, workflowID))
}

func validateAnnotations(all wldstore.AnnotationMap) error {
	for workflowID, steps := range all {
		if workflowID == "" {
			return fmt.Errorf("annotation with empty workflow id")
		}
		for stepID, a := range steps {
			if stepID == "" {
				return fmt.Errorf("workflow %s: annotation with empty step id", workflowID)
			}
			if !a.Category.IsValid() {
				return fmt.Errorf("workflow %s: step %s has unknown category %q", workflowID, stepID, a.Category)
			}
		}
	}
	return nil
}
