package stores

import (
	"context"
	"testing"
	"time"

	"github.com/sicko7947/wldstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func annotation(title string) wldstore.StepAnnotation {
	return wldstore.StepAnnotation{WorkflowStep: wldstore.WorkflowStep{Title: title}}
}

func TestAnnotationStore_SaveAndGet(t *testing.T) {
	clock := newTestClock()
	s := NewAnnotationStore(newBackend(), WithClock(clock.Now))
	ctx := context.Background()

	_, found := s.GetStepAnnotation(ctx, "wf", "s1")
	assert.False(t, found)

	require.NoError(t, s.SaveStepAnnotation(ctx, "wf", "s1", annotation("Open page")))

	got, found := s.GetStepAnnotation(ctx, "wf", "s1")
	require.True(t, found)
	assert.Equal(t, "s1", got.ID, "the step id is filled in")
	assert.Equal(t, "Open page", got.Title)
	assert.Equal(t, clock.Now().UnixMilli(), got.UpdatedAt)
	assert.Equal(t, []string{}, got.PrerequisiteSteps)

	steps, found := s.GetWorkflowAnnotations(ctx, "wf")
	require.True(t, found)
	assert.Len(t, steps, 1)

	_, found = s.GetWorkflowAnnotations(ctx, "other")
	assert.False(t, found)
}

func TestAnnotationStore_SaveValidation(t *testing.T) {
	s := NewAnnotationStore(newBackend())
	ctx := context.Background()

	assert.True(t, wldstore.IsValidation(s.SaveStepAnnotation(ctx, "", "s1", annotation("x"))))
	assert.True(t, wldstore.IsValidation(s.SaveStepAnnotation(ctx, "wf", "", annotation("x"))))

	bad := annotation("x")
	bad.Category = "bogus"
	assert.True(t, wldstore.IsValidation(s.SaveStepAnnotation(ctx, "wf", "s1", bad)))

	_, found := s.GetWorkflowAnnotations(ctx, "wf")
	assert.False(t, found)
}

func TestAnnotationStore_UpdateField(t *testing.T) {
	clock := newTestClock()
	s := NewAnnotationStore(newBackend(), WithClock(clock.Now))
	ctx := context.Background()
	require.NoError(t, s.SaveStepAnnotation(ctx, "wf", "s1", annotation("Open page")))

	clock.Advance(time.Second)
	require.NoError(t, s.UpdateField(ctx, "wf", "s1", "purpose", "Reach the login form"))
	require.NoError(t, s.UpdateField(ctx, "wf", "s1", "category", wldstore.CategoryNavigation))
	require.NoError(t, s.UpdateField(ctx, "wf", "s1", "prerequisiteSteps", []string{"s0"}))

	got, _ := s.GetStepAnnotation(ctx, "wf", "s1")
	assert.Equal(t, "Open page", got.Title)
	assert.Equal(t, "Reach the login form", got.Purpose)
	assert.Equal(t, wldstore.CategoryNavigation, got.Category)
	assert.Equal(t, []string{"s0"}, got.PrerequisiteSteps)
	assert.Equal(t, clock.Now().UnixMilli(), got.UpdatedAt)
}

func TestAnnotationStore_UpdateFieldFailures(t *testing.T) {
	s := NewAnnotationStore(newBackend())
	ctx := context.Background()

	err := s.UpdateField(ctx, "wf", "s1", "purpose", "x")
	assert.True(t, wldstore.IsNotFound(err), "no existing annotation")

	require.NoError(t, s.SaveStepAnnotation(ctx, "wf", "s1", annotation("Open page")))

	assert.True(t, wldstore.IsValidation(s.UpdateField(ctx, "wf", "s1", "id", "other")))
	assert.True(t, wldstore.IsValidation(s.UpdateField(ctx, "wf", "s1", "nonsense", "x")))
	assert.True(t, wldstore.IsValidation(s.UpdateField(ctx, "wf", "s1", "purpose", 42)))
	assert.True(t, wldstore.IsValidation(s.UpdateField(ctx, "wf", "s1", "category", "bogus")))

	got, _ := s.GetStepAnnotation(ctx, "wf", "s1")
	assert.Empty(t, got.Purpose)
	assert.Empty(t, got.Category)
}

func TestAnnotationStore_UpdateRelationships(t *testing.T) {
	s := NewAnnotationStore(newBackend())
	ctx := context.Background()
	require.NoError(t, s.SaveStepAnnotation(ctx, "wf", "s1", annotation("one")))
	require.NoError(t, s.SaveStepAnnotation(ctx, "wf", "s2", annotation("two")))

	require.NoError(t, s.UpdateRelationships(ctx, "wf", "s2", []string{"s1"}, nil))
	require.NoError(t, s.UpdateRelationships(ctx, "wf", "s2", []string{"s1", "s0"}, []string{"s3"}))

	s2, _ := s.GetStepAnnotation(ctx, "wf", "s2")
	assert.Equal(t, []string{"s1", "s0"}, s2.PrerequisiteSteps, "lists are replaced, not merged")
	assert.Equal(t, []string{"s3"}, s2.DependentSteps)

	s1, _ := s.GetStepAnnotation(ctx, "wf", "s1")
	assert.Empty(t, s1.DependentSteps, "referenced steps are not updated")

	err := s.UpdateRelationships(ctx, "wf", "missing", nil, nil)
	assert.True(t, wldstore.IsNotFound(err))
}

func TestAnnotationStore_Stats(t *testing.T) {
	s := NewAnnotationStore(newBackend())
	ctx := context.Background()

	s1 := annotation("one")
	s1.Purpose = "p"
	s1.Category = wldstore.CategoryInput
	s2 := annotation("two")
	s2.Purpose = "p"
	s3 := annotation("three")
	s3.PrerequisiteSteps = []string{"s1"}
	s4 := annotation("four")

	require.NoError(t, s.SaveStepAnnotation(ctx, "wf", "s1", s1))
	require.NoError(t, s.SaveStepAnnotation(ctx, "wf", "s2", s2))
	require.NoError(t, s.SaveStepAnnotation(ctx, "wf", "s3", s3))
	require.NoError(t, s.SaveStepAnnotation(ctx, "wf", "s4", s4))

	stats := s.Stats(ctx, "wf")
	assert.Equal(t, wldstore.AnnotationStats{
		Total:             4,
		WithPurpose:       2,
		WithOutcome:       0,
		WithCategory:      1,
		WithRelationships: 1,
		Completeness:      25,
	}, stats)
}

func TestAnnotationStore_StatsEmpty(t *testing.T) {
	s := NewAnnotationStore(newBackend())
	assert.Equal(t, wldstore.AnnotationStats{}, s.Stats(context.Background(), "missing"))
}

func TestAnnotationStore_Deletes(t *testing.T) {
	s := NewAnnotationStore(newBackend())
	ctx := context.Background()
	require.NoError(t, s.SaveStepAnnotation(ctx, "wf", "s1", annotation("one")))
	require.NoError(t, s.SaveStepAnnotation(ctx, "wf", "s2", annotation("two")))
	require.NoError(t, s.SaveStepAnnotation(ctx, "other", "s1", annotation("one")))

	deleted, err := s.DeleteStepAnnotation(ctx, "wf", "s1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteStepAnnotation(ctx, "wf", "s1")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = s.DeleteStepAnnotation(ctx, "wf", "s2")
	require.NoError(t, err)
	assert.True(t, deleted)
	_, found := s.GetWorkflowAnnotations(ctx, "wf")
	assert.False(t, found, "a workflow without annotations is dropped")

	deleted, err = s.DeleteWorkflowAnnotations(ctx, "other")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteWorkflowAnnotations(ctx, "other")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestAnnotationStore_ReadFailureKeepsAnnotations(t *testing.T) {
	backend := &unreadableBackend{MemoryBackend: newBackend()}
	s := NewAnnotationStore(backend, WithClock(newTestClock().Now))
	ctx := context.Background()

	require.NoError(t, s.SaveStepAnnotation(ctx, "w1", "s1", annotation("one")))
	require.NoError(t, s.SaveStepAnnotation(ctx, "w2", "s1", annotation("two")))

	backend.failGets = 1
	err := s.SaveStepAnnotation(ctx, "w3", "s1", annotation("three"))
	require.Error(t, err)
	assert.Equal(t, wldstore.KindUnknown, wldstore.KindOf(err))

	backend.failGets = 1
	deleted, err := s.DeleteWorkflowAnnotations(ctx, "w1")
	require.Error(t, err)
	assert.False(t, deleted)

	backend.failGets = 1
	require.Error(t, s.UpdateField(ctx, "w2", "s1", "title", "renamed"))

	_, found := s.GetWorkflowAnnotations(ctx, "w1")
	assert.True(t, found)
	got, found := s.GetStepAnnotation(ctx, "w2", "s1")
	require.True(t, found)
	assert.Equal(t, "two", got.Title)
	_, found = s.GetWorkflowAnnotations(ctx, "w3")
	assert.False(t, found)
}
