package stores

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sicko7947/wldstore"
	"github.com/sicko7947/wldstore/codec"
	"github.com/sicko7947/wldstore/record"
)

// WorkflowStore keeps every workflow in one record. Step images are
// compressed on their own above the image threshold and callers only
// ever see them decompressed.
type WorkflowStore struct {
	mu        sync.Mutex
	records   *record.Store[[]wldstore.Workflow]
	backend   wldstore.Backend
	images    *codec.Codec
	legacyKey string
	cfg       config
	logger    zerolog.Logger
}

// NewWorkflowStore creates the workflow store
func NewWorkflowStore(backend wldstore.Backend, opts ...Option) *WorkflowStore {
	cfg := newConfig(opts)
	s := &WorkflowStore{
		records:   record.New[[]wldstore.Workflow](backend, wldstore.KeyWorkflows, cfg.recordOptions()...),
		backend:   backend,
		images:    codec.New(cfg.imageThreshold),
		legacyKey: cfg.legacyKey,
		cfg:       cfg,
		logger:    cfg.logger.With().Str("store", wldstore.KeyWorkflows).Logger(),
	}
	s.records.WithValidator(validateWorkflows)
	return s
}

// Record exposes the underlying record store for backups and size diagnostics
func (s *WorkflowStore) Record() *record.Store[[]wldstore.Workflow] {
	return s.records
}

// ImageCodec returns the codec used for step images
func (s *WorkflowStore) ImageCodec() *codec.Codec {
	return s.images
}

// GetAll returns every workflow with step images decompressed
func (s *WorkflowStore) GetAll(ctx context.Context) []wldstore.Workflow {
	stored := s.stored(ctx)
	out := make([]wldstore.Workflow, len(stored))
	for i, w := range stored {
		out[i] = s.decompressImages(w)
	}
	return out
}

// GetByID returns the workflow with the given id
func (s *WorkflowStore) GetByID(ctx context.Context, id string) (wldstore.Workflow, bool) {
	for _, w := range s.GetAll(ctx) {
		if w.ID == id {
			return w, true
		}
	}
	return wldstore.Workflow{}, false
}

// Save inserts or replaces w by id and stamps its timestamps. A new workflow
// gets createdAt and updatedAt set to now; an existing one gets an updatedAt
// strictly greater than the stored one.
func (s *WorkflowStore) Save(ctx context.Context, w *wldstore.Workflow) error {
	if w == nil {
		return wldstore.NewStoreError(wldstore.KindValidationFailed, s.records.Key(), "workflow must not be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.storedForUpdate(ctx)
	if err != nil {
		return err
	}
	now := s.cfg.nowMillis()

	saved := *w
	idx := indexOf(all, w.ID)
	if idx >= 0 {
		saved.UpdatedAt = max(now, all[idx].UpdatedAt+1)
		if saved.CreatedAt == 0 {
			saved.CreatedAt = all[idx].CreatedAt
		}
	} else {
		saved.CreatedAt = now
		saved.UpdatedAt = now
	}
	if saved.Steps == nil {
		saved.Steps = []wldstore.WorkflowStep{}
	}

	next := make([]wldstore.Workflow, len(all), len(all)+1)
	copy(next, all)
	if idx >= 0 {
		next[idx] = s.compressImages(saved)
	} else {
		next = append(next, s.compressImages(saved))
	}

	if err := s.records.Set(ctx, next); err != nil {
		return err
	}
	w.CreatedAt = saved.CreatedAt
	w.UpdatedAt = saved.UpdatedAt
	w.Steps = saved.Steps
	return nil
}

// Delete removes the workflow with the given id and reports whether it existed
func (s *WorkflowStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.storedForUpdate(ctx)
	if err != nil {
		return false, err
	}
	next := make([]wldstore.Workflow, 0, len(all))
	for _, w := range all {
		if w.ID != id {
			next = append(next, w)
		}
	}
	if len(next) == len(all) {
		return false, nil
	}
	if err := s.records.Set(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// CreateNew returns an unsaved empty workflow with a time-ordered id
func (s *WorkflowStore) CreateNew(title string) wldstore.Workflow {
	if title == "" {
		title = wldstore.DefaultWorkflowTitle
	}
	now := s.cfg.nowMillis()
	return wldstore.Workflow{
		ID:        newWorkflowID(),
		Title:     title,
		Steps:     []wldstore.WorkflowStep{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TotalImageStorageSize sums the estimated size of every step image as stored
func (s *WorkflowStore) TotalImageStorageSize(ctx context.Context) int {
	total := 0
	for _, w := range s.stored(ctx) {
		for _, step := range w.Steps {
			total += codec.EstimateSize(step.ImageData)
		}
	}
	return total
}

// OptimizeImageStorage compresses stored images that have grown past the
// image threshold and returns how many were compressed. Nothing is written
// when no image changed.
func (s *WorkflowStore) OptimizeImageStorage(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.storedForUpdate(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range all {
		for j := range all[i].Steps {
			step := &all[i].Steps[j]
			if step.ImageData == "" || codec.IsCompressed(step.ImageData) {
				continue
			}
			compressed := s.images.AutoCompress(step.ImageData)
			if codec.IsCompressed(compressed) {
				step.ImageData = compressed
				count++
			}
		}
	}

	if count == 0 {
		return 0, nil
	}
	if err := s.records.Set(ctx, all); err != nil {
		return 0, err
	}
	wldstore.LogImagesOptimized(s.logger, count)
	return count, nil
}

// stored returns the collection exactly as persisted
func (s *WorkflowStore) stored(ctx context.Context) []wldstore.Workflow {
	all, found := s.records.Get(ctx)
	if !found || all == nil {
		return []wldstore.Workflow{}
	}
	return all
}

// storedForUpdate is stored for read-modify-write cycles; it fails when the
// backend cannot be read
func (s *WorkflowStore) storedForUpdate(ctx context.Context) ([]wldstore.Workflow, error) {
	all, found, err := loadForUpdate(ctx, s.records, s.logger)
	if err != nil {
		return nil, err
	}
	if !found || all == nil {
		return []wldstore.Workflow{}, nil
	}
	return all, nil
}

func (s *WorkflowStore) compressImages(w wldstore.Workflow) wldstore.Workflow {
	out := w.Clone()
	for i := range out.Steps {
		img := out.Steps[i].ImageData
		if img != "" && !codec.IsCompressed(img) {
			out.Steps[i].ImageData = s.images.AutoCompress(img)
		}
	}
	return out
}

func (s *WorkflowStore) decompressImages(w wldstore.Workflow) wldstore.Workflow {
	out := w.Clone()
	for i := range out.Steps {
		out.Steps[i].ImageData = s.images.AutoDecompress(out.Steps[i].ImageData)
	}
	return out
}

func indexOf(all []wldstore.Workflow, id string) int {
	for i := range all {
		if all[i].ID == id {
			return i
		}
	}
	return -1
}

func newWorkflowID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// validateWorkflows checks the collection shape before it is written
func validateWorkflows(all []wldstore.Workflow) error {
	seen := make(map[string]bool, len(all))
	for i, w := range all {
		if w.ID == "" {
			return fmt.Errorf("workflow at index %d has no id", i)
		}
		if seen[w.ID] {
			return fmt.Errorf("duplicate workflow id %s", w.ID)
		}
		seen[w.ID] = true

		stepIDs := make(map[string]bool, len(w.Steps))
		for j, step := range w.Steps {
			if step.ID == "" {
				return fmt.Errorf("workflow %s: step at index %d has no id", w.ID, j)
			}
			if stepIDs[step.ID] {
				return fmt.Errorf("workflow %s: duplicate step id %s", w.ID, step.ID)
			}
			stepIDs[step.ID] = true
			if !step.Category.IsValid() {
				return fmt.Errorf("workflow %s: step %s has unknown category %q", w.ID, step.ID, step.Category)
			}
		}
	}
	return nil
}
