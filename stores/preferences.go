package stores

import (
	"context"
	"fmt"
	"sync"

	"github.com/sicko7947/wldstore"
	"github.com/sicko7947/wldstore/record"
)

// PreferencesStore keeps the singleton user preferences. Reads are completed
// field by field from wldstore.DefaultPreferences.
type PreferencesStore struct {
	mu      sync.Mutex
	records *record.Store[wldstore.Preferences]
	cfg     config
}

// NewPreferencesStore creates the preferences store
func NewPreferencesStore(backend wldstore.Backend, opts ...Option) *PreferencesStore {
	cfg := newConfig(opts)
	s := &PreferencesStore{
		records: record.New[wldstore.Preferences](backend, wldstore.KeyPreferences, cfg.recordOptions()...),
		cfg:     cfg,
	}
	s.records.WithBase(wldstore.DefaultPreferences).WithValidator(validatePreferences)
	return s
}

// Record exposes the underlying record store
func (s *PreferencesStore) Record() *record.Store[wldstore.Preferences] {
	return s.records
}

// Get returns the stored preferences, or the defaults when nothing usable is stored
func (s *PreferencesStore) Get(ctx context.Context) wldstore.Preferences {
	prefs, found := s.records.Get(ctx)
	if !found {
		return wldstore.DefaultPreferences()
	}
	if prefs.RecentWorkflows == nil {
		prefs.RecentWorkflows = []string{}
	}
	return prefs
}

// UpdateTheme merges the set fields of patch into the theme settings
func (s *PreferencesStore) UpdateTheme(ctx context.Context, patch wldstore.ThemePatch) error {
	return s.update(ctx, func(p *wldstore.Preferences) error {
		return wldstore.MergePatch(&p.Theme, patch)
	})
}

// UpdateEditor merges the set fields of patch into the editor settings
func (s *PreferencesStore) UpdateEditor(ctx context.Context, patch wldstore.EditorPatch) error {
	return s.update(ctx, func(p *wldstore.Preferences) error {
		return wldstore.MergePatch(&p.Editor, patch)
	})
}

// UpdateExport merges the set fields of patch into the export settings
func (s *PreferencesStore) UpdateExport(ctx context.Context, patch wldstore.ExportPatch) error {
	return s.update(ctx, func(p *wldstore.Preferences) error {
		return wldstore.MergePatch(&p.Export, patch)
	})
}

// SetLastUsedModel records the model identifier last chosen by the user
func (s *PreferencesStore) SetLastUsedModel(ctx context.Context, model string) error {
	return s.update(ctx, func(p *wldstore.Preferences) error {
		p.LastUsedModel = model
		return nil
	})
}

// AddRecentWorkflow moves id to the front of the recent list, keeping at most
// wldstore.MaxRecentWorkflows distinct entries
func (s *PreferencesStore) AddRecentWorkflow(ctx context.Context, id string) error {
	if id == "" {
		return wldstore.NewStoreError(wldstore.KindValidationFailed, s.records.Key(), "workflow id is required")
	}
	return s.update(ctx, func(p *wldstore.Preferences) error {
		recent := make([]string, 0, wldstore.MaxRecentWorkflows)
		recent = append(recent, id)
		for _, existing := range p.RecentWorkflows {
			if existing != id && len(recent) < wldstore.MaxRecentWorkflows {
				recent = append(recent, existing)
			}
		}
		p.RecentWorkflows = recent
		return nil
	})
}

// ResetToDefaults overwrites the stored preferences with the defaults
func (s *PreferencesStore) ResetToDefaults(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Set(ctx, wldstore.DefaultPreferences())
}

func (s *PreferencesStore) update(ctx context.Context, fn func(*wldstore.Preferences) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, found, err := loadForUpdate(ctx, s.records, s.cfg.logger)
	if err != nil {
		return err
	}
	if !found {
		prefs = wldstore.DefaultPreferences()
	}
	if prefs.RecentWorkflows == nil {
		prefs.RecentWorkflows = []string{}
	}
	if err := fn(&prefs); err != nil {
		return wldstore.WrapStoreError(wldstore.KindValidationFailed, s.records.Key(), "invalid preferences update", err)
	}
	prefs.LastUpdated = s.cfg.nowMillis()
	return s.records.Set(ctx, prefs)
}

func validatePreferences(p wldstore.Preferences) error {
	if !p.Editor.DefaultCategory.IsValid() {
		return fmt.Errorf("unknown default category %q", p.Editor.DefaultCategory)
	}
	if p.Editor.AutoSaveIntervalSec < 0 {
		return fmt.Errorf("auto-save interval must not be negative, got %d", p.Editor.AutoSaveIntervalSec)
	}
	if len(p.RecentWorkflows) > wldstore.MaxRecentWorkflows {
		return fmt.Errorf("at most %d recent workflows, got %d", wldstore.MaxRecentWorkflows, len(p.RecentWorkflows))
	}
	return nil
}
