package stores

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sicko7947/wldstore"
	"github.com/sicko7947/wldstore/codec"
)

// LegacyKey returns the key MigrateLegacy reads from
func (s *WorkflowStore) LegacyKey() string {
	return s.legacyKey
}

// MigrateLegacy imports the plain workflow array stored under the legacy key,
// replacing the current collection. It returns wldstore.ErrNothingToMigrate
// when the legacy key is absent or holds no workflows. The legacy value is
// left in place, so calling it again imports the same data again.
func (s *WorkflowStore) MigrateLegacy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, found, err := s.backend.Get(ctx, s.legacyKey)
	if err != nil {
		return wldstore.WrapStoreError(wldstore.KindUnknown, s.legacyKey, "failed to read legacy workflows", err)
	}
	raw = strings.TrimSpace(codec.AutoDecompress(raw))
	if !found || raw == "" || raw == "null" {
		return wldstore.ErrNothingToMigrate
	}

	var legacy []wldstore.Workflow
	if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
		return wldstore.WrapStoreError(wldstore.KindSerializationFailed, s.legacyKey, "failed to parse legacy workflows", err)
	}
	if len(legacy) == 0 {
		return wldstore.ErrNothingToMigrate
	}

	migrated := make([]wldstore.Workflow, len(legacy))
	for i, w := range legacy {
		if w.Steps == nil {
			w.Steps = []wldstore.WorkflowStep{}
		}
		migrated[i] = s.compressImages(w)
	}

	if err := s.records.Set(ctx, migrated); err != nil {
		return err
	}
	wldstore.LogLegacyMigrated(s.logger, s.legacyKey, len(migrated))
	return nil
}
