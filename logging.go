package wldstore

import (
	"github.com/rs/zerolog"
)

// Log event names
const (
	// Record-level events
	EventRecordReadFailed   = "record_read_failed"
	EventRecordWriteFailed  = "record_write_failed"
	EventRecordRemoveFailed = "record_remove_failed"
	EventValidationFailed   = "validation_failed"
	EventQuotaExceeded      = "quota_exceeded"
	EventSchemaUpgraded     = "schema_upgraded"
	EventSchemaUpgradeGap   = "schema_upgrade_missing"
	EventSchemaAhead        = "schema_ahead"
	EventBackupCreated      = "backup_created"

	// Collection-level events
	EventAnnotationMissing = "annotation_missing"
	EventLegacyMigrated    = "legacy_migrated"
	EventImagesOptimized   = "images_optimized"
)

// LogReadFailed logs a read that was treated as absent
func LogReadFailed(logger zerolog.Logger, key string, err error) {
	logger.Error().
		Str("event", EventRecordReadFailed).
		Str("key", key).
		Err(err).
		Msg("Failed to read record, treating as absent")
}

// LogWriteFailed logs a failed write. Quota failures get a hint.
func LogWriteFailed(logger zerolog.Logger, key string, err error) {
	if IsQuotaExceeded(err) {
		logger.Error().
			Str("event", EventQuotaExceeded).
			Str("key", key).
			Err(err).
			Msg("Storage quota exceeded, consider enabling compression or lowering the threshold")
		return
	}
	logger.Error().
		Str("event", EventRecordWriteFailed).
		Str("key", key).
		Err(err).
		Msg("Failed to write record")
}

// LogValidationFailed logs a rejected value
func LogValidationFailed(logger zerolog.Logger, key string, err error) {
	logger.Warn().
		Str("event", EventValidationFailed).
		Str("key", key).
		Err(err).
		Msg("Validation failed, value not written")
}

// LogRemoveFailed logs a failed delete
func LogRemoveFailed(logger zerolog.Logger, key string, err error) {
	logger.Error().
		Str("event", EventRecordRemoveFailed).
		Str("key", key).
		Err(err).
		Msg("Failed to remove record")
}

// LogSchemaUpgraded logs a stored payload being upgraded on read
func LogSchemaUpgraded(logger zerolog.Logger, key string, from, to int) {
	logger.Info().
		Str("event", EventSchemaUpgraded).
		Str("key", key).
		Int("from_version", from).
		Int("to_version", to).
		Msg("Upgraded stored record")
}

// LogBackupCreated logs a new backup key
func LogBackupCreated(logger zerolog.Logger, key, backupKey string) {
	logger.Info().
		Str("event", EventBackupCreated).
		Str("key", key).
		Str("backup_key", backupKey).
		Msg("Backup created")
}

// LogAnnotationMissing logs an update against an annotation that does not exist
func LogAnnotationMissing(logger zerolog.Logger, workflowID, stepID string) {
	logger.Warn().
		Str("event", EventAnnotationMissing).
		Str("workflow_id", workflowID).
		Str("step_id", stepID).
		Msg("No annotation to update")
}

// LogLegacyMigrated logs a completed legacy import
func LogLegacyMigrated(logger zerolog.Logger, legacyKey string, count int) {
	logger.Info().
		Str("event", EventLegacyMigrated).
		Str("legacy_key", legacyKey).
		Int("workflow_count", count).
		Msg("Imported legacy workflows")
}

// LogImagesOptimized logs how many step images were newly compressed
func LogImagesOptimized(logger zerolog.Logger, count int) {
	logger.Info().
		Str("event", EventImagesOptimized).
		Int("compressed_count", count).
		Msg("Optimized image storage")
}

// StoreLogger creates a logger enriched with the record key
func StoreLogger(baseLogger zerolog.Logger, key string) zerolog.Logger {
	return baseLogger.With().
		Str("store_key", key).
		Logger()
}
