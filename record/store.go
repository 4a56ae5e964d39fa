// Package record persists exactly one typed value under one namespaced key of a
// wldstore.Backend, wrapped in a versioned envelope and optionally compressed.
//
// Reads never fail: a missing, corrupted or un-upgradable value is reported as
// absent by Get (Load additionally returns the cause). Writes return a
// *wldstore.StoreError whose Kind tells validation, serialization and quota
// failures apart; nothing is written when a write fails.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sicko7947/wldstore"
	"github.com/sicko7947/wldstore/codec"
)

// Envelope is the persisted wrapper around a payload
type Envelope[T any] struct {
	SchemaVersion int   `json:"schemaVersion"`
	UpdatedAt     int64 `json:"updatedAt"` // epoch ms
	Payload       T     `json:"payload"`
}

type rawEnvelope = Envelope[json.RawMessage]

// Store persists one value of type T
type Store[T any] struct {
	backend  wldstore.Backend
	name     string
	key      string
	version  int
	upgrades map[int]UpgradeFunc
	codec    *codec.Codec
	logger   zerolog.Logger
	clock    func() time.Time

	compression atomic.Bool
	validate    func(T) error
	base        func() T
}

// New creates a store for the logical key name
func New[T any](backend wldstore.Backend, name string, opts ...Option) *Store[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	key := ComposeKey(o.namespace, name)
	s := &Store[T]{
		backend:  backend,
		name:     name,
		key:      key,
		version:  o.schemaVersion,
		upgrades: o.upgrades,
		codec:    codec.New(o.threshold),
		logger:   wldstore.StoreLogger(o.logger, key),
		clock:    o.clock,
	}
	s.compression.Store(o.compression)
	return s
}

// ComposeKey builds the backend key for a logical key
func ComposeKey(namespace, name string) string {
	return namespace + "_" + name
}

// WithValidator installs a structural check that runs after the non-nil check
func (s *Store[T]) WithValidator(fn func(T) error) *Store[T] {
	s.validate = fn
	return s
}

// WithBase sets the value stored payloads are decoded onto. Fields missing from
// the stored JSON keep the base value, which completes partially written records.
func (s *Store[T]) WithBase(fn func() T) *Store[T] {
	s.base = fn
	return s
}

// Key returns the composed backend key
func (s *Store[T]) Key() string {
	return s.key
}

// Name returns the logical key
func (s *Store[T]) Name() string {
	return s.name
}

// SchemaVersion returns the version written by Set
func (s *Store[T]) SchemaVersion() int {
	return s.version
}

// Get returns the stored value. Any failure is logged and reported as absent.
func (s *Store[T]) Get(ctx context.Context) (T, bool) {
	value, found, err := s.Load(ctx)
	if err != nil {
		wldstore.LogReadFailed(s.logger, s.key, err)
		var zero T
		return zero, false
	}
	return value, found
}

// Load is Get with the read error exposed
func (s *Store[T]) Load(ctx context.Context) (T, bool, error) {
	var zero T
	countRead(s.key)

	raw, found, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return zero, false, wldstore.WrapStoreError(wldstore.KindUnknown, s.key, "failed to read", err)
	}
	if !found {
		return zero, false, nil
	}

	value, err := s.decode(raw)
	if err != nil {
		return zero, false, err
	}
	return value, true, nil
}

// Set validates, wraps, optionally compresses and writes value
func (s *Store[T]) Set(ctx context.Context, value T) error {
	if err := s.check(value); err != nil {
		wldstore.LogValidationFailed(s.logger, s.key, err)
		countFailure(s.key, err)
		return err
	}

	encoded, err := s.encode(value)
	if err != nil {
		wldstore.LogWriteFailed(s.logger, s.key, err)
		countFailure(s.key, err)
		return err
	}

	if err := s.write(ctx, s.key, encoded); err != nil {
		return err
	}
	countWrite(s.key, codec.IsCompressed(encoded))
	return nil
}

// Remove deletes the key
func (s *Store[T]) Remove(ctx context.Context) error {
	if err := s.backend.Delete(ctx, s.key); err != nil {
		wrapped := wldstore.WrapStoreError(wldstore.KindUnknown, s.key, "failed to remove", err)
		wldstore.LogRemoveFailed(s.logger, s.key, wrapped)
		return wrapped
	}
	return nil
}

// Exists reports whether the key holds any value
func (s *Store[T]) Exists(ctx context.Context) bool {
	_, found, err := s.backend.Get(ctx, s.key)
	return err == nil && found
}

// CreateBackup copies the current value to a timestamp-suffixed key and
// returns that key. It returns "" when there is nothing to back up.
// Backups are never restored or pruned automatically.
func (s *Store[T]) CreateBackup(ctx context.Context) (string, error) {
	value, found, err := s.Load(ctx)
	if err != nil {
		wldstore.LogReadFailed(s.logger, s.key, err)
		return "", err
	}
	if !found {
		return "", nil
	}

	encoded, err := s.encode(value)
	if err != nil {
		return "", err
	}

	backupKey := fmt.Sprintf("%s%d", s.backupPrefix(), s.clock().UnixMilli())
	if err := s.write(ctx, backupKey, encoded); err != nil {
		return "", err
	}
	wldstore.LogBackupCreated(s.logger, s.key, backupKey)
	return backupKey, nil
}

// ListBackups returns the keys written by CreateBackup, oldest first
func (s *Store[T]) ListBackups(ctx context.Context) ([]string, error) {
	keys, err := s.backend.Keys(ctx, s.backupPrefix())
	if err != nil {
		return nil, wldstore.WrapStoreError(wldstore.KindUnknown, s.key, "failed to list backups", err)
	}
	return keys, nil
}

func (s *Store[T]) backupPrefix() string {
	return s.key + "_backup_"
}

// SetCompression changes the policy for subsequent writes
func (s *Store[T]) SetCompression(enabled bool) {
	s.compression.Store(enabled)
}

// CompressionEnabled reports the current policy
func (s *Store[T]) CompressionEnabled() bool {
	return s.compression.Load()
}

// SetCompressionThreshold changes the threshold for subsequent writes
func (s *Store[T]) SetCompressionThreshold(bytes int) {
	s.codec.SetThreshold(bytes)
}

// CompressionThreshold returns the current threshold
func (s *Store[T]) CompressionThreshold() int {
	return s.codec.Threshold()
}

// ApproximateSize returns the estimated storage cost of the raw stored string
func (s *Store[T]) ApproximateSize(ctx context.Context) int {
	raw, found, err := s.backend.Get(ctx, s.key)
	if err != nil || !found {
		return 0
	}
	return codec.EstimateSize(raw)
}

func (s *Store[T]) check(value T) error {
	if isNil(value) {
		return wldstore.NewStoreError(wldstore.KindValidationFailed, s.key, "value must not be nil")
	}
	if s.validate != nil {
		if err := s.validate(value); err != nil {
			var se *wldstore.StoreError
			if errors.As(err, &se) {
				return se
			}
			return wldstore.WrapStoreError(wldstore.KindValidationFailed, s.key, "invalid value", err)
		}
	}
	return nil
}

func (s *Store[T]) encode(value T) (string, error) {
	env := Envelope[T]{
		SchemaVersion: s.version,
		UpdatedAt:     s.clock().UnixMilli(),
		Payload:       value,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return "", wldstore.WrapStoreError(wldstore.KindSerializationFailed, s.key, "failed to serialize", err)
	}

	encoded := string(data)
	if s.compression.Load() {
		encoded = s.codec.AutoCompress(encoded)
	}
	return encoded, nil
}

func (s *Store[T]) write(ctx context.Context, key, encoded string) error {
	if err := s.backend.Set(ctx, key, encoded); err != nil {
		kind := wldstore.KindUnknown
		if errors.Is(err, wldstore.ErrQuotaExceeded) {
			kind = wldstore.KindQuotaExceeded
		}
		wrapped := wldstore.WrapStoreError(kind, key, "failed to write", err)
		wldstore.LogWriteFailed(s.logger, key, wrapped)
		countFailure(s.key, wrapped)
		return wrapped
	}
	return nil
}

func (s *Store[T]) decode(raw string) (T, error) {
	var zero T

	data := codec.AutoDecompress(raw)
	if codec.IsCompressed(data) {
		return zero, wldstore.NewStoreError(wldstore.KindSerializationFailed, s.key, "failed to decompress")
	}

	var env rawEnvelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return zero, wldstore.WrapStoreError(wldstore.KindSerializationFailed, s.key, "failed to parse envelope", err)
	}
	if env.SchemaVersion <= 0 || len(env.Payload) == 0 {
		return zero, wldstore.NewStoreError(wldstore.KindSerializationFailed, s.key, "not a versioned envelope")
	}

	payload, err := s.upgrade(env.SchemaVersion, env.Payload)
	if err != nil {
		return zero, err
	}

	value := zero
	if s.base != nil {
		value = s.base()
	}
	if err := json.Unmarshal(payload, &value); err != nil {
		return zero, wldstore.WrapStoreError(wldstore.KindSerializationFailed, s.key, "failed to parse payload", err)
	}
	return value, nil
}

// upgrade runs the registered upgrades from the stored version up to the
// store's version. A version with no registered step passes the payload
// through unchanged, so the value stays readable and survives the next write.
func (s *Store[T]) upgrade(from int, payload json.RawMessage) (json.RawMessage, error) {
	if from > s.version {
		s.logger.Warn().
			Str("event", wldstore.EventSchemaAhead).
			Int("stored_version", from).
			Int("version", s.version).
			Msg("Stored record is newer than this store, decoding as-is")
		return payload, nil
	}

	for v := from; v < s.version; v++ {
		fn, ok := s.upgrades[v]
		if !ok {
			s.logger.Warn().
				Str("event", wldstore.EventSchemaUpgradeGap).
				Int("from_version", v).
				Int("to_version", v+1).
				Msg("No upgrade registered, keeping payload as-is")
			continue
		}
		next, err := fn(payload)
		if err != nil {
			return nil, wldstore.WrapStoreError(wldstore.KindSerializationFailed, s.key,
				fmt.Sprintf("upgrade from schema version %d failed", v), err)
		}
		payload = next
	}

	if from < s.version {
		wldstore.LogSchemaUpgraded(s.logger, s.key, from, s.version)
	}
	return payload, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
