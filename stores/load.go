package stores

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sicko7947/wldstore"
	"github.com/sicko7947/wldstore/record"
)

// loadForUpdate reads the value a read-modify-write starts from. A stored
// value that cannot be decoded counts as absent, like a plain read. A failed
// backend read is returned so the caller does not overwrite data it never saw.
func loadForUpdate[T any](ctx context.Context, records *record.Store[T], logger zerolog.Logger) (T, bool, error) {
	value, found, err := records.Load(ctx)
	if err == nil {
		return value, found, nil
	}

	var zero T
	if wldstore.KindOf(err) == wldstore.KindSerializationFailed {
		wldstore.LogReadFailed(logger, records.Key(), err)
		return zero, false, nil
	}
	return zero, false, err
}
