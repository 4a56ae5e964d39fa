package record

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sicko7947/wldstore"
	"github.com/sicko7947/wldstore/codec"
	"github.com/sicko7947/wldstore/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func newNoteStore(t *testing.T, opts ...Option) (*Store[*note], *store.MemoryBackend) {
	t.Helper()
	backend := store.NewMemoryBackend(store.DefaultMemoryQuota)
	return New[*note](backend, "notes", opts...), backend
}

func TestComposeKey(t *testing.T) {
	assert.Equal(t, "wld_workflows", ComposeKey("wld", "workflows"))
	assert.Equal(t, "tenant_preferences", ComposeKey("tenant", "preferences"))
}

func TestStore_Defaults(t *testing.T) {
	s, _ := newNoteStore(t)

	assert.Equal(t, "wld_notes", s.Key())
	assert.Equal(t, "notes", s.Name())
	assert.Equal(t, 1, s.SchemaVersion())
	assert.True(t, s.CompressionEnabled())
	assert.Equal(t, wldstore.DefaultCompressionThreshold, s.CompressionThreshold())
}

func TestStore_GetMissing(t *testing.T) {
	s, _ := newNoteStore(t)

	value, found := s.Get(context.Background())
	assert.False(t, found)
	assert.Nil(t, value)
	assert.False(t, s.Exists(context.Background()))
	assert.Zero(t, s.ApproximateSize(context.Background()))
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	s, backend := newNoteStore(t, WithNamespace("test"))
	ctx := context.Background()

	in := &note{Title: "hello", Body: "world", Tags: []string{"a", "b"}}
	require.NoError(t, s.Set(ctx, in))

	out, found := s.Get(ctx)
	require.True(t, found)
	assert.Equal(t, in, out)
	assert.True(t, s.Exists(ctx))

	raw, ok, err := backend.Get(ctx, "test_notes")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, codec.IsCompressed(raw), "small values stay uncompressed")

	var env Envelope[note]
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Equal(t, 1, env.SchemaVersion)
	assert.Positive(t, env.UpdatedAt)
	assert.Equal(t, "hello", env.Payload.Title)
}

func TestStore_LargeValueCompressed(t *testing.T) {
	s, backend := newNoteStore(t)
	ctx := context.Background()

	in := &note{Title: "big", Body: strings.Repeat("repetitive content ", 2000)}
	require.NoError(t, s.Set(ctx, in))

	raw, _, err := backend.Get(ctx, s.Key())
	require.NoError(t, err)
	assert.True(t, codec.IsCompressed(raw))
	assert.Less(t, s.ApproximateSize(ctx), codec.EstimateSize(in.Body))

	out, found := s.Get(ctx)
	require.True(t, found)
	assert.Equal(t, in, out)
}

func TestStore_CompressionDisabled(t *testing.T) {
	s, backend := newNoteStore(t, WithCompression(false))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, &note{Body: strings.Repeat("x", 50000)}))
	raw, _, _ := backend.Get(ctx, s.Key())
	assert.False(t, codec.IsCompressed(raw))

	s.SetCompression(true)
	assert.True(t, s.CompressionEnabled())
	require.NoError(t, s.Set(ctx, &note{Body: strings.Repeat("x", 50000)}))
	raw, _, _ = backend.Get(ctx, s.Key())
	assert.True(t, codec.IsCompressed(raw))
}

func TestStore_SetCompressionThreshold(t *testing.T) {
	s, backend := newNoteStore(t)
	ctx := context.Background()

	s.SetCompressionThreshold(16)
	assert.Equal(t, 16, s.CompressionThreshold())

	require.NoError(t, s.Set(ctx, &note{Title: "tiny"}))
	raw, _, _ := backend.Get(ctx, s.Key())
	assert.True(t, codec.IsCompressed(raw))

	out, found := s.Get(ctx)
	require.True(t, found)
	assert.Equal(t, "tiny", out.Title)
}

func TestStore_SetNilRejected(t *testing.T) {
	s, backend := newNoteStore(t)
	ctx := context.Background()

	err := s.Set(ctx, nil)
	require.Error(t, err)
	assert.True(t, wldstore.IsValidation(err))
	assert.Zero(t, backend.Len(), "nothing is written on validation failure")
}

func TestStore_Validator(t *testing.T) {
	s, _ := newNoteStore(t)
	s.WithValidator(func(n *note) error {
		if n.Title == "" {
			return errors.New("title is required")
		}
		return nil
	})
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, &note{Title: "kept"}))

	err := s.Set(ctx, &note{})
	require.Error(t, err)
	assert.True(t, wldstore.IsValidation(err))

	var se *wldstore.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "wld_notes", se.Key)

	out, found := s.Get(ctx)
	require.True(t, found)
	assert.Equal(t, "kept", out.Title, "rejected write leaves the previous value")
}

func TestStore_ValidatorStoreErrorKept(t *testing.T) {
	s, _ := newNoteStore(t)
	s.WithValidator(func(n *note) error {
		return wldstore.NewStoreError(wldstore.KindNotFound, "custom", "custom failure")
	})

	err := s.Set(context.Background(), &note{})
	assert.True(t, wldstore.IsNotFound(err))
}

func TestStore_QuotaExceeded(t *testing.T) {
	backend := store.NewMemoryBackend(2048)
	s := New[*note](backend, "notes", WithCompression(false))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, &note{Title: "small"}))

	err := s.Set(ctx, &note{Body: strings.Repeat("x", 4096)})
	require.Error(t, err)
	assert.True(t, wldstore.IsQuotaExceeded(err))
	assert.ErrorIs(t, err, wldstore.ErrQuotaExceeded)

	out, found := s.Get(ctx)
	require.True(t, found)
	assert.Equal(t, "small", out.Title)
}

func TestStore_CorruptedDataReadsAsAbsent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "{{{"},
		{name: "bare payload without envelope", raw: `{"title":"x"}`},
		{name: "zero version", raw: `{"schemaVersion":0,"payload":{"title":"x"}}`},
		{name: "payload wrong type", raw: `{"schemaVersion":1,"payload":"text"}`},
		{name: "broken compression", raw: codec.Marker + "!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, backend := newNoteStore(t)
			ctx := context.Background()
			require.NoError(t, backend.Set(ctx, s.Key(), tt.raw))

			value, found := s.Get(ctx)
			assert.False(t, found)
			assert.Nil(t, value)

			_, _, err := s.Load(ctx)
			require.Error(t, err)
			assert.Equal(t, wldstore.KindSerializationFailed, wldstore.KindOf(err))
		})
	}
}

func TestStore_Remove(t *testing.T) {
	s, _ := newNoteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, &note{Title: "x"}))
	require.NoError(t, s.Remove(ctx))
	_, found := s.Get(ctx)
	assert.False(t, found)

	require.NoError(t, s.Remove(ctx), "removing twice is fine")
}

func TestStore_UpgradeChain(t *testing.T) {
	backend := store.NewMemoryBackend(0)
	ctx := context.Background()

	v1 := New[map[string]any](backend, "settings")
	require.NoError(t, v1.Set(ctx, map[string]any{"name": "old"}))

	v3 := New[map[string]any](backend, "settings",
		WithSchemaVersion(3),
		WithUpgrade(1, func(p json.RawMessage) (json.RawMessage, error) {
			var m map[string]any
			if err := json.Unmarshal(p, &m); err != nil {
				return nil, err
			}
			m["title"] = m["name"]
			delete(m, "name")
			return json.Marshal(m)
		}),
		WithUpgrade(2, func(p json.RawMessage) (json.RawMessage, error) {
			var m map[string]any
			if err := json.Unmarshal(p, &m); err != nil {
				return nil, err
			}
			m["upgraded"] = true
			return json.Marshal(m)
		}),
	)

	out, found := v3.Get(ctx)
	require.True(t, found)
	assert.Equal(t, map[string]any{"title": "old", "upgraded": true}, out)
}

func TestStore_UpgradeGapKeepsPayload(t *testing.T) {
	backend := store.NewMemoryBackend(0)
	ctx := context.Background()

	require.NoError(t, New[*note](backend, "notes").Set(ctx, &note{Title: "v1"}))

	upgraded := 0
	v3 := New[*note](backend, "notes",
		WithSchemaVersion(3),
		WithUpgrade(1, func(p json.RawMessage) (json.RawMessage, error) {
			upgraded++
			return p, nil
		}),
	)

	out, found, err := v3.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v1", out.Title)
	assert.Equal(t, 1, upgraded)

	// a write after the read must not lose the value
	out.Body = "edited"
	require.NoError(t, v3.Set(ctx, out))
	again, found := v3.Get(ctx)
	require.True(t, found)
	assert.Equal(t, &note{Title: "v1", Body: "edited"}, again)
}

func TestStore_UpgradeFailure(t *testing.T) {
	backend := store.NewMemoryBackend(0)
	ctx := context.Background()

	require.NoError(t, New[*note](backend, "notes").Set(ctx, &note{Title: "v1"}))

	v2 := New[*note](backend, "notes",
		WithSchemaVersion(2),
		WithUpgrade(1, func(p json.RawMessage) (json.RawMessage, error) {
			return nil, errors.New("cannot upgrade")
		}),
	)

	_, _, err := v2.Load(ctx)
	assert.Equal(t, wldstore.KindSerializationFailed, wldstore.KindOf(err))
}

func TestStore_NewerVersionDecodedAsIs(t *testing.T) {
	backend := store.NewMemoryBackend(0)
	ctx := context.Background()

	require.NoError(t, New[*note](backend, "notes", WithSchemaVersion(5)).Set(ctx, &note{Title: "future"}))

	out, found := New[*note](backend, "notes").Get(ctx)
	require.True(t, found)
	assert.Equal(t, "future", out.Title)
}

func TestStore_WithBaseFillsMissingFields(t *testing.T) {
	backend := store.NewMemoryBackend(0)
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, "wld_notes", `{"schemaVersion":1,"updatedAt":1,"payload":{"title":"partial"}}`))

	s := New[note](backend, "notes").WithBase(func() note {
		return note{Title: "default", Body: "default body", Tags: []string{}}
	})

	out, found := s.Get(ctx)
	require.True(t, found)
	assert.Equal(t, "partial", out.Title)
	assert.Equal(t, "default body", out.Body)
	assert.Equal(t, []string{}, out.Tags)
}

func TestStore_Backups(t *testing.T) {
	clock := &fixedClock{now: time.UnixMilli(1700000000000)}
	s, _ := newNoteStore(t, WithClock(clock.Now))
	ctx := context.Background()

	key, err := s.CreateBackup(ctx)
	require.NoError(t, err)
	assert.Empty(t, key, "nothing to back up")

	require.NoError(t, s.Set(ctx, &note{Title: "first"}))
	key, err = s.CreateBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, "wld_notes_backup_1700000000000", key)

	clock.now = clock.now.Add(time.Second)
	require.NoError(t, s.Set(ctx, &note{Title: "second"}))
	second, err := s.CreateBackup(ctx)
	require.NoError(t, err)

	backups, err := s.ListBackups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{key, second}, backups)

	// the backup is a readable record of its own
	restored := New[*note](s.backend, "notes_backup_1700000000000")
	out, found := restored.Get(ctx)
	require.True(t, found)
	assert.Equal(t, "first", out.Title)

	current, _ := s.Get(ctx)
	assert.Equal(t, "second", current.Title)
}

func TestStore_BackupOfCorruptedValueFails(t *testing.T) {
	s, backend := newNoteStore(t)
	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, s.Key(), "garbage"))

	key, err := s.CreateBackup(ctx)
	assert.Error(t, err)
	assert.Empty(t, key)
}

func TestStore_ApproximateSize(t *testing.T) {
	s, backend := newNoteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, &note{Title: "size"}))
	raw, _, _ := backend.Get(ctx, s.Key())
	assert.Equal(t, codec.EstimateSize(raw), s.ApproximateSize(ctx))
}

func TestStore_Options(t *testing.T) {
	s, _ := newNoteStore(t, Options(
		WithNamespace("bundle"),
		WithCompressionThreshold(64),
		WithSchemaVersion(2),
	))

	assert.Equal(t, "bundle_notes", s.Key())
	assert.Equal(t, 64, s.CompressionThreshold())
	assert.Equal(t, 2, s.SchemaVersion())
}

func TestStore_IgnoresInvalidOptions(t *testing.T) {
	s, _ := newNoteStore(t,
		WithNamespace(""),
		WithSchemaVersion(0),
		WithCompressionThreshold(-1),
		WithClock(nil),
	)

	assert.Equal(t, "wld_notes", s.Key())
	assert.Equal(t, 1, s.SchemaVersion())
	assert.Equal(t, wldstore.DefaultCompressionThreshold, s.CompressionThreshold())
}
