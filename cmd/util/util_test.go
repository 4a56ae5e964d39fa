package util

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sicko7947/wldstore/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
}

func TestOpenBackend_Memory(t *testing.T) {
	viper.Reset()
	viper.Set("backend", BackendMemory)
	viper.Set("memory-quota", 1024)

	backend, closeFn, err := OpenBackend(context.Background(), zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()

	mem, ok := backend.(*store.MemoryBackend)
	require.True(t, ok)
	assert.Equal(t, int64(1024), mem.Quota())
}

func TestOpenBackend_SQLite(t *testing.T) {
	viper.Reset()
	viper.Set("backend", BackendSQL)
	viper.Set("database-url", "sqlite:"+filepath.Join(t.TempDir(), "wld.sqlite"))

	backend, closeFn, err := OpenBackend(context.Background(), zerolog.Nop())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &store.RetryBackend{}, backend)

	ctx := context.Background()
	require.NoError(t, backend.Set(ctx, "k", "v"))
	value, found, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", value)
}

func TestOpenBackend_Invalid(t *testing.T) {
	viper.Reset()
	viper.Set("backend", "redis")

	_, closeFn, err := OpenBackend(context.Background(), zerolog.Nop())
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}

func TestOpenStores_UsesFlags(t *testing.T) {
	viper.Reset()
	cmd := &cobra.Command{Use: "test"}
	SetupStoreFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--backend", "memory", "--namespace", "demo"}))
	cmd.SetContext(context.Background())

	s, err := OpenStores(cmd)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "demo_workflows", s.Workflows.Record().Key())
	assert.IsType(t, &store.MemoryBackend{}, s.Backend)
}

func TestNewLogger_Level(t *testing.T) {
	viper.Reset()
	viper.Set("log-level", "warn")

	var buf bytes.Buffer
	logger := NewLogger(&buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
