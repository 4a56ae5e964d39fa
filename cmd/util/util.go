package util

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/sicko7947/wldstore"
	"github.com/sicko7947/wldstore/store"
	"github.com/sicko7947/wldstore/stores"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// Backend names accepted by --backend
const (
	BackendMemory   = "memory"
	BackendSQL      = "sql"
	BackendDynamoDB = "dynamodb"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		if lineWidth > 0 && lineWidth+1+len(word) > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}
		currentLine.WriteString(word)
		lineWidth += len(word)
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}
	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds the backend and store flags to a command
func SetupStoreFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.String("backend", BackendSQL, WrapString("Storage backend to use (memory, sql, dynamodb). The memory backend is lost on exit"))
	flags.String("database-url", "sqlite:wld.sqlite", WrapString("Database URL for the sql backend (sqlite:<path> or postgres://...)"))
	flags.String("dynamodb-table", "wld-store", WrapString("DynamoDB table for the dynamodb backend"))
	flags.String("dynamodb-partition", store.DefaultPartition, WrapString("Partition inside the DynamoDB table, so several stores can share one table"))
	flags.String("dynamodb-endpoint", "", WrapString("Custom DynamoDB endpoint, e.g. http://localhost:8000 for DynamoDB Local"))
	flags.Int64("memory-quota", store.DefaultMemoryQuota, WrapString("Quota in bytes for the memory backend (0 disables it)"))

	flags.String("namespace", wldstore.DefaultNamespace, WrapString("Prefix of every record key"))
	flags.String("legacy-key", wldstore.DefaultLegacyWorkflowsKey, WrapString("Un-namespaced key holding legacy workflows"))
	flags.Bool("compression", true, WrapString("Compress records above the compression threshold"))
	flags.Int("compression-threshold", wldstore.DefaultCompressionThreshold, WrapString("Estimated record size in bytes at which records are compressed"))
	flags.Int("image-threshold", wldstore.DefaultImageCompressionThreshold, WrapString("Estimated image size in bytes at which step images are compressed"))
	flags.Int("retries", 3, WrapString("How many times to retry a failed sql or dynamodb call"))
	flags.Duration("retry-delay", 50*time.Millisecond, WrapString("Base delay between retries"))
	flags.String("retry-backoff", string(wldstore.BackoffExponential), WrapString("Retry backoff strategy (EXPONENTIAL, LINEAR, NONE)"))
	flags.String("log-level", "info", WrapString("Log level (debug, info, warn, error)"))
}

// InitConfig loads .env files and binds WLD_ environment variables
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("wld")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// NewLogger creates a console logger at the configured level
func NewLogger(out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// StoreOptions builds the store options from configuration
func StoreOptions(logger zerolog.Logger) []stores.Option {
	return []stores.Option{
		stores.WithNamespace(viper.GetString("namespace")),
		stores.WithLegacyKey(viper.GetString("legacy-key")),
		stores.WithCompression(viper.GetBool("compression")),
		stores.WithCompressionThreshold(viper.GetInt("compression-threshold")),
		stores.WithImageThreshold(viper.GetInt("image-threshold")),
		stores.WithLogger(logger),
	}
}

// OpenBackend creates the configured backend. Remote backends are wrapped in
// a store.RetryBackend. The returned close function releases its resources and
// is never nil.
func OpenBackend(ctx context.Context, logger zerolog.Logger) (wldstore.Backend, func() error, error) {
	noop := func() error { return nil }
	retry := func(b wldstore.Backend) wldstore.Backend {
		return store.NewRetryBackend(b, store.RetryConfig{
			MaxRetries: viper.GetInt("retries"),
			RetryDelay: viper.GetDuration("retry-delay"),
			Backoff:    wldstore.BackoffStrategy(strings.ToUpper(viper.GetString("retry-backoff"))),
		}, logger)
	}

	switch name := viper.GetString("backend"); name {
	case BackendMemory:
		return store.NewMemoryBackend(viper.GetInt64("memory-quota")), noop, nil

	case BackendSQL:
		backend, err := store.OpenSQL(ctx, viper.GetString("database-url"))
		if err != nil {
			return nil, noop, err
		}
		return retry(backend), backend.Close, nil

	case BackendDynamoDB:
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to load AWS config: %w", err)
		}
		endpoint := viper.GetString("dynamodb-endpoint")
		client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
			}
		})
		backend := store.NewDynamoDBBackend(client, viper.GetString("dynamodb-table"), viper.GetString("dynamodb-partition"))
		return retry(backend), noop, nil

	default:
		return nil, noop, fmt.Errorf("invalid backend %s", name)
	}
}

// Stores holds what a command needs to work on the domain stores
type Stores struct {
	*stores.Set
	Backend wldstore.Backend
	Logger  zerolog.Logger
	close   func() error
}

// Close releases the backend
func (s *Stores) Close() error {
	return s.close()
}

// OpenStores binds the command flags and opens the configured stores
func OpenStores(cmd *cobra.Command) (*Stores, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, err
	}

	logger := NewLogger(os.Stderr)
	backend, closeFn, err := OpenBackend(cmd.Context(), logger)
	if err != nil {
		return nil, err
	}

	return &Stores{
		Set:     stores.NewSet(backend, StoreOptions(logger)...),
		Backend: backend,
		Logger:  logger,
		close:   closeFn,
	}, nil
}
