package stores

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/sicko7947/wldstore"
	"github.com/sicko7947/wldstore/record"
)

// Option configures the domain stores
type Option func(*config)

type config struct {
	namespace            string
	legacyKey            string
	imageThreshold       int
	compression          bool
	compressionThreshold int
	logger               zerolog.Logger
	clock                func() time.Time
}

func defaultConfig() config {
	return config{
		namespace:            wldstore.DefaultNamespace,
		legacyKey:            wldstore.DefaultLegacyWorkflowsKey,
		imageThreshold:       wldstore.DefaultImageCompressionThreshold,
		compression:          true,
		compressionThreshold: wldstore.DefaultCompressionThreshold,
		logger:               zerolog.Nop(),
		clock:                time.Now,
	}
}

func newConfig(opts []Option) config {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c config) recordOptions() []record.Option {
	return []record.Option{
		record.WithNamespace(c.namespace),
		record.WithCompression(c.compression),
		record.WithCompressionThreshold(c.compressionThreshold),
		record.WithLogger(c.logger),
		record.WithClock(c.clock),
	}
}

func (c config) nowMillis() int64 {
	return c.clock().UnixMilli()
}

// WithNamespace sets the record key prefix
func WithNamespace(namespace string) Option {
	return func(c *config) {
		if namespace != "" {
			c.namespace = namespace
		}
	}
}

// WithLegacyKey sets the un-namespaced key MigrateLegacy reads from
func WithLegacyKey(key string) Option {
	return func(c *config) {
		if key != "" {
			c.legacyKey = key
		}
	}
}

// WithImageThreshold sets the estimated size at which step images are compressed
func WithImageThreshold(bytes int) Option {
	return func(c *config) {
		if bytes > 0 {
			c.imageThreshold = bytes
		}
	}
}

// WithCompression enables or disables envelope compression
func WithCompression(enabled bool) Option {
	return func(c *config) {
		c.compression = enabled
	}
}

// WithCompressionThreshold sets the envelope compression threshold
func WithCompressionThreshold(bytes int) Option {
	return func(c *config) {
		if bytes > 0 {
			c.compressionThreshold = bytes
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithClock replaces time.Now
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}
