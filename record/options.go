package record

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/sicko7947/wldstore"
)

// UpgradeFunc transforms a payload written under schema version N into the
// shape of version N+1
type UpgradeFunc func(payload json.RawMessage) (json.RawMessage, error)

// Option configures a record store
type Option func(*options)

type options struct {
	namespace     string
	schemaVersion int
	compression   bool
	threshold     int
	logger        zerolog.Logger
	clock         func() time.Time
	upgrades      map[int]UpgradeFunc
}

func defaultOptions() options {
	return options{
		namespace:     wldstore.DefaultNamespace,
		schemaVersion: wldstore.DefaultSchemaVersion,
		compression:   true,
		threshold:     wldstore.DefaultCompressionThreshold,
		logger:        zerolog.Nop(),
		clock:         time.Now,
		upgrades:      make(map[int]UpgradeFunc),
	}
}

// WithNamespace sets the key prefix
func WithNamespace(namespace string) Option {
	return func(o *options) {
		if namespace != "" {
			o.namespace = namespace
		}
	}
}

// WithSchemaVersion sets the version written into new envelopes
func WithSchemaVersion(version int) Option {
	return func(o *options) {
		if version > 0 {
			o.schemaVersion = version
		}
	}
}

// WithCompression enables or disables envelope compression
func WithCompression(enabled bool) Option {
	return func(o *options) {
		o.compression = enabled
	}
}

// WithCompressionThreshold overrides the codec's default threshold
func WithCompressionThreshold(bytes int) Option {
	return func(o *options) {
		if bytes > 0 {
			o.threshold = bytes
		}
	}
}

// WithLogger sets the logger used for swallowed failures
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock replaces time.Now, mostly for tests
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithUpgrade registers the upgrade from fromVersion to fromVersion+1
func WithUpgrade(fromVersion int, fn UpgradeFunc) Option {
	return func(o *options) {
		o.upgrades[fromVersion] = fn
	}
}

// Options bundles several options into one
func Options(opts ...Option) Option {
	return func(o *options) {
		for _, opt := range opts {
			opt(o)
		}
	}
}
