package wldstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// ToPtr returns a pointer to the given value.
// This is useful for creating pointers to literals, e.g. when building patches.
func ToPtr[T any](v T) *T {
	return &v
}

// NowMillis returns the current time as epoch milliseconds
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// MergePatch applies the non-omitted fields of patch onto dst.
// dst must be a pointer; patch is marshalled to JSON and decoded over dst,
// so only fields present in the patch are changed.
func MergePatch(dst any, patch any) error {
	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to marshal patch: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to apply patch: %w", err)
	}
	return nil
}

// BackoffStrategy selects how the delay grows between retries
type BackoffStrategy string

const (
	BackoffLinear      BackoffStrategy = "LINEAR"
	BackoffExponential BackoffStrategy = "EXPONENTIAL"
	BackoffNone        BackoffStrategy = "NONE"
)

// MaxBackoff caps the delay CalculateBackoff returns
const MaxBackoff = 5 * time.Minute

const maxBackoffShift = 30

// CalculateBackoff calculates the backoff delay for a retry attempt.
// It supports three strategies:
//   - EXPONENTIAL: baseDelay * 2^(attempt-1)
//   - LINEAR: baseDelay * attempt
//   - NONE: no backoff delay
//
// attempt is 0-based; attempt 0 is the first try and never waits.
// Unknown strategies fall back to linear. The result never exceeds MaxBackoff.
func CalculateBackoff(baseDelay time.Duration, attempt int, strategy BackoffStrategy) time.Duration {
	if attempt <= 0 || baseDelay <= 0 {
		return 0
	}

	var factor int
	switch strategy {
	case BackoffExponential:
		if attempt-1 >= maxBackoffShift {
			return MaxBackoff
		}
		factor = 1 << (attempt - 1)
	case BackoffNone:
		return 0
	default:
		factor = attempt
	}

	if baseDelay > MaxBackoff/time.Duration(factor) {
		return MaxBackoff
	}
	return baseDelay * time.Duration(factor)
}
