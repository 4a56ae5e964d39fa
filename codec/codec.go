// Package codec implements the marker-tagged string compression used by the
// record stores.
//
// A compressed value is Marker followed by the base64 encoding of the zstd
// compressed UTF-8 bytes of the input. The presence of Marker is the only thing
// that decides whether a stored string must be decompressed. Compression is a
// best-effort optimization: every failure degrades to returning the input.
package codec

import (
	"encoding/base64"
	"strings"
	"sync/atomic"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/klauspost/compress/zstd"
)

// Marker prefixes every compressed value
const Marker = "__COMPRESSED__:"

// DefaultThreshold is the estimated size (bytes) at which AutoCompress compresses
const DefaultThreshold = 10 * 1024

// maxDecodedSize guards DecodeAll against hostile input
const maxDecodedSize = 256 << 20

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression), zstd.WithZeroFrames(true))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0), zstd.WithDecoderMaxMemory(maxDecodedSize))
)

// Codec compresses strings above a mutable size threshold.
// It is safe for concurrent use.
type Codec struct {
	threshold atomic.Int64
}

// New creates a codec with the given threshold. A non-positive threshold
// selects DefaultThreshold.
func New(threshold int) *Codec {
	c := &Codec{}
	c.SetThreshold(threshold)
	return c
}

// Threshold returns the current threshold in estimated bytes
func (c *Codec) Threshold() int {
	return int(c.threshold.Load())
}

// SetThreshold changes the threshold used by AutoCompress
func (c *Codec) SetThreshold(threshold int) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	c.threshold.Store(int64(threshold))
}

// Compress compresses input and prepends Marker. On failure the input is
// returned unchanged.
func (c *Codec) Compress(input string) string {
	return Compress(input)
}

// Decompress reverses Compress. Input without Marker is returned unchanged.
// If the payload cannot be decoded the still-marked input is returned.
func (c *Codec) Decompress(input string) string {
	return Decompress(input)
}

// IsCompressed reports whether input carries Marker
func (c *Codec) IsCompressed(input string) bool {
	return IsCompressed(input)
}

// AutoCompress compresses input if its estimated size reaches the threshold
func (c *Codec) AutoCompress(input string) string {
	return AutoCompress(input, c.Threshold())
}

// AutoCompressAt is AutoCompress with an explicit threshold
func (c *Codec) AutoCompressAt(input string, threshold int) string {
	return AutoCompress(input, threshold)
}

// AutoDecompress decompresses input only if it is marked
func (c *Codec) AutoDecompress(input string) string {
	return AutoDecompress(input)
}

// CompressionRatio returns len(Compress(input)) / len(input)
func (c *Codec) CompressionRatio(input string) float64 {
	return CompressionRatio(input)
}

// Compress compresses input and prepends Marker
func Compress(input string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = input
		}
	}()
	// invalid UTF-8 could not be told apart from a corrupted frame on the way back
	if encoder == nil || !utf8.ValidString(input) {
		return input
	}
	compressed := encoder.EncodeAll([]byte(input), nil)
	return Marker + base64.StdEncoding.EncodeToString(compressed)
}

// Decompress strips Marker and decompresses the payload
func Decompress(input string) (out string) {
	if !IsCompressed(input) {
		return input
	}
	defer func() {
		if r := recover(); r != nil {
			out = input
		}
	}()
	if decoder == nil {
		return input
	}

	raw, err := base64.StdEncoding.DecodeString(input[len(Marker):])
	if err != nil || len(raw) == 0 {
		return input
	}
	decoded, err := decoder.DecodeAll(raw, nil)
	if err != nil || !utf8.Valid(decoded) {
		return input
	}
	return string(decoded)
}

// IsCompressed reports whether input carries Marker
func IsCompressed(input string) bool {
	return strings.HasPrefix(input, Marker)
}

// AutoCompress compresses input when EstimateSize(input) >= threshold
func AutoCompress(input string, threshold int) string {
	if EstimateSize(input) < threshold {
		return input
	}
	return Compress(input)
}

// AutoDecompress calls Decompress if and only if input is marked
func AutoDecompress(input string) string {
	if !IsCompressed(input) {
		return input
	}
	return Decompress(input)
}

// CompressionRatio is a diagnostic; it is 1 for empty input
func CompressionRatio(input string) float64 {
	n := Length(input)
	if n == 0 {
		return 1
	}
	return float64(Length(Compress(input))) / float64(n)
}

// Length returns the length of s in UTF-16 code units, the unit browsers and
// the estimated-size policy count in
func Length(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

// EstimateSize returns the storage cost of s at two bytes per UTF-16 code unit
func EstimateSize(s string) int {
	return Length(s) * 2
}
