package transform

import (
	"fmt"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression names the optional stage that runs before the Shift engine.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

func ParseCompression(name string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(name))); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionGzip, CompressionZstd:
		return c, nil
	default:
		return "", fmt.Errorf("unknown compression %q (want none, gzip or zstd)", name)
	}
}

// NewCompressionTransform builds the stage for c, or nil for CompressionNone.
// zstdLevel is ignored unless c is CompressionZstd.
func NewCompressionTransform(c Compression, zstdLevel zstd.EncoderLevel) (Transform, error) {
	switch c {
	case "", CompressionNone:
		return nil, nil
	case CompressionGzip:
		return NewGzipTransform(gzip.DefaultCompression)
	case CompressionZstd:
		return NewZstdTransform(zstdLevel)
	default:
		return nil, fmt.Errorf("unknown compression %q", string(c))
	}
}

// NewPipelineFor builds the byteshift pipeline: the optional compression
// stage followed by the Shift engine for seed.
func NewPipelineFor(seed uint, c Compression, zstdLevel zstd.EncoderLevel) (*Pipeline, error) {
	stages := make([]Transform, 0, 2)
	comp, err := NewCompressionTransform(c, zstdLevel)
	if err != nil {
		return nil, err
	}
	if comp != nil {
		stages = append(stages, comp)
	}
	stages = append(stages, NewShift(seed))
	return NewPipeline(stages...)
}
