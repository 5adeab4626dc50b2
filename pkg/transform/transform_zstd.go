package transform

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

type zstdTransform struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder

	level zstd.EncoderLevel
}

// NewZstdTransform creates a compression/decompression stage using Zstandard.
// Provide a compression level like zstd.SpeedFastest, zstd.SpeedDefault,
// zstd.SpeedBetterCompression, etc.
func NewZstdTransform(level zstd.EncoderLevel) (Transform, error) {
	// Zero frames keep empty input decodable.
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithZeroFrames(true))
	if err != nil {
		return nil, fmt.Errorf("zstd: failed to initialize encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: failed to initialize decoder: %w", err)
	}

	return &zstdTransform{
		encoder: enc,
		decoder: dec,
		level:   level,
	}, nil
}

// Apply compresses the whole buffer into a single frame.
func (s *zstdTransform) Apply(data []byte) ([]byte, error) {
	return s.encoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Reverse decompresses the data using Zstandard.
func (s *zstdTransform) Reverse(data []byte) ([]byte, error) {
	decompressed, err := s.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd reverse (decompress): %w", err)
	}
	return decompressed, nil
}

// ParseZstdLevel maps a level name (fastest, default, better, best) to an encoder level.
func ParseZstdLevel(name string) (zstd.EncoderLevel, error) {
	if name == "" {
		return zstd.SpeedDefault, nil
	}
	ok, level := zstd.EncoderLevelFromString(name)
	if !ok {
		return 0, fmt.Errorf("unknown zstd level %q (want fastest, default, better or best)", name)
	}
	return level, nil
}
