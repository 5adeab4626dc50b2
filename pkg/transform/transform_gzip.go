package transform

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

type gzipTransform struct{ level int }

// NewGzipTransform creates a gzip stage. level follows compress/flate
// (gzip.DefaultCompression, gzip.BestSpeed .. gzip.BestCompression).
func NewGzipTransform(level int) (Transform, error) {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		return nil, fmt.Errorf("gzip: invalid compression level %d", level)
	}
	return &gzipTransform{level: level}, nil
}

func (g *gzipTransform) Apply(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return nil, fmt.Errorf("gzip apply (compress): failed to create writer: %w", err)
	}
	if _, err := gz.Write(data); err != nil {
		_ = gz.Close()
		return nil, fmt.Errorf("gzip apply (compress): failed to write data: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("gzip apply (compress): failed to close writer: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *gzipTransform) Reverse(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reverse (decompress): failed to create reader: %w", err)
	}
	defer gz.Close()
	decompressed, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("gzip reverse (decompress): failed to read data: %w", err)
	}
	return decompressed, nil
}
