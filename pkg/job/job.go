// Package job runs one byteshift invocation: read SOURCE fully, transform it,
// write DESTINATION.
package job

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/klauspost/compress/zstd"

	"byteshift/pkg/log"
	"byteshift/pkg/transform"
)

type Request struct {
	Source      string
	Destination string
	Seed        uint
	Mode        transform.Mode
	Compression transform.Compression
	ZstdLevel   zstd.EncoderLevel
}

type Result struct {
	Source      string
	Destination string
	Mode        transform.Mode
	InputSize   int
	OutputSize  int
	Elapsed     time.Duration
}

// ParseSeed parses a decimal, non-negative seed that fits in a uint.
func ParseSeed(s string) (uint, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: SEED", ErrMissingArgument)
	}
	v, err := strconv.ParseUint(s, 10, strconv.IntSize)
	if err != nil {
		return 0, &SeedError{Value: s, Err: err}
	}
	return uint(v), nil
}

// NewRequest validates the positional arguments SOURCE, DESTINATION and SEED.
func NewRequest(source, destination, seed string, mode transform.Mode) (Request, error) {
	switch {
	case source == "":
		return Request{}, fmt.Errorf("%w: SOURCE", ErrMissingArgument)
	case destination == "":
		return Request{}, fmt.Errorf("%w: DESTINATION", ErrMissingArgument)
	}
	s, err := ParseSeed(seed)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Source:      source,
		Destination: destination,
		Seed:        s,
		Mode:        mode,
		Compression: transform.CompressionNone,
		ZstdLevel:   zstd.SpeedDefault,
	}, nil
}

// Run executes req. SOURCE is read completely before DESTINATION is opened,
// so both may name the same file.
func Run(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	res := Result{Source: req.Source, Destination: req.Destination, Mode: req.Mode}

	if err := ctx.Err(); err != nil {
		return res, err
	}

	pipeline, err := transform.NewPipelineFor(req.Seed, req.Compression, req.ZstdLevel)
	if err != nil {
		return res, &TransformError{Err: err}
	}

	data, err := readSource(req.Source)
	if err != nil {
		return res, err
	}
	res.InputSize = len(data)
	log.Debug().Str("source", req.Source).Int("bytes", len(data)).Msg("source loaded")

	out, err := pipeline.Run(data, req.Mode)
	if err != nil {
		return res, &TransformError{Err: err}
	}
	res.OutputSize = len(out)

	if err := ctx.Err(); err != nil {
		return res, err
	}

	if err := os.WriteFile(req.Destination, out, 0o644); err != nil {
		return res, &WriteError{Path: req.Destination, Err: err}
	}
	log.Debug().Str("destination", req.Destination).Int("bytes", len(out)).Msg("destination written")

	res.Elapsed = time.Since(start)
	return res, nil
}

func readSource(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	if fi.IsDir() {
		return nil, &ReadError{Path: path, Err: errors.New("is a directory")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return data, nil
}
