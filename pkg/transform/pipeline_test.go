package transform

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
)

// recordingTransform appends its tag on Apply and strips it on Reverse,
// logging the call order.
type recordingTransform struct {
	tag   byte
	calls *[]string
}

func (r *recordingTransform) Apply(data []byte) ([]byte, error) {
	*r.calls = append(*r.calls, "apply-"+string(r.tag))
	return append(data, r.tag), nil
}

func (r *recordingTransform) Reverse(data []byte) ([]byte, error) {
	*r.calls = append(*r.calls, "reverse-"+string(r.tag))
	if len(data) == 0 || data[len(data)-1] != r.tag {
		return nil, errors.New("tag mismatch")
	}
	return data[:len(data)-1], nil
}

type failingTransform struct{}

func (failingTransform) Apply([]byte) ([]byte, error)   { return nil, errors.New("boom") }
func (failingTransform) Reverse([]byte) ([]byte, error) { return nil, errors.New("boom") }

func TestNewPipelineRequiresStages(t *testing.T) {
	if _, err := NewPipeline(); err == nil {
		t.Fatal("expected error for empty pipeline")
	}
	p, err := NewPipeline(NewNoOpTransform())
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	out, err := p.Apply([]byte("x"))
	if err != nil || string(out) != "x" {
		t.Fatalf("no-op pipeline returned %q, %v", out, err)
	}
}

func TestPipelineOrder(t *testing.T) {
	var calls []string
	p, err := NewPipeline(
		&recordingTransform{tag: 'a', calls: &calls},
		&recordingTransform{tag: 'b', calls: &calls},
	)
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}

	out, err := p.Apply([]byte("x"))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if string(out) != "xab" {
		t.Fatalf("expected xab, got %q", out)
	}

	back, err := p.Reverse(out)
	if err != nil {
		t.Fatalf("Reverse failed: %v", err)
	}
	if string(back) != "x" {
		t.Fatalf("expected x, got %q", back)
	}

	want := "apply-a,apply-b,reverse-b,reverse-a"
	if got := strings.Join(calls, ","); got != want {
		t.Fatalf("call order %s, want %s", got, want)
	}
}

func TestPipelineWrapsStageErrors(t *testing.T) {
	p, err := NewPipeline(NewNoOpTransform(), failingTransform{})
	if err != nil {
		t.Fatalf("NewPipeline failed: %v", err)
	}
	_, err = p.Apply([]byte("x"))
	if err == nil || !strings.Contains(err.Error(), "stage 1") {
		t.Fatalf("expected stage 1 error, got %v", err)
	}
	_, err = p.Run([]byte("x"), Decrypt)
	if err == nil || !strings.Contains(err.Error(), "pipeline reverse") {
		t.Fatalf("expected reverse error, got %v", err)
	}
}

func TestCompressionRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("byteshift compresses repetitive input "), 64)

	for _, c := range []Compression{CompressionGzip, CompressionZstd} {
		for _, input := range [][]byte{data, {}} {
			tr, err := NewCompressionTransform(c, zstd.SpeedFastest)
			if err != nil {
				t.Fatalf("%s: NewCompressionTransform failed: %v", c, err)
			}
			packed, err := tr.Apply(bytes.Clone(input))
			if err != nil {
				t.Fatalf("%s: Apply failed: %v", c, err)
			}
			if len(input) > 0 && len(packed) >= len(input) {
				t.Errorf("%s: expected compression, %d -> %d bytes", c, len(input), len(packed))
			}
			unpacked, err := tr.Reverse(packed)
			if err != nil {
				t.Fatalf("%s: Reverse failed: %v", c, err)
			}
			if !bytes.Equal(unpacked, input) {
				t.Fatalf("%s: round trip mismatch", c)
			}
		}
	}
}

func TestPipelineForWithCompression(t *testing.T) {
	data := bytes.Repeat([]byte{0x00, 0x10, 0x20}, 100)

	for _, c := range []Compression{CompressionNone, CompressionGzip, CompressionZstd} {
		p, err := NewPipelineFor(11, c, zstd.SpeedDefault)
		if err != nil {
			t.Fatalf("%s: NewPipelineFor failed: %v", c, err)
		}
		wantStages := 2
		if c == CompressionNone {
			wantStages = 1
		}
		if p.Len() != wantStages {
			t.Errorf("%s: expected %d stages, got %d", c, wantStages, p.Len())
		}

		out, err := p.Run(bytes.Clone(data), Encrypt)
		if err != nil {
			t.Fatalf("%s: encrypt failed: %v", c, err)
		}
		back, err := p.Run(out, Decrypt)
		if err != nil {
			t.Fatalf("%s: decrypt failed: %v", c, err)
		}
		if !bytes.Equal(back, data) {
			t.Fatalf("%s: round trip mismatch", c)
		}
	}
}

func TestDecryptWithWrongCompressionFails(t *testing.T) {
	enc, err := NewPipelineFor(3, CompressionGzip, zstd.SpeedDefault)
	if err != nil {
		t.Fatalf("NewPipelineFor failed: %v", err)
	}
	out, err := enc.Apply([]byte("some payload"))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	dec, err := NewPipelineFor(3, CompressionZstd, zstd.SpeedDefault)
	if err != nil {
		t.Fatalf("NewPipelineFor failed: %v", err)
	}
	if _, err := dec.Reverse(out); err == nil {
		t.Fatal("expected zstd to reject gzip data")
	}
}

func TestParseCompression(t *testing.T) {
	cases := map[string]Compression{
		"":      CompressionNone,
		"none":  CompressionNone,
		"GZIP":  CompressionGzip,
		" zstd": CompressionZstd,
	}
	for in, want := range cases {
		got, err := ParseCompression(in)
		if err != nil {
			t.Errorf("ParseCompression(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseCompression(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseCompression("lz4"); err == nil {
		t.Error("expected error for unknown compression")
	}
}

func TestParseZstdLevel(t *testing.T) {
	cases := map[string]zstd.EncoderLevel{
		"":        zstd.SpeedDefault,
		"fastest": zstd.SpeedFastest,
		"default": zstd.SpeedDefault,
		"better":  zstd.SpeedBetterCompression,
		"best":    zstd.SpeedBestCompression,
	}
	for in, want := range cases {
		got, err := ParseZstdLevel(in)
		if err != nil {
			t.Errorf("ParseZstdLevel(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseZstdLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseZstdLevel("ludicrous"); err == nil {
		t.Error("expected error for unknown level")
	}
}
