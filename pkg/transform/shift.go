package transform

import (
	"math/bits"
	"slices"
)

// step is one infallible, in-place stage of the Shift engine.
type step interface {
	apply(buf []byte)
	reverse(buf []byte)
}

// Shift is the seed-parameterized obfuscation engine. It is not encryption:
// it only guarantees that Decrypt exactly undoes Encrypt for the same seed.
//
// Encrypt runs, in order:
//  1. per byte: rotate bits right by seed%8, then reverse the bit order
//  2. reverse the byte order of the buffer
//  3. rotate the buffer left by seed%len
//
// Decrypt undoes 3, 2, 1, each with its own inverse operation.
type Shift struct {
	steps []step
}

func NewShift(seed uint) *Shift {
	return &Shift{
		steps: []step{
			bitStage{amount: int(seed % 8)},
			mirrorStage{},
			rotateStage{seed: seed},
		},
	}
}

// Encrypt transforms buf in place and returns it.
func (s *Shift) Encrypt(buf []byte) []byte {
	for _, st := range s.steps {
		st.apply(buf)
	}
	return buf
}

// Decrypt undoes Encrypt in place and returns buf.
func (s *Shift) Decrypt(buf []byte) []byte {
	for i := len(s.steps) - 1; i >= 0; i-- {
		s.steps[i].reverse(buf)
	}
	return buf
}

// Apply implements Transform. It never fails.
func (s *Shift) Apply(data []byte) ([]byte, error) { return s.Encrypt(data), nil }

// Reverse implements Transform. It never fails.
func (s *Shift) Reverse(data []byte) ([]byte, error) { return s.Decrypt(data), nil }

// Process runs the engine over buf in the given mode. buf is mutated in place
// and returned; its length never changes.
func Process(buf []byte, seed uint, mode Mode) []byte {
	s := NewShift(seed)
	if mode == Decrypt {
		return s.Decrypt(buf)
	}
	return s.Encrypt(buf)
}

// bitStage rotates each byte right by amount and then mirrors its bits.
type bitStage struct{ amount int }

func (b bitStage) apply(buf []byte) {
	for i, v := range buf {
		buf[i] = bits.Reverse8(bits.RotateLeft8(v, -b.amount))
	}
}

func (b bitStage) reverse(buf []byte) {
	for i, v := range buf {
		buf[i] = bits.RotateLeft8(bits.Reverse8(v), b.amount)
	}
}

// mirrorStage reverses the byte order. It is its own inverse.
type mirrorStage struct{}

func (mirrorStage) apply(buf []byte)   { slices.Reverse(buf) }
func (mirrorStage) reverse(buf []byte) { slices.Reverse(buf) }

// rotateStage rotates the whole buffer left by seed mod len.
type rotateStage struct{ seed uint }

func (r rotateStage) apply(buf []byte) {
	rotateLeft(buf, r.offset(len(buf)))
}

func (r rotateStage) reverse(buf []byte) {
	if k := r.offset(len(buf)); k != 0 {
		rotateLeft(buf, len(buf)-k)
	}
}

func (r rotateStage) offset(n int) int {
	if n == 0 {
		return 0
	}
	return int(r.seed % uint(n))
}

// rotateLeft rotates buf left by k (0 <= k < len(buf)) using three reversals.
func rotateLeft(buf []byte, k int) {
	if k == 0 {
		return
	}
	slices.Reverse(buf[:k])
	slices.Reverse(buf[k:])
	slices.Reverse(buf)
}
