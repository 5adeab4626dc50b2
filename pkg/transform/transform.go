// Package transform holds the reversible byte transforms used by byteshift.
//
// Every stage implements Transform: Apply runs it forward and Reverse undoes it.
// Shift is the seed-parameterized obfuscation engine; the compression stages
// are optional and run in front of it.
package transform

type Transform interface {
	Apply(data []byte) ([]byte, error)
	Reverse(data []byte) ([]byte, error)
}

type noOpTransform struct{}

func NewNoOpTransform() Transform                            { return &noOpTransform{} }
func (n *noOpTransform) Apply(data []byte) ([]byte, error)   { return data, nil }
func (n *noOpTransform) Reverse(data []byte) ([]byte, error) { return data, nil }

// Mode selects the direction of a run.
type Mode uint8

const (
	Encrypt Mode = iota
	Decrypt
)

func (m Mode) String() string {
	switch m {
	case Encrypt:
		return "encrypt"
	case Decrypt:
		return "decrypt"
	default:
		return "unknown"
	}
}
