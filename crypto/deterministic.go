package crypto

import (
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeterministicStream is NOT a random source. It expands a seed with
// HKDF-Expand into a reproducible byte stream: the same digest, seed and
// label always give the same bytes.
//
// It exists to turn passphrase-derived seeds into key material and must never
// stand in for the provider's entropy source.
type DeterministicStream struct {
	r io.Reader
}

// NewDeterministicStream expands seed under label. The seed should already be
// the output of a key derivation function.
func NewDeterministicStream(digest func() hash.Hash, seed []byte, label string) *DeterministicStream {
	return &DeterministicStream{
		r: hkdf.Expand(digest, seed, []byte("cryptocore deterministic stream: "+label)),
	}
}

// Read fills p from the stream. It fails once HKDF's output limit of 255
// digest blocks is reached.
func (s *DeterministicStream) Read(p []byte) (int, error) {
	return s.r.Read(p)
}
