package crypto

import "hash"

// Digester hashes messages with one named digest. Digest is one-shot;
// Write, Sum and Reset drive a running state.
type Digester struct {
	name string
	ctor func() hash.Hash
	h    hash.Hash
}

func newDigester(name string, provider *Provider) (*Digester, error) {
	ctor, err := provider.Digest(name)
	if err != nil {
		return nil, err
	}
	return &Digester{name: name, ctor: ctor, h: ctor()}, nil
}

// Digest returns the hash of message. The running state is not touched.
func (d *Digester) Digest(message []byte) []byte {
	h := d.ctor()
	h.Write(message)
	return h.Sum(nil)
}

// Write adds data to the running state.
func (d *Digester) Write(p []byte) (int, error) { return d.h.Write(p) }

// Sum returns the digest of the running state without resetting it.
func (d *Digester) Sum() []byte { return d.h.Sum(nil) }

// Reset clears the running state.
func (d *Digester) Reset() { d.h.Reset() }

// Size returns the digest length in bytes.
func (d *Digester) Size() int { return d.h.Size() }

// Name returns the digest name.
func (d *Digester) Name() string { return d.name }
