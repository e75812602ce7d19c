package testing

import (
	"crypto/sha256"
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/chacha20"
)

// ErrEntropyExhausted is returned by a FailingReader once its budget is spent.
var ErrEntropyExhausted = errors.New("simulated entropy source exhausted")

// SeededReader produces the ChaCha20 keystream of a seed. The same seed
// always yields the same bytes.
type SeededReader struct {
	mu     sync.Mutex
	stream *chacha20.Cipher
}

// NewSeededReader creates a deterministic reader for seed.
func NewSeededReader(seed []byte) *SeededReader {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	logrus.WithFields(logrus.Fields{
		"function":  "NewSeededReader",
		"seed_size": len(seed),
	}).Info("Creating seeded entropy source for testing")

	key := sha256.Sum256(seed)
	var nonce [chacha20.NonceSize]byte
	stream, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		// Key and nonce sizes are fixed above.
		panic(err)
	}
	return &SeededReader{stream: stream}
}

// Read fills p with the next keystream bytes. It never fails.
func (r *SeededReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(p)
	r.stream.XORKeyStream(p, p)
	return len(p), nil
}

// FailingReader delivers up to a fixed number of zero bytes and then fails.
type FailingReader struct {
	mu        sync.Mutex
	remaining int
	failures  int
}

// NewFailingReader creates a reader that fails after budget bytes. A budget
// of zero fails on the first read.
func NewFailingReader(budget int) *FailingReader {
	logrus.Warn("SIMULATION FUNCTION - NOT A REAL OPERATION")
	logrus.WithFields(logrus.Fields{
		"function": "NewFailingReader",
		"budget":   budget,
	}).Info("Creating failing entropy source for testing")

	return &FailingReader{remaining: budget}
}

// Read returns bytes from the budget, then ErrEntropyExhausted.
func (r *FailingReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.remaining <= 0 {
		r.failures++
		return 0, ErrEntropyExhausted
	}
	n := len(p)
	if n > r.remaining {
		n = r.remaining
	}
	clear(p[:n])
	r.remaining -= n
	return n, nil
}

// Failures returns how many reads have failed.
func (r *FailingReader) Failures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures
}

// CountingReader wraps a reader and records every read.
type CountingReader struct {
	mu    sync.Mutex
	r     io.Reader
	bytes int
	reads int
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

// Read delegates to the wrapped reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)

	c.mu.Lock()
	c.bytes += n
	c.reads++
	c.mu.Unlock()

	return n, err
}

// Stats returns the bytes delivered and the number of reads so far.
func (c *CountingReader) Stats() (bytes, reads int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytes, c.reads
}

// Reset clears the counters.
func (c *CountingReader) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bytes, c.reads = 0, 0
}
