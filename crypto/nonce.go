package crypto

import (
	"crypto/subtle"
)

// maxNonceDraws bounds the attempts to draw a random nonce that has not been
// used yet. A healthy entropy source succeeds on the first draw.
const maxNonceDraws = 8

// ivManager owns the salt and explicit nonce of one cryptor. Both SymCryptor
// and AsymCryptorDH hold one.
//
// Every nonce the manager stores is recorded in used, and a nonce is consumed
// by the encryption that uses it. The manager refuses a caller-supplied
// nonce that is already recorded and replaces a consumed nonce with a fresh
// random one before the next encryption. The record lives until the salt or
// the key changes.
type ivManager struct {
	provider *Provider
	salt     []byte
	nonce    []byte
	consumed bool
	used     map[string]struct{}
}

func newIVManager(params *CryptoParams, provider *Provider) (*ivManager, error) {
	m := &ivManager{
		provider: provider,
		salt:     make([]byte, params.SaltLen()),
		nonce:    make([]byte, params.NonceLen()),
		used:     make(map[string]struct{}),
	}
	if err := provider.readRandom("newIVManager", m.salt); err != nil {
		return nil, err
	}
	if err := provider.readRandom("newIVManager", m.nonce); err != nil {
		return nil, err
	}
	m.record()
	return m, nil
}

// setSalt replaces the salt. An empty salt selects a random one. A new salt
// starts a new nonce record.
func (m *ivManager) setSalt(salt []byte) error {
	if len(salt) == 0 {
		if err := m.provider.readRandom("SetSalt", m.salt); err != nil {
			return err
		}
		m.forget()
		return nil
	}
	if len(salt) != len(m.salt) {
		return newErrorf("SetSalt", ErrInvalidIVLength, "salt is %d bytes, want %d", len(salt), len(m.salt))
	}
	m.replaceSalt(salt)
	return nil
}

func (m *ivManager) replaceSalt(salt []byte) {
	if subtle.ConstantTimeCompare(salt, m.salt) == 1 {
		return
	}
	copy(m.salt, salt)
	m.forget()
}

// forget starts a new nonce record. Only valid once the key or salt changed.
// A stored nonce that no encryption has consumed yet stays recorded.
func (m *ivManager) forget() {
	clear(m.used)
	if !m.consumed {
		m.record()
	}
}

func (m *ivManager) record() {
	m.used[string(m.nonce)] = struct{}{}
}

func (m *ivManager) seen(nonce []byte) bool {
	_, ok := m.used[string(nonce)]
	return ok
}

// setNonce replaces the explicit nonce. An empty nonce selects a random
// unrecorded one; a recorded nonce fails.
func (m *ivManager) setNonce(nonce []byte) error {
	if len(nonce) == 0 {
		return m.freshNonce("SetNonce")
	}
	if len(nonce) != len(m.nonce) {
		return newErrorf("SetNonce", ErrInvalidIVLength, "nonce is %d bytes, want %d", len(nonce), len(m.nonce))
	}
	if m.seen(nonce) {
		NewLogger("SetNonce").
			WithPreview("nonce", nonce).
			Warn("Rejected nonce reuse")
		return newError("SetNonce", ErrNonceReuse, nil)
	}
	copy(m.nonce, nonce)
	m.record()
	m.consumed = false
	return nil
}

// setIV replaces salt and nonce at once. The nonce half is checked against
// the record of the current salt before the salt changes.
func (m *ivManager) setIV(iv []byte) error {
	if len(iv) != m.ivLen() {
		return newErrorf("SetIV", ErrInvalidIVLength, "iv is %d bytes, want %d", len(iv), m.ivLen())
	}
	saltLen := len(m.salt)
	if err := m.setNonce(iv[saltLen:]); err != nil {
		return err
	}
	m.replaceSalt(iv[:saltLen])
	return nil
}

func (m *ivManager) freshNonce(op string) error {
	candidate := make([]byte, len(m.nonce))
	for i := 0; i < maxNonceDraws; i++ {
		if err := m.provider.readRandom(op, candidate); err != nil {
			return err
		}
		if !m.seen(candidate) {
			copy(m.nonce, candidate)
			m.record()
			m.consumed = false
			return nil
		}
	}
	return newErrorf(op, ErrRandomSource, "no distinct nonce after %d draws", maxNonceDraws)
}

// next returns the IV for the next encryption and marks its nonce consumed.
func (m *ivManager) next(op string) ([]byte, error) {
	if m.consumed {
		if err := m.freshNonce(op); err != nil {
			return nil, err
		}
	}
	m.consumed = true
	return m.iv(), nil
}

// withNonce builds an IV from the stored salt and a received nonce.
func (m *ivManager) withNonce(nonce []byte) []byte {
	iv := make([]byte, 0, m.ivLen())
	iv = append(iv, m.salt...)
	return append(iv, nonce...)
}

func (m *ivManager) iv() []byte {
	return m.withNonce(m.nonce)
}

func (m *ivManager) ivLen() int { return len(m.salt) + len(m.nonce) }

func (m *ivManager) saltCopy() []byte { return append([]byte(nil), m.salt...) }

func (m *ivManager) nonceCopy() []byte { return append([]byte(nil), m.nonce...) }
