package crypto

import (
	"crypto/cipher"

	"github.com/opd-ai/cryptocore/limits"
)

// aeadKey holds a symmetric key and the AEAD built from it. The symmetric and
// DH-session cryptors embed one each.
type aeadKey struct {
	params   *CryptoParams
	provider *Provider
	key      []byte
	aead     cipher.AEAD
}

func (k *aeadKey) set(op string, key []byte) error {
	if len(key) != 16 && len(key) != 32 {
		return newErrorf(op, ErrInvalidKeyLength, "key is %d bytes, want 16 or 32", len(key))
	}
	aead, err := k.provider.newAEAD(k.params.SymCipher(), key, k.params.TagSize())
	if err != nil {
		return err
	}
	k.clear()
	k.key = append([]byte(nil), key...)
	k.aead = aead
	return nil
}

func (k *aeadKey) ready() bool { return k.aead != nil }

func (k *aeadKey) seal(op string, iv, plaintext, aad []byte) ([]byte, error) {
	if !k.ready() {
		return nil, newError(op, ErrNoKey, nil)
	}
	if len(iv) != k.aead.NonceSize() {
		return nil, newErrorf(op, ErrInvalidIVLength, "iv is %d bytes, want %d", len(iv), k.aead.NonceSize())
	}
	if err := limits.ValidateProcessingBuffer(plaintext); err != nil {
		return nil, newError(op, ErrMessageTooLarge, err)
	}
	return k.aead.Seal(nil, iv, plaintext, aad), nil
}

func (k *aeadKey) open(op string, iv, ciphertext, aad []byte) ([]byte, error) {
	if !k.ready() {
		return nil, newError(op, ErrNoKey, nil)
	}
	if len(iv) != k.aead.NonceSize() {
		return nil, newErrorf(op, ErrInvalidIVLength, "iv is %d bytes, want %d", len(iv), k.aead.NonceSize())
	}
	if len(ciphertext) < k.aead.Overhead() {
		return nil, newErrorf(op, ErrMalformedMessage, "ciphertext is %d bytes, shorter than the %d byte tag", len(ciphertext), k.aead.Overhead())
	}
	if err := limits.ValidateProcessingBuffer(ciphertext); err != nil {
		return nil, newError(op, ErrMessageTooLarge, err)
	}
	plaintext, err := k.aead.Open(nil, iv, ciphertext, aad)
	if err != nil {
		NewLogger(op).
			WithParams(k.params).
			WithPreview("iv", iv).
			Warn("Authentication failed")
		return nil, newError(op, ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}

func (k *aeadKey) clear() {
	ZeroBytes(k.key)
	k.key = nil
	k.aead = nil
}
