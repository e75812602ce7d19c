package interfaces

import (
	stdcrypto "crypto"

	"github.com/opd-ai/cryptocore/crypto"
)

// Cryptor encrypts and decrypts messages, with or without associated data.
type Cryptor interface {
	// Encrypt returns the variant's wire encoding of plaintext
	Encrypt(plaintext []byte) ([]byte, error)

	// Decrypt reverses Encrypt; authentication failures return an error, never partial plaintext
	Decrypt(data []byte) ([]byte, error)

	// EncryptWithAEAData authenticates aad alongside the encrypted plaintext
	EncryptWithAEAData(plaintext, aad []byte) (*crypto.AEADCiphered, error)

	// DecryptWithAEAData returns the plaintext and the associated data
	DecryptWithAEAData(msg *crypto.AEADCiphered) (*crypto.AEADPlain, error)
}

// SymmetricCryptor is a Cryptor keyed with a pre-shared symmetric key.
type SymmetricCryptor interface {
	Cryptor

	// SetKey installs a 16 or 32 byte key
	SetKey(key []byte) error

	// SetSalt sets the per-key salt; empty selects a random salt
	SetSalt(salt []byte) error

	// SetNonce sets the explicit nonce; empty selects a random nonce, a repeated nonce fails
	SetNonce(nonce []byte) error

	// SetIV sets salt and nonce together
	SetIV(iv []byte) error

	// Clear wipes the key
	Clear()
}

// KeyedCryptor is a Cryptor keyed with asymmetric keys.
type KeyedCryptor interface {
	Cryptor

	// SetKeys installs the keys of one relationship
	SetKeys(keys *crypto.AsymKeysHolder)
}

// KeyAgreement derives a shared key with a peer before encrypting.
type KeyAgreement interface {
	KeyedCryptor

	// CalculateSharedKey runs static key agreement over the long-term keys
	CalculateSharedKey() ([]byte, error)

	// ECDHEStep1 returns the signed ephemeral public key for the peer
	ECDHEStep1() ([]byte, error)

	// ECDHEStep2 verifies the peer's step 1 payload and derives the key
	ECDHEStep2(payload []byte) ([]byte, error)

	// Clear drops the shared key and any ephemeral state
	Clear()
}

// CryptoSignature signs with our private key and verifies against the peer's
// public key. Verification never fails with an error.
type CryptoSignature interface {
	SetKeys(keys *crypto.AsymKeysHolder)
	Sign(message []byte) ([]byte, error)
	Verify(message, sig []byte) bool
	SignPlain(message []byte) ([]byte, error)
	VerifyPlain(message, sig []byte) bool
}

// KeyGenerator produces key material sized for one crypto system.
type KeyGenerator interface {
	GenerateKeyPair() (*crypto.KeyPair, error)
	GenerateKeyPairFromPassphrase(passphrase, salt []byte) (*crypto.KeyPair, error)
	GenerateSymKey() ([]byte, error)
	GenerateSymKeyFromPassphrase(passphrase, salt []byte) ([]byte, error)
	GenerateIV() ([]byte, error)
	EncodePublicKey(pub stdcrypto.PublicKey) ([]byte, error)
	DecodePublicKey(data []byte) (stdcrypto.PublicKey, error)
}

// Digester hashes messages with one named digest.
type Digester interface {
	Digest(message []byte) []byte
	Write(p []byte) (int, error)
	Sum() []byte
	Reset()
	Size() int
	Name() string
}
