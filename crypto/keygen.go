package crypto

import (
	"crypto"
	"crypto/rsa"
	"errors"
	"hash"

	"github.com/opd-ai/cryptocore/limits"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// Argon2id memory cost in KiB and lane count.
const (
	argon2Memory  = 64 * 1024
	argon2Threads = 4
)

// KeyGenerator produces key pairs, symmetric keys and IV material sized
// for one parameter set. Randomness comes from the provider.
type KeyGenerator struct {
	params   *CryptoParams
	provider *Provider
	kdf      func() hash.Hash
	curve    curve
}

func newKeyGenerator(params *CryptoParams, provider *Provider) (*KeyGenerator, error) {
	kdf, err := provider.kdfDigest(params.KDF())
	if err != nil {
		return nil, err
	}
	g := &KeyGenerator{params: params, provider: provider, kdf: kdf}
	if params.Scheme() == SchemeEC {
		if g.curve, err = provider.curve(params.Curve()); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// GenerateKeyPair creates a random key pair.
func (g *KeyGenerator) GenerateKeyPair() (*KeyPair, error) {
	logger := NewLogger("GenerateKeyPair").WithParams(g.params)

	if g.curve != nil {
		kp, err := g.curve.generateKey(g.provider.Random())
		if err != nil {
			return nil, newError("GenerateKeyPair", ErrRandomSource, err)
		}
		logger.Debug("EC key pair generated")
		return kp, nil
	}
	priv, err := rsa.GenerateKey(g.provider.Random(), g.params.KeyLen())
	if err != nil {
		return nil, newError("GenerateKeyPair", ErrRandomSource, err)
	}
	logger.WithField("key_bits", g.params.KeyLen()).Debug("RSA key pair generated")
	return &KeyPair{Public: &priv.PublicKey, Private: priv}, nil
}

// GenerateKeyPairFromPassphrase derives an EC key pair from passphrase and
// salt. The same inputs always give the same pair. The passphrase is
// stretched with the parameter set's KDF (PBKDF2 or Argon2id), then expanded
// through a DeterministicStream and rejection-sampled into a scalar.
func (g *KeyGenerator) GenerateKeyPairFromPassphrase(passphrase, salt []byte) (*KeyPair, error) {
	if g.curve == nil {
		return nil, newError("GenerateKeyPairFromPassphrase", ErrNotSupported, errors.New("passphrase keys need an EC system"))
	}
	seed, err := g.stretch("GenerateKeyPairFromPassphrase", passphrase, salt, g.kdf().Size())
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(seed)

	kp, err := g.curve.keyFromStream(NewDeterministicStream(g.kdf, seed, g.params.Name()))
	if err != nil {
		return nil, newError("GenerateKeyPairFromPassphrase", ErrInvalidKey, err)
	}
	return kp, nil
}

// GenerateSymKey returns a random key of the parameter set's symmetric length.
func (g *KeyGenerator) GenerateSymKey() ([]byte, error) {
	return g.provider.randomBytes("GenerateSymKey", g.params.SymKeyLen())
}

// GenerateSymKeyFromPassphrase derives a symmetric key with the parameter
// set's KDF and iteration count.
func (g *KeyGenerator) GenerateSymKeyFromPassphrase(passphrase, salt []byte) ([]byte, error) {
	return g.stretch("GenerateSymKeyFromPassphrase", passphrase, salt, g.params.SymKeyLen())
}

// stretch derives n bytes from passphrase and salt with the params KDF.
func (g *KeyGenerator) stretch(op string, passphrase, salt []byte, n int) ([]byte, error) {
	if err := limits.ValidatePassphrase(passphrase); err != nil {
		return nil, newError(op, ErrInvalidKey, err)
	}
	if g.params.KDF() != KDFArgon2id {
		return pbkdf2.Key(passphrase, salt, g.params.KDFIterations(), n, g.kdf), nil
	}
	timeCost, err := safeIntToUint32(g.params.KDFIterations())
	if err != nil {
		return nil, newError(op, ErrUnsupportedAlgorithm, err)
	}
	keyLen, err := safeIntToUint32(n)
	if err != nil {
		return nil, newError(op, ErrInvalidKeyLength, err)
	}
	return argon2.IDKey(passphrase, salt, timeCost, argon2Memory, argon2Threads, keyLen), nil
}

// GenerateIV returns a random salt || nonce.
func (g *KeyGenerator) GenerateIV() ([]byte, error) {
	return g.provider.randomBytes("GenerateIV", g.params.IVLen())
}

// GenerateSalt returns a random per-key salt.
func (g *KeyGenerator) GenerateSalt() ([]byte, error) {
	return g.provider.randomBytes("GenerateSalt", g.params.SaltLen())
}

// GenerateNonce returns a random explicit nonce.
func (g *KeyGenerator) GenerateNonce() ([]byte, error) {
	return g.provider.randomBytes("GenerateNonce", g.params.NonceLen())
}

// EncodePublicKey returns the uncompressed point encoding of an EC public key.
func (g *KeyGenerator) EncodePublicKey(pub crypto.PublicKey) ([]byte, error) {
	if g.curve == nil {
		return nil, newError("EncodePublicKey", ErrNotSupported, errors.New("raw encoding needs an EC system"))
	}
	enc, err := g.curve.encodePublicKey(pub)
	if err != nil {
		return nil, newError("EncodePublicKey", ErrInvalidKey, err)
	}
	return enc, nil
}

// DecodePublicKey parses an uncompressed point produced by EncodePublicKey.
func (g *KeyGenerator) DecodePublicKey(data []byte) (crypto.PublicKey, error) {
	if g.curve == nil {
		return nil, newError("DecodePublicKey", ErrNotSupported, errors.New("raw encoding needs an EC system"))
	}
	pub, err := g.curve.decodePublicKey(data)
	if err != nil {
		return nil, newError("DecodePublicKey", ErrMalformedMessage, err)
	}
	return pub, nil
}

// Params returns the parameter set the generator was built from.
func (g *KeyGenerator) Params() *CryptoParams { return g.params }
