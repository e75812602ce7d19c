package crypto

import "crypto/subtle"

// SymCryptor encrypts with a pre-shared symmetric key. It owns the salt and
// nonce state: the salt is fixed per key and travels out of band, the
// explicit nonce is per message and is never reused under the same key and
// salt.
//
// A SymCryptor is not safe for concurrent use; take one per session from the
// factory.
type SymCryptor struct {
	params *CryptoParams
	key    aeadKey
	ivs    *ivManager
}

func newSymCryptor(params *CryptoParams, provider *Provider) (*SymCryptor, error) {
	if err := provider.checkCipher(params.SymCipher()); err != nil {
		return nil, err
	}
	ivs, err := newIVManager(params, provider)
	if err != nil {
		return nil, err
	}
	return &SymCryptor{
		params: params,
		key:    aeadKey{params: params, provider: provider},
		ivs:    ivs,
	}, nil
}

// SetKey installs a 16 or 32 byte key. The key is copied. Replacing one key
// with a different one drops the record of consumed nonces; reinstalling the
// same key, or any key after Clear, keeps it.
func (c *SymCryptor) SetKey(key []byte) error {
	changed := c.key.ready() && subtle.ConstantTimeCompare(c.key.key, key) == 0
	if err := c.key.set("SetKey", key); err != nil {
		return err
	}
	if changed {
		c.ivs.forget()
	}
	return nil
}

// SetSalt sets the per-key salt. An empty salt selects a random one.
func (c *SymCryptor) SetSalt(salt []byte) error {
	return c.ivs.setSalt(salt)
}

// SetNonce sets the explicit nonce for the next encryption. An empty nonce
// selects a random one; the stored nonce or any nonce already consumed under
// the current key and salt fails with ErrNonceReuse.
func (c *SymCryptor) SetNonce(nonce []byte) error {
	return c.ivs.setNonce(nonce)
}

// SetIV sets salt and nonce at once.
func (c *SymCryptor) SetIV(iv []byte) error {
	return c.ivs.setIV(iv)
}

// Salt returns a copy of the salt.
func (c *SymCryptor) Salt() []byte { return c.ivs.saltCopy() }

// Nonce returns a copy of the current explicit nonce.
func (c *SymCryptor) Nonce() []byte { return c.ivs.nonceCopy() }

// IV returns a copy of salt || nonce.
func (c *SymCryptor) IV() []byte { return c.ivs.iv() }

// Encrypt returns nonce || ciphertext. The salt is not included.
func (c *SymCryptor) Encrypt(plaintext []byte) ([]byte, error) {
	if !c.key.ready() {
		return nil, newError("Encrypt", ErrNoKey, nil)
	}
	iv, err := c.ivs.next("Encrypt")
	if err != nil {
		return nil, err
	}
	ciphertext, err := c.key.seal("Encrypt", iv, plaintext, nil)
	if err != nil {
		return nil, err
	}
	nonce := iv[c.params.SaltLen():]
	out := make([]byte, 0, len(nonce)+len(ciphertext))
	out = append(out, nonce...)
	return append(out, ciphertext...), nil
}

// Decrypt reverses Encrypt using the current salt and the nonce prefix.
func (c *SymCryptor) Decrypt(data []byte) ([]byte, error) {
	nonceLen := c.params.NonceLen()
	if len(data) < nonceLen {
		return nil, newErrorf("Decrypt", ErrMalformedMessage, "message is %d bytes, nonce needs %d", len(data), nonceLen)
	}
	return c.key.open("Decrypt", c.ivs.withNonce(data[:nonceLen]), data[nonceLen:], nil)
}

// EncryptWithAEAData encrypts plaintext and authenticates aad with it. The
// result carries the full IV. Messages whose aad, plaintext and tag would
// exceed limits.MaxAEADPayload are refused.
func (c *SymCryptor) EncryptWithAEAData(plaintext, aad []byte) (*AEADCiphered, error) {
	if !c.key.ready() {
		return nil, newError("EncryptWithAEAData", ErrNoKey, nil)
	}
	if err := checkAEADPayload("EncryptWithAEAData", len(aad), len(plaintext)+c.params.TagSize()); err != nil {
		return nil, err
	}
	iv, err := c.ivs.next("EncryptWithAEAData")
	if err != nil {
		return nil, err
	}
	ciphertext, err := c.key.seal("EncryptWithAEAData", iv, plaintext, aad)
	if err != nil {
		return nil, err
	}
	return NewAEADCiphered(c.params, iv, aad, ciphertext)
}

// DecryptWithAEAData decrypts msg with the IV it carries. On failure the
// returned AEADPlain still holds the claimed aatext, marked unauthenticated.
func (c *SymCryptor) DecryptWithAEAData(msg *AEADCiphered) (*AEADPlain, error) {
	return decryptAEADCiphered("DecryptWithAEAData", &c.key, msg)
}

// Clear wipes the key. The cryptor needs SetKey before further use. The
// nonce record survives, since the next key may be the same one.
func (c *SymCryptor) Clear() {
	c.key.clear()
}

// Params returns the parameter set the cryptor was built from.
func (c *SymCryptor) Params() *CryptoParams { return c.params }

func decryptAEADCiphered(op string, key *aeadKey, msg *AEADCiphered) (*AEADPlain, error) {
	if msg == nil {
		return nil, newError(op, ErrMalformedMessage, nil)
	}
	result := &AEADPlain{AAText: msg.AAText()}
	plaintext, err := key.open(op, msg.iv, msg.ciphertext, msg.aatext)
	if err != nil {
		return result, err
	}
	result.Plaintext = plaintext
	result.Authenticated = true
	return result, nil
}
