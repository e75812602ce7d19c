package crypto

import (
	"bytes"
	"crypto"
	"encoding/binary"
	"errors"
	"hash"

	"github.com/opd-ai/cryptocore/limits"
)

// AsymCryptorDH agrees on a symmetric key with a peer and then encrypts
// under it. The key comes either from static ECDH over both long-term keys
// (CalculateSharedKey) or from a signed ephemeral exchange (ECDHEStep1 then
// ECDHEStep2 on both sides).
//
// The derived key is the key agreement digest of the ECDH secret followed
// by both public keys in ascending byte order, truncated to the symmetric
// key length. Sorting makes the result independent of which side is ours.
//
// Each installed key gets a random salt. Every encryption under it takes an
// unused random nonce from the same nonce manager as SymCryptor and carries
// the full IV in the output. An AsymCryptorDH is not safe for concurrent use.
type AsymCryptorDH struct {
	params    *CryptoParams
	provider  *Provider
	curve     curve
	kad       func() hash.Hash
	signer    *Signer
	keys      AsymKeysHolder
	key       aeadKey
	ivs       *ivManager
	ephemeral *KeyPair
}

func newAsymCryptorDH(params *CryptoParams, provider *Provider) (*AsymCryptorDH, error) {
	if params.Scheme() != SchemeEC {
		return nil, newErrorf("AsymCryptorDH", ErrNotSupported, "key agreement needs an EC system, %s is %s", params.Name(), params.Scheme())
	}
	c, err := provider.curve(params.Curve())
	if err != nil {
		return nil, err
	}
	kad, err := provider.Digest(params.KeyAgreementDigest())
	if err != nil {
		return nil, err
	}
	if kad().Size() < params.SymKeyLen() {
		return nil, newErrorf("AsymCryptorDH", ErrUnsupportedAlgorithm, "%s output is shorter than a %d byte key", params.KeyAgreementDigest(), params.SymKeyLen())
	}
	if err := provider.checkCipher(params.SymCipher()); err != nil {
		return nil, err
	}
	signer, err := newSigner(params, provider)
	if err != nil {
		return nil, err
	}
	ivs, err := newIVManager(params, provider)
	if err != nil {
		return nil, err
	}
	return &AsymCryptorDH{
		params:   params,
		provider: provider,
		curve:    c,
		kad:      kad,
		signer:   signer,
		key:      aeadKey{params: params, provider: provider},
		ivs:      ivs,
	}, nil
}

// SetKeys installs the keys of one relationship and drops any key or
// handshake state left from a previous one.
func (c *AsymCryptorDH) SetKeys(keys *AsymKeysHolder) {
	c.Clear()
	if keys == nil {
		c.keys = AsymKeysHolder{}
	} else {
		c.keys = *keys
	}
	c.signer.SetKeys(&c.keys)
}

func (c *AsymCryptorDH) ourPublic() crypto.PublicKey {
	if c.keys.OurPublic != nil {
		return c.keys.OurPublic
	}
	return publicKeyOf(c.keys.OurPrivate)
}

// deriveKey hashes secret with both encoded public keys in ascending order.
func (c *AsymCryptorDH) deriveKey(secret, pubA, pubB []byte) []byte {
	if bytes.Compare(pubA, pubB) > 0 {
		pubA, pubB = pubB, pubA
	}
	h := c.kad()
	h.Write(secret)
	h.Write(pubA)
	h.Write(pubB)
	sum := h.Sum(nil)
	key := append([]byte(nil), sum[:c.params.SymKeyLen()]...)
	ZeroBytes(sum)
	return key
}

func (c *AsymCryptorDH) install(op string, key []byte) ([]byte, error) {
	defer ZeroBytes(key)
	if err := c.key.set(op, key); err != nil {
		return nil, err
	}
	if err := c.ivs.setSalt(nil); err != nil {
		c.key.clear()
		return nil, err
	}
	return append([]byte(nil), key...), nil
}

// CalculateSharedKey runs static ECDH between our private key and the
// peer's public key, installs the derived key and returns a copy of it.
func (c *AsymCryptorDH) CalculateSharedKey() ([]byte, error) {
	if c.keys.OurPrivate == nil || c.keys.TheirPublic == nil {
		return nil, newError("CalculateSharedKey", ErrNoKey, errors.New("need our private key and the peer public key"))
	}
	ours, err := c.curve.encodePublicKey(c.ourPublic())
	if err != nil {
		return nil, newError("CalculateSharedKey", ErrInvalidKey, err)
	}
	theirs, err := c.curve.encodePublicKey(c.keys.TheirPublic)
	if err != nil {
		return nil, newError("CalculateSharedKey", ErrInvalidKey, err)
	}
	secret, err := c.curve.ecdh(c.keys.OurPrivate, c.keys.TheirPublic)
	if err != nil {
		return nil, newError("CalculateSharedKey", ErrInvalidKey, err)
	}
	defer ZeroBytes(secret)

	NewLogger("CalculateSharedKey").
		WithParams(c.params).
		WithPreview("peer_public_key", theirs).
		Debug("Static shared key derived")
	return c.install("CalculateSharedKey", c.deriveKey(secret, ours, theirs))
}

// ECDHEStep1 generates an ephemeral key pair and returns
//
//	keyLen(4, BE) || ephemeralPublic || DER signature
//
// signed with our long-term private key. Calling it again restarts the
// handshake with a new ephemeral pair.
func (c *AsymCryptorDH) ECDHEStep1() ([]byte, error) {
	if c.keys.OurPrivate == nil {
		return nil, newError("ECDHEStep1", ErrNoKey, errors.New("long-term private key not set"))
	}
	c.dropEphemeral()

	eph, err := c.curve.generateKey(c.provider.Random())
	if err != nil {
		return nil, newError("ECDHEStep1", ErrRandomSource, err)
	}
	ephPub, err := c.curve.encodePublicKey(eph.Public)
	if err != nil {
		_ = WipeKeyPair(eph)
		return nil, newError("ECDHEStep1", ErrInvalidKey, err)
	}
	sig, err := c.signer.signWith("ECDHEStep1", c.keys.OurPrivate, ephPub)
	if err != nil {
		_ = WipeKeyPair(eph)
		return nil, err
	}
	keyLen, err := safeIntToUint32(len(ephPub))
	if err != nil {
		_ = WipeKeyPair(eph)
		return nil, newError("ECDHEStep1", ErrMessageTooLarge, err)
	}
	c.ephemeral = eph

	payload := make([]byte, 0, limits.LengthFieldSize+len(ephPub)+len(sig))
	payload = binary.BigEndian.AppendUint32(payload, keyLen)
	payload = append(payload, ephPub...)
	payload = append(payload, sig...)

	NewLogger("ECDHEStep1").
		WithParams(c.params).
		WithPreview("ephemeral_public_key", ephPub).
		Debug("Ephemeral key pair generated and signed")
	return payload, nil
}

// parseHandshake splits a step 1 payload into key and signature.
func parseHandshake(payload []byte) (key, sig []byte, err error) {
	if err := limits.ValidateHandshakePayload(payload); err != nil {
		return nil, nil, newError("ECDHEStep2", ErrMalformedMessage, err)
	}
	declared := binary.BigEndian.Uint32(payload)
	rest := payload[limits.LengthFieldSize:]
	if err := limits.ValidateHandshakeKeyLen(declared, len(rest)); err != nil {
		return nil, nil, newError("ECDHEStep2", ErrMalformedMessage, err)
	}
	keyLen, err := safeUint32ToInt(declared)
	if err != nil {
		return nil, nil, newError("ECDHEStep2", ErrMalformedMessage, err)
	}
	if keyLen == len(rest) {
		return nil, nil, newError("ECDHEStep2", ErrMalformedMessage, errors.New("signature missing"))
	}
	return rest[:keyLen], rest[keyLen:], nil
}

// ECDHEStep2 consumes the peer's step 1 payload. The signature is checked
// against the peer's long-term public key before any key agreement. On
// success the derived key is installed and a copy returned.
//
// The ephemeral pair is wiped whatever the outcome, so a payload with a bad
// signature or format also ends the pending handshake. After any error the
// caller restarts with ECDHEStep1 and sends the new payload to the peer.
func (c *AsymCryptorDH) ECDHEStep2(payload []byte) ([]byte, error) {
	if c.ephemeral == nil {
		return nil, newError("ECDHEStep2", ErrHandshakeState, errors.New("ECDHEStep1 has not run"))
	}
	defer c.dropEphemeral()

	if c.keys.TheirPublic == nil {
		return nil, newError("ECDHEStep2", ErrNoKey, errors.New("peer public key not set"))
	}
	peerEph, sig, err := parseHandshake(payload)
	if err != nil {
		return nil, err
	}
	if !c.signer.verifyWith(c.keys.TheirPublic, peerEph, sig) {
		NewLogger("ECDHEStep2").
			WithParams(c.params).
			WithPreview("peer_ephemeral_key", peerEph).
			Warn("Rejected handshake with invalid signature")
		return nil, newError("ECDHEStep2", ErrSignatureInvalid, nil)
	}
	peerPub, err := c.curve.decodePublicKey(peerEph)
	if err != nil {
		return nil, newError("ECDHEStep2", ErrMalformedMessage, err)
	}
	ours, err := c.curve.encodePublicKey(c.ephemeral.Public)
	if err != nil {
		return nil, newError("ECDHEStep2", ErrInvalidKey, err)
	}
	secret, err := c.curve.ecdh(c.ephemeral.Private, peerPub)
	if err != nil {
		return nil, newError("ECDHEStep2", ErrInvalidKey, err)
	}
	defer ZeroBytes(secret)

	NewLogger("ECDHEStep2").WithParams(c.params).Debug("Ephemeral shared key derived")
	return c.install("ECDHEStep2", c.deriveKey(secret, ours, peerEph))
}

// HandshakePending reports whether ECDHEStep1 ran and ECDHEStep2 has not.
func (c *AsymCryptorDH) HandshakePending() bool { return c.ephemeral != nil }

// HasKey reports whether a shared key is installed.
func (c *AsymCryptorDH) HasKey() bool { return c.key.ready() }

// Encrypt returns Ciphered bytes: IV || ciphertext.
func (c *AsymCryptorDH) Encrypt(plaintext []byte) ([]byte, error) {
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
	msg, err := NewCiphered(c.params, iv, ciphertext)
	if err != nil {
		return nil, err
	}
	return msg.Bytes(), nil
}

// Decrypt reverses Encrypt.
func (c *AsymCryptorDH) Decrypt(data []byte) ([]byte, error) {
	if !c.key.ready() {
		return nil, newError("Decrypt", ErrNoKey, nil)
	}
	msg, err := ParseCiphered(data, c.params)
	if err != nil {
		return nil, err
	}
	return c.key.open("Decrypt", msg.iv, msg.ciphertext, nil)
}

// EncryptWithAEAData encrypts plaintext and authenticates aad under the
// shared key with a fresh IV.
func (c *AsymCryptorDH) EncryptWithAEAData(plaintext, aad []byte) (*AEADCiphered, error) {
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

// DecryptWithAEAData decrypts msg under the shared key. On failure the
// returned AEADPlain still holds the claimed aatext, marked unauthenticated.
func (c *AsymCryptorDH) DecryptWithAEAData(msg *AEADCiphered) (*AEADPlain, error) {
	return decryptAEADCiphered("DecryptWithAEAData", &c.key, msg)
}

// Clear drops the shared key and any pending ephemeral key pair.
func (c *AsymCryptorDH) Clear() {
	c.key.clear()
	c.dropEphemeral()
}

// Params returns the parameter set the cryptor was built from.
func (c *AsymCryptorDH) Params() *CryptoParams { return c.params }

func (c *AsymCryptorDH) dropEphemeral() {
	if c.ephemeral != nil {
		_ = WipeKeyPair(c.ephemeral)
		c.ephemeral = nil
	}
}
