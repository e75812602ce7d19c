package crypto

import (
	"crypto/rsa"
	"errors"
	"hash"
	"io"

	"github.com/cloudflare/circl/hpke"
	"golang.org/x/crypto/hkdf"

	"github.com/opd-ai/cryptocore/limits"
)

// AsymCryptor is one-shot integrated encryption to the peer's public key.
// Encrypt uses TheirPublic, Decrypt uses OurPrivate. Nothing persists
// between calls.
//
// Wire formats by scheme:
//
//	ECIESwithAES-GCM      ephemeralPublic || IV(12) || ciphertext
//	HPKE/AES-GCM          enc || ciphertext            (RFC 9180 base mode)
//	RSA/ECB/PKCS1Padding  one PKCS#1 v1.5 block
type AsymCryptor struct {
	params   *CryptoParams
	provider *Provider
	ies      string
	curve    curve
	digest   func() hash.Hash
	suite    hpke.Suite
	kem      hpke.KEM
	keys     AsymKeysHolder
}

func newAsymCryptor(params *CryptoParams, provider *Provider) (*AsymCryptor, error) {
	scheme, err := provider.ies(params.AsymIESCipher())
	if err != nil {
		return nil, err
	}
	if scheme != params.Scheme() {
		return nil, newErrorf("AsymCryptor", ErrUnsupportedAlgorithm, "%s cannot run on %s keys", params.AsymIESCipher(), params.Scheme())
	}
	c := &AsymCryptor{params: params, provider: provider, ies: params.AsymIESCipher()}
	if scheme == SchemeRSA {
		return c, nil
	}
	if c.curve, err = provider.curve(params.Curve()); err != nil {
		return nil, err
	}
	switch c.ies {
	case IESECIESAESGCM:
		if err := provider.checkCipher(params.SymCipher()); err != nil {
			return nil, err
		}
		if c.digest, err = provider.Digest(params.Digest()); err != nil {
			return nil, err
		}
	case IESHPKEAESGCM:
		var ok bool
		if c.kem, c.suite, ok = hpkeSuite(params.Curve()); !ok {
			return nil, newErrorf("AsymCryptor", ErrUnsupportedAlgorithm, "no HPKE KEM for curve %s", params.Curve())
		}
	}
	return c, nil
}

func hpkeSuite(curveName string) (hpke.KEM, hpke.Suite, bool) {
	switch curveName {
	case CurvePrime256v1:
		return hpke.KEM_P256_HKDF_SHA256,
			hpke.NewSuite(hpke.KEM_P256_HKDF_SHA256, hpke.KDF_HKDF_SHA256, hpke.AEAD_AES128GCM), true
	case CurveSecp521r1:
		return hpke.KEM_P521_HKDF_SHA512,
			hpke.NewSuite(hpke.KEM_P521_HKDF_SHA512, hpke.KDF_HKDF_SHA512, hpke.AEAD_AES256GCM), true
	}
	return 0, hpke.Suite{}, false
}

// SetKeys installs the keys of one relationship. References are copied,
// key material is not.
func (c *AsymCryptor) SetKeys(keys *AsymKeysHolder) {
	if keys == nil {
		c.keys = AsymKeysHolder{}
		return
	}
	c.keys = *keys
	warnForeignKey("SetKeys", c.params, c.curve, c.keys.TheirPublic)
}

// Encrypt encrypts plaintext to the peer's public key.
func (c *AsymCryptor) Encrypt(plaintext []byte) ([]byte, error) {
	if c.keys.TheirPublic == nil {
		return nil, newError("Encrypt", ErrNoKey, errors.New("peer public key not set"))
	}
	if err := limits.ValidateProcessingBuffer(plaintext); err != nil {
		return nil, newError("Encrypt", ErrMessageTooLarge, err)
	}
	switch c.ies {
	case IESRSAPKCS1:
		return c.encryptRSA(plaintext)
	case IESHPKEAESGCM:
		return c.encryptHPKE(plaintext)
	default:
		return c.encryptECIES(plaintext)
	}
}

// Decrypt decrypts data with our private key.
func (c *AsymCryptor) Decrypt(data []byte) ([]byte, error) {
	if c.keys.OurPrivate == nil {
		return nil, newError("Decrypt", ErrNoKey, errors.New("private key not set"))
	}
	if err := limits.ValidateProcessingBuffer(data); err != nil {
		return nil, newError("Decrypt", ErrMessageTooLarge, err)
	}
	switch c.ies {
	case IESRSAPKCS1:
		return c.decryptRSA(data)
	case IESHPKEAESGCM:
		return c.decryptHPKE(data)
	default:
		return c.decryptECIES(data)
	}
}

// EncryptWithAEAData is not available for integrated encryption.
func (c *AsymCryptor) EncryptWithAEAData(plaintext, aad []byte) (*AEADCiphered, error) {
	return nil, newErrorf("EncryptWithAEAData", ErrNotSupported, "associated data is not supported by %s", c.ies)
}

// DecryptWithAEAData is not available for integrated encryption.
func (c *AsymCryptor) DecryptWithAEAData(msg *AEADCiphered) (*AEADPlain, error) {
	return nil, newErrorf("DecryptWithAEAData", ErrNotSupported, "associated data is not supported by %s", c.ies)
}

// Params returns the parameter set the cryptor was built from.
func (c *AsymCryptor) Params() *CryptoParams { return c.params }

func (c *AsymCryptor) encryptRSA(plaintext []byte) ([]byte, error) {
	pub, ok := c.keys.TheirPublic.(*rsa.PublicKey)
	if !ok {
		return nil, newErrorf("Encrypt", ErrInvalidKey, "expected RSA public key, got %T", c.keys.TheirPublic)
	}
	if err := limits.ValidateRSAPlaintext(plaintext, pub.Size()); err != nil {
		return nil, newError("Encrypt", ErrPlaintextTooLarge, err)
	}
	ciphertext, err := rsa.EncryptPKCS1v15(c.provider.Random(), pub, plaintext)
	if err != nil {
		return nil, newError("Encrypt", ErrInvalidKey, err)
	}
	return ciphertext, nil
}

func (c *AsymCryptor) decryptRSA(data []byte) ([]byte, error) {
	priv, ok := c.keys.OurPrivate.(*rsa.PrivateKey)
	if !ok {
		return nil, newErrorf("Decrypt", ErrInvalidKey, "expected RSA private key, got %T", c.keys.OurPrivate)
	}
	if len(data) != priv.Size() {
		return nil, newErrorf("Decrypt", ErrMalformedMessage, "ciphertext is %d bytes, want %d", len(data), priv.Size())
	}
	plaintext, err := rsa.DecryptPKCS1v15(c.provider.Random(), priv, data)
	if err != nil {
		return nil, newError("Decrypt", ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}

// eciesKey runs HKDF over the ECDH secret. The IV is the salt; both public
// keys are bound through the info string.
func (c *AsymCryptor) eciesKey(secret, iv, ephemeral, recipient []byte) ([]byte, error) {
	info := make([]byte, 0, len(ephemeral)+len(recipient))
	info = append(info, ephemeral...)
	info = append(info, recipient...)
	key := make([]byte, c.params.SymKeyLen())
	if _, err := io.ReadFull(hkdf.New(c.digest, secret, iv, info), key); err != nil {
		return nil, err
	}
	return key, nil
}

func (c *AsymCryptor) encryptECIES(plaintext []byte) ([]byte, error) {
	recipient, err := c.curve.encodePublicKey(c.keys.TheirPublic)
	if err != nil {
		return nil, newError("Encrypt", ErrInvalidKey, err)
	}
	eph, err := c.curve.generateKey(c.provider.Random())
	if err != nil {
		return nil, newError("Encrypt", ErrRandomSource, err)
	}
	defer WipeKeyPair(eph)

	ephPub, err := c.curve.encodePublicKey(eph.Public)
	if err != nil {
		return nil, newError("Encrypt", ErrInvalidKey, err)
	}
	secret, err := c.curve.ecdh(eph.Private, c.keys.TheirPublic)
	if err != nil {
		return nil, newError("Encrypt", ErrInvalidKey, err)
	}
	defer ZeroBytes(secret)

	iv, err := c.provider.randomBytes("Encrypt", c.params.IVLen())
	if err != nil {
		return nil, err
	}
	key, err := c.eciesKey(secret, iv, ephPub, recipient)
	if err != nil {
		return nil, newError("Encrypt", ErrInvalidKey, err)
	}
	defer ZeroBytes(key)

	sym := aeadKey{params: c.params, provider: c.provider}
	if err := sym.set("Encrypt", key); err != nil {
		return nil, err
	}
	defer sym.clear()
	ciphertext, err := sym.seal("Encrypt", iv, plaintext, nil)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(ephPub)+len(iv)+len(ciphertext))
	out = append(out, ephPub...)
	out = append(out, iv...)
	return append(out, ciphertext...), nil
}

func (c *AsymCryptor) decryptECIES(data []byte) ([]byte, error) {
	pubLen, ivLen := c.curve.publicKeySize(), c.params.IVLen()
	if len(data) < pubLen+ivLen+c.params.TagSize() {
		return nil, newErrorf("Decrypt", ErrMalformedMessage, "message is %d bytes, too short for ECIES", len(data))
	}
	ephPub := data[:pubLen]
	iv := data[pubLen : pubLen+ivLen]
	ephemeral, err := c.curve.decodePublicKey(ephPub)
	if err != nil {
		return nil, newError("Decrypt", ErrMalformedMessage, err)
	}
	ourPublic := c.keys.OurPublic
	if ourPublic == nil {
		ourPublic = publicKeyOf(c.keys.OurPrivate)
	}
	recipient, err := c.curve.encodePublicKey(ourPublic)
	if err != nil {
		return nil, newError("Decrypt", ErrInvalidKey, err)
	}
	secret, err := c.curve.ecdh(c.keys.OurPrivate, ephemeral)
	if err != nil {
		return nil, newError("Decrypt", ErrInvalidKey, err)
	}
	defer ZeroBytes(secret)

	key, err := c.eciesKey(secret, iv, ephPub, recipient)
	if err != nil {
		return nil, newError("Decrypt", ErrInvalidKey, err)
	}
	defer ZeroBytes(key)

	sym := aeadKey{params: c.params, provider: c.provider}
	if err := sym.set("Decrypt", key); err != nil {
		return nil, err
	}
	defer sym.clear()
	return sym.open("Decrypt", iv, data[pubLen+ivLen:], nil)
}

func (c *AsymCryptor) hpkeInfo() []byte {
	return []byte("cryptocore " + c.params.Name())
}

func (c *AsymCryptor) encryptHPKE(plaintext []byte) ([]byte, error) {
	raw, err := c.curve.encodePublicKey(c.keys.TheirPublic)
	if err != nil {
		return nil, newError("Encrypt", ErrInvalidKey, err)
	}
	pub, err := c.kem.Scheme().UnmarshalBinaryPublicKey(raw)
	if err != nil {
		return nil, newError("Encrypt", ErrInvalidKey, err)
	}
	sender, err := c.suite.NewSender(pub, c.hpkeInfo())
	if err != nil {
		return nil, newError("Encrypt", ErrInvalidKey, err)
	}
	enc, sealer, err := sender.Setup(c.provider.Random())
	if err != nil {
		return nil, newError("Encrypt", ErrRandomSource, err)
	}
	ciphertext, err := sealer.Seal(plaintext, nil)
	if err != nil {
		return nil, newError("Encrypt", ErrUnsupportedAlgorithm, err)
	}
	out := make([]byte, 0, len(enc)+len(ciphertext))
	out = append(out, enc...)
	return append(out, ciphertext...), nil
}

func (c *AsymCryptor) decryptHPKE(data []byte) ([]byte, error) {
	encLen := c.kem.Scheme().CiphertextSize()
	if len(data) < encLen {
		return nil, newErrorf("Decrypt", ErrMalformedMessage, "message is %d bytes, too short for HPKE", len(data))
	}
	raw, err := rawPrivateKey(c.keys.OurPrivate)
	if err != nil {
		return nil, newError("Decrypt", ErrInvalidKey, err)
	}
	defer ZeroBytes(raw)
	priv, err := c.kem.Scheme().UnmarshalBinaryPrivateKey(raw)
	if err != nil {
		return nil, newError("Decrypt", ErrInvalidKey, err)
	}
	receiver, err := c.suite.NewReceiver(priv, c.hpkeInfo())
	if err != nil {
		return nil, newError("Decrypt", ErrInvalidKey, err)
	}
	opener, err := receiver.Setup(data[:encLen])
	if err != nil {
		return nil, newError("Decrypt", ErrMalformedMessage, err)
	}
	plaintext, err := opener.Open(data[encLen:], nil)
	if err != nil {
		NewLogger("Decrypt").WithParams(c.params).Warn("HPKE authentication failed")
		return nil, newError("Decrypt", ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}
