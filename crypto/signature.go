package crypto

import (
	"crypto"
	"crypto/rsa"
	"errors"
	"hash"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

// Signer signs with our long-term private key and verifies against the
// peer's public key, falling back to our own when no peer key is set.
//
// Sign produces ASN.1 DER. SignPlain produces R || S with each half
// left-padded to the byte length of the curve order: 66 bytes for
// secp521r1, 32 for prime256v1 and secp256k1.
type Signer struct {
	params   *CryptoParams
	provider *Provider
	alg      signatureAlgorithm
	hash     func() hash.Hash
	curve    curve
	keys     AsymKeysHolder
}

func newSigner(params *CryptoParams, provider *Provider) (*Signer, error) {
	alg, h, err := provider.signatureAlgorithm(params.SignatureAlgorithm())
	if err != nil {
		return nil, err
	}
	if alg.scheme != params.Scheme() {
		return nil, newErrorf("Signer", ErrUnsupportedAlgorithm, "%s cannot sign with %s keys", params.SignatureAlgorithm(), params.Scheme())
	}
	s := &Signer{params: params, provider: provider, alg: alg, hash: h}
	if params.Scheme() == SchemeEC {
		if s.curve, err = provider.curve(params.Curve()); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SetKeys installs the keys of one relationship. References are copied,
// key material is not.
func (s *Signer) SetKeys(keys *AsymKeysHolder) {
	if keys == nil {
		s.keys = AsymKeysHolder{}
		return
	}
	s.keys = *keys
	warnForeignKey("SetKeys", s.params, s.curve, s.keys.TheirPublic)
}

// PlainSize returns the length of a SignPlain signature, or 0 for RSA.
func (s *Signer) PlainSize() int {
	if s.curve == nil {
		return 0
	}
	return 2 * s.curve.scalarSize()
}

func (s *Signer) digest(message []byte) []byte {
	h := s.hash()
	h.Write(message)
	return h.Sum(nil)
}

// Sign returns a DER signature over message.
func (s *Signer) Sign(message []byte) ([]byte, error) {
	return s.signWith("Sign", s.keys.OurPrivate, message)
}

func (s *Signer) signWith(op string, priv crypto.PrivateKey, message []byte) ([]byte, error) {
	if priv == nil {
		return nil, newError(op, ErrNoKey, nil)
	}
	digest := s.digest(message)
	if s.curve != nil {
		sig, err := s.curve.signASN1(s.provider.Random(), priv, digest)
		if err != nil {
			return nil, newError(op, ErrInvalidKey, err)
		}
		return sig, nil
	}
	k, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, newErrorf(op, ErrInvalidKey, "expected RSA private key, got %T", priv)
	}
	sig, err := rsa.SignPKCS1v15(s.provider.Random(), k, s.alg.hash, digest)
	if err != nil {
		return nil, newError(op, ErrInvalidKey, err)
	}
	return sig, nil
}

func (s *Signer) verifyKey() crypto.PublicKey {
	if s.keys.TheirPublic != nil {
		return s.keys.TheirPublic
	}
	if s.keys.OurPublic != nil {
		return s.keys.OurPublic
	}
	return publicKeyOf(s.keys.OurPrivate)
}

// Verify reports whether sig is a valid DER signature over message. Any
// malformed input yields false.
func (s *Signer) Verify(message, sig []byte) bool {
	return s.verifyWith(s.verifyKey(), message, sig)
}

func (s *Signer) verifyWith(pub crypto.PublicKey, message, sig []byte) bool {
	if pub == nil || len(sig) == 0 {
		return false
	}
	digest := s.digest(message)
	if s.curve != nil {
		return s.curve.verifyASN1(pub, digest, sig)
	}
	k, ok := pub.(*rsa.PublicKey)
	if !ok {
		return false
	}
	return rsa.VerifyPKCS1v15(k, s.alg.hash, digest, sig) == nil
}

// SignPlain returns a fixed-width R || S signature over message.
func (s *Signer) SignPlain(message []byte) ([]byte, error) {
	if s.curve == nil {
		return nil, newError("SignPlain", ErrNotSupported, errors.New("plain signatures need an EC system"))
	}
	der, err := s.signWith("SignPlain", s.keys.OurPrivate, message)
	if err != nil {
		return nil, err
	}
	plain, err := derToPlain(der, s.curve.scalarSize())
	if err != nil {
		return nil, newError("SignPlain", ErrMalformedMessage, err)
	}
	return plain, nil
}

// VerifyPlain reports whether sig is a valid R || S signature over message.
func (s *Signer) VerifyPlain(message, sig []byte) bool {
	if s.curve == nil || len(sig) != s.PlainSize() {
		return false
	}
	der, err := plainToDER(sig, s.curve.scalarSize())
	if err != nil {
		return false
	}
	return s.Verify(message, der)
}

// Params returns the parameter set the signer was built from.
func (s *Signer) Params() *CryptoParams { return s.params }

// derToPlain converts SEQUENCE { INTEGER r, INTEGER s } to r || s.
func derToPlain(der []byte, width int) ([]byte, error) {
	r, s := new(big.Int), new(big.Int)
	input := cryptobyte.String(der)
	var inner cryptobyte.String
	if !input.ReadASN1(&inner, asn1.SEQUENCE) || !input.Empty() ||
		!inner.ReadASN1Integer(r) || !inner.ReadASN1Integer(s) || !inner.Empty() {
		return nil, errors.New("invalid ASN.1 signature")
	}
	if r.Sign() <= 0 || s.Sign() <= 0 || r.BitLen() > width*8 || s.BitLen() > width*8 {
		return nil, errors.New("signature integer out of range")
	}
	plain := make([]byte, 2*width)
	r.FillBytes(plain[:width])
	s.FillBytes(plain[width:])
	return plain, nil
}

// plainToDER converts r || s back to SEQUENCE { INTEGER r, INTEGER s }.
func plainToDER(plain []byte, width int) ([]byte, error) {
	if len(plain) != 2*width {
		return nil, errors.New("plain signature has wrong length")
	}
	r := new(big.Int).SetBytes(plain[:width])
	s := new(big.Int).SetBytes(plain[width:])
	if r.Sign() == 0 || s.Sign() == 0 {
		return nil, errors.New("signature integer is zero")
	}
	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})
	return b.Bytes()
}
