package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// maxScalarAttempts bounds rejection sampling when turning a byte stream into
// a private scalar. Each attempt succeeds with probability above 1/2.
const maxScalarAttempts = 64

// curve is the provider-side view of one elliptic curve: key generation,
// point encoding, ECDH and ECDSA, all on interface-typed keys.
type curve interface {
	name() string
	// scalarSize is the byte length of the group order, which is also the
	// width of each half of a plain R||S signature.
	scalarSize() int
	publicKeySize() int
	owns(pub crypto.PublicKey) bool
	generateKey(rand io.Reader) (*KeyPair, error)
	// keyFromStream derives a key pair from an arbitrary byte stream; the
	// same stream contents always give the same key.
	keyFromStream(r io.Reader) (*KeyPair, error)
	encodePublicKey(pub crypto.PublicKey) ([]byte, error)
	decodePublicKey(data []byte) (crypto.PublicKey, error)
	ecdh(priv crypto.PrivateKey, pub crypto.PublicKey) ([]byte, error)
	signASN1(rand io.Reader, priv crypto.PrivateKey, digest []byte) ([]byte, error)
	verifyASN1(pub crypto.PublicKey, digest, sig []byte) bool
}

// scalarFromStream reads candidate scalars from r until one lies in [1, n-1].
// The top byte is masked to the bit length of n so that acceptance stays likely.
func scalarFromStream(r io.Reader, n *big.Int) ([]byte, error) {
	size := (n.BitLen() + 7) / 8
	excess := uint(size*8 - n.BitLen())
	buf := make([]byte, size)
	d := new(big.Int)
	for i := 0; i < maxScalarAttempts; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		buf[0] &= 0xff >> excess
		d.SetBytes(buf)
		if d.Sign() > 0 && d.Cmp(n) < 0 {
			out := make([]byte, size)
			copy(out, buf)
			ZeroBytes(buf)
			wipeInt(d)
			return out, nil
		}
	}
	ZeroBytes(buf)
	return nil, errors.New("no valid scalar after rejection sampling")
}

// nistCurve covers the NIST prime curves through crypto/ecdsa and crypto/ecdh.
type nistCurve struct {
	id    string
	curve elliptic.Curve
}

func (c *nistCurve) name() string { return c.id }

func (c *nistCurve) scalarSize() int { return (c.curve.Params().N.BitLen() + 7) / 8 }

func (c *nistCurve) publicKeySize() int { return 1 + 2*((c.curve.Params().BitSize+7)/8) }

func (c *nistCurve) owns(pub crypto.PublicKey) bool {
	k, ok := pub.(*ecdsa.PublicKey)
	return ok && k.Curve == c.curve
}

func (c *nistCurve) privateKey(priv crypto.PrivateKey) (*ecdsa.PrivateKey, error) {
	k, ok := priv.(*ecdsa.PrivateKey)
	if !ok || k == nil || k.Curve != c.curve {
		return nil, fmt.Errorf("expected %s private key, got %T", c.id, priv)
	}
	return k, nil
}

func (c *nistCurve) publicKey(pub crypto.PublicKey) (*ecdsa.PublicKey, error) {
	k, ok := pub.(*ecdsa.PublicKey)
	if !ok || k == nil || k.Curve != c.curve {
		return nil, fmt.Errorf("expected %s public key, got %T", c.id, pub)
	}
	return k, nil
}

func (c *nistCurve) generateKey(rand io.Reader) (*KeyPair, error) {
	priv, err := ecdsa.GenerateKey(c.curve, rand)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Public: &priv.PublicKey, Private: priv}, nil
}

func (c *nistCurve) keyFromStream(r io.Reader) (*KeyPair, error) {
	d, err := scalarFromStream(r, c.curve.Params().N)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(d)
	priv, err := ecdsa.ParseRawPrivateKey(c.curve, d)
	if err != nil {
		return nil, err
	}
	return &KeyPair{Public: &priv.PublicKey, Private: priv}, nil
}

func (c *nistCurve) encodePublicKey(pub crypto.PublicKey) ([]byte, error) {
	k, err := c.publicKey(pub)
	if err != nil {
		return nil, err
	}
	ek, err := k.ECDH()
	if err != nil {
		return nil, err
	}
	return ek.Bytes(), nil
}

func (c *nistCurve) decodePublicKey(data []byte) (crypto.PublicKey, error) {
	if len(data) != c.publicKeySize() {
		return nil, fmt.Errorf("public key is %d bytes, want %d", len(data), c.publicKeySize())
	}
	return ecdsa.ParseUncompressedPublicKey(c.curve, data)
}

func (c *nistCurve) ecdh(priv crypto.PrivateKey, pub crypto.PublicKey) ([]byte, error) {
	sk, err := c.privateKey(priv)
	if err != nil {
		return nil, err
	}
	pk, err := c.publicKey(pub)
	if err != nil {
		return nil, err
	}
	esk, err := sk.ECDH()
	if err != nil {
		return nil, err
	}
	epk, err := pk.ECDH()
	if err != nil {
		return nil, err
	}
	return esk.ECDH(epk)
}

func (c *nistCurve) signASN1(rand io.Reader, priv crypto.PrivateKey, digest []byte) ([]byte, error) {
	sk, err := c.privateKey(priv)
	if err != nil {
		return nil, err
	}
	return ecdsa.SignASN1(rand, sk, digest)
}

func (c *nistCurve) verifyASN1(pub crypto.PublicKey, digest, sig []byte) bool {
	pk, err := c.publicKey(pub)
	if err != nil {
		return false
	}
	return ecdsa.VerifyASN1(pk, digest, sig)
}

// koblitzCurve is secp256k1, which the standard library does not offer.
type koblitzCurve struct{}

func (koblitzCurve) name() string { return CurveSecp256k1 }

func (koblitzCurve) scalarSize() int { return 32 }

func (koblitzCurve) publicKeySize() int { return secp256k1.PubKeyBytesLenUncompressed }

func (koblitzCurve) owns(pub crypto.PublicKey) bool {
	_, ok := pub.(*secp256k1.PublicKey)
	return ok
}

func (koblitzCurve) privateKey(priv crypto.PrivateKey) (*secp256k1.PrivateKey, error) {
	k, ok := priv.(*secp256k1.PrivateKey)
	if !ok || k == nil {
		return nil, fmt.Errorf("expected secp256k1 private key, got %T", priv)
	}
	return k, nil
}

func (koblitzCurve) publicKey(pub crypto.PublicKey) (*secp256k1.PublicKey, error) {
	k, ok := pub.(*secp256k1.PublicKey)
	if !ok || k == nil {
		return nil, fmt.Errorf("expected secp256k1 public key, got %T", pub)
	}
	return k, nil
}

func (c koblitzCurve) generateKey(rand io.Reader) (*KeyPair, error) {
	return c.keyFromStream(rand)
}

func (koblitzCurve) keyFromStream(r io.Reader) (*KeyPair, error) {
	d, err := scalarFromStream(r, secp256k1.S256().N)
	if err != nil {
		return nil, err
	}
	defer ZeroBytes(d)
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(d); overflow || scalar.IsZero() {
		return nil, errors.New("scalar out of range")
	}
	priv := secp256k1.NewPrivateKey(&scalar)
	scalar.Zero()
	return &KeyPair{Public: priv.PubKey(), Private: priv}, nil
}

func (c koblitzCurve) encodePublicKey(pub crypto.PublicKey) ([]byte, error) {
	k, err := c.publicKey(pub)
	if err != nil {
		return nil, err
	}
	return k.SerializeUncompressed(), nil
}

func (c koblitzCurve) decodePublicKey(data []byte) (crypto.PublicKey, error) {
	if len(data) != c.publicKeySize() || data[0] != secp256k1.PubKeyFormatUncompressed {
		return nil, fmt.Errorf("public key is not an uncompressed secp256k1 point")
	}
	return secp256k1.ParsePubKey(data)
}

func (c koblitzCurve) ecdh(priv crypto.PrivateKey, pub crypto.PublicKey) ([]byte, error) {
	sk, err := c.privateKey(priv)
	if err != nil {
		return nil, err
	}
	pk, err := c.publicKey(pub)
	if err != nil {
		return nil, err
	}
	return secp256k1.GenerateSharedSecret(sk, pk), nil
}

// signASN1 ignores rand: secp256k1 signing uses RFC 6979 nonces.
func (c koblitzCurve) signASN1(_ io.Reader, priv crypto.PrivateKey, digest []byte) ([]byte, error) {
	sk, err := c.privateKey(priv)
	if err != nil {
		return nil, err
	}
	return secpecdsa.Sign(sk, digest).Serialize(), nil
}

func (c koblitzCurve) verifyASN1(pub crypto.PublicKey, digest, sig []byte) bool {
	pk, err := c.publicKey(pub)
	if err != nil {
		return false
	}
	parsed, err := secpecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(digest, pk)
}

// curveOf finds the curve a public key belongs to.
func curveOf(pub crypto.PublicKey) (curve, bool) {
	for _, c := range knownCurves {
		if c.owns(pub) {
			return c, true
		}
	}
	return nil, false
}

// rawPrivateKey returns the fixed-width scalar of a NIST curve private key.
func rawPrivateKey(priv interface{}) ([]byte, error) {
	k, ok := priv.(*ecdsa.PrivateKey)
	if !ok || k == nil {
		return nil, fmt.Errorf("expected NIST curve private key, got %T", priv)
	}
	ek, err := k.ECDH()
	if err != nil {
		return nil, err
	}
	return ek.Bytes(), nil
}
