package crypto

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// KeyPair groups an asymmetric public key with its private key.
//
// Public holds *ecdsa.PublicKey, *secp256k1.PublicKey or *rsa.PublicKey;
// Private the matching private key type.
type KeyPair struct {
	Public  crypto.PublicKey
	Private crypto.PrivateKey
}

// AsymKeysHolder groups the keys of one relationship: our key pair and the
// peer's public key. Cryptors and signers copy the references, never the key
// material, and hold at most one holder's content at a time.
type AsymKeysHolder struct {
	OurPublic   crypto.PublicKey
	OurPrivate  crypto.PrivateKey
	TheirPublic crypto.PublicKey
}

// NewAsymKeysHolder builds a holder from our key pair and the peer's public key.
// Either argument may be nil when the relationship only needs one side.
func NewAsymKeysHolder(ours *KeyPair, theirPublic crypto.PublicKey) *AsymKeysHolder {
	h := &AsymKeysHolder{TheirPublic: theirPublic}
	if ours != nil {
		h.OurPublic = ours.Public
		h.OurPrivate = ours.Private
	}
	return h
}

// Destroy wipes our private key and drops every reference.
func (h *AsymKeysHolder) Destroy() {
	if h == nil {
		return
	}
	if h.OurPrivate != nil {
		_ = WipePrivateKey(h.OurPrivate)
	}
	h.OurPrivate = nil
	h.OurPublic = nil
	h.TheirPublic = nil
}

// publicKeyOf returns the public half of a supported private key.
func publicKeyOf(priv crypto.PrivateKey) crypto.PublicKey {
	switch k := priv.(type) {
	case *ecdsa.PrivateKey:
		return &k.PublicKey
	case *secp256k1.PrivateKey:
		return k.PubKey()
	case *rsa.PrivateKey:
		return &k.PublicKey
	}
	return nil
}

// warnForeignKey logs when pub belongs to a curve other than want. The
// mismatch surfaces as an error or a failed verification on first use.
func warnForeignKey(op string, params *CryptoParams, want curve, pub crypto.PublicKey) {
	if want == nil || pub == nil {
		return
	}
	if got, ok := curveOf(pub); ok && got != want {
		NewLogger(op).
			WithParams(params).
			WithField("key_curve", got.name()).
			Warn("Public key belongs to a different curve")
	}
}
