package crypto

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/subtle"
	"errors"
	"math/big"
	"runtime"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// SecureWipe attempts to securely erase the contents of a byte slice
// containing sensitive data. It returns an error if the byte slice is nil.
func SecureWipe(data []byte) error {
	if data == nil {
		return newError("SecureWipe", ErrInvalidKey, errors.New("cannot wipe nil data"))
	}

	// Overwrite the data with zeros
	// Using subtle.ConstantTimeCompare's byteXor operation to avoid
	// potential compiler optimizations that might remove the overwrite
	zeros := make([]byte, len(data))
	subtle.ConstantTimeCompare(data, zeros)
	copy(data, zeros)

	runtime.KeepAlive(data)
	runtime.KeepAlive(zeros)

	return nil
}

// ZeroBytes erases the contents of a byte slice containing sensitive data.
// This is a convenience function that ignores the error from SecureWipe.
func ZeroBytes(data []byte) {
	if data == nil {
		return
	}
	_ = SecureWipe(data)
}

// wipeInt zeroes the words backing a big.Int in place.
func wipeInt(n *big.Int) {
	if n == nil {
		return
	}
	words := n.Bits()
	for i := range words {
		words[i] = 0
	}
	runtime.KeepAlive(words)
	n.SetInt64(0)
}

// WipePrivateKey erases the secret scalar or exponent of a private key.
// The key is unusable afterwards.
func WipePrivateKey(priv interface{}) error {
	switch k := priv.(type) {
	case nil:
		return newError("WipePrivateKey", ErrInvalidKey, errors.New("cannot wipe nil private key"))
	case *ecdsa.PrivateKey:
		wipeInt(k.D)
	case *secp256k1.PrivateKey:
		k.Zero()
	case *rsa.PrivateKey:
		wipeInt(k.D)
		for _, p := range k.Primes {
			wipeInt(p)
		}
		wipeInt(k.Precomputed.Dp)
		wipeInt(k.Precomputed.Dq)
		wipeInt(k.Precomputed.Qinv)
	default:
		return newErrorf("WipePrivateKey", ErrInvalidKey, "cannot wipe private key of type %T", priv)
	}
	return nil
}

// WipeKeyPair securely erases the private key in a KeyPair.
// This should be called when a KeyPair is no longer needed.
func WipeKeyPair(kp *KeyPair) error {
	if kp == nil {
		return newError("WipeKeyPair", ErrInvalidKey, errors.New("cannot wipe nil KeyPair"))
	}
	if kp.Private == nil {
		return nil
	}
	err := WipePrivateKey(kp.Private)
	kp.Private = nil
	return err
}
