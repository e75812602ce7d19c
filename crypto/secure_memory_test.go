package crypto

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func TestSecureWipe(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := SecureWipe(data); err != nil {
		t.Fatalf("SecureWipe failed: %v", err)
	}
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d not wiped: %d", i, b)
		}
	}

	if err := SecureWipe(nil); err == nil {
		t.Error("SecureWipe should reject nil data")
	}

	// ZeroBytes tolerates nil.
	ZeroBytes(nil)
}

func TestWipeKeyPair(t *testing.T) {
	for _, p := range ecParams {
		t.Run(p.Name(), func(t *testing.T) {
			kp := generateKeyPair(t, NewFactory(p))
			priv := kp.Private

			if err := WipeKeyPair(kp); err != nil {
				t.Fatalf("WipeKeyPair failed: %v", err)
			}
			if kp.Private != nil {
				t.Error("WipeKeyPair should drop the private key reference")
			}
			if kp.Public == nil {
				t.Error("WipeKeyPair should keep the public key")
			}

			switch k := priv.(type) {
			case *ecdsa.PrivateKey:
				if k.D.Sign() != 0 {
					t.Error("ECDSA scalar not wiped")
				}
			case *secp256k1.PrivateKey:
				if !k.Key.IsZero() {
					t.Error("secp256k1 scalar not wiped")
				}
			default:
				t.Fatalf("unexpected key type %T", priv)
			}
		})
	}
}

func TestWipePrivateKeyRSA(t *testing.T) {
	priv, err := rsa.GenerateKey(DefaultProvider().Random(), 1024)
	if err != nil {
		t.Fatalf("Failed to generate RSA key: %v", err)
	}
	if err := WipePrivateKey(priv); err != nil {
		t.Fatalf("WipePrivateKey failed: %v", err)
	}
	if priv.D.Sign() != 0 {
		t.Error("private exponent not wiped")
	}
	for i, p := range priv.Primes {
		if p.Sign() != 0 {
			t.Errorf("prime %d not wiped", i)
		}
	}
}

func TestWipeRejects(t *testing.T) {
	if err := WipeKeyPair(nil); err == nil {
		t.Error("WipeKeyPair should reject nil")
	}
	if err := WipePrivateKey(nil); err == nil {
		t.Error("WipePrivateKey should reject nil")
	}
	if err := WipePrivateKey("not a key"); err == nil {
		t.Error("WipePrivateKey should reject unknown types")
	}
	if err := WipeKeyPair(&KeyPair{}); err != nil {
		t.Errorf("WipeKeyPair of a public-only pair should succeed: %v", err)
	}
	for _, err := range []error{SecureWipe(nil), WipeKeyPair(nil), WipePrivateKey(42)} {
		if !errors.Is(err, ErrCryptoNotValid) || !errors.Is(err, ErrInvalidKey) {
			t.Errorf("wipe error %v should match ErrCryptoNotValid and ErrInvalidKey", err)
		}
	}
}

func TestAsymKeysHolderDestroy(t *testing.T) {
	kp := generateKeyPair(t, NewFactory(Prime256v1Params))
	peer := generateKeyPair(t, NewFactory(Prime256v1Params))
	h := NewAsymKeysHolder(kp, peer.Public)

	h.Destroy()
	if h.OurPrivate != nil || h.OurPublic != nil || h.TheirPublic != nil {
		t.Error("Destroy should drop every reference")
	}
	if kp.Private.(*ecdsa.PrivateKey).D.Sign() != 0 {
		t.Error("Destroy should wipe the private scalar")
	}

	var nilHolder *AsymKeysHolder
	nilHolder.Destroy()
}
