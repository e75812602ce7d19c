package factory

import (
	stdcrypto "crypto"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/opd-ai/cryptocore/crypto"
	"github.com/sirupsen/logrus"
)

// rsaPresets lists the RSA systems in ascending modulus order.
var rsaPresets = []struct {
	bits   int
	system string
}{
	{2048, crypto.ConfigRSA2048},
	{4096, crypto.ConfigRSA4096},
	{8192, crypto.ConfigRSA8192},
	{16384, crypto.ConfigRSA16384},
}

// SystemForPublicKey names the predefined crypto system matching pub.
func SystemForPublicKey(pub stdcrypto.PublicKey) (string, error) {
	switch k := pub.(type) {
	case *ecdsa.PublicKey:
		if k == nil {
			break
		}
		switch k.Curve {
		case elliptic.P521():
			return crypto.ConfigSecp521r1, nil
		case elliptic.P256():
			return crypto.ConfigPrime256v1, nil
		}
		return "", unsupportedKey(fmt.Errorf("no crypto system for curve %s", k.Curve.Params().Name))
	case *ecdh.PublicKey:
		if k == nil {
			break
		}
		switch k.Curve() {
		case ecdh.P521():
			return crypto.ConfigSecp521r1, nil
		case ecdh.P256():
			return crypto.ConfigPrime256v1, nil
		}
		return "", unsupportedKey(fmt.Errorf("no crypto system for curve %v", k.Curve()))
	case *secp256k1.PublicKey:
		if k != nil {
			return crypto.ConfigSecp256k1, nil
		}
	case *rsa.PublicKey:
		if k == nil || k.N == nil {
			break
		}
		bits := k.N.BitLen()
		for _, preset := range rsaPresets {
			if preset.bits >= bits {
				return preset.system, nil
			}
		}
		return "", unsupportedKey(fmt.Errorf("RSA key of %d bits exceeds the largest preset", bits))
	}
	return "", unsupportedKey(fmt.Errorf("unsupported public key type %T", pub))
}

func unsupportedKey(err error) error {
	return &crypto.CryptoError{Op: "ForPublicKey", Kind: crypto.ErrUnsupportedAlgorithm, Err: err}
}

// ForPublicKey returns a factory for the crypto system pub belongs to, with
// the helper's settings applied.
func (h *CryptoFactoryHelper) ForPublicKey(pub stdcrypto.PublicKey) (*crypto.CryptoFactory, error) {
	system, err := SystemForPublicKey(pub)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "ForPublicKey",
			"key_type": fmt.Sprintf("%T", pub),
			"error":    err.Error(),
		}).Warn("No crypto system matches public key")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function":      "ForPublicKey",
		"crypto_system": system,
	}).Info("Selected crypto system from public key")
	return h.ForSystem(system)
}

// ForCertificate returns a factory for the crypto system of the
// certificate's subject public key.
func (h *CryptoFactoryHelper) ForCertificate(cert *x509.Certificate) (*crypto.CryptoFactory, error) {
	if cert == nil {
		return nil, &crypto.CryptoError{Op: "ForCertificate", Kind: crypto.ErrInvalidKey, Err: errors.New("nil certificate")}
	}
	return h.ForPublicKey(cert.PublicKey)
}

var (
	defaultHelperOnce sync.Once
	defaultHelper     *CryptoFactoryHelper
)

// DefaultHelper returns the process-wide helper, created from the
// environment on first use.
func DefaultHelper() *CryptoFactoryHelper {
	defaultHelperOnce.Do(func() {
		defaultHelper = NewCryptoFactoryHelper()
	})
	return defaultHelper
}

// ForPublicKey builds a factory matching pub with the process default settings.
func ForPublicKey(pub stdcrypto.PublicKey) (*crypto.CryptoFactory, error) {
	return DefaultHelper().ForPublicKey(pub)
}

// ForCertificate builds a factory matching cert with the process default settings.
func ForCertificate(cert *x509.Certificate) (*crypto.CryptoFactory, error) {
	return DefaultHelper().ForCertificate(cert)
}
