// Package factory selects crypto systems for callers that do not want to
// name one themselves.
//
// A CryptoFactoryHelper holds the process default settings and builds
// crypto.CryptoFactory values from them. It can also pick the system that
// matches an existing public key or X.509 certificate, so that a peer's key
// can be used without knowing which preset produced it.
//
// # Configuration
//
// The default settings can be overridden via environment variables:
//   - CRYPTOCORE_SYSTEM: name of a predefined crypto system (e.g. "prime256v1")
//   - CRYPTOCORE_PBKDF2_ITERATIONS: integer PBKDF2 iteration count
//   - CRYPTOCORE_SYM_CIPHER: "AES/GCM/NoPadding" or "ChaCha20-Poly1305"
//
// Invalid or out-of-range values are logged and ignored.
//
// # Usage
//
//	helper := factory.NewCryptoFactoryHelper()
//	f, err := helper.Default()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Or match a peer's certificate
//	peerFactory, err := factory.ForCertificate(cert)
//
// Key-driven selection maps P-521 to secp521r1, P-256 to prime256v1 and
// secp256k1 to secp256k1. RSA keys select the smallest RSA preset whose
// modulus is at least the key size. Any other key fails with
// crypto.ErrUnsupportedAlgorithm.
package factory
