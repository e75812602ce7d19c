// Package crypto is a cryptographic façade: parameter selection, key
// agreement and the wire formats for authenticated encryption.
//
// Everything starts from a [CryptoParams], an immutable bundle naming the
// algorithms and lengths of one crypto system. Predefined systems are looked
// up by name with [ConfigByName]; secp521r1 is the default. A
// [CryptoFactory] turns a CryptoParams into components that all agree on
// those choices:
//
//   - [SymCryptor]: AES-GCM (or ChaCha20-Poly1305) under a pre-shared key
//   - [AsymCryptor]: one-shot integrated encryption (ECIES, HPKE or RSA)
//   - [AsymCryptorDH]: static ECDH or signed ECDHE, then symmetric encryption
//   - [Signer]: ECDSA or RSA signatures in DER or fixed-width R || S form
//   - [KeyGenerator]: key pairs, symmetric keys and IV material
//   - [Digester]: the parameter set's digest
//
// # Provider
//
// Algorithm names are resolved by a [Provider], which also owns the entropy
// source. [InitProvider] performs the one-time process-wide setup and
// [DefaultProvider] returns it. Tests build their own handle with
// [NewProvider] and pass it with [WithProvider]:
//
//	provider := crypto.NewProvider(crypto.WithoutAlgorithms(crypto.DigestSHA3_256))
//	factory := crypto.NewFactory(crypto.Secp521r1Params, crypto.WithProvider(provider))
//	if _, err := factory.AsymCryptorDH(); errors.Is(err, crypto.ErrUnsupportedAlgorithm) {
//	    // the provider lacks the key agreement digest
//	}
//
// # Static ECDH
//
//	factory := crypto.NewDefaultFactory()
//	gen, _ := factory.KeyGenerator()
//	alice, _ := gen.GenerateKeyPair()
//
//	dh, _ := factory.AsymCryptorDH()
//	dh.SetKeys(crypto.NewAsymKeysHolder(alice, bobPublic))
//	if _, err := dh.CalculateSharedKey(); err != nil {
//	    return err
//	}
//	ciphertext, err := dh.Encrypt([]byte("Hello, Bob!"))
//
// # Signed ECDHE
//
// Both sides call ECDHEStep1, exchange the payloads, and call ECDHEStep2 with
// the payload of the other side. The payload is
//
//	keyLen(4, BE) || ephemeralPublic || DER signature
//
// and step 2 refuses to agree on a key unless the signature verifies against
// the peer's long-term public key.
//
// # Wire formats
//
//	AEADCiphered       IV(12) || aatextLen(4, BE) || ciphertextLen(4, BE) || aatext || ciphertext
//	Ciphered           IV(12) || ciphertext
//	SymCryptor.Encrypt nonce(8) || ciphertext
//
// The IV is a 4-byte salt fixed per key followed by an 8-byte explicit nonce
// that must never repeat under the same key and salt. aatextLen +
// ciphertextLen may not exceed 65536; decoders reject larger declarations
// before allocating.
//
// # Errors
//
// Every error from an encrypt, decrypt, sign or derive operation matches
// [ErrCryptoNotValid] with errors.Is, and also matches a reason such as
// [ErrAuthenticationFailed] or [ErrNonceReuse]. Verify and VerifyPlain
// return false instead of an error.
//
// # Thread Safety
//
// CryptoParams, CryptoFactory and Provider are immutable and safe to share.
// Cryptors, signers and digesters hold mutable key and IV state; take one
// per goroutine from the factory.
package crypto
