// Package interfaces defines the contracts the cryptocore library exposes to
// collaborating subsystems such as certificate handling and wallets.
//
// The crypto package returns concrete types from its factory. Code that only
// needs a capability should accept one of these interfaces instead, so that
// the cryptor variant can be chosen by configuration:
//
//	func seal(c interfaces.Cryptor, record []byte) ([]byte, error) {
//	    msg, err := c.EncryptWithAEAData(record, header)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return msg.Bytes(), nil
//	}
//
// # Core Interfaces
//
// [Cryptor] is the capability shared by every cryptor variant: plain and
// associated-data encryption. Integrated encryption implements the
// associated-data methods by failing with crypto.ErrNotSupported.
//
// [SymmetricCryptor], [KeyedCryptor] and [KeyAgreement] add the key
// handling of the symmetric, static-key and DH-session variants.
//
// [CryptoSignature], [KeyGenerator] and [Digester] cover signing, key
// generation and hashing.
//
// # Thread Safety
//
// Implementations hold mutable key and IV state and are not safe for
// concurrent use. Take one instance per goroutine from the factory.
package interfaces
