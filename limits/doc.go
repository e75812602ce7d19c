// Package limits provides centralized size constants and validation functions
// for the cryptocore wire formats.
//
// # Size Limits
//
//   - MaxAEADPayload (65536 bytes): the largest aatext + ciphertext an AEADCiphered
//     message may declare. Decoders check the declared lengths against this bound
//     before allocating, so an attacker-chosen length field cannot force a large
//     allocation.
//
//   - RSAPKCS1Overhead (11 bytes): PKCS#1 v1.5 padding overhead. A single RSA block
//     carries at most keyBytes - 11 bytes of plaintext.
//
//   - MaxHandshakeKeyLen / MaxHandshakePayload: bounds for the ECDHE step payload.
//
//   - MaxPassphraseLen (4096 bytes): the longest passphrase accepted for key
//     derivation.
//
//   - MaxProcessingBuffer (1MB): the absolute maximum for any plaintext handed to
//     a cryptor.
//
// # Validation Functions
//
//	if err := limits.ValidateAEADLengths(aatextLen, ciphertextLen); err != nil {
//	    // reject the message, nothing was allocated yet
//	}
//
// # Error Types
//
//   - ErrMessageEmpty: Returned when a passphrase, handshake payload or key length is empty
//   - ErrMessageTooLarge: Returned when a size exceeds the specified limit
package limits
