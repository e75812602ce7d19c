// Package limits provides centralized size limits for the cryptocore wire formats.
// This ensures consistent validation across the message formats, the cryptors and
// the ECDHE handshake.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxAEADPayload is the largest aatext + ciphertext an AEAD message may declare (64 KiB).
	// Decoders reject larger declarations before allocating anything.
	MaxAEADPayload = 65536

	// LengthFieldSize is the size of every big-endian length prefix on the wire.
	LengthFieldSize = 4

	// RSAPKCS1Overhead is the PKCS#1 v1.5 encryption padding overhead in bytes.
	RSAPKCS1Overhead = 11

	// MaxHandshakeKeyLen bounds the declared ephemeral key length in an ECDHE payload.
	// An uncompressed secp521r1 point is 133 bytes.
	MaxHandshakeKeyLen = 1024

	// MaxHandshakePayload bounds a complete ECDHE payload (key + signature).
	MaxHandshakePayload = 8192

	// MaxPassphraseLen bounds a passphrase fed to the key derivation functions.
	MaxPassphraseLen = 4096

	// MaxProcessingBuffer is the absolute maximum for any plaintext handed to a cryptor.
	// This prevents memory exhaustion (1MB limit).
	MaxProcessingBuffer = 1024 * 1024
)

var (
	// ErrMessageEmpty indicates an input that must not be empty was empty.
	ErrMessageEmpty = errors.New("empty message")

	// ErrMessageTooLarge indicates a declared or actual size above its limit.
	ErrMessageTooLarge = errors.New("message too large")
)

// ValidatePassphrase checks that a passphrase is present and no longer than
// MaxPassphraseLen.
func ValidatePassphrase(passphrase []byte) error {
	if len(passphrase) == 0 {
		return fmt.Errorf("%w: passphrase", ErrMessageEmpty)
	}
	if len(passphrase) > MaxPassphraseLen {
		return fmt.Errorf("%w: passphrase of %d bytes exceeds limit %d", ErrMessageTooLarge, len(passphrase), MaxPassphraseLen)
	}
	return nil
}

// ValidateHandshakePayload checks the overall size of an ECDHE payload
// before its length field is read.
func ValidateHandshakePayload(payload []byte) error {
	if len(payload) < LengthFieldSize {
		return fmt.Errorf("%w: handshake payload of %d bytes has no length field", ErrMessageEmpty, len(payload))
	}
	if len(payload) > MaxHandshakePayload {
		return fmt.Errorf("%w: handshake payload %d exceeds limit %d", ErrMessageTooLarge, len(payload), MaxHandshakePayload)
	}
	return nil
}

// ValidateAEADLengths checks a pair of declared AEAD section lengths against
// MaxAEADPayload. The sum is computed in 64 bits so it cannot wrap.
func ValidateAEADLengths(aatextLen, ciphertextLen uint32) error {
	total := uint64(aatextLen) + uint64(ciphertextLen)
	if total > MaxAEADPayload {
		return fmt.Errorf("%w: declared payload %d exceeds limit %d", ErrMessageTooLarge, total, MaxAEADPayload)
	}
	return nil
}

// MaxRSAPlaintext returns the largest plaintext a single PKCS#1 v1.5 block can carry
// for a modulus of keyBytes bytes.
func MaxRSAPlaintext(keyBytes int) int {
	if keyBytes <= RSAPKCS1Overhead {
		return 0
	}
	return keyBytes - RSAPKCS1Overhead
}

// ValidateRSAPlaintext validates a plaintext against MaxRSAPlaintext.
// Empty plaintexts are allowed; RSA padding makes them a valid block.
func ValidateRSAPlaintext(message []byte, keyBytes int) error {
	max := MaxRSAPlaintext(keyBytes)
	if len(message) > max {
		return fmt.Errorf("%w: plaintext size %d exceeds RSA block limit %d", ErrMessageTooLarge, len(message), max)
	}
	return nil
}

// ValidateHandshakeKeyLen validates the declared key length of an ECDHE payload.
func ValidateHandshakeKeyLen(declared uint32, remaining int) error {
	if declared == 0 {
		return ErrMessageEmpty
	}
	if declared > MaxHandshakeKeyLen {
		return fmt.Errorf("%w: handshake key length %d exceeds limit %d", ErrMessageTooLarge, declared, MaxHandshakeKeyLen)
	}
	if uint64(declared) > uint64(remaining) {
		return fmt.Errorf("%w: handshake key length %d exceeds remaining %d bytes", ErrMessageTooLarge, declared, remaining)
	}
	return nil
}

// ValidateProcessingBuffer validates data against the absolute maximum (MaxProcessingBuffer).
// Unlike the other validators an empty buffer is accepted: AEAD ciphers handle it.
func ValidateProcessingBuffer(data []byte) error {
	if len(data) > MaxProcessingBuffer {
		return fmt.Errorf("%w: buffer size %d exceeds limit %d", ErrMessageTooLarge, len(data), MaxProcessingBuffer)
	}
	return nil
}
