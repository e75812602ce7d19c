package crypto

import (
	"errors"
	"fmt"

	"github.com/opd-ai/cryptocore/limits"
)

// ErrCryptoNotValid is the single error kind reported by this package.
// Every error returned by an encrypt, decrypt, sign or derive operation
// matches it with errors.Is; the reason sentinels below narrow it down.
var ErrCryptoNotValid = errors.New("crypto not valid")

var (
	// ErrUnsupportedAlgorithm indicates the provider does not offer a named algorithm.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrInvalidKeyLength indicates a symmetric key of the wrong size.
	ErrInvalidKeyLength = errors.New("invalid key length")

	// ErrInvalidKey indicates a missing or mistyped asymmetric key.
	ErrInvalidKey = errors.New("invalid key")

	// ErrNoKey indicates an operation that needs a key ran before one was set.
	ErrNoKey = errors.New("key not set")

	// ErrNonceReuse indicates an attempt to reuse a nonce under the same key and salt.
	ErrNonceReuse = errors.New("nonce reuse")

	// ErrInvalidIVLength indicates a salt, nonce or IV of the wrong size.
	ErrInvalidIVLength = errors.New("invalid iv length")

	// ErrAuthenticationFailed indicates an AEAD tag mismatch or a failed IES decryption.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrMalformedMessage indicates wire input that does not follow its format.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrMessageTooLarge indicates a declared or actual size above the format limit.
	ErrMessageTooLarge = limits.ErrMessageTooLarge

	// ErrPlaintextTooLarge indicates a plaintext that does not fit one RSA block.
	ErrPlaintextTooLarge = errors.New("plaintext exceeds maximum size")

	// ErrNotSupported indicates an operation the active scheme cannot perform.
	ErrNotSupported = errors.New("operation not supported")

	// ErrHandshakeState indicates an ECDHE step called out of order.
	ErrHandshakeState = errors.New("handshake out of order")

	// ErrSignatureInvalid indicates a signature that failed verification.
	ErrSignatureInvalid = errors.New("signature invalid")

	// ErrRandomSource indicates the entropy source failed.
	ErrRandomSource = errors.New("random source failure")
)

// CryptoError carries the failing operation, the reason sentinel and the
// underlying provider error, if any.
type CryptoError struct {
	Op   string
	Kind error
	Err  error
}

func (e *CryptoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("crypto: %s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("crypto: %s: %v", e.Op, e.Kind)
}

// Unwrap exposes both the reason and the cause to errors.Is and errors.As.
func (e *CryptoError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Is reports true for ErrCryptoNotValid.
func (e *CryptoError) Is(target error) bool {
	return target == ErrCryptoNotValid
}

func newError(op string, kind, cause error) error {
	return &CryptoError{Op: op, Kind: kind, Err: cause}
}

func newErrorf(op string, kind error, format string, args ...interface{}) error {
	return &CryptoError{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}
