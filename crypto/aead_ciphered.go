package crypto

import (
	"bytes"
	"encoding/binary"

	"github.com/opd-ai/cryptocore/limits"
)

// aeadHeaderLen is the length of the two big-endian length fields.
const aeadHeaderLen = 2 * limits.LengthFieldSize

// AEADCiphered is an authenticated message on the wire:
//
//	IV(ivLen) || aatextLen(4, BE) || ciphertextLen(4, BE) || aatext || ciphertext
//
// The ciphertext ends with the authentication tag. aatext travels in the
// clear and is authenticated, not encrypted.
type AEADCiphered struct {
	saltLen    int
	iv         []byte
	aatext     []byte
	ciphertext []byte
}

// NewAEADCiphered builds a message from its parts. The parts are copied.
func NewAEADCiphered(params *CryptoParams, iv, aatext, ciphertext []byte) (*AEADCiphered, error) {
	if len(iv) != params.IVLen() {
		return nil, newErrorf("NewAEADCiphered", ErrInvalidIVLength, "iv is %d bytes, want %d", len(iv), params.IVLen())
	}
	if err := checkAEADPayload("NewAEADCiphered", len(aatext), len(ciphertext)); err != nil {
		return nil, err
	}
	return &AEADCiphered{
		saltLen:    params.SaltLen(),
		iv:         bytes.Clone(iv),
		aatext:     append([]byte{}, aatext...),
		ciphertext: append([]byte{}, ciphertext...),
	}, nil
}

func checkAEADPayload(op string, aatextLen, ciphertextLen int) error {
	a, err := safeIntToUint32(aatextLen)
	if err != nil {
		return newError(op, ErrMessageTooLarge, err)
	}
	c, err := safeIntToUint32(ciphertextLen)
	if err != nil {
		return newError(op, ErrMessageTooLarge, err)
	}
	if err := limits.ValidateAEADLengths(a, c); err != nil {
		return newError(op, ErrMessageTooLarge, err)
	}
	return nil
}

// ParseAEADCiphered decodes a message. Declared lengths are checked against
// limits.MaxAEADPayload and against the buffer before anything is allocated;
// trailing bytes are rejected. The result does not alias data.
func ParseAEADCiphered(data []byte, params *CryptoParams) (*AEADCiphered, error) {
	ivLen := params.IVLen()
	if len(data) < ivLen+aeadHeaderLen {
		return nil, newErrorf("ParseAEADCiphered", ErrMalformedMessage, "message is %d bytes, header needs %d", len(data), ivLen+aeadHeaderLen)
	}
	aatextLen := binary.BigEndian.Uint32(data[ivLen:])
	ciphertextLen := binary.BigEndian.Uint32(data[ivLen+limits.LengthFieldSize:])
	if err := limits.ValidateAEADLengths(aatextLen, ciphertextLen); err != nil {
		NewLogger("ParseAEADCiphered").
			WithField("aatext_len", aatextLen).
			WithField("ciphertext_len", ciphertextLen).
			Warn("Rejected oversized AEAD declaration")
		return nil, newError("ParseAEADCiphered", ErrMessageTooLarge, err)
	}
	body := data[ivLen+aeadHeaderLen:]
	// Both lengths are at most MaxAEADPayload here, so int conversion is exact.
	a, c := int(aatextLen), int(ciphertextLen)
	if a+c != len(body) {
		return nil, newErrorf("ParseAEADCiphered", ErrMalformedMessage, "declared %d bytes, %d present", a+c, len(body))
	}
	return &AEADCiphered{
		saltLen:    params.SaltLen(),
		iv:         bytes.Clone(data[:ivLen]),
		aatext:     append([]byte{}, body[:a]...),
		ciphertext: append([]byte{}, body[a:]...),
	}, nil
}

// Bytes encodes the message; it is the exact inverse of ParseAEADCiphered.
func (m *AEADCiphered) Bytes() []byte {
	out := make([]byte, 0, len(m.iv)+aeadHeaderLen+len(m.aatext)+len(m.ciphertext))
	out = append(out, m.iv...)
	// Section lengths were bounded by MaxAEADPayload on construction.
	out = binary.BigEndian.AppendUint32(out, uint32(len(m.aatext)))
	out = binary.BigEndian.AppendUint32(out, uint32(len(m.ciphertext)))
	out = append(out, m.aatext...)
	return append(out, m.ciphertext...)
}

// IV returns a copy of the full IV.
func (m *AEADCiphered) IV() []byte { return bytes.Clone(m.iv) }

// ExplicitNonce returns a copy of the per-message half of the IV.
func (m *AEADCiphered) ExplicitNonce() []byte { return bytes.Clone(m.iv[m.saltLen:]) }

// AAText returns a copy of the associated data. It is untrusted until the
// message has been decrypted successfully.
func (m *AEADCiphered) AAText() []byte { return bytes.Clone(m.aatext) }

// Ciphertext returns a copy of the ciphertext including the tag.
func (m *AEADCiphered) Ciphertext() []byte { return bytes.Clone(m.ciphertext) }

// SetIV overwrites the whole IV.
func (m *AEADCiphered) SetIV(iv []byte) error {
	if len(iv) != len(m.iv) {
		return newErrorf("SetIV", ErrInvalidIVLength, "iv is %d bytes, want %d", len(iv), len(m.iv))
	}
	copy(m.iv, iv)
	return nil
}

// SetExplicitNonce overwrites the per-message half of the IV.
func (m *AEADCiphered) SetExplicitNonce(nonce []byte) error {
	if len(nonce) != len(m.iv)-m.saltLen {
		return newErrorf("SetExplicitNonce", ErrInvalidIVLength, "nonce is %d bytes, want %d", len(nonce), len(m.iv)-m.saltLen)
	}
	copy(m.iv[m.saltLen:], nonce)
	return nil
}

// Equal reports whether two messages carry the same IV, aatext and ciphertext.
func (m *AEADCiphered) Equal(other *AEADCiphered) bool {
	if m == nil || other == nil {
		return m == other
	}
	return bytes.Equal(m.iv, other.iv) &&
		bytes.Equal(m.aatext, other.aatext) &&
		bytes.Equal(m.ciphertext, other.ciphertext)
}

// AEADPlain is the result of decrypting an AEADCiphered. When Authenticated
// is false AAText is what the message claimed and must not be trusted.
type AEADPlain struct {
	Plaintext     []byte
	AAText        []byte
	Authenticated bool
}

// Ciphered is a nonce-prefixed ciphertext without associated data:
//
//	IV(ivLen) || ciphertext
type Ciphered struct {
	iv         []byte
	ciphertext []byte
}

// NewCiphered builds a message from its parts. The parts are copied.
func NewCiphered(params *CryptoParams, iv, ciphertext []byte) (*Ciphered, error) {
	if len(iv) != params.IVLen() {
		return nil, newErrorf("NewCiphered", ErrInvalidIVLength, "iv is %d bytes, want %d", len(iv), params.IVLen())
	}
	return &Ciphered{iv: bytes.Clone(iv), ciphertext: append([]byte{}, ciphertext...)}, nil
}

// ParseCiphered splits data into IV and ciphertext. The result does not alias data.
func ParseCiphered(data []byte, params *CryptoParams) (*Ciphered, error) {
	ivLen := params.IVLen()
	if len(data) < ivLen {
		return nil, newErrorf("ParseCiphered", ErrMalformedMessage, "message is %d bytes, iv needs %d", len(data), ivLen)
	}
	if err := limits.ValidateProcessingBuffer(data); err != nil {
		return nil, newError("ParseCiphered", ErrMessageTooLarge, err)
	}
	return &Ciphered{
		iv:         bytes.Clone(data[:ivLen]),
		ciphertext: append([]byte{}, data[ivLen:]...),
	}, nil
}

// Bytes encodes the message as IV || ciphertext.
func (m *Ciphered) Bytes() []byte {
	out := make([]byte, 0, len(m.iv)+len(m.ciphertext))
	out = append(out, m.iv...)
	return append(out, m.ciphertext...)
}

// IV returns a copy of the IV.
func (m *Ciphered) IV() []byte { return bytes.Clone(m.iv) }

// Ciphertext returns a copy of the ciphertext including the tag.
func (m *Ciphered) Ciphertext() []byte { return bytes.Clone(m.ciphertext) }
