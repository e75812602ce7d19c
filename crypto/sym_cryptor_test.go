package crypto

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymCryptorSetKey(t *testing.T) {
	c, err := NewDefaultFactory().SymCryptor()
	require.NoError(t, err)

	for _, n := range []int{0, 8, 24, 31, 33, 64} {
		assert.ErrorIs(t, c.SetKey(make([]byte, n)), ErrInvalidKeyLength, "length %d", n)
	}
	assert.NoError(t, c.SetKey(make([]byte, 16)))
	assert.NoError(t, c.SetKey(make([]byte, 32)))
}

func TestSymCryptorRoundTrip(t *testing.T) {
	chacha, err := Secp521r1Params.Builder().SymCipher(CipherChaCha20Poly1305).Build()
	require.NoError(t, err)

	tests := []struct {
		name   string
		params *CryptoParams
		keyLen int
	}{
		{"AES-128-GCM", Prime256v1Params, 16},
		{"AES-256-GCM", Secp521r1Params, 32},
		{"ChaCha20-Poly1305", chacha, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewFactory(tt.params).SymCryptor()
			require.NoError(t, err)
			require.NoError(t, c.SetKey(bytes.Repeat([]byte{0x42}, tt.keyLen)))

			for _, msg := range [][]byte{{}, []byte("hello"), bytes.Repeat([]byte{1}, 4096)} {
				ct, err := c.Encrypt(msg)
				require.NoError(t, err)
				assert.Len(t, ct, 8+len(msg)+16, "nonce prefix, ciphertext and tag")

				pt, err := c.Decrypt(ct)
				require.NoError(t, err)
				assert.Equal(t, msg, append([]byte{}, pt...))
			}
		})
	}
}

func TestSymCryptorOutputCarriesNonce(t *testing.T) {
	c := newSymCryptorWithKey(t, NewDefaultFactory())
	nonce := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, c.SetNonce(nonce))

	ct, err := c.Encrypt([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, nonce, ct[:8])
	assert.Equal(t, append(c.Salt(), nonce...), c.IV())
}

func TestSymCryptorSeparateReceiver(t *testing.T) {
	f := NewDefaultFactory()
	sender := newSymCryptorWithKey(t, f)
	receiver := newSymCryptorWithKey(t, f)

	ct, err := sender.Encrypt([]byte("out of band salt"))
	require.NoError(t, err)

	// The receiver does not know the sender's salt yet.
	_, err = receiver.Decrypt(ct)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	require.NoError(t, receiver.SetSalt(sender.Salt()))
	pt, err := receiver.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("out of band salt"), pt)
}

func TestSymCryptorNonceReuse(t *testing.T) {
	c := newSymCryptorWithKey(t, NewDefaultFactory())
	nonce := []byte{8, 7, 6, 5, 4, 3, 2, 1}

	require.NoError(t, c.SetNonce(nonce))
	err := c.SetNonce(nonce)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNonceReuse)
	assert.ErrorIs(t, err, ErrCryptoNotValid)

	// The same nonce arriving through SetIV is caught as well.
	assert.ErrorIs(t, c.SetIV(append(c.Salt(), nonce...)), ErrNonceReuse)
}

func TestSymCryptorRandomNonceDiffers(t *testing.T) {
	c := newSymCryptorWithKey(t, NewDefaultFactory())
	before := c.Nonce()
	require.NoError(t, c.SetNonce(nil))
	assert.NotEqual(t, before, c.Nonce())
}

func TestSymCryptorNeverEncryptsTwiceUnderOneNonce(t *testing.T) {
	c := newSymCryptorWithKey(t, NewDefaultFactory())
	require.NoError(t, c.SetNonce([]byte{1, 1, 1, 1, 1, 1, 1, 1}))

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		ct, err := c.Encrypt([]byte("same plaintext"))
		require.NoError(t, err)
		nonce := string(ct[:8])
		assert.False(t, seen[nonce], "nonce reused at encryption %d", i)
		seen[nonce] = true
	}
}

func TestSymCryptorRejectsAlternatingNonces(t *testing.T) {
	c := newSymCryptorWithKey(t, NewDefaultFactory())
	a := []byte{0xa, 0xa, 0xa, 0xa, 0xa, 0xa, 0xa, 0xa}
	b := []byte{0xb, 0xb, 0xb, 0xb, 0xb, 0xb, 0xb, 0xb}

	require.NoError(t, c.SetNonce(a))
	first, err := c.Encrypt([]byte("one"))
	require.NoError(t, err)
	require.NoError(t, c.SetNonce(b))
	_, err = c.Encrypt([]byte("two"))
	require.NoError(t, err)

	assert.ErrorIs(t, c.SetNonce(a), ErrNonceReuse)
	assert.ErrorIs(t, c.SetIV(append(c.Salt(), a...)), ErrNonceReuse)

	third, err := c.Encrypt([]byte("three"))
	require.NoError(t, err)
	assert.NotEqual(t, first[:8], third[:8])
	assert.NotEqual(t, b, third[:8])
}

func TestSymCryptorNonceRecordFollowsKeyAndSalt(t *testing.T) {
	nonce := []byte{3, 3, 3, 3, 3, 3, 3, 3}
	key := bytes.Repeat([]byte{0x11}, 32)

	tests := []struct {
		name    string
		rekey   func(c *SymCryptor) error
		wantErr error
	}{
		{"same key", func(c *SymCryptor) error { return c.SetKey(key) }, ErrNonceReuse},
		{"same key after clear", func(c *SymCryptor) error { c.Clear(); return c.SetKey(key) }, ErrNonceReuse},
		{"same salt", func(c *SymCryptor) error { return c.SetSalt(c.Salt()) }, ErrNonceReuse},
		{"new key", func(c *SymCryptor) error { return c.SetKey(bytes.Repeat([]byte{0x22}, 32)) }, nil},
		{"new salt", func(c *SymCryptor) error { return c.SetSalt([]byte{9, 8, 7, 6}) }, nil},
		{"random salt", func(c *SymCryptor) error { return c.SetSalt(nil) }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewDefaultFactory().SymCryptor()
			require.NoError(t, err)
			require.NoError(t, c.SetKey(key))
			require.NoError(t, c.SetSalt([]byte{1, 2, 3, 4}))
			require.NoError(t, c.SetNonce(nonce))
			_, err = c.Encrypt([]byte("x"))
			require.NoError(t, err)

			require.NoError(t, tt.rekey(c))
			if tt.wantErr != nil {
				assert.ErrorIs(t, c.SetNonce(nonce), tt.wantErr)
				return
			}
			assert.NoError(t, c.SetNonce(nonce))
		})
	}
}

func TestSymCryptorSetIVLengths(t *testing.T) {
	c := newSymCryptorWithKey(t, NewDefaultFactory())
	assert.ErrorIs(t, c.SetIV(make([]byte, 11)), ErrInvalidIVLength)
	assert.ErrorIs(t, c.SetSalt(make([]byte, 3)), ErrInvalidIVLength)
	assert.ErrorIs(t, c.SetNonce(make([]byte, 12)), ErrInvalidIVLength)

	iv := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	require.NoError(t, c.SetIV(iv))
	assert.Equal(t, iv, c.IV())
	assert.Equal(t, iv[:4], c.Salt())
}

func TestSymCryptorTamperDetection(t *testing.T) {
	c := newSymCryptorWithKey(t, NewDefaultFactory())
	ct, err := c.Encrypt([]byte("attack at dawn"))
	require.NoError(t, err)

	for i := range ct {
		tampered := bytes.Clone(ct)
		tampered[i] ^= 0x01
		pt, err := c.Decrypt(tampered)
		assert.ErrorIs(t, err, ErrAuthenticationFailed, "byte %d", i)
		assert.Nil(t, pt)
	}

	_, err = c.Decrypt(ct[:5])
	assert.ErrorIs(t, err, ErrMalformedMessage)
	_, err = c.Decrypt(ct[:20])
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestSymCryptorNoKey(t *testing.T) {
	c, err := NewDefaultFactory().SymCryptor()
	require.NoError(t, err)

	_, err = c.Encrypt([]byte("x"))
	assert.ErrorIs(t, err, ErrNoKey)
	_, err = c.EncryptWithAEAData([]byte("x"), nil)
	assert.ErrorIs(t, err, ErrNoKey)

	require.NoError(t, c.SetKey(make([]byte, 32)))
	c.Clear()
	_, err = c.Encrypt([]byte("x"))
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestSymCryptorAEAD(t *testing.T) {
	c := newSymCryptorWithKey(t, NewDefaultFactory())
	plaintext := []byte("secret body")
	aad := []byte("public header")

	msg, err := c.EncryptWithAEAData(plaintext, aad)
	require.NoError(t, err)
	assert.Equal(t, aad, msg.AAText())
	assert.Len(t, msg.IV(), 12)

	// Decrypt from the wire form with a cryptor that has a different salt.
	parsed, err := ParseAEADCiphered(msg.Bytes(), DefaultParams())
	require.NoError(t, err)
	receiver := newSymCryptorWithKey(t, NewDefaultFactory())
	res, err := receiver.DecryptWithAEAData(parsed)
	require.NoError(t, err)
	assert.True(t, res.Authenticated)
	assert.Equal(t, plaintext, res.Plaintext)
	assert.Equal(t, aad, res.AAText)
}

func TestSymCryptorAEADTamper(t *testing.T) {
	c := newSymCryptorWithKey(t, NewDefaultFactory())
	msg, err := c.EncryptWithAEAData([]byte("body"), []byte("header"))
	require.NoError(t, err)
	wire := msg.Bytes()

	// Flip one bit in every position after the length fields.
	for i := 20; i < len(wire); i++ {
		tampered := bytes.Clone(wire)
		tampered[i] ^= 0x80
		parsed, err := ParseAEADCiphered(tampered, DefaultParams())
		require.NoError(t, err)

		res, err := c.DecryptWithAEAData(parsed)
		assert.ErrorIs(t, err, ErrAuthenticationFailed, "byte %d", i)
		require.NotNil(t, res)
		assert.False(t, res.Authenticated)
		assert.Nil(t, res.Plaintext)
		assert.Equal(t, parsed.AAText(), res.AAText, "claimed aatext is still readable")
	}
}

func TestSymCryptorAEADSizeLimit(t *testing.T) {
	c := newSymCryptorWithKey(t, NewDefaultFactory())

	_, err := c.EncryptWithAEAData(make([]byte, 65536-16-10), make([]byte, 10))
	assert.NoError(t, err)

	_, err = c.EncryptWithAEAData(make([]byte, 65536-16-10), make([]byte, 11))
	assert.ErrorIs(t, err, ErrMessageTooLarge)
}

func TestSymCryptorDecryptNilMessage(t *testing.T) {
	c := newSymCryptorWithKey(t, NewDefaultFactory())
	_, err := c.DecryptWithAEAData(nil)
	assert.ErrorIs(t, err, ErrMalformedMessage)
}
