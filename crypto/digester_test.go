package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"
)

func TestDigester(t *testing.T) {
	msg := []byte("abc")
	sum256 := sha256.Sum256(msg)
	sum512 := sha512.Sum512(msg)
	sum3 := sha3.Sum256(msg)

	tests := []struct {
		name   string
		params *CryptoParams
		kad    bool
		want   []byte
	}{
		{"secp521r1 digest", Secp521r1Params, false, sum512[:]},
		{"secp521r1 key agreement", Secp521r1Params, true, sum3[:]},
		{"prime256v1 digest", Prime256v1Params, false, sum256[:]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFactory(tt.params)
			var (
				d   *Digester
				err error
			)
			if tt.kad {
				d, err = f.KeyAgreementDigester()
			} else {
				d, err = f.Digester()
			}
			require.NoError(t, err)

			assert.Equal(t, tt.want, d.Digest(msg))
			assert.Equal(t, len(tt.want), d.Size())

			_, _ = d.Write([]byte("a"))
			_, _ = d.Write([]byte("bc"))
			assert.Equal(t, tt.want, d.Sum(), "streaming matches one-shot")
			assert.Equal(t, tt.want, d.Digest(msg), "one-shot ignores running state")

			d.Reset()
			_, _ = d.Write(msg)
			assert.Equal(t, tt.want, d.Sum())
		})
	}
}

func TestDigesterUnavailable(t *testing.T) {
	f := newTestFactory(t, Secp521r1Params, WithoutAlgorithms(DigestSHA3_256))
	_, err := f.KeyAgreementDigester()
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)

	d, err := f.Digester()
	require.NoError(t, err)
	assert.Equal(t, DigestSHA512, d.Name())
}
