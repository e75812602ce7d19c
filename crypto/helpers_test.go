package crypto

import (
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	rsaOnce sync.Once
	rsaKey  *KeyPair
	rsaErr  error
)

// testRSAKeyPair returns one shared 2048-bit key pair; RSA generation is slow.
func testRSAKeyPair(t testing.TB) *KeyPair {
	t.Helper()
	rsaOnce.Do(func() {
		var priv *rsa.PrivateKey
		priv, rsaErr = rsa.GenerateKey(DefaultProvider().Random(), 2048)
		if rsaErr == nil {
			rsaKey = &KeyPair{Public: &priv.PublicKey, Private: priv}
		}
	})
	require.NoError(t, rsaErr)
	return rsaKey
}

// ecParams lists the EC presets exercised by table-driven tests.
var ecParams = []*CryptoParams{Secp521r1Params, Secp256k1Params, Prime256v1Params}

// fastKDF returns p with a low PBKDF2 iteration count for passphrase tests.
func fastKDF(t testing.TB, p *CryptoParams) *CryptoParams {
	t.Helper()
	fast, err := p.Builder().KDF(p.KDF(), 1000).Build()
	require.NoError(t, err)
	return fast
}

func newTestFactory(t testing.TB, p *CryptoParams, opts ...ProviderOption) *CryptoFactory {
	t.Helper()
	return NewFactory(p, WithProvider(NewProvider(opts...)))
}

func generateKeyPair(t testing.TB, f *CryptoFactory) *KeyPair {
	t.Helper()
	gen, err := f.KeyGenerator()
	require.NoError(t, err)
	kp, err := gen.GenerateKeyPair()
	require.NoError(t, err)
	return kp
}

func newSymCryptorWithKey(t testing.TB, f *CryptoFactory) *SymCryptor {
	t.Helper()
	c, err := f.SymCryptor()
	require.NoError(t, err)
	require.NoError(t, c.SetKey(make([]byte, f.Params().SymKeyLen())))
	return c
}
