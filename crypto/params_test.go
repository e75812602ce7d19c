package crypto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParamsBuilderDefaults(t *testing.T) {
	p, err := NewParamsBuilder("custom").
		EC(CurvePrime256v1, 256).
		AsymIESCipher(IESECIESAESGCM).
		Digest(DigestSHA256).
		SignatureAlgorithm("SHA256withECDSA").
		KDF("PBKDF2WithHmacSHA256", 10).
		KeyAgreementDigest(DigestSHA256).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "custom", p.Name())
	assert.Equal(t, SchemeEC, p.Scheme())
	assert.Equal(t, CipherAESGCM, p.SymCipher())
	assert.Equal(t, 12, p.IVLen())
	assert.Equal(t, 4, p.SaltLen())
	assert.Equal(t, 8, p.NonceLen())
	assert.Equal(t, 128, p.GCMTagLen())
	assert.Equal(t, 16, p.TagSize())
	assert.Equal(t, 32, p.SymKeyLen())
	assert.Equal(t, 10, p.KDFIterations())
}

func TestParamsBuilderValidation(t *testing.T) {
	valid := func() *ParamsBuilder { return Prime256v1Params.Builder() }

	tests := []struct {
		name     string
		builder  *ParamsBuilder
		wantErr  string
		wantKind error
	}{
		{"missing name", valid().Name(""), "name is required", ErrUnsupportedAlgorithm},
		{"missing curve", valid().EC("", 256), "need a curve", ErrUnsupportedAlgorithm},
		{"zero EC key length", valid().EC(CurvePrime256v1, 0), "invalid EC key length", ErrInvalidKeyLength},
		{"small RSA", valid().RSA(1024).SignatureAlgorithm("SHA256withRSA"), "below minimum", ErrInvalidKeyLength},
		{"bad sym key length", valid().SymKeyLen(24), "not in {16, 32}", ErrInvalidKeyLength},
		{"tag too short", valid().GCMTagLen(64), "invalid GCM tag length", ErrUnsupportedAlgorithm},
		{"tag not byte aligned", valid().GCMTagLen(100), "invalid GCM tag length", ErrUnsupportedAlgorithm},
		{"iv split wrong", valid().IV(4, 4), "must equal the 12 byte IV", ErrUnsupportedAlgorithm},
		{"zero iterations", valid().KDF("PBKDF2WithHmacSHA256", 0), "iteration count", ErrUnsupportedAlgorithm},
		{"missing digest", valid().Digest(""), "digest is required", ErrUnsupportedAlgorithm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.builder.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.ErrorIs(t, err, ErrCryptoNotValid)
			assert.ErrorIs(t, err, tt.wantKind)

			var cerr *CryptoError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, "Build", cerr.Op)
		})
	}
}

func TestParamsBuilderCollectsAllErrors(t *testing.T) {
	_, err := NewParamsBuilder("").SymKeyLen(7).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "unknown scheme")
	assert.Contains(t, err.Error(), "not in {16, 32}")
}

func TestBuilderDoesNotMutateSource(t *testing.T) {
	variant, err := Secp521r1Params.Builder().Name("variant").SymKeyLen(16).Build()
	require.NoError(t, err)

	assert.Equal(t, "variant", variant.Name())
	assert.Equal(t, 16, variant.SymKeyLen())
	assert.Equal(t, ConfigSecp521r1, Secp521r1Params.Name())
	assert.Equal(t, 32, Secp521r1Params.SymKeyLen())
}

func TestPredefinedConfigs(t *testing.T) {
	tests := []struct {
		name   string
		scheme Scheme
		keyLen int
		digest string
	}{
		{ConfigSecp521r1, SchemeEC, 521, DigestSHA512},
		{ConfigSecp256k1, SchemeEC, 256, DigestSHA256},
		{ConfigPrime256v1, SchemeEC, 256, DigestSHA256},
		{ConfigPrime256v1HPKE, SchemeEC, 256, DigestSHA256},
		{ConfigRSA2048, SchemeRSA, 2048, DigestSHA256},
		{ConfigRSA4096, SchemeRSA, 4096, DigestSHA384},
		{ConfigRSA8192, SchemeRSA, 8192, DigestSHA512},
		{ConfigRSA16384, SchemeRSA, 16384, DigestSHA512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ConfigByName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.name, p.Name())
			assert.Equal(t, tt.scheme, p.Scheme())
			assert.Equal(t, tt.keyLen, p.KeyLen())
			assert.Equal(t, tt.digest, p.Digest())
			assert.NoError(t, ValidateParams(p, NewProvider()))
		})
	}
}

func TestConfigNames(t *testing.T) {
	names := ConfigNames()
	assert.Len(t, names, 8)
	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, DefaultConfig)
}

func TestConfigByNameUnknown(t *testing.T) {
	_, err := ConfigByName("secp384r1")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	assert.ErrorIs(t, err, ErrCryptoNotValid)
	assert.Contains(t, err.Error(), `unknown crypto system "secp384r1"`)
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, ConfigSecp521r1, p.Name())
	assert.Equal(t, CurveSecp521r1, p.Curve())
	assert.Equal(t, 66, p.KeyLenBytes())
}

func TestValidateParamsMissingAlgorithm(t *testing.T) {
	provider := NewProvider(WithoutAlgorithms(DigestSHA3_256))
	err := ValidateParams(Secp521r1Params, provider)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCryptoNotValid))
	assert.True(t, errors.Is(err, ErrUnsupportedAlgorithm))

	// The other presets do not use SHA3.
	assert.NoError(t, ValidateParams(Prime256v1Params, provider))
}

func TestValidateParamsSchemeMismatch(t *testing.T) {
	p, err := Prime256v1Params.Builder().SignatureAlgorithm("SHA256withRSA").Build()
	require.NoError(t, err)
	err = ValidateParams(p, nil)
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestParamsString(t *testing.T) {
	assert.Equal(t, "CryptoParams(rsa2048, RSA-2048, AES/GCM/NoPadding)", RSA2048Params.String())
	assert.Equal(t, "CryptoParams(secp256k1, secp256k1, AES/GCM/NoPadding)", Secp256k1Params.String())
}
