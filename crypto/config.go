package crypto

import "sort"

// Names of the predefined crypto systems.
const (
	ConfigSecp521r1      = "secp521r1"
	ConfigSecp256k1      = "secp256k1"
	ConfigPrime256v1     = "prime256v1"
	ConfigPrime256v1HPKE = "prime256v1-hpke"
	ConfigRSA2048        = "rsa2048"
	ConfigRSA4096        = "rsa4096"
	ConfigRSA8192        = "rsa8192"
	ConfigRSA16384       = "rsa16384"

	// DefaultConfig is the strong default used when no parameters are given.
	DefaultConfig = ConfigSecp521r1
)

// Secp521r1Params is the default system: P-521, AES-256-GCM, SHA-512.
var Secp521r1Params = mustBuild(NewParamsBuilder(ConfigSecp521r1).
	EC(CurveSecp521r1, 521).
	AsymIESCipher(IESECIESAESGCM).
	Digest(DigestSHA512).
	SignatureAlgorithm("SHA512withECDSA").
	KDF("PBKDF2WithHmacSHA512", DefaultKDFIterations).
	SymKeyLen(32).
	KeyAgreementDigest(DigestSHA3_256))

// Secp256k1Params uses the Koblitz curve with SHA-256.
var Secp256k1Params = mustBuild(NewParamsBuilder(ConfigSecp256k1).
	EC(CurveSecp256k1, 256).
	AsymIESCipher(IESECIESAESGCM).
	Digest(DigestSHA256).
	SignatureAlgorithm("SHA256withECDSA").
	KDF("PBKDF2WithHmacSHA256", DefaultKDFIterations).
	SymKeyLen(32).
	KeyAgreementDigest(DigestSHA256))

// Prime256v1Params matches P-256 with AES-128-GCM.
var Prime256v1Params = mustBuild(NewParamsBuilder(ConfigPrime256v1).
	EC(CurvePrime256v1, 256).
	AsymIESCipher(IESECIESAESGCM).
	Digest(DigestSHA256).
	SignatureAlgorithm("SHA256withECDSA").
	KDF("PBKDF2WithHmacSHA256", DefaultKDFIterations).
	SymKeyLen(16).
	KeyAgreementDigest(DigestSHA256))

// Prime256v1HPKEParams is Prime256v1Params with RFC 9180 HPKE as the IES.
var Prime256v1HPKEParams = mustBuild(Prime256v1Params.Builder().
	Name(ConfigPrime256v1HPKE).
	AsymIESCipher(IESHPKEAESGCM))

// RSA parameter sets; the digest grows with the modulus.
var (
	RSA2048Params  = rsaParams(ConfigRSA2048, 2048, DigestSHA256, "SHA256withRSA", "PBKDF2WithHmacSHA256")
	RSA4096Params  = rsaParams(ConfigRSA4096, 4096, DigestSHA384, "SHA384withRSA", "PBKDF2WithHmacSHA512")
	RSA8192Params  = rsaParams(ConfigRSA8192, 8192, DigestSHA512, "SHA512withRSA", "PBKDF2WithHmacSHA512")
	RSA16384Params = rsaParams(ConfigRSA16384, 16384, DigestSHA512, "SHA512withRSA", "PBKDF2WithHmacSHA512")
)

var predefinedConfigs = map[string]*CryptoParams{
	ConfigSecp521r1:      Secp521r1Params,
	ConfigSecp256k1:      Secp256k1Params,
	ConfigPrime256v1:     Prime256v1Params,
	ConfigPrime256v1HPKE: Prime256v1HPKEParams,
	ConfigRSA2048:        RSA2048Params,
	ConfigRSA4096:        RSA4096Params,
	ConfigRSA8192:        RSA8192Params,
	ConfigRSA16384:       RSA16384Params,
}

func rsaParams(name string, bits int, digest, sigAlg, kdf string) *CryptoParams {
	return mustBuild(NewParamsBuilder(name).
		RSA(bits).
		AsymIESCipher(IESRSAPKCS1).
		Digest(digest).
		SignatureAlgorithm(sigAlg).
		KDF(kdf, DefaultKDFIterations).
		SymKeyLen(32).
		KeyAgreementDigest(digest))
}

func mustBuild(b *ParamsBuilder) *CryptoParams {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}

// DefaultParams returns the default parameter set (secp521r1).
func DefaultParams() *CryptoParams {
	return predefinedConfigs[DefaultConfig]
}

// ConfigByName looks up a predefined parameter set.
func ConfigByName(name string) (*CryptoParams, error) {
	p, ok := predefinedConfigs[name]
	if !ok {
		return nil, newErrorf("ConfigByName", ErrUnsupportedAlgorithm, "unknown crypto system %q", name)
	}
	return p, nil
}

// ConfigNames lists the predefined crypto systems in sorted order.
func ConfigNames() []string {
	names := make([]string, 0, len(predefinedConfigs))
	for name := range predefinedConfigs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateParams checks that a provider offers every algorithm a parameter
// set names. Factories call it lazily per component; callers can use it to
// fail early at startup.
func ValidateParams(p *CryptoParams, provider *Provider) error {
	if provider == nil {
		provider = DefaultProvider()
	}
	if err := provider.checkCipher(p.SymCipher()); err != nil {
		return err
	}
	if _, err := provider.ies(p.AsymIESCipher()); err != nil {
		return err
	}
	if _, err := provider.Digest(p.Digest()); err != nil {
		return err
	}
	if _, err := provider.Digest(p.KeyAgreementDigest()); err != nil {
		return err
	}
	if _, err := provider.kdfDigest(p.KDF()); err != nil {
		return err
	}
	alg, _, err := provider.signatureAlgorithm(p.SignatureAlgorithm())
	if err != nil {
		return err
	}
	if alg.scheme != p.Scheme() {
		return newErrorf("ValidateParams", ErrUnsupportedAlgorithm, "%s cannot sign with %s keys", p.SignatureAlgorithm(), p.Scheme())
	}
	if p.Scheme() == SchemeEC {
		if _, err := provider.curve(p.Curve()); err != nil {
			return err
		}
	}
	return nil
}
