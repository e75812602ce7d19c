package crypto

import (
	"errors"
	"fmt"
)

// Scheme names the asymmetric family a parameter set is built on.
type Scheme string

const (
	SchemeEC  Scheme = "EC"
	SchemeRSA Scheme = "RSA"
)

// Default lengths of the AES-GCM IV and its halves, in bytes.
const (
	DefaultSaltLen   = 4
	DefaultNonceLen  = 8
	DefaultIVLen     = DefaultSaltLen + DefaultNonceLen
	DefaultGCMTagLen = 128 // bits
	// DefaultKDFIterations is the PBKDF2 iteration count (NIST recommendation)
	DefaultKDFIterations = 100000
	// MinRSAKeyLen is the smallest RSA modulus a parameter set may name.
	MinRSAKeyLen = 2048
)

// CryptoParams is an immutable bundle naming every algorithm and length a
// crypto system uses. All components built by one CryptoFactory share the
// same CryptoParams. Construct it with ParamsBuilder or take one of the
// predefined sets from ConfigByName.
type CryptoParams struct {
	name               string
	scheme             Scheme
	curve              string
	keyLen             int
	symCipher          string
	asymIESCipher      string
	digest             string
	signatureAlgorithm string
	kdf                string
	kdfIterations      int
	gcmTagLen          int
	saltLen            int
	nonceLen           int
	symKeyLen          int
	keyAgreementDigest string
}

// Name returns the crypto system name, e.g. "secp521r1".
func (p *CryptoParams) Name() string { return p.name }

// Scheme returns the asymmetric family.
func (p *CryptoParams) Scheme() Scheme { return p.scheme }

// Curve returns the curve name; empty for RSA.
func (p *CryptoParams) Curve() string { return p.curve }

// KeyLen returns the asymmetric key length in bits.
func (p *CryptoParams) KeyLen() int { return p.keyLen }

// KeyLenBytes returns the asymmetric key length in bytes.
func (p *CryptoParams) KeyLenBytes() int { return (p.keyLen + 7) / 8 }

// SymCipher returns the symmetric cipher spec.
func (p *CryptoParams) SymCipher() string { return p.symCipher }

// AsymIESCipher returns the integrated encryption scheme spec.
func (p *CryptoParams) AsymIESCipher() string { return p.asymIESCipher }

// Digest returns the general purpose digest name.
func (p *CryptoParams) Digest() string { return p.digest }

// SignatureAlgorithm returns the signature algorithm name.
func (p *CryptoParams) SignatureAlgorithm() string { return p.signatureAlgorithm }

// KDF returns the password based key derivation function name.
func (p *CryptoParams) KDF() string { return p.kdf }

// KDFIterations returns the PBKDF2 iteration count.
func (p *CryptoParams) KDFIterations() int { return p.kdfIterations }

// GCMTagLen returns the authentication tag length in bits.
func (p *CryptoParams) GCMTagLen() int { return p.gcmTagLen }

// TagSize returns the authentication tag length in bytes.
func (p *CryptoParams) TagSize() int { return p.gcmTagLen / 8 }

// IVLen returns the full IV length: salt plus explicit nonce.
func (p *CryptoParams) IVLen() int { return p.saltLen + p.nonceLen }

// SaltLen returns the per-key salt length.
func (p *CryptoParams) SaltLen() int { return p.saltLen }

// NonceLen returns the per-message explicit nonce length.
func (p *CryptoParams) NonceLen() int { return p.nonceLen }

// SymKeyLen returns the symmetric key length in bytes.
func (p *CryptoParams) SymKeyLen() int { return p.symKeyLen }

// KeyAgreementDigest returns the digest applied to ECDH output.
func (p *CryptoParams) KeyAgreementDigest() string { return p.keyAgreementDigest }

func (p *CryptoParams) String() string {
	if p.scheme == SchemeRSA {
		return fmt.Sprintf("CryptoParams(%s, RSA-%d, %s)", p.name, p.keyLen, p.symCipher)
	}
	return fmt.Sprintf("CryptoParams(%s, %s, %s)", p.name, p.curve, p.symCipher)
}

// ParamsBuilder assembles a CryptoParams. Setters return the builder so calls
// can be chained; Build validates the result.
type ParamsBuilder struct {
	p CryptoParams
}

// NewParamsBuilder starts a builder with the default IV layout, tag length
// and iteration count.
func NewParamsBuilder(name string) *ParamsBuilder {
	return &ParamsBuilder{p: CryptoParams{
		name:          name,
		symCipher:     CipherAESGCM,
		gcmTagLen:     DefaultGCMTagLen,
		saltLen:       DefaultSaltLen,
		nonceLen:      DefaultNonceLen,
		symKeyLen:     32,
		kdfIterations: DefaultKDFIterations,
	}}
}

// Builder starts a builder holding a copy of p, for deriving variants.
func (p *CryptoParams) Builder() *ParamsBuilder {
	return &ParamsBuilder{p: *p}
}

// EC selects an elliptic curve system.
func (b *ParamsBuilder) EC(curveName string, keyLen int) *ParamsBuilder {
	b.p.scheme = SchemeEC
	b.p.curve = curveName
	b.p.keyLen = keyLen
	return b
}

// RSA selects an RSA system with the given modulus length in bits.
func (b *ParamsBuilder) RSA(keyLen int) *ParamsBuilder {
	b.p.scheme = SchemeRSA
	b.p.curve = ""
	b.p.keyLen = keyLen
	return b
}

func (b *ParamsBuilder) Name(name string) *ParamsBuilder { b.p.name = name; return b }

func (b *ParamsBuilder) SymCipher(spec string) *ParamsBuilder { b.p.symCipher = spec; return b }

func (b *ParamsBuilder) AsymIESCipher(spec string) *ParamsBuilder {
	b.p.asymIESCipher = spec
	return b
}

func (b *ParamsBuilder) Digest(name string) *ParamsBuilder { b.p.digest = name; return b }

func (b *ParamsBuilder) SignatureAlgorithm(name string) *ParamsBuilder {
	b.p.signatureAlgorithm = name
	return b
}

func (b *ParamsBuilder) KDF(name string, iterations int) *ParamsBuilder {
	b.p.kdf = name
	b.p.kdfIterations = iterations
	return b
}

func (b *ParamsBuilder) GCMTagLen(bits int) *ParamsBuilder { b.p.gcmTagLen = bits; return b }

func (b *ParamsBuilder) IV(saltLen, nonceLen int) *ParamsBuilder {
	b.p.saltLen = saltLen
	b.p.nonceLen = nonceLen
	return b
}

func (b *ParamsBuilder) SymKeyLen(n int) *ParamsBuilder { b.p.symKeyLen = n; return b }

func (b *ParamsBuilder) KeyAgreementDigest(name string) *ParamsBuilder {
	b.p.keyAgreementDigest = name
	return b
}

// Build validates the parameter set and returns an immutable copy. Errors
// match ErrCryptoNotValid, and ErrInvalidKeyLength when a key length is
// wrong or ErrUnsupportedAlgorithm otherwise.
// It checks internal consistency only; whether a provider offers the named
// algorithms is decided when a component is built from the factory.
func (b *ParamsBuilder) Build() (*CryptoParams, error) {
	p := b.p
	kind := ErrUnsupportedAlgorithm
	var errs []error
	if p.name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	switch p.scheme {
	case SchemeEC:
		if p.curve == "" {
			errs = append(errs, errors.New("EC parameters need a curve"))
		}
		if p.keyLen <= 0 {
			kind = ErrInvalidKeyLength
			errs = append(errs, fmt.Errorf("invalid EC key length %d", p.keyLen))
		}
	case SchemeRSA:
		if p.keyLen < MinRSAKeyLen {
			kind = ErrInvalidKeyLength
			errs = append(errs, fmt.Errorf("RSA key length %d below minimum %d", p.keyLen, MinRSAKeyLen))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown scheme %q", p.scheme))
	}
	if p.symKeyLen != 16 && p.symKeyLen != 32 {
		kind = ErrInvalidKeyLength
		errs = append(errs, fmt.Errorf("symmetric key length %d not in {16, 32}", p.symKeyLen))
	}
	if p.gcmTagLen < 96 || p.gcmTagLen > 128 || p.gcmTagLen%8 != 0 {
		errs = append(errs, fmt.Errorf("invalid GCM tag length %d bits", p.gcmTagLen))
	}
	if p.saltLen < 0 || p.nonceLen <= 0 || p.saltLen+p.nonceLen != DefaultIVLen {
		errs = append(errs, fmt.Errorf("salt %d + nonce %d must equal the %d byte IV", p.saltLen, p.nonceLen, DefaultIVLen))
	}
	if p.kdfIterations < 1 {
		errs = append(errs, fmt.Errorf("invalid KDF iteration count %d", p.kdfIterations))
	}
	for _, f := range []struct{ field, value string }{
		{"symmetric cipher", p.symCipher},
		{"IES cipher", p.asymIESCipher},
		{"digest", p.digest},
		{"signature algorithm", p.signatureAlgorithm},
		{"KDF", p.kdf},
		{"key agreement digest", p.keyAgreementDigest},
	} {
		if f.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", f.field))
		}
	}
	if len(errs) > 0 {
		return nil, newErrorf("Build", kind, "invalid crypto params %q: %w", p.name, errors.Join(errs...))
	}
	return &p, nil
}
