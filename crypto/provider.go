package crypto

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/sha3"
)

// Curve names accepted by CryptoParams.
const (
	CurveSecp521r1  = "secp521r1"
	CurveSecp256k1  = "secp256k1"
	CurvePrime256v1 = "prime256v1"
)

// Symmetric cipher specs.
const (
	CipherAESGCM           = "AES/GCM/NoPadding"
	CipherChaCha20Poly1305 = "ChaCha20-Poly1305"
)

// Asymmetric (IES) cipher specs.
const (
	IESECIESAESGCM = "ECIESwithAES-GCM"
	IESHPKEAESGCM  = "HPKE/AES-GCM"
	IESRSAPKCS1    = "RSA/ECB/PKCS1Padding"
)

// Digest names.
const (
	DigestSHA256     = "SHA-256"
	DigestSHA384     = "SHA-384"
	DigestSHA512     = "SHA-512"
	DigestSHA3_256   = "SHA3-256"
	DigestSHA3_512   = "SHA3-512"
	DigestBLAKE2b512 = "BLAKE2b-512"
)

var knownCurves = map[string]curve{
	CurveSecp521r1:  &nistCurve{id: CurveSecp521r1, curve: elliptic.P521()},
	CurvePrime256v1: &nistCurve{id: CurvePrime256v1, curve: elliptic.P256()},
	CurveSecp256k1:  koblitzCurve{},
}

var curveAliases = map[string]string{
	"P-521":     CurveSecp521r1,
	"P-256":     CurvePrime256v1,
	"secp256r1": CurvePrime256v1,
}

var knownDigests = map[string]func() hash.Hash{
	DigestSHA256:   sha256.New,
	DigestSHA384:   sha512.New384,
	DigestSHA512:   sha512.New,
	DigestSHA3_256: sha3.New256,
	DigestSHA3_512: sha3.New512,
	DigestBLAKE2b512: func() hash.Hash {
		h, _ := blake2b.New512(nil)
		return h
	},
}

type signatureAlgorithm struct {
	scheme Scheme
	digest string
	hash   crypto.Hash
}

var knownSignatureAlgorithms = map[string]signatureAlgorithm{
	"SHA256withECDSA": {SchemeEC, DigestSHA256, crypto.SHA256},
	"SHA384withECDSA": {SchemeEC, DigestSHA384, crypto.SHA384},
	"SHA512withECDSA": {SchemeEC, DigestSHA512, crypto.SHA512},
	"SHA256withRSA":   {SchemeRSA, DigestSHA256, crypto.SHA256},
	"SHA384withRSA":   {SchemeRSA, DigestSHA384, crypto.SHA384},
	"SHA512withRSA":   {SchemeRSA, DigestSHA512, crypto.SHA512},
}

// KDFArgon2id selects Argon2id for passphrase stretching. The iteration count
// of the params is its time cost.
const KDFArgon2id = "Argon2id"

// knownKDFs maps each KDF to the digest used for its output length and for
// expanding passphrase seeds.
var knownKDFs = map[string]string{
	"PBKDF2WithHmacSHA256": DigestSHA256,
	"PBKDF2WithHmacSHA512": DigestSHA512,
	KDFArgon2id:            DigestSHA512,
}

var knownIES = map[string]Scheme{
	IESECIESAESGCM: SchemeEC,
	IESHPKEAESGCM:  SchemeEC,
	IESRSAPKCS1:    SchemeRSA,
}

// Provider resolves the algorithm names carried by CryptoParams to
// implementations and owns the entropy source. Names are opaque to the rest
// of the package: they are looked up here and nowhere else.
//
// A Provider is immutable after construction and safe for concurrent use.
type Provider struct {
	name     string
	random   io.Reader
	disabled map[string]struct{}
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithRandom replaces the entropy source. Tests use it to inject seeded or
// failing readers.
func WithRandom(r io.Reader) ProviderOption {
	return func(p *Provider) {
		if r != nil {
			p.random = r
		}
	}
}

// WithName sets the provider name reported in logs.
func WithName(name string) ProviderOption {
	return func(p *Provider) {
		p.name = name
	}
}

// WithoutAlgorithms removes algorithms from the provider, as if it had never
// offered them. Lookups for them fail with ErrUnsupportedAlgorithm.
func WithoutAlgorithms(names ...string) ProviderOption {
	return func(p *Provider) {
		for _, n := range names {
			p.disabled[n] = struct{}{}
		}
	}
}

// NewProvider creates an independent provider handle.
func NewProvider(opts ...ProviderOption) *Provider {
	p := &Provider{
		name:     "go-stdlib",
		random:   rand.Reader,
		disabled: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var (
	providerOnce    sync.Once
	defaultProvider *Provider
)

// InitProvider performs the one-time process-wide provider initialisation and
// returns the shared handle. Options passed after the first call are ignored.
func InitProvider(opts ...ProviderOption) *Provider {
	providerOnce.Do(func() {
		defaultProvider = NewProvider(opts...)
		logrus.WithFields(logrus.Fields{
			"function": "InitProvider",
			"provider": defaultProvider.name,
		}).Info("Crypto provider initialized")
	})
	return defaultProvider
}

// DefaultProvider returns the process-wide provider, initialising it with
// defaults if InitProvider was never called.
func DefaultProvider() *Provider {
	return InitProvider()
}

// Name returns the provider name.
func (p *Provider) Name() string { return p.name }

// Random returns the provider entropy source.
func (p *Provider) Random() io.Reader { return p.random }

// Supports reports whether the provider offers the named algorithm.
func (p *Provider) Supports(name string) bool {
	if _, off := p.disabled[name]; off {
		return false
	}
	if _, ok := knownDigests[name]; ok {
		return true
	}
	if _, ok := knownSignatureAlgorithms[name]; ok {
		return true
	}
	if _, ok := knownKDFs[name]; ok {
		return true
	}
	if _, ok := knownIES[name]; ok {
		return true
	}
	if name == CipherAESGCM || name == CipherChaCha20Poly1305 {
		return true
	}
	_, err := p.curve(name)
	return err == nil
}

func (p *Provider) unsupported(op, name string) error {
	return newErrorf(op, ErrUnsupportedAlgorithm, "provider %s does not offer %q", p.name, name)
}

func (p *Provider) enabled(name string) bool {
	_, off := p.disabled[name]
	return !off
}

// readRandom fills buf from the entropy source.
func (p *Provider) readRandom(op string, buf []byte) error {
	if _, err := io.ReadFull(p.random, buf); err != nil {
		return newError(op, ErrRandomSource, err)
	}
	return nil
}

func (p *Provider) randomBytes(op string, n int) ([]byte, error) {
	buf := make([]byte, n)
	if err := p.readRandom(op, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Digest resolves a digest name to a hash constructor.
func (p *Provider) Digest(name string) (func() hash.Hash, error) {
	h, ok := knownDigests[name]
	if !ok || !p.enabled(name) {
		return nil, p.unsupported("Digest", name)
	}
	return h, nil
}

func (p *Provider) signatureAlgorithm(name string) (signatureAlgorithm, func() hash.Hash, error) {
	alg, ok := knownSignatureAlgorithms[name]
	if !ok || !p.enabled(name) {
		return signatureAlgorithm{}, nil, p.unsupported("SignatureAlgorithm", name)
	}
	h, err := p.Digest(alg.digest)
	if err != nil {
		return signatureAlgorithm{}, nil, err
	}
	return alg, h, nil
}

func (p *Provider) kdfDigest(name string) (func() hash.Hash, error) {
	digest, ok := knownKDFs[name]
	if !ok || !p.enabled(name) {
		return nil, p.unsupported("KDF", name)
	}
	return p.Digest(digest)
}

func (p *Provider) ies(name string) (Scheme, error) {
	scheme, ok := knownIES[name]
	if !ok || !p.enabled(name) {
		return "", p.unsupported("IES", name)
	}
	return scheme, nil
}

func (p *Provider) curve(name string) (curve, error) {
	if canonical, ok := curveAliases[name]; ok {
		name = canonical
	}
	c, ok := knownCurves[name]
	if !ok || !p.enabled(name) {
		return nil, p.unsupported("Curve", name)
	}
	return c, nil
}

// checkCipher verifies a symmetric cipher spec is offered without building it.
func (p *Provider) checkCipher(name string) error {
	if (name != CipherAESGCM && name != CipherChaCha20Poly1305) || !p.enabled(name) {
		return p.unsupported("Cipher", name)
	}
	return nil
}

// newAEAD builds the AEAD for a cipher spec. tagSize is in bytes.
func (p *Provider) newAEAD(name string, key []byte, tagSize int) (cipher.AEAD, error) {
	if err := p.checkCipher(name); err != nil {
		return nil, err
	}
	switch name {
	case CipherAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, newError("newAEAD", ErrInvalidKeyLength, err)
		}
		aead, err := cipher.NewGCMWithTagSize(block, tagSize)
		if err != nil {
			return nil, newError("newAEAD", ErrUnsupportedAlgorithm, err)
		}
		return aead, nil
	default:
		if tagSize != chacha20poly1305.Overhead {
			return nil, newErrorf("newAEAD", ErrUnsupportedAlgorithm, "%s has a fixed %d byte tag", name, chacha20poly1305.Overhead)
		}
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, newError("newAEAD", ErrInvalidKeyLength, err)
		}
		return aead, nil
	}
}

func (p *Provider) String() string {
	return fmt.Sprintf("Provider(%s)", p.name)
}
