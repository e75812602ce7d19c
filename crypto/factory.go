package crypto

// CryptoFactory builds every component of one crypto system from a single
// CryptoParams, so that all of them agree on algorithms and lengths.
//
// Each method returns a fresh instance; nothing is cached or shared between
// callers. The factory itself is immutable and safe for concurrent use.
type CryptoFactory struct {
	params   *CryptoParams
	provider *Provider
}

// FactoryOption configures a CryptoFactory.
type FactoryOption func(*CryptoFactory)

// WithProvider makes the factory use provider instead of the process-wide
// default.
func WithProvider(provider *Provider) FactoryOption {
	return func(f *CryptoFactory) {
		if provider != nil {
			f.provider = provider
		}
	}
}

// NewFactory creates a factory for params. It never fails: a nil params
// selects DefaultParams, and algorithm availability is checked when a
// component is requested.
func NewFactory(params *CryptoParams, opts ...FactoryOption) *CryptoFactory {
	if params == nil {
		params = DefaultParams()
	}
	f := &CryptoFactory{params: params}
	for _, opt := range opts {
		opt(f)
	}
	if f.provider == nil {
		f.provider = DefaultProvider()
	}
	NewLogger("NewFactory").
		WithParams(params).
		WithField("provider", f.provider.Name()).
		Debug("Created crypto factory")
	return f
}

// NewDefaultFactory creates a factory for the default crypto system.
func NewDefaultFactory(opts ...FactoryOption) *CryptoFactory {
	return NewFactory(nil, opts...)
}

// NewFactoryByName creates a factory for a predefined crypto system.
func NewFactoryByName(name string, opts ...FactoryOption) (*CryptoFactory, error) {
	params, err := ConfigByName(name)
	if err != nil {
		return nil, err
	}
	return NewFactory(params, opts...), nil
}

// Params returns the shared parameter set.
func (f *CryptoFactory) Params() *CryptoParams { return f.params }

// Provider returns the provider handle components are built against.
func (f *CryptoFactory) Provider() *Provider { return f.provider }

func (f *CryptoFactory) logFailure(component string, err error) {
	NewLogger(component).
		WithParams(f.params).
		WithField("provider", f.provider.Name()).
		WithError(err, "build").
		WithOutcome("build", "failed").
		Warn("Provider cannot build component")
}

// SymCryptor returns a new symmetric cryptor with a random salt and nonce.
func (f *CryptoFactory) SymCryptor() (*SymCryptor, error) {
	c, err := newSymCryptor(f.params, f.provider)
	if err != nil {
		f.logFailure("SymCryptor", err)
		return nil, err
	}
	return c, nil
}

// AsymCryptor returns a new integrated encryption cryptor.
func (f *CryptoFactory) AsymCryptor() (*AsymCryptor, error) {
	c, err := newAsymCryptor(f.params, f.provider)
	if err != nil {
		f.logFailure("AsymCryptor", err)
		return nil, err
	}
	return c, nil
}

// AsymCryptorDH returns a new key agreement cryptor. RSA systems fail with
// ErrNotSupported.
func (f *CryptoFactory) AsymCryptorDH() (*AsymCryptorDH, error) {
	c, err := newAsymCryptorDH(f.params, f.provider)
	if err != nil {
		f.logFailure("AsymCryptorDH", err)
		return nil, err
	}
	return c, nil
}

// Signer returns a new signer.
func (f *CryptoFactory) Signer() (*Signer, error) {
	s, err := newSigner(f.params, f.provider)
	if err != nil {
		f.logFailure("Signer", err)
		return nil, err
	}
	return s, nil
}

// Digester returns a new digester for the parameter set's digest.
func (f *CryptoFactory) Digester() (*Digester, error) {
	d, err := newDigester(f.params.Digest(), f.provider)
	if err != nil {
		f.logFailure("Digester", err)
		return nil, err
	}
	return d, nil
}

// KeyAgreementDigester returns a new digester for the key agreement digest.
func (f *CryptoFactory) KeyAgreementDigester() (*Digester, error) {
	d, err := newDigester(f.params.KeyAgreementDigest(), f.provider)
	if err != nil {
		f.logFailure("KeyAgreementDigester", err)
		return nil, err
	}
	return d, nil
}

// KeyGenerator returns a new key generator.
func (f *CryptoFactory) KeyGenerator() (*KeyGenerator, error) {
	g, err := newKeyGenerator(f.params, f.provider)
	if err != nil {
		f.logFailure("KeyGenerator", err)
		return nil, err
	}
	return g, nil
}
