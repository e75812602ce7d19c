package factory

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/opd-ai/cryptocore/crypto"
	"github.com/sirupsen/logrus"
)

// Validation constants for configuration bounds checking.
const (
	// MinPBKDF2Iterations is the lowest iteration count accepted from the environment.
	MinPBKDF2Iterations = 1000
	// MaxPBKDF2Iterations is the highest iteration count accepted from the environment.
	MaxPBKDF2Iterations = 10000000
)

// Environment variables read by NewCryptoFactoryHelper.
const (
	EnvSystem           = "CRYPTOCORE_SYSTEM"
	EnvPBKDF2Iterations = "CRYPTOCORE_PBKDF2_ITERATIONS"
	EnvSymCipher        = "CRYPTOCORE_SYM_CIPHER"
)

// Settings are the process defaults a helper applies to every factory it
// builds. Iterations and SymCipher override the values of the selected preset.
type Settings struct {
	System        string
	KDFIterations int
	SymCipher     string
}

// Validate checks that every field names something the crypto package offers.
// Errors are *crypto.CryptoError values matching crypto.ErrCryptoNotValid.
func (s *Settings) Validate() error {
	if _, err := crypto.ConfigByName(s.System); err != nil {
		return err
	}
	if s.KDFIterations < MinPBKDF2Iterations || s.KDFIterations > MaxPBKDF2Iterations {
		return invalidSettings(fmt.Errorf("PBKDF2 iterations %d outside [%d, %d]", s.KDFIterations, MinPBKDF2Iterations, MaxPBKDF2Iterations))
	}
	if !validSymCipher(s.SymCipher) {
		return invalidSettings(fmt.Errorf("unknown symmetric cipher %q", s.SymCipher))
	}
	return nil
}

func invalidSettings(err error) error {
	return &crypto.CryptoError{Op: "ValidateSettings", Kind: crypto.ErrUnsupportedAlgorithm, Err: err}
}

func validSymCipher(name string) bool {
	return name == crypto.CipherAESGCM || name == crypto.CipherChaCha20Poly1305
}

// CryptoFactoryHelper builds crypto factories from process default settings.
// It is safe for concurrent use; all methods are protected by an internal mutex.
type CryptoFactoryHelper struct {
	mu       sync.RWMutex
	settings *Settings
	opts     []crypto.FactoryOption
}

// NewCryptoFactoryHelper creates a helper with default settings, overridden
// by CRYPTOCORE_* environment variables where they are valid. opts are passed
// to every factory the helper builds.
func NewCryptoFactoryHelper(opts ...crypto.FactoryOption) *CryptoFactoryHelper {
	settings := createDefaultSettings()
	applyEnvironmentOverrides(settings)
	logConfigurationInfo(settings)

	return &CryptoFactoryHelper{
		settings: settings,
		opts:     opts,
	}
}

// createDefaultSettings starts from the default preset without overrides.
func createDefaultSettings() *Settings {
	p := crypto.DefaultParams()
	return &Settings{
		System:        p.Name(),
		KDFIterations: p.KDFIterations(),
		SymCipher:     p.SymCipher(),
	}
}

// applyEnvironmentOverrides updates settings from CRYPTOCORE_* variables.
func applyEnvironmentOverrides(settings *Settings) {
	parseSystemSetting(settings)
	parseIterationsSetting(settings)
	parseSymCipherSetting(settings)
}

// parseSystemSetting updates System from CRYPTOCORE_SYSTEM if it names a
// predefined crypto system.
func parseSystemSetting(settings *Settings) {
	if system := os.Getenv(EnvSystem); system != "" {
		if _, err := crypto.ConfigByName(system); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "parseSystemSetting",
				"env_var":     EnvSystem,
				"value":       system,
				"known":       crypto.ConfigNames(),
				"using_value": settings.System,
			}).Warn("Unknown crypto system in CRYPTOCORE_SYSTEM, using default")
			return
		}
		settings.System = system
	}
}

// parseIterationsSetting updates KDFIterations from CRYPTOCORE_PBKDF2_ITERATIONS.
// The value must lie within [MinPBKDF2Iterations, MaxPBKDF2Iterations].
func parseIterationsSetting(settings *Settings) {
	if iterStr := os.Getenv(EnvPBKDF2Iterations); iterStr != "" {
		iterations, err := strconv.Atoi(iterStr)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":    "parseIterationsSetting",
				"env_var":     EnvPBKDF2Iterations,
				"value":       iterStr,
				"error":       err.Error(),
				"using_value": settings.KDFIterations,
			}).Warn("Failed to parse CRYPTOCORE_PBKDF2_ITERATIONS environment variable, using default")
			return
		}
		if iterations < MinPBKDF2Iterations || iterations > MaxPBKDF2Iterations {
			logrus.WithFields(logrus.Fields{
				"function":    "parseIterationsSetting",
				"env_var":     EnvPBKDF2Iterations,
				"value":       iterations,
				"min":         MinPBKDF2Iterations,
				"max":         MaxPBKDF2Iterations,
				"using_value": settings.KDFIterations,
			}).Warn("CRYPTOCORE_PBKDF2_ITERATIONS value out of bounds, using default")
			return
		}
		settings.KDFIterations = iterations
	}
}

// parseSymCipherSetting updates SymCipher from CRYPTOCORE_SYM_CIPHER.
func parseSymCipherSetting(settings *Settings) {
	if cipherName := os.Getenv(EnvSymCipher); cipherName != "" {
		if !validSymCipher(cipherName) {
			logrus.WithFields(logrus.Fields{
				"function":    "parseSymCipherSetting",
				"env_var":     EnvSymCipher,
				"value":       cipherName,
				"using_value": settings.SymCipher,
			}).Warn("Unknown cipher in CRYPTOCORE_SYM_CIPHER, using default")
			return
		}
		settings.SymCipher = cipherName
	}
}

// logConfigurationInfo logs the final settings.
func logConfigurationInfo(settings *Settings) {
	logrus.WithFields(logrus.Fields{
		"function":          "NewCryptoFactoryHelper",
		"crypto_system":     settings.System,
		"pbkdf2_iterations": settings.KDFIterations,
		"sym_cipher":        settings.SymCipher,
	}).Info("Created crypto factory helper with configuration")
}

// Default returns a factory for the configured default system.
func (h *CryptoFactoryHelper) Default() (*crypto.CryptoFactory, error) {
	h.mu.RLock()
	system := h.settings.System
	h.mu.RUnlock()
	return h.ForSystem(system)
}

// ForSystem returns a factory for a predefined system with the helper's
// iteration count and symmetric cipher applied.
func (h *CryptoFactoryHelper) ForSystem(name string) (*crypto.CryptoFactory, error) {
	params, err := h.paramsFor(name)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function":      "ForSystem",
		"crypto_system": params.Name(),
		"sym_cipher":    params.SymCipher(),
	}).Debug("Building crypto factory")
	return crypto.NewFactory(params, h.opts...), nil
}

// paramsFor derives the parameter set for a preset under the current settings.
func (h *CryptoFactoryHelper) paramsFor(name string) (*crypto.CryptoParams, error) {
	base, err := crypto.ConfigByName(name)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	iterations, cipherName := h.settings.KDFIterations, h.settings.SymCipher
	h.mu.RUnlock()

	if iterations == base.KDFIterations() && cipherName == base.SymCipher() {
		return base, nil
	}
	b := base.Builder().KDF(base.KDF(), iterations).SymCipher(cipherName)
	if cipherName == crypto.CipherChaCha20Poly1305 {
		b.SymKeyLen(32)
	}
	params, err := b.Build()
	if err != nil {
		return nil, &crypto.CryptoError{Op: "ForSystem", Kind: crypto.ErrUnsupportedAlgorithm, Err: err}
	}
	return params, nil
}

// GetCurrentSettings returns a copy of the current settings.
func (h *CryptoFactoryHelper) GetCurrentSettings() Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return *h.settings
}

// UpdateSettings replaces the helper's settings after validating them.
func (h *CryptoFactoryHelper) UpdateSettings(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":   "UpdateSettings",
		"old_system": h.settings.System,
		"new_system": settings.System,
		"old_cipher": h.settings.SymCipher,
		"new_cipher": settings.SymCipher,
	}).Info("Updating crypto factory helper settings")

	h.settings = &settings
	return nil
}
