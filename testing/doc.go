// Package testing provides simulated entropy sources for deterministic
// testing of the cryptocore library.
//
// # Overview
//
// Every random byte the crypto package consumes comes from the entropy
// source of its crypto.Provider. This package supplies readers that can be
// installed with crypto.WithRandom on a provider built by crypto.NewProvider,
// so tests control randomness without touching the process-wide provider:
//
//	provider := crypto.NewProvider(crypto.WithRandom(testing.NewFailingReader(0)))
//	factory := crypto.NewFactory(nil, crypto.WithProvider(provider))
//	_, err := factory.SymCryptor() // fails with crypto.ErrRandomSource
//
// # Simulation vs Real Entropy
//
//   - SeededReader: a reproducible ChaCha20 keystream. SIMULATION ONLY; keys
//     drawn from it are predictable to anyone who knows the seed.
//   - FailingReader: delivers a byte budget, then fails every read. Used to
//     exercise the error paths around entropy failure.
//   - CountingReader: wraps a real reader and records how much was drawn.
//
// Production code must leave the provider on crypto/rand.
//
// # Thread Safety
//
// All readers in this package are safe for concurrent use from multiple
// goroutines. Internal synchronization uses sync.Mutex.
package testing
