package crypto

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dhPeers struct {
	alice, bob     *AsymCryptorDH
	aliceKP, bobKP *KeyPair
	factory        *CryptoFactory
}

func newDHPeers(t *testing.T, p *CryptoParams) *dhPeers {
	t.Helper()
	f := NewFactory(p)
	aliceKP := generateKeyPair(t, f)
	bobKP := generateKeyPair(t, f)

	alice, err := f.AsymCryptorDH()
	require.NoError(t, err)
	alice.SetKeys(NewAsymKeysHolder(aliceKP, bobKP.Public))

	bob, err := f.AsymCryptorDH()
	require.NoError(t, err)
	bob.SetKeys(NewAsymKeysHolder(bobKP, aliceKP.Public))

	return &dhPeers{alice: alice, bob: bob, aliceKP: aliceKP, bobKP: bobKP, factory: f}
}

func (p *dhPeers) handshake(t *testing.T) (aliceKey, bobKey []byte) {
	t.Helper()
	a1, err := p.alice.ECDHEStep1()
	require.NoError(t, err)
	b1, err := p.bob.ECDHEStep1()
	require.NoError(t, err)

	aliceKey, err = p.alice.ECDHEStep2(b1)
	require.NoError(t, err)
	bobKey, err = p.bob.ECDHEStep2(a1)
	require.NoError(t, err)
	return aliceKey, bobKey
}

func TestStaticECDHAgreement(t *testing.T) {
	for _, p := range ecParams {
		t.Run(p.Name(), func(t *testing.T) {
			peers := newDHPeers(t, p)

			aliceKey, err := peers.alice.CalculateSharedKey()
			require.NoError(t, err)
			bobKey, err := peers.bob.CalculateSharedKey()
			require.NoError(t, err)

			assert.Len(t, aliceKey, p.SymKeyLen())
			assert.Equal(t, aliceKey, bobKey)

			again, err := peers.alice.CalculateSharedKey()
			require.NoError(t, err)
			assert.Equal(t, aliceKey, again, "static agreement is stable")
		})
	}
}

func TestStaticECDHDerivation(t *testing.T) {
	peers := newDHPeers(t, Prime256v1Params)
	key, err := peers.alice.CalculateSharedKey()
	require.NoError(t, err)

	c := peers.alice.curve
	secret, err := c.ecdh(peers.aliceKP.Private, peers.bobKP.Public)
	require.NoError(t, err)
	a, _ := c.encodePublicKey(peers.aliceKP.Public)
	b, _ := c.encodePublicKey(peers.bobKP.Public)
	if bytes.Compare(a, b) > 0 {
		a, b = b, a
	}
	h := peers.alice.kad()
	h.Write(secret)
	h.Write(a)
	h.Write(b)
	assert.Equal(t, h.Sum(nil)[:Prime256v1Params.SymKeyLen()], key)
}

func TestECDHEAgreementAndFreshness(t *testing.T) {
	for _, p := range ecParams {
		t.Run(p.Name(), func(t *testing.T) {
			peers := newDHPeers(t, p)

			aliceKey, bobKey := peers.handshake(t)
			assert.Equal(t, aliceKey, bobKey)
			assert.False(t, peers.alice.HandshakePending())
			assert.True(t, peers.alice.HasKey())

			aliceKey2, bobKey2 := peers.handshake(t)
			assert.Equal(t, aliceKey2, bobKey2)
			assert.NotEqual(t, aliceKey, aliceKey2, "independent handshakes give independent keys")

			static, err := peers.alice.CalculateSharedKey()
			require.NoError(t, err)
			assert.NotEqual(t, static, aliceKey2)
		})
	}
}

func TestECDHEPayloadLayout(t *testing.T) {
	peers := newDHPeers(t, Secp521r1Params)
	payload, err := peers.alice.ECDHEStep1()
	require.NoError(t, err)

	keyLen := binary.BigEndian.Uint32(payload)
	assert.Equal(t, uint32(133), keyLen)
	assert.Equal(t, byte(0x04), payload[4])

	s, err := peers.factory.Signer()
	require.NoError(t, err)
	s.SetKeys(NewAsymKeysHolder(nil, peers.aliceKP.Public))
	assert.True(t, s.Verify(payload[4:4+keyLen], payload[4+keyLen:]), "signed with the long-term key")
}

func TestECDHEStepOrder(t *testing.T) {
	peers := newDHPeers(t, Prime256v1Params)
	b1, err := peers.bob.ECDHEStep1()
	require.NoError(t, err)

	_, err = peers.alice.ECDHEStep2(b1)
	assert.ErrorIs(t, err, ErrHandshakeState)

	_, err = peers.alice.ECDHEStep1()
	require.NoError(t, err)
	_, err = peers.alice.ECDHEStep2(b1)
	require.NoError(t, err)

	_, err = peers.alice.ECDHEStep2(b1)
	assert.ErrorIs(t, err, ErrHandshakeState, "step 2 consumes the ephemeral key")
}

func TestECDHERejectsBadSignature(t *testing.T) {
	peers := newDHPeers(t, Prime256v1Params)
	_, err := peers.alice.ECDHEStep1()
	require.NoError(t, err)
	b1, err := peers.bob.ECDHEStep1()
	require.NoError(t, err)

	tampered := bytes.Clone(b1)
	tampered[len(tampered)-1] ^= 0x01
	_, err = peers.alice.ECDHEStep2(tampered)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
	assert.ErrorIs(t, err, ErrCryptoNotValid)
	assert.False(t, peers.alice.HasKey(), "no key agreement with an unverified key")
	assert.False(t, peers.alice.HandshakePending())
}

func TestECDHERejectsImpostor(t *testing.T) {
	peers := newDHPeers(t, Prime256v1Params)
	mallory, err := peers.factory.AsymCryptorDH()
	require.NoError(t, err)
	mallory.SetKeys(NewAsymKeysHolder(generateKeyPair(t, peers.factory), peers.aliceKP.Public))

	_, err = peers.alice.ECDHEStep1()
	require.NoError(t, err)
	m1, err := mallory.ECDHEStep1()
	require.NoError(t, err)

	_, err = peers.alice.ECDHEStep2(m1)
	assert.ErrorIs(t, err, ErrSignatureInvalid)
}

func TestECDHERestartsAfterForgedPayload(t *testing.T) {
	peers := newDHPeers(t, Prime256v1Params)
	mallory, err := peers.factory.AsymCryptorDH()
	require.NoError(t, err)
	mallory.SetKeys(NewAsymKeysHolder(generateKeyPair(t, peers.factory), peers.aliceKP.Public))

	stale, err := peers.alice.ECDHEStep1()
	require.NoError(t, err)
	m1, err := mallory.ECDHEStep1()
	require.NoError(t, err)
	_, err = peers.alice.ECDHEStep2(m1)
	require.ErrorIs(t, err, ErrSignatureInvalid)

	b1, err := peers.bob.ECDHEStep1()
	require.NoError(t, err)
	_, err = peers.alice.ECDHEStep2(b1)
	assert.ErrorIs(t, err, ErrHandshakeState, "the forged payload ended the pending handshake")

	_, err = peers.bob.ECDHEStep2(stale)
	require.NoError(t, err)

	aliceKey, bobKey := peers.handshake(t)
	assert.Equal(t, aliceKey, bobKey, "a fresh ECDHEStep1 on both sides recovers")
}

func TestParseHandshake(t *testing.T) {
	withLen := func(n uint32, rest ...byte) []byte {
		return append(binary.BigEndian.AppendUint32(nil, n), rest...)
	}

	tests := []struct {
		name    string
		payload []byte
		want    error
	}{
		{"empty", nil, ErrMalformedMessage},
		{"zero key length", withLen(0, 1, 2), ErrMalformedMessage},
		{"key exceeds payload", withLen(5, 1, 2, 3), ErrMessageTooLarge},
		{"key over bound", withLen(1 << 20), ErrMessageTooLarge},
		{"missing signature", withLen(2, 1, 2), ErrMalformedMessage},
		{"oversized payload", withLen(2, make([]byte, 9000)...), ErrMessageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseHandshake(tt.payload)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	key, sig, err := parseHandshake(withLen(2, 1, 2, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, key)
	assert.Equal(t, []byte{3, 4}, sig)
}

func TestAsymCryptorDHEncrypt(t *testing.T) {
	peers := newDHPeers(t, Secp521r1Params)
	_, err := peers.alice.Encrypt([]byte("too early"))
	assert.ErrorIs(t, err, ErrNoKey)
	_, err = peers.alice.Decrypt(make([]byte, 40))
	assert.ErrorIs(t, err, ErrNoKey)

	peers.handshake(t)

	ct1, err := peers.alice.Encrypt([]byte("hello"))
	require.NoError(t, err)
	ct2, err := peers.alice.Encrypt([]byte("hello"))
	require.NoError(t, err)
	assert.NotEqual(t, ct1[:12], ct2[:12], "fresh IV per call")
	assert.Len(t, ct1, 12+5+16)

	pt, err := peers.bob.Decrypt(ct1)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), pt)

	ct1[len(ct1)-1] ^= 0x01
	_, err = peers.bob.Decrypt(ct1)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestAsymCryptorDHIVPerKey(t *testing.T) {
	peers := newDHPeers(t, Secp256k1Params)
	peers.handshake(t)

	ct1, err := peers.alice.Encrypt([]byte("a"))
	require.NoError(t, err)
	msg, err := peers.alice.EncryptWithAEAData([]byte("b"), nil)
	require.NoError(t, err)
	assert.Equal(t, ct1[:4], msg.IV()[:4], "one salt per installed key")
	assert.NotEqual(t, ct1[4:12], msg.IV()[4:], "a nonce is never reused")

	peers.handshake(t)
	ct2, err := peers.alice.Encrypt([]byte("c"))
	require.NoError(t, err)
	assert.NotEqual(t, ct1[:4], ct2[:4], "a new key draws a new salt")

	pt, err := peers.bob.Decrypt(ct2)
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), pt)
}

func TestAsymCryptorDHAEAD(t *testing.T) {
	peers := newDHPeers(t, Secp256k1Params)
	_, err := peers.alice.CalculateSharedKey()
	require.NoError(t, err)
	_, err = peers.bob.CalculateSharedKey()
	require.NoError(t, err)

	msg, err := peers.alice.EncryptWithAEAData([]byte("body"), []byte("header"))
	require.NoError(t, err)
	parsed, err := ParseAEADCiphered(msg.Bytes(), Secp256k1Params)
	require.NoError(t, err)

	res, err := peers.bob.DecryptWithAEAData(parsed)
	require.NoError(t, err)
	assert.True(t, res.Authenticated)
	assert.Equal(t, []byte("body"), res.Plaintext)
	assert.Equal(t, []byte("header"), res.AAText)
}

func TestAsymCryptorDHClear(t *testing.T) {
	peers := newDHPeers(t, Prime256v1Params)
	_, err := peers.alice.CalculateSharedKey()
	require.NoError(t, err)
	_, err = peers.alice.ECDHEStep1()
	require.NoError(t, err)

	peers.alice.Clear()
	assert.False(t, peers.alice.HasKey())
	assert.False(t, peers.alice.HandshakePending())
	_, err = peers.alice.Encrypt([]byte("x"))
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestAsymCryptorDHRequiresKeys(t *testing.T) {
	dh, err := NewFactory(Prime256v1Params).AsymCryptorDH()
	require.NoError(t, err)

	_, err = dh.CalculateSharedKey()
	assert.ErrorIs(t, err, ErrNoKey)
	_, err = dh.ECDHEStep1()
	assert.ErrorIs(t, err, ErrNoKey)
}

func TestAsymCryptorDHNotForRSA(t *testing.T) {
	_, err := NewFactory(RSA2048Params).AsymCryptorDH()
	assert.ErrorIs(t, err, ErrNotSupported)
	assert.ErrorIs(t, err, ErrCryptoNotValid)
}

// FuzzParseHandshake checks that arbitrary step 1 payloads never panic
// and never yield a key longer than the bound.
func FuzzParseHandshake(f *testing.F) {
	f.Add(append(binary.BigEndian.AppendUint32(nil, 2), 1, 2, 3))
	f.Add([]byte{0xff, 0xff, 0xff, 0xff})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, payload []byte) {
		key, sig, err := parseHandshake(payload)
		if err != nil {
			return
		}
		if len(key) == 0 || len(key) > 1024 || len(sig) == 0 {
			t.Errorf("accepted key of %d bytes with %d byte signature", len(key), len(sig))
		}
	})
}
