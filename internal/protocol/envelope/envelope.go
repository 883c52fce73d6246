package envelope

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"paykit/internal/crypto"
	"paykit/internal/domain"
	"paykit/internal/util/memzero"
)

// hkdfInfoPrefix labels the derived AEAD key with the envelope purpose so
// the same agreement never yields the same key for two purposes.
const hkdfInfoPrefix = "paykit:v0:seal:"

// Seal encrypts plaintext to recipientPub, binding it to aad and purpose.
// kid optionally names the recipient key epoch so the recipient knows which
// secret to try first.
func Seal(recipientPub domain.X25519Public, plaintext []byte, aad, purpose, kid string) (domain.SealedEnvelope, error) {
	ephPriv, ephPub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.SealedEnvelope{}, fmt.Errorf("%w: ephemeral keygen: %v", domain.ErrEncryptionFailed, err)
	}
	defer memzero.Zero(ephPriv[:])

	key, err := deriveKey(ephPriv, recipientPub, purpose)
	if err != nil {
		return domain.SealedEnvelope{}, fmt.Errorf("%w: %v", domain.ErrEncryptionFailed, err)
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return domain.SealedEnvelope{}, fmt.Errorf("%w: %v", domain.ErrEncryptionFailed, err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return domain.SealedEnvelope{}, fmt.Errorf("%w: nonce: %v", domain.ErrEncryptionFailed, err)
	}
	ct := aead.Seal(nil, nonce, plaintext, []byte(aad))

	return domain.SealedEnvelope{
		V:       domain.SealedEnvelopeVersion,
		EPK:     hex.EncodeToString(ephPub[:]),
		Nonce:   hex.EncodeToString(nonce),
		CT:      hex.EncodeToString(ct),
		KID:     kid,
		Purpose: purpose,
	}, nil
}

// Open decrypts env with recipientPriv. The aad must match the exact string
// used at sealing time, or the open fails with ErrDecryptionFailed.
func Open(recipientPriv domain.X25519Private, env domain.SealedEnvelope, aad string) ([]byte, error) {
	if env.V != domain.SealedEnvelopeVersion {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", domain.ErrDecryptionFailed, env.V)
	}
	epkRaw, err := hex.DecodeString(env.EPK)
	if err != nil || len(epkRaw) != 32 {
		return nil, fmt.Errorf("%w: bad ephemeral key", domain.ErrDecryptionFailed)
	}
	nonce, err := hex.DecodeString(env.Nonce)
	if err != nil || len(nonce) != chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("%w: bad nonce", domain.ErrDecryptionFailed)
	}
	ct, err := hex.DecodeString(env.CT)
	if err != nil {
		return nil, fmt.Errorf("%w: bad ciphertext encoding", domain.ErrDecryptionFailed)
	}

	var epk domain.X25519Public
	copy(epk[:], epkRaw)
	key, err := deriveKey(recipientPriv, epk, env.Purpose)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryptionFailed, err)
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecryptionFailed, err)
	}
	pt, err := aead.Open(nil, nonce, ct, []byte(aad))
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", domain.ErrDecryptionFailed)
	}
	return pt, nil
}

// Encode renders the envelope as its JSON wire form.
func Encode(env domain.SealedEnvelope) ([]byte, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncoding, err)
	}
	return b, nil
}

// Decode parses raw bytes as a sealed envelope. Anything that does not
// carry the envelope shape (version, ephemeral key, nonce, ciphertext) is
// ErrNotAnEnvelope: a plaintext payload in an envelope's place must never
// be processed.
func Decode(raw []byte) (domain.SealedEnvelope, error) {
	var env domain.SealedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.SealedEnvelope{}, domain.ErrNotAnEnvelope
	}
	if env.V == 0 || env.EPK == "" || env.Nonce == "" || env.CT == "" {
		return domain.SealedEnvelope{}, domain.ErrNotAnEnvelope
	}
	return env, nil
}

// deriveKey runs the HKDF schedule over the X25519 agreement. The same
// function serves both directions: sealing uses (ephPriv, recipientPub),
// opening uses (recipientPriv, ephPub).
func deriveKey(priv domain.X25519Private, pub domain.X25519Public, purpose string) ([]byte, error) {
	shared, err := crypto.DH(priv, pub)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(shared[:])

	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, shared[:], nil, []byte(hkdfInfoPrefix+purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
