package domain

// SealedEnvelopeVersion is the current envelope wire version.
const SealedEnvelopeVersion = 1

// SealedEnvelope is the authenticated-encryption container stored in the
// directory. Ciphertext is bound to the recipient public key and to the
// exact AAD string used at encryption time; any mismatch fails closed.
type SealedEnvelope struct {
	// V is the envelope format version.
	V int `json:"v"`
	// EPK is the hex ephemeral X25519 public key.
	EPK string `json:"epk"`
	// Nonce is the hex AEAD nonce.
	Nonce string `json:"nonce"`
	// CT is the hex ciphertext (including the authentication tag).
	CT string `json:"ct"`
	// KID optionally names the recipient key epoch used for encryption.
	KID string `json:"kid,omitempty"`
	// Purpose optionally labels what the payload is for.
	Purpose string `json:"purpose,omitempty"`
}
