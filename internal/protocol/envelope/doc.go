// Package envelope implements the sealed-envelope codec: authenticated
// encryption of a payload to a recipient X25519 public key, bound to a
// canonical context string (AAD).
//
// An envelope is sealed with a fresh ephemeral keypair; the symmetric key is
// derived from the X25519 agreement via HKDF-SHA256, labeled with the
// envelope purpose, and the payload is encrypted with ChaCha20-Poly1305
// using the AAD verbatim. Opening with any other AAD, key, or a tampered
// ciphertext fails closed. Plaintext found where an envelope is expected is
// rejected, never silently accepted.
package envelope
