// Package keyring is the local key custody: it owns the long-term Ed25519
// identity and the epoch'd X25519 Noise keypairs, both encrypted at rest,
// and signs canonical strings on behalf of the other components.
package keyring
