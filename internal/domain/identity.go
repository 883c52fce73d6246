package domain

import "strings"

// IdentityLength is the z-base32 length of an encoded 32-byte public key.
const IdentityLength = 52

// PeerIdentity is a z-base32 long-term public identity key.
type PeerIdentity string

// String returns the string form of the identity.
func (p PeerIdentity) String() string { return string(p) }

// Normalize strips an optional "pk:" prefix and lowercases the identity so
// that equivalent representations always compare (and hash) equal.
func (p PeerIdentity) Normalize() PeerIdentity {
	s := strings.TrimSpace(string(p))
	s = strings.TrimPrefix(s, "pk:")
	return PeerIdentity(strings.ToLower(s))
}

// Equal reports whether two identities refer to the same key after
// normalization.
func (p PeerIdentity) Equal(other PeerIdentity) bool {
	return p.Normalize() == other.Normalize()
}

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }
