package crypto

import (
	"encoding/base32"
	"fmt"

	"paykit/internal/domain"
)

// zbase32Alphabet is the z-base32 character set used for public identity
// keys: 32 bytes encode to exactly 52 characters, no padding.
const zbase32Alphabet = "ybndrfg8ejkmcpqxot1uwisza345h769"

var zbase32 = base32.NewEncoding(zbase32Alphabet).WithPadding(base32.NoPadding)

// EncodeIdentity renders a 32-byte public key as a z-base32 identity.
func EncodeIdentity(key [32]byte) domain.PeerIdentity {
	return domain.PeerIdentity(zbase32.EncodeToString(key[:]))
}

// DecodeIdentity normalizes and decodes an identity back to its 32 key
// bytes. Anything that is not a 52-character z-base32 string decoding to
// exactly 32 bytes is an ErrEncoding.
func DecodeIdentity(id domain.PeerIdentity) ([32]byte, error) {
	var key [32]byte
	norm := id.Normalize()
	if len(norm) != domain.IdentityLength {
		return key, fmt.Errorf("%w: identity must be %d chars, got %d", domain.ErrEncoding, domain.IdentityLength, len(norm))
	}
	raw, err := zbase32.DecodeString(string(norm))
	if err != nil {
		return key, fmt.Errorf("%w: identity is not z-base32: %v", domain.ErrEncoding, err)
	}
	if len(raw) != 32 {
		return key, fmt.Errorf("%w: identity decodes to %d bytes, want 32", domain.ErrEncoding, len(raw))
	}
	copy(key[:], raw)
	return key, nil
}
