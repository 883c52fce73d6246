package domain

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

func (p X25519Public) Slice() []byte { return p[:] }

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

func (k X25519Private) Slice() []byte { return k[:] }

// Ed25519Public is a signing public key.
type Ed25519Public [32]byte

func (p Ed25519Public) Slice() []byte { return p[:] }

// Ed25519Private is a signing private key (ed25519.PrivateKey layout).
type Ed25519Private [64]byte

func (k Ed25519Private) Slice() []byte { return k[:] }

// Identity holds the long-term signing keys stored locally. The public
// identity string is the z-base32 form of the Ed25519 public key.
type Identity struct {
	EdPub  Ed25519Public
	EdPriv Ed25519Private
}

// NoiseKeypair is an X25519 keypair tied to a device and a rotation epoch.
//
// The keyring caches exactly one "current" epoch and at most one "next"
// epoch at a time; older epochs are discarded when superseded.
type NoiseKeypair struct {
	Public   X25519Public
	Secret   X25519Private
	DeviceID string
	Epoch    uint64
}
