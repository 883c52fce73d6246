package keyring

import (
	"errors"
	"fmt"
	"sync"

	"paykit/internal/crypto"
	"paykit/internal/domain"
)

// Keyring implements domain.KeyCustody over the encrypted file stores.
type Keyring struct {
	identities domain.IdentityStore
	keypairs   domain.KeypairStore
	passphrase string
	deviceID   string

	mu sync.Mutex
}

func New(identities domain.IdentityStore, keypairs domain.KeypairStore, passphrase, deviceID string) *Keyring {
	return &Keyring{
		identities: identities,
		keypairs:   keypairs,
		passphrase: passphrase,
		deviceID:   deviceID,
	}
}

// Init creates the long-term identity and the first Noise keypair if they
// do not exist yet. Calling Init on an initialized keyring is a no-op.
func (k *Keyring) Init() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	_, err := k.identities.LoadIdentity(k.passphrase)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotConfigured):
		edPriv, edPub, genErr := crypto.GenerateEd25519()
		if genErr != nil {
			return genErr
		}
		if saveErr := k.identities.SaveIdentity(k.passphrase, domain.Identity{EdPub: edPub, EdPriv: edPriv}); saveErr != nil {
			return saveErr
		}
	default:
		return err
	}

	_, err = k.keypairs.LoadCurrentKeypair(k.passphrase)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotConfigured):
		kp, genErr := k.generate(1)
		if genErr != nil {
			return genErr
		}
		return k.keypairs.SaveCurrentKeypair(k.passphrase, kp)
	default:
		return err
	}
}

// CurrentKeypair returns the keypair for epoch, or the current one when
// epoch is zero. The pre-staged next keypair is also resolvable by its
// epoch so peers can seal to it during a rotation window.
func (k *Keyring) CurrentKeypair(epoch uint64) (domain.NoiseKeypair, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	cur, err := k.keypairs.LoadCurrentKeypair(k.passphrase)
	if err != nil {
		return domain.NoiseKeypair{}, err
	}
	if epoch == 0 || epoch == cur.Epoch {
		return cur, nil
	}
	next, ok, err := k.keypairs.LoadNextKeypair(k.passphrase)
	if err != nil {
		return domain.NoiseKeypair{}, err
	}
	if ok && next.Epoch == epoch {
		return next, nil
	}
	return domain.NoiseKeypair{}, fmt.Errorf("%w: no keypair for epoch %d", domain.ErrNotFound, epoch)
}

// Identity returns the public identity string derived from the Ed25519
// public key.
func (k *Keyring) Identity() (domain.PeerIdentity, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	id, err := k.identities.LoadIdentity(k.passphrase)
	if err != nil {
		return "", err
	}
	return crypto.EncodeIdentity(id.EdPub), nil
}

// Fingerprint returns the short fingerprint of the public identity, for
// out-of-band comparison.
func (k *Keyring) Fingerprint() (domain.Fingerprint, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	id, err := k.identities.LoadIdentity(k.passphrase)
	if err != nil {
		return "", err
	}
	return domain.Fingerprint(crypto.Fingerprint(id.EdPub.Slice())), nil
}

// Sign signs message with the long-term identity key.
func (k *Keyring) Sign(message []byte) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	id, err := k.identities.LoadIdentity(k.passphrase)
	if err != nil {
		return nil, err
	}
	return crypto.SignEd25519(id.EdPriv, message), nil
}

// RotateBegin stages the keypair for the next epoch without activating
// it. Peers learn the new epoch from published metadata and may start
// sealing to it before the switch.
func (k *Keyring) RotateBegin() (domain.NoiseKeypair, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	cur, err := k.keypairs.LoadCurrentKeypair(k.passphrase)
	if err != nil {
		return domain.NoiseKeypair{}, err
	}
	next, err := k.generate(cur.Epoch + 1)
	if err != nil {
		return domain.NoiseKeypair{}, err
	}
	if err := k.keypairs.SaveNextKeypair(k.passphrase, next); err != nil {
		return domain.NoiseKeypair{}, err
	}
	return next, nil
}

// RotateCommit promotes the staged keypair to current. The superseded
// keypair is discarded.
func (k *Keyring) RotateCommit() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	next, ok, err := k.keypairs.LoadNextKeypair(k.passphrase)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no staged keypair to promote", domain.ErrNotFound)
	}
	if err := k.keypairs.SaveCurrentKeypair(k.passphrase, next); err != nil {
		return err
	}
	return k.keypairs.ClearNextKeypair()
}

func (k *Keyring) generate(epoch uint64) (domain.NoiseKeypair, error) {
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.NoiseKeypair{}, err
	}
	return domain.NoiseKeypair{Public: pub, Secret: priv, DeviceID: k.deviceID, Epoch: epoch}, nil
}

var _ domain.KeyCustody = (*Keyring)(nil)
