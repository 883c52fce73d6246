package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"paykit/internal/domain"
	"paykit/internal/util/memzero"
)

const (
	currentKeypairFile = "noise_current.enc"
	nextKeypairFile    = "noise_next.enc"
)

// KeypairFileStore caches epoch'd Noise keypairs encrypted at rest.
// Exactly one current and at most one next keypair exist at a time.
type KeypairFileStore struct {
	dir string
	mu  sync.Mutex
}

func NewKeypairFileStore(dir string) *KeypairFileStore { return &KeypairFileStore{dir: dir} }

func (s *KeypairFileStore) SaveCurrentKeypair(passphrase string, kp domain.NoiseKeypair) error {
	return s.save(currentKeypairFile, passphrase, kp)
}

func (s *KeypairFileStore) LoadCurrentKeypair(passphrase string) (domain.NoiseKeypair, error) {
	kp, ok, err := s.load(currentKeypairFile, passphrase)
	if err != nil {
		return domain.NoiseKeypair{}, err
	}
	if !ok {
		return domain.NoiseKeypair{}, fmt.Errorf("%w: no current noise keypair", domain.ErrNotConfigured)
	}
	return kp, nil
}

func (s *KeypairFileStore) SaveNextKeypair(passphrase string, kp domain.NoiseKeypair) error {
	return s.save(nextKeypairFile, passphrase, kp)
}

func (s *KeypairFileStore) LoadNextKeypair(passphrase string) (domain.NoiseKeypair, bool, error) {
	return s.load(nextKeypairFile, passphrase)
}

func (s *KeypairFileStore) ClearNextKeypair() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(filepath.Join(s.dir, nextKeypairFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *KeypairFileStore) save(file, passphrase string, kp domain.NoiseKeypair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(kp)
	if err != nil {
		return err
	}
	sealed, err := sealBlob(passphrase, raw)
	memzero.Zero(raw)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, file), sealed, 0o600)
}

func (s *KeypairFileStore) load(file, passphrase string) (domain.NoiseKeypair, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := readFile(filepath.Join(s.dir, file))
	if err != nil {
		return domain.NoiseKeypair{}, false, err
	}
	if sealed == nil {
		return domain.NoiseKeypair{}, false, nil
	}
	raw, err := openBlob(passphrase, sealed)
	if err != nil {
		return domain.NoiseKeypair{}, false, err
	}
	defer memzero.Zero(raw)

	var kp domain.NoiseKeypair
	if err := json.Unmarshal(raw, &kp); err != nil {
		return domain.NoiseKeypair{}, false, err
	}
	return kp, true, nil
}

var _ domain.KeypairStore = (*KeypairFileStore)(nil)
