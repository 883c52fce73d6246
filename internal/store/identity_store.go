package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"paykit/internal/domain"
	"paykit/internal/util/memzero"
)

const identityFile = "identity.enc"

// IdentityFileStore persists the long-term identity keys encrypted with a
// passphrase-derived key.
type IdentityFileStore struct {
	dir string
	mu  sync.Mutex
}

func NewIdentityFileStore(dir string) *IdentityFileStore { return &IdentityFileStore{dir: dir} }

func (s *IdentityFileStore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	sealed, err := sealBlob(passphrase, raw)
	memzero.Zero(raw)
	if err != nil {
		return err
	}
	return writeFile(filepath.Join(s.dir, identityFile), sealed, 0o600)
}

func (s *IdentityFileStore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := os.ReadFile(filepath.Join(s.dir, identityFile))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Identity{}, fmt.Errorf("%w: no identity on disk", domain.ErrNotConfigured)
		}
		return domain.Identity{}, err
	}
	raw, err := openBlob(passphrase, sealed)
	if err != nil {
		return domain.Identity{}, err
	}
	defer memzero.Zero(raw)

	var id domain.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return domain.Identity{}, err
	}
	return id, nil
}

var _ domain.IdentityStore = (*IdentityFileStore)(nil)
