package store

import (
	"path/filepath"
	"sync"

	"paykit/internal/domain"
)

const peersFile = "peers.json" // []PeerIdentity

// PeerFileStore tracks the peers polled during discovery.
type PeerFileStore struct {
	dir string
	mu  sync.Mutex
}

func NewPeerFileStore(dir string) *PeerFileStore { return &PeerFileStore{dir: dir} }

func (s *PeerFileStore) AddPeer(peer domain.PeerIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var peers []domain.PeerIdentity
	if err := readJSON(filepath.Join(s.dir, peersFile), &peers); err != nil {
		return err
	}
	for _, p := range peers {
		if p.Equal(peer) {
			return nil
		}
	}
	peers = append(peers, peer.Normalize())
	return writeJSON(filepath.Join(s.dir, peersFile), peers, 0o600)
}

func (s *PeerFileStore) RemovePeer(peer domain.PeerIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var peers []domain.PeerIdentity
	if err := readJSON(filepath.Join(s.dir, peersFile), &peers); err != nil {
		return err
	}
	kept := peers[:0]
	for _, p := range peers {
		if !p.Equal(peer) {
			kept = append(kept, p)
		}
	}
	return writeJSON(filepath.Join(s.dir, peersFile), kept, 0o600)
}

func (s *PeerFileStore) ListPeers() ([]domain.PeerIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var peers []domain.PeerIdentity
	if err := readJSON(filepath.Join(s.dir, peersFile), &peers); err != nil {
		return nil, err
	}
	return peers, nil
}

var _ domain.PeerStore = (*PeerFileStore)(nil)
