package store

import (
	"path/filepath"
	"sync"

	"paykit/internal/domain"
)

const pendingFile = "pending.json" // map[correlationID]pendingEntry

type pendingEntry struct {
	Payload   []byte `json:"payload"`
	ExpiresAt int64  `json:"expires_at"`
}

// PendingFileStore is the correlation-id map used for cross-process
// handoff. Entries are resolved exactly once or reaped at expiry.
type PendingFileStore struct {
	dir string
	mu  sync.Mutex
}

func NewPendingFileStore(dir string) *PendingFileStore { return &PendingFileStore{dir: dir} }

func (s *PendingFileStore) PutPending(correlationID string, payload []byte, expiresAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]pendingEntry)
	if err := readJSON(filepath.Join(s.dir, pendingFile), &m); err != nil {
		return err
	}
	m[correlationID] = pendingEntry{Payload: payload, ExpiresAt: expiresAt}
	return writeJSON(filepath.Join(s.dir, pendingFile), m, 0o600)
}

// ResolvePending returns and removes the entry for correlationID.
func (s *PendingFileStore) ResolvePending(correlationID string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]pendingEntry)
	if err := readJSON(filepath.Join(s.dir, pendingFile), &m); err != nil {
		return nil, false, err
	}
	e, ok := m[correlationID]
	if !ok {
		return nil, false, nil
	}
	delete(m, correlationID)
	if err := writeJSON(filepath.Join(s.dir, pendingFile), m, 0o600); err != nil {
		return nil, false, err
	}
	return e.Payload, true, nil
}

// ExpirePending removes entries that expired at or before now.
func (s *PendingFileStore) ExpirePending(now int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]pendingEntry)
	if err := readJSON(filepath.Join(s.dir, pendingFile), &m); err != nil {
		return 0, err
	}
	reaped := 0
	for id, e := range m {
		if e.ExpiresAt <= now {
			delete(m, id)
			reaped++
		}
	}
	if reaped == 0 {
		return 0, nil
	}
	return reaped, writeJSON(filepath.Join(s.dir, pendingFile), m, 0o600)
}

var _ domain.PendingStore = (*PendingFileStore)(nil)
