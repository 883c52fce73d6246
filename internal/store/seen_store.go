package store

import (
	"path/filepath"
	"sync"
	"time"

	"paykit/internal/domain"
)

const seenFile = "seen.json" // map[kind]map[resourceID]unixSeconds

// SeenFileStore is the persisted discovery dedupe set.
type SeenFileStore struct {
	dir string
	mu  sync.Mutex
}

func NewSeenFileStore(dir string) *SeenFileStore { return &SeenFileStore{dir: dir} }

// MarkSeen records the resource id and reports whether it was newly marked.
func (s *SeenFileStore) MarkSeen(kind, resourceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]map[string]int64)
	if err := readJSON(filepath.Join(s.dir, seenFile), &m); err != nil {
		return false, err
	}
	if _, ok := m[kind][resourceID]; ok {
		return false, nil
	}
	if m[kind] == nil {
		m[kind] = make(map[string]int64)
	}
	m[kind][resourceID] = time.Now().Unix()
	return true, writeJSON(filepath.Join(s.dir, seenFile), m, 0o600)
}

func (s *SeenFileStore) Seen(kind, resourceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]map[string]int64)
	if err := readJSON(filepath.Join(s.dir, seenFile), &m); err != nil {
		return false, err
	}
	_, ok := m[kind][resourceID]
	return ok, nil
}

var _ domain.SeenStore = (*SeenFileStore)(nil)
