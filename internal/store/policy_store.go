package store

import (
	"path/filepath"
	"sync"

	"paykit/internal/domain"
)

const (
	policyFile  = "autopay.json"
	historyFile = "autopay_history.json"
)

// policyDoc is the on-disk shape of the auto-pay policy.
type policyDoc struct {
	Config domain.AutoPayConfig   `json:"config"`
	Rules  []domain.AutoPayRule   `json:"rules"`
	Limits []domain.SpendingLimit `json:"limits"`
}

// PolicyFileStore persists auto-pay configuration, rules, limits and the
// decision history.
type PolicyFileStore struct {
	dir string
	mu  sync.Mutex
}

func NewPolicyFileStore(dir string) *PolicyFileStore { return &PolicyFileStore{dir: dir} }

func (s *PolicyFileStore) AutoPayConfig() (domain.AutoPayConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readDoc()
	return doc.Config, err
}

func (s *PolicyFileStore) SaveAutoPayConfig(cfg domain.AutoPayConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readDoc()
	if err != nil {
		return err
	}
	doc.Config = cfg
	return s.writeDoc(doc)
}

func (s *PolicyFileStore) Rules() ([]domain.AutoPayRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readDoc()
	return doc.Rules, err
}

func (s *PolicyFileStore) SaveRule(rule domain.AutoPayRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readDoc()
	if err != nil {
		return err
	}
	for i := range doc.Rules {
		if doc.Rules[i].ID == rule.ID {
			doc.Rules[i] = rule
			return s.writeDoc(doc)
		}
	}
	doc.Rules = append(doc.Rules, rule)
	return s.writeDoc(doc)
}

func (s *PolicyFileStore) DeleteRule(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readDoc()
	if err != nil {
		return err
	}
	kept := doc.Rules[:0]
	for _, r := range doc.Rules {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	doc.Rules = kept
	return s.writeDoc(doc)
}

func (s *PolicyFileStore) PeerLimits() ([]domain.SpendingLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readDoc()
	return doc.Limits, err
}

func (s *PolicyFileStore) SavePeerLimit(limit domain.SpendingLimit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.readDoc()
	if err != nil {
		return err
	}
	for i := range doc.Limits {
		if doc.Limits[i].Peer.Equal(limit.Peer) {
			doc.Limits[i] = limit
			return s.writeDoc(doc)
		}
	}
	doc.Limits = append(doc.Limits, limit)
	return s.writeDoc(doc)
}

// History returns entries decided at or after since, oldest first.
func (s *PolicyFileStore) History(since int64) ([]domain.AutoPayHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []domain.AutoPayHistoryEntry
	if err := readJSON(filepath.Join(s.dir, historyFile), &all); err != nil {
		return nil, err
	}
	out := all[:0]
	for _, e := range all {
		if e.DecidedAt >= since {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *PolicyFileStore) AppendHistory(entry domain.AutoPayHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []domain.AutoPayHistoryEntry
	if err := readJSON(filepath.Join(s.dir, historyFile), &all); err != nil {
		return err
	}
	all = append(all, entry)
	return writeJSON(filepath.Join(s.dir, historyFile), all, 0o600)
}

func (s *PolicyFileStore) HasPaidPeer(peer domain.PeerIdentity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []domain.AutoPayHistoryEntry
	if err := readJSON(filepath.Join(s.dir, historyFile), &all); err != nil {
		return false, err
	}
	for _, e := range all {
		if e.Peer.Equal(peer) {
			return true, nil
		}
	}
	return false, nil
}

func (s *PolicyFileStore) readDoc() (policyDoc, error) {
	var doc policyDoc
	err := readJSON(filepath.Join(s.dir, policyFile), &doc)
	return doc, err
}

func (s *PolicyFileStore) writeDoc(doc policyDoc) error {
	return writeJSON(filepath.Join(s.dir, policyFile), doc, 0o600)
}

var _ domain.PolicyStore = (*PolicyFileStore)(nil)
