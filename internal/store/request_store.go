package store

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"paykit/internal/domain"
)

const (
	requestsFile  = "requests.json"  // map[id]PaymentRequest
	proposalsFile = "proposals.json" // map[id]SubscriptionProposal
)

// RequestFileStore persists payment requests and subscription proposals.
type RequestFileStore struct {
	dir string
	mu  sync.Mutex
}

func NewRequestFileStore(dir string) *RequestFileStore { return &RequestFileStore{dir: dir} }

func (s *RequestFileStore) SavePaymentRequest(req domain.PaymentRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]domain.PaymentRequest)
	if err := readJSON(filepath.Join(s.dir, requestsFile), &m); err != nil {
		return err
	}
	m[req.ID] = req
	return writeJSON(filepath.Join(s.dir, requestsFile), m, 0o600)
}

func (s *RequestFileStore) GetPaymentRequest(id string) (domain.PaymentRequest, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]domain.PaymentRequest)
	if err := readJSON(filepath.Join(s.dir, requestsFile), &m); err != nil {
		return domain.PaymentRequest{}, false, err
	}
	req, ok := m[id]
	return req, ok, nil
}

func (s *RequestFileStore) ListPaymentRequests() ([]domain.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]domain.PaymentRequest)
	if err := readJSON(filepath.Join(s.dir, requestsFile), &m); err != nil {
		return nil, err
	}
	out := make([]domain.PaymentRequest, 0, len(m))
	for _, req := range m {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

// UpdateRequestStatus applies a status change, rejecting transitions that
// would move a request backwards out of a terminal state.
func (s *RequestFileStore) UpdateRequestStatus(id string, status domain.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]domain.PaymentRequest)
	if err := readJSON(filepath.Join(s.dir, requestsFile), &m); err != nil {
		return err
	}
	req, ok := m[id]
	if !ok {
		return fmt.Errorf("%w: request %s", domain.ErrNotFound, id)
	}
	if !req.Status.CanTransition(status) {
		return fmt.Errorf("invalid status transition %s -> %s for request %s", req.Status, status, id)
	}
	req.Status = status
	m[id] = req
	return writeJSON(filepath.Join(s.dir, requestsFile), m, 0o600)
}

func (s *RequestFileStore) SaveSubscriptionProposal(p domain.SubscriptionProposal) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]domain.SubscriptionProposal)
	if err := readJSON(filepath.Join(s.dir, proposalsFile), &m); err != nil {
		return err
	}
	// Proposals are immutable once stored.
	if _, exists := m[p.ID]; exists {
		return nil
	}
	m[p.ID] = p
	return writeJSON(filepath.Join(s.dir, proposalsFile), m, 0o600)
}

func (s *RequestFileStore) ListSubscriptionProposals() ([]domain.SubscriptionProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := make(map[string]domain.SubscriptionProposal)
	if err := readJSON(filepath.Join(s.dir, proposalsFile), &m); err != nil {
		return nil, err
	}
	out := make([]domain.SubscriptionProposal, 0, len(m))
	for _, p := range m {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

var _ domain.RequestStore = (*RequestFileStore)(nil)
