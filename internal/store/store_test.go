package store_test

import (
	"errors"
	"testing"
	"time"

	"paykit/internal/domain"
	"paykit/internal/store"
)

const passphrase = "correct horse battery staple"

func TestIdentityStore_RoundTripAndWrongPassphrase(t *testing.T) {
	s := store.NewIdentityFileStore(t.TempDir())

	var id domain.Identity
	for i := range id.EdPub {
		id.EdPub[i] = byte(i)
	}
	for i := range id.EdPriv {
		id.EdPriv[i] = byte(255 - i)
	}
	if err := s.SaveIdentity(passphrase, id); err != nil {
		t.Fatalf("SaveIdentity: %v", err)
	}
	got, err := s.LoadIdentity(passphrase)
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}
	if got != id {
		t.Fatal("identity round trip mismatch")
	}
	if _, err := s.LoadIdentity("wrong"); err == nil {
		t.Fatal("wrong passphrase must fail")
	}
}

func TestIdentityStore_MissingIsNotConfigured(t *testing.T) {
	s := store.NewIdentityFileStore(t.TempDir())
	if _, err := s.LoadIdentity(passphrase); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
}

func TestKeypairStore_CurrentAndNextEpochs(t *testing.T) {
	s := store.NewKeypairFileStore(t.TempDir())

	if _, err := s.LoadCurrentKeypair(passphrase); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured with empty store, got %v", err)
	}

	cur := domain.NoiseKeypair{DeviceID: "dev1", Epoch: 3}
	cur.Public[0] = 1
	if err := s.SaveCurrentKeypair(passphrase, cur); err != nil {
		t.Fatalf("SaveCurrentKeypair: %v", err)
	}
	got, err := s.LoadCurrentKeypair(passphrase)
	if err != nil {
		t.Fatalf("LoadCurrentKeypair: %v", err)
	}
	if got.Epoch != 3 || got.DeviceID != "dev1" {
		t.Fatalf("got %+v", got)
	}

	if _, ok, err := s.LoadNextKeypair(passphrase); err != nil || ok {
		t.Fatalf("next keypair should be absent: ok=%v err=%v", ok, err)
	}
	next := domain.NoiseKeypair{DeviceID: "dev1", Epoch: 4}
	if err := s.SaveNextKeypair(passphrase, next); err != nil {
		t.Fatalf("SaveNextKeypair: %v", err)
	}
	if _, ok, _ := s.LoadNextKeypair(passphrase); !ok {
		t.Fatal("next keypair should load")
	}
	if err := s.ClearNextKeypair(); err != nil {
		t.Fatalf("ClearNextKeypair: %v", err)
	}
	if _, ok, _ := s.LoadNextKeypair(passphrase); ok {
		t.Fatal("next keypair should be cleared")
	}
}

func TestRequestStore_StatusMonotonic(t *testing.T) {
	s := store.NewRequestFileStore(t.TempDir())
	req := domain.PaymentRequest{
		ID:         "req1",
		FromPubkey: "peer-a",
		ToPubkey:   "peer-b",
		AmountSats: 1000,
		Currency:   "SAT",
		MethodID:   "lightning",
		CreatedAt:  time.Now().Unix(),
		Status:     domain.StatusPending,
	}
	if err := s.SavePaymentRequest(req); err != nil {
		t.Fatalf("SavePaymentRequest: %v", err)
	}
	if err := s.UpdateRequestStatus("req1", domain.StatusPaid); err != nil {
		t.Fatalf("pending->paid: %v", err)
	}
	if err := s.UpdateRequestStatus("req1", domain.StatusPending); err == nil {
		t.Fatal("paid->pending must be rejected")
	}
	if err := s.UpdateRequestStatus("req1", domain.StatusDenied); err == nil {
		t.Fatal("paid->denied must be rejected")
	}
	if err := s.UpdateRequestStatus("missing", domain.StatusPaid); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestRequestStore_RejectsInvalid(t *testing.T) {
	s := store.NewRequestFileStore(t.TempDir())
	err := s.SavePaymentRequest(domain.PaymentRequest{ID: "x", FromPubkey: "a", ToPubkey: "b"})
	if !errors.Is(err, domain.ErrEncoding) {
		t.Fatalf("zero amount must be ErrEncoding, got %v", err)
	}
}

func TestRequestStore_ProposalsImmutable(t *testing.T) {
	s := store.NewRequestFileStore(t.TempDir())
	p := domain.SubscriptionProposal{
		ID:             "prop1",
		ProviderPubkey: "provider",
		AmountSats:     500,
		Currency:       "SAT",
		Frequency:      domain.FrequencyMonthly,
		MethodID:       "lightning",
		CreatedAt:      100,
	}
	if err := s.SaveSubscriptionProposal(p); err != nil {
		t.Fatalf("SaveSubscriptionProposal: %v", err)
	}
	mutated := p
	mutated.AmountSats = 9999
	if err := s.SaveSubscriptionProposal(mutated); err != nil {
		t.Fatalf("second save: %v", err)
	}
	list, err := s.ListSubscriptionProposals()
	if err != nil {
		t.Fatalf("ListSubscriptionProposals: %v", err)
	}
	if len(list) != 1 || list[0].AmountSats != 500 {
		t.Fatalf("proposal mutated: %+v", list)
	}
}

func TestSeenStore_MarkOnce(t *testing.T) {
	s := store.NewSeenFileStore(t.TempDir())
	fresh, err := s.MarkSeen("requests", "req1")
	if err != nil || !fresh {
		t.Fatalf("first mark: fresh=%v err=%v", fresh, err)
	}
	fresh, err = s.MarkSeen("requests", "req1")
	if err != nil || fresh {
		t.Fatalf("second mark must not be fresh: fresh=%v err=%v", fresh, err)
	}
	// Different kind is a different namespace.
	fresh, err = s.MarkSeen("proposals", "req1")
	if err != nil || !fresh {
		t.Fatalf("other kind: fresh=%v err=%v", fresh, err)
	}
	seen, err := s.Seen("requests", "req1")
	if err != nil || !seen {
		t.Fatalf("Seen: %v %v", seen, err)
	}
}

func TestPolicyStore_RoundTrip(t *testing.T) {
	s := store.NewPolicyFileStore(t.TempDir())

	cfg := domain.AutoPayConfig{Enabled: true, DailyLimitSats: 5000}
	if err := s.SaveAutoPayConfig(cfg); err != nil {
		t.Fatalf("SaveAutoPayConfig: %v", err)
	}
	got, err := s.AutoPayConfig()
	if err != nil || got != cfg {
		t.Fatalf("config round trip: %+v %v", got, err)
	}

	rule := domain.AutoPayRule{ID: "r1", MaxAmountSats: 1000, Enabled: true}
	if err := s.SaveRule(rule); err != nil {
		t.Fatalf("SaveRule: %v", err)
	}
	rule.MaxAmountSats = 2000
	if err := s.SaveRule(rule); err != nil {
		t.Fatalf("SaveRule update: %v", err)
	}
	rules, _ := s.Rules()
	if len(rules) != 1 || rules[0].MaxAmountSats != 2000 {
		t.Fatalf("rules = %+v", rules)
	}
	if err := s.DeleteRule("r1"); err != nil {
		t.Fatalf("DeleteRule: %v", err)
	}
	rules, _ = s.Rules()
	if len(rules) != 0 {
		t.Fatalf("rules after delete = %+v", rules)
	}
}

func TestPolicyStore_HistoryWindowAndHasPaid(t *testing.T) {
	s := store.NewPolicyFileStore(t.TempDir())
	entries := []domain.AutoPayHistoryEntry{
		{RequestID: "a", Peer: "peer-a", AmountSats: 100, DecidedAt: 100},
		{RequestID: "b", Peer: "peer-a", AmountSats: 200, DecidedAt: 200},
		{RequestID: "c", Peer: "peer-b", AmountSats: 300, DecidedAt: 300},
	}
	for _, e := range entries {
		if err := s.AppendHistory(e); err != nil {
			t.Fatalf("AppendHistory: %v", err)
		}
	}
	recent, err := s.History(200)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("History(200) = %+v", recent)
	}
	if ok, _ := s.HasPaidPeer("peer-a"); !ok {
		t.Fatal("peer-a should be recorded")
	}
	if ok, _ := s.HasPaidPeer("peer-c"); ok {
		t.Fatal("peer-c should not be recorded")
	}
}

func TestPendingStore_ResolveOnceAndExpire(t *testing.T) {
	s := store.NewPendingFileStore(t.TempDir())
	if err := s.PutPending("corr1", []byte("payload"), 100); err != nil {
		t.Fatalf("PutPending: %v", err)
	}
	body, ok, err := s.ResolvePending("corr1")
	if err != nil || !ok || string(body) != "payload" {
		t.Fatalf("ResolvePending: %q %v %v", body, ok, err)
	}
	if _, ok, _ := s.ResolvePending("corr1"); ok {
		t.Fatal("second resolve must miss")
	}

	_ = s.PutPending("old", nil, 50)
	_ = s.PutPending("new", nil, 500)
	n, err := s.ExpirePending(100)
	if err != nil || n != 1 {
		t.Fatalf("ExpirePending: n=%d err=%v", n, err)
	}
	if _, ok, _ := s.ResolvePending("new"); !ok {
		t.Fatal("unexpired entry must survive")
	}
}
