package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paykit/internal/crypto"
	"paykit/internal/domain"
	"paykit/internal/protocol/addressing"
	"paykit/internal/store"
)

// memDirectory is a shared in-memory directory store; each party gets a
// view bound to its own identity for writes.
type memDirectory struct {
	mu   sync.Mutex
	docs map[domain.PeerIdentity]map[string][]byte
}

func newMemDirectory() *memDirectory {
	return &memDirectory{docs: make(map[domain.PeerIdentity]map[string][]byte)}
}

type dirView struct {
	m    *memDirectory
	self domain.PeerIdentity
}

func (d *dirView) Get(_ context.Context, owner domain.PeerIdentity, path string) ([]byte, error) {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	body, ok := d.m.docs[owner.Normalize()][path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return body, nil
}

func (d *dirView) Put(_ context.Context, path string, body []byte) error {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	if d.m.docs[d.self] == nil {
		d.m.docs[d.self] = make(map[string][]byte)
	}
	d.m.docs[d.self][path] = body
	return nil
}

func (d *dirView) Delete(_ context.Context, path string) error {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	delete(d.m.docs[d.self], path)
	return nil
}

func (d *dirView) List(_ context.Context, owner domain.PeerIdentity, prefix string) ([]string, error) {
	d.m.mu.Lock()
	defer d.m.mu.Unlock()
	var ids []string
	for path := range d.m.docs[owner.Normalize()] {
		if strings.HasPrefix(path, prefix+"/") {
			ids = append(ids, strings.TrimPrefix(path, prefix+"/"))
		}
	}
	return ids, nil
}

type fakeCustody struct {
	kp domain.NoiseKeypair
	id domain.PeerIdentity
}

func newFakeCustody(t *testing.T, device string) *fakeCustody {
	t.Helper()
	priv, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	return &fakeCustody{
		kp: domain.NoiseKeypair{Public: pub, Secret: priv, DeviceID: device, Epoch: 1},
		id: crypto.EncodeIdentity(pub),
	}
}

func (c *fakeCustody) CurrentKeypair(uint64) (domain.NoiseKeypair, error) { return c.kp, nil }
func (c *fakeCustody) Identity() (domain.PeerIdentity, error)            { return c.id, nil }
func (c *fakeCustody) Sign([]byte) ([]byte, error)                       { return []byte("sig"), nil }

// party bundles one side of an exchange for tests.
type party struct {
	custody *fakeCustody
	dir     *dirView
	svc     *Service
	reqs    *store.RequestFileStore
}

func newParty(t *testing.T, shared *memDirectory, device string) *party {
	t.Helper()
	custody := newFakeCustody(t, device)
	dir := &dirView{m: shared, self: custody.id.Normalize()}
	reqs := store.NewRequestFileStore(t.TempDir())
	log := zap.NewNop()
	svc := NewService(dir, NewResolver(nil, dir, log), custody, reqs, log)
	require.NoError(t, svc.PublishEndpoint(context.Background(), "127.0.0.1", 9735))
	return &party{custody: custody, dir: dir, svc: svc, reqs: reqs}
}

func pendingRequest(from, to domain.PeerIdentity) domain.PaymentRequest {
	return domain.PaymentRequest{
		ID:         "req-1",
		FromPubkey: from,
		ToPubkey:   to,
		AmountSats: 2500,
		Currency:   "SAT",
		MethodID:   "lightning",
		CreatedAt:  time.Now().Unix(),
		Status:     domain.StatusPending,
	}
}

func TestPublishDiscover_RoundTrip(t *testing.T) {
	shared := newMemDirectory()
	sender := newParty(t, shared, "sender")
	recipient := newParty(t, shared, "recipient")

	req := pendingRequest(sender.custody.id, recipient.custody.id)
	require.NoError(t, sender.svc.PublishPaymentRequest(context.Background(), req))

	got, err := recipient.svc.Discover(context.Background(), sender.custody.id)
	require.NoError(t, err)
	require.Len(t, got.Requests, 1)
	assert.Equal(t, req.ID, got.Requests[0].ID)
	assert.Equal(t, req.AmountSats, got.Requests[0].AmountSats)
	assert.Equal(t, domain.DirectionIncoming, got.Requests[0].Direction)

	// A third party listing the same storage cannot open the envelope.
	eve := newParty(t, shared, "eve")
	fromEve, err := eve.svc.Discover(context.Background(), sender.custody.id)
	require.NoError(t, err)
	assert.Empty(t, fromEve.Requests)
}

func TestPublish_NoEndpointIsEncryptionFailure(t *testing.T) {
	shared := newMemDirectory()
	sender := newParty(t, shared, "sender")

	// Recipient never published an endpoint.
	stranger := newFakeCustody(t, "stranger")
	req := pendingRequest(sender.custody.id, stranger.id)
	err := sender.svc.PublishPaymentRequest(context.Background(), req)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEncryptionFailed)
}

func TestDiscover_SkipsPlaintextAndForeignItems(t *testing.T) {
	shared := newMemDirectory()
	sender := newParty(t, shared, "sender")
	recipient := newParty(t, shared, "recipient")

	req := pendingRequest(sender.custody.id, recipient.custody.id)
	require.NoError(t, sender.svc.PublishPaymentRequest(context.Background(), req))

	// A plaintext document planted where envelopes live must be skipped,
	// never processed.
	prefix := addressing.RequestsPrefix(sender.custody.id, recipient.custody.id)
	plain, _ := json.Marshal(pendingRequest(sender.custody.id, recipient.custody.id))
	require.NoError(t, sender.dir.Put(context.Background(), prefix+"/plain-1", plain))

	got, err := recipient.svc.Discover(context.Background(), sender.custody.id)
	require.NoError(t, err)
	require.Len(t, got.Requests, 1)
	assert.Equal(t, "req-1", got.Requests[0].ID)
}

func TestDiscover_DiscardsSpoofedProposals(t *testing.T) {
	shared := newMemDirectory()
	provider := newParty(t, shared, "provider")
	subscriber := newParty(t, shared, "subscriber")
	impostor := newFakeCustody(t, "impostor")

	good := domain.SubscriptionProposal{
		ID:             "prop-good",
		ProviderPubkey: provider.custody.id,
		AmountSats:     100,
		Currency:       "SAT",
		Frequency:      domain.FrequencyMonthly,
		MethodID:       "lightning",
		CreatedAt:      time.Now().Unix(),
	}
	require.NoError(t, provider.svc.PublishSubscriptionProposal(context.Background(), good, subscriber.custody.id))

	spoofed := good
	spoofed.ID = "prop-spoofed"
	spoofed.ProviderPubkey = impostor.id
	require.NoError(t, provider.svc.PublishSubscriptionProposal(context.Background(), spoofed, subscriber.custody.id))

	got, err := subscriber.svc.Discover(context.Background(), provider.custody.id)
	require.NoError(t, err)
	require.Len(t, got.Proposals, 1)
	assert.Equal(t, "prop-good", got.Proposals[0].ID)
}

func TestDeletePaymentRequest_RemovesPublishedCopy(t *testing.T) {
	shared := newMemDirectory()
	sender := newParty(t, shared, "sender")
	recipient := newParty(t, shared, "recipient")

	req := pendingRequest(sender.custody.id, recipient.custody.id)
	require.NoError(t, sender.svc.PublishPaymentRequest(context.Background(), req))
	require.NoError(t, sender.svc.DeletePaymentRequest(context.Background(), recipient.custody.id, req.ID))

	got, err := recipient.svc.Discover(context.Background(), sender.custody.id)
	require.NoError(t, err)
	assert.Empty(t, got.Requests)
}

type staticResolver struct {
	ep  domain.NoiseEndpoint
	err error
}

func (r *staticResolver) ResolveNoiseEndpoint(context.Context, domain.PeerIdentity) (domain.NoiseEndpoint, error) {
	return r.ep, r.err
}

func TestResolver_FallbackOnlyOnNotConfigured(t *testing.T) {
	shared := newMemDirectory()
	peer := newParty(t, shared, "peer")
	log := zap.NewNop()

	// Primary not configured: the directory document answers.
	r := NewResolver(&staticResolver{err: domain.ErrNotConfigured}, peer.dir, log)
	ep, err := r.ResolveNoiseEndpoint(context.Background(), peer.custody.id)
	require.NoError(t, err)
	assert.Equal(t, 9735, ep.Port)

	// Any other primary failure is final; no fallback happens.
	r = NewResolver(&staticResolver{err: errors.New("resolver exploded")}, peer.dir, log)
	_, err = r.ResolveNoiseEndpoint(context.Background(), peer.custody.id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrEndpointNotFound)

	// Missing document stays a hard not-found.
	stranger := newFakeCustody(t, "stranger")
	r = NewResolver(nil, peer.dir, log)
	_, err = r.ResolveNoiseEndpoint(context.Background(), stranger.id)
	assert.ErrorIs(t, err, domain.ErrEndpointNotFound)
}

// oneShotListener hands out a single pre-established connection.
type oneShotListener struct {
	conn net.Conn
	once sync.Once
	ch   chan net.Conn
}

func newOneShotListener(conn net.Conn) *oneShotListener {
	return &oneShotListener{conn: conn, ch: make(chan net.Conn, 1)}
}

func (l *oneShotListener) Accept() (net.Conn, error) {
	l.once.Do(func() { l.ch <- l.conn })
	conn, ok := <-l.ch
	if !ok {
		return nil, net.ErrClosed
	}
	return conn, nil
}

func (l *oneShotListener) Close() error {
	defer func() { recover() }()
	close(l.ch)
	return nil
}

func (l *oneShotListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9735}
}

func TestSendDirect_FullExchange(t *testing.T) {
	shared := newMemDirectory()
	sender := newParty(t, shared, "sender")
	recipient := newParty(t, shared, "recipient")

	clientConn, serverConn := net.Pipe()
	sender.svc.dial = func(context.Context, string) (net.Conn, error) { return clientConn, nil }

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- recipient.svc.ServeOnce(context.Background(), newOneShotListener(serverConn))
	}()

	req := pendingRequest(sender.custody.id, recipient.custody.id)
	require.NoError(t, sender.svc.SendDirect(context.Background(), req))
	require.NoError(t, <-serveErr)

	saved, ok, err := recipient.reqs.GetPaymentRequest(req.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.StatusPending, saved.Status)
	assert.Equal(t, domain.DirectionIncoming, saved.Direction)
	assert.Equal(t, req.AmountSats, saved.AmountSats)
}

func TestSendDirect_WrongServerKeyFailsHandshake(t *testing.T) {
	shared := newMemDirectory()
	sender := newParty(t, shared, "sender")
	recipient := newParty(t, shared, "recipient")

	// The endpoint advertises the recipient, but an impostor answers the
	// connection with a different static key.
	impostor := newParty(t, shared, "impostor")

	clientConn, serverConn := net.Pipe()
	sender.svc.dial = func(context.Context, string) (net.Conn, error) { return clientConn, nil }

	go impostor.svc.ServeOnce(context.Background(), newOneShotListener(serverConn))

	req := pendingRequest(sender.custody.id, recipient.custody.id)
	err := sender.svc.SendDirect(context.Background(), req)
	require.Error(t, err)
}

func TestServeOnce_WindowExpires(t *testing.T) {
	shared := newMemDirectory()
	recipient := newParty(t, shared, "recipient")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = recipient.svc.ServeOnce(ctx, ln)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}
