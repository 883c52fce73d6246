package domain

import (
	"context"
	"time"
)

// DirectoryClient is path-addressed access to the remote directory store.
// Reads are routed by owner identity and need no credential; writes and
// deletes apply only to the caller's own storage.
type DirectoryClient interface {
	// Get fetches a document from the owner's storage. A missing document
	// is ErrNotFound, never a generic error.
	Get(ctx context.Context, owner PeerIdentity, path string) ([]byte, error)
	// Put writes a document to the caller's own storage.
	Put(ctx context.Context, path string, body []byte) error
	// Delete removes a document from the caller's own storage.
	Delete(ctx context.Context, path string) error
	// List returns the immediate child names under prefix in the owner's
	// storage (shallow listing, resource ids only).
	List(ctx context.Context, owner PeerIdentity, prefix string) ([]string, error)
}

// EndpointResolver discovers a peer's published Noise endpoint. The primary
// resolver may report ErrNotConfigured, in which case callers fall back to
// a direct directory fetch; ErrNotFound stays a hard failure.
type EndpointResolver interface {
	ResolveNoiseEndpoint(ctx context.Context, peer PeerIdentity) (NoiseEndpoint, error)
}

// WakeClient talks to the push relay so a sleeping peer can be woken to
// stand up a Noise responder, without its push token ever being public.
type WakeClient interface {
	Register(ctx context.Context, pushToken string, capabilities []string) (RelayRegistration, error)
	Wake(ctx context.Context, recipient PeerIdentity, wakeType WakeType, payload map[string]string) error
}

// PaymentBackend executes a single payment attempt. Failures are terminal
// for the attempt; retry policy belongs to the coordinator.
type PaymentBackend interface {
	Pay(ctx context.Context, destination string, amountSats uint64, peer PeerIdentity) (PaymentReceipt, error)
}

// TaskHandler runs one background cycle. The context carries the external
// expiration signal; handlers stop starting new work once it is done.
type TaskHandler func(ctx context.Context) error

// Scheduler is the platform background-task capability: it invokes a
// registered handler periodically and accepts a request for the earliest
// next invocation.
type Scheduler interface {
	RegisterHandler(taskID string, handler TaskHandler)
	ScheduleNext(earliest time.Time) error
}

// Notifier presents a local notification to the user.
type Notifier interface {
	Notify(title, body string, metadata map[string]string)
}

// KeyCustody derives and rotates the long-term Noise keypairs and signs
// canonical strings with the identity key.
type KeyCustody interface {
	// CurrentKeypair returns the keypair for the given epoch, or the
	// current one when epoch is zero.
	CurrentKeypair(epoch uint64) (NoiseKeypair, error)
	// Identity returns the caller's own public identity.
	Identity() (PeerIdentity, error)
	// Sign signs message with the long-term identity key.
	Sign(message []byte) ([]byte, error)
}

// IdentityStore persists the long-term identity keys, encrypted at rest.
type IdentityStore interface {
	SaveIdentity(passphrase string, id Identity) error
	LoadIdentity(passphrase string) (Identity, error)
}

// KeypairStore caches epoch'd Noise keypairs, encrypted at rest. Exactly
// one current and at most one next keypair exist at a time.
type KeypairStore interface {
	SaveCurrentKeypair(passphrase string, kp NoiseKeypair) error
	LoadCurrentKeypair(passphrase string) (NoiseKeypair, error)
	SaveNextKeypair(passphrase string, kp NoiseKeypair) error
	LoadNextKeypair(passphrase string) (NoiseKeypair, bool, error)
	ClearNextKeypair() error
}

// RequestStore persists discovered and published payment requests and
// subscription proposals.
type RequestStore interface {
	SavePaymentRequest(req PaymentRequest) error
	GetPaymentRequest(id string) (PaymentRequest, bool, error)
	ListPaymentRequests() ([]PaymentRequest, error)
	// UpdateRequestStatus enforces the monotonic pending -> terminal rule.
	UpdateRequestStatus(id string, status RequestStatus) error

	SaveSubscriptionProposal(p SubscriptionProposal) error
	ListSubscriptionProposals() ([]SubscriptionProposal, error)
}

// SeenStore is the persisted dedupe set. Recipients cannot delete items
// from a peer's storage, so this is the only defense against reprocessing.
type SeenStore interface {
	// MarkSeen records the resource id and reports whether it was newly
	// marked (false means it had been seen before).
	MarkSeen(kind, resourceID string) (bool, error)
	Seen(kind, resourceID string) (bool, error)
}

// PolicyStore persists auto-pay configuration, rules, limits and history.
type PolicyStore interface {
	AutoPayConfig() (AutoPayConfig, error)
	SaveAutoPayConfig(cfg AutoPayConfig) error

	Rules() ([]AutoPayRule, error)
	SaveRule(rule AutoPayRule) error
	DeleteRule(id string) error

	PeerLimits() ([]SpendingLimit, error)
	SavePeerLimit(limit SpendingLimit) error

	// History returns entries decided at or after since (unix seconds).
	History(since int64) ([]AutoPayHistoryEntry, error)
	AppendHistory(entry AutoPayHistoryEntry) error

	// HasPaidPeer reports whether any payment to the peer was ever recorded.
	HasPaidPeer(peer PeerIdentity) (bool, error)
}

// PeerStore tracks the peers polled during discovery.
type PeerStore interface {
	AddPeer(peer PeerIdentity) error
	RemovePeer(peer PeerIdentity) error
	ListPeers() ([]PeerIdentity, error)
}

// PendingStore is the correlation-id map used for cross-process handoff:
// a pending entry is resolved by a direct callback or reaped at expiry.
type PendingStore interface {
	PutPending(correlationID string, payload []byte, expiresAt int64) error
	ResolvePending(correlationID string) ([]byte, bool, error)
	// ExpirePending removes entries that expired at or before now and
	// returns how many were reaped.
	ExpirePending(now int64) (int, error)
}
