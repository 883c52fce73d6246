// Package addressing derives deterministic pairwise scopes and canonical
// directory paths. Only the two participants of an exchange can predict the
// path for it; a third party cannot enumerate conversations without already
// knowing both identities.
package addressing

import (
	"crypto/sha256"
	"encoding/hex"

	"paykit/internal/domain"
)

const (
	// AppPrefix is the root of all engine documents in a directory store.
	AppPrefix = "/pub/paykit"

	// ctxSeparator domain-separates context hashing from any other use of
	// the identity bytes.
	ctxSeparator = "paykit:v0:ctx"
)

// ContextID returns the deterministic scope id for an ordered pair of
// identities. Identities are normalized before hashing so equivalent
// representations always land in the same scope. The first identity is the
// publishing side, the second the consuming side; the two directions of a
// relationship are distinct scopes.
func ContextID(from, to domain.PeerIdentity) string {
	h := sha256.New()
	h.Write([]byte(ctxSeparator))
	h.Write([]byte(from.Normalize()))
	h.Write([]byte(to.Normalize()))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// PaymentRequestPath is where the sender stores a sealed request addressed
// to the recipient.
func PaymentRequestPath(sender, recipient domain.PeerIdentity, requestID string) string {
	return RequestsPrefix(sender, recipient) + "/" + requestID
}

// RequestsPrefix is the listing prefix for payment requests from sender to
// recipient.
func RequestsPrefix(sender, recipient domain.PeerIdentity) string {
	return AppPrefix + "/v0/requests/" + ContextID(sender, recipient)
}

// SubscriptionProposalPath is where the provider stores a sealed proposal
// addressed to the subscriber.
func SubscriptionProposalPath(provider, subscriber domain.PeerIdentity, proposalID string) string {
	return ProposalsPrefix(provider, subscriber) + "/" + proposalID
}

// ProposalsPrefix is the listing prefix for subscription proposals from
// provider to subscriber.
func ProposalsPrefix(provider, subscriber domain.PeerIdentity) string {
	return AppPrefix + "/v0/subscriptions/proposals/" + ContextID(provider, subscriber)
}

// NoiseEndpointPath is the well-known location of a peer's published Noise
// reachability document.
func NoiseEndpointPath() string {
	return AppPrefix + "/v0/noise"
}

// EnvelopeAAD builds the canonical colon-joined context string that binds a
// sealed envelope to exactly one owner, location and resource:
//
//	paykit:v0:<purpose>:<owner>:<path>:<resource>
func EnvelopeAAD(purpose string, owner domain.PeerIdentity, path, resourceID string) string {
	return "paykit:v0:" + purpose + ":" + string(owner.Normalize()) + ":" + path + ":" + resourceID
}

// Envelope purposes used by the exchange protocol.
const (
	PurposePaymentRequest       = "payment_request"
	PurposeSubscriptionProposal = "subscription_proposal"
)
