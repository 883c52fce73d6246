package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"paykit/internal/domain"
	"paykit/internal/protocol/addressing"
	"paykit/internal/protocol/envelope"
)

// DialFunc opens the byte-stream transport for the synchronous path.
type DialFunc func(ctx context.Context, addr string) (net.Conn, error)

// Service is the payment-request exchange protocol over a directory store
// and, when a peer is reachable, a direct Noise channel.
type Service struct {
	directory domain.DirectoryClient
	resolver  *Resolver
	custody   domain.KeyCustody
	requests  domain.RequestStore
	log       *zap.Logger

	now       func() time.Time
	dial      DialFunc
	ioTimeout time.Duration
}

func NewService(directory domain.DirectoryClient, resolver *Resolver, custody domain.KeyCustody, requests domain.RequestStore, log *zap.Logger) *Service {
	d := &net.Dialer{}
	return &Service{
		directory: directory,
		resolver:  resolver,
		custody:   custody,
		requests:  requests,
		log:       log,
		now:       time.Now,
		dial: func(ctx context.Context, addr string) (net.Conn, error) {
			return d.DialContext(ctx, "tcp", addr)
		},
		ioTimeout: 30 * time.Second,
	}
}

// PublishPaymentRequest seals req to the recipient's Noise public key and
// writes it to the sender's own directory where the recipient will look.
func (s *Service) PublishPaymentRequest(ctx context.Context, req domain.PaymentRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	self, err := s.custody.Identity()
	if err != nil {
		return err
	}

	recipientPub, kid, err := s.recipientKey(ctx, req.ToPubkey)
	if err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEncoding, err)
	}
	path := addressing.PaymentRequestPath(self, req.ToPubkey, req.ID)
	aad := addressing.EnvelopeAAD(addressing.PurposePaymentRequest, self, path, req.ID)

	env, err := envelope.Seal(recipientPub, body, aad, addressing.PurposePaymentRequest, kid)
	if err != nil {
		return err
	}
	raw, err := envelope.Encode(env)
	if err != nil {
		return err
	}
	if err := s.directory.Put(ctx, path, raw); err != nil {
		return err
	}
	s.log.Info("published payment request",
		zap.String("id", req.ID),
		zap.String("recipient", string(req.ToPubkey.Normalize())))
	return nil
}

// PublishSubscriptionProposal seals p to the subscriber and writes it to
// the provider's own directory.
func (s *Service) PublishSubscriptionProposal(ctx context.Context, p domain.SubscriptionProposal, subscriber domain.PeerIdentity) error {
	if err := p.Validate(); err != nil {
		return err
	}
	self, err := s.custody.Identity()
	if err != nil {
		return err
	}

	subscriberPub, kid, err := s.recipientKey(ctx, subscriber)
	if err != nil {
		return err
	}

	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEncoding, err)
	}
	path := addressing.SubscriptionProposalPath(self, subscriber, p.ID)
	aad := addressing.EnvelopeAAD(addressing.PurposeSubscriptionProposal, self, path, p.ID)

	env, err := envelope.Seal(subscriberPub, body, aad, addressing.PurposeSubscriptionProposal, kid)
	if err != nil {
		return err
	}
	raw, err := envelope.Encode(env)
	if err != nil {
		return err
	}
	if err := s.directory.Put(ctx, path, raw); err != nil {
		return err
	}
	s.log.Info("published subscription proposal",
		zap.String("id", p.ID),
		zap.String("subscriber", string(subscriber.Normalize())))
	return nil
}

// DeletePaymentRequest removes a previously published request from the
// caller's own storage. Only the publisher can delete the remote copy.
func (s *Service) DeletePaymentRequest(ctx context.Context, recipient domain.PeerIdentity, requestID string) error {
	self, err := s.custody.Identity()
	if err != nil {
		return err
	}
	return s.directory.Delete(ctx, addressing.PaymentRequestPath(self, recipient, requestID))
}

// PublishEndpoint writes the caller's own Noise reachability document so
// peers can open direct channels.
func (s *Service) PublishEndpoint(ctx context.Context, host string, port int) error {
	kp, err := s.custody.CurrentKeypair(0)
	if err != nil {
		return err
	}
	ep := domain.NoiseEndpoint{
		Host:   host,
		Port:   port,
		PubKey: pubKeyIdentity(kp.Public),
		Metadata: map[string]string{
			"kid": fmt.Sprintf("%s:%d", kp.DeviceID, kp.Epoch),
		},
	}
	if err := ep.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(ep)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEncoding, err)
	}
	return s.directory.Put(ctx, addressing.NoiseEndpointPath(), raw)
}

// DiscoverResult is the outcome of polling one peer's storage.
type DiscoverResult struct {
	Requests  []domain.PaymentRequest
	Proposals []domain.SubscriptionProposal
}

// Discover lists the peer's directory for items addressed to the caller
// and opens each sealed envelope. Items that fail to decode, decrypt or
// validate are logged and skipped; a third party's foreign-keyed or
// malformed envelope is expected, not an error.
func (s *Service) Discover(ctx context.Context, peer domain.PeerIdentity) (DiscoverResult, error) {
	self, err := s.custody.Identity()
	if err != nil {
		return DiscoverResult{}, err
	}
	kp, err := s.custody.CurrentKeypair(0)
	if err != nil {
		return DiscoverResult{}, err
	}

	var out DiscoverResult
	reqPrefix := addressing.RequestsPrefix(peer, self)
	ids, err := s.directory.List(ctx, peer, reqPrefix)
	if err != nil {
		return DiscoverResult{}, err
	}
	for _, id := range ids {
		body, ok := s.openItem(ctx, peer, kp.Secret, addressing.PurposePaymentRequest, reqPrefix, id)
		if !ok {
			continue
		}
		var req domain.PaymentRequest
		if err := json.Unmarshal(body, &req); err != nil {
			s.skipItem(peer, id, fmt.Errorf("%w: %v", domain.ErrEncoding, err))
			continue
		}
		if err := req.Validate(); err != nil {
			s.skipItem(peer, id, err)
			continue
		}
		req.Direction = domain.DirectionIncoming
		if req.Status == "" {
			req.Status = domain.StatusPending
		}
		out.Requests = append(out.Requests, req)
	}

	propPrefix := addressing.ProposalsPrefix(peer, self)
	ids, err = s.directory.List(ctx, peer, propPrefix)
	if err != nil {
		return DiscoverResult{}, err
	}
	for _, id := range ids {
		body, ok := s.openItem(ctx, peer, kp.Secret, addressing.PurposeSubscriptionProposal, propPrefix, id)
		if !ok {
			continue
		}
		var p domain.SubscriptionProposal
		if err := json.Unmarshal(body, &p); err != nil {
			s.skipItem(peer, id, fmt.Errorf("%w: %v", domain.ErrEncoding, err))
			continue
		}
		if err := p.Validate(); err != nil {
			s.skipItem(peer, id, err)
			continue
		}
		// The provider identity claimed inside the payload must match the
		// peer whose storage the proposal came from.
		if !p.ProviderPubkey.Equal(peer) {
			s.log.Warn("discarding proposal with spoofed provider identity",
				zap.String("peer", string(peer.Normalize())),
				zap.String("claimed", string(p.ProviderPubkey.Normalize())),
				zap.String("proposal_id", p.ID))
			continue
		}
		out.Proposals = append(out.Proposals, p)
	}
	return out, nil
}

// openItem fetches and opens one sealed envelope from the peer's storage.
// It reports ok=false for anything that should be skipped.
func (s *Service) openItem(ctx context.Context, peer domain.PeerIdentity, secret domain.X25519Private, purpose, prefix, resourceID string) ([]byte, bool) {
	path := prefix + "/" + resourceID
	raw, err := s.directory.Get(ctx, peer, path)
	if err != nil {
		s.skipItem(peer, resourceID, err)
		return nil, false
	}
	env, err := envelope.Decode(raw)
	if err != nil {
		s.skipItem(peer, resourceID, err)
		return nil, false
	}
	aad := addressing.EnvelopeAAD(purpose, peer, path, resourceID)
	body, err := envelope.Open(secret, env, aad)
	if err != nil {
		s.skipItem(peer, resourceID, err)
		return nil, false
	}
	return body, true
}

func (s *Service) skipItem(peer domain.PeerIdentity, resourceID string, err error) {
	s.log.Debug("skipping discovered item",
		zap.String("peer", string(peer.Normalize())),
		zap.String("resource_id", resourceID),
		zap.Error(err))
}

// recipientKey resolves the peer's Noise endpoint and decodes its static
// public key. A peer without an endpoint cannot be sealed to.
func (s *Service) recipientKey(ctx context.Context, peer domain.PeerIdentity) (domain.X25519Public, string, error) {
	ep, err := s.resolver.ResolveNoiseEndpoint(ctx, peer)
	if err != nil {
		if errors.Is(err, domain.ErrEndpointNotFound) {
			return domain.X25519Public{}, "", fmt.Errorf("%w: no endpoint for %s", domain.ErrEncryptionFailed, peer.Normalize())
		}
		return domain.X25519Public{}, "", err
	}
	pub, err := decodePubKey(ep.PubKey)
	if err != nil {
		return domain.X25519Public{}, "", err
	}
	return pub, ep.Metadata["kid"], nil
}
