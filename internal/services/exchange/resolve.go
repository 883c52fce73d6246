package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"paykit/internal/domain"
	"paykit/internal/protocol/addressing"
)

// Resolver finds a peer's published Noise endpoint. A primary resolver is
// consulted first when present; a "not configured" answer from it falls
// back to a direct fetch of the peer's discovery document. Not-found stays
// a hard failure on either path.
type Resolver struct {
	primary   domain.EndpointResolver
	directory domain.DirectoryClient
	log       *zap.Logger
}

func NewResolver(primary domain.EndpointResolver, directory domain.DirectoryClient, log *zap.Logger) *Resolver {
	return &Resolver{primary: primary, directory: directory, log: log}
}

func (r *Resolver) ResolveNoiseEndpoint(ctx context.Context, peer domain.PeerIdentity) (domain.NoiseEndpoint, error) {
	if r.primary != nil {
		ep, err := r.primary.ResolveNoiseEndpoint(ctx, peer)
		if err == nil {
			return ep, nil
		}
		if !errors.Is(err, domain.ErrNotConfigured) {
			return domain.NoiseEndpoint{}, err
		}
		r.log.Debug("primary resolver not configured, falling back to directory",
			zap.String("peer", string(peer.Normalize())))
	}
	return r.fetchDirect(ctx, peer)
}

func (r *Resolver) fetchDirect(ctx context.Context, peer domain.PeerIdentity) (domain.NoiseEndpoint, error) {
	raw, err := r.directory.Get(ctx, peer, addressing.NoiseEndpointPath())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NoiseEndpoint{}, fmt.Errorf("%w: %s has no discovery document", domain.ErrEndpointNotFound, peer.Normalize())
		}
		return domain.NoiseEndpoint{}, err
	}
	var ep domain.NoiseEndpoint
	if err := json.Unmarshal(raw, &ep); err != nil {
		return domain.NoiseEndpoint{}, fmt.Errorf("%w: discovery document malformed: %v", domain.ErrEncoding, err)
	}
	if err := ep.Validate(); err != nil {
		return domain.NoiseEndpoint{}, err
	}
	return ep, nil
}

var _ domain.EndpointResolver = (*Resolver)(nil)
