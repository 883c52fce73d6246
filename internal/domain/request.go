package domain

import "fmt"

// RequestStatus is the lifecycle state of a payment request.
type RequestStatus string

const (
	StatusPending RequestStatus = "pending"
	StatusPaid    RequestStatus = "paid"
	StatusDenied  RequestStatus = "denied"
	StatusExpired RequestStatus = "expired"
	StatusError   RequestStatus = "error"
)

// Direction records which side of the exchange a stored request is on.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// PaymentRequest is a request for payment from one peer to another.
type PaymentRequest struct {
	ID          string        `json:"id"`
	FromPubkey  PeerIdentity  `json:"from_pubkey"`
	ToPubkey    PeerIdentity  `json:"to_pubkey"`
	AmountSats  uint64        `json:"amount_sats"`
	Currency    string        `json:"currency"`
	MethodID    string        `json:"method_id"`
	Description string        `json:"description,omitempty"`
	CreatedAt   int64         `json:"created_at"`
	ExpiresAt   int64         `json:"expires_at,omitempty"`
	Status      RequestStatus `json:"status"`
	Direction   Direction     `json:"direction,omitempty"`
}

// Validate rejects malformed requests before they enter the typed model.
func (r PaymentRequest) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: payment request missing id", ErrEncoding)
	}
	if r.FromPubkey == "" || r.ToPubkey == "" {
		return fmt.Errorf("%w: payment request %s missing peer identity", ErrEncoding, r.ID)
	}
	if r.AmountSats == 0 {
		return fmt.Errorf("%w: payment request %s has zero amount", ErrEncoding, r.ID)
	}
	return nil
}

// CanTransition reports whether a status change is allowed. Requests move
// pending -> {paid, denied, expired, error} and never backwards.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	if s == to {
		return true
	}
	if s != StatusPending {
		return false
	}
	switch to {
	case StatusPaid, StatusDenied, StatusExpired, StatusError:
		return true
	}
	return false
}

// PaymentReceipt is returned by the external payment backend on success.
type PaymentReceipt struct {
	PaymentID string `json:"payment_id"`
	Preimage  string `json:"preimage,omitempty"`
	FeeSats   uint64 `json:"fee_sats"`
	PaidAt    int64  `json:"paid_at"`
}
