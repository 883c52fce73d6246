package domain

import "fmt"

// NoiseEndpoint is the reachability document a peer publishes at the
// discovery path so others can open a direct Noise channel to it.
type NoiseEndpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// PubKey is the peer's current Noise static public key, z-base32.
	PubKey   PeerIdentity      `json:"pubkey"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate rejects endpoint documents that cannot be dialed.
func (e NoiseEndpoint) Validate() error {
	if e.PubKey == "" {
		return fmt.Errorf("%w: endpoint missing pubkey", ErrEncoding)
	}
	if e.Host == "" || e.Port <= 0 || e.Port > 65535 {
		return fmt.Errorf("%w: endpoint has invalid address %s:%d", ErrEncoding, e.Host, e.Port)
	}
	return nil
}

// Addr returns the dialable host:port form of the endpoint.
func (e NoiseEndpoint) Addr() string { return fmt.Sprintf("%s:%d", e.Host, e.Port) }

// Message types carried over the synchronous Noise channel.
const (
	MsgTypeRequestReceipt = "request_receipt"
	MsgTypeConfirmReceipt = "confirm_receipt"
)

// NoisePaymentRequest is the request_receipt message sent by the initiator.
// Amount travels as a decimal string, matching the envelope wire format.
type NoisePaymentRequest struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Payer       string `json:"payer"`
	Payee       string `json:"payee"`
	MethodID    string `json:"method_id"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
}

// NoisePaymentResponse is the confirm_receipt reply from the responder.
type NoisePaymentResponse struct {
	Type        string `json:"type"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	ConfirmedAt int64  `json:"confirmed_at"`
}

// WakeType classifies a push-wake signal.
type WakeType string

const (
	WakePaymentRequest WakeType = "payment_request"
	WakeNoiseConnect   WakeType = "noise_connect"
)

// RelayRegistration is returned by the push relay after registering a
// device token.
type RelayRegistration struct {
	ExpiresAt int64 `json:"expires_at"`
}
