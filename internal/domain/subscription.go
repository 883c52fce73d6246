package domain

import "fmt"

// SubscriptionFrequency is the billing cadence of a proposal.
type SubscriptionFrequency string

const (
	FrequencyDaily   SubscriptionFrequency = "daily"
	FrequencyWeekly  SubscriptionFrequency = "weekly"
	FrequencyMonthly SubscriptionFrequency = "monthly"
	FrequencyYearly  SubscriptionFrequency = "yearly"
)

// SubscriptionProposal is a recurring-payment offer from a provider to a
// subscriber. Proposals are immutable once published; a given
// (provider, subscriber, id) is processed at most once locally.
type SubscriptionProposal struct {
	ID             string                `json:"id"`
	ProviderPubkey PeerIdentity          `json:"provider_pubkey"`
	AmountSats     uint64                `json:"amount_sats"`
	Currency       string                `json:"currency"`
	Frequency      SubscriptionFrequency `json:"frequency"`
	MethodID       string                `json:"method_id"`
	Description    string                `json:"description,omitempty"`
	CreatedAt      int64                 `json:"created_at"`
}

// Validate rejects malformed proposals before they enter the typed model.
func (p SubscriptionProposal) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: proposal missing id", ErrEncoding)
	}
	if p.ProviderPubkey == "" {
		return fmt.Errorf("%w: proposal %s missing provider", ErrEncoding, p.ID)
	}
	if p.AmountSats == 0 {
		return fmt.Errorf("%w: proposal %s has zero amount", ErrEncoding, p.ID)
	}
	switch p.Frequency {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
	default:
		return fmt.Errorf("%w: proposal %s has unknown frequency %q", ErrEncoding, p.ID, p.Frequency)
	}
	return nil
}
