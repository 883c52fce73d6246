package domain

// AutoPayConfig holds the global auto-pay policy switches and caps.
type AutoPayConfig struct {
	Enabled bool `json:"enabled"`

	// MaxPaymentSats is the global per-payment cap. Zero means no cap.
	MaxPaymentSats uint64 `json:"max_payment_sats"`
	// DailyLimitSats caps cumulative approved spend per day. Zero means no cap.
	DailyLimitSats uint64 `json:"daily_limit_sats"`

	ConfirmFirstPayment  bool `json:"confirm_first_payment"`
	ConfirmSubscriptions bool `json:"confirm_subscriptions"`

	BiometricEnabled       bool   `json:"biometric_enabled"`
	BiometricThresholdSats uint64 `json:"biometric_threshold_sats"`

	// AllowHighValueConfirm routes over-cap payments to manual approval
	// instead of denying them outright.
	AllowHighValueConfirm bool `json:"allow_high_value_confirm"`
}

// AutoPayRule authorizes unattended payment execution when it matches a
// candidate's peer, method and amount. Empty matcher fields match anything.
type AutoPayRule struct {
	ID            string       `json:"id"`
	Peer          PeerIdentity `json:"peer,omitempty"`
	MethodID      string       `json:"method_id,omitempty"`
	MaxAmountSats uint64       `json:"max_amount_sats"`
	Enabled       bool         `json:"enabled"`
	CreatedAt     int64        `json:"created_at"`
}

// Matches reports whether the rule covers the candidate payment.
func (r AutoPayRule) Matches(peer PeerIdentity, methodID string, amountSats uint64) bool {
	if !r.Enabled {
		return false
	}
	if r.Peer != "" && !r.Peer.Equal(peer) {
		return false
	}
	if r.MethodID != "" && r.MethodID != methodID {
		return false
	}
	return r.MaxAmountSats == 0 || amountSats <= r.MaxAmountSats
}

// SpendingLimit caps cumulative daily spend toward a single peer.
type SpendingLimit struct {
	Peer         PeerIdentity `json:"peer"`
	DailyCapSats uint64       `json:"daily_cap_sats"`
}

// AutoPayHistoryEntry records one executed auto-pay decision.
type AutoPayHistoryEntry struct {
	RequestID  string       `json:"request_id"`
	Peer       PeerIdentity `json:"peer"`
	AmountSats uint64       `json:"amount_sats"`
	RuleID     string       `json:"rule_id,omitempty"`
	DecidedAt  int64        `json:"decided_at"`
}

// DecisionOutcome is the result class of an auto-pay evaluation.
type DecisionOutcome string

const (
	OutcomeApproved       DecisionOutcome = "approved"
	OutcomeDenied         DecisionOutcome = "denied"
	OutcomeNeedsApproval  DecisionOutcome = "needs_approval"
	OutcomeNeedsBiometric DecisionOutcome = "needs_biometric"
)

// Decision is the outcome of evaluating a candidate payment against policy.
type Decision struct {
	Outcome DecisionOutcome
	// RuleID is set when Outcome is OutcomeApproved.
	RuleID string
	// Reason is a human-readable explanation for denied/deferred outcomes.
	Reason string
}
