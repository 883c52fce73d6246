package autopay

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"paykit/internal/domain"
)

// Input is one candidate payment to be judged.
type Input struct {
	Peer           domain.PeerIdentity
	AmountSats     uint64
	MethodID       string
	IsSubscription bool
}

// State is a point-in-time snapshot of everything the decision depends
// on. Snapshots are taken under the policy store's lock, so a single
// evaluation never sees a half-updated policy.
type State struct {
	Config domain.AutoPayConfig
	Rules  []domain.AutoPayRule
	Limits []domain.SpendingLimit

	// Approved spend since the start of the current daily window.
	SpentTodaySats     uint64
	PeerSpentTodaySats uint64

	// Whether any payment to this peer was ever recorded.
	PaidPeerBefore bool
}

// Decide evaluates a candidate against a policy snapshot. The checks
// run in a fixed order and the first applicable one wins.
func Decide(in Input, st State) domain.Decision {
	cfg := st.Config

	if !cfg.Enabled {
		return domain.Decision{Outcome: domain.OutcomeDenied, Reason: "auto-pay disabled"}
	}

	if cfg.MaxPaymentSats > 0 && in.AmountSats > cfg.MaxPaymentSats {
		if cfg.AllowHighValueConfirm {
			return domain.Decision{Outcome: domain.OutcomeNeedsApproval, Reason: "exceeds per-payment cap"}
		}
		return domain.Decision{Outcome: domain.OutcomeDenied, Reason: "exceeds per-payment cap"}
	}

	if cfg.DailyLimitSats > 0 && st.SpentTodaySats+in.AmountSats > cfg.DailyLimitSats {
		return domain.Decision{Outcome: domain.OutcomeDenied, Reason: "would exceed daily limit"}
	}

	if cfg.ConfirmFirstPayment && !st.PaidPeerBefore {
		return domain.Decision{Outcome: domain.OutcomeNeedsApproval, Reason: "first payment to peer"}
	}

	if in.IsSubscription && cfg.ConfirmSubscriptions {
		return domain.Decision{Outcome: domain.OutcomeNeedsApproval, Reason: "subscription requires confirmation"}
	}

	if cfg.BiometricEnabled && cfg.BiometricThresholdSats > 0 && in.AmountSats > cfg.BiometricThresholdSats {
		return domain.Decision{Outcome: domain.OutcomeNeedsBiometric, Reason: "amount above biometric threshold"}
	}

	for _, lim := range st.Limits {
		if lim.Peer.Equal(in.Peer) && lim.DailyCapSats > 0 &&
			st.PeerSpentTodaySats+in.AmountSats > lim.DailyCapSats {
			return domain.Decision{Outcome: domain.OutcomeDenied,
				Reason: fmt.Sprintf("would exceed peer limit of %d sats", lim.DailyCapSats)}
		}
	}

	for _, rule := range st.Rules {
		if rule.Matches(in.Peer, in.MethodID, in.AmountSats) {
			return domain.Decision{Outcome: domain.OutcomeApproved, RuleID: rule.ID}
		}
	}

	return domain.Decision{Outcome: domain.OutcomeNeedsApproval, Reason: "no matching rule"}
}

// DecideForBackground is Decide for contexts with no interactive
// prompt available. A result that would require biometrics is remapped
// to needs-approval so the payment defers to the user instead of
// proceeding or failing silently.
func DecideForBackground(in Input, st State) domain.Decision {
	d := Decide(in, st)
	if d.Outcome == domain.OutcomeNeedsBiometric {
		d.Outcome = domain.OutcomeNeedsApproval
		d.Reason = "biometric confirmation unavailable in background"
	}
	return d
}

// Engine loads policy snapshots from the store and evaluates against
// them. The daily window resets at local midnight.
type Engine struct {
	policy domain.PolicyStore
	now    func() time.Time
	log    *zap.Logger
}

func NewEngine(policy domain.PolicyStore, log *zap.Logger) *Engine {
	return &Engine{policy: policy, now: time.Now, log: log}
}

// Evaluate judges the candidate against the current policy.
func (e *Engine) Evaluate(in Input) (domain.Decision, error) {
	st, err := e.snapshot(in.Peer)
	if err != nil {
		return domain.Decision{}, err
	}
	d := Decide(in, st)
	e.logDecision(in, d)
	return d, nil
}

// EvaluateForBackground is Evaluate with the background biometric
// remapping applied.
func (e *Engine) EvaluateForBackground(in Input) (domain.Decision, error) {
	st, err := e.snapshot(in.Peer)
	if err != nil {
		return domain.Decision{}, err
	}
	d := DecideForBackground(in, st)
	e.logDecision(in, d)
	return d, nil
}

// RecordApproved appends an approved execution to the history so that
// subsequent evaluations count it against the daily window.
func (e *Engine) RecordApproved(in Input, requestID, ruleID string) error {
	return e.policy.AppendHistory(domain.AutoPayHistoryEntry{
		RequestID:  requestID,
		Peer:       in.Peer.Normalize(),
		AmountSats: in.AmountSats,
		RuleID:     ruleID,
		DecidedAt:  e.now().Unix(),
	})
}

func (e *Engine) snapshot(peer domain.PeerIdentity) (State, error) {
	cfg, err := e.policy.AutoPayConfig()
	if err != nil {
		return State{}, err
	}
	rules, err := e.policy.Rules()
	if err != nil {
		return State{}, err
	}
	limits, err := e.policy.PeerLimits()
	if err != nil {
		return State{}, err
	}

	now := e.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := e.policy.History(midnight.Unix())
	if err != nil {
		return State{}, err
	}

	st := State{Config: cfg, Rules: rules, Limits: limits}
	for _, entry := range today {
		st.SpentTodaySats += entry.AmountSats
		if entry.Peer.Equal(peer) {
			st.PeerSpentTodaySats += entry.AmountSats
		}
	}
	st.PaidPeerBefore, err = e.policy.HasPaidPeer(peer)
	if err != nil {
		return State{}, err
	}
	return st, nil
}

func (e *Engine) logDecision(in Input, d domain.Decision) {
	e.log.Debug("autopay decision",
		zap.String("peer", string(in.Peer.Normalize())),
		zap.Uint64("amount_sats", in.AmountSats),
		zap.String("outcome", string(d.Outcome)),
		zap.String("rule_id", d.RuleID),
		zap.String("reason", d.Reason))
}
