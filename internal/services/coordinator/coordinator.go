package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"paykit/internal/domain"
	"paykit/internal/services/autopay"
	"paykit/internal/services/exchange"
)

const (
	// TaskID names the background task registered with the scheduler.
	TaskID = "paykit.poll"

	defaultInterval    = 15 * time.Minute
	defaultPeerTimeout = 20 * time.Second

	maxRetries        = 3
	initialRetryDelay = 5 * time.Second
	maxRetryDelay     = 60 * time.Second

	seenKindRequests  = "requests"
	seenKindProposals = "proposals"
)

// Discoverer is the slice of the exchange service the coordinator needs.
type Discoverer interface {
	Discover(ctx context.Context, peer domain.PeerIdentity) (exchange.DiscoverResult, error)
}

// Deps are the collaborators a coordinator drives.
type Deps struct {
	Peers     domain.PeerStore
	Exchange  Discoverer
	Seen      domain.SeenStore
	Requests  domain.RequestStore
	AutoPay   *autopay.Engine
	Payments  domain.PaymentBackend
	Scheduler domain.Scheduler
	Notifier  domain.Notifier
	Pending   domain.PendingStore
}

// Coordinator runs poll cycles. Discovery fans out across peers, but all
// mutations of shared local state happen on the cycle's own goroutine.
type Coordinator struct {
	deps Deps
	log  *zap.Logger

	// cycleMu is the re-entrancy guard: a trigger while a cycle is
	// in-flight is a no-op.
	cycleMu sync.Mutex

	interval    time.Duration
	peerTimeout time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
}

func New(deps Deps, log *zap.Logger) *Coordinator {
	return &Coordinator{
		deps:        deps,
		log:         log,
		interval:    defaultInterval,
		peerTimeout: defaultPeerTimeout,
		sleep:       sleepContext,
		now:         time.Now,
	}
}

// SetInterval overrides the default poll interval.
func (c *Coordinator) SetInterval(d time.Duration) {
	if d > 0 {
		c.interval = d
	}
}

// Start registers the poll handler and schedules the first cycle.
func (c *Coordinator) Start() error {
	c.deps.Scheduler.RegisterHandler(TaskID, c.RunCycle)
	return c.deps.Scheduler.ScheduleNext(c.now().Add(c.interval))
}

// RunCycle executes one poll cycle. A concurrent call while a cycle is
// running returns immediately.
func (c *Coordinator) RunCycle(ctx context.Context) error {
	if !c.cycleMu.TryLock() {
		c.log.Debug("poll cycle already running, skipping trigger")
		return nil
	}
	defer c.cycleMu.Unlock()

	// Re-schedule before doing any work so a crash mid-cycle cannot
	// starve future cycles.
	if err := c.deps.Scheduler.ScheduleNext(c.now().Add(c.interval)); err != nil {
		c.log.Warn("failed to schedule next cycle", zap.Error(err))
	}

	if reaped, err := c.deps.Pending.ExpirePending(c.now().Unix()); err != nil {
		c.log.Warn("failed to expire pending entries", zap.Error(err))
	} else if reaped > 0 {
		c.log.Debug("reaped expired pending entries", zap.Int("count", reaped))
	}

	peers, err := c.deps.Peers.ListPeers()
	if err != nil {
		return err
	}

	type peerResult struct {
		peer domain.PeerIdentity
		res  exchange.DiscoverResult
		err  error
	}
	results := make(chan peerResult)
	var wg sync.WaitGroup
	for _, peer := range peers {
		if ctx.Err() != nil {
			c.log.Info("cycle expired, not starting remaining peers")
			break
		}
		wg.Add(1)
		go func(peer domain.PeerIdentity) {
			defer wg.Done()
			peerCtx, cancel := context.WithTimeout(ctx, c.peerTimeout)
			defer cancel()
			res, err := c.deps.Exchange.Discover(peerCtx, peer)
			results <- peerResult{peer: peer, res: res, err: err}
		}(peer)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// Single consumer: every mutation of the seen-set, request store and
	// spending history happens here, in order.
	for r := range results {
		if r.err != nil {
			c.log.Warn("peer discovery failed",
				zap.String("peer", string(r.peer.Normalize())),
				zap.Error(r.err))
			continue
		}
		c.processPeer(ctx, r.peer, r.res)
	}
	return nil
}

func (c *Coordinator) processPeer(ctx context.Context, peer domain.PeerIdentity, res exchange.DiscoverResult) {
	for _, req := range res.Requests {
		fresh, err := c.deps.Seen.MarkSeen(seenKindRequests, req.ID)
		if err != nil {
			c.log.Error("seen-set update failed", zap.String("id", req.ID), zap.Error(err))
			continue
		}
		if !fresh {
			continue
		}
		if err := c.deps.Requests.SavePaymentRequest(req); err != nil {
			c.log.Error("failed to persist discovered request", zap.String("id", req.ID), zap.Error(err))
			continue
		}
		c.handleNewRequest(ctx, peer, req)
	}

	for _, p := range res.Proposals {
		fresh, err := c.deps.Seen.MarkSeen(seenKindProposals, p.ID)
		if err != nil {
			c.log.Error("seen-set update failed", zap.String("id", p.ID), zap.Error(err))
			continue
		}
		if !fresh {
			continue
		}
		if err := c.deps.Requests.SaveSubscriptionProposal(p); err != nil {
			c.log.Error("failed to persist proposal", zap.String("id", p.ID), zap.Error(err))
			continue
		}
		c.deps.Notifier.Notify("Subscription proposal",
			fmt.Sprintf("%d sats %s from %s", p.AmountSats, p.Frequency, p.ProviderPubkey.Normalize()),
			map[string]string{"proposal_id": p.ID})
	}
}

// handleNewRequest evaluates one freshly discovered request and, when
// approved, executes the payment with retry. This runs in background
// context, so biometric outcomes have already been remapped.
func (c *Coordinator) handleNewRequest(ctx context.Context, peer domain.PeerIdentity, req domain.PaymentRequest) {
	in := autopay.Input{
		Peer:       req.FromPubkey,
		AmountSats: req.AmountSats,
		MethodID:   req.MethodID,
	}
	decision, err := c.deps.AutoPay.EvaluateForBackground(in)
	if err != nil {
		c.log.Error("autopay evaluation failed", zap.String("id", req.ID), zap.Error(err))
		return
	}

	switch decision.Outcome {
	case domain.OutcomeApproved:
		c.executePayment(ctx, peer, req, in, decision.RuleID)

	case domain.OutcomeDenied:
		if err := c.deps.Requests.UpdateRequestStatus(req.ID, domain.StatusDenied); err != nil {
			c.log.Error("failed to mark request denied", zap.String("id", req.ID), zap.Error(err))
		}
		c.log.Info("request denied by policy",
			zap.String("id", req.ID), zap.String("reason", decision.Reason))

	default:
		// Stays pending for the user to act on.
		c.deps.Notifier.Notify("Payment request",
			fmt.Sprintf("%d sats from %s", req.AmountSats, req.FromPubkey.Normalize()),
			map[string]string{"request_id": req.ID})
	}
}

// executePayment runs the payment with up to maxRetries retries, backing
// off 5s, 10s, 20s (capped at 60s). Exhausted retries record the failure
// and notify; nothing retries further automatically.
func (c *Coordinator) executePayment(ctx context.Context, peer domain.PeerIdentity, req domain.PaymentRequest, in autopay.Input, ruleID string) {
	destination := string(req.FromPubkey.Normalize())

	var lastErr error
	delay := initialRetryDelay
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
			delay *= 2
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
		}
		receipt, err := c.deps.Payments.Pay(ctx, destination, req.AmountSats, peer)
		if err == nil {
			if err := c.deps.Requests.UpdateRequestStatus(req.ID, domain.StatusPaid); err != nil {
				c.log.Error("failed to mark request paid", zap.String("id", req.ID), zap.Error(err))
			}
			if err := c.deps.AutoPay.RecordApproved(in, req.ID, ruleID); err != nil {
				c.log.Error("failed to record payment history", zap.String("id", req.ID), zap.Error(err))
			}
			c.log.Info("payment executed",
				zap.String("id", req.ID),
				zap.String("payment_id", receipt.PaymentID),
				zap.Int("attempt", attempt+1))
			return
		}
		lastErr = err
		c.log.Warn("payment attempt failed",
			zap.String("id", req.ID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	if err := c.deps.Requests.UpdateRequestStatus(req.ID, domain.StatusError); err != nil {
		c.log.Error("failed to mark request errored", zap.String("id", req.ID), zap.Error(err))
	}
	c.deps.Notifier.Notify("Payment failed",
		fmt.Sprintf("could not pay %d sats to %s: %v", req.AmountSats, req.FromPubkey.Normalize(), lastErr),
		map[string]string{"request_id": req.ID})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
