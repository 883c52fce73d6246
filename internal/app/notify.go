package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"paykit/internal/domain"
)

// logNotifier surfaces notifications through the log when no platform
// notification capability is wired.
type logNotifier struct {
	log *zap.Logger
}

func (n logNotifier) Notify(title, body string, metadata map[string]string) {
	n.log.Info("notification",
		zap.String("title", title),
		zap.String("body", body),
		zap.Any("metadata", metadata))
}

// unconfiguredBackend rejects every payment attempt. Payment execution is
// external; embedding applications supply a real backend via Options.
type unconfiguredBackend struct{}

func (unconfiguredBackend) Pay(context.Context, string, uint64, domain.PeerIdentity) (domain.PaymentReceipt, error) {
	return domain.PaymentReceipt{}, fmt.Errorf("%w: no payment backend configured", domain.ErrPaymentFailed)
}

var (
	_ domain.Notifier       = logNotifier{}
	_ domain.PaymentBackend = unconfiguredBackend{}
)
