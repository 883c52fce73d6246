package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"paykit/internal/domain"
	"paykit/internal/services/autopay"
)

// pay <request-id>: record that a pending request was paid through the
// external wallet. The payment counts toward the daily auto-pay window.
func payCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pay <request-id>",
		Short: "Mark a pending payment request as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			req, ok, err := wire.Requests.GetPaymentRequest(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: request %s", domain.ErrNotFound, args[0])
			}
			if err := wire.Requests.UpdateRequestStatus(req.ID, domain.StatusPaid); err != nil {
				return err
			}
			in := autopay.Input{Peer: req.FromPubkey, AmountSats: req.AmountSats, MethodID: req.MethodID}
			if err := wire.AutoPay.RecordApproved(in, req.ID, ""); err != nil {
				return err
			}
			fmt.Printf("Paid %d sats to %s (%s)\n", req.AmountSats, req.FromPubkey, req.ID)
			return nil
		},
	}
}
