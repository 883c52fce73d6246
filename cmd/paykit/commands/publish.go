package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"paykit/internal/domain"
)

// publish <peer> <amount-sats>: seal a payment request (or subscription
// proposal) to <peer> and store it in our own directory for them to
// discover. --direct delivers over a Noise channel instead.
func publishCmd() *cobra.Command {
	var (
		methodID    string
		currency    string
		description string
		expiresIn   time.Duration
		frequency   string
		direct      bool
	)
	cmd := &cobra.Command{
		Use:   "publish <peer> <amount-sats>",
		Short: "Publish a payment request (or subscription proposal) to a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			peer := domain.PeerIdentity(args[0]).Normalize()
			var amount uint64
			if _, err := fmt.Sscanf(args[1], "%d", &amount); err != nil || amount == 0 {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			self, err := wire.Keyring.Identity()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			now := time.Now()

			if frequency != "" {
				p := domain.SubscriptionProposal{
					ID:             uuid.NewString(),
					ProviderPubkey: self,
					AmountSats:     amount,
					Currency:       currency,
					Frequency:      domain.SubscriptionFrequency(frequency),
					MethodID:       methodID,
					Description:    description,
					CreatedAt:      now.Unix(),
				}
				if err := wire.Exchange.PublishSubscriptionProposal(ctx, p, peer); err != nil {
					return err
				}
				fmt.Printf("Proposal published: %s\n", p.ID)
				return nil
			}

			req := domain.PaymentRequest{
				ID:          uuid.NewString(),
				FromPubkey:  self,
				ToPubkey:    peer,
				AmountSats:  amount,
				Currency:    currency,
				MethodID:    methodID,
				Description: description,
				CreatedAt:   now.Unix(),
				Status:      domain.StatusPending,
				Direction:   domain.DirectionOutgoing,
			}
			if expiresIn > 0 {
				req.ExpiresAt = now.Add(expiresIn).Unix()
			}
			if err := wire.Requests.SavePaymentRequest(req); err != nil {
				return err
			}
			if direct {
				if err := wire.Exchange.SendDirect(ctx, req); err != nil {
					return err
				}
				fmt.Printf("Request delivered directly: %s\n", req.ID)
				return nil
			}
			if err := wire.Exchange.PublishPaymentRequest(ctx, req); err != nil {
				return err
			}
			fmt.Printf("Request published: %s\n", req.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&methodID, "method", "lightning", "payment method id")
	cmd.Flags().StringVar(&currency, "currency", "SAT", "amount currency")
	cmd.Flags().StringVar(&description, "description", "", "human-readable description")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 0, "request lifetime (0 = no expiry)")
	cmd.Flags().StringVar(&frequency, "frequency", "", "publish a subscription proposal with this cadence (daily|weekly|monthly|yearly)")
	cmd.Flags().BoolVar(&direct, "direct", false, "deliver over a direct Noise channel instead of the directory")
	return cmd
}
