package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"paykit/internal/domain"
)

// poll: run one discovery cycle against all known peers and print what
// arrived.
func pollCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Run one poll cycle against all known peers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := wire.Coordinator.RunCycle(ctx); err != nil {
				return err
			}

			requests, err := wire.Requests.ListPaymentRequests()
			if err != nil {
				return err
			}
			for _, r := range requests {
				if r.Direction != domain.DirectionIncoming {
					continue
				}
				fmt.Printf("%s  %8d sats  %-8s  from %s\n", r.ID, r.AmountSats, r.Status, r.FromPubkey)
			}
			proposals, err := wire.Requests.ListSubscriptionProposals()
			if err != nil {
				return err
			}
			for _, p := range proposals {
				fmt.Printf("%s  %8d sats  %-8s  proposal from %s\n", p.ID, p.AmountSats, p.Frequency, p.ProviderPubkey)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "cycle deadline")
	return cmd
}
