package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"paykit/internal/domain"
)

// wake: talk to the push relay, either registering our own push token or
// waking a peer so it stands up a Noise responder.
func wakeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wake",
		Short: "Register with or send wake signals through the push relay",
	}
	cmd.AddCommand(wakeRegisterCmd(), wakeSendCmd())
	return cmd
}

func wakeRegisterCmd() *cobra.Command {
	var capabilities []string
	cmd := &cobra.Command{
		Use:   "register <push-token>",
		Short: "Register a push token with the relay",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if wire.Wake == nil {
				return fmt.Errorf("no relay configured. use --relay")
			}
			reg, err := wire.Wake.Register(cmd.Context(), args[0], capabilities)
			if err != nil {
				return err
			}
			fmt.Printf("Registered. Expires %s\n", time.Unix(reg.ExpiresAt, 0).Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&capabilities, "capability", []string{"payment_request"}, "wake capabilities to advertise")
	return cmd
}

func wakeSendCmd() *cobra.Command {
	var wakeType string
	cmd := &cobra.Command{
		Use:   "send <peer>",
		Short: "Send a wake signal to a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if wire.Wake == nil {
				return fmt.Errorf("no relay configured. use --relay")
			}
			peer := domain.PeerIdentity(args[0])
			err := wire.Wake.Wake(cmd.Context(), peer, domain.WakeType(wakeType), nil)
			var rl *domain.RateLimitedError
			if errors.As(err, &rl) {
				return fmt.Errorf("relay rate limited, retry after %s", rl.RetryAfter)
			}
			if err != nil {
				return err
			}
			fmt.Println("Wake sent.")
			return nil
		},
	}
	cmd.Flags().StringVar(&wakeType, "type", string(domain.WakePaymentRequest), "wake type (payment_request|noise_connect)")
	return cmd
}
