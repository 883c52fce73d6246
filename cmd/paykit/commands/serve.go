package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"paykit/internal/domain"
)

// serve: publish our Noise endpoint and accept one direct exchange within
// a bounded window. The listener is short-lived; it is not a long-running
// service.
func serveCmd() *cobra.Command {
	var window time.Duration
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Accept one incoming Noise exchange within a bounded window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			ctx := cmd.Context()
			if err := wire.Exchange.PublishEndpoint(ctx, cmdCfg.Listen.Host, cmdCfg.Listen.Port); err != nil {
				return err
			}
			addr := fmt.Sprintf("%s:%d", cmdCfg.Listen.Host, cmdCfg.Listen.Port)
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			defer ln.Close()
			fmt.Printf("Listening on %s for %s\n", addr, window)

			serveCtx, cancel := context.WithTimeout(ctx, window)
			defer cancel()
			err = wire.Exchange.ServeOnce(serveCtx, ln)
			if errors.Is(err, domain.ErrTimeout) {
				fmt.Println("Window expired with no connection.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Println("Exchange completed.")
			return nil
		},
	}
	cmd.Flags().DurationVar(&window, "window", 30*time.Second, "listener lifetime")
	return cmd
}
