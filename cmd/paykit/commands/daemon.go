package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// daemon: run the polling coordinator on its schedule until interrupted.
func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the polling coordinator until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if err := wire.Coordinator.Start(); err != nil {
				return err
			}
			defer wire.Scheduler.Stop()

			fmt.Println("Polling daemon running. Ctrl-C to stop.")
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop
			fmt.Println("Stopping.")
			return nil
		},
	}
}
