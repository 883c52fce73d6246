package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"paykit/internal/domain"
)

// peer: manage the set of peers polled during discovery.
func peerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "peer",
		Short: "Manage known peers",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <identity>",
			Short: "Add a peer to the discovery set",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := wire.Peers.AddPeer(domain.PeerIdentity(args[0])); err != nil {
					return err
				}
				fmt.Println("Peer added.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <identity>",
			Short: "Remove a peer from the discovery set",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := wire.Peers.RemovePeer(domain.PeerIdentity(args[0])); err != nil {
					return err
				}
				fmt.Println("Peer removed.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List known peers",
			RunE: func(cmd *cobra.Command, args []string) error {
				peers, err := wire.Peers.ListPeers()
				if err != nil {
					return err
				}
				for _, p := range peers {
					fmt.Println(p)
				}
				return nil
			},
		},
	)
	return cmd
}
