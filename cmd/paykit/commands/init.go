package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate identity and Noise keys and store them securely",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if err := wire.Keyring.Init(); err != nil {
				return err
			}
			id, err := wire.Keyring.Identity()
			if err != nil {
				return err
			}
			fp, err := wire.Keyring.Fingerprint()
			if err != nil {
				return err
			}
			fmt.Printf("Identity created.\nIdentity:    %s\nFingerprint: %s\n", id, fp)
			return nil
		},
	}
}
