package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// fingerprint: print the local identity and its short fingerprint for
// out-of-band comparison.
func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Show your identity and its fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			id, err := wire.Keyring.Identity()
			if err != nil {
				return err
			}
			fp, err := wire.Keyring.Fingerprint()
			if err != nil {
				return err
			}
			fmt.Printf("Identity:    %s\nFingerprint: %s\n", id, fp)
			return nil
		},
	}
}
