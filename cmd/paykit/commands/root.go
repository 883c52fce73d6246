package commands

import (
	"os"

	"github.com/spf13/cobra"

	"paykit/internal/app"
	"paykit/internal/config"
	"paykit/internal/logger"
)

var (
	home         string
	passphrase   string
	directoryURL string
	relayURL     string

	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "paykit",
		Short: "Peer-to-peer payment request exchange over sealed envelopes and Noise",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if home != "" {
				cfg.Home = home
			}
			if passphrase != "" {
				cfg.Passphrase = passphrase
			}
			if directoryURL != "" {
				cfg.Directory.BaseURL = directoryURL
			}
			if relayURL != "" {
				cfg.Relay.BaseURL = relayURL
			}
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}

			log, err := logger.New(cfg.LogMode)
			if err != nil {
				return err
			}
			wire, err = app.NewWire(cfg, log, app.Options{})
			if err != nil {
				return err
			}
			cmdCfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.paykit)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting local keys")
	root.PersistentFlags().StringVar(&directoryURL, "directory", "", "directory store base URL")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "push relay base URL")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		publishCmd(),
		pollCmd(),
		payCmd(),
		serveCmd(),
		rulesCmd(),
		peerCmd(),
		wakeCmd(),
		daemonCmd(),
	)
	return root.Execute()
}

// cmdCfg is the loaded configuration, available to commands that need
// listen addresses or intervals.
var cmdCfg *config.Config
