package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"paykit/internal/domain"
)

// rules: manage the auto-pay policy, its rules and per-peer limits.
func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage auto-pay policy and rules",
	}
	cmd.AddCommand(rulesListCmd(), rulesAddCmd(), rulesRemoveCmd(), rulesConfigCmd(), rulesLimitCmd())
	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List auto-pay configuration, rules and limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := wire.Policy.AutoPayConfig()
			if err != nil {
				return err
			}
			fmt.Printf("Auto-pay enabled: %v\n", cfg.Enabled)
			if cfg.MaxPaymentSats > 0 {
				fmt.Printf("Per-payment cap:  %d sats\n", cfg.MaxPaymentSats)
			}
			if cfg.DailyLimitSats > 0 {
				fmt.Printf("Daily limit:      %d sats\n", cfg.DailyLimitSats)
			}

			rules, err := wire.Policy.Rules()
			if err != nil {
				return err
			}
			for _, r := range rules {
				state := "enabled"
				if !r.Enabled {
					state = "disabled"
				}
				peer := string(r.Peer)
				if peer == "" {
					peer = "any peer"
				}
				method := r.MethodID
				if method == "" {
					method = "any method"
				}
				fmt.Printf("%s  %-8s  %s  %s  max %d sats\n", r.ID, state, peer, method, r.MaxAmountSats)
			}

			limits, err := wire.Policy.PeerLimits()
			if err != nil {
				return err
			}
			for _, l := range limits {
				fmt.Printf("limit  %s  %d sats/day\n", l.Peer, l.DailyCapSats)
			}
			return nil
		},
	}
}

func rulesAddCmd() *cobra.Command {
	var (
		peer   string
		method string
		max    uint64
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an auto-pay rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			rule := domain.AutoPayRule{
				ID:            uuid.NewString(),
				Peer:          domain.PeerIdentity(peer).Normalize(),
				MethodID:      method,
				MaxAmountSats: max,
				Enabled:       true,
				CreatedAt:     time.Now().Unix(),
			}
			if err := wire.Policy.SaveRule(rule); err != nil {
				return err
			}
			fmt.Printf("Rule added: %s\n", rule.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&peer, "peer", "", "restrict to one peer (empty = any)")
	cmd.Flags().StringVar(&method, "method", "", "restrict to one payment method (empty = any)")
	cmd.Flags().Uint64Var(&max, "max", 0, "max amount in sats (0 = unlimited)")
	return cmd
}

func rulesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <rule-id>",
		Short: "Remove an auto-pay rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.Policy.DeleteRule(args[0]); err != nil {
				return err
			}
			fmt.Println("Rule removed.")
			return nil
		},
	}
}

func rulesConfigCmd() *cobra.Command {
	var (
		enabled       bool
		maxPayment    uint64
		dailyLimit    uint64
		confirmFirst  bool
		confirmSubs   bool
		bioEnabled    bool
		bioThreshold  uint64
		allowHighConf bool
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Set the global auto-pay configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := domain.AutoPayConfig{
				Enabled:                enabled,
				MaxPaymentSats:         maxPayment,
				DailyLimitSats:         dailyLimit,
				ConfirmFirstPayment:    confirmFirst,
				ConfirmSubscriptions:   confirmSubs,
				BiometricEnabled:       bioEnabled,
				BiometricThresholdSats: bioThreshold,
				AllowHighValueConfirm:  allowHighConf,
			}
			if err := wire.Policy.SaveAutoPayConfig(cfg); err != nil {
				return err
			}
			fmt.Println("Auto-pay configuration saved.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&enabled, "enabled", false, "enable auto-pay")
	cmd.Flags().Uint64Var(&maxPayment, "max-payment", 0, "per-payment cap in sats (0 = none)")
	cmd.Flags().Uint64Var(&dailyLimit, "daily-limit", 0, "daily spend cap in sats (0 = none)")
	cmd.Flags().BoolVar(&confirmFirst, "confirm-first", true, "require approval for the first payment to a peer")
	cmd.Flags().BoolVar(&confirmSubs, "confirm-subscriptions", true, "require approval for subscription payments")
	cmd.Flags().BoolVar(&bioEnabled, "biometric", false, "require biometrics above the threshold")
	cmd.Flags().Uint64Var(&bioThreshold, "biometric-threshold", 0, "biometric threshold in sats")
	cmd.Flags().BoolVar(&allowHighConf, "allow-high-value-confirm", true, "route over-cap payments to approval instead of denying")
	return cmd
}

func rulesLimitCmd() *cobra.Command {
	var dailyCap uint64
	cmd := &cobra.Command{
		Use:   "limit <peer>",
		Short: "Set a per-peer daily spending limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := domain.SpendingLimit{
				Peer:         domain.PeerIdentity(args[0]).Normalize(),
				DailyCapSats: dailyCap,
			}
			if err := wire.Policy.SavePeerLimit(limit); err != nil {
				return err
			}
			fmt.Printf("Limit saved: %s %d sats/day\n", limit.Peer, limit.DailyCapSats)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&dailyCap, "cap", 0, "daily cap in sats")
	return cmd
}
