package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3send/internal/config"
	"github.com/Mohsinsiddi/w3send/internal/contract"
	"github.com/Mohsinsiddi/w3send/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		tokenLine := "(not set)"
		if cfg.Token.Address != "" {
			tokenLine = cfg.Token.Address
			if cfg.Token.Symbol != "" {
				tokenLine += " (" + cfg.Token.Symbol + ")"
			}
		}
		fmt.Println(ui.KeyValueBlock("Configuration", [][2]string{
			{"Config dir", cfg.Dir()},
			{"RPC URL", cfg.RPCURL},
			{"Chain ID", strconv.FormatInt(cfg.ChainID, 10)},
			{"Token", tokenLine},
			{"Default wallet", orDash(cfg.DefaultWallet)},
			{"Estimator", estimatorLabel(cfg)},
			{"Explorer", orDash(cfg.ExplorerURL)},
		}))
		return nil
	},
}

var (
	setTokenSymbol   string
	setTokenDecimals int
)

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token <address>",
	Short: "Set the ERC-20 token to send",
	Long: `Set the ERC-20 token contract transfers are sent against.

Symbol and decimals are read from the contract when reachable; --symbol
and --decimals override or stand in when it isn't.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.Token = config.Token{
			Address:  args[0],
			Symbol:   setTokenSymbol,
			Decimals: setTokenDecimals,
		}

		// Best effort metadata lookup; flags win when set.
		ctx, cancel := context.WithTimeout(context.Background(), rpcCallTimeout)
		defer cancel()
		if client, err := connectedClient(ctx); err == nil {
			if setTokenSymbol == "" {
				if s, err := contract.Symbol(ctx, client, args[0]); err == nil {
					cfg.Token.Symbol = s
				}
			}
			if !cmd.Flags().Changed("decimals") {
				if d, err := contract.Decimals(ctx, client, args[0]); err == nil {
					cfg.Token.Decimals = d
				}
			}
		}

		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Token set: %s (%s, %d decimals)",
			ui.TruncateAddr(cfg.Token.Address), orDash(cfg.Token.Symbol), cfg.Token.Decimals)))
		return nil
	},
}

var configSetRPCCmd = &cobra.Command{
	Use:   "set-rpc <url> <chain-id>",
	Short: "Set the RPC endpoint and expected chain ID",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid chain id %q", args[1])
		}
		cfg.RPCURL = args[0]
		cfg.ChainID = id
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC set to %s (chain %d)", args[0], id)))
		return nil
	},
}

var configSetEstimatorCmd = &cobra.Command{
	Use:   "set-estimator <simulation|feed>",
	Short: "Select how gas is estimated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := args[0]
		if mode != config.EstimatorSimulation && mode != config.EstimatorFeed {
			return fmt.Errorf("estimator must be %q or %q", config.EstimatorSimulation, config.EstimatorFeed)
		}
		cfg.Estimator = mode
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success("Estimator set to " + estimatorLabel(cfg)))
		return nil
	},
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func init() {
	configSetTokenCmd.Flags().StringVar(&setTokenSymbol, "symbol", "", "token symbol override")
	configSetTokenCmd.Flags().IntVar(&setTokenDecimals, "decimals", 18, "token decimals override")
	configCmd.AddCommand(configShowCmd, configSetTokenCmd, configSetRPCCmd, configSetEstimatorCmd)
}
