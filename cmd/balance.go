package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3send/internal/token"
	"github.com/Mohsinsiddi/w3send/internal/ui"
)

var balanceWallet string

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the token balance of the configured wallet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireToken(); err != nil {
			return err
		}
		// Reading a balance needs no key, so watch-only wallets work here.
		w, err := resolveWallet(balanceWallet)
		if err != nil {
			return err
		}

		ctx := context.Background()
		client, err := connectedClient(ctx)
		if err != nil {
			return err
		}
		symbol, decimals := tokenMeta(ctx, client)

		spin := ui.NewSpinner("Fetching balance...")
		spin.Start()
		bal, err := client.GetTokenBalance(ctx, cfg.Token.Address, w.Address)
		native, nativeErr := client.GetBalance(ctx, w.Address)
		spin.Stop()
		if err != nil {
			return err
		}

		pairs := [][2]string{
			{"Wallet", w.Name},
			{"Address", ui.Addr(w.Address)},
			{"Token", ui.Addr(cfg.Token.Address)},
			{"Balance", ui.Val(token.FormatAmount(bal, decimals) + " " + symbol)},
		}
		if nativeErr == nil {
			pairs = append(pairs, [2]string{"Native", token.FormatAmount(native, token.DefaultDecimals) + " ETH"})
		}
		fmt.Println(ui.KeyValueBlock("Token Balance", pairs))
		if nativeErr == nil && native.Sign() == 0 {
			fmt.Println(ui.Warn("No ETH for gas — transfers from this wallet will fail."))
		}
		return nil
	},
}

func init() {
	balanceCmd.Flags().StringVar(&balanceWallet, "wallet", "", "wallet name (default: config)")
}
