package cmd

import (
	"context"
	"fmt"
	"math/big"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3send/internal/config"
	"github.com/Mohsinsiddi/w3send/internal/ens"
	"github.com/Mohsinsiddi/w3send/internal/gasfeed"
	"github.com/Mohsinsiddi/w3send/internal/poll"
	"github.com/Mohsinsiddi/w3send/internal/price"
	"github.com/Mohsinsiddi/w3send/internal/send"
	"github.com/Mohsinsiddi/w3send/internal/ui"
	"github.com/Mohsinsiddi/w3send/internal/wallet"
)

var sendWallet string

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Open the interactive transfer form",
	Long: `Open the interactive token transfer form.

Shows the live token balance and a USD gas quote while you type, then asks
for confirmation before signing and broadcasting. The form resets for the
next transfer once the transaction confirms.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSend()
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendWallet, "wallet", "", "signing wallet name (default: config)")
}

func runSend() error {
	if err := cfg.RequireToken(); err != nil {
		return err
	}
	w, err := resolveSigningWallet(sendWallet)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := connectedClient(ctx)
	if err != nil {
		return err
	}
	symbol, decimals := tokenMeta(ctx, client)

	signer := wallet.NewSigner(w, wallet.DefaultKeystore())
	submitter := send.NewTxSubmitter(client, signer, big.NewInt(cfg.ChainID), cfg.Token.Address)

	var estimator send.Estimator
	if cfg.Estimator == config.EstimatorFeed {
		feed := gasfeed.NewClient(cfg.GasFeedURL, "")
		estimator = send.NewFeedEstimator(client, feed, cfg.GasConfidence)
	} else {
		estimator = send.NewSimulationEstimator(client, cfg.Token.Address, w.Address)
	}

	var prog *tea.Program
	machine := send.NewMachine(submitter, send.WithChangeHook(func() {
		if prog != nil {
			prog.Send(ui.MachineMsg{})
		}
	}))

	model := ui.NewSendModel(machine, estimator, symbol, decimals, cfg.ExplorerTxURL).
		WithResolver(func(ctx context.Context, name string) (string, error) {
			return ens.Resolve(ctx, client, name)
		})
	prog = tea.NewProgram(model)

	// Balance and price refresh on their own cadences for the lifetime of
	// the form; results land in the model as messages.
	balancePoller := poll.New(time.Duration(cfg.BalanceIntervalSec)*time.Second, func(ctx context.Context) {
		bal, err := client.GetTokenBalance(ctx, cfg.Token.Address, w.Address)
		prog.Send(ui.BalanceMsg{Balance: bal, Err: err})
	})
	balancePoller.Start(ctx)
	defer balancePoller.Stop()

	oracle := price.NewOracle(price.NewFetcher(cfg.PriceURL, cfg.PriceCoinID, cfg.PriceCurrency))
	pricePoller := poll.New(time.Duration(cfg.PriceIntervalSec)*time.Second, func(ctx context.Context) {
		oracle.Refresh(ctx) //nolint:errcheck
		rate, ok := oracle.Rate()
		prog.Send(ui.PriceMsg{Rate: rate, OK: ok})
	})
	pricePoller.Start(ctx)
	defer pricePoller.Stop()

	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("running transfer form: %w", err)
	}
	return nil
}
