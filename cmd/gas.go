package cmd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3send/internal/config"
	"github.com/Mohsinsiddi/w3send/internal/gasfeed"
	"github.com/Mohsinsiddi/w3send/internal/price"
	"github.com/Mohsinsiddi/w3send/internal/send"
	"github.com/Mohsinsiddi/w3send/internal/ui"
)

var gasCmd = &cobra.Command{
	Use:   "gas",
	Short: "Show current gas prices and the estimated transfer fee",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		client, err := connectedClient(ctx)
		if err != nil {
			return err
		}

		spin := ui.NewSpinner("Fetching gas prices...")
		spin.Start()

		baseFee, err := client.BaseFee(ctx)
		if err != nil {
			spin.Stop()
			return err
		}
		tip, err := client.MaxPriorityFeePerGas(ctx)
		if err != nil {
			spin.Stop()
			return err
		}
		// Legacy gas price for comparison; some RPCs only serve this one.
		gasPrice, gasPriceErr := client.GasPrice(ctx)
		spin.Stop()

		pairs := [][2]string{
			{"Base fee", formatGwei(baseFee)},
			{"Priority fee", formatGwei(tip)},
		}
		if gasPriceErr == nil {
			pairs = append(pairs, [2]string{"Legacy price", formatGwei(gasPrice)})
		}
		pairs = append(pairs, [2]string{"Estimator", estimatorLabel(cfg)})

		if cfg.Estimator == config.EstimatorFeed {
			feed := gasfeed.NewClient(cfg.GasFeedURL, "")
			if sug, err := feed.Suggest(ctx, cfg.GasConfidence); err == nil {
				pairs = append(pairs,
					[2]string{"Feed max fee", formatGwei(sug.MaxFeePerGas)},
					[2]string{"Feed priority", formatGwei(sug.MaxPriorityFeePerGas)},
				)
			} else {
				pairs = append(pairs, [2]string{"Gas feed", "unavailable"})
			}
		}

		// Rough USD cost for a typical transfer, priced the same way the
		// send form quotes it.
		if rate, err := price.NewFetcher(cfg.PriceURL, cfg.PriceCoinID, cfg.PriceCurrency).Fetch(ctx); err == nil {
			est := send.NewEstimate(send.FixedTransferGasLimit, baseFee, tip)
			if usd, ok := send.QuoteUSD(est, rate, true); ok {
				pairs = append(pairs, [2]string{"Transfer cost", fmt.Sprintf("~$%.2f", usd)})
			}
		}

		fmt.Println(ui.KeyValueBlock("Gas", pairs))
		return nil
	},
}

func formatGwei(wei *big.Int) string {
	if wei == nil {
		return "—"
	}
	gwei := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(1e9))
	return fmt.Sprintf("%.2f gwei", gwei)
}
