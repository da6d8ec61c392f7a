package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/w3send/internal/price"
	"github.com/Mohsinsiddi/w3send/internal/ui"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Show the current native-currency exchange rate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		oracle := price.NewOracle(price.NewFetcher(cfg.PriceURL, cfg.PriceCoinID, cfg.PriceCurrency))

		spin := ui.NewSpinner("Fetching price...")
		spin.Start()
		err := oracle.Refresh(context.Background())
		spin.Stop()
		if err != nil {
			return fmt.Errorf("fetching price: %w", err)
		}

		q := oracle.Quote()
		fmt.Println(ui.KeyValueBlock("Price", [][2]string{
			{"Coin", cfg.PriceCoinID},
			{"Rate", ui.Val(fmt.Sprintf("%.2f %s", q.Rate, strings.ToUpper(cfg.PriceCurrency)))},
			{"Fetched", q.FetchedAt.Format("15:04:05")},
		}))
		return nil
	},
}
