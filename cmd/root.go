package cmd

import (
	"fmt"
	"os"

	"github.com/Mohsinsiddi/w3send/internal/config"
	"github.com/Mohsinsiddi/w3send/internal/ui"
	"github.com/spf13/cobra"
)

// Version is the current release. Overridable via build ldflags:
//
//	go build -ldflags "-X github.com/Mohsinsiddi/w3send/cmd.Version=1.2.3" .
var Version = "0.1.0"

var (
	cfgDir string
	cfg    *config.Config
)

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "w3send",
	Short: "Terminal ERC-20 token sender",
	Long: `w3send — send ERC-20 tokens from your terminal.

  A focused wallet for one token on one chain: live balance, USD-priced
  gas quotes, and a confirm-before-broadcast transfer flow.

Configure once (w3send config set-token <address>), add a signing wallet
(w3send wallet add hot --key <private-key>), then just: w3send`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}
		var err error
		cfg, err = config.Load(cfgDir)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		return cfg.Validate()
	},
	// Bare `w3send` opens the send form.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSend()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// W3SEND_CONFIG_DIR env var overrides --config flag.
	if envDir := os.Getenv("W3SEND_CONFIG_DIR"); envDir != "" {
		cfgDir = envDir
	}

	rootCmd.PersistentFlags().StringVar(&cfgDir, "config", cfgDir, "config directory (default: ~/.w3send)")
	rootCmd.SetVersionTemplate(ui.Banner() + "w3send {{.Version}}\n")

	rootCmd.AddCommand(
		sendCmd,
		balanceCmd,
		gasCmd,
		priceCmd,
		walletCmd,
		configCmd,
	)
}
