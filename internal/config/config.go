package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Estimator modes.
const (
	EstimatorSimulation = "simulation"
	EstimatorFeed       = "feed"
)

const (
	defaultRPCURL     = "https://ethereum-sepolia-rpc.publicnode.com"
	defaultChainID    = 11155111 // Sepolia
	defaultExplorer   = "https://sepolia.etherscan.io"
	defaultPriceURL   = "https://api.coingecko.com/api/v3/simple/price"
	defaultCoinID     = "ethereum"
	defaultCurrency   = "usd"
	defaultGasFeedURL = "https://api.blocknative.com/gasprices/blockprices"

	defaultBalanceIntervalSec = 5
	defaultPriceIntervalSec   = 60

	configFile = "config.json"
)

// Token describes the ERC-20 contract transfers are sent against.
type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Config is the persisted application configuration (config.json in the
// config directory).
type Config struct {
	RPCURL      string `json:"rpc_url"`
	ChainID     int64  `json:"chain_id"`
	ExplorerURL string `json:"explorer_url"`

	Token         Token  `json:"token"`
	DefaultWallet string `json:"default_wallet,omitempty"`

	// Estimator selects how gas is quoted: "simulation" (default) asks the
	// node to simulate the transfer; "feed" uses an external gas-price feed
	// with a fixed gas limit.
	Estimator     string `json:"estimator"`
	GasFeedURL    string `json:"gas_feed_url"`
	GasConfidence int    `json:"gas_confidence,omitempty"`

	PriceURL      string `json:"price_url"`
	PriceCoinID   string `json:"price_coin_id"`
	PriceCurrency string `json:"price_currency"`

	BalanceIntervalSec int `json:"balance_interval_sec"`
	PriceIntervalSec   int `json:"price_interval_sec"`

	configDir string
}

// Load reads config from dir (or creates defaults). dir defaults to
// ~/.w3send.
func Load(dir string) (*Config, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine home dir: %w", err)
		}
		dir = filepath.Join(home, ".w3send")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("could not create config dir: %w", err)
	}

	cfg := defaults(dir)

	path := filepath.Join(dir, configFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.configDir = dir
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.configDir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.configDir, configFile), data, 0o600)
}

// Dir returns the config directory.
func (c *Config) Dir() string {
	return c.configDir
}

// WalletsPath is the wallet metadata file inside the config directory.
func (c *Config) WalletsPath() string {
	return filepath.Join(c.configDir, "wallets.json")
}

// Validate checks the fields commands depend on.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("rpc_url is not set")
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("chain_id is not set")
	}
	if c.Estimator != EstimatorSimulation && c.Estimator != EstimatorFeed {
		return fmt.Errorf("estimator must be %q or %q, got %q",
			EstimatorSimulation, EstimatorFeed, c.Estimator)
	}
	return nil
}

// RequireToken errors unless a token contract is configured.
func (c *Config) RequireToken() error {
	if c.Token.Address == "" {
		return fmt.Errorf("no token configured — run: w3send config set-token <address>")
	}
	return nil
}

// ExplorerTxURL returns the block-explorer link for a transaction hash,
// or "" when no explorer is configured.
func (c *Config) ExplorerTxURL(hash string) string {
	if c.ExplorerURL == "" {
		return ""
	}
	return c.ExplorerURL + "/tx/" + hash
}

func defaults(dir string) *Config {
	return &Config{
		RPCURL:             defaultRPCURL,
		ChainID:            defaultChainID,
		ExplorerURL:        defaultExplorer,
		Estimator:          EstimatorSimulation,
		GasFeedURL:         defaultGasFeedURL,
		PriceURL:           defaultPriceURL,
		PriceCoinID:        defaultCoinID,
		PriceCurrency:      defaultCurrency,
		BalanceIntervalSec: defaultBalanceIntervalSec,
		PriceIntervalSec:   defaultPriceIntervalSec,
		configDir:          dir,
	}
}
