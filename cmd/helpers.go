package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/w3send/internal/chain"
	"github.com/Mohsinsiddi/w3send/internal/config"
	"github.com/Mohsinsiddi/w3send/internal/contract"
	"github.com/Mohsinsiddi/w3send/internal/token"
	"github.com/Mohsinsiddi/w3send/internal/wallet"
)

const rpcCallTimeout = 15 * time.Second

// newWalletManager creates a Manager backed by the config-dir JSON store.
func newWalletManager() *wallet.Manager {
	return wallet.NewManager(wallet.WithStore(wallet.NewJSONStore(cfg.WalletsPath())))
}

// connectedClient dials the configured RPC and verifies it serves the
// configured chain. Every on-chain command goes through this gate so a
// transfer can never be signed for the wrong network.
func connectedClient(ctx context.Context) (*chain.EVMClient, error) {
	client := chain.NewEVMClient(cfg.RPCURL)

	ctx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()
	id, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", cfg.RPCURL, err)
	}
	if id.Int64() != cfg.ChainID {
		return nil, fmt.Errorf("wrong network: RPC serves chain %d, config expects %d — fix rpc_url or chain_id", id.Int64(), cfg.ChainID)
	}
	return client, nil
}

// findWallet returns the wallet a command operates on: the named one if
// given, otherwise the configured default. Watch-only wallets qualify, so
// read-only commands accept them.
func findWallet(mgr *wallet.Manager, name string) (*wallet.Wallet, error) {
	if name == "" {
		name = cfg.DefaultWallet
	}
	if name == "" {
		if w := mgr.Default(); w != nil {
			name = w.Name
		}
	}
	if name == "" {
		return nil, fmt.Errorf("no wallet configured — add one: w3send wallet add hot --key <private-key>")
	}
	w, err := mgr.Get(name)
	if err != nil {
		return nil, fmt.Errorf("wallet %q not found — run: w3send wallet list", name)
	}
	return w, nil
}

// findSigningWallet is findWallet restricted to wallets that can sign.
func findSigningWallet(mgr *wallet.Manager, name string) (*wallet.Wallet, error) {
	w, err := findWallet(mgr, name)
	if err != nil {
		return nil, err
	}
	if w.Type != wallet.TypeSigning {
		return nil, fmt.Errorf("wallet %q is watch-only — re-add it with --key to sign transfers", w.Name)
	}
	return w, nil
}

// resolveWallet picks the wallet for read-only commands.
func resolveWallet(name string) (*wallet.Wallet, error) {
	return findWallet(newWalletManager(), name)
}

// resolveSigningWallet picks the wallet used to sign transfers.
func resolveSigningWallet(name string) (*wallet.Wallet, error) {
	return findSigningWallet(newWalletManager(), name)
}

// tokenMeta resolves the token's symbol and decimals, preferring the
// on-chain values and falling back to the configured ones when the
// contract doesn't answer. With neither, decimals default to the ERC-20
// standard so amounts still parse.
func tokenMeta(ctx context.Context, client *chain.EVMClient) (symbol string, decimals int) {
	symbol, decimals = cfg.Token.Symbol, cfg.Token.Decimals
	if symbol == "" {
		symbol = "TOKEN"
	}

	ctx, cancel := context.WithTimeout(ctx, rpcCallTimeout)
	defer cancel()
	if d, err := contract.Decimals(ctx, client, cfg.Token.Address); err == nil {
		decimals = d
	} else if decimals <= 0 {
		decimals = token.DefaultDecimals
	}
	if s, err := contract.Symbol(ctx, client, cfg.Token.Address); err == nil && s != "" {
		symbol = s
	}
	return symbol, decimals
}

// estimatorLabel names the configured estimator mode for display.
func estimatorLabel(c *config.Config) string {
	if c.Estimator == config.EstimatorFeed {
		return "gas feed"
	}
	return "simulation"
}
