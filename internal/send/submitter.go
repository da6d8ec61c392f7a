package send

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/w3send/internal/chain"
	"github.com/Mohsinsiddi/w3send/internal/contract"
	"github.com/Mohsinsiddi/w3send/internal/wallet"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DefaultMineTimeout bounds how long a broadcast transfer is tracked before
// giving up. The transaction may still mine after; the hash stays visible.
const DefaultMineTimeout = 3 * time.Minute

// ReceiptClient is the chain access the submitter needs.
type ReceiptClient interface {
	GetNonce(ctx context.Context, address string) (uint64, error)
	SendRawTransaction(ctx context.Context, rawTx string) (string, error)
	WaitForReceipt(ctx context.Context, hash string, timeout time.Duration) (*chain.TxReceipt, error)
}

// TxSubmitter turns a confirmed transfer into a signed, broadcast ERC-20
// transfer transaction and tracks it to a receipt.
type TxSubmitter struct {
	client      ReceiptClient
	signer      *wallet.Signer
	chainID     *big.Int
	tokenAddr   string
	mineTimeout time.Duration
}

// NewTxSubmitter creates a submitter bound to one chain, token and signing
// wallet.
func NewTxSubmitter(client ReceiptClient, signer *wallet.Signer, chainID *big.Int, tokenAddr string) *TxSubmitter {
	return &TxSubmitter{
		client:      client,
		signer:      signer,
		chainID:     chainID,
		tokenAddr:   tokenAddr,
		mineTimeout: DefaultMineTimeout,
	}
}

// Submit implements Submitter: encode the transfer call, sign it as a
// type-2 transaction with the estimate's fees, and broadcast.
func (t *TxSubmitter) Submit(ctx context.Context, req TransferRequest, est *Estimate) (string, error) {
	if est == nil {
		return "", fmt.Errorf("no gas estimate for transfer")
	}
	data, err := contract.EncodeTransfer(req.To, req.Amount)
	if err != nil {
		return "", err
	}
	nonce, err := t.client.GetNonce(ctx, t.signer.Address())
	if err != nil {
		return "", fmt.Errorf("fetching nonce: %w", err)
	}

	raw, err := t.signer.SignDynamicFeeTx(wallet.TxParams{
		ChainID:              t.chainID,
		Nonce:                nonce,
		To:                   t.tokenAddr,
		Data:                 hexutil.MustDecode(data),
		Gas:                  est.GasLimit,
		MaxFeePerGas:         est.MaxFeePerGas,
		MaxPriorityFeePerGas: est.MaxPriorityFeePerGas,
	})
	if err != nil {
		return "", err
	}

	hash, err := t.client.SendRawTransaction(ctx, hexutil.Encode(raw))
	if err != nil {
		return "", fmt.Errorf("broadcasting transaction: %w", err)
	}
	return hash, nil
}

// WaitMined implements Submitter. A tracking timeout is surfaced as
// ErrMineTimeout so the machine can block re-submission of a transfer
// that may still mine.
func (t *TxSubmitter) WaitMined(ctx context.Context, hash string) error {
	_, err := t.client.WaitForReceipt(ctx, hash, t.mineTimeout)
	if errors.Is(err, chain.ErrReceiptTimeout) {
		return fmt.Errorf("%w (hash %s)", ErrMineTimeout, hash)
	}
	return err
}
