package send

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3send/internal/chain"
	"github.com/Mohsinsiddi/w3send/internal/wallet"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Hardhat account #0.
const (
	senderKey  = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	senderAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

type fakeChain struct {
	nonce    uint64
	nonceErr error
	sendErr  error
	rawSent  string
	receipt  *chain.TxReceipt
	waitErr  error
}

func (f *fakeChain) GetNonce(ctx context.Context, address string) (uint64, error) {
	return f.nonce, f.nonceErr
}

func (f *fakeChain) SendRawTransaction(ctx context.Context, rawTx string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.rawSent = rawTx
	return "0xhash", nil
}

func (f *fakeChain) WaitForReceipt(ctx context.Context, hash string, timeout time.Duration) (*chain.TxReceipt, error) {
	return f.receipt, f.waitErr
}

func newTestSubmitter(t *testing.T, c *fakeChain) *TxSubmitter {
	t.Helper()
	ks := wallet.NewInMemoryKeystore()
	m := wallet.NewManager(wallet.WithKeystore(ks))
	require.NoError(t, m.AddWithKey("hot", senderKey))
	w, err := m.Get("hot")
	require.NoError(t, err)
	return NewTxSubmitter(c, wallet.NewSigner(w, ks), big.NewInt(11155111), tokenAddr)
}

func TestSubmitBroadcastsSignedTransfer(t *testing.T) {
	c := &fakeChain{nonce: 9}
	sub := newTestSubmitter(t, c)

	hash, err := sub.Submit(context.Background(), TransferRequest{
		To:     goodAddr,
		Amount: big.NewInt(25_000_000),
	}, testEstimate())
	require.NoError(t, err)
	assert.Equal(t, "0xhash", hash)

	// The broadcast bytes must decode to a type-2 tx addressed to the token
	// contract with our nonce, fees and a transfer() calldata payload.
	raw, err := hexutil.Decode(c.rawSent)
	require.NoError(t, err)
	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))

	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, uint64(9), tx.Nonce())
	assert.Equal(t, tokenAddr, tx.To().Hex())
	assert.Equal(t, uint64(50_000), tx.Gas())
	assert.Equal(t, gwei(30), tx.GasFeeCap())
	assert.Equal(t, gwei(2), tx.GasTipCap())
	assert.Zero(t, tx.Value().Sign(), "token transfers carry no native value")
	require.Len(t, tx.Data(), 68)
	assert.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, tx.Data()[:4])

	from, err := types.Sender(types.NewLondonSigner(big.NewInt(11155111)), &tx)
	require.NoError(t, err)
	assert.Equal(t, senderAddr, from.Hex())
}

func TestSubmitWithoutEstimate(t *testing.T) {
	sub := newTestSubmitter(t, &fakeChain{})
	_, err := sub.Submit(context.Background(), TransferRequest{To: goodAddr, Amount: big.NewInt(1)}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no gas estimate")
}

func TestSubmitNonceError(t *testing.T) {
	c := &fakeChain{nonceErr: errors.New("connection refused")}
	sub := newTestSubmitter(t, c)

	_, err := sub.Submit(context.Background(), TransferRequest{To: goodAddr, Amount: big.NewInt(1)}, testEstimate())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching nonce")
}

func TestSubmitBroadcastError(t *testing.T) {
	c := &fakeChain{sendErr: errors.New("insufficient funds for gas")}
	sub := newTestSubmitter(t, c)

	_, err := sub.Submit(context.Background(), TransferRequest{To: goodAddr, Amount: big.NewInt(1)}, testEstimate())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broadcasting transaction")
}

func TestWaitMinedSurfacesRevert(t *testing.T) {
	c := &fakeChain{waitErr: errors.New("transaction reverted (hash: 0xhash)")}
	sub := newTestSubmitter(t, c)
	assert.ErrorContains(t, sub.WaitMined(context.Background(), "0xhash"), "reverted")
}

func TestWaitMinedMapsReceiptTimeout(t *testing.T) {
	c := &fakeChain{waitErr: fmt.Errorf("transaction 0xhash: %w after 3m0s", chain.ErrReceiptTimeout)}
	sub := newTestSubmitter(t, c)

	err := sub.WaitMined(context.Background(), "0xhash")
	require.ErrorIs(t, err, ErrMineTimeout)
	assert.Contains(t, err.Error(), "0xhash")
}
