package wallet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	ks := NewInMemoryKeystore()
	m := NewManager(WithStore(&memStore{}), WithKeystore(ks))
	require.NoError(t, m.AddWithKey("hot", testKey))
	w, err := m.Get("hot")
	require.NoError(t, err)
	return NewSigner(w, ks)
}

func TestSignDynamicFeeTx(t *testing.T) {
	s := newTestSigner(t)

	raw, err := s.SignDynamicFeeTx(TxParams{
		ChainID:              big.NewInt(11155111),
		Nonce:                7,
		To:                   "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		Data:                 []byte{0xa9, 0x05, 0x9c, 0xbb},
		Gas:                  50000,
		MaxFeePerGas:         big.NewInt(30_000_000_000),
		MaxPriorityFeePerGas: big.NewInt(2_000_000_000),
	})
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	// Raw bytes must decode back to a type-2 transaction with our fields
	// and recover to the signing address.
	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))
	assert.Equal(t, uint8(types.DynamicFeeTxType), tx.Type())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(50000), tx.Gas())
	assert.Equal(t, big.NewInt(30_000_000_000), tx.GasFeeCap())
	assert.Equal(t, big.NewInt(2_000_000_000), tx.GasTipCap())

	from, err := types.Sender(types.NewLondonSigner(big.NewInt(11155111)), &tx)
	require.NoError(t, err)
	assert.Equal(t, testAddr, from.Hex())
}

func TestSignDynamicFeeTxDefaultsValue(t *testing.T) {
	s := newTestSigner(t)
	raw, err := s.SignDynamicFeeTx(TxParams{
		ChainID:              big.NewInt(1),
		To:                   testAddr,
		Gas:                  21000,
		MaxFeePerGas:         big.NewInt(1),
		MaxPriorityFeePerGas: big.NewInt(1),
	})
	require.NoError(t, err)

	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))
	assert.Equal(t, int64(0), tx.Value().Int64())
}

func TestSignRejectsWatchOnly(t *testing.T) {
	ks := NewInMemoryKeystore()
	s := NewSigner(&Wallet{Name: "cold", Type: TypeWatchOnly}, ks)
	_, err := s.SignDynamicFeeTx(TxParams{ChainID: big.NewInt(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "watch-only")
}

func TestSignerAddress(t *testing.T) {
	s := newTestSigner(t)
	assert.Equal(t, testAddr, s.Address())
}
