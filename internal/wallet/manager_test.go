package wallet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Well-known hardhat test key #0 — never holds real funds.
const (
	testKey  = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func newTestManager() *Manager {
	return NewManager(WithStore(&memStore{}), WithKeystore(NewInMemoryKeystore()))
}

// ---------------------------------------------------------------------------
// Manager
// ---------------------------------------------------------------------------

func TestAddWithKeyDerivesAddress(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.AddWithKey("hot", testKey))

	w, err := m.Get("hot")
	require.NoError(t, err)
	assert.Equal(t, testAddr, w.Address)
	assert.Equal(t, TypeSigning, w.Type)
	assert.NotEmpty(t, w.KeyRef)
	assert.NotEmpty(t, w.CreatedAt)
}

func TestAddWithKeyRejectsBadKey(t *testing.T) {
	m := newTestManager()
	err := m.AddWithKey("bad", "zzzz")
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestAddDuplicate(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.AddWithKey("hot", testKey))
	assert.ErrorIs(t, m.AddWithKey("hot", testKey), ErrWalletExists)
}

func TestAddWatchOnly(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.AddWatchOnly("cold", testAddr))

	w, err := m.Get("cold")
	require.NoError(t, err)
	assert.Equal(t, TypeWatchOnly, w.Type)
	assert.Empty(t, w.KeyRef)
}

func TestGetMissing(t *testing.T) {
	m := newTestManager()
	_, err := m.Get("nope")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestRemoveDeletesKey(t *testing.T) {
	ks := NewInMemoryKeystore()
	m := NewManager(WithStore(&memStore{}), WithKeystore(ks))
	require.NoError(t, m.AddWithKey("hot", testKey))
	w, _ := m.Get("hot")

	require.NoError(t, m.Remove("hot"))
	_, err := m.Get("hot")
	assert.ErrorIs(t, err, ErrWalletNotFound)
	_, err = ks.Retrieve(w.KeyRef)
	assert.Error(t, err)
}

func TestSetDefault(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.AddWithKey("a", testKey))
	require.NoError(t, m.AddWatchOnly("b", testAddr))
	require.NoError(t, m.SetDefault("b"))

	d := m.Default()
	require.NotNil(t, d)
	assert.Equal(t, "b", d.Name)
}

func TestDefaultSingleWalletFallback(t *testing.T) {
	m := newTestManager()
	require.NoError(t, m.AddWithKey("only", testKey))
	d := m.Default()
	require.NotNil(t, d)
	assert.Equal(t, "only", d.Name)
}

func TestDefaultNone(t *testing.T) {
	m := newTestManager()
	assert.Nil(t, m.Default())
}

// ---------------------------------------------------------------------------
// JSONStore
// ---------------------------------------------------------------------------

func TestJSONStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	store := NewJSONStore(path)

	in := []*Wallet{{Name: "hot", Address: testAddr, Type: TypeSigning, KeyRef: "ref"}}
	require.NoError(t, store.Save(in))

	out, err := store.Load()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "hot", out[0].Name)
	assert.Equal(t, testAddr, out[0].Address)
}

func TestJSONStoreLoadNoFile(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "missing.json"))
	ws, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, ws)
}

func TestManagerPersistsThroughStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	ks := NewInMemoryKeystore()

	m1 := NewManager(WithStore(NewJSONStore(path)), WithKeystore(ks))
	require.NoError(t, m1.AddWithKey("hot", testKey))

	m2 := NewManager(WithStore(NewJSONStore(path)), WithKeystore(ks))
	w, err := m2.Get("hot")
	require.NoError(t, err)
	assert.Equal(t, testAddr, w.Address)
}
