package ens

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Namehash — EIP-137 test vectors
// ---------------------------------------------------------------------------

func TestNamehash_Empty(t *testing.T) {
	expected := "0000000000000000000000000000000000000000000000000000000000000000"
	assert.Equal(t, expected, Namehash(""))
}

func TestNamehash_ETH(t *testing.T) {
	// Known EIP-137 vector for "eth".
	expected := "93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae"
	assert.Equal(t, expected, Namehash("eth"))
}

func TestNamehash_FooETH(t *testing.T) {
	// Known EIP-137 vector for "foo.eth".
	expected := "de9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f"
	assert.Equal(t, expected, Namehash("foo.eth"))
}

func TestNamehash_Normalized(t *testing.T) {
	// Names are lowercased before hashing.
	assert.Equal(t, Namehash("test.eth"), Namehash("Test.ETH"))
}

func TestNamehash_DifferentNames(t *testing.T) {
	assert.NotEqual(t, Namehash("alice.eth"), Namehash("bob.eth"))
}

func TestNamehash_Subdomain(t *testing.T) {
	result := Namehash("sub.test.eth")
	assert.Len(t, result, 64)
	assert.NotEqual(t, Namehash("test.eth"), result)
}

// ---------------------------------------------------------------------------
// Resolve — fake caller
// ---------------------------------------------------------------------------

// fakeCaller replays canned eth_call results keyed by the 4-byte selector.
type fakeCaller struct {
	bySelector map[string]string
	err        error
	calls      []string
}

func (f *fakeCaller) CallContract(ctx context.Context, to, data string) (string, error) {
	f.calls = append(f.calls, to)
	if f.err != nil {
		return "", f.err
	}
	return f.bySelector[data[:10]], nil
}

const (
	selResolver = "0x0178b8bf"
	selAddr     = "0x3b3b57de"
)

func TestResolve(t *testing.T) {
	resolverWord := "0x000000000000000000000000" + "4976fb03c32e5b8cfe2b6ccb31c09ba78ebaba41"
	targetWord := "0x000000000000000000000000" + "d8da6bf26964af9d7eed9e03e53415d37aa96045"

	c := &fakeCaller{bySelector: map[string]string{
		selResolver: resolverWord,
		selAddr:     targetWord,
	}}

	address, err := Resolve(context.Background(), c, "vitalik.eth")
	require.NoError(t, err)
	assert.Equal(t, "0xd8da6bf26964af9d7eed9e03e53415d37aa96045", address)

	// First call hits the registry, second the resolver it returned.
	require.Len(t, c.calls, 2)
	assert.Equal(t, registryAddr, c.calls[0])
	assert.Equal(t, "0x4976fb03c32e5b8cfe2b6ccb31c09ba78ebaba41", c.calls[1])
}

func TestResolveNoResolver(t *testing.T) {
	c := &fakeCaller{bySelector: map[string]string{
		selResolver: "0x0000000000000000000000000000000000000000000000000000000000000000",
	}}

	_, err := Resolve(context.Background(), c, "nonexistent.eth")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no resolver")
}

func TestResolveNoAddressRecord(t *testing.T) {
	resolverWord := "0x000000000000000000000000" + "4976fb03c32e5b8cfe2b6ccb31c09ba78ebaba41"
	c := &fakeCaller{bySelector: map[string]string{
		selResolver: resolverWord,
		selAddr:     "0x0000000000000000000000000000000000000000000000000000000000000000",
	}}

	_, err := Resolve(context.Background(), c, "empty.eth")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no address record")
}

func TestResolveRegistryError(t *testing.T) {
	c := &fakeCaller{err: errors.New("connection refused")}
	_, err := Resolve(context.Background(), c, "vitalik.eth")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENS registry")
}

// ---------------------------------------------------------------------------
// IsName
// ---------------------------------------------------------------------------

func TestIsName(t *testing.T) {
	assert.True(t, IsName("vitalik.eth"))
	assert.True(t, IsName("sub.test.eth"))
	assert.False(t, IsName("0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045"))
	assert.False(t, IsName("plainname"))
	assert.False(t, IsName("trailing."))
	assert.False(t, IsName(""))
}

// ---------------------------------------------------------------------------
// parseAddress
// ---------------------------------------------------------------------------

func TestParseAddress_Valid(t *testing.T) {
	input := "0x000000000000000000000000d8da6bf26964af9d7eed9e03e53415d37aa96045"
	assert.Equal(t, "0xd8da6bf26964af9d7eed9e03e53415d37aa96045", parseAddress(input))
}

func TestParseAddress_Zero(t *testing.T) {
	input := "0x0000000000000000000000000000000000000000000000000000000000000000"
	assert.Equal(t, zeroAddr, parseAddress(input))
}

func TestParseAddress_Short(t *testing.T) {
	assert.Equal(t, "", parseAddress("0xabcd"))
}

func TestParseAddress_NoPrefix(t *testing.T) {
	input := "000000000000000000000000d8da6bf26964af9d7eed9e03e53415d37aa96045"
	assert.Equal(t, "0xd8da6bf26964af9d7eed9e03e53415d37aa96045", parseAddress(input))
}
