package ens

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ENS Registry address — same on Ethereum mainnet and Sepolia.
const registryAddr = "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"

const zeroAddr = "0x0000000000000000000000000000000000000000"

// caller is the chain access the resolver needs.
type caller interface {
	CallContract(ctx context.Context, to, data string) (string, error)
}

// IsName reports whether s looks like an ENS name rather than a hex
// address: at least one dot and no 0x prefix.
func IsName(s string) bool {
	s = strings.TrimSpace(s)
	return !strings.HasPrefix(s, "0x") && strings.Contains(s, ".") && !strings.HasSuffix(s, ".")
}

// Resolve resolves an ENS name to an address.
// It queries the ENS registry for the resolver, then calls addr(bytes32) on it.
func Resolve(ctx context.Context, c caller, name string) (string, error) {
	node := Namehash(name)

	// resolver(bytes32) = 0x0178b8bf
	resolverResult, err := c.CallContract(ctx, registryAddr, "0x0178b8bf"+node)
	if err != nil {
		return "", fmt.Errorf("querying ENS registry: %w", err)
	}
	resolverAddr := parseAddress(resolverResult)
	if resolverAddr == "" || resolverAddr == zeroAddr {
		return "", fmt.Errorf("no resolver set for %q", name)
	}

	// addr(bytes32) = 0x3b3b57de
	addrResult, err := c.CallContract(ctx, resolverAddr, "0x3b3b57de"+node)
	if err != nil {
		return "", fmt.Errorf("querying ENS resolver: %w", err)
	}
	resolved := parseAddress(addrResult)
	if resolved == "" || resolved == zeroAddr {
		return "", fmt.Errorf("no address record for %q", name)
	}
	return resolved, nil
}

// Namehash implements the EIP-137 namehash algorithm.
// namehash("") = 0x00...00
// namehash("eth") = keccak256(namehash("") + keccak256("eth"))
func Namehash(name string) string {
	node := make([]byte, 32)

	if name == "" {
		return fmt.Sprintf("%064x", node)
	}

	labels := strings.Split(strings.ToLower(name), ".")
	// Process labels right-to-left.
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := keccak256([]byte(labels[i]))
		node = keccak256(append(node, labelHash...))
	}

	return fmt.Sprintf("%064x", node)
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// parseAddress extracts a 20-byte address from a 32-byte ABI-encoded word.
func parseAddress(hexResult string) string {
	clean := strings.TrimPrefix(hexResult, "0x")
	if len(clean) < 64 {
		return ""
	}
	addr := clean[24:64]
	if strings.Trim(addr, "0") == "" {
		return zeroAddr
	}
	return "0x" + addr
}
