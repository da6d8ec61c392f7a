package contract

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// erc20ABI is the minimal ERC-20 surface this tool touches.
const erc20ABI = `[
	{"name":"transfer","type":"function","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"name":"decimals","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"name":"symbol","type":"function","stateMutability":"view",
	 "inputs":[],"outputs":[{"name":"","type":"string"}]}
]`

var (
	parsedABI  abi.ABI
	parseOnce  sync.Once
	parseError error
)

func parsed() (abi.ABI, error) {
	parseOnce.Do(func() {
		parsedABI, parseError = abi.JSON(strings.NewReader(erc20ABI))
	})
	return parsedABI, parseError
}

// EncodeTransfer returns transfer(to, amount) calldata as a 0x-prefixed hex
// string. amount is in the token's smallest unit.
func EncodeTransfer(to string, amount *big.Int) (string, error) {
	if !common.IsHexAddress(to) {
		return "", fmt.Errorf("invalid recipient address: %s", to)
	}
	a, err := parsed()
	if err != nil {
		return "", fmt.Errorf("parsing ERC-20 ABI: %w", err)
	}
	data, err := a.Pack("transfer", common.HexToAddress(to), amount)
	if err != nil {
		return "", fmt.Errorf("encoding transfer: %w", err)
	}
	return hexutil.Encode(data), nil
}

// caller is the read-call surface of chain.EVMClient the token queries need.
type caller interface {
	CallContract(ctx context.Context, to, data string) (string, error)
}

// Decimals queries the token's decimal count.
func Decimals(ctx context.Context, c caller, tokenAddr string) (int, error) {
	a, err := parsed()
	if err != nil {
		return 0, err
	}
	data, err := a.Pack("decimals")
	if err != nil {
		return 0, err
	}
	result, err := c.CallContract(ctx, tokenAddr, hexutil.Encode(data))
	if err != nil {
		return 0, fmt.Errorf("querying decimals: %w", err)
	}
	raw, err := hexutil.Decode(result)
	if err != nil {
		return 0, fmt.Errorf("decoding decimals result: %w", err)
	}
	out, err := a.Unpack("decimals", raw)
	if err != nil {
		return 0, fmt.Errorf("unpacking decimals: %w", err)
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals type: %T", out[0])
	}
	return int(d), nil
}

// Symbol queries the token's ticker symbol.
func Symbol(ctx context.Context, c caller, tokenAddr string) (string, error) {
	a, err := parsed()
	if err != nil {
		return "", err
	}
	data, err := a.Pack("symbol")
	if err != nil {
		return "", err
	}
	result, err := c.CallContract(ctx, tokenAddr, hexutil.Encode(data))
	if err != nil {
		return "", fmt.Errorf("querying symbol: %w", err)
	}
	raw, err := hexutil.Decode(result)
	if err != nil {
		return "", fmt.Errorf("decoding symbol result: %w", err)
	}
	out, err := a.Unpack("symbol", raw)
	if err != nil {
		return "", fmt.Errorf("unpacking symbol: %w", err)
	}
	s, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected symbol type: %T", out[0])
	}
	return s, nil
}
