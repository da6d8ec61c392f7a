package token

import (
	"fmt"
	"math/big"
	"strings"
)

// DefaultDecimals is the decimal count used by almost every ERC-20 token.
const DefaultDecimals = 18

// ParseAmount converts a decimal string like "1.5" into the token's
// smallest unit as a big.Int (e.g. 1500000000000000000 at 18 decimals).
// The conversion is exact: digits beyond the token's decimal count are
// rejected rather than silently truncated.
func ParseAmount(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	neg := strings.HasPrefix(s, "-")
	if neg {
		return nil, fmt.Errorf("negative amount: %s", s)
	}
	s = strings.TrimPrefix(s, "+")

	whole, frac := s, ""
	if idx := strings.Index(s, "."); idx >= 0 {
		whole, frac = s[:idx], s[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", s, decimals)
	}
	// Right-pad the fractional part to the full decimal width.
	frac = frac + strings.Repeat("0", decimals-len(frac))

	n, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", s)
	}
	return n, nil
}

// FormatAmount converts a smallest-unit integer to a decimal string,
// trimming trailing zeros ("1.5000" → "1.5", "2.000" → "2").
func FormatAmount(n *big.Int, decimals int) string {
	if n == nil {
		return "0"
	}
	if decimals <= 0 {
		return n.String()
	}
	s := n.String()
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	cut := len(s) - decimals
	whole, frac := s[:cut], s[cut:]
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

// PercentOf returns pct of balance as a decimal string rounded (half-up) to
// 6 places. The rounded string is the authoritative value the form uses;
// callers must not re-derive a larger amount from it (naive floating
// multiplication of a full balance can otherwise overshoot the true balance
// by one smallest unit).
func PercentOf(balance *big.Int, decimals int, pct float64) string {
	if balance == nil || balance.Sign() <= 0 || pct <= 0 {
		return "0"
	}
	r := new(big.Rat).SetInt(balance)
	r.Quo(r, new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)))
	r.Mul(r, new(big.Rat).SetFloat64(pct))

	// Round to 6 places: scale up, add half, floor.
	r.Mul(r, new(big.Rat).SetInt64(1_000_000))
	r.Add(r, big.NewRat(1, 2))
	scaled := new(big.Int).Quo(r.Num(), r.Denom())

	return FormatAmount(scaled, 6)
}
