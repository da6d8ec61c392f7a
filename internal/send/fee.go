package send

import (
	"math/big"
)

var weiPerEth = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// FeeUSD converts a gas estimate into a USD cost:
//
//	gasLimit * gasPriceWei → fee in wei (integer, exact)
//	fee / 1e18 * usdRate   → fee in USD
//
// ok is false when an input is missing (nil price, no rate yet) — callers
// show "calculating" in that case. A computed zero is a real result, not
// a missing one, so it is reported with ok=true.
func FeeUSD(gasLimit uint64, gasPriceWei *big.Int, usdRate float64, haveRate bool) (usd float64, ok bool) {
	if gasPriceWei == nil || !haveRate {
		return 0, false
	}
	feeWei := new(big.Int).Mul(new(big.Int).SetUint64(gasLimit), gasPriceWei)
	feeEth := new(big.Float).Quo(new(big.Float).SetInt(feeWei), weiPerEth)
	usd, _ = new(big.Float).Mul(feeEth, big.NewFloat(usdRate)).Float64()
	return usd, true
}

// QuoteUSD applies FeeUSD to a full estimate, using its effective gas price.
func QuoteUSD(est *Estimate, usdRate float64, haveRate bool) (usd float64, ok bool) {
	if est == nil {
		return 0, false
	}
	return FeeUSD(est.GasLimit, est.EffectiveGasPrice(), usdRate, haveRate)
}
