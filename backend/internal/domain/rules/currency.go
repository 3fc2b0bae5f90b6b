package rules

import (
	"fmt"
	"math"
	"math/big"
)

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// USDCentsToWei converts a USD price to wei at a static ETH/USD rate,
// rounding up so the required amount never undershoots the price.
func USDCentsToWei(cents int64, ethUSD float64) (*big.Int, error) {
	if cents <= 0 {
		return nil, fmt.Errorf("price must be positive")
	}
	if ethUSD <= 0 || math.IsNaN(ethUSD) || math.IsInf(ethUSD, 0) {
		return nil, fmt.Errorf("eth usd rate must be positive")
	}

	rateCents := big.NewInt(int64(math.Round(ethUSD * 100)))
	if rateCents.Sign() <= 0 {
		return nil, fmt.Errorf("eth usd rate too small")
	}

	num := new(big.Int).Mul(big.NewInt(cents), weiPerEther)
	quo, rem := new(big.Int).QuoRem(num, rateCents, new(big.Int))
	if rem.Sign() > 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return quo, nil
}

// FormatUSD renders cents as a dollar string, e.g. 1500 -> "15.00".
func FormatUSD(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
