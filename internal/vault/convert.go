/*

Pure share/asset conversion math. Pro-rata with explicit rounding direction;
price-per-share is 1 while no shares exist. Rounding always favors the vault:
down when issuing shares or paying assets out, up when charging shares for a
withdrawal-denominated amount.

*/

package vault

import (
	sdkmath "cosmossdk.io/math"
)

// Rounding selects the direction integer division truncates toward.
type Rounding int

const (
	RoundDown Rounding = iota
	RoundUp
)

// MaxBPS is the basis-point denominator used for fee splits and loss
// tolerances.
const MaxBPS = 10_000

// sharesForAssets converts an asset amount to shares at the supplied totals.
func sharesForAssets(assets, totalSupply, totalAssets sdkmath.Int, rounding Rounding) sdkmath.Int {
	if totalSupply.IsZero() {
		return assets
	}
	if totalAssets.IsZero() {
		// Shares exist but the vault holds nothing; no asset amount can buy
		// into it.
		return sdkmath.ZeroInt()
	}
	return mulDiv(assets, totalSupply, totalAssets, rounding)
}

// assetsForShares converts a share amount to assets at the supplied totals.
func assetsForShares(shares, totalSupply, totalAssets sdkmath.Int, rounding Rounding) sdkmath.Int {
	if totalSupply.IsZero() {
		return shares
	}
	return mulDiv(shares, totalAssets, totalSupply, rounding)
}

// mulDiv computes a * num / den with the requested rounding.
func mulDiv(a, num, den sdkmath.Int, rounding Rounding) sdkmath.Int {
	prod := a.Mul(num)
	quo := prod.Quo(den)
	if rounding == RoundUp && !prod.Mod(den).IsZero() {
		quo = quo.Add(sdkmath.OneInt())
	}
	return quo
}

// bpsOf returns amount * bps / MaxBPS, floored.
func bpsOf(amount sdkmath.Int, bps uint16) sdkmath.Int {
	return amount.MulRaw(int64(bps)).QuoRaw(MaxBPS)
}
