/*

Gradual profit release. Profit shares are minted to the vault's own address
and burned off linearly, so reported gains dilute the share price into
holders' favor over the configured horizon instead of instantly. Locked
shares still count toward totalSupply, which keeps price-per-share honest
about the pending dilution.

*/

package vault

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// accrueProfitUnlock burns the shares that have unlocked since the last
// update. Runs at the top of every operation so conversions always see the
// decayed supply.
func (v *Vault) accrueProfitUnlock(now time.Time) {
	defer func() { v.lastProfitUpdate = now }()

	locked := v.ledger.balanceOf(v.addr)
	if !locked.IsPositive() || v.lastProfitUpdate.IsZero() {
		return
	}
	if !now.After(v.lastProfitUpdate) {
		return
	}

	var toUnlock sdkmath.Int
	if v.fullProfitUnlockDate.IsZero() || !now.Before(v.fullProfitUnlockDate) {
		toUnlock = locked
	} else {
		elapsed := now.Sub(v.lastProfitUpdate).Seconds()
		toUnlock = v.profitUnlockingRate.MulInt64(int64(elapsed)).TruncateInt()
		toUnlock = sdkmath.MinInt(toUnlock, locked)
	}
	if !toUnlock.IsPositive() {
		return
	}
	// Burning from the vault's own balance cannot fail here.
	_ = v.ledger.burn(v.addr, toUnlock)

	if v.ledger.balanceOf(v.addr).IsZero() {
		v.profitUnlockingRate = sdkmath.LegacyZeroDec()
		v.fullProfitUnlockDate = time.Time{}
	}
}

// scheduleProfitUnlock recomputes the linear release rate after a report
// added newlyLocked shares, so the combined locked balance unlocks exactly
// by now + horizon (weighted with the remainder of the previous schedule).
func (v *Vault) scheduleProfitUnlock(newlyLocked sdkmath.Int, now time.Time) {
	totalLocked := v.ledger.balanceOf(v.addr)
	if !totalLocked.IsPositive() || v.profitMaxUnlockTime <= 0 {
		v.profitUnlockingRate = sdkmath.LegacyZeroDec()
		v.fullProfitUnlockDate = time.Time{}
		return
	}

	previouslyLocked := totalLocked.Sub(newlyLocked)
	remainingSecs := sdkmath.LegacyZeroDec()
	if !v.fullProfitUnlockDate.IsZero() && v.fullProfitUnlockDate.After(now) {
		remainingSecs = sdkmath.LegacyNewDec(int64(v.fullProfitUnlockDate.Sub(now).Seconds()))
	}
	horizonSecs := sdkmath.LegacyNewDec(int64(v.profitMaxUnlockTime.Seconds()))

	// Weighted-average lock period across the old remainder and the new
	// tranche.
	weighted := remainingSecs.MulInt(previouslyLocked).
		Add(horizonSecs.MulInt(newlyLocked)).
		QuoInt(totalLocked)
	if !weighted.IsPositive() {
		v.profitUnlockingRate = sdkmath.LegacyZeroDec()
		v.fullProfitUnlockDate = time.Time{}
		return
	}

	v.profitUnlockingRate = sdkmath.LegacyNewDecFromInt(totalLocked).Quo(weighted)
	v.fullProfitUnlockDate = now.Add(time.Duration(weighted.MulInt64(int64(time.Second)).TruncateInt64()))
	v.lastProfitUpdate = now
}

// SetProfitMaxUnlockTime replaces the unlock horizon. Setting it to zero
// releases any still-locked profit immediately and disables future locking.
func (v *Vault) SetProfitMaxUnlockTime(caller string, horizon time.Duration) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireRole(caller, RoleLimitManager); err != nil {
		return err
	}
	if horizon < 0 {
		return ErrZeroAmount
	}
	v.begin()
	v.profitMaxUnlockTime = horizon
	if horizon == 0 {
		if locked := v.ledger.balanceOf(v.addr); locked.IsPositive() {
			_ = v.ledger.burn(v.addr, locked)
		}
		v.profitUnlockingRate = sdkmath.LegacyZeroDec()
		v.fullProfitUnlockDate = time.Time{}
	}
	v.log.Info().Str("caller", caller).Dur("horizon", horizon).Msg("Profit unlock horizon updated")
	return nil
}

// ProfitUnlockInfo exposes the scheduler state for the API surface.
func (v *Vault) ProfitUnlockInfo() (fullUnlockDate time.Time, ratePerSecond sdkmath.LegacyDec, locked sdkmath.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.begin()
	return v.fullProfitUnlockDate, v.profitUnlockingRate, v.ledger.balanceOf(v.addr)
}
