/*

Rage-quit custody: a holder can lock shares behind a cooldown, after which a
single withdrawal window opens. The locked tranche cannot be transferred or
withdrawn before the window opens; once the window is used, any remainder
stays locked with no timer until the holder starts a fresh cooldown or
cancels.

*/

package vault

import (
	"time"

	sdkerrors "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/types"
)

// InitiateRageQuit locks lockShares of the caller's balance behind the
// cooldown. Shares already locked without a running timer (the leftover of a
// used window) are folded into the new lock. Rejected while a timer is
// already running.
func (v *Vault) InitiateRageQuit(caller string, lockShares sdkmath.Int) (time.Time, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.begin()

	if caller == "" {
		return time.Time{}, ErrEmptyAddress
	}
	if lockShares.IsNil() || !lockShares.IsPositive() {
		return time.Time{}, ErrZeroShares
	}
	if rec, ok := v.custody[caller]; ok && !rec.UnlockTime.IsZero() {
		if rec.WindowOpen(now) {
			return time.Time{}, sdkerrors.Wrapf(ErrCustodyOpen,
				"withdrawal window open since %s", rec.UnlockTime.Format(time.RFC3339))
		}
		return time.Time{}, sdkerrors.Wrapf(ErrCooldownPending,
			"cooldown running until %s", rec.UnlockTime.Format(time.RFC3339))
	}

	totalLocked := lockShares
	if rec, ok := v.custody[caller]; ok {
		totalLocked = totalLocked.Add(rec.LockedShares)
	}
	if v.ledger.balanceOf(caller).LT(totalLocked) {
		return time.Time{}, sdkerrors.Wrapf(ErrInsufficientShares,
			"holder %s holds %s, locking %s", caller, v.ledger.balanceOf(caller), totalLocked)
	}

	unlockTime := now.Add(v.rageQuitCooldown)
	v.custody[caller] = &types.CustodyRecord{
		LockedShares: totalLocked,
		UnlockTime:   unlockTime,
	}

	v.log.Info().
		Str("holder", caller).
		Str("lockedShares", totalLocked.String()).
		Time("unlockTime", unlockTime).
		Msg("Rage quit initiated")
	return unlockTime, nil
}

// CancelRageQuit releases the caller's custody lock. Works at any point of
// the lifecycle: during cooldown, with the window open, or on a timer-less
// leftover.
func (v *Vault) CancelRageQuit(caller string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.begin()

	if caller == "" {
		return ErrEmptyAddress
	}
	rec, ok := v.custody[caller]
	if !ok {
		return sdkerrors.Wrapf(ErrNoCustody, "holder %s", caller)
	}
	delete(v.custody, caller)

	v.log.Info().
		Str("holder", caller).
		Str("releasedShares", rec.LockedShares.String()).
		Msg("Rage quit cancelled")
	return nil
}

// CustodyInfo returns the caller's custody record and whether one exists.
func (v *Vault) CustodyInfo(holder string) (types.CustodyRecord, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	rec, ok := v.custody[holder]
	if !ok {
		return types.CustodyRecord{}, false
	}
	return *rec, true
}

// checkCustodyWithdrawal authorizes redeeming shares for a holder with a
// possible custody lock and returns how many locked shares the redemption
// will consume. Before the window opens only the free balance is spendable;
// once open, locked shares are consumed first.
func (v *Vault) checkCustodyWithdrawal(owner string, shares sdkmath.Int) (sdkmath.Int, error) {
	zero := sdkmath.ZeroInt()
	rec, ok := v.custody[owner]
	if !ok {
		return zero, nil
	}
	if rec.WindowOpen(v.nowFn()) {
		return sdkmath.MinInt(shares, rec.LockedShares), nil
	}
	free := v.ledger.balanceOf(owner).Sub(rec.LockedShares)
	if shares.GT(free) {
		return zero, sdkerrors.Wrapf(ErrSharesLocked,
			"holder %s has %s free shares, redeeming %s", owner, free, shares)
	}
	return zero, nil
}

// consumeCustody applies the consumption decided by checkCustodyWithdrawal.
// Consuming any amount closes the one-shot window; a leftover stays locked
// with the timer cleared.
func (v *Vault) consumeCustody(owner string, consumed sdkmath.Int) {
	if consumed.IsNil() || !consumed.IsPositive() {
		return
	}
	rec, ok := v.custody[owner]
	if !ok {
		return
	}
	rec.LockedShares = rec.LockedShares.Sub(consumed)
	rec.UnlockTime = time.Time{}
	if !rec.LockedShares.IsPositive() {
		delete(v.custody, owner)
		v.log.Info().Str("holder", owner).Msg("Custody fully consumed")
		return
	}
	v.log.Info().
		Str("holder", owner).
		Str("consumedShares", consumed.String()).
		Str("remainingLocked", rec.LockedShares.String()).
		Msg("Custody window used; remainder stays locked")
}
