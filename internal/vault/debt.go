/*

Debt allocator: moves assets between the idle reserve and one strategy
toward a requested target debt, clamping against the strategy's caps, its
reported capacity, and the vault's minimum idle floor. Clamping is best
effort; the operation succeeds with possibly less movement than requested.

*/

package vault

import (
	sdkerrors "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/strategy"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/types"
)

// UpdateDebt rebalances one strategy toward targetDebt and returns the new
// debt level. While the vault is shut down the target is forced to zero.
// maxLossBps bounds the loss that may be realized when lowering debt out of
// an impaired strategy; zero tolerates no loss at all.
func (v *Vault) UpdateDebt(caller, strategyAddr string, targetDebt sdkmath.Int, maxLossBps uint16) (sdkmath.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.begin()

	zero := sdkmath.ZeroInt()
	if err := v.requireRole(caller, RoleDebtManager); err != nil {
		return zero, err
	}
	if maxLossBps > MaxBPS {
		return zero, ErrInvalidMaxLoss
	}
	if targetDebt.IsNil() || targetDebt.IsNegative() {
		return zero, ErrZeroAmount
	}
	rec, ok := v.records[strategyAddr]
	if !ok || !rec.Active() {
		return zero, sdkerrors.Wrapf(ErrStrategyInactive, "strategy %s", strategyAddr)
	}
	strat := v.strategies[strategyAddr]

	if v.shutdown {
		targetDebt = zero
	}
	current := rec.CurrentDebt
	if targetDebt.Equal(current) {
		return current, sdkerrors.Wrapf(ErrDebtUnchanged, "strategy %s at %s", strategyAddr, current)
	}

	var newDebt sdkmath.Int
	var moved sdkmath.Int
	var direction types.DebtDirection
	var err error
	if targetDebt.LT(current) {
		newDebt, moved, err = v.decreaseDebt(strat, rec, targetDebt, maxLossBps)
		direction = types.DebtDecrease
	} else {
		newDebt, moved, err = v.increaseDebt(strat, rec, targetDebt)
		direction = types.DebtIncrease
	}
	if err != nil {
		return zero, err
	}
	if moved.IsZero() {
		direction = types.DebtUnchanged
	}

	v.log.Info().
		Str("strategy", strategyAddr).
		Str("requested", targetDebt.String()).
		Str("newDebt", newDebt.String()).
		Str("moved", moved.String()).
		Str("direction", string(direction)).
		Msg("Debt updated")
	return newDebt, nil
}

// decreaseDebt withdraws current-target from the strategy back into idle.
func (v *Vault) decreaseDebt(strat strategy.Strategy, rec *types.StrategyRecord, target sdkmath.Int, maxLossBps uint16) (sdkmath.Int, sdkmath.Int, error) {
	current := rec.CurrentDebt
	toWithdraw := current.Sub(target)

	// Withdraw at least enough to restore the idle floor, never more than
	// the strategy owes.
	if v.totalIdle.LT(v.minimumTotalIdle) {
		shortfall := v.minimumTotalIdle.Sub(v.totalIdle)
		if shortfall.GT(toWithdraw) {
			toWithdraw = shortfall
		}
		toWithdraw = sdkmath.MinInt(toWithdraw, current)
	}

	// Clamp to what the strategy can actually give back right now.
	withdrawable := strat.MaxWithdraw(v.addr)
	if toWithdraw.GT(withdrawable) {
		v.log.Debug().
			Str("strategy", rec.Address).
			Str("requested", toWithdraw.String()).
			Str("withdrawable", withdrawable.String()).
			Msg("Debt decrease clamped to strategy capacity")
		toWithdraw = withdrawable
	}
	if !toWithdraw.IsPositive() {
		return rec.CurrentDebt, sdkmath.ZeroInt(), nil
	}

	// An unrealized loss must go through reporting, not be absorbed
	// silently during rebalancing, unless the caller explicitly tolerates
	// realizing it here.
	unrealised := v.assessShareOfUnrealisedLoss(strat, rec.CurrentDebt, toWithdraw)
	if unrealised.IsPositive() && unrealised.GT(bpsOf(toWithdraw, maxLossBps)) {
		return sdkmath.ZeroInt(), sdkmath.ZeroInt(), sdkerrors.Wrapf(ErrUnrealisedLoss,
			"strategy %s would realize %s on a %s withdrawal", rec.Address, unrealised, toWithdraw)
	}

	preBalance := v.asset.BalanceOf(v.addr)
	shares := strat.ConvertToShares(toWithdraw.Sub(unrealised))
	shares = sdkmath.MinInt(shares, strat.BalanceOf(v.addr))
	if shares.IsPositive() {
		if _, err := strat.Redeem(shares, v.addr, v.addr); err != nil {
			return sdkmath.ZeroInt(), sdkmath.ZeroInt(), sdkerrors.Wrapf(err, "strategy %s redeem failed", rec.Address)
		}
	}
	withdrawn := v.asset.BalanceOf(v.addr).Sub(preBalance)
	// Credit what actually arrived; the debt reduction covers the assessed
	// withdrawal including any tolerated loss.
	if withdrawn.GT(toWithdraw) {
		toWithdraw = withdrawn
	}

	rec.CurrentDebt = rec.CurrentDebt.Sub(toWithdraw)
	v.totalDebt = v.totalDebt.Sub(toWithdraw)
	v.totalIdle = v.totalIdle.Add(withdrawn)
	return rec.CurrentDebt, toWithdraw, nil
}

// increaseDebt deploys idle above the floor into the strategy.
func (v *Vault) increaseDebt(strat strategy.Strategy, rec *types.StrategyRecord, target sdkmath.Int) (sdkmath.Int, sdkmath.Int, error) {
	current := rec.CurrentDebt
	zero := sdkmath.ZeroInt()

	// A cap lowered beneath the current debt makes any increase a no-op.
	if target.GT(rec.MaxDebt) {
		target = rec.MaxDebt
	}
	if !target.GT(current) {
		return current, zero, nil
	}
	toDeposit := target.Sub(current)

	if capacity := strat.MaxDeposit(v.addr); toDeposit.GT(capacity) {
		toDeposit = capacity
	}
	available := v.totalIdle.Sub(v.minimumTotalIdle)
	if !available.IsPositive() {
		return current, zero, nil
	}
	toDeposit = sdkmath.MinInt(toDeposit, available)
	if !toDeposit.IsPositive() {
		return current, zero, nil
	}

	if err := v.asset.Approve(v.addr, rec.Address, toDeposit); err != nil {
		return zero, zero, err
	}
	preBalance := v.asset.BalanceOf(v.addr)
	if _, err := strat.Deposit(toDeposit, v.addr); err != nil {
		// The approval must not outlive the failed step: a live allowance
		// would let the strategy pull idle assets behind the ledger's back.
		_ = v.asset.Approve(v.addr, rec.Address, zero)
		return zero, zero, sdkerrors.Wrapf(err, "strategy %s deposit failed", rec.Address)
	}
	deposited := preBalance.Sub(v.asset.BalanceOf(v.addr))
	// Clear any unspent approval.
	_ = v.asset.Approve(v.addr, rec.Address, zero)

	rec.CurrentDebt = rec.CurrentDebt.Add(deposited)
	v.totalDebt = v.totalDebt.Add(deposited)
	v.totalIdle = v.totalIdle.Sub(deposited)
	return rec.CurrentDebt, deposited, nil
}

// assessShareOfUnrealisedLoss computes the proportional share of a
// strategy's unrealized loss attributable to withdrawing toWithdraw out of
// currentDebt. Rounds the surviving credit down, so the withdrawer carries
// the rounding.
func (v *Vault) assessShareOfUnrealisedLoss(strat strategy.Strategy, currentDebt, toWithdraw sdkmath.Int) sdkmath.Int {
	if !currentDebt.IsPositive() {
		return sdkmath.ZeroInt()
	}
	stratAssets := strat.ConvertToAssets(strat.BalanceOf(v.addr))
	if stratAssets.GTE(currentDebt) {
		return sdkmath.ZeroInt()
	}
	credit := toWithdraw.Mul(stratAssets).Quo(currentDebt)
	return toWithdraw.Sub(credit)
}

// BuyDebt lets an authorized party purchase part of a strategy's debt at
// face value: the buyer pays amount in assets and receives the equivalent
// strategy shares. Deliberately reachable during shutdown; a face-value
// purchase only moves value toward idle, which is the direction shutdown
// wants.
func (v *Vault) BuyDebt(caller, strategyAddr string, amount sdkmath.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.begin()

	if err := v.requireRole(caller, RoleDebtPurchaser); err != nil {
		return err
	}
	if amount.IsNil() || !amount.IsPositive() {
		return ErrZeroAmount
	}
	rec, ok := v.records[strategyAddr]
	if !ok || !rec.Active() {
		return sdkerrors.Wrapf(ErrStrategyInactive, "strategy %s", strategyAddr)
	}
	if !rec.CurrentDebt.IsPositive() {
		return sdkerrors.Wrapf(ErrZeroAmount, "strategy %s carries no debt", strategyAddr)
	}
	transferor, ok := v.strategies[strategyAddr].(strategy.ShareTransferor)
	if !ok {
		return sdkerrors.Wrapf(ErrNotTransferable, "strategy %s", strategyAddr)
	}

	amount = sdkmath.MinInt(amount, rec.CurrentDebt)
	held := v.strategies[strategyAddr].BalanceOf(v.addr)
	shares := held.Mul(amount).Quo(rec.CurrentDebt)
	if !shares.IsPositive() {
		return ErrZeroShares
	}

	if err := v.asset.TransferFrom(v.addr, caller, v.addr, amount); err != nil {
		return err
	}
	if err := transferor.TransferShares(v.addr, caller, shares); err != nil {
		return err
	}
	rec.CurrentDebt = rec.CurrentDebt.Sub(amount)
	v.totalDebt = v.totalDebt.Sub(amount)
	v.totalIdle = v.totalIdle.Add(amount)

	v.log.Warn().
		Str("caller", caller).
		Str("strategy", strategyAddr).
		Str("amount", amount.String()).
		Str("strategyShares", shares.String()).
		Msg("Debt purchased at face value")
	return nil
}
