/*

Withdrawal walker: serves redemptions from the idle reserve first, then
walks an ordered list of strategies, tolerating partial illiquidity and
distributing unrealized losses proportionally. The aggregate realized loss
is checked against the caller's tolerance before any shares are burned or
assets leave the vault; on violation the staged ledger mutations are
discarded and pulled assets are pushed back into their strategies.

*/

package vault

import (
	sdkerrors "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/strategy"
)

// Withdraw redeems enough shares to deliver the requested asset amount.
// Returns the shares burned.
func (v *Vault) Withdraw(caller string, assets sdkmath.Int, receiver, owner string, maxLossBps uint16, strategyOrder []string) (sdkmath.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.begin()

	if assets.IsNil() || !assets.IsPositive() {
		return sdkmath.ZeroInt(), ErrZeroAmount
	}
	shares := sharesForAssets(assets, v.ledger.totalSupply, v.totalAssetsLocked(), RoundUp)
	if !shares.IsPositive() {
		return sdkmath.ZeroInt(), ErrZeroShares
	}
	if _, err := v.redeemLocked(caller, shares, assets, receiver, owner, maxLossBps, strategyOrder); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return shares, nil
}

// Redeem burns an exact share amount and delivers the assets they are worth,
// possibly less than the naive conversion when losses are realized within
// the caller's tolerance. Returns the assets delivered.
func (v *Vault) Redeem(caller string, shares sdkmath.Int, receiver, owner string, maxLossBps uint16, strategyOrder []string) (sdkmath.Int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.begin()

	if shares.IsNil() || !shares.IsPositive() {
		return sdkmath.ZeroInt(), ErrZeroAmount
	}
	assets := assetsForShares(shares, v.ledger.totalSupply, v.totalAssetsLocked(), RoundDown)
	if !assets.IsPositive() {
		return sdkmath.ZeroInt(), ErrZeroAssets
	}
	return v.redeemLocked(caller, shares, assets, receiver, owner, maxLossBps, strategyOrder)
}

// strategyPull records assets taken out of one strategy during the walk so
// a tolerance violation can push them back.
type strategyPull struct {
	strat   strategy.Strategy
	assets  sdkmath.Int
	debtCut sdkmath.Int
}

func (v *Vault) redeemLocked(caller string, shares, requestedAssets sdkmath.Int, receiver, owner string, maxLossBps uint16, strategyOrder []string) (sdkmath.Int, error) {
	zero := sdkmath.ZeroInt()
	if caller == "" || receiver == "" || owner == "" {
		return zero, ErrEmptyAddress
	}
	if maxLossBps > MaxBPS {
		return zero, ErrInvalidMaxLoss
	}
	if v.ledger.balanceOf(owner).LT(shares) {
		return zero, sdkerrors.Wrapf(ErrInsufficientShares, "owner %s holds %s, redeeming %s",
			owner, v.ledger.balanceOf(owner), shares)
	}
	custodyConsumed, err := v.checkCustodyWithdrawal(owner, shares)
	if err != nil {
		return zero, err
	}
	if caller != owner {
		if err := v.ledger.spendAllowance(owner, caller, shares); err != nil {
			return zero, err
		}
	}

	order := strategyOrder
	if len(order) == 0 {
		order = v.defaultQueue
	}

	// Working copies: the real state is only committed once the loss
	// tolerance has been honored.
	idle := v.totalIdle
	totalDebt := v.totalDebt
	debtCuts := make(map[string]sdkmath.Int)
	var pulls []strategyPull

	if requestedAssets.GT(idle) {
		remaining := requestedAssets.Sub(idle)
		for _, addr := range order {
			if !remaining.IsPositive() {
				break
			}
			rec, ok := v.records[addr]
			if !ok || !rec.Active() {
				return zero, sdkerrors.Wrapf(ErrStrategyInactive, "withdrawal order entry %s", addr)
			}
			currentDebt := rec.CurrentDebt
			if cut, seen := debtCuts[addr]; seen {
				currentDebt = currentDebt.Sub(cut)
			}
			if !currentDebt.IsPositive() {
				continue
			}
			strat := v.strategies[addr]

			toWithdraw := sdkmath.MinInt(remaining, currentDebt)
			unrealised := v.assessShareOfUnrealisedLoss(strat, currentDebt, toWithdraw)

			// Clamp the realizable part to the strategy's redeemable
			// capacity, scaling the assessed loss down proportionally.
			capacity := strat.ConvertToAssets(strat.MaxRedeem(v.addr))
			realizable := toWithdraw.Sub(unrealised)
			if realizable.GT(capacity) {
				if unrealised.IsPositive() && realizable.IsPositive() {
					unrealised = unrealised.Mul(capacity).Quo(realizable)
				}
				realizable = capacity
				toWithdraw = realizable.Add(unrealised)
			}
			if !toWithdraw.IsPositive() {
				continue
			}

			pulled := zero
			if realizable.IsPositive() {
				preBalance := v.asset.BalanceOf(v.addr)
				redeemShares := sdkmath.MinInt(strat.ConvertToShares(realizable), strat.BalanceOf(v.addr))
				if redeemShares.IsPositive() {
					if _, err := strat.Redeem(redeemShares, v.addr, v.addr); err != nil {
						v.abortRedemption(pulls, owner, caller, shares)
						return zero, sdkerrors.Wrapf(err, "strategy %s redeem failed", addr)
					}
				}
				pulled = v.asset.BalanceOf(v.addr).Sub(preBalance)
			}

			if cut, seen := debtCuts[addr]; seen {
				debtCuts[addr] = cut.Add(toWithdraw)
			} else {
				debtCuts[addr] = toWithdraw
			}
			totalDebt = totalDebt.Sub(toWithdraw)
			idle = idle.Add(pulled)
			pulls = append(pulls, strategyPull{strat: strat, assets: pulled, debtCut: toWithdraw})
			remaining = remaining.Sub(sdkmath.MinInt(remaining, toWithdraw))
		}
	}

	// Everything the burned shares implied but the walk could not produce is
	// the redeemer's realized loss: assessed unrealized losses, strategy-side
	// slippage and plain illiquidity all land here.
	delivered := sdkmath.MinInt(requestedAssets, idle)
	totalLoss := requestedAssets.Sub(delivered)

	if totalLoss.IsPositive() && totalLoss.GT(bpsOf(requestedAssets, maxLossBps)) {
		v.abortRedemption(pulls, owner, caller, shares)
		return zero, sdkerrors.Wrapf(ErrTooMuchLoss, "loss %s on requested %s exceeds %d bps",
			totalLoss, requestedAssets, maxLossBps)
	}

	// Commit. Bookkeeping is finalized before the asset leaves the vault.
	for addr, cut := range debtCuts {
		rec := v.records[addr]
		rec.CurrentDebt = rec.CurrentDebt.Sub(cut)
	}
	v.totalDebt = totalDebt
	v.totalIdle = idle.Sub(delivered)
	if err := v.ledger.burn(owner, shares); err != nil {
		return zero, err
	}
	v.consumeCustody(owner, custodyConsumed)
	if err := v.asset.Transfer(v.addr, receiver, delivered); err != nil {
		return zero, err
	}

	v.log.Info().
		Str("caller", caller).
		Str("owner", owner).
		Str("receiver", receiver).
		Str("shares", shares.String()).
		Str("requestedAssets", requestedAssets.String()).
		Str("delivered", delivered.String()).
		Str("realizedLoss", totalLoss.String()).
		Msg("Redemption processed")
	return delivered, nil
}

// abortRedemption undoes a failed walk: pulled assets go back into their
// strategies and a spender's consumed allowance is restored. The failed step
// must leave no trace.
func (v *Vault) abortRedemption(pulls []strategyPull, owner, caller string, shares sdkmath.Int) {
	v.rollbackPulls(pulls)
	if caller != owner {
		v.ledger.approve(owner, caller, v.ledger.allowance(owner, caller).Add(shares))
	}
}

// rollbackPulls pushes assets taken during an aborted walk back into their
// strategies, restoring the pre-walk allocation best effort. A pull that
// cannot be returned is booked into totalIdle, keeping the held balance and
// totalIdle equal; the strategy-side shortfall surfaces at its next report.
func (v *Vault) rollbackPulls(pulls []strategyPull) {
	for i := len(pulls) - 1; i >= 0; i-- {
		p := pulls[i]
		if !p.assets.IsPositive() {
			continue
		}
		returned := false
		if err := v.asset.Approve(v.addr, p.strat.Address(), p.assets); err == nil {
			if _, err := p.strat.Deposit(p.assets, v.addr); err != nil {
				v.log.Error().Err(err).
					Str("strategy", p.strat.Address()).
					Str("assets", p.assets.String()).
					Msg("Failed to return assets to strategy during rollback")
			} else {
				returned = true
			}
			_ = v.asset.Approve(v.addr, p.strat.Address(), sdkmath.ZeroInt())
		}
		if !returned {
			v.totalIdle = v.totalIdle.Add(p.assets)
			v.log.Warn().
				Str("strategy", p.strat.Address()).
				Str("assets", p.assets.String()).
				Msg("Stranded rollback assets booked into idle")
		}
	}
}

// MaxWithdraw returns the assets the owner could withdraw through the
// default queue right now, accounting for custody locks and strategy-side
// liquidity.
func (v *Vault) MaxWithdraw(owner string) sdkmath.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.begin()

	withdrawable := v.withdrawableShares(owner)
	limit := assetsForShares(withdrawable, v.ledger.totalSupply, v.totalAssetsLocked(), RoundDown)
	liquid := v.totalIdle
	for _, addr := range v.defaultQueue {
		rec, ok := v.records[addr]
		if !ok || !rec.Active() || !rec.CurrentDebt.IsPositive() {
			continue
		}
		liquid = liquid.Add(sdkmath.MinInt(rec.CurrentDebt, v.strategies[addr].MaxWithdraw(v.addr)))
	}
	return sdkmath.MinInt(limit, liquid)
}

// MaxRedeem returns the shares the owner could redeem right now.
func (v *Vault) MaxRedeem(owner string) sdkmath.Int {
	liquid := v.MaxWithdraw(owner)
	v.mu.Lock()
	defer v.mu.Unlock()
	return sdkmath.MinInt(
		v.withdrawableShares(owner),
		sharesForAssets(liquid, v.ledger.totalSupply, v.totalAssetsLocked(), RoundDown),
	)
}

// withdrawableShares is the owner's balance minus custody-locked shares,
// plus the locked tranche while its one-shot window is open.
func (v *Vault) withdrawableShares(owner string) sdkmath.Int {
	balance := v.ledger.balanceOf(owner)
	rec, ok := v.custody[owner]
	if !ok {
		return balance
	}
	if rec.WindowOpen(v.nowFn()) {
		return balance
	}
	return balance.Sub(rec.LockedShares)
}
