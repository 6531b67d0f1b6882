/*

Report assessment: compares a strategy's live valuation to its recorded debt,
asks the accountant for fees and refunds, and converts the outcome into
share mint/burn operations plus a new profit unlock schedule. Loss is
absorbed by burning locked profit shares first; fees are minted as shares to
the accountant and the protocol fee recipient.

*/

package vault

import (
	sdkerrors "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/types"
)

// ProcessReport assesses one strategy, or the vault's own idle balance when
// strategyAddr equals the vault address (surplus assets sent directly to the
// vault are then booked as gain). Returns the gain and loss realized.
func (v *Vault) ProcessReport(caller, strategyAddr string) (types.ReportResult, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.begin()

	var res types.ReportResult
	if err := v.requireRole(caller, RoleReporter); err != nil {
		return res, err
	}

	var currentDebt, liveAssets sdkmath.Int
	var rec *types.StrategyRecord
	if strategyAddr == v.addr {
		// Idle pseudo-strategy: the held balance is the valuation, totalIdle
		// the recorded debt-equivalent.
		currentDebt = v.totalIdle
		liveAssets = v.asset.BalanceOf(v.addr)
	} else {
		var ok bool
		rec, ok = v.records[strategyAddr]
		if !ok || !rec.Active() {
			return res, sdkerrors.Wrapf(ErrStrategyInactive, "strategy %s", strategyAddr)
		}
		strat := v.strategies[strategyAddr]
		currentDebt = rec.CurrentDebt
		liveAssets = strat.ConvertToAssets(strat.BalanceOf(v.addr))
	}

	gain := sdkmath.ZeroInt()
	loss := sdkmath.ZeroInt()
	if liveAssets.GT(currentDebt) {
		gain = liveAssets.Sub(currentDebt)
	} else {
		loss = currentDebt.Sub(liveAssets)
	}

	totalFees := sdkmath.ZeroInt()
	totalRefunds := sdkmath.ZeroInt()
	if v.accountant != nil {
		totalFees, totalRefunds = v.accountant.Report(strategyAddr, gain, loss)
		if totalFees.IsNil() {
			totalFees = sdkmath.ZeroInt()
		}
		if totalRefunds.IsNil() {
			totalRefunds = sdkmath.ZeroInt()
		}
		// Refunds are limited by what the accountant holds and has approved
		// the vault to pull.
		if totalRefunds.IsPositive() {
			acct := v.accountant.Address()
			totalRefunds = sdkmath.MinInt(totalRefunds, v.asset.BalanceOf(acct))
			totalRefunds = sdkmath.MinInt(totalRefunds, v.asset.Allowance(acct, v.addr))
		}
	}

	// All share figures are derived from the pre-mutation totals.
	supply := v.ledger.totalSupply
	totalAssets := v.totalAssetsLocked()

	totalFeeShares := sdkmath.ZeroInt()
	accountantFeeShares := sdkmath.ZeroInt()
	protocolFeeShares := sdkmath.ZeroInt()
	protocolRecipient := ""
	if totalFees.IsPositive() {
		totalFeeShares = sharesForAssets(totalFees, supply, totalAssets, RoundDown)
		if v.feeConfig != nil {
			var protocolBps uint16
			protocolBps, protocolRecipient = v.feeConfig.ProtocolFeeConfig()
			if protocolBps > 0 && protocolRecipient != "" {
				// Explicit split policy: the accountant's cut is floored and
				// the protocol recipient keeps the remainder.
				accountantFeeShares = bpsOf(totalFeeShares, MaxBPS-protocolBps)
				protocolFeeShares = totalFeeShares.Sub(accountantFeeShares)
			} else {
				accountantFeeShares = totalFeeShares
			}
		} else {
			accountantFeeShares = totalFeeShares
		}
	}

	sharesToBurn := sdkmath.ZeroInt()
	if lossAndFees := loss.Add(totalFees); lossAndFees.IsPositive() {
		sharesToBurn = sharesForAssets(lossAndFees, supply, totalAssets, RoundUp)
	}
	sharesToLock := sdkmath.ZeroInt()
	if gainAndRefunds := gain.Add(totalRefunds); gainAndRefunds.IsPositive() && v.profitMaxUnlockTime > 0 {
		sharesToLock = sharesForAssets(gainAndRefunds, supply, totalAssets, RoundDown)
	}

	// Apply: refunds first, then the net lock/burn against the vault's own
	// balance, then fee minting, then debt.
	if totalRefunds.IsPositive() {
		if err := v.asset.TransferFrom(v.addr, v.accountant.Address(), v.addr, totalRefunds); err != nil {
			return res, sdkerrors.Wrap(err, "pulling accountant refund")
		}
		v.totalIdle = v.totalIdle.Add(totalRefunds)
	}

	newlyLocked := sdkmath.ZeroInt()
	switch {
	case sharesToLock.GT(sharesToBurn):
		newlyLocked = sharesToLock.Sub(sharesToBurn)
		v.ledger.mint(v.addr, newlyLocked)
	case sharesToBurn.GT(sharesToLock):
		// Burn capped by the locked balance; any excess loss shows up as a
		// price-per-share drop across all holders.
		burn := sdkmath.MinInt(sharesToBurn.Sub(sharesToLock), v.ledger.balanceOf(v.addr))
		_ = v.ledger.burn(v.addr, burn)
	}

	if accountantFeeShares.IsPositive() {
		v.ledger.mint(v.accountant.Address(), accountantFeeShares)
	}
	if protocolFeeShares.IsPositive() {
		v.ledger.mint(protocolRecipient, protocolFeeShares)
	}

	if rec != nil {
		if gain.IsPositive() {
			rec.CurrentDebt = rec.CurrentDebt.Add(gain)
			v.totalDebt = v.totalDebt.Add(gain)
		} else if loss.IsPositive() {
			rec.CurrentDebt = rec.CurrentDebt.Sub(loss)
			v.totalDebt = v.totalDebt.Sub(loss)
		}
		rec.LastReportTime = now
	} else {
		// Idle pseudo-strategy: book the held balance as the new idle.
		v.totalIdle = liveAssets.Add(totalRefunds)
	}

	v.scheduleProfitUnlock(newlyLocked, now)

	res = types.ReportResult{
		Strategy:            strategyAddr,
		Gain:                gain,
		Loss:                loss,
		TotalFees:           totalFees,
		TotalRefunds:        totalRefunds,
		ProtocolFeeShares:   protocolFeeShares,
		AccountantFeeShares: accountantFeeShares,
		SharesBurned:        sharesToBurn,
		SharesLocked:        sharesToLock,
		Timestamp:           now,
	}

	v.log.Info().
		Str("strategy", strategyAddr).
		Str("gain", gain.String()).
		Str("loss", loss.String()).
		Str("fees", totalFees.String()).
		Str("refunds", totalRefunds.String()).
		Str("sharesLocked", sharesToLock.String()).
		Str("sharesBurned", sharesToBurn.String()).
		Msg("Report processed")
	return res, nil
}
