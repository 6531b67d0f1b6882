/*

Strategy registry: a bounded collection of strategy records plus the ordered
default withdrawal queue. Records are zeroed on revocation, never deleted, so
a revoked slot can only be reused after a fresh registration.

*/

package vault

import (
	"time"

	sdkerrors "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/strategy"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/types"
)

// AddStrategy registers a strategy with zero debt and zero max debt. When
// addToQueue is set the strategy is appended to the default withdrawal
// queue, silently skipped if the queue is already full.
func (v *Vault) AddStrategy(caller string, strat strategy.Strategy, addToQueue bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.begin()

	if err := v.requireRole(caller, RoleStrategyManager); err != nil {
		return err
	}
	if strat == nil || strat.Address() == "" {
		return ErrEmptyAddress
	}
	addr := strat.Address()
	if addr == v.addr {
		return ErrSelfReceiver
	}
	if strat.Asset() != v.asset.Symbol() {
		return sdkerrors.Wrapf(ErrAssetMismatch, "strategy asset %s, vault asset %s", strat.Asset(), v.asset.Symbol())
	}
	if rec, ok := v.records[addr]; ok && rec.Active() {
		return sdkerrors.Wrapf(ErrStrategyActive, "strategy %s", addr)
	}

	v.strategies[addr] = strat
	v.records[addr] = &types.StrategyRecord{
		Address:        addr,
		ActivationTime: now,
		LastReportTime: now,
		CurrentDebt:    sdkmath.ZeroInt(),
		MaxDebt:        sdkmath.ZeroInt(),
	}
	if addToQueue {
		if len(v.defaultQueue) < types.MaxQueueLength {
			v.defaultQueue = append(v.defaultQueue, addr)
		} else {
			v.log.Warn().Str("strategy", addr).Msg("Default queue full; strategy not appended")
		}
	}

	v.log.Info().Str("strategy", addr).Bool("queued", addToQueue).Msg("Strategy registered")
	return nil
}

// RevokeStrategy zeroes a strategy's record and removes it from the queue.
// A strategy still carrying debt can only be revoked with force, which
// realizes the outstanding debt as a full loss.
func (v *Vault) RevokeStrategy(caller, strategyAddr string, force bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.begin()

	if err := v.requireRole(caller, RoleStrategyManager); err != nil {
		return err
	}
	rec, ok := v.records[strategyAddr]
	if !ok || !rec.Active() {
		return sdkerrors.Wrapf(ErrStrategyInactive, "strategy %s", strategyAddr)
	}
	loss := sdkmath.ZeroInt()
	if rec.CurrentDebt.IsPositive() {
		if !force {
			return sdkerrors.Wrapf(ErrStrategyHasDebt, "strategy %s carries debt %s", strategyAddr, rec.CurrentDebt)
		}
		loss = rec.CurrentDebt
		v.totalDebt = v.totalDebt.Sub(loss)
	}

	// Zero the record; the slot survives for auditability.
	rec.ActivationTime = time.Time{}
	rec.LastReportTime = time.Time{}
	rec.CurrentDebt = sdkmath.ZeroInt()
	rec.MaxDebt = sdkmath.ZeroInt()
	delete(v.strategies, strategyAddr)

	// Rebuild the queue preserving the relative order of the remainder.
	queue := v.defaultQueue[:0]
	for _, a := range v.defaultQueue {
		if a != strategyAddr {
			queue = append(queue, a)
		}
	}
	v.defaultQueue = queue

	evt := v.log.Info()
	if loss.IsPositive() {
		evt = v.log.Warn()
	}
	evt.Str("strategy", strategyAddr).
		Bool("force", force).
		Str("realizedLoss", loss.String()).
		Msg("Strategy revoked")
	return nil
}

// UpdateMaxDebtForStrategy sets the allocation cap for one strategy.
func (v *Vault) UpdateMaxDebtForStrategy(caller, strategyAddr string, maxDebt sdkmath.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireRole(caller, RoleStrategyManager); err != nil {
		return err
	}
	rec, ok := v.records[strategyAddr]
	if !ok || !rec.Active() {
		return sdkerrors.Wrapf(ErrStrategyInactive, "strategy %s", strategyAddr)
	}
	if maxDebt.IsNil() || maxDebt.IsNegative() {
		return ErrZeroAmount
	}
	rec.MaxDebt = maxDebt
	v.log.Info().Str("strategy", strategyAddr).Str("maxDebt", maxDebt.String()).Msg("Strategy max debt updated")
	return nil
}

// SetDefaultQueue replaces the default withdrawal queue. Every entry must be
// an active strategy and the queue is bounded.
func (v *Vault) SetDefaultQueue(caller string, queue []string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.requireRole(caller, RoleQueueManager); err != nil {
		return err
	}
	if len(queue) > types.MaxQueueLength {
		return sdkerrors.Wrapf(ErrQueueTooLong, "%d entries, maximum %d", len(queue), types.MaxQueueLength)
	}
	for _, addr := range queue {
		rec, ok := v.records[addr]
		if !ok || !rec.Active() {
			return sdkerrors.Wrapf(ErrStrategyInactive, "queue entry %s", addr)
		}
	}
	v.defaultQueue = append([]string(nil), queue...)
	v.log.Info().Strs("queue", queue).Msg("Default withdrawal queue replaced")
	return nil
}

// DefaultQueue returns a copy of the default withdrawal queue.
func (v *Vault) DefaultQueue() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.defaultQueue...)
}

// StrategyRecordOf returns the accounting record for a strategy.
func (v *Vault) StrategyRecordOf(strategyAddr string) (types.StrategyRecord, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	rec, ok := v.records[strategyAddr]
	if !ok {
		return types.StrategyRecord{}, false
	}
	return *rec, true
}

// Strategies returns the read-model of every active strategy, live valuation
// included.
func (v *Vault) Strategies() []types.StrategyInfo {
	v.mu.Lock()
	defer v.mu.Unlock()
	infos := make([]types.StrategyInfo, 0, len(v.strategies))
	for addr, strat := range v.strategies {
		rec := v.records[addr]
		infos = append(infos, types.StrategyInfo{
			StrategyRecord: *rec,
			LiveValue:      strat.ConvertToAssets(strat.BalanceOf(v.addr)),
		})
	}
	return infos
}
