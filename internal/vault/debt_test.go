package vault

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/strategy"
)

func TestUpdateDebtIncreaseAndDecrease(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)
	strat := addStrategyWithDebt(t, v, token, "strat-a", 60)

	require.Equal(t, sdkmath.NewInt(40), v.TotalIdle())
	require.Equal(t, sdkmath.NewInt(60), v.TotalDebt())
	require.Equal(t, sdkmath.NewInt(60), token.BalanceOf("strat-a"))
	require.Equal(t, sdkmath.NewInt(60), strat.ConvertToAssets(strat.BalanceOf(vaultAddr)))

	newDebt, err := v.UpdateDebt(governor, "strat-a", sdkmath.NewInt(20), 0)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(20), newDebt)
	require.Equal(t, sdkmath.NewInt(80), v.TotalIdle())
	require.Equal(t, sdkmath.NewInt(20), v.TotalDebt())
}

func TestUpdateDebtRequiresRoleAndActiveStrategy(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)
	addStrategyWithDebt(t, v, token, "strat-a", 0)

	_, err := v.UpdateDebt(alice, "strat-a", sdkmath.NewInt(10), 0)
	require.ErrorIs(t, err, ErrNotAuthorized)

	_, err = v.UpdateDebt(governor, "unknown", sdkmath.NewInt(10), 0)
	require.ErrorIs(t, err, ErrStrategyInactive)

	_, err = v.UpdateDebt(governor, "strat-a", sdkmath.NewInt(10), MaxBPS+1)
	require.ErrorIs(t, err, ErrInvalidMaxLoss)

	_, err = v.UpdateDebt(governor, "strat-a", sdkmath.ZeroInt(), 0)
	require.ErrorIs(t, err, ErrDebtUnchanged)
}

func TestUpdateDebtClampedByMaxDebt(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)

	strat := strategy.NewSimpleStrategy("strat-a", token)
	require.NoError(t, v.AddStrategy(governor, strat, true))
	require.NoError(t, v.UpdateMaxDebtForStrategy(governor, "strat-a", sdkmath.NewInt(30)))

	newDebt, err := v.UpdateDebt(governor, "strat-a", sdkmath.NewInt(90), 0)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(30), newDebt)
}

func TestUpdateDebtRespectsMinimumIdle(t *testing.T) {
	v, token, _ := newTestVault(t, withMinimumIdle(sdkmath.NewInt(25)))
	fundAndDeposit(t, v, token, alice, 100)
	addStrategyWithDebt(t, v, token, "strat-a", 0)

	newDebt, err := v.UpdateDebt(governor, "strat-a", sdkmath.NewInt(100), 0)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(75), newDebt)
	require.Equal(t, sdkmath.NewInt(25), v.TotalIdle())
}

func TestUpdateDebtClampedByStrategyCapacity(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)

	strat := strategy.NewSimpleStrategy("strat-a", token)
	strat.SetDepositLimit(sdkmath.NewInt(35))
	require.NoError(t, v.AddStrategy(governor, strat, true))
	require.NoError(t, v.UpdateMaxDebtForStrategy(governor, "strat-a", sdkmath.NewInt(1000)))

	newDebt, err := v.UpdateDebt(governor, "strat-a", sdkmath.NewInt(80), 0)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(35), newDebt)
}

func TestUpdateDebtAbortsOnUnrealisedLoss(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)
	addStrategyWithDebt(t, v, token, "strat-a", 100)

	// Impair the strategy: 100 of debt now backed by 80 of assets.
	require.NoError(t, token.Burn("strat-a", sdkmath.NewInt(20)))

	_, err := v.UpdateDebt(governor, "strat-a", sdkmath.NewInt(50), 0)
	require.ErrorIs(t, err, ErrUnrealisedLoss)

	// Nothing moved.
	require.Equal(t, sdkmath.NewInt(100), v.TotalDebt())
	require.True(t, v.TotalIdle().IsZero())
}

func TestUpdateDebtRealizesLossWithinTolerance(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)
	addStrategyWithDebt(t, v, token, "strat-a", 100)
	require.NoError(t, token.Burn("strat-a", sdkmath.NewInt(20)))

	// Lowering debt by 50 carries a proportional unrealized loss of 10;
	// full tolerance lets it through.
	newDebt, err := v.UpdateDebt(governor, "strat-a", sdkmath.NewInt(50), MaxBPS)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(50), newDebt)
	require.Equal(t, sdkmath.NewInt(40), v.TotalIdle())
	require.Equal(t, sdkmath.NewInt(50), v.TotalDebt())
}

func TestShutdownForcesDebtToZero(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)
	addStrategyWithDebt(t, v, token, "strat-a", 70)

	require.NoError(t, v.Shutdown(governor))

	// Any target is overridden by zero during shutdown.
	newDebt, err := v.UpdateDebt(governor, "strat-a", sdkmath.NewInt(90), 0)
	require.NoError(t, err)
	require.True(t, newDebt.IsZero())
	require.Equal(t, sdkmath.NewInt(100), v.TotalIdle())
}

func TestBuyDebtTransfersStrategySharesAtFaceValue(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)
	strat := addStrategyWithDebt(t, v, token, "strat-a", 100)

	require.NoError(t, v.SetRole(governor, bob, RoleDebtPurchaser))
	require.NoError(t, token.Mint(bob, sdkmath.NewInt(40)))
	require.NoError(t, token.Approve(bob, vaultAddr, sdkmath.NewInt(40)))

	require.NoError(t, v.BuyDebt(bob, "strat-a", sdkmath.NewInt(40)))
	require.Equal(t, sdkmath.NewInt(60), v.TotalDebt())
	require.Equal(t, sdkmath.NewInt(40), v.TotalIdle())
	require.Equal(t, sdkmath.NewInt(40), strat.BalanceOf(bob))
	require.Equal(t, sdkmath.NewInt(60), strat.BalanceOf(vaultAddr))
	require.True(t, token.BalanceOf(bob).IsZero())
}

func TestBuyDebtAllowedDuringShutdown(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)
	strat := addStrategyWithDebt(t, v, token, "strat-a", 100)

	// Make the strategy illiquid so shutdown cannot drain it.
	strat.SetIlliquid(sdkmath.NewInt(100))
	require.NoError(t, v.Shutdown(governor))

	require.NoError(t, v.SetRole(governor, bob, RoleDebtPurchaser))
	require.NoError(t, token.Mint(bob, sdkmath.NewInt(100)))
	require.NoError(t, token.Approve(bob, vaultAddr, sdkmath.NewInt(100)))

	require.NoError(t, v.BuyDebt(bob, "strat-a", sdkmath.NewInt(100)))
	require.True(t, v.TotalDebt().IsZero())
	require.Equal(t, sdkmath.NewInt(100), v.TotalIdle())
}

func TestBuyDebtValidation(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)
	addStrategyWithDebt(t, v, token, "strat-a", 0)

	require.ErrorIs(t, v.BuyDebt(bob, "strat-a", sdkmath.NewInt(10)), ErrNotAuthorized)

	require.NoError(t, v.SetRole(governor, bob, RoleDebtPurchaser))
	require.ErrorIs(t, v.BuyDebt(bob, "strat-a", sdkmath.ZeroInt()), ErrZeroAmount)
	// Strategy carries no debt to sell.
	require.ErrorIs(t, v.BuyDebt(bob, "strat-a", sdkmath.NewInt(10)), ErrZeroAmount)
}

func TestUpdateDebtFailedDepositClearsApproval(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)
	strat := &faultyStrategy{SimpleStrategy: strategy.NewSimpleStrategy("strat-a", token), failDeposit: true}
	require.NoError(t, v.AddStrategy(governor, strat, true))
	require.NoError(t, v.UpdateMaxDebtForStrategy(governor, "strat-a", sdkmath.NewInt(1_000)))

	_, err := v.UpdateDebt(governor, "strat-a", sdkmath.NewInt(50), 0)
	require.ErrorIs(t, err, errStrategyDown)

	// The failed step leaves no live approval the strategy could spend later.
	require.True(t, token.Allowance(vaultAddr, "strat-a").IsZero())
	require.Equal(t, sdkmath.NewInt(100), v.TotalIdle())
	require.True(t, v.TotalDebt().IsZero())
	require.Equal(t, sdkmath.NewInt(100), token.BalanceOf(vaultAddr))
}
