package vault

import (
	"fmt"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/asset"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/strategy"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/types"
)

func TestAddStrategyValidation(t *testing.T) {
	v, token, _ := newTestVault(t)

	strat := strategy.NewSimpleStrategy("strat-a", token)
	require.ErrorIs(t, v.AddStrategy(alice, strat, true), ErrNotAuthorized)

	other := asset.NewToken("dai", 18)
	mismatched := strategy.NewSimpleStrategy("strat-x", other)
	require.ErrorIs(t, v.AddStrategy(governor, mismatched, true), ErrAssetMismatch)

	require.NoError(t, v.AddStrategy(governor, strat, true))
	require.ErrorIs(t, v.AddStrategy(governor, strat, true), ErrStrategyActive)

	rec, ok := v.StrategyRecordOf("strat-a")
	require.True(t, ok)
	require.True(t, rec.Active())
	require.True(t, rec.CurrentDebt.IsZero())
	require.True(t, rec.MaxDebt.IsZero())
	require.Equal(t, []string{"strat-a"}, v.DefaultQueue())
}

func TestAddStrategySkipsFullQueue(t *testing.T) {
	v, token, _ := newTestVault(t)

	for i := 0; i < types.MaxQueueLength; i++ {
		strat := strategy.NewSimpleStrategy(fmt.Sprintf("strat-%d", i), token)
		require.NoError(t, v.AddStrategy(governor, strat, true))
	}
	require.Len(t, v.DefaultQueue(), types.MaxQueueLength)

	// The eleventh strategy registers but is not queued.
	extra := strategy.NewSimpleStrategy("strat-extra", token)
	require.NoError(t, v.AddStrategy(governor, extra, true))
	require.Len(t, v.DefaultQueue(), types.MaxQueueLength)
	rec, ok := v.StrategyRecordOf("strat-extra")
	require.True(t, ok)
	require.True(t, rec.Active())
}

func TestRevokeStrategyRequiresForceWhenIndebted(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)
	addStrategyWithDebt(t, v, token, "strat-a", 60)

	require.ErrorIs(t, v.RevokeStrategy(governor, "strat-a", false), ErrStrategyHasDebt)

	// Force realizes the debt as a total loss.
	require.NoError(t, v.RevokeStrategy(governor, "strat-a", true))
	require.True(t, v.TotalDebt().IsZero())
	require.Equal(t, sdkmath.NewInt(40), v.TotalAssets())
	require.Empty(t, v.DefaultQueue())

	rec, ok := v.StrategyRecordOf("strat-a")
	require.True(t, ok)
	require.False(t, rec.Active())

	// The slot can be reused by a fresh registration.
	strat := strategy.NewSimpleStrategy("strat-a", token)
	require.NoError(t, v.AddStrategy(governor, strat, true))
}

func TestRevokeStrategyPreservesQueueOrder(t *testing.T) {
	v, token, _ := newTestVault(t)
	for _, addr := range []string{"strat-a", "strat-b", "strat-c"} {
		require.NoError(t, v.AddStrategy(governor, strategy.NewSimpleStrategy(addr, token), true))
	}

	require.NoError(t, v.RevokeStrategy(governor, "strat-b", false))
	require.Equal(t, []string{"strat-a", "strat-c"}, v.DefaultQueue())
}

func TestSetDefaultQueueValidation(t *testing.T) {
	v, token, _ := newTestVault(t)
	require.NoError(t, v.AddStrategy(governor, strategy.NewSimpleStrategy("strat-a", token), false))
	require.NoError(t, v.AddStrategy(governor, strategy.NewSimpleStrategy("strat-b", token), false))
	require.Empty(t, v.DefaultQueue())

	require.ErrorIs(t, v.SetDefaultQueue(alice, []string{"strat-a"}), ErrNotAuthorized)
	require.ErrorIs(t, v.SetDefaultQueue(governor, []string{"ghost"}), ErrStrategyInactive)

	tooLong := make([]string, types.MaxQueueLength+1)
	for i := range tooLong {
		tooLong[i] = "strat-a"
	}
	require.ErrorIs(t, v.SetDefaultQueue(governor, tooLong), ErrQueueTooLong)

	require.NoError(t, v.SetDefaultQueue(governor, []string{"strat-b", "strat-a"}))
	require.Equal(t, []string{"strat-b", "strat-a"}, v.DefaultQueue())
}

func TestStrategiesReportsLiveValue(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)
	addStrategyWithDebt(t, v, token, "strat-a", 80)

	// Yield arrives but no report has booked it yet.
	require.NoError(t, token.Mint("strat-a", sdkmath.NewInt(20)))

	infos := v.Strategies()
	require.Len(t, infos, 1)
	require.Equal(t, "strat-a", infos[0].Address)
	require.Equal(t, sdkmath.NewInt(80), infos[0].CurrentDebt)
	require.Equal(t, sdkmath.NewInt(100), infos[0].LiveValue)
}

func TestUpdateMaxDebtRequiresActiveStrategy(t *testing.T) {
	v, _, _ := newTestVault(t)
	err := v.UpdateMaxDebtForStrategy(governor, "ghost", sdkmath.NewInt(10))
	require.ErrorIs(t, err, ErrStrategyInactive)
}
