package strategy

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/asset"
)

func setup(t *testing.T) (*SimpleStrategy, *asset.Token) {
	t.Helper()
	token := asset.NewToken("usdc", 6)
	strat := NewSimpleStrategy("strat", token)
	require.NoError(t, token.Mint("holder", sdkmath.NewInt(1000)))
	require.NoError(t, token.Approve("holder", "strat", sdkmath.NewInt(1000)))
	return strat, token
}

func TestDepositAndRedeemRoundTrip(t *testing.T) {
	strat, token := setup(t)

	shares, err := strat.Deposit(sdkmath.NewInt(100), "holder")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(100), shares)
	require.Equal(t, sdkmath.NewInt(100), strat.TotalAssets())
	require.Equal(t, sdkmath.NewInt(900), token.BalanceOf("holder"))

	assets, err := strat.Redeem(sdkmath.NewInt(100), "holder", "holder")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(100), assets)
	require.Equal(t, sdkmath.NewInt(1000), token.BalanceOf("holder"))
	require.True(t, strat.TotalAssets().IsZero())
}

func TestYieldAccruesToShareValue(t *testing.T) {
	strat, token := setup(t)
	_, err := strat.Deposit(sdkmath.NewInt(100), "holder")
	require.NoError(t, err)

	require.NoError(t, token.Mint("strat", sdkmath.NewInt(50)))
	require.Equal(t, sdkmath.NewInt(150), strat.ConvertToAssets(sdkmath.NewInt(100)))

	// A second depositor buys in at the higher price.
	require.NoError(t, token.Mint("other", sdkmath.NewInt(150)))
	require.NoError(t, token.Approve("other", "strat", sdkmath.NewInt(150)))
	shares, err := strat.Deposit(sdkmath.NewInt(150), "other")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(100), shares)
}

func TestDepositLimit(t *testing.T) {
	strat, _ := setup(t)
	strat.SetDepositLimit(sdkmath.NewInt(60))

	require.Equal(t, sdkmath.NewInt(60), strat.MaxDeposit("anyone"))
	_, err := strat.Deposit(sdkmath.NewInt(61), "holder")
	require.ErrorIs(t, err, ErrDepositLimit)

	_, err = strat.Deposit(sdkmath.NewInt(60), "holder")
	require.NoError(t, err)
	require.True(t, strat.MaxDeposit("anyone").IsZero())
}

func TestIlliquidityLimitsWithdrawals(t *testing.T) {
	strat, _ := setup(t)
	_, err := strat.Deposit(sdkmath.NewInt(100), "holder")
	require.NoError(t, err)

	strat.SetIlliquid(sdkmath.NewInt(40))
	require.Equal(t, sdkmath.NewInt(60), strat.MaxWithdraw("holder"))
	require.Equal(t, sdkmath.NewInt(60), strat.MaxRedeem("holder"))

	_, err = strat.Redeem(sdkmath.NewInt(70), "holder", "holder")
	require.ErrorIs(t, err, ErrIlliquid)

	assets, err := strat.Redeem(sdkmath.NewInt(60), "holder", "holder")
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(60), assets)
}

func TestTransferShares(t *testing.T) {
	strat, _ := setup(t)
	_, err := strat.Deposit(sdkmath.NewInt(100), "holder")
	require.NoError(t, err)

	require.ErrorIs(t, strat.TransferShares("holder", "buyer", sdkmath.NewInt(101)), ErrInsufficientShare)
	require.NoError(t, strat.TransferShares("holder", "buyer", sdkmath.NewInt(40)))
	require.Equal(t, sdkmath.NewInt(60), strat.BalanceOf("holder"))
	require.Equal(t, sdkmath.NewInt(40), strat.BalanceOf("buyer"))
	// Underlying assets did not move.
	require.Equal(t, sdkmath.NewInt(100), strat.TotalAssets())
}
