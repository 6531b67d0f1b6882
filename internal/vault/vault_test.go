package vault

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestDepositMintsOneToOneOnEmptyVault(t *testing.T) {
	v, token, _ := newTestVault(t)

	shares := fundAndDeposit(t, v, token, alice, 100)
	require.Equal(t, sdkmath.NewInt(100), shares)
	require.Equal(t, sdkmath.NewInt(100), v.TotalSupply())
	require.Equal(t, sdkmath.NewInt(100), v.TotalIdle())
	require.Equal(t, sdkmath.NewInt(100), v.TotalAssets())
	require.Equal(t, sdkmath.NewInt(100), token.BalanceOf(vaultAddr))
	require.True(t, token.BalanceOf(alice).IsZero())
}

func TestDepositValidation(t *testing.T) {
	v, token, _ := newTestVault(t)
	require.NoError(t, token.Mint(alice, sdkmath.NewInt(100)))
	require.NoError(t, token.Approve(alice, vaultAddr, sdkmath.NewInt(100)))

	_, err := v.Deposit(alice, sdkmath.ZeroInt(), alice)
	require.ErrorIs(t, err, ErrZeroAmount)

	_, err = v.Deposit(alice, sdkmath.NewInt(10), vaultAddr)
	require.ErrorIs(t, err, ErrSelfReceiver)

	_, err = v.Deposit("", sdkmath.NewInt(10), alice)
	require.ErrorIs(t, err, ErrEmptyAddress)

	// Without allowance the asset pull fails and no shares are minted.
	_, err = v.Deposit(bob, sdkmath.NewInt(10), bob)
	require.Error(t, err)
	require.True(t, v.BalanceOf(bob).IsZero())
	require.True(t, v.TotalSupply().IsZero())
}

func TestDepositLimitEnforced(t *testing.T) {
	v, token, _ := newTestVault(t, withDepositLimit(sdkmath.NewInt(150)))

	fundAndDeposit(t, v, token, alice, 100)
	require.Equal(t, sdkmath.NewInt(50), v.MaxDeposit(bob))

	require.NoError(t, token.Mint(bob, sdkmath.NewInt(100)))
	require.NoError(t, token.Approve(bob, vaultAddr, sdkmath.NewInt(100)))
	_, err := v.Deposit(bob, sdkmath.NewInt(51), bob)
	require.ErrorIs(t, err, ErrDepositLimit)

	_, err = v.Deposit(bob, sdkmath.NewInt(50), bob)
	require.NoError(t, err)
}

func TestMintChargesRoundedUpAssets(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 10)

	// Skew the price: airdrop 3 assets to the vault and book them via an
	// idle report, so 10 shares now back 13 assets.
	require.NoError(t, token.Mint(vaultAddr, sdkmath.NewInt(3)))
	_, err := v.ProcessReport(governor, vaultAddr)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(13), v.TotalAssets())

	require.NoError(t, token.Mint(bob, sdkmath.NewInt(100)))
	require.NoError(t, token.Approve(bob, vaultAddr, sdkmath.NewInt(100)))
	assets, err := v.Mint(bob, sdkmath.NewInt(5), bob)
	require.NoError(t, err)
	// 5 shares * 13 assets / 10 supply = 6.5, charged 7.
	require.Equal(t, sdkmath.NewInt(7), assets)
	require.Equal(t, sdkmath.NewInt(5), v.BalanceOf(bob))

	// The same shares bought via Deposit are floored.
	shares := v.PreviewDeposit(sdkmath.NewInt(7))
	require.Equal(t, sdkmath.NewInt(5), shares)
}

func TestShutdownDisablesDepositsPermanently(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)

	require.ErrorIs(t, v.Shutdown(alice), ErrNotAuthorized)
	require.NoError(t, v.Shutdown(governor))
	require.True(t, v.IsShutdown())
	require.ErrorIs(t, v.Shutdown(governor), ErrShutdown)

	require.NoError(t, token.Mint(alice, sdkmath.NewInt(10)))
	require.NoError(t, token.Approve(alice, vaultAddr, sdkmath.NewInt(10)))
	_, err := v.Deposit(alice, sdkmath.NewInt(10), alice)
	require.ErrorIs(t, err, ErrShutdown)
	_, err = v.Mint(alice, sdkmath.NewInt(10), alice)
	require.ErrorIs(t, err, ErrShutdown)
	require.ErrorIs(t, v.SetDepositLimit(governor, sdkmath.NewInt(1000)), ErrShutdown)
	require.True(t, v.MaxDeposit(alice).IsZero())

	// Withdrawal-class operations keep working.
	delivered, err := v.Redeem(alice, sdkmath.NewInt(100), alice, alice, 0, nil)
	require.NoError(t, err)
	require.Equal(t, sdkmath.NewInt(100), delivered)
}

func TestShareTransfersAndAllowances(t *testing.T) {
	v, token, _ := newTestVault(t)
	fundAndDeposit(t, v, token, alice, 100)

	require.NoError(t, v.Transfer(alice, bob, sdkmath.NewInt(30)))
	require.Equal(t, sdkmath.NewInt(70), v.BalanceOf(alice))
	require.Equal(t, sdkmath.NewInt(30), v.BalanceOf(bob))

	require.ErrorIs(t, v.Transfer(alice, vaultAddr, sdkmath.NewInt(1)), ErrSelfReceiver)

	require.NoError(t, v.Approve(alice, bob, sdkmath.NewInt(20)))
	err := v.TransferFrom(bob, alice, bob, sdkmath.NewInt(21))
	require.ErrorIs(t, err, ErrInsufficientAllow)
	require.NoError(t, v.TransferFrom(bob, alice, bob, sdkmath.NewInt(20)))
	require.Equal(t, sdkmath.NewInt(50), v.BalanceOf(alice))
}

func TestPricePerShareStartsAtOne(t *testing.T) {
	v, token, _ := newTestVault(t)
	require.True(t, v.PricePerShare().Equal(sdkmath.LegacyOneDec()))

	fundAndDeposit(t, v, token, alice, 100)
	require.True(t, v.PricePerShare().Equal(sdkmath.LegacyOneDec()))
	require.Equal(t, sdkmath.NewInt(50), v.ConvertToAssets(sdkmath.NewInt(50)))
	require.Equal(t, sdkmath.NewInt(50), v.ConvertToShares(sdkmath.NewInt(50)))
}

func TestRoleManagement(t *testing.T) {
	v, _, _ := newTestVault(t)

	require.ErrorIs(t, v.SetRole(alice, bob, RoleReporter), ErrNotAuthorized)
	require.NoError(t, v.SetRole(governor, bob, RoleReporter|RoleDebtManager))
	require.Equal(t, RoleReporter|RoleDebtManager, v.Roles(bob))

	// Revocation removes the entry entirely.
	require.NoError(t, v.SetRole(governor, bob, 0))
	require.Equal(t, Role(0), v.Roles(bob))
}

func TestSnapshotReflectsState(t *testing.T) {
	v, token, _ := newTestVault(t, withMinimumIdle(sdkmath.NewInt(10)))
	fundAndDeposit(t, v, token, alice, 100)
	addStrategyWithDebt(t, v, token, "strat-a", 60)

	snap := v.Snapshot()
	require.Equal(t, "test-vault", snap.Name)
	require.Equal(t, "usdc", snap.Asset)
	require.Equal(t, sdkmath.NewInt(40), snap.TotalIdle)
	require.Equal(t, sdkmath.NewInt(60), snap.TotalDebt)
	require.Equal(t, sdkmath.NewInt(100), snap.TotalAssets)
	require.Equal(t, []string{"strat-a"}, snap.DefaultQueue)
	require.False(t, snap.IsShutdown)
	// Unlimited deposit limit is surfaced as -1 in the read model.
	require.Equal(t, sdkmath.NewInt(-1), snap.DepositLimit)
}
