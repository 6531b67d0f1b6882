package asset

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"
)

func TestMintBurnTransfer(t *testing.T) {
	token := NewToken("usdc", 6)
	require.Equal(t, "usdc", token.Symbol())
	require.Equal(t, uint8(6), token.Decimals())

	require.NoError(t, token.Mint("alice", sdkmath.NewInt(100)))
	require.Equal(t, sdkmath.NewInt(100), token.TotalSupply())
	require.Equal(t, sdkmath.NewInt(100), token.BalanceOf("alice"))
	require.True(t, token.BalanceOf("bob").IsZero())

	require.NoError(t, token.Transfer("alice", "bob", sdkmath.NewInt(30)))
	require.Equal(t, sdkmath.NewInt(70), token.BalanceOf("alice"))
	require.Equal(t, sdkmath.NewInt(30), token.BalanceOf("bob"))

	err := token.Transfer("alice", "bob", sdkmath.NewInt(71))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	require.NoError(t, token.Burn("bob", sdkmath.NewInt(30)))
	require.Equal(t, sdkmath.NewInt(70), token.TotalSupply())
	require.ErrorIs(t, token.Burn("bob", sdkmath.NewInt(1)), ErrInsufficientFunds)
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	token := NewToken("usdc", 6)
	require.NoError(t, token.Mint("alice", sdkmath.NewInt(100)))

	err := token.TransferFrom("spender", "alice", "bob", sdkmath.NewInt(10))
	require.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, token.Approve("alice", "spender", sdkmath.NewInt(25)))
	require.Equal(t, sdkmath.NewInt(25), token.Allowance("alice", "spender"))

	require.NoError(t, token.TransferFrom("spender", "alice", "bob", sdkmath.NewInt(10)))
	require.Equal(t, sdkmath.NewInt(15), token.Allowance("alice", "spender"))
	require.Equal(t, sdkmath.NewInt(10), token.BalanceOf("bob"))

	err = token.TransferFrom("spender", "alice", "bob", sdkmath.NewInt(16))
	require.ErrorIs(t, err, ErrInsufficientAllowance)
}

func TestValidation(t *testing.T) {
	token := NewToken("usdc", 6)
	require.ErrorIs(t, token.Mint("", sdkmath.NewInt(1)), ErrEmptyAccount)
	require.ErrorIs(t, token.Mint("alice", sdkmath.ZeroInt()), ErrInvalidAmount)
	require.ErrorIs(t, token.Mint("alice", sdkmath.Int{}), ErrInvalidAmount)
	require.ErrorIs(t, token.Approve("alice", "bob", sdkmath.NewInt(-1)), ErrInvalidAmount)
	// A zero approval is a valid reset.
	require.NoError(t, token.Approve("alice", "bob", sdkmath.ZeroInt()))
}
