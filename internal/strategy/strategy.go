/*

Strategy is the collaborator interface the vault allocates debt to. Each
strategy is a black box that custodies assets, issues its own shares against
them and reports its valuation and capacity limits. The vault never reaches
into a strategy's internal accounting.

*/

package strategy

import (
	sdkmath "cosmossdk.io/math"
)

// Strategy exposes the deposit/withdraw/valuation primitives the vault core
// consumes. Amounts are in units of the underlying asset unless the method
// name says shares.
type Strategy interface {
	// Address identifies the strategy in the vault's registry and on the
	// asset ledger.
	Address() string

	// Asset returns the symbol of the underlying asset the strategy accepts.
	Asset() string

	// TotalAssets returns the strategy's current valuation in asset units.
	TotalAssets() sdkmath.Int

	// MaxDeposit returns how many asset units the strategy will currently
	// accept from the given depositor.
	MaxDeposit(receiver string) sdkmath.Int

	// MaxWithdraw returns how many asset units the given owner could pull
	// out right now, accounting for strategy-side illiquidity.
	MaxWithdraw(owner string) sdkmath.Int

	// MaxRedeem returns how many strategy shares the given owner could
	// redeem right now.
	MaxRedeem(owner string) sdkmath.Int

	// ConvertToAssets values strategy shares in asset units.
	ConvertToAssets(shares sdkmath.Int) sdkmath.Int

	// ConvertToShares values asset units in strategy shares.
	ConvertToShares(assets sdkmath.Int) sdkmath.Int

	// BalanceOf returns the strategy shares held by owner.
	BalanceOf(owner string) sdkmath.Int

	// Deposit pulls assets from receiver's asset balance (requires an
	// allowance in the strategy's favor) and mints strategy shares to
	// receiver. Returns the shares minted.
	Deposit(assets sdkmath.Int, receiver string) (sdkmath.Int, error)

	// Redeem burns owner's strategy shares and sends the proceeds to
	// receiver. Returns the asset units actually delivered, which may be
	// less than the nominal conversion if the strategy is impaired.
	Redeem(shares sdkmath.Int, receiver, owner string) (sdkmath.Int, error)
}

// ShareTransferor is implemented by strategies whose shares are directly
// transferable. BuyDebt requires it to hand the purchased position over to
// the buyer at face value.
type ShareTransferor interface {
	TransferShares(owner, to string, shares sdkmath.Int) error
}
