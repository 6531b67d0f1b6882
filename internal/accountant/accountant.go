/*

External fee collaborators: the accountant that assesses fees and refunds on
strategy reports, and the factory that supplies the protocol fee cut.

*/

package accountant

import (
	sdkmath "cosmossdk.io/math"
)

// Accountant computes fees and refunds for one report. Fees dilute holders
// in the accountant's favor; refunds flow from the accountant's own asset
// balance back into the vault (capped by its balance and allowance, which
// the vault enforces).
type Accountant interface {
	// Address is the account fee shares are minted to and refunds are
	// pulled from.
	Address() string

	// Report assesses the given gain/loss and returns (totalFees,
	// totalRefunds) in asset units.
	Report(strategy string, gain, loss sdkmath.Int) (sdkmath.Int, sdkmath.Int)
}

// FeeConfigProvider is the factory collaborator that owns the protocol fee
// configuration.
type FeeConfigProvider interface {
	// ProtocolFeeConfig returns the protocol's cut of assessed fees in
	// basis points and the recipient of that cut.
	ProtocolFeeConfig() (uint16, string)
}

// BpsAccountant charges a flat performance fee on gains and refunds a flat
// fraction of losses.
type BpsAccountant struct {
	addr              string
	PerformanceFeeBps uint16
	RefundRatioBps    uint16
}

var _ Accountant = (*BpsAccountant)(nil)

// NewBpsAccountant creates an accountant charging performanceFeeBps of every
// reported gain and refunding refundRatioBps of every reported loss.
func NewBpsAccountant(addr string, performanceFeeBps, refundRatioBps uint16) *BpsAccountant {
	return &BpsAccountant{addr: addr, PerformanceFeeBps: performanceFeeBps, RefundRatioBps: refundRatioBps}
}

func (a *BpsAccountant) Address() string { return a.addr }

func (a *BpsAccountant) Report(_ string, gain, loss sdkmath.Int) (sdkmath.Int, sdkmath.Int) {
	fees := sdkmath.ZeroInt()
	refunds := sdkmath.ZeroInt()
	if gain.IsPositive() && a.PerformanceFeeBps > 0 {
		fees = gain.MulRaw(int64(a.PerformanceFeeBps)).QuoRaw(10_000)
	}
	if loss.IsPositive() && a.RefundRatioBps > 0 {
		refunds = loss.MulRaw(int64(a.RefundRatioBps)).QuoRaw(10_000)
	}
	return fees, refunds
}

// StaticFeeConfig is a fixed protocol fee configuration.
type StaticFeeConfig struct {
	Bps       uint16
	Recipient string
}

var _ FeeConfigProvider = StaticFeeConfig{}

func (c StaticFeeConfig) ProtocolFeeConfig() (uint16, string) {
	return c.Bps, c.Recipient
}
