/*

This file contains the result types produced by report assessment and debt
rebalancing. They are what the keeper persists and what the web API serves.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// ReportResult captures one strategy report assessment: the gain or loss
// realized against recorded debt, the fee and refund amounts the accountant
// assessed, and the share mint/burn operations they were converted into.
type ReportResult struct {
	Strategy            string      `json:"strategy"`
	Gain                sdkmath.Int `json:"gain"`
	Loss                sdkmath.Int `json:"loss"`
	TotalFees           sdkmath.Int `json:"total_fees"`
	TotalRefunds        sdkmath.Int `json:"total_refunds"`
	ProtocolFeeShares   sdkmath.Int `json:"protocol_fee_shares"`
	AccountantFeeShares sdkmath.Int `json:"accountant_fee_shares"`
	SharesBurned        sdkmath.Int `json:"shares_burned"`
	SharesLocked        sdkmath.Int `json:"shares_locked"`
	Timestamp           time.Time   `json:"timestamp"`
}

// DebtDirection labels which way a debt update moved assets.
type DebtDirection string

const (
	DebtIncrease  DebtDirection = "INCREASE"
	DebtDecrease  DebtDirection = "DECREASE"
	DebtUnchanged DebtDirection = "UNCHANGED"
)

// DebtReceipt records the outcome of one UpdateDebt call. Because clamping
// is best effort, Moved may be smaller than the difference between the
// requested target and the previous debt.
type DebtReceipt struct {
	Strategy  string        `json:"strategy"`
	Requested sdkmath.Int   `json:"requested"`
	NewDebt   sdkmath.Int   `json:"new_debt"`
	Moved     sdkmath.Int   `json:"moved"`
	Direction DebtDirection `json:"direction"`
	Timestamp time.Time     `json:"timestamp"`
}

// VaultSnapshot is a point-in-time view of the vault's aggregate state.
type VaultSnapshot struct {
	Name             string      `json:"name"`
	Asset            string      `json:"asset"`
	TotalIdle        sdkmath.Int `json:"total_idle"`
	TotalDebt        sdkmath.Int `json:"total_debt"`
	TotalAssets      sdkmath.Int `json:"total_assets"`
	TotalSupply      sdkmath.Int `json:"total_supply"`
	LockedShares     sdkmath.Int `json:"locked_shares"`
	MinimumTotalIdle sdkmath.Int `json:"minimum_total_idle"`
	DepositLimit     sdkmath.Int `json:"deposit_limit"`
	DefaultQueue     []string    `json:"default_queue"`
	IsShutdown       bool        `json:"is_shutdown"`
	Timestamp        time.Time   `json:"timestamp"`
}
