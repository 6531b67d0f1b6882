/*

This file contains the record types the vault ledger keeps for each registered
strategy, plus the bounded default withdrawal queue.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// MaxQueueLength bounds the default withdrawal queue.
const MaxQueueLength = 10

// StrategyRecord is the vault-side accounting entry for one strategy. The
// strategy keeps its own internal ledger; the vault only tracks the debt it
// has allocated and the report timestamps.
type StrategyRecord struct {
	Address        string      `json:"address"`
	ActivationTime time.Time   `json:"activation_time"`
	LastReportTime time.Time   `json:"last_report_time"`
	CurrentDebt    sdkmath.Int `json:"current_debt"`
	MaxDebt        sdkmath.Int `json:"max_debt"`
}

// Active reports whether the record belongs to a registered strategy. A
// zeroed activation time means the slot was revoked (or never used) and must
// not carry debt or receive allocations.
func (r StrategyRecord) Active() bool {
	return !r.ActivationTime.IsZero()
}

// StrategyInfo is the read-model of a record, enriched with the strategy's
// live valuation for API consumers.
type StrategyInfo struct {
	StrategyRecord
	LiveValue sdkmath.Int `json:"live_value"`
}
