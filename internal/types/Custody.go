package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// CustodyRecord is the per-holder rage-quit lock. A holder has at most one
// open record. While UnlockTime is in the future the locked shares are
// neither withdrawable nor transferable. Once the window opens the holder
// gets a single withdrawal opportunity against the locked amount; a partial
// withdrawal leaves the remainder locked with UnlockTime cleared, so only a
// fresh lock cycle (or a cancel) can release it.
type CustodyRecord struct {
	LockedShares sdkmath.Int `json:"locked_shares"`
	UnlockTime   time.Time   `json:"unlock_time"`
}

// WindowOpen reports whether the one-shot withdrawal window is currently
// available.
func (c CustodyRecord) WindowOpen(now time.Time) bool {
	return !c.UnlockTime.IsZero() && !now.Before(c.UnlockTime)
}
