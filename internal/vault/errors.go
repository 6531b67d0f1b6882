package vault

import (
	sdkerrors "cosmossdk.io/errors"
)

const codespace = "vault"

// Precondition violations: reported synchronously, no partial effect.
var (
	ErrEmptyAddress      = sdkerrors.Register(codespace, 2, "address cannot be empty")
	ErrZeroAmount        = sdkerrors.Register(codespace, 3, "amount must be positive")
	ErrZeroShares        = sdkerrors.Register(codespace, 4, "conversion produced zero shares")
	ErrZeroAssets        = sdkerrors.Register(codespace, 5, "conversion produced zero assets")
	ErrAssetMismatch     = sdkerrors.Register(codespace, 6, "strategy asset differs from vault asset")
	ErrStrategyActive    = sdkerrors.Register(codespace, 7, "strategy is already active")
	ErrStrategyInactive  = sdkerrors.Register(codespace, 8, "strategy is not active")
	ErrDepositLimit      = sdkerrors.Register(codespace, 9, "deposit exceeds limit")
	ErrInvalidMaxLoss    = sdkerrors.Register(codespace, 10, "max loss exceeds 10000 basis points")
	ErrQueueTooLong      = sdkerrors.Register(codespace, 11, "withdrawal queue exceeds maximum length")
	ErrDebtUnchanged     = sdkerrors.Register(codespace, 12, "target debt equals current debt")
	ErrSelfReceiver      = sdkerrors.Register(codespace, 13, "vault cannot be the receiver")
	ErrNotTransferable   = sdkerrors.Register(codespace, 14, "strategy shares are not transferable")
)

// Invariant-protection failures.
var (
	ErrUnrealisedLoss     = sdkerrors.Register(codespace, 20, "strategy has unrealised losses; process a report before lowering debt")
	ErrTooMuchLoss        = sdkerrors.Register(codespace, 21, "realized loss exceeds the caller's tolerance")
	ErrInsufficientShares = sdkerrors.Register(codespace, 22, "insufficient shares")
	ErrInsufficientAllow  = sdkerrors.Register(codespace, 23, "insufficient share allowance")
	ErrStrategyHasDebt    = sdkerrors.Register(codespace, 24, "strategy still has outstanding debt")
	ErrSharesLocked       = sdkerrors.Register(codespace, 25, "shares are locked under a custody record")
)

// Authorization and terminal state.
var (
	ErrNotAuthorized   = sdkerrors.Register(codespace, 30, "caller lacks the required role")
	ErrShutdown        = sdkerrors.Register(codespace, 31, "vault is shut down")
	ErrCustodyOpen     = sdkerrors.Register(codespace, 32, "holder already has an open custody lock")
	ErrNoCustody       = sdkerrors.Register(codespace, 33, "holder has no custody record")
	ErrCooldownPending = sdkerrors.Register(codespace, 34, "custody cooldown has not elapsed")
)
