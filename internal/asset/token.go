/*

In-memory fungible token ledger for the vault's underlying asset. The vault,
its strategies, holders and the accountant all move value through one Token
instance, which lets the accounting invariants (vault balance == totalIdle,
refunds capped by allowance) be checked against a real balance sheet.

*/

package asset

import (
	"sync"

	sdkerrors "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

const codespace = "asset"

var (
	ErrEmptyAccount          = sdkerrors.Register(codespace, 2, "account identifier cannot be empty")
	ErrInvalidAmount         = sdkerrors.Register(codespace, 3, "amount must be a positive integer")
	ErrInsufficientFunds     = sdkerrors.Register(codespace, 4, "insufficient funds")
	ErrInsufficientAllowance = sdkerrors.Register(codespace, 5, "insufficient allowance")
)

// Token is a minimal transfer/allowance ledger keyed by account identifier.
// It is safe for concurrent use; the vault serializes its own operations but
// the web surface reads balances outside that lock.
type Token struct {
	mu          sync.RWMutex
	symbol      string
	decimals    uint8
	totalSupply sdkmath.Int
	balances    map[string]sdkmath.Int
	allowances  map[string]map[string]sdkmath.Int
}

// NewToken creates an empty ledger for the given symbol.
func NewToken(symbol string, decimals uint8) *Token {
	return &Token{
		symbol:      symbol,
		decimals:    decimals,
		totalSupply: sdkmath.ZeroInt(),
		balances:    make(map[string]sdkmath.Int),
		allowances:  make(map[string]map[string]sdkmath.Int),
	}
}

// Symbol returns the token symbol. Vaults compare this against a strategy's
// reported asset to reject mismatched registrations.
func (t *Token) Symbol() string {
	return t.symbol
}

// Decimals returns the display precision of the token.
func (t *Token) Decimals() uint8 {
	return t.decimals
}

// TotalSupply returns the sum of all balances.
func (t *Token) TotalSupply() sdkmath.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalSupply
}

// BalanceOf returns the balance of the given account, zero if unknown.
func (t *Token) BalanceOf(account string) sdkmath.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balanceOf(account)
}

func (t *Token) balanceOf(account string) sdkmath.Int {
	if bal, ok := t.balances[account]; ok {
		return bal
	}
	return sdkmath.ZeroInt()
}

// Allowance returns what spender may currently move out of owner's balance.
func (t *Token) Allowance(owner, spender string) sdkmath.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.allowance(owner, spender)
}

func (t *Token) allowance(owner, spender string) sdkmath.Int {
	if byspender, ok := t.allowances[owner]; ok {
		if a, ok := byspender[spender]; ok {
			return a
		}
	}
	return sdkmath.ZeroInt()
}

// Mint credits newly issued units to an account.
func (t *Token) Mint(to string, amount sdkmath.Int) error {
	if to == "" {
		return ErrEmptyAccount
	}
	if err := validAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[to] = t.balanceOf(to).Add(amount)
	t.totalSupply = t.totalSupply.Add(amount)
	return nil
}

// Burn destroys units held by an account. Used by tests and the strategy
// fixtures to simulate value loss.
func (t *Token) Burn(from string, amount sdkmath.Int) error {
	if from == "" {
		return ErrEmptyAccount
	}
	if err := validAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	bal := t.balanceOf(from)
	if bal.LT(amount) {
		return sdkerrors.Wrapf(ErrInsufficientFunds, "burn %s from %s with balance %s", amount, from, bal)
	}
	t.balances[from] = bal.Sub(amount)
	t.totalSupply = t.totalSupply.Sub(amount)
	return nil
}

// Transfer moves amount from one account to another.
func (t *Token) Transfer(from, to string, amount sdkmath.Int) error {
	if from == "" || to == "" {
		return ErrEmptyAccount
	}
	if err := validAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.transfer(from, to, amount)
}

func (t *Token) transfer(from, to string, amount sdkmath.Int) error {
	bal := t.balanceOf(from)
	if bal.LT(amount) {
		return sdkerrors.Wrapf(ErrInsufficientFunds, "transfer %s from %s with balance %s", amount, from, bal)
	}
	t.balances[from] = bal.Sub(amount)
	t.balances[to] = t.balanceOf(to).Add(amount)
	return nil
}

// Approve sets spender's allowance over owner's balance. The owner is an
// explicit parameter; there is no ambient caller identity.
func (t *Token) Approve(owner, spender string, amount sdkmath.Int) error {
	if owner == "" || spender == "" {
		return ErrEmptyAccount
	}
	if amount.IsNil() || amount.IsNegative() {
		return ErrInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	byspender, ok := t.allowances[owner]
	if !ok {
		byspender = make(map[string]sdkmath.Int)
		t.allowances[owner] = byspender
	}
	byspender[spender] = amount
	return nil
}

// TransferFrom moves amount from owner to recipient on behalf of spender,
// consuming allowance.
func (t *Token) TransferFrom(spender, from, to string, amount sdkmath.Int) error {
	if spender == "" || from == "" || to == "" {
		return ErrEmptyAccount
	}
	if err := validAmount(amount); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	allowed := t.allowance(from, spender)
	if allowed.LT(amount) {
		return sdkerrors.Wrapf(ErrInsufficientAllowance, "spender %s allowed %s of %s, needs %s", spender, allowed, from, amount)
	}
	if err := t.transfer(from, to, amount); err != nil {
		return err
	}
	t.allowances[from][spender] = allowed.Sub(amount)
	return nil
}

func validAmount(amount sdkmath.Int) error {
	if amount.IsNil() || !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
