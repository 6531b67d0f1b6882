package vault

import (
	sdkerrors "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"
)

// shareLedger is the vault-owned share balance sheet. It is not safe for
// concurrent use on its own; every access happens under the vault's
// operation lock.
type shareLedger struct {
	totalSupply sdkmath.Int
	balances    map[string]sdkmath.Int
	allowances  map[string]map[string]sdkmath.Int
}

func newShareLedger() *shareLedger {
	return &shareLedger{
		totalSupply: sdkmath.ZeroInt(),
		balances:    make(map[string]sdkmath.Int),
		allowances:  make(map[string]map[string]sdkmath.Int),
	}
}

func (l *shareLedger) balanceOf(holder string) sdkmath.Int {
	if b, ok := l.balances[holder]; ok {
		return b
	}
	return sdkmath.ZeroInt()
}

func (l *shareLedger) allowance(owner, spender string) sdkmath.Int {
	if byspender, ok := l.allowances[owner]; ok {
		if a, ok := byspender[spender]; ok {
			return a
		}
	}
	return sdkmath.ZeroInt()
}

func (l *shareLedger) mint(to string, shares sdkmath.Int) {
	if !shares.IsPositive() {
		return
	}
	l.balances[to] = l.balanceOf(to).Add(shares)
	l.totalSupply = l.totalSupply.Add(shares)
}

func (l *shareLedger) burn(from string, shares sdkmath.Int) error {
	if !shares.IsPositive() {
		return nil
	}
	bal := l.balanceOf(from)
	if bal.LT(shares) {
		return sdkerrors.Wrapf(ErrInsufficientShares, "burn %s from %s with balance %s", shares, from, bal)
	}
	l.balances[from] = bal.Sub(shares)
	l.totalSupply = l.totalSupply.Sub(shares)
	return nil
}

func (l *shareLedger) transfer(from, to string, shares sdkmath.Int) error {
	bal := l.balanceOf(from)
	if bal.LT(shares) {
		return sdkerrors.Wrapf(ErrInsufficientShares, "transfer %s from %s with balance %s", shares, from, bal)
	}
	l.balances[from] = bal.Sub(shares)
	l.balances[to] = l.balanceOf(to).Add(shares)
	return nil
}

func (l *shareLedger) approve(owner, spender string, shares sdkmath.Int) {
	byspender, ok := l.allowances[owner]
	if !ok {
		byspender = make(map[string]sdkmath.Int)
		l.allowances[owner] = byspender
	}
	byspender[spender] = shares
}

func (l *shareLedger) spendAllowance(owner, spender string, shares sdkmath.Int) error {
	allowed := l.allowance(owner, spender)
	if allowed.LT(shares) {
		return sdkerrors.Wrapf(ErrInsufficientAllow, "spender %s allowed %s of %s, needs %s", spender, allowed, owner, shares)
	}
	l.allowances[owner][spender] = allowed.Sub(shares)
	return nil
}
