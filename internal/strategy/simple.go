package strategy

import (
	"sync"

	sdkerrors "cosmossdk.io/errors"
	sdkmath "cosmossdk.io/math"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/asset"
)

const codespace = "strategy"

var (
	ErrInvalidAmount     = sdkerrors.Register(codespace, 2, "amount must be a positive integer")
	ErrDepositLimit      = sdkerrors.Register(codespace, 3, "deposit exceeds strategy limit")
	ErrInsufficientShare = sdkerrors.Register(codespace, 4, "insufficient strategy shares")
	ErrIlliquid          = sdkerrors.Register(codespace, 5, "requested amount exceeds liquid balance")
)

// SimpleStrategy is an in-memory ERC-4626-style strategy used by tests and
// the demo wiring. Its valuation is simply its asset balance, so yield is
// simulated by crediting assets to the strategy's address and losses by
// burning them. Illiquidity and deposit caps are configurable to exercise
// the vault's clamping paths.
type SimpleStrategy struct {
	mu    sync.Mutex
	addr  string
	token *asset.Token

	totalShares  sdkmath.Int
	shareHolders map[string]sdkmath.Int

	depositLimit sdkmath.Int // nil = unlimited
	illiquid     sdkmath.Int // portion of the balance that cannot be withdrawn
}

var _ Strategy = (*SimpleStrategy)(nil)
var _ ShareTransferor = (*SimpleStrategy)(nil)

// NewSimpleStrategy creates a strategy custodying the given token under the
// given address.
func NewSimpleStrategy(addr string, token *asset.Token) *SimpleStrategy {
	return &SimpleStrategy{
		addr:         addr,
		token:        token,
		totalShares:  sdkmath.ZeroInt(),
		shareHolders: make(map[string]sdkmath.Int),
		illiquid:     sdkmath.ZeroInt(),
	}
}

// SetDepositLimit caps future deposits. A nil Int removes the cap.
func (s *SimpleStrategy) SetDepositLimit(limit sdkmath.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depositLimit = limit
}

// SetIlliquid marks a portion of the strategy balance as temporarily
// unwithdrawable, shrinking MaxWithdraw/MaxRedeem without changing the
// valuation.
func (s *SimpleStrategy) SetIlliquid(amount sdkmath.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.illiquid = amount
}

func (s *SimpleStrategy) Address() string { return s.addr }

func (s *SimpleStrategy) Asset() string { return s.token.Symbol() }

func (s *SimpleStrategy) TotalAssets() sdkmath.Int {
	return s.token.BalanceOf(s.addr)
}

func (s *SimpleStrategy) MaxDeposit(string) sdkmath.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.depositLimit.IsNil() {
		// Effectively unbounded; callers clamp to their own idle anyway.
		return sdkmath.NewIntFromUint64(1 << 62)
	}
	used := s.token.BalanceOf(s.addr)
	if used.GTE(s.depositLimit) {
		return sdkmath.ZeroInt()
	}
	return s.depositLimit.Sub(used)
}

func (s *SimpleStrategy) MaxWithdraw(owner string) sdkmath.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	liquid := s.token.BalanceOf(s.addr).Sub(s.illiquid)
	if liquid.IsNegative() {
		liquid = sdkmath.ZeroInt()
	}
	owned := s.convertToAssets(s.balanceOf(owner))
	return sdkmath.MinInt(liquid, owned)
}

func (s *SimpleStrategy) MaxRedeem(owner string) sdkmath.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	liquid := s.token.BalanceOf(s.addr).Sub(s.illiquid)
	if liquid.IsNegative() {
		liquid = sdkmath.ZeroInt()
	}
	return sdkmath.MinInt(s.convertToShares(liquid), s.balanceOf(owner))
}

func (s *SimpleStrategy) ConvertToAssets(shares sdkmath.Int) sdkmath.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convertToAssets(shares)
}

func (s *SimpleStrategy) ConvertToShares(assets sdkmath.Int) sdkmath.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convertToShares(assets)
}

// convertToAssets floors, favoring the strategy on redemption.
func (s *SimpleStrategy) convertToAssets(shares sdkmath.Int) sdkmath.Int {
	if s.totalShares.IsZero() {
		return shares
	}
	return shares.Mul(s.token.BalanceOf(s.addr)).Quo(s.totalShares)
}

func (s *SimpleStrategy) convertToShares(assets sdkmath.Int) sdkmath.Int {
	if s.totalShares.IsZero() {
		return assets
	}
	total := s.token.BalanceOf(s.addr)
	if total.IsZero() {
		return sdkmath.ZeroInt()
	}
	return assets.Mul(s.totalShares).Quo(total)
}

func (s *SimpleStrategy) BalanceOf(owner string) sdkmath.Int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balanceOf(owner)
}

func (s *SimpleStrategy) balanceOf(owner string) sdkmath.Int {
	if b, ok := s.shareHolders[owner]; ok {
		return b
	}
	return sdkmath.ZeroInt()
}

// Deposit pulls assets from receiver (who must have approved this strategy)
// and mints shares at the pre-deposit price.
func (s *SimpleStrategy) Deposit(assets sdkmath.Int, receiver string) (sdkmath.Int, error) {
	if assets.IsNil() || !assets.IsPositive() {
		return sdkmath.ZeroInt(), ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.depositLimit.IsNil() {
		headroom := s.depositLimit.Sub(s.token.BalanceOf(s.addr))
		if assets.GT(headroom) {
			return sdkmath.ZeroInt(), sdkerrors.Wrapf(ErrDepositLimit, "deposit %s, headroom %s", assets, headroom)
		}
	}
	shares := s.convertToShares(assets)
	if err := s.token.TransferFrom(s.addr, receiver, s.addr, assets); err != nil {
		return sdkmath.ZeroInt(), err
	}
	s.shareHolders[receiver] = s.balanceOf(receiver).Add(shares)
	s.totalShares = s.totalShares.Add(shares)
	return shares, nil
}

// Redeem burns owner's shares and transfers the proceeds to receiver.
func (s *SimpleStrategy) Redeem(shares sdkmath.Int, receiver, owner string) (sdkmath.Int, error) {
	if shares.IsNil() || !shares.IsPositive() {
		return sdkmath.ZeroInt(), ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	held := s.balanceOf(owner)
	if held.LT(shares) {
		return sdkmath.ZeroInt(), sdkerrors.Wrapf(ErrInsufficientShare, "owner %s holds %s, redeeming %s", owner, held, shares)
	}
	assets := s.convertToAssets(shares)
	liquid := s.token.BalanceOf(s.addr).Sub(s.illiquid)
	if assets.GT(liquid) {
		return sdkmath.ZeroInt(), sdkerrors.Wrapf(ErrIlliquid, "need %s, liquid %s", assets, liquid)
	}
	s.shareHolders[owner] = held.Sub(shares)
	s.totalShares = s.totalShares.Sub(shares)
	if assets.IsPositive() {
		if err := s.token.Transfer(s.addr, receiver, assets); err != nil {
			return sdkmath.ZeroInt(), err
		}
	}
	return assets, nil
}

// TransferShares moves strategy shares between holders without touching the
// underlying assets.
func (s *SimpleStrategy) TransferShares(owner, to string, shares sdkmath.Int) error {
	if shares.IsNil() || !shares.IsPositive() {
		return ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	held := s.balanceOf(owner)
	if held.LT(shares) {
		return sdkerrors.Wrapf(ErrInsufficientShare, "owner %s holds %s, transferring %s", owner, held, shares)
	}
	s.shareHolders[owner] = held.Sub(shares)
	s.shareHolders[to] = s.balanceOf(to).Add(shares)
	return nil
}
