package vault

import (
	"errors"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/accountant"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/asset"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/strategy"
)

const (
	governor  = "governor"
	vaultAddr = "vault"
	alice     = "alice"
	bob       = "bob"
)

// testClock is a manually advanced clock injected into the vault.
type testClock struct {
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type vaultOption func(*Config)

func withProfitUnlock(horizon time.Duration) vaultOption {
	return func(cfg *Config) { cfg.ProfitMaxUnlockTime = horizon }
}

func withAccountant(acct accountant.Accountant, feeCfg accountant.FeeConfigProvider) vaultOption {
	return func(cfg *Config) {
		cfg.Accountant = acct
		cfg.FeeConfig = feeCfg
	}
}

func withDepositLimit(limit sdkmath.Int) vaultOption {
	return func(cfg *Config) { cfg.DepositLimit = limit }
}

func withMinimumIdle(minimum sdkmath.Int) vaultOption {
	return func(cfg *Config) { cfg.MinimumTotalIdle = minimum }
}

func withCooldown(d time.Duration) vaultOption {
	return func(cfg *Config) { cfg.RageQuitCooldown = d }
}

func newTestVault(t *testing.T, opts ...vaultOption) (*Vault, *asset.Token, *testClock) {
	t.Helper()
	token := asset.NewToken("usdc", 6)
	clock := newTestClock()
	cfg := Config{
		Name:        "test-vault",
		Address:     vaultAddr,
		Asset:       token,
		RoleManager: governor,
		Now:         clock.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	v, err := New(cfg)
	require.NoError(t, err)
	return v, token, clock
}

var errStrategyDown = errors.New("strategy unavailable")

// faultyStrategy fails selected operations to exercise the abort paths.
type faultyStrategy struct {
	*strategy.SimpleStrategy
	failDeposit bool
	failRedeem  bool
}

func (f *faultyStrategy) Deposit(assets sdkmath.Int, receiver string) (sdkmath.Int, error) {
	if f.failDeposit {
		return sdkmath.ZeroInt(), errStrategyDown
	}
	return f.SimpleStrategy.Deposit(assets, receiver)
}

func (f *faultyStrategy) Redeem(shares sdkmath.Int, receiver, owner string) (sdkmath.Int, error) {
	if f.failRedeem {
		return sdkmath.ZeroInt(), errStrategyDown
	}
	return f.SimpleStrategy.Redeem(shares, receiver, owner)
}

// fundAndDeposit mints assets to the holder, approves the vault and deposits.
func fundAndDeposit(t *testing.T, v *Vault, token *asset.Token, holder string, amount int64) sdkmath.Int {
	t.Helper()
	amt := sdkmath.NewInt(amount)
	require.NoError(t, token.Mint(holder, amt))
	require.NoError(t, token.Approve(holder, v.Address(), amt))
	shares, err := v.Deposit(holder, amt, holder)
	require.NoError(t, err)
	return shares
}

// addStrategyWithDebt registers a strategy, raises its cap and pushes the
// requested debt into it.
func addStrategyWithDebt(t *testing.T, v *Vault, token *asset.Token, addr string, debt int64) *strategy.SimpleStrategy {
	t.Helper()
	strat := strategy.NewSimpleStrategy(addr, token)
	require.NoError(t, v.AddStrategy(governor, strat, true))
	require.NoError(t, v.UpdateMaxDebtForStrategy(governor, addr, sdkmath.NewInt(1_000_000_000)))
	if debt > 0 {
		newDebt, err := v.UpdateDebt(governor, addr, sdkmath.NewInt(debt), 0)
		require.NoError(t, err)
		require.Equal(t, sdkmath.NewInt(debt), newDebt)
	}
	return strat
}
