package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog/log"
)

// Application configuration loaded from environment variables. Populated at
// startup by LoadConfig.
var (
	// VaultName is the display name of the managed vault.
	VaultName string
	// VaultAddress identifies the vault on the asset ledger.
	VaultAddress string
	// RoleManagerAddress receives every capability at startup.
	RoleManagerAddress string
	// KeeperAddress is the identity the keeper cycle operates under.
	KeeperAddress string

	// AssetSymbol is the underlying asset denomination.
	AssetSymbol string
	// AssetDecimals is the underlying asset precision.
	AssetDecimals uint8

	// DepositLimit caps total assets. A nil Int means unlimited.
	DepositLimit sdkmath.Int
	// MinimumTotalIdle is the idle reserve floor.
	MinimumTotalIdle sdkmath.Int
	// ProfitMaxUnlockTime is the horizon over which reported profit unlocks.
	ProfitMaxUnlockTime time.Duration
	// RageQuitCooldown is the custody lock cooldown.
	RageQuitCooldown time.Duration

	// KeeperCronSpec schedules the report-and-rebalance cycle.
	KeeperCronSpec string
	// KeeperMaxLossBps is the loss tolerance the keeper passes to debt
	// updates.
	KeeperMaxLossBps uint16
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. Addresses and the asset symbol are required; the
// numeric knobs fall back to conservative defaults.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	VaultName, err = getEnv("VAULT_NAME")
	if err != nil {
		return err
	}
	VaultAddress, err = getEnv("VAULT_ADDRESS")
	if err != nil {
		return err
	}
	RoleManagerAddress, err = getEnv("ROLE_MANAGER_ADDRESS")
	if err != nil {
		return err
	}
	KeeperAddress, err = getEnv("KEEPER_ADDRESS")
	if err != nil {
		return err
	}
	AssetSymbol, err = getEnv("ASSET_SYMBOL")
	if err != nil {
		return err
	}

	decimals, err := getEnvAsUint64Default("ASSET_DECIMALS", 6)
	if err != nil {
		return err
	}
	if decimals > 18 {
		return errors.New("ASSET_DECIMALS must be at most 18")
	}
	AssetDecimals = uint8(decimals)

	DepositLimit, err = getEnvAsIntOptional("DEPOSIT_LIMIT")
	if err != nil {
		return err
	}
	MinimumTotalIdle, err = getEnvAsIntDefault("MINIMUM_TOTAL_IDLE", sdkmath.ZeroInt())
	if err != nil {
		return err
	}

	unlockSecs, err := getEnvAsUint64Default("PROFIT_MAX_UNLOCK_SECONDS", 7*24*3600)
	if err != nil {
		return err
	}
	ProfitMaxUnlockTime = time.Duration(unlockSecs) * time.Second

	cooldownSecs, err := getEnvAsUint64Default("RAGE_QUIT_COOLDOWN_SECONDS", 7*24*3600)
	if err != nil {
		return err
	}
	RageQuitCooldown = time.Duration(cooldownSecs) * time.Second

	KeeperCronSpec, err = getEnvDefault("KEEPER_CRON_SPEC", "@every 10m")
	if err != nil {
		return err
	}
	maxLoss, err := getEnvAsUint64Default("KEEPER_MAX_LOSS_BPS", 0)
	if err != nil {
		return err
	}
	if maxLoss > 10_000 {
		return errors.New("KEEPER_MAX_LOSS_BPS must be at most 10000")
	}
	KeeperMaxLossBps = uint16(maxLoss)

	log.Debug().
		Str("VaultName", VaultName).
		Str("VaultAddress", VaultAddress).
		Str("AssetSymbol", AssetSymbol).
		Str("KeeperCronSpec", KeeperCronSpec).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvDefault retrieves a string environment variable with a fallback.
func getEnvDefault(key, fallback string) (string, error) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value, nil
	}
	return fallback, nil
}

// getEnvAsUint64Default retrieves an environment variable as a uint64,
// falling back when unset. Returns error on an unparseable value.
func getEnvAsUint64Default(key string, fallback uint64) (uint64, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback, nil
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsIntOptional parses an arbitrary-precision integer amount. Unset
// yields a nil Int, which callers treat as "no limit".
func getEnvAsIntOptional(key string) (sdkmath.Int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return sdkmath.Int{}, nil
	}
	value, ok := sdkmath.NewIntFromString(valueStr)
	if !ok || value.IsNegative() {
		return sdkmath.Int{}, errors.New("environment variable " + key + " must be a non-negative integer, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsIntDefault parses an arbitrary-precision integer amount with a
// fallback.
func getEnvAsIntDefault(key string, fallback sdkmath.Int) (sdkmath.Int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback, nil
	}
	value, ok := sdkmath.NewIntFromString(valueStr)
	if !ok || value.IsNegative() {
		return sdkmath.Int{}, errors.New("environment variable " + key + " must be a non-negative integer, got: " + valueStr)
	}
	return value, nil
}
