package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/accountant"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/asset"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/config"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/keeper"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/logger"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/state"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/vault"
	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/web"
)

// main is the entry point for the vault daemon.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Vault daemon starting...")

	// Initialize the database when configured. The daemon runs without one,
	// losing only cycle history persistence.
	withDB := os.Getenv("DB_HOST") != ""
	if withDB {
		dbCfg := state.DBConfig{
			Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
			User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
			DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
		}
		if err := state.InitDB(dbCfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer state.CloseDB()
		if err := state.EnsureSchema(); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
	} else {
		log.Warn().Msg("DB_HOST not set; cycle history persistence disabled")
	}

	// --- 2. Vault Construction ---
	token := asset.NewToken(config.AssetSymbol, config.AssetDecimals)

	acct := accountant.NewBpsAccountant("accountant", 1000, 0)
	feeConfig := accountant.StaticFeeConfig{Bps: 0, Recipient: ""}

	v, err := vault.New(vault.Config{
		Name:                config.VaultName,
		Address:             config.VaultAddress,
		Asset:               token,
		RoleManager:         config.RoleManagerAddress,
		DepositLimit:        config.DepositLimit,
		MinimumTotalIdle:    config.MinimumTotalIdle,
		ProfitMaxUnlockTime: config.ProfitMaxUnlockTime,
		RageQuitCooldown:    config.RageQuitCooldown,
		Accountant:          acct,
		FeeConfig:           feeConfig,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to construct vault")
	}

	if err := v.SetRole(config.RoleManagerAddress, config.KeeperAddress,
		vault.RoleReporter|vault.RoleDebtManager); err != nil {
		log.Fatal().Err(err).Msg("Failed to grant keeper roles")
	}

	// --- 3. Keeper ---
	kp, err := keeper.New(keeper.Config{
		Vault:      v,
		Caller:     config.KeeperAddress,
		CronSpec:   config.KeeperCronSpec,
		MaxLossBps: config.KeeperMaxLossBps,
		Persist:    withDB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to construct keeper")
	}
	if err := kp.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start keeper")
	}
	defer kp.Stop()

	// --- 4. Web Server ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}
	webServer := web.NewWebServer(webPort, v, withDB)
	go func() {
		log.Info().Str("port", webPort).Msg("Starting vault API server")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 5. Wait for shutdown ---
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	log.Info().Str("signal", s.String()).Msg("Shutting down vault daemon")
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
