// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
// Asset and share amounts are stored as NUMERIC(40, 0): integer base units
// wide enough for 256-bit balances.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	schemaSQL := `
		CREATE TABLE IF NOT EXISTS strategy_reports (
			report_id SERIAL PRIMARY KEY,
			cycle_id UUID NOT NULL,
			report_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			strategy VARCHAR(255) NOT NULL,
			gain NUMERIC(40, 0) NOT NULL,
			loss NUMERIC(40, 0) NOT NULL,
			total_fees NUMERIC(40, 0) NOT NULL,
			total_refunds NUMERIC(40, 0) NOT NULL,
			protocol_fee_shares NUMERIC(40, 0) NOT NULL,
			accountant_fee_shares NUMERIC(40, 0) NOT NULL,
			shares_burned NUMERIC(40, 0) NOT NULL,
			shares_locked NUMERIC(40, 0) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_strategy_reports_timestamp ON strategy_reports(report_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_strategy_reports_strategy ON strategy_reports(strategy);
		CREATE INDEX IF NOT EXISTS idx_strategy_reports_cycle ON strategy_reports(cycle_id);

		CREATE TABLE IF NOT EXISTS debt_receipts (
			receipt_id SERIAL PRIMARY KEY,
			cycle_id UUID NOT NULL,
			receipt_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			strategy VARCHAR(255) NOT NULL,
			requested_debt NUMERIC(40, 0) NOT NULL,
			new_debt NUMERIC(40, 0) NOT NULL,
			moved NUMERIC(40, 0) NOT NULL,
			direction VARCHAR(16) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_debt_receipts_timestamp ON debt_receipts(receipt_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_debt_receipts_strategy ON debt_receipts(strategy);
		CREATE INDEX IF NOT EXISTS idx_debt_receipts_cycle ON debt_receipts(cycle_id);

		CREATE TABLE IF NOT EXISTS vault_snapshots (
			snapshot_id SERIAL PRIMARY KEY,
			cycle_id UUID NOT NULL,
			snapshot_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			vault_name VARCHAR(255) NOT NULL,
			asset VARCHAR(64) NOT NULL,
			total_idle NUMERIC(40, 0) NOT NULL,
			total_debt NUMERIC(40, 0) NOT NULL,
			total_assets NUMERIC(40, 0) NOT NULL,
			total_supply NUMERIC(40, 0) NOT NULL,
			locked_shares NUMERIC(40, 0) NOT NULL,
			minimum_total_idle NUMERIC(40, 0) NOT NULL,
			deposit_limit NUMERIC(40, 0) NOT NULL,
			default_queue TEXT[],
			is_shutdown BOOLEAN NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_vault_snapshots_timestamp ON vault_snapshots(snapshot_timestamp DESC);
		CREATE INDEX IF NOT EXISTS idx_vault_snapshots_cycle ON vault_snapshots(cycle_id);
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
