// ./internal/state/snapshot_store.go
package state

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq" // PostgreSQL driver for array support
	"github.com/rs/zerolog/log"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/types"
)

// SaveVaultSnapshot saves a point-in-time vault state to the database.
func SaveVaultSnapshot(cycleID uuid.UUID, snapshot types.VaultSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO vault_snapshots (
			cycle_id, snapshot_timestamp, vault_name, asset,
			total_idle, total_debt, total_assets, total_supply,
			locked_shares, minimum_total_idle, deposit_limit,
			default_queue, is_shutdown
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING snapshot_id;
	`

	var snapshotID int64
	err := DB.QueryRow(
		query,
		cycleID, snapshot.Timestamp, snapshot.Name, snapshot.Asset,
		snapshot.TotalIdle.String(), snapshot.TotalDebt.String(),
		snapshot.TotalAssets.String(), snapshot.TotalSupply.String(),
		snapshot.LockedShares.String(), snapshot.MinimumTotalIdle.String(),
		snapshot.DepositLimit.String(),
		pq.Array(snapshot.DefaultQueue), snapshot.IsShutdown,
	).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to save vault snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Str("cycle_id", cycleID.String()).
		Str("total_assets", snapshot.TotalAssets.String()).
		Msg("Vault snapshot saved to database")

	return snapshotID, nil
}

// GetRecentSnapshots returns the most recent vault snapshots, newest first.
func GetRecentSnapshots(limit int) ([]types.VaultSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT vault_name, asset, total_idle, total_debt, total_assets,
		       total_supply, locked_shares, minimum_total_idle, deposit_limit,
		       default_queue, is_shutdown, snapshot_timestamp
		FROM vault_snapshots
		ORDER BY snapshot_timestamp DESC
		LIMIT $1;
	`
	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query vault snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []types.VaultSnapshot
	for rows.Next() {
		var s types.VaultSnapshot
		var idle, debt, assets, supply, locked, minIdle, limitCol string
		if err := rows.Scan(
			&s.Name, &s.Asset, &idle, &debt, &assets,
			&supply, &locked, &minIdle, &limitCol,
			pq.Array(&s.DefaultQueue), &s.IsShutdown, &s.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vault snapshot row: %w", err)
		}
		s.TotalIdle, err = parseStoredInt(idle)
		if err != nil {
			return nil, err
		}
		s.TotalDebt, err = parseStoredInt(debt)
		if err != nil {
			return nil, err
		}
		s.TotalAssets, err = parseStoredInt(assets)
		if err != nil {
			return nil, err
		}
		s.TotalSupply, err = parseStoredInt(supply)
		if err != nil {
			return nil, err
		}
		s.LockedShares, err = parseStoredInt(locked)
		if err != nil {
			return nil, err
		}
		s.MinimumTotalIdle, err = parseStoredInt(minIdle)
		if err != nil {
			return nil, err
		}
		s.DepositLimit, err = parseStoredInt(limitCol)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}
