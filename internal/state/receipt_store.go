// ./internal/state/receipt_store.go
package state

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/types"
)

// SaveDebtReceipt persists the outcome of one debt rebalance.
func SaveDebtReceipt(cycleID uuid.UUID, receipt types.DebtReceipt) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO debt_receipts (
			cycle_id, receipt_timestamp, strategy,
			requested_debt, new_debt, moved, direction
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING receipt_id;
	`

	var receiptID int64
	err := DB.QueryRow(
		query,
		cycleID, receipt.Timestamp, receipt.Strategy,
		receipt.Requested.String(), receipt.NewDebt.String(),
		receipt.Moved.String(), string(receipt.Direction),
	).Scan(&receiptID)
	if err != nil {
		return 0, fmt.Errorf("failed to save debt receipt: %w", err)
	}

	log.Info().
		Int64("receipt_id", receiptID).
		Str("cycle_id", cycleID.String()).
		Str("strategy", receipt.Strategy).
		Str("direction", string(receipt.Direction)).
		Str("moved", receipt.Moved.String()).
		Msg("Debt receipt saved to database")

	return receiptID, nil
}

// GetRecentDebtReceipts returns the most recent rebalance outcomes, newest
// first.
func GetRecentDebtReceipts(limit int) ([]types.DebtReceipt, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT strategy, requested_debt, new_debt, moved, direction, receipt_timestamp
		FROM debt_receipts
		ORDER BY receipt_timestamp DESC
		LIMIT $1;
	`
	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query debt receipts: %w", err)
	}
	defer rows.Close()

	var receipts []types.DebtReceipt
	for rows.Next() {
		var r types.DebtReceipt
		var requested, newDebt, moved, direction string
		if err := rows.Scan(&r.Strategy, &requested, &newDebt, &moved, &direction, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan debt receipt row: %w", err)
		}
		r.Requested, err = parseStoredInt(requested)
		if err != nil {
			return nil, err
		}
		r.NewDebt, err = parseStoredInt(newDebt)
		if err != nil {
			return nil, err
		}
		r.Moved, err = parseStoredInt(moved)
		if err != nil {
			return nil, err
		}
		r.Direction = types.DebtDirection(direction)
		receipts = append(receipts, r)
	}
	return receipts, rows.Err()
}
