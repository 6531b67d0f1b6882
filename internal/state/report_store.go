// ./internal/state/report_store.go
package state

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ReageMeuFilho/octant-v2-core-sub007/internal/types"
)

// SaveStrategyReport persists one report assessment under a keeper cycle id.
func SaveStrategyReport(cycleID uuid.UUID, report types.ReportResult) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	query := `
		INSERT INTO strategy_reports (
			cycle_id, report_timestamp, strategy,
			gain, loss, total_fees, total_refunds,
			protocol_fee_shares, accountant_fee_shares,
			shares_burned, shares_locked
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING report_id;
	`

	var reportID int64
	err := DB.QueryRow(
		query,
		cycleID, report.Timestamp, report.Strategy,
		report.Gain.String(), report.Loss.String(),
		report.TotalFees.String(), report.TotalRefunds.String(),
		report.ProtocolFeeShares.String(), report.AccountantFeeShares.String(),
		report.SharesBurned.String(), report.SharesLocked.String(),
	).Scan(&reportID)
	if err != nil {
		return 0, fmt.Errorf("failed to save strategy report: %w", err)
	}

	log.Info().
		Int64("report_id", reportID).
		Str("cycle_id", cycleID.String()).
		Str("strategy", report.Strategy).
		Str("gain", report.Gain.String()).
		Str("loss", report.Loss.String()).
		Msg("Strategy report saved to database")

	return reportID, nil
}

// GetRecentReports returns the most recent report assessments, newest first.
func GetRecentReports(limit int) ([]types.ReportResult, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT strategy, gain, loss, total_fees, total_refunds,
		       protocol_fee_shares, accountant_fee_shares,
		       shares_burned, shares_locked, report_timestamp
		FROM strategy_reports
		ORDER BY report_timestamp DESC
		LIMIT $1;
	`
	rows, err := DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query strategy reports: %w", err)
	}
	defer rows.Close()

	var reports []types.ReportResult
	for rows.Next() {
		var r types.ReportResult
		var gain, loss, fees, refunds, protoShares, acctShares, burned, locked string
		if err := rows.Scan(
			&r.Strategy, &gain, &loss, &fees, &refunds,
			&protoShares, &acctShares, &burned, &locked, &r.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan strategy report row: %w", err)
		}
		r.Gain, err = parseStoredInt(gain)
		if err != nil {
			return nil, err
		}
		r.Loss, err = parseStoredInt(loss)
		if err != nil {
			return nil, err
		}
		r.TotalFees, err = parseStoredInt(fees)
		if err != nil {
			return nil, err
		}
		r.TotalRefunds, err = parseStoredInt(refunds)
		if err != nil {
			return nil, err
		}
		r.ProtocolFeeShares, err = parseStoredInt(protoShares)
		if err != nil {
			return nil, err
		}
		r.AccountantFeeShares, err = parseStoredInt(acctShares)
		if err != nil {
			return nil, err
		}
		r.SharesBurned, err = parseStoredInt(burned)
		if err != nil {
			return nil, err
		}
		r.SharesLocked, err = parseStoredInt(locked)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// parseStoredInt converts a NUMERIC(40, 0) column back into an Int.
func parseStoredInt(s string) (sdkmath.Int, error) {
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("stored amount %q is not a valid integer", s)
	}
	return v, nil
}
