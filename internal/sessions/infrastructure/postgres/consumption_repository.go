package postgres

import (
	"context"
	"errors"
	"fmt"

	sessions "chargenet-cloud/internal/sessions/domain"
)

const defaultConsumptionsTable = "consumptions"

// ConsumptionRepository is a Postgres implementation for metered samples.
type ConsumptionRepository struct {
	db    DBTX
	table string
}

// NewConsumptionRepository constructs a repository.
func NewConsumptionRepository(db DBTX) *ConsumptionRepository {
	return &ConsumptionRepository{db: db, table: defaultConsumptionsTable}
}

const consumptionColumns = `transaction_id, tenant_id, started_at, ended_at,
	consumption_wh, cumulated_consumption_wh, instant_watts`

// ListByTransaction returns samples for a transaction ordered by start time.
func (r *ConsumptionRepository) ListByTransaction(ctx context.Context, tenantID string, transactionID int64) ([]sessions.Consumption, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("consumption repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE tenant_id = $1 AND transaction_id = $2
ORDER BY started_at`, consumptionColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query, tenantID, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []sessions.Consumption
	for rows.Next() {
		var c sessions.Consumption
		if err := rows.Scan(
			&c.TransactionID,
			&c.TenantID,
			&c.StartedAt,
			&c.EndedAt,
			&c.ConsumptionWh,
			&c.CumulatedConsumptionWh,
			&c.InstantWatts,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Save stores one sample. Samples are append-only, keyed by transaction and
// end time.
func (r *ConsumptionRepository) Save(ctx context.Context, consumption *sessions.Consumption) error {
	if r == nil || r.db == nil {
		return errors.New("consumption repo: nil db")
	}
	if consumption.TransactionID == 0 {
		return errors.New("consumption repo: zero transaction id")
	}

	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (tenant_id, transaction_id, ended_at) DO UPDATE SET
	started_at = EXCLUDED.started_at,
	consumption_wh = EXCLUDED.consumption_wh,
	cumulated_consumption_wh = EXCLUDED.cumulated_consumption_wh,
	instant_watts = EXCLUDED.instant_watts`, r.table, consumptionColumns)

	_, err := r.db.ExecContext(ctx, query,
		consumption.TransactionID,
		consumption.TenantID,
		consumption.StartedAt,
		consumption.EndedAt,
		consumption.ConsumptionWh,
		consumption.CumulatedConsumptionWh,
		consumption.InstantWatts,
	)
	return err
}
