package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sessions "chargenet-cloud/internal/sessions/domain"
)

const defaultTransactionsTable = "transactions"

// TransactionRepository is a Postgres implementation for transactions.
// The stop record and the roaming payload are stored as JSONB columns so
// the reconciliation jobs can update them without schema churn.
type TransactionRepository struct {
	db    DBTX
	table string
}

// NewTransactionRepository constructs a repository.
func NewTransactionRepository(db DBTX) *TransactionRepository {
	return &TransactionRepository{db: db, table: defaultTransactionsTable}
}

const transactionColumns = `id, tenant_id, charge_box_id, connector_id, tag_id, user_id, ts, meter_start,
	current_total_consumption_wh, current_inactivity_secs, current_instant_watts,
	price, price_unit, stop, ocpi_data, last_update`

// Get loads a transaction by id.
func (r *TransactionRepository) Get(ctx context.Context, tenantID string, id int64) (*sessions.Transaction, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("transaction repo: nil db")
	}
	if id == 0 {
		return nil, errors.New("transaction repo: zero id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE tenant_id = $1 AND id = $2
LIMIT 1`, transactionColumns, r.table)

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sessions.ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// ListWithUncheckedSessions returns stopped transactions that carry a roaming
// session whose reconciliation timestamp has not been set yet.
func (r *TransactionRepository) ListWithUncheckedSessions(ctx context.Context, tenantID string, limit int) ([]sessions.Transaction, error) {
	return r.listUnchecked(ctx, tenantID, "session", "sessionCheckedOn", limit)
}

// ListWithUncheckedCdrs returns stopped transactions that carry a CDR whose
// reconciliation timestamp has not been set yet.
func (r *TransactionRepository) ListWithUncheckedCdrs(ctx context.Context, tenantID string, limit int) ([]sessions.Transaction, error) {
	return r.listUnchecked(ctx, tenantID, "cdr", "cdrCheckedOn", limit)
}

func (r *TransactionRepository) listUnchecked(ctx context.Context, tenantID, objectKey, checkedKey string, limit int) ([]sessions.Transaction, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("transaction repo: nil db")
	}
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE tenant_id = $1
  AND stop IS NOT NULL
  AND ocpi_data ? '%s'
  AND NOT (ocpi_data ? '%s')
ORDER BY id
LIMIT $2`, transactionColumns, r.table, objectKey, checkedKey)

	return r.queryTransactions(ctx, query, tenantID, limit)
}

// ListCompleted returns stopped transactions in the given stop-time window.
func (r *TransactionRepository) ListCompleted(ctx context.Context, tenantID string, from, to time.Time) ([]sessions.Transaction, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("transaction repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE tenant_id = $1
  AND stop IS NOT NULL
  AND (stop->>'timestamp')::timestamptz >= $2
  AND (stop->>'timestamp')::timestamptz < $3
ORDER BY id`, transactionColumns, r.table)

	return r.queryTransactions(ctx, query, tenantID, from, to)
}

// Save upserts a transaction including its stop record and roaming payload.
func (r *TransactionRepository) Save(ctx context.Context, transaction *sessions.Transaction) error {
	if r == nil || r.db == nil {
		return errors.New("transaction repo: nil db")
	}
	if err := transaction.Validate(); err != nil {
		return err
	}

	stop, err := marshalNullable(transaction.Stop)
	if err != nil {
		return fmt.Errorf("transaction repo: marshal stop: %w", err)
	}
	ocpiData, err := marshalNullable(transaction.OcpiData)
	if err != nil {
		return fmt.Errorf("transaction repo: marshal ocpi data: %w", err)
	}

	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
ON CONFLICT (tenant_id, id) DO UPDATE SET
	current_total_consumption_wh = EXCLUDED.current_total_consumption_wh,
	current_inactivity_secs = EXCLUDED.current_inactivity_secs,
	current_instant_watts = EXCLUDED.current_instant_watts,
	price = EXCLUDED.price,
	price_unit = EXCLUDED.price_unit,
	stop = EXCLUDED.stop,
	ocpi_data = EXCLUDED.ocpi_data,
	last_update = EXCLUDED.last_update`, r.table, transactionColumns)

	_, err = r.db.ExecContext(ctx, query,
		transaction.ID,
		transaction.TenantID,
		transaction.ChargeBoxID,
		transaction.ConnectorID,
		transaction.TagID,
		transaction.UserID,
		transaction.Timestamp,
		transaction.MeterStart,
		transaction.CurrentTotalConsumptionWh,
		transaction.CurrentInactivitySecs,
		transaction.CurrentInstantWatts,
		transaction.Price,
		transaction.PriceUnit,
		stop,
		ocpiData,
		transaction.LastUpdate,
	)
	return err
}

func (r *TransactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]sessions.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []sessions.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tx)
	}
	return result, rows.Err()
}

func scanTransaction(row rowScanner) (*sessions.Transaction, error) {
	var tx sessions.Transaction
	var stop, ocpiData []byte
	if err := row.Scan(
		&tx.ID,
		&tx.TenantID,
		&tx.ChargeBoxID,
		&tx.ConnectorID,
		&tx.TagID,
		&tx.UserID,
		&tx.Timestamp,
		&tx.MeterStart,
		&tx.CurrentTotalConsumptionWh,
		&tx.CurrentInactivitySecs,
		&tx.CurrentInstantWatts,
		&tx.Price,
		&tx.PriceUnit,
		&stop,
		&ocpiData,
		&tx.LastUpdate,
	); err != nil {
		return nil, err
	}
	if len(stop) > 0 {
		tx.Stop = &sessions.TransactionStop{}
		if err := json.Unmarshal(stop, tx.Stop); err != nil {
			return nil, fmt.Errorf("transaction repo: unmarshal stop: %w", err)
		}
	}
	if len(ocpiData) > 0 {
		tx.OcpiData = &sessions.OcpiData{}
		if err := json.Unmarshal(ocpiData, tx.OcpiData); err != nil {
			return nil, fmt.Errorf("transaction repo: unmarshal ocpi data: %w", err)
		}
	}
	return &tx, nil
}

func marshalNullable(v any) (any, error) {
	switch t := v.(type) {
	case *sessions.TransactionStop:
		if t == nil {
			return nil, nil
		}
	case *sessions.OcpiData:
		if t == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
