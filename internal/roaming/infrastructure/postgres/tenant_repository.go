package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	roaming "chargenet-cloud/internal/roaming/domain"
)

const defaultTenantsTable = "tenants"

// TenantRepository is a Postgres implementation for tenants.
type TenantRepository struct {
	db    DBTX
	table string
}

// NewTenantRepository constructs a repository.
func NewTenantRepository(db DBTX) *TenantRepository {
	return &TenantRepository{db: db, table: defaultTenantsTable}
}

const tenantColumns = `id, name, subdomain, roaming_active, default_tariff_id, currency`

// ListActive returns tenants with the roaming component enabled.
func (r *TenantRepository) ListActive(ctx context.Context) ([]roaming.Tenant, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tenant repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE roaming_active
ORDER BY id`, tenantColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []roaming.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tenant)
	}
	return result, rows.Err()
}

// Get loads a tenant by id.
func (r *TenantRepository) Get(ctx context.Context, id string) (*roaming.Tenant, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tenant repo: nil db")
	}
	if id == "" {
		return nil, errors.New("tenant repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
LIMIT 1`, tenantColumns, r.table)

	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roaming.ErrTenantNotFound
		}
		return nil, err
	}
	return tenant, nil
}

func scanTenant(row rowScanner) (*roaming.Tenant, error) {
	var tenant roaming.Tenant
	var tariffID, currency sql.NullString
	if err := row.Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Subdomain,
		&tenant.RoamingActive,
		&tariffID,
		&currency,
	); err != nil {
		return nil, err
	}
	tenant.DefaultTariffID = tariffID.String
	tenant.Currency = currency.String
	return &tenant, nil
}
