package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	roaming "chargenet-cloud/internal/roaming/domain"
)

const defaultEndpointsTable = "ocpi_endpoints"

// EndpointRepository is a Postgres implementation for OCPI endpoints.
type EndpointRepository struct {
	db    DBTX
	table string
}

// NewEndpointRepository constructs a repository.
func NewEndpointRepository(db DBTX) *EndpointRepository {
	return &EndpointRepository{db: db, table: defaultEndpointsTable}
}

const endpointColumns = `id, tenant_id, name, role, base_url, version_url, local_token, token,
	country_code, party_id, status, background_jobs_active,
	last_patch_job_on, last_patch_job_result, last_changed`

// Get loads an endpoint by id.
func (r *EndpointRepository) Get(ctx context.Context, tenantID, id string) (*roaming.Endpoint, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("endpoint repo: nil db")
	}
	if id == "" {
		return nil, errors.New("endpoint repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE tenant_id = $1 AND id = $2
LIMIT 1`, endpointColumns, r.table)

	endpoint, err := scanEndpoint(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, roaming.ErrEndpointNotFound
		}
		return nil, err
	}
	return endpoint, nil
}

// ListByTenant returns all endpoints of a tenant.
func (r *EndpointRepository) ListByTenant(ctx context.Context, tenantID string) ([]roaming.Endpoint, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("endpoint repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE tenant_id = $1
ORDER BY name`, endpointColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []roaming.Endpoint
	for rows.Next() {
		endpoint, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *endpoint)
	}
	return result, rows.Err()
}

// Save upserts an endpoint including the last job state.
func (r *EndpointRepository) Save(ctx context.Context, endpoint *roaming.Endpoint) error {
	if r == nil || r.db == nil {
		return errors.New("endpoint repo: nil db")
	}
	if err := endpoint.Validate(); err != nil {
		return err
	}

	var jobResult any
	if endpoint.LastPatchJobResult != nil {
		b, err := json.Marshal(endpoint.LastPatchJobResult)
		if err != nil {
			return fmt.Errorf("endpoint repo: marshal job result: %w", err)
		}
		jobResult = b
	}

	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (tenant_id, id) DO UPDATE SET
	name = EXCLUDED.name,
	role = EXCLUDED.role,
	base_url = EXCLUDED.base_url,
	version_url = EXCLUDED.version_url,
	local_token = EXCLUDED.local_token,
	token = EXCLUDED.token,
	country_code = EXCLUDED.country_code,
	party_id = EXCLUDED.party_id,
	status = EXCLUDED.status,
	background_jobs_active = EXCLUDED.background_jobs_active,
	last_patch_job_on = EXCLUDED.last_patch_job_on,
	last_patch_job_result = EXCLUDED.last_patch_job_result,
	last_changed = EXCLUDED.last_changed`, r.table, endpointColumns)

	_, err := r.db.ExecContext(ctx, query,
		endpoint.ID,
		endpoint.TenantID,
		endpoint.Name,
		endpoint.Role,
		endpoint.BaseURL,
		endpoint.VersionURL,
		endpoint.LocalToken,
		endpoint.Token,
		endpoint.CountryCode,
		endpoint.PartyID,
		endpoint.Status,
		endpoint.BackgroundJobsActive,
		endpoint.LastPatchJobOn,
		jobResult,
		endpoint.LastChanged,
	)
	return err
}

func scanEndpoint(row rowScanner) (*roaming.Endpoint, error) {
	var endpoint roaming.Endpoint
	var jobResult []byte
	if err := row.Scan(
		&endpoint.ID,
		&endpoint.TenantID,
		&endpoint.Name,
		&endpoint.Role,
		&endpoint.BaseURL,
		&endpoint.VersionURL,
		&endpoint.LocalToken,
		&endpoint.Token,
		&endpoint.CountryCode,
		&endpoint.PartyID,
		&endpoint.Status,
		&endpoint.BackgroundJobsActive,
		&endpoint.LastPatchJobOn,
		&jobResult,
		&endpoint.LastChanged,
	); err != nil {
		return nil, err
	}
	if len(jobResult) > 0 {
		endpoint.LastPatchJobResult = &roaming.JobResult{}
		if err := json.Unmarshal(jobResult, endpoint.LastPatchJobResult); err != nil {
			return nil, fmt.Errorf("endpoint repo: unmarshal job result: %w", err)
		}
	}
	return &endpoint, nil
}
