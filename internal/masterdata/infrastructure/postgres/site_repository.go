package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	masterdata "chargenet-cloud/internal/masterdata/domain"
)

const (
	defaultSitesTable     = "sites"
	defaultSiteAreasTable = "site_areas"
)

// SiteRepository is a Postgres implementation for sites and site areas.
type SiteRepository struct {
	db             DBTX
	sitesTable     string
	siteAreasTable string
}

// SiteOption configures the repository.
type SiteOption func(*SiteRepository)

// WithSitesTable overrides the default sites table name.
func WithSitesTable(table string) SiteOption {
	return func(repo *SiteRepository) {
		if table != "" {
			repo.sitesTable = table
		}
	}
}

// NewSiteRepository constructs a repository.
func NewSiteRepository(db DBTX, opts ...SiteOption) *SiteRepository {
	repo := &SiteRepository{db: db, sitesTable: defaultSitesTable, siteAreasTable: defaultSiteAreasTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Get loads a site by id.
func (r *SiteRepository) Get(ctx context.Context, tenantID, id string) (*masterdata.Site, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("site repo: nil db")
	}
	if id == "" {
		return nil, errors.New("site repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT id, tenant_id, name, street, city, postal_code, country, latitude, longitude, public, tariff_id, last_changed
FROM %s
WHERE tenant_id = $1 AND id = $2
LIMIT 1`, r.sitesTable)

	site, err := scanSite(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, masterdata.ErrSiteNotFound
		}
		return nil, err
	}
	return site, nil
}

// ListPublic loads every public site of a tenant.
func (r *SiteRepository) ListPublic(ctx context.Context, tenantID string) ([]masterdata.Site, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("site repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT id, tenant_id, name, street, city, postal_code, country, latitude, longitude, public, tariff_id, last_changed
FROM %s
WHERE tenant_id = $1 AND public = TRUE
ORDER BY id`, r.sitesTable)

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []masterdata.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, *site)
	}
	return sites, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (*masterdata.Site, error) {
	var site masterdata.Site
	var tariffID sql.NullString
	if err := row.Scan(
		&site.ID,
		&site.TenantID,
		&site.Name,
		&site.Address.Street,
		&site.Address.City,
		&site.Address.PostalCode,
		&site.Address.Country,
		&site.Address.Latitude,
		&site.Address.Longitude,
		&site.Public,
		&tariffID,
		&site.LastChanged,
	); err != nil {
		return nil, err
	}
	site.TariffID = tariffID.String
	return &site, nil
}

// SiteAreaRepository is a Postgres implementation for site areas.
type SiteAreaRepository struct {
	db    DBTX
	table string
}

// NewSiteAreaRepository constructs a repository.
func NewSiteAreaRepository(db DBTX) *SiteAreaRepository {
	return &SiteAreaRepository{db: db, table: defaultSiteAreasTable}
}

// Get loads a site area by id.
func (r *SiteAreaRepository) Get(ctx context.Context, tenantID, id string) (*masterdata.SiteArea, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("site area repo: nil db")
	}
	if id == "" {
		return nil, masterdata.ErrSiteNotFound
	}

	query := fmt.Sprintf(`
SELECT id, tenant_id, site_id, name, tariff_id
FROM %s
WHERE tenant_id = $1 AND id = $2
LIMIT 1`, r.table)

	var area masterdata.SiteArea
	var tariffID sql.NullString
	if err := r.db.QueryRowContext(ctx, query, tenantID, id).Scan(
		&area.ID,
		&area.TenantID,
		&area.SiteID,
		&area.Name,
		&tariffID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, masterdata.ErrSiteNotFound
		}
		return nil, err
	}
	area.TariffID = tariffID.String
	return &area, nil
}
