package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	masterdata "chargenet-cloud/internal/masterdata/domain"
)

const (
	defaultStationsTable      = "charging_stations"
	defaultNotificationsTable = "status_notifications"
)

// StationRepository is a Postgres implementation for charging stations. The
// charge point and connector topology is stored as JSONB documents.
type StationRepository struct {
	db                 DBTX
	table              string
	notificationsTable string
}

// StationOption configures the repository.
type StationOption func(*StationRepository)

// WithStationTable overrides the default table name.
func WithStationTable(table string) StationOption {
	return func(repo *StationRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// NewStationRepository constructs a repository.
func NewStationRepository(db DBTX, opts ...StationOption) *StationRepository {
	repo := &StationRepository{db: db, table: defaultStationsTable, notificationsTable: defaultNotificationsTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const stationColumns = `id, tenant_id, site_id, site_area_id, issuer, public, tariff_id, latitude, longitude, maximum_power, charge_points, connectors, last_changed`

// Get loads a charging station by id.
func (r *StationRepository) Get(ctx context.Context, tenantID, id string) (*masterdata.ChargingStation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("station repo: nil db")
	}
	if id == "" {
		return nil, errors.New("station repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE tenant_id = $1 AND id = $2
LIMIT 1`, stationColumns, r.table)

	station, err := scanStation(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, masterdata.ErrStationNotFound
		}
		return nil, err
	}
	return station, nil
}

// ListBySite loads one page of stations for a site, with the total count for
// the pagination loop.
func (r *StationRepository) ListBySite(ctx context.Context, tenantID, siteID string, offset, limit int) (*masterdata.StationPage, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("station repo: nil db")
	}
	if limit <= 0 {
		limit = 50
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE tenant_id = $1 AND site_id = $2`, r.table)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, tenantID, siteID).Scan(&total); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE tenant_id = $1 AND site_id = $2
ORDER BY id
OFFSET $3 LIMIT $4`, stationColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query, tenantID, siteID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := &masterdata.StationPage{Total: total}
	for rows.Next() {
		station, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		page.Stations = append(page.Stations, *station)
	}
	return page, rows.Err()
}

// ListWithStatusNotificationSince returns ids of stations that reported a
// connector status notification after the given time.
func (r *StationRepository) ListWithStatusNotificationSince(ctx context.Context, tenantID string, since time.Time) ([]string, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("station repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT DISTINCT charge_box_id
FROM %s
WHERE tenant_id = $1 AND received_at > $2
ORDER BY charge_box_id`, r.notificationsTable)

	rows, err := r.db.QueryContext(ctx, query, tenantID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Save upserts a charging station.
func (r *StationRepository) Save(ctx context.Context, station *masterdata.ChargingStation) error {
	if r == nil || r.db == nil {
		return errors.New("station repo: nil db")
	}
	if err := station.Validate(); err != nil {
		return err
	}

	chargePoints, err := json.Marshal(station.ChargePoints)
	if err != nil {
		return err
	}
	connectors, err := json.Marshal(station.Connectors)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (tenant_id, id) DO UPDATE SET
	site_id = EXCLUDED.site_id,
	site_area_id = EXCLUDED.site_area_id,
	issuer = EXCLUDED.issuer,
	public = EXCLUDED.public,
	tariff_id = EXCLUDED.tariff_id,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	maximum_power = EXCLUDED.maximum_power,
	charge_points = EXCLUDED.charge_points,
	connectors = EXCLUDED.connectors,
	last_changed = EXCLUDED.last_changed`, r.table, stationColumns)

	_, err = r.db.ExecContext(ctx, query,
		station.ID,
		station.TenantID,
		station.SiteID,
		nullable(station.SiteAreaID),
		station.Issuer,
		station.Public,
		nullable(station.TariffID),
		station.Latitude,
		station.Longitude,
		station.MaximumPower,
		chargePoints,
		connectors,
		station.LastChanged,
	)
	return err
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func scanStation(row rowScanner) (*masterdata.ChargingStation, error) {
	var station masterdata.ChargingStation
	var siteAreaID, tariffID sql.NullString
	var chargePoints, connectors []byte
	if err := row.Scan(
		&station.ID,
		&station.TenantID,
		&station.SiteID,
		&siteAreaID,
		&station.Issuer,
		&station.Public,
		&tariffID,
		&station.Latitude,
		&station.Longitude,
		&station.MaximumPower,
		&chargePoints,
		&connectors,
		&station.LastChanged,
	); err != nil {
		return nil, err
	}
	station.SiteAreaID = siteAreaID.String
	station.TariffID = tariffID.String
	if len(chargePoints) > 0 {
		if err := json.Unmarshal(chargePoints, &station.ChargePoints); err != nil {
			return nil, err
		}
	}
	if len(connectors) > 0 {
		if err := json.Unmarshal(connectors, &station.Connectors); err != nil {
			return nil, err
		}
	}
	return &station, nil
}
