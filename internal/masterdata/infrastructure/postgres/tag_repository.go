package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	masterdata "chargenet-cloud/internal/masterdata/domain"
)

const defaultTagsTable = "tags"

// TagRepository is a Postgres implementation for tags.
type TagRepository struct {
	db    DBTX
	table string
}

// NewTagRepository constructs a repository.
func NewTagRepository(db DBTX) *TagRepository {
	return &TagRepository{db: db, table: defaultTagsTable}
}

const tagColumns = `id, tenant_id, user_id, issuer, active, description, visual_id, last_changed, ocpi_token, ocpi_token_uid`

// Get loads a tag by id.
func (r *TagRepository) Get(ctx context.Context, tenantID, id string) (*masterdata.Tag, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tag repo: nil db")
	}
	if id == "" {
		return nil, errors.New("tag repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE tenant_id = $1 AND id = $2
LIMIT 1`, tagColumns, r.table)

	tag, err := scanTag(r.db.QueryRowContext(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, masterdata.ErrTagNotFound
		}
		return nil, err
	}
	return tag, nil
}

// GetByIDs bulk-loads tags keyed by id. Missing ids are simply absent from
// the result map.
func (r *TagRepository) GetByIDs(ctx context.Context, tenantID string, ids []string) (map[string]*masterdata.Tag, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("tag repo: nil db")
	}
	result := make(map[string]*masterdata.Tag, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, tenantID)
	for i, id := range ids {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		args = append(args, id)
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE tenant_id = $1 AND id IN (%s)`, tagColumns, r.table, strings.Join(placeholders, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		result[tag.ID] = tag
	}
	return result, rows.Err()
}

// Save upserts a tag.
func (r *TagRepository) Save(ctx context.Context, tag *masterdata.Tag) error {
	if r == nil || r.db == nil {
		return errors.New("tag repo: nil db")
	}
	if err := tag.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (tenant_id, id) DO UPDATE SET
	user_id = EXCLUDED.user_id,
	issuer = EXCLUDED.issuer,
	active = EXCLUDED.active,
	description = EXCLUDED.description,
	visual_id = EXCLUDED.visual_id,
	last_changed = EXCLUDED.last_changed,
	ocpi_token = EXCLUDED.ocpi_token,
	ocpi_token_uid = EXCLUDED.ocpi_token_uid`, r.table, tagColumns)

	_, err := r.db.ExecContext(ctx, query,
		tag.ID,
		tag.TenantID,
		nullable(tag.UserID),
		tag.Issuer,
		tag.Active,
		tag.Description,
		nullable(tag.VisualID),
		tag.LastChanged,
		tag.OCPIToken,
		nullable(tag.OCPITokenUID),
	)
	return err
}

func scanTag(row rowScanner) (*masterdata.Tag, error) {
	var tag masterdata.Tag
	var userID, visualID, tokenUID sql.NullString
	if err := row.Scan(
		&tag.ID,
		&tag.TenantID,
		&userID,
		&tag.Issuer,
		&tag.Active,
		&tag.Description,
		&visualID,
		&tag.LastChanged,
		&tag.OCPIToken,
		&tokenUID,
	); err != nil {
		return nil, err
	}
	tag.UserID = userID.String
	tag.VisualID = visualID.String
	tag.OCPITokenUID = tokenUID.String
	return &tag, nil
}
