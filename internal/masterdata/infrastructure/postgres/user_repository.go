package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	masterdata "chargenet-cloud/internal/masterdata/domain"
)

const defaultUsersTable = "users"

// UserRepository is a Postgres implementation for users.
type UserRepository struct {
	db    DBTX
	table string
}

// NewUserRepository constructs a repository.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db, table: defaultUsersTable}
}

const userColumns = `id, tenant_id, name, email, issuer, status, created_at, last_changed`

// GetByEmail loads a user by email within a tenant.
func (r *UserRepository) GetByEmail(ctx context.Context, tenantID, email string) (*masterdata.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}
	if email == "" {
		return nil, errors.New("user repo: empty email")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE tenant_id = $1 AND email = $2
LIMIT 1`, userColumns, r.table)

	var user masterdata.User
	err := r.db.QueryRowContext(ctx, query, tenantID, email).Scan(
		&user.ID,
		&user.TenantID,
		&user.Name,
		&user.Email,
		&user.Issuer,
		&user.Status,
		&user.CreatedAt,
		&user.LastChanged,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, masterdata.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Save upserts a user. An empty ID gets a generated one.
func (r *UserRepository) Save(ctx context.Context, user *masterdata.User) error {
	if r == nil || r.db == nil {
		return errors.New("user repo: nil db")
	}
	if err := user.Validate(); err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (tenant_id, id) DO UPDATE SET
	name = EXCLUDED.name,
	email = EXCLUDED.email,
	issuer = EXCLUDED.issuer,
	status = EXCLUDED.status,
	last_changed = EXCLUDED.last_changed`, r.table, userColumns)

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.TenantID,
		user.Name,
		user.Email,
		user.Issuer,
		user.Status,
		user.CreatedAt,
		user.LastChanged,
	)
	return err
}
