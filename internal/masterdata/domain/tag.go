package masterdata

import (
	"context"
	"errors"
	"time"
)

// Tag is an authorization credential presented at a station. Roaming tokens
// pulled from an EMSP map 1:1 onto tags.
type Tag struct {
	ID           string
	TenantID     string
	UserID       string
	Issuer       bool
	Active       bool
	Description  string
	VisualID     string
	LastChanged  time.Time
	OCPIToken    []byte
	OCPITokenUID string
}

// Validate checks tag invariants.
func (t Tag) Validate() error {
	if t.ID == "" {
		return errors.New("tag: empty id")
	}
	if t.TenantID == "" {
		return errors.New("tag: empty tenant id")
	}
	return nil
}

// TagRepository manages tag persistence.
type TagRepository interface {
	Get(ctx context.Context, tenantID, id string) (*Tag, error)
	GetByIDs(ctx context.Context, tenantID string, ids []string) (map[string]*Tag, error)
	Save(ctx context.Context, tag *Tag) error
}
