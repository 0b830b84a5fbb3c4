package masterdata

import (
	"context"
	"errors"
	"time"
)

// Address locates a site.
type Address struct {
	Street     string
	City       string
	PostalCode string
	Country    string
	Latitude   float64
	Longitude  float64
}

// Site is a group of site areas and stations belonging to one company.
type Site struct {
	ID          string
	TenantID    string
	Name        string
	Address     Address
	Public      bool
	TariffID    string
	LastChanged time.Time
}

// Validate checks site invariants.
func (s Site) Validate() error {
	if s.ID == "" {
		return errors.New("site: empty id")
	}
	if s.TenantID == "" {
		return errors.New("site: empty tenant id")
	}
	if s.Name == "" {
		return errors.New("site: empty name")
	}
	return nil
}

// SiteArea groups stations inside a site.
type SiteArea struct {
	ID       string
	TenantID string
	SiteID   string
	Name     string
	TariffID string
}

// SiteRepository manages site persistence.
type SiteRepository interface {
	Get(ctx context.Context, tenantID, id string) (*Site, error)
	ListPublic(ctx context.Context, tenantID string) ([]Site, error)
}

// SiteAreaRepository manages site area persistence.
type SiteAreaRepository interface {
	Get(ctx context.Context, tenantID, id string) (*SiteArea, error)
}
