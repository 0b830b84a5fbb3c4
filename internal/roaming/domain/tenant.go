package roaming

import (
	"context"
	"errors"
)

// Tenant is an isolated customer organization. Only tenants with the roaming
// component active are visited by scheduled jobs.
type Tenant struct {
	ID              string
	Name            string
	Subdomain       string
	RoamingActive   bool
	DefaultTariffID string
	Currency        string
}

// ErrTenantNotFound indicates a missing tenant record.
var ErrTenantNotFound = errors.New("tenant: not found")

// TenantRepository lists tenants for the scheduler.
type TenantRepository interface {
	ListActive(ctx context.Context) ([]Tenant, error)
	Get(ctx context.Context, id string) (*Tenant, error)
}
