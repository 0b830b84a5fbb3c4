package auth

import (
	"context"
	"errors"

	roaming "chargenet-cloud/internal/roaming/domain"
)

var (
	// ErrTenantMismatch indicates a resource belongs to a different tenant.
	ErrTenantMismatch = errors.New("tenant mismatch")
)

// EndpointTenantChecker validates endpoint tenant ownership.
type EndpointTenantChecker interface {
	EnsureEndpointTenant(ctx context.Context, tenantID, endpointID string) error
}

// EndpointChecker checks endpoint ownership against the roaming store.
type EndpointChecker struct {
	endpoints roaming.EndpointRepository
}

// NewEndpointChecker constructs an EndpointChecker.
func NewEndpointChecker(endpoints roaming.EndpointRepository) *EndpointChecker {
	if endpoints == nil {
		return nil
	}
	return &EndpointChecker{endpoints: endpoints}
}

// EnsureEndpointTenant verifies the endpoint belongs to the tenant. The
// repository query is tenant scoped, so a cross-tenant id resolves to not
// found rather than leaking the other tenant's record.
func (c *EndpointChecker) EnsureEndpointTenant(ctx context.Context, tenantID, endpointID string) error {
	if c == nil || c.endpoints == nil {
		return nil
	}
	if tenantID == "" || endpointID == "" {
		return nil
	}
	endpoint, err := c.endpoints.Get(ctx, tenantID, endpointID)
	if err != nil {
		return err
	}
	if endpoint.TenantID != tenantID {
		return ErrTenantMismatch
	}
	return nil
}
