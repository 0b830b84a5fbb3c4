package roaming

import (
	"context"
	"errors"
	"time"
)

// Role is the side of the roaming relation the remote party plays.
type Role string

const (
	RoleCPO  Role = "CPO"
	RoleEMSP Role = "EMSP"
)

// RegistrationStatus is the handshake state of an endpoint.
type RegistrationStatus string

const (
	RegistrationStatusNew          RegistrationStatus = "NEW"
	RegistrationStatusRegistered   RegistrationStatus = "REGISTERED"
	RegistrationStatusUnregistered RegistrationStatus = "UNREGISTERED"
)

// JobResult is the persisted outcome of the last background job on an
// endpoint. It is written once, at batch completion, so a mid-batch crash
// leaves the previous run's state intact.
type JobResult struct {
	Success            int      `json:"success"`
	Failure            int      `json:"failure"`
	Total              int      `json:"total"`
	ObjectIDsInFailure []string `json:"objectIDsInFailure,omitempty"`
}

// Endpoint is a registered remote OCPI platform for one tenant.
type Endpoint struct {
	ID                   string
	TenantID             string
	Name                 string
	Role                 Role
	BaseURL              string
	VersionURL           string
	LocalToken           string
	Token                string
	CountryCode          string
	PartyID              string
	Status               RegistrationStatus
	BackgroundJobsActive bool
	LastPatchJobOn       time.Time
	LastPatchJobResult   *JobResult
	LastChanged          time.Time
}

// Validate checks endpoint invariants.
func (e Endpoint) Validate() error {
	if e.ID == "" {
		return errors.New("endpoint: empty id")
	}
	if e.TenantID == "" {
		return errors.New("endpoint: empty tenant id")
	}
	if e.Role != RoleCPO && e.Role != RoleEMSP {
		return errors.New("endpoint: invalid role")
	}
	return nil
}

// ShouldRunBackgroundJobs reports whether scheduled jobs may touch this
// endpoint this tick.
func (e Endpoint) ShouldRunBackgroundJobs() bool {
	return e.Status == RegistrationStatusRegistered && e.BackgroundJobsActive
}

// ErrEndpointNotFound indicates a missing endpoint record.
var ErrEndpointNotFound = errors.New("endpoint: not found")

// EndpointRepository manages endpoint persistence.
type EndpointRepository interface {
	Get(ctx context.Context, tenantID, id string) (*Endpoint, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Endpoint, error)
	Save(ctx context.Context, endpoint *Endpoint) error
}
