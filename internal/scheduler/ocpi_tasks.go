package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"chargenet-cloud/internal/locking"
	"chargenet-cloud/internal/observability/metrics"
	"chargenet-cloud/internal/ocpi/cpo"
	roaming "chargenet-cloud/internal/roaming/domain"
)

// endpointLockKind scopes the lock to the endpoint so at most one roaming
// job mutates an endpoint at a time, across all scheduler replicas.
const endpointLockKind = "ocpi-endpoint"

// UseCase is one CPO batch operation driven per endpoint.
type UseCase func(ctx context.Context, client *cpo.Client) (*cpo.Result, error)

// JobRecorder persists one job execution for audit.
type JobRecorder interface {
	RecordJobRun(ctx context.Context, tenantID, endpointID, task string, result *cpo.Result, runErr error)
}

// OCPITask fans one use case out over every active tenant and registered
// endpoint, guarding each run with a non-blocking lock. An unavailable lock
// means another replica owns this tick: silent skip, no wait, no queue.
type OCPITask struct {
	name      string
	tenants   roaming.TenantRepository
	endpoints roaming.EndpointRepository
	locks     locking.Manager
	clients   *cpo.Registry
	useCase   UseCase
	recorder  JobRecorder
	logger    *log.Logger
}

// NewOCPITask constructs a lock-guarded roaming task.
func NewOCPITask(
	name string,
	tenants roaming.TenantRepository,
	endpoints roaming.EndpointRepository,
	locks locking.Manager,
	clients *cpo.Registry,
	useCase UseCase,
	recorder JobRecorder,
	logger *log.Logger,
) (*OCPITask, error) {
	if name == "" {
		return nil, errors.New("scheduler: empty task name")
	}
	if tenants == nil || endpoints == nil {
		return nil, errors.New("scheduler: nil tenant or endpoint repository")
	}
	if locks == nil {
		return nil, errors.New("scheduler: nil lock manager")
	}
	if clients == nil {
		return nil, errors.New("scheduler: nil client registry")
	}
	if useCase == nil {
		return nil, errors.New("scheduler: nil use case")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &OCPITask{
		name:      name,
		tenants:   tenants,
		endpoints: endpoints,
		locks:     locks,
		clients:   clients,
		useCase:   useCase,
		recorder:  recorder,
		logger:    logger,
	}, nil
}

// Run visits every tenant with roaming active. A failing tenant never blocks
// the others in the same tick.
func (t *OCPITask) Run(ctx context.Context) error {
	tenants, err := t.tenants.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list tenants: %w", err)
	}
	for _, tenant := range tenants {
		if !tenant.RoamingActive {
			continue
		}
		if err := t.runTenant(ctx, tenant); err != nil {
			t.logger.Printf("ocpi task tenant failed: task=%s tenant=%s err=%v", t.name, tenant.ID, err)
		}
	}
	return nil
}

func (t *OCPITask) runTenant(ctx context.Context, tenant roaming.Tenant) error {
	endpoints, err := t.endpoints.ListByTenant(ctx, tenant.ID)
	if err != nil {
		return fmt.Errorf("list endpoints: %w", err)
	}
	for i := range endpoints {
		endpoint := endpoints[i]
		if !endpoint.ShouldRunBackgroundJobs() {
			continue
		}
		t.runEndpoint(ctx, tenant, &endpoint)
	}
	return nil
}

// runEndpoint holds the lock-guarded critical section. The lock is released
// on every exit path, including panics converted into logged outcomes.
func (t *OCPITask) runEndpoint(ctx context.Context, tenant roaming.Tenant, endpoint *roaming.Endpoint) {
	key := locking.Key(tenant.ID, endpointLockKind, endpoint.ID)
	lock, err := t.locks.TryAcquire(ctx, key)
	if err != nil {
		t.logger.Printf("ocpi task lock error: task=%s tenant=%s endpoint=%s err=%v", t.name, tenant.ID, endpoint.ID, err)
		return
	}
	if lock == nil {
		// Another runner owns this tick.
		metrics.ObserveLockSkip(t.name)
		return
	}
	defer func() {
		if releaseErr := t.locks.Release(ctx, lock); releaseErr != nil {
			t.logger.Printf("ocpi task lock release failed: task=%s key=%s err=%v", t.name, key, releaseErr)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			t.logger.Printf("ocpi task panicked: task=%s tenant=%s endpoint=%s panic=%v", t.name, tenant.ID, endpoint.ID, r)
		}
	}()

	client, err := t.clients.ClientFor(tenant, endpoint)
	if err != nil {
		t.logger.Printf("ocpi task client error: task=%s tenant=%s endpoint=%s err=%v", t.name, tenant.ID, endpoint.ID, err)
		return
	}
	started := time.Now()
	result, runErr := t.useCase(ctx, client)
	var success, failure int
	if result != nil {
		success, failure = result.Success(), result.Failure()
	}
	metrics.ObserveJobRun(t.name, success, failure, time.Since(started), runErr)
	if t.recorder != nil {
		t.recorder.RecordJobRun(ctx, tenant.ID, endpoint.ID, t.name, result, runErr)
	}
	if runErr != nil {
		t.logger.Printf("ocpi task run failed: task=%s tenant=%s endpoint=%s err=%v", t.name, tenant.ID, endpoint.ID, runErr)
		return
	}
	if result != nil {
		t.logger.Printf("ocpi task run completed: task=%s tenant=%s endpoint=%s success=%d failure=%d",
			t.name, tenant.ID, endpoint.ID, result.Success(), result.Failure())
	}
}
