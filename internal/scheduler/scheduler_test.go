package scheduler

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"sync/atomic"
	"testing"

	"chargenet-cloud/internal/locking"
	"chargenet-cloud/internal/ocpi/cpo"
	roaming "chargenet-cloud/internal/roaming/domain"
)

func TestScheduler_Names(t *testing.T) {
	sched := New(log.New(io.Discard, "", 0))
	for _, name := range []string{"check-cdrs", "pull-tokens", "check-sessions"} {
		if err := sched.Register(name, TaskFunc(func(ctx context.Context) error { return nil })); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	names := sched.Names()
	want := []string{"check-cdrs", "check-sessions", "pull-tokens"}
	if len(names) != len(want) {
		t.Fatalf("unexpected names: %v", names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("expected %s at %d, got %v", name, i, names)
		}
	}
}

func TestScheduler_RunNowUnknown(t *testing.T) {
	sched := New(log.New(io.Discard, "", 0))
	if err := sched.RunNow(context.Background(), "no-such-task"); err == nil {
		t.Fatal("expected error for unknown task")
	}
}

func TestScheduler_ScheduleUnknownNameLoggedNotFatal(t *testing.T) {
	var buf bytes.Buffer
	sched := New(log.New(&buf, "", 0))
	sched.Schedule([]ScheduledTask{
		{Name: "no-such-task", Cron: "* * * * *", Active: true},
		{Name: "inactive-task", Cron: "* * * * *", Active: false},
	})
	logged := buf.String()
	if !strings.Contains(logged, "unknown task name") {
		t.Fatalf("expected unknown-name log, got %q", logged)
	}
	if !strings.Contains(logged, "task inactive") {
		t.Fatalf("expected inactive log, got %q", logged)
	}
}

func TestScheduler_RegisterValidation(t *testing.T) {
	sched := New(log.New(io.Discard, "", 0))
	if err := sched.Register("", TaskFunc(func(ctx context.Context) error { return nil })); err == nil {
		t.Fatal("expected error for empty name")
	}
	if err := sched.Register("task", nil); err == nil {
		t.Fatal("expected error for nil task")
	}
}

type stubTenants struct {
	tenants []roaming.Tenant
}

func (s stubTenants) ListActive(ctx context.Context) ([]roaming.Tenant, error) {
	return s.tenants, nil
}

func (s stubTenants) Get(ctx context.Context, id string) (*roaming.Tenant, error) {
	for i := range s.tenants {
		if s.tenants[i].ID == id {
			return &s.tenants[i], nil
		}
	}
	return nil, roaming.ErrTenantNotFound
}

type stubEndpoints struct {
	endpoints []roaming.Endpoint
}

func (s stubEndpoints) Get(ctx context.Context, tenantID, id string) (*roaming.Endpoint, error) {
	return nil, roaming.ErrEndpointNotFound
}

func (s stubEndpoints) ListByTenant(ctx context.Context, tenantID string) ([]roaming.Endpoint, error) {
	return s.endpoints, nil
}

func (s stubEndpoints) Save(ctx context.Context, endpoint *roaming.Endpoint) error {
	return nil
}

type recordedRun struct {
	TenantID   string
	EndpointID string
	Task       string
}

type stubRecorder struct {
	runs []recordedRun
}

func (s *stubRecorder) RecordJobRun(ctx context.Context, tenantID, endpointID, task string, result *cpo.Result, runErr error) {
	s.runs = append(s.runs, recordedRun{TenantID: tenantID, EndpointID: endpointID, Task: task})
}

func testEndpoint(id string, status roaming.RegistrationStatus, jobsActive bool) roaming.Endpoint {
	return roaming.Endpoint{
		ID:                   id,
		TenantID:             "tenant-a",
		Name:                 "EMP One",
		Role:                 roaming.RoleEMSP,
		BaseURL:              "https://emsp.example/ocpi/emsp/2.1.1",
		Token:                "tok",
		Status:               status,
		BackgroundJobsActive: jobsActive,
	}
}

func newTestTask(t *testing.T, endpoints []roaming.Endpoint, locks locking.Manager, useCase UseCase, recorder JobRecorder) *OCPITask {
	t.Helper()
	registry, err := cpo.NewRegistry(func(tenant roaming.Tenant, endpoint *roaming.Endpoint) (*cpo.Client, error) {
		return nil, nil
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	task, err := NewOCPITask(
		"pull-tokens",
		stubTenants{tenants: []roaming.Tenant{{ID: "tenant-a", RoamingActive: true}, {ID: "tenant-b", RoamingActive: false}}},
		stubEndpoints{endpoints: endpoints},
		locks,
		registry,
		useCase,
		recorder,
		log.New(io.Discard, "", 0),
	)
	if err != nil {
		t.Fatalf("task: %v", err)
	}
	return task
}

func TestOCPITask_RunsPerRegisteredEndpoint(t *testing.T) {
	var invocations atomic.Int32
	useCase := func(ctx context.Context, client *cpo.Client) (*cpo.Result, error) {
		invocations.Add(1)
		return &cpo.Result{}, nil
	}
	recorder := &stubRecorder{}
	endpoints := []roaming.Endpoint{
		testEndpoint("ep-1", roaming.RegistrationStatusRegistered, true),
		testEndpoint("ep-2", roaming.RegistrationStatusNew, true),
		testEndpoint("ep-3", roaming.RegistrationStatusRegistered, false),
	}
	task := newTestTask(t, endpoints, locking.NewMemoryManager(), useCase, recorder)

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	// Only the registered endpoint with active jobs is visited, once per
	// active tenant.
	if got := invocations.Load(); got != 1 {
		t.Fatalf("expected one invocation, got %d", got)
	}
	if len(recorder.runs) != 1 {
		t.Fatalf("expected one audit record, got %d", len(recorder.runs))
	}
	run := recorder.runs[0]
	if run.TenantID != "tenant-a" || run.EndpointID != "ep-1" || run.Task != "pull-tokens" {
		t.Fatalf("unexpected audit record: %+v", run)
	}
}

func TestOCPITask_HeldLockSkipsTick(t *testing.T) {
	locks := locking.NewMemoryManager()
	key := locking.Key("tenant-a", "ocpi-endpoint", "ep-1")
	if _, err := locks.TryAcquire(context.Background(), key); err != nil {
		t.Fatalf("pre-acquire: %v", err)
	}

	var invocations atomic.Int32
	useCase := func(ctx context.Context, client *cpo.Client) (*cpo.Result, error) {
		invocations.Add(1)
		return &cpo.Result{}, nil
	}
	recorder := &stubRecorder{}
	task := newTestTask(t, []roaming.Endpoint{testEndpoint("ep-1", roaming.RegistrationStatusRegistered, true)}, locks, useCase, recorder)

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := invocations.Load(); got != 0 {
		t.Fatalf("expected skipped tick, got %d invocations", got)
	}
	if len(recorder.runs) != 0 {
		t.Fatalf("expected no audit record, got %d", len(recorder.runs))
	}
}

func TestOCPITask_ReleasesLockAfterRun(t *testing.T) {
	locks := locking.NewMemoryManager()
	useCase := func(ctx context.Context, client *cpo.Client) (*cpo.Result, error) {
		return &cpo.Result{}, nil
	}
	task := newTestTask(t, []roaming.Endpoint{testEndpoint("ep-1", roaming.RegistrationStatusRegistered, true)}, locks, useCase, nil)

	if err := task.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	key := locking.Key("tenant-a", "ocpi-endpoint", "ep-1")
	lock, err := locks.TryAcquire(context.Background(), key)
	if err != nil {
		t.Fatalf("acquire after run: %v", err)
	}
	if lock == nil {
		t.Fatal("expected lock released after run")
	}
}
