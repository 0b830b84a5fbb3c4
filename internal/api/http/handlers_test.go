package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chargenet-cloud/internal/audit"
	"chargenet-cloud/internal/auth"
	ocpi "chargenet-cloud/internal/ocpi/domain"
	roaming "chargenet-cloud/internal/roaming/domain"
	"chargenet-cloud/internal/sessions/interfaces"
)

type stubRunner struct {
	names []string
	ran   []string
}

func (s *stubRunner) Names() []string { return s.names }

func (s *stubRunner) RunNow(ctx context.Context, name string) error {
	for _, known := range s.names {
		if known == name {
			s.ran = append(s.ran, name)
			return nil
		}
	}
	return errors.New("scheduler: unknown task: " + name)
}

type stubEndpointRepo struct {
	endpoints []roaming.Endpoint
}

func (s stubEndpointRepo) Get(ctx context.Context, tenantID, id string) (*roaming.Endpoint, error) {
	return nil, roaming.ErrEndpointNotFound
}

func (s stubEndpointRepo) ListByTenant(ctx context.Context, tenantID string) ([]roaming.Endpoint, error) {
	return s.endpoints, nil
}

func (s stubEndpointRepo) Save(ctx context.Context, endpoint *roaming.Endpoint) error {
	return nil
}

type stubRunLister struct{}

func (stubRunLister) ListRecent(ctx context.Context, tenantID string, limit int) ([]audit.JobRun, error) {
	return []audit.JobRun{{ID: "jobrun-1", TenantID: tenantID, Task: "pull-tokens"}}, nil
}

type stubCollector struct{}

func (stubCollector) Collect(ctx context.Context, tenantID string, from, to time.Time) (interfaces.CdrExport, error) {
	return interfaces.CdrExport{
		TenantID: tenantID,
		From:     from,
		To:       to,
		Cdrs:     []ocpi.Cdr{{ID: "42", TotalEnergy: 9.5, TotalCost: 4.75, Currency: "EUR"}},
	}, nil
}

func withTenant(r *http.Request, tenantID string) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), tenantID, auth.RoleOperator, "ops@example.com"))
}

func TestTasksHandler_List(t *testing.T) {
	handler := NewTasksHandler(&stubRunner{names: []string{"check-cdrs", "pull-tokens"}})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/v1/tasks", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var body struct {
		Tasks []string `json:"tasks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Tasks) != 2 {
		t.Fatalf("unexpected tasks: %v", body.Tasks)
	}
}

func TestTasksHandler_RunNow(t *testing.T) {
	runner := &stubRunner{names: []string{"pull-tokens"}}
	handler := NewTasksHandler(runner)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ops/v1/tasks/pull-tokens/run", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if len(runner.ran) != 1 || runner.ran[0] != "pull-tokens" {
		t.Fatalf("unexpected runs: %v", runner.ran)
	}
}

func TestTasksHandler_UnknownTask(t *testing.T) {
	handler := NewTasksHandler(&stubRunner{names: []string{"pull-tokens"}})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ops/v1/tasks/no-such/run", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestTasksHandler_PathShape(t *testing.T) {
	handler := NewTasksHandler(&stubRunner{names: []string{"pull-tokens"}})
	for _, path := range []string{
		"/ops/v1/tasks/pull-tokens",
		"/ops/v1/tasks//run",
		"/ops/v1/tasks/a/b/run",
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for %s, got %d", path, rec.Code)
		}
	}
}

func TestEndpointsHandler_NeverEchoesTokens(t *testing.T) {
	handler := NewEndpointsHandler(stubEndpointRepo{endpoints: []roaming.Endpoint{{
		ID:          "ep-1",
		TenantID:    "tenant-a",
		Name:        "EMP One",
		Role:        roaming.RoleEMSP,
		Token:       "secret-remote-token",
		LocalToken:  "secret-local-token",
		CountryCode: "DE",
		PartyID:     "EMP",
		Status:      roaming.RegistrationStatusRegistered,
	}}})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withTenant(httptest.NewRequest(http.MethodGet, "/ops/v1/endpoints", nil), "tenant-a"))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "secret-remote-token") || strings.Contains(body, "secret-local-token") {
		t.Fatalf("token leaked into response: %s", body)
	}
	if !strings.Contains(body, "ep-1") {
		t.Fatalf("endpoint missing from response: %s", body)
	}
}

func TestEndpointsHandler_MissingTenant(t *testing.T) {
	handler := NewEndpointsHandler(stubEndpointRepo{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ops/v1/endpoints", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", rec.Code)
	}
}

func TestJobRunsHandler_List(t *testing.T) {
	handler := NewJobRunsHandler(stubRunLister{})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, withTenant(httptest.NewRequest(http.MethodGet, "/ops/v1/jobs", nil), "tenant-a"))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "jobrun-1") {
		t.Fatalf("run missing from response: %s", rec.Body.String())
	}
}

func TestExportCdrsHandler_XLSX(t *testing.T) {
	handler := NewExportCdrsHandler(stubCollector{})
	rec := httptest.NewRecorder()
	target := "/ops/v1/exports/cdrs.xlsx?from=2024-05-01T00:00:00Z&to=2024-05-02T00:00:00Z"
	handler.ServeHTTP(rec, withTenant(httptest.NewRequest(http.MethodGet, target, nil), "tenant-a"))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Fatalf("unexpected content type %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "cdrs.xlsx") {
		t.Fatalf("unexpected disposition %s", cd)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty export body")
	}
}

func TestExportCdrsHandler_WindowValidation(t *testing.T) {
	handler := NewExportCdrsHandler(stubCollector{})
	for _, target := range []string{
		"/ops/v1/exports/cdrs.pdf",
		"/ops/v1/exports/cdrs.pdf?from=2024-05-01T00:00:00Z",
		"/ops/v1/exports/cdrs.pdf?from=not-a-time&to=2024-05-02T00:00:00Z",
		"/ops/v1/exports/cdrs.pdf?from=2024-05-02T00:00:00Z&to=2024-05-01T00:00:00Z",
	} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, withTenant(httptest.NewRequest(http.MethodGet, target, nil), "tenant-a"))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", target, rec.Code)
		}
	}
}
