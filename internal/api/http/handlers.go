package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"chargenet-cloud/internal/audit"
	"chargenet-cloud/internal/auth"
	"chargenet-cloud/internal/observability/metrics"
	roaming "chargenet-cloud/internal/roaming/domain"
	"chargenet-cloud/internal/sessions/interfaces"
)

const timeLayout = time.RFC3339

// TaskRunner triggers registered scheduler tasks by name.
type TaskRunner interface {
	Names() []string
	RunNow(ctx context.Context, name string) error
}

// JobRunLister reads the job run audit trail.
type JobRunLister interface {
	ListRecent(ctx context.Context, tenantID string, limit int) ([]audit.JobRun, error)
}

// CdrCollector gathers a tenant's posted CDRs in a window.
type CdrCollector interface {
	Collect(ctx context.Context, tenantID string, from, to time.Time) (interfaces.CdrExport, error)
}

// HealthHandler serves liveness probes.
type HealthHandler struct{}

// ServeHTTP handles GET /healthz.
func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// TasksHandler lists registered tasks and triggers manual runs.
type TasksHandler struct {
	runner TaskRunner
}

// NewTasksHandler constructs a TasksHandler.
func NewTasksHandler(runner TaskRunner) *TasksHandler {
	return &TasksHandler{runner: runner}
}

// ServeHTTP handles GET /ops/v1/tasks and POST /ops/v1/tasks/{name}/run.
func (h *TasksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.runner == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	if r.URL.Path == "/ops/v1/tasks" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"tasks": h.runner.Names()})
		return
	}

	name, ok := taskNameFromPath(r.URL.Path)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := h.runner.RunNow(r.Context(), name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"task": name, "status": "completed"})
}

func taskNameFromPath(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, "/ops/v1/tasks/")
	if !ok {
		return "", false
	}
	name, ok := strings.CutSuffix(rest, "/run")
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

// EndpointsHandler lists the caller tenant's roaming endpoints. Tokens are
// never echoed back.
type EndpointsHandler struct {
	endpoints roaming.EndpointRepository
}

// NewEndpointsHandler constructs an EndpointsHandler.
func NewEndpointsHandler(endpoints roaming.EndpointRepository) *EndpointsHandler {
	return &EndpointsHandler{endpoints: endpoints}
}

type endpointView struct {
	ID                   string             `json:"id"`
	Name                 string             `json:"name"`
	Role                 roaming.Role       `json:"role"`
	CountryCode          string             `json:"countryCode"`
	PartyID              string             `json:"partyId"`
	Status               string             `json:"status"`
	BackgroundJobsActive bool               `json:"backgroundJobsActive"`
	LastPatchJobOn       *time.Time         `json:"lastPatchJobOn,omitempty"`
	LastPatchJobResult   *roaming.JobResult `json:"lastPatchJobResult,omitempty"`
}

// ServeHTTP handles GET /ops/v1/endpoints.
func (h *EndpointsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.endpoints == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}

	endpoints, err := h.endpoints.ListByTenant(r.Context(), tenantID)
	if err != nil {
		http.Error(w, "query endpoints error", http.StatusInternalServerError)
		return
	}

	views := make([]endpointView, 0, len(endpoints))
	for _, endpoint := range endpoints {
		view := endpointView{
			ID:                   endpoint.ID,
			Name:                 endpoint.Name,
			Role:                 endpoint.Role,
			CountryCode:          endpoint.CountryCode,
			PartyID:              endpoint.PartyID,
			Status:               string(endpoint.Status),
			BackgroundJobsActive: endpoint.BackgroundJobsActive,
			LastPatchJobResult:   endpoint.LastPatchJobResult,
		}
		if !endpoint.LastPatchJobOn.IsZero() {
			on := endpoint.LastPatchJobOn
			view.LastPatchJobOn = &on
		}
		views = append(views, view)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"endpoints": views})
}

// JobRunsHandler lists recent job runs of the caller tenant.
type JobRunsHandler struct {
	runs JobRunLister
}

// NewJobRunsHandler constructs a JobRunsHandler.
func NewJobRunsHandler(runs JobRunLister) *JobRunsHandler {
	return &JobRunsHandler{runs: runs}
}

// ServeHTTP handles GET /ops/v1/jobs.
func (h *JobRunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.runs == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}

	runs, err := h.runs.ListRecent(r.Context(), tenantID, 50)
	if err != nil {
		http.Error(w, "query job runs error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"runs": runs})
}

// ExportCdrsHandler serves CDR report downloads.
type ExportCdrsHandler struct {
	collector CdrCollector
}

// NewExportCdrsHandler constructs an ExportCdrsHandler.
func NewExportCdrsHandler(collector CdrCollector) *ExportCdrsHandler {
	return &ExportCdrsHandler{collector: collector}
}

// ServeHTTP handles GET /ops/v1/exports/cdrs.xlsx and /ops/v1/exports/cdrs.pdf.
func (h *ExportCdrsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.collector == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}
	tenantID := auth.TenantIDFromContext(r.Context())
	if tenantID == "" {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}

	format, ok := exportFormat(r.URL.Path)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	from, err := parseTimeQuery(r, "from")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	to, err := parseTimeQuery(r, "to")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !to.After(from) {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return
	}

	export, err := h.collector.Collect(r.Context(), tenantID, from, to)
	if err != nil {
		http.Error(w, "collect cdrs error", http.StatusInternalServerError)
		return
	}

	var payload []byte
	var contentType, filename string
	switch format {
	case "xlsx":
		payload, err = interfaces.BuildCdrXLSX(export)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "cdrs.xlsx"
	case "pdf":
		payload, err = interfaces.BuildCdrPDF(export)
		contentType = "application/pdf"
		filename = "cdrs.pdf"
	}
	metrics.ObserveExport(format, err)
	if err != nil {
		http.Error(w, "render export error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(payload)
}

func exportFormat(path string) (string, bool) {
	switch path {
	case "/ops/v1/exports/cdrs.xlsx":
		return "xlsx", true
	case "/ops/v1/exports/cdrs.pdf":
		return "pdf", true
	}
	return "", false
}

func parseTimeQuery(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, errors.New(key + " is required")
	}
	value, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}, errors.New(key + " must be RFC3339")
	}
	return value, nil
}
