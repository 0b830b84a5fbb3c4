package apihttp

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chargenet-cloud/internal/auth"
	roaming "chargenet-cloud/internal/roaming/domain"
)

// RouterDeps carries the handler dependencies. Nil optionals disable their
// routes.
type RouterDeps struct {
	Runner    TaskRunner
	Endpoints roaming.EndpointRepository
	JobRuns   JobRunLister
	Collector CdrCollector
	JWTSecret []byte
}

// NewRouter assembles the ops API behind the auth middleware. The health
// and metrics routes stay open.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/healthz", HealthHandler{})
	mux.Handle("/metrics", promhttp.Handler())

	if deps.Runner != nil {
		tasks := NewTasksHandler(deps.Runner)
		mux.Handle("/ops/v1/tasks", tasks)
		mux.Handle("/ops/v1/tasks/", tasks)
	}
	if deps.Endpoints != nil {
		mux.Handle("/ops/v1/endpoints", NewEndpointsHandler(deps.Endpoints))
	}
	if deps.JobRuns != nil {
		mux.Handle("/ops/v1/jobs", NewJobRunsHandler(deps.JobRuns))
	}
	if deps.Collector != nil {
		exports := NewExportCdrsHandler(deps.Collector)
		mux.Handle("/ops/v1/exports/cdrs.xlsx", exports)
		mux.Handle("/ops/v1/exports/cdrs.pdf", exports)
	}

	middleware := auth.NewMiddleware(deps.JWTSecret, auth.NewDefaultPolicy(nil, nil))
	return middleware.Wrap(mux)
}
