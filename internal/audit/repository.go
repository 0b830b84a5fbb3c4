package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"time"

	"chargenet-cloud/internal/ocpi/cpo"
)

// Repository persists job runs. It satisfies the scheduler's recorder
// interface, so a write failure is logged rather than propagated into the
// job outcome.
type Repository struct {
	db     *sql.DB
	logger *log.Logger
}

// NewRepository constructs a job run repository.
func NewRepository(db *sql.DB, logger *log.Logger) *Repository {
	if db == nil || logger == nil {
		return nil
	}
	return &Repository{db: db, logger: logger}
}

// RecordJobRun writes one job execution.
func (r *Repository) RecordJobRun(ctx context.Context, tenantID, endpointID, task string, result *cpo.Result, runErr error) {
	if r == nil || r.db == nil {
		return
	}

	run := JobRun{
		ID:         NewID(),
		TenantID:   tenantID,
		EndpointID: endpointID,
		Task:       task,
		RecordedAt: time.Now().UTC(),
	}
	if result != nil {
		run.Success = result.Success()
		run.Failure = result.Failure()
		run.Total = result.Total()
		run.ObjectIDsInFailure = result.ObjectIDsInFailure()
		run.Logs = result.Logs()
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	run.LogsDigest = Digest(run.Logs)

	if err := r.insert(ctx, run); err != nil {
		r.logger.Printf("job run audit write failed: task=%s tenant=%s endpoint=%s err=%v", task, tenantID, endpointID, err)
	}
}

func (r *Repository) insert(ctx context.Context, run JobRun) error {
	failureIDs, err := json.Marshal(run.ObjectIDsInFailure)
	if err != nil {
		return err
	}
	logs, err := json.Marshal(run.Logs)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO job_runs (
	id, tenant_id, endpoint_id, task, success, failure, total,
	object_ids_in_failure, logs, error, logs_digest, recorded_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)`, run.ID, run.TenantID, run.EndpointID, run.Task, run.Success, run.Failure, run.Total,
		failureIDs, logs, run.Error, run.LogsDigest, run.RecordedAt)
	return err
}

// ListRecent returns the newest runs for a tenant, most recent first.
func (r *Repository) ListRecent(ctx context.Context, tenantID string, limit int) ([]JobRun, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("audit repo: nil db")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, tenant_id, endpoint_id, task, success, failure, total,
	object_ids_in_failure, logs, error, logs_digest, recorded_at
FROM job_runs
WHERE tenant_id = $1
ORDER BY recorded_at DESC
LIMIT $2`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []JobRun
	for rows.Next() {
		var run JobRun
		var failureIDs, logs []byte
		if err := rows.Scan(
			&run.ID,
			&run.TenantID,
			&run.EndpointID,
			&run.Task,
			&run.Success,
			&run.Failure,
			&run.Total,
			&failureIDs,
			&logs,
			&run.Error,
			&run.LogsDigest,
			&run.RecordedAt,
		); err != nil {
			return nil, err
		}
		if len(failureIDs) > 0 {
			if err := json.Unmarshal(failureIDs, &run.ObjectIDsInFailure); err != nil {
				return nil, err
			}
		}
		if len(logs) > 0 {
			if err := json.Unmarshal(logs, &run.Logs); err != nil {
				return nil, err
			}
		}
		result = append(result, run)
	}
	return result, rows.Err()
}
