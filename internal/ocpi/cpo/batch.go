package cpo

import (
	"context"
	"fmt"
	"sync"

	roaming "chargenet-cloud/internal/roaming/domain"
)

// Result accumulates the outcome of one batch use case. Counters are safe
// under concurrent increment; no single item failure aborts the batch.
type Result struct {
	mu                 sync.Mutex
	success            int
	failure            int
	logs               []string
	objectIDsInFailure []string
}

// RecordSuccess counts one processed item.
func (r *Result) RecordSuccess() {
	r.mu.Lock()
	r.success++
	r.mu.Unlock()
}

// RecordFailure counts one failed item under its identity.
func (r *Result) RecordFailure(objectID string, err error) {
	r.mu.Lock()
	r.failure++
	if objectID != "" {
		r.objectIDsInFailure = append(r.objectIDsInFailure, objectID)
	}
	if err != nil {
		r.logs = append(r.logs, fmt.Sprintf("%s: %v", objectID, err))
	}
	r.mu.Unlock()
}

// Logf appends a free-form log line to the batch outcome.
func (r *Result) Logf(format string, args ...any) {
	r.mu.Lock()
	r.logs = append(r.logs, fmt.Sprintf(format, args...))
	r.mu.Unlock()
}

// Success returns the success count.
func (r *Result) Success() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.success
}

// Failure returns the failure count.
func (r *Result) Failure() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}

// Total returns the number of processed items.
func (r *Result) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.success + r.failure
}

// Logs returns a copy of the accumulated log lines.
func (r *Result) Logs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.logs...)
}

// ObjectIDsInFailure returns a copy of the failed item identities.
func (r *Result) ObjectIDsInFailure() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.objectIDsInFailure...)
}

// JobResult snapshots the batch outcome for persistence on the endpoint.
func (r *Result) JobResult() *roaming.JobResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &roaming.JobResult{
		Success:            r.success,
		Failure:            r.failure,
		Total:              r.success + r.failure,
		ObjectIDsInFailure: append([]string(nil), r.objectIDsInFailure...),
	}
}

// forEachBounded fans items out to at most limit workers and waits for all of
// them. Item order is not preserved; fn contains its own error handling.
func forEachBounded[T any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T)) {
	if limit <= 0 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(item T) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, item)
		}(item)
	}
	wg.Wait()
}
