package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "roaming_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	jobRuns     *prometheus.CounterVec
	jobLatency  *prometheus.HistogramVec
	jobItems    *prometheus.CounterVec
	lockSkips   *prometheus.CounterVec
	exportTotal *prometheus.CounterVec

	notifyQueueDepth prometheus.Gauge
	notifyDropped    prometheus.Counter
)

// Init registers roaming metrics. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		jobRuns = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "job_runs_total",
				Help: "Total roaming job runs by task and result",
			},
			[]string{"task", "result"},
		)
		jobLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "job_latency_seconds",
				Help:    "Roaming job latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"task"},
		)
		jobItems = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "job_items_total",
				Help: "Total batch items processed by task and result",
			},
			[]string{"task", "result"},
		)
		lockSkips = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "lock_skips_total",
				Help: "Ticks skipped because another runner held the endpoint lock",
			},
			[]string{"task"},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "cdr_export_total",
				Help: "Total CDR export operations by format and result",
			},
			[]string{"format", "result"},
		)

		notifyQueueDepth = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "notify_queue_depth",
				Help: "Pending admin notifications in the outbound queue",
			},
		)
		notifyDropped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "notify_dropped_total",
				Help: "Admin notifications dropped because the queue was full",
			},
		)

		prometheus.MustRegister(
			jobRuns,
			jobLatency,
			jobItems,
			lockSkips,
			exportTotal,
			notifyQueueDepth,
			notifyDropped,
		)
	})
}

// ObserveJobRun records one job execution with its batch tallies.
func ObserveJobRun(task string, success, failure int, duration time.Duration, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if jobRuns != nil {
		jobRuns.WithLabelValues(task, result).Inc()
	}
	if jobLatency != nil {
		jobLatency.WithLabelValues(task).Observe(duration.Seconds())
	}
	if jobItems != nil {
		if success > 0 {
			jobItems.WithLabelValues(task, resultSuccess).Add(float64(success))
		}
		if failure > 0 {
			jobItems.WithLabelValues(task, resultError).Add(float64(failure))
		}
	}
}

// ObserveLockSkip counts a tick skipped on an unavailable lock.
func ObserveLockSkip(task string) {
	if task == "" {
		task = "unknown"
	}
	if lockSkips != nil {
		lockSkips.WithLabelValues(task).Inc()
	}
}

// ObserveExport records a CDR export by format and result.
func ObserveExport(format string, err error) {
	if format == "" {
		format = "unknown"
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
}

// SetNotifyQueueDepth publishes the notification queue depth.
func SetNotifyQueueDepth(depth int) {
	if notifyQueueDepth != nil {
		notifyQueueDepth.Set(float64(depth))
	}
}

// IncNotifyDropped counts a notification rejected by a full queue.
func IncNotifyDropped() {
	if notifyDropped != nil {
		notifyDropped.Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
