package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	EnqueueCounter   = prometheus.NewCounter(prometheus.CounterOpts{Name: "convert_jobs_enqueued_total", Help: "Total enqueued conversion jobs"})
	JobsCompleted    = prometheus.NewCounter(prometheus.CounterOpts{Name: "convert_jobs_completed_total", Help: "Jobs completed successfully"})
	JobsFailed       = prometheus.NewCounter(prometheus.CounterOpts{Name: "convert_jobs_failed_total", Help: "Jobs that ended in error state"})
	RateLimitRejects = prometheus.NewCounter(prometheus.CounterOpts{Name: "convert_rate_limit_rejects_total", Help: "Uploads rejected by the rate limiter"})
	StageFallbacks   = prometheus.NewCounter(prometheus.CounterOpts{Name: "convert_stage_fallbacks_total", Help: "Non-fatal compositor stage failures that fell back to the prior artifact"})
	QueueDepthGauge  = prometheus.NewGauge(prometheus.GaugeOpts{Name: "convert_queue_depth", Help: "Pending items in the conversion queue"})
	ActiveJobsGauge  = prometheus.NewGauge(prometheus.GaugeOpts{Name: "convert_jobs_active", Help: "Jobs currently holding a processing slot"})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			EnqueueCounter,
			JobsCompleted,
			JobsFailed,
			RateLimitRejects,
			StageFallbacks,
			QueueDepthGauge,
			ActiveJobsGauge,
		)
	})
	return promhttp.Handler()
}
