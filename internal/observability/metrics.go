package observability

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	validationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_sql_validations_total",
			Help: "Total number of SQL firewall validations by outcome.",
		},
		[]string{"outcome"},
	)
	validationBlockedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_sql_validation_blocked_total",
			Help: "Total number of blocked SQL validations by reason class.",
		},
		[]string{"reason"},
	)
	pipelineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_pipeline_requests_total",
			Help: "Total number of pipeline runs by terminal status.",
		},
		[]string{"status"},
	)
	pipelineStageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_pipeline_stage_duration_seconds",
			Help:    "Pipeline stage latency by stage.",
			Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)
	schemaCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_schema_cache_hits_total",
			Help: "Total number of schema snapshot reads served from cache.",
		},
	)
	schemaCacheRebuildsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_schema_cache_rebuilds_total",
			Help: "Total number of schema snapshot rebuilds.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		validationsTotal,
		validationBlockedTotal,
		pipelineRequestsTotal,
		pipelineStageDurationSeconds,
		schemaCacheHitsTotal,
		schemaCacheRebuildsTotal,
	)
}

// ObserveValidation records one firewall verdict. The reason label keeps only
// the class before the colon so verdicts like BLOCKED_KEYWORD:DROP do not
// explode label cardinality.
func ObserveValidation(accepted bool, blockedReason string) {
	if accepted {
		validationsTotal.WithLabelValues("accepted").Inc()
		return
	}
	validationsTotal.WithLabelValues("blocked").Inc()
	reason, _, _ := strings.Cut(blockedReason, ":")
	if reason == "" {
		reason = "unknown"
	}
	validationBlockedTotal.WithLabelValues(reason).Inc()
}

func ObserveStage(stage string, elapsed time.Duration) {
	pipelineStageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func ObservePipelineResult(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	pipelineRequestsTotal.WithLabelValues(status).Inc()
}

func ObserveSchemaCacheHit() {
	schemaCacheHitsTotal.Inc()
}

func ObserveSchemaCacheRebuild() {
	schemaCacheRebuildsTotal.Inc()
}
