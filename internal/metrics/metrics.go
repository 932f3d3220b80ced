package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Deliberation metrics
	StagesExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debatefloor_stages_executed_total",
			Help: "Total number of deliberation stages executed",
		},
		[]string{"stage", "status"}, // success, error
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "debatefloor_stage_duration_seconds",
			Help:    "Duration of individual deliberation stages",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	DeliberationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debatefloor_deliberations_completed_total",
			Help: "Total number of deliberation runs completed",
		},
		[]string{"status"}, // success, error
	)

	DeliberationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "debatefloor_deliberation_duration_seconds",
			Help:    "End-to-end duration of deliberation runs",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	// Outbound API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debatefloor_api_requests_total",
			Help: "Total number of outbound API requests",
		},
		[]string{"api", "endpoint", "status"}, // gamma/data/clob/newsapi, /markets, success/error
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "debatefloor_api_request_duration_seconds",
			Help:    "Duration of outbound API requests",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"api", "endpoint"},
	)

	// Database metrics
	DatabaseQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debatefloor_database_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"}, // get/insert/update, success/error
	)

	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "debatefloor_database_query_duration_seconds",
			Help:    "Duration of database queries",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Cache metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debatefloor_cache_lookups_total",
			Help: "Total number of cache lookups",
		},
		[]string{"cache", "result"}, // hit/miss
	)

	// Refresh loop metrics
	RefreshCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debatefloor_refresh_cycles_total",
			Help: "Total number of market refresh cycles",
		},
		[]string{"status"},
	)

	RefreshCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "debatefloor_refresh_cycle_duration_seconds",
			Help:    "Duration of market refresh cycles",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	NewsArticlesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "debatefloor_news_articles_stored_total",
			Help: "Total number of news articles stored",
		},
	)

	// Whale notice metrics
	WhaleNoticesTriggered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debatefloor_whale_notices_triggered_total",
			Help: "Total number of whale trade notices triggered",
		},
		[]string{"severity"}, // notable, large, massive
	)

	WhaleNoticesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debatefloor_whale_notices_sent_total",
			Help: "Total number of whale trade notices sent",
		},
		[]string{"status", "type"}, // success/error, discord/smtp/log
	)

	// Trader enrichment metrics
	EnrichmentLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debatefloor_enrichment_lookups_total",
			Help: "Total number of trader stats enrichment lookups",
		},
		[]string{"status"},
	)

	// System health
	HealthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "debatefloor_health_checks_total",
			Help: "Total number of health check requests",
		},
		[]string{"status"}, // healthy/unhealthy
	)
)

// RecordStage records the outcome and duration of one deliberation stage
func RecordStage(stage string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StagesExecuted.WithLabelValues(stage, status).Inc()
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordDeliberation records a completed deliberation run
func RecordDeliberation(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DeliberationsCompleted.WithLabelValues(status).Inc()
	DeliberationDuration.Observe(duration.Seconds())
}

// RecordAPIRequest records outbound API request metrics
func RecordAPIRequest(api, endpoint string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	APIRequests.WithLabelValues(api, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(api, endpoint).Observe(duration.Seconds())
}

// RecordDatabaseQuery records database query metrics
func RecordDatabaseQuery(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseQueries.WithLabelValues(operation, status).Inc()
	DatabaseQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit or miss
func RecordCacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(cache, result).Inc()
}

// RecordRefreshCycle records a market refresh cycle
func RecordRefreshCycle(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RefreshCycles.WithLabelValues(status).Inc()
	RefreshCycleDuration.Observe(duration.Seconds())
}

// RecordWhaleNotice records whale notice metrics
func RecordWhaleNotice(severity, sendStatus, noticeType string) {
	WhaleNoticesTriggered.WithLabelValues(severity).Inc()
	WhaleNoticesSent.WithLabelValues(sendStatus, noticeType).Inc()
}

// RecordEnrichment records a trader stats enrichment lookup
func RecordEnrichment(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	EnrichmentLookups.WithLabelValues(status).Inc()
}

// RecordHealthCheck records health check status
func RecordHealthCheck(healthy bool) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	HealthChecks.WithLabelValues(status).Inc()
}
