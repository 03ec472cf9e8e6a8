package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/timetable-ga-api/internal/models"
	"github.com/noah-isme/timetable-ga-api/internal/scheduler"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	generationDuration    prometheus.Histogram
	generationCount       prometheus.Histogram
	generationBestFitness prometheus.Gauge
	generationConflicts   prometheus.Gauge
	generationRuns        *prometheus.CounterVec
	jobsInFlight          *prometheus.GaugeVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	dbQueryCount         uint64
	dbQueryDurationTotal uint64
	runCount             uint64
	perfectCount         uint64
	runDurationTotal     uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Wall time of timetable generation runs",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	generationCount := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_generations",
		Help:    "Generations executed per run",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2000},
	})

	generationBestFitness := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_generation_best_fitness",
		Help: "Best fitness of the most recent run",
	})

	generationConflicts := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_generation_conflicts",
		Help: "Conflicts left in the best individual of the most recent run",
	})

	generationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generation_runs_total",
		Help: "Generation runs by stop reason",
	}, []string{"stop_reason"})

	jobsInFlight := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "timetable_generation_jobs",
		Help: "Asynchronous generation jobs by status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		dbQueryDuration,
		generationDuration, generationCount, generationBestFitness, generationConflicts, generationRuns, jobsInFlight,
		goroutines,
	)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:              registry,
		handler:               handler,
		requestDuration:       requestDuration,
		requestTotal:          requestTotal,
		cacheLatency:          cacheLatency,
		cacheWrite:            cacheWrite,
		cacheHitRatio:         cacheHitRatio,
		cacheHits:             cacheHits,
		cacheMisses:           cacheMisses,
		dbQueryDuration:       dbQueryDuration,
		generationDuration:    generationDuration,
		generationCount:       generationCount,
		generationBestFitness: generationBestFitness,
		generationConflicts:   generationConflicts,
		generationRuns:        generationRuns,
		jobsInFlight:          jobsInFlight,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
	atomic.AddUint64(&m.dbQueryCount, 1)
	atomic.AddUint64(&m.dbQueryDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveGeneration records the outcome of one search run.
func (m *MetricsService) ObserveGeneration(result *scheduler.Result) {
	if m == nil || result == nil || result.Best == nil {
		return
	}
	m.generationDuration.Observe(result.Duration.Seconds())
	m.generationCount.Observe(float64(result.Generations))
	m.generationBestFitness.Set(result.Best.Fitness)
	m.generationConflicts.Set(float64(len(result.Best.Conflicts)))
	m.generationRuns.WithLabelValues(string(result.StopReason)).Inc()

	atomic.AddUint64(&m.runCount, 1)
	atomic.AddUint64(&m.runDurationTotal, uint64(result.Duration.Nanoseconds()))
	if result.StopReason == scheduler.StopPerfectSolution {
		atomic.AddUint64(&m.perfectCount, 1)
	}
}

// TrackJobTransition moves one job between status gauges. An empty from
// means the job is new.
func (m *MetricsService) TrackJobTransition(from, to models.GenerationStatus) {
	if m == nil {
		return
	}
	if from != "" {
		m.jobsInFlight.WithLabelValues(string(from)).Dec()
	}
	if to != "" {
		m.jobsInFlight.WithLabelValues(string(to)).Inc()
	}
}

// Snapshot returns aggregated metrics for the summary endpoint.
func (m *MetricsService) Snapshot() models.ServiceMetrics {
	if m == nil {
		return models.ServiceMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	dbCount := atomic.LoadUint64(&m.dbQueryCount)
	dbDuration := atomic.LoadUint64(&m.dbQueryDurationTotal)
	runs := atomic.LoadUint64(&m.runCount)
	runDuration := atomic.LoadUint64(&m.runDurationTotal)

	return models.ServiceMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: averageMs(reqDuration, requests),
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            ratio(hits, hits+misses),
		DBQueryCount:             dbCount,
		AverageDBQueryDurationMs: averageMs(dbDuration, dbCount),
		GenerationRuns:           runs,
		PerfectSolutions:         atomic.LoadUint64(&m.perfectCount),
		AverageGenerationMs:      averageMs(runDuration, runs),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func averageMs(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}

func ratio(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
