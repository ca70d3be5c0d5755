// Package metrics provides Prometheus metrics for the pitchmap service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns one set of pitchmap collectors on a registry.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Frame extraction
	framesExtracted  prometheus.Counter
	extractionErrors *prometheus.CounterVec

	// Dominance regions
	regionsBuilt         prometheus.Counter
	cellsDropped         *prometheus.CounterVec
	tessellationDuration prometheus.Histogram

	// Rendering
	framesRendered  *prometheus.CounterVec
	renderDuration  prometheus.Histogram
	sessionsStored  prometheus.Gauge
	uploadDuplicate prometheus.Counter

	// Render queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueErrors prometheus.Counter
	workerActiveCount  prometheus.Gauge
	workerErrors       prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps default Go collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pitchmap",
		subsystem:        "",
		histogramBuckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.framesExtracted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_extracted_total",
		Help:      "Frames successfully extracted from tracking tables",
	})
	m.extractionErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frame_extraction_errors_total",
		Help:      "Frame extraction failures by kind",
	}, []string{"kind"})

	m.regionsBuilt = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dominance_regions_total",
		Help:      "Dominance regions produced",
	})
	m.cellsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "dominance_cells_dropped_total",
		Help:      "Tessellation cells excluded from the dominance mapping, by reason",
	}, []string{"reason"})
	m.tessellationDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tessellation_duration_milliseconds",
		Help:      "Time to build the dominance regions of one frame",
		Buckets:   m.histogramBuckets,
	})

	m.framesRendered = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "frames_rendered_total",
		Help:      "Frames rendered, by output kind",
	}, []string{"kind"})
	m.renderDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "render_duration_milliseconds",
		Help:      "Time to render and encode one frame",
		Buckets:   m.histogramBuckets,
	})
	m.sessionsStored = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_stored",
		Help:      "Tracking sessions currently held by the store",
	})
	m.uploadDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "uploads_duplicate_total",
		Help:      "Uploads answered from the idempotency memory",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "render_queue_size",
		Help:      "Render jobs waiting in the queue",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "render_queue_capacity",
		Help:      "Render queue capacity",
	})
	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "render_queue_enqueue_errors_total",
		Help:      "Render jobs rejected by the queue",
	})
	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "render_workers_active",
		Help:      "Render workers currently running",
	})
	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "render_worker_errors_total",
		Help:      "Render jobs that failed inside a worker",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "errors_total",
		Help:      "Errors by component and type",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "Heap bytes allocated",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "Average GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordFrameExtracted increments the extracted frames counter.
func RecordFrameExtracted() { globalManager.framesExtracted.Inc() }

// RecordExtractionError counts a failed extraction of the given kind.
func RecordExtractionError(kind string) { globalManager.extractionErrors.WithLabelValues(kind).Inc() }

// RecordRegionsBuilt adds n produced dominance regions.
func RecordRegionsBuilt(n int) { globalManager.regionsBuilt.Add(float64(n)) }

// RecordCellsDropped adds n excluded cells for reason.
func RecordCellsDropped(reason string, n int) {
	if n > 0 {
		globalManager.cellsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordTessellationLatency observes one dominance build duration.
func RecordTessellationLatency(ms float64) { globalManager.tessellationDuration.Observe(ms) }

// RecordFrameRendered counts a rendered frame of the given output kind (png, batch, stream).
func RecordFrameRendered(kind string) { globalManager.framesRendered.WithLabelValues(kind).Inc() }

// RecordRenderLatency observes one render duration.
func RecordRenderLatency(ms float64) { globalManager.renderDuration.Observe(ms) }

// UpdateSessionsStored sets the stored sessions gauge.
func UpdateSessionsStored(n int) { globalManager.sessionsStored.Set(float64(n)) }

// RecordUploadDuplicate counts an idempotent replay of an upload.
func RecordUploadDuplicate() { globalManager.uploadDuplicate.Inc() }

// UpdateQueueSize sets the render queue size gauge.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity sets the render queue capacity gauge.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueueError counts a rejected render job.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// AddWorkerActive moves the active worker gauge by delta.
func AddWorkerActive(delta int) { globalManager.workerActiveCount.Add(float64(delta)) }

// RecordWorkerError counts a failed render job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest counts one HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes one HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, ms float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(ms)
}

// RecordErrorByComponent counts an error raised by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime observes the average GC pause.
func RecordSystemGCPauseTime(ms float64) { globalManager.systemGCPauseTime.Observe(ms) }

// GetRegistry returns the registry the global manager writes to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
