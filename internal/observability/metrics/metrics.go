package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "heatwatch_"

	resultSuccess = "success"
	resultError   = "error"
	resultPartial = "partial"
)

var (
	registerOnce sync.Once

	runsTotal  *prometheus.CounterVec
	runLatency *prometheus.HistogramVec

	fetchErrors  *prometheus.CounterVec
	sitesSkipped prometheus.Counter

	windowsDetected prometheus.Counter
	rowsPersisted   *prometheus.CounterVec

	reportExportTotal   *prometheus.CounterVec
	reportExportLatency *prometheus.HistogramVec

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
)

// Init registers engine metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		runsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total evaluation runs by result",
			},
			[]string{"result"},
		)
		runLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "run_latency_seconds",
				Help:    "Evaluation run latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		fetchErrors = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fetch_errors_total",
				Help: "Total forecast fetch errors by site",
			},
			[]string{"site"},
		)
		sitesSkipped = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "sites_skipped_total",
				Help: "Total sites skipped across runs",
			},
		)

		windowsDetected = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "windows_detected_total",
				Help: "Total risk windows detected across runs",
			},
		)
		rowsPersisted = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "rows_persisted_total",
				Help: "Total rows written by table",
			},
			[]string{"table"},
		)

		reportExportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		reportExportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		apiRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "api_requests_total",
				Help: "Total API requests by path and status",
			},
			[]string{"path", "status"},
		)
		apiLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "api_latency_seconds",
				Help:    "API request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		)

		prometheus.MustRegister(
			runsTotal,
			runLatency,
			fetchErrors,
			sitesSkipped,
			windowsDetected,
			rowsPersisted,
			reportExportTotal,
			reportExportLatency,
			apiRequests,
			apiLatency,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveRun records run duration and result.
func ObserveRun(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if runsTotal != nil {
		runsTotal.WithLabelValues(result).Inc()
	}
	if runLatency != nil {
		runLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncFetchError increments the per-site fetch error counter.
func IncFetchError(site string) {
	if site == "" {
		site = "unknown"
	}
	if fetchErrors != nil {
		fetchErrors.WithLabelValues(site).Inc()
	}
}

// AddSitesSkipped increments the skipped site counter by count.
func AddSitesSkipped(count int) {
	if count <= 0 {
		return
	}
	if sitesSkipped != nil {
		sitesSkipped.Add(float64(count))
	}
}

// AddWindowsDetected increments the detected window counter by count.
func AddWindowsDetected(count int) {
	if count <= 0 {
		return
	}
	if windowsDetected != nil {
		windowsDetected.Add(float64(count))
	}
}

// AddRowsPersisted increments the persisted row counter for one table.
func AddRowsPersisted(table string, count int) {
	if table == "" || count <= 0 {
		return
	}
	if rowsPersisted != nil {
		rowsPersisted.WithLabelValues(table).Add(float64(count))
	}
}

// ObserveReportExport records export latency and result.
func ObserveReportExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if reportExportTotal != nil {
		reportExportTotal.WithLabelValues(format, result).Inc()
	}
	if reportExportLatency != nil {
		reportExportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// ObserveAPIRequest records one API request.
func ObserveAPIRequest(path, status string, duration time.Duration) {
	if path == "" {
		path = "unknown"
	}
	if apiRequests != nil {
		apiRequests.WithLabelValues(path, status).Inc()
	}
	if apiLatency != nil {
		apiLatency.WithLabelValues(path).Observe(duration.Seconds())
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultPartial = resultPartial
)
