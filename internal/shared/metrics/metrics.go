package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	authFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_auth_failures_total",
		Help: "Rejected requests by access guard outcome",
	}, []string{"kind"})

	filesStoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_files_stored_total",
		Help: "Files persisted by uploads",
	})

	uploadFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_upload_failures_total",
		Help: "Files in an upload batch that could not be persisted",
	})

	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_downloads_total",
		Help: "File reads by result",
	}, []string{"result"})

	filesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_files_deleted_total",
		Help: "File records removed",
	})

	orphanedRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_orphaned_records_total",
		Help: "File records whose backing bytes were missing",
	})

	complianceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "portal_compliance_report_duration_seconds",
		Help:    "Time spent computing compliance reports",
		Buckets: prometheus.DefBuckets,
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})
)

// IncAuthFailure counts a guard rejection of the given kind.
func IncAuthFailure(kind string) {
	authFailuresTotal.WithLabelValues(kind).Inc()
}

// IncFilesStored counts one persisted file.
func IncFilesStored() {
	filesStoredTotal.Inc()
}

// IncUploadFailure counts one file that failed inside a batch.
func IncUploadFailure() {
	uploadFailuresTotal.Inc()
}

// IncDownload counts a read attempt with its outcome.
func IncDownload(result string) {
	downloadsTotal.WithLabelValues(result).Inc()
}

// IncFilesDeleted counts one deleted record.
func IncFilesDeleted() {
	filesDeletedTotal.Inc()
}

// IncOrphanedRecord counts a record whose bytes were gone.
func IncOrphanedRecord() {
	orphanedRecordsTotal.Inc()
}

// ObserveComplianceDuration records how long a report took.
func ObserveComplianceDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	complianceDuration.Observe(d.Seconds())
}

// Middleware counts requests using the matched route template to bound cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
