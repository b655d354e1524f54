package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_http_requests_total",
		Help: "HTTP requests handled by the gateway.",
	}, []string{"method", "route", "status"})

	httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Help:    "Latency of HTTP requests handled by the gateway.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	contractsUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_contracts_uploaded_total",
		Help: "Contracts stored successfully.",
	})

	uploadBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_upload_bytes_total",
		Help: "Bytes written to the blob store by successful uploads.",
	})

	contractsDeleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_contracts_deleted_total",
		Help: "Contracts removed from both stores.",
	})

	orphanBlobs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_orphan_blobs_total",
		Help: "Blobs left without a metadata record after a failed compensation.",
	}, []string{"operation"})

	danglingRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_dangling_records_total",
		Help: "Metadata records left pointing at a deleted blob.",
	})
)

// InitMetrics registers the collectors with the default registry. Safe to call repeatedly.
func InitMetrics() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			contractsUploaded,
			uploadBytes,
			contractsDeleted,
			orphanBlobs,
			danglingRecords,
		)
	})
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// ContractUploaded counts a stored contract of the given size.
func ContractUploaded(size int64) {
	contractsUploaded.Inc()
	if size > 0 {
		uploadBytes.Add(float64(size))
	}
}

// ContractDeleted counts a fully removed contract.
func ContractDeleted() {
	contractsDeleted.Inc()
}

// OrphanBlob counts a blob that could not be cleaned up.
func OrphanBlob(operation string) {
	orphanBlobs.WithLabelValues(operation).Inc()
}

// DanglingRecord counts a record whose blob is already gone.
func DanglingRecord() {
	danglingRecords.Inc()
}
